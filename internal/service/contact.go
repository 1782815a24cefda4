package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/avensio/avensio-web/internal/domain"
)

const maxContactMessageLen = 5000

// ContactService stores contact form submissions.
type ContactService struct {
	messages domain.ContactRepository
}

// NewContactService creates a new ContactService.
func NewContactService(messages domain.ContactRepository) *ContactService {
	return &ContactService{messages: messages}
}

// Submit validates and stores a contact form submission. A non-empty
// honeypot value drops the message without error, so bots receive the same
// response as humans.
func (s *ContactService) Submit(ctx context.Context, name, email, message, honeypot string) error {
	if honeypot != "" {
		return nil
	}

	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	message = strings.TrimSpace(message)

	if name == "" || email == "" || message == "" {
		return fmt.Errorf("%w: name, email, and message are required", domain.ErrInvalidInput)
	}
	if !strings.Contains(email, "@") {
		return fmt.Errorf("%w: invalid email address", domain.ErrInvalidInput)
	}
	if len(message) > maxContactMessageLen {
		return fmt.Errorf("%w: message must be at most %d characters", domain.ErrInvalidInput, maxContactMessageLen)
	}

	msg := &domain.ContactMessage{Name: name, Email: email, Message: message}
	if err := s.messages.Create(ctx, msg); err != nil {
		return fmt.Errorf("store contact message: %w", err)
	}
	return nil
}
