package domain

import (
	"context"
	"time"
)

// ContactMessage is a contact form submission stored for later follow-up.
type ContactMessage struct {
	ID        string
	Name      string
	Email     string
	Message   string
	CreatedAt time.Time
}

// ContactRepository defines persistence operations for contact messages.
type ContactRepository interface {
	Create(ctx context.Context, msg *ContactMessage) error
}
