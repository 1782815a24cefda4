package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/avensio/avensio-web/internal/domain"
	"github.com/google/uuid"
)

// ContactRepository implements domain.ContactRepository using SQLite.
type ContactRepository struct {
	db *sql.DB
}

// NewContactRepository creates a new SQLite-backed ContactRepository.
func NewContactRepository(db *DB) *ContactRepository {
	return &ContactRepository{db: db.SqlDB}
}

func (r *ContactRepository) Create(ctx context.Context, msg *domain.ContactMessage) error {
	now := time.Now().UTC()
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO contact_messages (id, name, email, message, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		msg.ID, msg.Name, msg.Email, msg.Message, now,
	)
	if err != nil {
		return fmt.Errorf("insert contact message: %w", err)
	}

	msg.CreatedAt = now
	return nil
}
