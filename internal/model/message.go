package model

import (
	"time"

	"github.com/google/uuid"
)

// Message is a free-form participant request stored in the admin inbox.
type Message struct {
	ID        uuid.UUID
	UserID    int64
	Text      string
	CreatedAt time.Time
}
