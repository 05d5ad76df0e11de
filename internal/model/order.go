package model

import (
	"time"

	"github.com/google/uuid"
)

// Order is one participant's successful claim within one instance.
// Item prices are snapshots taken at claim time; Total is their sum.
type Order struct {
	ID         uuid.UUID
	UserID     int64
	InstanceID uuid.UUID
	Items      []OrderItem
	Total      float64
	CreatedAt  time.Time
}

type OrderItem struct {
	Name  string
	Price float64
}
