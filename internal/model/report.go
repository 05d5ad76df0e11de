package model

import (
	"time"

	"github.com/google/uuid"
)

// PositionStatus marks a catalog item inside one round as free or names
// the participant who claimed it.
type PositionStatus struct {
	ItemName  string
	Price     float64
	Claimed   bool
	ClaimedBy string
}

// InstancePositions lists every catalog position of one round with its
// claim status. Used by the positions report and its xlsx export.
type InstancePositions struct {
	InstanceID    uuid.UUID
	BreakdownName string
	Status        InstanceStatus
	Positions     []PositionStatus
}

// RoundOrder is one order inside a completed-rounds report.
type RoundOrder struct {
	Username string
	UserID   int64
	Items    []OrderItem
	Total    float64
}

// CompletedRound groups the orders of one fully claimed instance.
type CompletedRound struct {
	InstanceID    uuid.UUID
	BreakdownName string
	Orders        []RoundOrder
}

// ReceiptOrder is one order line inside a participant receipt.
type ReceiptOrder struct {
	BreakdownName string
	InstanceID    uuid.UUID
	Items         []OrderItem
	Total         float64
}

// Receipt aggregates a participant's orders across completed rounds.
type Receipt struct {
	UserID   int64
	Username string
	Orders   []ReceiptOrder
	Total    float64
}

// AccountOrder is one order as shown in a participant's own account view.
type AccountOrder struct {
	OrderID       uuid.UUID
	BreakdownName string
	InstanceID    uuid.UUID
	Status        InstanceStatus
	Items         []OrderItem
	Total         float64
	CreatedAt     time.Time
}

// AccountSummary is everything a participant sees about their own orders.
type AccountSummary struct {
	Orders     []AccountOrder
	GrandTotal float64
}
