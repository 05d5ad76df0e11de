package model

import "github.com/google/uuid"

// Breakdown is a named catalog of items offered for one group purchase.
// Hidden breakdowns stay out of the public listing but their in-flight
// rounds remain claimable.
type Breakdown struct {
	ID     uuid.UUID
	Name   string
	Hidden bool
}

type Item struct {
	ID            uuid.UUID
	BreakdownName string
	Name          string
	Price         float64
}
