package model

import (
	"time"

	"github.com/google/uuid"
)

type InstanceStatus string

const (
	InstanceStatusOpen     InstanceStatus = "open"
	InstanceStatusComplete InstanceStatus = "complete"
)

// Instance is one active round of claiming against a breakdown's catalog.
// At most one open instance exists per breakdown at any time.
type Instance struct {
	ID            uuid.UUID
	BreakdownName string
	Status        InstanceStatus
	CreatedAt     time.Time
}
