package engine

import (
	"context"

	"github.com/google/uuid"

	"github.com/nurpe/groupbuy-claims/internal/model"
)

// CatalogStore is the read-only view of breakdowns and their items that
// the engine consumes.
type CatalogStore interface {
	// GetBreakdown returns the breakdown or gorm.ErrRecordNotFound.
	GetBreakdown(ctx context.Context, name string) (*model.Breakdown, error)
	ListItems(ctx context.Context, breakdownName string) ([]model.Item, error)
}

// OrderStore persists claims. Writes happen only from inside the engine's
// per-instance critical sections.
type OrderStore interface {
	CreateOrder(ctx context.Context, order *model.Order) error
	GetOrder(ctx context.Context, orderID uuid.UUID) (*model.Order, error)
	ListOrdersForInstance(ctx context.Context, instanceID uuid.UUID) ([]model.Order, error)
	UpdateOrder(ctx context.Context, order *model.Order) error
	DeleteOrder(ctx context.Context, orderID uuid.UUID) error
}

// InstanceStore persists rounds and their open/complete status.
type InstanceStore interface {
	// FindOpenInstance returns (nil, nil) when the breakdown has no open round.
	FindOpenInstance(ctx context.Context, breakdownName string) (*model.Instance, error)
	CreateInstance(ctx context.Context, breakdownName string) (*model.Instance, error)
	GetInstance(ctx context.Context, instanceID uuid.UUID) (*model.Instance, error)
	SetStatus(ctx context.Context, instanceID uuid.UUID, status model.InstanceStatus) error
}

// CompletionNotice is the immutable per-order snapshot captured when a
// round completes, handed to the dispatcher outside the lock.
type CompletionNotice struct {
	UserID        int64
	InstanceID    uuid.UUID
	BreakdownName string
	Items         []model.OrderItem
	Total         float64
}

// Dispatcher fans a completion notice out to one participant. Delivery is
// best effort; the engine logs failures and never rolls back the claim.
type Dispatcher interface {
	NotifyCompletion(ctx context.Context, notice CompletionNotice) error
}
