package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/nurpe/groupbuy-claims/internal/model"
)

// RemoveOutcome distinguishes the two terminal states of a retraction.
type RemoveOutcome string

const (
	OrderUpdated RemoveOutcome = "order_updated"
	OrderDeleted RemoveOutcome = "order_deleted"
)

// RemoveItemResult reports what a retraction did. Order is nil when the
// order was deleted; Reopened is set when the owning round was complete
// and the retraction reverted it to open.
type RemoveItemResult struct {
	Outcome  RemoveOutcome
	Order    *model.Order
	Reopened bool
}

// MutationHandler retracts a single claimed item from an existing order,
// deleting the order when it empties and reopening the round when it was
// complete. It shares the per-instance locks with the Coordinator and
// reopens through the InstanceManager so the single-open-round invariant
// holds against concurrent round creation.
type MutationHandler struct {
	orders    OrderStore
	instances InstanceStore
	manager   *InstanceManager
	detector  *CompletionDetector
	locks     *keyedMutex
	log       zerolog.Logger
}

// RemoveItem removes itemName from the order, subtracting its snapshot
// price from the total. The read-mutate-write sequence and any status
// flip run under the instance's critical section.
func (m *MutationHandler) RemoveItem(ctx context.Context, orderID uuid.UUID, itemName string) (*RemoveItemResult, error) {
	// Resolve the owning instance first; the order is re-read under the
	// lock in case a concurrent retraction got there before us.
	order, err := m.orders.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %s", ErrNotFound, orderID)
		}
		return nil, err
	}

	unlock := m.locks.Lock(order.InstanceID.String())
	defer unlock()

	order, err = m.orders.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %s", ErrNotFound, orderID)
		}
		return nil, err
	}

	remaining := make([]model.OrderItem, 0, len(order.Items))
	removed := false
	for _, line := range order.Items {
		if !removed && line.Name == itemName {
			removed = true
			continue
		}
		remaining = append(remaining, line)
	}
	if !removed {
		return nil, fmt.Errorf("%w: item %q in order %s", ErrNotFound, itemName, orderID)
	}

	inst, err := m.instances.GetInstance(ctx, order.InstanceID)
	if err != nil {
		return nil, err
	}

	result := &RemoveItemResult{}
	// Completeness is derived: any retraction breaks full coverage, so a
	// complete round must revert to open. The reopen runs before the order
	// is touched; a refused reopen (newer open round exists) fails the
	// whole retraction with nothing written.
	if inst.Status == model.InstanceStatusComplete {
		if err := m.manager.Reopen(ctx, inst); err != nil {
			return nil, err
		}
		result.Reopened = true
		roundsReopenedTotal.Inc()
		m.log.Info().
			Str("instance_id", inst.ID.String()).
			Str("breakdown", inst.BreakdownName).
			Str("item", itemName).
			Msg("round reopened by retraction")
	}

	if len(remaining) == 0 {
		if err := m.orders.DeleteOrder(ctx, order.ID); err != nil {
			return nil, err
		}
		result.Outcome = OrderDeleted
	} else {
		order.Items = remaining
		order.Total = 0
		for _, line := range remaining {
			order.Total += line.Price
		}
		if err := m.orders.UpdateOrder(ctx, order); err != nil {
			return nil, err
		}
		result.Outcome = OrderUpdated
		result.Order = order
	}

	// Coverage is broken now, so this stays a no-op; it keeps the status
	// honest if a future mutation path forgets to evaluate.
	if _, err := m.detector.Evaluate(ctx, inst); err != nil {
		m.log.Error().Err(err).
			Str("instance_id", inst.ID.String()).
			Msg("completion evaluation failed after retraction")
	}
	return result, nil
}
