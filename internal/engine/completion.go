package engine

import (
	"context"

	"github.com/nurpe/groupbuy-claims/internal/model"
)

// CompletionDetector decides whether a round's claimed items cover its
// full catalog and performs the open→complete transition. Evaluate must
// be called inside the instance's critical section so the flip fires
// exactly once even when claims race for the last item.
type CompletionDetector struct {
	catalog   CatalogStore
	orders    OrderStore
	instances InstanceStore
}

// CompletionEvent is the snapshot of a just-completed round, one notice
// per order, captured under the lock for dispatch outside it.
type CompletionEvent struct {
	InstanceID    string
	BreakdownName string
	Notices       []CompletionNotice
}

func NewCompletionDetector(catalog CatalogStore, orders OrderStore, instances InstanceStore) *CompletionDetector {
	return &CompletionDetector{catalog: catalog, orders: orders, instances: instances}
}

// Evaluate recomputes the claimed set and flips the instance to complete
// when it equals the catalog. Re-evaluating an already-complete instance
// is a no-op, so a completion event is produced at most once. inst is
// mutated in place on transition.
func (d *CompletionDetector) Evaluate(ctx context.Context, inst *model.Instance) (*CompletionEvent, error) {
	if inst.Status != model.InstanceStatusOpen {
		return nil, nil
	}

	items, err := d.catalog.ListItems(ctx, inst.BreakdownName)
	if err != nil {
		return nil, err
	}
	// An empty catalog can never be fully claimed.
	if len(items) == 0 {
		return nil, nil
	}

	orders, err := d.orders.ListOrdersForInstance(ctx, inst.ID)
	if err != nil {
		return nil, err
	}

	claimed := make(map[string]struct{})
	for _, order := range orders {
		for _, line := range order.Items {
			claimed[line.Name] = struct{}{}
		}
	}
	for _, item := range items {
		if _, ok := claimed[item.Name]; !ok {
			return nil, nil
		}
	}

	if err := d.instances.SetStatus(ctx, inst.ID, model.InstanceStatusComplete); err != nil {
		return nil, err
	}
	inst.Status = model.InstanceStatusComplete
	roundsCompletedTotal.Inc()

	event := &CompletionEvent{
		InstanceID:    inst.ID.String(),
		BreakdownName: inst.BreakdownName,
		Notices:       make([]CompletionNotice, 0, len(orders)),
	}
	for _, order := range orders {
		lines := make([]model.OrderItem, len(order.Items))
		copy(lines, order.Items)
		event.Notices = append(event.Notices, CompletionNotice{
			UserID:        order.UserID,
			InstanceID:    inst.ID,
			BreakdownName: inst.BreakdownName,
			Items:         lines,
			Total:         order.Total,
		})
	}
	return event, nil
}
