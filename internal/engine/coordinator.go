package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/nurpe/groupbuy-claims/internal/model"
)

// Coordinator is the claim path: it validates a request against the
// catalog, resolves the open round, and commits or rejects the claim
// inside that round's critical section.
type Coordinator struct {
	catalog    CatalogStore
	orders     OrderStore
	instances  *InstanceManager
	detector   *CompletionDetector
	dispatcher Dispatcher
	locks      *keyedMutex
	log        zerolog.Logger
}

// AttemptClaim reserves the requested items for userID in the current open
// round of the breakdown. It either commits the whole selection as one
// order or fails without mutation: validation errors fire before any
// store write, and an overlap with already-claimed items yields a
// *ConflictError naming exactly the contested names.
func (c *Coordinator) AttemptClaim(ctx context.Context, breakdownName string, userID int64, itemNames []string) (*model.Order, error) {
	if len(itemNames) == 0 {
		claimsTotal.WithLabelValues(outcomeRejected).Inc()
		return nil, ErrEmptySelection
	}

	if _, err := c.catalog.GetBreakdown(ctx, breakdownName); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			claimsTotal.WithLabelValues(outcomeRejected).Inc()
			return nil, fmt.Errorf("%w: %s", ErrUnknownBreakdown, breakdownName)
		}
		return nil, err
	}

	items, err := c.catalog.ListItems(ctx, breakdownName)
	if err != nil {
		return nil, err
	}
	prices := make(map[string]float64, len(items))
	for _, item := range items {
		prices[item.Name] = item.Price
	}

	// Selections are sets: duplicates collapse, order is irrelevant.
	requested := make([]string, 0, len(itemNames))
	seen := make(map[string]struct{}, len(itemNames))
	for _, name := range itemNames {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		if _, ok := prices[name]; !ok {
			claimsTotal.WithLabelValues(outcomeRejected).Inc()
			return nil, fmt.Errorf("%w: %s", ErrUnknownItem, name)
		}
		requested = append(requested, name)
	}

	inst, err := c.instances.GetOrCreateOpen(ctx, breakdownName)
	if err != nil {
		return nil, err
	}

	// Critical section: read claimed set, check disjointness, write the
	// order, and run the completion check — all under the instance lock.
	unlock := c.locks.Lock(inst.ID.String())

	order, event, err := c.claimLocked(ctx, inst, userID, requested, prices)
	unlock()
	if err != nil {
		return nil, err
	}

	if event != nil {
		go c.dispatch(event)
	}
	return order, nil
}

func (c *Coordinator) claimLocked(ctx context.Context, inst *model.Instance, userID int64, requested []string, prices map[string]float64) (*model.Order, *CompletionEvent, error) {
	existing, err := c.orders.ListOrdersForInstance(ctx, inst.ID)
	if err != nil {
		return nil, nil, err
	}

	claimed := make(map[string]struct{})
	for _, order := range existing {
		for _, line := range order.Items {
			claimed[line.Name] = struct{}{}
		}
	}

	var contested []string
	for _, name := range requested {
		if _, taken := claimed[name]; taken {
			contested = append(contested, name)
		}
	}
	if len(contested) > 0 {
		sort.Strings(contested)
		claimsTotal.WithLabelValues(outcomeConflict).Inc()
		return nil, nil, &ConflictError{Items: contested}
	}

	order := &model.Order{
		UserID:     userID,
		InstanceID: inst.ID,
		Items:      make([]model.OrderItem, 0, len(requested)),
		CreatedAt:  time.Now().UTC(),
	}
	for _, name := range requested {
		price := prices[name]
		order.Items = append(order.Items, model.OrderItem{Name: name, Price: price})
		order.Total += price
	}

	if err := c.orders.CreateOrder(ctx, order); err != nil {
		return nil, nil, err
	}
	claimsTotal.WithLabelValues(outcomeCommitted).Inc()

	event, err := c.detector.Evaluate(ctx, inst)
	if err != nil {
		// The claim is committed; a failed completion check is logged, not
		// undone. If this claim took the last free item, no later claim can
		// succeed on this round, so nothing re-triggers evaluation until a
		// retraction touches the round. The round then sits fully claimed
		// but open, with the completion fan-out deferred until that next
		// mutation.
		c.log.Error().Err(err).
			Str("instance_id", inst.ID.String()).
			Msg("completion evaluation failed after claim")
		return order, nil, nil
	}
	return order, event, nil
}

// dispatch fans the completion snapshot out to every participant of the
// round. It runs outside the instance lock; failures are logged only.
func (c *Coordinator) dispatch(event *CompletionEvent) {
	ctx := context.Background()
	for _, notice := range event.Notices {
		if err := c.dispatcher.NotifyCompletion(ctx, notice); err != nil {
			notificationsTotal.WithLabelValues("error").Inc()
			c.log.Error().Err(err).
				Int64("user_id", notice.UserID).
				Str("instance_id", event.InstanceID).
				Msg("completion notice delivery failed")
			continue
		}
		notificationsTotal.WithLabelValues("ok").Inc()
	}
	c.log.Info().
		Str("instance_id", event.InstanceID).
		Str("breakdown", event.BreakdownName).
		Int("participants", len(event.Notices)).
		Msg("round completed")
}
