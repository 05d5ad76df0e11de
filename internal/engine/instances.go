package engine

import (
	"context"
	"fmt"

	"github.com/nurpe/groupbuy-claims/internal/model"
)

// InstanceManager resolves the single open round of a breakdown, creating
// one lazily when none exists. Creation runs under a lock keyed by the
// breakdown name so concurrent callers cannot produce two open rounds; a
// partial unique index in the store backs the same invariant.
type InstanceManager struct {
	store InstanceStore
	locks *keyedMutex
}

func NewInstanceManager(store InstanceStore) *InstanceManager {
	return &InstanceManager{store: store, locks: newKeyedMutex()}
}

// GetOrCreateOpen returns the breakdown's open instance, creating it when
// none exists.
func (m *InstanceManager) GetOrCreateOpen(ctx context.Context, breakdownName string) (*model.Instance, error) {
	unlock := m.locks.Lock(breakdownName)
	defer unlock()

	inst, err := m.store.FindOpenInstance(ctx, breakdownName)
	if err != nil {
		return nil, err
	}
	if inst != nil {
		return inst, nil
	}
	return m.store.CreateInstance(ctx, breakdownName)
}

// Reopen reverts a complete round to open so its items become claimable
// again. It takes the same per-breakdown lock as GetOrCreateOpen, so the
// check cannot race a lazy round creation: when a newer open round
// already exists the reopen fails with ErrRoundSuperseded and nothing is
// written. inst is mutated in place on success.
func (m *InstanceManager) Reopen(ctx context.Context, inst *model.Instance) error {
	unlock := m.locks.Lock(inst.BreakdownName)
	defer unlock()

	open, err := m.store.FindOpenInstance(ctx, inst.BreakdownName)
	if err != nil {
		return err
	}
	if open != nil && open.ID != inst.ID {
		return fmt.Errorf("%w: breakdown %q", ErrRoundSuperseded, inst.BreakdownName)
	}
	if err := m.store.SetStatus(ctx, inst.ID, model.InstanceStatusOpen); err != nil {
		return err
	}
	inst.Status = model.InstanceStatusOpen
	return nil
}
