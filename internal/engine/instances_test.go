package engine

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
)

func TestGetOrCreateOpen_ReusesExisting(t *testing.T) {
	store := newMemStore()
	store.addBreakdown("B1", map[string]float64{"X": 1})
	manager := NewInstanceManager(store)
	ctx := context.Background()

	first, err := manager.GetOrCreateOpen(ctx, "B1")
	if err != nil {
		t.Fatalf("GetOrCreateOpen failed: %v", err)
	}
	second, err := manager.GetOrCreateOpen(ctx, "B1")
	if err != nil {
		t.Fatalf("GetOrCreateOpen failed: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("expected the same open instance, got %s and %s", first.ID, second.ID)
	}
}

func TestGetOrCreateOpen_ConcurrentCallersOneInstance(t *testing.T) {
	store := newMemStore()
	store.addBreakdown("B1", map[string]float64{"X": 1})
	manager := NewInstanceManager(store)
	ctx := context.Background()

	const callers = 16
	var wg sync.WaitGroup
	ids := make([]uuid.UUID, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			inst, err := manager.GetOrCreateOpen(ctx, "B1")
			if err != nil {
				t.Errorf("GetOrCreateOpen failed: %v", err)
				return
			}
			ids[i] = inst.ID
		}(i)
	}
	wg.Wait()

	for i := 1; i < callers; i++ {
		if ids[i] != ids[0] {
			t.Fatalf("got more than one open instance: %s vs %s", ids[0], ids[i])
		}
	}
}

func TestGetOrCreateOpen_DifferentBreakdownsIndependent(t *testing.T) {
	store := newMemStore()
	store.addBreakdown("B1", map[string]float64{"X": 1})
	store.addBreakdown("B2", map[string]float64{"Y": 1})
	manager := NewInstanceManager(store)
	ctx := context.Background()

	a, err := manager.GetOrCreateOpen(ctx, "B1")
	if err != nil {
		t.Fatalf("GetOrCreateOpen failed: %v", err)
	}
	b, err := manager.GetOrCreateOpen(ctx, "B2")
	if err != nil {
		t.Fatalf("GetOrCreateOpen failed: %v", err)
	}
	if a.ID == b.ID {
		t.Errorf("breakdowns must get distinct instances")
	}
}
