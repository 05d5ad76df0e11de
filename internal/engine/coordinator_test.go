package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/nurpe/groupbuy-claims/internal/model"
)

func newTestEngine(t *testing.T) (*Engine, *memStore, *recordingDispatcher) {
	t.Helper()
	store := newMemStore()
	dispatcher := newRecordingDispatcher()
	eng := New(store, store, store, dispatcher, zerolog.Nop())
	return eng, store, dispatcher
}

func TestAttemptClaim_CommitsAndStaysOpen(t *testing.T) {
	eng, store, _ := newTestEngine(t)
	store.addBreakdown("B1", map[string]float64{"X": 10, "Y": 20})

	order, err := eng.Claims.AttemptClaim(context.Background(), "B1", 1, []string{"X"})
	if err != nil {
		t.Fatalf("AttemptClaim failed: %v", err)
	}
	if order.Total != 10 {
		t.Errorf("expected total 10, got %v", order.Total)
	}
	if len(order.Items) != 1 || order.Items[0].Name != "X" {
		t.Errorf("unexpected order items: %+v", order.Items)
	}

	inst, err := store.FindOpenInstance(context.Background(), "B1")
	if err != nil || inst == nil {
		t.Fatalf("expected an open instance, got %v / %v", inst, err)
	}
}

func TestAttemptClaim_LastItemCompletesRound(t *testing.T) {
	eng, store, dispatcher := newTestEngine(t)
	store.addBreakdown("B1", map[string]float64{"X": 10, "Y": 20})
	ctx := context.Background()

	if _, err := eng.Claims.AttemptClaim(ctx, "B1", 1, []string{"X"}); err != nil {
		t.Fatalf("first claim failed: %v", err)
	}
	second, err := eng.Claims.AttemptClaim(ctx, "B1", 2, []string{"Y"})
	if err != nil {
		t.Fatalf("second claim failed: %v", err)
	}
	if second.Total != 20 {
		t.Errorf("expected total 20, got %v", second.Total)
	}

	inst, err := store.GetInstance(ctx, second.InstanceID)
	if err != nil {
		t.Fatalf("GetInstance failed: %v", err)
	}
	if inst.Status != model.InstanceStatusComplete {
		t.Errorf("expected instance complete, got %s", inst.Status)
	}

	if !dispatcher.waitFor(2) {
		t.Fatalf("expected 2 completion notices, got %d", len(dispatcher.all()))
	}
	totals := map[int64]float64{}
	for _, notice := range dispatcher.all() {
		totals[notice.UserID] = notice.Total
	}
	if totals[1] != 10 || totals[2] != 20 {
		t.Errorf("unexpected notice totals: %v", totals)
	}
}

func TestAttemptClaim_ConflictNamesOnlyContestedItems(t *testing.T) {
	eng, store, _ := newTestEngine(t)
	store.addBreakdown("B1", map[string]float64{"X": 10, "Y": 20})
	ctx := context.Background()

	if _, err := eng.Claims.AttemptClaim(ctx, "B1", 1, []string{"X"}); err != nil {
		t.Fatalf("setup claim failed: %v", err)
	}

	_, err := eng.Claims.AttemptClaim(ctx, "B1", 2, []string{"X", "Y"})
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if len(conflict.Items) != 1 || conflict.Items[0] != "X" {
		t.Errorf("expected conflict on X only, got %v", conflict.Items)
	}

	// The losing claim must not leave a partial order; Y stays free.
	inst, _ := store.FindOpenInstance(ctx, "B1")
	orders, _ := store.ListOrdersForInstance(ctx, inst.ID)
	if len(orders) != 1 {
		t.Fatalf("expected 1 order after conflict, got %d", len(orders))
	}
	if _, err := eng.Claims.AttemptClaim(ctx, "B1", 3, []string{"Y"}); err != nil {
		t.Errorf("Y should still be claimable: %v", err)
	}
}

func TestAttemptClaim_Validation(t *testing.T) {
	eng, store, _ := newTestEngine(t)
	store.addBreakdown("B1", map[string]float64{"X": 10})
	ctx := context.Background()

	if _, err := eng.Claims.AttemptClaim(ctx, "B1", 1, nil); !errors.Is(err, ErrEmptySelection) {
		t.Errorf("expected ErrEmptySelection, got %v", err)
	}
	if _, err := eng.Claims.AttemptClaim(ctx, "nope", 1, []string{"X"}); !errors.Is(err, ErrUnknownBreakdown) {
		t.Errorf("expected ErrUnknownBreakdown, got %v", err)
	}
	if _, err := eng.Claims.AttemptClaim(ctx, "B1", 1, []string{"Z"}); !errors.Is(err, ErrUnknownItem) {
		t.Errorf("expected ErrUnknownItem, got %v", err)
	}

	// Rejections happen before any store write.
	if inst, _ := store.FindOpenInstance(ctx, "B1"); inst != nil {
		orders, _ := store.ListOrdersForInstance(ctx, inst.ID)
		if len(orders) != 0 {
			t.Errorf("rejected claims must not create orders, found %d", len(orders))
		}
	}
}

func TestAttemptClaim_DuplicateSelectionCollapses(t *testing.T) {
	eng, store, _ := newTestEngine(t)
	store.addBreakdown("B1", map[string]float64{"X": 10})

	order, err := eng.Claims.AttemptClaim(context.Background(), "B1", 1, []string{"X", "X"})
	if err != nil {
		t.Fatalf("AttemptClaim failed: %v", err)
	}
	if len(order.Items) != 1 || order.Total != 10 {
		t.Errorf("duplicates must collapse to one line: %+v", order)
	}
}

func TestAttemptClaim_ConcurrentOverlap(t *testing.T) {
	eng, store, _ := newTestEngine(t)
	store.addBreakdown("B1", map[string]float64{
		"A": 1, "B": 2, "C": 3, "D": 4, "E": 5,
	})
	ctx := context.Background()

	// Every worker races for item A plus one private item. Exactly one
	// wins A; the losers' conflicts name A and nothing else.
	private := []string{"B", "C", "D", "E"}
	var wg sync.WaitGroup
	results := make([]error, len(private))
	for i, item := range private {
		wg.Add(1)
		go func(i int, item string) {
			defer wg.Done()
			_, results[i] = eng.Claims.AttemptClaim(ctx, "B1", int64(i+1), []string{"A", item})
		}(i, item)
	}
	wg.Wait()

	winners := 0
	for _, err := range results {
		if err == nil {
			winners++
			continue
		}
		var conflict *ConflictError
		if !errors.As(err, &conflict) {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(conflict.Items) != 1 || conflict.Items[0] != "A" {
			t.Errorf("conflict must name only A, got %v", conflict.Items)
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly 1 winner for item A, got %d", winners)
	}

	// Disjointness invariant: no item appears in two orders.
	inst, _ := store.FindOpenInstance(ctx, "B1")
	orders, _ := store.ListOrdersForInstance(ctx, inst.ID)
	seen := map[string]int{}
	for _, order := range orders {
		for _, line := range order.Items {
			seen[line.Name]++
		}
	}
	for name, count := range seen {
		if count > 1 {
			t.Errorf("item %s claimed %d times", name, count)
		}
	}
}

func TestAttemptClaim_ConcurrentDisjointBothSucceed(t *testing.T) {
	eng, store, _ := newTestEngine(t)
	store.addBreakdown("B1", map[string]float64{"X": 10, "Y": 20, "Z": 30})
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	sets := [][]string{{"X"}, {"Y"}}
	for i := range sets {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = eng.Claims.AttemptClaim(ctx, "B1", int64(i+1), sets[i])
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("disjoint claim %d must succeed, got %v", i, err)
		}
	}
	inst, _ := store.FindOpenInstance(ctx, "B1")
	orders, _ := store.ListOrdersForInstance(ctx, inst.ID)
	if len(orders) != 2 {
		t.Errorf("expected 2 orders, got %d", len(orders))
	}
}

func TestAttemptClaim_RaceForLastItemCompletesOnce(t *testing.T) {
	eng, store, dispatcher := newTestEngine(t)
	store.addBreakdown("B1", map[string]float64{"X": 10, "Y": 20})
	ctx := context.Background()

	if _, err := eng.Claims.AttemptClaim(ctx, "B1", 1, []string{"X"}); err != nil {
		t.Fatalf("setup claim failed: %v", err)
	}

	// Many racers for the last item: one completes the round, the rest
	// conflict, and the completion fires exactly once.
	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = eng.Claims.AttemptClaim(ctx, "B1", int64(100+i), []string{"Y"})
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly 1 winner for last item, got %d", winners)
	}

	if !dispatcher.waitFor(2) {
		t.Fatalf("expected 2 completion notices, got %d", len(dispatcher.all()))
	}
	// Give a duplicate completion time to surface before asserting.
	time.Sleep(50 * time.Millisecond)
	if got := len(dispatcher.all()); got != 2 {
		t.Errorf("completion must fire once (2 participants), got %d notices", got)
	}
}
