package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/groupbuy-claims/internal/model"
)

// memStore backs the engine with maps so tests exercise the real locking
// and completion logic without a database. All methods are safe for
// concurrent use, mirroring the isolation the gorm repositories provide.
type memStore struct {
	mu         sync.Mutex
	breakdowns map[string]*model.Breakdown
	items      map[string][]model.Item
	instances  map[uuid.UUID]*model.Instance
	orders     map[uuid.UUID]*model.Order
}

func newMemStore() *memStore {
	return &memStore{
		breakdowns: make(map[string]*model.Breakdown),
		items:      make(map[string][]model.Item),
		instances:  make(map[uuid.UUID]*model.Instance),
		orders:     make(map[uuid.UUID]*model.Order),
	}
}

func (s *memStore) addBreakdown(name string, items map[string]float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.breakdowns[name] = &model.Breakdown{ID: uuid.New(), Name: name}
	for itemName, price := range items {
		s.items[name] = append(s.items[name], model.Item{
			ID:            uuid.New(),
			BreakdownName: name,
			Name:          itemName,
			Price:         price,
		})
	}
}

func (s *memStore) GetBreakdown(_ context.Context, name string) (*model.Breakdown, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.breakdowns[name]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *b
	return &copied, nil
}

func (s *memStore) ListItems(_ context.Context, breakdownName string) ([]model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]model.Item, len(s.items[breakdownName]))
	copy(items, s.items[breakdownName])
	return items, nil
}

func (s *memStore) FindOpenInstance(_ context.Context, breakdownName string) (*model.Instance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, inst := range s.instances {
		if inst.BreakdownName == breakdownName && inst.Status == model.InstanceStatusOpen {
			copied := *inst
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *memStore) CreateInstance(_ context.Context, breakdownName string) (*model.Instance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst := &model.Instance{
		ID:            uuid.New(),
		BreakdownName: breakdownName,
		Status:        model.InstanceStatusOpen,
		CreatedAt:     time.Now().UTC(),
	}
	s.instances[inst.ID] = inst
	copied := *inst
	return &copied, nil
}

func (s *memStore) GetInstance(_ context.Context, instanceID uuid.UUID) (*model.Instance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst, ok := s.instances[instanceID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *inst
	return &copied, nil
}

func (s *memStore) SetStatus(_ context.Context, instanceID uuid.UUID, status model.InstanceStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst, ok := s.instances[instanceID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	inst.Status = status
	return nil
}

func (s *memStore) CreateOrder(_ context.Context, order *model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	s.orders[order.ID] = copyOrder(order)
	return nil
}

func (s *memStore) GetOrder(_ context.Context, orderID uuid.UUID) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return copyOrder(order), nil
}

func (s *memStore) ListOrdersForInstance(_ context.Context, instanceID uuid.UUID) ([]model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var orders []model.Order
	for _, order := range s.orders {
		if order.InstanceID == instanceID {
			orders = append(orders, *copyOrder(order))
		}
	}
	return orders, nil
}

func (s *memStore) UpdateOrder(_ context.Context, order *model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[order.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	s.orders[order.ID] = copyOrder(order)
	return nil
}

func (s *memStore) DeleteOrder(_ context.Context, orderID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.orders, orderID)
	return nil
}

func (s *memStore) openInstanceCount(breakdownName string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, inst := range s.instances {
		if inst.BreakdownName == breakdownName && inst.Status == model.InstanceStatusOpen {
			count++
		}
	}
	return count
}

func copyOrder(order *model.Order) *model.Order {
	copied := *order
	copied.Items = make([]model.OrderItem, len(order.Items))
	copy(copied.Items, order.Items)
	return &copied
}

// recordingDispatcher captures completion notices for assertions. Dispatch
// runs on a goroutine, so tests wait on the notices channel.
type recordingDispatcher struct {
	mu      sync.Mutex
	notices []CompletionNotice
	signal  chan struct{}
}

func newRecordingDispatcher() *recordingDispatcher {
	return &recordingDispatcher{signal: make(chan struct{}, 64)}
}

func (d *recordingDispatcher) NotifyCompletion(_ context.Context, notice CompletionNotice) error {
	d.mu.Lock()
	d.notices = append(d.notices, notice)
	d.mu.Unlock()
	d.signal <- struct{}{}
	return nil
}

func (d *recordingDispatcher) all() []CompletionNotice {
	d.mu.Lock()
	defer d.mu.Unlock()
	notices := make([]CompletionNotice, len(d.notices))
	copy(notices, d.notices)
	return notices
}

// waitFor blocks until n notices arrived or the deadline passes.
func (d *recordingDispatcher) waitFor(n int) bool {
	deadline := time.After(2 * time.Second)
	for {
		d.mu.Lock()
		got := len(d.notices)
		d.mu.Unlock()
		if got >= n {
			return true
		}
		select {
		case <-d.signal:
		case <-deadline:
			return false
		}
	}
}
