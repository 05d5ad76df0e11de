package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/nurpe/groupbuy-claims/internal/model"
)

type AccountOrderStore interface {
	ListOrdersForUser(ctx context.Context, userID int64) ([]model.Order, error)
}

type AccountInstanceStore interface {
	GetInstance(ctx context.Context, instanceID uuid.UUID) (*model.Instance, error)
}

// AccountService builds the "my orders" view a participant sees.
type AccountService struct {
	orders    AccountOrderStore
	instances AccountInstanceStore
}

func NewAccountService(orders AccountOrderStore, instances AccountInstanceStore) *AccountService {
	return &AccountService{orders: orders, instances: instances}
}

// Summary returns the participant's orders across all rounds, newest
// first, with the round each order belongs to and a grand total.
func (s *AccountService) Summary(ctx context.Context, userID int64) (*model.AccountSummary, error) {
	orders, err := s.orders.ListOrdersForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary := &model.AccountSummary{Orders: make([]model.AccountOrder, 0, len(orders))}
	rounds := make(map[uuid.UUID]*model.Instance)
	for _, order := range orders {
		inst, ok := rounds[order.InstanceID]
		if !ok {
			inst, err = s.instances.GetInstance(ctx, order.InstanceID)
			if err != nil {
				return nil, err
			}
			rounds[order.InstanceID] = inst
		}
		summary.Orders = append(summary.Orders, model.AccountOrder{
			OrderID:       order.ID,
			BreakdownName: inst.BreakdownName,
			InstanceID:    inst.ID,
			Status:        inst.Status,
			Items:         order.Items,
			Total:         order.Total,
			CreatedAt:     order.CreatedAt,
		})
		summary.GrandTotal += order.Total
	}
	return summary, nil
}
