package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/groupbuy-claims/internal/model"
)

// OrderRepository stores claims and their item lines. Item lines live in
// their own table keyed by (instance_id, item_name) so the claimed set of
// a round is one indexed query and disjointness is backed by a unique
// index.
type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

type orderRow struct {
	ID         uuid.UUID
	UserID     int64
	InstanceID uuid.UUID
	Total      float64
	CreatedAt  time.Time
}

type orderItemRow struct {
	OrderID  uuid.UUID
	ItemName string
	Price    float64
}

func (r *OrderRepository) CreateOrder(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row orderRow
		err := tx.Raw(`
			INSERT INTO orders (user_id, instance_id, total) VALUES (?, ?, ?)
			RETURNING id, user_id, instance_id, total, created_at
		`, order.UserID, order.InstanceID, order.Total).Scan(&row).Error
		if err != nil {
			return err
		}
		order.ID = row.ID
		order.CreatedAt = row.CreatedAt

		for _, line := range order.Items {
			if err := tx.Exec(`
				INSERT INTO order_items (order_id, instance_id, item_name, price)
				VALUES (?, ?, ?, ?)
			`, order.ID, order.InstanceID, line.Name, line.Price).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *OrderRepository) GetOrder(ctx context.Context, orderID uuid.UUID) (*model.Order, error) {
	var row orderRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, user_id, instance_id, total, created_at
		FROM orders
		WHERE id = ?
		LIMIT 1
	`, orderID).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}

	order := rowToOrder(row)
	if err := r.loadItems(ctx, []*model.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *OrderRepository) ListOrdersForInstance(ctx context.Context, instanceID uuid.UUID) ([]model.Order, error) {
	var rows []orderRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, user_id, instance_id, total, created_at
		FROM orders
		WHERE instance_id = ?
		ORDER BY created_at
	`, instanceID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return r.ordersWithItems(ctx, rows)
}

// ListOrdersForUser returns a participant's orders across all rounds,
// newest first.
func (r *OrderRepository) ListOrdersForUser(ctx context.Context, userID int64) ([]model.Order, error) {
	var rows []orderRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, user_id, instance_id, total, created_at
		FROM orders
		WHERE user_id = ?
		ORDER BY created_at DESC
	`, userID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return r.ordersWithItems(ctx, rows)
}

// UpdateOrder replaces the order's item lines and total.
func (r *OrderRepository) UpdateOrder(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Exec(`
			UPDATE orders SET total = ? WHERE id = ?
		`, order.Total, order.ID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		if err := tx.Exec(`DELETE FROM order_items WHERE order_id = ?`, order.ID).Error; err != nil {
			return err
		}
		for _, line := range order.Items {
			if err := tx.Exec(`
				INSERT INTO order_items (order_id, instance_id, item_name, price)
				VALUES (?, ?, ?, ?)
			`, order.ID, order.InstanceID, line.Name, line.Price).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *OrderRepository) DeleteOrder(ctx context.Context, orderID uuid.UUID) error {
	// order_items cascade on delete.
	return r.db.WithContext(ctx).Exec(`DELETE FROM orders WHERE id = ?`, orderID).Error
}

func (r *OrderRepository) ordersWithItems(ctx context.Context, rows []orderRow) ([]model.Order, error) {
	orders := make([]*model.Order, len(rows))
	for i, row := range rows {
		orders[i] = rowToOrder(row)
	}
	if err := r.loadItems(ctx, orders); err != nil {
		return nil, err
	}
	result := make([]model.Order, len(orders))
	for i, order := range orders {
		result[i] = *order
	}
	return result, nil
}

func (r *OrderRepository) loadItems(ctx context.Context, orders []*model.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(orders))
	index := make(map[uuid.UUID]*model.Order, len(orders))
	for i, order := range orders {
		ids[i] = order.ID
		index[order.ID] = order
	}

	var rows []orderItemRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT order_id, item_name, price
		FROM order_items
		WHERE order_id = ANY(?)
		ORDER BY item_name
	`, ids).Scan(&rows).Error
	if err != nil {
		return err
	}
	for _, row := range rows {
		order := index[row.OrderID]
		order.Items = append(order.Items, model.OrderItem{Name: row.ItemName, Price: row.Price})
	}
	return nil
}

func rowToOrder(row orderRow) *model.Order {
	return &model.Order{
		ID:         row.ID,
		UserID:     row.UserID,
		InstanceID: row.InstanceID,
		Total:      row.Total,
		CreatedAt:  row.CreatedAt,
	}
}
