package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/groupbuy-claims/internal/model"
)

// CatalogRepository stores breakdowns and their items. It is the read
// path of the claim engine and the write path of catalog authoring.
type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) GetBreakdown(ctx context.Context, name string) (*model.Breakdown, error) {
	var row struct {
		ID     uuid.UUID
		Name   string
		Hidden bool
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, name, hidden FROM breakdowns WHERE name = ? LIMIT 1
	`, name).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &model.Breakdown{ID: row.ID, Name: row.Name, Hidden: row.Hidden}, nil
}

// ListBreakdowns returns all breakdowns, or only visible ones when
// includeHidden is false.
func (r *CatalogRepository) ListBreakdowns(ctx context.Context, includeHidden bool) ([]model.Breakdown, error) {
	query := `SELECT id, name, hidden FROM breakdowns ORDER BY name`
	if !includeHidden {
		query = `SELECT id, name, hidden FROM breakdowns WHERE hidden = FALSE ORDER BY name`
	}
	var breakdowns []model.Breakdown
	if err := r.db.WithContext(ctx).Raw(query).Scan(&breakdowns).Error; err != nil {
		return nil, err
	}
	return breakdowns, nil
}

func (r *CatalogRepository) CreateBreakdown(ctx context.Context, name string) (*model.Breakdown, error) {
	var created model.Breakdown
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO breakdowns (name) VALUES (?)
		RETURNING id, name, hidden
	`, name).Scan(&created).Error
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *CatalogRepository) SetHidden(ctx context.Context, name string, hidden bool) error {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE breakdowns SET hidden = ? WHERE name = ?
	`, hidden, name)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteBreakdown removes the breakdown and everything hanging off it:
// items, instances, orders and their lines, in one transaction.
func (r *CatalogRepository) DeleteBreakdown(ctx context.Context, name string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`
			DELETE FROM order_items WHERE instance_id IN (
				SELECT id FROM breakdown_instances WHERE breakdown_name = ?
			)
		`, name).Error; err != nil {
			return err
		}
		if err := tx.Exec(`
			DELETE FROM orders WHERE instance_id IN (
				SELECT id FROM breakdown_instances WHERE breakdown_name = ?
			)
		`, name).Error; err != nil {
			return err
		}
		if err := tx.Exec(`DELETE FROM breakdown_instances WHERE breakdown_name = ?`, name).Error; err != nil {
			return err
		}
		if err := tx.Exec(`DELETE FROM items WHERE breakdown_name = ?`, name).Error; err != nil {
			return err
		}
		result := tx.Exec(`DELETE FROM breakdowns WHERE name = ?`, name)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *CatalogRepository) AddItem(ctx context.Context, breakdownName, itemName string, price float64) (*model.Item, error) {
	var row struct {
		ID            uuid.UUID
		BreakdownName string
		ItemName      string
		Price         float64
	}
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO items (breakdown_name, item_name, price) VALUES (?, ?, ?)
		RETURNING id, breakdown_name, item_name, price
	`, breakdownName, itemName, price).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &model.Item{
		ID:            row.ID,
		BreakdownName: row.BreakdownName,
		Name:          row.ItemName,
		Price:         row.Price,
	}, nil
}

func (r *CatalogRepository) ListItems(ctx context.Context, breakdownName string) ([]model.Item, error) {
	var rows []struct {
		ID            uuid.UUID
		BreakdownName string
		ItemName      string
		Price         float64
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, breakdown_name, item_name, price
		FROM items
		WHERE breakdown_name = ?
		ORDER BY item_name
	`, breakdownName).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	items := make([]model.Item, len(rows))
	for i, row := range rows {
		items[i] = model.Item{
			ID:            row.ID,
			BreakdownName: row.BreakdownName,
			Name:          row.ItemName,
			Price:         row.Price,
		}
	}
	return items, nil
}

// HasItem reports whether the breakdown already defines an item with the
// given name.
func (r *CatalogRepository) HasItem(ctx context.Context, breakdownName, itemName string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) FROM items WHERE breakdown_name = ? AND item_name = ?
	`, breakdownName, itemName).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
