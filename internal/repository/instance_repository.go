package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/groupbuy-claims/internal/model"
)

// InstanceRepository stores rounds and their open/complete status.
type InstanceRepository struct {
	db *gorm.DB
}

func NewInstanceRepository(db *gorm.DB) *InstanceRepository {
	return &InstanceRepository{db: db}
}

type instanceRow struct {
	ID            uuid.UUID
	BreakdownName string
	Status        string
	CreatedAt     time.Time
}

func (row instanceRow) toModel() *model.Instance {
	return &model.Instance{
		ID:            row.ID,
		BreakdownName: row.BreakdownName,
		Status:        model.InstanceStatus(row.Status),
		CreatedAt:     row.CreatedAt,
	}
}

// FindOpenInstance returns (nil, nil) when the breakdown has no open round.
func (r *InstanceRepository) FindOpenInstance(ctx context.Context, breakdownName string) (*model.Instance, error) {
	var row instanceRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, breakdown_name, status, created_at
		FROM breakdown_instances
		WHERE breakdown_name = ? AND status = 'open'
		LIMIT 1
	`, breakdownName).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return row.toModel(), nil
}

func (r *InstanceRepository) CreateInstance(ctx context.Context, breakdownName string) (*model.Instance, error) {
	var row instanceRow
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO breakdown_instances (breakdown_name, status) VALUES (?, 'open')
		RETURNING id, breakdown_name, status, created_at
	`, breakdownName).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

func (r *InstanceRepository) GetInstance(ctx context.Context, instanceID uuid.UUID) (*model.Instance, error) {
	var row instanceRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, breakdown_name, status, created_at
		FROM breakdown_instances
		WHERE id = ?
		LIMIT 1
	`, instanceID).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return row.toModel(), nil
}

func (r *InstanceRepository) SetStatus(ctx context.Context, instanceID uuid.UUID, status model.InstanceStatus) error {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE breakdown_instances SET status = ? WHERE id = ?
	`, string(status), instanceID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListInstances returns rounds, optionally filtered by status, newest first.
func (r *InstanceRepository) ListInstances(ctx context.Context, status *model.InstanceStatus) ([]model.Instance, error) {
	query := `
		SELECT id, breakdown_name, status, created_at
		FROM breakdown_instances
		ORDER BY created_at DESC
	`
	args := []interface{}{}
	if status != nil {
		query = `
			SELECT id, breakdown_name, status, created_at
			FROM breakdown_instances
			WHERE status = ?
			ORDER BY created_at DESC
		`
		args = append(args, string(*status))
	}

	var rows []instanceRow
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	instances := make([]model.Instance, len(rows))
	for i, row := range rows {
		instances[i] = *row.toModel()
	}
	return instances, nil
}
