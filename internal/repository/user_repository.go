package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/nurpe/groupbuy-claims/internal/model"
)

// UserRepository stores participants and the admin roster.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// UpsertUser records a participant, refreshing the username on conflict.
func (r *UserRepository) UpsertUser(ctx context.Context, user model.User) error {
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO users (id, username) VALUES (?, ?)
		ON CONFLICT (id) DO UPDATE SET username = EXCLUDED.username
	`, user.ID, user.Username).Error
}

func (r *UserRepository) GetUser(ctx context.Context, userID int64) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, username FROM users WHERE id = ? LIMIT 1
	`, userID).Scan(&user).Error
	if err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &user, nil
}

func (r *UserRepository) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, username FROM users ORDER BY username, id
	`).Scan(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// UsernamesByID returns a lookup map for the given user ids.
func (r *UserRepository) UsernamesByID(ctx context.Context, userIDs []int64) (map[int64]string, error) {
	if len(userIDs) == 0 {
		return map[int64]string{}, nil
	}
	var users []model.User
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, username FROM users WHERE id = ANY(?)
	`, userIDs).Scan(&users).Error
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(users))
	for _, user := range users {
		names[user.ID] = user.Username
	}
	return names, nil
}

func (r *UserRepository) AddAdmin(ctx context.Context, admin model.Admin) error {
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO admins (user_id, username) VALUES (?, ?)
		ON CONFLICT (user_id) DO NOTHING
	`, admin.UserID, admin.Username).Error
}

func (r *UserRepository) RemoveAdmin(ctx context.Context, userID int64) error {
	result := r.db.WithContext(ctx).Exec(`DELETE FROM admins WHERE user_id = ?`, userID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *UserRepository) ListAdmins(ctx context.Context) ([]model.Admin, error) {
	var admins []model.Admin
	err := r.db.WithContext(ctx).Raw(`
		SELECT user_id, username FROM admins ORDER BY username, user_id
	`).Scan(&admins).Error
	if err != nil {
		return nil, err
	}
	return admins, nil
}

func (r *UserRepository) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) FROM admins WHERE user_id = ?
	`, userID).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
