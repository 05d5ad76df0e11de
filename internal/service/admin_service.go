package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"gorm.io/gorm"

	"github.com/nurpe/groupbuy-claims/internal/config"
	"github.com/nurpe/groupbuy-claims/internal/model"
)

type AdminStore interface {
	AddAdmin(ctx context.Context, admin model.Admin) error
	RemoveAdmin(ctx context.Context, userID int64) error
	ListAdmins(ctx context.Context) ([]model.Admin, error)
	IsAdmin(ctx context.Context, userID int64) (bool, error)
	GetUser(ctx context.Context, userID int64) (*model.User, error)
}

// AdminService manages the admin roster. The root admin comes from
// configuration, is always an admin, and cannot be removed.
type AdminService struct {
	store       AdminStore
	rootAdminID int64
}

func NewAdminService(store AdminStore, cfg *config.Config) *AdminService {
	return &AdminService{store: store, rootAdminID: cfg.Auth.RootAdminID}
}

func (s *AdminService) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	if userID == s.rootAdminID {
		return true, nil
	}
	return s.store.IsAdmin(ctx, userID)
}

// AddAdmin promotes a known participant to admin.
func (s *AdminService) AddAdmin(ctx context.Context, userID int64) (*model.Admin, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user id must be positive", ErrInvalidInput)
	}
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	already, err := s.store.IsAdmin(ctx, userID)
	if err != nil {
		return nil, err
	}
	if already || userID == s.rootAdminID {
		return nil, fmt.Errorf("%w: user %d is already an admin", ErrAlreadyExists, userID)
	}
	admin := model.Admin{UserID: user.ID, Username: user.Username}
	if err := s.store.AddAdmin(ctx, admin); err != nil {
		return nil, err
	}
	return &admin, nil
}

func (s *AdminService) RemoveAdmin(ctx context.Context, userID int64) error {
	if userID == s.rootAdminID {
		return fmt.Errorf("%w: the root admin cannot be removed", ErrPermissionDenied)
	}
	err := s.store.RemoveAdmin(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// ListAdmins returns the roster with the root admin included.
func (s *AdminService) ListAdmins(ctx context.Context) ([]model.Admin, error) {
	admins, err := s.store.ListAdmins(ctx)
	if err != nil {
		return nil, err
	}
	for _, admin := range admins {
		if admin.UserID == s.rootAdminID {
			return admins, nil
		}
	}
	root := model.Admin{UserID: s.rootAdminID, Username: "root"}
	if user, err := s.store.GetUser(ctx, s.rootAdminID); err == nil {
		root.Username = user.Username
	}
	admins = append(admins, root)
	sort.Slice(admins, func(i, j int) bool {
		if admins[i].Username != admins[j].Username {
			return admins[i].Username < admins[j].Username
		}
		return admins[i].UserID < admins[j].UserID
	})
	return admins, nil
}

// AdminIDs returns the user ids that should receive admin notifications.
func (s *AdminService) AdminIDs(ctx context.Context) ([]int64, error) {
	admins, err := s.store.ListAdmins(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(admins)+1)
	seen := map[int64]struct{}{s.rootAdminID: {}}
	ids = append(ids, s.rootAdminID)
	for _, admin := range admins {
		if _, ok := seen[admin.UserID]; ok {
			continue
		}
		seen[admin.UserID] = struct{}{}
		ids = append(ids, admin.UserID)
	}
	return ids, nil
}
