package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/nurpe/groupbuy-claims/internal/engine"
	"github.com/nurpe/groupbuy-claims/internal/model"
)

// CatalogStore is the slice of the catalog repository the service needs.
type CatalogStore interface {
	GetBreakdown(ctx context.Context, name string) (*model.Breakdown, error)
	ListBreakdowns(ctx context.Context, includeHidden bool) ([]model.Breakdown, error)
	CreateBreakdown(ctx context.Context, name string) (*model.Breakdown, error)
	SetHidden(ctx context.Context, name string, hidden bool) error
	DeleteBreakdown(ctx context.Context, name string) error
	AddItem(ctx context.Context, breakdownName, itemName string, price float64) (*model.Item, error)
	ListItems(ctx context.Context, breakdownName string) ([]model.Item, error)
	HasItem(ctx context.Context, breakdownName, itemName string) (bool, error)
}

// CatalogService covers breakdown authoring and the participant-facing
// catalog listing.
type CatalogService struct {
	catalog CatalogStore
}

func NewCatalogService(catalog CatalogStore) *CatalogService {
	return &CatalogService{catalog: catalog}
}

// BreakdownListing is one breakdown with its priced items, as shown to
// participants picking what to claim.
type BreakdownListing struct {
	Name   string
	Hidden bool
	Items  []model.Item
	Total  float64
}

// ListBreakdowns returns the catalog. Participants only see visible
// breakdowns; admins see everything.
func (s *CatalogService) ListBreakdowns(ctx context.Context, includeHidden bool) ([]BreakdownListing, error) {
	breakdowns, err := s.catalog.ListBreakdowns(ctx, includeHidden)
	if err != nil {
		return nil, err
	}
	listings := make([]BreakdownListing, 0, len(breakdowns))
	for _, b := range breakdowns {
		items, err := s.catalog.ListItems(ctx, b.Name)
		if err != nil {
			return nil, err
		}
		var total float64
		for _, item := range items {
			total += item.Price
		}
		listings = append(listings, BreakdownListing{
			Name:   b.Name,
			Hidden: b.Hidden,
			Items:  items,
			Total:  total,
		})
	}
	return listings, nil
}

// GetBreakdown returns one breakdown with its items. Hidden breakdowns
// stay reachable by name so in-flight rounds can finish.
func (s *CatalogService) GetBreakdown(ctx context.Context, name string) (*BreakdownListing, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: breakdown name is required", ErrInvalidInput)
	}
	breakdown, err := s.catalog.GetBreakdown(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	items, err := s.catalog.ListItems(ctx, breakdown.Name)
	if err != nil {
		return nil, err
	}
	var total float64
	for _, item := range items {
		total += item.Price
	}
	return &BreakdownListing{
		Name:   breakdown.Name,
		Hidden: breakdown.Hidden,
		Items:  items,
		Total:  total,
	}, nil
}

func (s *CatalogService) CreateBreakdown(ctx context.Context, name string) (*model.Breakdown, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: breakdown name is required", ErrInvalidInput)
	}
	_, err := s.catalog.GetBreakdown(ctx, name)
	if err == nil {
		return nil, fmt.Errorf("%w: breakdown %q", ErrAlreadyExists, name)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	created, err := s.catalog.CreateBreakdown(ctx, name)
	if err != nil {
		// Concurrent creates can both pass the existence check; the loser
		// hits the unique index on the name.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: breakdown %q", ErrAlreadyExists, name)
		}
		return nil, err
	}
	return created, nil
}

type AddItemInput struct {
	BreakdownName string
	ItemName      string
	Price         float64
}

func (s *CatalogService) AddItem(ctx context.Context, input AddItemInput) (*model.Item, error) {
	input.BreakdownName = strings.TrimSpace(input.BreakdownName)
	input.ItemName = strings.TrimSpace(input.ItemName)
	if input.BreakdownName == "" || input.ItemName == "" {
		return nil, fmt.Errorf("%w: breakdown and item names are required", ErrInvalidInput)
	}
	if input.Price <= 0 {
		return nil, fmt.Errorf("%w: %v", engine.ErrInvalidPrice, input.Price)
	}

	if _, err := s.catalog.GetBreakdown(ctx, input.BreakdownName); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	exists, err := s.catalog.HasItem(ctx, input.BreakdownName, input.ItemName)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: item %q", ErrAlreadyExists, input.ItemName)
	}
	item, err := s.catalog.AddItem(ctx, input.BreakdownName, input.ItemName, input.Price)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: item %q", ErrAlreadyExists, input.ItemName)
		}
		return nil, err
	}
	return item, nil
}

// SetHidden hides or reveals a breakdown in participant listings.
func (s *CatalogService) SetHidden(ctx context.Context, name string, hidden bool) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: breakdown name is required", ErrInvalidInput)
	}
	err := s.catalog.SetHidden(ctx, name, hidden)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// DeleteBreakdown removes a breakdown and all rounds and orders under it.
func (s *CatalogService) DeleteBreakdown(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: breakdown name is required", ErrInvalidInput)
	}
	err := s.catalog.DeleteBreakdown(ctx, name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
