package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"

	"storefront/internal/auth"
	"storefront/internal/entity"
	"storefront/internal/repository"
)

const (
	menuCacheKey = "menu:all"
	menuCacheTTL = time.Minute
)

type MenuService struct {
	repo MenuStore
	rdb  *redis.Client
	now  func() time.Time
}

// NewMenuService creates a new instance of MenuService. rdb may be nil, in
// which case every read goes to the store.
func NewMenuService(repo MenuStore, rdb *redis.Client) *MenuService {
	return &MenuService{repo: repo, rdb: rdb, now: time.Now}
}

// MenuItemInput is the admin-editable part of a menu item.
type MenuItemInput struct {
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    *string         `json:"image_url"`
	Category    string          `json:"category"`
	IsAvailable bool            `json:"is_available"`
}

func (in *MenuItemInput) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	if in.Name == "" {
		return invalid("Name is required.")
	}
	if in.Category == "" {
		return invalid("Category is required.")
	}
	if in.Price.IsNegative() {
		return invalid("Price cannot be negative.")
	}
	return nil
}

// List returns the whole menu, served from cache when possible. Cache
// failures fall through to the store.
func (m *MenuService) List(ctx context.Context) ([]entity.MenuItem, error) {
	if m.rdb != nil {
		cached, err := m.rdb.Get(ctx, menuCacheKey).Result()
		switch {
		case errors.Is(err, redis.Nil):
			logger.Debug().Msg("Menu not found in cache")
		case err != nil:
			logger.Error().Err(err).Msg("Error getting menu from cache")
		default:
			var items []entity.MenuItem
			uerr := json.Unmarshal([]byte(cached), &items)
			if uerr == nil {
				return items, nil
			}
			logger.Error().Err(uerr).Msg("Error unmarshalling cached menu")
		}
	}

	items, err := m.repo.GetMenuItems(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Error getting menu items")
		return nil, err
	}
	if items == nil {
		items = []entity.MenuItem{}
	}

	if m.rdb != nil {
		data, err := json.Marshal(items)
		if err == nil {
			err = m.rdb.Set(ctx, menuCacheKey, data, menuCacheTTL).Err()
		}
		if err != nil {
			logger.Error().Err(err).Msg("Error setting menu in cache")
		}
	}
	return items, nil
}

func (m *MenuService) Get(ctx context.Context, id int64) (*entity.MenuItem, error) {
	item, err := m.repo.GetMenuItemByID(ctx, id)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			logger.Error().Err(err).Msgf("Error getting menu item %d", id)
		}
		return nil, mapNotFound(err)
	}
	return item, nil
}

func (m *MenuService) Create(ctx context.Context, admin auth.AdminSession, in MenuItemInput) (*entity.MenuItem, error) {
	if !admin.Valid() {
		return nil, ErrForbidden
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	item, err := m.repo.CreateMenuItem(ctx, &entity.MenuItem{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		ImageURL:    in.ImageURL,
		Category:    in.Category,
		IsAvailable: in.IsAvailable,
		CreatedAt:   m.now().UTC().Truncate(time.Second),
	})
	if err != nil {
		logger.Error().Err(err).Msg("Error creating menu item")
		return nil, err
	}

	m.invalidate(ctx)
	return item, nil
}

// Update replaces the editable fields of an existing item.
func (m *MenuService) Update(ctx context.Context, admin auth.AdminSession, id int64, in MenuItemInput) (*entity.MenuItem, error) {
	if !admin.Valid() {
		return nil, ErrForbidden
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	item, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	item.Name = in.Name
	item.Description = in.Description
	item.Price = in.Price
	item.ImageURL = in.ImageURL
	item.Category = in.Category
	item.IsAvailable = in.IsAvailable

	if err := m.repo.UpdateMenuItem(ctx, item); err != nil {
		logger.Error().Err(err).Msgf("Error updating menu item %d", id)
		return nil, err
	}

	m.invalidate(ctx)
	return item, nil
}

func (m *MenuService) Delete(ctx context.Context, admin auth.AdminSession, id int64) error {
	if !admin.Valid() {
		return ErrForbidden
	}
	if err := m.repo.DeleteMenuItem(ctx, id); err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			logger.Error().Err(err).Msgf("Error deleting menu item %d", id)
		}
		return mapNotFound(err)
	}

	m.invalidate(ctx)
	return nil
}

func (m *MenuService) invalidate(ctx context.Context) {
	if m.rdb == nil {
		return
	}
	if err := m.rdb.Del(ctx, menuCacheKey).Err(); err != nil {
		logger.Error().Err(fmt.Errorf("invalidate %s: %w", menuCacheKey, err)).Msg("Error deleting menu from cache")
	}
}
