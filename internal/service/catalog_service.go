package service

import (
	"context"
	"time"

	"meal-order-service/internal/errs"
	"meal-order-service/internal/models"
	"meal-order-service/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CatalogStore is the persistence contract for menu items
type CatalogStore interface {
	GetMenuItems(ctx context.Context) ([]models.MenuItem, error)
	GetMenuItemByID(ctx context.Context, id int64) (*models.MenuItem, error)
	CreateMenuItem(ctx context.Context, item *models.MenuItem) error
	UpdateMenuItem(ctx context.Context, id int64, upd models.MenuItemUpdate) (*models.MenuItem, error)
	DeleteMenuItem(ctx context.Context, id int64) error
}

// MenuCache caches the menu listing
type MenuCache interface {
	GetMenu(ctx context.Context) ([]models.MenuItem, bool, error)
	SetMenu(ctx context.Context, items []models.MenuItem, ttl time.Duration) error
	InvalidateMenu(ctx context.Context) error
}

// CatalogService handles menu CRUD. Stock mutation for orders goes
// through OrderService, never through this update path.
type CatalogService struct {
	store  CatalogStore
	cache  MenuCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCatalogService creates a new catalog service. cache may be nil.
func NewCatalogService(store CatalogStore, cache MenuCache, cacheTTL time.Duration) *CatalogService {
	return &CatalogService{
		store:  store,
		cache:  cache,
		ttl:    cacheTTL,
		logger: util.GetLogger(),
	}
}

// ListMenuItems returns the full menu, served from cache when warm
func (s *CatalogService) ListMenuItems(ctx context.Context) ([]models.MenuItem, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.ListMenuItems")
	defer span.End()

	if s.cache != nil {
		items, ok, err := s.cache.GetMenu(ctx)
		if err != nil {
			s.logger.Warn("Menu cache read failed", zap.Error(err))
		} else if ok {
			util.MenuCacheHitsTotal.Inc()
			return items, nil
		}
		util.MenuCacheMissesTotal.Inc()
	}

	items, err := s.store.GetMenuItems(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetMenu(ctx, items, s.ttl); err != nil {
			s.logger.Warn("Menu cache write failed", zap.Error(err))
		}
	}
	return items, nil
}

// GetMenuItem retrieves one menu item
func (s *CatalogService) GetMenuItem(ctx context.Context, id int64) (*models.MenuItem, error) {
	return s.store.GetMenuItemByID(ctx, id)
}

// CreateMenuItemRequest carries the fields for a new menu item
type CreateMenuItemRequest struct {
	Name          string          `json:"name" binding:"required"`
	Description   string          `json:"description"`
	ImageURL      string          `json:"image_url"`
	Category      string          `json:"category" binding:"required"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
}

// CreateMenuItem validates and creates a menu item
func (s *CatalogService) CreateMenuItem(ctx context.Context, req *CreateMenuItemRequest) (*models.MenuItem, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.CreateMenuItem")
	defer span.End()

	if req.Name == "" {
		return nil, errs.Validation("menu item name is required")
	}
	if req.Category == "" {
		return nil, errs.Validation("menu item category is required")
	}
	if !req.Price.IsPositive() {
		return nil, errs.Validation("price must be greater than zero")
	}
	if req.StockQuantity < 0 {
		return nil, errs.Validation("stock quantity must not be negative")
	}

	item := &models.MenuItem{
		Name:          req.Name,
		Description:   req.Description,
		ImageURL:      req.ImageURL,
		Category:      req.Category,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
	}
	if err := s.store.CreateMenuItem(ctx, item); err != nil {
		return nil, err
	}

	s.invalidateMenu(ctx)
	s.logger.Info("Menu item created", zap.Int64("menu_item_id", item.ID), zap.String("name", item.Name))
	return item, nil
}

// UpdateMenuItem applies a partial patch to a menu item
func (s *CatalogService) UpdateMenuItem(ctx context.Context, id int64, upd models.MenuItemUpdate) (*models.MenuItem, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.UpdateMenuItem")
	defer span.End()

	if upd.Name != nil && *upd.Name == "" {
		return nil, errs.Validation("menu item name is required")
	}
	if upd.Category != nil && *upd.Category == "" {
		return nil, errs.Validation("menu item category is required")
	}
	if upd.Price != nil && !upd.Price.IsPositive() {
		return nil, errs.Validation("price must be greater than zero")
	}
	if upd.StockQuantity != nil && *upd.StockQuantity < 0 {
		return nil, errs.Validation("stock quantity must not be negative")
	}

	item, err := s.store.UpdateMenuItem(ctx, id, upd)
	if err != nil {
		return nil, err
	}

	s.invalidateMenu(ctx)
	return item, nil
}

// DeleteMenuItem deletes a menu item
func (s *CatalogService) DeleteMenuItem(ctx context.Context, id int64) error {
	ctx, span := util.StartSpan(ctx, "CatalogService.DeleteMenuItem")
	defer span.End()

	if err := s.store.DeleteMenuItem(ctx, id); err != nil {
		return err
	}

	s.invalidateMenu(ctx)
	s.logger.Info("Menu item deleted", zap.Int64("menu_item_id", id))
	return nil
}

// InvalidateMenu drops the cached menu listing. Exposed so order
// placement can invalidate after stock decrements.
func (s *CatalogService) InvalidateMenu(ctx context.Context) {
	s.invalidateMenu(ctx)
}

func (s *CatalogService) invalidateMenu(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateMenu(ctx); err != nil {
		s.logger.Warn("Menu cache invalidation failed", zap.Error(err))
	}
}
