package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"qreta-backend-go/internal/db"
	"qreta-backend-go/internal/models"
	"qreta-backend-go/internal/storage"
)

// Custom errors for the CatalogService.
var (
	ErrCategoryNotFound    = errors.New("category not found")
	ErrItemNotFound        = errors.New("item not found")
	ErrCategoryMismatch    = errors.New("category does not belong to this store")
	ErrNegativePrice       = errors.New("price cannot be negative")
	ErrInvalidItemType     = errors.New("item type must be 'product' or 'service'")
	ErrPublicStoreNotFound = errors.New("no store resolves to this slug")
)

// catalogService implements the CatalogService interface.
type catalogService struct {
	storeRepo    db.StoreRepository
	categoryRepo db.CategoryRepository
	itemRepo     db.ItemRepository
	images       *storage.ImageStore
	logger       *zap.Logger
}

// NewCatalogService creates a new CatalogService instance.
func NewCatalogService(
	sr db.StoreRepository,
	cr db.CategoryRepository,
	ir db.ItemRepository,
	images *storage.ImageStore,
	logger *zap.Logger,
) CatalogService {
	return &catalogService{
		storeRepo:    sr,
		categoryRepo: cr,
		itemRepo:     ir,
		images:       images,
		logger:       logger,
	}
}

// requireOwnedStore verifies the caller owns the store before any catalog
// mutation under it.
func (s *catalogService) requireOwnedStore(ctx context.Context, userID, storeID string) error {
	store, err := s.storeRepo.GetByID(ctx, storeID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("%w: store with ID '%s'", ErrStoreNotFound, storeID)
		}
		return fmt.Errorf("failed to get store '%s' from repository: %w", storeID, err)
	}
	if store.UserID != userID {
		return fmt.Errorf("%w: user '%s' does not own store '%s'", ErrForbiddenAccess, userID, storeID)
	}
	return nil
}

// CreateCategory creates a category in a store the caller owns. The manual
// sort order is seeded from the creation timestamp so new categories append
// to the end while staying reorderable.
func (s *catalogService) CreateCategory(ctx context.Context, userID, storeID string, req models.CreateCategoryRequest) (*models.Category, error) {
	if err := s.requireOwnedStore(ctx, userID, storeID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	category := &models.Category{
		StoreID:   storeID,
		Name:      req.Name,
		Order:     now.UnixMilli(),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	categoryID, err := s.categoryRepo.Create(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("failed to create category in store '%s': %w", storeID, err)
	}
	category.ID = categoryID
	return category, nil
}

// getStoreCategory loads a category and checks it belongs to the store.
func (s *catalogService) getStoreCategory(ctx context.Context, storeID, categoryID string) (*models.Category, error) {
	category, err := s.categoryRepo.GetByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: category with ID '%s'", ErrCategoryNotFound, categoryID)
		}
		return nil, fmt.Errorf("failed to get category '%s': %w", categoryID, err)
	}
	if category.StoreID != storeID {
		return nil, fmt.Errorf("%w: category '%s' belongs to store '%s'", ErrCategoryMismatch, categoryID, category.StoreID)
	}
	return category, nil
}

// UpdateCategory applies a partial update. StoreID is immutable: the request
// model carries no field for it.
func (s *catalogService) UpdateCategory(ctx context.Context, userID, storeID, categoryID string, req models.UpdateCategoryRequest) (*models.Category, error) {
	if err := s.requireOwnedStore(ctx, userID, storeID); err != nil {
		return nil, err
	}
	category, err := s.getStoreCategory(ctx, storeID, categoryID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil && *req.Name != "" {
		category.Name = *req.Name
	}
	if req.Order != nil {
		category.Order = *req.Order
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}
	category.UpdatedAt = time.Now().UTC()

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to update category '%s': %w", categoryID, err)
	}
	return category, nil
}

// DeleteCategory removes a category and, best-effort, the items under it
// (with their images). Per-step failures are logged and skipped.
func (s *catalogService) DeleteCategory(ctx context.Context, userID, storeID, categoryID string) error {
	if err := s.requireOwnedStore(ctx, userID, storeID); err != nil {
		return err
	}
	if _, err := s.getStoreCategory(ctx, storeID, categoryID); err != nil {
		return err
	}

	items, err := s.itemRepo.GetByCategoryID(ctx, categoryID)
	if err != nil {
		s.logger.Warn("Cascade: failed to list items of category, their documents will be orphaned",
			zap.String("categoryId", categoryID), zap.Error(err))
		items = nil
	}
	for _, item := range items {
		if item.ImageURL != "" {
			s.images.DeleteByURL(ctx, item.ImageURL)
		}
		if err := s.itemRepo.Delete(ctx, item.ID); err != nil {
			s.logger.Warn("Cascade: failed to delete item",
				zap.String("itemId", item.ID), zap.String("categoryId", categoryID), zap.Error(err))
		}
	}

	if err := s.categoryRepo.Delete(ctx, categoryID); err != nil {
		return fmt.Errorf("failed to delete category '%s': %w", categoryID, err)
	}
	return nil
}

// CreateItem creates an item, verifying the category belongs to the same store.
func (s *catalogService) CreateItem(ctx context.Context, userID, storeID string, req models.CreateItemRequest) (*models.Item, error) {
	if err := s.requireOwnedStore(ctx, userID, storeID); err != nil {
		return nil, err
	}
	if req.Price < 0 {
		return nil, ErrNegativePrice
	}
	if req.Type != models.ItemTypeProduct && req.Type != models.ItemTypeService {
		return nil, fmt.Errorf("%w: '%s'", ErrInvalidItemType, req.Type)
	}
	if _, err := s.getStoreCategory(ctx, storeID, req.CategoryID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	item := &models.Item{
		StoreID:         storeID,
		CategoryID:      req.CategoryID,
		Name:            req.Name,
		Description:     req.Description,
		Price:           req.Price,
		IsStartingPrice: req.IsStartingPrice,
		Duration:        req.Duration,
		Type:            req.Type,
		Order:           now.UnixMilli(),
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	itemID, err := s.itemRepo.Create(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("failed to create item in store '%s': %w", storeID, err)
	}
	item.ID = itemID
	return item, nil
}

// getStoreItem loads an item and checks it belongs to the store.
func (s *catalogService) getStoreItem(ctx context.Context, storeID, itemID string) (*models.Item, error) {
	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: item with ID '%s'", ErrItemNotFound, itemID)
		}
		return nil, fmt.Errorf("failed to get item '%s': %w", itemID, err)
	}
	if item.StoreID != storeID {
		return nil, fmt.Errorf("%w: item '%s' belongs to store '%s'", ErrForbiddenAccess, itemID, item.StoreID)
	}
	return item, nil
}

// UpdateItem applies a partial update. A category change is validated against
// the same store.
func (s *catalogService) UpdateItem(ctx context.Context, userID, storeID, itemID string, req models.UpdateItemRequest) (*models.Item, error) {
	if err := s.requireOwnedStore(ctx, userID, storeID); err != nil {
		return nil, err
	}
	item, err := s.getStoreItem(ctx, storeID, itemID)
	if err != nil {
		return nil, err
	}

	if req.CategoryID != nil && *req.CategoryID != item.CategoryID {
		if _, err := s.getStoreCategory(ctx, storeID, *req.CategoryID); err != nil {
			return nil, err
		}
		item.CategoryID = *req.CategoryID
	}
	if req.Name != nil && *req.Name != "" {
		item.Name = *req.Name
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return nil, ErrNegativePrice
		}
		item.Price = *req.Price
	}
	if req.IsStartingPrice != nil {
		item.IsStartingPrice = *req.IsStartingPrice
	}
	if req.Duration != nil {
		item.Duration = *req.Duration
	}
	if req.Type != nil {
		if *req.Type != models.ItemTypeProduct && *req.Type != models.ItemTypeService {
			return nil, fmt.Errorf("%w: '%s'", ErrInvalidItemType, *req.Type)
		}
		item.Type = *req.Type
	}
	if req.Order != nil {
		item.Order = *req.Order
	}
	if req.IsActive != nil {
		item.IsActive = *req.IsActive
	}
	item.UpdatedAt = time.Now().UTC()

	if err := s.itemRepo.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to update item '%s': %w", itemID, err)
	}
	return item, nil
}

// DeleteItem removes an item and, best-effort, its image.
func (s *catalogService) DeleteItem(ctx context.Context, userID, storeID, itemID string) error {
	if err := s.requireOwnedStore(ctx, userID, storeID); err != nil {
		return err
	}
	item, err := s.getStoreItem(ctx, storeID, itemID)
	if err != nil {
		return err
	}

	if err := s.itemRepo.Delete(ctx, itemID); err != nil {
		return fmt.Errorf("failed to delete item '%s': %w", itemID, err)
	}
	if item.ImageURL != "" {
		s.images.DeleteByURL(ctx, item.ImageURL)
	}
	return nil
}

// SetItemImage uploads a new item photo, persists the reference and deletes
// the replaced file best-effort afterwards.
func (s *catalogService) SetItemImage(ctx context.Context, userID, storeID, itemID, contentType string, r io.Reader) (*models.Item, error) {
	if err := s.requireOwnedStore(ctx, userID, storeID); err != nil {
		return nil, err
	}
	item, err := s.getStoreItem(ctx, storeID, itemID)
	if err != nil {
		return nil, err
	}

	imageURL, err := s.images.Upload(ctx, "items/"+itemID, contentType, r)
	if err != nil {
		return nil, fmt.Errorf("failed to upload image for item '%s': %w", itemID, err)
	}

	previous := item.ImageURL
	item.ImageURL = imageURL
	item.UpdatedAt = time.Now().UTC()

	if err := s.itemRepo.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to persist image reference for item '%s': %w", itemID, err)
	}
	if previous != "" && previous != imageURL {
		s.images.DeleteByURL(ctx, previous)
	}
	return item, nil
}

// OwnerCatalog returns the full catalog for the owner-editing context:
// active and inactive records, ordered by manual sort order.
func (s *catalogService) OwnerCatalog(ctx context.Context, userID, storeID string) ([]models.Category, []models.Item, error) {
	if err := s.requireOwnedStore(ctx, userID, storeID); err != nil {
		return nil, nil, err
	}

	categories, err := s.categoryRepo.GetByStoreID(ctx, storeID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list categories for store '%s': %w", storeID, err)
	}
	items, err := s.itemRepo.GetByStoreID(ctx, storeID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list items for store '%s': %w", storeID, err)
	}
	return categories, items, nil
}

// PublicCatalog resolves a slug for the public storefront. Inactive stores
// are returned with nil slices so the handler can render the "temporarily
// unavailable" presentation; a missing slug maps to ErrPublicStoreNotFound.
func (s *catalogService) PublicCatalog(ctx context.Context, storeSlug string) (*models.Store, []models.Category, []models.Item, error) {
	store, err := s.storeRepo.GetBySlug(ctx, storeSlug)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, nil, nil, fmt.Errorf("%w: '%s'", ErrPublicStoreNotFound, storeSlug)
		}
		return nil, nil, nil, fmt.Errorf("failed to resolve slug '%s': %w", storeSlug, err)
	}
	if !store.IsActive {
		return store, nil, nil, nil
	}

	categories, err := s.categoryRepo.GetByStoreID(ctx, store.ID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to list categories for store '%s': %w", store.ID, err)
	}
	items, err := s.itemRepo.GetByStoreID(ctx, store.ID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to list items for store '%s': %w", store.ID, err)
	}

	activeCategories := make([]models.Category, 0, len(categories))
	for _, c := range categories {
		if c.IsActive {
			activeCategories = append(activeCategories, c)
		}
	}
	activeItems := make([]models.Item, 0, len(items))
	for _, i := range items {
		if i.IsActive {
			activeItems = append(activeItems, i)
		}
	}
	return store, activeCategories, activeItems, nil
}
