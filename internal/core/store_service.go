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
	"qreta-backend-go/internal/slug"
	"qreta-backend-go/internal/storage"
)

// Custom errors for the StoreService.
var (
	ErrStoreNotFound     = errors.New("store not found")
	ErrForbiddenAccess   = errors.New("user does not have permission for this action on the store")
	ErrStoreLimitReached = errors.New("store limit reached for the current plan")
	ErrInvalidStoreName  = errors.New("store name does not produce a usable slug")
	ErrInvalidImageKind  = errors.New("branding image kind must be 'logo' or 'banner'")
)

// storeService implements the StoreService interface.
type storeService struct {
	storeRepo    db.StoreRepository
	categoryRepo db.CategoryRepository
	itemRepo     db.ItemRepository
	userRepo     db.UserRepository
	allocator    *slug.Allocator
	images       *storage.ImageStore
	logger       *zap.Logger
}

// NewStoreService creates a new StoreService instance.
func NewStoreService(
	sr db.StoreRepository,
	cr db.CategoryRepository,
	ir db.ItemRepository,
	ur db.UserRepository,
	allocator *slug.Allocator,
	images *storage.ImageStore,
	logger *zap.Logger,
) StoreService {
	return &storeService{
		storeRepo:    sr,
		categoryRepo: cr,
		itemRepo:     ir,
		userRepo:     ur,
		allocator:    allocator,
		images:       images,
		logger:       logger,
	}
}

// checkStoreQuota verifies that a user can create another store under their
// plan. Advisory only: two concurrent creations can both pass the count read,
// the data layer does not enforce the cap.
func checkStoreQuota(plan models.Plan, currentStoreCount int) error {
	quota := plan.StoreQuota()
	if quota == models.StoreQuotaUnlimited {
		return nil
	}
	if currentStoreCount >= quota {
		return fmt.Errorf("%w: the '%s' plan allows %d store(s), current count %d", ErrStoreLimitReached, plan, quota, currentStoreCount)
	}
	return nil
}

// CreateStore creates a new store for a user. It checks the plan quota and
// allocates a unique slug before the write.
func (s *storeService) CreateStore(ctx context.Context, userID string, req models.CreateStoreRequest) (*models.Store, error) {
	if s.userRepo == nil || s.storeRepo == nil || s.allocator == nil {
		return nil, errors.New("storeService: component not initialized")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user '%s' for quota check: %w", userID, err)
	}

	currentStoreCount, err := s.storeRepo.CountByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count stores for user '%s': %w", userID, err)
	}
	if err := checkStoreQuota(user.Subscription.Plan, currentStoreCount); err != nil {
		return nil, err
	}

	slugSource := req.Slug
	if slugSource == "" {
		slugSource = req.Name
	}
	allocated, err := s.allocator.Allocate(ctx, slugSource, "")
	if err != nil {
		return nil, fmt.Errorf("failed to allocate slug for store '%s': %w", req.Name, err)
	}
	if allocated == "" {
		return nil, fmt.Errorf("%w: '%s'", ErrInvalidStoreName, req.Name)
	}

	newStore := &models.Store{
		UserID:       userID,
		Name:         req.Name,
		Slug:         allocated,
		Description:  req.Description,
		IsActive:     true,
		PrimaryColor: req.PrimaryColor,
		Phone:        req.Phone,
		WhatsApp:     req.WhatsApp,
		Address:      req.Address,
		Instagram:    req.Instagram,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}

	storeID, err := s.storeRepo.Create(ctx, newStore)
	if err != nil {
		return nil, fmt.Errorf("failed to create store in repository: %w", err)
	}
	newStore.ID = storeID

	s.logger.Info("Store created",
		zap.String("storeId", storeID),
		zap.String("userId", userID),
		zap.String("slug", allocated),
	)
	return newStore, nil
}

// getOwnedStore loads a store and verifies ownership. Authorization failures
// short-circuit before any mutation.
func (s *storeService) getOwnedStore(ctx context.Context, userID, storeID string) (*models.Store, error) {
	store, err := s.storeRepo.GetByID(ctx, storeID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: store with ID '%s'", ErrStoreNotFound, storeID)
		}
		return nil, fmt.Errorf("failed to get store '%s' from repository: %w", storeID, err)
	}
	if store.UserID != userID {
		return nil, fmt.Errorf("%w: user '%s' does not own store '%s'", ErrForbiddenAccess, userID, storeID)
	}
	return store, nil
}

// GetStoreByID retrieves a store owned by the user.
func (s *storeService) GetStoreByID(ctx context.Context, userID, storeID string) (*models.Store, error) {
	return s.getOwnedStore(ctx, userID, storeID)
}

// ListStores retrieves all stores owned by the user.
func (s *storeService) ListStores(ctx context.Context, userID string) ([]*models.Store, error) {
	stores, err := s.storeRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stores for user '%s': %w", userID, err)
	}
	return stores, nil
}

// UpdateStore applies a partial update. Renames re-allocate the slug with the
// store's own ID excluded from collision checks, so renaming back to a value
// derived from the current name keeps the current slug.
func (s *storeService) UpdateStore(ctx context.Context, userID, storeID string, req models.UpdateStoreRequest) (*models.Store, error) {
	store, err := s.getOwnedStore(ctx, userID, storeID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil && *req.Name != "" {
		store.Name = *req.Name
	}
	if req.Slug != nil || req.Name != nil {
		slugSource := store.Name
		if req.Slug != nil && *req.Slug != "" {
			slugSource = *req.Slug
		}
		allocated, err := s.allocator.Allocate(ctx, slugSource, store.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to re-allocate slug for store '%s': %w", storeID, err)
		}
		if allocated == "" {
			return nil, fmt.Errorf("%w: '%s'", ErrInvalidStoreName, slugSource)
		}
		store.Slug = allocated
	}
	if req.Description != nil {
		store.Description = *req.Description
	}
	if req.IsActive != nil {
		store.IsActive = *req.IsActive
	}
	if req.PrimaryColor != nil {
		store.PrimaryColor = *req.PrimaryColor
	}
	if req.Phone != nil {
		store.Phone = *req.Phone
	}
	if req.WhatsApp != nil {
		store.WhatsApp = *req.WhatsApp
	}
	if req.Address != nil {
		store.Address = *req.Address
	}
	if req.Instagram != nil {
		store.Instagram = *req.Instagram
	}
	store.UpdatedAt = time.Now().UTC()

	if err := s.storeRepo.Update(ctx, store); err != nil {
		return nil, fmt.Errorf("failed to update store '%s': %w", storeID, err)
	}
	return store, nil
}

// DeleteStore removes a store and cascades intent to delete its categories,
// items and images. The cascade is an explicit best-effort sequence with
// per-step failure isolation, not a transaction: a failed step is logged and
// skipped, which can leave orphans.
func (s *storeService) DeleteStore(ctx context.Context, userID, storeID string) error {
	store, err := s.getOwnedStore(ctx, userID, storeID)
	if err != nil {
		return err
	}

	items, err := s.itemRepo.GetByStoreID(ctx, storeID)
	if err != nil {
		s.logger.Warn("Cascade: failed to list items, their documents will be orphaned",
			zap.String("storeId", storeID), zap.Error(err))
		items = nil
	}
	for _, item := range items {
		if item.ImageURL != "" {
			s.images.DeleteByURL(ctx, item.ImageURL)
		}
		if err := s.itemRepo.Delete(ctx, item.ID); err != nil {
			s.logger.Warn("Cascade: failed to delete item",
				zap.String("itemId", item.ID), zap.String("storeId", storeID), zap.Error(err))
		}
	}

	categories, err := s.categoryRepo.GetByStoreID(ctx, storeID)
	if err != nil {
		s.logger.Warn("Cascade: failed to list categories, their documents will be orphaned",
			zap.String("storeId", storeID), zap.Error(err))
		categories = nil
	}
	for _, category := range categories {
		if err := s.categoryRepo.Delete(ctx, category.ID); err != nil {
			s.logger.Warn("Cascade: failed to delete category",
				zap.String("categoryId", category.ID), zap.String("storeId", storeID), zap.Error(err))
		}
	}

	s.images.DeleteByURL(ctx, store.LogoURL)
	s.images.DeleteByURL(ctx, store.BannerURL)

	if err := s.storeRepo.Delete(ctx, storeID); err != nil {
		return fmt.Errorf("failed to delete store '%s': %w", storeID, err)
	}

	s.logger.Info("Store deleted", zap.String("storeId", storeID), zap.String("userId", userID))
	return nil
}

// SetBrandingImage uploads a new logo or banner, persists the reference and
// deletes the replaced file best-effort afterwards. The old file is removed
// only after the metadata write succeeds; on upload-then-write failure the
// new file is an accepted orphan.
func (s *storeService) SetBrandingImage(ctx context.Context, userID, storeID, kind, contentType string, r io.Reader) (*models.Store, error) {
	store, err := s.getOwnedStore(ctx, userID, storeID)
	if err != nil {
		return nil, err
	}
	if kind != "logo" && kind != "banner" {
		return nil, fmt.Errorf("%w: '%s'", ErrInvalidImageKind, kind)
	}

	imageURL, err := s.images.Upload(ctx, "stores/"+storeID, contentType, r)
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s for store '%s': %w", kind, storeID, err)
	}

	var previous string
	if kind == "logo" {
		previous = store.LogoURL
		store.LogoURL = imageURL
	} else {
		previous = store.BannerURL
		store.BannerURL = imageURL
	}
	store.UpdatedAt = time.Now().UTC()

	if err := s.storeRepo.Update(ctx, store); err != nil {
		return nil, fmt.Errorf("failed to persist %s reference for store '%s': %w", kind, storeID, err)
	}

	if previous != "" && previous != imageURL {
		s.images.DeleteByURL(ctx, previous)
	}
	return store, nil
}

// PreviewSlug derives the slug a name would allocate to right now, without
// writing. The client debounces calls while the owner types.
func (s *storeService) PreviewSlug(ctx context.Context, name, excludeID string) (string, error) {
	return s.allocator.Allocate(ctx, name, excludeID)
}
