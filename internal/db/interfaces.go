package db

import (
	"context"

	"qreta-backend-go/internal/models"
)

// UserRepository defines the interface for user data storage operations.
type UserRepository interface {
	GetByID(ctx context.Context, userID string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	// GetByStripeCustomerID resolves the user owning a Stripe customer ID,
	// used by the webhook handler when no client-reference-id is present.
	GetByStripeCustomerID(ctx context.Context, customerID string) (*models.User, error)
	// List returns users ordered by creation time for the admin back-office.
	List(ctx context.Context, paginationParams map[string]string) ([]*models.User, error)
}

// StoreRepository defines the interface for store data storage operations.
type StoreRepository interface {
	Create(ctx context.Context, store *models.Store) (string, error) // Returns new store ID
	GetByID(ctx context.Context, storeID string) (*models.Store, error)
	GetBySlug(ctx context.Context, slug string) (*models.Store, error)
	GetByUserID(ctx context.Context, userID string) ([]*models.Store, error)
	Update(ctx context.Context, store *models.Store) error
	Delete(ctx context.Context, storeID string) error
	CountByUserID(ctx context.Context, userID string) (int, error) // For plan quotas
	// StoreIDBySlug returns the ID of the store owning a slug, or "" when free.
	StoreIDBySlug(ctx context.Context, slug string) (string, error)
}

// CategoryRepository defines the interface for category data storage operations.
type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) (string, error)
	GetByID(ctx context.Context, categoryID string) (*models.Category, error)
	GetByStoreID(ctx context.Context, storeID string) ([]models.Category, error)
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, categoryID string) error
}

// ItemRepository defines the interface for item data storage operations.
type ItemRepository interface {
	Create(ctx context.Context, item *models.Item) (string, error)
	GetByID(ctx context.Context, itemID string) (*models.Item, error)
	GetByStoreID(ctx context.Context, storeID string) ([]models.Item, error)
	GetByCategoryID(ctx context.Context, categoryID string) ([]models.Item, error)
	Update(ctx context.Context, item *models.Item) error
	Delete(ctx context.Context, itemID string) error
}
