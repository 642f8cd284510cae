package core

import (
	"context"
	"io"

	"qreta-backend-go/internal/models"
)

// UserService defines the interface for user-related operations.
type UserService interface {
	// GetOrCreate retrieves a user by ID. If the user doesn't exist, it
	// creates a new store_owner profile on the free plan.
	GetOrCreate(ctx context.Context, userID, email, displayName, photoURL string) (*models.User, bool, error)
	GetByID(ctx context.Context, userID string) (*models.User, error)
	// RoleOf returns the role on the user record, for route gating.
	RoleOf(ctx context.Context, userID string) (string, error)
}

// StoreService defines the interface for store-related operations.
type StoreService interface {
	CreateStore(ctx context.Context, userID string, req models.CreateStoreRequest) (*models.Store, error)
	GetStoreByID(ctx context.Context, userID, storeID string) (*models.Store, error)
	ListStores(ctx context.Context, userID string) ([]*models.Store, error)
	UpdateStore(ctx context.Context, userID, storeID string, req models.UpdateStoreRequest) (*models.Store, error)
	DeleteStore(ctx context.Context, userID, storeID string) error
	// SetBrandingImage uploads a logo or banner and replaces the previous
	// file best-effort. kind is "logo" or "banner".
	SetBrandingImage(ctx context.Context, userID, storeID, kind, contentType string, r io.Reader) (*models.Store, error)
	// PreviewSlug derives the slug a name would currently allocate to,
	// without writing anything. Backs the live slug preview in the editor.
	PreviewSlug(ctx context.Context, name, excludeID string) (string, error)
}

// CatalogService defines the interface for category and item operations.
type CatalogService interface {
	CreateCategory(ctx context.Context, userID, storeID string, req models.CreateCategoryRequest) (*models.Category, error)
	UpdateCategory(ctx context.Context, userID, storeID, categoryID string, req models.UpdateCategoryRequest) (*models.Category, error)
	DeleteCategory(ctx context.Context, userID, storeID, categoryID string) error

	CreateItem(ctx context.Context, userID, storeID string, req models.CreateItemRequest) (*models.Item, error)
	UpdateItem(ctx context.Context, userID, storeID, itemID string, req models.UpdateItemRequest) (*models.Item, error)
	DeleteItem(ctx context.Context, userID, storeID, itemID string) error
	SetItemImage(ctx context.Context, userID, storeID, itemID, contentType string, r io.Reader) (*models.Item, error)

	// OwnerCatalog returns the full catalog of a store for the owner-editing
	// context: inactive records included, ordered by manual sort order.
	OwnerCatalog(ctx context.Context, userID, storeID string) ([]models.Category, []models.Item, error)
	// PublicCatalog resolves a slug for the public storefront. The returned
	// slices are filtered to active records and sorted; they are nil when the
	// store itself is inactive.
	PublicCatalog(ctx context.Context, storeSlug string) (*models.Store, []models.Category, []models.Item, error)
}

// Invoice is the user-facing projection of a Stripe invoice.
type Invoice struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"` // Smallest currency unit
	Currency string `json:"currency"`
	Status   string `json:"status"`
	Date     int64  `json:"date"` // Epoch seconds
	PDFURL   string `json:"pdfUrl,omitempty"`
	Number   string `json:"number,omitempty"`
}

// BillingService defines the interface for Stripe-backed billing operations.
type BillingService interface {
	// CreateCheckoutSession returns the Stripe Checkout URL to redirect to.
	// An existing Stripe customer ID is reused; otherwise one is created
	// implicitly via the email.
	CreateCheckoutSession(ctx context.Context, userID, email, priceID, returnURL string) (string, error)
	// CreatePortalSession returns the Customer Portal URL. When targetPriceID
	// is set and an active subscription exists, the portal opens on a
	// plan-change confirmation flow.
	CreatePortalSession(ctx context.Context, userID, targetPriceID, returnURL string) (string, error)
	// ListInvoices returns the user's invoices, empty when no Stripe
	// customer exists yet.
	ListInvoices(ctx context.Context, userID string) ([]Invoice, error)
	// HandleStripeWebhook verifies the signed payload and applies the event
	// to the affected user's subscription snapshot. Idempotent per event.
	HandleStripeWebhook(ctx context.Context, signature string, payload []byte) error
}

// AdminService defines the superadmin back-office operations.
type AdminService interface {
	ListUsers(ctx context.Context, paginationParams map[string]string) ([]*models.User, error)
	// OverrideSubscription is the privileged second writer (besides the
	// webhook) to a user's subscription snapshot.
	OverrideSubscription(ctx context.Context, targetUserID string, req models.OverrideSubscriptionRequest) (*models.User, error)
	SetBlocked(ctx context.Context, targetUserID string, blocked bool) (*models.User, error)
}
