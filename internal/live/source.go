package live

import (
	"context"

	"qreta-backend-go/internal/models"
)

// CancelFunc releases a live subscription. It is safe to call more than once.
type CancelFunc func()

// StoreSource delivers the store document followed by incremental updates
// until cancelled. The handler receives nil when the document does not exist;
// that still counts as the initial delivery.
type StoreSource interface {
	ListenStore(ctx context.Context, storeID string, fn func(*models.Store)) (CancelFunc, error)
}

// CategorySource delivers the full category set of a store on every change.
// An empty result is a delivery, not an absence of one.
type CategorySource interface {
	ListenCategories(ctx context.Context, storeID string, fn func([]models.Category)) (CancelFunc, error)
}

// ItemSource delivers the full item set of a store on every change.
type ItemSource interface {
	ListenItems(ctx context.Context, storeID string, fn func([]models.Item)) (CancelFunc, error)
}
