package db

import (
	"context"
	"errors"
	"log"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"qreta-backend-go/internal/live"
	"qreta-backend-go/internal/models"
)

// firestoreCatalogSource implements the live source interfaces on top of
// Firestore snapshot listeners. Each Listen* call runs one goroutine that
// pumps the snapshot iterator into the handler until the listener is
// cancelled; updates arrive in server-assigned order per query, with no
// ordering across the three queries.
type firestoreCatalogSource struct {
	client *firestore.Client
}

// NewFirestoreCatalogSource creates the Firestore-backed source set consumed
// by live.Aggregator.
func NewFirestoreCatalogSource(client *firestore.Client) interface {
	live.StoreSource
	live.CategorySource
	live.ItemSource
} {
	if client == nil {
		log.Fatal("Firestore client is not initialized for CatalogSource.")
	}
	return &firestoreCatalogSource{client: client}
}

// ListenStore streams the store document. A missing document is delivered as
// nil so the aggregator's readiness does not hang on nonexistent stores.
func (s *firestoreCatalogSource) ListenStore(ctx context.Context, storeID string, fn func(*models.Store)) (live.CancelFunc, error) {
	if storeID == "" {
		return nil, errors.New("storeID cannot be empty for ListenStore")
	}

	ctx, cancel := context.WithCancel(ctx)
	iter := s.client.Collection(storesCollection).Doc(storeID).Snapshots(ctx)

	go func() {
		defer iter.Stop()
		for {
			snap, err := iter.Next()
			if err != nil {
				if status.Code(err) != codes.Canceled {
					log.Printf("Store listener for '%s' stopped with error: %v", storeID, err)
				}
				return
			}
			if !snap.Exists() {
				fn(nil)
				continue
			}
			var store models.Store
			if err := snap.DataTo(&store); err != nil {
				log.Printf("Error decoding store snapshot (ID: %s): %v. Skipping update.", storeID, err)
				continue
			}
			store.ID = snap.Ref.ID
			fn(&store)
		}
	}()

	return live.CancelFunc(cancel), nil
}

// ListenCategories streams the full category set of a store on every change.
func (s *firestoreCatalogSource) ListenCategories(ctx context.Context, storeID string, fn func([]models.Category)) (live.CancelFunc, error) {
	if storeID == "" {
		return nil, errors.New("storeID cannot be empty for ListenCategories")
	}

	ctx, cancel := context.WithCancel(ctx)
	query := s.client.Collection(categoriesCollection).Where("storeId", "==", storeID)
	iter := query.Snapshots(ctx)

	go func() {
		defer iter.Stop()
		for {
			qsnap, err := iter.Next()
			if err != nil {
				if status.Code(err) != codes.Canceled {
					log.Printf("Category listener for store '%s' stopped with error: %v", storeID, err)
				}
				return
			}

			categories := make([]models.Category, 0, qsnap.Size)
			docs := qsnap.Documents
			for {
				doc, err := docs.Next()
				if err == iterator.Done {
					break
				}
				if err != nil {
					log.Printf("Error iterating category snapshot for store '%s': %v.", storeID, err)
					break
				}
				var category models.Category
				if err := doc.DataTo(&category); err != nil {
					log.Printf("Error decoding category snapshot (ID: %s): %v. Skipping.", doc.Ref.ID, err)
					continue
				}
				category.ID = doc.Ref.ID
				categories = append(categories, category)
			}
			fn(categories)
		}
	}()

	return live.CancelFunc(cancel), nil
}

// ListenItems streams the full item set of a store on every change.
func (s *firestoreCatalogSource) ListenItems(ctx context.Context, storeID string, fn func([]models.Item)) (live.CancelFunc, error) {
	if storeID == "" {
		return nil, errors.New("storeID cannot be empty for ListenItems")
	}

	ctx, cancel := context.WithCancel(ctx)
	query := s.client.Collection(itemsCollection).Where("storeId", "==", storeID)
	iter := query.Snapshots(ctx)

	go func() {
		defer iter.Stop()
		for {
			qsnap, err := iter.Next()
			if err != nil {
				if status.Code(err) != codes.Canceled {
					log.Printf("Item listener for store '%s' stopped with error: %v", storeID, err)
				}
				return
			}

			items := make([]models.Item, 0, qsnap.Size)
			docs := qsnap.Documents
			for {
				doc, err := docs.Next()
				if err == iterator.Done {
					break
				}
				if err != nil {
					log.Printf("Error iterating item snapshot for store '%s': %v.", storeID, err)
					break
				}
				var item models.Item
				if err := doc.DataTo(&item); err != nil {
					log.Printf("Error decoding item snapshot (ID: %s): %v. Skipping.", doc.Ref.ID, err)
					continue
				}
				item.ID = doc.Ref.ID
				items = append(items, item)
			}
			fn(items)
		}
	}()

	return live.CancelFunc(cancel), nil
}
