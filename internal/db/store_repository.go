package db

import (
	"context"
	"errors"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"qreta-backend-go/internal/models"
)

const storesCollection = "stores"

// firestoreStoreRepository implements the StoreRepository interface using Firestore.
type firestoreStoreRepository struct {
	client *firestore.Client
}

// NewFirestoreStoreRepository creates a new instance of firestoreStoreRepository.
func NewFirestoreStoreRepository(client *firestore.Client) StoreRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for StoreRepository.")
	}
	return &firestoreStoreRepository{client: client}
}

// Create adds a new store document to Firestore with an auto-generated ID.
// It sets store.ID with the new document ID before creation.
func (r *firestoreStoreRepository) Create(ctx context.Context, store *models.Store) (string, error) {
	docRef := r.client.Collection(storesCollection).NewDoc()
	store.ID = docRef.ID

	_, err := docRef.Create(ctx, store)
	if err != nil {
		return "", fmt.Errorf("failed to create store: %w", err)
	}
	return docRef.ID, nil
}

// GetByID retrieves a store document from Firestore by its ID.
func (r *firestoreStoreRepository) GetByID(ctx context.Context, storeID string) (*models.Store, error) {
	if storeID == "" {
		return nil, errors.New("storeID cannot be empty for GetByID operation")
	}
	docSnap, err := r.client.Collection(storesCollection).Doc(storeID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("store with ID '%s' not found: %w", storeID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get store with ID '%s': %w", storeID, err)
	}

	var store models.Store
	if err := docSnap.DataTo(&store); err != nil {
		return nil, fmt.Errorf("failed to decode store data for ID '%s': %w", storeID, err)
	}
	store.ID = docSnap.Ref.ID

	return &store, nil
}

// GetBySlug resolves a store by its public slug.
func (r *firestoreStoreRepository) GetBySlug(ctx context.Context, slug string) (*models.Store, error) {
	if slug == "" {
		return nil, errors.New("slug cannot be empty for GetBySlug operation")
	}

	iter := r.client.Collection(storesCollection).Where("slug", "==", slug).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, fmt.Errorf("store with slug '%s' not found: %w", slug, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query store by slug '%s': %w", slug, err)
	}

	var store models.Store
	if err := doc.DataTo(&store); err != nil {
		return nil, fmt.Errorf("failed to decode store data for slug '%s': %w", slug, err)
	}
	store.ID = doc.Ref.ID
	return &store, nil
}

// StoreIDBySlug returns the ID of the store currently holding a slug, or ""
// when the slug is unused. Feeds the slug allocator's probe loop.
func (r *firestoreStoreRepository) StoreIDBySlug(ctx context.Context, slug string) (string, error) {
	store, err := r.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return store.ID, nil
}

// GetByUserID retrieves all stores owned by a user, newest first.
func (r *firestoreStoreRepository) GetByUserID(ctx context.Context, userID string) ([]*models.Store, error) {
	if userID == "" {
		return nil, errors.New("userID cannot be empty for GetByUserID operation")
	}

	iter := r.client.Collection(storesCollection).
		Where("userId", "==", userID).
		OrderBy("createdAt", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	var stores []*models.Store
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate stores for user '%s': %w", userID, err)
		}

		var store models.Store
		if err := doc.DataTo(&store); err != nil {
			log.Printf("Error decoding store data (ID: %s) for user '%s': %v. Skipping.", doc.Ref.ID, userID, err)
			continue
		}
		store.ID = doc.Ref.ID
		stores = append(stores, &store)
	}

	return stores, nil
}

// Update overwrites an existing store document.
func (r *firestoreStoreRepository) Update(ctx context.Context, store *models.Store) error {
	if store.ID == "" {
		return errors.New("store ID cannot be empty for Update operation")
	}
	_, err := r.client.Collection(storesCollection).Doc(store.ID).Set(ctx, store, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to update store with ID '%s': %w", store.ID, err)
	}
	return nil
}

// Delete removes a store document. Associated categories, items and images are
// the service layer's responsibility (best-effort cascade, not transactional).
func (r *firestoreStoreRepository) Delete(ctx context.Context, storeID string) error {
	if storeID == "" {
		return errors.New("storeID cannot be empty for Delete operation")
	}
	_, err := r.client.Collection(storesCollection).Doc(storeID).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete store with ID '%s': %w", storeID, err)
	}
	return nil
}

// CountByUserID counts the stores a user owns, for plan quota checks.
func (r *firestoreStoreRepository) CountByUserID(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, errors.New("userID cannot be empty for CountByUserID operation")
	}

	iter := r.client.Collection(storesCollection).Where("userId", "==", userID).Documents(ctx)
	defer iter.Stop()

	count := 0
	for {
		_, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("failed to count stores for user '%s': %w", userID, err)
		}
		count++
	}
	return count, nil
}
