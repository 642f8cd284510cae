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

const (
	categoriesCollection = "categories"
	itemsCollection      = "items"
)

// firestoreCategoryRepository implements CategoryRepository using Firestore.
type firestoreCategoryRepository struct {
	client *firestore.Client
}

// NewFirestoreCategoryRepository creates a new instance of firestoreCategoryRepository.
func NewFirestoreCategoryRepository(client *firestore.Client) CategoryRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for CategoryRepository.")
	}
	return &firestoreCategoryRepository{client: client}
}

func (r *firestoreCategoryRepository) Create(ctx context.Context, category *models.Category) (string, error) {
	docRef := r.client.Collection(categoriesCollection).NewDoc()
	category.ID = docRef.ID

	_, err := docRef.Create(ctx, category)
	if err != nil {
		return "", fmt.Errorf("failed to create category: %w", err)
	}
	return docRef.ID, nil
}

func (r *firestoreCategoryRepository) GetByID(ctx context.Context, categoryID string) (*models.Category, error) {
	if categoryID == "" {
		return nil, errors.New("categoryID cannot be empty for GetByID operation")
	}
	docSnap, err := r.client.Collection(categoriesCollection).Doc(categoryID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("category with ID '%s' not found: %w", categoryID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get category with ID '%s': %w", categoryID, err)
	}

	var category models.Category
	if err := docSnap.DataTo(&category); err != nil {
		return nil, fmt.Errorf("failed to decode category data for ID '%s': %w", categoryID, err)
	}
	category.ID = docSnap.Ref.ID
	return &category, nil
}

// GetByStoreID retrieves all categories of a store ordered by their manual
// sort order. Active filtering is a presentation concern, left to callers.
func (r *firestoreCategoryRepository) GetByStoreID(ctx context.Context, storeID string) ([]models.Category, error) {
	if storeID == "" {
		return nil, errors.New("storeID cannot be empty for GetByStoreID operation")
	}

	iter := r.client.Collection(categoriesCollection).
		Where("storeId", "==", storeID).
		OrderBy("order", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	var categories []models.Category
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate categories for store '%s': %w", storeID, err)
		}

		var category models.Category
		if err := doc.DataTo(&category); err != nil {
			log.Printf("Error decoding category data (ID: %s) for store '%s': %v. Skipping.", doc.Ref.ID, storeID, err)
			continue
		}
		category.ID = doc.Ref.ID
		categories = append(categories, category)
	}

	return categories, nil
}

func (r *firestoreCategoryRepository) Update(ctx context.Context, category *models.Category) error {
	if category.ID == "" {
		return errors.New("category ID cannot be empty for Update operation")
	}
	_, err := r.client.Collection(categoriesCollection).Doc(category.ID).Set(ctx, category, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to update category with ID '%s': %w", category.ID, err)
	}
	return nil
}

func (r *firestoreCategoryRepository) Delete(ctx context.Context, categoryID string) error {
	if categoryID == "" {
		return errors.New("categoryID cannot be empty for Delete operation")
	}
	_, err := r.client.Collection(categoriesCollection).Doc(categoryID).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete category with ID '%s': %w", categoryID, err)
	}
	return nil
}

// firestoreItemRepository implements ItemRepository using Firestore.
type firestoreItemRepository struct {
	client *firestore.Client
}

// NewFirestoreItemRepository creates a new instance of firestoreItemRepository.
func NewFirestoreItemRepository(client *firestore.Client) ItemRepository {
	if client == nil {
		log.Fatal("Firestore client is not initialized for ItemRepository.")
	}
	return &firestoreItemRepository{client: client}
}

func (r *firestoreItemRepository) Create(ctx context.Context, item *models.Item) (string, error) {
	docRef := r.client.Collection(itemsCollection).NewDoc()
	item.ID = docRef.ID

	_, err := docRef.Create(ctx, item)
	if err != nil {
		return "", fmt.Errorf("failed to create item: %w", err)
	}
	return docRef.ID, nil
}

func (r *firestoreItemRepository) GetByID(ctx context.Context, itemID string) (*models.Item, error) {
	if itemID == "" {
		return nil, errors.New("itemID cannot be empty for GetByID operation")
	}
	docSnap, err := r.client.Collection(itemsCollection).Doc(itemID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("item with ID '%s' not found: %w", itemID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get item with ID '%s': %w", itemID, err)
	}

	var item models.Item
	if err := docSnap.DataTo(&item); err != nil {
		return nil, fmt.Errorf("failed to decode item data for ID '%s': %w", itemID, err)
	}
	item.ID = docSnap.Ref.ID
	return &item, nil
}

func (r *firestoreItemRepository) GetByStoreID(ctx context.Context, storeID string) ([]models.Item, error) {
	if storeID == "" {
		return nil, errors.New("storeID cannot be empty for GetByStoreID operation")
	}
	return r.queryItems(ctx, r.client.Collection(itemsCollection).
		Where("storeId", "==", storeID).
		OrderBy("order", firestore.Asc), storeID)
}

func (r *firestoreItemRepository) GetByCategoryID(ctx context.Context, categoryID string) ([]models.Item, error) {
	if categoryID == "" {
		return nil, errors.New("categoryID cannot be empty for GetByCategoryID operation")
	}
	return r.queryItems(ctx, r.client.Collection(itemsCollection).
		Where("categoryId", "==", categoryID).
		OrderBy("order", firestore.Asc), categoryID)
}

func (r *firestoreItemRepository) queryItems(ctx context.Context, query firestore.Query, scope string) ([]models.Item, error) {
	iter := query.Documents(ctx)
	defer iter.Stop()

	var items []models.Item
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate items for '%s': %w", scope, err)
		}

		var item models.Item
		if err := doc.DataTo(&item); err != nil {
			log.Printf("Error decoding item data (ID: %s) for '%s': %v. Skipping.", doc.Ref.ID, scope, err)
			continue
		}
		item.ID = doc.Ref.ID
		items = append(items, item)
	}

	return items, nil
}

func (r *firestoreItemRepository) Update(ctx context.Context, item *models.Item) error {
	if item.ID == "" {
		return errors.New("item ID cannot be empty for Update operation")
	}
	_, err := r.client.Collection(itemsCollection).Doc(item.ID).Set(ctx, item, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to update item with ID '%s': %w", item.ID, err)
	}
	return nil
}

func (r *firestoreItemRepository) Delete(ctx context.Context, itemID string) error {
	if itemID == "" {
		return errors.New("itemID cannot be empty for Delete operation")
	}
	_, err := r.client.Collection(itemsCollection).Doc(itemID).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete item with ID '%s': %w", itemID, err)
	}
	return nil
}
