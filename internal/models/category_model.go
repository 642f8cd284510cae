package models

import "time"

// Category is a named grouping of items within one store.
// StoreID is immutable after creation.
type Category struct {
	ID        string    `json:"id" firestore:"-"` // Document ID, auto-generated
	StoreID   string    `json:"storeId" firestore:"storeId"`
	Name      string    `json:"name" firestore:"name"`
	Order     int64     `json:"order" firestore:"order"` // Manual sort order, seeded from creation time
	IsActive  bool      `json:"isActive" firestore:"isActive"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	UpdatedAt time.Time `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}
