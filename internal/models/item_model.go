package models

import "time"

// Item type discriminators.
const (
	ItemTypeProduct = "product"
	ItemTypeService = "service"
)

// Item is a catalog entry, either a sellable product or a bookable service.
// CategoryID must reference a category belonging to the same store.
type Item struct {
	ID          string `json:"id" firestore:"-"` // Document ID, auto-generated
	StoreID     string `json:"storeId" firestore:"storeId"`
	CategoryID  string `json:"categoryId" firestore:"categoryId"`
	Name        string `json:"name" firestore:"name"`
	Description string `json:"description,omitempty" firestore:"description,omitempty"`
	Price       float64 `json:"price" firestore:"price"` // Non-negative
	// IsStartingPrice marks Price as a floor ("from R$ 50"), not an exact amount.
	IsStartingPrice bool      `json:"isStartingPrice,omitempty" firestore:"isStartingPrice,omitempty"`
	Duration        string    `json:"duration,omitempty" firestore:"duration,omitempty"` // Services only, free-form label
	Type            string    `json:"type" firestore:"type"`
	ImageURL        string    `json:"imageUrl,omitempty" firestore:"imageUrl,omitempty"`
	Order           int64     `json:"order" firestore:"order"`
	IsActive        bool      `json:"isActive" firestore:"isActive"`
	CreatedAt       time.Time `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	UpdatedAt       time.Time `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}
