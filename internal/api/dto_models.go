package api

import (
	"qreta-backend-go/internal/core"
	"qreta-backend-go/internal/models"
)

// ErrorResponse is a generic structure for returning errors via API.
type ErrorResponse struct {
	Error   string `json:"error"`             // A high-level error message or code
	Details string `json:"details,omitempty"` // More specific details about the error, if available
}

// SuccessResponse is a generic structure for simple success messages.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// MeResponse is returned by GET /users/me. It carries the raw profile plus
// the display-ready subscription fields so clients never interpret Stripe
// state themselves.
type MeResponse struct {
	User         *models.User                `json:"user"`
	Subscription core.SubscriptionProjection `json:"subscription"`
}

// StoreMeta carries the social-preview metadata of a public storefront.
type StoreMeta struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
}

// PublicStoreResponse is the payload for the public storefront endpoint.
// Categories and Items are omitted when the store is unavailable.
type PublicStoreResponse struct {
	Available  bool              `json:"available"`
	Store      *models.Store     `json:"store,omitempty"`
	Categories []models.Category `json:"categories,omitempty"`
	Items      []models.Item     `json:"items,omitempty"`
	Meta       StoreMeta         `json:"meta"`
}

// OwnerCatalogResponse is the payload for the owner-side catalog view,
// inactive records included.
type OwnerCatalogResponse struct {
	Categories []models.Category `json:"categories"`
	Items      []models.Item     `json:"items"`
}

// SlugPreviewResponse returns the slug a store name would currently resolve to.
type SlugPreviewResponse struct {
	Slug string `json:"slug"`
}

// AdminUserResponse pairs a user record with its projected subscription for
// the back-office listing.
type AdminUserResponse struct {
	User         *models.User                `json:"user"`
	Subscription core.SubscriptionProjection `json:"subscription"`
}
