package models

// CreateStoreRequest represents the request body for creating a new store.
// When Slug is empty the backend derives one from Name.
type CreateStoreRequest struct {
	Name         string `json:"name" binding:"required"`
	Slug         string `json:"slug,omitempty"`
	Description  string `json:"description,omitempty"`
	PrimaryColor string `json:"primaryColor,omitempty"`
	Phone        string `json:"phone,omitempty"`
	WhatsApp     string `json:"whatsapp,omitempty"`
	Address      string `json:"address,omitempty"`
	Instagram    string `json:"instagram,omitempty"`
}

// UpdateStoreRequest represents the request body for updating an existing store.
// Pointers distinguish "clear this field" from "field not provided".
type UpdateStoreRequest struct {
	Name         *string `json:"name,omitempty"`
	Slug         *string `json:"slug,omitempty"` // Manual slug override; uniqueness re-checked
	Description  *string `json:"description,omitempty"`
	IsActive     *bool   `json:"isActive,omitempty"`
	PrimaryColor *string `json:"primaryColor,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	WhatsApp     *string `json:"whatsapp,omitempty"`
	Address      *string `json:"address,omitempty"`
	Instagram    *string `json:"instagram,omitempty"`
}

// CreateCategoryRequest represents the request body for creating a category.
type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required"`
}

// UpdateCategoryRequest represents the request body for updating a category.
// StoreID is deliberately absent: it is immutable after creation.
type UpdateCategoryRequest struct {
	Name     *string `json:"name,omitempty"`
	Order    *int64  `json:"order,omitempty"`
	IsActive *bool   `json:"isActive,omitempty"`
}

// CreateItemRequest represents the request body for creating an item.
type CreateItemRequest struct {
	CategoryID      string  `json:"categoryId" binding:"required"`
	Name            string  `json:"name" binding:"required"`
	Description     string  `json:"description,omitempty"`
	Price           float64 `json:"price" binding:"gte=0"`
	IsStartingPrice bool    `json:"isStartingPrice,omitempty"`
	Duration        string  `json:"duration,omitempty"`
	Type            string  `json:"type" binding:"required,oneof=product service"`
}

// UpdateItemRequest represents the request body for updating an item.
type UpdateItemRequest struct {
	CategoryID      *string  `json:"categoryId,omitempty"`
	Name            *string  `json:"name,omitempty"`
	Description     *string  `json:"description,omitempty"`
	Price           *float64 `json:"price,omitempty"`
	IsStartingPrice *bool    `json:"isStartingPrice,omitempty"`
	Duration        *string  `json:"duration,omitempty"`
	Type            *string  `json:"type,omitempty"`
	Order           *int64   `json:"order,omitempty"`
	IsActive        *bool    `json:"isActive,omitempty"`
}

// OverrideSubscriptionRequest is the superadmin request body for overwriting a
// user's subscription snapshot (the privileged second writer besides the webhook).
type OverrideSubscriptionRequest struct {
	Plan      string `json:"plan" binding:"required,oneof=free starter pro"`
	Status    string `json:"status,omitempty" binding:"omitempty,oneof=active trialing past_due canceled"`
	RenewalAt *int64 `json:"renewalAt,omitempty"` // Epoch seconds
}

// SetBlockedRequest toggles the block flag on a user record.
type SetBlockedRequest struct {
	Blocked *bool `json:"blocked" binding:"required"`
}
