package models

import "time"

// Store is a merchant's tenant-scoped catalog container and its
// public-facing configuration.
type Store struct {
	ID           string    `json:"id" firestore:"-"` // Document ID, auto-generated
	UserID       string    `json:"userId" firestore:"userId"`
	Name         string    `json:"name" firestore:"name"`
	Slug         string    `json:"slug" firestore:"slug"` // Unique across all stores (best-effort, see slug.Allocator)
	Description  string    `json:"description,omitempty" firestore:"description,omitempty"`
	IsActive     bool      `json:"isActive" firestore:"isActive"`
	LogoURL      string    `json:"logoUrl,omitempty" firestore:"logoUrl,omitempty"`
	BannerURL    string    `json:"bannerUrl,omitempty" firestore:"bannerUrl,omitempty"`
	PrimaryColor string    `json:"primaryColor,omitempty" firestore:"primaryColor,omitempty"`
	Phone        string    `json:"phone,omitempty" firestore:"phone,omitempty"`
	WhatsApp     string    `json:"whatsapp,omitempty" firestore:"whatsapp,omitempty"`
	Address      string    `json:"address,omitempty" firestore:"address,omitempty"`
	Instagram    string    `json:"instagram,omitempty" firestore:"instagram,omitempty"`
	CreatedAt    time.Time `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	UpdatedAt    time.Time `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}
