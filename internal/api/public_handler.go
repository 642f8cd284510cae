package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"qreta-backend-go/internal/core"
	"qreta-backend-go/internal/models"
)

// PublicHandler serves the unauthenticated storefront endpoints that back
// the public catalog URL and its QR code.
type PublicHandler struct {
	catalogService core.CatalogService
}

// NewPublicHandler creates a new PublicHandler.
func NewPublicHandler(cs core.CatalogService) *PublicHandler {
	return &PublicHandler{catalogService: cs}
}

// storeMeta builds the social-preview metadata for a storefront. The banner
// wins over the logo as the preview image when both exist.
func storeMeta(store *models.Store) StoreMeta {
	image := store.BannerURL
	if image == "" {
		image = store.LogoURL
	}
	return StoreMeta{
		Title:       store.Name,
		Description: store.Description,
		Image:       image,
	}
}

// GetPublicStore handles GET /api/v1/public/stores/:slug.
// An unknown slug is a 404. A known but deactivated store still resolves so
// the client can show an "unavailable" screen with the store's branding.
func (h *PublicHandler) GetPublicStore(c *gin.Context) {
	storeSlug := c.Param("slug")
	if storeSlug == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Store slug is required"})
		return
	}

	store, categories, items, err := h.catalogService.PublicCatalog(c.Request.Context(), storeSlug)
	if err != nil {
		if errors.Is(err, core.ErrPublicStoreNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Store not found"})
			return
		}
		log.Printf("GetPublicStore Error: failed to resolve slug '%s': %v", storeSlug, err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to load store"})
		return
	}

	if !store.IsActive {
		c.JSON(http.StatusOK, PublicStoreResponse{
			Available: false,
			Meta:      storeMeta(store),
		})
		return
	}

	c.JSON(http.StatusOK, PublicStoreResponse{
		Available:  true,
		Store:      store,
		Categories: categories,
		Items:      items,
		Meta:       storeMeta(store),
	})
}
