package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"qreta-backend-go/internal/core"
	"qreta-backend-go/internal/models"
	"qreta-backend-go/internal/storage"
)

// StoreHandler handles API endpoints related to stores.
type StoreHandler struct {
	storeService core.StoreService
}

// NewStoreHandler creates a new StoreHandler.
func NewStoreHandler(ss core.StoreService) *StoreHandler {
	return &StoreHandler{storeService: ss}
}

// mapStoreErrorToStatus maps errors from core.StoreService to HTTP status codes and ErrorResponse.
func mapStoreErrorToStatus(c *gin.Context, err error) {
	var statusCode int
	var errResponse ErrorResponse

	switch {
	case errors.Is(err, core.ErrStoreNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: core.ErrStoreNotFound.Error()}
	case errors.Is(err, core.ErrForbiddenAccess):
		statusCode = http.StatusForbidden
		errResponse = ErrorResponse{Error: core.ErrForbiddenAccess.Error()}
	case errors.Is(err, core.ErrStoreLimitReached):
		// 402 signals that the current plan's quota is the blocker.
		statusCode = http.StatusPaymentRequired
		errResponse = ErrorResponse{Error: "Store limit reached for the current plan", Details: err.Error()}
	case errors.Is(err, core.ErrInvalidStoreName):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: core.ErrInvalidStoreName.Error()}
	case errors.Is(err, core.ErrInvalidImageKind):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: core.ErrInvalidImageKind.Error()}
	case errors.Is(err, storage.ErrUnsupportedImageType):
		statusCode = http.StatusUnsupportedMediaType
		errResponse = ErrorResponse{Error: storage.ErrUnsupportedImageType.Error()}
	case errors.Is(err, core.ErrUserNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: "User not found", Details: err.Error()}
	default:
		log.Printf("Internal Server Error: %v", err)
		statusCode = http.StatusInternalServerError
		errResponse = ErrorResponse{Error: "An unexpected internal server error occurred."}
	}
	c.JSON(statusCode, errResponse)
}

// CreateStore handles POST /stores
func (h *StoreHandler) CreateStore(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}

	var req models.CreateStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	createdStore, err := h.storeService.CreateStore(c.Request.Context(), userID.(string), req)
	if err != nil {
		mapStoreErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusCreated, createdStore)
}

// ListStores handles GET /stores
func (h *StoreHandler) ListStores(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}

	stores, err := h.storeService.ListStores(c.Request.Context(), userID.(string))
	if err != nil {
		mapStoreErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, stores)
}

// GetStore handles GET /stores/:storeId
func (h *StoreHandler) GetStore(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}
	storeID := c.Param("storeId")
	if storeID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Store ID is required"})
		return
	}

	store, err := h.storeService.GetStoreByID(c.Request.Context(), userID.(string), storeID)
	if err != nil {
		mapStoreErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, store)
}

// UpdateStore handles PUT /stores/:storeId
func (h *StoreHandler) UpdateStore(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}
	storeID := c.Param("storeId")
	if storeID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Store ID is required"})
		return
	}

	var req models.UpdateStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	updatedStore, err := h.storeService.UpdateStore(c.Request.Context(), userID.(string), storeID, req)
	if err != nil {
		mapStoreErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, updatedStore)
}

// DeleteStore handles DELETE /stores/:storeId
func (h *StoreHandler) DeleteStore(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}
	storeID := c.Param("storeId")
	if storeID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Store ID is required"})
		return
	}

	if err := h.storeService.DeleteStore(c.Request.Context(), userID.(string), storeID); err != nil {
		mapStoreErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Store deleted successfully"})
}

// SetBrandingImage handles PUT /stores/:storeId/images/:kind where kind is
// "logo" or "banner". The image is sent as a multipart form file under the
// "image" field.
func (h *StoreHandler) SetBrandingImage(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}
	storeID := c.Param("storeId")
	kind := c.Param("kind")
	if storeID == "" || kind == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Store ID and image kind are required"})
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "A multipart 'image' file is required", Details: err.Error()})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Failed to open uploaded file", Details: err.Error()})
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	updatedStore, err := h.storeService.SetBrandingImage(c.Request.Context(), userID.(string), storeID, kind, contentType, file)
	if err != nil {
		mapStoreErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, updatedStore)
}

// PreviewSlug handles GET /stores/slug-preview?name=...&excludeId=...
// It returns the slug that a store name would currently be assigned,
// without persisting anything.
func (h *StoreHandler) PreviewSlug(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "The 'name' query parameter is required"})
		return
	}
	excludeID := c.Query("excludeId")

	resolvedSlug, err := h.storeService.PreviewSlug(c.Request.Context(), name, excludeID)
	if err != nil {
		mapStoreErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, SlugPreviewResponse{Slug: resolvedSlug})
}
