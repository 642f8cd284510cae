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

// CatalogHandler handles API endpoints for categories and items,
// always nested under a store the caller owns.
type CatalogHandler struct {
	catalogService core.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(cs core.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: cs}
}

// mapCatalogErrorToStatus maps errors from core.CatalogService to HTTP status codes and ErrorResponse.
func mapCatalogErrorToStatus(c *gin.Context, err error) {
	var statusCode int
	var errResponse ErrorResponse

	switch {
	case errors.Is(err, core.ErrStoreNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: core.ErrStoreNotFound.Error()}
	case errors.Is(err, core.ErrCategoryNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: core.ErrCategoryNotFound.Error()}
	case errors.Is(err, core.ErrItemNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: core.ErrItemNotFound.Error()}
	case errors.Is(err, core.ErrForbiddenAccess):
		statusCode = http.StatusForbidden
		errResponse = ErrorResponse{Error: core.ErrForbiddenAccess.Error()}
	case errors.Is(err, core.ErrCategoryMismatch):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: core.ErrCategoryMismatch.Error()}
	case errors.Is(err, core.ErrNegativePrice):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: core.ErrNegativePrice.Error()}
	case errors.Is(err, core.ErrInvalidItemType):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: core.ErrInvalidItemType.Error()}
	case errors.Is(err, storage.ErrUnsupportedImageType):
		statusCode = http.StatusUnsupportedMediaType
		errResponse = ErrorResponse{Error: storage.ErrUnsupportedImageType.Error()}
	default:
		log.Printf("Internal Server Error: %v", err)
		statusCode = http.StatusInternalServerError
		errResponse = ErrorResponse{Error: "An unexpected internal server error occurred."}
	}
	c.JSON(statusCode, errResponse)
}

// requestIdentity pulls the caller's user ID and the storeId path param.
// It writes the error response itself and reports ok=false when either is missing.
func requestIdentity(c *gin.Context) (userID, storeID string, ok bool) {
	rawUserID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return "", "", false
	}
	storeID = c.Param("storeId")
	if storeID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Store ID is required"})
		return "", "", false
	}
	return rawUserID.(string), storeID, true
}

// --- Category endpoints ---

// CreateCategory handles POST /stores/:storeId/categories
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	userID, storeID, ok := requestIdentity(c)
	if !ok {
		return
	}

	var req models.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	createdCategory, err := h.catalogService.CreateCategory(c.Request.Context(), userID, storeID, req)
	if err != nil {
		mapCatalogErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusCreated, createdCategory)
}

// UpdateCategory handles PUT /stores/:storeId/categories/:categoryId
func (h *CatalogHandler) UpdateCategory(c *gin.Context) {
	userID, storeID, ok := requestIdentity(c)
	if !ok {
		return
	}
	categoryID := c.Param("categoryId")
	if categoryID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Category ID is required"})
		return
	}

	var req models.UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	updatedCategory, err := h.catalogService.UpdateCategory(c.Request.Context(), userID, storeID, categoryID, req)
	if err != nil {
		mapCatalogErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, updatedCategory)
}

// DeleteCategory handles DELETE /stores/:storeId/categories/:categoryId
func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	userID, storeID, ok := requestIdentity(c)
	if !ok {
		return
	}
	categoryID := c.Param("categoryId")
	if categoryID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Category ID is required"})
		return
	}

	if err := h.catalogService.DeleteCategory(c.Request.Context(), userID, storeID, categoryID); err != nil {
		mapCatalogErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Category deleted successfully"})
}

// --- Item endpoints ---

// CreateItem handles POST /stores/:storeId/items
func (h *CatalogHandler) CreateItem(c *gin.Context) {
	userID, storeID, ok := requestIdentity(c)
	if !ok {
		return
	}

	var req models.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	createdItem, err := h.catalogService.CreateItem(c.Request.Context(), userID, storeID, req)
	if err != nil {
		mapCatalogErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusCreated, createdItem)
}

// UpdateItem handles PUT /stores/:storeId/items/:itemId
func (h *CatalogHandler) UpdateItem(c *gin.Context) {
	userID, storeID, ok := requestIdentity(c)
	if !ok {
		return
	}
	itemID := c.Param("itemId")
	if itemID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Item ID is required"})
		return
	}

	var req models.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	updatedItem, err := h.catalogService.UpdateItem(c.Request.Context(), userID, storeID, itemID, req)
	if err != nil {
		mapCatalogErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, updatedItem)
}

// DeleteItem handles DELETE /stores/:storeId/items/:itemId
func (h *CatalogHandler) DeleteItem(c *gin.Context) {
	userID, storeID, ok := requestIdentity(c)
	if !ok {
		return
	}
	itemID := c.Param("itemId")
	if itemID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Item ID is required"})
		return
	}

	if err := h.catalogService.DeleteItem(c.Request.Context(), userID, storeID, itemID); err != nil {
		mapCatalogErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Item deleted successfully"})
}

// SetItemImage handles PUT /stores/:storeId/items/:itemId/image with a
// multipart form file under the "image" field.
func (h *CatalogHandler) SetItemImage(c *gin.Context) {
	userID, storeID, ok := requestIdentity(c)
	if !ok {
		return
	}
	itemID := c.Param("itemId")
	if itemID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Item ID is required"})
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
	updatedItem, err := h.catalogService.SetItemImage(c.Request.Context(), userID, storeID, itemID, contentType, file)
	if err != nil {
		mapCatalogErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, updatedItem)
}

// GetOwnerCatalog handles GET /stores/:storeId/catalog, the owner-side view
// that includes inactive categories and items.
func (h *CatalogHandler) GetOwnerCatalog(c *gin.Context) {
	userID, storeID, ok := requestIdentity(c)
	if !ok {
		return
	}

	categories, items, err := h.catalogService.OwnerCatalog(c.Request.Context(), userID, storeID)
	if err != nil {
		mapCatalogErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, OwnerCatalogResponse{Categories: categories, Items: items})
}
