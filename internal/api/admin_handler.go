package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"qreta-backend-go/internal/core"
	"qreta-backend-go/internal/models"
)

// AdminHandler handles the superadmin back-office endpoints. The route
// group is gated by RoleMiddleware.RequireSuperadmin.
type AdminHandler struct {
	adminService core.AdminService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(as core.AdminService) *AdminHandler {
	return &AdminHandler{adminService: as}
}

// mapAdminErrorToStatus maps errors from core.AdminService to HTTP status codes and ErrorResponse.
func mapAdminErrorToStatus(c *gin.Context, err error) {
	var statusCode int
	var errResponse ErrorResponse

	switch {
	case errors.Is(err, core.ErrUserNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: "User not found", Details: err.Error()}
	default:
		log.Printf("Internal Server Error in AdminHandler: %v", err)
		statusCode = http.StatusInternalServerError
		errResponse = ErrorResponse{Error: "An unexpected internal server error occurred."}
	}
	c.JSON(statusCode, errResponse)
}

// ListUsers handles GET /admin/users with optional 'limit' and 'startAfter'
// query parameters for pagination.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	paginationParams := map[string]string{}
	if limit := c.Query("limit"); limit != "" {
		paginationParams["limit"] = limit
	}
	if startAfter := c.Query("startAfter"); startAfter != "" {
		paginationParams["startAfter"] = startAfter
	}

	users, err := h.adminService.ListUsers(c.Request.Context(), paginationParams)
	if err != nil {
		mapAdminErrorToStatus(c, err)
		return
	}

	response := make([]AdminUserResponse, 0, len(users))
	for _, user := range users {
		response = append(response, AdminUserResponse{
			User:         user,
			Subscription: core.ProjectSubscription(user.Subscription),
		})
	}
	c.JSON(http.StatusOK, response)
}

// OverrideSubscription handles PUT /admin/users/:userId/subscription.
func (h *AdminHandler) OverrideSubscription(c *gin.Context) {
	targetUserID := c.Param("userId")
	if targetUserID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "User ID is required"})
		return
	}

	var req models.OverrideSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	user, err := h.adminService.OverrideSubscription(c.Request.Context(), targetUserID, req)
	if err != nil {
		mapAdminErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, AdminUserResponse{
		User:         user,
		Subscription: core.ProjectSubscription(user.Subscription),
	})
}

// SetBlocked handles PUT /admin/users/:userId/blocked.
func (h *AdminHandler) SetBlocked(c *gin.Context) {
	targetUserID := c.Param("userId")
	if targetUserID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "User ID is required"})
		return
	}

	var req models.SetBlockedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	user, err := h.adminService.SetBlocked(c.Request.Context(), targetUserID, *req.Blocked)
	if err != nil {
		mapAdminErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, AdminUserResponse{
		User:         user,
		Subscription: core.ProjectSubscription(user.Subscription),
	})
}
