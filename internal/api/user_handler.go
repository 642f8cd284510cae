package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"qreta-backend-go/internal/core"
)

// UserHandler handles user-profile related API endpoints.
type UserHandler struct {
	userService core.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(us core.UserService) *UserHandler {
	return &UserHandler{userService: us}
}

// GetCurrentUserProfile handles the GET /api/v1/users/me endpoint.
// It retrieves the profile of the currently authenticated user along with
// the projected subscription state for display.
func (h *UserHandler) GetCurrentUserProfile(c *gin.Context) {
	rawUserID, exists := c.Get("userID")
	if !exists {
		log.Println("GetCurrentUserProfile Error: userID not found in context. Auth middleware might not have run or failed.")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication error: User ID not found in context"})
		return
	}
	firebaseUserID, ok := rawUserID.(string)
	if !ok || firebaseUserID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid user ID format in context"})
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), firebaseUserID)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "User profile not found"})
			return
		}
		log.Printf("GetCurrentUserProfile Error: userService.GetByID failed for userID %s: %v", firebaseUserID, err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to retrieve user profile", Details: err.Error()})
		return
	}

	c.JSON(http.StatusOK, MeResponse{
		User:         user,
		Subscription: core.ProjectSubscription(user.Subscription),
	})
}
