package middleware

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"qreta-backend-go/internal/core"
	"qreta-backend-go/internal/models"
)

// RoleMiddleware gates routes by the role stored on the user profile.
// It runs after AuthMiddleware, so the userID is already in the context.
type RoleMiddleware struct {
	userService core.UserService
}

// NewRoleMiddleware creates a new RoleMiddleware instance.
func NewRoleMiddleware(userService core.UserService) *RoleMiddleware {
	if userService == nil {
		log.Fatal("CRITICAL_ERROR: UserService is not initialized for RoleMiddleware.")
	}
	return &RoleMiddleware{userService: userService}
}

// RequireActiveUser rejects requests from blocked accounts. Every
// authenticated route goes through this so a block takes effect on the
// next request, not the next login.
func (m *RoleMiddleware) RequireActiveUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("userID")
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in request context"})
			return
		}

		role, err := m.userService.RoleOf(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, core.ErrUserBlocked) {
				c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Error: "This account has been blocked"})
				return
			}
			if errors.Is(err, core.ErrUserNotFound) {
				// First login: the profile is created lazily by the auth init
				// endpoint, so an unknown user is not blocked.
				c.Set("userRole", string(models.RoleStoreOwner))
				c.Next()
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to resolve user role"})
			return
		}

		c.Set("userRole", string(role))
		c.Next()
	}
}

// RequireSuperadmin restricts a route group to back-office operators.
func (m *RoleMiddleware) RequireSuperadmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get("userRole")
		if role != string(models.RoleSuperadmin) {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Error: "Superadmin privileges are required for this operation"})
			return
		}
		c.Next()
	}
}
