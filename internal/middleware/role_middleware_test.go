package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"qreta-backend-go/internal/core"
	"qreta-backend-go/internal/models"
)

// fakeUserService resolves roles from a fixed map; blocked users carry
// core.ErrUserBlocked.
type fakeUserService struct {
	roles   map[string]string
	blocked map[string]bool
}

func (f *fakeUserService) GetOrCreate(context.Context, string, string, string, string) (*models.User, bool, error) {
	return nil, false, nil
}

func (f *fakeUserService) GetByID(context.Context, string) (*models.User, error) {
	return nil, nil
}

func (f *fakeUserService) RoleOf(_ context.Context, userID string) (string, error) {
	if f.blocked[userID] {
		return "", core.ErrUserBlocked
	}
	role, ok := f.roles[userID]
	if !ok {
		return "", core.ErrUserNotFound
	}
	return role, nil
}

func roleTestRouter(userService core.UserService, asUserID string, superadminOnly bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	roleMW := NewRoleMiddleware(userService)

	router := gin.New()
	// Stand-in for the token middleware.
	router.Use(func(c *gin.Context) {
		if asUserID != "" {
			c.Set("userID", asUserID)
		}
	})
	handlers := []gin.HandlerFunc{roleMW.RequireActiveUser()}
	if superadminOnly {
		handlers = append(handlers, roleMW.RequireSuperadmin())
	}
	handlers = append(handlers, func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"role": c.GetString("userRole")}) })
	router.GET("/probe", handlers...)
	return router
}

func probe(router *gin.Engine) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/probe", nil))
	return rec
}

func TestRequireActiveUser(t *testing.T) {
	userService := &fakeUserService{
		roles:   map[string]string{"owner": models.RoleStoreOwner},
		blocked: map[string]bool{"banned": true},
	}

	t.Run("active user passes", func(t *testing.T) {
		rec := probe(roleTestRouter(userService, "owner", false))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), models.RoleStoreOwner)
	})

	t.Run("blocked user rejected", func(t *testing.T) {
		rec := probe(roleTestRouter(userService, "banned", false))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "blocked")
	})

	t.Run("missing identity rejected", func(t *testing.T) {
		rec := probe(roleTestRouter(userService, "", false))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown profile passes as default role", func(t *testing.T) {
		// First-login requests hit gated routes before the profile exists.
		rec := probe(roleTestRouter(userService, "brand-new", false))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), models.RoleStoreOwner)
	})
}

func TestRequireSuperadmin(t *testing.T) {
	userService := &fakeUserService{roles: map[string]string{
		"owner": models.RoleStoreOwner,
		"admin": models.RoleSuperadmin,
	}}

	t.Run("superadmin passes", func(t *testing.T) {
		rec := probe(roleTestRouter(userService, "admin", true))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("store owner rejected", func(t *testing.T) {
		rec := probe(roleTestRouter(userService, "owner", true))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
