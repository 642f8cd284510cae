package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"qreta-backend-go/internal/config"
)

func maintenanceTestRouter(maintenanceOn bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	appConfig := &config.Config{MaintenanceMode: maintenanceOn}

	router := gin.New()
	router.Use(MaintenanceGate(appConfig))
	ok := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) }
	router.GET("/health", ok)
	router.GET("/maintenance", MaintenancePage(appConfig))
	router.GET("/api/v1/stores", ok)
	router.GET("/api/v1/public/stores/cafe", ok)
	router.POST("/api/v1/billing/webhook", ok)
	return router
}

func TestMaintenanceGate_BlocksWhileEnabled(t *testing.T) {
	router := maintenanceTestRouter(true)

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{name: "owner API blocked", method: http.MethodGet, path: "/api/v1/stores", wantStatus: http.StatusServiceUnavailable},
		{name: "public storefront blocked", method: http.MethodGet, path: "/api/v1/public/stores/cafe", wantStatus: http.StatusServiceUnavailable},
		{name: "health exempt", method: http.MethodGet, path: "/health", wantStatus: http.StatusOK},
		{name: "stripe webhook exempt", method: http.MethodPost, path: "/api/v1/billing/webhook", wantStatus: http.StatusOK},
		{name: "maintenance page exempt", method: http.MethodGet, path: "/maintenance", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusServiceUnavailable {
				assert.Contains(t, rec.Body.String(), "maintenance")
			}
		})
	}
}

func TestMaintenanceGate_PassesWhileDisabled(t *testing.T) {
	router := maintenanceTestRouter(false)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stores", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	// Stale links to the maintenance page bounce back to the root.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/maintenance", nil))
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}
