package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"qreta-backend-go/internal/config"
	"qreta-backend-go/internal/core"
	"qreta-backend-go/internal/db"
	"qreta-backend-go/internal/live"
	"qreta-backend-go/internal/middleware"
)

// SetupRoutes configures all the application routes with their handlers and middleware.
// Global middleware (MaintenanceGate, Logging, Recovery, CORS) are applied to the
// `router` instance *before* this function is called, in `main.go`.
func SetupRoutes(
	router *gin.Engine,
	appConfig *config.Config,
	logger *zap.Logger,
	userService core.UserService,
	storeService core.StoreService,
	catalogService core.CatalogService,
	billingService core.BillingService,
	adminService core.AdminService,
	storeRepo db.StoreRepository,
	aggregator *live.Aggregator,
) {
	// Firebase Auth client must be available after db.InitFirebase().
	firebaseAuthClient := db.GetFirebaseAuthClient()
	if firebaseAuthClient == nil {
		// The application cannot secure routes without it.
		logger.Fatal("CRITICAL_SETUP_ERROR: Firebase Auth client is not initialized. AuthMiddleware cannot be created, and routes will not be set up.")
	}
	authMW := middleware.NewAuthMiddleware(firebaseAuthClient)
	roleMW := middleware.NewRoleMiddleware(userService)

	authHandler := NewAuthHandler(userService)
	userHandler := NewUserHandler(userService)
	storeHandler := NewStoreHandler(storeService)
	catalogHandler := NewCatalogHandler(catalogService)
	publicHandler := NewPublicHandler(catalogService)
	billingHandler := NewBillingHandler(billingService, appConfig)
	adminHandler := NewAdminHandler(adminService)
	liveHandler := NewLiveHandler(storeRepo, aggregator)

	apiV1 := router.Group("/api/v1")
	{
		// --- User and Authentication Endpoints ---
		userAuthGroup := apiV1.Group("/users")
		{
			// Called after client-side Firebase login/signup to ensure the
			// backend profile exists. Skips the active-user gate so a brand
			// new account can initialize itself.
			userAuthGroup.POST("/initialize", authMW.VerifyToken(), authHandler.InitializeUserProfile)

			userAuthGroup.GET("/me", authMW.VerifyToken(), roleMW.RequireActiveUser(), userHandler.GetCurrentUserProfile)
		}

		// --- Store Endpoints ---
		// All store operations require an authenticated, unblocked owner.
		storesRouteGroup := apiV1.Group("/stores", authMW.VerifyToken(), roleMW.RequireActiveUser())
		{
			storesRouteGroup.POST("", storeHandler.CreateStore)
			storesRouteGroup.GET("", storeHandler.ListStores)
			// Must come before /:storeId so "slug-preview" is not read as an ID.
			storesRouteGroup.GET("/slug-preview", storeHandler.PreviewSlug)
			storesRouteGroup.GET("/:storeId", storeHandler.GetStore)
			storesRouteGroup.PUT("/:storeId", storeHandler.UpdateStore)
			storesRouteGroup.DELETE("/:storeId", storeHandler.DeleteStore)
			storesRouteGroup.PUT("/:storeId/images/:kind", storeHandler.SetBrandingImage)

			// Catalog editing, nested under the owning store.
			storesRouteGroup.GET("/:storeId/catalog", catalogHandler.GetOwnerCatalog)
			// Owner-side live stream, includes inactive entries.
			storesRouteGroup.GET("/:storeId/live", liveHandler.StreamOwnerStore)

			storesRouteGroup.POST("/:storeId/categories", catalogHandler.CreateCategory)
			storesRouteGroup.PUT("/:storeId/categories/:categoryId", catalogHandler.UpdateCategory)
			storesRouteGroup.DELETE("/:storeId/categories/:categoryId", catalogHandler.DeleteCategory)

			storesRouteGroup.POST("/:storeId/items", catalogHandler.CreateItem)
			storesRouteGroup.PUT("/:storeId/items/:itemId", catalogHandler.UpdateItem)
			storesRouteGroup.DELETE("/:storeId/items/:itemId", catalogHandler.DeleteItem)
			storesRouteGroup.PUT("/:storeId/items/:itemId/image", catalogHandler.SetItemImage)
		}

		// --- Public Storefront Endpoints (no authentication) ---
		publicRouteGroup := apiV1.Group("/public")
		{
			publicRouteGroup.GET("/stores/:slug", publicHandler.GetPublicStore)
			publicRouteGroup.GET("/stores/:slug/live", liveHandler.StreamPublicStore)
		}

		// --- Billing Endpoints ---
		billingRouteGroup := apiV1.Group("/billing")
		{
			billingRouteGroup.POST("/checkout-session", authMW.VerifyToken(), roleMW.RequireActiveUser(), billingHandler.CreateCheckoutSession)
			billingRouteGroup.POST("/portal-session", authMW.VerifyToken(), roleMW.RequireActiveUser(), billingHandler.CreatePortalSession)
			billingRouteGroup.GET("/invoices", authMW.VerifyToken(), roleMW.RequireActiveUser(), billingHandler.ListInvoices)

			// Public webhook endpoint for Stripe (no token middleware here).
			// Stripe authenticates webhooks via signature, handled by the service.
			billingRouteGroup.POST("/webhook", billingHandler.HandleStripeWebhook)
		}

		// --- Superadmin Back-office Endpoints ---
		adminRouteGroup := apiV1.Group("/admin", authMW.VerifyToken(), roleMW.RequireActiveUser(), roleMW.RequireSuperadmin())
		{
			adminRouteGroup.GET("/users", adminHandler.ListUsers)
			adminRouteGroup.PUT("/users/:userId/subscription", adminHandler.OverrideSubscription)
			adminRouteGroup.PUT("/users/:userId/blocked", adminHandler.SetBlocked)
		}
	}

	// --- General Endpoints outside /api/v1 ---
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "Qreta backend is healthy."})
	})
	router.GET("/maintenance", middleware.MaintenancePage(appConfig))

	logger.Info("API routes configured successfully under /api/v1 and /health.")
}
