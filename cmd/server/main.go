package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"qreta-backend-go/internal/api"
	"qreta-backend-go/internal/config"
	"qreta-backend-go/internal/core"
	"qreta-backend-go/internal/db"
	"qreta-backend-go/internal/live"
	"qreta-backend-go/internal/middleware"
	"qreta-backend-go/internal/slug"
	"qreta-backend-go/internal/storage"
)

func main() {
	// --- 1. Load .env (optional, for local development) ---
	// Production environments inject real environment variables instead.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables.")
	}

	// --- 2. Initialize Logger (Zap) ---
	// NewDevelopment gives human-readable output; switch to NewProduction
	// via GIN_MODE=release below.
	zapLogger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync()

	// --- 3. Load Application Configuration ---
	appConfig, err := config.LoadConfig()
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to load application configuration", zap.Error(err))
	}
	if strings.ToLower(appConfig.GinMode) == "release" {
		if prodLogger, perr := zap.NewProduction(); perr == nil {
			zapLogger = prodLogger
			defer zapLogger.Sync()
		}
	}
	zapLogger.Info("Application configuration loaded successfully.",
		zap.Bool("maintenanceMode", appConfig.MaintenanceMode))

	// --- 4. Initialize Firebase Admin SDK (Firestore, Auth, Storage) ---
	initCtx, cancelInitCtx := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelInitCtx()
	if err := db.InitFirebase(initCtx, appConfig); err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to initialize Firebase Admin SDK", zap.Error(err))
	}
	zapLogger.Info("Firebase Admin SDK (Firestore, Auth, Storage) initialized successfully.")

	firestoreClient := db.GetFirestoreClient()
	if firestoreClient == nil {
		zapLogger.Fatal("CRITICAL_ERROR: Firestore client is nil after initialization. Application cannot start.")
	}
	if db.GetFirebaseAuthClient() == nil {
		zapLogger.Fatal("CRITICAL_ERROR: Firebase Auth client is nil after initialization. Application cannot start.")
	}
	storageBucket := db.GetStorageBucket()
	if storageBucket == nil {
		zapLogger.Fatal("CRITICAL_ERROR: Storage bucket handle is nil after initialization. Application cannot start.")
	}

	// --- 5. Initialize Repositories ---
	userRepo := db.NewFirestoreUserRepository(firestoreClient)
	storeRepo := db.NewFirestoreStoreRepository(firestoreClient)
	categoryRepo := db.NewFirestoreCategoryRepository(firestoreClient)
	itemRepo := db.NewFirestoreItemRepository(firestoreClient)
	catalogSource := db.NewFirestoreCatalogSource(firestoreClient)
	zapLogger.Info("Repositories initialized successfully.")

	// --- 6. Initialize Services ---
	imageStore := storage.NewImageStore(storageBucket, appConfig.StorageBucket, zapLogger)
	slugAllocator := slug.NewAllocator(storeRepo)

	userService := core.NewUserService(userRepo)
	storeService := core.NewStoreService(storeRepo, categoryRepo, itemRepo, userRepo, slugAllocator, imageStore, zapLogger)
	catalogService := core.NewCatalogService(storeRepo, categoryRepo, itemRepo, imageStore, zapLogger)
	billingService := core.NewBillingService(userRepo, appConfig, zapLogger)
	adminService := core.NewAdminService(userRepo, zapLogger)
	aggregator := live.NewAggregator(catalogSource, catalogSource, catalogSource)
	zapLogger.Info("Core services initialized successfully.")

	// --- 7. Setup Gin HTTP Engine ---
	if strings.ToLower(appConfig.GinMode) == "release" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()

	// --- 8. Apply Global Middleware (order is important) ---
	// Maintenance gate runs first so maintenance answers are cheap and
	// uniform; the logger still sees them through Gin's handler chain.
	router.Use(middleware.MaintenanceGate(appConfig))
	router.Use(middleware.RequestLogger(zapLogger))
	router.Use(middleware.RecoveryMiddleware(zapLogger))

	if appConfig.ClientURL != "" {
		router.Use(middleware.CORSMiddleware(appConfig))
		zapLogger.Info("CORS Middleware enabled", zap.String("clientURL", appConfig.ClientURL))
	} else {
		zapLogger.Warn("CORS Middleware SKIPPED: CLIENT_URL is not configured. API might not be accessible from a web frontend.")
	}

	// --- 9. Setup API Routes ---
	api.SetupRoutes(
		router,
		appConfig,
		zapLogger,
		userService,
		storeService,
		catalogService,
		billingService,
		adminService,
		storeRepo,
		aggregator,
	)

	// --- 10. Configure and Start HTTP Server ---
	serverAddr := fmt.Sprintf(":%s", appConfig.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	zapLogger.Info("Starting HTTP server...", zap.String("address", serverAddr), zap.String("ginMode", gin.Mode()))

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// --- 11. Graceful Shutdown Handling ---
	quitChannel := make(chan os.Signal, 1)
	signal.Notify(quitChannel, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quitChannel
	zapLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	// Give active connections time to finish before the server is forced to close.
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	zapLogger.Info("Attempting graceful shutdown of HTTP server...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Fatal("Server forced to shutdown due to error during graceful shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exiting gracefully.")
}
