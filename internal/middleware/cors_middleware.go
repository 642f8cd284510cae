package middleware

import (
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"qreta-backend-go/internal/config" // To get CLIENT_URL for AllowOrigins
)

// CORSMiddleware configures Cross-Origin Resource Sharing (CORS) for the application.
// It allows requests from the CLIENT_URL specified in the application configuration
// and defines common HTTP methods and headers.
func CORSMiddleware(appConfig *config.Config) gin.HandlerFunc {
	if appConfig == nil || appConfig.ClientURL == "" {
		// For safety, failing hard is better than a misconfigured permissive policy.
		log.Fatal("CRITICAL_ERROR: appConfig or appConfig.ClientURL is not configured for CORSMiddleware.")
	}

	return cors.New(cors.Config{
		// AllowOrigins specifies a list of origins that are allowed to make cross-origin requests.
		// Using appConfig.ClientURL makes this configurable per environment.
		AllowOrigins: []string{appConfig.ClientURL},

		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},

		// "Authorization" is crucial for token-based auth;
		// "Stripe-Signature" is forwarded by some proxies for the webhook endpoint.
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", "Stripe-Signature"},

		ExposeHeaders: []string{"Content-Length"},

		AllowCredentials: true,

		// MaxAge indicates how long the results of a preflight request can be cached.
		MaxAge: 12 * time.Hour,

		// The live catalog endpoint upgrades to a WebSocket.
		AllowWebSockets: true,
	})
}
