package api

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"qreta-backend-go/internal/config"
	"qreta-backend-go/internal/core"
	"qreta-backend-go/internal/models"
)

// BillingHandler handles billing-related API endpoints.
type BillingHandler struct {
	billingService core.BillingService
	appConfig      *config.Config
}

// NewBillingHandler creates a new BillingHandler. The config is needed to
// resolve plan names to Stripe price IDs and for the default return URL.
func NewBillingHandler(bs core.BillingService, appConfig *config.Config) *BillingHandler {
	return &BillingHandler{billingService: bs, appConfig: appConfig}
}

// --- Request DTOs ---

// CreateCheckoutSessionRequest selects the paid plan to start a Checkout for.
type CreateCheckoutSessionRequest struct {
	Plan      string `json:"plan" binding:"required,oneof=starter pro"`
	ReturnURL string `json:"returnUrl"`
}

// CreatePortalSessionRequest optionally targets a plan so the portal opens
// directly on the plan-change confirmation flow.
type CreatePortalSessionRequest struct {
	TargetPlan string `json:"targetPlan" binding:"omitempty,oneof=starter pro"`
	ReturnURL  string `json:"returnUrl"`
}

// --- Response DTOs ---

// CheckoutSessionResponse returns the Stripe-hosted URL to redirect to.
type CheckoutSessionResponse struct {
	URL string `json:"url"`
}

// PortalSessionResponse returns the URL for the Stripe Customer Portal.
type PortalSessionResponse struct {
	URL string `json:"url"`
}

// mapBillingErrorToStatus maps errors from core.BillingService to HTTP status codes and ErrorResponse.
func mapBillingErrorToStatus(c *gin.Context, err error) {
	var statusCode int
	var errResponse ErrorResponse

	switch {
	case errors.Is(err, core.ErrPlanNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: "Plan or Price not found", Details: err.Error()}
	case errors.Is(err, core.ErrStripeClient):
		// 503 points at the upstream payment provider, not this service.
		statusCode = http.StatusServiceUnavailable
		errResponse = ErrorResponse{Error: "Payment provider error", Details: "Could not complete the operation with the payment provider."}
		log.Printf("Stripe Client Error: %v", err)
	case errors.Is(err, core.ErrWebhookSignature):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: "Webhook signature verification failed"}
	case errors.Is(err, core.ErrWebhookProcessing):
		// Never acknowledge an event that failed to apply; a 5xx makes
		// Stripe's delivery system retry it.
		statusCode = http.StatusInternalServerError
		errResponse = ErrorResponse{Error: "Webhook processing error", Details: err.Error()}
	case errors.Is(err, core.ErrUserStripeNotLinked):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: "User not linked to payment provider", Details: err.Error()}
	default:
		log.Printf("Internal Server Error in BillingHandler: %v", err)
		statusCode = http.StatusInternalServerError
		errResponse = ErrorResponse{Error: "An unexpected internal server error occurred."}
	}
	c.JSON(statusCode, errResponse)
}

// CreateCheckoutSession handles POST /billing/checkout-session
func (h *BillingHandler) CreateCheckoutSession(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}

	var req CreateCheckoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	priceID := h.appConfig.PriceIDForPlan(models.Plan(req.Plan))
	if priceID == "" {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "No price is configured for plan '" + req.Plan + "'"})
		return
	}
	returnURL := req.ReturnURL
	if returnURL == "" {
		returnURL = h.appConfig.ClientURL
	}

	email := c.GetString("userEmail")
	checkoutURL, err := h.billingService.CreateCheckoutSession(c.Request.Context(), userID.(string), email, priceID, returnURL)
	if err != nil {
		mapBillingErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, CheckoutSessionResponse{URL: checkoutURL})
}

// CreatePortalSession handles POST /billing/portal-session
func (h *BillingHandler) CreatePortalSession(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}

	var req CreatePortalSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	targetPriceID := ""
	if req.TargetPlan != "" {
		targetPriceID = h.appConfig.PriceIDForPlan(models.Plan(req.TargetPlan))
		if targetPriceID == "" {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "No price is configured for plan '" + req.TargetPlan + "'"})
			return
		}
	}
	returnURL := req.ReturnURL
	if returnURL == "" {
		returnURL = h.appConfig.ClientURL
	}

	portalURL, err := h.billingService.CreatePortalSession(c.Request.Context(), userID.(string), targetPriceID, returnURL)
	if err != nil {
		mapBillingErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, PortalSessionResponse{URL: portalURL})
}

// ListInvoices handles GET /billing/invoices
func (h *BillingHandler) ListInvoices(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return
	}

	invoices, err := h.billingService.ListInvoices(c.Request.Context(), userID.(string))
	if err != nil {
		mapBillingErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, invoices)
}

// HandleStripeWebhook handles POST /billing/webhook.
// This endpoint is public and does not require token authentication;
// Stripe authenticates webhooks using the 'Stripe-Signature' header.
func (h *BillingHandler) HandleStripeWebhook(c *gin.Context) {
	signature := c.GetHeader("Stripe-Signature")
	if signature == "" {
		log.Println("Stripe Webhook: Missing Stripe-Signature header.")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Missing Stripe-Signature header"})
		return
	}

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.Printf("Stripe Webhook: Error reading request body: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to read webhook payload", Details: err.Error()})
		return
	}
	defer c.Request.Body.Close()

	// The service verifies the signature and applies the event.
	if err := h.billingService.HandleStripeWebhook(c.Request.Context(), signature, payload); err != nil {
		log.Printf("Stripe Webhook: Error handling webhook: %v", err)
		mapBillingErrorToStatus(c, err)
		return
	}

	// Stripe expects a 2xx response to acknowledge receipt of the webhook.
	c.JSON(http.StatusOK, SuccessResponse{Message: "Webhook received successfully"})
}
