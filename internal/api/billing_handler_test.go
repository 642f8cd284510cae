package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"qreta-backend-go/internal/config"
	"qreta-backend-go/internal/core"
)

// fakeBillingService lets tests script the outcome of each billing operation.
type fakeBillingService struct {
	webhookErr   error
	webhookCalls int
}

func (f *fakeBillingService) CreateCheckoutSession(ctx context.Context, userID, email, priceID, returnURL string) (string, error) {
	return "https://checkout.stripe.test/session", nil
}

func (f *fakeBillingService) CreatePortalSession(ctx context.Context, userID, targetPriceID, returnURL string) (string, error) {
	return "https://billing.stripe.test/portal", nil
}

func (f *fakeBillingService) ListInvoices(ctx context.Context, userID string) ([]core.Invoice, error) {
	return []core.Invoice{}, nil
}

func (f *fakeBillingService) HandleStripeWebhook(ctx context.Context, signature string, payload []byte) error {
	f.webhookCalls++
	return f.webhookErr
}

func webhookTestRouter(svc core.BillingService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewBillingHandler(svc, &config.Config{})
	router := gin.New()
	router.POST("/api/v1/billing/webhook", handler.HandleStripeWebhook)
	return router
}

func postWebhook(router *gin.Engine, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/billing/webhook", strings.NewReader(`{"type":"customer.subscription.updated"}`))
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleStripeWebhook_StatusMapping(t *testing.T) {
	testCases := []struct {
		name       string
		serviceErr error
		wantStatus int
	}{
		{
			name:       "acknowledges applied event",
			serviceErr: nil,
			wantStatus: http.StatusOK,
		},
		{
			name:       "rejects a bad signature without retry",
			serviceErr: core.ErrWebhookSignature,
			wantStatus: http.StatusBadRequest,
		},
		{
			// A persistence failure while applying the event must not be
			// acknowledged; Stripe only redelivers on a 5xx.
			name:       "processing failure asks for redelivery",
			serviceErr: core.ErrWebhookProcessing,
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeBillingService{webhookErr: tc.serviceErr}
			rec := postWebhook(webhookTestRouter(svc), "t=1,v1=sig")

			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, 1, svc.webhookCalls)
		})
	}
}

func TestHandleStripeWebhook_MissingSignatureHeader(t *testing.T) {
	svc := &fakeBillingService{}
	rec := postWebhook(webhookTestRouter(svc), "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, svc.webhookCalls, "the service should not see an unsigned payload")
}
