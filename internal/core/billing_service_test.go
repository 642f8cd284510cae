package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	stripe "github.com/stripe/stripe-go/v78"
	"go.uber.org/zap"

	"qreta-backend-go/internal/config"
	"qreta-backend-go/internal/db"
	"qreta-backend-go/internal/models"
)

// fakeUserRepo is an in-memory db.UserRepository for webhook tests.
type fakeUserRepo struct {
	users map[string]*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: map[string]*models.User{}}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (f *fakeUserRepo) GetByID(_ context.Context, userID string) (*models.User, error) {
	user, ok := f.users[userID]
	if !ok {
		return nil, fmt.Errorf("user '%s': %w", userID, db.ErrNotFound)
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) Update(_ context.Context, user *models.User) error {
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) GetByStripeCustomerID(_ context.Context, customerID string) (*models.User, error) {
	for _, u := range f.users {
		if u.Subscription.StripeCustomerID == customerID {
			copied := *u
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("customer '%s': %w", customerID, db.ErrNotFound)
}

func (f *fakeUserRepo) List(_ context.Context, _ map[string]string) ([]*models.User, error) {
	out := make([]*models.User, 0, len(f.users))
	for _, u := range f.users {
		copied := *u
		out = append(out, &copied)
	}
	return out, nil
}

func newWebhookTestService(repo *fakeUserRepo) *billingService {
	appConfig := &config.Config{
		StripeSecretKey:    "sk_test_fake",
		StripePriceStarter: "price_starter",
		StripePricePro:     "price_pro",
	}
	service := NewBillingService(repo, appConfig, zap.NewNop()).(*billingService)
	// Keep the tests offline; checkout tests that need the subscription
	// install their own fetcher.
	service.fetchSubscription = func(context.Context, string) (*stripe.Subscription, error) {
		return nil, errors.New("subscription fetch unavailable")
	}
	return service
}

func subscriptionEvent(t *testing.T, eventType string, payload map[string]interface{}) stripe.Event {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return stripe.Event{
		Type: stripe.EventType(eventType),
		Data: &stripe.EventData{Raw: raw},
	}
}

func TestBillingService_ApplyCheckoutCompleted(t *testing.T) {
	repo := newFakeUserRepo(&models.User{ID: "user-1"})
	service := newWebhookTestService(repo)

	event := subscriptionEvent(t, "checkout.session.completed", map[string]interface{}{
		"id":                  "cs_test_1",
		"client_reference_id": "user-1",
		"customer":            map[string]interface{}{"id": "cus_1"},
		"subscription":        map[string]interface{}{"id": "sub_1"},
	})

	require.NoError(t, service.applyEvent(context.Background(), event))

	// The fetcher is down, so only the linkage lands; plan and renewal
	// arrive with the companion subscription event.
	user := repo.users["user-1"]
	assert.Equal(t, "cus_1", user.Subscription.StripeCustomerID)
	assert.Equal(t, "sub_1", user.Subscription.StripeSubscriptionID)
	assert.Equal(t, models.SubscriptionStatusActive, user.Subscription.Status)
	assert.Empty(t, user.Subscription.StripePriceID)
}

func TestBillingService_CheckoutResolvesPlanFromSubscription(t *testing.T) {
	repo := newFakeUserRepo(&models.User{ID: "user-1"})
	service := newWebhookTestService(repo)
	service.fetchSubscription = func(_ context.Context, subscriptionID string) (*stripe.Subscription, error) {
		require.Equal(t, "sub_1", subscriptionID)
		return &stripe.Subscription{
			ID:               "sub_1",
			Status:           stripe.SubscriptionStatusActive,
			CurrentPeriodEnd: 1735689600,
			Items: &stripe.SubscriptionItemList{
				Data: []*stripe.SubscriptionItem{
					{Price: &stripe.Price{ID: "price_starter"}},
				},
			},
		}, nil
	}

	event := subscriptionEvent(t, "checkout.session.completed", map[string]interface{}{
		"id":                  "cs_test_1",
		"client_reference_id": "user-1",
		"customer":            map[string]interface{}{"id": "cus_1"},
		"subscription":        map[string]interface{}{"id": "sub_1"},
	})

	require.NoError(t, service.applyEvent(context.Background(), event))

	snap := repo.users["user-1"].Subscription
	assert.Equal(t, models.PlanStarter, snap.Plan)
	assert.Equal(t, models.SubscriptionStatusActive, snap.Status)
	assert.Equal(t, "price_starter", snap.StripePriceID)
	assert.EqualValues(t, 1735689600, snap.RenewalAt)
}

func TestBillingService_ApplySubscriptionUpdated(t *testing.T) {
	repo := newFakeUserRepo(&models.User{ID: "user-1"})
	service := newWebhookTestService(repo)

	event := subscriptionEvent(t, "customer.subscription.updated", map[string]interface{}{
		"id":                   "sub_1",
		"customer":             map[string]interface{}{"id": "cus_1"},
		"status":               "active",
		"cancel_at_period_end": true,
		"current_period_end":   1735689600,
		"metadata":             map[string]interface{}{"userId": "user-1"},
		"items": map[string]interface{}{
			"data": []map[string]interface{}{
				{"price": map[string]interface{}{"id": "price_pro"}},
			},
		},
	})

	require.NoError(t, service.applyEvent(context.Background(), event))

	snap := repo.users["user-1"].Subscription
	assert.Equal(t, models.PlanPro, snap.Plan)
	assert.Equal(t, models.SubscriptionStatusActive, snap.Status)
	assert.Equal(t, "cus_1", snap.StripeCustomerID)
	assert.Equal(t, "price_pro", snap.StripePriceID)
	assert.True(t, snap.CancelAtPeriodEnd)
	assert.EqualValues(t, 1735689600, snap.RenewalAt)
}

func TestBillingService_WebhookIsIdempotent(t *testing.T) {
	repo := newFakeUserRepo(&models.User{ID: "user-1"})
	service := newWebhookTestService(repo)

	event := subscriptionEvent(t, "customer.subscription.updated", map[string]interface{}{
		"id":                 "sub_1",
		"customer":           map[string]interface{}{"id": "cus_1"},
		"status":             "trialing",
		"current_period_end": 1735689600,
		"metadata":           map[string]interface{}{"userId": "user-1"},
		"items": map[string]interface{}{
			"data": []map[string]interface{}{
				{"price": map[string]interface{}{"id": "price_starter"}},
			},
		},
	})

	require.NoError(t, service.applyEvent(context.Background(), event))
	first := repo.users["user-1"].Subscription

	// Stripe redelivers on retry; a second application must not change the
	// snapshot.
	require.NoError(t, service.applyEvent(context.Background(), event))
	assert.Equal(t, first, repo.users["user-1"].Subscription)
	assert.Equal(t, models.SubscriptionStatusTrialing, first.Status)
	assert.Equal(t, models.PlanStarter, first.Plan)
}

func TestBillingService_ApplySubscriptionDeleted(t *testing.T) {
	repo := newFakeUserRepo(&models.User{
		ID: "user-1",
		Subscription: models.Subscription{
			Plan:             models.PlanPro,
			Status:           models.SubscriptionStatusActive,
			StripeCustomerID: "cus_1",
			StripePriceID:    "price_pro",
		},
	})
	service := newWebhookTestService(repo)

	// No metadata here: the user must resolve through the stored customer ID.
	event := subscriptionEvent(t, "customer.subscription.deleted", map[string]interface{}{
		"id":       "sub_1",
		"customer": map[string]interface{}{"id": "cus_1"},
		"status":   "canceled",
	})

	require.NoError(t, service.applyEvent(context.Background(), event))

	snap := repo.users["user-1"].Subscription
	assert.Equal(t, models.PlanFree, snap.Plan)
	assert.Equal(t, models.SubscriptionStatusCanceled, snap.Status)
	assert.Empty(t, snap.StripePriceID)
	assert.Equal(t, "cus_1", snap.StripeCustomerID, "linkage survives cancellation for portal access")
}

func TestBillingService_UnknownPriceKeepsPreviousPlan(t *testing.T) {
	repo := newFakeUserRepo(&models.User{
		ID: "user-1",
		Subscription: models.Subscription{
			Plan:             models.PlanStarter,
			Status:           models.SubscriptionStatusActive,
			StripeCustomerID: "cus_1",
		},
	})
	service := newWebhookTestService(repo)

	event := subscriptionEvent(t, "customer.subscription.updated", map[string]interface{}{
		"id":       "sub_1",
		"customer": map[string]interface{}{"id": "cus_1"},
		"status":   "active",
		"items": map[string]interface{}{
			"data": []map[string]interface{}{
				{"price": map[string]interface{}{"id": "price_legacy"}},
			},
		},
	})

	require.NoError(t, service.applyEvent(context.Background(), event))

	snap := repo.users["user-1"].Subscription
	assert.Equal(t, models.PlanStarter, snap.Plan, "unmapped price must not downgrade the plan")
	assert.Equal(t, "price_legacy", snap.StripePriceID)
}

func TestBillingService_IgnoresUnhandledEvents(t *testing.T) {
	repo := newFakeUserRepo(&models.User{ID: "user-1"})
	service := newWebhookTestService(repo)

	event := subscriptionEvent(t, "invoice.payment_succeeded", map[string]interface{}{"id": "in_1"})
	assert.NoError(t, service.applyEvent(context.Background(), event))
}

func TestSnapshotStatus(t *testing.T) {
	tests := []struct {
		in   stripe.SubscriptionStatus
		want string
	}{
		{stripe.SubscriptionStatusActive, models.SubscriptionStatusActive},
		{stripe.SubscriptionStatusTrialing, models.SubscriptionStatusTrialing},
		{stripe.SubscriptionStatusCanceled, models.SubscriptionStatusCanceled},
		{stripe.SubscriptionStatusPastDue, models.SubscriptionStatusPastDue},
		{stripe.SubscriptionStatusUnpaid, models.SubscriptionStatusPastDue},
		{stripe.SubscriptionStatusIncomplete, models.SubscriptionStatusPastDue},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, snapshotStatus(tt.in), string(tt.in))
	}
}
