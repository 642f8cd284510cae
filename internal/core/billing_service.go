package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	stripe "github.com/stripe/stripe-go/v78"
	portalsession "github.com/stripe/stripe-go/v78/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v78/checkout/session"
	"github.com/stripe/stripe-go/v78/invoice"
	"github.com/stripe/stripe-go/v78/subscription"
	"github.com/stripe/stripe-go/v78/webhook"
	"go.uber.org/zap"

	"qreta-backend-go/internal/config"
	"qreta-backend-go/internal/db"
	"qreta-backend-go/internal/models"
)

// Errors for billing operations.
var (
	ErrPlanNotFound        = errors.New("plan or price ID not found")
	ErrStripeClient        = errors.New("stripe client operation failed")
	ErrWebhookProcessing   = errors.New("stripe webhook processing failed")
	ErrWebhookSignature    = errors.New("stripe webhook signature verification failed")
	ErrUserStripeNotLinked = errors.New("user does not have a Stripe customer ID")
)

// billingService implements the BillingService interface against the Stripe
// API. The user's subscription snapshot is written exclusively here (webhook
// path) and by the superadmin override; clients never write plan or status.
type billingService struct {
	userRepo      db.UserRepository
	appConfig     *config.Config
	webhookSecret string
	logger        *zap.Logger

	// fetchSubscription loads a subscription by ID so the checkout event
	// can complete the snapshot without waiting for the companion
	// subscription event. Swappable in tests.
	fetchSubscription func(ctx context.Context, subscriptionID string) (*stripe.Subscription, error)
}

// NewBillingService creates a new billingService and sets the global Stripe key.
func NewBillingService(userRepo db.UserRepository, appConfig *config.Config, logger *zap.Logger) BillingService {
	stripe.Key = appConfig.StripeSecretKey
	return &billingService{
		userRepo:      userRepo,
		appConfig:     appConfig,
		webhookSecret: appConfig.StripeWebhookSecret,
		logger:        logger,
		fetchSubscription: func(ctx context.Context, subscriptionID string) (*stripe.Subscription, error) {
			return subscription.Get(subscriptionID, &stripe.SubscriptionParams{Params: stripe.Params{Context: ctx}})
		},
	}
}

// CreateCheckoutSession creates a Stripe Checkout session in subscription
// mode and returns the redirect URL. An existing customer ID is reused;
// otherwise Stripe creates one implicitly from the email.
func (s *billingService) CreateCheckoutSession(ctx context.Context, userID, email, priceID, returnURL string) (string, error) {
	if _, ok := s.appConfig.PlanForPriceID(priceID); !ok {
		return "", fmt.Errorf("%w: price '%s'", ErrPlanNotFound, priceID)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to get user '%s' for checkout: %w", userID, err)
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Price:    stripe.String(priceID),
			Quantity: stripe.Int64(1),
		}},
		SuccessURL:        stripe.String(returnURL),
		CancelURL:         stripe.String(returnURL),
		ClientReferenceID: stripe.String(userID),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{"userId": userID},
		},
	}
	params.Context = ctx
	if user.Subscription.StripeCustomerID != "" {
		params.Customer = stripe.String(user.Subscription.StripeCustomerID)
	} else if email != "" {
		params.CustomerEmail = stripe.String(email)
	}

	sess, err := checkoutsession.New(params)
	if err != nil {
		s.logger.Error("Stripe checkout session creation failed",
			zap.String("userId", userID), zap.String("priceId", priceID), zap.Error(err))
		return "", fmt.Errorf("%w: creating checkout session", ErrStripeClient)
	}
	return sess.URL, nil
}

// CreatePortalSession creates a Customer Portal session. With a target price
// and an active subscription, the portal is pre-configured to a plan-change
// confirmation flow.
func (s *billingService) CreatePortalSession(ctx context.Context, userID, targetPriceID, returnURL string) (string, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to get user '%s' for portal session: %w", userID, err)
	}
	customerID := user.Subscription.StripeCustomerID
	if customerID == "" {
		return "", fmt.Errorf("%w: user '%s'", ErrUserStripeNotLinked, userID)
	}

	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx

	if targetPriceID != "" && user.Subscription.StripeSubscriptionID != "" {
		sub, err := subscription.Get(user.Subscription.StripeSubscriptionID, &stripe.SubscriptionParams{Params: stripe.Params{Context: ctx}})
		if err != nil {
			// Fall back to the plain portal rather than failing the redirect.
			s.logger.Warn("Could not load subscription for portal plan-change flow",
				zap.String("userId", userID), zap.Error(err))
		} else if sub.Items != nil && len(sub.Items.Data) > 0 {
			params.FlowData = &stripe.BillingPortalSessionFlowDataParams{
				Type: stripe.String("subscription_update_confirm"),
				SubscriptionUpdateConfirm: &stripe.BillingPortalSessionFlowDataSubscriptionUpdateConfirmParams{
					Subscription: stripe.String(sub.ID),
					Items: []*stripe.BillingPortalSessionFlowDataSubscriptionUpdateConfirmItemParams{{
						ID:       stripe.String(sub.Items.Data[0].ID),
						Price:    stripe.String(targetPriceID),
						Quantity: stripe.Int64(1),
					}},
				},
			}
		}
	}

	ps, err := portalsession.New(params)
	if err != nil {
		s.logger.Error("Stripe portal session creation failed",
			zap.String("userId", userID), zap.Error(err))
		return "", fmt.Errorf("%w: creating portal session", ErrStripeClient)
	}
	return ps.URL, nil
}

// ListInvoices returns the user's Stripe invoices, newest first. Users
// without a Stripe customer simply have none yet.
func (s *billingService) ListInvoices(ctx context.Context, userID string) ([]Invoice, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user '%s' for invoice listing: %w", userID, err)
	}
	if user.Subscription.StripeCustomerID == "" {
		return []Invoice{}, nil
	}

	params := &stripe.InvoiceListParams{
		Customer: stripe.String(user.Subscription.StripeCustomerID),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(24)

	invoices := []Invoice{}
	it := invoice.List(params)
	for it.Next() {
		inv := it.Invoice()
		invoices = append(invoices, Invoice{
			ID:       inv.ID,
			Amount:   inv.Total,
			Currency: string(inv.Currency),
			Status:   string(inv.Status),
			Date:     inv.Created,
			PDFURL:   inv.InvoicePDF,
			Number:   inv.Number,
		})
	}
	if err := it.Err(); err != nil {
		s.logger.Error("Stripe invoice listing failed",
			zap.String("userId", userID), zap.Error(err))
		return nil, fmt.Errorf("%w: listing invoices", ErrStripeClient)
	}
	return invoices, nil
}

// HandleStripeWebhook verifies the signed payload and applies the event.
// Errors bubble up as a 5xx so Stripe's delivery system retries; applying the
// same event again is safe, the snapshot overwrite is idempotent.
func (s *billingService) HandleStripeWebhook(ctx context.Context, signature string, payload []byte) error {
	event, err := webhook.ConstructEvent(payload, signature, s.webhookSecret)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWebhookSignature, err)
	}
	return s.applyEvent(ctx, event)
}

// applyEvent dispatches the webhook events that affect the subscription
// snapshot. Everything else is acknowledged and ignored.
func (s *billingService) applyEvent(ctx context.Context, event stripe.Event) error {
	switch string(event.Type) {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return fmt.Errorf("%w: decoding checkout session: %v", ErrWebhookProcessing, err)
		}
		return s.applyCheckoutCompleted(ctx, &sess)

	case "customer.subscription.updated", "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("%w: decoding subscription: %v", ErrWebhookProcessing, err)
		}
		return s.applySubscriptionChange(ctx, &sub, string(event.Type) == "customer.subscription.deleted")
	}

	s.logger.Debug("Ignoring unhandled Stripe event", zap.String("type", string(event.Type)))
	return nil
}

// resolveUser finds the user an event refers to: client-reference-id first,
// then metadata, then the stored Stripe customer ID.
func (s *billingService) resolveUser(ctx context.Context, clientReferenceID string, metadata map[string]string, customerID string) (*models.User, error) {
	userID := clientReferenceID
	if userID == "" && metadata != nil {
		userID = metadata["userId"]
	}
	if userID != "" {
		user, err := s.userRepo.GetByID(ctx, userID)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, db.ErrNotFound) {
			return nil, err
		}
	}
	if customerID != "" {
		return s.userRepo.GetByStripeCustomerID(ctx, customerID)
	}
	return nil, errors.New("event carries no user reference")
}

// applyCheckoutCompleted records the Stripe customer/subscription linkage as
// soon as checkout finishes and loads the subscription to fill in plan and
// renewal right away. If the fetch fails the linkage is still persisted; the
// customer.subscription.updated event Stripe emits alongside completes it.
func (s *billingService) applyCheckoutCompleted(ctx context.Context, sess *stripe.CheckoutSession) error {
	customerID := ""
	if sess.Customer != nil {
		customerID = sess.Customer.ID
	}

	user, err := s.resolveUser(ctx, sess.ClientReferenceID, sess.Metadata, customerID)
	if err != nil {
		return fmt.Errorf("%w: resolving user for checkout session '%s': %v", ErrWebhookProcessing, sess.ID, err)
	}

	if customerID != "" {
		user.Subscription.StripeCustomerID = customerID
	}
	user.Subscription.Status = models.SubscriptionStatusActive
	if sess.Subscription != nil {
		user.Subscription.StripeSubscriptionID = sess.Subscription.ID
		if sub, err := s.fetchSubscription(ctx, sess.Subscription.ID); err != nil {
			s.logger.Warn("Could not load subscription after checkout, waiting for the subscription event",
				zap.String("userId", user.ID), zap.String("subscriptionId", sess.Subscription.ID), zap.Error(err))
		} else {
			s.applySnapshot(user, sub)
		}
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("%w: persisting snapshot for user '%s': %v", ErrWebhookProcessing, user.ID, err)
	}
	s.logger.Info("Checkout completed", zap.String("userId", user.ID), zap.String("customerId", customerID))
	return nil
}

// applySubscriptionChange overwrites the snapshot from a subscription event.
// The plan is derived from the line item's price ID; an unknown price keeps
// the previous plan rather than silently downgrading.
func (s *billingService) applySubscriptionChange(ctx context.Context, sub *stripe.Subscription, deleted bool) error {
	customerID := ""
	if sub.Customer != nil {
		customerID = sub.Customer.ID
	}

	user, err := s.resolveUser(ctx, "", sub.Metadata, customerID)
	if err != nil {
		return fmt.Errorf("%w: resolving user for subscription '%s': %v", ErrWebhookProcessing, sub.ID, err)
	}

	snap := &user.Subscription
	if customerID != "" {
		snap.StripeCustomerID = customerID
	}

	if deleted {
		snap.StripeSubscriptionID = sub.ID
		snap.CancelAtPeriodEnd = sub.CancelAtPeriodEnd
		if sub.CurrentPeriodEnd != 0 {
			snap.RenewalAt = sub.CurrentPeriodEnd // Epoch seconds; projector normalizes
		}
		snap.Status = models.SubscriptionStatusCanceled
		snap.Plan = models.PlanFree
		snap.StripePriceID = ""
	} else {
		s.applySnapshot(user, sub)
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("%w: persisting snapshot for user '%s': %v", ErrWebhookProcessing, user.ID, err)
	}
	s.logger.Info("Subscription snapshot updated",
		zap.String("userId", user.ID),
		zap.String("status", snap.Status),
		zap.String("plan", string(snap.Plan)),
		zap.Bool("deleted", deleted),
	)
	return nil
}

// applySnapshot overwrites the snapshot's subscription fields from a live
// subscription. The plan is derived from the line item's price ID; an
// unknown price keeps the previous plan rather than silently downgrading.
func (s *billingService) applySnapshot(user *models.User, sub *stripe.Subscription) {
	snap := &user.Subscription
	snap.StripeSubscriptionID = sub.ID
	snap.CancelAtPeriodEnd = sub.CancelAtPeriodEnd
	if sub.CurrentPeriodEnd != 0 {
		snap.RenewalAt = sub.CurrentPeriodEnd // Epoch seconds; projector normalizes
	}
	snap.Status = snapshotStatus(sub.Status)
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		priceID := sub.Items.Data[0].Price.ID
		snap.StripePriceID = priceID
		if plan, ok := s.appConfig.PlanForPriceID(priceID); ok {
			snap.Plan = plan
		} else {
			s.logger.Warn("Subscription price does not map to a known plan, keeping previous plan",
				zap.String("userId", user.ID), zap.String("priceId", priceID))
		}
	}
}

// snapshotStatus folds Stripe's subscription statuses into the four the
// snapshot tracks.
func snapshotStatus(status stripe.SubscriptionStatus) string {
	switch status {
	case stripe.SubscriptionStatusActive:
		return models.SubscriptionStatusActive
	case stripe.SubscriptionStatusTrialing:
		return models.SubscriptionStatusTrialing
	case stripe.SubscriptionStatusCanceled:
		return models.SubscriptionStatusCanceled
	default:
		// past_due, unpaid, incomplete, incomplete_expired, paused
		return models.SubscriptionStatusPastDue
	}
}
