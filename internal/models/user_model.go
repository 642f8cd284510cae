package models

import "time"

// Roles assignable to a user record.
const (
	RoleStoreOwner = "store_owner"
	RoleSuperadmin = "superadmin"
)

// Subscription statuses mirrored from the payment processor.
const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusTrialing = "trialing"
	SubscriptionStatusPastDue  = "past_due"
	SubscriptionStatusCanceled = "canceled"
)

// Subscription is the denormalized snapshot of processor-owned billing state
// cached on the user record. It is written only by the Stripe webhook handler
// or a superadmin override, never by the subscriber themselves.
type Subscription struct {
	Plan   Plan   `json:"plan" firestore:"plan"`
	Status string `json:"status,omitempty" firestore:"status,omitempty"`
	// RenewalAt arrives as time.Time on the server-side write path and as raw
	// epoch seconds (or a {seconds: N} map) on the cached client read path.
	// core.ProjectSubscription normalizes both forms.
	RenewalAt            interface{} `json:"renewalAt,omitempty" firestore:"renewalAt,omitempty"`
	CancelAtPeriodEnd    bool        `json:"cancelAtPeriodEnd,omitempty" firestore:"cancelAtPeriodEnd,omitempty"`
	StripeCustomerID     string      `json:"stripeCustomerId,omitempty" firestore:"stripeCustomerId,omitempty"`
	StripeSubscriptionID string      `json:"stripeSubscriptionId,omitempty" firestore:"stripeSubscriptionId,omitempty"`
	StripePriceID        string      `json:"stripePriceId,omitempty" firestore:"stripePriceId,omitempty"`
}

// User represents a user in the system.
type User struct {
	ID           string       `json:"id" firestore:"-"` // Firebase Auth UID, doubles as the document ID
	Email        string       `json:"email" firestore:"email"`
	DisplayName  string       `json:"displayName,omitempty" firestore:"displayName,omitempty"`
	PhotoURL     string       `json:"photoURL,omitempty" firestore:"photoURL,omitempty"`
	Role         string       `json:"role" firestore:"role"`
	Blocked      bool         `json:"blocked" firestore:"blocked"`
	Subscription Subscription `json:"subscription" firestore:"subscription"`
	CreatedAt    time.Time    `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	UpdatedAt    time.Time    `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}
