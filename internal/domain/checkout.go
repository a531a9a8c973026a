/**
 * @description
 * Flow definitions and checkout-related types. Each purchase flow (day pass,
 * subscription, subscription upgrade, Play Store reconciliation) is the same
 * protocol instantiated against a parallel endpoint family; the Flow struct
 * carries that configuration so the engine is written once.
 */
package domain

import (
	"encoding/json"
	"fmt"
)

// Flow describes one purchase flow's endpoint family and labels. Command
// paths are printf templates taking the request_id.
type Flow struct {
	Name                string
	Label               string
	CheckoutPath        string
	CheckoutCommandPath string
	VerifyPath          string
	VerifyCommandPath   string
	CheckoutKeyPrefix   string
	VerifyKeyPrefix     string
	// RequiresGateway is false for flows triggered by a native purchase
	// callback, where the money has already moved before we are involved.
	RequiresGateway bool
}

var (
	DayPassFlow = Flow{
		Name:                "dailypass",
		Label:               "Day pass",
		CheckoutPath:        "/pay/dailypass_v2/checkout",
		CheckoutCommandPath: "/pay/dailypass_v2/commands/%s",
		VerifyPath:          "/razorpay_payments_v2/verify",
		VerifyCommandPath:   "/razorpay_payments_v2/commands/%s",
		CheckoutKeyPrefix:   "dailypass_checkout",
		VerifyKeyPrefix:     "dailypass_verify",
		RequiresGateway:     true,
	}

	SubscriptionFlow = Flow{
		Name:                "subscription",
		Label:               "Subscription",
		CheckoutPath:        "/pay/subscription_v2/checkout",
		CheckoutCommandPath: "/pay/subscription_v2/commands/%s",
		VerifyPath:          "/razorpay_subscriptions_v2/verify",
		VerifyCommandPath:   "/razorpay_subscriptions_v2/commands/%s",
		CheckoutKeyPrefix:   "subscription_checkout",
		VerifyKeyPrefix:     "subscription_verify",
		RequiresGateway:     true,
	}

	SubscriptionUpgradeFlow = Flow{
		Name:                "subscription_upgrade",
		Label:               "Subscription upgrade",
		CheckoutPath:        "/pay/subscription_upgrade_v2/checkout",
		CheckoutCommandPath: "/pay/subscription_upgrade_v2/commands/%s",
		VerifyPath:          "/razorpay_subscriptions_v2/verify",
		VerifyCommandPath:   "/razorpay_subscriptions_v2/commands/%s",
		CheckoutKeyPrefix:   "subscription_upgrade_checkout",
		VerifyKeyPrefix:     "subscription_upgrade_verify",
		RequiresGateway:     true,
	}

	// PlayStoreFlow has no checkout step: the native billing SDK has already
	// collected payment, and the verify submission asks the backend to
	// reconcile the purchase with RevenueCat.
	PlayStoreFlow = Flow{
		Name:              "playstore",
		Label:             "Play Store purchase",
		VerifyPath:        "/revenuecat_v2/subscriptions/create",
		VerifyCommandPath: "/revenuecat_v2/commands/%s",
		VerifyKeyPrefix:   "revenuecat_create",
		RequiresGateway:   false,
	}
)

// DayPassRequest is the checkout body for a day-pass purchase. Amounts are
// never sent; the server is authoritative for pricing.
type DayPassRequest struct {
	GymID  string `json:"gym_id"`
	Date   string `json:"date"`
	Passes int    `json:"passes"`
}

// SubscriptionRequest is the checkout body for a subscription purchase.
type SubscriptionRequest struct {
	PlanID string `json:"plan_id"`
	GymID  string `json:"gym_id,omitempty"`
}

// UpgradeRequest is the checkout body for a subscription upgrade.
type UpgradeRequest struct {
	PlanID                string `json:"plan_id"`
	CurrentSubscriptionID string `json:"current_subscription_id"`
}

// PlayPurchaseRequest carries the native billing purchase the backend must
// reconcile against RevenueCat.
type PlayPurchaseRequest struct {
	ProductID     string `json:"product_id"`
	PurchaseToken string `json:"purchase_token"`
	AppUserID     string `json:"app_user_id"`
}

// CheckoutSession is the ephemeral client-side bundle returned by a completed
// checkout command: the backend's order id plus the gateway credentials the
// payment SDK needs. Every value here came from the server; the client only
// ever echoes them back.
type CheckoutSession struct {
	OrderID               string `json:"order_id"`
	GatewayOrderID        string `json:"razorpay_order_id,omitempty"`
	GatewaySubscriptionID string `json:"razorpay_subscription_id,omitempty"`
	GatewayKeyID          string `json:"razorpay_key_id,omitempty"`
	Amount                int64  `json:"amount"`
	Currency              string `json:"currency"`
}

// ParseCheckoutSession decodes a completed checkout command payload.
func ParseCheckoutSession(data json.RawMessage) (*CheckoutSession, error) {
	var session CheckoutSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to decode checkout payload: %w", err)
	}
	if session.OrderID == "" {
		return nil, fmt.Errorf("checkout payload missing order_id")
	}
	return &session, nil
}

// GatewayCallback holds the fields the payment SDK hands back after the user
// completes payment; they are forwarded verbatim to the verify endpoint.
type GatewayCallback struct {
	GatewayOrderID        string `json:"razorpay_order_id,omitempty"`
	GatewaySubscriptionID string `json:"razorpay_subscription_id,omitempty"`
	GatewayPaymentID      string `json:"razorpay_payment_id"`
	GatewaySignature      string `json:"razorpay_signature"`
}

// VerifyRequest is the verify submission body: the order reference plus the
// gateway callback fields.
type VerifyRequest struct {
	OrderID string `json:"order_id"`
	GatewayCallback
}

// ReceiptStatus is the terminal UI-facing state of one purchase attempt.
type ReceiptStatus string

const (
	// ReceiptConfirmed means the backend acknowledged the payment.
	ReceiptConfirmed ReceiptStatus = "confirmed"
	// ReceiptPending means verification could not confirm in time but the
	// payment was not declined; it may still complete server-side.
	ReceiptPending ReceiptStatus = "pending"
)

// Receipt is the terminal result of a purchase flow. OrderID is preserved on
// every path so the user can quote it to support.
type Receipt struct {
	Flow        string        `json:"flow"`
	OrderID     string        `json:"order_id"`
	Status      ReceiptStatus `json:"status"`
	Amount      int64         `json:"amount,omitempty"`
	Currency    string        `json:"currency,omitempty"`
	SupportNote string        `json:"support_note,omitempty"`
}
