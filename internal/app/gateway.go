package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/KIRUBAKARAN9840/fittbot-payflow/internal/domain"
)

// HeadlessGateway is a Gateway that approves every payment without user
// interaction, fabricating the callback fields a real checkout sheet would
// return. Used by the CLI against the stub backend and by integration tests;
// never by a production build, where the native SDK owns this boundary.
type HeadlessGateway struct{}

// Collect returns a synthetic signed callback for the session.
func (HeadlessGateway) Collect(_ context.Context, session *domain.CheckoutSession) (*domain.GatewayCallback, error) {
	if session == nil {
		return nil, fmt.Errorf("nil checkout session")
	}
	return &domain.GatewayCallback{
		GatewayOrderID:        session.GatewayOrderID,
		GatewaySubscriptionID: session.GatewaySubscriptionID,
		GatewayPaymentID:      "pay_" + uuid.NewString()[:18],
		GatewaySignature:      "sig_" + uuid.NewString()[:18],
	}, nil
}
