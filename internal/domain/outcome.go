package domain

import "encoding/json"

// VerificationOutcome is the closed set of verdicts a verification payload
// can carry. The distinction between Declined and Pending is load-bearing:
// Pending is retried and eventually falls back to premium-status
// reconciliation, while Declined means the gateway actively rejected the
// payment and no amount of waiting will change it.
type VerificationOutcome string

const (
	OutcomeConfirmed VerificationOutcome = "confirmed"
	OutcomeDeclined  VerificationOutcome = "declined"
	OutcomePending   VerificationOutcome = "pending"
)

// verificationFields are the flags the backend sets on a completed verify
// command. Pointers distinguish "absent" from an explicit false.
type verificationFields struct {
	Captured           *bool `json:"captured,omitempty"`
	Verified           *bool `json:"verified,omitempty"`
	SubscriptionActive *bool `json:"subscription_active,omitempty"`
}

// ParseVerification classifies a completed verify payload once, at the
// boundary, so callers branch on three cases instead of raw fields.
//
// An explicit verified=false is a definitive rejection. Any truthy success
// flag confirms. Everything else (flags absent, captured=false with no
// verdict) means the webhook has not landed yet.
func ParseVerification(data json.RawMessage) VerificationOutcome {
	if len(data) == 0 {
		return OutcomePending
	}
	var fields verificationFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return OutcomePending
	}
	if fields.Verified != nil && !*fields.Verified {
		return OutcomeDeclined
	}
	if (fields.Captured != nil && *fields.Captured) ||
		(fields.Verified != nil && *fields.Verified) ||
		(fields.SubscriptionActive != nil && *fields.SubscriptionActive) {
		return OutcomeConfirmed
	}
	return OutcomePending
}
