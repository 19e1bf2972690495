package payment

import "context"

// StatusSucceeded is the provider status of a completed charge.
const StatusSucceeded = "succeeded"

// IntentRequest describes a charge to start. Amount is in the smallest currency unit.
type IntentRequest struct {
	Amount      int64
	Currency    string
	Description string
	Metadata    map[string]string
}

// Intent is the provider's view of a payment intent.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
	Amount       int64
	Currency     string
	Metadata     map[string]string
}

// Provider is the external payment system.
type Provider interface {
	Name() string
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	GetIntent(ctx context.Context, id string) (*Intent, error)
}
