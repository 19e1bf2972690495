package audit

import (
	"context"
	"time"
)

// Entry is one payment event worth keeping after the request is gone.
type Entry struct {
	Action          string            `bson:"action"`
	OrderID         uint              `bson:"order_id"`
	UserID          uint              `bson:"user_id"`
	PaymentIntentID string            `bson:"payment_intent_id"`
	Status          string            `bson:"status"`
	Message         string            `bson:"message,omitempty"`
	Data            map[string]string `bson:"data,omitempty"`
	CreatedAt       time.Time         `bson:"created_at"`
}

const (
	ActionIntentCreated    = "payment_intent_created"
	ActionPaymentConfirmed = "payment_confirmed"
	ActionPaymentRejected  = "payment_rejected"
)

type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// NopRecorder drops every entry.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, Entry) error { return nil }
