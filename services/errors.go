package services

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrInvalidState       = errors.New("invalid state")
	ErrConflict           = errors.New("conflict")
	ErrPayment            = errors.New("payment failed")
)

// PaymentError carries the message shown to the client when a payment step fails.
type PaymentError struct {
	Status  string
	Message string
	// Missing marks a payment intent the provider could not find.
	Missing bool
}

func (e *PaymentError) Error() string {
	return e.Message
}

func (e *PaymentError) Is(target error) bool {
	if target == ErrPayment {
		return true
	}
	return e.Missing && target == ErrNotFound
}
