package services

import (
	"Bookstore/audit"
	"Bookstore/models"
	"Bookstore/payment"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PaymentService bridges orders and the payment provider.
type PaymentService struct {
	db             *gorm.DB
	provider       payment.Provider
	recorder       audit.Recorder
	publishableKey string
	currency       string
	logger         *zap.Logger
	now            func() time.Time
}

func NewPaymentService(db *gorm.DB, provider payment.Provider, recorder audit.Recorder, publishableKey, currency string, logger *zap.Logger) *PaymentService {
	if recorder == nil {
		recorder = audit.NopRecorder{}
	}
	return &PaymentService{
		db:             db,
		provider:       provider,
		recorder:       recorder,
		publishableKey: publishableKey,
		currency:       currency,
		logger:         logger,
		now:            time.Now,
	}
}

type IntentInput struct {
	OrderID          uint
	Amount           int64
	Currency         string
	Description      string
	Address          string
	OrderDescription string
}

// PaymentResult is what the client sees after every payment call.
type PaymentResult struct {
	ClientSecret    string
	PaymentIntentID string
	Status          string
	Amount          int64
	Currency        string
	Message         string
	Success         bool
}

func (s *PaymentService) PublishableKey() string {
	return s.publishableKey
}

// CreatePaymentIntent stores the shipping details on the caller's order and opens a provider intent.
func (s *PaymentService) CreatePaymentIntent(ctx context.Context, userID uint, in IntentInput) (*PaymentResult, error) {
	if in.Amount <= 0 {
		return nil, fmt.Errorf("%w: Invalid payment amount", ErrValidation)
	}

	order, err := s.findOrder(ctx, userID, in.OrderID)
	if err != nil {
		return nil, err
	}
	if order != nil {
		updates := map[string]interface{}{}
		if in.Address != "" {
			updates["address"] = in.Address
		}
		if in.OrderDescription != "" {
			updates["description"] = in.OrderDescription
		}
		if len(updates) > 0 {
			if err := s.db.WithContext(ctx).Model(order).Updates(updates).Error; err != nil {
				return nil, fmt.Errorf("update order details: %w", err)
			}
		}
	}

	currency := strings.ToLower(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = s.currency
	}
	intent, err := s.provider.CreateIntent(ctx, payment.IntentRequest{
		Amount:      in.Amount * 100,
		Currency:    currency,
		Description: in.Description,
		Metadata: map[string]string{
			"userId":  strconv.FormatUint(uint64(userID), 10),
			"orderId": strconv.FormatUint(uint64(in.OrderID), 10),
		},
	})
	if err != nil {
		s.logger.Error("create payment intent", zap.Uint("orderID", in.OrderID), zap.Error(err))
		return nil, &PaymentError{Message: "Payment processing error: " + err.Error()}
	}

	s.record(ctx, audit.Entry{
		Action:          audit.ActionIntentCreated,
		OrderID:         in.OrderID,
		UserID:          userID,
		PaymentIntentID: intent.ID,
		Status:          intent.Status,
		Data:            map[string]string{"amount": strconv.FormatInt(in.Amount, 10), "currency": currency},
	})
	s.logger.Info("payment intent created",
		zap.Uint("userID", userID),
		zap.Uint("orderID", in.OrderID),
		zap.String("paymentIntentID", intent.ID),
	)

	return &PaymentResult{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
		Status:          intent.Status,
		Amount:          in.Amount,
		Currency:        currency,
		Message:         "Payment intent created successfully",
		Success:         true,
	}, nil
}

// ConfirmPayment submits the order once the provider reports the intent succeeded.
func (s *PaymentService) ConfirmPayment(ctx context.Context, userID uint, intentID string, orderID uint) (*PaymentResult, error) {
	if strings.TrimSpace(intentID) == "" {
		return nil, fmt.Errorf("%w: paymentIntentId is required", ErrValidation)
	}

	intent, err := s.provider.GetIntent(ctx, intentID)
	if err != nil {
		s.logger.Error("retrieve payment intent", zap.String("paymentIntentID", intentID), zap.Error(err))
		return nil, &PaymentError{Message: "Error confirming payment: " + err.Error()}
	}

	entry := audit.Entry{
		OrderID:         orderID,
		UserID:          userID,
		PaymentIntentID: intent.ID,
		Status:          intent.Status,
	}
	if intent.Status != payment.StatusSucceeded {
		return nil, s.reject(ctx, entry, "Payment not completed. Status: "+intent.Status)
	}

	if intent.Metadata["orderId"] != strconv.FormatUint(uint64(orderID), 10) {
		return nil, s.reject(ctx, entry, "Payment does not belong to this order")
	}

	order, err := s.findOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if order != nil {
		if intent.Amount != order.Price*100 {
			return nil, s.reject(ctx, entry, "Payment amount does not match the order total")
		}
		updates := map[string]interface{}{
			"status":       models.OrderStatusSubmitted,
			"payment_type": s.provider.Name(),
			"date":         s.now(),
		}
		if err := s.db.WithContext(ctx).Model(order).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("submit paid order: %w", err)
		}
	}

	entry.Action = audit.ActionPaymentConfirmed
	s.record(ctx, entry)
	s.logger.Info("payment confirmed",
		zap.Uint("userID", userID),
		zap.Uint("orderID", orderID),
		zap.String("paymentIntentID", intent.ID),
	)

	return &PaymentResult{
		PaymentIntentID: intent.ID,
		Status:          intent.Status,
		Message:         "Payment confirmed successfully",
		Success:         true,
	}, nil
}

// PaymentStatus reports the provider's view of an intent in major currency units.
func (s *PaymentService) PaymentStatus(ctx context.Context, intentID string) (*PaymentResult, error) {
	intent, err := s.provider.GetIntent(ctx, intentID)
	if err != nil {
		return nil, &PaymentError{Message: "Error retrieving payment status: " + err.Error(), Missing: true}
	}
	return &PaymentResult{
		PaymentIntentID: intent.ID,
		Status:          intent.Status,
		Amount:          intent.Amount / 100,
		Currency:        intent.Currency,
		Success:         true,
	}, nil
}

// findOrder returns the caller's order or nil when there is no such order.
func (s *PaymentService) findOrder(ctx context.Context, userID, orderID uint) (*models.Order, error) {
	if orderID == 0 {
		return nil, nil
	}
	var order models.Order
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", orderID, userID).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Warn("payment for unknown order", zap.Uint("userID", userID), zap.Uint("orderID", orderID))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	return &order, nil
}

func (s *PaymentService) record(ctx context.Context, entry audit.Entry) {
	if err := s.recorder.Record(ctx, entry); err != nil {
		s.logger.Warn("record payment audit entry", zap.String("action", entry.Action), zap.Error(err))
	}
}

// reject records the refused confirmation and returns the error shown to the client.
func (s *PaymentService) reject(ctx context.Context, entry audit.Entry, msg string) error {
	entry.Action = audit.ActionPaymentRejected
	entry.Message = msg
	s.record(ctx, entry)
	return &PaymentError{Status: entry.Status, Message: msg}
}
