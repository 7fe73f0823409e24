package payment

import (
	"context"
	"errors"
	"fmt"
	"math"

	"parcelio/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State is the lifecycle position of one payment attempt.
type State string

const (
	StateIdle            State = "idle"
	StateOrderCreated    State = "orderCreated"
	StateAwaitingGateway State = "awaitingGatewayResult"
	StateVerifying       State = "verifying"
	StateSucceeded       State = "succeeded"
	StateFailed          State = "failed"
	StateCancelled       State = "cancelled"
)

// ErrInvalidTransition is returned when a session method is called out of order.
var ErrInvalidTransition = errors.New("invalid payment session transition")

// partialDepositRate is the fraction collected up front in partial mode,
// remainder collected on delivery.
const partialDepositRate = 0.10

// Session tracks one payment attempt from order creation through the widget
// result. It is owned by exactly one booking attempt and never reused; a retry
// creates a fresh session with a fresh receipt reference.
type Session struct {
	SessionID        string
	Mode             models.PaymentMode
	State            State
	Order            *models.PaymentOrder
	ReceiptRef       string
	ChargeAmount     float64
	Currency         string
	GatewayPaymentID string
	FailureReason    string

	result  models.GatewayResult
	gateway Gateway
	logger  *zap.Logger
}

// AmountDue returns what a mode collects up front for a given updated cost.
func AmountDue(mode models.PaymentMode, updatedCost float64) float64 {
	if mode == models.PaymentModePartial {
		return updatedCost * partialDepositRate
	}
	return updatedCost
}

// ToMinorUnits converts a major-unit amount to gateway minor units.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// NewSession creates an idle session for one checkout attempt. The receipt
// reference is client-generated and unique so retried submissions never reuse
// a stale order.
func NewSession(gateway Gateway, logger *zap.Logger, mode models.PaymentMode, updatedCost float64, currency string) *Session {
	return &Session{
		SessionID:    uuid.New().String(),
		Mode:         mode,
		State:        StateIdle,
		ReceiptRef:   "rcpt_" + uuid.New().String(),
		ChargeAmount: AmountDue(mode, updatedCost),
		Currency:     currency,
		gateway:      gateway,
		logger:       logger,
	}
}

// CreateOrder registers the order with the gateway. idle → orderCreated.
func (s *Session) CreateOrder(ctx context.Context, notes map[string]string) error {
	if s.State != StateIdle {
		return fmt.Errorf("%w: cannot create order in state %s", ErrInvalidTransition, s.State)
	}

	order, err := s.gateway.CreateOrder(ctx, ToMinorUnits(s.ChargeAmount), s.Currency, s.ReceiptRef, notes)
	if err != nil {
		s.State = StateFailed
		s.FailureReason = err.Error()
		return err
	}

	s.Order = order
	s.State = StateOrderCreated
	return nil
}

// Checkout produces the widget payload. orderCreated → awaitingGatewayResult.
func (s *Session) Checkout(prefill models.CheckoutPrefill) (*models.CheckoutPayload, error) {
	if s.State != StateOrderCreated {
		return nil, fmt.Errorf("%w: cannot open checkout in state %s", ErrInvalidTransition, s.State)
	}

	s.State = StateAwaitingGateway
	return &models.CheckoutPayload{
		OrderID:          s.Order.OrderID,
		AmountMinorUnits: s.Order.AmountMinorUnits,
		Currency:         s.Order.Currency,
		KeyID:            s.gateway.KeyID(),
		Prefill:          prefill,
	}, nil
}

// RecordGatewayResult stores what the widget reported.
// awaitingGatewayResult → verifying.
func (s *Session) RecordGatewayResult(result models.GatewayResult) error {
	if s.State != StateAwaitingGateway {
		return fmt.Errorf("%w: no gateway result expected in state %s", ErrInvalidTransition, s.State)
	}

	s.result = result
	s.GatewayPaymentID = result.GatewayPaymentID
	s.State = StateVerifying
	return nil
}

// Verify checks the recorded result signature. verifying → succeeded on
// success; on failure the session stays in verifying so the caller can decide
// whether to trust the payment anyway.
func (s *Session) Verify() error {
	if s.State != StateVerifying {
		return fmt.Errorf("%w: cannot verify in state %s", ErrInvalidTransition, s.State)
	}

	if err := s.gateway.VerifySignature(s.result); err != nil {
		return err
	}
	s.State = StateSucceeded
	return nil
}

// MarkSucceeded forces verifying → succeeded. Used when verification failed
// but a gateway payment id exists and the payment is trusted anyway.
func (s *Session) MarkSucceeded() {
	if s.State == StateVerifying {
		s.State = StateSucceeded
	}
}

// Fail moves any non-terminal session to failed.
func (s *Session) Fail(reason string) {
	if s.Terminal() {
		return
	}
	s.State = StateFailed
	s.FailureReason = reason
	s.logger.Info("payment session failed", zap.String("sessionId", s.SessionID), zap.String("reason", reason))
}

// Cancel records a user dismissal of the widget.
// awaitingGatewayResult → cancelled.
func (s *Session) Cancel() error {
	if s.State != StateAwaitingGateway {
		return fmt.Errorf("%w: cannot cancel in state %s", ErrInvalidTransition, s.State)
	}
	s.State = StateCancelled
	return nil
}

// Terminal reports whether the session has reached a final state.
func (s *Session) Terminal() bool {
	return s.State == StateSucceeded || s.State == StateFailed || s.State == StateCancelled
}
