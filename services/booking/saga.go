package booking

import (
	"context"
	"sync"
	"time"

	"parcelio/models"
	"parcelio/services/payment"
	"parcelio/services/tasks"

	"go.uber.org/zap"
)

// SagaState is the lifecycle position of one booking attempt. Every UI
// affordance (disabled buttons, spinners) derives from this single state;
// there are no separate loading or processing flags.
type SagaState string

const (
	SagaIdle            SagaState = "idle"
	SagaValidating      SagaState = "validatingPreconditions"
	SagaCreatingOrder   SagaState = "creatingPaymentOrder"
	SagaAwaitingGateway SagaState = "awaitingGatewayResult"
	SagaVerifying       SagaState = "verifyingPayment"
	SagaCreatingBooking SagaState = "creatingBooking"
	SagaCompleted       SagaState = "completed"
)

// provisionalNotice accompanies a provisional completion as a non-blocking
// informational message.
const provisionalNotice = "Your payment was received and your booking is confirmed provisionally. We are finishing registration with the carrier and will update your tracking details shortly."

// saga is one booking attempt for one draft. The draft is frozen at submit
// time; edits after submission require a new draft.
type saga struct {
	draftID string
	state   SagaState
	draft   *models.BookingDraft
	session *payment.Session
	result  *models.BookingResult
	notice  string

	// expiresAt mirrors the draft TTL. Expired entries are evicted lazily so
	// abandoned and completed attempts do not accumulate.
	expiresAt time.Time
}

// Coordinator drives booking attempts: precondition checks, the payment
// session, the backend booking call, and the provisional fallback. Handlers
// are thin adapters over Submit, HandleGatewaySuccess, HandleGatewayFailure,
// Cancel and State.
type Coordinator struct {
	mu    sync.Mutex
	sagas map[string]*saga

	gateway     payment.Gateway
	backend     BookingAPI
	drafts      DraftStore
	reconciler  tasks.Enqueuer
	logger      *zap.Logger
	currency    string
	callTimeout time.Duration
	now         func() time.Time
}

func NewCoordinator(gateway payment.Gateway, backend BookingAPI, drafts DraftStore, reconciler tasks.Enqueuer, logger *zap.Logger, currency string, callTimeout time.Duration) *Coordinator {
	return &Coordinator{
		sagas:       make(map[string]*saga),
		gateway:     gateway,
		backend:     backend,
		drafts:      drafts,
		reconciler:  reconciler,
		logger:      logger,
		currency:    currency,
		callTimeout: callTimeout,
		now:         time.Now,
	}
}

// Submit starts a booking attempt for a draft: validates preconditions,
// creates the payment order, and returns the checkout payload for the widget.
// A second submit while an attempt is in flight is rejected so a double click
// can never create two orders, and a draft that has already produced a booking
// can never be charged again.
func (c *Coordinator) Submit(ctx context.Context, draftID string) (*models.CheckoutPayload, error) {
	c.mu.Lock()
	if existing, ok := c.lookup(draftID); ok {
		c.mu.Unlock()
		if existing.state == SagaCompleted {
			return nil, NewConflictError("this draft has already been booked")
		}
		return nil, NewConflictError("a booking for this draft is already in progress")
	}
	inst := &saga{draftID: draftID, state: SagaValidating, expiresAt: c.now().Add(draftTTL)}
	c.sagas[draftID] = inst
	c.mu.Unlock()

	draft, err := c.drafts.Get(ctx, draftID)
	if err != nil {
		c.remove(draftID)
		return nil, err
	}
	if draft.Step == StepConfirmation {
		// The completed saga entry may already have expired; the persisted
		// wizard position still proves a booking was made from this draft.
		c.remove(draftID)
		return nil, NewConflictError("this draft has already been booked")
	}

	if err := c.checkPreconditions(draft); err != nil {
		c.remove(draftID)
		return nil, err
	}
	inst.draft = draft

	mode := models.PaymentMode(draft.PaymentMethod)
	currency := draft.Quote.Currency
	if currency == "" {
		currency = c.currency
	}
	session := payment.NewSession(c.gateway, c.logger, mode, draft.Pricing.UpdatedCost, currency)

	c.setState(inst, SagaCreatingOrder)
	orderCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	err = session.CreateOrder(orderCtx, map[string]string{
		"draftId": draft.DraftID,
		"quoteId": draft.Quote.QuoteID,
	})
	cancel()
	if err != nil {
		c.logger.Error("payment order creation failed", zap.String("draftId", draftID), zap.Error(err))
		c.remove(draftID)
		return nil, NewPaymentInitError("could not initiate payment, please try again")
	}

	payload, err := session.Checkout(models.CheckoutPrefill{
		Name:  draft.Sender.Name,
		Email: draft.Sender.Email,
		Phone: draft.Sender.Phone,
	})
	if err != nil {
		c.remove(draftID)
		return nil, NewPaymentInitError("could not initiate payment, please try again")
	}

	inst.session = session
	c.setState(inst, SagaAwaitingGateway)
	c.logger.Info("awaiting gateway result",
		zap.String("draftId", draftID),
		zap.String("orderId", payload.OrderID),
		zap.Int64("amountMinorUnits", payload.AmountMinorUnits),
	)
	return payload, nil
}

// checkPreconditions enforces the submit gate. Wizard gating has already
// validated steps 1-3; the terms and payment method checks are repeated here
// because they are the preconditions for moving money.
func (c *Coordinator) checkPreconditions(draft *models.BookingDraft) error {
	if !draft.TermsAccepted {
		return NewValidationError("terms not accepted")
	}
	mode := models.PaymentMode(draft.PaymentMethod)
	if mode != models.PaymentModeFull && mode != models.PaymentModePartial {
		return NewValidationError("no payment method selected")
	}
	for step := StepSender; step <= StepPackage; step++ {
		if err := ValidateStep(draft, step); err != nil {
			return err
		}
	}
	return nil
}

// HandleGatewaySuccess resumes a suspended attempt with the widget's success
// report: verifies the payment, creates the booking, and falls back to a
// provisional result when the backend fails after money has moved.
func (c *Coordinator) HandleGatewaySuccess(ctx context.Context, draftID string, result models.GatewayResult) (*models.BookingResult, string, error) {
	inst, err := c.transition(draftID, SagaAwaitingGateway, SagaVerifying)
	if err != nil {
		return nil, "", err
	}

	if err := inst.session.RecordGatewayResult(result); err != nil {
		c.remove(draftID)
		return nil, "", NewPaymentFailedError("payment failed: unexpected gateway result")
	}

	if err := inst.session.Verify(); err != nil {
		if result.GatewayPaymentID == "" {
			inst.session.Fail("verification failed without a payment id")
			c.remove(draftID)
			return nil, "", NewVerificationError("payment verification failed")
		}
		// Trust-after-charge: a gateway payment id exists, so the charge is
		// assumed real and verification stays advisory. Security-relevant
		// policy; always log it.
		c.logger.Warn("payment verification failed but gateway payment id present; trusting payment",
			zap.String("draftId", draftID),
			zap.String("orderId", result.GatewayOrderID),
			zap.String("paymentId", result.GatewayPaymentID),
			zap.Error(err),
		)
		inst.session.MarkSucceeded()
	}

	return c.createBooking(ctx, inst)
}

func (c *Coordinator) createBooking(ctx context.Context, inst *saga) (*models.BookingResult, string, error) {
	paymentID := inst.session.GatewayPaymentID
	if paymentID == "" {
		// Unreachable through the state machine, guarded defensively.
		inst.session.Fail("no payment id recorded")
		c.remove(inst.draftID)
		return nil, "", NewBookingFailedError("no payment recorded for this attempt")
	}

	c.setState(inst, SagaCreatingBooking)
	req := BuildBookingRequest(inst.draft, paymentID, inst.session.ChargeAmount)

	bookingCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	result, err := c.backend.CreateBooking(bookingCtx, req)
	cancel()

	notice := ""
	if err != nil {
		// Money has already moved; never strand the user on a failure screen.
		c.logger.Error("backend booking creation failed after successful payment; synthesizing provisional result",
			zap.String("draftId", inst.draftID),
			zap.String("paymentId", paymentID),
			zap.Error(err),
		)
		result = SynthesizeProvisional(inst.draft, paymentID, inst.session.ChargeAmount, inst.session.Currency)
		notice = provisionalNotice
		c.announceReconciliation(inst, result, req)
	}

	inst.result = result
	inst.notice = notice
	c.setState(inst, SagaCompleted)

	inst.draft.Step = StepConfirmation
	inst.draft.UpdatedAt = time.Now()
	if err := c.drafts.Save(ctx, inst.draft); err != nil {
		c.logger.Warn("failed to persist completed draft state", zap.String("draftId", inst.draftID), zap.Error(err))
	}

	c.logger.Info("booking completed",
		zap.String("draftId", inst.draftID),
		zap.String("bookingId", result.ID),
		zap.Bool("provisional", result.Provisional),
	)
	return result, notice, nil
}

func (c *Coordinator) announceReconciliation(inst *saga, result *models.BookingResult, req models.BookingRequest) {
	if c.reconciler == nil {
		return
	}
	payload := models.ReconcilePayload{
		ProvisionalID:    result.ID,
		DraftID:          inst.draftID,
		GatewayPaymentID: result.PaymentInfo.TransactionID,
		Request:          req,
		CreatedAt:        time.Now(),
	}
	if err := c.reconciler.EnqueueReconcile(payload); err != nil {
		c.logger.Warn("failed to announce reconciliation", zap.String("provisionalId", result.ID), zap.Error(err))
	}
}

// HandleGatewayFailure records a widget failure. No booking is created and no
// payment success is assumed.
func (c *Coordinator) HandleGatewayFailure(draftID, reason string) error {
	inst, err := c.transition(draftID, SagaAwaitingGateway, SagaAwaitingGateway)
	if err != nil {
		return err
	}

	inst.session.Fail(reason)
	c.remove(draftID)
	if reason == "" {
		return NewPaymentFailedError("payment failed")
	}
	return NewPaymentFailedError("payment failed: " + reason)
}

// Cancel records the user dismissing the payment widget. The attempt is
// discarded; a new submit starts a fresh session and order.
func (c *Coordinator) Cancel(draftID string) error {
	inst, err := c.transition(draftID, SagaAwaitingGateway, SagaAwaitingGateway)
	if err != nil {
		return err
	}

	if err := inst.session.Cancel(); err != nil {
		return NewPaymentFailedError("payment attempt can no longer be cancelled")
	}
	c.remove(draftID)
	c.logger.Info("payment cancelled by user", zap.String("draftId", draftID))
	return nil
}

// State reports the attempt state for a draft, plus the result and notice once
// completed. Drafts with no attempt, or whose attempt has expired, report idle.
func (c *Coordinator) State(draftID string) (SagaState, *models.BookingResult, string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	inst, ok := c.lookup(draftID)
	if !ok {
		return SagaIdle, nil, ""
	}
	return inst.state, inst.result, inst.notice
}

// lookup returns the live saga for a draft, evicting it first when it has
// outlived the draft TTL. Callers must hold c.mu.
func (c *Coordinator) lookup(draftID string) (*saga, bool) {
	inst, ok := c.sagas[draftID]
	if !ok {
		return nil, false
	}
	if c.now().After(inst.expiresAt) {
		delete(c.sagas, draftID)
		return nil, false
	}
	return inst, true
}

// transition atomically checks the current state and moves to the next one,
// so concurrent callbacks for the same draft cannot both proceed.
func (c *Coordinator) transition(draftID string, from, to SagaState) (*saga, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	inst, ok := c.lookup(draftID)
	if !ok {
		return nil, NewNotFoundError("no booking attempt is in progress for this draft")
	}
	if inst.state != from {
		return nil, NewConflictError("the booking attempt is not awaiting a payment result")
	}
	inst.state = to
	inst.expiresAt = c.now().Add(draftTTL)
	return inst, nil
}

func (c *Coordinator) setState(inst *saga, state SagaState) {
	c.mu.Lock()
	inst.state = state
	inst.expiresAt = c.now().Add(draftTTL)
	c.mu.Unlock()
}

func (c *Coordinator) remove(draftID string) {
	c.mu.Lock()
	delete(c.sagas, draftID)
	c.mu.Unlock()
}
