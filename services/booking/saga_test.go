package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"parcelio/models"
	"parcelio/services/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memDraftStore struct {
	mu     sync.Mutex
	drafts map[string]*models.BookingDraft
}

func newMemDraftStore() *memDraftStore {
	return &memDraftStore{drafts: make(map[string]*models.BookingDraft)}
}

func (s *memDraftStore) Save(ctx context.Context, draft *models.BookingDraft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[draft.DraftID] = draft
	return nil
}

func (s *memDraftStore) Get(ctx context.Context, draftID string) (*models.BookingDraft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	draft, ok := s.drafts[draftID]
	if !ok {
		return nil, NewNotFoundError("booking draft not found or expired")
	}
	return draft, nil
}

func (s *memDraftStore) Delete(ctx context.Context, draftID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, draftID)
	return nil
}

type countingGateway struct {
	mu        sync.Mutex
	receipts  []string
	orderErr  error
	verifyErr error
}

func (g *countingGateway) CreateOrder(ctx context.Context, amountMinorUnits int64, currency, receipt string, notes map[string]string) (*models.PaymentOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.orderErr != nil {
		return nil, g.orderErr
	}
	g.receipts = append(g.receipts, receipt)
	return &models.PaymentOrder{
		OrderID:          "order_1",
		AmountMinorUnits: amountMinorUnits,
		Currency:         currency,
		Receipt:          receipt,
	}, nil
}

func (g *countingGateway) VerifySignature(result models.GatewayResult) error {
	return g.verifyErr
}

func (g *countingGateway) KeyID() string { return "key_test" }

func (g *countingGateway) orderCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.receipts)
}

type fakeBookingAPI struct {
	err      error
	requests []models.BookingRequest
}

func (a *fakeBookingAPI) CreateBooking(ctx context.Context, req models.BookingRequest) (*models.BookingResult, error) {
	a.requests = append(a.requests, req)
	if a.err != nil {
		return nil, a.err
	}
	return &models.BookingResult{
		ID:             "bk_100",
		ShipmentNumber: "SHP100",
		TrackingNumber: "AWB100",
		CarrierName:    req.CarrierName,
		ServiceType:    req.ServiceType,
		Status:         "booked",
		PaymentInfo: models.PaymentInfo{
			Method:        req.PaymentMethod,
			TransactionID: req.PaymentID,
			AmountPaid:    req.ActualPaymentAmount,
		},
		CreatedAt: time.Now(),
	}, nil
}

type fakeEnqueuer struct {
	payloads []models.ReconcilePayload
}

func (e *fakeEnqueuer) EnqueueReconcile(payload models.ReconcilePayload) error {
	e.payloads = append(e.payloads, payload)
	return nil
}

func newTestCoordinator(gw payment.Gateway, backend BookingAPI, store DraftStore, enq *fakeEnqueuer) *Coordinator {
	return NewCoordinator(gw, backend, store, enq, zap.NewNop(), "INR", 5*time.Second)
}

func submittableDraft(t *testing.T, store *memDraftStore, method models.PaymentMode) *models.BookingDraft {
	t.Helper()
	d := validDraft()
	d.DraftID = "draft-" + string(method)
	d.PaymentMethod = string(method)
	d.Step = StepPayment
	require.NoError(t, store.Save(context.Background(), d))
	return d
}

func successResult() models.GatewayResult {
	return models.GatewayResult{
		GatewayOrderID:   "order_1",
		GatewayPaymentID: "pay_123",
		GatewaySignature: "sig_ok",
	}
}

func TestSagaHappyPath(t *testing.T) {
	store := newMemDraftStore()
	gw := &countingGateway{}
	backend := &fakeBookingAPI{}
	enq := &fakeEnqueuer{}
	c := newTestCoordinator(gw, backend, store, enq)
	d := submittableDraft(t, store, models.PaymentModePartial)

	payload, err := c.Submit(context.Background(), d.DraftID)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), payload.AmountMinorUnits, "partial mode charges 10% of 1000 in minor units")
	assert.Equal(t, "key_test", payload.KeyID)
	assert.Equal(t, d.Sender.Name, payload.Prefill.Name)

	state, _, _ := c.State(d.DraftID)
	assert.Equal(t, SagaAwaitingGateway, state)

	result, notice, err := c.HandleGatewaySuccess(context.Background(), d.DraftID, successResult())
	require.NoError(t, err)
	assert.Empty(t, notice)
	assert.False(t, result.Provisional)
	assert.Equal(t, "bk_100", result.ID)

	state, got, _ := c.State(d.DraftID)
	assert.Equal(t, SagaCompleted, state)
	assert.Equal(t, result, got)

	// The booking request carries the deposit as the actual payment and the
	// full updated cost as the final cost.
	require.Len(t, backend.requests, 1)
	req := backend.requests[0]
	assert.Equal(t, 100.0, req.ActualPaymentAmount)
	assert.Equal(t, 1000.0, req.FinalCost)
	assert.Equal(t, "pay_123", req.PaymentID)

	// Completion advances the stored wizard to the confirmation step.
	saved, err := store.Get(context.Background(), d.DraftID)
	require.NoError(t, err)
	assert.Equal(t, StepConfirmation, saved.Step)

	// Nothing to reconcile on the confirmed path.
	assert.Empty(t, enq.payloads)
}

func TestSagaDoubleSubmitGuard(t *testing.T) {
	store := newMemDraftStore()
	gw := &countingGateway{}
	c := newTestCoordinator(gw, &fakeBookingAPI{}, store, &fakeEnqueuer{})
	d := submittableDraft(t, store, models.PaymentModeFull)

	_, err := c.Submit(context.Background(), d.DraftID)
	require.NoError(t, err)

	_, err = c.Submit(context.Background(), d.DraftID)
	require.Error(t, err)
	assert.Equal(t, CodeConflict, CodeOf(err))
	assert.Contains(t, err.Error(), "already in progress")
	assert.Equal(t, 1, gw.orderCount(), "the second submit must not create another order")
}

func TestSagaRejectsResubmitAfterCompletion(t *testing.T) {
	store := newMemDraftStore()
	gw := &countingGateway{}
	c := newTestCoordinator(gw, &fakeBookingAPI{}, store, &fakeEnqueuer{})
	d := submittableDraft(t, store, models.PaymentModeFull)

	_, err := c.Submit(context.Background(), d.DraftID)
	require.NoError(t, err)
	result, _, err := c.HandleGatewaySuccess(context.Background(), d.DraftID, successResult())
	require.NoError(t, err)

	t.Run("second submit cannot create another order", func(t *testing.T) {
		_, err := c.Submit(context.Background(), d.DraftID)
		require.Error(t, err)
		assert.Equal(t, CodeConflict, CodeOf(err))
		assert.Contains(t, err.Error(), "already been booked")
		assert.Equal(t, 1, gw.orderCount())
	})

	t.Run("the completed result survives the rejected submit", func(t *testing.T) {
		state, got, _ := c.State(d.DraftID)
		assert.Equal(t, SagaCompleted, state)
		assert.Equal(t, result, got)
	})

	t.Run("a booked draft is rejected even without a saga entry", func(t *testing.T) {
		// Simulates a process restart: the registry is empty but the stored
		// draft sits at the confirmation step.
		fresh := newTestCoordinator(gw, &fakeBookingAPI{}, store, &fakeEnqueuer{})
		_, err := fresh.Submit(context.Background(), d.DraftID)
		require.Error(t, err)
		assert.Equal(t, CodeConflict, CodeOf(err))
		assert.Contains(t, err.Error(), "already been booked")
		assert.Equal(t, 1, gw.orderCount())
	})
}

func TestSagaRegistryExpiry(t *testing.T) {
	t.Run("abandoned attempt expires and frees the draft", func(t *testing.T) {
		store := newMemDraftStore()
		gw := &countingGateway{}
		c := newTestCoordinator(gw, &fakeBookingAPI{}, store, &fakeEnqueuer{})
		d := submittableDraft(t, store, models.PaymentModeFull)

		_, err := c.Submit(context.Background(), d.DraftID)
		require.NoError(t, err)

		c.now = func() time.Time { return time.Now().Add(draftTTL + time.Minute) }
		state, _, _ := c.State(d.DraftID)
		assert.Equal(t, SagaIdle, state)

		// The stale session no longer blocks a new attempt.
		_, err = c.Submit(context.Background(), d.DraftID)
		require.NoError(t, err)
		assert.Equal(t, 2, gw.orderCount())
	})

	t.Run("expired callback is a not-found, not a charge", func(t *testing.T) {
		store := newMemDraftStore()
		backend := &fakeBookingAPI{}
		c := newTestCoordinator(&countingGateway{}, backend, store, &fakeEnqueuer{})
		d := submittableDraft(t, store, models.PaymentModeFull)

		_, err := c.Submit(context.Background(), d.DraftID)
		require.NoError(t, err)

		c.now = func() time.Time { return time.Now().Add(draftTTL + time.Minute) }
		_, _, err = c.HandleGatewaySuccess(context.Background(), d.DraftID, successResult())
		require.Error(t, err)
		assert.Equal(t, CodeNotFound, CodeOf(err))
		assert.Empty(t, backend.requests)
	})

	t.Run("completed entry is evicted but the draft stays booked", func(t *testing.T) {
		store := newMemDraftStore()
		gw := &countingGateway{}
		c := newTestCoordinator(gw, &fakeBookingAPI{}, store, &fakeEnqueuer{})
		d := submittableDraft(t, store, models.PaymentModeFull)

		_, err := c.Submit(context.Background(), d.DraftID)
		require.NoError(t, err)
		_, _, err = c.HandleGatewaySuccess(context.Background(), d.DraftID, successResult())
		require.NoError(t, err)

		c.now = func() time.Time { return time.Now().Add(draftTTL + time.Minute) }
		state, _, _ := c.State(d.DraftID)
		assert.Equal(t, SagaIdle, state)

		// Eviction must not reopen the duplicate-charge window.
		_, err = c.Submit(context.Background(), d.DraftID)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already been booked")
		assert.Equal(t, 1, gw.orderCount())
	})
}

func TestSagaPreconditions(t *testing.T) {
	t.Run("terms not accepted", func(t *testing.T) {
		store := newMemDraftStore()
		c := newTestCoordinator(&countingGateway{}, &fakeBookingAPI{}, store, &fakeEnqueuer{})
		d := submittableDraft(t, store, models.PaymentModeFull)
		d.TermsAccepted = false

		_, err := c.Submit(context.Background(), d.DraftID)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "terms not accepted")

		// The failed attempt does not block a corrected retry.
		d.TermsAccepted = true
		_, err = c.Submit(context.Background(), d.DraftID)
		assert.NoError(t, err)
	})

	t.Run("no payment method", func(t *testing.T) {
		store := newMemDraftStore()
		c := newTestCoordinator(&countingGateway{}, &fakeBookingAPI{}, store, &fakeEnqueuer{})
		d := submittableDraft(t, store, models.PaymentModeFull)
		d.PaymentMethod = ""

		_, err := c.Submit(context.Background(), d.DraftID)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "payment method")
	})

	t.Run("incomplete package data never reaches the gateway", func(t *testing.T) {
		store := newMemDraftStore()
		gw := &countingGateway{}
		c := newTestCoordinator(gw, &fakeBookingAPI{}, store, &fakeEnqueuer{})
		d := submittableDraft(t, store, models.PaymentModeFull)
		d.ContentItems[0].DeclaredValuePerUnit = 0

		_, err := c.Submit(context.Background(), d.DraftID)
		require.Error(t, err)
		assert.Equal(t, CodeValidation, CodeOf(err))
		assert.Equal(t, 0, gw.orderCount())
	})
}

func TestSagaOrderCreationFailure(t *testing.T) {
	store := newMemDraftStore()
	gw := &countingGateway{orderErr: errors.New("gateway down")}
	c := newTestCoordinator(gw, &fakeBookingAPI{}, store, &fakeEnqueuer{})
	d := submittableDraft(t, store, models.PaymentModeFull)

	_, err := c.Submit(context.Background(), d.DraftID)
	require.Error(t, err)
	assert.Equal(t, CodePaymentInit, CodeOf(err))

	state, _, _ := c.State(d.DraftID)
	assert.Equal(t, SagaIdle, state, "a failed attempt returns the draft to idle")
}

func TestSagaGatewayFailureAndCancel(t *testing.T) {
	t.Run("gateway failure surfaces the reason and allows retry", func(t *testing.T) {
		store := newMemDraftStore()
		gw := &countingGateway{}
		c := newTestCoordinator(gw, &fakeBookingAPI{}, store, &fakeEnqueuer{})
		d := submittableDraft(t, store, models.PaymentModeFull)

		_, err := c.Submit(context.Background(), d.DraftID)
		require.NoError(t, err)

		err = c.HandleGatewayFailure(d.DraftID, "card declined")
		require.Error(t, err)
		assert.Equal(t, CodePaymentFailed, CodeOf(err))
		assert.Contains(t, err.Error(), "card declined")

		// A retry creates a brand-new order with a fresh receipt.
		_, err = c.Submit(context.Background(), d.DraftID)
		require.NoError(t, err)
		assert.Equal(t, 2, gw.orderCount())
		assert.NotEqual(t, gw.receipts[0], gw.receipts[1])
	})

	t.Run("user cancel returns to idle without error", func(t *testing.T) {
		store := newMemDraftStore()
		c := newTestCoordinator(&countingGateway{}, &fakeBookingAPI{}, store, &fakeEnqueuer{})
		d := submittableDraft(t, store, models.PaymentModeFull)

		_, err := c.Submit(context.Background(), d.DraftID)
		require.NoError(t, err)
		require.NoError(t, c.Cancel(d.DraftID))

		state, _, _ := c.State(d.DraftID)
		assert.Equal(t, SagaIdle, state)
	})

	t.Run("callback without a pending attempt is rejected", func(t *testing.T) {
		c := newTestCoordinator(&countingGateway{}, &fakeBookingAPI{}, newMemDraftStore(), &fakeEnqueuer{})
		_, _, err := c.HandleGatewaySuccess(context.Background(), "unknown", successResult())
		require.Error(t, err)
		assert.Equal(t, CodeNotFound, CodeOf(err))
	})
}

func TestSagaVerificationPolicy(t *testing.T) {
	t.Run("verification failure with a payment id is advisory", func(t *testing.T) {
		store := newMemDraftStore()
		gw := &countingGateway{verifyErr: errors.New("signature mismatch")}
		backend := &fakeBookingAPI{}
		c := newTestCoordinator(gw, backend, store, &fakeEnqueuer{})
		d := submittableDraft(t, store, models.PaymentModeFull)

		_, err := c.Submit(context.Background(), d.DraftID)
		require.NoError(t, err)

		result, _, err := c.HandleGatewaySuccess(context.Background(), d.DraftID, successResult())
		require.NoError(t, err, "payment is trusted once a gateway payment id exists")
		assert.False(t, result.Provisional)
		require.Len(t, backend.requests, 1)
	})

	t.Run("verification failure without a payment id is fatal", func(t *testing.T) {
		store := newMemDraftStore()
		gw := &countingGateway{verifyErr: errors.New("signature mismatch")}
		backend := &fakeBookingAPI{}
		c := newTestCoordinator(gw, backend, store, &fakeEnqueuer{})
		d := submittableDraft(t, store, models.PaymentModeFull)

		_, err := c.Submit(context.Background(), d.DraftID)
		require.NoError(t, err)

		res := successResult()
		res.GatewayPaymentID = ""
		_, _, err = c.HandleGatewaySuccess(context.Background(), d.DraftID, res)
		require.Error(t, err)
		assert.Equal(t, CodeVerification, CodeOf(err))
		assert.Empty(t, backend.requests, "no booking is created for an unverified payment without an id")

		state, _, _ := c.State(d.DraftID)
		assert.Equal(t, SagaIdle, state)
	})
}

func TestSagaProvisionalFallback(t *testing.T) {
	store := newMemDraftStore()
	gw := &countingGateway{}
	backend := &fakeBookingAPI{err: errors.New("backend unavailable")}
	enq := &fakeEnqueuer{}
	c := newTestCoordinator(gw, backend, store, enq)
	d := submittableDraft(t, store, models.PaymentModePartial)

	_, err := c.Submit(context.Background(), d.DraftID)
	require.NoError(t, err)

	result, notice, err := c.HandleGatewaySuccess(context.Background(), d.DraftID, successResult())
	require.NoError(t, err, "a backend failure after payment must not surface as an error")
	require.NotNil(t, result)

	assert.True(t, result.Provisional)
	assert.Equal(t, "booked", result.Status)
	assert.Equal(t, "pay_123", result.PaymentInfo.TransactionID)
	assert.Equal(t, 100.0, result.PaymentInfo.AmountPaid)
	assert.Contains(t, result.ID, "PROV-")
	assert.NotEmpty(t, result.TrackingNumber)
	assert.NotEmpty(t, notice)

	state, got, gotNotice := c.State(d.DraftID)
	assert.Equal(t, SagaCompleted, state)
	assert.Equal(t, result, got)
	assert.Equal(t, notice, gotNotice)

	// Reconciliation is announced, not performed.
	require.Len(t, enq.payloads, 1)
	assert.Equal(t, result.ID, enq.payloads[0].ProvisionalID)
	assert.Equal(t, "pay_123", enq.payloads[0].GatewayPaymentID)
	require.Len(t, backend.requests, 1, "no automatic retry of the backend call")

	// Completion still advances the wizard.
	saved, err := store.Get(context.Background(), d.DraftID)
	require.NoError(t, err)
	assert.Equal(t, StepConfirmation, saved.Step)
}
