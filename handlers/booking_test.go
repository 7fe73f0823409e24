package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"parcelio/models"
	"parcelio/services/booking"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubDraftService serves a single fixed draft; every other ID is unknown.
type stubDraftService struct {
	draft *models.BookingDraft
}

func (s *stubDraftService) get(draftID string) (*models.BookingDraft, error) {
	if s.draft == nil || s.draft.DraftID != draftID {
		return nil, booking.NewNotFoundError("booking draft not found or expired")
	}
	return s.draft, nil
}

func (s *stubDraftService) CreateDraft(ctx context.Context, quote models.BaselineQuote) (*models.BookingDraft, error) {
	return s.draft, nil
}

func (s *stubDraftService) GetDraft(ctx context.Context, draftID string) (*models.BookingDraft, error) {
	return s.get(draftID)
}

func (s *stubDraftService) UpdateSender(ctx context.Context, draftID string, sender models.Party) (*models.BookingDraft, error) {
	return s.get(draftID)
}

func (s *stubDraftService) UpdateRecipient(ctx context.Context, draftID string, recipient models.Party) (*models.BookingDraft, error) {
	return s.get(draftID)
}

func (s *stubDraftService) UpdatePackage(ctx context.Context, draftID string, items []models.ContentItem, boxes []models.PackageBox, flags *models.ShipmentFlags) (*models.BookingDraft, error) {
	return s.get(draftID)
}

func (s *stubDraftService) SetPaymentSelection(ctx context.Context, draftID string, method string, termsAccepted bool) (*models.BookingDraft, error) {
	return s.get(draftID)
}

func (s *stubDraftService) NextStep(ctx context.Context, draftID string) (*models.BookingDraft, error) {
	return s.get(draftID)
}

func (s *stubDraftService) PreviousStep(ctx context.Context, draftID string) (*models.BookingDraft, error) {
	return s.get(draftID)
}

func (s *stubDraftService) JumpToStep(ctx context.Context, draftID string, target int) (*models.BookingDraft, error) {
	return s.get(draftID)
}

func newStatusRouter(t *testing.T, drafts booking.DraftService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	saga := booking.NewCoordinator(nil, nil, nil, nil, zap.NewNop(), "INR", time.Second)
	h := NewBookingHandler(drafts, saga, zap.NewNop())

	router := gin.New()
	router.GET("/api/booking/draft/:draftID/status", h.Status)
	return router
}

func TestStatusDistinguishesUnknownDrafts(t *testing.T) {
	drafts := &stubDraftService{draft: &models.BookingDraft{DraftID: "d1"}}
	router := newStatusRouter(t, drafts)

	t.Run("unknown draft is a 404", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, err := http.NewRequest(http.MethodGet, "/api/booking/draft/missing/status", nil)
		require.NoError(t, err)

		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("known draft with no attempt reports idle", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, err := http.NewRequest(http.MethodGet, "/api/booking/draft/d1/status", nil)
		require.NoError(t, err)

		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"state":"idle"`)
	})
}
