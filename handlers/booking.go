package handlers

import (
	"errors"
	"net/http"

	"parcelio/models"
	"parcelio/services/booking"
	"parcelio/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BookingHandler adapts HTTP requests onto the draft service and the saga
// coordinator. All orchestration decisions live in the services; handlers only
// translate.
type BookingHandler struct {
	Drafts booking.DraftService
	Saga   *booking.Coordinator
	Logger *zap.Logger
}

func NewBookingHandler(drafts booking.DraftService, saga *booking.Coordinator, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{Drafts: drafts, Saga: saga, Logger: logger}
}

// statusFor maps a booking error code to an HTTP status.
func statusFor(err error) int {
	switch booking.CodeOf(err) {
	case booking.CodeValidation:
		return http.StatusUnprocessableEntity
	case booking.CodeNotFound:
		return http.StatusNotFound
	case booking.CodeConflict:
		return http.StatusConflict
	case booking.CodePaymentInit, booking.CodePaymentFailed, booking.CodeVerification, booking.CodeBooking:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *BookingHandler) fail(c *gin.Context, err error) {
	message := err.Error()
	var be *booking.BookingError
	if errors.As(err, &be) {
		message = be.Message
	}
	utils.JSONError(c, statusFor(err), message, "")
}

func draftResponse(draft *models.BookingDraft) gin.H {
	return gin.H{
		"draft":   draft,
		"pricing": draft.Pricing,
		"step":    draft.Step,
	}
}

// CreateDraft starts a booking draft from a selected carrier quote.
func (h *BookingHandler) CreateDraft(c *gin.Context) {
	var input struct {
		Quote models.BaselineQuote `json:"quote"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	draft, err := h.Drafts.CreateDraft(c.Request.Context(), input.Quote)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, draftResponse(draft))
}

func (h *BookingHandler) GetDraft(c *gin.Context) {
	draft, err := h.Drafts.GetDraft(c.Request.Context(), c.Param("draftID"))
	if err != nil {
		h.fail(c, err)
		return
	}

	state, result, notice := h.Saga.State(draft.DraftID)
	c.JSON(http.StatusOK, gin.H{
		"draft":     draft,
		"pricing":   draft.Pricing,
		"step":      draft.Step,
		"sagaState": state,
		"result":    result,
		"notice":    notice,
	})
}

func (h *BookingHandler) UpdateSender(c *gin.Context) {
	var input models.Party
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	draft, err := h.Drafts.UpdateSender(c.Request.Context(), c.Param("draftID"), input)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, draftResponse(draft))
}

func (h *BookingHandler) UpdateRecipient(c *gin.Context) {
	var input models.Party
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	draft, err := h.Drafts.UpdateRecipient(c.Request.Context(), c.Param("draftID"), input)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, draftResponse(draft))
}

// UpdatePackage replaces content items, boxes and flags; pricing is
// recomputed before the response is written.
func (h *BookingHandler) UpdatePackage(c *gin.Context) {
	var input struct {
		ContentItems []models.ContentItem  `json:"contentItems"`
		PackageBoxes []models.PackageBox   `json:"packageBoxes"`
		Flags        *models.ShipmentFlags `json:"flags"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	draft, err := h.Drafts.UpdatePackage(c.Request.Context(), c.Param("draftID"), input.ContentItems, input.PackageBoxes, input.Flags)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, draftResponse(draft))
}

func (h *BookingHandler) SetPaymentSelection(c *gin.Context) {
	var input struct {
		PaymentMethod string `json:"paymentMethod"`
		TermsAccepted bool   `json:"termsAccepted"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	draft, err := h.Drafts.SetPaymentSelection(c.Request.Context(), c.Param("draftID"), input.PaymentMethod, input.TermsAccepted)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, draftResponse(draft))
}

func (h *BookingHandler) NextStep(c *gin.Context) {
	draft, err := h.Drafts.NextStep(c.Request.Context(), c.Param("draftID"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, draftResponse(draft))
}

func (h *BookingHandler) PreviousStep(c *gin.Context) {
	draft, err := h.Drafts.PreviousStep(c.Request.Context(), c.Param("draftID"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, draftResponse(draft))
}

func (h *BookingHandler) JumpToStep(c *gin.Context) {
	var input struct {
		Step int `json:"step"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	draft, err := h.Drafts.JumpToStep(c.Request.Context(), c.Param("draftID"), input.Step)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, draftResponse(draft))
}

// Submit starts the payment/booking saga and returns the checkout payload the
// client needs to open the payment widget.
func (h *BookingHandler) Submit(c *gin.Context) {
	payload, err := h.Saga.Submit(c.Request.Context(), c.Param("draftID"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"checkout": payload})
}

// PaymentCallback delivers the widget outcome back into the saga.
func (h *BookingHandler) PaymentCallback(c *gin.Context) {
	var input struct {
		Status string               `json:"status" binding:"required,oneof=success failed"`
		Reason string               `json:"reason"`
		Result models.GatewayResult `json:"result"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	draftID := c.Param("draftID")
	if input.Status == "failed" {
		err := h.Saga.HandleGatewayFailure(draftID, input.Reason)
		h.fail(c, err)
		return
	}

	result, notice, err := h.Saga.HandleGatewaySuccess(c.Request.Context(), draftID, input.Result)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"booking": result,
		"notice":  notice,
	})
}

// CancelPayment records the user dismissing the payment widget.
func (h *BookingHandler) CancelPayment(c *gin.Context) {
	if err := h.Saga.Cancel(c.Param("draftID")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "payment cancelled"})
}

// Status reports the saga state and, once completed, the booking result. An
// unknown or expired draft is a 404; a known draft with no attempt is idle.
func (h *BookingHandler) Status(c *gin.Context) {
	draftID := c.Param("draftID")
	if _, err := h.Drafts.GetDraft(c.Request.Context(), draftID); err != nil {
		h.fail(c, err)
		return
	}

	state, result, notice := h.Saga.State(draftID)
	c.JSON(http.StatusOK, gin.H{
		"state":  state,
		"result": result,
		"notice": notice,
	})
}

// Health reports dependency status.
func Health(c *gin.Context) {
	status := utils.GetHealthStatus()
	code := http.StatusOK
	if !status.Redis {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}
