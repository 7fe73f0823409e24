package routes

import (
	"parcelio/handlers"

	"github.com/gin-gonic/gin"
)

// RegisterBookingRoutes registers all endpoints for the booking wizard and the
// payment/booking saga.
func RegisterBookingRoutes(r *gin.Engine, h *handlers.BookingHandler) {
	booking := r.Group("/api/booking")
	{
		booking.POST("/draft", h.CreateDraft)
		booking.GET("/draft/:draftID", h.GetDraft)

		// Wizard step data.
		booking.PUT("/draft/:draftID/sender", h.UpdateSender)
		booking.PUT("/draft/:draftID/recipient", h.UpdateRecipient)
		booking.PUT("/draft/:draftID/package", h.UpdatePackage)
		booking.PUT("/draft/:draftID/payment-selection", h.SetPaymentSelection)

		// Wizard navigation.
		booking.POST("/draft/:draftID/next", h.NextStep)
		booking.POST("/draft/:draftID/previous", h.PreviousStep)
		booking.POST("/draft/:draftID/jump", h.JumpToStep)

		// Payment/booking saga.
		booking.POST("/draft/:draftID/submit", h.Submit)
		booking.POST("/draft/:draftID/payment/callback", h.PaymentCallback)
		booking.POST("/draft/:draftID/cancel", h.CancelPayment)
		booking.GET("/draft/:draftID/status", h.Status)
	}
}
