package booking

import (
	"errors"
	"fmt"
)

// ErrorCode classifies booking failures for the HTTP layer.
type ErrorCode string

const (
	CodeValidation       ErrorCode = "validationError"
	CodeNotFound         ErrorCode = "notFound"
	CodeConflict         ErrorCode = "bookingInProgress"
	CodePaymentInit      ErrorCode = "paymentInitError"
	CodePaymentFailed    ErrorCode = "paymentFailed"
	CodePaymentCancelled ErrorCode = "paymentCancelled"
	CodeVerification     ErrorCode = "verificationError"
	CodeBooking          ErrorCode = "bookingError"
)

// BookingError carries a stable code alongside a user-facing message.
type BookingError struct {
	Code    ErrorCode
	Message string
}

func (e *BookingError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewValidationError(msg string) error {
	return &BookingError{Code: CodeValidation, Message: msg}
}

func NewNotFoundError(msg string) error {
	return &BookingError{Code: CodeNotFound, Message: msg}
}

func NewConflictError(msg string) error {
	return &BookingError{Code: CodeConflict, Message: msg}
}

func NewPaymentInitError(msg string) error {
	return &BookingError{Code: CodePaymentInit, Message: msg}
}

func NewPaymentFailedError(msg string) error {
	return &BookingError{Code: CodePaymentFailed, Message: msg}
}

func NewVerificationError(msg string) error {
	return &BookingError{Code: CodeVerification, Message: msg}
}

func NewBookingFailedError(msg string) error {
	return &BookingError{Code: CodeBooking, Message: msg}
}

// CodeOf extracts the booking error code, or "" for foreign errors.
func CodeOf(err error) ErrorCode {
	var be *BookingError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}
