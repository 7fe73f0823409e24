package booking

import (
	"fmt"

	"parcelio/models"
	"parcelio/utils"
)

// Wizard steps, in order. No forward movement past an unvalidated step.
const (
	StepSender       = 1
	StepRecipient    = 2
	StepPackage      = 3
	StepPayment      = 4
	StepConfirmation = 5
)

// ValidateStep runs the gate for one wizard step and returns a human-readable
// reason when it fails.
func ValidateStep(draft *models.BookingDraft, step int) error {
	switch step {
	case StepSender:
		if fieldErrors := utils.ValidateStruct(draft.Sender); fieldErrors != nil {
			return NewValidationError("sender details incomplete: " + utils.FormatValidationErrors(fieldErrors))
		}
	case StepRecipient:
		if fieldErrors := utils.ValidateStruct(draft.Recipient); fieldErrors != nil {
			return NewValidationError("recipient details incomplete: " + utils.FormatValidationErrors(fieldErrors))
		}
	case StepPackage:
		return validatePackageStep(draft)
	case StepPayment:
		if !draft.TermsAccepted {
			return NewValidationError("terms not accepted")
		}
		method := models.PaymentMode(draft.PaymentMethod)
		if method != models.PaymentModeFull && method != models.PaymentModePartial {
			return NewValidationError("no payment method selected")
		}
	case StepConfirmation:
		// Terminal step, no gate.
	default:
		return NewValidationError(fmt.Sprintf("unknown wizard step %d", step))
	}
	return nil
}

func validatePackageStep(draft *models.BookingDraft) error {
	if len(draft.ContentItems) == 0 {
		return NewValidationError("at least one content item is required")
	}
	if len(draft.PackageBoxes) == 0 {
		return NewValidationError("at least one package box is required")
	}
	for i, item := range draft.ContentItems {
		if item.Description == "" {
			return NewValidationError(fmt.Sprintf("content item %d is missing a description", i+1))
		}
		if item.Quantity < 1 {
			return NewValidationError(fmt.Sprintf("content item %d needs a quantity of at least 1", i+1))
		}
		if item.DeclaredValuePerUnit <= 0 {
			return NewValidationError(fmt.Sprintf("content item %d is missing a declared value", i+1))
		}
	}
	for i, box := range draft.PackageBoxes {
		if box.WeightKg <= 0 {
			return NewValidationError(fmt.Sprintf("package box %d is missing its weight", i+1))
		}
		if box.LengthCm <= 0 || box.WidthCm <= 0 || box.HeightCm <= 0 {
			return NewValidationError(fmt.Sprintf("package box %d is missing one or more dimensions", i+1))
		}
	}
	return nil
}

// Next advances the wizard one step after the current gate passes. The move
// into the confirmation step happens only through booking completion, never
// through Next.
func Next(draft *models.BookingDraft) error {
	if draft.Step >= StepPayment {
		return NewValidationError("the payment step is completed by submitting the booking")
	}
	if err := ValidateStep(draft, draft.Step); err != nil {
		return err
	}
	draft.Step++
	return nil
}

// Previous steps back unconditionally from steps 2-4. The confirmation step is
// terminal; a new booking starts a new draft.
func Previous(draft *models.BookingDraft) error {
	if draft.Step <= StepSender {
		return NewValidationError("already at the first step")
	}
	if draft.Step >= StepConfirmation {
		return NewValidationError("the booking is complete; start a new booking to make changes")
	}
	draft.Step--
	return nil
}

// JumpTo moves backward from the payment summary to an earlier step for edits.
// Forward jumps are never allowed.
func JumpTo(draft *models.BookingDraft, target int) error {
	if draft.Step != StepPayment {
		return NewValidationError("jumping between steps is only available from the payment summary")
	}
	if target < StepSender || target > StepPackage {
		return NewValidationError("can only jump back to the sender, recipient or package step")
	}
	draft.Step = target
	return nil
}
