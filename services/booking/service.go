package booking

import (
	"context"
	"time"

	"parcelio/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DraftService manages the booking draft across wizard steps 1-4. Submission
// and payment are handled by the Coordinator.
type DraftService interface {
	CreateDraft(ctx context.Context, quote models.BaselineQuote) (*models.BookingDraft, error)
	GetDraft(ctx context.Context, draftID string) (*models.BookingDraft, error)
	UpdateSender(ctx context.Context, draftID string, sender models.Party) (*models.BookingDraft, error)
	UpdateRecipient(ctx context.Context, draftID string, recipient models.Party) (*models.BookingDraft, error)
	UpdatePackage(ctx context.Context, draftID string, items []models.ContentItem, boxes []models.PackageBox, flags *models.ShipmentFlags) (*models.BookingDraft, error)
	SetPaymentSelection(ctx context.Context, draftID string, method string, termsAccepted bool) (*models.BookingDraft, error)
	NextStep(ctx context.Context, draftID string) (*models.BookingDraft, error)
	PreviousStep(ctx context.Context, draftID string) (*models.BookingDraft, error)
	JumpToStep(ctx context.Context, draftID string, target int) (*models.BookingDraft, error)
}

// DefaultDraftService implements DraftService on top of a DraftStore.
type DefaultDraftService struct {
	Drafts DraftStore
	Logger *zap.Logger
}

// CreateDraft starts an empty draft from a selected baseline quote. Sender and
// recipient countries are fixed from the quote and never user-editable.
func (s *DefaultDraftService) CreateDraft(ctx context.Context, quote models.BaselineQuote) (*models.BookingDraft, error) {
	if quote.CarrierName == "" || quote.TotalCost <= 0 {
		return nil, NewValidationError("a carrier quote with a positive total cost is required")
	}

	now := time.Now()
	draft := &models.BookingDraft{
		DraftID:   uuid.New().String(),
		Quote:     quote,
		Sender:    models.Party{Country: quote.OriginCountry},
		Recipient: models.Party{Country: quote.DestinationCountry},
		ContentItems: []models.ContentItem{
			{ID: uuid.New().String(), Quantity: 1},
		},
		PackageBoxes: []models.PackageBox{
			{ID: uuid.New().String()},
		},
		Step:      StepSender,
		CreatedAt: now,
		UpdatedAt: now,
	}
	draft.Pricing = ComputePricing(draft)

	if err := s.Drafts.Save(ctx, draft); err != nil {
		return nil, err
	}
	s.Logger.Info("booking draft created", zap.String("draftId", draft.DraftID), zap.String("carrier", quote.CarrierName))
	return draft, nil
}

func (s *DefaultDraftService) GetDraft(ctx context.Context, draftID string) (*models.BookingDraft, error) {
	return s.Drafts.Get(ctx, draftID)
}

func (s *DefaultDraftService) UpdateSender(ctx context.Context, draftID string, sender models.Party) (*models.BookingDraft, error) {
	draft, err := s.Drafts.Get(ctx, draftID)
	if err != nil {
		return nil, err
	}

	sender.Country = draft.Quote.OriginCountry
	draft.Sender = sender
	return s.save(ctx, draft)
}

func (s *DefaultDraftService) UpdateRecipient(ctx context.Context, draftID string, recipient models.Party) (*models.BookingDraft, error) {
	draft, err := s.Drafts.Get(ctx, draftID)
	if err != nil {
		return nil, err
	}

	// Destination is fixed by the quote regardless of what the client sends.
	recipient.Country = draft.Quote.DestinationCountry
	draft.Recipient = recipient
	return s.save(ctx, draft)
}

// UpdatePackage replaces the content items, boxes and flags, then reprices.
// The item and box lists can never become empty.
func (s *DefaultDraftService) UpdatePackage(ctx context.Context, draftID string, items []models.ContentItem, boxes []models.PackageBox, flags *models.ShipmentFlags) (*models.BookingDraft, error) {
	draft, err := s.Drafts.Get(ctx, draftID)
	if err != nil {
		return nil, err
	}

	if items != nil {
		if len(items) == 0 {
			return nil, NewValidationError("at least one content item is required")
		}
		for i := range items {
			if items[i].ID == "" {
				items[i].ID = uuid.New().String()
			}
		}
		draft.ContentItems = items
	}
	if boxes != nil {
		if len(boxes) == 0 {
			return nil, NewValidationError("at least one package box is required")
		}
		for i := range boxes {
			if boxes[i].ID == "" {
				boxes[i].ID = uuid.New().String()
			}
		}
		draft.PackageBoxes = boxes
	}
	if flags != nil {
		draft.Flags = *flags
	}

	draft.Pricing = ComputePricing(draft)
	return s.save(ctx, draft)
}

func (s *DefaultDraftService) SetPaymentSelection(ctx context.Context, draftID string, method string, termsAccepted bool) (*models.BookingDraft, error) {
	draft, err := s.Drafts.Get(ctx, draftID)
	if err != nil {
		return nil, err
	}

	if method != "" {
		mode := models.PaymentMode(method)
		if mode != models.PaymentModeFull && mode != models.PaymentModePartial {
			return nil, NewValidationError("payment method must be full or partial")
		}
		draft.PaymentMethod = method
	}
	draft.TermsAccepted = termsAccepted
	return s.save(ctx, draft)
}

func (s *DefaultDraftService) NextStep(ctx context.Context, draftID string) (*models.BookingDraft, error) {
	return s.step(ctx, draftID, Next)
}

func (s *DefaultDraftService) PreviousStep(ctx context.Context, draftID string) (*models.BookingDraft, error) {
	return s.step(ctx, draftID, Previous)
}

func (s *DefaultDraftService) JumpToStep(ctx context.Context, draftID string, target int) (*models.BookingDraft, error) {
	return s.step(ctx, draftID, func(d *models.BookingDraft) error {
		return JumpTo(d, target)
	})
}

func (s *DefaultDraftService) step(ctx context.Context, draftID string, move func(*models.BookingDraft) error) (*models.BookingDraft, error) {
	draft, err := s.Drafts.Get(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if err := move(draft); err != nil {
		return nil, err
	}
	return s.save(ctx, draft)
}

func (s *DefaultDraftService) save(ctx context.Context, draft *models.BookingDraft) (*models.BookingDraft, error) {
	draft.UpdatedAt = time.Now()
	if err := s.Drafts.Save(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}
