package application

import (
	"context"
	"time"

	"github.com/DanielPopoola/church-donations/internal/domain"
)

// DonationRepository is the port for donation persistence.
type DonationRepository interface {
	Create(ctx context.Context, donation *domain.Donation) error
	FindByID(ctx context.Context, id string) (*domain.Donation, error)
	FindByIDForUpdate(ctx context.Context, id string) (*domain.Donation, error)
	FindByPaymentIntentIDForUpdate(ctx context.Context, intentID string) (*domain.Donation, error)
	Update(ctx context.Context, donation *domain.Donation) error
	FindStaleProcessing(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Donation, error)
	MarkPolled(ctx context.Context, id string, at time.Time) error
	FindCompletedByUser(ctx context.Context, userID string) ([]DonationHistoryEntry, error)
	Totals(ctx context.Context, monthStart time.Time) (DonationTotals, error)
}

// CampaignRepository is the port for campaigns and their running totals.
type CampaignRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Campaign, error)
	FindActive(ctx context.Context) ([]*domain.Campaign, error)
	CountActive(ctx context.Context) (int, error)
	// Credit adds amountCents to the campaign total in place.
	Credit(ctx context.Context, campaignID string, amountCents int64) error
}

// WebhookEventRepository remembers processor event ids that were already applied.
type WebhookEventRepository interface {
	// MarkProcessed records the event and reports false when it was already recorded.
	MarkProcessed(ctx context.Context, eventID, eventType string) (bool, error)
}

// Repositories is the set of repositories bound to one unit of work.
type Repositories struct {
	Donations     DonationRepository
	Campaigns     CampaignRepository
	WebhookEvents WebhookEventRepository
}

// TransactionCoordinator runs fn inside a single database transaction.
// Returning an error from fn rolls everything back.
type TransactionCoordinator interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// PaymentProcessor is the port for the external card processor.
type PaymentProcessor interface {
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	GetIntent(ctx context.Context, intentID string) (*Intent, error)
	CancelIntent(ctx context.Context, intentID string) (*Intent, error)
}

type IntentRequest struct {
	DonationID  string
	AmountCents int64
	Currency    string
	DonorName   string
	Category    domain.Category
}

// Intent is the processor's view of a payment intent.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
}

// Outcome maps a processor intent status onto a final outcome. ok is false
// while the intent is still in flight.
func (i *Intent) Outcome() (domain.PaymentOutcome, bool) {
	switch i.Status {
	case "succeeded":
		return domain.OutcomeSucceeded, true
	case "canceled":
		return domain.OutcomeCanceled, true
	}
	return "", false
}

// WebhookVerifier authenticates and decodes processor callbacks.
type WebhookVerifier interface {
	ParseEvent(payload []byte, signatureHeader string) (*PaymentEvent, error)
}

// PaymentEvent is a verified processor callback. Outcome is empty for event
// types the service does not act on.
type PaymentEvent struct {
	ID       string
	Type     string
	IntentID string
	Outcome  domain.PaymentOutcome
}

// DonationHistoryEntry is the read model returned to a donor for their history.
type DonationHistoryEntry struct {
	ID            string
	AmountCents   int64
	Currency      string
	Category      domain.Category
	CampaignName  *string
	PaymentMethod domain.PaymentMethod
	Status        domain.DonationStatus
	CreatedAt     time.Time
}

// DonationTotals aggregates completed donations.
type DonationTotals struct {
	TotalCents      int64
	TotalCount      int
	MonthTotalCents int64
	MonthCount      int
}
