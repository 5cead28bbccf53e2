package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/DanielPopoola/church-donations/internal/application"
	"github.com/DanielPopoola/church-donations/internal/domain"
)

// ReconcileService applies processor outcomes to donations. Each outcome is
// applied at most once and the campaign credit commits together with the
// status change.
type ReconcileService struct {
	verifier application.WebhookVerifier
	tx       application.TransactionCoordinator
	logger   *slog.Logger
	now      func() time.Time
}

func NewReconcileService(
	verifier application.WebhookVerifier,
	tx application.TransactionCoordinator,
	logger *slog.Logger,
) *ReconcileService {
	return &ReconcileService{
		verifier: verifier,
		tx:       tx,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// HandleWebhook authenticates a raw processor callback and applies it.
// A nil error means the processor should not redeliver.
func (s *ReconcileService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.verifier.ParseEvent(payload, signature)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidSignature) {
			s.logger.Warn("rejected webhook with invalid signature", "error", err)
			return application.NewInvalidSignatureError(err)
		}
		s.logger.Warn("rejected malformed webhook", "error", err)
		return application.NewInvalidPayloadError(err)
	}

	if event.Outcome == "" {
		s.logger.Debug("ignoring webhook event", "event_id", event.ID, "event_type", event.Type)
		return nil
	}
	if event.IntentID == "" {
		return application.NewInvalidPayloadError(errors.New("event carries no payment intent id"))
	}

	_, err = s.ApplyOutcome(ctx, event.ID, event.Type, event.IntentID, event.Outcome)
	return err
}

// ApplyOutcome moves the donation owning intentID according to outcome. It
// reports whether anything changed. Duplicate events, unknown intents and
// donations that already reached a final state are no-ops. eventID may be
// empty when the outcome was polled rather than delivered.
func (s *ReconcileService) ApplyOutcome(
	ctx context.Context,
	eventID, eventType, intentID string,
	outcome domain.PaymentOutcome,
) (bool, error) {
	logger := s.logger.With(
		"event_id", eventID,
		"event_type", eventType,
		"intent_id", intentID,
		"outcome", outcome,
	)

	applied := false
	err := s.tx.WithTransaction(ctx, func(ctx context.Context, repos application.Repositories) error {
		if eventID != "" {
			fresh, err := repos.WebhookEvents.MarkProcessed(ctx, eventID, eventType)
			if err != nil {
				return err
			}
			if !fresh {
				logger.Info("duplicate event delivery ignored")
				return nil
			}
		}

		donation, err := repos.Donations.FindByPaymentIntentIDForUpdate(ctx, intentID)
		if err != nil {
			if errors.Is(err, domain.ErrDonationNotFound) {
				logger.Info("no donation for payment intent")
				return nil
			}
			return err
		}

		if donation.IsTerminal() {
			logger.Debug("donation already final", "donation_id", donation.ID, "status", donation.Status)
			return nil
		}

		if err := donation.ApplyOutcome(outcome, s.now()); err != nil {
			if domain.IsInvalidTransition(err) {
				logger.Info("outcome does not apply to donation",
					"donation_id", donation.ID,
					"status", donation.Status,
				)
				return nil
			}
			return err
		}

		if err := repos.Donations.Update(ctx, donation); err != nil {
			return err
		}

		if donation.CreditsCampaign() {
			if err := repos.Campaigns.Credit(ctx, *donation.CampaignID, donation.AmountCents); err != nil {
				return err
			}
		}

		applied = true
		logger.Info("donation reconciled",
			"donation_id", donation.ID,
			"status", donation.Status,
		)
		return nil
	})
	if err != nil {
		logger.Error("failed to apply payment outcome", "error", err)
		return false, application.NewInternalError(err)
	}

	return applied, nil
}
