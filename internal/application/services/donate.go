package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/DanielPopoola/church-donations/internal/application"
	"github.com/DanielPopoola/church-donations/internal/domain"
	"github.com/google/uuid"
)

// failureWriteTimeout bounds the bookkeeping done after the caller's context is gone.
const failureWriteTimeout = 5 * time.Second

type DonationService struct {
	donations       application.DonationRepository
	campaigns       application.CampaignRepository
	tx              application.TransactionCoordinator
	processor       application.PaymentProcessor
	policy          domain.AmountPolicy
	defaultCurrency string
	logger          *slog.Logger
}

func NewDonationService(
	donations application.DonationRepository,
	campaigns application.CampaignRepository,
	tx application.TransactionCoordinator,
	processor application.PaymentProcessor,
	policy domain.AmountPolicy,
	defaultCurrency string,
	logger *slog.Logger,
) *DonationService {
	return &DonationService{
		donations:       donations,
		campaigns:       campaigns,
		tx:              tx,
		processor:       processor,
		policy:          policy,
		defaultCurrency: defaultCurrency,
		logger:          logger,
	}
}

// Donate validates and records a donation. Card donations get a processor
// intent and move to processing; every other method stays pending.
func (s *DonationService) Donate(ctx context.Context, cmd DonateCommand) (*DonationReceipt, error) {
	donation, err := s.buildDonation(ctx, cmd)
	if err != nil {
		return nil, err
	}

	if err := s.donations.Create(ctx, donation); err != nil {
		return nil, application.NewInternalError(err)
	}

	s.logger.Info("donation recorded",
		"donation_id", donation.ID,
		"amount_cents", donation.AmountCents,
		"currency", donation.Currency,
		"payment_method", donation.PaymentMethod,
	)

	if !donation.PaymentMethod.RequiresIntent() {
		return toReceipt(donation, ""), nil
	}

	intent, err := s.processor.CreateIntent(ctx, application.IntentRequest{
		DonationID:  donation.ID,
		AmountCents: donation.AmountCents,
		Currency:    donation.Currency,
		DonorName:   donation.DisplayName(),
		Category:    donation.Category,
	})
	if err != nil {
		return nil, s.handleProcessorFailure(ctx, donation.ID, err)
	}

	processing, err := s.markProcessing(ctx, donation.ID, intent.ID)
	if err != nil {
		return nil, err
	}

	return toReceipt(processing, intent.ClientSecret), nil
}

func (s *DonationService) buildDonation(ctx context.Context, cmd DonateCommand) (*domain.Donation, error) {
	amountCents, err := s.policy.ToCents(cmd.Amount)
	if err != nil {
		return nil, application.NewValidationError(err)
	}

	currency := cmd.Currency
	if strings.TrimSpace(currency) == "" {
		currency = s.defaultCurrency
	}
	currency, err = domain.NormalizeCurrency(currency)
	if err != nil {
		return nil, application.NewValidationError(err)
	}

	category, err := domain.ParseCategory(cmd.Category)
	if err != nil {
		return nil, application.NewValidationError(err)
	}

	method, err := domain.ParsePaymentMethod(cmd.PaymentMethod)
	if err != nil {
		return nil, application.NewValidationError(err)
	}

	var campaignID *string
	if cmd.CampaignID != "" {
		id, err := s.activeCampaign(ctx, cmd.CampaignID)
		if err != nil {
			return nil, err
		}
		campaignID = &id
	}

	var donor domain.Donor = domain.GuestDonor{
		Name:  cmd.DonorName,
		Email: cmd.DonorEmail,
		Phone: cmd.DonorPhone,
	}
	if cmd.UserID != "" {
		name := cmd.UserName
		if strings.TrimSpace(cmd.DonorName) != "" {
			name = cmd.DonorName
		}
		donor = domain.RegisteredDonor{UserID: cmd.UserID, FullName: name}
	}

	donation, err := domain.NewDonation(domain.NewDonationParams{
		ID:            uuid.New().String(),
		Donor:         donor,
		AmountCents:   amountCents,
		Currency:      currency,
		Category:      category,
		CampaignID:    campaignID,
		Message:       strings.TrimSpace(cmd.Message),
		PaymentMethod: method,
		IsAnonymous:   cmd.IsAnonymous,
		ShowAmount:    cmd.ShowAmount,
	})
	if err != nil {
		if domain.IsValidationError(err) {
			return nil, application.NewValidationError(err)
		}
		return nil, application.NewInternalError(err)
	}
	return donation, nil
}

func (s *DonationService) activeCampaign(ctx context.Context, rawID string) (string, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return "", application.NewValidationError(fmt.Errorf("%w: %q", domain.ErrCampaignNotFound, rawID))
	}

	campaign, err := s.campaigns.FindByID(ctx, id.String())
	if err != nil {
		if errors.Is(err, domain.ErrCampaignNotFound) {
			return "", application.NewValidationError(err)
		}
		return "", application.NewInternalError(err)
	}

	if err := campaign.AcceptsDonations(); err != nil {
		return "", application.NewValidationError(err)
	}
	return campaign.ID, nil
}

func (s *DonationService) markProcessing(ctx context.Context, donationID, intentID string) (*domain.Donation, error) {
	var updated *domain.Donation

	err := s.tx.WithTransaction(ctx, func(ctx context.Context, repos application.Repositories) error {
		donation, err := repos.Donations.FindByIDForUpdate(ctx, donationID)
		if err != nil {
			return err
		}
		if err := donation.StartProcessing(intentID); err != nil {
			return application.NewInvalidStateError(err)
		}
		if err := repos.Donations.Update(ctx, donation); err != nil {
			return err
		}
		updated = donation
		return nil
	})
	if err != nil {
		s.logger.Error("failed to store payment intent",
			"donation_id", donationID,
			"intent_id", intentID,
			"error", err,
		)
		if _, ok := application.IsServiceError(err); ok {
			return nil, err
		}
		return nil, application.NewInternalError(err)
	}

	s.logger.Info("payment intent opened",
		"donation_id", donationID,
		"intent_id", intentID,
	)
	return updated, nil
}

// handleProcessorFailure marks the donation failed and reports the processor outage.
// The write must happen even if the request context already expired.
func (s *DonationService) handleProcessorFailure(ctx context.Context, donationID string, cause error) error {
	s.logger.Warn("payment intent creation failed",
		"donation_id", donationID,
		"category", application.CategorizeError(cause),
		"error", cause,
	)

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), failureWriteTimeout)
	defer cancel()

	err := s.tx.WithTransaction(writeCtx, func(ctx context.Context, repos application.Repositories) error {
		donation, err := repos.Donations.FindByIDForUpdate(ctx, donationID)
		if err != nil {
			return err
		}
		if err := donation.Fail(); err != nil {
			return err
		}
		return repos.Donations.Update(ctx, donation)
	})
	if err != nil {
		s.logger.Error("failed to mark donation as failed",
			"donation_id", donationID,
			"error", err,
		)
	}

	return application.NewExternalServiceError(cause)
}

// Cancel lets a registered donor withdraw their own open donation. An open
// processor intent is cancelled first so no charge can land afterwards.
func (s *DonationService) Cancel(ctx context.Context, cmd CancelCommand) (*domain.Donation, error) {
	donation, err := s.donations.FindByID(ctx, cmd.DonationID)
	if err != nil {
		if errors.Is(err, domain.ErrDonationNotFound) {
			return nil, application.NewNotFoundError(err)
		}
		return nil, application.NewInternalError(err)
	}

	if !donation.BelongsTo(cmd.UserID) {
		return nil, application.NewNotFoundError(domain.ErrDonationNotFound)
	}
	if donation.IsTerminal() {
		return nil, application.NewInvalidStateError(
			fmt.Errorf("%w: donation is %s", domain.ErrInvalidTransition, donation.Status),
		)
	}

	if donation.PaymentIntentID != nil {
		if _, err := s.processor.CancelIntent(ctx, *donation.PaymentIntentID); err != nil {
			s.logger.Warn("payment intent cancellation failed",
				"donation_id", donation.ID,
				"intent_id", *donation.PaymentIntentID,
				"error", err,
			)
			return nil, application.NewExternalServiceError(err)
		}
	}

	var cancelled *domain.Donation
	err = s.tx.WithTransaction(ctx, func(ctx context.Context, repos application.Repositories) error {
		locked, err := repos.Donations.FindByIDForUpdate(ctx, donation.ID)
		if err != nil {
			return err
		}
		if err := locked.Cancel(); err != nil {
			return application.NewInvalidStateError(err)
		}
		if err := repos.Donations.Update(ctx, locked); err != nil {
			return err
		}
		cancelled = locked
		return nil
	})
	if err != nil {
		if _, ok := application.IsServiceError(err); ok {
			return nil, err
		}
		return nil, application.NewInternalError(err)
	}

	s.logger.Info("donation cancelled", "donation_id", cancelled.ID)
	return cancelled, nil
}

func toReceipt(d *domain.Donation, clientSecret string) *DonationReceipt {
	return &DonationReceipt{
		DonationID:   d.ID,
		ClientSecret: clientSecret,
		AmountCents:  d.AmountCents,
		Currency:     d.Currency,
		Status:       d.Status,
	}
}
