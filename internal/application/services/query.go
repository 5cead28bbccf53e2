package services

import (
	"context"
	"errors"
	"time"

	"github.com/DanielPopoola/church-donations/internal/application"
	"github.com/DanielPopoola/church-donations/internal/domain"
	"github.com/google/uuid"
)

type QueryService struct {
	donations application.DonationRepository
	campaigns application.CampaignRepository
	now       func() time.Time
}

func NewQueryService(
	donations application.DonationRepository,
	campaigns application.CampaignRepository,
) *QueryService {
	return &QueryService{
		donations: donations,
		campaigns: campaigns,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// History lists the caller's completed donations, newest first.
func (s *QueryService) History(ctx context.Context, userID string) ([]application.DonationHistoryEntry, error) {
	if userID == "" {
		return nil, application.NewUnauthorizedError("authentication required")
	}
	entries, err := s.donations.FindCompletedByUser(ctx, userID)
	if err != nil {
		return nil, application.NewInternalError(err)
	}
	return entries, nil
}

func (s *QueryService) ActiveCampaigns(ctx context.Context) ([]*domain.Campaign, error) {
	campaigns, err := s.campaigns.FindActive(ctx)
	if err != nil {
		return nil, application.NewInternalError(err)
	}
	return campaigns, nil
}

func (s *QueryService) Campaign(ctx context.Context, id string) (*domain.Campaign, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, application.NewNotFoundError(domain.ErrCampaignNotFound)
	}

	campaign, err := s.campaigns.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrCampaignNotFound) {
			return nil, application.NewNotFoundError(err)
		}
		return nil, application.NewInternalError(err)
	}
	return campaign, nil
}

// Stats sums completed donations overall and for the current calendar month.
func (s *QueryService) Stats(ctx context.Context) (*DonationStats, error) {
	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	totals, err := s.donations.Totals(ctx, monthStart)
	if err != nil {
		return nil, application.NewInternalError(err)
	}

	active, err := s.campaigns.CountActive(ctx)
	if err != nil {
		return nil, application.NewInternalError(err)
	}

	return &DonationStats{
		TotalCents:      totals.TotalCents,
		TotalCount:      totals.TotalCount,
		MonthTotalCents: totals.MonthTotalCents,
		MonthCount:      totals.MonthCount,
		ActiveCampaigns: active,
	}, nil
}
