package testhelpers

import (
	"context"
	"testing"
	"time"

	"github.com/DanielPopoola/church-donations/internal/domain"
	"github.com/DanielPopoola/church-donations/internal/infrastructure/persistence/postgres"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// CreateCampaign inserts an active campaign with the given goal and current total in cents.
func CreateCampaign(t *testing.T, ctx context.Context, repo *postgres.CampaignRepository, goal, current int64) *domain.Campaign {
	t.Helper()
	c := &domain.Campaign{
		ID:           uuid.New().String(),
		Name:         "Building Fund " + uuid.New().String()[:8],
		Description:  "New sanctuary roof",
		GoalCents:    goal,
		CurrentCents: current,
		StartDate:    time.Now().UTC().Add(-24 * time.Hour).Truncate(time.Microsecond),
		IsActive:     true,
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, repo.Create(ctx, c))
	return c
}

// CreateProcessingDonation inserts a card donation that is waiting on intentID.
func CreateProcessingDonation(
	t *testing.T,
	ctx context.Context,
	repo *postgres.DonationRepository,
	amountCents int64,
	campaignID *string,
	intentID string,
) *domain.Donation {
	t.Helper()
	d := NewGuestDonation(t, amountCents, campaignID)
	require.NoError(t, repo.Create(ctx, d))
	require.NoError(t, d.StartProcessing(intentID))
	require.NoError(t, repo.Update(ctx, d))
	return d
}

// NewGuestDonation builds a pending guest card donation without storing it.
func NewGuestDonation(t *testing.T, amountCents int64, campaignID *string) *domain.Donation {
	t.Helper()
	d, err := domain.NewDonation(domain.NewDonationParams{
		ID:            uuid.New().String(),
		Donor:         domain.GuestDonor{Name: "Phoebe", Email: "phoebe@example.com"},
		AmountCents:   amountCents,
		Currency:      "USD",
		Category:      domain.CategoryOffering,
		CampaignID:    campaignID,
		PaymentMethod: domain.MethodCard,
		ShowAmount:    true,
	})
	require.NoError(t, err)
	return d
}
