package services_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/DanielPopoola/church-donations/internal/application"
	"github.com/DanielPopoola/church-donations/internal/application/mocks"
	"github.com/DanielPopoola/church-donations/internal/application/services"
	"github.com/DanielPopoola/church-donations/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openCardDonation submits a card donation through the real service so the
// stored row has an intent handle.
func openCardDonation(t *testing.T, store *mocks.Store, amount int64, campaignID string) *domain.Donation {
	t.Helper()
	svc := newDonationService(store, &mocks.Processor{})
	receipt, err := svc.Donate(context.Background(), services.DonateCommand{
		DonorName:  "Tabitha",
		Amount:     decimal.NewFromInt(amount),
		CampaignID: campaignID,
	})
	require.NoError(t, err)
	return store.Donation(receipt.DonationID)
}

func succeededEvent(eventID string, d *domain.Donation) *application.PaymentEvent {
	return &application.PaymentEvent{
		ID:       eventID,
		Type:     "payment_intent.succeeded",
		IntentID: *d.PaymentIntentID,
		Outcome:  domain.OutcomeSucceeded,
	}
}

func TestHandleWebhook_SucceededCompletesWithoutCampaign(t *testing.T) {
	store := mocks.NewStore()
	donation := openCardDonation(t, store, 25, "")
	svc := services.NewReconcileService(&mocks.Verifier{Event: succeededEvent("evt_1", donation)}, store, discardLogger())

	err := svc.HandleWebhook(context.Background(), []byte(`{}`), "sig")

	require.NoError(t, err)
	stored := store.Donation(donation.ID)
	assert.Equal(t, domain.StatusCompleted, stored.Status)
	assert.NotNil(t, stored.ProcessedAt)
	assert.Equal(t, 1, store.EventCount())
}

func TestHandleWebhook_CreditsCampaignOnce(t *testing.T) {
	store := mocks.NewStore()
	campaign := seedActiveCampaign(store, 100000, 1000)
	donation := openCardDonation(t, store, 40, campaign.ID)
	svc := services.NewReconcileService(&mocks.Verifier{Event: succeededEvent("evt_1", donation)}, store, discardLogger())

	require.NoError(t, svc.HandleWebhook(context.Background(), nil, "sig"))
	assert.Equal(t, int64(5000), store.Campaign(campaign.ID).CurrentCents)

	// Same event delivered again.
	require.NoError(t, svc.HandleWebhook(context.Background(), nil, "sig"))
	assert.Equal(t, int64(5000), store.Campaign(campaign.ID).CurrentCents)
	assert.Equal(t, domain.StatusCompleted, store.Donation(donation.ID).Status)
}

func TestHandleWebhook_ReplayWithNewEventIDAfterTerminal(t *testing.T) {
	store := mocks.NewStore()
	campaign := seedActiveCampaign(store, 100000, 0)
	donation := openCardDonation(t, store, 30, campaign.ID)
	verifier := &mocks.Verifier{Event: succeededEvent("evt_1", donation)}
	svc := services.NewReconcileService(verifier, store, discardLogger())

	require.NoError(t, svc.HandleWebhook(context.Background(), nil, "sig"))

	for i := range 3 {
		verifier.Event = succeededEvent(fmt.Sprintf("evt_replay_%d", i), donation)
		require.NoError(t, svc.HandleWebhook(context.Background(), nil, "sig"))
	}

	assert.Equal(t, int64(3000), store.Campaign(campaign.ID).CurrentCents)
	assert.Equal(t, domain.StatusCompleted, store.Donation(donation.ID).Status)
}

func TestHandleWebhook_FailedAndCanceled(t *testing.T) {
	tests := []struct {
		eventType string
		outcome   domain.PaymentOutcome
		want      domain.DonationStatus
	}{
		{"payment_intent.payment_failed", domain.OutcomeFailed, domain.StatusFailed},
		{"payment_intent.canceled", domain.OutcomeCanceled, domain.StatusCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.eventType, func(t *testing.T) {
			store := mocks.NewStore()
			campaign := seedActiveCampaign(store, 10000, 0)
			donation := openCardDonation(t, store, 10, campaign.ID)
			svc := services.NewReconcileService(&mocks.Verifier{Event: &application.PaymentEvent{
				ID: "evt_1", Type: tt.eventType, IntentID: *donation.PaymentIntentID, Outcome: tt.outcome,
			}}, store, discardLogger())

			require.NoError(t, svc.HandleWebhook(context.Background(), nil, "sig"))

			assert.Equal(t, tt.want, store.Donation(donation.ID).Status)
			assert.Zero(t, store.Campaign(campaign.ID).CurrentCents)
		})
	}
}

func TestHandleWebhook_FailedAfterCompletedIsIgnored(t *testing.T) {
	store := mocks.NewStore()
	donation := openCardDonation(t, store, 10, "")
	verifier := &mocks.Verifier{Event: succeededEvent("evt_1", donation)}
	svc := services.NewReconcileService(verifier, store, discardLogger())
	require.NoError(t, svc.HandleWebhook(context.Background(), nil, "sig"))

	verifier.Event = &application.PaymentEvent{
		ID: "evt_2", Type: "payment_intent.payment_failed", IntentID: *donation.PaymentIntentID, Outcome: domain.OutcomeFailed,
	}
	require.NoError(t, svc.HandleWebhook(context.Background(), nil, "sig"))

	assert.Equal(t, domain.StatusCompleted, store.Donation(donation.ID).Status)
}

func TestHandleWebhook_InvalidSignatureChangesNothing(t *testing.T) {
	store := mocks.NewStore()
	campaign := seedActiveCampaign(store, 10000, 0)
	donation := openCardDonation(t, store, 10, campaign.ID)
	svc := services.NewReconcileService(&mocks.Verifier{Err: fmt.Errorf("%w: no valid signature", domain.ErrInvalidSignature)}, store, discardLogger())

	err := svc.HandleWebhook(context.Background(), []byte(`{}`), "t=1,v1=bad")

	require.Error(t, err)
	assert.Equal(t, application.ErrCodeInvalidSignature, application.ToErrorCode(err))
	assert.Equal(t, http.StatusBadRequest, application.ToHTTPStatus(err))
	assert.Equal(t, domain.StatusProcessing, store.Donation(donation.ID).Status)
	assert.Zero(t, store.Campaign(campaign.ID).CurrentCents)
	assert.Zero(t, store.EventCount())
}

func TestHandleWebhook_MalformedPayload(t *testing.T) {
	store := mocks.NewStore()
	svc := services.NewReconcileService(&mocks.Verifier{Err: fmt.Errorf("%w: unexpected end of JSON input", domain.ErrInvalidPayload)}, store, discardLogger())

	err := svc.HandleWebhook(context.Background(), []byte(`{`), "sig")

	assert.Equal(t, application.ErrCodeInvalidPayload, application.ToErrorCode(err))
	assert.Equal(t, http.StatusBadRequest, application.ToHTTPStatus(err))
}

func TestHandleWebhook_IgnoresUnrelatedEvents(t *testing.T) {
	store := mocks.NewStore()
	svc := services.NewReconcileService(&mocks.Verifier{Event: &application.PaymentEvent{
		ID: "evt_1", Type: "customer.created",
	}}, store, discardLogger())

	require.NoError(t, svc.HandleWebhook(context.Background(), nil, "sig"))
	assert.Zero(t, store.EventCount())
}

func TestHandleWebhook_UnknownIntentIsNoop(t *testing.T) {
	store := mocks.NewStore()
	svc := services.NewReconcileService(&mocks.Verifier{Event: &application.PaymentEvent{
		ID: "evt_1", Type: "payment_intent.succeeded", IntentID: "pi_unknown", Outcome: domain.OutcomeSucceeded,
	}}, store, discardLogger())

	require.NoError(t, svc.HandleWebhook(context.Background(), nil, "sig"))
}

func TestHandleWebhook_StorageFailureRollsBack(t *testing.T) {
	store := mocks.NewStore()
	campaign := seedActiveCampaign(store, 10000, 0)
	donation := openCardDonation(t, store, 10, campaign.ID)
	store.CreditFn = func(context.Context, string, int64) error {
		return errors.New("connection reset")
	}
	svc := services.NewReconcileService(&mocks.Verifier{Event: succeededEvent("evt_1", donation)}, store, discardLogger())

	err := svc.HandleWebhook(context.Background(), nil, "sig")

	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, application.ToHTTPStatus(err))
	assert.Equal(t, domain.StatusProcessing, store.Donation(donation.ID).Status)
	assert.Zero(t, store.EventCount(), "event must be retried by the processor")

	// Redelivery after the outage succeeds.
	store.CreditFn = nil
	require.NoError(t, svc.HandleWebhook(context.Background(), nil, "sig"))
	assert.Equal(t, domain.StatusCompleted, store.Donation(donation.ID).Status)
	assert.Equal(t, int64(1000), store.Campaign(campaign.ID).CurrentCents)
}

func TestApplyOutcome_ConcurrentCompletionsAccumulate(t *testing.T) {
	store := mocks.NewStore()
	campaign := seedActiveCampaign(store, 10000, 0)
	first := openCardDonation(t, store, 60, campaign.ID)
	second := openCardDonation(t, store, 50, campaign.ID)
	svc := services.NewReconcileService(&mocks.Verifier{}, store, discardLogger())

	var wg sync.WaitGroup
	for _, d := range []*domain.Donation{first, second, first, second} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ApplyOutcome(context.Background(), "evt_"+uuid.NewString(), "payment_intent.succeeded", *d.PaymentIntentID, domain.OutcomeSucceeded)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	c := store.Campaign(campaign.ID)
	assert.Equal(t, int64(11000), c.CurrentCents)
	assert.True(t, c.IsCompleted())
	assert.True(t, decimal.NewFromInt(100).Equal(c.Progress()))
}

func TestApplyOutcome_ReportsWhetherApplied(t *testing.T) {
	store := mocks.NewStore()
	donation := openCardDonation(t, store, 10, "")
	svc := services.NewReconcileService(&mocks.Verifier{}, store, discardLogger())

	applied, err := svc.ApplyOutcome(context.Background(), "", "", *donation.PaymentIntentID, domain.OutcomeSucceeded)
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = svc.ApplyOutcome(context.Background(), "", "", *donation.PaymentIntentID, domain.OutcomeSucceeded)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Zero(t, store.EventCount())
}
