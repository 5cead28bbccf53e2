package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DanielPopoola/church-donations/internal/application"
	"github.com/DanielPopoola/church-donations/internal/application/mocks"
	"github.com/DanielPopoola/church-donations/internal/application/services"
	"github.com/DanielPopoola/church-donations/internal/domain"
	"github.com/DanielPopoola/church-donations/internal/infrastructure/processor"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// seedStale stores a processing card donation last touched an hour ago.
func seedStale(t *testing.T, store *mocks.Store, cents int64, campaignID *string) *domain.Donation {
	t.Helper()
	d, err := domain.NewDonation(domain.NewDonationParams{
		ID:            uuid.New().String(),
		Donor:         domain.GuestDonor{Name: "Eunice"},
		AmountCents:   cents,
		Currency:      "USD",
		Category:      domain.CategoryMissions,
		CampaignID:    campaignID,
		PaymentMethod: domain.MethodCard,
	})
	require.NoError(t, err)
	require.NoError(t, d.StartProcessing("pi_"+d.ID))
	d.UpdatedAt = time.Now().Add(-time.Hour)
	store.SeedDonation(d)
	return d
}

func newReconciler(store *mocks.Store, proc *mocks.Processor) *Reconciler {
	applier := services.NewReconcileService(&mocks.Verifier{}, store, discardLogger())
	return NewReconciler(store, proc, applier, time.Minute, 30*time.Minute, 10, discardLogger())
}

func TestReconciler_CompletesSucceededIntent(t *testing.T) {
	store := mocks.NewStore()
	campaign := &domain.Campaign{ID: uuid.New().String(), Name: "Missions", GoalCents: 10000, IsActive: true}
	store.SeedCampaign(campaign)
	d := seedStale(t, store, 4000, &campaign.ID)

	proc := &mocks.Processor{
		GetIntentFn: func(_ context.Context, id string) (*application.Intent, error) {
			return &application.Intent{ID: id, Status: "succeeded"}, nil
		},
	}

	r := newReconciler(store, proc)
	assert.Equal(t, 1, r.RunOnce(context.Background()))

	assert.Equal(t, domain.StatusCompleted, store.Donation(d.ID).Status)
	assert.Equal(t, int64(4000), store.Campaign(campaign.ID).CurrentCents)

	// a later webhook for the same intent must not credit again
	assert.Equal(t, 0, r.RunOnce(context.Background()))
	applier := services.NewReconcileService(&mocks.Verifier{}, store, discardLogger())
	applied, err := applier.ApplyOutcome(context.Background(), "evt_late", "payment_intent.succeeded", *d.PaymentIntentID, domain.OutcomeSucceeded)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, int64(4000), store.Campaign(campaign.ID).CurrentCents)
}

func TestReconciler_CancelsCanceledAndMissingIntents(t *testing.T) {
	store := mocks.NewStore()
	canceled := seedStale(t, store, 1000, nil)
	missing := seedStale(t, store, 2000, nil)

	proc := &mocks.Processor{
		GetIntentFn: func(_ context.Context, id string) (*application.Intent, error) {
			if id == *missing.PaymentIntentID {
				return nil, &processor.ProcessorError{Code: "resource_missing", StatusCode: 404}
			}
			return &application.Intent{ID: id, Status: "canceled"}, nil
		},
	}

	assert.Equal(t, 2, newReconciler(store, proc).RunOnce(context.Background()))
	assert.Equal(t, domain.StatusCancelled, store.Donation(canceled.ID).Status)
	assert.Equal(t, domain.StatusCancelled, store.Donation(missing.ID).Status)
}

func TestReconciler_SkipsNotFoundFromOtherAccounts(t *testing.T) {
	store := mocks.NewStore()
	d := seedStale(t, store, 1000, nil)

	proc := &mocks.Processor{
		GetIntentFn: func(_ context.Context, _ string) (*application.Intent, error) {
			return nil, &processor.ProcessorError{Code: "invalid_request_error", StatusCode: 404}
		},
	}

	assert.Equal(t, 0, newReconciler(store, proc).RunOnce(context.Background()))
	assert.Equal(t, domain.StatusProcessing, store.Donation(d.ID).Status)
}

func TestReconciler_RotatesPastAbandonedCheckouts(t *testing.T) {
	store := mocks.NewStore()
	for range 3 {
		abandoned := seedStale(t, store, 1000, nil)
		abandoned.UpdatedAt = time.Now().Add(-48 * time.Hour)
		store.SeedDonation(abandoned)
	}
	paid := seedStale(t, store, 2500, nil)

	proc := &mocks.Processor{
		GetIntentFn: func(_ context.Context, id string) (*application.Intent, error) {
			if id == *paid.PaymentIntentID {
				return &application.Intent{ID: id, Status: "succeeded"}, nil
			}
			return &application.Intent{ID: id, Status: "requires_payment_method"}, nil
		},
	}

	r := newReconciler(store, proc)
	r.batchSize = 3

	assert.Equal(t, 0, r.RunOnce(context.Background()))
	assert.Equal(t, domain.StatusProcessing, store.Donation(paid.ID).Status)

	assert.Equal(t, 1, r.RunOnce(context.Background()))
	assert.Equal(t, domain.StatusCompleted, store.Donation(paid.ID).Status)
	assert.LessOrEqual(t, proc.GetCalls("GetIntent"), 6)
}

func TestReconciler_LeavesOpenIntentsAlone(t *testing.T) {
	store := mocks.NewStore()
	open := seedStale(t, store, 1000, nil)
	flaky := seedStale(t, store, 1000, nil)

	proc := &mocks.Processor{
		GetIntentFn: func(_ context.Context, id string) (*application.Intent, error) {
			if id == *flaky.PaymentIntentID {
				return nil, errors.New("connection reset")
			}
			return &application.Intent{ID: id, Status: "requires_payment_method"}, nil
		},
	}

	assert.Equal(t, 0, newReconciler(store, proc).RunOnce(context.Background()))
	assert.Equal(t, domain.StatusProcessing, store.Donation(open.ID).Status)
	assert.Equal(t, domain.StatusProcessing, store.Donation(flaky.ID).Status)
}

func TestReconciler_IgnoresFreshDonations(t *testing.T) {
	store := mocks.NewStore()
	d := seedStale(t, store, 1000, nil)
	fresh := store.Donation(d.ID)
	fresh.UpdatedAt = time.Now()
	store.SeedDonation(fresh)

	proc := &mocks.Processor{}
	assert.Equal(t, 0, newReconciler(store, proc).RunOnce(context.Background()))
	assert.Zero(t, proc.GetCalls("GetIntent"))
}

func TestReconciler_StopsOnCancel(t *testing.T) {
	r := newReconciler(mocks.NewStore(), &mocks.Processor{})
	r.interval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Start(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reconciler did not stop")
	}
}
