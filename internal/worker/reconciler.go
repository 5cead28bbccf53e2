package worker

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/DanielPopoola/church-donations/internal/application"
	"github.com/DanielPopoola/church-donations/internal/domain"
	"github.com/DanielPopoola/church-donations/internal/infrastructure/processor"
)

// OutcomeApplier applies a processor outcome through the same transactional
// path the webhook uses.
type OutcomeApplier interface {
	ApplyOutcome(ctx context.Context, eventID, eventType, intentID string, outcome domain.PaymentOutcome) (bool, error)
}

// Reconciler repairs donations whose webhook never arrived by asking the
// processor for the current state of their intent.
type Reconciler struct {
	donations  application.DonationRepository
	processor  application.PaymentProcessor
	applier    OutcomeApplier
	interval   time.Duration
	staleAfter time.Duration
	batchSize  int
	logger     *slog.Logger
	now        func() time.Time
}

func NewReconciler(
	donations application.DonationRepository,
	processor application.PaymentProcessor,
	applier OutcomeApplier,
	interval time.Duration,
	staleAfter time.Duration,
	batchSize int,
	logger *slog.Logger,
) *Reconciler {
	return &Reconciler{
		donations:  donations,
		processor:  processor,
		applier:    applier,
		interval:   interval,
		staleAfter: staleAfter,
		batchSize:  batchSize,
		logger:     logger.With("component", "reconciler"),
		now:        time.Now,
	}
}

func (r *Reconciler) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("starting background reconciler",
		"interval", r.interval,
		"stale_after", r.staleAfter,
		"batch_size", r.batchSize,
	)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("stopping background reconciler")
			return
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce executes a single reconciliation cycle and returns how many
// donations changed state.
func (r *Reconciler) RunOnce(ctx context.Context) int {
	cutoff := r.now().Add(-r.staleAfter)
	stale, err := r.donations.FindStaleProcessing(ctx, cutoff, r.batchSize)
	if err != nil {
		r.logger.Error("failed to fetch stale donations", "error", err)
		return 0
	}

	if len(stale) == 0 {
		return 0
	}

	r.logger.Info("reconciling stale donations", "count", len(stale))

	reconciled := 0
	for _, d := range stale {
		if ctx.Err() != nil {
			return reconciled
		}
		if r.reconcile(ctx, d) {
			reconciled++
		}
	}
	return reconciled
}

func (r *Reconciler) reconcile(ctx context.Context, d *domain.Donation) bool {
	if d.PaymentIntentID == nil {
		return false
	}
	intentID := *d.PaymentIntentID
	logger := r.logger.With("donation_id", d.ID, "intent_id", intentID)

	// Rotate the row to the back of the queue so open intents cannot starve newer ones.
	if err := r.donations.MarkPolled(ctx, d.ID, r.now()); err != nil {
		logger.Warn("failed to record poll", "error", err)
	}

	var outcome domain.PaymentOutcome
	intent, err := r.processor.GetIntent(ctx, intentID)
	switch {
	case err == nil:
		var final bool
		outcome, final = intent.Outcome()
		if !final {
			logger.Debug("intent still open", "status", intent.Status)
			return false
		}
	case isMissingIntent(err):
		outcome = domain.OutcomeCanceled
	default:
		logger.Warn("failed to fetch intent", "error", err)
		return false
	}

	applied, err := r.applier.ApplyOutcome(ctx, "", "reconciler.poll", intentID, outcome)
	if err != nil {
		logger.Error("reconciliation failed", "outcome", outcome, "error", err)
		return false
	}
	if applied {
		logger.Info("reconciled stale donation", "outcome", outcome)
	}
	return applied
}

// isMissingIntent reports an intent the processor no longer knows about. Other
// 404s, such as a key for the wrong account, leave the donation untouched.
func isMissingIntent(err error) bool {
	procErr, ok := processor.IsProcessorError(err)
	return ok && procErr.StatusCode == http.StatusNotFound && procErr.Code == processor.CodeResourceMissing
}
