package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DanielPopoola/church-donations/internal/application"
	"github.com/DanielPopoola/church-donations/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const donationColumns = `
	id, donor_user_id, donor_name, donor_email, donor_phone,
	amount_cents, currency, donation_type, campaign_id, message, payment_method, status,
	transaction_id, payment_intent_id, is_anonymous, show_amount,
	processed_at, receipt_sent, created_at, updated_at`

type DonationRepository struct {
	q Executor
}

func NewDonationRepository(db *DB) *DonationRepository {
	return &DonationRepository{q: db.Pool}
}

func (r *DonationRepository) Create(ctx context.Context, donation *domain.Donation) error {
	query := `
		INSERT INTO donations (` + donationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`

	m := toDonationModel(donation)
	_, err := r.q.Exec(ctx, query,
		m.ID, m.DonorUserID, m.DonorName, m.DonorEmail, m.DonorPhone,
		m.AmountCents, m.Currency, m.DonationType, m.CampaignID, m.Message, m.PaymentMethod, m.Status,
		m.TransactionID, m.PaymentIntentID, m.IsAnonymous, m.ShowAmount,
		m.ProcessedAt, m.ReceiptSent, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("donation %s already exists: %w", donation.ID, err)
		}
		return fmt.Errorf("failed to create donation: %w", err)
	}

	return nil
}

// FindByID retrieves a donation
func (r *DonationRepository) FindByID(ctx context.Context, id string) (*domain.Donation, error) {
	if uuid.Validate(id) != nil {
		return nil, domain.ErrDonationNotFound
	}
	query := `SELECT ` + donationColumns + ` FROM donations WHERE id = $1`
	return scanDonation(r.q.QueryRow(ctx, query, id))
}

// FindByIDForUpdate retrieves a donation with row-level lock
func (r *DonationRepository) FindByIDForUpdate(ctx context.Context, id string) (*domain.Donation, error) {
	if uuid.Validate(id) != nil {
		return nil, domain.ErrDonationNotFound
	}
	query := `SELECT ` + donationColumns + ` FROM donations WHERE id = $1 FOR UPDATE`
	return scanDonation(r.q.QueryRow(ctx, query, id))
}

// FindByPaymentIntentIDForUpdate locks the donation that owns a processor intent.
func (r *DonationRepository) FindByPaymentIntentIDForUpdate(ctx context.Context, intentID string) (*domain.Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donations WHERE payment_intent_id = $1 FOR UPDATE`
	return scanDonation(r.q.QueryRow(ctx, query, intentID))
}

func (r *DonationRepository) Update(ctx context.Context, donation *domain.Donation) error {
	query := `
		UPDATE donations
		SET status = $1,
			transaction_id = $2, payment_intent_id = $3,
			processed_at = $4, receipt_sent = $5, updated_at = $6
		WHERE id = $7
	`

	m := toDonationModel(donation)
	result, err := r.q.Exec(ctx, query,
		m.Status,
		m.TransactionID,
		m.PaymentIntentID,
		m.ProcessedAt,
		m.ReceiptSent,
		m.UpdatedAt,
		m.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update donation: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrDonationNotFound
	}

	return nil
}

// FindStaleProcessing finds donations that have been waiting on the processor
// since before cutoff. Never-polled rows come first, then the least recently polled.
func (r *DonationRepository) FindStaleProcessing(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Donation, error) {
	query := `
		SELECT ` + donationColumns + `
		FROM donations
		WHERE status = 'processing'
		  AND updated_at < $1
		ORDER BY last_polled_at ASC NULLS FIRST, updated_at ASC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("query stale processing donations: %w", err)
	}

	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Donation, error) {
		m, err := scanDonationModel(row)
		return toDomainDonation(m), err
	})
	if err != nil {
		return nil, fmt.Errorf("scan stale processing donations: %w", err)
	}
	return results, nil
}

// MarkPolled records when the reconciler last asked the processor about a donation.
func (r *DonationRepository) MarkPolled(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE donations SET last_polled_at = $2 WHERE id = $1 AND status = 'processing'`

	if _, err := r.q.Exec(ctx, query, id, at); err != nil {
		return fmt.Errorf("mark donation polled: %w", err)
	}
	return nil
}

// FindCompletedByUser lists a registered donor's completed donations, newest first.
func (r *DonationRepository) FindCompletedByUser(ctx context.Context, userID string) ([]application.DonationHistoryEntry, error) {
	query := `
		SELECT d.id, d.amount_cents, d.currency, d.donation_type, c.name,
		       d.payment_method, d.status, d.created_at
		FROM donations d
		LEFT JOIN donation_campaigns c ON c.id = d.campaign_id
		WHERE d.donor_user_id = $1
		  AND d.status = 'completed'
		ORDER BY d.created_at DESC
	`

	rows, err := r.q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query donation history: %w", err)
	}

	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (application.DonationHistoryEntry, error) {
		var (
			e                        application.DonationHistoryEntry
			category, method, status string
		)
		err := row.Scan(&e.ID, &e.AmountCents, &e.Currency, &category, &e.CampaignName, &method, &status, &e.CreatedAt)
		e.Category = domain.Category(category)
		e.PaymentMethod = domain.PaymentMethod(method)
		e.Status = domain.DonationStatus(status)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan donation history: %w", err)
	}
	return results, nil
}

// Totals sums completed donations overall and since monthStart.
func (r *DonationRepository) Totals(ctx context.Context, monthStart time.Time) (application.DonationTotals, error) {
	query := `
		SELECT COALESCE(SUM(amount_cents), 0)::BIGINT,
		       COUNT(*),
		       COALESCE(SUM(amount_cents) FILTER (WHERE created_at >= $1), 0)::BIGINT,
		       COUNT(*) FILTER (WHERE created_at >= $1)
		FROM donations
		WHERE status = 'completed'
	`

	var t application.DonationTotals
	err := r.q.QueryRow(ctx, query, monthStart).Scan(&t.TotalCents, &t.TotalCount, &t.MonthTotalCents, &t.MonthCount)
	if err != nil {
		return application.DonationTotals{}, fmt.Errorf("sum donations: %w", err)
	}
	return t, nil
}

func scanDonationModel(row pgx.Row) (DonationModel, error) {
	var m DonationModel
	err := row.Scan(
		&m.ID, &m.DonorUserID, &m.DonorName, &m.DonorEmail, &m.DonorPhone,
		&m.AmountCents, &m.Currency, &m.DonationType, &m.CampaignID, &m.Message, &m.PaymentMethod, &m.Status,
		&m.TransactionID, &m.PaymentIntentID, &m.IsAnonymous, &m.ShowAmount,
		&m.ProcessedAt, &m.ReceiptSent, &m.CreatedAt, &m.UpdatedAt,
	)
	return m, err
}

// scanDonation converts a database row into a domain Donation.
// Returns ErrDonationNotFound if the row doesn't exist.
func scanDonation(row pgx.Row) (*domain.Donation, error) {
	m, err := scanDonationModel(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDonationNotFound
		}
		return nil, fmt.Errorf("failed to scan donation: %w", err)
	}
	return toDomainDonation(m), nil
}
