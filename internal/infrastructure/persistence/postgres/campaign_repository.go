package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/DanielPopoola/church-donations/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const campaignColumns = `
	id, name, description, goal_amount_cents, current_amount_cents,
	start_date, end_date, is_active, is_featured, created_at`

type CampaignRepository struct {
	q Executor
}

func NewCampaignRepository(db *DB) *CampaignRepository {
	return &CampaignRepository{q: db.Pool}
}

// Create inserts a campaign. Campaigns are managed by staff tooling; the
// service itself only reads them and credits their totals.
func (r *CampaignRepository) Create(ctx context.Context, c *domain.Campaign) error {
	query := `
		INSERT INTO donation_campaigns (` + campaignColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.q.Exec(ctx, query,
		c.ID, c.Name, c.Description, c.GoalCents, c.CurrentCents,
		c.StartDate, c.EndDate, c.IsActive, c.IsFeatured, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}
	return nil
}

func (r *CampaignRepository) FindByID(ctx context.Context, id string) (*domain.Campaign, error) {
	if uuid.Validate(id) != nil {
		return nil, domain.ErrCampaignNotFound
	}
	query := `SELECT ` + campaignColumns + ` FROM donation_campaigns WHERE id = $1`

	m, err := scanCampaignModel(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCampaignNotFound
		}
		return nil, fmt.Errorf("failed to scan campaign: %w", err)
	}
	return toDomainCampaign(m), nil
}

// FindActive lists active campaigns, featured first then newest.
func (r *CampaignRepository) FindActive(ctx context.Context) ([]*domain.Campaign, error) {
	query := `
		SELECT ` + campaignColumns + `
		FROM donation_campaigns
		WHERE is_active
		ORDER BY is_featured DESC, start_date DESC
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query active campaigns: %w", err)
	}

	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Campaign, error) {
		m, err := scanCampaignModel(row)
		return toDomainCampaign(m), err
	})
	if err != nil {
		return nil, fmt.Errorf("scan active campaigns: %w", err)
	}
	return results, nil
}

func (r *CampaignRepository) CountActive(ctx context.Context) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM donation_campaigns WHERE is_active`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count active campaigns: %w", err)
	}
	return n, nil
}

// Credit increments the running total in place so concurrent credits never
// overwrite each other.
func (r *CampaignRepository) Credit(ctx context.Context, campaignID string, amountCents int64) error {
	query := `
		UPDATE donation_campaigns
		SET current_amount_cents = current_amount_cents + $1,
			updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.q.Exec(ctx, query, amountCents, campaignID)
	if err != nil {
		return fmt.Errorf("failed to credit campaign: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrCampaignNotFound
	}
	return nil
}

func scanCampaignModel(row pgx.Row) (CampaignModel, error) {
	var m CampaignModel
	err := row.Scan(
		&m.ID, &m.Name, &m.Description, &m.GoalAmountCents, &m.CurrentAmountCents,
		&m.StartDate, &m.EndDate, &m.IsActive, &m.IsFeatured, &m.CreatedAt,
	)
	return m, err
}
