package postgres

import (
	"context"
	"fmt"
)

type WebhookEventRepository struct {
	q Executor
}

func NewWebhookEventRepository(db *DB) *WebhookEventRepository {
	return &WebhookEventRepository{q: db.Pool}
}

// MarkProcessed records eventID. Inside a transaction a concurrent delivery
// of the same event blocks on the primary key until this one commits or
// rolls back.
func (r *WebhookEventRepository) MarkProcessed(ctx context.Context, eventID, eventType string) (bool, error) {
	query := `
		INSERT INTO webhook_events (event_id, event_type)
		VALUES ($1, $2)
		ON CONFLICT (event_id) DO NOTHING
	`

	result, err := r.q.Exec(ctx, query, eventID, eventType)
	if err != nil {
		return false, fmt.Errorf("failed to record webhook event: %w", err)
	}
	return result.RowsAffected() == 1, nil
}
