package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/leadloft/outreach-backend/internal/model"
)

type OutcomeRepositoryInterface interface {
	Insert(ctx context.Context, o *model.SendOutcome) error
	CountSentBetween(ctx context.Context, campaignID int, from, to time.Time) (int, error)
}

type OutcomeRepository struct {
	DB *sql.DB
}

// Insert records one attempted send. Outcome rows are append-only.
func (r *OutcomeRepository) Insert(ctx context.Context, o *model.SendOutcome) error {
	if o.SentAt.IsZero() {
		o.SentAt = time.Now()
	}
	query := `
        INSERT INTO send_outcomes (campaign_id, recipient, status, error_detail, sent_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id
    `
	return r.DB.QueryRowContext(ctx, query,
		o.CampaignID, o.Recipient, o.Status, o.ErrorDetail, o.SentAt,
	).Scan(&o.ID)
}

// CountSentBetween counts successful sends in [from, to). The gate passes the
// calendar-day bounds computed in the campaign timezone.
func (r *OutcomeRepository) CountSentBetween(ctx context.Context, campaignID int, from, to time.Time) (int, error) {
	query := `
        SELECT COUNT(*) FROM send_outcomes
        WHERE campaign_id=$1 AND status=$2 AND sent_at >= $3 AND sent_at < $4
    `
	var count int
	err := r.DB.QueryRowContext(ctx, query, campaignID, model.OutcomeSent, from, to).Scan(&count)
	return count, err
}

var _ OutcomeRepositoryInterface = (*OutcomeRepository)(nil)
