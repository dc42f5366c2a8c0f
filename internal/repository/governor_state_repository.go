package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/leadloft/outreach-backend/internal/model"
)

type GovernorStateRepositoryInterface interface {
	Load(ctx context.Context, mailbox string) (*model.GovernorState, error)
	Save(ctx context.Context, state *model.GovernorState) error
}

type GovernorStateRepository struct {
	DB *sql.DB
}

// Load returns nil when no snapshot exists for the mailbox yet.
func (r *GovernorStateRepository) Load(ctx context.Context, mailbox string) (*model.GovernorState, error) {
	query := `
        SELECT mailbox, consecutive_failures, abuse_signals, current_delay_ms, paused_until, pause_reason, updated_at
        FROM governor_state
        WHERE mailbox=$1
    `
	var s model.GovernorState
	var delayMs int64
	var reason sql.NullString
	err := r.DB.QueryRowContext(ctx, query, mailbox).Scan(
		&s.Mailbox, &s.ConsecutiveFailures, &s.AbuseSignals, &delayMs, &s.PausedUntil, &reason, &s.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	s.CurrentDelay = time.Duration(delayMs) * time.Millisecond
	if reason.Valid {
		s.PauseReason = reason.String
	}
	return &s, nil
}

func (r *GovernorStateRepository) Save(ctx context.Context, state *model.GovernorState) error {
	query := `
        INSERT INTO governor_state (mailbox, consecutive_failures, abuse_signals, current_delay_ms, paused_until, pause_reason, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, NOW())
        ON CONFLICT (mailbox)
        DO UPDATE SET
            consecutive_failures=EXCLUDED.consecutive_failures,
            abuse_signals=EXCLUDED.abuse_signals,
            current_delay_ms=EXCLUDED.current_delay_ms,
            paused_until=EXCLUDED.paused_until,
            pause_reason=EXCLUDED.pause_reason,
            updated_at=NOW()
    `
	_, err := r.DB.ExecContext(ctx, query,
		state.Mailbox,
		state.ConsecutiveFailures,
		state.AbuseSignals,
		state.CurrentDelay.Milliseconds(),
		state.PausedUntil,
		state.PauseReason,
	)
	return err
}

var _ GovernorStateRepositoryInterface = (*GovernorStateRepository)(nil)
