package model

import "time"

// GovernorState is the persisted snapshot of a mailbox's sending health. The
// governor owns the live copy in memory; rows here exist so a restart does not
// silently clear an active pause.
type GovernorState struct {
	Mailbox             string        `db:"mailbox" json:"mailbox"`
	ConsecutiveFailures int           `db:"consecutive_failures" json:"consecutive_failures"`
	AbuseSignals        int           `db:"abuse_signals" json:"abuse_signals"`
	CurrentDelay        time.Duration `db:"current_delay_ms" json:"current_delay"`
	PausedUntil         *time.Time    `db:"paused_until" json:"paused_until,omitempty"`
	PauseReason         string        `db:"pause_reason" json:"pause_reason,omitempty"`
	UpdatedAt           time.Time     `db:"updated_at" json:"updated_at"`
}
