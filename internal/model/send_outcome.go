package model

import "time"

type OutcomeStatus string

const (
	OutcomeSent   OutcomeStatus = "sent"
	OutcomeFailed OutcomeStatus = "failed"
)

// SendOutcome is the immutable record of one attempted send. Rows are written
// once and never updated; the daily quota counter and the governor's failure
// classification both read from here.
type SendOutcome struct {
	ID          int           `db:"id" json:"id"`
	CampaignID  int           `db:"campaign_id" json:"campaign_id"`
	Recipient   string        `db:"recipient" json:"recipient"`
	Status      OutcomeStatus `db:"status" json:"status"`
	ErrorDetail string        `db:"error_detail" json:"error_detail,omitempty"`
	SentAt      time.Time     `db:"sent_at" json:"sent_at"`
}
