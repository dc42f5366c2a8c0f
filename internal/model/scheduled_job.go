package model

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// ScheduledJob is a persisted "run this campaign" trigger. Immediate triggers
// carry TriggerAt == enqueue time. At most one pending/running job exists per
// campaign; enqueueing again replaces the outstanding one.
type ScheduledJob struct {
	ID         uuid.UUID `db:"id" json:"id"`
	CampaignID int       `db:"campaign_id" json:"campaign_id"`
	TriggerAt  time.Time `db:"trigger_at" json:"trigger_at"`
	Status     JobStatus `db:"status" json:"status"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
