package model

import "time"

type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentFailed    EnrollmentStatus = "failed"
	EnrollmentPaused    EnrollmentStatus = "paused"
)

// CampaignEnrollment joins one contact to one campaign. At most one row exists
// per (campaign_id, contact_email); re-enrolling updates the existing row.
type CampaignEnrollment struct {
	ID           int              `db:"id" json:"id"`
	CampaignID   int              `db:"campaign_id" json:"campaign_id"`
	ContactEmail string           `db:"contact_email" json:"contact_email"`
	Status       EnrollmentStatus `db:"status" json:"status"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updated_at"`
}
