package appErrors

import (
	"fmt"
	"time"
)

// ErrCampaignNotFound is a sentinel error
type ErrCampaignNotFound struct {
	CampaignID int
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign with ID %d not found", e.CampaignID)
}

// Helper constructor
func NewCampaignNotFound(id int) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

// ErrInvalidSchedule rejects enqueue requests with a trigger time in the past.
type ErrInvalidSchedule struct {
	TriggerAt time.Time
}

func (e *ErrInvalidSchedule) Error() string {
	return fmt.Sprintf("schedule time %s is in the past", e.TriggerAt.Format(time.RFC3339))
}

func NewInvalidSchedule(at time.Time) error {
	return &ErrInvalidSchedule{TriggerAt: at}
}

// ErrInvalidTransition marks a campaign status change the lifecycle tables do
// not allow.
type ErrInvalidTransition struct {
	CampaignID int
	From, To   string
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("campaign %d cannot transition from %s to %s", e.CampaignID, e.From, e.To)
}

func NewInvalidTransition(id int, from, to string) error {
	return &ErrInvalidTransition{CampaignID: id, From: from, To: to}
}
