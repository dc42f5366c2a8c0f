package lifecycle

import (
	"context"
	"log"
	"time"

	appErrors "github.com/leadloft/outreach-backend/internal/errors"
	"github.com/leadloft/outreach-backend/internal/model"
	"github.com/leadloft/outreach-backend/internal/repository"
)

// campaignTransitions lists the allowed status moves. Statuses absent from a
// set are rejected; completed and failed are terminal.
var campaignTransitions = map[model.CampaignStatus][]model.CampaignStatus{
	model.CampaignDraft:     {model.CampaignScheduled, model.CampaignActive},
	model.CampaignScheduled: {model.CampaignScheduled, model.CampaignActive, model.CampaignPaused},
	model.CampaignActive:    {model.CampaignActive, model.CampaignPaused, model.CampaignCompleted, model.CampaignFailed},
	model.CampaignPaused:    {model.CampaignScheduled, model.CampaignActive},
}

func canTransition(from, to model.CampaignStatus) bool {
	for _, allowed := range campaignTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Machine owns every campaign and enrollment status write. No other component
// mutates those columns directly.
type Machine struct {
	Campaigns   repository.CampaignRepositoryInterface
	Enrollments repository.EnrollmentRepositoryInterface
}

// Schedule moves a campaign toward running: with a future timestamp it goes
// to scheduled, without one it activates immediately.
func (m *Machine) Schedule(ctx context.Context, campaignID int, at *time.Time) error {
	c, err := m.Campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return err
	}

	target := model.CampaignActive
	if at != nil {
		target = model.CampaignScheduled
	}
	if !canTransition(c.Status, target) {
		return appErrors.NewInvalidTransition(campaignID, string(c.Status), string(target))
	}
	return m.Campaigns.UpdateSchedule(ctx, campaignID, target, at)
}

// Pause is idempotent: pausing an already-paused campaign is a no-op.
func (m *Machine) Pause(ctx context.Context, campaignID int) error {
	c, err := m.Campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return err
	}
	if c.Status == model.CampaignPaused {
		return nil
	}
	if !canTransition(c.Status, model.CampaignPaused) {
		return appErrors.NewInvalidTransition(campaignID, string(c.Status), string(model.CampaignPaused))
	}
	return m.Campaigns.UpdateStatus(ctx, campaignID, model.CampaignPaused)
}

// Resume re-activates a paused campaign. A paused campaign with no active
// enrollments left has nothing to resume and stays paused.
func (m *Machine) Resume(ctx context.Context, campaignID int) error {
	c, err := m.Campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return err
	}
	if c.Status != model.CampaignPaused {
		return appErrors.NewInvalidTransition(campaignID, string(c.Status), string(model.CampaignActive))
	}
	counts, err := m.Enrollments.CountByStatus(ctx, campaignID)
	if err != nil {
		return err
	}
	if counts[model.EnrollmentActive] == 0 {
		return appErrors.NewInvalidTransition(campaignID, string(c.Status), string(model.CampaignActive))
	}
	return m.Campaigns.UpdateStatus(ctx, campaignID, model.CampaignActive)
}

// Activate marks a campaign active at the start of an executor run.
func (m *Machine) Activate(ctx context.Context, campaignID int) error {
	c, err := m.Campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return err
	}
	if c.Status == model.CampaignActive {
		return nil
	}
	if !canTransition(c.Status, model.CampaignActive) {
		return appErrors.NewInvalidTransition(campaignID, string(c.Status), string(model.CampaignActive))
	}
	return m.Campaigns.UpdateStatus(ctx, campaignID, model.CampaignActive)
}

// Complete is terminal; the campaign never re-enters active without a new
// enrollment batch and an explicit re-schedule.
func (m *Machine) Complete(ctx context.Context, campaignID int) error {
	return m.terminal(ctx, campaignID, model.CampaignCompleted)
}

// Fail is terminal, reserved for infrastructure errors during a run.
func (m *Machine) Fail(ctx context.Context, campaignID int) error {
	return m.terminal(ctx, campaignID, model.CampaignFailed)
}

func (m *Machine) terminal(ctx context.Context, campaignID int, target model.CampaignStatus) error {
	c, err := m.Campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return err
	}
	if !canTransition(c.Status, target) {
		return appErrors.NewInvalidTransition(campaignID, string(c.Status), string(target))
	}
	return m.Campaigns.UpdateStatus(ctx, campaignID, target)
}

// MarkEnrollment updates one enrollment row. A missing pair is logged and
// reported as false, never as an error; callers treat it as "already removed".
// A store error is returned as-is so callers can abort the run.
func (m *Machine) MarkEnrollment(ctx context.Context, campaignID int, contactEmail string, status model.EnrollmentStatus) (bool, error) {
	updated, err := m.Enrollments.UpdateStatus(ctx, campaignID, contactEmail, status)
	if err != nil {
		return false, err
	}
	if !updated {
		log.Printf("lifecycle: enrollment not found campaign=%d contact=%s", campaignID, contactEmail)
	}
	return updated, nil
}
