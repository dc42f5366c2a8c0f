package executor

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/leadloft/outreach-backend/internal/compose"
	"github.com/leadloft/outreach-backend/internal/gate"
	"github.com/leadloft/outreach-backend/internal/governor"
	"github.com/leadloft/outreach-backend/internal/lifecycle"
	"github.com/leadloft/outreach-backend/internal/model"
	"github.com/leadloft/outreach-backend/internal/repository"
)

// Sender delivers one composed email. The error detail, when present, is the
// raw provider error text the governor classifies.
type Sender interface {
	Send(ctx context.Context, recipient, subject, body string) (success bool, errorDetail string)
}

// Executor drives one campaign run: walk the active enrollments in insertion
// order, gate each send on quota, window and governor, compose, send, record
// the outcome and advance state, pacing itself with the configured delay.
//
// Active enrollments are re-queried every iteration rather than snapshotted
// at run start, so contacts enrolled mid-run are picked up and an external
// pause takes effect within one contact-processing-plus-delay interval.
type Executor struct {
	Campaigns   repository.CampaignRepositoryInterface
	Enrollments repository.EnrollmentRepositoryInterface
	Outcomes    repository.OutcomeRepositoryInterface
	Lifecycle   *lifecycle.Machine
	Gate        *gate.Gate
	Governor    *governor.Governor
	Composer    compose.Composer
	Sender      Sender

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) bool
}

func (e *Executor) clock() time.Time {
	if e.now != nil {
		return e.now()
	}
	return time.Now()
}

// pace blocks for the inter-send delay. Returns false when the context was
// cancelled, which ends the run.
func (e *Executor) pace(ctx context.Context, d time.Duration) bool {
	if e.sleep != nil {
		return e.sleep(ctx, d)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// Run executes one campaign run. A returned error means an infrastructure
// failure; per-contact send failures are absorbed into enrollment state and
// never abort the run.
func (e *Executor) Run(ctx context.Context, campaignID int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("executor: campaign %d run panicked: %v", campaignID, r)
			e.markFailed(ctx, campaignID)
			err = fmt.Errorf("campaign %d run panicked: %v", campaignID, r)
		}
	}()

	c, err := e.Campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return err
	}
	if c.Status == model.CampaignPaused {
		log.Printf("executor: campaign %d is paused, skipping run", campaignID)
		return nil
	}
	if err := e.Lifecycle.Activate(ctx, campaignID); err != nil {
		return err
	}

	for {
		// Cooperative cancellation point: an external pause takes effect
		// here, not mid-send.
		c, err = e.Campaigns.GetByID(ctx, campaignID)
		if err != nil {
			e.markFailed(ctx, campaignID)
			return err
		}
		if c.Status == model.CampaignPaused {
			log.Printf("executor: campaign %d paused externally, stopping run", campaignID)
			return nil
		}

		active, err := e.Enrollments.ListByStatus(ctx, campaignID, model.EnrollmentActive)
		if err != nil {
			e.markFailed(ctx, campaignID)
			return err
		}
		if len(active) == 0 {
			if err := e.Lifecycle.Complete(ctx, campaignID); err != nil {
				return err
			}
			log.Printf("executor: campaign %d completed", campaignID)
			return nil
		}

		remaining, err := e.Gate.QuotaRemaining(ctx, campaignID, c.Settings, e.clock())
		if err != nil {
			e.markFailed(ctx, campaignID)
			return err
		}
		if remaining <= 0 {
			// Campaign stays active; the next scheduled run resumes it.
			log.Printf("executor: campaign %d daily quota reached, stopping run", campaignID)
			return nil
		}
		if !gate.WithinWindow(c.Settings, e.clock()) {
			log.Printf("executor: campaign %d outside business hours, stopping run", campaignID)
			return nil
		}
		if ok, reason := e.Governor.CanSend(); !ok {
			log.Printf("executor: campaign %d mailbox unavailable (%s), stopping run", campaignID, reason)
			return nil
		}

		target := active[0]

		email, composeErr := e.Composer.Compose(ctx, target.ContactEmail, c)
		if composeErr != nil || email.Empty() {
			// Composition failure is per-contact, not fatal to the loop.
			if composeErr != nil {
				log.Printf("executor: composition failed for %s: %v", target.ContactEmail, composeErr)
			}
			if _, err := e.Lifecycle.MarkEnrollment(ctx, campaignID, target.ContactEmail, model.EnrollmentFailed); err != nil {
				e.markFailed(ctx, campaignID)
				return err
			}
			continue
		}

		success, detail := e.Sender.Send(ctx, target.ContactEmail, email.Subject, email.Body)

		outcome := &model.SendOutcome{
			CampaignID:  campaignID,
			Recipient:   target.ContactEmail,
			Status:      model.OutcomeSent,
			ErrorDetail: detail,
			SentAt:      e.clock(),
		}
		if !success {
			outcome.Status = model.OutcomeFailed
		}
		if err := e.Outcomes.Insert(ctx, outcome); err != nil {
			e.markFailed(ctx, campaignID)
			return err
		}

		e.Governor.RecordAttempt(ctx, success, detail)

		next := model.EnrollmentCompleted
		if !success {
			next = model.EnrollmentFailed
		}
		// Failing to advance the enrollment is an infrastructure error: the
		// contact would stay active and the re-query loop would send to them
		// again.
		if _, err := e.Lifecycle.MarkEnrollment(ctx, campaignID, target.ContactEmail, next); err != nil {
			e.markFailed(ctx, campaignID)
			return err
		}

		// Pace before the next contact. The sleep is itself a cancellation
		// point; the loop re-checks campaign status right after.
		if len(active) > 1 {
			if !e.pace(ctx, c.Settings.SendFrequency.Duration()) {
				return nil
			}
		}
	}
}

func (e *Executor) markFailed(ctx context.Context, campaignID int) {
	if err := e.Lifecycle.Fail(ctx, campaignID); err != nil {
		log.Printf("executor: failed to mark campaign %d failed: %v", campaignID, err)
	}
}
