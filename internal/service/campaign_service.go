package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/leadloft/outreach-backend/internal/cache"
	appErrors "github.com/leadloft/outreach-backend/internal/errors"
	"github.com/leadloft/outreach-backend/internal/governor"
	"github.com/leadloft/outreach-backend/internal/lifecycle"
	"github.com/leadloft/outreach-backend/internal/model"
	"github.com/leadloft/outreach-backend/internal/repository"
	"github.com/leadloft/outreach-backend/internal/scheduler"
)

// CampaignService exposes the operator-facing controls: campaign CRUD,
// enrollment, schedule/pause/resume and the combined status query.
type CampaignService struct {
	CampaignRepo   repository.CampaignRepositoryInterface
	EnrollmentRepo repository.EnrollmentRepositoryInterface
	JobRepo        repository.JobRepositoryInterface
	Lifecycle      *lifecycle.Machine
	Scheduler      *scheduler.Scheduler
	Governor       *governor.Governor
	Cache          cache.StatusCache // optional
}

// CampaignStatusView combines campaign state, enrollment counts, the pending
// trigger and the governor snapshot for the status endpoint.
type CampaignStatusView struct {
	Campaign    *model.Campaign                `json:"campaign"`
	Enrollments map[model.EnrollmentStatus]int `json:"enrollments"`
	NextTrigger *model.ScheduledJob            `json:"next_trigger,omitempty"`
	Governor    model.GovernorState            `json:"governor"`
}

func (s *CampaignService) CreateCampaign(ctx context.Context, name, subject, baseTemplate string, settings model.CampaignSettings) (*model.Campaign, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	c := &model.Campaign{
		Name:         name,
		Subject:      subject,
		BaseTemplate: baseTemplate,
		Status:       model.CampaignDraft,
		Settings:     settings,
	}
	if err := s.CampaignRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ListCampaigns fetches campaigns with pagination
func (s *CampaignService) ListCampaigns(ctx context.Context, page, pageSize int, status string) ([]model.Campaign, map[string]int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	ptrs, total, err := s.CampaignRepo.List(ctx, offset, pageSize, status)
	if err != nil {
		return nil, nil, err
	}

	campaigns := make([]model.Campaign, len(ptrs))
	for i, c := range ptrs {
		campaigns[i] = *c
	}

	totalPages := (total + pageSize - 1) / pageSize
	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": totalPages,
	}

	return campaigns, pagination, nil
}

func (s *CampaignService) GetCampaign(ctx context.Context, id int) (*model.Campaign, error) {
	return s.CampaignRepo.GetByID(ctx, id)
}

// Enroll upserts a batch of contacts into a campaign as active. Re-enrolling
// an existing pair reactivates it rather than duplicating.
func (s *CampaignService) Enroll(ctx context.Context, campaignID int, emails []string) (int, error) {
	if _, err := s.CampaignRepo.GetByID(ctx, campaignID); err != nil {
		return 0, err
	}

	enrolled := 0
	for _, email := range emails {
		if email == "" {
			continue
		}
		if err := s.EnrollmentRepo.Upsert(ctx, campaignID, email, model.EnrollmentActive); err != nil {
			return enrolled, err
		}
		enrolled++
	}
	s.invalidate(ctx, campaignID)
	return enrolled, nil
}

// ScheduleNow activates the campaign and enqueues an immediate run.
func (s *CampaignService) ScheduleNow(ctx context.Context, campaignID int) (*model.ScheduledJob, error) {
	if err := s.Lifecycle.Schedule(ctx, campaignID, nil); err != nil {
		return nil, err
	}
	job, err := s.Scheduler.EnqueueImmediate(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, campaignID)
	return job, nil
}

// ScheduleAt marks the campaign scheduled and enqueues a run at the given
// future timestamp.
func (s *CampaignService) ScheduleAt(ctx context.Context, campaignID int, at time.Time) (*model.ScheduledJob, error) {
	if !at.After(time.Now()) {
		return nil, appErrors.NewInvalidSchedule(at)
	}
	if err := s.Lifecycle.Schedule(ctx, campaignID, &at); err != nil {
		return nil, err
	}
	job, err := s.Scheduler.EnqueueAt(ctx, campaignID, at)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, campaignID)
	return job, nil
}

// Pause stops the campaign cooperatively: a run in flight finishes its
// current contact and stops at the next iteration.
func (s *CampaignService) Pause(ctx context.Context, campaignID int) error {
	if err := s.Lifecycle.Pause(ctx, campaignID); err != nil {
		return err
	}
	s.invalidate(ctx, campaignID)
	return nil
}

// Resume re-activates a paused campaign and re-triggers the immediate-run
// path. The run re-derives active enrollments from durable state.
func (s *CampaignService) Resume(ctx context.Context, campaignID int) error {
	if err := s.Lifecycle.Resume(ctx, campaignID); err != nil {
		return err
	}
	if _, err := s.Scheduler.EnqueueImmediate(ctx, campaignID); err != nil {
		return err
	}
	s.invalidate(ctx, campaignID)
	return nil
}

// Status returns the combined campaign/enrollment/governor view, served from
// the cache when a fresh copy exists.
func (s *CampaignService) Status(ctx context.Context, campaignID int) (*CampaignStatusView, error) {
	if s.Cache != nil {
		if payload, ok, err := s.Cache.GetStatus(ctx, campaignID); err == nil && ok {
			var view CampaignStatusView
			if err := json.Unmarshal(payload, &view); err == nil {
				return &view, nil
			}
		}
	}

	c, err := s.CampaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	counts, err := s.EnrollmentRepo.CountByStatus(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	job, err := s.JobRepo.GetOutstanding(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	view := &CampaignStatusView{
		Campaign:    c,
		Enrollments: counts,
		NextTrigger: job,
		Governor:    s.Governor.Status(),
	}

	if s.Cache != nil {
		if payload, err := json.Marshal(view); err == nil {
			if err := s.Cache.StoreStatus(ctx, campaignID, payload); err != nil {
				log.Println("service: failed to cache status:", err)
			}
		}
	}
	return view, nil
}

func (s *CampaignService) invalidate(ctx context.Context, campaignID int) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Invalidate(ctx, campaignID); err != nil {
		log.Println("service: failed to invalidate status cache:", err)
	}
}
