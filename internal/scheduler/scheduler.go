package scheduler

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/leadloft/outreach-backend/internal/errors"
	"github.com/leadloft/outreach-backend/internal/model"
	"github.com/leadloft/outreach-backend/internal/queue"
	"github.com/leadloft/outreach-backend/internal/repository"
)

// Scheduler is the durable trigger layer. Jobs live in Postgres so pending
// work survives a restart; the queue only wakes workers up.
type Scheduler struct {
	jobs         repository.JobRepositoryInterface
	queue        queue.Queue
	pollInterval time.Duration
	batchSize    int
	now          func() time.Time

	running atomic.Bool
	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
}

func New(jobs repository.JobRepositoryInterface, q queue.Queue, pollInterval time.Duration, batchSize int) (*Scheduler, error) {
	if pollInterval <= 0 {
		return nil, errors.New("poll interval must be > 0")
	}
	if batchSize <= 0 {
		return nil, errors.New("batch size must be > 0")
	}
	return &Scheduler{
		jobs:         jobs,
		queue:        q,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		now:          time.Now,
	}, nil
}

// EnqueueImmediate persists a pending run-now job, replacing any outstanding
// job for the campaign.
func (s *Scheduler) EnqueueImmediate(ctx context.Context, campaignID int) (*model.ScheduledJob, error) {
	job := &model.ScheduledJob{
		ID:         uuid.New(),
		CampaignID: campaignID,
		TriggerAt:  s.now(),
	}
	if err := s.jobs.ReplaceForCampaign(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// EnqueueAt persists a pending job triggered at a future timestamp. Past
// timestamps are rejected synchronously.
func (s *Scheduler) EnqueueAt(ctx context.Context, campaignID int, at time.Time) (*model.ScheduledJob, error) {
	if !at.After(s.now()) {
		return nil, appErrors.NewInvalidSchedule(at)
	}
	job := &model.ScheduledJob{
		ID:         uuid.New(),
		CampaignID: campaignID,
		TriggerAt:  at,
	}
	if err := s.jobs.ReplaceForCampaign(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// RecoverOnStartup re-pends jobs a crashed process left running. The hosting
// process must call this exactly once per start, before accepting new
// schedule requests. Recovered jobs are already due, so the next dispatch
// tick picks them up; each orphan is re-dispatched at most once.
func (s *Scheduler) RecoverOnStartup(ctx context.Context) (int, error) {
	orphans, err := s.jobs.RecoverOrphans(ctx)
	if err != nil {
		return 0, err
	}
	for _, j := range orphans {
		log.Printf("scheduler: recovered orphaned job %s for campaign %d", j.ID, j.CampaignID)
	}
	return len(orphans), nil
}

// Start launches the dispatch loop. Returns false when already running.
func (s *Scheduler) Start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running.Load() {
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running.Store(true)

	go func() {
		defer close(s.done)

		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()

		log.Printf("scheduler: dispatch loop started (poll=%s batch=%d)", s.pollInterval, s.batchSize)

		s.tick(ctx)

		for {
			select {
			case <-ctx.Done():
				log.Println("scheduler: dispatch loop stopping")
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()

	return true
}

// Stop halts the dispatch loop. Returns false when not running.
func (s *Scheduler) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running.Load() {
		return false
	}

	s.cancel()
	<-s.done
	s.running.Store(false)
	return true
}

func (s *Scheduler) IsRunning() bool {
	return s.running.Load()
}

// tick claims due jobs, marks them running and hands them to workers.
func (s *Scheduler) tick(ctx context.Context) {
	due, err := s.jobs.ClaimDue(ctx, s.now(), s.batchSize)
	if err != nil {
		log.Println("scheduler: failed to claim due jobs:", err)
		return
	}

	for _, job := range due {
		err := s.queue.Publish(ctx, queue.RunJob{JobID: job.ID, CampaignID: job.CampaignID})
		if err != nil {
			log.Printf("scheduler: failed to publish job %s: %v", job.ID, err)
			// Put the job back so a later tick retries the dispatch.
			if err := s.jobs.MarkStatus(ctx, job.ID, model.JobPending); err != nil {
				log.Printf("scheduler: failed to re-pend job %s: %v", job.ID, err)
			}
			continue
		}
		log.Printf("scheduler: dispatched job %s for campaign %d", job.ID, job.CampaignID)
	}
}
