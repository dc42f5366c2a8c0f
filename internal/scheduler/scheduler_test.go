package scheduler

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/leadloft/outreach-backend/internal/errors"
	"github.com/leadloft/outreach-backend/internal/model"
	"github.com/leadloft/outreach-backend/internal/queue"
)

// fakeJobRepo mirrors the SQL repository's replace/claim/recover semantics in
// memory.
type fakeJobRepo struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*model.ScheduledJob
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: make(map[uuid.UUID]*model.ScheduledJob)}
}

func (f *fakeJobRepo) ReplaceForCampaign(ctx context.Context, job *model.ScheduledJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, j := range f.jobs {
		if j.CampaignID == job.CampaignID && (j.Status == model.JobPending || j.Status == model.JobRunning) {
			delete(f.jobs, id)
		}
	}
	now := time.Now()
	job.Status = model.JobPending
	job.CreatedAt = now
	job.UpdatedAt = now
	copied := *job
	f.jobs[job.ID] = &copied
	return nil
}

func (f *fakeJobRepo) ClaimDue(ctx context.Context, now time.Time, limit int) ([]model.ScheduledJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var due []model.ScheduledJob
	for _, j := range f.jobs {
		if j.Status == model.JobPending && !j.TriggerAt.After(now) {
			due = append(due, *j)
		}
	}
	sort.Slice(due, func(i, k int) bool { return due[i].TriggerAt.Before(due[k].TriggerAt) })
	if len(due) > limit {
		due = due[:limit]
	}
	for i := range due {
		f.jobs[due[i].ID].Status = model.JobRunning
		due[i].Status = model.JobRunning
	}
	return due, nil
}

func (f *fakeJobRepo) MarkStatus(ctx context.Context, id uuid.UUID, status model.JobStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if j, ok := f.jobs[id]; ok {
		j.Status = status
	}
	return nil
}

func (f *fakeJobRepo) RecoverOrphans(ctx context.Context) ([]model.ScheduledJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var recovered []model.ScheduledJob
	for _, j := range f.jobs {
		if j.Status == model.JobRunning {
			j.Status = model.JobPending
			recovered = append(recovered, *j)
		}
	}
	return recovered, nil
}

func (f *fakeJobRepo) GetOutstanding(ctx context.Context, campaignID int) (*model.ScheduledJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, j := range f.jobs {
		if j.CampaignID == campaignID && (j.Status == model.JobPending || j.Status == model.JobRunning) {
			copied := *j
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeJobRepo) outstandingCount(campaignID int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, j := range f.jobs {
		if j.CampaignID == campaignID && (j.Status == model.JobPending || j.Status == model.JobRunning) {
			n++
		}
	}
	return n
}

func newTestScheduler(t *testing.T, repo *fakeJobRepo, q queue.Queue) *Scheduler {
	t.Helper()
	s, err := New(repo, q, time.Second, 10)
	require.NoError(t, err)
	return s
}

func TestNew_InvalidArgs(t *testing.T) {
	repo := newFakeJobRepo()
	q := queue.NewInMemoryQueue(1)

	if _, err := New(repo, q, 0, 10); err == nil {
		t.Fatal("expected error for zero poll interval")
	}
	if _, err := New(repo, q, time.Second, 0); err == nil {
		t.Fatal("expected error for zero batch size")
	}
}

func TestEnqueueImmediate_SingleOutstandingJob(t *testing.T) {
	repo := newFakeJobRepo()
	s := newTestScheduler(t, repo, queue.NewInMemoryQueue(8))
	ctx := context.Background()

	first, err := s.EnqueueImmediate(ctx, 42)
	require.NoError(t, err)
	second, err := s.EnqueueImmediate(ctx, 42)
	require.NoError(t, err)

	assert.Equal(t, 1, repo.outstandingCount(42), "enqueueing twice must leave exactly one pending job")

	outstanding, err := repo.GetOutstanding(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, outstanding)
	assert.Equal(t, second.ID, outstanding.ID)
	assert.NotEqual(t, first.ID, outstanding.ID)
}

func TestEnqueueAt_RejectsPastTimestamp(t *testing.T) {
	repo := newFakeJobRepo()
	s := newTestScheduler(t, repo, queue.NewInMemoryQueue(8))

	_, err := s.EnqueueAt(context.Background(), 1, time.Now().Add(-time.Minute))
	require.Error(t, err)

	var invalid *appErrors.ErrInvalidSchedule
	assert.ErrorAs(t, err, &invalid)
	assert.Equal(t, 0, repo.outstandingCount(1))
}

func TestEnqueueAt_ReplacesExisting(t *testing.T) {
	repo := newFakeJobRepo()
	s := newTestScheduler(t, repo, queue.NewInMemoryQueue(8))
	ctx := context.Background()

	_, err := s.EnqueueImmediate(ctx, 7)
	require.NoError(t, err)
	at := time.Now().Add(2 * time.Hour)
	job, err := s.EnqueueAt(ctx, 7, at)
	require.NoError(t, err)

	assert.Equal(t, 1, repo.outstandingCount(7))
	outstanding, _ := repo.GetOutstanding(ctx, 7)
	require.NotNil(t, outstanding)
	assert.Equal(t, job.ID, outstanding.ID)
	assert.True(t, outstanding.TriggerAt.Equal(at))
}

func TestTick_DispatchesDueJobs(t *testing.T) {
	repo := newFakeJobRepo()
	q := queue.NewInMemoryQueue(8)
	s := newTestScheduler(t, repo, q)
	ctx := context.Background()

	job, err := s.EnqueueImmediate(ctx, 3)
	require.NoError(t, err)
	_, err = s.EnqueueAt(ctx, 4, time.Now().Add(time.Hour))
	require.NoError(t, err)

	s.tick(ctx)

	published := q.Drain()
	require.Len(t, published, 1, "only the due job is dispatched")
	assert.Equal(t, job.ID, published[0].JobID)
	assert.Equal(t, 3, published[0].CampaignID)

	outstanding, _ := repo.GetOutstanding(ctx, 3)
	require.NotNil(t, outstanding)
	assert.Equal(t, model.JobRunning, outstanding.Status)
}

func TestRecoverOnStartup_AtMostOncePerOrphan(t *testing.T) {
	repo := newFakeJobRepo()
	q := queue.NewInMemoryQueue(8)
	s := newTestScheduler(t, repo, q)
	ctx := context.Background()

	// Simulated crash: a dispatched job never finished.
	job, err := s.EnqueueImmediate(ctx, 9)
	require.NoError(t, err)
	s.tick(ctx)
	q.Drain()
	outstanding, _ := repo.GetOutstanding(ctx, 9)
	require.Equal(t, model.JobRunning, outstanding.Status)

	n, err := s.RecoverOnStartup(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	outstanding, _ = repo.GetOutstanding(ctx, 9)
	assert.Equal(t, model.JobPending, outstanding.Status)
	assert.Equal(t, job.ID, outstanding.ID)

	// A second startup call finds nothing left to recover.
	n, err = s.RecoverOnStartup(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// The recovered job is due, so the next tick re-dispatches it once.
	s.tick(ctx)
	published := q.Drain()
	require.Len(t, published, 1)
	assert.Equal(t, job.ID, published[0].JobID)
}

func TestStartStop(t *testing.T) {
	repo := newFakeJobRepo()
	s := newTestScheduler(t, repo, queue.NewInMemoryQueue(8))

	require.True(t, s.Start())
	assert.False(t, s.Start(), "second Start must report already running")
	assert.True(t, s.IsRunning())

	require.True(t, s.Stop())
	assert.False(t, s.Stop(), "second Stop must report already stopped")
	assert.False(t, s.IsRunning())
}
