package queue

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// RunJob is the wire payload handed from the scheduler to a worker.
type RunJob struct {
	JobID      uuid.UUID `json:"job_id"`
	CampaignID int       `json:"campaign_id"`
}

// Queue moves run-campaign triggers from the scheduler to workers. The
// durable job row in Postgres stays the source of truth; the queue only
// carries the wake-up.
type Queue interface {
	Publish(ctx context.Context, job RunJob) error
	Consume(ctx context.Context, handler func(ctx context.Context, job RunJob) error) error
}

// InMemoryQueue is a channel-backed queue for tests and single-process runs.
type InMemoryQueue struct {
	mu     sync.Mutex
	jobs   chan RunJob
	closed bool
}

func NewInMemoryQueue(size int) *InMemoryQueue {
	if size <= 0 {
		size = 64
	}
	return &InMemoryQueue{jobs: make(chan RunJob, size)}
}

func (q *InMemoryQueue) Publish(ctx context.Context, job RunJob) error {
	select {
	case q.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume runs the handler for each published job until the context ends.
func (q *InMemoryQueue) Consume(ctx context.Context, handler func(ctx context.Context, job RunJob) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case job := <-q.jobs:
			_ = handler(ctx, job)
		}
	}
}

// Drain returns the jobs currently buffered, for tests.
func (q *InMemoryQueue) Drain() []RunJob {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []RunJob
	for {
		select {
		case job := <-q.jobs:
			out = append(out, job)
		default:
			return out
		}
	}
}

var _ Queue = (*InMemoryQueue)(nil)
