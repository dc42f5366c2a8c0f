package executor

import (
	"context"
	"log"

	"github.com/leadloft/outreach-backend/internal/model"
	"github.com/leadloft/outreach-backend/internal/queue"
	"github.com/leadloft/outreach-backend/internal/repository"
)

// JobRunner binds queue deliveries to executor runs and records the job
// outcome. Job failure is recorded on the job row only; campaign status is
// the executor's responsibility.
type JobRunner struct {
	Exec *Executor
	Jobs repository.JobRepositoryInterface
}

func (r *JobRunner) Handle(ctx context.Context, job queue.RunJob) error {
	runErr := r.Exec.Run(ctx, job.CampaignID)

	status := model.JobCompleted
	if runErr != nil {
		status = model.JobFailed
	}
	if err := r.Jobs.MarkStatus(ctx, job.JobID, status); err != nil {
		log.Printf("executor: failed to mark job %s %s: %v", job.JobID, status, err)
	}
	return runErr
}
