package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/leadloft/outreach-backend/internal/model"
)

type JobRepositoryInterface interface {
	ReplaceForCampaign(ctx context.Context, job *model.ScheduledJob) error
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]model.ScheduledJob, error)
	MarkStatus(ctx context.Context, id uuid.UUID, status model.JobStatus) error
	RecoverOrphans(ctx context.Context) ([]model.ScheduledJob, error)
	GetOutstanding(ctx context.Context, campaignID int) (*model.ScheduledJob, error)
}

type JobRepository struct {
	DB *sql.DB
}

// ReplaceForCampaign inserts a pending job, removing any pending or running
// job for the same campaign first. At most one outstanding trigger exists per
// campaign at a time.
func (r *JobRepository) ReplaceForCampaign(ctx context.Context, job *model.ScheduledJob) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
        DELETE FROM scheduled_jobs
        WHERE campaign_id=$1 AND status IN ($2, $3)
    `, job.CampaignID, model.JobPending, model.JobRunning); err != nil {
		return err
	}

	now := time.Now()
	job.Status = model.JobPending
	job.CreatedAt = now
	job.UpdatedAt = now
	if _, err := tx.ExecContext(ctx, `
        INSERT INTO scheduled_jobs (id, campaign_id, trigger_at, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, job.ID, job.CampaignID, job.TriggerAt, job.Status, job.CreatedAt, job.UpdatedAt); err != nil {
		return err
	}

	return tx.Commit()
}

// ClaimDue marks due pending jobs as running and returns them. SKIP LOCKED
// keeps concurrent dispatchers from double-claiming a job.
func (r *JobRepository) ClaimDue(ctx context.Context, now time.Time, limit int) ([]model.ScheduledJob, error) {
	tx, err := r.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, `
        SELECT id, campaign_id, trigger_at, status, created_at, updated_at
        FROM scheduled_jobs
        WHERE status=$1 AND trigger_at <= $2
        ORDER BY trigger_at ASC
        FOR UPDATE SKIP LOCKED
        LIMIT $3
    `, model.JobPending, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []model.ScheduledJob
	for rows.Next() {
		var j model.ScheduledJob
		if err := rows.Scan(&j.ID, &j.CampaignID, &j.TriggerAt, &j.Status, &j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(jobs) == 0 {
		return nil, tx.Commit()
	}

	claimedAt := time.Now()
	for i := range jobs {
		if _, err := tx.ExecContext(ctx, `
            UPDATE scheduled_jobs SET status=$1, updated_at=$2 WHERE id=$3
        `, model.JobRunning, claimedAt, jobs[i].ID); err != nil {
			return nil, err
		}
		jobs[i].Status = model.JobRunning
		jobs[i].UpdatedAt = claimedAt
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *JobRepository) MarkStatus(ctx context.Context, id uuid.UUID, status model.JobStatus) error {
	_, err := r.DB.ExecContext(ctx, `
        UPDATE scheduled_jobs SET status=$1, updated_at=NOW() WHERE id=$2
    `, status, id)
	return err
}

// RecoverOrphans flips jobs left running by a crashed process back to pending
// and returns them. A second call finds nothing, so re-dispatch happens at
// most once per orphan.
func (r *JobRepository) RecoverOrphans(ctx context.Context) ([]model.ScheduledJob, error) {
	rows, err := r.DB.QueryContext(ctx, `
        UPDATE scheduled_jobs
        SET status=$1, updated_at=NOW()
        WHERE status=$2
        RETURNING id, campaign_id, trigger_at, status, created_at, updated_at
    `, model.JobPending, model.JobRunning)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []model.ScheduledJob
	for rows.Next() {
		var j model.ScheduledJob
		if err := rows.Scan(&j.ID, &j.CampaignID, &j.TriggerAt, &j.Status, &j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (r *JobRepository) GetOutstanding(ctx context.Context, campaignID int) (*model.ScheduledJob, error) {
	var j model.ScheduledJob
	err := r.DB.QueryRowContext(ctx, `
        SELECT id, campaign_id, trigger_at, status, created_at, updated_at
        FROM scheduled_jobs
        WHERE campaign_id=$1 AND status IN ($2, $3)
    `, campaignID, model.JobPending, model.JobRunning).Scan(
		&j.ID, &j.CampaignID, &j.TriggerAt, &j.Status, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &j, nil
}

var _ JobRepositoryInterface = (*JobRepository)(nil)
