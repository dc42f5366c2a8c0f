package repository

import (
	"context"
	"database/sql"

	"github.com/leadloft/outreach-backend/internal/model"
)

type EnrollmentRepositoryInterface interface {
	Upsert(ctx context.Context, campaignID int, contactEmail string, status model.EnrollmentStatus) error
	ListByStatus(ctx context.Context, campaignID int, status model.EnrollmentStatus) ([]model.CampaignEnrollment, error)
	UpdateStatus(ctx context.Context, campaignID int, contactEmail string, status model.EnrollmentStatus) (bool, error)
	CountByStatus(ctx context.Context, campaignID int) (map[model.EnrollmentStatus]int, error)
}

type EnrollmentRepository struct {
	DB *sql.DB
}

// Upsert enrolls a contact. Re-enrolling an existing pair updates its status
// instead of inserting a duplicate row.
func (r *EnrollmentRepository) Upsert(ctx context.Context, campaignID int, contactEmail string, status model.EnrollmentStatus) error {
	query := `
        INSERT INTO campaign_enrollments (campaign_id, contact_email, status, updated_at)
        VALUES ($1, $2, $3, NOW())
        ON CONFLICT (campaign_id, contact_email)
        DO UPDATE SET status=EXCLUDED.status, updated_at=NOW()
    `
	_, err := r.DB.ExecContext(ctx, query, campaignID, contactEmail, status)
	return err
}

// ListByStatus returns enrollments in insertion order, which is the stable
// order the executor walks them in.
func (r *EnrollmentRepository) ListByStatus(ctx context.Context, campaignID int, status model.EnrollmentStatus) ([]model.CampaignEnrollment, error) {
	query := `
        SELECT id, campaign_id, contact_email, status, updated_at
        FROM campaign_enrollments
        WHERE campaign_id=$1 AND status=$2
        ORDER BY id ASC
    `
	rows, err := r.DB.QueryContext(ctx, query, campaignID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	enrollments := []model.CampaignEnrollment{}
	for rows.Next() {
		var e model.CampaignEnrollment
		if err := rows.Scan(&e.ID, &e.CampaignID, &e.ContactEmail, &e.Status, &e.UpdatedAt); err != nil {
			return nil, err
		}
		enrollments = append(enrollments, e)
	}
	return enrollments, rows.Err()
}

// UpdateStatus returns false when the (campaign, contact) pair does not
// exist; callers treat that as "already removed", not as a failure.
func (r *EnrollmentRepository) UpdateStatus(ctx context.Context, campaignID int, contactEmail string, status model.EnrollmentStatus) (bool, error) {
	query := `
        UPDATE campaign_enrollments
        SET status=$1, updated_at=NOW()
        WHERE campaign_id=$2 AND contact_email=$3
    `
	res, err := r.DB.ExecContext(ctx, query, status, campaignID, contactEmail)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *EnrollmentRepository) CountByStatus(ctx context.Context, campaignID int) (map[model.EnrollmentStatus]int, error) {
	query := `SELECT status, COUNT(*) FROM campaign_enrollments WHERE campaign_id=$1 GROUP BY status`
	rows, err := r.DB.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[model.EnrollmentStatus]int{
		model.EnrollmentActive:    0,
		model.EnrollmentCompleted: 0,
		model.EnrollmentFailed:    0,
		model.EnrollmentPaused:    0,
	}
	for rows.Next() {
		var status model.EnrollmentStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

var _ EnrollmentRepositoryInterface = (*EnrollmentRepository)(nil)
