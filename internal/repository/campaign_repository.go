package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	appErrors "github.com/leadloft/outreach-backend/internal/errors"
	"github.com/leadloft/outreach-backend/internal/model"
)

type CampaignRepositoryInterface interface {
	Create(ctx context.Context, c *model.Campaign) error
	Update(ctx context.Context, c *model.Campaign) error
	GetByID(ctx context.Context, id int) (*model.Campaign, error)
	List(ctx context.Context, offset, limit int, status string) ([]*model.Campaign, int, error)
	UpdateStatus(ctx context.Context, campaignID int, status model.CampaignStatus) error
	UpdateSchedule(ctx context.Context, campaignID int, status model.CampaignStatus, scheduleTime *time.Time) error
}

type CampaignRepository struct {
	DB *sql.DB
}

func (r *CampaignRepository) Create(ctx context.Context, c *model.Campaign) error {
	c.CreatedAt = time.Now()
	if c.Status == "" {
		c.Status = model.CampaignDraft
	}
	settings, err := json.Marshal(c.Settings)
	if err != nil {
		return err
	}
	query := `
        INSERT INTO campaigns (name, status, subject, base_template, schedule_time, settings, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id
    `
	return r.DB.QueryRowContext(ctx, query,
		c.Name, c.Status, c.Subject, c.BaseTemplate, c.ScheduleTime, settings, c.CreatedAt,
	).Scan(&c.ID)
}

func (r *CampaignRepository) Update(ctx context.Context, c *model.Campaign) error {
	settings, err := json.Marshal(c.Settings)
	if err != nil {
		return err
	}
	query := `
        UPDATE campaigns
        SET name=$1, subject=$2, base_template=$3, settings=$4, updated_at=NOW()
        WHERE id=$5
    `
	_, err = r.DB.ExecContext(ctx, query, c.Name, c.Subject, c.BaseTemplate, settings, c.ID)
	return err
}

func (r *CampaignRepository) GetByID(ctx context.Context, id int) (*model.Campaign, error) {
	query := `
        SELECT id, name, status, subject, base_template, schedule_time, settings, created_at, updated_at
        FROM campaigns WHERE id=$1
    `
	var c model.Campaign
	var settings []byte
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.Status, &c.Subject, &c.BaseTemplate,
		&c.ScheduleTime, &settings, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	if err := json.Unmarshal(settings, &c.Settings); err != nil {
		return nil, fmt.Errorf("campaign %d has unreadable settings: %w", id, err)
	}
	return &c, nil
}

func (r *CampaignRepository) List(ctx context.Context, offset, limit int, status string) ([]*model.Campaign, int, error) {
	campaigns := []*model.Campaign{}
	query := `SELECT id, name, status, subject, base_template, schedule_time, settings, created_at, updated_at FROM campaigns WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if status != "" {
		query += fmt.Sprintf(" AND status=$%d", argPos)
		args = append(args, status)
		argPos++
	}

	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		c := &model.Campaign{}
		var settings []byte
		if err := rows.Scan(&c.ID, &c.Name, &c.Status, &c.Subject, &c.BaseTemplate, &c.ScheduleTime, &settings, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, err
		}
		if err := json.Unmarshal(settings, &c.Settings); err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	countQuery := `SELECT COUNT(*) FROM campaigns WHERE 1=1`
	countArgs := []interface{}{}
	if status != "" {
		countQuery += " AND status=$1"
		countArgs = append(countArgs, status)
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return campaigns, total, nil
}

func (r *CampaignRepository) UpdateStatus(ctx context.Context, campaignID int, status model.CampaignStatus) error {
	query := `UPDATE campaigns SET status=$1, updated_at=$2 WHERE id=$3`
	res, err := r.DB.ExecContext(ctx, query, status, time.Now(), campaignID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return appErrors.NewCampaignNotFound(campaignID)
	}
	return nil
}

func (r *CampaignRepository) UpdateSchedule(ctx context.Context, campaignID int, status model.CampaignStatus, scheduleTime *time.Time) error {
	query := `UPDATE campaigns SET status=$1, schedule_time=$2, updated_at=$3 WHERE id=$4`
	res, err := r.DB.ExecContext(ctx, query, status, scheduleTime, time.Now(), campaignID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return appErrors.NewCampaignNotFound(campaignID)
	}
	return nil
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
