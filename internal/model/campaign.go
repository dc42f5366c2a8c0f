package model

import (
	"fmt"
	"time"
)

type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "draft"
	CampaignScheduled CampaignStatus = "scheduled"
	CampaignActive    CampaignStatus = "active"
	CampaignPaused    CampaignStatus = "paused"
	CampaignCompleted CampaignStatus = "completed"
	CampaignFailed    CampaignStatus = "failed"
)

type Campaign struct {
	ID           int              `db:"id" json:"id"`
	Name         string           `db:"name" json:"name"`
	Status       CampaignStatus   `db:"status" json:"status"`
	Subject      string           `db:"subject" json:"subject"`
	BaseTemplate string           `db:"base_template" json:"base_template"`
	ScheduleTime *time.Time       `db:"schedule_time" json:"schedule_time,omitempty"`
	Settings     CampaignSettings `db:"settings" json:"settings"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt    *time.Time       `db:"updated_at" json:"updated_at,omitempty"`
}

type FrequencyUnit string

const (
	UnitMinutes FrequencyUnit = "minutes"
	UnitHours   FrequencyUnit = "hours"
)

type SendFrequency struct {
	Value int           `json:"value"`
	Unit  FrequencyUnit `json:"unit"`
}

// Duration converts the configured frequency into the pacing delay between sends.
func (f SendFrequency) Duration() time.Duration {
	switch f.Unit {
	case UnitHours:
		return time.Duration(f.Value) * time.Hour
	default:
		return time.Duration(f.Value) * time.Minute
	}
}

type WeekdayMask struct {
	Mon bool `json:"mon"`
	Tue bool `json:"tue"`
	Wed bool `json:"wed"`
	Thu bool `json:"thu"`
	Fri bool `json:"fri"`
	Sat bool `json:"sat"`
	Sun bool `json:"sun"`
}

func (m WeekdayMask) Enabled(day time.Weekday) bool {
	switch day {
	case time.Monday:
		return m.Mon
	case time.Tuesday:
		return m.Tue
	case time.Wednesday:
		return m.Wed
	case time.Thursday:
		return m.Thu
	case time.Friday:
		return m.Fri
	case time.Saturday:
		return m.Sat
	case time.Sunday:
		return m.Sun
	}
	return false
}

// BusinessHours bounds sending to a time-of-day range on the enabled weekdays.
// Start and End are "HH:MM" in the campaign timezone, inclusive at both ends.
type BusinessHours struct {
	Start string      `json:"start"`
	End   string      `json:"end"`
	Days  WeekdayMask `json:"days"`
}

func (b BusinessHours) Empty() bool {
	return b.Start == "" && b.End == ""
}

type CampaignSettings struct {
	SendFrequency        SendFrequency `json:"send_frequency"`
	DailySendLimit       int           `json:"daily_send_limit"`
	Timezone             string        `json:"timezone"`
	RespectBusinessHours bool          `json:"respect_business_hours"`
	BusinessHours        BusinessHours `json:"business_hours"`
}

// Validate runs at campaign-save time so the executor never sees malformed
// settings mid-run.
func (s *CampaignSettings) Validate() error {
	if s.SendFrequency.Value <= 0 {
		return fmt.Errorf("send_frequency value must be > 0, got %d", s.SendFrequency.Value)
	}
	if s.SendFrequency.Unit != UnitMinutes && s.SendFrequency.Unit != UnitHours {
		return fmt.Errorf("send_frequency unit must be %q or %q, got %q", UnitMinutes, UnitHours, s.SendFrequency.Unit)
	}
	if s.DailySendLimit <= 0 {
		return fmt.Errorf("daily_send_limit must be > 0, got %d", s.DailySendLimit)
	}
	if s.Timezone != "" {
		if _, err := time.LoadLocation(s.Timezone); err != nil {
			return fmt.Errorf("invalid timezone %q: %w", s.Timezone, err)
		}
	}
	if !s.BusinessHours.Empty() {
		if _, err := ParseTimeOfDay(s.BusinessHours.Start); err != nil {
			return fmt.Errorf("invalid business_hours start: %w", err)
		}
		if _, err := ParseTimeOfDay(s.BusinessHours.End); err != nil {
			return fmt.Errorf("invalid business_hours end: %w", err)
		}
	}
	return nil
}

// Location resolves the campaign timezone, falling back to UTC when unset or
// not loadable on this host.
func (s *CampaignSettings) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ParseTimeOfDay parses "HH:MM" into minutes past midnight.
func ParseTimeOfDay(v string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(v, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("expected HH:MM, got %q", v)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("time of day out of range: %q", v)
	}
	return h*60 + m, nil
}
