package gate

import (
	"context"
	"time"

	"github.com/leadloft/outreach-backend/internal/model"
)

// OutcomeCounter is the slice of the outcome store the gate needs.
type OutcomeCounter interface {
	CountSentBetween(ctx context.Context, campaignID int, from, to time.Time) (int, error)
}

type Gate struct {
	Outcomes OutcomeCounter
}

// QuotaRemaining returns how many sends the campaign has left on the calendar
// day containing `at`, evaluated in the campaign timezone.
func (g *Gate) QuotaRemaining(ctx context.Context, campaignID int, settings model.CampaignSettings, at time.Time) (int, error) {
	loc := settings.Location()
	local := at.In(loc)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	sent, err := g.Outcomes.CountSentBetween(ctx, campaignID, dayStart, dayEnd)
	if err != nil {
		return 0, err
	}

	remaining := settings.DailySendLimit - sent
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// WithinWindow reports whether `now` falls inside the campaign's configured
// business-hours window. An absent or empty window fails open rather than
// silently blocking all sends on missing config.
func WithinWindow(settings model.CampaignSettings, now time.Time) bool {
	if !settings.RespectBusinessHours {
		return true
	}
	bh := settings.BusinessHours
	if bh.Empty() {
		return true
	}

	local := now.In(settings.Location())
	if !bh.Days.Enabled(local.Weekday()) {
		return false
	}

	start, err := model.ParseTimeOfDay(bh.Start)
	if err != nil {
		return true
	}
	end, err := model.ParseTimeOfDay(bh.End)
	if err != nil {
		return true
	}

	minute := local.Hour()*60 + local.Minute()
	return minute >= start && minute <= end
}
