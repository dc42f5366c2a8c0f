package gate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadloft/outreach-backend/internal/model"
)

type fakeCounter struct {
	sent     int
	gotFrom  time.Time
	gotTo    time.Time
	campaign int
}

func (f *fakeCounter) CountSentBetween(ctx context.Context, campaignID int, from, to time.Time) (int, error) {
	f.campaign = campaignID
	f.gotFrom = from
	f.gotTo = to
	return f.sent, nil
}

func weekdaysOnly() model.WeekdayMask {
	return model.WeekdayMask{Mon: true, Tue: true, Wed: true, Thu: true, Fri: true}
}

func businessSettings() model.CampaignSettings {
	return model.CampaignSettings{
		SendFrequency:        model.SendFrequency{Value: 5, Unit: model.UnitMinutes},
		DailySendLimit:       50,
		Timezone:             "America/New_York",
		RespectBusinessHours: true,
		BusinessHours: model.BusinessHours{
			Start: "09:00",
			End:   "17:00",
			Days:  weekdaysOnly(),
		},
	}
}

func TestQuotaRemaining(t *testing.T) {
	counter := &fakeCounter{sent: 30}
	g := &Gate{Outcomes: counter}
	settings := businessSettings()

	remaining, err := g.QuotaRemaining(context.Background(), 7, settings, time.Date(2026, 3, 3, 18, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 20, remaining)
	assert.Equal(t, 7, counter.campaign)

	// Day bounds are computed in the campaign timezone, not UTC.
	loc, _ := time.LoadLocation("America/New_York")
	assert.Equal(t, time.Date(2026, 3, 3, 0, 0, 0, 0, loc), counter.gotFrom)
	assert.Equal(t, time.Date(2026, 3, 4, 0, 0, 0, 0, loc), counter.gotTo)
}

func TestQuotaRemaining_NeverNegative(t *testing.T) {
	g := &Gate{Outcomes: &fakeCounter{sent: 99}}
	settings := businessSettings()

	remaining, err := g.QuotaRemaining(context.Background(), 1, settings, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)
}

func TestWithinWindow_DisabledAlwaysTrue(t *testing.T) {
	settings := businessSettings()
	settings.RespectBusinessHours = false

	// 3 AM on a Sunday still passes when enforcement is off.
	sunday3am := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC) // 03:00 EST
	assert.True(t, WithinWindow(settings, sunday3am))
}

func TestWithinWindow_EmptyConfigFailsOpen(t *testing.T) {
	settings := businessSettings()
	settings.BusinessHours = model.BusinessHours{}

	assert.True(t, WithinWindow(settings, time.Date(2026, 3, 1, 3, 0, 0, 0, time.UTC)))
}

func TestWithinWindow_WeekdayMask(t *testing.T) {
	settings := businessSettings()
	loc := settings.Location()

	// Tuesday noon local: allowed.
	assert.True(t, WithinWindow(settings, time.Date(2026, 3, 3, 12, 0, 0, 0, loc)))
	// Saturday noon local: masked off.
	assert.False(t, WithinWindow(settings, time.Date(2026, 3, 7, 12, 0, 0, 0, loc)))
}

func TestWithinWindow_TimeOfDayBoundsInclusive(t *testing.T) {
	settings := businessSettings()
	loc := settings.Location()

	cases := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"before start", time.Date(2026, 3, 3, 8, 59, 0, 0, loc), false},
		{"at start", time.Date(2026, 3, 3, 9, 0, 0, 0, loc), true},
		{"midday", time.Date(2026, 3, 3, 13, 30, 0, 0, loc), true},
		{"at end", time.Date(2026, 3, 3, 17, 0, 0, 0, loc), true},
		{"after end", time.Date(2026, 3, 3, 17, 1, 0, 0, loc), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, WithinWindow(settings, tc.at))
		})
	}
}

func TestWithinWindow_EvaluatesInCampaignTimezone(t *testing.T) {
	settings := businessSettings()

	// 20:00 UTC on a Tuesday is 15:00 in New York: inside the window even
	// though it is outside 09:00-17:00 UTC.
	assert.True(t, WithinWindow(settings, time.Date(2026, 3, 3, 20, 0, 0, 0, time.UTC)))
	// 12:00 UTC is 07:00 in New York: outside.
	assert.False(t, WithinWindow(settings, time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC)))
}
