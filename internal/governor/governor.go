package governor

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/jpillora/backoff"

	"github.com/leadloft/outreach-backend/internal/model"
)

const (
	delayFloor = 30 * time.Second
	delayCeil  = 30 * time.Minute

	// Non-abuse failures pause the mailbox once this many happen in a row.
	consecutiveFailureLimit = 3
)

const (
	ReasonAbuse    = "paused: provider abuse detected"
	ReasonFailures = "paused: consecutive failures"
)

// abusePauseSchedule is indexed by abuse-signal count: first occurrence gets a
// short cool-down, the second a medium one, third and beyond the long one.
var abusePauseSchedule = []time.Duration{
	30 * time.Minute,
	2 * time.Hour,
	24 * time.Hour,
}

// abuseSignatures are provider error phrasings that indicate the mailbox
// provider suspects automated or spammy behavior. These escalate far more
// aggressively than transient failures: continuing to send risks account
// suspension, not just wasted retries.
var abuseSignatures = []string{
	"unusual sending activity",
	"spam",
	"rate limit",
	"rate exceeded",
	"quota exceeded",
	"sending limit",
	"too many messages",
	"account suspended",
	"temporarily blocked",
}

// StateStore persists governor snapshots so an active pause survives a
// process restart.
type StateStore interface {
	Load(ctx context.Context, mailbox string) (*model.GovernorState, error)
	Save(ctx context.Context, state *model.GovernorState) error
}

// Governor guards one outbound mailbox. A single instance is shared by every
// campaign run that sends through that mailbox; all state access is
// serialized behind the mutex.
type Governor struct {
	mailbox string
	store   StateStore
	now     func() time.Time

	mu           sync.Mutex
	failures     int
	abuseSignals int
	delay        *backoff.Backoff
	currentDelay time.Duration
	pausedUntil  time.Time
	pauseReason  string
}

func New(mailbox string) *Governor {
	return &Governor{
		mailbox: mailbox,
		now:     time.Now,
		delay: &backoff.Backoff{
			Min:    delayFloor,
			Max:    delayCeil,
			Factor: 2,
			Jitter: false,
		},
		currentDelay: delayFloor,
	}
}

// WithStore attaches a persistence backend. Snapshots are written after every
// recorded attempt.
func (g *Governor) WithStore(store StateStore) *Governor {
	g.store = store
	return g
}

// Restore loads the persisted snapshot, if any. Call once at process start,
// before the first send.
func (g *Governor) Restore(ctx context.Context) error {
	if g.store == nil {
		return nil
	}
	snap, err := g.store.Load(ctx, g.mailbox)
	if err != nil {
		return err
	}
	if snap == nil {
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.failures = snap.ConsecutiveFailures
	g.abuseSignals = snap.AbuseSignals
	if snap.CurrentDelay > 0 {
		g.currentDelay = snap.CurrentDelay
	}
	if snap.PausedUntil != nil {
		g.pausedUntil = *snap.PausedUntil
	}
	g.pauseReason = snap.PauseReason

	// Advance the backoff curve so the next failure continues from the
	// restored delay rather than starting over at the floor.
	for i := 0; i < 32 && g.delay.ForAttempt(g.delay.Attempt()) < g.currentDelay; i++ {
		g.delay.Duration()
	}
	return nil
}

// CanSend reports whether a send may proceed right now. The reason explains a
// false result.
func (g *Governor) CanSend() (bool, string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.pausedUntil.After(g.now()) {
		return false, g.pauseReason
	}
	return true, ""
}

// RecordAttempt updates governor state after one send attempt.
func (g *Governor) RecordAttempt(ctx context.Context, success bool, errorDetail string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if success {
		g.failures = 0
		g.delay.Reset()
		g.currentDelay = delayFloor
		g.persistLocked(ctx)
		return
	}

	g.failures++

	if isAbuseSignal(errorDetail) {
		g.abuseSignals++
		idx := g.abuseSignals - 1
		if idx >= len(abusePauseSchedule) {
			idx = len(abusePauseSchedule) - 1
		}
		until := g.now().Add(abusePauseSchedule[idx])
		// Never shorten an existing pause with a lower-severity event.
		if until.After(g.pausedUntil) {
			g.pausedUntil = until
			g.pauseReason = ReasonAbuse
		}
		g.persistLocked(ctx)
		return
	}

	g.currentDelay = g.delay.Duration()
	if g.failures >= consecutiveFailureLimit {
		until := g.now().Add(g.currentDelay)
		if until.After(g.pausedUntil) {
			g.pausedUntil = until
			g.pauseReason = ReasonFailures
		}
	}
	g.persistLocked(ctx)
}

// Status returns a read-only snapshot. It never mutates governor state.
func (g *Governor) Status() model.GovernorState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return *g.snapshotLocked()
}

func (g *Governor) snapshotLocked() *model.GovernorState {
	snap := &model.GovernorState{
		Mailbox:             g.mailbox,
		ConsecutiveFailures: g.failures,
		AbuseSignals:        g.abuseSignals,
		CurrentDelay:        g.currentDelay,
		PauseReason:         g.pauseReason,
		UpdatedAt:           g.now(),
	}
	if !g.pausedUntil.IsZero() {
		until := g.pausedUntil
		snap.PausedUntil = &until
	}
	return snap
}

func (g *Governor) persistLocked(ctx context.Context) {
	if g.store == nil {
		return
	}
	if err := g.store.Save(ctx, g.snapshotLocked()); err != nil {
		log.Printf("governor: failed to persist state for mailbox %s: %v", g.mailbox, err)
	}
}

func isAbuseSignal(errorDetail string) bool {
	if errorDetail == "" {
		return false
	}
	lower := strings.ToLower(errorDetail)
	for _, sig := range abuseSignatures {
		if strings.Contains(lower, sig) {
			return true
		}
	}
	return false
}
