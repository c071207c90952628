package sensor

import (
	"context"
	"log/slog"
	"sync"

	"github.com/scavengerhunt/huntclient/internal/hunt"
)

// Snapshot is the most recent sample from each stream. Either field is
// nil until the first sample arrives (or while permission is denied).
type Snapshot struct {
	Position *hunt.Position
	Heading  *hunt.Heading
}

// Tracker owns the long-lived watch subscriptions and caches the latest
// sample from each stream. Start and Stop are idempotent; Start always
// clears a previous subscription before creating a new one, so repeated
// calls never leak duplicate listeners.
type Tracker struct {
	src    Source
	logger *slog.Logger

	mu          sync.Mutex
	stopPos     func()
	stopHeading func()
	latest      Snapshot
	subs        map[int]func(Snapshot)
	nextSub     int
}

func NewTracker(src Source, logger *slog.Logger) *Tracker {
	return &Tracker{
		src:    src,
		logger: logger,
		subs:   make(map[int]func(Snapshot)),
	}
}

// Start begins tracking both streams.
func (t *Tracker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
	t.logger.Debug("sensor tracking started")
	t.stopPos = t.src.WatchPosition(t.onPosition)
	t.stopHeading = t.src.WatchHeading(t.onHeading)
}

// Stop releases both subscriptions. Safe to call when not tracking.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

func (t *Tracker) stopLocked() {
	if t.stopPos != nil {
		t.stopPos()
		t.stopPos = nil
	}
	if t.stopHeading != nil {
		t.stopHeading()
		t.stopHeading = nil
	}
}

// Tracking reports whether a watch subscription is live.
func (t *Tracker) Tracking() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopPos != nil || t.stopHeading != nil
}

// Latest returns the current snapshot.
func (t *Tracker) Latest() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.latest
}

// Refresh performs a one-shot read of both streams and folds the result
// into the snapshot. Used before tracking starts, or to force a fix.
func (t *Tracker) Refresh(ctx context.Context) Snapshot {
	pos, err := t.src.Position(ctx)
	if err != nil {
		t.logger.Warn("one-shot position read failed", "error", err)
	}
	heading, err := t.src.Heading(ctx)
	if err != nil {
		t.logger.Warn("one-shot heading read failed", "error", err)
	}

	t.mu.Lock()
	if pos != nil {
		t.latest.Position = pos
	}
	if heading != nil {
		t.latest.Heading = heading
	}
	snap := t.latest
	subs := t.subscribersLocked()
	t.mu.Unlock()

	notify(subs, snap)
	return snap
}

// Subscribe registers fn to receive every snapshot update. The returned
// function removes the subscription; calling it twice is harmless.
func (t *Tracker) Subscribe(fn func(Snapshot)) func() {
	t.mu.Lock()
	id := t.nextSub
	t.nextSub++
	t.subs[id] = fn
	t.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.subs, id)
			t.mu.Unlock()
		})
	}
}

func (t *Tracker) onPosition(p hunt.Position) {
	t.mu.Lock()
	t.latest.Position = &p
	snap := t.latest
	subs := t.subscribersLocked()
	t.mu.Unlock()

	notify(subs, snap)
}

func (t *Tracker) onHeading(h hunt.Heading) {
	t.mu.Lock()
	t.latest.Heading = &h
	snap := t.latest
	subs := t.subscribersLocked()
	t.mu.Unlock()

	notify(subs, snap)
}

func (t *Tracker) subscribersLocked() []func(Snapshot) {
	out := make([]func(Snapshot), 0, len(t.subs))
	for _, fn := range t.subs {
		out = append(out, fn)
	}
	return out
}

func notify(subs []func(Snapshot), snap Snapshot) {
	for _, fn := range subs {
		fn(snap)
	}
}
