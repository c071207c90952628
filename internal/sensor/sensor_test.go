package sensor

import (
	"context"
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"

	"github.com/scavengerhunt/huntclient/internal/hunt"
)

func TestVectorHeading(t *testing.T) {
	cases := []struct {
		name string
		x, y float64
		want float64
	}{
		{"x axis maps to east", 1, 0, 90},
		{"y axis maps to north", 0, 1, 0},
		{"negative x maps to west", -1, 0, 270},
		{"negative y maps to south", 0, -1, 180},
	}
	for _, c := range cases {
		got := VectorHeading(c.x, c.y)
		if math.Abs(got-c.want) > 1e-9 {
			t.Errorf("%s: expected %v, got %v", c.name, c.want, got)
		}
	}
}

func TestVectorHeadingRange(t *testing.T) {
	for deg := 0; deg < 360; deg += 10 {
		rad := float64(deg) * math.Pi / 180
		got := VectorHeading(math.Cos(rad), math.Sin(rad))
		if got < 0 || got >= 360 {
			t.Fatalf("heading out of range for vector at %d°: %v", deg, got)
		}
	}
}

// fakeSource drives the tracker by hand instead of from hardware.
type fakeSource struct {
	mu         sync.Mutex
	posFns     []func(hunt.Position)
	headingFns []func(hunt.Heading)
	stops      int
}

func (f *fakeSource) Position(context.Context) (*hunt.Position, error) { return nil, nil }
func (f *fakeSource) Heading(context.Context) (*hunt.Heading, error)   { return nil, nil }

func (f *fakeSource) WatchPosition(fn func(hunt.Position)) func() {
	f.mu.Lock()
	f.posFns = append(f.posFns, fn)
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		f.stops++
		f.mu.Unlock()
	}
}

func (f *fakeSource) WatchHeading(fn func(hunt.Heading)) func() {
	f.mu.Lock()
	f.headingFns = append(f.headingFns, fn)
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		f.stops++
		f.mu.Unlock()
	}
}

func (f *fakeSource) emitPosition(p hunt.Position) {
	f.mu.Lock()
	fns := append([]func(hunt.Position){}, f.posFns...)
	f.mu.Unlock()
	for _, fn := range fns {
		fn(p)
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTrackerLatest(t *testing.T) {
	src := &fakeSource{}
	tr := NewTracker(src, discardLogger())
	tr.Start()
	defer tr.Stop()

	if snap := tr.Latest(); snap.Position != nil {
		t.Fatal("expected no position before first sample")
	}

	src.emitPosition(hunt.Position{Lat: 52, Lng: -8})

	snap := tr.Latest()
	if snap.Position == nil || snap.Position.Lat != 52 {
		t.Fatalf("expected cached position, got %+v", snap.Position)
	}
}

func TestTrackerRestartClearsPriorSubscription(t *testing.T) {
	src := &fakeSource{}
	tr := NewTracker(src, discardLogger())

	tr.Start()
	tr.Start() // must stop the first pair of watches before re-subscribing

	src.mu.Lock()
	stops := src.stops
	src.mu.Unlock()
	if stops != 2 {
		t.Fatalf("expected 2 stopped listeners after restart, got %d", stops)
	}

	tr.Stop()
	tr.Stop() // idempotent

	src.mu.Lock()
	stops = src.stops
	src.mu.Unlock()
	if stops != 4 {
		t.Fatalf("expected 4 stopped listeners total, got %d", stops)
	}
	if tr.Tracking() {
		t.Fatal("expected tracker stopped")
	}
}

func TestTrackerSubscribe(t *testing.T) {
	src := &fakeSource{}
	tr := NewTracker(src, discardLogger())
	tr.Start()
	defer tr.Stop()

	var got []Snapshot
	var mu sync.Mutex
	unsub := tr.Subscribe(func(s Snapshot) {
		mu.Lock()
		got = append(got, s)
		mu.Unlock()
	})

	src.emitPosition(hunt.Position{Lat: 1})
	unsub()
	unsub() // idempotent
	src.emitPosition(hunt.Position{Lat: 2})

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 {
		t.Fatalf("expected exactly 1 notification, got %d", len(got))
	}
	if got[0].Position.Lat != 1 {
		t.Fatalf("unexpected snapshot: %+v", got[0].Position)
	}
}
