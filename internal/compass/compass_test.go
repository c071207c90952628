package compass

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/scavengerhunt/huntclient/internal/hunt"
)

func f(v float64) *float64 { return &v }

func TestNormalizerCalibrated(t *testing.T) {
	s := State{OffsetDeg: f(45), ReferenceRawHeading: f(10)}

	if got := s.PlayerAngle(30); got != 20 {
		t.Fatalf("expected player angle 20, got %v", got)
	}
	abs, ok := s.AbsoluteAngle(30)
	if !ok {
		t.Fatal("expected calibrated state")
	}
	if abs != 65 {
		t.Fatalf("expected absolute angle 65, got %v", abs)
	}
}

func TestNormalizerWraparound(t *testing.T) {
	s := State{OffsetDeg: f(350), ReferenceRawHeading: f(40)}

	// Raw 10 is 330° past the reference after wrapping.
	if got := s.PlayerAngle(10); got != 330 {
		t.Fatalf("expected player angle 330, got %v", got)
	}
	abs, _ := s.AbsoluteAngle(10)
	if abs != 320 { // (350 + 330) mod 360
		t.Fatalf("expected absolute angle 320, got %v", abs)
	}
}

func TestNormalizerUncalibrated(t *testing.T) {
	var s State

	if s.Calibrated() {
		t.Fatal("zero state must be uncalibrated")
	}
	if got := s.PlayerAngle(123); got != 123 {
		t.Fatalf("uncalibrated player angle must pass through, got %v", got)
	}
	if _, ok := s.AbsoluteAngle(123); ok {
		t.Fatal("uncalibrated state must not produce an absolute angle")
	}
}

// walkSource feeds a fixed list of position samples to the first
// position watcher, then a fixed heading on demand.
type walkSource struct {
	samples []hunt.Position
	heading *hunt.Heading

	mu    sync.Mutex
	stops int
}

func (w *walkSource) Position(context.Context) (*hunt.Position, error) { return nil, nil }

func (w *walkSource) Heading(context.Context) (*hunt.Heading, error) {
	return w.heading, nil
}

func (w *walkSource) WatchPosition(fn func(hunt.Position)) func() {
	go func() {
		for _, p := range w.samples {
			fn(p)
		}
	}()
	return func() {
		w.mu.Lock()
		w.stops++
		w.mu.Unlock()
	}
}

func (w *walkSource) WatchHeading(func(hunt.Heading)) func() { return func() {} }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCalibratorNorthWalk(t *testing.T) {
	// Five samples walking due north, ~11 m apart. Interleaved jitter
	// samples under 0.4 m must be ignored.
	samples := []hunt.Position{
		{Lat: 51.8940, Lng: -8.4902},
		{Lat: 51.89400001, Lng: -8.4902}, // jitter, ~1 mm
		{Lat: 51.8941, Lng: -8.4902},
		{Lat: 51.8942, Lng: -8.4902},
		{Lat: 51.8943, Lng: -8.4902},
		{Lat: 51.8944, Lng: -8.4902},
		{Lat: 51.8945, Lng: -8.4902}, // beyond the fifth point, ignored
	}
	src := &walkSource{samples: samples, heading: &hunt.Heading{Degrees: 77}}

	var persisted []float64
	cal := NewCalibrator(src, discardLogger(), func(_ context.Context, offset float64) error {
		persisted = append(persisted, offset)
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	state, err := cal.Run(ctx)
	if err != nil {
		t.Fatalf("calibration: %v", err)
	}
	if state.OffsetDeg == nil || math.Abs(*state.OffsetDeg) > 1e-9 {
		t.Fatalf("expected offset 0 for a due-north walk, got %v", state.OffsetDeg)
	}
	if state.ReferenceRawHeading == nil || *state.ReferenceRawHeading != 77 {
		t.Fatalf("expected reference raw heading 77, got %v", state.ReferenceRawHeading)
	}
	if len(persisted) != 1 || persisted[0] != 0 {
		t.Fatalf("expected one persisted offset of 0, got %v", persisted)
	}
	if got := cal.State(); !got.Calibrated() {
		t.Fatal("calibrator must hold the new state")
	}

	src.mu.Lock()
	defer src.mu.Unlock()
	if src.stops != 1 {
		t.Fatalf("expected the position watch to be released once, got %d", src.stops)
	}
}

func TestCalibratorInsufficientMovement(t *testing.T) {
	// Only the unconditional first point; everything else is jitter.
	src := &walkSource{
		samples: []hunt.Position{
			{Lat: 51.8940, Lng: -8.4902},
			{Lat: 51.894000001, Lng: -8.4902},
			{Lat: 51.894000002, Lng: -8.4902},
		},
		heading: &hunt.Heading{Degrees: 10},
	}
	cal := NewCalibrator(src, discardLogger(), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := cal.Run(ctx)
	if !errors.Is(err, ErrInsufficientMovement) {
		t.Fatalf("expected ErrInsufficientMovement, got %v", err)
	}
	if cal.State().Calibrated() {
		t.Fatal("no partial offset may be stored after a failed run")
	}
}

func TestCalibratorDeadlineWithPartialPath(t *testing.T) {
	// Two usable points and then silence: the deadline finishes the run
	// with what was collected.
	src := &walkSource{
		samples: []hunt.Position{
			{Lat: 51.8940, Lng: -8.4902},
			{Lat: 51.8943, Lng: -8.4902},
		},
		heading: &hunt.Heading{Degrees: 5},
	}
	cal := NewCalibrator(src, discardLogger(), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	state, err := cal.Run(ctx)
	if err != nil {
		t.Fatalf("calibration: %v", err)
	}
	if state.OffsetDeg == nil || math.Abs(*state.OffsetDeg) > 1e-9 {
		t.Fatalf("expected offset 0, got %v", state.OffsetDeg)
	}
}

func TestCalibratorRestoreAndClear(t *testing.T) {
	src := &walkSource{heading: &hunt.Heading{Degrees: 42}}
	cal := NewCalibrator(src, discardLogger(), nil)

	cal.Restore(context.Background(), 120)
	state := cal.State()
	if state.OffsetDeg == nil || *state.OffsetDeg != 120 {
		t.Fatalf("expected restored offset 120, got %v", state.OffsetDeg)
	}
	if state.ReferenceRawHeading == nil || *state.ReferenceRawHeading != 42 {
		t.Fatalf("expected re-captured reference 42, got %v", state.ReferenceRawHeading)
	}

	cal.Clear()
	if cal.State().Calibrated() {
		t.Fatal("expected cleared state")
	}
}
