package compass

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/scavengerhunt/huntclient/internal/geo"
	"github.com/scavengerhunt/huntclient/internal/hunt"
	"github.com/scavengerhunt/huntclient/internal/sensor"
)

const (
	// MinMoveMeters filters GPS jitter: a sample is recorded only when
	// it moved at least this far from the last recorded point.
	MinMoveMeters = 0.4

	// RequiredPoints ends sampling once this many points are recorded.
	RequiredPoints = 5
)

// ErrInsufficientMovement means fewer than two usable GPS points were
// collected. Nothing is stored; the caller must restart the procedure.
var ErrInsufficientMovement = errors.New("calibration: insufficient movement")

// PersistFunc stores a freshly computed offset so later sessions start
// calibrated. Persistence failures are logged, not fatal.
type PersistFunc func(ctx context.Context, offsetDeg float64) error

// Calibrator walks the player through a short physical walk and turns
// the observed displacement into a heading offset.
type Calibrator struct {
	src     sensor.Source
	logger  *slog.Logger
	persist PersistFunc

	mu    sync.Mutex
	state State
}

func NewCalibrator(src sensor.Source, logger *slog.Logger, persist PersistFunc) *Calibrator {
	return &Calibrator{src: src, logger: logger, persist: persist}
}

// State returns the current calibration state.
func (c *Calibrator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Restore seeds the calibrator with a previously persisted offset. The
// reference raw heading is re-captured from the live compass so the
// player-relative angle starts at zero again.
func (c *Calibrator) Restore(ctx context.Context, offsetDeg float64) {
	state := State{OffsetDeg: &offsetDeg}
	if h, err := c.src.Heading(ctx); err == nil && h != nil {
		ref := h.Degrees
		state.ReferenceRawHeading = &ref
	}
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
}

// Clear drops any calibration, e.g. on logout.
func (c *Calibrator) Clear() {
	c.mu.Lock()
	c.state = State{}
	c.mu.Unlock()
}

// Run performs one calibration: it clears prior state, samples the
// position stream until RequiredPoints have been recorded (or ctx
// expires), then derives the offset from the walked path and captures
// one raw heading sample as the reference reading.
//
// The first sample is recorded unconditionally as the path start; each
// later sample only when it moved MinMoveMeters from the last recorded
// point. Fewer than two points by the deadline is a failure and leaves
// the calibrator uncalibrated.
func (c *Calibrator) Run(ctx context.Context) (State, error) {
	c.mu.Lock()
	c.state = State{}
	c.mu.Unlock()

	var (
		mu     sync.Mutex
		points []hunt.LatLng
	)
	enough := make(chan struct{})
	var once sync.Once

	stop := c.src.WatchPosition(func(p hunt.Position) {
		mu.Lock()
		defer mu.Unlock()

		if len(points) >= RequiredPoints {
			return
		}
		ll := p.LatLng()
		if len(points) == 0 {
			points = append(points, ll)
			return
		}
		if geo.DistanceM(points[len(points)-1], ll) > MinMoveMeters {
			points = append(points, ll)
			c.logger.Debug("calibration point recorded",
				"n", len(points), "lat", ll.Lat, "lng", ll.Lng)
			if len(points) >= RequiredPoints {
				once.Do(func() { close(enough) })
			}
		}
	})
	defer stop()

	select {
	case <-enough:
	case <-ctx.Done():
		// Deadline: finish with whatever was collected.
	}

	mu.Lock()
	path := append([]hunt.LatLng{}, points...)
	mu.Unlock()

	return c.finish(ctx, path)
}

func (c *Calibrator) finish(ctx context.Context, path []hunt.LatLng) (State, error) {
	if len(path) < 2 {
		c.logger.Warn("calibration failed", "points", len(path))
		return State{}, ErrInsufficientMovement
	}

	first, last := path[0], path[len(path)-1]
	offset := geo.Bearing(first, last)
	state := State{OffsetDeg: &offset}

	// One immediate heading sample fixes the raw reading that now
	// corresponds to the walked direction.
	if h, err := c.src.Heading(ctx); err == nil && h != nil {
		ref := h.Degrees
		state.ReferenceRawHeading = &ref
	} else {
		c.logger.Warn("no heading sample at calibration end", "error", err)
	}

	c.mu.Lock()
	c.state = state
	c.mu.Unlock()

	c.logger.Info("calibration complete",
		"offset_deg", offset,
		"points", len(path),
		"distance_m", geo.DistanceM(first, last))

	if c.persist != nil {
		if err := c.persist(ctx, offset); err != nil {
			c.logger.Error("persisting calibration offset failed", "error", err)
		}
	}
	return state, nil
}
