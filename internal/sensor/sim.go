package sensor

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/scavengerhunt/huntclient/internal/geo"
	"github.com/scavengerhunt/huntclient/internal/hunt"
)

// SimSource is a scripted walk used when the daemon runs without real
// hardware: the simulated player moves at a constant speed along a
// fixed course, and the simulated compass reports that course plus a
// configurable error, which is what calibration exists to correct.
type SimSource struct {
	Interval time.Duration

	mu            sync.Mutex
	pos           hunt.Position
	courseDeg     float64
	compassErrDeg float64
	speedMS       float64
}

// NewSimSource places the simulated player at start, walking along
// courseDeg at speedMS. compassErrDeg is added to every heading sample,
// modelling a miscalibrated device compass.
func NewSimSource(start hunt.LatLng, courseDeg, speedMS, compassErrDeg float64) *SimSource {
	acc := 5.0
	return &SimSource{
		Interval:      time.Second,
		pos:           hunt.Position{Lat: start.Lat, Lng: start.Lng, AccuracyM: &acc},
		courseDeg:     courseDeg,
		compassErrDeg: compassErrDeg,
		speedMS:       speedMS,
	}
}

func (s *SimSource) Position(_ context.Context) (*hunt.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.pos
	return &p, nil
}

func (s *SimSource) Heading(_ context.Context) (*hunt.Heading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.headingLocked()
	return &h, nil
}

func (s *SimSource) headingLocked() hunt.Heading {
	deg := math.Mod(s.courseDeg+s.compassErrDeg, 360)
	if deg < 0 {
		deg += 360
	}
	return hunt.Heading{Degrees: deg}
}

func (s *SimSource) WatchPosition(fn func(hunt.Position)) func() {
	return s.watch(func() {
		s.mu.Lock()
		s.stepLocked()
		p := s.pos
		s.mu.Unlock()
		fn(p)
	})
}

func (s *SimSource) WatchHeading(fn func(hunt.Heading)) func() {
	return s.watch(func() {
		s.mu.Lock()
		h := s.headingLocked()
		s.mu.Unlock()
		fn(h)
	})
}

func (s *SimSource) watch(tick func()) func() {
	done := make(chan struct{})
	go func() {
		t := time.NewTicker(s.Interval)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C:
				tick()
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}

// stepLocked advances the walk by one interval.
func (s *SimSource) stepLocked() {
	meters := s.speedMS * s.Interval.Seconds()
	theta := s.courseDeg * math.Pi / 180

	s.pos.Lat += meters * math.Cos(theta) / geo.MetersPerDegLat
	s.pos.Lng += meters * math.Sin(theta) / (geo.MetersPerDegLat * math.Cos(s.pos.Lat*math.Pi/180))
}
