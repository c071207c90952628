// Package sensor abstracts the device position and heading streams.
//
// Every source degrades instead of failing: a denied permission or a
// missing fix yields a nil sample, never an error the caller has to
// treat as session-terminating.
package sensor

import (
	"context"
	"math"

	"github.com/scavengerhunt/huntclient/internal/hunt"
)

// Source is the seam between the client and the platform's location
// stack. Watch subscriptions deliver samples until the returned stop
// function is called; stop is idempotent and releases the underlying
// hardware listener.
type Source interface {
	Position(ctx context.Context) (*hunt.Position, error)
	Heading(ctx context.Context) (*hunt.Heading, error)
	WatchPosition(fn func(hunt.Position)) (stop func())
	WatchHeading(fn func(hunt.Heading)) (stop func())
}

// VectorHeading derives a compass heading from a raw magnetometer
// vector when the platform's fused compass yields nothing:
// (90 - atan2(y,x)) normalized into [0,360).
func VectorHeading(x, y float64) float64 {
	deg := 90 - math.Atan2(y, x)*180/math.Pi
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
