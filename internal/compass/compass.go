// Package compass derives a trustworthy heading from untrustworthy
// hardware. Device compasses are frequently wrong indoors and on some
// handsets, so the true-north correction is inferred from the direction
// the player physically walks, then applied to every raw reading.
package compass

import "math"

// State is the result of one calibration run. A nil OffsetDeg means
// uncalibrated. Owned by the Calibrator; everyone else reads copies.
type State struct {
	OffsetDeg           *float64
	ReferenceRawHeading *float64
}

// Calibrated reports whether an offset has been established.
func (s State) Calibrated() bool {
	return s.OffsetDeg != nil
}

// PlayerAngle normalizes a raw heading sample into the player-relative
// angle: zero at the moment of calibration, tracking device rotation
// since. Uncalibrated state passes the raw value through unchanged.
func (s State) PlayerAngle(rawDeg float64) float64 {
	if s.ReferenceRawHeading == nil {
		return mod360(rawDeg)
	}
	return mod360(rawDeg - *s.ReferenceRawHeading)
}

// AbsoluteAngle maps a raw heading sample onto true geographic heading.
// The second return is false while uncalibrated; callers must not draw
// a view cone or report an angle to the game service in that case.
func (s State) AbsoluteAngle(rawDeg float64) (float64, bool) {
	if s.OffsetDeg == nil {
		return 0, false
	}
	return mod360(*s.OffsetDeg + s.PlayerAngle(rawDeg)), true
}

func mod360(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
