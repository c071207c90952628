// Package hunt defines the core domain types of the hunt client.
// It has zero external dependencies — everything here is pure Go.
package hunt

import "fmt"

// LatLng is a WGS84 coordinate pair in decimal degrees.
type LatLng struct {
	Lat float64 `json:"latitude"`
	Lng float64 `json:"longitude"`
}

// Position is one sample from the position stream. AccuracyM is the
// reported horizontal accuracy in meters, nil when the source does not
// provide one.
type Position struct {
	Lat       float64
	Lng       float64
	AccuracyM *float64
}

// LatLng returns the coordinate part of the sample.
func (p Position) LatLng() LatLng {
	return LatLng{Lat: p.Lat, Lng: p.Lng}
}

// Heading is one sample from the heading stream. Degrees is measured
// clockwise from the device's notion of north, in [0,360).
type Heading struct {
	Degrees   float64
	AccuracyM *float64
}

type Role string

const (
	RoleGuest  Role = "guest"
	RolePlayer Role = "player"
	RoleAdmin  Role = "admin"
)

// ParseRole maps a stored or service-supplied role string onto the
// closed set of roles. Unknown values are rejected rather than carried
// around as free-form strings.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleGuest, RolePlayer, RoleAdmin:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

type Status string

const (
	StatusInitializing Status = "initializing"
	StatusInitialized  Status = "initialized"
	StatusInRound      Status = "inRound"
	StatusFinished     Status = "finished"
	StatusError        Status = "error"
)

// RoundTarget is the landmark currently being sought.
type RoundTarget struct {
	ID           string
	Name         string
	Riddle       string
	AttemptsLeft int
}

// Landmark is one candidate landmark of the active round. Boundary is
// the ordered outline polygon; Centroid is nil when the service did not
// compute one.
type Landmark struct {
	ID       string
	Name     string
	Boundary []LatLng
	Centroid *LatLng
}

// Session is a point-in-time snapshot of the game session. Controllers
// hand out copies, never the live struct.
type Session struct {
	UserID           string
	Role             Role
	Status           Status
	MaxRoundSeconds  int
	Landmarks        []Landmark
	CurrentTarget    *RoundTarget
	SecondsRemaining *int
	TimerActive      bool
	LastMessage      string
	ErrorMessage     string
}

// InRound reports whether the session currently owns an active target.
func (s Session) InRound() bool {
	return s.Status == StatusInRound
}

// ConeParams describes the directional view cone requested by the UI.
type ConeParams struct {
	SpanDeg      float64
	RadiusMeters float64
	Resolution   int
}
