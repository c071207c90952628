package server

import (
	"github.com/scavengerhunt/huntclient/internal/compass"
	"github.com/scavengerhunt/huntclient/internal/hunt"
	"github.com/scavengerhunt/huntclient/internal/sensor"
)

type TargetPayload struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Riddle       string `json:"riddle"`
	AttemptsLeft int    `json:"attemptsLeft"`
}

type LandmarkPayload struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Boundary []hunt.LatLng `json:"boundary"`
	Centroid *hunt.LatLng  `json:"centroid,omitempty"`
}

type SessionPayload struct {
	UserID           string            `json:"userId,omitempty"`
	Role             hunt.Role         `json:"role"`
	Status           hunt.Status       `json:"status"`
	MaxRoundSeconds  int               `json:"maxRoundSeconds"`
	Landmarks        []LandmarkPayload `json:"landmarks"`
	CurrentTarget    *TargetPayload    `json:"currentTarget,omitempty"`
	SecondsRemaining *int              `json:"secondsRemaining"`
	TimerActive      bool              `json:"timerActive"`
	LastMessage      string            `json:"lastMessage,omitempty"`
	ErrorMessage     string            `json:"errorMessage,omitempty"`
}

type SensorPayload struct {
	Position      *hunt.LatLng `json:"position,omitempty"`
	AccuracyM     *float64     `json:"accuracyMeters,omitempty"`
	RawHeading    *float64     `json:"rawHeading,omitempty"`
	PlayerAngle   *float64     `json:"playerAngle,omitempty"`
	AbsoluteAngle *float64     `json:"absoluteAngle,omitempty"`
	Tracking      bool         `json:"tracking"`
}

type CalibrationResponse struct {
	Calibrated          bool     `json:"calibrated"`
	Running             bool     `json:"running"`
	Failed              bool     `json:"failed,omitempty"`
	OffsetDeg           *float64 `json:"offsetDeg,omitempty"`
	ReferenceRawHeading *float64 `json:"referenceRawHeading,omitempty"`
}

type ConeResponse struct {
	Polygon      []hunt.LatLng `json:"polygon"`
	HeadingDeg   float64       `json:"headingDeg"`
	SpanDeg      float64       `json:"spanDeg"`
	RadiusMeters float64       `json:"radiusMeters"`
}

func sessionPayload(s hunt.Session) *SessionPayload {
	p := &SessionPayload{
		UserID:           s.UserID,
		Role:             s.Role,
		Status:           s.Status,
		MaxRoundSeconds:  s.MaxRoundSeconds,
		Landmarks:        make([]LandmarkPayload, 0, len(s.Landmarks)),
		SecondsRemaining: s.SecondsRemaining,
		TimerActive:      s.TimerActive,
		LastMessage:      s.LastMessage,
		ErrorMessage:     s.ErrorMessage,
	}
	for _, lm := range s.Landmarks {
		p.Landmarks = append(p.Landmarks, LandmarkPayload{
			ID:       lm.ID,
			Name:     lm.Name,
			Boundary: lm.Boundary,
			Centroid: lm.Centroid,
		})
	}
	if s.CurrentTarget != nil {
		p.CurrentTarget = &TargetPayload{
			ID:           s.CurrentTarget.ID,
			Name:         s.CurrentTarget.Name,
			Riddle:       s.CurrentTarget.Riddle,
			AttemptsLeft: s.CurrentTarget.AttemptsLeft,
		}
	}
	return p
}

func calibrationPayload(state compass.State, running bool) *CalibrationResponse {
	return &CalibrationResponse{
		Calibrated:          state.Calibrated(),
		Running:             running,
		OffsetDeg:           state.OffsetDeg,
		ReferenceRawHeading: state.ReferenceRawHeading,
	}
}

func (a *App) sensorPayload(snap sensor.Snapshot) *SensorPayload {
	p := &SensorPayload{Tracking: a.Tracker.Tracking()}
	if snap.Position != nil {
		ll := snap.Position.LatLng()
		p.Position = &ll
		p.AccuracyM = snap.Position.AccuracyM
	}
	if snap.Heading != nil {
		raw := snap.Heading.Degrees
		p.RawHeading = &raw

		state := a.Calibrator.State()
		player := state.PlayerAngle(raw)
		p.PlayerAngle = &player
		if abs, ok := state.AbsoluteAngle(raw); ok {
			p.AbsoluteAngle = &abs
		}
	}
	return p
}
