package server

import (
	"errors"
	"net/http"

	"github.com/scavengerhunt/huntclient/internal/gameapi"
	"github.com/scavengerhunt/huntclient/internal/geo"
	"github.com/scavengerhunt/huntclient/internal/hunt"
	"github.com/scavengerhunt/huntclient/internal/session"
)

func handleSession(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, StateEvent{
			Type:        "session",
			Session:     sessionPayload(app.Session.Snapshot()),
			Sensor:      app.sensorPayload(app.Tracker.Latest()),
			Calibration: calibrationPayload(app.Calibrator.State(), app.Calibrating()),
		})
	}
}

// handleCone returns the current view-cone polygon. The cone only
// exists once there is a fix and a calibrated heading; before that the
// direction would be meaningless and must not be drawn.
func handleCone(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := app.Tracker.Latest()
		if snap.Position == nil {
			writeError(w, http.StatusConflict, "waiting for location")
			return
		}
		angle, ok := app.AbsoluteAngle()
		if !ok {
			writeError(w, http.StatusConflict, "not calibrated")
			return
		}

		polygon, err := geo.BuildCone(snap.Position.LatLng(), angle,
			app.Cone.SpanDeg, app.Cone.RadiusMeters, app.Cone.Resolution)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, ConeResponse{
			Polygon:      polygon,
			HeadingDeg:   angle,
			SpanDeg:      app.Cone.SpanDeg,
			RadiusMeters: app.Cone.RadiusMeters,
		})
	}
}

func handleCalibrationState(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, calibrationPayload(app.Calibrator.State(), app.Calibrating()))
	}
}

func handleCalibrationStart(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !app.StartCalibration() {
			writeError(w, http.StatusConflict, "calibration already in progress")
			return
		}
		writeJSON(w, http.StatusAccepted, calibrationPayload(app.Calibrator.State(), true))
	}
}

func handleGameInit(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := app.Tracker.Latest()
		if snap.Position == nil {
			writeError(w, http.StatusConflict, "waiting for location")
			return
		}
		angle, _ := app.AbsoluteAngle()

		userID, err := app.Prefs.EnsureUserID(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		if err := app.Session.InitGame(r.Context(), userID, snap.Position.LatLng(), angle, app.Cone); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, sessionPayload(app.Session.Snapshot()))
	}
}

type startRoundBody struct {
	Language string `json:"language"`
	Style    string `json:"style"`
}

func handleRoundStart(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body startRoundBody
		readJSON(r, &body) // both fields optional; an empty body is fine
		if body.Language == "" {
			body.Language = app.Language
		}
		if body.Style == "" {
			body.Style = app.Style
		}

		snap := app.Tracker.Latest()
		if snap.Position == nil {
			writeError(w, http.StatusConflict, "waiting for location")
			return
		}
		angle, ok := app.AbsoluteAngle()
		if !ok {
			writeError(w, http.StatusConflict, "not calibrated")
			return
		}

		err := app.Session.StartRound(r.Context(), snap.Position.LatLng(), angle,
			app.RoundRadiusM, body.Language, body.Style)
		switch {
		case errors.Is(err, session.ErrNotInitialized):
			writeError(w, http.StatusConflict, "game not initialized")
			return
		case err != nil:
			var se *gameapi.StatusError
			if errors.As(err, &se) {
				writeError(w, http.StatusBadGateway, se.Body)
				return
			}
			writeError(w, http.StatusBadGateway, "game service unreachable")
			return
		}
		writeJSON(w, http.StatusOK, sessionPayload(app.Session.Snapshot()))
	}
}

type submitAnswerBody struct {
	SecondsUsed *int `json:"secondsUsed"`
}

func handleRoundAnswer(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body submitAnswerBody
		readJSON(r, &body)

		opts := session.SubmitOptions{SecondsUsed: body.SecondsUsed}
		if angle, ok := app.AbsoluteAngle(); ok {
			opts.CurrentAngle = &angle
		}
		if snap := app.Tracker.Latest(); snap.Position != nil {
			ll := snap.Position.LatLng()
			opts.Position = &ll
		}

		if err := app.Session.SubmitAnswer(r.Context(), opts); err != nil {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, sessionPayload(app.Session.Snapshot()))
	}
}

func handleRoundFinish(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := app.Session.FinishRound(r.Context()); err != nil {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, sessionPayload(app.Session.Snapshot()))
	}
}

// handleNearbyLandmarks trims the round's landmark set to what the map
// should draw around the player.
func handleNearbyLandmarks(app *App) http.HandlerFunc {
	const (
		maxCount     = 10
		maxDistanceM = 500
	)
	return func(w http.ResponseWriter, r *http.Request) {
		snap := app.Tracker.Latest()
		if snap.Position == nil {
			writeError(w, http.StatusConflict, "waiting for location")
			return
		}
		sess := app.Session.Snapshot()
		if sess.Role == hunt.RoleGuest {
			writeJSON(w, http.StatusOK, []LandmarkPayload{})
			return
		}

		nearby := geo.NearestLandmarks(snap.Position.LatLng(), sess.Landmarks, maxDistanceM, maxCount)
		out := make([]LandmarkPayload, 0, len(nearby))
		for _, lm := range nearby {
			out = append(out, LandmarkPayload{ID: lm.ID, Name: lm.Name, Boundary: lm.Boundary, Centroid: lm.Centroid})
		}
		writeJSON(w, http.StatusOK, out)
	}
}
