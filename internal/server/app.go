package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/scavengerhunt/huntclient/internal/compass"
	"github.com/scavengerhunt/huntclient/internal/gameapi"
	"github.com/scavengerhunt/huntclient/internal/hunt"
	"github.com/scavengerhunt/huntclient/internal/prefs"
	"github.com/scavengerhunt/huntclient/internal/sensor"
	"github.com/scavengerhunt/huntclient/internal/session"
)

// calibrationTimeout bounds one calibration walk. Five points at
// walking pace take well under a minute; the slack covers a slow fix.
const calibrationTimeout = 2 * time.Minute

// App bundles the client subsystems the control surface exposes.
type App struct {
	Logger     *slog.Logger
	Session    *session.Controller
	Calibrator *compass.Calibrator
	Tracker    *sensor.Tracker
	Prefs      *prefs.Store
	API        *gameapi.Client

	Cone         hunt.ConeParams
	RoundRadiusM float64
	Language     string
	Style        string

	broker *Broker

	mu          sync.Mutex
	calibrating bool
}

// NewApp wires the subsystems and starts relaying state changes to the
// websocket broker.
func NewApp(logger *slog.Logger, sess *session.Controller, cal *compass.Calibrator,
	tracker *sensor.Tracker, store *prefs.Store, api *gameapi.Client,
	cone hunt.ConeParams, roundRadiusM float64, language, style string) *App {

	app := &App{
		Logger:       logger,
		Session:      sess,
		Calibrator:   cal,
		Tracker:      tracker,
		Prefs:        store,
		API:          api,
		Cone:         cone,
		RoundRadiusM: roundRadiusM,
		Language:     language,
		Style:        style,
		broker:       NewBroker(),
	}

	sess.Subscribe(func(s hunt.Session) {
		app.broker.Publish(StateEvent{Type: "session", Session: sessionPayload(s)})
	})
	tracker.Subscribe(func(snap sensor.Snapshot) {
		app.broker.Publish(StateEvent{Type: "sensor", Sensor: app.sensorPayload(snap)})
	})

	return app
}

// StartCalibration launches one calibration walk in the background.
// Returns false when a walk is already in progress.
func (a *App) StartCalibration() bool {
	a.mu.Lock()
	if a.calibrating {
		a.mu.Unlock()
		return false
	}
	a.calibrating = true
	a.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), calibrationTimeout)
		defer cancel()

		state, err := a.Calibrator.Run(ctx)

		a.mu.Lock()
		a.calibrating = false
		a.mu.Unlock()

		if err != nil {
			a.Logger.Warn("calibration run failed", "error", err)
			a.broker.Publish(StateEvent{Type: "calibration", Calibration: &CalibrationResponse{
				Calibrated: false,
				Failed:     true,
			}})
			return
		}
		a.broker.Publish(StateEvent{Type: "calibration", Calibration: calibrationPayload(state, false)})
	}()
	return true
}

// Calibrating reports whether a walk is in progress.
func (a *App) Calibrating() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calibrating
}

// AbsoluteAngle maps the latest raw heading through the calibration
// state. ok is false without a heading sample or before calibration.
func (a *App) AbsoluteAngle() (float64, bool) {
	snap := a.Tracker.Latest()
	if snap.Heading == nil {
		return 0, false
	}
	return a.Calibrator.State().AbsoluteAngle(snap.Heading.Degrees)
}
