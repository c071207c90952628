// Package session owns the round life-cycle state machine: init-game,
// start-round, submit-answer, finish-round, and the countdown timer in
// between.
//
// Failure semantics are deliberately asymmetric: StartRound surfaces
// network failures to the caller so the UI can offer a retry, while the
// other operations record an error status and swallow the failure —
// background telemetry must never interrupt play. Nothing is retried
// automatically; every retry is a fresh user action.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/scavengerhunt/huntclient/internal/gameapi"
	"github.com/scavengerhunt/huntclient/internal/geo"
	"github.com/scavengerhunt/huntclient/internal/hunt"
)

// ErrNotInitialized is returned synchronously when a round operation is
// invoked before InitGame established a user. This is programmer error,
// never silently ignored.
var ErrNotInitialized = errors.New("session: init-game has not been called")

// DefaultMaxRoundSeconds bounds one riddle round.
const DefaultMaxRoundSeconds = 1800

// Config tunes the controller. Zero values pick the defaults; the tick
// interval is only shortened in tests.
type Config struct {
	MaxRoundSeconds int
	TickInterval    time.Duration
}

// Controller is the single writer of the session state. Readers get
// whole snapshots, never field-by-field access, so a late-arriving
// response can never expose a half-updated session.
type Controller struct {
	api    *gameapi.Client
	logger *slog.Logger

	maxRoundSeconds int
	tickInterval    time.Duration

	mu    sync.Mutex
	sess  hunt.Session
	timer *roundTimer
	// epoch identifies the active round generation. Responses that
	// started in an earlier epoch are discarded instead of resurrecting
	// state that FinishRound or a newer round already replaced.
	epoch int

	subs    map[int]func(hunt.Session)
	nextSub int
}

func New(api *gameapi.Client, logger *slog.Logger, cfg Config) *Controller {
	if cfg.MaxRoundSeconds <= 0 {
		cfg.MaxRoundSeconds = DefaultMaxRoundSeconds
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	return &Controller{
		api:             api,
		logger:          logger,
		maxRoundSeconds: cfg.MaxRoundSeconds,
		tickInterval:    cfg.TickInterval,
		sess: hunt.Session{
			Role:            hunt.RoleGuest,
			Status:          hunt.StatusFinished,
			MaxRoundSeconds: cfg.MaxRoundSeconds,
		},
		subs: make(map[int]func(hunt.Session)),
	}
}

// Snapshot returns a copy of the current session.
func (c *Controller) Snapshot() hunt.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() hunt.Session {
	s := c.sess
	if s.CurrentTarget != nil {
		t := *s.CurrentTarget
		s.CurrentTarget = &t
	}
	if s.SecondsRemaining != nil {
		v := *s.SecondsRemaining
		s.SecondsRemaining = &v
	}
	s.Landmarks = append([]hunt.Landmark(nil), s.Landmarks...)
	return s
}

// Subscribe registers fn for every state change. The returned function
// removes the subscription and is safe to call more than once.
func (c *Controller) Subscribe(fn func(hunt.Session)) func() {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
		})
	}
}

// SetRole records the player's role.
func (c *Controller) SetRole(role hunt.Role) {
	c.mu.Lock()
	c.sess.Role = role
	c.mu.Unlock()
	c.notify()
}

// InitGame establishes the session with the game service and loads the
// landmark set for the player's surroundings. Network failure degrades
// the session to error status and is not returned.
func (c *Controller) InitGame(ctx context.Context, userID string, pos hunt.LatLng, angleDeg float64, cone hunt.ConeParams) error {
	c.mu.Lock()
	c.sess.UserID = userID
	c.sess.Status = hunt.StatusInitializing
	c.sess.ErrorMessage = ""
	c.mu.Unlock()
	c.notify()

	resp, err := c.api.InitGame(ctx, gameapi.PositionRequest{
		UserID:           userID,
		Latitude:         pos.Lat,
		Longitude:        pos.Lng,
		Angle:            angleDeg,
		SpanDeg:          cone.SpanDeg,
		ConeRadiusMeters: cone.RadiusMeters,
	})
	if err != nil {
		c.fail("init-game", err)
		return nil
	}

	landmarks := landmarksFromDTO(resp.Landmarks)

	c.mu.Lock()
	c.sess.Landmarks = landmarks
	c.sess.Status = hunt.StatusInitialized
	c.mu.Unlock()
	c.notify()

	c.logger.Info("game initialized", "user_id", userID, "landmarks", len(landmarks))
	return nil
}

// UpdatePosition is fire-and-forget telemetry. Failure flags the
// session but is never surfaced; there is no retry.
func (c *Controller) UpdatePosition(ctx context.Context, pos hunt.LatLng, angleDeg float64, cone hunt.ConeParams) error {
	c.mu.Lock()
	userID := c.sess.UserID
	c.mu.Unlock()
	if userID == "" {
		return ErrNotInitialized
	}

	err := c.api.UpdatePosition(ctx, gameapi.PositionRequest{
		UserID:           userID,
		Latitude:         pos.Lat,
		Longitude:        pos.Lng,
		Angle:            angleDeg,
		SpanDeg:          cone.SpanDeg,
		ConeRadiusMeters: cone.RadiusMeters,
	})
	if err != nil {
		c.fail("update-position", err)
	}
	return nil
}

// StartRound asks the service for a new riddle target and starts the
// countdown. It requires a prior InitGame (ErrNotInitialized otherwise)
// and is the one operation that returns network failures to the caller.
func (c *Controller) StartRound(ctx context.Context, pos hunt.LatLng, angleDeg, radiusMeters float64, language, style string) error {
	c.mu.Lock()
	userID := c.sess.UserID
	c.mu.Unlock()
	if userID == "" {
		return ErrNotInitialized
	}

	target, err := c.api.StartRound(ctx, gameapi.StartRoundRequest{
		UserID:       userID,
		Latitude:     pos.Lat,
		Longitude:    pos.Lng,
		Angle:        angleDeg,
		RadiusMeters: radiusMeters,
		Language:     language,
		Style:        style,
	})
	if err != nil {
		c.fail("start-round", err)
		return err
	}

	c.mu.Lock()
	c.epoch++
	c.sess.Status = hunt.StatusInRound
	c.sess.CurrentTarget = &hunt.RoundTarget{
		ID:           target.ID,
		Name:         target.Name,
		Riddle:       target.Riddle,
		AttemptsLeft: target.AttemptsLeft,
	}
	c.sess.ErrorMessage = ""
	c.startTimerLocked()
	c.mu.Unlock()
	c.notify()

	c.logger.Info("round started", "target", target.Name, "attempts_left", target.AttemptsLeft)
	return nil
}

// SubmitOptions carries the optional fields of a submit-answer call.
// SecondsUsed is computed from the countdown when absent.
type SubmitOptions struct {
	SecondsUsed  *int
	CurrentAngle *float64
	Position     *hunt.LatLng
}

// SubmitAnswer reports the player's answer attempt. The active timer is
// always cancelled first, in every reachable state. Network failure
// degrades the session and is not returned.
func (c *Controller) SubmitAnswer(ctx context.Context, opts SubmitOptions) error {
	c.mu.Lock()
	userID := c.sess.UserID
	if userID == "" {
		c.mu.Unlock()
		return ErrNotInitialized
	}

	c.stopTimerLocked()
	c.sess.TimerActive = false

	secondsUsed := c.maxRoundSeconds
	if opts.SecondsUsed != nil {
		secondsUsed = *opts.SecondsUsed
	} else if c.sess.SecondsRemaining != nil && *c.sess.SecondsRemaining > 0 {
		secondsUsed = c.maxRoundSeconds - *c.sess.SecondsRemaining
	}
	epoch := c.epoch
	c.mu.Unlock()
	c.notify()

	req := gameapi.SubmitAnswerRequest{
		UserID:       userID,
		SecondsUsed:  secondsUsed,
		CurrentAngle: opts.CurrentAngle,
	}
	if opts.Position != nil {
		req.Latitude = &opts.Position.Lat
		req.Longitude = &opts.Position.Lng
	}

	resp, err := c.api.SubmitAnswer(ctx, req)
	if err != nil {
		c.fail("submit-answer", err)
		return nil
	}
	c.applyAnswer(epoch, resp)
	return nil
}

// applyAnswer folds a submit-answer response into the session, unless
// the round generation moved on while the request was in flight.
func (c *Controller) applyAnswer(epoch int, resp *gameapi.SubmitAnswerResponse) {
	c.mu.Lock()
	if epoch != c.epoch {
		c.mu.Unlock()
		c.logger.Warn("discarding stale submit-answer response", "epoch", epoch)
		return
	}

	switch {
	case resp.GameFinished:
		zero := 0
		c.sess.Status = hunt.StatusFinished
		c.sess.CurrentTarget = nil
		c.sess.SecondsRemaining = &zero
		c.sess.LastMessage = resp.Message
	case resp.Target != nil:
		// New target: either the answer was correct and the hunt moves
		// on, or attempts ran out on the old target. Fresh countdown
		// either way.
		c.sess.CurrentTarget = &hunt.RoundTarget{
			ID:           resp.Target.ID,
			Name:         resp.Target.Name,
			Riddle:       resp.Target.Riddle,
			AttemptsLeft: resp.Target.AttemptsLeft,
		}
		c.sess.LastMessage = resp.Message
		c.startTimerLocked()
	default:
		// Wrong answer with attempts remaining: show the message, keep
		// the round as it stands. The timer stays cancelled until the
		// next submit or round start.
		c.sess.LastMessage = resp.Message
	}
	c.mu.Unlock()
	c.notify()

	c.logger.Info("answer result",
		"correct", resp.IsCorrect,
		"finished", resp.GameFinished,
		"message", resp.Message)
}

// FinishRound ends the session on the service and tears the local state
// down to defaults. Network failure degrades and is not returned.
func (c *Controller) FinishRound(ctx context.Context) error {
	c.mu.Lock()
	userID := c.sess.UserID
	if userID == "" {
		c.mu.Unlock()
		return ErrNotInitialized
	}
	c.stopTimerLocked()
	c.sess.TimerActive = false
	c.epoch++
	c.mu.Unlock()

	resp, err := c.api.FinishRound(ctx, userID)
	if err != nil {
		c.fail("finish-round", err)
		return nil
	}

	c.mu.Lock()
	c.sess.Status = hunt.StatusFinished
	c.sess.CurrentTarget = nil
	c.sess.SecondsRemaining = nil
	c.sess.Landmarks = nil
	c.sess.LastMessage = resp.Message
	c.mu.Unlock()
	c.notify()

	c.logger.Info("round finished", "message", resp.Message)
	return nil
}

// Reset tears the session down locally, e.g. on logout. No service call.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.stopTimerLocked()
	c.epoch++
	c.sess = hunt.Session{
		Role:            hunt.RoleGuest,
		Status:          hunt.StatusFinished,
		MaxRoundSeconds: c.maxRoundSeconds,
	}
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) fail(op string, err error) {
	c.mu.Lock()
	c.sess.Status = hunt.StatusError
	c.sess.ErrorMessage = err.Error()
	c.mu.Unlock()
	c.notify()
	c.logger.Error("game service call failed", "op", op, "error", err)
}

func (c *Controller) notify() {
	c.mu.Lock()
	snap := c.snapshotLocked()
	subs := make([]func(hunt.Session), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

func landmarksFromDTO(dtos []gameapi.LandmarkDTO) []hunt.Landmark {
	landmarks := make([]hunt.Landmark, 0, len(dtos))
	for _, d := range dtos {
		lm := hunt.Landmark{ID: d.ID, Name: d.Name}
		for _, pair := range d.Coordinates {
			if len(pair) < 2 {
				continue
			}
			lm.Boundary = append(lm.Boundary, hunt.LatLng{Lat: pair[0], Lng: pair[1]})
		}
		if len(d.Centroid) >= 2 {
			lm.Centroid = &hunt.LatLng{Lat: d.Centroid[0], Lng: d.Centroid[1]}
		} else {
			lm.Centroid = geo.Centroid(lm.Boundary)
		}
		landmarks = append(landmarks, lm)
	}
	return landmarks
}
