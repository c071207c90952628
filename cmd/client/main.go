package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/scavengerhunt/huntclient/internal/compass"
	"github.com/scavengerhunt/huntclient/internal/config"
	"github.com/scavengerhunt/huntclient/internal/gameapi"
	"github.com/scavengerhunt/huntclient/internal/hunt"
	"github.com/scavengerhunt/huntclient/internal/prefs"
	"github.com/scavengerhunt/huntclient/internal/sensor"
	"github.com/scavengerhunt/huntclient/internal/server"
	"github.com/scavengerhunt/huntclient/internal/session"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	// Optional; the environment wins over the file.
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- Preferences store ---
	store, err := prefs.Open(ctx, cfg.PrefsPath)
	if err != nil {
		return fmt.Errorf("opening prefs store: %w", err)
	}
	defer store.Close()
	logger.Info("opened prefs store", "path", cfg.PrefsPath)

	// --- Game service client ---
	api := gameapi.New(cfg.GameServiceURL, nil)

	// --- Sensors ---
	var src sensor.Source
	if cfg.SimMode {
		logger.Info("using simulated sensors",
			"start_lat", cfg.SimStartLat,
			"start_lng", cfg.SimStartLng,
			"course_deg", cfg.SimCourseDeg,
			"compass_err_deg", cfg.SimCompassErrDeg)
		src = sensor.NewSimSource(
			hunt.LatLng{Lat: cfg.SimStartLat, Lng: cfg.SimStartLng},
			cfg.SimCourseDeg, cfg.SimSpeedMS, cfg.SimCompassErrDeg)
	} else {
		return fmt.Errorf("no sensor source available: set SIM_MODE=true or attach a device bridge")
	}

	tracker := sensor.NewTracker(src, logger)
	tracker.Start()
	defer tracker.Stop()
	tracker.Refresh(ctx)

	// --- Compass ---
	cal := compass.NewCalibrator(src, logger, func(pctx context.Context, offsetDeg float64) error {
		userID, err := store.UserID(pctx)
		if err != nil || userID == "" {
			userID, err = store.EnsureUserID(pctx)
			if err != nil {
				return err
			}
		}
		return store.SetCalibrationOffset(pctx, userID, offsetDeg)
	})

	// A returning user skips the calibration walk.
	if userID, err := store.UserID(ctx); err == nil && userID != "" {
		if offset, err := store.CalibrationOffset(ctx, userID); err == nil && offset != nil {
			cal.Restore(ctx, *offset)
			logger.Info("restored calibration offset", "user_id", userID, "offset_deg", *offset)
		}
	}

	// --- Session ---
	sess := session.New(api, logger, session.Config{MaxRoundSeconds: cfg.MaxRoundSeconds})
	if role, err := store.Role(ctx); err == nil {
		sess.SetRole(role)
	}

	// --- Control surface ---
	cone := hunt.ConeParams{
		SpanDeg:      cfg.ConeSpanDeg,
		RadiusMeters: cfg.ConeRadiusM,
		Resolution:   cfg.ConeResolution,
	}
	app := server.NewApp(logger, sess, cal, tracker, store, api,
		cone, cfg.RoundRadiusM, cfg.Language, cfg.Style)
	srv := server.New(cfg.HTTPAddr, logger, app)

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting control surface", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down control surface")
		return srv.Shutdown(context.Background())
	})

	g.Go(func() error {
		reportPosition(gctx, logger, sess, tracker, app, cone,
			time.Duration(cfg.TelemetrySeconds)*time.Second)
		return nil
	})

	return g.Wait()
}

// reportPosition periodically pushes the player's position to the game
// service. Before init-game the session rejects updates and the tick is
// skipped; failures inside UpdatePosition degrade the session state and
// never stop the loop.
func reportPosition(ctx context.Context, logger *slog.Logger, sess *session.Controller,
	tracker *sensor.Tracker, app *server.App, cone hunt.ConeParams, interval time.Duration) {

	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			snap := tracker.Latest()
			if snap.Position == nil {
				continue
			}
			angle, _ := app.AbsoluteAngle()
			if err := sess.UpdatePosition(ctx, snap.Position.LatLng(), angle, cone); err != nil {
				logger.Debug("telemetry tick skipped", "error", err)
			}
		}
	}
}
