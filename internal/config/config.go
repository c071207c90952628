package config

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// HTTPAddr is the local control surface a map UI attaches to.
	HTTPAddr       string     `env:"HTTP_ADDR" envDefault:":7080"`
	GameServiceURL string     `env:"GAME_SERVICE_URL" envDefault:"http://localhost:8443"`
	PrefsPath      string     `env:"PREFS_PATH" envDefault:"data/prefs.db"`
	LogLevel       slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`

	ConeSpanDeg    float64 `env:"CONE_SPAN_DEG" envDefault:"60"`
	ConeRadiusM    float64 `env:"CONE_RADIUS_M" envDefault:"100"`
	ConeResolution int     `env:"CONE_RESOLUTION" envDefault:"50"`

	RoundRadiusM    float64 `env:"ROUND_RADIUS_M" envDefault:"500"`
	MaxRoundSeconds int     `env:"MAX_ROUND_SECONDS" envDefault:"1800"`
	Language        string  `env:"LANGUAGE" envDefault:"english"`
	Style           string  `env:"STYLE" envDefault:"medieval"`

	// TelemetrySeconds is the update-position reporting interval.
	TelemetrySeconds int `env:"TELEMETRY_SECONDS" envDefault:"10"`

	// Sim mode replaces device sensors with a scripted walk.
	SimMode          bool    `env:"SIM_MODE" envDefault:"true"`
	SimStartLat      float64 `env:"SIM_START_LAT" envDefault:"51.8940"`
	SimStartLng      float64 `env:"SIM_START_LNG" envDefault:"-8.4902"`
	SimCourseDeg     float64 `env:"SIM_COURSE_DEG" envDefault:"40"`
	SimSpeedMS       float64 `env:"SIM_SPEED_MS" envDefault:"1.4"`
	SimCompassErrDeg float64 `env:"SIM_COMPASS_ERR_DEG" envDefault:"25"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}
