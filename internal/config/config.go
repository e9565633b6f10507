package config

import (
	"log/slog"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port               int    `envconfig:"PORT" default:"8080"`
	DatabaseURL        string `envconfig:"DATABASE_URL"`
	JWTSecret          string `envconfig:"JWT_SECRET" default:"dev-secret-change-in-production"`
	AccessPasswordHash string `envconfig:"ACCESS_PASSWORD_HASH"`
	AllowedOrigins     string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
	SurfaceWidth       int    `envconfig:"SURFACE_WIDTH" default:"1280"`
	SurfaceHeight      int    `envconfig:"SURFACE_HEIGHT" default:"800"`
	FrameRate          int    `envconfig:"FRAME_RATE" default:"60"`
	HistoryLimit       int    `envconfig:"HISTORY_LIMIT" default:"0"`
	LogLevel           string `envconfig:"LOG_LEVEL" default:"info"`
	SeedSample         bool   `envconfig:"SEED_SAMPLE" default:"false"`
	PDFPage            string `envconfig:"PDF_PAGE" default:"A4"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration with every default applied and nothing
// read from the environment.
func Default() *Config {
	return &Config{
		Port:           8080,
		JWTSecret:      "dev-secret-change-in-production",
		AllowedOrigins: "http://localhost:5173,http://localhost:3000",
		SurfaceWidth:   1280,
		SurfaceHeight:  800,
		FrameRate:      60,
		LogLevel:       "info",
		PDFPage:        "A4",
	}
}

// Origins splits AllowedOrigins into host patterns for websocket.Accept.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		o = strings.TrimSpace(o)
		o = strings.TrimPrefix(o, "http://")
		o = strings.TrimPrefix(o, "https://")
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}

func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
