// Package config reads labelgen settings from the environment.
package config

import (
	"log/slog"
	"os"
	"strings"
	"time"
)

// Config holds runtime settings shared by the serve and render commands
type Config struct {
	Port              string
	SettleDelay       time.Duration
	OutputDir         string
	PrintCommand      []string
	CameraEnvironment string
	CameraUser        string
	ScanDelay         time.Duration
	ImageProbeTimeout time.Duration
	LogLevel          slog.Level
}

const (
	defaultPort              = "8888"
	defaultSettleDelay       = time.Second
	defaultOutputDir         = "labels"
	defaultCameraEnvironment = "/dev/video0"
	defaultCameraUser        = "/dev/video1"
	defaultScanDelay         = 2 * time.Second
	defaultImageProbeTimeout = 3 * time.Second
)

// Load reads configuration from LABELGEN_* variables, falling back to defaults
func Load() *Config {
	cfg := &Config{
		Port:              readEnv("LABELGEN_PORT", defaultPort),
		SettleDelay:       parseDuration("LABELGEN_SETTLE_DELAY", defaultSettleDelay),
		OutputDir:         readEnv("LABELGEN_OUTPUT_DIR", defaultOutputDir),
		PrintCommand:      strings.Fields(readEnv("LABELGEN_PRINT_COMMAND", "")),
		CameraEnvironment: readEnv("LABELGEN_CAMERA_ENVIRONMENT", defaultCameraEnvironment),
		CameraUser:        readEnv("LABELGEN_CAMERA_USER", defaultCameraUser),
		ScanDelay:         parseDuration("LABELGEN_SCAN_DELAY", defaultScanDelay),
		ImageProbeTimeout: parseDuration("LABELGEN_IMAGE_PROBE_TIMEOUT", defaultImageProbeTimeout),
		LogLevel:          ParseLevel(readEnv("LABELGEN_LOG_LEVEL", "info")),
	}
	// a zero settle delay is allowed, negative ones are not
	if cfg.SettleDelay < 0 {
		cfg.SettleDelay = defaultSettleDelay
	}
	if cfg.ScanDelay <= 0 {
		cfg.ScanDelay = defaultScanDelay
	}
	if cfg.ImageProbeTimeout <= 0 {
		cfg.ImageProbeTimeout = defaultImageProbeTimeout
	}
	return cfg
}

// ParseLevel maps a level name to a slog.Level. Unknown names mean info.
func ParseLevel(name string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return slog.LevelInfo
	}
	return level
}

func readEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func parseDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return def
}
