// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/user/videostream/pkg/adapters/smartsource"
	"github.com/user/videostream/pkg/framesource"
	"github.com/user/videostream/pkg/ports"
)

// EnvPrefix prefixes every environment override, e.g. VIDEOSTREAM_FFMPEG_PATH.
const EnvPrefix = "VIDEOSTREAM_"

// Config represents the full configuration for videostream.
type Config struct {
	// Decoding
	Backend     string `yaml:"backend" env:"BACKEND"`
	FFmpegPath  string `yaml:"ffmpeg_path" env:"FFMPEG_PATH"`
	PixelFormat string `yaml:"pixel_format" env:"PIXEL_FORMAT"`

	// Playback
	FallbackFPS   int `yaml:"fallback_fps" env:"FALLBACK_FPS"`
	RewindRetries int `yaml:"rewind_retries" env:"REWIND_RETRIES"`

	// Surface
	SurfaceWidth  int    `yaml:"surface_width" env:"SURFACE_WIDTH"`
	SurfaceHeight int    `yaml:"surface_height" env:"SURFACE_HEIGHT"`
	Background    string `yaml:"background" env:"BACKGROUND"`

	// Logging
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`

	// Debug
	Debug         bool   `yaml:"debug" env:"DEBUG"`
	DebugDir      string `yaml:"debug_dir" env:"DEBUG_DIR"`
	SnapshotEvery int    `yaml:"snapshot_every" env:"SNAPSHOT_EVERY"`

	// Metrics
	MetricsAddr string `yaml:"metrics_addr" env:"METRICS_ADDR"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		Backend:     string(smartsource.BackendAuto),
		PixelFormat: ports.PixelFormatBGR.String(),

		RewindRetries: 1,

		SurfaceWidth:  640,
		SurfaceHeight: 480,
		Background:    "#000000",

		LogLevel: "info",

		DebugDir:      "./debug",
		SnapshotEvery: 30,
	}
}

// LoadFromFile loads configuration from a YAML file over the defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Load reads path when it is non-empty, then applies VIDEOSTREAM_* environment
// overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		var err error
		if cfg, err = LoadFromFile(path); err != nil {
			return cfg, fmt.Errorf("load config %s: %w", path, err)
		}
	}
	if err := ApplyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// ApplyEnv overrides fields from VIDEOSTREAM_* environment variables.
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}

// Validate checks value ranges and names.
func (c Config) Validate() error {
	var errs []error
	if _, err := smartsource.ParseBackend(c.Backend); err != nil {
		errs = append(errs, err)
	}
	if _, err := ParsePixelFormat(c.PixelFormat); err != nil {
		errs = append(errs, err)
	}
	if _, err := ports.ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.FallbackFPS < 0 {
		errs = append(errs, fmt.Errorf("fallback_fps must not be negative: %d", c.FallbackFPS))
	}
	if c.SurfaceWidth <= 0 || c.SurfaceHeight <= 0 {
		errs = append(errs, fmt.Errorf("surface size must be positive: %dx%d", c.SurfaceWidth, c.SurfaceHeight))
	}
	if c.SnapshotEvery < 0 {
		errs = append(errs, fmt.Errorf("snapshot_every must not be negative: %d", c.SnapshotEvery))
	}
	return errors.Join(errs...)
}

// Level returns the parsed log_level, LevelInfo when it is not a known name.
func (c Config) Level() ports.LogLevel {
	l, _ := ports.ParseLogLevel(c.LogLevel)
	return l
}

// ParsePixelFormat parses bgr24, rgb24 or rgba. The empty string means bgr24.
func ParsePixelFormat(s string) (ports.PixelFormat, error) {
	for _, f := range []ports.PixelFormat{ports.PixelFormatBGR, ports.PixelFormatRGB, ports.PixelFormatRGBA} {
		if s == f.String() {
			return f, nil
		}
	}
	if s == "" {
		return ports.PixelFormatBGR, nil
	}
	return 0, fmt.Errorf("unknown pixel format %q", s)
}

// Format returns the configured pixel format, BGR when invalid.
func (c Config) Format() ports.PixelFormat {
	f, err := ParsePixelFormat(c.PixelFormat)
	if err != nil {
		return ports.PixelFormatBGR
	}
	return f
}

// SourceOptions converts the playback settings to framesource.Options.
func (c Config) SourceOptions() framesource.Options {
	opts := framesource.DefaultOptions()
	opts.FallbackFPS = c.FallbackFPS
	if c.RewindRetries > 0 {
		opts.RewindRetries = c.RewindRetries
	}
	return opts
}

// DecoderOptions converts the decoding settings to smartsource.Options.
func (c Config) DecoderOptions() smartsource.Options {
	backend, err := smartsource.ParseBackend(c.Backend)
	if err != nil {
		backend = smartsource.BackendAuto
	}
	return smartsource.Options{
		Backend:    backend,
		FFmpegPath: c.FFmpegPath,
		Format:     c.Format(),
	}
}

// ParseColor parses a hex color string to color.Color.
func ParseColor(hex string) color.Color {
	if len(hex) == 0 {
		return color.Black
	}

	if hex[0] == '#' {
		hex = hex[1:]
	}

	if len(hex) != 6 {
		return color.Black
	}

	var r, g, b uint8
	for i, c := range []byte{hex[0], hex[1]} {
		v := hexValue(c)
		if i == 0 {
			r = v << 4
		} else {
			r |= v
		}
	}
	for i, c := range []byte{hex[2], hex[3]} {
		v := hexValue(c)
		if i == 0 {
			g = v << 4
		} else {
			g |= v
		}
	}
	for i, c := range []byte{hex[4], hex[5]} {
		v := hexValue(c)
		if i == 0 {
			b = v << 4
		} else {
			b |= v
		}
	}

	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func hexValue(c byte) uint8 {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	default:
		return 0
	}
}
