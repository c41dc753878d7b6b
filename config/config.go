// Package config handles loading the renderer and host configuration from a
// YAML file, an optional .env file and environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ashokshau/qrcanvas"
)

// EnvPrefix prefixes every environment override, e.g. QRCANVAS_PAYLOAD.
const EnvPrefix = "QRCANVAS_"

// DefaultPayload is the download link the landing page ships with.
const DefaultPayload = "https://drive.google.com/file/d/1cBVFafLyS735CTYlzzIkpEPgd5WjZTB1/view?usp=sharing"

// Config holds all application configuration values.
type Config struct {
	Payload         string         `yaml:"payload" env:"PAYLOAD"`
	Level           qrcanvas.Level `yaml:"level" env:"LEVEL"`
	CellSize        int            `yaml:"cell_size" env:"CELL_SIZE"`
	Margin          int            `yaml:"margin" env:"MARGIN"`
	CornerRadius    float64        `yaml:"corner_radius" env:"CORNER_RADIUS"`
	Foreground      string         `yaml:"foreground" env:"FOREGROUND"`
	Background      string         `yaml:"background" env:"BACKGROUND"`
	Encoder         string         `yaml:"encoder" env:"ENCODER"`
	Addr            string         `yaml:"addr" env:"ADDR"`
	LogLevel        string         `yaml:"log_level" env:"LOG_LEVEL"`
	ShutdownTimeout Duration       `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// Duration is a wrapper around time.Duration that supports YAML unmarshalling
// from human-readable strings like "30s", "5m", "1h".
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements the yaml.Unmarshaler interface for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

// UnmarshalText parses environment values.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML implements the yaml.Marshaler interface for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Defaults returns a Config populated with the landing page values.
func Defaults() *Config {
	return &Config{
		Payload:         DefaultPayload,
		Level:           qrcanvas.LevelM,
		CellSize:        5,
		Margin:          10,
		CornerRadius:    1,
		Foreground:      "#000000",
		Background:      "#FFFFFF",
		Encoder:         "native",
		Addr:            ":8080",
		LogLevel:        "info",
		ShutdownTimeout: Duration{10 * time.Second},
	}
}

// Load reads configuration from the YAML file at path, falling back to
// defaults if the file does not exist. Variables from envFiles are loaded
// without overriding the process environment, then QRCANVAS_* variables
// override any file or default values.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
			// File doesn't exist, proceed with defaults.
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("loading env file %s: %w", f, err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the values can drive a render.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Payload) == "" {
		errs = append(errs, errors.New("payload is required"))
	}
	if !c.Level.Valid() {
		errs = append(errs, fmt.Errorf("level: %w", qrcanvas.ErrInvalidLevel))
	}
	if c.CellSize <= 0 {
		errs = append(errs, fmt.Errorf("cell_size must be positive, got %d", c.CellSize))
	}
	if c.Margin < 0 {
		errs = append(errs, fmt.Errorf("margin must not be negative, got %d", c.Margin))
	}
	if c.CornerRadius < 0 {
		errs = append(errs, fmt.Errorf("corner_radius must not be negative, got %v", c.CornerRadius))
	}
	if _, err := ParseHexColor(c.Foreground); err != nil {
		errs = append(errs, fmt.Errorf("foreground: %w", err))
	}
	if _, err := ParseHexColor(c.Background); err != nil {
		errs = append(errs, fmt.Errorf("background: %w", err))
	}
	if _, err := qrcanvas.EncoderByName(c.Encoder); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Style converts the color and radius settings for the renderer.
func (c *Config) Style() qrcanvas.Style {
	fg, err := ParseHexColor(c.Foreground)
	if err != nil {
		fg = color.RGBA{A: 0xFF}
	}
	bg, err := ParseHexColor(c.Background)
	if err != nil {
		bg = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	}
	return qrcanvas.Style{Foreground: fg, Background: bg, CornerRadius: float32(c.CornerRadius)}
}

// RendererOptions builds the renderer options this config selects.
func (c *Config) RendererOptions() ([]qrcanvas.Option, error) {
	enc, err := qrcanvas.EncoderByName(c.Encoder)
	if err != nil {
		return nil, err
	}
	return []qrcanvas.Option{qrcanvas.WithEncoder(enc), qrcanvas.WithStyle(c.Style())}, nil
}

// ParseHexColor accepts "#RGB" or "#RRGGBB", with or without the leading '#'.
func ParseHexColor(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xFF}, nil
}
