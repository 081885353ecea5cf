// Package config holds the tool's settings.
//
// Settings are layered: Default, then an optional YAML file, then command-line
// overrides. The result is published through the binding effect under the
// dotted keys in keys.go, and components read it back with Resolve.
package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/on-the-ground/collatz_ive_go/effects/binding"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Memo    MemoConfig    `yaml:"memo"`
	Cursor  CursorConfig  `yaml:"cursor"`
	Session SessionConfig `yaml:"session"`
	Display DisplayConfig `yaml:"display"`
	Log     LogConfig     `yaml:"log"`
}

type MemoConfig struct {
	Path         string `yaml:"path"`
	Backend      string `yaml:"backend"`
	CacheSize    int64  `yaml:"cache_size"`
	PersistEvery int64  `yaml:"persist_every"`
}

type CursorConfig struct {
	Path string `yaml:"path"`
}

type SessionConfig struct {
	TickInterval time.Duration `yaml:"tick_interval"`
	MaxSteps     int64         `yaml:"max_steps"`
}

type DisplayConfig struct {
	ShowOutput    bool  `yaml:"show_output"`
	Color         bool  `yaml:"color"`
	ProgressEvery int64 `yaml:"progress_every"`
	HistogramBins int   `yaml:"histogram_bins"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	BufferSize int    `yaml:"buffer_size"`
}

// Default uses memo.json, current_num.txt and a 10ms tick.
func Default() Config {
	return Config{
		Memo: MemoConfig{
			Path:         "memo.json",
			Backend:      "map",
			PersistEvery: 1,
		},
		Cursor: CursorConfig{
			Path: "current_num.txt",
		},
		Session: SessionConfig{
			TickInterval: 10 * time.Millisecond,
		},
		Display: DisplayConfig{
			Color:         true,
			ProgressEvery: 1000,
			HistogramBins: 20,
		},
		Log: LogConfig{
			Level:      "info",
			BufferSize: 64,
		},
	}
}

// LoadFile overlays the YAML file at path onto Default.
// Unknown keys are rejected so typos do not silently fall back to defaults.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	if c.Memo.Path == "" {
		errs = append(errs, errors.New("memo.path is empty"))
	}
	if c.Cursor.Path == "" {
		errs = append(errs, errors.New("cursor.path is empty"))
	}
	switch c.Memo.Backend {
	case "map", "memdb":
	default:
		errs = append(errs, fmt.Errorf("memo.backend %q is not one of map, memdb", c.Memo.Backend))
	}
	if c.Memo.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("memo.cache_size %d is negative", c.Memo.CacheSize))
	}
	if c.Memo.PersistEvery < 0 {
		errs = append(errs, fmt.Errorf("memo.persist_every %d is negative", c.Memo.PersistEvery))
	}
	if c.Session.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("session.tick_interval %s must be positive", c.Session.TickInterval))
	}
	if c.Session.MaxSteps < 0 {
		errs = append(errs, fmt.Errorf("session.max_steps %d is negative", c.Session.MaxSteps))
	}
	if c.Display.HistogramBins <= 0 {
		errs = append(errs, fmt.Errorf("display.histogram_bins %d must be positive", c.Display.HistogramBins))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Bindings flattens c into the binding-effect map.
func (c Config) Bindings() map[string]any {
	return map[string]any{
		ConfigMemoPath:                   c.Memo.Path,
		ConfigMemoBackend:                c.Memo.Backend,
		ConfigMemoCacheSize:              c.Memo.CacheSize,
		ConfigMemoPersistEvery:           c.Memo.PersistEvery,
		ConfigCursorPath:                 c.Cursor.Path,
		ConfigSessionTickInterval:        c.Session.TickInterval,
		ConfigSessionMaxSteps:            c.Session.MaxSteps,
		ConfigDisplayShowOutput:          c.Display.ShowOutput,
		ConfigDisplayColor:               c.Display.Color,
		ConfigDisplayProgressEvery:       c.Display.ProgressEvery,
		ConfigDisplayHistogramBins:       c.Display.HistogramBins,
		ConfigEffectLogLevel:             c.Log.Level,
		ConfigEffectLogHandlerBufferSize: c.Log.BufferSize,
	}
}

// WithEffectHandler publishes c through a binding scope.
func WithEffectHandler(ctx context.Context, c Config) (context.Context, func() context.Context) {
	return binding.WithEffectHandler(ctx, 1, 1, c.Bindings())
}

// Resolve reads the configuration back from the binding effect.
// Unbound keys take their Default value.
func Resolve(ctx context.Context) (Config, error) {
	def := Default()
	var errs []error
	get := func(key string, dst any) {
		var err error
		switch p := dst.(type) {
		case *string:
			*p, err = binding.GetOrDefault(ctx, key, *p)
		case *int64:
			*p, err = binding.GetOrDefault(ctx, key, *p)
		case *int:
			*p, err = binding.GetOrDefault(ctx, key, *p)
		case *bool:
			*p, err = binding.GetOrDefault(ctx, key, *p)
		case *time.Duration:
			*p, err = binding.GetOrDefault(ctx, key, *p)
		default:
			err = fmt.Errorf("unsupported config type %T", dst)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
	}

	cfg := def
	get(ConfigMemoPath, &cfg.Memo.Path)
	get(ConfigMemoBackend, &cfg.Memo.Backend)
	get(ConfigMemoCacheSize, &cfg.Memo.CacheSize)
	get(ConfigMemoPersistEvery, &cfg.Memo.PersistEvery)
	get(ConfigCursorPath, &cfg.Cursor.Path)
	get(ConfigSessionTickInterval, &cfg.Session.TickInterval)
	get(ConfigSessionMaxSteps, &cfg.Session.MaxSteps)
	get(ConfigDisplayShowOutput, &cfg.Display.ShowOutput)
	get(ConfigDisplayColor, &cfg.Display.Color)
	get(ConfigDisplayProgressEvery, &cfg.Display.ProgressEvery)
	get(ConfigDisplayHistogramBins, &cfg.Display.HistogramBins)
	get(ConfigEffectLogLevel, &cfg.Log.Level)
	get(ConfigEffectLogHandlerBufferSize, &cfg.Log.BufferSize)

	if err := errors.Join(errs...); err != nil {
		return def, fmt.Errorf("config: %w", err)
	}
	return cfg, cfg.Validate()
}
