package skein

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"skein/internal/trace"
)

// Config is the engine section of a host's TOML configuration. All
// fields are optional; zero values keep the built-in defaults.
//
//	[limits]
//	max_steps = 1000000
//	max_depth = 50000
//
//	[cache]
//	dir = "/var/cache/skein"
//
//	[trace]
//	level = "phase"
//	output = "eval.ndjson"
//
//	jobs = 8
type Config struct {
	Limits struct {
		MaxTerms uint32 `toml:"max_terms"`
		MaxSteps uint64 `toml:"max_steps"`
		MaxDepth int    `toml:"max_depth"`
		MaxNodes uint64 `toml:"max_nodes"`
	} `toml:"limits"`
	Cache struct {
		// Dir enables the program cache when set. "default" uses the
		// standard user cache location.
		Dir string `toml:"dir"`
	} `toml:"cache"`
	Trace struct {
		// Level is off, error, phase, rule, or debug.
		Level string `toml:"level"`
		// Output receives trace events; empty or "-" means stderr.
		Output string `toml:"output"`
	} `toml:"trace"`
	// Jobs bounds batch evaluation concurrency; zero uses GOMAXPROCS.
	Jobs int `toml:"jobs"`
}

// LoadConfig parses a TOML configuration file. Unknown keys are an
// error, so typos fail loudly instead of silently keeping defaults.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}
	return cfg, nil
}

// ReduceLimits converts the limits section into machine budgets.
func (c Config) ReduceLimits() Limits {
	return Limits{
		MaxTerms: c.Limits.MaxTerms,
		MaxSteps: c.Limits.MaxSteps,
		MaxDepth: c.Limits.MaxDepth,
		MaxNodes: c.Limits.MaxNodes,
	}
}

// Options expands the configuration into engine options.
func (c Config) Options() ([]Option, error) {
	opts := []Option{WithLimits(c.ReduceLimits())}

	if c.Trace.Level != "" {
		level, err := trace.ParseLevel(c.Trace.Level)
		if err != nil {
			return nil, err
		}
		tracer, err := trace.New(trace.Config{
			Level:      level,
			Mode:       trace.ModeStream,
			OutputPath: c.Trace.Output,
		})
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithTracer(tracer))
	}

	if c.Cache.Dir != "" {
		dir := c.Cache.Dir
		if dir == "default" {
			dir = ""
		}
		cache, err := OpenProgramCache(dir)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithCache(cache))
	}

	return opts, nil
}
