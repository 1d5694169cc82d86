package insight

import (
	"io"
	"log/slog"
	"math"
	"strconv"
)

// Engine produces inline and full-run insights.
type Engine struct {
	cfg    Config
	ids    IDGenerator
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfig sets the thresholds. Zero fields keep their defaults.
func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		e.cfg = cfg.withDefaults()
	}
}

// WithIDGenerator sets the generator for analysis item ids.
//
// Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) {
		if g != nil {
			e.ids = g
		}
	}
}

// WithLogger sets the logger. Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		cfg:    DefaultConfig(),
		ids:    UUIDv7Generator{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the thresholds in effect.
func (e *Engine) Config() Config {
	return e.cfg
}

// cited keeps the items that name at least one non-empty data source.
func cited[T any](items []T, sources func(T) []string) []T {
	out := items[:0:0]
	for _, it := range items {
		if hasSource(sources(it)) {
			out = append(out, it)
		}
	}
	return out
}

func hasSource(sources []string) bool {
	for _, s := range sources {
		if s != "" {
			return true
		}
	}
	return false
}

// percent renders a 0-1 rate as a percentage with at most two decimals.
func percent(rate float64) string {
	return strconv.FormatFloat(round(rate*100, 2), 'f', -1, 64) + "%"
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
