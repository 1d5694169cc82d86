// Package config loads engine thresholds from YAML and validates them
// against an embedded CUE schema.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/CCAFRICA/spm-platform-sub001/internal/insight"
	"github.com/CCAFRICA/spm-platform-sub001/internal/reconcile"
	"github.com/CCAFRICA/spm-platform-sub001/internal/resolve"
	"github.com/CCAFRICA/spm-platform-sub001/internal/surface"
)

//go:embed schema.cue
var schemaCUE string

// DefaultCheckpointEvery is how many entities reconciliation classifies
// between inline insight checks.
const DefaultCheckpointEvery = 100

// Config is the thresholds file.
type Config struct {
	Reconciliation Reconciliation `json:"reconciliation" yaml:"reconciliation"`
	Insight        insight.Config `json:"insight" yaml:"insight"`
	Resolution     Resolution     `json:"resolution" yaml:"resolution"`
	Density        Density        `json:"density" yaml:"density"`
}

// Reconciliation holds reconciliation settings.
type Reconciliation struct {
	Tolerance       float64 `json:"tolerance" yaml:"tolerance"`
	CheckpointEvery int     `json:"checkpoint_every" yaml:"checkpoint_every"`
}

// Resolution holds resolution settings.
type Resolution struct {
	PatternMinMembers int `json:"pattern_min_members" yaml:"pattern_min_members"`
}

// Density holds density-learning settings.
type Density struct {
	LearningRate float64 `json:"learning_rate" yaml:"learning_rate"`
}

// Default returns the built-in thresholds.
func Default() Config {
	return Config{
		Reconciliation: Reconciliation{
			Tolerance:       reconcile.DefaultTolerance,
			CheckpointEvery: DefaultCheckpointEvery,
		},
		Insight: insight.DefaultConfig(),
		Resolution: Resolution{
			PatternMinMembers: resolve.DefaultPatternMinMembers,
		},
		Density: Density{
			LearningRate: surface.DefaultLearningRate,
		},
	}
}

// ValidationError reports the first schema violation.
type ValidationError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Load reads and validates the config file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("load %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over Default and validates the result. Unknown keys
// are rejected. An empty document yields Default.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cfg against the embedded CUE schema.
//
// Returns a *ValidationError for the first violation.
func Validate(cfg Config) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	v := ctx.Encode(cfg)
	if err := v.Err(); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := def.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return toValidationError(err)
	}
	return nil
}

func toValidationError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &ValidationError{Message: err.Error()}
	}
	first := errs[0]
	format, args := first.Msg()
	path := strings.TrimPrefix(strings.Join(first.Path(), "."), "#Config.")
	return &ValidationError{
		Path:    path,
		Message: fmt.Sprintf(format, args...),
	}
}
