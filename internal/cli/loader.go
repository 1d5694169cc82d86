package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/CCAFRICA/spm-platform-sub001/internal/batch"
	"github.com/CCAFRICA/spm-platform-sub001/internal/config"
)

// LoadError represents an error that occurred while loading an input file.
type LoadError struct {
	Code    string
	Path    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Code, e.Path, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Path, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// LoadBatch reads a batch file. The file is YAML, or JSON since YAML is a
// superset. Unknown keys and unknown signal types are rejected.
func LoadBatch(path string) (batch.Batch, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return batch.Batch{}, &LoadError{Code: ErrCodeNotFound, Path: path, Message: "batch file not found"}
	}
	if err != nil {
		return batch.Batch{}, &LoadError{Code: ErrCodeGeneric, Path: path, Message: "read batch file", Err: err}
	}

	var b batch.Batch
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&b); err != nil {
		if errors.Is(err, io.EOF) {
			return batch.Batch{}, &LoadError{Code: ErrCodeParse, Path: path, Message: "batch file is empty"}
		}
		return batch.Batch{}, &LoadError{Code: ErrCodeParse, Path: path, Message: "parse batch file", Err: err}
	}
	for i, sig := range b.Signals {
		if !sig.Type.Valid() {
			return batch.Batch{}, &LoadError{
				Code:    ErrCodeParse,
				Path:    path,
				Message: fmt.Sprintf("signals[%d]: unknown synapse type %q", i, sig.Type),
			}
		}
	}
	return b, nil
}

// loadConfig returns config.Default when path is empty, otherwise the
// validated config at path.
func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return config.Config{}, &LoadError{Code: ErrCodeNotFound, Path: path, Message: "config file not found"}
	}
	cfg, err := config.Load(path)
	if err != nil {
		var verr *config.ValidationError
		if errors.As(err, &verr) {
			return config.Config{}, &LoadError{Code: ErrCodeInvalid, Path: path, Message: "invalid config", Err: err}
		}
		return config.Config{}, &LoadError{Code: ErrCodeParse, Path: path, Message: "parse config", Err: err}
	}
	return cfg, nil
}

// loadErrorCode returns the error code carried by err, or ErrCodeGeneric.
func loadErrorCode(err error) string {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Code
	}
	return ErrCodeGeneric
}
