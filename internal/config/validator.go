package config

import (
	"embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/bundlekit/cli/internal/bundle"
)

//go:embed schema.cue
var schemaFS embed.FS

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}

	var sb strings.Builder
	sb.WriteString("config validation failed:\n")
	for _, err := range e {
		sb.WriteString(fmt.Sprintf("  %s: %s\n", err.Field, err.Message))
	}
	return sb.String()
}

// Validator validates configuration against the embedded CUE schema.
type Validator struct {
	ctx    *cue.Context
	schema cue.Value
}

// NewValidator creates a new configuration validator.
func NewValidator() (*Validator, error) {
	ctx := cuecontext.New()

	// Read the embedded schema
	schemaData, err := schemaFS.ReadFile("schema.cue")
	if err != nil {
		return nil, fmt.Errorf("reading embedded schema: %w", err)
	}

	// Compile the schema
	schema := ctx.CompileBytes(schemaData)
	if schema.Err() != nil {
		return nil, fmt.Errorf("compiling schema: %w", schema.Err())
	}

	return &Validator{
		ctx:    ctx,
		schema: schema,
	}, nil
}

// Validate validates the given configuration.
func (v *Validator) Validate(cfg *Config) error {
	var errs ValidationErrors

	if cfg.DefaultScope != "" {
		if _, err := bundle.ParseScope(cfg.DefaultScope); err != nil {
			errs = append(errs, ValidationError{
				Field:   "defaultScope",
				Message: "must be one of: user, workspace, repository",
			})
		}
	}

	if cfg.DefaultCommitMode != "" {
		if _, err := bundle.ParseCommitMode(cfg.DefaultCommitMode); err != nil {
			errs = append(errs, ValidationError{
				Field:   "defaultCommitMode",
				Message: "must be one of: commit, local-only",
			})
		}
	}

	if cfg.CacheDir != "" && strings.TrimSpace(cfg.CacheDir) == "" {
		errs = append(errs, ValidationError{
			Field:   "cacheDir",
			Message: "must not be empty or whitespace only",
		})
	}

	if cfg.StoreDir != "" && strings.TrimSpace(cfg.StoreDir) == "" {
		errs = append(errs, ValidationError{
			Field:   "storeDir",
			Message: "must not be empty or whitespace only",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	// Unify with the CUE schema for structural checks.
	schemaDef := v.schema.LookupPath(cue.ParsePath("#Config"))
	if schemaDef.Err() != nil {
		return fmt.Errorf("looking up #Config: %w", schemaDef.Err())
	}

	cfgValue := v.ctx.Encode(cfg)
	if cfgValue.Err() != nil {
		return fmt.Errorf("encoding config: %w", cfgValue.Err())
	}

	unified := schemaDef.Unify(cfgValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return fmt.Errorf("config does not match schema: %w", err)
	}

	return nil
}

// ValidateFile validates a configuration file at the given path.
func (v *Validator) ValidateFile(path string) error {
	loader := NewLoader()
	cfg, err := loader.Load(path)
	if err != nil {
		return fmt.Errorf("loading config file: %w", err)
	}

	return v.Validate(cfg)
}
