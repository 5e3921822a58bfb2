package bundle

import (
	"embed"
	"fmt"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed schema.cue
var schemaFS embed.FS

// ValidationError describes a single manifest schema violation.
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
	sb.WriteString("manifest validation failed:\n")
	for _, err := range e {
		sb.WriteString(fmt.Sprintf("  %s: %s\n", err.Field, err.Message))
	}
	return sb.String()
}

// Validator validates bundle manifests against the embedded CUE schema.
type Validator struct {
	ctx    *cue.Context
	schema cue.Value
}

// NewValidator compiles the embedded schema.
func NewValidator() (*Validator, error) {
	ctx := cuecontext.New()

	schemaData, err := schemaFS.ReadFile("schema.cue")
	if err != nil {
		return nil, fmt.Errorf("reading embedded schema: %w", err)
	}

	schema := ctx.CompileBytes(schemaData)
	if schema.Err() != nil {
		return nil, fmt.Errorf("compiling schema: %w", schema.Err())
	}

	return &Validator{
		ctx:    ctx,
		schema: schema,
	}, nil
}

// Validate checks a parsed manifest against the schema and the structural
// rules the schema cannot express (duplicate entry ids, path escapes).
func (v *Validator) Validate(m *Manifest) error {
	var errs ValidationErrors

	def := v.schema.LookupPath(cue.ParsePath("#Manifest"))
	if def.Err() != nil {
		return fmt.Errorf("schema has no #Manifest definition: %w", def.Err())
	}

	val := v.ctx.Encode(m)
	if val.Err() != nil {
		return fmt.Errorf("encoding manifest for validation: %w", val.Err())
	}

	unified := def.Unify(val)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		errs = append(errs, ValidationError{
			Field:   "manifest",
			Message: err.Error(),
		})
	}

	seen := make(map[string]bool, len(m.Contents))
	for _, entry := range m.Contents {
		if seen[entry.ID] {
			errs = append(errs, ValidationError{
				Field:   "contents",
				Message: fmt.Sprintf("duplicate entry id %q", entry.ID),
			})
		}
		seen[entry.ID] = true

		clean := filepath.ToSlash(filepath.Clean(entry.Path))
		if filepath.IsAbs(entry.Path) || clean == ".." || strings.HasPrefix(clean, "../") {
			errs = append(errs, ValidationError{
				Field:   "contents." + entry.ID + ".path",
				Message: fmt.Sprintf("path %q escapes the bundle directory", entry.Path),
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
