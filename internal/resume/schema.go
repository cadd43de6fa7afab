package resume

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ErrInvalidDocument is wrapped by validation failures.
var ErrInvalidDocument = errors.New("resume does not match schema")

// DefaultSchema accepts any object whose known sections have the expected shapes.
const DefaultSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "personal_info": {"type": "object"},
    "summary": {"type": ["string", "array", "object"]},
    "experience": {"type": "array", "items": {"type": "object"}},
    "education": {"type": "array", "items": {"type": "object"}},
    "skills": {"type": ["array", "object"]},
    "projects": {"type": "array", "items": {"type": "object"}}
  }
}`

// Validator checks documents against a JSON schema.
type Validator struct {
	schema *gojsonschema.Schema
}

// NewValidator compiles a schema given as JSON text.
func NewValidator(schemaJSON string) (*Validator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compile resume schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// LoadValidator compiles the schema stored at path. An empty path yields the default schema.
func LoadValidator(path string) (*Validator, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return NewValidator(DefaultSchema)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve schema path: %w", err)
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewReferenceLoader("file://" + filepath.ToSlash(abs)))
	if err != nil {
		return nil, fmt.Errorf("compile resume schema %q: %w", path, err)
	}
	return &Validator{schema: schema}, nil
}

// Validate returns an error wrapping ErrInvalidDocument listing every violation.
func (v *Validator) Validate(doc Document) error {
	if v == nil || v.schema == nil {
		return nil
	}

	result, err := v.schema.Validate(gojsonschema.NewGoLoader(map[string]any(doc)))
	if err != nil {
		return fmt.Errorf("validate resume: %w", err)
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		problems = append(problems, e.String())
	}
	return fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(problems, "; "))
}
