// Package intake reads submissions and targets from disk.
package intake

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/spigell/ats-tuner/internal/resume"
)

var (
	ErrUnsupportedSource = errors.New("unsupported source")
	ErrUnreadableSource  = errors.New("unreadable source")
)

// Extensions that ExtractText understands.
var supported = map[string]bool{
	".txt":  true,
	".md":   true,
	".json": true,
	".yaml": true,
	".yml":  true,
}

// Submission is one input file. Structured is set when the file already
// holds a resume object, so the enhancer can be skipped.
type Submission struct {
	Path       string
	Text       string
	Structured resume.Document
}

// Hash is the fingerprint of the raw content.
func (s Submission) Hash() string {
	return resume.Fingerprint(s.Text)
}

func Supported(path string) bool {
	return supported[strings.ToLower(filepath.Ext(path))]
}

// ExtractText returns the plain text content of path.
func ExtractText(path string) (string, error) {
	if !Supported(path) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedSource, path)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrUnreadableSource, path, err)
	}
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("%w: %s: not valid utf-8", ErrUnreadableSource, path)
	}

	text := strings.TrimSpace(strings.TrimPrefix(string(raw), "\ufeff"))
	if text == "" {
		return "", fmt.Errorf("%w: %s: empty file", ErrUnreadableSource, path)
	}
	return text, nil
}

// Load extracts path and, for json and yaml files, decodes the resume object.
func Load(path string) (Submission, error) {
	text, err := ExtractText(path)
	if err != nil {
		return Submission{}, err
	}
	sub := Submission{Path: path, Text: text}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		doc, err := resume.Parse([]byte(text))
		if err != nil {
			return Submission{}, fmt.Errorf("%w: %s: %w", ErrUnreadableSource, path, err)
		}
		sub.Structured = doc
	case ".yaml", ".yml":
		var doc map[string]any
		if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
			return Submission{}, fmt.Errorf("%w: %s: %w", ErrUnreadableSource, path, err)
		}
		if doc == nil {
			return Submission{}, fmt.Errorf("%w: %s: not a mapping", ErrUnreadableSource, path)
		}
		normalized, err := normalizeYAML(doc)
		if err != nil {
			return Submission{}, fmt.Errorf("%w: %s: %w", ErrUnreadableSource, path, err)
		}
		sub.Structured = normalized
	}

	return sub, nil
}

// normalizeYAML round-trips through JSON so numbers and nested maps have
// the same shapes as a document decoded from JSON.
func normalizeYAML(doc map[string]any) (resume.Document, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	return resume.Parse(raw)
}
