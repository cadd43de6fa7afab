// Package output writes optimized documents and their reports.
package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/spigell/ats-tuner/internal/resume"
)

var ErrUnknownFormat = errors.New("unknown output format")

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

const (
	optimizedSuffix = ".optimized."
	reportSuffix    = ".report.json"
)

func ParseFormat(raw string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(raw))); f {
	case "":
		return FormatJSON, nil
	case "yml":
		return FormatYAML, nil
	case FormatJSON, FormatYAML, FormatTOML:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, raw)
	}
}

// Encode serializes doc in the given format.
func Encode(format Format, doc resume.Document) ([]byte, error) {
	switch format {
	case FormatJSON, "":
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(doc); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(map[string]any(doc)); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatTOML:
		// TOML has no null.
		clean, _ := dropNulls(map[string]any(doc)).(map[string]any)
		return toml.Marshal(clean)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func dropNulls(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			if item == nil {
				continue
			}
			out[k] = dropNulls(item)
		}
		return out
	case []any:
		out := make([]any, 0, len(val))
		for _, item := range val {
			if item == nil {
				continue
			}
			out = append(out, dropNulls(item))
		}
		return out
	default:
		return v
	}
}

// Writer places results next to each other in one folder.
type Writer struct {
	dir    string
	format Format
}

// New creates the output folder when needed.
func New(dir string, format Format) (*Writer, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("output folder is required")
	}
	if _, err := ParseFormat(string(format)); err != nil {
		return nil, err
	}
	if format == "" {
		format = FormatJSON
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output folder: %w", err)
	}
	return &Writer{dir: dir, format: format}, nil
}

func (w *Writer) Format() Format { return w.format }

// Path is where the optimized form of source is written.
func (w *Writer) Path(source string) string {
	return filepath.Join(w.dir, base(source)+optimizedSuffix+string(w.format))
}

// ReportPath is where the report for source is written.
func (w *Writer) ReportPath(source string) string {
	return filepath.Join(w.dir, base(source)+reportSuffix)
}

// Write stores doc and returns its location.
func (w *Writer) Write(source string, doc resume.Document) (string, error) {
	data, err := Encode(w.format, doc)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", w.format, err)
	}
	path := w.Path(source)
	if err := writeAtomic(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// WriteReport stores any JSON serializable report for source.
func (w *Writer) WriteReport(source string, report any) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	path := w.ReportPath(source)
	if err := writeAtomic(path, append(data, '\n')); err != nil {
		return "", err
	}
	return path, nil
}

func base(source string) string {
	name := filepath.Base(source)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return nil
}
