package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/spigell/ats-tuner/internal/resume"
)

func sampleDoc() resume.Document {
	return resume.Document{
		"summary": "Go <engineer>",
		"skills":  []any{"Go", "Kafka"},
		"experience": []any{
			map[string]any{"title": "Engineer", "bullets": []any{"Built things"}, "end": nil},
		},
		"projects": nil,
	}
}

func TestParseFormat(t *testing.T) {
	for raw, want := range map[string]Format{"": FormatJSON, "JSON": FormatJSON, "yml": FormatYAML, "toml": FormatTOML} {
		got, err := ParseFormat(raw)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("xml")
	require.ErrorIs(t, err, ErrUnknownFormat)
}

func TestEncodeFormats(t *testing.T) {
	doc := sampleDoc()

	data, err := Encode(FormatJSON, doc)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Go <engineer>")
	var fromJSON map[string]any
	require.NoError(t, json.Unmarshal(data, &fromJSON))
	assert.Equal(t, "Go <engineer>", fromJSON["summary"])

	data, err = Encode(FormatYAML, doc)
	require.NoError(t, err)
	var fromYAML map[string]any
	require.NoError(t, yaml.Unmarshal(data, &fromYAML))
	assert.Equal(t, []any{"Go", "Kafka"}, fromYAML["skills"])

	data, err = Encode(FormatTOML, doc)
	require.NoError(t, err)
	var fromTOML map[string]any
	require.NoError(t, toml.Unmarshal(data, &fromTOML))
	assert.Equal(t, "Go <engineer>", fromTOML["summary"])
	assert.NotContains(t, fromTOML, "projects")
}

func TestWriterPaths(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	w, err := New(dir, FormatYAML)
	require.NoError(t, err)

	path, err := w.Write("/in/jane.doe.txt", sampleDoc())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "jane.doe.optimized.yaml"), path)
	_, err = os.Stat(path)
	require.NoError(t, err)

	report, err := w.WriteReport("/in/jane.doe.txt", map[string]any{"score": 81.5})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "jane.doe.report.json"), report)

	leftovers, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestNewRejectsBadInput(t *testing.T) {
	_, err := New("", FormatJSON)
	require.Error(t, err)

	_, err = New(t.TempDir(), "xml")
	require.ErrorIs(t, err, ErrUnknownFormat)
}
