package intake

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spigell/ats-tuner/internal/scoring"
)

// LoadTarget reads an opportunity from a yaml, json or plain text file.
// For plain text the first non-empty line becomes the title.
func LoadTarget(path string) (*scoring.Target, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnreadableSource, path, err)
	}

	var target scoring.Target
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &target)
	case ".json":
		err = json.Unmarshal(raw, &target)
	case ".txt", ".md":
		target = targetFromText(string(raw))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnreadableSource, path, err)
	}

	if strings.TrimSpace(target.Title) == "" && strings.TrimSpace(target.Description) == "" {
		return nil, fmt.Errorf("%w: %s: target has neither title nor description", ErrUnreadableSource, path)
	}
	return &target, nil
}

// SaveTarget writes target as yaml.
func SaveTarget(path string, target scoring.Target) error {
	raw, err := yaml.Marshal(target)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, raw, 0o644)
}

func targetFromText(text string) scoring.Target {
	text = strings.TrimSpace(text)
	title, rest, _ := strings.Cut(text, "\n")
	title = strings.TrimSpace(strings.TrimLeft(title, "# "))
	return scoring.Target{Title: title, Description: strings.TrimSpace(rest)}
}
