package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/ats-tuner/internal/utils"
)

// StrictJSONInstruction is appended to the prompt on the second structured attempt.
const StrictJSONInstruction = "IMPORTANT: Output MUST be a raw JSON object only. No markdown fences. No commentary."

// GenerateStructured asks for a JSON object. When the first answer cannot be
// parsed and RequireStructuredOutput is set, the prompt is re-sent once with a
// stricter instruction before giving up with ErrMalformedResponse.
func (c *Client) GenerateStructured(ctx context.Context, prompt string) (map[string]any, error) {
	text, err := c.GenerateText(ctx, prompt)
	if err != nil {
		return nil, err
	}

	doc, parseErr := ParseObject(text)
	if parseErr == nil {
		return doc, nil
	}

	if !c.cfg.RequireStructuredOutput {
		return nil, &APIError{Kind: ErrMalformedResponse, Provider: c.cfg.Provider, Err: parseErr}
	}

	c.logger.Warn("structured output did not parse, asking again with strict instruction",
		zap.Error(parseErr),
		zap.String("raw", utils.TruncateForLog(text, promptLogLimit)),
	)

	strict := strings.TrimSpace(prompt) + "\n\n" + StrictJSONInstruction
	text, err = c.GenerateText(ctx, strict)
	if err != nil {
		return nil, err
	}

	doc, parseErr = ParseObject(text)
	if parseErr != nil {
		return nil, &APIError{Kind: ErrMalformedResponse, Provider: c.cfg.Provider, Err: parseErr}
	}
	return doc, nil
}

// ParseObject strips markdown fences around a payload and decodes it as a JSON object.
func ParseObject(raw string) (map[string]any, error) {
	payload := StripFences(raw)
	if payload == "" {
		return nil, errors.New("payload is empty")
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return nil, fmt.Errorf("decode json object: %w", err)
	}
	if doc == nil {
		return nil, errors.New("payload is not a json object")
	}
	return doc, nil
}

// StripFences removes ``` or ```json wrappers that models like to add.
func StripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```JSON")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}
