package llama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spigell/ats-tuner/internal/ai"
)

const (
	// DefaultHost is where a local Ollama server listens.
	DefaultHost  = "http://localhost:11434"
	generatePath = "/api/generate"
	contentType  = "application/json"
	userAgent    = "spigell/ats-tuner"
)

// Generator calls the Ollama generate endpoint. Ollama needs no credential.
type Generator struct {
	Host       string
	HTTPClient *http.Client
	model      string
	system     string
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	System  string          `json:"system,omitempty"`
	Format  string          `json:"format,omitempty"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p,omitempty"`
	TopK        int     `json:"top_k,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type generateResponse struct {
	Model           string `json:"model"`
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewGenerator builds a Generator for host, defaulting to a local server.
// Per-call timeouts come from the caller context.
func NewGenerator(host, model, system string) *Generator {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if host == "" {
		host = DefaultHost
	}
	return &Generator{
		Host:       host,
		HTTPClient: &http.Client{},
		model:      strings.TrimSpace(model),
		system:     strings.TrimSpace(system),
	}
}

func (g *Generator) Provider() ai.Provider { return ai.ProviderLlama }

func (g *Generator) Generate(ctx context.Context, req ai.Request) (*ai.Response, error) {
	model := g.model
	if m := strings.TrimSpace(req.Config.Model); m != "" {
		model = m
	}

	payload := generateRequest{
		Model:  model,
		Prompt: req.Prompt,
		System: g.system,
		Stream: false,
		Options: generateOptions{
			Temperature: req.Config.Temperature,
			TopP:        req.Config.TopP,
			TopK:        req.Config.TopK,
			NumPredict:  req.Config.MaxOutputTokens,
		},
	}
	if req.Config.RequireStructuredOutput {
		payload.Format = "json"
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode ollama request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.Host+generatePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build ollama request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("User-Agent", userAgent)

	resp, err := g.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, ai.Classify(ai.ProviderLlama, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ai.Classify(ai.ProviderLlama, fmt.Errorf("read ollama response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr errorResponse
		_ = json.Unmarshal(data, &apiErr)
		msg := strings.TrimSpace(apiErr.Error)
		if msg == "" {
			msg = resp.Status
		}
		return nil, ai.NewStatusError(ai.ProviderLlama, resp.StatusCode, fmt.Errorf("ollama: %s", msg))
	}

	var out generateResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, &ai.APIError{Kind: ai.ErrMalformedResponse, Provider: ai.ProviderLlama, Err: err}
	}

	return &ai.Response{
		Provider: ai.ProviderLlama,
		Model:    model,
		Text:     out.Response,
		Usage: ai.Usage{
			PromptTokens:     out.PromptEvalCount,
			CompletionTokens: out.EvalCount,
			TotalTokens:      out.PromptEvalCount + out.EvalCount,
		},
	}, nil
}
