package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	anthropic "github.com/liushuangls/go-anthropic/v2"

	"github.com/spigell/ats-tuner/internal/ai"
)

const defaultMaxTokens = 4096

// Generator calls the Anthropic messages API.
type Generator struct {
	client *anthropic.Client
	model  string
	system string
}

// NewGenerator builds a Generator. An empty baseURL keeps the SDK default.
func NewGenerator(apiKey, model, baseURL, system string) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("anthropic api key is required")
	}

	var opts []anthropic.ClientOption
	if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}

	return &Generator{
		client: anthropic.NewClient(apiKey, opts...),
		model:  strings.TrimSpace(model),
		system: strings.TrimSpace(system),
	}, nil
}

func (g *Generator) Provider() ai.Provider { return ai.ProviderAnthropic }

func (g *Generator) Generate(ctx context.Context, req ai.Request) (*ai.Response, error) {
	if g == nil || g.client == nil {
		return nil, errors.New("anthropic generator is not initialized")
	}

	msgReq := g.request(req)

	resp, err := g.client.CreateMessages(ctx, msgReq)
	if err != nil {
		return nil, ai.Classify(ai.ProviderAnthropic, fmt.Errorf("create messages: %w", err))
	}

	return normalize(string(msgReq.Model), resp), nil
}

func (g *Generator) request(req ai.Request) anthropic.MessagesRequest {
	model := g.model
	if m := strings.TrimSpace(req.Config.Model); m != "" {
		model = m
	}

	maxTokens := req.Config.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	temperature := float32(req.Config.Temperature)
	if temperature > 1 {
		// The messages API caps temperature at 1.
		temperature = 1
	}

	msgReq := anthropic.MessagesRequest{
		Model: anthropic.Model(model),
		Messages: []anthropic.Message{{
			Role:    anthropic.RoleUser,
			Content: []anthropic.MessageContent{anthropic.NewTextMessageContent(req.Prompt)},
		}},
		MaxTokens:   maxTokens,
		Temperature: &temperature,
	}
	if g.system != "" {
		msgReq.MultiSystem = []anthropic.MessageSystemPart{{Type: "text", Text: g.system}}
	}

	return msgReq
}

func normalize(model string, resp anthropic.MessagesResponse) *ai.Response {
	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type != anthropic.MessagesContentTypeText || block.Text == nil {
			continue
		}
		text.WriteString(*block.Text)
	}

	return &ai.Response{
		Provider: ai.ProviderAnthropic,
		Model:    model,
		Text:     text.String(),
		Usage: ai.Usage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
	}
}
