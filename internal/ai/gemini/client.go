package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/spigell/ats-tuner/internal/ai"
)

const defaultModel = "gemini-2.5-pro"

type chatSession interface {
	SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type chatCreator interface {
	Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error)
}

type sdkChats struct {
	chats *genai.Chats
}

func (s sdkChats) Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error) {
	return s.chats.Create(ctx, model, config, history)
}

// Generator talks to the Gemini API through a fresh single-turn chat per call.
type Generator struct {
	chats  chatCreator
	model  string
	system string
}

// NewGenerator creates a Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, apiKey, model, system string) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	return &Generator{chats: sdkChats{chats: client.Chats}, model: model, system: strings.TrimSpace(system)}, nil
}

func (g *Generator) Provider() ai.Provider { return ai.ProviderGemini }

// Generate sends one prompt and joins the textual parts of every candidate.
func (g *Generator) Generate(ctx context.Context, req ai.Request) (*ai.Response, error) {
	if g == nil || g.chats == nil {
		return nil, errors.New("gemini generator is not initialized")
	}

	model := g.model
	if m := strings.TrimSpace(req.Config.Model); m != "" {
		model = m
	}

	chat, err := g.chats.Create(ctx, model, g.contentConfig(req.Config), nil)
	if err != nil {
		return nil, classify(fmt.Errorf("create chat: %w", err))
	}

	resp, err := chat.SendMessage(ctx, genai.Part{Text: req.Prompt})
	if err != nil {
		return nil, classify(fmt.Errorf("send message: %w", err))
	}

	return normalize(model, resp), nil
}

func (g *Generator) contentConfig(cfg ai.AgentConfig) *genai.GenerateContentConfig {
	out := &genai.GenerateContentConfig{
		Temperature: ptr(float32(cfg.Temperature)),
		TopP:        ptr(float32(cfg.TopP)),
	}
	if cfg.TopK > 0 {
		out.TopK = ptr(float32(cfg.TopK))
	}
	if cfg.MaxOutputTokens > 0 {
		out.MaxOutputTokens = int32(cfg.MaxOutputTokens)
	}
	if cfg.RequireStructuredOutput {
		out.ResponseMIMEType = "application/json"
	}
	if g.system != "" {
		out.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: g.system}}}
	}
	return out
}

func normalize(model string, resp *genai.GenerateContentResponse) *ai.Response {
	out := &ai.Response{Provider: ai.ProviderGemini, Model: model}
	if resp == nil {
		return out
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}
	out.Text = builder.String()

	if usage := resp.UsageMetadata; usage != nil {
		out.Usage = ai.Usage{
			PromptTokens:     int(usage.PromptTokenCount),
			CompletionTokens: int(usage.CandidatesTokenCount),
			TotalTokens:      int(usage.TotalTokenCount),
		}
	}
	return out
}

func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code != 0 {
		return ai.NewStatusError(ai.ProviderGemini, apiErr.Code, err)
	}
	return ai.Classify(ai.ProviderGemini, err)
}

func ptr[T any](v T) *T { return &v }
