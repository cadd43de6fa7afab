package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/meguminnnnnnnnn/go-openai"

	"github.com/spigell/ats-tuner/internal/ai"
)

// Generator calls the chat completions endpoint of OpenAI or any compatible server.
type Generator struct {
	client *openai.Client
	model  string
	system string
}

// NewGenerator builds a Generator. baseURL may point to a compatible gateway.
func NewGenerator(apiKey, model, baseURL, system string) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
		config.BaseURL = baseURL
	}

	return &Generator{
		client: openai.NewClientWithConfig(config),
		model:  strings.TrimSpace(model),
		system: strings.TrimSpace(system),
	}, nil
}

func (g *Generator) Provider() ai.Provider { return ai.ProviderOpenAI }

func (g *Generator) Generate(ctx context.Context, req ai.Request) (*ai.Response, error) {
	if g == nil || g.client == nil {
		return nil, errors.New("openai generator is not initialized")
	}

	chatReq := g.request(req)

	resp, err := g.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, ai.Classify(ai.ProviderOpenAI, fmt.Errorf("create chat completion: %w", err))
	}

	return normalize(chatReq.Model, resp), nil
}

func (g *Generator) request(req ai.Request) openai.ChatCompletionRequest {
	model := g.model
	if m := strings.TrimSpace(req.Config.Model); m != "" {
		model = m
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if g.system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: g.system,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	chatReq := openai.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
	}
	if req.Config.MaxOutputTokens > 0 {
		chatReq.MaxTokens = req.Config.MaxOutputTokens
	}
	temperature := float32(req.Config.Temperature)
	chatReq.Temperature = &temperature

	return chatReq
}

func normalize(model string, resp openai.ChatCompletionResponse) *ai.Response {
	out := &ai.Response{
		Provider: ai.ProviderOpenAI,
		Model:    model,
		Usage: ai.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
	if len(resp.Choices) > 0 {
		out.Text = resp.Choices[0].Message.Content
	}
	return out
}
