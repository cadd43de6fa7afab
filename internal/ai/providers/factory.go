// Package providers resolves credentials and builds provider backends.
package providers

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/spigell/ats-tuner/internal/ai"
	"github.com/spigell/ats-tuner/internal/ai/anthropic"
	"github.com/spigell/ats-tuner/internal/ai/gemini"
	"github.com/spigell/ats-tuner/internal/ai/llama"
	"github.com/spigell/ats-tuner/internal/ai/openai"
	"github.com/spigell/ats-tuner/internal/ai/prompts"
	"github.com/spigell/ats-tuner/internal/secrets"
)

// defaultEnv names the environment variable used when no credential source is configured.
var defaultEnv = map[ai.Provider]string{
	ai.ProviderGemini:    "GEMINI_API_KEY",
	ai.ProviderOpenAI:    "OPENAI_API_KEY",
	ai.ProviderAnthropic: "ANTHROPIC_API_KEY",
}

// Factory builds backends on demand for the agent registry.
type Factory struct {
	ctx         context.Context
	credentials map[ai.Provider]secrets.Source
	resolved    map[ai.Provider]string
}

// NewFactory takes credential sources keyed by provider tag.
func NewFactory(ctx context.Context, credentials map[string]secrets.Source) (*Factory, error) {
	f := &Factory{
		ctx:         ctx,
		credentials: make(map[ai.Provider]secrets.Source, len(credentials)),
		resolved:    make(map[ai.Provider]string),
	}
	for name, src := range credentials {
		provider, err := ai.ParseProvider(name)
		if err != nil {
			return nil, &ai.ConfigError{Kind: ai.ErrInvalidConfig, Err: err}
		}
		f.credentials[provider] = src
	}
	return f, nil
}

// Build satisfies ai.BackendFactory.
func (f *Factory) Build(cfg ai.AgentConfig) (ai.Backend, error) {
	system := prompts.SystemInstruction(cfg.Role)

	if cfg.Provider == ai.ProviderLlama {
		host := cfg.BaseURL
		if host == "" {
			host = os.Getenv("OLLAMA_HOST")
		}
		return llama.NewGenerator(host, cfg.Model, system), nil
	}

	key, err := f.apiKey(cfg.Provider)
	if err != nil {
		return nil, &ai.ConfigError{Kind: ai.ErrMissingCredential, Role: cfg.Role, Provider: cfg.Provider, Err: err}
	}

	switch cfg.Provider {
	case ai.ProviderGemini:
		return gemini.NewGenerator(f.ctx, key, cfg.Model, system)
	case ai.ProviderOpenAI:
		return openai.NewGenerator(key, cfg.Model, cfg.BaseURL, system)
	case ai.ProviderAnthropic:
		return anthropic.NewGenerator(key, cfg.Model, cfg.BaseURL, system)
	default:
		return nil, &ai.ConfigError{Kind: ai.ErrInvalidConfig, Role: cfg.Role, Provider: cfg.Provider, Err: errors.New("no backend for provider")}
	}
}

func (f *Factory) apiKey(provider ai.Provider) (string, error) {
	if key, ok := f.resolved[provider]; ok {
		return key, nil
	}

	src, ok := f.credentials[provider]
	if !ok || (strings.TrimSpace(src.File) == "" && strings.TrimSpace(src.Value) == "" && strings.TrimSpace(src.Env) == "") {
		src.Env = defaultEnv[provider]
	}
	src.Name = string(provider) + " api key"

	key, err := secrets.Load(src)
	if err != nil {
		return "", err
	}
	f.resolved[provider] = key
	return key, nil
}
