package ai

import (
	"errors"
	"testing"

	"go.uber.org/zap"
)

func fakeFactory(missing Provider) BackendFactory {
	return func(cfg AgentConfig) (Backend, error) {
		if cfg.Provider == missing {
			return nil, &ConfigError{Kind: ErrMissingCredential, Provider: cfg.Provider}
		}
		return &fakeBackend{}, nil
	}
}

func TestRegistryResolve(t *testing.T) {
	registry, err := NewRegistry(map[string]AgentConfig{
		"Enhancer": {Provider: "gemini", Model: "gemini-2.5-pro"},
		"reviser":  {Provider: "OpenAI", Model: "gpt-4o", Temperature: 0.2, TopP: 0.9},
	}, fakeFactory(""), zap.NewNop())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	agent, err := registry.Resolve("enhancer")
	if err != nil {
		t.Fatalf("expected enhancer, got %v", err)
	}

	cfg := agent.Config()
	if cfg.Role != "enhancer" || cfg.Provider != ProviderGemini {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Temperature != DefaultTemperature || cfg.MaxOutputTokens != DefaultMaxOutputTokens || cfg.Timeout != DefaultTimeout {
		t.Fatalf("expected defaults to be applied, got %+v", cfg)
	}

	reviser, err := registry.Resolve(" REVISER ")
	if err != nil {
		t.Fatalf("expected reviser, got %v", err)
	}
	if reviser.Config().Temperature != 0.2 {
		t.Fatalf("explicit temperature overwritten: %+v", reviser.Config())
	}

	if got := registry.Roles(); len(got) != 2 || got[0] != "enhancer" || got[1] != "reviser" {
		t.Fatalf("unexpected roles: %v", got)
	}
}

func TestRegistryUnknownRole(t *testing.T) {
	registry, err := NewRegistry(nil, fakeFactory(""), nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	_, err = registry.Resolve("job_summarizer")
	if !errors.Is(err, ErrUnknownRole) {
		t.Fatalf("expected unknown role, got %v", err)
	}
	if registry.Has("job_summarizer") {
		t.Fatalf("expected role to be absent")
	}
}

func TestRegistryDuplicateRole(t *testing.T) {
	registry, err := NewRegistry(map[string]AgentConfig{
		"enhancer": {Provider: "gemini", Model: "m"},
	}, fakeFactory(""), nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	err = registry.Register("Enhancer", AgentConfig{Provider: "llama", Model: "llama3"})
	if !errors.Is(err, ErrDuplicateRole) {
		t.Fatalf("expected duplicate role, got %v", err)
	}
}

func TestRegistryMissingCredential(t *testing.T) {
	_, err := NewRegistry(map[string]AgentConfig{
		"enhancer": {Provider: "gemini", Model: "m"},
		"reviser":  {Provider: "anthropic", Model: "claude"},
	}, fakeFactory(ProviderAnthropic), nil)

	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected missing credential, got %v", err)
	}

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Role != "reviser" {
		t.Fatalf("expected error to name the role, got %v", err)
	}
}

func TestRegistryRejectsInvalidConfig(t *testing.T) {
	tests := map[string]AgentConfig{
		"unknown provider": {Provider: "watson", Model: "m"},
		"missing model":    {Provider: "gemini"},
		"hot temperature":  {Provider: "gemini", Model: "m", Temperature: 2.5},
	}

	for name, cfg := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewRegistry(map[string]AgentConfig{"enhancer": cfg}, fakeFactory(""), nil)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected invalid config, got %v", err)
			}
		})
	}
}

func TestWithDefaultsMaxRetries(t *testing.T) {
	cases := map[string]struct {
		in, want int
	}{
		"unset":    {in: 0, want: DefaultMaxRetries},
		"explicit": {in: 5, want: 5},
		"disabled": {in: -1, want: 0},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got := AgentConfig{Provider: ProviderGemini, Model: "m", MaxRetries: tc.in}.WithDefaults().MaxRetries
			if got != tc.want {
				t.Fatalf("expected %d retries, got %d", tc.want, got)
			}
		})
	}
}
