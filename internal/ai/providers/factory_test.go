package providers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spigell/ats-tuner/internal/ai"
	"github.com/spigell/ats-tuner/internal/secrets"
)

func TestFactoryMissingCredential(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	factory, err := NewFactory(context.Background(), nil)
	require.NoError(t, err)

	_, err = ai.NewRegistry(map[string]ai.AgentConfig{
		"reviser": {Provider: "anthropic", Model: "claude-3-5-sonnet-latest"},
	}, factory.Build, zap.NewNop())

	require.Error(t, err)
	assert.True(t, errors.Is(err, ai.ErrMissingCredential), "got %v", err)
}

func TestFactoryBuildsBackends(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "env-key")

	factory, err := NewFactory(context.Background(), map[string]secrets.Source{
		"anthropic": {Value: "inline-key"},
	})
	require.NoError(t, err)

	registry, err := ai.NewRegistry(map[string]ai.AgentConfig{
		"enhancer":       {Provider: "openai", Model: "gpt-4o"},
		"reviser":        {Provider: "anthropic", Model: "claude-3-5-sonnet-latest"},
		"job_summarizer": {Provider: "ollama", Model: "llama3"},
	}, factory.Build, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, []string{"enhancer", "job_summarizer", "reviser"}, registry.Roles())

	agent, err := registry.Resolve("job_summarizer")
	require.NoError(t, err)
	assert.Equal(t, ai.ProviderLlama, agent.Config().Provider)
}

func TestNewFactoryRejectsUnknownProvider(t *testing.T) {
	_, err := NewFactory(context.Background(), map[string]secrets.Source{"watson": {Value: "x"}})
	require.ErrorIs(t, err, ai.ErrInvalidConfig)
}
