package anthropic

import (
	"testing"

	anthropic "github.com/liushuangls/go-anthropic/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/ats-tuner/internal/ai"
)

func TestRequestMapsConfig(t *testing.T) {
	g, err := NewGenerator("key", "claude-3-5-sonnet-latest", "", "system text")
	require.NoError(t, err)

	req := g.request(ai.Request{
		Prompt: "improve",
		Config: ai.AgentConfig{Temperature: 1.4},
	})

	assert.Equal(t, anthropic.Model("claude-3-5-sonnet-latest"), req.Model)
	assert.Equal(t, defaultMaxTokens, req.MaxTokens)
	require.NotNil(t, req.Temperature)
	assert.Equal(t, float32(1), *req.Temperature)
	require.Len(t, req.MultiSystem, 1)
	assert.Equal(t, "system text", req.MultiSystem[0].Text)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, anthropic.RoleUser, req.Messages[0].Role)
}

func TestNormalizeJoinsTextBlocks(t *testing.T) {
	resp := anthropic.MessagesResponse{
		Content: []anthropic.MessageContent{
			anthropic.NewTextMessageContent(`{"summary":`),
			anthropic.NewTextMessageContent(`"ok"}`),
		},
	}

	out := normalize("claude", resp)
	assert.Equal(t, ai.ProviderAnthropic, out.Provider)
	assert.Equal(t, `{"summary":"ok"}`, out.Text)
}

func TestNewGeneratorRequiresKey(t *testing.T) {
	_, err := NewGenerator("", "claude", "", "")
	require.Error(t, err)
}
