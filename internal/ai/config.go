package ai

import (
	"fmt"
	"strings"
	"time"
)

// Provider selects the backend an agent talks to.
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderLlama     Provider = "llama"
)

// Agent roles used by the optimizer.
const (
	RoleEnhancer      = "enhancer"
	RoleReviser       = "reviser"
	RoleJobSummarizer = "job_summarizer"
)

const (
	DefaultTemperature     = 0.7
	DefaultTopP            = 0.95
	DefaultTopK            = 40
	DefaultMaxOutputTokens = 8192
	DefaultMaxRetries      = 3
	DefaultTimeout         = 60 * time.Second
)

// ParseProvider normalizes a provider tag from configuration.
func ParseProvider(raw string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(raw)))
	switch p {
	case ProviderGemini, ProviderOpenAI, ProviderAnthropic, ProviderLlama:
		return p, nil
	case "ollama":
		return ProviderLlama, nil
	case "":
		return "", fmt.Errorf("provider is required")
	default:
		return "", fmt.Errorf("unsupported provider %q", raw)
	}
}

// AgentConfig holds the generation parameters for a single role. It is copied
// by value into the agent and never changed afterwards.
type AgentConfig struct {
	Role                    string        `mapstructure:"-"`
	Provider                Provider      `mapstructure:"provider"`
	Model                   string        `mapstructure:"model"`
	BaseURL                 string        `mapstructure:"base-url"`
	Temperature             float64       `mapstructure:"temperature"`
	TopP                    float64       `mapstructure:"top-p"`
	TopK                    int           `mapstructure:"top-k"`
	MaxOutputTokens         int           `mapstructure:"max-output-tokens"`
	MaxRetries              int           `mapstructure:"max-retries"`
	RetryOnEmpty            bool          `mapstructure:"retry-on-empty"`
	RequireStructuredOutput bool          `mapstructure:"require-structured-output"`
	Timeout                 time.Duration `mapstructure:"timeout"`
}

// WithDefaults fills zero-valued numeric parameters with the stock values.
// An unset max-retries gets the default; a negative one disables retries.
// A zero temperature is kept as is only when the other sampling knobs are set,
// since configs that omit the whole block decode to all zeros.
func (c AgentConfig) WithDefaults() AgentConfig {
	if c.Temperature == 0 && c.TopP == 0 && c.TopK == 0 {
		c.Temperature = DefaultTemperature
	}
	if c.TopP == 0 {
		c.TopP = DefaultTopP
	}
	if c.TopK == 0 {
		c.TopK = DefaultTopK
	}
	if c.MaxOutputTokens == 0 {
		c.MaxOutputTokens = DefaultMaxOutputTokens
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	switch {
	case c.MaxRetries == 0:
		c.MaxRetries = DefaultMaxRetries
	case c.MaxRetries < 0:
		c.MaxRetries = 0
	}
	return c
}

// Validate checks that the parameters are usable by any backend.
func (c AgentConfig) Validate() error {
	if _, err := ParseProvider(string(c.Provider)); err != nil {
		return fmt.Errorf("agent %q: %w", c.Role, err)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("agent %q: model is required", c.Role)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("agent %q: temperature %.2f out of range [0, 2]", c.Role, c.Temperature)
	}
	if c.TopP < 0 || c.TopP > 1 {
		return fmt.Errorf("agent %q: top-p %.2f out of range [0, 1]", c.Role, c.TopP)
	}
	if c.TopK < 0 {
		return fmt.Errorf("agent %q: top-k must not be negative", c.Role)
	}
	if c.MaxOutputTokens < 0 {
		return fmt.Errorf("agent %q: max-output-tokens must not be negative", c.Role)
	}
	return nil
}
