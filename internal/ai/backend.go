package ai

import "context"

// Usage is the token accounting reported by a provider, when available.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Response is the provider independent result of one generation call.
// Backends convert their SDK payloads into it before returning.
type Response struct {
	Provider Provider
	Model    string
	Text     string
	Usage    Usage
}

// Request is what a backend receives for a single attempt.
type Request struct {
	Prompt string
	Config AgentConfig
}

// Backend performs exactly one round-trip against a provider. Retries,
// timeouts and structured output handling live in Client.
type Backend interface {
	Provider() Provider
	Generate(ctx context.Context, req Request) (*Response, error)
}

// Agent is a role-bound generator handed out by the Registry.
type Agent interface {
	Role() string
	Config() AgentConfig
	GenerateText(ctx context.Context, prompt string) (string, error)
	GenerateStructured(ctx context.Context, prompt string) (map[string]any, error)
}
