package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/ats-tuner/internal/logger"
	"github.com/spigell/ats-tuner/internal/utils"
)

const (
	defaultBaseDelay = time.Second
	defaultMaxDelay  = 30 * time.Second
	promptLogLimit   = 300
)

// sleep waits between attempts; tests replace it.
var sleep = utils.WaitFor

// Client wraps a Backend with the retry policy and the structured output
// handling. It implements Agent.
type Client struct {
	cfg       AgentConfig
	backend   Backend
	logger    *zap.Logger
	baseDelay time.Duration
	maxDelay  time.Duration
}

// NewClient binds a backend to an agent config.
func NewClient(cfg AgentConfig, backend Backend, log *zap.Logger) *Client {
	return &Client{
		cfg:       cfg,
		backend:   backend,
		logger:    logger.WithAgentFields(log, cfg.Role, string(cfg.Provider), cfg.Model),
		baseDelay: defaultBaseDelay,
		maxDelay:  defaultMaxDelay,
	}
}

func (c *Client) Role() string { return c.cfg.Role }

func (c *Client) Config() AgentConfig { return c.cfg }

// GenerateText returns the trimmed text of a successful generation.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := c.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text), nil
}

// Generate sends the prompt, retrying transient failures with exponential
// backoff. Auth and rejected requests fail on the first attempt. An empty
// answer is retried once when RetryOnEmpty is set.
func (c *Client) Generate(ctx context.Context, prompt string) (*Response, error) {
	if c == nil || c.backend == nil {
		return nil, errors.New("ai client is not initialized")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, errors.New("prompt must not be empty")
	}

	c.logger.Debug("sending prompt", zap.String("prompt", utils.TruncateForLog(prompt, promptLogLimit)))

	delay := c.baseDelay
	retries := 0
	emptyRetried := false

	for attempt := 1; ; attempt++ {
		resp, err := c.attempt(ctx, prompt)
		if err == nil {
			if strings.TrimSpace(resp.Text) != "" {
				c.logger.Debug("provider responded",
					zap.Int("attempt", attempt),
					zap.Int("prompt_tokens", resp.Usage.PromptTokens),
					zap.Int("completion_tokens", resp.Usage.CompletionTokens),
				)
				return resp, nil
			}
			if c.cfg.RetryOnEmpty && !emptyRetried {
				emptyRetried = true
				c.logger.Warn("provider returned empty response, retrying", zap.Int("attempt", attempt))
				continue
			}
			return nil, &APIError{Kind: ErrEmptyResponse, Provider: c.cfg.Provider}
		}

		apiErr := Classify(c.cfg.Provider, err)
		if !apiErr.Retryable() || retries >= c.cfg.MaxRetries {
			if apiErr.Retryable() {
				c.logger.Warn("provider retries exhausted", zap.Int("attempts", attempt), zap.Error(apiErr))
			}
			return nil, apiErr
		}

		retries++
		c.logger.Warn("provider call failed, backing off",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(apiErr),
		)

		if err := sleep(ctx, delay); err != nil {
			return nil, fmt.Errorf("waiting before retry: %w", err)
		}

		delay *= 2
		if delay > c.maxDelay {
			delay = c.maxDelay
		}
	}
}

// attempt runs one backend call under the per-call timeout. The call is
// detached from ctx cancellation so an abort never cuts a request in half.
func (c *Client) attempt(ctx context.Context, prompt string) (*Response, error) {
	callCtx := context.WithoutCancel(ctx)
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(callCtx, c.cfg.Timeout)
		defer cancel()
	}

	resp, err := c.backend.Generate(callCtx, Request{Prompt: prompt, Config: c.cfg})
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return &Response{Provider: c.cfg.Provider, Model: c.cfg.Model}, nil
	}
	return resp, nil
}
