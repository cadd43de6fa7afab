package ai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeResult struct {
	text string
	err  error
}

type fakeBackend struct {
	mu      sync.Mutex
	queue   []fakeResult
	prompts []string
}

func (f *fakeBackend) Provider() Provider { return ProviderGemini }

func (f *fakeBackend) enqueue(text string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, fakeResult{text: text, err: err})
}

func (f *fakeBackend) Generate(ctx context.Context, req Request) (*Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, req.Prompt)
	if len(f.queue) == 0 {
		return nil, errors.New("unexpected call")
	}
	res := f.queue[0]
	f.queue = f.queue[1:]
	if res.err != nil {
		return nil, res.err
	}
	return &Response{Provider: ProviderGemini, Text: res.text}, nil
}

func (f *fakeBackend) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func stubSleep(t *testing.T) *[]time.Duration {
	t.Helper()
	var delays []time.Duration
	original := sleep
	sleep = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	t.Cleanup(func() { sleep = original })
	return &delays
}

func newTestClient(backend Backend, cfg AgentConfig) *Client {
	cfg.Provider = ProviderGemini
	cfg.Model = "gemini-pro"
	return NewClient(cfg, backend, zap.NewNop())
}

func TestClientRetriesOnTransientError(t *testing.T) {
	delays := stubSleep(t)

	backend := &fakeBackend{}
	backend.enqueue("", NewStatusError(ProviderGemini, http.StatusInternalServerError, errors.New("internal")))
	backend.enqueue("", NewStatusError(ProviderGemini, http.StatusTooManyRequests, errors.New("slow down")))
	backend.enqueue("retry ok", nil)

	client := newTestClient(backend, AgentConfig{MaxRetries: 3})

	out, err := client.GenerateText(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != "retry ok" {
		t.Fatalf("unexpected output: %q", out)
	}
	if backend.calls() != 3 {
		t.Fatalf("expected 3 calls, got %d", backend.calls())
	}
	if len(*delays) != 2 || (*delays)[1] != 2*(*delays)[0] {
		t.Fatalf("expected doubling backoff, got %v", *delays)
	}
}

func TestClientStopsAfterRetriesExhausted(t *testing.T) {
	stubSleep(t)

	backend := &fakeBackend{}
	for i := 0; i < 3; i++ {
		backend.enqueue("", NewStatusError(ProviderGemini, http.StatusBadGateway, errors.New("bad gateway")))
	}

	client := newTestClient(backend, AgentConfig{MaxRetries: 2})

	_, err := client.GenerateText(context.Background(), "prompt")
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if backend.calls() != 3 {
		t.Fatalf("expected 3 calls, got %d", backend.calls())
	}
}

func TestClientDoesNotRetryAuthFailure(t *testing.T) {
	delays := stubSleep(t)

	backend := &fakeBackend{}
	backend.enqueue("", errors.New("error, status code: 401, message: invalid api key"))

	client := newTestClient(backend, AgentConfig{MaxRetries: 5})

	_, err := client.GenerateText(context.Background(), "prompt")
	if !errors.Is(err, ErrAuth) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if backend.calls() != 1 {
		t.Fatalf("expected single call, got %d", backend.calls())
	}
	if len(*delays) != 0 {
		t.Fatalf("expected no backoff, got %v", *delays)
	}
}

func TestClientRetriesEmptyResponseOnce(t *testing.T) {
	stubSleep(t)

	t.Run("enabled", func(t *testing.T) {
		backend := &fakeBackend{}
		backend.enqueue("   ", nil)
		backend.enqueue("", nil)

		client := newTestClient(backend, AgentConfig{RetryOnEmpty: true, MaxRetries: 3})

		_, err := client.GenerateText(context.Background(), "prompt")
		if !errors.Is(err, ErrEmptyResponse) {
			t.Fatalf("expected empty response error, got %v", err)
		}
		if backend.calls() != 2 {
			t.Fatalf("expected 2 calls, got %d", backend.calls())
		}
		if backend.prompts[0] != backend.prompts[1] {
			t.Fatalf("expected unmodified prompt on retry")
		}
	})

	t.Run("disabled", func(t *testing.T) {
		backend := &fakeBackend{}
		backend.enqueue("", nil)

		client := newTestClient(backend, AgentConfig{MaxRetries: 3})

		if _, err := client.GenerateText(context.Background(), "prompt"); !errors.Is(err, ErrEmptyResponse) {
			t.Fatalf("expected empty response error, got %v", err)
		}
		if backend.calls() != 1 {
			t.Fatalf("expected single call, got %d", backend.calls())
		}
	})
}

func TestClientTimeoutIsRetried(t *testing.T) {
	stubSleep(t)

	backend := &fakeBackend{}
	backend.enqueue("", context.DeadlineExceeded)
	backend.enqueue("done", nil)

	client := newTestClient(backend, AgentConfig{MaxRetries: 1, Timeout: time.Second})

	out, err := client.GenerateText(context.Background(), "prompt")
	if err != nil || out != "done" {
		t.Fatalf("expected recovery after timeout, got %q, %v", out, err)
	}
}

func TestClientBackoffObservesCancellation(t *testing.T) {
	backend := &fakeBackend{}
	backend.enqueue("", NewStatusError(ProviderGemini, http.StatusServiceUnavailable, nil))
	backend.enqueue("never", nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := newTestClient(backend, AgentConfig{MaxRetries: 3})
	client.baseDelay = time.Hour

	_, err := client.GenerateText(ctx, "prompt")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation during backoff, got %v", err)
	}
	if backend.calls() != 1 {
		t.Fatalf("expected in-flight call to complete and no further calls, got %d", backend.calls())
	}
}

func TestGenerateStructuredStripsFences(t *testing.T) {
	backend := &fakeBackend{}
	backend.enqueue("```json\n{\"summary\": \"Go developer\"}\n```", nil)

	client := newTestClient(backend, AgentConfig{})

	doc, err := client.GenerateStructured(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if doc["summary"] != "Go developer" {
		t.Fatalf("unexpected document: %+v", doc)
	}
}

func TestGenerateStructuredStrictSecondAttempt(t *testing.T) {
	backend := &fakeBackend{}
	backend.enqueue("Sure! Here is your resume.", nil)
	backend.enqueue(`{"skills": ["go"]}`, nil)

	client := newTestClient(backend, AgentConfig{RequireStructuredOutput: true})

	doc, err := client.GenerateStructured(context.Background(), "rewrite")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, ok := doc["skills"]; !ok {
		t.Fatalf("unexpected document: %+v", doc)
	}
	if backend.calls() != 2 {
		t.Fatalf("expected 2 calls, got %d", backend.calls())
	}
	if !strings.HasSuffix(backend.prompts[1], StrictJSONInstruction) {
		t.Fatalf("expected strict instruction on second prompt, got %q", backend.prompts[1])
	}
}

func TestGenerateStructuredMalformed(t *testing.T) {
	t.Run("strict exhausted", func(t *testing.T) {
		backend := &fakeBackend{}
		backend.enqueue("not json", nil)
		backend.enqueue("[1, 2, 3]", nil)

		client := newTestClient(backend, AgentConfig{RequireStructuredOutput: true})

		if _, err := client.GenerateStructured(context.Background(), "rewrite"); !errors.Is(err, ErrMalformedResponse) {
			t.Fatalf("expected malformed response, got %v", err)
		}
		if backend.calls() != 2 {
			t.Fatalf("expected 2 calls, got %d", backend.calls())
		}
	})

	t.Run("not required", func(t *testing.T) {
		backend := &fakeBackend{}
		backend.enqueue("not json", nil)

		client := newTestClient(backend, AgentConfig{})

		if _, err := client.GenerateStructured(context.Background(), "rewrite"); !errors.Is(err, ErrMalformedResponse) {
			t.Fatalf("expected malformed response, got %v", err)
		}
		if backend.calls() != 1 {
			t.Fatalf("expected single call, got %d", backend.calls())
		}
	})
}

func TestStripFences(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"```json\n{}\n```":  "{}",
		"```\n{\"a\":1}```": "{\"a\":1}",
		"  {\"a\":1}  ":      "{\"a\":1}",
		"`{}`":               "{}",
	}
	for in, want := range tests {
		if got := StripFences(in); got != want {
			t.Fatalf("StripFences(%q) = %q, want %q", in, got, want)
		}
	}
}
