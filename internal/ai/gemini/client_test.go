package gemini

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"google.golang.org/genai"

	"github.com/spigell/ats-tuner/internal/ai"
)

type fakeChatCreator struct {
	mu    sync.Mutex
	calls []chatCallRecord
	queue map[string][]fakeChatResponse
}

type chatCallRecord struct {
	model  string
	config *genai.GenerateContentConfig
	chat   *fakeChat
}

type fakeChatResponse struct {
	resp *genai.GenerateContentResponse
	err  error
}

type fakeChat struct {
	mu       sync.Mutex
	response fakeChatResponse
	messages []string
}

func (f *fakeChat) SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, part := range parts {
		f.messages = append(f.messages, part.Text)
	}
	return f.response.resp, f.response.err
}

func newFakeChatCreator() *fakeChatCreator {
	return &fakeChatCreator{queue: make(map[string][]fakeChatResponse)}
}

func (f *fakeChatCreator) enqueue(model string, resp *genai.GenerateContentResponse, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue[model] = append(f.queue[model], fakeChatResponse{resp: resp, err: err})
}

func (f *fakeChatCreator) Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	responses := f.queue[model]
	if len(responses) == 0 {
		return nil, errors.New("unexpected call")
	}
	res := responses[0]
	f.queue[model] = responses[1:]
	chat := &fakeChat{response: res}
	f.calls = append(f.calls, chatCallRecord{model: model, config: config, chat: chat})
	return chat, nil
}

func TestGeneratorMapsConfigAndResponse(t *testing.T) {
	chats := newFakeChatCreator()
	chats.enqueue("gemini-pro", &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: "{\"a\":"}, {Text: "1}"}}},
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     12,
			CandidatesTokenCount: 3,
			TotalTokenCount:      15,
		},
	}, nil)

	g := &Generator{chats: chats, model: "gemini-pro", system: "system"}

	resp, err := g.Generate(context.Background(), ai.Request{
		Prompt: "message",
		Config: ai.AgentConfig{Temperature: 0.5, TopP: 0.9, TopK: 40, MaxOutputTokens: 1024, RequireStructuredOutput: true},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if resp.Text != "{\"a\":\n1}" {
		t.Fatalf("unexpected text: %q", resp.Text)
	}
	if resp.Usage.TotalTokens != 15 || resp.Usage.PromptTokens != 12 {
		t.Fatalf("unexpected usage: %+v", resp.Usage)
	}

	call := chats.calls[0]
	if call.config.SystemInstruction == nil || call.config.SystemInstruction.Parts[0].Text != "system" {
		t.Fatalf("expected system instruction to be set")
	}
	if *call.config.Temperature != 0.5 || *call.config.TopK != 40 || call.config.MaxOutputTokens != 1024 {
		t.Fatalf("unexpected generation config: %+v", call.config)
	}
	if call.config.ResponseMIMEType != "application/json" {
		t.Fatalf("expected json mime type, got %q", call.config.ResponseMIMEType)
	}
	if len(call.chat.messages) != 1 || call.chat.messages[0] != "message" {
		t.Fatalf("unexpected chat message: %+v", call.chat.messages)
	}
}

func TestGeneratorClassifiesAPIErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		expect error
	}{
		{name: "server error", err: genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"}, expect: ai.ErrTransport},
		{name: "quota", err: genai.APIError{Code: http.StatusTooManyRequests, Status: "RESOURCE_EXHAUSTED"}, expect: ai.ErrRateLimit},
		{name: "bad key", err: genai.APIError{Code: http.StatusForbidden, Status: "PERMISSION_DENIED"}, expect: ai.ErrAuth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chats := newFakeChatCreator()
			chats.enqueue("gemini-pro", nil, tt.err)

			g := &Generator{chats: chats, model: "gemini-pro"}

			_, err := g.Generate(context.Background(), ai.Request{Prompt: "msg"})
			if !errors.Is(err, tt.expect) {
				t.Fatalf("expected %v, got %v", tt.expect, err)
			}
		})
	}
}

func TestGeneratorUsesConfiguredModel(t *testing.T) {
	chats := newFakeChatCreator()
	chats.enqueue("gemini-flash", &genai.GenerateContentResponse{}, nil)

	g := &Generator{chats: chats, model: "gemini-pro"}

	resp, err := g.Generate(context.Background(), ai.Request{Prompt: "msg", Config: ai.AgentConfig{Model: "gemini-flash"}})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.Text != "" || resp.Model != "gemini-flash" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}
