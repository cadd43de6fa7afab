package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/ats-tuner/internal/ai"
	"github.com/spigell/ats-tuner/internal/filtering"
	"github.com/spigell/ats-tuner/internal/intake"
	"github.com/spigell/ats-tuner/internal/iteration"
	"github.com/spigell/ats-tuner/internal/logger"
	"github.com/spigell/ats-tuner/internal/output"
	"github.com/spigell/ats-tuner/internal/scoring"
	"github.com/spigell/ats-tuner/internal/state"
)

type fakeAgent struct {
	role string

	mu    sync.Mutex
	calls int
	fn    func(prompt string) (map[string]any, error)
	text  string
}

func (a *fakeAgent) Role() string { return a.role }
func (a *fakeAgent) Config() ai.AgentConfig { return ai.AgentConfig{Role: a.role} }

func (a *fakeAgent) GenerateText(_ context.Context, _ string) (string, error) {
	a.mu.Lock()
	a.calls++
	a.mu.Unlock()
	return a.text, nil
}

func (a *fakeAgent) GenerateStructured(_ context.Context, prompt string) (map[string]any, error) {
	a.mu.Lock()
	a.calls++
	a.mu.Unlock()
	return a.fn(prompt)
}

func (a *fakeAgent) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

type fakeAgents map[string]*fakeAgent

func (f fakeAgents) Resolve(role string) (ai.Agent, error) {
	if a, ok := f[role]; ok {
		return a, nil
	}
	return nil, &ai.ConfigError{Kind: ai.ErrUnknownRole, Role: role}
}

func (f fakeAgents) Has(role string) bool {
	_, ok := f[role]
	return ok
}

func (f fakeAgents) total() int {
	n := 0
	for _, a := range f {
		n += a.Calls()
	}
	return n
}

func structured(summary string) map[string]any {
	return map[string]any{
		"personal_info": map[string]any{"name": "Jane Doe", "email": "jane@example.com"},
		"summary":       summary,
		"skills":        []any{"Go", "Kubernetes"},
		"experience": []any{map[string]any{
			"title":   "Engineer",
			"bullets": []any{"Reduced latency by 40%"},
		}},
	}
}

func agents() fakeAgents {
	return fakeAgents{
		ai.RoleEnhancer: {role: ai.RoleEnhancer, fn: func(prompt string) (map[string]any, error) {
			if strings.Contains(prompt, "BROKEN") {
				return nil, &ai.APIError{Kind: ai.ErrAuth, Provider: ai.ProviderGemini}
			}
			return structured("Backend engineer"), nil
		}},
		ai.RoleReviser: {role: ai.RoleReviser, fn: func(string) (map[string]any, error) {
			return structured("Backend engineer building Go services"), nil
		}},
	}
}

type fixture struct {
	in, out string
	store   *state.Store
	agents  fakeAgents
	pipe    *Pipeline
}

func newFixture(t *testing.T, concurrency int) *fixture {
	t.Helper()
	root := t.TempDir()
	f := &fixture{in: filepath.Join(root, "in"), out: filepath.Join(root, "out"), agents: agents()}
	require.NoError(t, os.MkdirAll(f.in, 0o755))

	var err error
	f.store, err = state.Open(filepath.Join(root, "state.toml"), zap.NewNop())
	require.NoError(t, err)

	writer, err := output.New(f.out, output.FormatJSON)
	require.NoError(t, err)

	cfg := iteration.DefaultConfig()
	cfg.MaxIterations = 1
	cfg.TargetScore = 100

	proc, err := NewProcessor(Options{
		Agents:    f.agents,
		Scorer:    scoring.NewEvaluator(nil, nil, nil),
		Iteration: cfg,
		State:     f.store,
		Output:    writer,
	})
	require.NoError(t, err)

	f.pipe = New(proc, filtering.Default(), nil, filtering.Deps{State: f.store}, concurrency, zap.NewNop())
	return f
}

func (f *fixture) write(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(f.in, name), []byte(content), 0o600))
}

func byPath(outcomes []Outcome) map[string]Outcome {
	m := map[string]Outcome{}
	for _, o := range outcomes {
		m[filepath.Base(o.Path)] = o
	}
	return m
}

func TestIdempotentResubmission(t *testing.T) {
	f := newFixture(t, 2)
	f.write(t, "jane.txt", "Jane Doe, Go engineer")

	first, err := f.pipe.RunFolder(context.Background(), f.in)
	require.NoError(t, err)
	require.Len(t, first.Outcomes, 1)
	assert.Equal(t, StatusCompletedWithWarnings, first.Outcomes[0].Status)
	assert.FileExists(t, filepath.Join(f.out, "jane.optimized.json"))
	assert.FileExists(t, filepath.Join(f.out, "jane.report.json"))

	calls := f.agents.total()
	assert.Equal(t, 2, calls)

	second, err := f.pipe.RunFolder(context.Background(), f.in)
	require.NoError(t, err)
	require.Len(t, second.Outcomes, 1)
	assert.Equal(t, StatusSkipped, second.Outcomes[0].Status)
	assert.Equal(t, first.Outcomes[0].OutputPath, second.Outcomes[0].OutputPath)

	assert.Equal(t, calls, f.agents.total())
	assert.Equal(t, 1, f.store.Len())
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestBatchLogsCarryRunID(t *testing.T) {
	f := newFixture(t, 1)
	core, logs := observer.New(zapcore.InfoLevel)
	f.pipe.logger = zap.New(core)
	f.write(t, "jane.txt", "Jane Doe, Go engineer")

	summary, err := f.pipe.RunFolder(context.Background(), f.in)
	require.NoError(t, err)

	started := logs.FilterMessage("batch started").All()
	require.Len(t, started, 1)
	assert.Equal(t, summary.RunID, started[0].ContextMap()[logger.FieldRunID])
}

func TestSiblingFailureDoesNotStopBatch(t *testing.T) {
	f := newFixture(t, 3)
	f.write(t, "a.txt", "resume a")
	f.write(t, "b.txt", "resume b BROKEN")
	f.write(t, "c.txt", "resume c")
	f.write(t, "d.pdf", "ignored")

	summary, err := f.pipe.RunFolder(context.Background(), f.in)
	require.NoError(t, err)

	outcomes := byPath(summary.Outcomes)
	require.Len(t, outcomes, 3)
	assert.Equal(t, StatusFailed, outcomes["b.txt"].Status)
	assert.True(t, errors.Is(outcomes["b.txt"].Err, ai.ErrAuth))
	assert.Equal(t, StatusCompletedWithWarnings, outcomes["a.txt"].Status)
	assert.Equal(t, StatusCompletedWithWarnings, outcomes["c.txt"].Status)

	assert.True(t, summary.Failed())
	assert.Equal(t, 2, f.store.Len())
}

func TestCanceledBatchMakesNoCalls(t *testing.T) {
	f := newFixture(t, 1)
	f.write(t, "a.txt", "resume a")
	f.write(t, "b.txt", "resume b")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	subs := make([]string, 0, 2)
	for _, name := range []string{"a.txt", "b.txt"} {
		subs = append(subs, filepath.Join(f.in, name))
	}

	outcomes := f.pipe.Process(ctx, "run", loadAll(t, subs))
	require.Len(t, outcomes, 2)
	for _, o := range outcomes {
		assert.Equal(t, StatusFailed, o.Status)
		assert.Equal(t, "canceled", o.Reason)
	}
	assert.Equal(t, 0, f.agents.total())
	assert.Equal(t, 0, f.store.Len())
}

func TestStructuredInputSkipsEnhancer(t *testing.T) {
	f := newFixture(t, 1)
	f.write(t, "jane.json", `{"summary": "Go engineer", "skills": ["Go"]}`)

	summary, err := f.pipe.RunFolder(context.Background(), f.in)
	require.NoError(t, err)
	require.Len(t, summary.Outcomes, 1)
	assert.NotEqual(t, StatusFailed, summary.Outcomes[0].Status)

	assert.Equal(t, 0, f.agents[ai.RoleEnhancer].Calls())
	assert.Equal(t, 1, f.agents[ai.RoleReviser].Calls())
}

func TestDuplicateContentInOneBatch(t *testing.T) {
	f := newFixture(t, 2)
	f.write(t, "a.txt", "same resume")
	f.write(t, "b.txt", "same resume")

	summary, err := f.pipe.RunFolder(context.Background(), f.in)
	require.NoError(t, err)

	outcomes := byPath(summary.Outcomes)
	assert.Equal(t, StatusCompletedWithWarnings, outcomes["a.txt"].Status)
	assert.Equal(t, StatusSkipped, outcomes["b.txt"].Status)
	assert.Equal(t, 1, f.agents[ai.RoleEnhancer].Calls())
}

func TestNewProcessorRequiresReviser(t *testing.T) {
	store, err := state.Open(filepath.Join(t.TempDir(), "state.toml"), nil)
	require.NoError(t, err)
	writer, err := output.New(t.TempDir(), output.FormatJSON)
	require.NoError(t, err)

	_, err = NewProcessor(Options{
		Agents:    fakeAgents{},
		Scorer:    scoring.NewEvaluator(nil, nil, nil),
		Iteration: iteration.DefaultConfig(),
		State:     store,
		Output:    writer,
	})
	require.ErrorIs(t, err, ai.ErrUnknownRole)
}

func TestPrepareTarget(t *testing.T) {
	target := &scoring.Target{Title: "SRE", Description: "long description"}

	assert.Same(t, target, PrepareTarget(context.Background(), fakeAgents{}, target, nil))

	summarizer := fakeAgents{ai.RoleJobSummarizer: {role: ai.RoleJobSummarizer, text: "short"}}
	prepared := PrepareTarget(context.Background(), summarizer, target, nil)
	assert.Equal(t, "short", prepared.Description)
	assert.Equal(t, "long description", target.Description)
}

func loadAll(t *testing.T, paths []string) []intake.Submission {
	t.Helper()
	var subs []intake.Submission
	for _, p := range paths {
		sub, err := intake.Load(p)
		require.NoError(t, err)
		subs = append(subs, sub)
	}
	return subs
}
