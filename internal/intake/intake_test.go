package intake

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/ats-tuner/internal/scoring"
)

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestExtractText(t *testing.T) {
	dir := t.TempDir()

	text, err := ExtractText(write(t, dir, "cv.txt", "\ufeff  Jane Doe\nGo engineer  \n"))
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nGo engineer", text)

	_, err = ExtractText(write(t, dir, "cv.pdf", "%PDF"))
	require.ErrorIs(t, err, ErrUnsupportedSource)

	_, err = ExtractText(filepath.Join(dir, "missing.txt"))
	require.ErrorIs(t, err, ErrUnreadableSource)

	_, err = ExtractText(write(t, dir, "empty.md", "   \n"))
	require.ErrorIs(t, err, ErrUnreadableSource)

	_, err = ExtractText(write(t, dir, "binary.txt", string([]byte{0xff, 0xfe, 0xfd})))
	require.ErrorIs(t, err, ErrUnreadableSource)
}

func TestLoadStructured(t *testing.T) {
	dir := t.TempDir()

	sub, err := Load(write(t, dir, "cv.json", `{"summary": "Go engineer", "skills": ["Go"]}`))
	require.NoError(t, err)
	require.NotNil(t, sub.Structured)
	assert.Equal(t, "Go engineer", sub.Structured.Summary())

	sub, err = Load(write(t, dir, "cv.yaml", "summary: Go engineer\nexperience:\n  - title: Engineer\n    bullets: [Built things]\n"))
	require.NoError(t, err)
	require.NotNil(t, sub.Structured)
	assert.Equal(t, 1, sub.Structured.ExperienceCount())

	sub, err = Load(write(t, dir, "cv.txt", "plain text resume"))
	require.NoError(t, err)
	assert.Nil(t, sub.Structured)
	assert.Equal(t, 64, len(sub.Hash()))

	_, err = Load(write(t, dir, "broken.json", `[1, 2`))
	require.ErrorIs(t, err, ErrUnreadableSource)
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "b.txt", "b")
	write(t, dir, "a.md", "a")
	write(t, dir, "a.optimized.json", "{}")
	write(t, dir, "a.report.json", "{}")
	write(t, dir, ".hidden.txt", "x")
	write(t, dir, "photo.png", "x")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.txt"), 0o755))

	paths, err := Scan(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.md"), filepath.Join(dir, "b.txt")}, paths)

	_, err = Scan(filepath.Join(dir, "nope"))
	require.Error(t, err)
}

func TestLoadTarget(t *testing.T) {
	dir := t.TempDir()

	target, err := LoadTarget(write(t, dir, "job.yaml", "title: Go Developer\ncompany: Acme\ndescription: Build services\n"))
	require.NoError(t, err)
	assert.Equal(t, "Go Developer", target.Title)
	assert.Equal(t, "Acme", target.Company)

	target, err = LoadTarget(write(t, dir, "job.md", "# Platform Engineer\n\nKubernetes and Go\n"))
	require.NoError(t, err)
	assert.Equal(t, "Platform Engineer", target.Title)
	assert.Equal(t, "Kubernetes and Go", target.Description)

	_, err = LoadTarget(write(t, dir, "job.json", `{}`))
	require.ErrorIs(t, err, ErrUnreadableSource)

	_, err = LoadTarget(write(t, dir, "job.csv", "a,b"))
	require.ErrorIs(t, err, ErrUnsupportedSource)
}

func TestSaveTargetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "targets", "job.yaml")
	want := scoring.Target{ID: "42", Title: "SRE", Description: "On-call", Salary: "100 USD"}

	require.NoError(t, SaveTarget(path, want))
	got, err := LoadTarget(path)
	require.NoError(t, err)
	assert.Equal(t, want, *got)
}

func TestWatcherReportsNewFiles(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir, 50*time.Millisecond, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu   sync.Mutex
		seen []string
	)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(paths []string) {
			mu.Lock()
			seen = append(seen, paths...)
			mu.Unlock()
		})
	}()

	write(t, dir, "cv.txt", "resume")
	write(t, dir, "cv.optimized.json", "{}")

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) > 0
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, seen, filepath.Join(dir, "cv.txt"))
	assert.NotContains(t, seen, filepath.Join(dir, "cv.optimized.json"))
}
