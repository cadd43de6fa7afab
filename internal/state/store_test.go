package state

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenMissingFileIsEmpty(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "state.toml"), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())

	_, ok := s.Lookup("abc")
	assert.False(t, ok)
}

func TestRecordAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.toml")
	s, err := Open(path, nil)
	require.NoError(t, err)

	require.NoError(t, s.Record("aaa111", "out/a.optimized.json", 81.5))
	require.NoError(t, s.Record("bbb222", "out/b.optimized.json", 0))
	require.NoError(t, s.Record("aaa111", "out/a2.optimized.json", 90))

	reloaded, err := Open(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.Len())

	entry, ok := reloaded.Lookup("aaa111")
	require.True(t, ok)
	assert.Equal(t, "out/a2.optimized.json", entry.OutputPath)
	assert.Equal(t, 90.0, entry.Score)

	list := reloaded.List()
	require.Len(t, list, 2)
	assert.Equal(t, "aaa111", list[0].Hash)
	assert.Equal(t, "bbb222", list[1].Hash)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "[resumes.aaa111]")

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestCorruptedFileIsLeftUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.toml")
	content := []byte("this is = = not toml [[[")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	_, err := Open(path, nil)
	require.ErrorIs(t, err, ErrCorrupted)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, after)
}

func TestEntryWithoutOutputIsReported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.toml")
	require.NoError(t, os.WriteFile(path, []byte("[resumes.abc]\nscore = 10.0\n"), 0o600))

	_, err := Open(path, nil)
	require.ErrorIs(t, err, ErrCorrupted)
	assert.Contains(t, err.Error(), "abc")
}

func TestRecordRetriesOnce(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "state.toml"), nil)
	require.NoError(t, err)

	calls := 0
	s.rename = func(oldpath, newpath string) error {
		calls++
		if calls == 1 {
			return errors.New("disk hiccup")
		}
		return os.Rename(oldpath, newpath)
	}

	require.NoError(t, s.Record("abc", "out.json", 1))
	assert.Equal(t, 2, calls)
	_, ok := s.Lookup("abc")
	assert.True(t, ok)
}

func TestRecordSurfacesWriteFailure(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "state.toml"), nil)
	require.NoError(t, err)

	calls := 0
	s.rename = func(string, string) error {
		calls++
		return errors.New("read-only filesystem")
	}

	err = s.Record("abc", "out.json", 1)
	require.ErrorIs(t, err, ErrWrite)
	assert.Equal(t, 2, calls)

	_, ok := s.Lookup("abc")
	assert.False(t, ok)
}

func TestConcurrentRecordsAreNotLost(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.toml")
	s, err := Open(path, nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.Record(fmt.Sprintf("hash%02d", i), fmt.Sprintf("out%02d.json", i), float64(i)))
			s.Lookup("hash00")
		}(i)
	}
	wg.Wait()

	reloaded, err := Open(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 20, reloaded.Len())
}
