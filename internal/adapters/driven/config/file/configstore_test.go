package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
}

func TestNewConfigStore_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "diagnosa")

	_, err := NewConfigStore(dir)

	require.NoError(t, err)
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("engine.match_policy", "lenient"))
	require.NoError(t, store.Set("engine.top_k", 3))
	require.NoError(t, store.Set("engine.default_evidence_cf", 0.7))
	require.NoError(t, store.Set("catalogue.watch", true))
	require.NoError(t, store.Set("report.formats", []string{"text", "csv"}))

	assert.Equal(t, "lenient", store.GetString("engine.match_policy"))
	assert.Equal(t, 3, store.GetInt("engine.top_k"))
	assert.InDelta(t, 0.7, store.GetFloat("engine.default_evidence_cf"), 1e-9)
	assert.InDelta(t, 3.0, store.GetFloat("engine.top_k"), 1e-9)
	assert.True(t, store.GetBool("catalogue.watch"))
	assert.Equal(t, []string{"text", "csv"}, store.GetStringSlice("report.formats"))

	// Wrong types and missing keys return zero values.
	assert.Equal(t, "", store.GetString("engine.top_k"))
	assert.Equal(t, 0, store.GetInt("engine.match_policy"))
	assert.Equal(t, 0.0, store.GetFloat("missing"))
	assert.False(t, store.GetBool("missing"))
	assert.Nil(t, store.GetStringSlice("missing"))
}

func TestConfigStore_PersistenceAsNestedTables(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set("engine.max_iterations", 20))
	require.NoError(t, store.Set("engine.default_evidence_cf", 0.6))
	require.NoError(t, store.Set("log.enabled", false))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[engine]")
	assert.Contains(t, string(data), "max_iterations = 20")

	reopened, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, 20, reopened.GetInt("engine.max_iterations"))
	assert.InDelta(t, 0.6, reopened.GetFloat("engine.default_evidence_cf"), 1e-9)
	_, ok := reopened.Get("log.enabled")
	assert.True(t, ok)
	assert.False(t, reopened.GetBool("log.enabled"))
}

func TestConfigStore_LoadsHandWrittenFile(t *testing.T) {
	tmpDir := t.TempDir()
	content := `
[engine]
top_k = 4
default_evidence_cf = 1

[catalogue]
path = "/srv/rules.yaml"
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, 4, store.GetInt("engine.top_k"))
	assert.InDelta(t, 1.0, store.GetFloat("engine.default_evidence_cf"), 1e-9)
	assert.Equal(t, "/srv/rules.yaml", store.GetString("catalogue.path"))
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("k", "v"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestNewConfigStore_LoadCorruptedFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("not [valid toml"), 0600))

	_, err := NewConfigStore(tmpDir)

	assert.Error(t, err)
}

func TestConfigStore_EmptyFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), nil, 0600))

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	_, ok := store.Get("anything")
	assert.False(t, ok)
}

func TestConfigStore_Concurrency(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("engine.top_k", n+1)
			_ = store.GetInt("engine.top_k")
		}(i)
	}
	wg.Wait()

	assert.Positive(t, store.GetInt("engine.top_k"))
}

func TestNestMap(t *testing.T) {
	got := nestMap(map[string]any{
		"a":     1,
		"a.b":   2,
		"c.d.e": 3,
		"c.f":   4,
	})

	assert.Equal(t, map[string]any{
		"a":   1,
		"a.b": 2,
		"c": map[string]any{
			"d": map[string]any{"e": 3},
			"f": 4,
		},
	}, got)
	assert.Equal(t, map[string]any{"a": 1, "a.b": 2, "c.d.e": 3, "c.f": 4}, flattenMap(got, ""))
}
