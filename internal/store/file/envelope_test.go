package file

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/marque/internal/domain"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "datastore.php")

	in := map[string]int{"alpha": 1, "beta": 2}
	require.NoError(t, saveEnvelope(path, in))

	var out map[string]int
	found, err := loadEnvelope(path, &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, in, out)
}

func TestEnvelopeSentinels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "datastore.php")
	require.NoError(t, saveEnvelope(path, []string{"x"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.True(t, len(data) > len(sentinelPrefix)+len(sentinelSuffix))
	assert.Equal(t, sentinelPrefix, string(data[:len(sentinelPrefix)]))
	assert.Equal(t, sentinelSuffix, string(data[len(data)-len(sentinelSuffix):]))
}

func TestLoadEnvelopeMissingFile(t *testing.T) {
	var out []string
	found, err := loadEnvelope(filepath.Join(t.TempDir(), "nope.php"), &out)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, out)
}

func TestLoadEnvelopeCorrupt(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"no markers", "just some text"},
		{"bad base64", sentinelPrefix + "!!not-base64!!" + sentinelSuffix},
		{"empty file", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "datastore.php")
			require.NoError(t, os.WriteFile(path, []byte(tt.data), 0o600))

			var out []string
			_, err := loadEnvelope(path, &out)
			require.Error(t, err)

			var perr *domain.PersistenceError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, "decode", perr.Op)
			assert.Equal(t, path, perr.Path)
		})
	}
}

func TestSaveEnvelopeReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "datastore.php")

	require.NoError(t, saveEnvelope(path, []int{1}))
	require.NoError(t, saveEnvelope(path, []int{1, 2, 3}))

	var out []int
	_, err := loadEnvelope(path, &out)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, out)

	// no temp files left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
