package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFileName(t *testing.T) {
	assert.Equal(t, "Talk:FooBarArchive 1", SanitizeFileName("Talk:Foo/Bar/Archive 1"))
	assert.Equal(t, "plain", SanitizeFileName("plain"))
	assert.Equal(t, "", SanitizeFileName("//"))
}

func TestSafeWriteFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "nested", "config.yaml")
	require.NoError(t, EnsureDir(filepath.Dir(p)))
	require.NoError(t, SafeWriteFile(p, []byte("threshold: 50\n")))
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "threshold: 50\n", string(b))
	_, err = os.Stat(p + ".tmp")
	assert.True(t, os.IsNotExist(err))
}
