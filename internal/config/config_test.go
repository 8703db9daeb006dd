package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidModel(t *testing.T) {
	assert.True(t, ValidModel(DefaultModel))
	assert.True(t, ValidModel("gpt-5"))
	assert.False(t, ValidModel("gpt-3.5-turbo"))
	assert.False(t, ValidModel(""))
}

func TestRewriteEnvFileCreates(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, rewriteEnvFile(path, "sk-test"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "OPENAI_API_KEY=sk-test\n", string(data))
}

func TestRewriteEnvFileReplacesAndKeepsOtherLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	before := "FOO=bar\nOPENAI_API_KEY=sk-old\nBAZ=qux\n"
	require.NoError(t, os.WriteFile(path, []byte(before), 0o600))

	require.NoError(t, rewriteEnvFile(path, "sk-new"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "FOO=bar\nOPENAI_API_KEY=sk-new\nBAZ=qux\n", string(data))
}

func TestRewriteEnvFileClearKeepsOtherLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	before := "FOO=bar\nOPENAI_API_KEY=sk-old\n"
	require.NoError(t, os.WriteFile(path, []byte(before), 0o600))

	require.NoError(t, rewriteEnvFile(path, ""))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "FOO=bar\n", string(data))
}

func TestRewriteEnvFileClearRemovesEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("OPENAI_API_KEY=sk-old\n"), 0o600))

	require.NoError(t, rewriteEnvFile(path, ""))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestRewriteEnvFileClearOnMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	assert.NoError(t, rewriteEnvFile(path, ""))
}
