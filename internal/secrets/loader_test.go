package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	require.NoError(t, os.WriteFile(path, []byte("  from-file \n"), 0o600))
	t.Setenv("HH_RESUME_FIT_TEST_KEY", "from-env")

	got, err := Load(Source{Name: "gemini api key", File: path, Env: "HH_RESUME_FIT_TEST_KEY", Value: "inline"})
	require.NoError(t, err)
	assert.Equal(t, "from-file", got)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("HH_RESUME_FIT_TEST_KEY", " from-env ")

	got, err := Load(Source{Env: "HH_RESUME_FIT_TEST_KEY", Value: "inline"})
	require.NoError(t, err)
	assert.Equal(t, "from-env", got)
}

func TestLoadFallsBackToValue(t *testing.T) {
	t.Setenv("HH_RESUME_FIT_TEST_KEY", "")

	got, err := Load(Source{Env: "HH_RESUME_FIT_TEST_KEY", Value: " inline "})
	require.NoError(t, err)
	assert.Equal(t, "inline", got)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.WriteFile(empty, []byte(" \n"), 0o600))

	_, err := Load(Source{Name: "token", File: empty, Value: "inline"})
	require.EqualError(t, err, `token file "`+empty+`" is empty`)

	_, err = Load(Source{Name: "token", File: filepath.Join(dir, "missing")})
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(Source{})
	require.EqualError(t, err, "secret is not configured")
}
