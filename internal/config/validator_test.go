package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidator(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)
	assert.NotNil(t, v)
}

func TestValidatorValidate(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	t.Run("accepts empty config", func(t *testing.T) {
		assert.NoError(t, v.Validate(&Config{}))
	})

	t.Run("accepts valid config", func(t *testing.T) {
		cfg := &Config{
			DefaultScope:      "user",
			DefaultCommitMode: "local-only",
			CacheDir:          "/tmp/cache",
			StoreDir:          "/tmp/store",
		}
		assert.NoError(t, v.Validate(cfg))
	})

	t.Run("rejects unknown scope", func(t *testing.T) {
		err := v.Validate(&Config{DefaultScope: "global"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "defaultScope")
	})

	t.Run("rejects unknown commit mode", func(t *testing.T) {
		err := v.Validate(&Config{DefaultCommitMode: "always"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "defaultCommitMode")
	})

	t.Run("rejects whitespace-only cacheDir", func(t *testing.T) {
		err := v.Validate(&Config{CacheDir: "   "})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cacheDir")
	})
}

func TestValidatorValidateFile(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	t.Run("valid file passes", func(t *testing.T) {
		tmpDir := t.TempDir()
		configFile := filepath.Join(tmpDir, "config.yaml")
		require.NoError(t, os.WriteFile(configFile, []byte("defaultScope: repository\n"), 0o644))

		assert.NoError(t, v.ValidateFile(configFile))
	})

	t.Run("invalid file fails", func(t *testing.T) {
		tmpDir := t.TempDir()
		configFile := filepath.Join(tmpDir, "config.yaml")
		require.NoError(t, os.WriteFile(configFile, []byte("defaultScope: nope\n"), 0o644))

		assert.Error(t, v.ValidateFile(configFile))
	})
}

func TestValidationErrorsError(t *testing.T) {
	errs := ValidationErrors{
		{Field: "defaultScope", Message: "bad value"},
	}
	assert.Contains(t, errs.Error(), "defaultScope: bad value")

	var empty ValidationErrors
	assert.Equal(t, "no validation errors", empty.Error())
}
