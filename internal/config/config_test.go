package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.ProjectDir)
	assert.Equal(t, DefaultEnvDir, cfg.Settings.EnvDir)
	assert.Equal(t, "1.9.8", cfg.Settings.TerraformVersion)
	assert.Equal(t, "docschat-mcp", cfg.Settings.ServiceName)
	assert.Equal(t, "google_cloud_run_v2_service.docschat", cfg.Settings.ServiceAddress)
	assert.Equal(t, "mcp", cfg.Settings.Repository)
	assert.Equal(t, filepath.Join(dir, ".docschat", "history.db"), cfg.HistoryDBPath())
}

func TestLoadSettingsFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "docschat.toml"), `
terraform_path = "/usr/local/bin/terraform"
env_dir = "workspaces"
history_db = "/var/lib/docschat/history.db"
`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "/usr/local/bin/terraform", cfg.Settings.TerraformPath)
	assert.Equal(t, "workspaces", cfg.Settings.EnvDir)
	assert.Equal(t, "/var/lib/docschat/history.db", cfg.HistoryDBPath())
	assert.Equal(t, filepath.Join(dir, "workspaces", "dev.tfvars"), cfg.TFVarsPath("dev"))
}

func TestLoadSettingsInvalidTOML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "docschat.toml"), `env_dir = [broken`)

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestLoadDotenvMissing(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	err = cfg.LoadDotenv()
	assert.ErrorIs(t, err, ErrMissingEnvFile)
}

func TestAPIKeyResolution(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".env"), "INKEEP_API_KEY=from-file\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.NoError(t, cfg.LoadDotenv())

	t.Run("falls back to .env", func(t *testing.T) {
		t.Setenv(EnvAPIKey, "")
		key, err := cfg.APIKey()
		require.NoError(t, err)
		assert.Equal(t, "from-file", key)
	})

	t.Run("process env wins", func(t *testing.T) {
		t.Setenv(EnvAPIKey, "from-env")
		key, err := cfg.APIKey()
		require.NoError(t, err)
		assert.Equal(t, "from-env", key)
	})

	t.Run("missing everywhere", func(t *testing.T) {
		t.Setenv(EnvAPIKey, "")
		empty := &Config{ProjectDir: t.TempDir()}
		_, err := empty.APIKey()
		assert.ErrorIs(t, err, ErrMissingAPIKey)
	})
}

func TestAPIKeyMissingFromDotenv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".env"), "OTHER_VAR=1\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.NoError(t, cfg.LoadDotenv())

	t.Setenv(EnvAPIKey, "")
	_, err = cfg.APIKey()
	assert.True(t, errors.Is(err, ErrMissingAPIKey))
}
