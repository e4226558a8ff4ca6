package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"CAPAFLOW_CONFIG_PATH", "CAPAFLOW_SERVER_HOST", "CAPAFLOW_SERVER_PORT",
		"CAPAFLOW_DB_PATH", "CAPAFLOW_LOG_LEVEL", "GEMINI_API_KEY", "CAPAFLOW_GEMINI_MODEL",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "127.0.0.1", cfg.Server.Host)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "capaflow.db", cfg.DB.Path)
	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, "gemini-2.5-pro", cfg.Gemini.Model)
}

func TestLoad_FileThenEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  host: 0.0.0.0
  port: 9000
log:
  level: debug
gemini:
  model: gemini-2.5-flash
`), 0o644))

	t.Setenv("CAPAFLOW_CONFIG_PATH", path)
	t.Setenv("CAPAFLOW_SERVER_PORT", "9001")
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "0.0.0.0", cfg.Server.Host)
	require.Equal(t, 9001, cfg.Server.Port) // env beats file
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "gemini-2.5-flash", cfg.Gemini.Model)
	require.Equal(t, "test-key", cfg.Gemini.APIKey)
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("CAPAFLOW_SERVER_PORT", "not-a-port")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "CAPAFLOW_SERVER_PORT")
}

func TestLoad_MissingConfigFile(t *testing.T) {
	t.Setenv("CAPAFLOW_CONFIG_PATH", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := Load()
	require.Error(t, err)
}
