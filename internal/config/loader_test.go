package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 8769, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.DefaultEngine)
	assert.Equal(t, "python3", cfg.Engines.Sympy.PythonPath)
	assert.Equal(t, 5, cfg.Engines.Sympy.TimeoutS)
	assert.Equal(t, 10, cfg.Engines.Maxima.TimeoutS)
	assert.Equal(t, 30, cfg.Engines.Matlab.TimeoutS)
	assert.Equal(t, 10, cfg.Engines.Gap.TimeoutS)
	assert.Equal(t, 30, cfg.Engines.Sage.TimeoutS)
	assert.Empty(t, cfg.Engines.WolframAlpha.AppID)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Port, cfg.Port)
}

func TestLoadYamlOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: 9000
defaultEngine: maxima
engines:
  maxima:
    path: /usr/local/bin/maxima
    timeoutS: 20
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "maxima", cfg.DefaultEngine)
	assert.Equal(t, "/usr/local/bin/maxima", cfg.Engines.Maxima.Path)
	assert.Equal(t, 20, cfg.Engines.Maxima.TimeoutS)
	// Untouched sections keep defaults.
	assert.Equal(t, "python3", cfg.Engines.Sympy.PythonPath)
}

func TestLoadMalformedYaml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [not an int"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverridesFileAndDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 9000\n"), 0o644))

	t.Setenv("CAS_PORT", "9100")
	t.Setenv("CAS_DEFAULT_ENGINE", "sage")
	t.Setenv("CAS_MATLAB_PATH", "/opt/matlab/bin/matlab")
	t.Setenv("CAS_SYMPY_TIMEOUT", "7")
	t.Setenv("CAS_WOLFRAMALPHA_APPID", "ABC-123")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "sage", cfg.DefaultEngine)
	assert.Equal(t, "/opt/matlab/bin/matlab", cfg.Engines.Matlab.Path)
	assert.Equal(t, 7, cfg.Engines.Sympy.TimeoutS)
	assert.Equal(t, "ABC-123", cfg.Engines.WolframAlpha.AppID)
}

func TestEnvBadIntIgnored(t *testing.T) {
	t.Setenv("CAS_PORT", "not-a-number")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Port, cfg.Port)
}
