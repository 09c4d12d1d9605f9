package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"casservice/pkg/logging"
)

// Load builds the effective configuration: defaults, overlaid with the
// yaml file at configPath (missing file is fine), then CAS_* environment
// variables on top.
func Load(configPath string) (Config, error) {
	cfg := Default()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case errors.Is(err, os.ErrNotExist):
			logging.Info("config", "No config file at %s, using defaults", configPath)
		case err != nil:
			return Config{}, fmt.Errorf("reading config from %s: %w", configPath, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parsing config from %s: %w", configPath, err)
			}
			logging.Info("config", "Loaded configuration from %s", configPath)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv overlays CAS_* environment variables. Unparseable numeric
// values are logged and ignored rather than failing startup.
func applyEnv(cfg *Config) {
	envInt("CAS_PORT", &cfg.Port)
	envString("CAS_LOG_LEVEL", &cfg.LogLevel)
	envString("CAS_DEFAULT_ENGINE", &cfg.DefaultEngine)

	envString("CAS_PYTHON_PATH", &cfg.Engines.Sympy.PythonPath)
	envInt("CAS_SYMPY_TIMEOUT", &cfg.Engines.Sympy.TimeoutS)

	envString("CAS_MAXIMA_PATH", &cfg.Engines.Maxima.Path)
	envInt("CAS_MAXIMA_TIMEOUT", &cfg.Engines.Maxima.TimeoutS)

	envString("CAS_MATLAB_PATH", &cfg.Engines.Matlab.Path)
	envInt("CAS_MATLAB_TIMEOUT", &cfg.Engines.Matlab.TimeoutS)

	envString("CAS_GAP_PATH", &cfg.Engines.Gap.Path)
	envInt("CAS_GAP_TIMEOUT", &cfg.Engines.Gap.TimeoutS)

	envString("CAS_SAGE_PATH", &cfg.Engines.Sage.Path)
	envInt("CAS_SAGE_TIMEOUT", &cfg.Engines.Sage.TimeoutS)

	envString("CAS_WOLFRAMALPHA_APPID", &cfg.Engines.WolframAlpha.AppID)
	envInt("CAS_WOLFRAMALPHA_TIMEOUT", &cfg.Engines.WolframAlpha.TimeoutS)
}

func envString(key string, target *string) {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		*target = value
	}
}

func envInt(key string, target *int) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn("config", "Ignoring %s=%q: %v", key, value, err)
		return
	}
	*target = parsed
}
