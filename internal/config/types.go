package config

// Config is the full service configuration: defaults, merged with an
// optional config.yaml, then overridden by CAS_* environment variables.
type Config struct {
	Port          int           `yaml:"port"`
	LogLevel      string        `yaml:"logLevel"`
	DefaultEngine string        `yaml:"defaultEngine"`
	Engines       EnginesConfig `yaml:"engines"`
}

// EnginesConfig holds the per-engine settings.
type EnginesConfig struct {
	Sympy        SympyConfig        `yaml:"sympy"`
	Maxima       BinaryEngineConfig `yaml:"maxima"`
	Matlab       BinaryEngineConfig `yaml:"matlab"`
	Gap          BinaryEngineConfig `yaml:"gap"`
	Sage         BinaryEngineConfig `yaml:"sage"`
	WolframAlpha WolframAlphaConfig `yaml:"wolframalpha"`
}

// SympyConfig configures the SymPy co-interpreter.
type SympyConfig struct {
	PythonPath string `yaml:"pythonPath"`
	TimeoutS   int    `yaml:"timeoutS"`
}

// BinaryEngineConfig configures an engine backed by a local binary.
type BinaryEngineConfig struct {
	Path     string `yaml:"path"`
	TimeoutS int    `yaml:"timeoutS"`
}

// WolframAlphaConfig configures the remote oracle. An empty AppID leaves
// the engine registered but unavailable.
type WolframAlphaConfig struct {
	AppID    string `yaml:"appId"`
	TimeoutS int    `yaml:"timeoutS"`
}
