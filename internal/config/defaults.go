package config

// Default returns the built-in configuration. Paths are bare binary names
// resolved through PATH unless overridden; timeouts follow each engine's
// typical latency envelope.
func Default() Config {
	return Config{
		Port:     8769,
		LogLevel: "info",
		Engines: EnginesConfig{
			Sympy: SympyConfig{
				PythonPath: "python3",
				TimeoutS:   5,
			},
			Maxima: BinaryEngineConfig{
				Path:     "maxima",
				TimeoutS: 10,
			},
			Matlab: BinaryEngineConfig{
				Path:     "matlab",
				TimeoutS: 30,
			},
			Gap: BinaryEngineConfig{
				Path:     "gap",
				TimeoutS: 10,
			},
			Sage: BinaryEngineConfig{
				Path:     "sage",
				TimeoutS: 30,
			},
			WolframAlpha: WolframAlphaConfig{
				TimeoutS: 10,
			},
		},
	}
}
