package app

// Config carries the command-line level settings for bootstrap. Everything
// else comes from internal/config.
type Config struct {
	// ConfigPath is the yaml config file; empty means defaults + env only.
	ConfigPath string
	// Port overrides the configured listen port when non-zero.
	Port int
	// Debug forces debug-level logging regardless of configuration.
	Debug bool
}
