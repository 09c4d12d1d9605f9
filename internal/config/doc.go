// Package config loads the service configuration: built-in defaults,
// overlaid with an optional yaml file, then CAS_* environment variables.
package config
