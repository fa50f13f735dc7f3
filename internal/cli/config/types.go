// Package config provides configuration management for the cascade CLI.
//
// Configuration is layered, highest priority last: built-in defaults, the
// cascade.yaml config file, CASCADE_-prefixed environment variables, and
// explicitly set command-line flags.
package config

// Config holds all CLI configuration options.
type Config struct {
	// StorePath is the path to the SQLite workbench store.
	StorePath string `koanf:"store_path" yaml:"store_path"`
	// LookupLimit caps lookup-relation field propagation.
	LookupLimit int `koanf:"lookup_limit" yaml:"lookup_limit"`
	// Verbose enables debug logging to stderr.
	Verbose bool `koanf:"verbose" yaml:"verbose"`
}

// Default configuration values.
const (
	DefaultStoreFile   = ".cascade/workbench.db"
	DefaultLookupLimit = 3
)
