package config

import "time"

// CLIConfig is the configuration for memcell-cli.
type CLIConfig struct {
	// Servers are cache endpoints; keys are spread across them.
	Servers []string `yaml:"servers"`

	// HTTP is the server's side HTTP port, used by status and version.
	HTTP string `yaml:"http,omitempty"`

	// Output is table, json or yaml.
	Output string `yaml:"output"`

	Timeout time.Duration `yaml:"timeout"`

	// HistoryFile stores REPL history. Empty uses ~/.memcell/history.
	HistoryFile string `yaml:"history_file,omitempty"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Servers: []string{"127.0.0.1:11211"},
		HTTP:    "127.0.0.1:11280",
		Output:  "table",
		Timeout: 5 * time.Second,
	}
}
