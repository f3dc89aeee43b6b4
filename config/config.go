// Package config loads dumbster's TOML configuration, in the style of infodancer-pop3d's
// internal/config package: a Config struct with toml tags, a Default(), a Load(path) that falls
// back to defaults when the file is absent, and command-line flags that override file values.
package config

// Config holds the sink server's runtime settings.
type Config struct {
	// ServerName is embedded in the 220 greeting and the 221 closing message.
	ServerName string `toml:"server_name"`
	// Listen is the address to bind, e.g. "0.0.0.0:1025". Port 0 requests an OS-assigned port.
	Listen string `toml:"listen"`
	// ConnectionRateLimit caps accepted connections per remote IP per second; 0 disables limiting.
	ConnectionRateLimit int `toml:"connection_rate_limit"`
	// ShutdownTimeoutSecs is loaded and merged like the other fields, but the server does not read
	// it: Stop always waits up to 20 seconds for in-flight transactions.
	ShutdownTimeoutSecs int `toml:"shutdown_timeout_secs"`
	Metrics             MetricsConfig `toml:"metrics"`
}

// MetricsConfig gates the optional Prometheus registration (SPEC_FULL §6).
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Address string `toml:"address"`
	Path    string `toml:"path"`
}

// Default returns a Config with sensible values for running dumbster standalone.
func Default() Config {
	return Config{
		ServerName:          "dumbster",
		Listen:              "0.0.0.0:1025",
		ConnectionRateLimit: 0,
		ShutdownTimeoutSecs: 20,
		Metrics: MetricsConfig{
			Enabled: false,
			Address: "127.0.0.1:9090",
			Path:    "/metrics",
		},
	}
}
