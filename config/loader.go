package config

import (
	"flag"
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"
)

// Flags holds command-line flag values that, when set, override the loaded file Config.
type Flags struct {
	ConfigPath string
	ServerName string
	Listen     string
	Metrics    bool
}

// ParseFlags parses os.Args and returns the resulting Flags.
func ParseFlags() *Flags {
	f := &Flags{}
	flag.StringVar(&f.ConfigPath, "config", "./dumbster.toml", "Path to configuration file")
	flag.StringVar(&f.ServerName, "server-name", "", "Server name used in SMTP greeting/closing text")
	flag.StringVar(&f.Listen, "listen", "", "Listen address (host:port), port 0 for an ephemeral port")
	flag.BoolVar(&f.Metrics, "metrics", false, "Enable the Prometheus metrics endpoint")
	flag.Parse()
	return f
}

// Load parses the TOML file at path and merges it over Default(). A missing file is not an
// error: Default() is returned unchanged, matching infodancer-pop3d's loader behaviour so the
// server is always runnable without a config file present.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var fileConfig Config
	if err := toml.Unmarshal(data, &fileConfig); err != nil {
		return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return merge(cfg, fileConfig), nil
}

func merge(base, override Config) Config {
	if override.ServerName != "" {
		base.ServerName = override.ServerName
	}
	if override.Listen != "" {
		base.Listen = override.Listen
	}
	if override.ConnectionRateLimit != 0 {
		base.ConnectionRateLimit = override.ConnectionRateLimit
	}
	if override.ShutdownTimeoutSecs != 0 {
		base.ShutdownTimeoutSecs = override.ShutdownTimeoutSecs
	}
	if override.Metrics.Enabled {
		base.Metrics.Enabled = true
	}
	if override.Metrics.Address != "" {
		base.Metrics.Address = override.Metrics.Address
	}
	if override.Metrics.Path != "" {
		base.Metrics.Path = override.Metrics.Path
	}
	return base
}

// ApplyFlags merges command-line flag values into cfg; non-empty flags take precedence over
// whatever Load produced.
func ApplyFlags(cfg Config, f *Flags) Config {
	if f.ServerName != "" {
		cfg.ServerName = f.ServerName
	}
	if f.Listen != "" {
		cfg.Listen = f.Listen
	}
	if f.Metrics {
		cfg.Metrics.Enabled = true
	}
	return cfg
}
