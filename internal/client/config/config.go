package config

import (
	"os"
	"path/filepath"
)

// Config holds runtime settings for the storefront CLI.
type Config struct {
	ServerURL   string `env:"STOREFRONT_SERVER_URL"`
	SessionFile string `env:"STOREFRONT_SESSION_FILE"`
}

// LoadDefaults populates c with defaults. The session lives in the user's
// home directory, or the working directory when there is none.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://localhost:8080"

	dir, err := os.UserHomeDir()
	if err != nil {
		dir = "."
	}
	c.SessionFile = filepath.Join(dir, ".storefront", "session.json")
}

// LoadConfig builds a Config from args (without the program name) and
// returns it together with the arguments left after the global flags,
// which start with the subcommand.
func LoadConfig(args []string) (*Config, []string) {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, args)
	parseEnv(cfg)
	rest := parseFlags(cfg, args)
	return cfg, rest
}
