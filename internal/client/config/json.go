package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/storefront/internal/flagx"
)

// JsonConfig is the on-disk shape of the CLI configuration file.
type JsonConfig struct {
	ServerURL   string `json:"server_url"`
	SessionFile string `json:"session_file"`
}

// parseJson overlays the file named by -c/-config onto cfg. Keys missing
// from the file keep their current values. Read or unmarshal errors panic.
func parseJson(cfg *Config, args []string) {
	path := flagx.ConfigFile(args)
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	jc := JsonConfig{ServerURL: cfg.ServerURL, SessionFile: cfg.SessionFile}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	cfg.ServerURL = jc.ServerURL
	cfg.SessionFile = jc.SessionFile
}
