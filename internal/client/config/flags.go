package config

import (
	"flag"
	"io"
)

// parseFlags applies the global flags that precede the subcommand and
// returns the remaining arguments. -c/-config are accepted here so the
// parse does not stop on them; parseJson has already used their value.
func parseFlags(cfg *Config, args []string) []string {
	fs := flag.NewFlagSet("storefront", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerURL, "s", cfg.ServerURL, "base URL of the storefront server")
	fs.StringVar(&cfg.SessionFile, "f", cfg.SessionFile, "session file")
	fs.String("c", "", "path to JSON config file (short)")
	fs.String("config", "", "path to JSON config file")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
	return fs.Args()
}
