package config

import (
	"errors"
	"io/fs"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// parseEnv loads the given dotenv files (missing files are skipped, already
// set variables are not overridden) and then overlays every environment
// variable named in the Config env tags.
func parseEnv(config *Config, dotenvFiles ...string) {
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			panic(err)
		}
	}

	if err := cleanenv.ReadEnv(config); err != nil {
		panic(err)
	}
}
