package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Server is the environment-driven configuration of cmd/server.
type Server struct {
	Addr         string `env:"PICKER_ADDR" envDefault:":8080"`
	SettingsPath string `env:"PICKER_SETTINGS" envDefault:"settings.yaml"`
	LogLevel     string `env:"PICKER_LOG_LEVEL" envDefault:"info"`
	LogDev       bool   `env:"PICKER_LOG_DEV" envDefault:"false"`
}

// LoadServer reads optional dotenv files, then the environment. Variables
// already set in the environment win over dotenv values.
func LoadServer(dotenvFiles ...string) (Server, error) {
	if len(dotenvFiles) == 0 {
		dotenvFiles = []string{".env"}
	}
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Server{}, fmt.Errorf("config: load %s: %w", f, err)
		}
	}

	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("config: parse env: %w", err)
	}
	return cfg, nil
}
