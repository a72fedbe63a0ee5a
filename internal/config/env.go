package config

import (
	"errors"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
)

// EnvFiles lists the dotenv files consulted before flags are parsed, in order.
var EnvFiles = []string{".env", ".env.local"}

// LoadEnvFiles loads KEY=VALUE pairs from the first existing dotenv file.
// Variables already present in the process environment are never overridden.
func LoadEnvFiles(paths ...string) (string, error) {
	if len(paths) == 0 {
		paths = EnvFiles
	}
	for _, p := range paths {
		err := godotenv.Load(p)
		if err == nil {
			slog.Debug("Loaded environment file", "path", p)
			return p, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
	}
	return "", nil
}
