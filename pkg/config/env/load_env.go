package env

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads environment variables from a .env file. ENV_PATH overrides
// defaultPath and must point to an existing file; the default file is optional.
// Variables already set in the environment win.
func LoadDotEnv(defaultPath string) error {
	if envPath := os.Getenv("ENV_PATH"); envPath != "" {
		if err := godotenv.Load(envPath); err != nil {
			return fmt.Errorf("load %s: %w", envPath, err)
		}
		slog.Debug("Loaded environment file", "path", envPath)
		return nil
	}

	err := godotenv.Load(defaultPath)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Debug("Skipping .env, file not found", "path", defaultPath)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", defaultPath, err)
	}
	slog.Debug("Loaded environment file", "path", defaultPath)
	return nil
}
