package app

import (
	log "log/slog"

	"github.com/joho/godotenv"
)

// LoadEnv loads an env file into the process environment. A missing file is
// normal when keys come from the real environment, so it is only logged.
func LoadEnv(path string) bool {
	if err := godotenv.Load(path); err != nil {
		log.Debug("No env file", "file", path, "err", err)
		return false
	}
	log.Debug("Loaded env file", "file", path)
	return true
}
