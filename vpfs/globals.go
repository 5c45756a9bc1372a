package internal

import (
	"log"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

var (
	// DefaultConfigPath is the default path to the config file
	DefaultAppName        = "vpfs"
	DefaultAppCMDShortCut = "vpfs"
	DefaultConfigPath     = filepath.Join(getHomeDir(), ".config", DefaultAppName)
	DefaultGlobalConfig   = filepath.Join(DefaultConfigPath, "config.yaml")

	// Default engine settings
	DefaultMemoryBudgetBytes    = int64(512 << 20) // 512 MiB of decoded pixels
	DefaultConfiguredRadius     = 50
	DefaultMaxConcurrentDecodes = 8
	DefaultDecodeTimeoutSecs    = 30
	DefaultLRUMaxEntries        = 32
	DefaultLRUMaxBytes          = int64(128 << 20)
	DefaultPressurePollSecs     = 5
)

func getHomeDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current working directory if home directory is unavailable
		cwd, cwdErr := os.Getwd()
		if cwdErr != nil {
			// Last resort - use tmp directory
			log.Printf("Unable to get home or working directory, using /tmp: %v", err)
			return "/tmp"
		}
		log.Printf("Unable to get home directory, using current working directory: %v", err)
		return cwd
	}
	return homeDir
}

// GetLogger returns a properly configured zerolog logger instance
func GetLogger() zerolog.Logger {
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
