package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/dmitrijs2005/mdrzasync/internal/flagx"
	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvEncryptionKey  = "ENCRYPTION_KEY"
	EnvDataDir        = "MDRZA_DATA_DIR"
	EnvDatabaseDSN    = "MDRZA_DATABASE_DSN"
	EnvBaseURL        = "MDRZA_BASE_URL"
	EnvLoginPath      = "MDRZA_LOGIN_PATH"
	EnvSubmitPath     = "MDRZA_SUBMIT_PATH"
	EnvPacingInterval = "MDRZA_PACING_INTERVAL"
	EnvHTTPTimeout    = "MDRZA_HTTP_TIMEOUT"
	EnvLogLevel       = "MDRZA_LOG_LEVEL"
	EnvLogFormat      = "MDRZA_LOG_FORMAT"
)

// parseEnv loads the .env file (a missing file is fine) and overlays cfg
// with any variables that are set.
func parseEnv(cfg *Config, args []string) error {
	if p := flagx.Lookup(args, "e"); p != "" {
		cfg.EnvFile = p
	}

	if cfg.EnvFile != "" {
		if err := godotenv.Load(cfg.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	lookupString(&cfg.EncryptionKey, EnvEncryptionKey)
	lookupString(&cfg.DataDir, EnvDataDir)
	lookupString(&cfg.DatabaseDSN, EnvDatabaseDSN)
	lookupString(&cfg.BaseURL, EnvBaseURL)
	lookupString(&cfg.LoginPath, EnvLoginPath)
	lookupString(&cfg.SubmitPath, EnvSubmitPath)
	lookupString(&cfg.LogLevel, EnvLogLevel)
	lookupString(&cfg.LogFormat, EnvLogFormat)

	if err := lookupDuration(&cfg.PacingInterval, EnvPacingInterval); err != nil {
		return err
	}
	return lookupDuration(&cfg.HTTPTimeout, EnvHTTPTimeout)
}

func lookupString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func lookupDuration(dst *time.Duration, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}
