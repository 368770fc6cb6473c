// Package config loads runtime configuration for the sync tools.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. A .env file (default ".env", override with -e) and the process
//     environment. Variables already set in the environment win over the file.
//  4. Command-line flags, which override everything else.
//
// # JSON schema
//
//	{
//	  "data_dir": "data",
//	  "database_dsn": "tours.db",
//	  "base_url": "https://www.mit-dem-rad-zur-arbeit.de",
//	  "login_path": "/bundesweit/index.php",
//	  "submit_path": "/hamburg/start.php",
//	  "pacing_interval": "250ms",
//	  "http_timeout": "30s",
//	  "log_level": "info",
//	  "log_format": "text"
//	}
//
// The encryption key is deliberately not part of the JSON schema; it comes
// from ENCRYPTION_KEY or -k only.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Config holds runtime settings shared by cmd/mdrzasync and the helper tools.
type Config struct {
	DataDir     string
	DatabaseDSN string

	BaseURL    string
	LoginPath  string
	SubmitPath string

	// EncryptionKey decrypts stored portal passwords. It is process-wide and
	// handed to the credential codec once at startup.
	EncryptionKey string

	PacingInterval time.Duration
	HTTPTimeout    time.Duration

	LogLevel  string
	LogFormat string

	EnvFile string
}

// LoadDefaults populates c with defaults matching the production portal.
func (c *Config) LoadDefaults() {
	c.DataDir = "data"
	c.DatabaseDSN = "tours.db"
	c.BaseURL = "https://www.mit-dem-rad-zur-arbeit.de"
	c.LoginPath = "/bundesweit/index.php"
	c.SubmitPath = "/hamburg/start.php"
	c.PacingInterval = 250 * time.Millisecond
	c.HTTPTimeout = 30 * time.Second
	c.LogLevel = "info"
	c.LogFormat = "text"
	c.EnvFile = ".env"
}

// Validate reports settings the sync pass cannot run without.
func (c *Config) Validate() error {
	var errs []error
	if c.EncryptionKey == "" {
		errs = append(errs, errors.New("encryption key is not set (ENCRYPTION_KEY or -k)"))
	}
	if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("invalid base url %q", c.BaseURL))
	}
	if c.PacingInterval <= 0 {
		errs = append(errs, fmt.Errorf("pacing interval must be positive, got %s", c.PacingInterval))
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, fmt.Errorf("http timeout must be positive, got %s", c.HTTPTimeout))
	}
	if c.DatabaseDSN == "" {
		errs = append(errs, errors.New("database dsn is empty"))
	}
	return errors.Join(errs...)
}

// LoadConfig builds a Config from defaults, then overlays the JSON file, the
// environment and finally the flags found in args (usually os.Args[1:]).
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg, args); err != nil {
		return nil, fmt.Errorf("json config: %w", err)
	}
	if err := parseEnv(cfg, args); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	return cfg, nil
}
