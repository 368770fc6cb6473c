package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/mdrzasync/internal/flagx"
)

// parseFlags populates Config from command-line flags.
//
// Supported flags:
//
//	-c/-config string  JSON config file (consumed by parseJson)
//	-e string          .env file (consumed by parseEnv)
//	-d string          directory with the exported .txt cubes
//	-db string         SQLite database path / DSN
//	-u string          portal base URL
//	-s string          portal submission path
//	-k string          encryption key for stored portal passwords
//	-p int             pause between submissions, milliseconds
//	-t int             HTTP timeout, seconds
//	-l string          log level
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("mdrzasync", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var configPath, envFile string
	fs.StringVar(&configPath, "c", "", "path to JSON config file")
	fs.StringVar(&configPath, "config", "", "path to JSON config file")
	fs.StringVar(&envFile, "e", cfg.EnvFile, "path to .env file")

	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "directory with exported cube files")
	fs.StringVar(&cfg.DatabaseDSN, "db", cfg.DatabaseDSN, "local SQLite database")
	fs.StringVar(&cfg.BaseURL, "u", cfg.BaseURL, "portal base URL")
	fs.StringVar(&cfg.SubmitPath, "s", cfg.SubmitPath, "portal submission path")
	fs.StringVar(&cfg.EncryptionKey, "k", cfg.EncryptionKey, "encryption key for stored passwords")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug, info, warn, error)")

	pacing := fs.Int("p", int(cfg.PacingInterval.Milliseconds()), "pause between submissions (in milliseconds)")
	timeout := fs.Int("t", int(cfg.HTTPTimeout.Seconds()), "HTTP timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	// Only explicit flags override; the defaults above are rounded.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "p":
			cfg.PacingInterval = time.Duration(*pacing) * time.Millisecond
		case "t":
			cfg.HTTPTimeout = time.Duration(*timeout) * time.Second
		}
	})
	return nil
}

var flagNames = []string{"c", "config", "e", "d", "db", "u", "s", "k", "p", "t", "l"}

// FilterArgs keeps only the arguments LoadConfig understands, so tools with
// their own flags can share one command line with the config loader.
func FilterArgs(args []string) []string {
	allowed := make([]string, 0, len(flagNames)*2)
	for _, n := range flagNames {
		allowed = append(allowed, "-"+n, "--"+n)
	}
	return flagx.FilterArgs(args, allowed)
}
