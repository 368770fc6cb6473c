package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/mdrzasync/internal/flagx"
	"github.com/dmitrijs2005/mdrzasync/internal/timex"
)

// JsonConfig is a DTO used only for unmarshalling. Empty fields leave the
// current value untouched.
type JsonConfig struct {
	DataDir        string         `json:"data_dir"`
	DatabaseDSN    string         `json:"database_dsn"`
	BaseURL        string         `json:"base_url"`
	LoginPath      string         `json:"login_path"`
	SubmitPath     string         `json:"submit_path"`
	PacingInterval timex.Duration `json:"pacing_interval"`
	HTTPTimeout    timex.Duration `json:"http_timeout"`
	LogLevel       string         `json:"log_level"`
	LogFormat      string         `json:"log_format"`
}

func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return err
	}

	setString(&cfg.DataDir, jc.DataDir)
	setString(&cfg.DatabaseDSN, jc.DatabaseDSN)
	setString(&cfg.BaseURL, jc.BaseURL)
	setString(&cfg.LoginPath, jc.LoginPath)
	setString(&cfg.SubmitPath, jc.SubmitPath)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFormat, jc.LogFormat)
	if jc.PacingInterval.Duration > 0 {
		cfg.PacingInterval = jc.PacingInterval.Duration
	}
	if jc.HTTPTimeout.Duration > 0 {
		cfg.HTTPTimeout = jc.HTTPTimeout.Duration
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
