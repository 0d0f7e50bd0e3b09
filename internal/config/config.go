// Package config loads the JSON configuration file authcached reads once
// at startup (spec.md §6: "Config is read once from a JSON file at startup
// (path supplied by the host)").
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Config is the full set of externally-supplied settings.
type Config struct {
	HTTPAddr string `json:"httpAddr"`
	LogLevel string `json:"logLevel"`

	Redis struct {
		Addr         string        `json:"addr"`
		Password     string        `json:"password"`
		DB           int           `json:"db"`
		DialTimeout  time.Duration `json:"dialTimeout"`
		ReadTimeout  time.Duration `json:"readTimeout"`
		WriteTimeout time.Duration `json:"writeTimeout"`
	} `json:"redis"`

	Directory struct {
		URL             string        `json:"url"`
		BindDN          string        `json:"bindDn"`
		Password        string        `json:"password"`
		ChangelogBaseDN string        `json:"changelogBaseDn"`
		DialTimeout     time.Duration `json:"dialTimeout"`
		PollInterval    time.Duration `json:"pollInterval"`
		PageSize        int           `json:"pageSize"`
	} `json:"directory"`

	// SessionTokenKeyring maps keyId -> HMAC secret (spec.md §6).
	SessionTokenKeyring map[string]string `json:"sessionTokenKeyring"`

	Housekeeping struct {
		Enabled      bool          `json:"enabled"`
		Interval     time.Duration `json:"interval"`
		ReportOnly   bool          `json:"reportOnly"`
	} `json:"housekeeping"`

	MetricsAddr string `json:"metricsAddr"`
}

// Load reads and parses the JSON file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	cfg := defaults()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

func defaults() *Config {
	cfg := &Config{
		HTTPAddr: ":8080",
		LogLevel: "info",
	}
	cfg.Redis.Addr = "127.0.0.1:6379"
	cfg.Redis.DialTimeout = 2 * time.Second
	cfg.Redis.ReadTimeout = 3 * time.Second
	cfg.Redis.WriteTimeout = 3 * time.Second
	cfg.Directory.DialTimeout = 5 * time.Second
	cfg.Directory.PollInterval = 2 * time.Second
	cfg.Directory.PageSize = 1000
	cfg.Housekeeping.Enabled = true
	cfg.Housekeeping.Interval = time.Hour
	cfg.Housekeeping.ReportOnly = true
	cfg.MetricsAddr = ":9090"
	return cfg
}
