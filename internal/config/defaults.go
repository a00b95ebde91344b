package config

import "time"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/sakuin/data/records.db"
	}
	if cfg.Storage.IndexDir == "" {
		cfg.Storage.IndexDir = "/usr/local/var/sakuin/data/indices"
	}
	if cfg.Index.PageSize == 0 {
		cfg.Index.PageSize = 1000
	}
	if cfg.Index.FlushEvery == 0 {
		cfg.Index.FlushEvery = 1000
	}
	if cfg.Index.StemLang == "" {
		cfg.Index.StemLang = "en"
	}
	if cfg.Poll.Interval == 0 {
		cfg.Poll.Interval = Duration(10 * time.Second)
	}
	if cfg.Poll.BatchSize == 0 {
		cfg.Poll.BatchSize = 100
	}
}
