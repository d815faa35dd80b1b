package config

import "time"

// TestConfig returns a config suitable for testing
func TestConfig() *Config {
	cfg := defaultConfig()
	cfg.Backend = BackendConfig{
		BaseURL:   "http://127.0.0.1:0",
		Timeout:   5 * time.Second,
		UserAgent: "tgscope-test/1.0",
	}
	cfg.Archive = ArchiveConfig{
		Path:    ":memory:",
		Timeout: 1 * time.Second,
	}
	cfg.Importer.HTTPTimeout = 5 * time.Second
	cfg.Search.LanguagesFile = ""
	cfg.Log = LogConfig{Level: "off"}
	return cfg
}
