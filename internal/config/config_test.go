package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestGetDefaultOpener(t *testing.T) {
	expected := map[string]string{
		"darwin":  "open",
		"linux":   "xdg-open",
		"windows": "start",
	}

	opener := getDefaultOpener()

	if expectedOpener, ok := expected[runtime.GOOS]; ok {
		if opener != expectedOpener {
			t.Errorf("getDefaultOpener() = %s, want %s for %s", opener, expectedOpener, runtime.GOOS)
		}
	} else if opener != "open" {
		t.Errorf("getDefaultOpener() = %s, want 'open' for unknown OS", opener)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Backend.Timeout != 30*time.Second {
		t.Errorf("Backend.Timeout = %v, want 30s", cfg.Backend.Timeout)
	}
	if cfg.Backend.UserAgent == "" {
		t.Error("Backend.UserAgent should not be empty")
	}
	if cfg.Search.MaxVisiblePages != 5 {
		t.Errorf("Search.MaxVisiblePages = %d, want 5", cfg.Search.MaxVisiblePages)
	}
	if cfg.Server.ResultsPerPage != 10 {
		t.Errorf("Server.ResultsPerPage = %d, want 10", cfg.Server.ResultsPerPage)
	}
	if cfg.Server.PerLanguageLimit != 50 {
		t.Errorf("Server.PerLanguageLimit = %d, want 50", cfg.Server.PerLanguageLimit)
	}
	if cfg.Keys.Modifier != "ctrl" {
		t.Errorf("Keys.Modifier = %s, want 'ctrl'", cfg.Keys.Modifier)
	}
	if cfg.Keys.Bindings.Quit != "q" {
		t.Errorf("Keys.Bindings.Quit = %s, want 'q'", cfg.Keys.Bindings.Quit)
	}
	if cfg.Log.Level != "off" {
		t.Errorf("Log.Level = %s, want 'off'", cfg.Log.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad_DefaultConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg == nil {
		t.Fatal("Load() returned nil config")
	}

	if cfg.Backend.BaseURL != "http://127.0.0.1:5000" {
		t.Errorf("Backend.BaseURL = %s, want default", cfg.Backend.BaseURL)
	}
	if cfg.Importer.HTTPTimeout != 30*time.Second {
		t.Errorf("Importer.HTTPTimeout = %v, want 30s", cfg.Importer.HTTPTimeout)
	}
	if len(cfg.Search.DefaultLanguages) != 1 || cfg.Search.DefaultLanguages[0] != "en" {
		t.Errorf("Search.DefaultLanguages = %v, want [en]", cfg.Search.DefaultLanguages)
	}
}

func TestLoad_FromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "test-config.toml")
	configContent := `
[backend]
base_url = "http://search.internal:8080"
timeout = "10s"

[search]
max_visible_pages = 7
default_languages = ["en", "ru", "uk"]

[server]
per_language_limit = 20

[archive]
path = "/tmp/test-archive.db"

[ui.colors]
primary = "#FF0000"
`

	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Backend.BaseURL != "http://search.internal:8080" {
		t.Errorf("Backend.BaseURL = %s", cfg.Backend.BaseURL)
	}
	if cfg.Backend.Timeout != 10*time.Second {
		t.Errorf("Backend.Timeout = %v, want 10s", cfg.Backend.Timeout)
	}
	// Unset keys in a partially specified section keep their defaults.
	if cfg.Backend.UserAgent != defaultConfig().Backend.UserAgent {
		t.Errorf("Backend.UserAgent = %s, want default", cfg.Backend.UserAgent)
	}
	if cfg.Search.MaxVisiblePages != 7 {
		t.Errorf("Search.MaxVisiblePages = %d, want 7", cfg.Search.MaxVisiblePages)
	}
	if strings.Join(cfg.Search.DefaultLanguages, ",") != "en,ru,uk" {
		t.Errorf("Search.DefaultLanguages = %v", cfg.Search.DefaultLanguages)
	}
	if cfg.Server.PerLanguageLimit != 20 {
		t.Errorf("Server.PerLanguageLimit = %d, want 20", cfg.Server.PerLanguageLimit)
	}
	if cfg.Server.ResultsPerPage != 10 {
		t.Errorf("Server.ResultsPerPage = %d, want 10", cfg.Server.ResultsPerPage)
	}
	if cfg.Archive.Path != "/tmp/test-archive.db" {
		t.Errorf("Archive.Path = %s", cfg.Archive.Path)
	}
	if cfg.UI.Colors.Primary != "#FF0000" {
		t.Errorf("UI.Colors.Primary = %s, want '#FF0000'", cfg.UI.Colors.Primary)
	}
	if cfg.UI.Colors.Secondary != defaultConfig().UI.Colors.Secondary {
		t.Errorf("UI.Colors.Secondary = %s, want default", cfg.UI.Colors.Secondary)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("TGSCOPE_BACKEND_BASE_URL", "http://10.0.0.5:5000")
	t.Setenv("TGSCOPE_SERVER_ADDR", ":9090")

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[log]\nlevel = \"debug\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Backend.BaseURL != "http://10.0.0.5:5000" {
		t.Errorf("Backend.BaseURL = %s, want env override", cfg.Backend.BaseURL)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("Server.Addr = %s, want env override", cfg.Server.Addr)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %s, want debug", cfg.Log.Level)
	}
}

func TestLoad_ExpandsTilde(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[archive]\npath = \"~/data/archive.db\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if want := filepath.Join(home, "data", "archive.db"); cfg.Archive.Path != want {
		t.Errorf("Archive.Path = %s, want %s", cfg.Archive.Path, want)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"even max visible", func(c *Config) { c.Search.MaxVisiblePages = 6 }, "max_visible_pages"},
		{"tiny max visible", func(c *Config) { c.Search.MaxVisiblePages = 1 }, "max_visible_pages"},
		{"bad backend", func(c *Config) { c.Backend.BaseURL = "localhost:5000" }, "backend.base_url"},
		{"zero timeout", func(c *Config) { c.Backend.Timeout = 0 }, "backend.timeout"},
		{"zero page size", func(c *Config) { c.Server.ResultsPerPage = 0 }, "results_per_page"},
		{"zero language limit", func(c *Config) { c.Server.PerLanguageLimit = 0 }, "per_language_limit"},
		{"bad translate url", func(c *Config) { c.Server.TranslateURL = "ftp://x" }, "translate_url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateNormalizesBaseURL(t *testing.T) {
	cfg := defaultConfig()
	cfg.Backend.BaseURL = " http://127.0.0.1:5000/ "
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.Backend.BaseURL != "http://127.0.0.1:5000" {
		t.Errorf("Backend.BaseURL = %q", cfg.Backend.BaseURL)
	}
}

func TestSave(t *testing.T) {
	cfg := defaultConfig()
	cfg.Backend.BaseURL = "http://search.internal:9000"
	cfg.Backend.Timeout = 45 * time.Second
	cfg.Search.DefaultLanguages = []string{"fr", "de"}
	cfg.Archive.Path = "/test/archive.db"
	cfg.Keys.Modifier = "alt"

	savePath := filepath.Join(t.TempDir(), "nested", "saved-config.toml")
	if err := Save(cfg, savePath); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if _, err := os.Stat(savePath); os.IsNotExist(err) {
		t.Fatal("Save() did not create config file")
	}

	loaded, err := Load(savePath)
	if err != nil {
		t.Fatalf("Failed to load saved config: %v", err)
	}

	if loaded.Backend.BaseURL != cfg.Backend.BaseURL {
		t.Errorf("Loaded Backend.BaseURL = %s, want %s", loaded.Backend.BaseURL, cfg.Backend.BaseURL)
	}
	if loaded.Backend.Timeout != cfg.Backend.Timeout {
		t.Errorf("Loaded Backend.Timeout = %v, want %v", loaded.Backend.Timeout, cfg.Backend.Timeout)
	}
	if strings.Join(loaded.Search.DefaultLanguages, ",") != "fr,de" {
		t.Errorf("Loaded Search.DefaultLanguages = %v", loaded.Search.DefaultLanguages)
	}
	if loaded.Archive.Path != cfg.Archive.Path {
		t.Errorf("Loaded Archive.Path = %s, want %s", loaded.Archive.Path, cfg.Archive.Path)
	}
	if loaded.Keys.Modifier != cfg.Keys.Modifier {
		t.Errorf("Loaded Keys.Modifier = %s, want %s", loaded.Keys.Modifier, cfg.Keys.Modifier)
	}
}

func TestGenerateDefaultConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "generated.toml")
	if err := GenerateDefaultConfig(configPath); err != nil {
		t.Fatalf("GenerateDefaultConfig() error = %v", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatal(err)
	}
	for _, section := range []string{"[backend]", "[search]", "[server]", "[archive]", "[keys]"} {
		if !strings.Contains(string(data), section) {
			t.Errorf("generated config lacks %s section", section)
		}
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load generated config: %v", err)
	}
	if cfg.Keys.Modifier != "ctrl" {
		t.Errorf("Generated config has Keys.Modifier = %s, want 'ctrl'", cfg.Keys.Modifier)
	}
	if cfg.Search.MaxVisiblePages != 5 {
		t.Errorf("Generated config has Search.MaxVisiblePages = %d, want 5", cfg.Search.MaxVisiblePages)
	}
}

func TestTestConfig(t *testing.T) {
	cfg := TestConfig()

	if cfg == nil {
		t.Fatal("TestConfig() returned nil")
	}
	if cfg.Archive.Path != ":memory:" {
		t.Errorf("TestConfig Archive.Path = %s, want ':memory:'", cfg.Archive.Path)
	}
	if cfg.Backend.UserAgent != "tgscope-test/1.0" {
		t.Errorf("TestConfig Backend.UserAgent = %s, want 'tgscope-test/1.0'", cfg.Backend.UserAgent)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("TestConfig should validate: %v", err)
	}
}
