package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pders01/tgscope/internal/validation"
)

type Config struct {
	Backend  BackendConfig  `mapstructure:"backend"`
	Search   SearchConfig   `mapstructure:"search"`
	Server   ServerConfig   `mapstructure:"server"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	Importer ImporterConfig `mapstructure:"importer"`
	UI       UIConfig       `mapstructure:"ui"`
	Keys     KeyConfig      `mapstructure:"keys"`
	Log      LogConfig      `mapstructure:"log"`
}

// BackendConfig points the client at the /search and /translate service.
type BackendConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

type SearchConfig struct {
	MaxVisiblePages  int      `mapstructure:"max_visible_pages"`
	DefaultLanguages []string `mapstructure:"default_languages"`
	LanguagesFile    string   `mapstructure:"languages_file"`
}

// ServerConfig configures `tgscope serve`.
type ServerConfig struct {
	Addr             string        `mapstructure:"addr"`
	ResultsPerPage   int           `mapstructure:"results_per_page"`
	PerLanguageLimit int           `mapstructure:"per_language_limit"`
	TranslateURL     string        `mapstructure:"translate_url"`
	TranslateTimeout time.Duration `mapstructure:"translate_timeout"`
}

type ArchiveConfig struct {
	Path    string        `mapstructure:"path"`
	Index   string        `mapstructure:"index"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type ImporterConfig struct {
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
	UserAgent   string        `mapstructure:"user_agent"`
}

type UIConfig struct {
	Colors  UIColors      `mapstructure:"colors"`
	Results ResultsConfig `mapstructure:"results"`
	Opener  string        `mapstructure:"opener"`
}

type UIColors struct {
	Primary    string `mapstructure:"primary"`
	Secondary  string `mapstructure:"secondary"`
	Accent     string `mapstructure:"accent"`
	Background string `mapstructure:"background"`
	Surface    string `mapstructure:"surface"`
	Text       string `mapstructure:"text"`
	Muted      string `mapstructure:"muted"`
	Error      string `mapstructure:"error"`
	Success    string `mapstructure:"success"`
}

type ResultsConfig struct {
	MaxPreviewLength int `mapstructure:"max_preview_length"`
	WordWrapMaxWidth int `mapstructure:"word_wrap_max_width"`
	WordWrapMinWidth int `mapstructure:"word_wrap_min_width"`
}

type KeyConfig struct {
	Modifier string      `mapstructure:"modifier"`
	Bindings KeyBindings `mapstructure:"bindings"`
}

type KeyBindings struct {
	Quit      string `mapstructure:"quit"`
	Search    string `mapstructure:"search"`
	Languages string `mapstructure:"languages"`
	OpenPost  string `mapstructure:"open_post"`
	FirstPage string `mapstructure:"first_page"`
	LastPage  string `mapstructure:"last_page"`
	Back      string `mapstructure:"back"`
	Help      string `mapstructure:"help"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	Path  string `mapstructure:"path"`
}

func defaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".tgscope")

	return &Config{
		Backend: BackendConfig{
			BaseURL:   "http://127.0.0.1:5000",
			Timeout:   30 * time.Second,
			UserAgent: "tgscope/1.0 (telegram archive search)",
		},
		Search: SearchConfig{
			MaxVisiblePages:  5,
			DefaultLanguages: []string{"en"},
			LanguagesFile:    filepath.Join(homeDir, ".config", "tgscope", "languages.toml"),
		},
		Server: ServerConfig{
			Addr:             "127.0.0.1:5000",
			ResultsPerPage:   10,
			PerLanguageLimit: 50,
			TranslateTimeout: 10 * time.Second,
		},
		Archive: ArchiveConfig{
			Path:    filepath.Join(dataDir, "archive.db"),
			Index:   filepath.Join(dataDir, "index.bleve"),
			Timeout: 1 * time.Second,
		},
		Importer: ImporterConfig{
			HTTPTimeout: 30 * time.Second,
			UserAgent:   "tgscope/1.0 (feed importer)",
		},
		UI: UIConfig{
			Colors: UIColors{
				Primary:    "#2AABEE",
				Secondary:  "#4ECDC4",
				Accent:     "#95E1D3",
				Background: "#17212B",
				Surface:    "#232E3C",
				Text:       "#EAEAEA",
				Muted:      "#94A3B8",
				Error:      "#F87171",
				Success:    "#4ADE80",
			},
			Results: ResultsConfig{
				MaxPreviewLength: 280,
				WordWrapMaxWidth: 120,
				WordWrapMinWidth: 40,
			},
			Opener: getDefaultOpener(),
		},
		Keys: KeyConfig{
			Modifier: "ctrl",
			Bindings: KeyBindings{
				Quit:      "q",
				Search:    "s",
				Languages: "l",
				OpenPost:  "o",
				FirstPage: "home",
				LastPage:  "end",
				Back:      "esc",
				Help:      "?",
			},
		},
		Log: LogConfig{
			Level: "off",
			Path:  filepath.Join(dataDir, "tgscope.log"),
		},
	}
}

func getDefaultOpener() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "linux":
		return "xdg-open"
	case "windows":
		return "start"
	default:
		return "open"
	}
}

// DefaultPath is where Load looks when no path is given.
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "tgscope", "config.toml")
}

func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v, defaultConfig())

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(filepath.Dir(DefaultPath()))
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("TGSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Expand paths after loading
	expandPaths(&config)

	return &config, nil
}

// setDefaults registers every leaf key so partial files and env overrides
// merge with the defaults.
func setDefaults(v *viper.Viper, cfg *Config) {
	for key, value := range flatten(cfg) {
		v.SetDefault(key, value)
	}
}

func flatten(cfg *Config) map[string]any {
	return map[string]any{
		"backend.base_url":   cfg.Backend.BaseURL,
		"backend.timeout":    cfg.Backend.Timeout.String(),
		"backend.user_agent": cfg.Backend.UserAgent,

		"search.max_visible_pages": cfg.Search.MaxVisiblePages,
		"search.default_languages": cfg.Search.DefaultLanguages,
		"search.languages_file":    cfg.Search.LanguagesFile,

		"server.addr":               cfg.Server.Addr,
		"server.results_per_page":   cfg.Server.ResultsPerPage,
		"server.per_language_limit": cfg.Server.PerLanguageLimit,
		"server.translate_url":      cfg.Server.TranslateURL,
		"server.translate_timeout":  cfg.Server.TranslateTimeout.String(),

		"archive.path":    cfg.Archive.Path,
		"archive.index":   cfg.Archive.Index,
		"archive.timeout": cfg.Archive.Timeout.String(),

		"importer.http_timeout": cfg.Importer.HTTPTimeout.String(),
		"importer.user_agent":   cfg.Importer.UserAgent,

		"ui.colors.primary":              cfg.UI.Colors.Primary,
		"ui.colors.secondary":            cfg.UI.Colors.Secondary,
		"ui.colors.accent":               cfg.UI.Colors.Accent,
		"ui.colors.background":           cfg.UI.Colors.Background,
		"ui.colors.surface":              cfg.UI.Colors.Surface,
		"ui.colors.text":                 cfg.UI.Colors.Text,
		"ui.colors.muted":                cfg.UI.Colors.Muted,
		"ui.colors.error":                cfg.UI.Colors.Error,
		"ui.colors.success":              cfg.UI.Colors.Success,
		"ui.results.max_preview_length":  cfg.UI.Results.MaxPreviewLength,
		"ui.results.word_wrap_max_width": cfg.UI.Results.WordWrapMaxWidth,
		"ui.results.word_wrap_min_width": cfg.UI.Results.WordWrapMinWidth,
		"ui.opener":                      cfg.UI.Opener,

		"keys.modifier":            cfg.Keys.Modifier,
		"keys.bindings.quit":       cfg.Keys.Bindings.Quit,
		"keys.bindings.search":     cfg.Keys.Bindings.Search,
		"keys.bindings.languages":  cfg.Keys.Bindings.Languages,
		"keys.bindings.open_post":  cfg.Keys.Bindings.OpenPost,
		"keys.bindings.first_page": cfg.Keys.Bindings.FirstPage,
		"keys.bindings.last_page":  cfg.Keys.Bindings.LastPage,
		"keys.bindings.back":       cfg.Keys.Bindings.Back,
		"keys.bindings.help":       cfg.Keys.Bindings.Help,

		"log.level": cfg.Log.Level,
		"log.path":  cfg.Log.Path,
	}
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) string {
	if path == "" {
		return path
	}

	// Expand tilde
	if len(path) >= 2 && path[:2] == "~/" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}

func expandPaths(cfg *Config) {
	cfg.Archive.Path = expandPath(cfg.Archive.Path)
	cfg.Archive.Index = expandPath(cfg.Archive.Index)
	cfg.Search.LanguagesFile = expandPath(cfg.Search.LanguagesFile)
	if cfg.Log.Path != "-" {
		cfg.Log.Path = expandPath(cfg.Log.Path)
	}
}

// Validate rejects settings the client or server cannot run with and
// normalizes the backend URL.
func (c *Config) Validate() error {
	baseURL, err := validation.BackendURL(c.Backend.BaseURL)
	if err != nil {
		return fmt.Errorf("backend.base_url: %w", err)
	}
	c.Backend.BaseURL = baseURL

	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("backend.timeout must be positive, got %s", c.Backend.Timeout)
	}
	if n := c.Search.MaxVisiblePages; n < 3 || n%2 == 0 {
		return fmt.Errorf("search.max_visible_pages must be an odd number of at least 3, got %d", n)
	}
	if c.Server.ResultsPerPage < 1 {
		return fmt.Errorf("server.results_per_page must be at least 1, got %d", c.Server.ResultsPerPage)
	}
	if c.Server.PerLanguageLimit < 1 {
		return fmt.Errorf("server.per_language_limit must be at least 1, got %d", c.Server.PerLanguageLimit)
	}
	if c.Server.TranslateURL != "" {
		if _, err := validation.BackendURL(c.Server.TranslateURL); err != nil {
			return fmt.Errorf("server.translate_url: %w", err)
		}
	}
	return nil
}

func Save(config *Config, path string) error {
	v := viper.New()

	for key, value := range flatten(config) {
		v.Set(key, value)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return v.WriteConfigAs(path)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}
