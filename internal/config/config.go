package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port string `yaml:"port"`

	// Auth for the HTTP API
	APIKey string `yaml:"api_key"`

	// Notion connection
	NotionAPIKey  string `yaml:"notion_api_key"`
	NotionBaseURL string `yaml:"notion_base_url"`
	NotionVersion string `yaml:"notion_version"`

	// Pages
	MainPageID    string `yaml:"main_page_id"`
	BacklogPageID string `yaml:"backlog_page_id"`

	// Databases; empty disables the matching operations
	ApplicationsDBID string `yaml:"applications_db_id"`
	ContactsDBID     string `yaml:"contacts_db_id"`

	// Section heading terms, matched case-insensitively
	BoardHeadings  []string `yaml:"board_headings"`
	WeeklyHeadings []string `yaml:"weekly_headings"`

	// Remote calls
	RequestTimeout     time.Duration `yaml:"request_timeout"`
	MaxRetries         int           `yaml:"max_retries"`
	MaxConcurrentFetch int           `yaml:"max_concurrent_fetch"`
	ProxyURL           string        `yaml:"proxy_url"`

	// Move journal; empty disables it
	JournalPath string `yaml:"journal_path"`

	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
}

// FileEnv names the environment variable holding an optional YAML config file.
const FileEnv = "BLOCKBOARD_CONFIG"

func defaults() Config {
	return Config{
		Port:               "8091",
		NotionBaseURL:      "https://api.notion.com/v1",
		NotionVersion:      "2022-06-28",
		BoardHeadings:      []string{"to-do", "todo"},
		WeeklyHeadings:     []string{"week"},
		RequestTimeout:     15 * time.Second,
		MaxRetries:         3,
		MaxConcurrentFetch: 4,
		LogLevel:           "info",
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// BLOCKBOARD_CONFIG (if set), then environment variables.
func Load() (Config, error) {
	cfg := defaults()
	if path := os.Getenv(FileEnv); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg = Config{
		Port: envOr("PORT", cfg.Port),

		APIKey: envOr("BLOCKBOARD_API_KEY", cfg.APIKey),

		NotionAPIKey:  envOr("NOTION_API_KEY", cfg.NotionAPIKey),
		NotionBaseURL: envOr("NOTION_BASE_URL", cfg.NotionBaseURL),
		NotionVersion: envOr("NOTION_VERSION", cfg.NotionVersion),

		MainPageID:    envOr("NOTION_MAIN_PAGE_ID", cfg.MainPageID),
		BacklogPageID: envOr("NOTION_BACKLOG_PAGE_ID", cfg.BacklogPageID),

		ApplicationsDBID: envOr("NOTION_APPLICATIONS_DB_ID", cfg.ApplicationsDBID),
		ContactsDBID:     envOr("NOTION_CONTACTS_DB_ID", cfg.ContactsDBID),

		BoardHeadings:  envList("BOARD_HEADINGS", cfg.BoardHeadings),
		WeeklyHeadings: envList("WEEKLY_HEADINGS", cfg.WeeklyHeadings),

		RequestTimeout:     envDuration("REQUEST_TIMEOUT", cfg.RequestTimeout),
		MaxRetries:         envInt("MAX_RETRIES", cfg.MaxRetries),
		MaxConcurrentFetch: envInt("MAX_CONCURRENT_FETCH", cfg.MaxConcurrentFetch),
		ProxyURL:           envOr("BLOCKBOARD_PROXY", envOr("ALL_PROXY", envOr("HTTPS_PROXY", cfg.ProxyURL))),

		JournalPath: envOr("JOURNAL_PATH", cfg.JournalPath),

		LogLevel: envOr("LOG_LEVEL", cfg.LogLevel),
		LogFile:  envOr("LOG_FILE", cfg.LogFile),
	}

	d := defaults()
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = d.RequestTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.MaxConcurrentFetch <= 0 {
		cfg.MaxConcurrentFetch = d.MaxConcurrentFetch
	}
	if len(cfg.BoardHeadings) == 0 {
		cfg.BoardHeadings = d.BoardHeadings
	}
	if len(cfg.WeeklyHeadings) == 0 {
		cfg.WeeklyHeadings = d.WeeklyHeadings
	}

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks what every command needs to reach the page.
func (c Config) Validate() error {
	if c.NotionAPIKey == "" {
		return fmt.Errorf("NOTION_API_KEY is required")
	}
	if c.MainPageID == "" {
		return fmt.Errorf("NOTION_MAIN_PAGE_ID is required")
	}
	return nil
}

// ValidateServer additionally requires the HTTP API key.
func (c Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.APIKey == "" {
		return fmt.Errorf("BLOCKBOARD_API_KEY is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// envList reads a comma-separated list, dropping empty entries.
func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
