package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/tailscale/hujson"
)

// Config captures everything shelf reads at start-up.
type Config struct {
	APIURL          string
	RequestTimeout  time.Duration
	PageSize        int
	SearchDebounce  time.Duration
	StaleAfter      time.Duration
	EvictAfter      time.Duration
	RevalidateEvery time.Duration
	LogFile         string
	CredentialsFile string

	// Source is the file the values came from, empty when only defaults and
	// the environment were used.
	Source string
}

const (
	defaultConfigPath      = "~/.config/shelf/config.toml"
	defaultAPIURL          = "http://127.0.0.1:5000/api"
	defaultRequestTimeout  = 10 * time.Second
	defaultPageSize        = 10
	defaultSearchDebounce  = 300 * time.Millisecond
	defaultStaleAfter      = 5 * time.Minute
	defaultEvictAfter      = 10 * time.Minute
	defaultRevalidateEvery = 30 * time.Second
	defaultLogFile         = "~/.local/state/shelf/shelf.log"
	defaultCredentialsFile = "~/.config/shelf/credentials"

	envPrefix = "SHELF"
)

// fileConfig mirrors the on-disk keys. Durations are strings like "300ms".
type fileConfig struct {
	APIURL          string `toml:"api_url" json:"api_url"`
	RequestTimeout  string `toml:"request_timeout" json:"request_timeout"`
	PageSize        int    `toml:"page_size" json:"page_size"`
	SearchDebounce  string `toml:"search_debounce" json:"search_debounce"`
	StaleAfter      string `toml:"stale_after" json:"stale_after"`
	EvictAfter      string `toml:"evict_after" json:"evict_after"`
	RevalidateEvery string `toml:"revalidate_every" json:"revalidate_every"`
	LogFile         string `toml:"log_file" json:"log_file"`
	CredentialsFile string `toml:"credentials_file" json:"credentials_file"`
}

// envConfig holds SHELF_* overrides. Zero values leave the file value alone.
type envConfig struct {
	APIURL          string        `envconfig:"API_URL"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT"`
	PageSize        int           `envconfig:"PAGE_SIZE"`
	SearchDebounce  time.Duration `envconfig:"SEARCH_DEBOUNCE"`
	StaleAfter      time.Duration `envconfig:"STALE_AFTER"`
	EvictAfter      time.Duration `envconfig:"EVICT_AFTER"`
	RevalidateEvery time.Duration `envconfig:"REVALIDATE_EVERY"`
	LogFile         string        `envconfig:"LOG_FILE"`
	CredentialsFile string        `envconfig:"CREDENTIALS_FILE"`
}

// Default returns the built-in configuration with paths expanded.
func Default() Config {
	return Config{
		APIURL:          defaultAPIURL,
		RequestTimeout:  defaultRequestTimeout,
		PageSize:        defaultPageSize,
		SearchDebounce:  defaultSearchDebounce,
		StaleAfter:      defaultStaleAfter,
		EvictAfter:      defaultEvictAfter,
		RevalidateEvery: defaultRevalidateEvery,
		LogFile:         mustExpand(defaultLogFile),
		CredentialsFile: mustExpand(defaultCredentialsFile),
	}
}

// Load reads the config file at path (or the default location), then applies
// a .env file from the working directory and SHELF_* variables. A missing
// config file is not an error.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	raw, found, err := readFile(resolved)
	if err != nil {
		return Config{}, err
	}
	if found {
		if err := cfg.apply(raw); err != nil {
			return Config{}, fmt.Errorf("config %s: %w", resolved, err)
		}
		cfg.Source = resolved
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	var env envConfig
	if err := envconfig.Process(envPrefix, &env); err != nil {
		return Config{}, fmt.Errorf("environment: %w", err)
	}
	cfg.override(env)

	return cfg, cfg.validate()
}

func readFile(path string) (fileConfig, bool, error) {
	var raw fileConfig

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return raw, false, nil
		}
		return raw, false, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return raw, false, fmt.Errorf("read config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		standardized, err := hujson.Standardize(data)
		if err != nil {
			return raw, false, fmt.Errorf("parse config: %w", err)
		}
		if err := json.Unmarshal(standardized, &raw); err != nil {
			return raw, false, fmt.Errorf("parse config: %w", err)
		}
	default:
		if err := toml.Unmarshal(data, &raw); err != nil {
			return raw, false, fmt.Errorf("parse config: %w", err)
		}
	}
	return raw, true, nil
}

func (c *Config) apply(raw fileConfig) error {
	if v := strings.TrimSpace(raw.APIURL); v != "" {
		c.APIURL = v
	}
	if raw.PageSize > 0 {
		c.PageSize = raw.PageSize
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		c.LogFile = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.CredentialsFile); v != "" {
		c.CredentialsFile = mustExpand(v)
	}

	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"request_timeout", raw.RequestTimeout, &c.RequestTimeout},
		{"search_debounce", raw.SearchDebounce, &c.SearchDebounce},
		{"stale_after", raw.StaleAfter, &c.StaleAfter},
		{"evict_after", raw.EvictAfter, &c.EvictAfter},
		{"revalidate_every", raw.RevalidateEvery, &c.RevalidateEvery},
	}
	for _, d := range durations {
		v := strings.TrimSpace(d.raw)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
		*d.dst = parsed
	}
	return nil
}

func (c *Config) override(env envConfig) {
	if env.APIURL != "" {
		c.APIURL = env.APIURL
	}
	if env.RequestTimeout > 0 {
		c.RequestTimeout = env.RequestTimeout
	}
	if env.PageSize > 0 {
		c.PageSize = env.PageSize
	}
	if env.SearchDebounce > 0 {
		c.SearchDebounce = env.SearchDebounce
	}
	if env.StaleAfter > 0 {
		c.StaleAfter = env.StaleAfter
	}
	if env.EvictAfter > 0 {
		c.EvictAfter = env.EvictAfter
	}
	if env.RevalidateEvery > 0 {
		c.RevalidateEvery = env.RevalidateEvery
	}
	if env.LogFile != "" {
		c.LogFile = mustExpand(env.LogFile)
	}
	if env.CredentialsFile != "" {
		c.CredentialsFile = mustExpand(env.CredentialsFile)
	}
}

func (c Config) validate() error {
	for _, d := range []struct {
		key string
		val time.Duration
	}{
		{"request_timeout", c.RequestTimeout},
		{"search_debounce", c.SearchDebounce},
		{"stale_after", c.StaleAfter},
		{"evict_after", c.EvictAfter},
		{"revalidate_every", c.RevalidateEvery},
	} {
		if d.val <= 0 {
			return fmt.Errorf("%s must be positive, got %s", d.key, d.val)
		}
	}
	if c.EvictAfter < c.StaleAfter {
		return fmt.Errorf("evict_after (%s) must not be shorter than stale_after (%s)", c.EvictAfter, c.StaleAfter)
	}
	return nil
}

// ExpandPath resolves a leading ~ and makes path absolute.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
