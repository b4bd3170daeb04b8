package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigDir      = ".spacetraveling"
	DefaultConfigFile     = "config.yaml"
	DefaultDocumentType   = "posts"
	DefaultPageSize       = 20
	MaxPageSize           = 100
	DefaultOrderings      = "[document.first_publication_date desc]"
	DefaultTimeout        = 30 * time.Second
	DefaultMaxRetries     = 3
	DefaultRateLimit      = 100 * time.Millisecond
	DefaultSiteTitle      = "spacetraveling"
	DefaultLocale         = "pt-BR"
	DefaultOutputDir      = "public"
	DefaultWordsPerMinute = 200
	DefaultRevalidate     = 30 * time.Minute
	DefaultCacheSize      = 256
	DefaultServerAddr     = ":3000"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
)

// Duration wraps time.Duration for YAML unmarshaling from strings like "30m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

type Config struct {
	CMS    CMSConfig    `yaml:"cms"`
	Site   SiteConfig   `yaml:"site"`
	Render RenderConfig `yaml:"render"`
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
}

type CMSConfig struct {
	Endpoint       string   `yaml:"endpoint"`
	AccessTokenEnv string   `yaml:"access_token_env"`
	DocumentType   string   `yaml:"document_type"`
	PageSize       int      `yaml:"page_size"`
	Orderings      string   `yaml:"orderings"`
	Timeout        Duration `yaml:"timeout"`
	MaxRetries     int      `yaml:"max_retries"`
	RateLimit      Duration `yaml:"rate_limit"`

	// Resolved from env var at load time.
	AccessToken string `yaml:"-"`
}

type SiteConfig struct {
	Title          string `yaml:"title"`
	Locale         string `yaml:"locale"`
	BaseURL        string `yaml:"base_url"`
	OutputDir      string `yaml:"output_dir"`
	TemplatesDir   string `yaml:"templates_dir"`
	WordsPerMinute int    `yaml:"words_per_minute"`
}

type RenderConfig struct {
	Revalidate Duration `yaml:"revalidate"`
	CacheSize  int      `yaml:"cache_size"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads config.yaml from dir, applies defaults, resolves env vars, and validates.
func Load(dir string) (*Config, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("config dir is required")
	}

	path := filepath.Join(dir, DefaultConfigFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(&cfg)
	resolveEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.CMS.DocumentType == "" {
		cfg.CMS.DocumentType = DefaultDocumentType
	}
	if cfg.CMS.PageSize == 0 {
		cfg.CMS.PageSize = DefaultPageSize
	}
	if cfg.CMS.Orderings == "" {
		cfg.CMS.Orderings = DefaultOrderings
	}
	if cfg.CMS.Timeout.Duration == 0 {
		cfg.CMS.Timeout.Duration = DefaultTimeout
	}
	if cfg.CMS.MaxRetries == 0 {
		cfg.CMS.MaxRetries = DefaultMaxRetries
	}
	if cfg.CMS.RateLimit.Duration == 0 {
		cfg.CMS.RateLimit.Duration = DefaultRateLimit
	}
	if cfg.Site.Title == "" {
		cfg.Site.Title = DefaultSiteTitle
	}
	if cfg.Site.Locale == "" {
		cfg.Site.Locale = DefaultLocale
	}
	if cfg.Site.OutputDir == "" {
		cfg.Site.OutputDir = DefaultOutputDir
	}
	if cfg.Site.WordsPerMinute == 0 {
		cfg.Site.WordsPerMinute = DefaultWordsPerMinute
	}
	if cfg.Render.Revalidate.Duration == 0 {
		cfg.Render.Revalidate.Duration = DefaultRevalidate
	}
	if cfg.Render.CacheSize == 0 {
		cfg.Render.CacheSize = DefaultCacheSize
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = DefaultServerAddr
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}

func resolveEnv(cfg *Config) {
	if cfg.CMS.AccessTokenEnv != "" {
		cfg.CMS.AccessToken = os.Getenv(cfg.CMS.AccessTokenEnv)
	}
}

func validate(cfg *Config) error {
	if strings.TrimSpace(cfg.CMS.Endpoint) == "" {
		return errors.New("cms.endpoint: required")
	}
	u, err := url.Parse(cfg.CMS.Endpoint)
	if err != nil {
		return fmt.Errorf("cms.endpoint: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("cms.endpoint: %q is not an http(s) URL", cfg.CMS.Endpoint)
	}

	if cfg.CMS.PageSize < 1 || cfg.CMS.PageSize > MaxPageSize {
		return fmt.Errorf("cms.page_size: %d out of range 1..%d", cfg.CMS.PageSize, MaxPageSize)
	}
	if cfg.CMS.MaxRetries < 0 {
		return fmt.Errorf("cms.max_retries: %d must not be negative", cfg.CMS.MaxRetries)
	}
	if cfg.CMS.Timeout.Duration < 0 || cfg.CMS.RateLimit.Duration < 0 {
		return errors.New("cms: timeout and rate_limit must not be negative")
	}

	if cfg.Site.WordsPerMinute < 1 {
		return fmt.Errorf("site.words_per_minute: %d must be positive", cfg.Site.WordsPerMinute)
	}
	if cfg.Render.Revalidate.Duration < 0 {
		return errors.New("render.revalidate: must not be negative")
	}
	if cfg.Render.CacheSize < 1 {
		return fmt.Errorf("render.cache_size: %d must be positive", cfg.Render.CacheSize)
	}

	switch cfg.Log.Format {
	case "text", "json":
		// valid
	default:
		return fmt.Errorf("log.format: unknown format %q (want text or json)", cfg.Log.Format)
	}

	return nil
}
