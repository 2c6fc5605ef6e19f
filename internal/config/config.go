package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv     = "CARNEWSBOT_CONFIG"
	databaseDSNEnv    = "DATABASE_DSN"
	deepSeekAPIKeyEnv = "DEEPSEEK_API_KEY"
	deepSeekModelEnv  = "DEEPSEEK_MODEL"
	deepSeekEndpoint  = "DEEPSEEK_ENDPOINT"
	metricsAddrEnv    = "METRICS_ADDR"
)

// ErrMissingCredential reports an absent required credential. It is fatal
// at startup; nothing in the pipeline retries around it.
var ErrMissingCredential = errors.New("missing required credential")

// Duration wraps time.Duration so YAML values like "2h" or "90s" parse.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Enrichment modes accepted by the pipeline.
const (
	EnrichmentOff     = "off"
	EnrichmentSummary = "summary"
	EnrichmentFull    = "full"
)

// Config holds all settings required across the application.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Logging   LoggingConfig   `yaml:"logging"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Fetch     FetchConfig     `yaml:"fetch"`
	DeepSeek  DeepSeekConfig  `yaml:"deepseek"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Sources   []SourceConfig  `yaml:"sources"`
}

// DatabaseConfig describes Postgres connection details. MigrateOnStart
// is a pointer so a YAML `migrateOnStart: false` is distinguishable from
// the knob being absent.
type DatabaseConfig struct {
	DSN            string `yaml:"dsn"`
	MigrateOnStart *bool  `yaml:"migrateOnStart"`
}

// MigrateEnabled reports whether schema migrations run at startup.
// Defaults to true when the knob is not set.
func (d DatabaseConfig) MigrateEnabled() bool {
	if d.MigrateOnStart == nil {
		return true
	}
	return *d.MigrateOnStart
}

// LoggingConfig selects the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// SchedulerConfig defines when and how wide ingestion runs execute.
type SchedulerConfig struct {
	Interval Duration `yaml:"interval"`
	Workers  int      `yaml:"workers"`
}

// FetchConfig bounds outbound HTTP behaviour.
type FetchConfig struct {
	Timeout   Duration `yaml:"timeout"`
	HostDelay Duration `yaml:"hostDelay"`
}

// DeepSeekConfig defines how to contact the generative-text API.
type DeepSeekConfig struct {
	Endpoint       string   `yaml:"endpoint"`
	Model          string   `yaml:"model"`
	APIKey         string   `yaml:"apiKey"`
	Mode           string   `yaml:"mode"`
	Delay          Duration `yaml:"delay"`
	Timeout        Duration `yaml:"timeout"`
	SummaryPrompt  string   `yaml:"summaryPrompt"`
	GeneratePrompt string   `yaml:"generatePrompt"`
}

// MetricsConfig enables the optional Prometheus listener when Addr is set.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// SourceConfig describes a single news source and its extraction rules.
type SourceConfig struct {
	Name      string         `yaml:"name"`
	URL       string         `yaml:"url"`
	BaseURL   string         `yaml:"baseUrl"`
	Scanner   string         `yaml:"scanner"`
	Limit     int            `yaml:"limit"`
	Selectors SelectorConfig `yaml:"selectors"`
}

// SelectorConfig holds the named selector roles for one source.
type SelectorConfig struct {
	Container string `yaml:"container"`
	Title     string `yaml:"title"`
	Excerpt   string `yaml:"excerpt"`
	Image     string `yaml:"image"`
	Category  string `yaml:"category"`
	Link      string `yaml:"link"`
	Content   string `yaml:"content"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()

	if len(cfg.Sources) == 0 {
		cfg.Sources = defaultConfig().Sources
	}

	return cfg
}

// Validate reports fatal configuration problems. Missing credentials are
// a startup failure, never a per-request one.
func (c Config) Validate() error {
	if c.Database.DSN == "" {
		return fmt.Errorf("%w: %s", ErrMissingCredential, databaseDSNEnv)
	}

	switch c.DeepSeek.Mode {
	case EnrichmentOff:
	case EnrichmentSummary, EnrichmentFull:
		if c.DeepSeek.APIKey == "" {
			return fmt.Errorf("%w: %s", ErrMissingCredential, deepSeekAPIKeyEnv)
		}
	default:
		return fmt.Errorf("unknown enrichment mode %q", c.DeepSeek.Mode)
	}

	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(deepSeekAPIKeyEnv); v != "" {
		c.DeepSeek.APIKey = v
	}

	if v := os.Getenv(deepSeekModelEnv); v != "" {
		c.DeepSeek.Model = v
	}

	if v := os.Getenv(deepSeekEndpoint); v != "" {
		c.DeepSeek.Endpoint = v
	}

	if v := os.Getenv(metricsAddrEnv); v != "" {
		c.Metrics.Addr = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Database.DSN != "" {
		base.Database.DSN = override.Database.DSN
	}
	if override.Database.MigrateOnStart != nil {
		base.Database.MigrateOnStart = override.Database.MigrateOnStart
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.Scheduler.Interval > 0 {
		base.Scheduler.Interval = override.Scheduler.Interval
	}
	if override.Scheduler.Workers > 0 {
		base.Scheduler.Workers = override.Scheduler.Workers
	}

	if override.Fetch.Timeout > 0 {
		base.Fetch.Timeout = override.Fetch.Timeout
	}
	if override.Fetch.HostDelay > 0 {
		base.Fetch.HostDelay = override.Fetch.HostDelay
	}

	if override.DeepSeek.Endpoint != "" {
		base.DeepSeek.Endpoint = override.DeepSeek.Endpoint
	}
	if override.DeepSeek.Model != "" {
		base.DeepSeek.Model = override.DeepSeek.Model
	}
	if override.DeepSeek.APIKey != "" {
		base.DeepSeek.APIKey = override.DeepSeek.APIKey
	}
	if override.DeepSeek.Mode != "" {
		base.DeepSeek.Mode = override.DeepSeek.Mode
	}
	if override.DeepSeek.Delay > 0 {
		base.DeepSeek.Delay = override.DeepSeek.Delay
	}
	if override.DeepSeek.Timeout > 0 {
		base.DeepSeek.Timeout = override.DeepSeek.Timeout
	}
	if override.DeepSeek.SummaryPrompt != "" {
		base.DeepSeek.SummaryPrompt = override.DeepSeek.SummaryPrompt
	}
	if override.DeepSeek.GeneratePrompt != "" {
		base.DeepSeek.GeneratePrompt = override.DeepSeek.GeneratePrompt
	}

	if override.Metrics.Addr != "" {
		base.Metrics.Addr = override.Metrics.Addr
	}

	if len(override.Sources) > 0 {
		base.Sources = override.Sources
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Database: DatabaseConfig{
			DSN: "",
		},
		Logging:   LoggingConfig{Level: "info"},
		Scheduler: SchedulerConfig{Interval: Duration(6 * time.Hour), Workers: 2},
		Fetch:     FetchConfig{Timeout: Duration(15 * time.Second), HostDelay: Duration(2 * time.Second)},
		DeepSeek: DeepSeekConfig{
			Endpoint: "https://api.deepseek.com/v1/chat/completions",
			Model:    "deepseek-chat",
			Mode:     EnrichmentSummary,
			Delay:    Duration(time.Second),
			Timeout:  Duration(30 * time.Second),
			SummaryPrompt: "You are a professional automotive journalist specializing in the UK used car market. " +
				"Create a concise summary of the article in 2-3 paragraphs, focusing on market insights, " +
				"price trends, and key information for UK car buyers.",
			GeneratePrompt: "As an SEO expert and content optimizer, analyze the given content and generate optimized versions. " +
				"Respond with a JSON object containing the following fields: " +
				"title (max 60 chars), excerpt (max 160 chars), content (optimized version), " +
				"meta_title (max 60 chars), meta_description (max 160 chars), " +
				"keywords (array of 5 relevant keywords), summary (brief overview).",
		},
		Metrics: MetricsConfig{Addr: ""},
		Sources: []SourceConfig{
			{
				Name:    "Car Dealer Magazine",
				URL:     "https://cardealermagazine.co.uk/publish/category/used-cars",
				BaseURL: "https://cardealermagazine.co.uk",
				Scanner: "html",
				Limit:   7,
				Selectors: SelectorConfig{
					Container: "article.post",
					Title:     "h2.entry-title a",
					Link:      "h2.entry-title a",
					Excerpt:   ".entry-content p:first-of-type",
					Image:     ".post-thumbnail img",
					Content:   ".entry-content",
				},
			},
			{
				Name:    "AM Online",
				URL:     "https://www.am-online.com/used-cars",
				BaseURL: "https://www.am-online.com",
				Scanner: "html",
				Limit:   7,
				Selectors: SelectorConfig{
					Container: ".article-item",
					Title:     "h3 a",
					Link:      "h3 a",
					Excerpt:   ".article-intro",
					Image:     ".article-image img",
					Content:   ".article-body",
				},
			},
			{
				Name:    "Auto Express",
				URL:     "https://www.autoexpress.co.uk/used-cars",
				BaseURL: "https://www.autoexpress.co.uk",
				Scanner: "html",
				Limit:   7,
				Selectors: SelectorConfig{
					Container: "article.article",
					Title:     "h3.article__title a",
					Link:      "h3.article__title a",
					Excerpt:   ".article__excerpt",
					Image:     ".article__image img",
					Category:  ".article__category",
					Content:   ".article__body",
				},
			},
		},
	}
}
