package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	SEC        SECConfig        `yaml:"sec" mapstructure:"sec"`
	Perplexity PerplexityConfig `yaml:"perplexity" mapstructure:"perplexity"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Clay       ClayConfig       `yaml:"clay" mapstructure:"clay"`
	Notion     NotionConfig     `yaml:"notion" mapstructure:"notion"`
	Google     GoogleConfig     `yaml:"google" mapstructure:"google"`
	Dedup      DedupConfig      `yaml:"dedup" mapstructure:"dedup"`
	Enrich     EnrichConfig     `yaml:"enrich" mapstructure:"enrich"`
	Retry      RetryConfig      `yaml:"retry" mapstructure:"retry"`
	Circuit    CircuitConfig    `yaml:"circuit" mapstructure:"circuit"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Pricing    PricingConfig    `yaml:"pricing" mapstructure:"pricing"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// SECConfig configures the Form D filing search.
type SECConfig struct {
	Key          string `yaml:"key" mapstructure:"key"`
	BaseURL      string `yaml:"base_url" mapstructure:"base_url"`
	PageSize     int    `yaml:"page_size" mapstructure:"page_size"`
	LookbackDays int    `yaml:"lookback_days" mapstructure:"lookback_days"`
	DelayMs      int    `yaml:"delay_ms" mapstructure:"delay_ms"`
}

// PerplexityConfig holds Perplexity API settings.
type PerplexityConfig struct {
	Key         string  `yaml:"key" mapstructure:"key"`
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	Model       string  `yaml:"model" mapstructure:"model"`
	DelayMs     int     `yaml:"delay_ms" mapstructure:"delay_ms"`
	MaxTokens   int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
}

// AnthropicConfig holds Anthropic API settings. JSONRepair enables the
// fallback that asks Claude to reformat unparseable news answers.
type AnthropicConfig struct {
	Key        string `yaml:"key" mapstructure:"key"`
	Model      string `yaml:"model" mapstructure:"model"`
	JSONRepair bool   `yaml:"json_repair" mapstructure:"json_repair"`
}

// GoogleConfig holds Google Places settings. An empty Key disables the
// Places website fallback.
type GoogleConfig struct {
	Key        string  `yaml:"key" mapstructure:"key"`
	MatchScore float64 `yaml:"match_score" mapstructure:"match_score"`
}

// ClayConfig holds Clay webhook settings.
type ClayConfig struct {
	WebhookURL  string `yaml:"webhook_url" mapstructure:"webhook_url"`
	BatchSize   int    `yaml:"batch_size" mapstructure:"batch_size"`
	DelayMs     int    `yaml:"delay_ms" mapstructure:"delay_ms"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// NotionConfig holds Notion API credentials and the target database.
type NotionConfig struct {
	Token      string `yaml:"token" mapstructure:"token"`
	DatabaseID string `yaml:"database_id" mapstructure:"database_id"`
}

// DedupConfig configures the deduplication engine.
type DedupConfig struct {
	Threshold float64 `yaml:"threshold" mapstructure:"threshold"`
}

// EnrichConfig configures website enrichment.
type EnrichConfig struct {
	MaxLookups int `yaml:"max_lookups" mapstructure:"max_lookups"`
}

// RetryConfig configures retry behavior for outbound calls.
type RetryConfig struct {
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	Multiplier       float64 `yaml:"multiplier" mapstructure:"multiplier"`
	JitterFraction   float64 `yaml:"jitter_fraction" mapstructure:"jitter_fraction"`
}

// CircuitConfig configures per-service circuit breakers.
type CircuitConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// StoreConfig configures the export database.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// PricingConfig holds per-provider pricing rates.
type PricingConfig struct {
	Anthropic  map[string]ModelPricing `yaml:"anthropic" mapstructure:"anthropic"`
	Perplexity PerplexityPricing       `yaml:"perplexity" mapstructure:"perplexity"`
}

// ModelPricing holds per-model token pricing (USD per million tokens).
type ModelPricing struct {
	Input  float64 `yaml:"input" mapstructure:"input"`
	Output float64 `yaml:"output" mapstructure:"output"`
}

// PerplexityPricing holds Perplexity pricing.
type PerplexityPricing struct {
	PerQuery float64 `yaml:"per_query" mapstructure:"per_query"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// MonitoringConfig configures end-of-run alerts. An empty WebhookURL
// disables sending; a zero CostThresholdUSD disables the cost check.
type MonitoringConfig struct {
	WebhookURL           string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	FailureRateThreshold float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
	CostThresholdUSD     float64 `yaml:"cost_threshold_usd" mapstructure:"cost_threshold_usd"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FUNDING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("sec.key", "")
	v.SetDefault("sec.base_url", "https://api.sec-api.io")
	v.SetDefault("sec.page_size", 50)
	v.SetDefault("sec.lookback_days", 30)
	v.SetDefault("sec.delay_ms", 500)
	v.SetDefault("perplexity.key", "")
	v.SetDefault("perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("perplexity.model", "sonar")
	v.SetDefault("perplexity.delay_ms", 1000)
	v.SetDefault("perplexity.max_tokens", 4000)
	v.SetDefault("perplexity.temperature", 0.1)
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.json_repair", false)
	v.SetDefault("clay.webhook_url", "")
	v.SetDefault("clay.batch_size", 1)
	v.SetDefault("clay.delay_ms", 200)
	v.SetDefault("clay.timeout_secs", 30)
	v.SetDefault("notion.token", "")
	v.SetDefault("notion.database_id", "")
	v.SetDefault("google.key", "")
	v.SetDefault("google.match_score", 85.0)
	v.SetDefault("dedup.threshold", 85.0)
	v.SetDefault("enrich.max_lookups", 50)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 2000)
	v.SetDefault("retry.max_backoff_ms", 30000)
	v.SetDefault("retry.multiplier", 2.0)
	v.SetDefault("retry.jitter_fraction", 0.0)
	v.SetDefault("circuit.failure_threshold", 5)
	v.SetDefault("circuit.reset_timeout_secs", 60)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("monitoring.webhook_url", "")
	v.SetDefault("monitoring.failure_rate_threshold", 0.10)
	v.SetDefault("monitoring.cost_threshold_usd", 0.0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("pricing.perplexity.per_query", 0.005)
	v.SetDefault("pricing.anthropic", map[string]any{
		"claude-haiku-4-5-20251001": map[string]any{"input": 1.0, "output": 5.0},
	})

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Requirement names a stage whose credentials Validate must check.
type Requirement string

// Stages that carry credential requirements.
const (
	NeedSEC    Requirement = "sec"
	NeedNews   Requirement = "news"
	NeedEnrich Requirement = "enrich"
	NeedClay   Requirement = "clay"
	NeedNotion Requirement = "notion"
	NeedRepair Requirement = "repair"
	NeedStore  Requirement = "store"
	NeedServe  Requirement = "serve"
)

// Validate checks that the settings each requested stage depends on are
// present. All problems are reported together.
func (c *Config) Validate(needs ...Requirement) error {
	var errs []string

	if c.Dedup.Threshold < 0 || c.Dedup.Threshold > 100 {
		errs = append(errs, fmt.Sprintf("dedup.threshold must be between 0 and 100 (got %g)", c.Dedup.Threshold))
	}
	if c.Clay.BatchSize < 1 {
		errs = append(errs, fmt.Sprintf("clay.batch_size must be >= 1 (got %d)", c.Clay.BatchSize))
	}

	perplexityChecked := false
	for _, need := range needs {
		switch need {
		case NeedSEC:
			if c.SEC.Key == "" {
				errs = append(errs, "sec.key is required")
			}
		case NeedNews, NeedEnrich:
			if c.Perplexity.Key == "" && !perplexityChecked {
				errs = append(errs, "perplexity.key is required")
			}
			perplexityChecked = true
		case NeedClay:
			if c.Clay.WebhookURL == "" {
				errs = append(errs, "clay.webhook_url is required")
			}
		case NeedNotion:
			if c.Notion.Token == "" {
				errs = append(errs, "notion.token is required")
			}
			if c.Notion.DatabaseID == "" {
				errs = append(errs, "notion.database_id is required")
			}
		case NeedRepair:
			if c.Anthropic.Key == "" {
				errs = append(errs, "anthropic.key is required")
			}
		case NeedStore:
			switch c.Store.Driver {
			case "sqlite":
			case "postgres":
				if c.Store.DatabaseURL == "" {
					errs = append(errs, "store.database_url is required for postgres")
				}
			default:
				errs = append(errs, fmt.Sprintf("store.driver must be sqlite or postgres (got %q)", c.Store.Driver))
			}
		case NeedServe:
			if c.Server.Port <= 0 {
				errs = append(errs, "server.port must be > 0")
			}
		default:
			return eris.Errorf("config: unknown requirement %q", need)
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
