// Package config loads the screening service configuration from the
// environment and the trusted-source catalogue.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	envconfig "riskscan/pkg/config"
)

// Judge providers.
const (
	JudgeClaude = "claude"
	JudgeOpenAI = "openai"
	JudgeNone   = "none"
)

// Audit stores.
const (
	AuditMemory   = "memory"
	AuditSQLite   = "sqlite"
	AuditPostgres = "postgres"
)

// Config is the full service configuration.
type Config struct {
	Port     int
	LogLevel string

	// SourcesFile overrides the embedded trusted-source catalogue.
	SourcesFile string
	// FixturesFile enables the curated fixture provider (demo and tests).
	FixturesFile string
	// EntityDirectoryFile enables related-entity lookups.
	EntityDirectoryFile string

	Retrieval RetrievalConfig
	Judge     JudgeConfig
	Social    SocialConfig
	Audit     AuditConfig
	HTTP      HTTPConfig
	Watch     WatchConfig

	// TraceSampleRatio is the fraction of root spans sampled.
	TraceSampleRatio float64
}

type RetrievalConfig struct {
	NewsAPIKey         string
	NewsAPIBaseURL     string
	Timeout            time.Duration
	PageSize           int
	ElasticsearchURL   string
	ElasticsearchIndex string
	EnrichBodies       bool
	EnrichTop          int
}

type JudgeConfig struct {
	Provider     string
	APIKey       string
	Model        string
	BaseURL      string
	MaxTokens    int
	Timeout      time.Duration
	Parallelism  int
	RatePerSec   int
	BriefTimeout time.Duration
	MaxDocuments int
	BriefTopN    int
}

type SocialConfig struct {
	MastodonURL string
	Timeout     time.Duration
	MaxSignals  int
}

type AuditConfig struct {
	Store        string
	DatabaseURL  string
	SQLitePath   string
	KafkaBrokers []string
	KafkaTopic   string
}

type HTTPConfig struct {
	CORSAllowedOrigins []string
	ScanRatePerMin     int
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
}

type WatchConfig struct {
	Entities          []string
	SlackWebhookURL   string
	DiscordWebhookURL string
}

// Load reads the configuration from the environment and validates it.
// Malformed numbers and durations fall back to their defaults with a
// warning; inconsistent settings are an error.
func Load() (*Config, error) {
	cfg := &Config{
		Port:                envconfig.GetEnvInt("PORT", 8080),
		LogLevel:            envconfig.GetEnvString("LOG_LEVEL", "info"),
		SourcesFile:         envconfig.GetEnvString("SOURCES_FILE", ""),
		FixturesFile:        envconfig.GetEnvString("FIXTURES_FILE", ""),
		EntityDirectoryFile: envconfig.GetEnvString("ENTITY_DIRECTORY_FILE", ""),
		Retrieval: RetrievalConfig{
			NewsAPIKey:         envconfig.GetEnvString("NEWSAPI_KEY", ""),
			NewsAPIBaseURL:     envconfig.GetEnvString("NEWSAPI_BASE_URL", "https://newsapi.org"),
			Timeout:            envconfig.GetEnvDuration("RETRIEVAL_TIMEOUT", 4*time.Second),
			PageSize:           envconfig.GetEnvInt("RETRIEVAL_PAGE_SIZE", 20),
			ElasticsearchURL:   envconfig.GetEnvString("ELASTICSEARCH_URL", ""),
			ElasticsearchIndex: envconfig.GetEnvString("ELASTICSEARCH_INDEX", "adverse-media-archive"),
			EnrichBodies:       envconfig.GetEnvBool("ENRICH_BODIES", false),
			EnrichTop:          envconfig.GetEnvInt("ENRICH_TOP", 3),
		},
		Judge: JudgeConfig{
			Provider:     strings.ToLower(envconfig.GetEnvString("JUDGE_PROVIDER", "")),
			Model:        envconfig.GetEnvString("JUDGE_MODEL", ""),
			BaseURL:      envconfig.GetEnvString("JUDGE_BASE_URL", ""),
			MaxTokens:    envconfig.GetEnvInt("JUDGE_MAX_TOKENS", 1024),
			Timeout:      envconfig.GetEnvDuration("JUDGE_TIMEOUT", 6*time.Second),
			Parallelism:  envconfig.GetEnvInt("JUDGE_PARALLELISM", 5),
			RatePerSec:   envconfig.GetEnvInt("JUDGE_RATE_PER_SEC", 5),
			BriefTimeout: envconfig.GetEnvDuration("BRIEF_TIMEOUT", 8*time.Second),
			MaxDocuments: envconfig.GetEnvInt("CLASSIFY_MAX_DOCUMENTS", 12),
			BriefTopN:    envconfig.GetEnvInt("BRIEF_TOP_N", 5),
		},
		Social: SocialConfig{
			MastodonURL: envconfig.GetEnvString("SOCIAL_MASTODON_URL", ""),
			Timeout:     envconfig.GetEnvDuration("SOCIAL_TIMEOUT", 3*time.Second),
			MaxSignals:  envconfig.GetEnvInt("SOCIAL_MAX_SIGNALS", 6),
		},
		Audit: AuditConfig{
			Store:        strings.ToLower(envconfig.GetEnvString("AUDIT_STORE", AuditMemory)),
			DatabaseURL:  envconfig.GetEnvString("DATABASE_URL", ""),
			SQLitePath:   envconfig.GetEnvString("SQLITE_PATH", "riskscan.db"),
			KafkaBrokers: envconfig.GetEnvStringList("KAFKA_BROKERS", nil),
			KafkaTopic:   envconfig.GetEnvString("KAFKA_AUDIT_TOPIC", "riskscan.audit"),
		},
		HTTP: HTTPConfig{
			CORSAllowedOrigins: envconfig.GetEnvStringList("CORS_ALLOWED_ORIGINS", nil),
			ScanRatePerMin:     envconfig.GetEnvInt("SCAN_RATE_PER_MIN", 30),
			ReadTimeout:        envconfig.GetEnvDuration("HTTP_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:       envconfig.GetEnvDuration("HTTP_WRITE_TIMEOUT", 60*time.Second),
		},
		Watch: WatchConfig{
			Entities:          envconfig.GetEnvStringList("WATCHLIST", nil),
			SlackWebhookURL:   envconfig.GetEnvString("SLACK_WEBHOOK_URL", ""),
			DiscordWebhookURL: envconfig.GetEnvString("DISCORD_WEBHOOK_URL", ""),
		},
		TraceSampleRatio: float64(envconfig.GetEnvInt("TRACE_SAMPLE_PERCENT", 100)) / 100,
	}
	cfg.resolveJudge(
		envconfig.GetEnvString("ANTHROPIC_API_KEY", ""),
		envconfig.GetEnvString("OPENAI_API_KEY", ""),
	)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// resolveJudge picks the provider when JUDGE_PROVIDER is unset, preferring
// whichever key is present, and attaches the matching key.
func (c *Config) resolveJudge(anthropicKey, openAIKey string) {
	if c.Judge.Provider == "" {
		switch {
		case anthropicKey != "":
			c.Judge.Provider = JudgeClaude
		case openAIKey != "":
			c.Judge.Provider = JudgeOpenAI
		default:
			c.Judge.Provider = JudgeNone
		}
	}
	switch c.Judge.Provider {
	case JudgeClaude:
		c.Judge.APIKey = anthropicKey
	case JudgeOpenAI:
		c.Judge.APIKey = openAIKey
	}
}

// Validate collects every configuration error.
func (c *Config) Validate() error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}
	if err := envconfig.ValidatePositiveDuration(c.Retrieval.Timeout); err != nil {
		errs = append(errs, fmt.Errorf("RETRIEVAL_TIMEOUT: %w", err))
	}
	if c.Retrieval.PageSize < 1 || c.Retrieval.PageSize > 100 {
		errs = append(errs, fmt.Errorf("RETRIEVAL_PAGE_SIZE must be between 1 and 100, got %d", c.Retrieval.PageSize))
	}

	switch c.Judge.Provider {
	case JudgeClaude, JudgeOpenAI:
		if c.Judge.APIKey == "" {
			errs = append(errs, fmt.Errorf("JUDGE_PROVIDER=%s requires an API key", c.Judge.Provider))
		}
	case JudgeNone:
	default:
		errs = append(errs, fmt.Errorf("JUDGE_PROVIDER must be claude, openai or none, got %q", c.Judge.Provider))
	}
	if err := envconfig.ValidatePositiveDuration(c.Judge.Timeout); err != nil {
		errs = append(errs, fmt.Errorf("JUDGE_TIMEOUT: %w", err))
	}
	if err := envconfig.ValidatePositiveDuration(c.Judge.BriefTimeout); err != nil {
		errs = append(errs, fmt.Errorf("BRIEF_TIMEOUT: %w", err))
	}
	if c.Judge.Parallelism < 1 || c.Judge.Parallelism > 50 {
		errs = append(errs, fmt.Errorf("JUDGE_PARALLELISM must be between 1 and 50, got %d", c.Judge.Parallelism))
	}
	if c.Judge.RatePerSec < 1 {
		errs = append(errs, fmt.Errorf("JUDGE_RATE_PER_SEC must be positive, got %d", c.Judge.RatePerSec))
	}
	if c.Judge.MaxDocuments < 1 {
		errs = append(errs, fmt.Errorf("CLASSIFY_MAX_DOCUMENTS must be positive, got %d", c.Judge.MaxDocuments))
	}
	if c.Judge.BriefTopN < 1 {
		errs = append(errs, fmt.Errorf("BRIEF_TOP_N must be positive, got %d", c.Judge.BriefTopN))
	}

	switch c.Audit.Store {
	case AuditMemory:
	case AuditSQLite:
		if c.Audit.SQLitePath == "" {
			errs = append(errs, errors.New("AUDIT_STORE=sqlite requires SQLITE_PATH"))
		}
	case AuditPostgres:
		if c.Audit.DatabaseURL == "" {
			errs = append(errs, errors.New("AUDIT_STORE=postgres requires DATABASE_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("AUDIT_STORE must be memory, sqlite or postgres, got %q", c.Audit.Store))
	}
	if len(c.Audit.KafkaBrokers) > 0 && c.Audit.KafkaTopic == "" {
		errs = append(errs, errors.New("KAFKA_AUDIT_TOPIC is required when KAFKA_BROKERS is set"))
	}

	if c.HTTP.ScanRatePerMin < 1 {
		errs = append(errs, fmt.Errorf("SCAN_RATE_PER_MIN must be positive, got %d", c.HTTP.ScanRatePerMin))
	}
	if c.TraceSampleRatio < 0 || c.TraceSampleRatio > 1 {
		errs = append(errs, fmt.Errorf("TRACE_SAMPLE_PERCENT must be between 0 and 100"))
	}

	return errors.Join(errs...)
}
