package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RateLimitConfig indicates how many requests are allowed within a given interval.
type RateLimitConfig struct {
	Requests int
	Interval time.Duration
}

// Config aggregates application-wide configuration values.
type Config struct {
	DatabaseURL      string `mapstructure:"database_url"`
	DatabaseMaxConns int32  `mapstructure:"database_max_conns"`
	Port             string `mapstructure:"port"`

	JWT       JWTConfig       `mapstructure:"jwt"`
	RateLimit RateLimitValues `mapstructure:"rate_limit"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Scoring   ScoringConfig   `mapstructure:"scoring"`
	Hunter    ProviderConfig  `mapstructure:"hunter"`
	Places    ProviderConfig  `mapstructure:"places"`
	Clearbit  ProviderConfig  `mapstructure:"clearbit"`
	Apollo    ProviderConfig  `mapstructure:"apollo"`
	Worker    WorkerConfig    `mapstructure:"worker"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	SMTP      SMTPConfig      `mapstructure:"smtp"`
	Log       LogConfig       `mapstructure:"log"`

	// RateLimitIntake is parsed from RateLimit.Intake.
	RateLimitIntake RateLimitConfig `mapstructure:"-"`
}

// JWTConfig configures operator tokens.
type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
}

// RateLimitValues holds raw <requests>/<unit> limits.
type RateLimitValues struct {
	Intake string `mapstructure:"intake"`
}

// RedisConfig configures the optional domain liveness cache.
type RedisConfig struct {
	URL            string        `mapstructure:"url"`
	DomainCacheTTL time.Duration `mapstructure:"domain_cache_ttl"`
}

// PipelineConfig tunes record processing.
type PipelineConfig struct {
	ProbeTimeout   time.Duration `mapstructure:"probe_timeout"`
	ChunkSize      int           `mapstructure:"chunk_size"`
	EnrichDelay    time.Duration `mapstructure:"enrich_delay"`
	PhoneRegion    string        `mapstructure:"phone_region"`
	NameSimilarity float64       `mapstructure:"name_similarity"`
}

// ScoringConfig overrides the industry keyword tables.
type ScoringConfig struct {
	Relevant  []string `mapstructure:"relevant"`
	HighValue []string `mapstructure:"high_value"`
}

// ProviderConfig holds credentials for one enrichment provider.
type ProviderConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// WorkerConfig points at the crawl worker.
type WorkerConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	Audience      string `mapstructure:"audience"`
	CallbackToken string `mapstructure:"callback_token"`
}

// TelegramConfig configures alert delivery through a bot.
type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	BaseURL  string `mapstructure:"base_url"`
}

// SMTPConfig configures alert delivery through a mail relay.
type SMTPConfig struct {
	Host     string   `mapstructure:"host"`
	Port     int      `mapstructure:"port"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	From     string   `mapstructure:"from"`
	To       []string `mapstructure:"to"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from an optional config.yaml and the environment.
// Nested keys map to upper-cased env names, so hunter.api_key reads
// HUNTER_API_KEY.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	rl, err := parseRateLimit(cfg.RateLimit.Intake)
	if err != nil {
		return nil, eris.Wrap(err, "config: invalid RATE_LIMIT_INTAKE value")
	}
	cfg.RateLimitIntake = rl

	if cfg.JWT.TTL <= 0 {
		cfg.JWT.TTL = 24 * time.Hour
	}
	if cfg.Pipeline.ChunkSize <= 0 {
		cfg.Pipeline.ChunkSize = 50
	}

	return &cfg, nil
}

// AutomaticEnv only resolves keys viper already knows, so every key gets a
// default here, even when it is empty.
func setDefaults(v *viper.Viper) {
	v.SetDefault("database_url", "")
	v.SetDefault("database_max_conns", 10)
	v.SetDefault("port", "8080")
	v.SetDefault("jwt.secret", "dev-secret")
	v.SetDefault("jwt.ttl", "24h")
	v.SetDefault("rate_limit.intake", "30/min")
	v.SetDefault("redis.url", "")
	v.SetDefault("redis.domain_cache_ttl", "24h")
	v.SetDefault("pipeline.probe_timeout", "5s")
	v.SetDefault("pipeline.chunk_size", 50)
	v.SetDefault("pipeline.enrich_delay", "1s")
	v.SetDefault("pipeline.phone_region", "US")
	v.SetDefault("pipeline.name_similarity", 0.8)
	v.SetDefault("scoring.relevant", []string{})
	v.SetDefault("scoring.high_value", []string{})
	v.SetDefault("hunter.api_key", "")
	v.SetDefault("hunter.base_url", "https://api.hunter.io/v2")
	v.SetDefault("places.api_key", "")
	v.SetDefault("places.base_url", "")
	v.SetDefault("clearbit.api_key", "")
	v.SetDefault("clearbit.base_url", "https://company.clearbit.com")
	v.SetDefault("apollo.api_key", "")
	v.SetDefault("apollo.base_url", "https://api.apollo.io/api/v1")
	v.SetDefault("worker.base_url", "")
	v.SetDefault("worker.audience", "")
	v.SetDefault("worker.callback_token", "")
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")
	v.SetDefault("telegram.base_url", "https://api.telegram.org")
	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "")
	v.SetDefault("smtp.to", []string{})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
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

func parseRateLimit(value string) (RateLimitConfig, error) {
	parts := strings.Split(value, "/")
	if len(parts) != 2 {
		return RateLimitConfig{}, eris.Errorf("expected format <requests>/<interval>, got %q", value)
	}

	requests, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || requests <= 0 {
		return RateLimitConfig{}, eris.Errorf("invalid request count: %v", parts[0])
	}

	unit := strings.ToLower(strings.TrimSpace(parts[1]))
	var interval time.Duration
	switch unit {
	case "s", "sec", "second", "seconds":
		interval = time.Second
	case "m", "min", "minute", "minutes":
		interval = time.Minute
	case "h", "hr", "hour", "hours":
		interval = time.Hour
	default:
		return RateLimitConfig{}, eris.Errorf("unsupported interval unit: %s", unit)
	}

	return RateLimitConfig{Requests: requests, Interval: interval}, nil
}
