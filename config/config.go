package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Matching  MatchingConfig  `mapstructure:"matching"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	Workers        int      `mapstructure:"workers"` // batch resolution concurrency
	MaxBatch       int      `mapstructure:"max_batch"`
}

// CatalogConfig holds catalog store configuration
type CatalogConfig struct {
	Driver          string `mapstructure:"driver"` // "postgres" or "sqlite"
	DSN             string `mapstructure:"dsn"`
	ProductsTable   string `mapstructure:"products_table"`
	OverridesTable  string `mapstructure:"overrides_table"`
	URLCacheTable   string `mapstructure:"url_cache_table"`
	LexiconTable    string `mapstructure:"lexicon_table"`
	EnsureSchema    bool   `mapstructure:"ensure_schema"`
	RecallLimit     int    `mapstructure:"recall_limit"`
	WidenLimit      int    `mapstructure:"widen_limit"`
	MaxSearchTokens int    `mapstructure:"max_search_tokens"`
}

// CacheConfig holds URL resolution cache configuration
type CacheConfig struct {
	Type      string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL  string        `mapstructure:"redis_url"`
	Prefix    string        `mapstructure:"prefix"`
	TTL       time.Duration `mapstructure:"ttl"`
	WriteBack bool          `mapstructure:"write_back"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP  int     `mapstructure:"per_ip"` // requests per minute per client IP
	Burst  int     `mapstructure:"burst"`
	Remote float64 `mapstructure:"remote"` // resolver client requests per second
}

// ColorKeywordConfig holds color-keyword strategy thresholds
type ColorKeywordConfig struct {
	MinKeywordScore        float64 `mapstructure:"min_keyword_score"`
	FuzzyThreshold         float64 `mapstructure:"fuzzy_threshold"`
	FuzzyMargin            float64 `mapstructure:"fuzzy_margin"`
	AllowColorCodeTieBreak bool    `mapstructure:"allow_color_code_tie_break"`
}

// LexiconConfig holds lexicon-overlap strategy weights and thresholds
type LexiconConfig struct {
	MinOverlap        int     `mapstructure:"min_overlap"`
	MinScore          float64 `mapstructure:"min_score"`
	MinLead           float64 `mapstructure:"min_lead"`
	WeightL1          float64 `mapstructure:"weight_l1"`
	WeightL2          float64 `mapstructure:"weight_l2"`
	WeightColor       float64 `mapstructure:"weight_color"`
	WeightName        float64 `mapstructure:"weight_name"`
	RequireExactColor bool    `mapstructure:"require_exact_color"`
}

// GenericConfig holds generic similarity strategy weights and floors
type GenericConfig struct {
	MinScore          float64 `mapstructure:"min_score"`
	MinLead           float64 `mapstructure:"min_lead"`
	WeightName        float64 `mapstructure:"weight_name"`
	WeightColor       float64 `mapstructure:"weight_color"`
	WeightType        float64 `mapstructure:"weight_type"`
	SeriesBonus       float64 `mapstructure:"series_bonus"`
	MinNameSimilarity float64 `mapstructure:"min_name_similarity"`
	RequireExactColor bool    `mapstructure:"require_exact_color"`
	RequireExactType  bool    `mapstructure:"require_exact_type"`
}

// MatchingConfig holds the text vocabularies and strategy thresholds
type MatchingConfig struct {
	DefaultBrand   string             `mapstructure:"default_brand"`
	SiteStopWords  []string           `mapstructure:"site_stop_words"`
	PreservedWords []string           `mapstructure:"preserved_words"`
	SeriesWords    []string           `mapstructure:"series_words"`
	Similarity     string             `mapstructure:"similarity"` // "token_set" or "jaccard"
	DebugTopN      int                `mapstructure:"debug_top_n"`
	ColorKeyword   ColorKeywordConfig `mapstructure:"color_keyword"`
	Lexicon        LexiconConfig      `mapstructure:"lexicon"`
	Generic        GenericConfig      `mapstructure:"generic"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
}

// Load loads configuration from .env, environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/stockbind/")

	// Environment variable settings
	v.SetEnvPrefix("STOCKBIND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads .env from the working directory when present.
// Variables already set in the environment win.
func loadEnvFile() error {
	err := godotenv.Load(".env")
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.workers", 8)
	v.SetDefault("server.max_batch", 500)

	// Catalog defaults
	v.SetDefault("catalog.driver", "sqlite")
	v.SetDefault("catalog.dsn", "file:stockbind.db?_pragma=busy_timeout(5000)")
	v.SetDefault("catalog.products_table", "catalog_products")
	v.SetDefault("catalog.overrides_table", "manual_overrides")
	v.SetDefault("catalog.url_cache_table", "url_code_cache")
	v.SetDefault("catalog.lexicon_table", "lexicon_keywords")
	v.SetDefault("catalog.ensure_schema", false)
	v.SetDefault("catalog.recall_limit", 2000)
	v.SetDefault("catalog.widen_limit", 50000)
	v.SetDefault("catalog.max_search_tokens", 6)

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.prefix", "stockbind:")
	v.SetDefault("cache.ttl", "720h") // 30 days
	v.SetDefault("cache.write_back", true)

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 600)
	v.SetDefault("ratelimit.burst", 50)
	v.SetDefault("ratelimit.remote", 5.0)

	// Matching defaults
	v.SetDefault("matching.default_brand", "")
	v.SetDefault("matching.site_stop_words", []string{})
	v.SetDefault("matching.preserved_words", []string{})
	v.SetDefault("matching.series_words", []string{})
	v.SetDefault("matching.similarity", "token_set")
	v.SetDefault("matching.debug_top_n", 5)

	v.SetDefault("matching.color_keyword.min_keyword_score", 3)
	v.SetDefault("matching.color_keyword.fuzzy_threshold", 85)
	v.SetDefault("matching.color_keyword.fuzzy_margin", 5)
	v.SetDefault("matching.color_keyword.allow_color_code_tie_break", false)

	v.SetDefault("matching.lexicon.min_overlap", 1)
	v.SetDefault("matching.lexicon.min_score", 0.68)
	v.SetDefault("matching.lexicon.min_lead", 0.04)
	v.SetDefault("matching.lexicon.weight_l1", 0.55)
	v.SetDefault("matching.lexicon.weight_l2", 0.20)
	v.SetDefault("matching.lexicon.weight_color", 0.10)
	v.SetDefault("matching.lexicon.weight_name", 0.15)
	v.SetDefault("matching.lexicon.require_exact_color", false)

	v.SetDefault("matching.generic.min_score", 0.72)
	v.SetDefault("matching.generic.min_lead", 0.04)
	v.SetDefault("matching.generic.weight_name", 0.72)
	v.SetDefault("matching.generic.weight_color", 0.20)
	v.SetDefault("matching.generic.weight_type", 0.08)
	v.SetDefault("matching.generic.series_bonus", 0.03)
	v.SetDefault("matching.generic.min_name_similarity", 0.0)
	v.SetDefault("matching.generic.require_exact_color", false)
	v.SetDefault("matching.generic.require_exact_type", false)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Catalog.Driver != "postgres" && config.Catalog.Driver != "sqlite" {
		return fmt.Errorf("catalog driver must be 'postgres' or 'sqlite', got: %s", config.Catalog.Driver)
	}

	if config.Catalog.DSN == "" {
		return fmt.Errorf("catalog DSN is required (set STOCKBIND_CATALOG_DSN)")
	}

	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("redis URL is required when cache type is 'redis'")
	}

	switch config.Matching.Similarity {
	case "", "token_set", "jaccard":
	default:
		return fmt.Errorf("matching similarity must be 'token_set' or 'jaccard', got: %s", config.Matching.Similarity)
	}

	if config.Log.Format != "" && config.Log.Format != "json" && config.Log.Format != "console" {
		return fmt.Errorf("log format must be 'json' or 'console', got: %s", config.Log.Format)
	}

	if config.Server.Workers < 0 || config.Server.MaxBatch < 0 {
		return fmt.Errorf("server workers and max batch must not be negative")
	}

	return nil
}
