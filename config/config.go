package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// LLM provider 名称
const (
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderNone       = "none"
)

// 页面抓取方式
const (
	FetcherDirect    = "direct"
	FetcherFirecrawl = "firecrawl"
)

// Cache backend 名称
const (
	CacheNone     = "none"
	CacheMemory   = "memory"
	CacheRedis    = "redis"
	CachePostgres = "postgres"
)

// Config 应用配置
type Config struct {
	Port   string `mapstructure:"port"`
	APIKey string `mapstructure:"api_key"`

	LLMProvider     string        `mapstructure:"llm_provider"`
	GeminiKey       string        `mapstructure:"gemini_api_key"`
	GeminiModel     string        `mapstructure:"gemini_model"`
	OpenRouterKey   string        `mapstructure:"openrouter_api_key"`
	OpenRouterModel string        `mapstructure:"openrouter_model"`
	LLMTimeout      time.Duration `mapstructure:"llm_timeout"`

	PageFetcher      string        `mapstructure:"page_fetcher"`
	FirecrawlKey     string        `mapstructure:"firecrawl_api_key"`
	FetchTimeout     time.Duration `mapstructure:"fetch_timeout"`
	FirecrawlTimeout time.Duration `mapstructure:"firecrawl_timeout"` // 渲染页面比直接GET慢，单独设置

	CacheBackend string        `mapstructure:"cache_backend"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
	RedisURL     string        `mapstructure:"redis_url"`
	DatabaseURL  string        `mapstructure:"database_url"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

var defaults = map[string]interface{}{
	"port":               "8000",
	"api_key":            "",
	"llm_provider":       ProviderGemini,
	"gemini_api_key":     "",
	"gemini_model":       "gemini-1.5-flash",
	"openrouter_api_key": "",
	"openrouter_model":   "google/gemini-flash-1.5",
	"llm_timeout":        30 * time.Second,
	"page_fetcher":       FetcherDirect,
	"firecrawl_api_key":  "",
	"fetch_timeout":      10 * time.Second,
	"firecrawl_timeout":  60 * time.Second,
	"cache_backend":      CacheNone,
	"cache_ttl":          15 * time.Minute,
	"redis_url":          "",
	"database_url":       "",
	"log_level":          "info",
	"log_format":         "console",
}

// Load 从环境变量和可选的 config.yaml 加载配置
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	for key, value := range defaults {
		v.SetDefault(key, value)
		// AutomaticEnv 只对已知key生效，显式绑定保证 Unmarshal 能读到环境变量
		if err := v.BindEnv(key, strings.ToUpper(key)); err != nil {
			return nil, fmt.Errorf("failed to bind env %s: %w", key, err)
		}
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(cfg.LLMProvider))
	cfg.CacheBackend = strings.ToLower(strings.TrimSpace(cfg.CacheBackend))
	cfg.PageFetcher = strings.ToLower(strings.TrimSpace(cfg.PageFetcher))

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.LLMProvider {
	case ProviderGemini, ProviderOpenRouter, ProviderNone:
	default:
		return fmt.Errorf("unsupported llm_provider %q", c.LLMProvider)
	}

	switch c.PageFetcher {
	case FetcherDirect:
	case FetcherFirecrawl:
		if c.FirecrawlKey == "" {
			return fmt.Errorf("page_fetcher firecrawl requires FIRECRAWL_API_KEY")
		}
	default:
		return fmt.Errorf("unsupported page_fetcher %q", c.PageFetcher)
	}

	switch c.CacheBackend {
	case CacheNone, CacheMemory:
	case CacheRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("cache_backend redis requires REDIS_URL")
		}
	case CachePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("cache_backend postgres requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("unsupported cache_backend %q", c.CacheBackend)
	}

	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch_timeout must be positive")
	}
	if c.FirecrawlTimeout <= 0 {
		return fmt.Errorf("firecrawl_timeout must be positive")
	}
	if c.LLMTimeout <= 0 {
		return fmt.Errorf("llm_timeout must be positive")
	}
	return nil
}

// GenerationEnabled 启动时确定的生成服务能力开关
func (c *Config) GenerationEnabled() bool {
	switch c.LLMProvider {
	case ProviderGemini:
		return c.GeminiKey != ""
	case ProviderOpenRouter:
		return c.OpenRouterKey != ""
	default:
		return false
	}
}

// GenerationModel 当前provider使用的模型
func (c *Config) GenerationModel() string {
	if c.LLMProvider == ProviderOpenRouter {
		return c.OpenRouterModel
	}
	return c.GeminiModel
}
