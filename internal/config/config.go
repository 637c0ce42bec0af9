package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig    `yaml:"store" mapstructure:"store"`
	LLM        LLMConfig      `yaml:"llm" mapstructure:"llm"`
	Gemini     ProviderConfig `yaml:"gemini" mapstructure:"gemini"`
	OpenRouter ProviderConfig `yaml:"openrouter" mapstructure:"openrouter"`
	Groq       ProviderConfig `yaml:"groq" mapstructure:"groq"`
	Anthropic  ProviderConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Server     ServerConfig   `yaml:"server" mapstructure:"server"`
	Batch      BatchConfig    `yaml:"batch" mapstructure:"batch"`
	Export     ExportConfig   `yaml:"export" mapstructure:"export"`
	Log        LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// LLMConfig configures the fallback chain and shared credentials.
type LLMConfig struct {
	// SharedKey is the platform-issued key used for any provider without an
	// explicit key of its own.
	SharedKey          string `yaml:"shared_key" mapstructure:"shared_key"`
	Chain              []string `yaml:"chain" mapstructure:"chain"`
	ChainsFile         string   `yaml:"chains_file" mapstructure:"chains_file"`
	ChainName          string   `yaml:"chain_name" mapstructure:"chain_name"`
	RequestTimeoutSecs int      `yaml:"request_timeout_secs" mapstructure:"request_timeout_secs"`
	MaxTokens          int      `yaml:"max_tokens" mapstructure:"max_tokens"`
	// StageModels overrides the head of the chain per stage name; the shared
	// tail is always inherited.
	StageModels map[string]string `yaml:"stage_models" mapstructure:"stage_models"`
}

// ProviderConfig holds one LLM provider's credentials and endpoint.
type ProviderConfig struct {
	Key     string  `yaml:"key" mapstructure:"key"`
	BaseURL string  `yaml:"base_url" mapstructure:"base_url"`
	RPS     float64 `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	AuthToken   string   `yaml:"auth_token" mapstructure:"auth_token"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// BatchConfig configures batch analysis.
type BatchConfig struct {
	MaxConcurrentProfiles int `yaml:"max_concurrent_profiles" mapstructure:"max_concurrent_profiles"`
}

// ExportConfig configures report export targets.
type ExportConfig struct {
	NotionToken      string `yaml:"notion_token" mapstructure:"notion_token"`
	NotionDatabaseID string `yaml:"notion_database_id" mapstructure:"notion_database_id"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// DefaultChain is the ordered model fallback chain used when none is
// configured. Model ids are provider-prefixed; the remainder may itself
// contain slashes.
var DefaultChain = []string{
	"gemini/gemini-2.0-flash",
	"openrouter/allenai/olmo-3-32b-think",
	"openrouter/amazon/nova-2-lite",
	"groq/llama-3.3-70b-versatile",
	"openrouter/arcee/trinity-mini",
	"openrouter/openai/gpt-oss-20b",
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("NICHE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("batch.max_concurrent_profiles", 4)
	v.SetDefault("llm.chain", DefaultChain)
	v.SetDefault("llm.request_timeout_secs", 90)
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("llm.chains_file", "")
	v.SetDefault("llm.chain_name", "")
	v.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com/v1beta/openai")
	v.SetDefault("openrouter.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("groq.base_url", "https://api.groq.com/openai/v1")

	// Secrets default to empty so env-only values survive Unmarshal.
	v.SetDefault("llm.shared_key", "")
	v.SetDefault("gemini.key", "")
	v.SetDefault("openrouter.key", "")
	v.SetDefault("groq.key", "")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("server.auth_token", "")
	v.SetDefault("export.notion_token", "")
	v.SetDefault("export.notion_database_id", "")
	v.SetDefault("store.database_url", "niche.db")

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
	cfg.resolveKeys()

	return &cfg, nil
}

// resolveKeys applies the credential precedence: an explicit per-provider key
// wins over the shared platform key. Runs once at load; the config is
// read-only afterwards.
func (c *Config) resolveKeys() {
	for _, p := range []*ProviderConfig{&c.Gemini, &c.OpenRouter, &c.Groq, &c.Anthropic} {
		if p.Key == "" {
			p.Key = c.LLM.SharedKey
		}
	}
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
