package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// envBindings keeps the plain environment names operators already use.
var envBindings = map[string][]string{
	"environment":             {"ENVIRONMENT"},
	"log_level":               {"LOG_LEVEL"},
	"server.port":             {"PORT"},
	"llm.provider":            {"LLM_PROVIDER"},
	"llm.gateway_url":         {"LLM_GATEWAY_URL"},
	"llm.api_key":             {"LLM_API_KEY", "OPENAI_API_KEY"},
	"llm.model":               {"LLM_MODEL"},
	"llm.use_mock":            {"USE_MOCK_LLM"},
	"guardian.api_key":        {"GUARDIAN_API_KEY"},
	"pipeline.batch_size":     {"BATCH_SIZE"},
	"store.path":              {"STORE_PATH"},
	"telegram.token":          {"TELEGRAM_BOT_TOKEN"},
	"telegram.chat_id":        {"TELEGRAM_CHAT_ID"},
	"pipeline.max_selected":   {"MAX_SELECTED"},
	"pipeline.call_timeout":   {"CALL_TIMEOUT"},
	"guardian.article_delay":  {"ARTICLE_DELAY"},
	"llm.max_retries":         {"LLM_MAX_RETRIES"},
	"guardian.max_retries":    {"GUARDIAN_MAX_RETRIES"},
	"server.write_timeout":    {"SERVER_WRITE_TIMEOUT"},
	"guardian.discussion_url": {"GUARDIAN_DISCUSSION_URL"},
}

// Load reads configuration from .env, an optional YAML file and the
// environment. Priority (highest to lowest): env vars > config file > defaults.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load() // loads .env

	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, cfg)

	v.SetEnvPrefix("INSIGHTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envBindings {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("insights")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// setDefaults registers default values in viper.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("environment", cfg.Environment)
	v.SetDefault("log_level", cfg.LogLevel)

	v.SetDefault("server.port", cfg.Server.Port)
	v.SetDefault("server.read_timeout", cfg.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", cfg.Server.WriteTimeout)
	v.SetDefault("server.idle_timeout", cfg.Server.IdleTimeout)

	v.SetDefault("llm.provider", cfg.LLM.Provider)
	v.SetDefault("llm.gateway_url", cfg.LLM.GatewayURL)
	v.SetDefault("llm.api_key", cfg.LLM.APIKey)
	v.SetDefault("llm.model", cfg.LLM.Model)
	v.SetDefault("llm.max_tokens", cfg.LLM.MaxTokens)
	v.SetDefault("llm.timeout", cfg.LLM.Timeout)
	v.SetDefault("llm.max_retries", cfg.LLM.MaxRetries)
	v.SetDefault("llm.use_mock", cfg.LLM.UseMock)

	v.SetDefault("guardian.api_key", cfg.Guardian.APIKey)
	v.SetDefault("guardian.discussion_url", cfg.Guardian.DiscussionURL)
	v.SetDefault("guardian.content_url", cfg.Guardian.ContentURL)
	v.SetDefault("guardian.site_url", cfg.Guardian.SiteURL)
	v.SetDefault("guardian.page_size", cfg.Guardian.PageSize)
	v.SetDefault("guardian.timeout", cfg.Guardian.Timeout)
	v.SetDefault("guardian.max_retries", cfg.Guardian.MaxRetries)
	v.SetDefault("guardian.article_delay", cfg.Guardian.ArticleDelay)

	v.SetDefault("pipeline.batch_size", cfg.Pipeline.BatchSize)
	v.SetDefault("pipeline.max_selected", cfg.Pipeline.MaxSelected)
	v.SetDefault("pipeline.call_timeout", cfg.Pipeline.CallTimeout)

	v.SetDefault("store.path", cfg.Store.Path)

	v.SetDefault("telegram.token", cfg.Telegram.Token)
	v.SetDefault("telegram.chat_id", cfg.Telegram.ChatID)
}
