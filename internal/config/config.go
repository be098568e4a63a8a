package config

import (
	"errors"
	"fmt"
	"time"

	"comment-insights-go/internal/types"
)

const (
	ProviderGateway = "gateway"
	ProviderOpenAI  = "openai"
	ProviderMock    = "mock"
)

type Config struct {
	Environment string         `mapstructure:"environment"`
	LogLevel    string         `mapstructure:"log_level"`
	Server      ServerConfig   `mapstructure:"server"`
	LLM         LLMConfig      `mapstructure:"llm"`
	Guardian    GuardianConfig `mapstructure:"guardian"`
	Pipeline    PipelineConfig `mapstructure:"pipeline"`
	Store       StoreConfig    `mapstructure:"store"`
	Telegram    TelegramConfig `mapstructure:"telegram"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type LLMConfig struct {
	Provider   string        `mapstructure:"provider"`
	GatewayURL string        `mapstructure:"gateway_url"`
	APIKey     string        `mapstructure:"api_key"`
	Model      string        `mapstructure:"model"`
	MaxTokens  int           `mapstructure:"max_tokens"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries uint64        `mapstructure:"max_retries"`
	UseMock    bool          `mapstructure:"use_mock"`
}

type GuardianConfig struct {
	APIKey        string        `mapstructure:"api_key"`
	DiscussionURL string        `mapstructure:"discussion_url"`
	ContentURL    string        `mapstructure:"content_url"`
	SiteURL       string        `mapstructure:"site_url"`
	PageSize      int           `mapstructure:"page_size"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxRetries    uint64        `mapstructure:"max_retries"`
	ArticleDelay  time.Duration `mapstructure:"article_delay"`
}

type PipelineConfig struct {
	BatchSize   int           `mapstructure:"batch_size"`
	MaxSelected int           `mapstructure:"max_selected"`
	CallTimeout time.Duration `mapstructure:"call_timeout"`
}

type StoreConfig struct {
	Path string `mapstructure:"path"`
}

type TelegramConfig struct {
	Token  string `mapstructure:"token"`
	ChatID int64  `mapstructure:"chat_id"`
}

func DefaultConfig() *Config {
	return &Config{
		Environment: "local",
		LogLevel:    "info",
		Server: ServerConfig{
			Port:         "8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 0,
			IdleTimeout:  120 * time.Second,
		},
		LLM: LLMConfig{
			Provider:  ProviderGateway,
			Model:     "claude-sonnet-4-20250514",
			MaxTokens: 2500,
			Timeout:   60 * time.Second,
		},
		Guardian: GuardianConfig{
			DiscussionURL: "https://discussion.theguardian.com/discussion-api/discussion",
			ContentURL:    "https://content.guardianapis.com/search",
			SiteURL:       "https://www.theguardian.com",
			PageSize:      100,
			Timeout:       30 * time.Second,
			ArticleDelay:  500 * time.Millisecond,
		},
		Pipeline: PipelineConfig{
			BatchSize:   200,
			MaxSelected: 200,
			CallTimeout: 90 * time.Second,
		},
		Store: StoreConfig{
			Path: "insights.db",
		},
	}
}

// Provider resolves the analyzer backend; USE_MOCK_LLM wins over everything.
func (c *Config) Provider() string {
	if c.LLM.UseMock {
		return ProviderMock
	}
	if c.LLM.Provider == "" {
		return ProviderGateway
	}
	return c.LLM.Provider
}

// RequireLLM reports the first missing analyzer credential.
func (c *Config) RequireLLM() error {
	switch c.Provider() {
	case ProviderMock:
		return nil
	case ProviderOpenAI:
		if c.LLM.APIKey == "" {
			return &types.ConfigurationError{Setting: "LLM_API_KEY", Hint: "set it before starting the server"}
		}
	case ProviderGateway:
		if c.LLM.GatewayURL == "" {
			return &types.ConfigurationError{Setting: "LLM_GATEWAY_URL", Hint: "set it before starting the server"}
		}
		if c.LLM.APIKey == "" {
			return &types.ConfigurationError{Setting: "LLM_API_KEY", Hint: "set it before starting the server"}
		}
	default:
		return &types.ConfigurationError{Setting: "LLM_PROVIDER", Hint: fmt.Sprintf("unknown provider %q", c.LLM.Provider)}
	}
	return nil
}

// RequireGuardianKey is needed by the keyword flow only.
func (c *Config) RequireGuardianKey() error {
	if c.Guardian.APIKey == "" {
		return &types.ConfigurationError{Setting: "GUARDIAN_API_KEY"}
	}
	return nil
}

// Validate checks the numeric settings.
func (c *Config) Validate() error {
	var errs []error
	if c.Pipeline.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("pipeline.batch_size must be positive, got %d", c.Pipeline.BatchSize))
	}
	if c.Pipeline.MaxSelected <= 0 {
		errs = append(errs, fmt.Errorf("pipeline.max_selected must be positive, got %d", c.Pipeline.MaxSelected))
	}
	if c.Pipeline.CallTimeout <= 0 {
		errs = append(errs, fmt.Errorf("pipeline.call_timeout must be positive"))
	}
	if c.Guardian.PageSize <= 0 || c.Guardian.PageSize > 100 {
		errs = append(errs, fmt.Errorf("guardian.page_size must be within 1..100, got %d", c.Guardian.PageSize))
	}
	if c.Guardian.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("guardian.timeout must be positive"))
	}
	return errors.Join(errs...)
}
