package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/spf13/viper"

	"codeberg.org/snonux/rode/internal/lang"
	"codeberg.org/snonux/rode/internal/llm"
	"codeberg.org/snonux/rode/internal/reverso"
)

// Translation backends selectable with translator.backend
const (
	BackendReverso = "reverso"
	BackendOpenAI  = "openai"
	BackendGemini  = "gemini"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// ServerConfig holds the HTTP listener settings
type ServerConfig struct {
	Host      string
	Port      int
	RateLimit float64
	RateBurst int
}

// Addr returns host:port for net.Listen.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Config is the merged configuration from flags, environment and config file
type Config struct {
	Server         ServerConfig
	Pair           lang.Pair
	Backend        string
	Reverso        reverso.Config
	BreakerEnabled bool
	Breaker        reverso.BreakerConfig
	OpenAI         llm.Config
	Gemini         llm.Config
	HistoryPath    string
	LogLevel       string
	LogJSON        bool
}

// LoadConfig reads the current viper state into a validated Config.
func LoadConfig() (*Config, error) {
	failures := viper.GetInt("reverso.breaker.failures")
	if failures < 0 {
		failures = 0
	}

	config := &Config{
		Server: ServerConfig{
			Host:      viper.GetString("server.host"),
			Port:      viper.GetInt("server.port"),
			RateLimit: viper.GetFloat64("server.rate_limit"),
			RateBurst: viper.GetInt("server.rate_burst"),
		},
		Pair: lang.Pair{
			Source: viper.GetString("translate.source"),
			Target: viper.GetString("translate.target"),
		}.Normalized(),
		Backend: viper.GetString("translator.backend"),
		Reverso: reverso.Config{
			Command: viper.GetStringSlice("reverso.command"),
			Timeout: viper.GetDuration("reverso.timeout"),
		},
		BreakerEnabled: viper.GetBool("reverso.breaker.enabled"),
		Breaker: reverso.BreakerConfig{
			Failures: uint32(failures),
			Cooldown: viper.GetDuration("reverso.breaker.cooldown"),
		},
		OpenAI: llm.Config{
			APIKey:  GetOpenAIKey(),
			Model:   viper.GetString("openai.model"),
			BaseURL: viper.GetString("openai.base_url"),
		},
		Gemini: llm.Config{
			APIKey:  GetGeminiKey(),
			Model:   viper.GetString("gemini.model"),
			BaseURL: viper.GetString("gemini.base_url"),
		},
		HistoryPath: viper.GetString("history.path"),
		LogLevel:    viper.GetString("log.level"),
		LogJSON:     viper.GetBool("log.json"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the settings every subcommand depends on.
func (c *Config) Validate() error {
	if err := c.Pair.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	switch c.Backend {
	case BackendReverso:
		if len(c.Reverso.Command) == 0 {
			return fmt.Errorf("%w: reverso.command cannot be empty", ErrInvalidConfig)
		}
		if c.Reverso.Timeout <= 0 {
			return fmt.Errorf("%w: reverso.timeout must be positive, got %s", ErrInvalidConfig, c.Reverso.Timeout)
		}
	case BackendOpenAI, BackendGemini:
	default:
		return fmt.Errorf("%w: unknown translator.backend %q (want %s, %s or %s)",
			ErrInvalidConfig, c.Backend, BackendReverso, BackendOpenAI, BackendGemini)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port out of range: %d", ErrInvalidConfig, c.Server.Port)
	}

	if c.Server.RateLimit < 0 {
		return fmt.Errorf("%w: server.rate_limit cannot be negative", ErrInvalidConfig)
	}

	return nil
}

// WriteTimeout covers both helper invocations of one request plus some slack.
func (c *Config) WriteTimeout() time.Duration {
	return 2*c.Reverso.Timeout + 15*time.Second
}

// NewCollaborator builds the configured translation backend.
func NewCollaborator(ctx context.Context, c *Config) (reverso.Collaborator, error) {
	switch c.Backend {
	case BackendOpenAI:
		return llm.NewProvider(c.OpenAI), nil
	case BackendGemini:
		return llm.NewGeminiProvider(ctx, c.Gemini)
	}

	invoker, err := reverso.NewInvoker(&c.Reverso)
	if err != nil {
		return nil, err
	}

	if !c.BreakerEnabled {
		return invoker, nil
	}

	return reverso.NewBreaker(invoker.Runtime(), invoker, c.Breaker), nil
}
