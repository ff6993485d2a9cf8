package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mikey/llm-email-assistant/internal/core"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance
func New() (*Config, error) {
	return NewWithFile("")
}

// NewWithFile creates a configuration instance. When path is empty the
// standard locations are searched for a config.yaml; a missing file is not
// an error. An explicit path must exist.
func NewWithFile(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/llm-email-assistant/")
		v.AddConfigPath("$HOME/.llm-email-assistant")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Set defaults
	setDefaults(v)

	// Environment variables
	v.AutomaticEnv()
	v.SetEnvPrefix("EMAIL_ASSISTANT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// LLM provider defaults
	v.SetDefault("llm.provider", "groq")
	v.SetDefault("llm.timeout", "60s")

	// OpenAI defaults
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.model_name", "gpt-4o-mini")
	v.SetDefault("openai.base_url", "")
	setGenerationDefaults(v, "openai")

	// Groq defaults, served through the OpenAI-compatible endpoint
	v.SetDefault("groq.api_key", "")
	v.SetDefault("groq.model_name", "llama-3.3-70b-versatile")
	v.SetDefault("groq.base_url", "https://api.groq.com/openai/v1")
	setGenerationDefaults(v, "groq")

	// Gemini defaults
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model_name", "gemini-1.5-flash")
	setGenerationDefaults(v, "gemini")

	// Bedrock defaults
	v.SetDefault("bedrock.region", "us-east-1")
	v.SetDefault("bedrock.model_id", "anthropic.claude-3-haiku-20240307-v1:0")
	setGenerationDefaults(v, "bedrock")

	// OpenRouter defaults
	v.SetDefault("openrouter.api_key", "")
	v.SetDefault("openrouter.model_name", "meta-llama/llama-3.3-70b-instruct")
	v.SetDefault("openrouter.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("openrouter.site_url", "")
	v.SetDefault("openrouter.site_name", "")
	setGenerationDefaults(v, "openrouter")

	// Escalation defaults
	v.SetDefault("escalation.repeat_threshold", core.DefaultRepeatThreshold)
	v.SetDefault("escalation.keywords", core.DefaultEscalationKeywords)

	// Memory defaults
	v.SetDefault("memory.type", "json")
	v.SetDefault("memory.path", "data/memory.json")
	v.SetDefault("memory.max_history_length", core.DefaultMaxHistoryLength)
	v.SetDefault("memory.create_if_missing", true)
	v.SetDefault("memory.reset_on_corrupt", false)
	v.SetDefault("memory.sqlite_path", "data/memory.db")
	v.SetDefault("memory.mysql_dsn", "user:password@tcp(localhost:3306)/email_assistant")

	// Pipeline defaults
	v.SetDefault("pipeline.parallel", true)
	v.SetDefault("pipeline.save_to_memory", true)

	// Reply defaults
	v.SetDefault("reply.tone", string(core.ToneProfessional))
	v.SetDefault("reply.context_entries", 3)

	// Server defaults
	v.SetDefault("server.intake_type", "smtp")
	v.SetDefault("server.listen_address", "0.0.0.0:10026")
	v.SetDefault("server.domain", "localhost")
	v.SetDefault("server.max_message_bytes", 10*1024*1024)
	v.SetDefault("server.process_timeout", "300s")
	v.SetDefault("server.relay.enabled", true)
	v.SetDefault("server.relay.address", "127.0.0.1")
	v.SetDefault("server.relay.port", 10025)
	v.SetDefault("server.send_replies", false)
	v.SetDefault("server.headers.intent", "X-Assistant-Intent")
	v.SetDefault("server.headers.sentiment", "X-Assistant-Sentiment")
	v.SetDefault("server.headers.escalate", "X-Assistant-Escalate")
	v.SetDefault("server.headers.reason", "X-Assistant-Escalation-Reason")
	v.SetDefault("server.headers.error", "X-Assistant-Error")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

func setGenerationDefaults(v *viper.Viper, provider string) {
	v.SetDefault(provider+".max_tokens", 1000)
	v.SetDefault(provider+".temperature", 0.3)
	v.SetDefault(provider+".top_p", 0.9)
	v.SetDefault(provider+".max_body_size", 8192)
}

// Validate checks the options the escalation policy and reply generator depend on
func (c *Config) Validate() error {
	if _, err := core.NewEscalationPolicy(c.GetEscalation()); err != nil {
		return err
	}
	if _, err := core.ParseTone(c.GetString("reply.tone")); err != nil {
		return err
	}
	if c.GetInt("reply.context_entries") < 0 {
		return core.NewValidationError("reply.context_entries", "must not be negative")
	}
	if _, err := c.GetDuration("llm.timeout"); err != nil {
		return core.NewValidationError("llm.timeout", err.Error())
	}
	return nil
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	return time.ParseDuration(c.GetString(key))
}

// Set overrides a configuration value
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
