package config

import (
	"time"

	"github.com/mikey/llm-email-assistant/internal/core"
)

// LLMConfig represents the configuration for the LLM provider
type LLMConfig struct {
	Provider string
	Timeout  time.Duration
	// MaxBodySize is taken from the selected provider's section
	MaxBodySize int
}

// GenerationConfig holds the sampling settings shared by all providers
type GenerationConfig struct {
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// OpenAIConfig represents the configuration for OpenAI and OpenAI-compatible endpoints
type OpenAIConfig struct {
	APIKey    string
	ModelName string
	BaseURL   string
	GenerationConfig
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey    string
	ModelName string
	GenerationConfig
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region  string
	ModelID string
	GenerationConfig
}

// OpenRouterConfig represents the configuration for OpenRouter
type OpenRouterConfig struct {
	APIKey    string
	ModelName string
	BaseURL   string
	SiteURL   string
	SiteName  string
	GenerationConfig
}

// MemoryConfig represents the configuration of the sender memory store
type MemoryConfig struct {
	Type             string
	Path             string
	MaxHistoryLength int
	CreateIfMissing  bool
	ResetOnCorrupt   bool
	SQLitePath       string
	MySQLDSN         string
}

// PipelineConfig represents the configuration of the processing pipeline
type PipelineConfig struct {
	Parallel       bool
	SaveToMemory   bool
	Tone           string
	ContextEntries int
}

// RelayConfig is the downstream MTA that processed messages are handed to
type RelayConfig struct {
	Enabled bool
	Address string
	Port    int
}

// HeaderConfig names the headers added to relayed messages
type HeaderConfig struct {
	Intent    string
	Sentiment string
	Escalate  string
	Reason    string
	Error     string
}

// ServerConfig represents the configuration of the SMTP intake
type ServerConfig struct {
	ListenAddress   string
	Domain          string
	MaxMessageBytes int64
	ProcessTimeout  time.Duration
	Relay           RelayConfig
	SendReplies     bool
	Headers         HeaderConfig
}

// GetLLM returns the LLM configuration
func (c *Config) GetLLM() LLMConfig {
	provider := c.GetString("llm.provider")
	// Validate reports a malformed timeout; here it just disables the limit
	timeout, _ := c.GetDuration("llm.timeout")
	return LLMConfig{
		Provider:    provider,
		Timeout:     timeout,
		MaxBodySize: c.GetInt(provider + ".max_body_size"),
	}
}

func (c *Config) getGeneration(provider string) GenerationConfig {
	return GenerationConfig{
		MaxTokens:   c.GetInt(provider + ".max_tokens"),
		Temperature: float32(c.GetFloat64(provider + ".temperature")),
		TopP:        float32(c.GetFloat64(provider + ".top_p")),
		MaxBodySize: c.GetInt(provider + ".max_body_size"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:           c.GetString("openai.api_key"),
		ModelName:        c.GetString("openai.model_name"),
		BaseURL:          c.GetString("openai.base_url"),
		GenerationConfig: c.getGeneration("openai"),
	}
}

// GetGroq returns the Groq configuration
func (c *Config) GetGroq() OpenAIConfig {
	return OpenAIConfig{
		APIKey:           c.GetString("groq.api_key"),
		ModelName:        c.GetString("groq.model_name"),
		BaseURL:          c.GetString("groq.base_url"),
		GenerationConfig: c.getGeneration("groq"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:           c.GetString("gemini.api_key"),
		ModelName:        c.GetString("gemini.model_name"),
		GenerationConfig: c.getGeneration("gemini"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:           c.GetString("bedrock.region"),
		ModelID:          c.GetString("bedrock.model_id"),
		GenerationConfig: c.getGeneration("bedrock"),
	}
}

// GetOpenRouter returns the OpenRouter configuration
func (c *Config) GetOpenRouter() OpenRouterConfig {
	return OpenRouterConfig{
		APIKey:           c.GetString("openrouter.api_key"),
		ModelName:        c.GetString("openrouter.model_name"),
		BaseURL:          c.GetString("openrouter.base_url"),
		SiteURL:          c.GetString("openrouter.site_url"),
		SiteName:         c.GetString("openrouter.site_name"),
		GenerationConfig: c.getGeneration("openrouter"),
	}
}

// GetEscalation returns the escalation policy configuration
func (c *Config) GetEscalation() core.PolicyConfig {
	return core.PolicyConfig{
		RepeatThreshold:  c.GetInt("escalation.repeat_threshold"),
		Keywords:         c.GetStringSlice("escalation.keywords"),
		MaxHistoryLength: c.GetInt("memory.max_history_length"),
	}
}

// GetMemory returns the memory store configuration
func (c *Config) GetMemory() MemoryConfig {
	return MemoryConfig{
		Type:             c.GetString("memory.type"),
		Path:             c.GetString("memory.path"),
		MaxHistoryLength: c.GetInt("memory.max_history_length"),
		CreateIfMissing:  c.GetBool("memory.create_if_missing"),
		ResetOnCorrupt:   c.GetBool("memory.reset_on_corrupt"),
		SQLitePath:       c.GetString("memory.sqlite_path"),
		MySQLDSN:         c.GetString("memory.mysql_dsn"),
	}
}

// GetPipeline returns the pipeline configuration
func (c *Config) GetPipeline() PipelineConfig {
	return PipelineConfig{
		Parallel:       c.GetBool("pipeline.parallel"),
		SaveToMemory:   c.GetBool("pipeline.save_to_memory"),
		Tone:           c.GetString("reply.tone"),
		ContextEntries: c.GetInt("reply.context_entries"),
	}
}

// GetServer returns the SMTP intake configuration
func (c *Config) GetServer() ServerConfig {
	processTimeout, err := c.GetDuration("server.process_timeout")
	if err != nil || processTimeout <= 0 {
		processTimeout = 5 * time.Minute
	}
	return ServerConfig{
		ListenAddress:   c.GetString("server.listen_address"),
		Domain:          c.GetString("server.domain"),
		MaxMessageBytes: int64(c.GetInt("server.max_message_bytes")),
		ProcessTimeout:  processTimeout,
		Relay: RelayConfig{
			Enabled: c.GetBool("server.relay.enabled"),
			Address: c.GetString("server.relay.address"),
			Port:    c.GetInt("server.relay.port"),
		},
		SendReplies: c.GetBool("server.send_replies"),
		Headers: HeaderConfig{
			Intent:    c.GetString("server.headers.intent"),
			Sentiment: c.GetString("server.headers.sentiment"),
			Escalate:  c.GetString("server.headers.escalate"),
			Reason:    c.GetString("server.headers.reason"),
			Error:     c.GetString("server.headers.error"),
		},
	}
}
