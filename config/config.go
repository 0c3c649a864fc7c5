package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/nelssec/friday-agent/internal/credentials"
)

type Config struct {
	AnthropicAPIKey string `envconfig:"ANTHROPIC_API_KEY"`
	AnthropicModel  string `envconfig:"ANTHROPIC_MODEL"`

	OllamaURL      string `envconfig:"OLLAMA_URL" default:"http://localhost:11434"`
	OllamaModel    string `envconfig:"OLLAMA_MODEL" default:"llama3.1:8b"`
	TherapistModel string `envconfig:"THERAPIST_MODEL" default:"alibayram/medgemma:4b"`
	PreferLocal    bool   `envconfig:"PREFER_LOCAL" default:"false"`
	LLMProvider    string `envconfig:"LLM_PROVIDER" default:"auto"`

	TwilioAccountSID string `envconfig:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken  string `envconfig:"TWILIO_AUTH_TOKEN"`
	TwilioFromNumber string `envconfig:"TWILIO_FROM_NUMBER"`
	TwilioVoiceURL   string `envconfig:"TWILIO_VOICE_URL" default:"http://demo.twilio.com/docs/voice.xml"`

	GeminiAPIKey string `envconfig:"GEMINI_API_KEY"`
	TTSModel     string `envconfig:"TTS_MODEL" default:"gemini-2.5-flash-preview-tts"`
	TTSVoice     string `envconfig:"TTS_VOICE" default:"Kore"`

	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`
	ServerPort int    `envconfig:"SERVER_PORT" default:"8000"`
}

func Load() (*Config, error) {
	// A local .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	cfg.AnthropicAPIKey = credentials.GetOrEnv(credentials.KeyAnthropic, cfg.AnthropicAPIKey)
	cfg.TwilioAuthToken = credentials.GetOrEnv(credentials.KeyTwilioToken, cfg.TwilioAuthToken)
	cfg.GeminiAPIKey = credentials.GetOrEnv(credentials.KeyGemini, cfg.GeminiAPIKey)

	return &cfg, nil
}

// TelephonyConfigured reports whether every credential the emergency-call
// path needs is present. The tool layer degrades to a direct-dial message
// when this is false; nothing should treat it as fatal.
func (c *Config) TelephonyConfigured() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioFromNumber != ""
}

func (c *Config) TTSConfigured() bool {
	return c.GeminiAPIKey != ""
}
