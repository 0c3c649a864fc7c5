package credentials

import (
	"fmt"

	"github.com/zalando/go-keyring"
)

const serviceName = "friday-agent"

type KeyType string

const (
	KeyAnthropic   KeyType = "anthropic_api_key"
	KeyTwilioToken KeyType = "twilio_auth_token"
	KeyGemini      KeyType = "gemini_api_key"
)

func Set(key KeyType, value string) error {
	return keyring.Set(serviceName, string(key), value)
}

func Get(key KeyType) (string, error) {
	return keyring.Get(serviceName, string(key))
}

func Delete(key KeyType) error {
	return keyring.Delete(serviceName, string(key))
}

func GetOrEnv(key KeyType, envValue string) string {
	if envValue != "" {
		return envValue
	}
	val, err := Get(key)
	if err != nil {
		return ""
	}
	return val
}

func ListConfigured() map[KeyType]bool {
	result := make(map[KeyType]bool)

	keys := []KeyType{KeyAnthropic, KeyTwilioToken, KeyGemini}
	for _, k := range keys {
		_, err := Get(k)
		result[k] = err == nil
	}

	return result
}

func ClearAll() error {
	var lastErr error
	keys := []KeyType{KeyAnthropic, KeyTwilioToken, KeyGemini}
	for _, k := range keys {
		if err := Delete(k); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func Setup(anthropicKey, twilioToken, geminiKey string) error {
	if anthropicKey != "" {
		if err := Set(KeyAnthropic, anthropicKey); err != nil {
			return fmt.Errorf("failed to store Anthropic key: %w", err)
		}
	}

	if twilioToken != "" {
		if err := Set(KeyTwilioToken, twilioToken); err != nil {
			return fmt.Errorf("failed to store Twilio token: %w", err)
		}
	}

	if geminiKey != "" {
		if err := Set(KeyGemini, geminiKey); err != nil {
			return fmt.Errorf("failed to store Gemini key: %w", err)
		}
	}

	return nil
}
