package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultGroqAPIURL    = "https://api.groq.com/openai/v1"
	DefaultModel         = "llama3-8b-8192"
	DefaultIntentTimeout = 10 * time.Second
	DefaultAPIURL        = "http://localhost:8000/process-voice"
)

// Config holds the server relay settings.
type Config struct {
	Port           string
	AllowedOrigins []string
	// Intent service (OpenAI-compatible chat completions endpoint)
	GroqAPIKey     string
	GroqAPIURL     string
	Model          string
	IntentTimeout  time.Duration
	IntentSpecFile string
	// Interaction store; the URL scheme selects the backend
	StoreURL string
	// Logging
	LogLevel  string
	LogFormat string
}

// ClientConfig is what the voice client needs: where the server relay lives.
type ClientConfig struct {
	APIURL  string
	UserID  string
	Timeout time.Duration
}

// Load reads the server configuration from the environment and .env.
func Load() Config {
	_ = godotenv.Load()
	return Config{
		Port:           getEnvDefault("PORT", "8000"),
		AllowedOrigins: getEnvListDefault("ALLOWED_ORIGINS", []string{"*"}),
		GroqAPIKey:     os.Getenv("GROQ_API_KEY"),
		GroqAPIURL:     getEnvDefault("GROQ_API_URL", DefaultGroqAPIURL),
		Model:          getEnvDefault("GROQ_MODEL", DefaultModel),
		IntentTimeout:  getEnvDurationDefault("INTENT_TIMEOUT", DefaultIntentTimeout),
		IntentSpecFile: os.Getenv("INTENT_SPEC_FILE"),
		StoreURL:       os.Getenv("STORE_URL"),
		LogLevel:       getEnvDefault("LOG_LEVEL", "info"),
		LogFormat:      getEnvDefault("LOG_FORMAT", "json"),
	}
}

// LoadClient reads the voice client configuration from the environment and .env.
func LoadClient() ClientConfig {
	_ = godotenv.Load()
	return ClientConfig{
		APIURL:  getEnvDefault("API_URL", DefaultAPIURL),
		UserID:  getEnvDefault("USER_ID", "123"),
		Timeout: getEnvDurationDefault("API_TIMEOUT", 10*time.Second),
	}
}

// Warnings lists settings that let the process start but will make requests fail
// or lose data.
func (c Config) Warnings() []string {
	var out []string
	if c.GroqAPIKey == "" {
		out = append(out, "GROQ_API_KEY is not set; intent calls will fail until provided")
	}
	if c.StoreURL == "" {
		out = append(out, "STORE_URL not provided, interactions are kept in memory only")
	}
	return out
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvListDefault(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			s := strings.TrimSpace(p)
			if s != "" {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return def
}

// getEnvDurationDefault accepts Go durations ("10s") or plain seconds ("10").
func getEnvDurationDefault(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if d, err := time.ParseDuration(v + "s"); err == nil && d > 0 {
		return d
	}
	return def
}
