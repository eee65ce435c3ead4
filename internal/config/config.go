// File: internal/config/config.go
package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort   string
	Environment  string
	JWTSecretKey string

	// DatabasePath is the SQLite file holding the session documents.
	DatabasePath string

	// LLM provider settings.
	LLMAPIKey    string
	LLMBaseURL   string
	LLMModel     string
	SystemPrompt string

	// AllowedOrigin is the frontend origin for CORS.
	AllowedOrigin string

	// ChatRateLimit is the per-client turn ceiling per minute.
	ChatRateLimit int
}

// Load reads configuration from environment variables or .env file.
func Load() *Config {
	env := os.Getenv("ENV")
	if strings.ToLower(env) != "production" {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found; continuing with environment variables")
		}
	}

	cfg := &Config{
		ServerPort:    getEnv("SERVER_PORT", "8080"),
		Environment:   env,
		JWTSecretKey:  getEnv("JWT_SECRET_KEY", ""),
		DatabasePath:  getEnv("DATABASE_PATH", "chatapp.db"),
		LLMAPIKey:     getEnv("LLM_API_KEY", ""),
		LLMBaseURL:    getEnv("LLM_BASE_URL", ""),
		LLMModel:      getEnv("LLM_MODEL", "gpt-3.5-turbo"),
		SystemPrompt:  getEnv("SYSTEM_PROMPT", "You are a helpful assistant."),
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "*"),
		ChatRateLimit: getEnvAsInt("CHAT_RATE_LIMIT", 20),
	}

	// Validation for production environments
	if strings.ToLower(env) == "production" {
		missing := []string{}
		if cfg.JWTSecretKey == "" {
			missing = append(missing, "JWT_SECRET_KEY")
		}
		if cfg.LLMAPIKey == "" {
			missing = append(missing, "LLM_API_KEY")
		}
		if len(missing) > 0 {
			log.Fatalf("Missing required production environment variables: %v", missing)
		}
	}

	return cfg
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an env var as an integer, with a fallback.
func getEnvAsInt(key string, defaultValue int) int {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(strValue)
	if err != nil {
		log.Printf("Warning: could not parse env var %s as integer. Using default value.", key)
		return defaultValue
	}
	return intValue
}
