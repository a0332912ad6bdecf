package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	GeminiAPIKey   string
	GeminiEndpoint string // optional override of the provider endpoint
	ChatModel      string
	HTTPPort       string
	DataDir        string
	LogLevel       string
	TokenSecret    string
	ChatRPS        float64
	ChatBurst      int
}

var AppConfig Config

func LoadConfig() {
	err := godotenv.Load() // Load .env file if it exists
	if err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = Config{
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiEndpoint: getEnv("GEMINI_ENDPOINT", ""),
		ChatModel:      getEnv("CHAT_MODEL", "gemini-1.5-flash-latest"),
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		DataDir:        getEnv("DATA_DIR", "data"),
		LogLevel:       getEnv("LOG_LEVEL", "INFO"),
		TokenSecret:    getEnv("TOKEN_SECRET", ""),
		ChatRPS:        getEnvAsFloat("CHAT_RPS", 1.0),
		ChatBurst:      getEnvAsInt("CHAT_BURST", 5),
	}

	if AppConfig.GeminiAPIKey == "" {
		log.Fatal("GEMINI_API_KEY environment variable is required")
	}

	if AppConfig.TokenSecret == "" {
		// Login is cosmetic and the token gates nothing, so the server can
		// still come up without a configured secret.
		log.Println("TOKEN_SECRET not set, using insecure development secret")
		AppConfig.TokenSecret = "tokoassist-dev-secret"
	}
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}
