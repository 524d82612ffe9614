package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort          string
	AppMode          string
	AllowedOrigin    string
	DefaultTimeLimit int
	ChatHistoryMax   int
}

func LoadConfig() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		AppPort:          getEnv("APP_PORT", "8080"),
		AppMode:          getEnv("APP_MODE", "debug"),
		AllowedOrigin:    getEnv("ALLOWED_ORIGIN", "*"),
		DefaultTimeLimit: getEnvAsInt("POLL_DEFAULT_TIME_LIMIT", 60),
		ChatHistoryMax:   getEnvAsInt("CHAT_HISTORY_MAX", 1000),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}
