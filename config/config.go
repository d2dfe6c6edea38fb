package config

import (
	"os"

	"go.uber.org/zap"
)

type Config struct {
	GameAddr   string // TCP listener for the game wire protocol
	HTTPAddr   string // REST API + websocket endpoint
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	JWTSecret  string
	LogFile    string
	LogLevel   string
}

func LoadConfig() *Config {
	return &Config{
		GameAddr:   getEnv("GAME_ADDR", ":10000"),
		HTTPAddr:   getEnv("HTTP_ADDR", ":8000"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "user"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "setarena"),
		JWTSecret:  getEnv("JWT_SECRET", "secret"),
		LogFile:    getEnv("LOG_FILE", ""),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
	}
}

// getEnv reads an environment variable and returns its value or a default value
func getEnv(key, defaultValue string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		value = defaultValue
		zap.S().Infof("Environment variable %s not set, using default value: %s", key, defaultValue)
	}
	return value
}
