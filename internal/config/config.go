package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	App    AppConfig
	Stores StoresConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
}

type StoresConfig struct {
	RedisURL         string
	OfflineStorePath string
	RegistryDSN      string // empty => catalog is memory-only
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/feature-store.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		},
		Stores: StoresConfig{
			RedisURL:         getEnv("REDIS_URL", "redis://localhost:6379"),
			OfflineStorePath: getEnv("OFFLINE_STORE_PATH", "./offline_store"),
			RegistryDSN:      getEnv("REGISTRY_DSN", ""),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
