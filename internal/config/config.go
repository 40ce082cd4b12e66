package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost       string
	DBPort       string
	DBUser       string
	DBPassword   string
	DBName       string
	ServerPort   string
	ClientURL    string
	StoreDriver  string
	StoreTimeout time.Duration
}

func Load() *Config {
	// Missing .env is fine; plain env vars still apply.
	_ = godotenv.Load()

	timeoutMS, err := strconv.Atoi(getEnv("STORE_TIMEOUT_MS", "5000"))
	if err != nil || timeoutMS <= 0 {
		timeoutMS = 5000
	}

	return &Config{
		DBHost:       getEnv("DB_HOST", "localhost"),
		DBPort:       getEnv("DB_PORT", "5432"),
		DBUser:       getEnv("DB_USER", "postgres"),
		DBPassword:   getEnv("DB_PASSWORD", "postgres"),
		DBName:       getEnv("DB_NAME", "classpoll"),
		ServerPort:   getEnv("SERVER_PORT", "5000"),
		ClientURL:    getEnv("CLIENT_URL", "http://localhost:5173"),
		StoreDriver:  getEnv("STORE_DRIVER", "postgres"),
		StoreTimeout: time.Duration(timeoutMS) * time.Millisecond,
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
