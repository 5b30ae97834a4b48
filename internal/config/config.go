package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins string

	// DatabaseURL is the direct connection; PooledDatabaseURL, when set, is
	// preferred (connection pooler in front of Postgres).
	DatabaseURL       string
	PooledDatabaseURL string

	RedisURL string

	MeiliSearchHost string
	MeiliMasterKey  string

	JWTSecret  string
	JWTTTL     time.Duration
	BcryptCost int

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	RateLimitRegister time.Duration
	RateLimitLogin    time.Duration
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),

		DatabaseURL:       os.Getenv("DATABASE_URL"),
		PooledDatabaseURL: os.Getenv("POOLED_DATABASE_URL"),

		RedisURL: os.Getenv("REDIS_URL"),

		MeiliSearchHost: getEnv("MEILISEARCH_HOST", "http://localhost:7700"),
		MeiliMasterKey:  os.Getenv("MEILI_MASTER_KEY"),

		JWTSecret:  getEnv("JWT_SECRET", "change-me"),
		BcryptCost: getIntEnv("BCRYPT_COST", bcrypt.DefaultCost),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),
	}

	ttlMinutes := getIntEnv("JWT_TTL_MINUTES", 24*60)
	cfg.JWTTTL = time.Duration(ttlMinutes) * time.Minute

	var err error
	cfg.RateLimitRegister, err = time.ParseDuration(getEnv("RATE_LIMIT_REGISTER", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_REGISTER: %w", err)
	}
	cfg.RateLimitLogin, err = time.ParseDuration(getEnv("RATE_LIMIT_LOGIN", "2s"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_LOGIN: %w", err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}
