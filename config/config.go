package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting of the service. It is built once in
// main and passed down; nothing below the server package reads the
// environment directly.
type Config struct {
	Port          string
	DatabaseFile  string
	MigrationsDir string

	JWTSecret string
	TokenTTL  time.Duration

	// When false, users are created active and no verification email is sent.
	VerificationEnabled bool

	SendGridAPIKey string
	EmailFrom      string
	BaseURL        string

	AvatarsDir string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Load reads .env (if present) and the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		Port:                getEnv("PORT", "8080"),
		DatabaseFile:        getEnv("DATABASE_FILE", "./contacts_service.db"),
		MigrationsDir:       getEnv("MIGRATIONS_DIR", "./database/migrations"),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		TokenTTL:            getEnvAsDuration("TOKEN_TTL", 23*time.Hour),
		VerificationEnabled: getEnvAsBool("VERIFICATION_ENABLED", true),
		SendGridAPIKey:      getEnv("SENDGRID_API_KEY", ""),
		EmailFrom:           getEnv("EMAIL_FROM", ""),
		BaseURL:             getEnv("BASE_URL", "http://localhost:8080"),
		AvatarsDir:          getEnv("AVATARS_DIR", "./public/avatars"),
		RedisAddr:           getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		RedisDB:             getEnvAsInt("REDIS_DB", 0),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
