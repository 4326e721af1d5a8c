package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application runtime configuration.
type Config struct {
	Env             string
	HTTPPort        string
	DBPath          string
	AuthSecret      string
	SessionDuration time.Duration
	SeedSampleData  bool
}

// Load reads environment variables and .env (if present). Nothing is
// required: with no DBPath the server runs on an in-memory medium, and
// AuthSecret falls back to a development default downstream.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Env:             getEnv("APP_ENV", "development"),
		HTTPPort:        getEnv("PORT", "8080"),
		DBPath:          os.Getenv("STOCKWISE_DB_PATH"),
		AuthSecret:      os.Getenv("AUTH_SECRET"),
		SessionDuration: getDuration("SESSION_DURATION", time.Hour),
		SeedSampleData:  getBool("SEED_SAMPLE_DATA", false),
	}
}

func getDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		// Support seconds as integer without suffix.
		if secs, convErr := strconv.Atoi(val); convErr == nil {
			return time.Duration(secs) * time.Second
		}
		return fallback
	}
	return d
}

func getEnv(key, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func getBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return b
}
