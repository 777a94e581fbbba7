package config

import (
	"log"
	"os"
	"strings"
)

// Store backend selectors for Config.StoreBackend.
const (
	BackendCSV    = "csv"
	BackendGitHub = "github"
	BackendDB     = "db"
)

// Config holds application configuration loaded from environment variables
type Config struct {
	Env       string
	Port      string
	LogLevel  string
	LogFormat string

	// Spotters is the fixed, ordered set of participants. The ordering is
	// load-bearing: streak and leaderboard tie-breaks resolve to the first
	// maximum in this order.
	Spotters []string

	// StoreBackend selects the persistence backend: csv, github or db.
	StoreBackend string
	DataDir      string

	// DatabaseURL is used by the db backend. A postgres:// URL selects the
	// Postgres driver; anything else is treated as an SQLite file path.
	DatabaseURL string

	// RedisURL enables the asynq mirror worker and the geocode cache.
	// Optional; both features degrade gracefully without it.
	RedisURL string

	// GitHub mirror settings for the github backend.
	GitHubToken  string
	GitHubRepo   string // "owner/name"
	GitHubBranch string

	// Reverse geocoding.
	NominatimURL string
	GeocodeStub  bool

	// SeedDemo populates an empty store with demo sightings at startup.
	SeedDemo bool

	SessionSecret string
}

// Load reads configuration from environment variables
func Load() *Config {
	cfg := &Config{
		Env:           getEnvWithDefault("ENV", "development"),
		Port:          getEnvWithDefault("PORT", "8080"),
		LogLevel:      getEnvWithDefault("LOG_LEVEL", "info"),
		LogFormat:     getEnvWithDefault("LOG_FORMAT", "text"),
		Spotters:      splitList(getEnvWithDefault("SPOTTERS", "Rico,Anders,Live")),
		StoreBackend:  getEnvWithDefault("STORE_BACKEND", BackendCSV),
		DataDir:       getEnvWithDefault("DATA_DIR", "."),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		GitHubToken:   os.Getenv("GITHUB_TOKEN"),
		GitHubRepo:    os.Getenv("GITHUB_REPO"),
		GitHubBranch:  getEnvWithDefault("GITHUB_BRANCH", "main"),
		NominatimURL:  getEnvWithDefault("NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
		GeocodeStub:   os.Getenv("GEOCODE_STUB") == "true",
		SeedDemo:      os.Getenv("SEED_DEMO") == "true",
		SessionSecret: os.Getenv("SESSION_SECRET"),
	}

	// Warn if using default session secret (insecure for production)
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = "dev-secret-change-in-production-use-openssl-rand-hex-32"
		log.Println("WARNING: Using default SESSION_SECRET. Generate a secure secret with: openssl rand -hex 32")
	}

	if len(cfg.Spotters) == 0 {
		cfg.Spotters = []string{"Rico", "Anders", "Live"}
	}

	return cfg
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if name := strings.TrimSpace(part); name != "" {
			out = append(out, name)
		}
	}
	return out
}
