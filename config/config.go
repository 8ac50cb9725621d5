package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Listing source
	FetchMode      string // "api" or "browser"
	RecordsPerPage int
	MaxPages       int
	ChromeBin      string

	// Overpass amenity endpoint
	OverpassURL        string
	OverpassMode       string // "remote" or "local"
	OverpassMaxRetries int
	OverpassMinSpacing time.Duration
	OverpassRetryBase  time.Duration
	OverpassTimeout    time.Duration

	// Delisting policy
	StalenessHours int

	CSVOutputPath string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	cfg := &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "homescout"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "homescout123"),
		PostgresDB:       getEnv("POSTGRES_DB", "homescout_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		FetchMode:      getEnv("FETCH_MODE", "api"),
		RecordsPerPage: getEnvInt("RECORDS_PER_PAGE", 50),
		MaxPages:       getEnvInt("MAX_PAGES", 100),
		ChromeBin:      getEnv("CHROME_BIN", ""),

		OverpassURL:        getEnv("OVERPASS_URL", "https://overpass-api.de/api/interpreter"),
		OverpassMode:       getEnv("OVERPASS_MODE", "remote"),
		OverpassMaxRetries: getEnvInt("OVERPASS_MAX_RETRIES", 3),
		OverpassMinSpacing: getEnvMillis("OVERPASS_MIN_SPACING_MS", 1500),
		OverpassRetryBase:  getEnvMillis("OVERPASS_RETRY_BASE_MS", 5000),

		StalenessHours: getEnvInt("STALENESS_HOURS", 48),

		CSVOutputPath: getEnv("CSV_OUTPUT_PATH", "./output/raw_listings.csv"),
	}

	// A local Overpass instance answers fast or not at all; the public one
	// can legitimately take tens of seconds under load.
	defaultTimeout := 60
	if cfg.OverpassMode == "local" {
		defaultTimeout = 8
	}
	cfg.OverpassTimeout = time.Duration(getEnvInt("OVERPASS_TIMEOUT_S", defaultTimeout)) * time.Second

	return cfg
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// Staleness returns the delisting grace window as a duration.
func (c *Config) Staleness() time.Duration {
	return time.Duration(c.StalenessHours) * time.Hour
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvMillis(key string, fallback int) time.Duration {
	return time.Duration(getEnvInt(key, fallback)) * time.Millisecond
}
