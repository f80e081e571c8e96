package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	Server struct {
		Port         string
		IngestPort   string
		ReadTimeout  time.Duration
		WriteTimeout time.Duration
	}

	// Location is the single geographic point the system tracks. All
	// timestamps (sampling instants, hour buckets, forecast requests)
	// are expressed in Timezone.
	Location struct {
		Latitude  float64
		Longitude float64
		Timezone  string
		TZ        *time.Location
	}

	WeatherAPI struct {
		BaseURL     string
		HTTPTimeout time.Duration
	}

	Scheduler struct {
		SampleInterval time.Duration
	}

	Cache struct {
		MaxAge time.Duration
	}

	Database struct {
		DSN string
	}
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if err := godotenv.Load(); err != nil {
		zap.L().Info("No .env file found, using environment variables")
	}

	cfg := &Config{}

	// Server configuration
	cfg.Server.Port = getEnv("SERVER_PORT", "8080")
	cfg.Server.IngestPort = getEnv("INGEST_PORT", "8081")
	cfg.Server.ReadTimeout = parseDuration(getEnv("SERVER_READ_TIMEOUT", "10s"))
	cfg.Server.WriteTimeout = parseDuration(getEnv("SERVER_WRITE_TIMEOUT", "10s"))

	// Tracked location (defaults: Kuala Lumpur)
	cfg.Location.Latitude = parseFloat(getEnv("LOCATION_LATITUDE", "3.139"))
	cfg.Location.Longitude = parseFloat(getEnv("LOCATION_LONGITUDE", "101.6869"))
	cfg.Location.Timezone = getEnv("LOCATION_TIMEZONE", "Asia/Kuala_Lumpur")

	tz, err := time.LoadLocation(cfg.Location.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid LOCATION_TIMEZONE %q: %w", cfg.Location.Timezone, err)
	}
	cfg.Location.TZ = tz

	// Weather API configuration
	cfg.WeatherAPI.BaseURL = getEnv("OPENMETEO_URL", "https://api.open-meteo.com/v1")
	cfg.WeatherAPI.HTTPTimeout = parseDuration(getEnv("HTTP_TIMEOUT", "5s"))

	// Scheduler configuration
	cfg.Scheduler.SampleInterval = parseDuration(getEnv("SAMPLE_INTERVAL", "1m"))
	if cfg.Scheduler.SampleInterval <= 0 {
		return nil, fmt.Errorf("SAMPLE_INTERVAL must be a positive duration")
	}

	// Read-side cache configuration
	cfg.Cache.MaxAge = parseDuration(getEnv("CACHE_MAX_AGE", "30s"))

	// Database configuration
	cfg.Database.DSN = databaseDSN()

	return cfg, nil
}

// databaseDSN assembles the MySQL DSN from discrete DB_* variables,
// falling back to DATABASE_DSN and then to a local default.
func databaseDSN() string {
	user := os.Getenv("DB_USER")
	password := os.Getenv("DB_PASSWORD")
	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	name := os.Getenv("DB_NAME")

	if user != "" && password != "" && host != "" && port != "" && name != "" {
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true", user, password, host, port, name)
	}

	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		return dsn
	}

	return "weather:weather@tcp(localhost:3306)/forecast_verifier?parseTime=true"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(value string) time.Duration {
	duration, err := time.ParseDuration(value)
	if err != nil {
		zap.L().Warn("Failed to parse duration", zap.String("value", value), zap.Error(err))
		return 0
	}
	return duration
}

func parseFloat(value string) float64 {
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		zap.L().Warn("Failed to parse float", zap.String("value", value), zap.Error(err))
		return 0
	}
	return floatValue
}
