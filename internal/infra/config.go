package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv           string
	Port             string
	DatabaseURL      string
	JWTSecret        string
	StoragePath      string
	PublicBaseURL    string
	GeoIPDBPath      string
	VideoAPIKey      string
	VideoBaseURL     string
	VideoModel       string
	ImageAPIKey      string
	ImageBaseURL     string
	ImageModel       string
	PollInterval     time.Duration
	PollMaxAttempts  int
	StorageRetries   int
	AllowedOrigins   []string
	StatsToken       string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
	ShutdownTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		StoragePath:      getEnv("STORAGE_PATH", "./data/media"),
		PublicBaseURL:    getEnv("PUBLIC_BASE_URL", "http://localhost:8080/static"),
		GeoIPDBPath:      os.Getenv("GEOIP_DB_PATH"),
		VideoAPIKey:      os.Getenv("VIDEO_API_KEY"),
		VideoBaseURL:     getEnv("VIDEO_BASE_URL", "https://api.videosynth.example.com/v1"),
		VideoModel:       getEnv("VIDEO_MODEL", "motion-2.0"),
		ImageAPIKey:      os.Getenv("IMAGE_API_KEY"),
		ImageBaseURL:     getEnv("IMAGE_BASE_URL", "https://api.imagesynth.example.com/v1"),
		ImageModel:       getEnv("IMAGE_MODEL", "plate-xl"),
		PollInterval:     time.Second * time.Duration(getEnvInt("POLL_INTERVAL_SECONDS", 10)),
		PollMaxAttempts:  getEnvInt("POLL_MAX_ATTEMPTS", 360),
		StorageRetries:   getEnvInt("STORAGE_RETRIES", 3),
		AllowedOrigins:   splitList(os.Getenv("ALLOWED_ORIGINS")),
		StatsToken:       os.Getenv("STATS_TOKEN"),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		ShutdownTimeout:  time.Second * time.Duration(getEnvInt("SHUTDOWN_TIMEOUT_SECONDS", 20)),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("POLL_INTERVAL_SECONDS must be positive")
	}

	if cfg.PollMaxAttempts <= 0 {
		return nil, fmt.Errorf("POLL_MAX_ATTEMPTS must be positive")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitList(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
