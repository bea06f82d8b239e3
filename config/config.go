package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

type Config struct {
	// Server settings
	ServerPort   string        `json:"server_port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
	Debug        bool          `json:"debug"`

	// Application paths
	LogDir   string `json:"log_dir"`
	AudioDir string `json:"audio_dir"`

	// Database settings
	Database DatabaseConfig `json:"database"`

	// OpenAI settings
	OpenAI OpenAIConfig `json:"openai"`

	// Ingestion settings
	Ingest IngestConfig `json:"ingest"`

	// Embedding quota (rolling window, shared across the process)
	EmbedLimit EmbedLimitConfig `json:"embed_limit"`

	// HTTP middleware settings
	CORS      CORSConfig      `json:"cors"`
	RateLimit RateLimitConfig `json:"rate_limit"`

	// Shutdown and housekeeping
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	StaleVideoGrace time.Duration `json:"stale_video_grace"`
	SweepInterval   time.Duration `json:"sweep_interval"`
}

type DatabaseConfig struct {
	URL                string        `json:"url"`
	MaxConnections     int           `json:"max_connections"`
	MaxIdleConnections int           `json:"max_idle_connections"`
	ConnMaxLifetime    time.Duration `json:"conn_max_lifetime"`
}

type OpenAIConfig struct {
	APIKey       string `json:"-"`
	ChatModel    string `json:"chat_model"`
	WhisperModel string `json:"whisper_model"`
}

type IngestConfig struct {
	ChunkSize        int           `json:"chunk_size"`
	EmbedConcurrency int           `json:"embed_concurrency"`
	EmbedRetries     int           `json:"embed_retries"`
	ProcessTimeout   time.Duration `json:"process_timeout"`
}

type EmbedLimitConfig struct {
	RequestsPerWindow int           `json:"requests_per_window"`
	Window            time.Duration `json:"window"`
	PollInterval      time.Duration `json:"poll_interval"`
}

type CORSConfig struct {
	Enabled          bool     `json:"enabled"`
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowedMethods   []string `json:"allowed_methods"`
	AllowedHeaders   []string `json:"allowed_headers"`
	AllowCredentials bool     `json:"allow_credentials"`
	MaxAge           int      `json:"max_age"`
}

type RateLimitConfig struct {
	Enabled           bool `json:"enabled"`
	RequestsPerMinute int  `json:"requests_per_minute"`
	BurstSize         int  `json:"burst_size"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:   getEnv("SERVER_PORT", "8080"),
		ReadTimeout:  getEnvAsDuration("READ_TIMEOUT", 15*time.Second),
		WriteTimeout: getEnvAsDuration("WRITE_TIMEOUT", 15*time.Minute),
		IdleTimeout:  getEnvAsDuration("IDLE_TIMEOUT", 60*time.Second),
		Debug:        getEnvAsBool("DEBUG", false),

		LogDir:   getEnv("LOG_DIR", "/var/log/vidqa"),
		AudioDir: getEnv("AUDIO_DIR", filepath.Join(xdg.CacheHome, "vidqa", "audio")),

		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", "postgres://localhost:5432/vidqa?sslmode=disable"),
			MaxConnections:     getEnvAsInt("DB_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DB_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    getEnvAsDuration("DB_CONN_MAX_LIFETIME", time.Hour),
		},

		OpenAI: OpenAIConfig{
			APIKey:       getEnv("OPENAI_API_KEY", ""),
			ChatModel:    getEnv("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
			WhisperModel: getEnv("OPENAI_WHISPER_MODEL", "whisper-1"),
		},

		Ingest: IngestConfig{
			ChunkSize:        getEnvAsInt("CHUNK_SIZE", 2000),
			EmbedConcurrency: getEnvAsInt("EMBED_CONCURRENCY", 5),
			EmbedRetries:     getEnvAsInt("EMBED_RETRIES", 3),
			ProcessTimeout:   getEnvAsDuration("PROCESS_TIMEOUT", 30*time.Minute),
		},

		EmbedLimit: EmbedLimitConfig{
			RequestsPerWindow: getEnvAsInt("EMBED_RPM", 100),
			Window:            getEnvAsDuration("EMBED_WINDOW", time.Minute),
			PollInterval:      getEnvAsDuration("EMBED_POLL_INTERVAL", 600*time.Millisecond),
		},

		CORS: CORSConfig{
			Enabled:          getEnvAsBool("CORS_ENABLED", true),
			AllowedOrigins:   getEnvAsStringSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods:   getEnvAsStringSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "DELETE", "OPTIONS"}),
			AllowedHeaders:   getEnvAsStringSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type"}),
			AllowCredentials: getEnvAsBool("CORS_ALLOW_CREDENTIALS", false),
			MaxAge:           getEnvAsInt("CORS_MAX_AGE", 86400),
		},

		RateLimit: RateLimitConfig{
			Enabled:           getEnvAsBool("RATE_LIMIT_ENABLED", true),
			RequestsPerMinute: getEnvAsInt("RATE_LIMIT_RPM", 60),
			BurstSize:         getEnvAsInt("RATE_LIMIT_BURST", 10),
		},

		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		StaleVideoGrace: getEnvAsDuration("STALE_VIDEO_GRACE", time.Hour),
		SweepInterval:   getEnvAsDuration("SWEEP_INTERVAL", 15*time.Minute),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validatePaths(c); err != nil {
		return err
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("read timeout must be positive")
	}
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("write timeout must be positive")
	}
	if c.Database.URL == "" {
		return fmt.Errorf("database URL is required")
	}
	if c.Ingest.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive")
	}
	if c.Ingest.EmbedConcurrency <= 0 {
		return fmt.Errorf("embed concurrency must be positive")
	}
	if c.EmbedLimit.RequestsPerWindow <= 0 || c.EmbedLimit.Window <= 0 {
		return fmt.Errorf("embedding rate limit must be positive")
	}
	return nil
}

func validatePaths(c *Config) error {
	paths := []struct {
		path string
		name string
	}{
		{c.LogDir, "log directory"},
		{c.AudioDir, "audio directory"},
	}

	for _, p := range paths {
		if err := os.MkdirAll(p.path, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", p.name, err)
		}
	}

	return nil
}

// Helper functions for reading environment variables
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsStringSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists {
		if value = strings.TrimSpace(value); value != "" {
			return strings.Split(value, ",")
		}
	}
	return defaultValue
}
