package config

import (
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server struct {
		Port    string
		Env     string
		Timeout time.Duration
	}

	// Database configuration
	Database struct {
		Host     string
		Port     string
		User     string
		Password string
		Name     string
		SSLMode  string
		MaxConns int
	}

	// Inference service endpoints
	Inference struct {
		BaseURL   string
		ChatPath  string
		EmbedPath string
		Timeout   time.Duration
	}

	// Conversation cache settings
	Cache struct {
		TTL         time.Duration
		MaxSize     int
		PurgeWindow time.Duration
	}

	// Session marker settings
	Session struct {
		RedisAddr     string
		RedisPassword string
		RedisDB       int
		TTL           time.Duration
	}

	// Embedding pipeline settings
	Embedding struct {
		Workers    int
		QueueSize  int
		JobTimeout time.Duration
	}

	// Security configuration
	Security struct {
		RateLimit      float64
		RateLimitBurst int
	}

	// Logging configuration
	Logging struct {
		Level  string
		Format string
	}
}

var (
	instance *Config
	once     sync.Once
)

// New creates a new Config instance with values from environment variables.
// Uses singleton pattern to ensure only one instance exists.
func New() *Config {
	once.Do(func() {
		// Load .env file if exists
		godotenv.Load()

		instance = &Config{}

		// Server config
		instance.Server.Port = getEnvString("PORT", "8080")
		instance.Server.Env = getEnvString("APP_ENV", "development")
		instance.Server.Timeout = getEnvDuration("SERVER_TIMEOUT", 30*time.Second)

		// Database config
		instance.Database.Host = getEnvString("DB_HOST", "localhost")
		instance.Database.Port = getEnvString("DB_PORT", "5432")
		instance.Database.User = getEnvString("DB_USER", "postgres")
		instance.Database.Password = getEnvString("DB_PASSWORD", "postgres")
		instance.Database.Name = getEnvString("DB_NAME", "character-chat")
		instance.Database.SSLMode = getEnvString("DB_SSL_MODE", "disable")
		instance.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 20)

		// Inference service config
		instance.Inference.BaseURL = getEnvString("AI_SERVICE_URL", "http://localhost:8000")
		instance.Inference.ChatPath = getEnvString("AI_CHAT_PATH", "/chat")
		instance.Inference.EmbedPath = getEnvString("AI_EMBED_PATH", "/embed")
		instance.Inference.Timeout = getEnvDuration("AI_TIMEOUT", 30*time.Second)

		// Cache settings; conversation entries are rebuilt from the database
		// after the TTL elapses
		instance.Cache.TTL = getEnvDuration("CACHE_TTL", 24*time.Hour)
		instance.Cache.MaxSize = getEnvInt("CACHE_MAX_SIZE", 1000)
		instance.Cache.PurgeWindow = getEnvDuration("CACHE_PURGE_WINDOW", 10*time.Minute)

		// Session marker settings
		instance.Session.RedisAddr = getEnvString("REDIS_ADDR", "")
		instance.Session.RedisPassword = getEnvString("REDIS_PASSWORD", "")
		instance.Session.RedisDB = getEnvInt("REDIS_DB", 0)
		instance.Session.TTL = getEnvDuration("SESSION_TTL", 24*time.Hour)

		// Embedding pipeline settings
		instance.Embedding.Workers = getEnvInt("EMBED_WORKERS", 2)
		instance.Embedding.QueueSize = getEnvInt("EMBED_QUEUE_SIZE", 100)
		instance.Embedding.JobTimeout = getEnvDuration("EMBED_JOB_TIMEOUT", 60*time.Second)

		// Security config
		instance.Security.RateLimit = float64(getEnvInt("RATE_LIMIT", 5))
		instance.Security.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", 10)

		// Logging config
		instance.Logging.Level = getEnvString("LOG_LEVEL", "info")
		instance.Logging.Format = getEnvString("LOG_FORMAT", "json")
	})

	return instance
}

// Get returns the singleton Config instance
func Get() *Config {
	if instance == nil {
		return New()
	}
	return instance
}

// Helper functions to read environment variables with default values

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
