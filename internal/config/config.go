package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Cart storage backends
const (
	CartBackendMemory  = "memory"
	CartBackendSession = "session"
	CartBackendRedis   = "redis"
	CartBackendSQL     = "sql"
)

type Config struct {
	Server   ServerConfig
	Session  SessionConfig
	Cart     CartConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Checkout CheckoutConfig
	Receipts ReceiptConfig
	R2       R2Config
	Queue    QueueConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port           string
	Host           string
	Env            string
	AllowedOrigins []string
}

type SessionConfig struct {
	Secret string
	MaxAge int
	Secure bool
}

type CartConfig struct {
	Backend string
	TTL     time.Duration
}

type DatabaseConfig struct {
	Driver   string // postgres or sqlite3
	URL      string // Full database URL or sqlite file path
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type CheckoutConfig struct {
	ServiceFee           decimal.Decimal
	ReservationWindow    time.Duration
	ReservationEnforced  bool
	PlaceholderEventName string
	DocumentHashSalt     string
}

type ReceiptConfig struct {
	Backend  string // local or r2
	LocalDir string
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	Region          string
	Endpoint        string
}

type QueueConfig struct {
	URL        string
	OrderQueue string
}

type LogConfig struct {
	Level       string
	Development bool
}

func Load() (*Config, error) {
	// Load .env files if they exist (try .env.local first, then .env)
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	env := getEnv("ENV", "development")

	config := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Host:           getEnv("HOST", "localhost"),
			Env:            env,
			AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		},
		Session: SessionConfig{
			Secret: getEnv("SESSION_SECRET", "your-secret-key-change-in-production"),
			MaxAge: getEnvAsInt("SESSION_MAX_AGE", 86400*7),
			Secure: getEnvAsBool("SESSION_SECURE", env == "production"),
		},
		Cart: CartConfig{
			Backend: getEnv("CART_BACKEND", CartBackendSession),
			TTL:     getEnvAsDuration("CART_TTL", 7*24*time.Hour),
		},
		Database: parseDatabaseConfig(),
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Checkout: CheckoutConfig{
			ServiceFee:           getEnvAsDecimal("SERVICE_FEE", decimal.NewFromInt(25)),
			ReservationWindow:    time.Duration(getEnvAsInt("RESERVATION_MINUTES", 10)) * time.Minute,
			ReservationEnforced:  getEnvAsBool("RESERVATION_ENFORCED", true),
			PlaceholderEventName: getEnv("PLACEHOLDER_EVENT_NAME", "Festival de Música Eletrônica 2024"),
			DocumentHashSalt:     getEnv("DOCUMENT_HASH_SALT", "change-me-document-salt"),
		},
		Receipts: ReceiptConfig{
			Backend:  getEnv("RECEIPT_BACKEND", "local"),
			LocalDir: getEnv("RECEIPT_DIR", "./data/receipts"),
		},
		R2: R2Config{
			AccountID:       getEnv("R2_ACCOUNT_ID", ""),
			AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
			BucketName:      getEnv("R2_BUCKET_NAME", "tixup-receipts"),
			Region:          getEnv("R2_REGION", "auto"),
			Endpoint:        getEnv("R2_ENDPOINT", ""),
		},
		Queue: QueueConfig{
			URL:        getEnv("RABBITMQ_URL", ""),
			OrderQueue: getEnv("ORDER_QUEUE", "order.completed"),
		},
		Log: LogConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: env == "development",
		},
	}

	return config, nil
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

func parseDatabaseConfig() DatabaseConfig {
	driver := getEnv("DB_DRIVER", "sqlite3")

	// Check if DATABASE_URL is provided
	databaseURL := getEnv("DATABASE_URL", "")
	if databaseURL != "" {
		config := parseDatabaseURL(databaseURL)
		config.Driver = driver
		return config
	}

	if driver == "sqlite3" {
		return DatabaseConfig{
			Driver: driver,
			URL:    getEnv("DB_PATH", "./data/tixup.db"),
		}
	}

	// Fall back to individual environment variables
	return DatabaseConfig{
		Driver:   driver,
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvAsInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		DBName:   getEnv("DB_NAME", "tixup"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}
}

func parseDatabaseURL(databaseURL string) DatabaseConfig {
	config := DatabaseConfig{
		URL: databaseURL,
	}

	// Parse the URL
	u, err := url.Parse(databaseURL)
	if err != nil || u.Scheme == "" {
		// Plain file paths (sqlite) are kept as-is
		return config
	}

	config.Host = u.Hostname()
	if u.Port() != "" {
		config.Port, _ = strconv.Atoi(u.Port())
	} else {
		config.Port = 5432 // Default PostgreSQL port
	}

	if u.User != nil {
		config.User = u.User.Username()
		config.Password, _ = u.User.Password()
	}

	// Remove leading slash from path to get database name
	config.DBName = strings.TrimPrefix(u.Path, "/")

	config.SSLMode = u.Query().Get("sslmode")
	if config.SSLMode == "" {
		config.SSLMode = "disable"
	}

	return config
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}
