package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Tracker  TrackerConfig
	Browser  BrowserConfig
	Database DatabaseConfig
	Mail     MailConfig
	Logging  LoggingConfig
}

type TrackerConfig struct {
	WishlistURL     string
	ProductURLBase  string
	MaxRetries      int
	RetryBaseDelay  time.Duration
	ScrollAttempts  int
	ScrollPause     time.Duration
	ContainerWait   time.Duration
	PriceWidgetWait time.Duration
	RateLimitMin    time.Duration
	RateLimitMax    time.Duration
}

type BrowserConfig struct {
	Headless        bool
	PageLoadTimeout time.Duration
	ViewportWidth   int
	ViewportHeight  int
	UserAgent       string
}

type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	Name        string
	MaxConns    int32
	MinConns    int32
	MaxConnLife time.Duration
	MaxConnIdle time.Duration
}

type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from the environment, preferring values from a
// .env file in the working directory when one exists.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using process environment")
	}

	cfg := &Config{
		Tracker: TrackerConfig{
			WishlistURL:     os.Getenv("TRACKER_WISHLIST_URL"),
			ProductURLBase:  getEnvOrDefault("TRACKER_PRODUCT_URL_BASE", "https://www.amazon.com/dp/"),
			MaxRetries:      getIntOrDefault("TRACKER_MAX_RETRIES", 5),
			RetryBaseDelay:  getDurationOrDefault("TRACKER_RETRY_BASE_DELAY", 2*time.Second),
			ScrollAttempts:  getIntOrDefault("TRACKER_SCROLL_ATTEMPTS", 10),
			ScrollPause:     getDurationOrDefault("TRACKER_SCROLL_PAUSE", 2*time.Second),
			ContainerWait:   getDurationOrDefault("TRACKER_CONTAINER_WAIT", 30*time.Second),
			PriceWidgetWait: getDurationOrDefault("TRACKER_PRICE_WIDGET_WAIT", 10*time.Second),
			RateLimitMin:    getDurationOrDefault("TRACKER_RATE_LIMIT_MIN", 2*time.Second),
			RateLimitMax:    getDurationOrDefault("TRACKER_RATE_LIMIT_MAX", 8*time.Second),
		},
		Browser: BrowserConfig{
			Headless:        getBoolOrDefault("BROWSER_HEADLESS", true),
			PageLoadTimeout: getDurationOrDefault("BROWSER_PAGE_LOAD_TIMEOUT", 30*time.Second),
			ViewportWidth:   getIntOrDefault("BROWSER_VIEWPORT_WIDTH", 1400),
			ViewportHeight:  getIntOrDefault("BROWSER_VIEWPORT_HEIGHT", 1500),
			UserAgent:       getEnvOrDefault("BROWSER_USER_AGENT", defaultUserAgent),
		},
		Database: DatabaseConfig{
			Host:        getEnvOrDefault("DB_HOST", "localhost"),
			Port:        getIntOrDefault("DB_PORT", 5432),
			User:        getEnvOrDefault("DB_USER", "postgres"),
			Password:    getEnvOrDefault("DB_PASSWORD", ""),
			Name:        getEnvOrDefault("DB_NAME", "product_tracker"),
			MaxConns:    int32(getIntOrDefault("DB_MAX_CONNS", 5)),
			MinConns:    int32(getIntOrDefault("DB_MIN_CONNS", 1)),
			MaxConnLife: getDurationOrDefault("DB_MAX_CONN_LIFE", time.Hour),
			MaxConnIdle: getDurationOrDefault("DB_MAX_CONN_IDLE", 30*time.Minute),
		},
		Mail: MailConfig{
			Host:     getEnvOrDefault("SMTP_HOST", "smtp.gmail.com"),
			Port:     getIntOrDefault("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     os.Getenv("MAIL_FROM"),
			To:       os.Getenv("MAIL_TO"),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "text"),
		},
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Tracker.WishlistURL == "" {
		return fmt.Errorf("TRACKER_WISHLIST_URL is required")
	}

	if !strings.HasSuffix(c.Tracker.ProductURLBase, "/") {
		return fmt.Errorf("TRACKER_PRODUCT_URL_BASE must end with a slash")
	}

	if c.Tracker.MaxRetries < 1 {
		return fmt.Errorf("TRACKER_MAX_RETRIES must be at least 1")
	}

	if c.Tracker.RateLimitMin > c.Tracker.RateLimitMax {
		return fmt.Errorf("TRACKER_RATE_LIMIT_MIN cannot be greater than TRACKER_RATE_LIMIT_MAX")
	}

	if c.Database.MaxConns < 1 {
		return fmt.Errorf("DB_MAX_CONNS must be at least 1")
	}

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
