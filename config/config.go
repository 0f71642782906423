package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents the application configuration
type Config struct {
	// Postgres configuration
	DatabaseURL string

	// Redis configuration
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Memcache configuration
	MemcacheAddr string

	// Fetcher configuration
	FetchDelay   time.Duration
	FetchTimeout time.Duration

	// Source configuration
	BossJobsDomains []string
	IndeedURL       string

	// Refresh worker configuration
	RefreshInterval time.Duration
	RefreshDaysOld  int

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	streamCount, _ := strconv.Atoi(getEnv("REDIS_STREAM_COUNT", "1"))
	streamMaxLen, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAX_LENGTH", "500"))
	delayMillis, _ := strconv.Atoi(getEnv("FETCH_DELAY_MS", "1500"))
	timeoutSecs, _ := strconv.Atoi(getEnv("FETCH_TIMEOUT_SECONDS", "15"))
	refreshHours, _ := strconv.Atoi(getEnv("REFRESH_INTERVAL_HOURS", "6"))
	refreshDaysOld, _ := strconv.Atoi(getEnv("REFRESH_DAYS_OLD", "7"))

	return Config{
		DatabaseURL:          getEnv("DATABASE_URL", "postgres://localhost:5432/alumnihub?sslmode=disable"),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "jobs"),
		RedisStreamCount:     streamCount,
		RedisStreamMaxLength: streamMaxLen,
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", "localhost:11211"),
		FetchDelay:           time.Duration(delayMillis) * time.Millisecond,
		FetchTimeout:         time.Duration(timeoutSecs) * time.Second,
		BossJobsDomains:      splitList(getEnv("BOSSJOBS_DOMAINS", "https://www.bossjob.ph,https://www.bossjob.com")),
		IndeedURL:            getEnv("INDEED_URL", "https://www.indeed.com"),
		RefreshInterval:      time.Duration(refreshHours) * time.Hour,
		RefreshDaysOld:       refreshDaysOld,
		Environment:          getEnv("JOBINGEST_ENVIRONMENT", "development"),
	}
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.FetchDelay <= 0 {
		return fmt.Errorf("fetch delay must be positive, got %v", c.FetchDelay)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive, got %v", c.FetchTimeout)
	}
	if len(c.BossJobsDomains) == 0 {
		return fmt.Errorf("at least one BossJobs domain is required")
	}
	for _, d := range c.BossJobsDomains {
		if !strings.HasPrefix(d, "http://") && !strings.HasPrefix(d, "https://") {
			return fmt.Errorf("invalid BossJobs domain %q", d)
		}
	}
	if c.RedisStreamCount <= 0 {
		return fmt.Errorf("redis stream count must be positive, got %d", c.RedisStreamCount)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
