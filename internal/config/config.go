package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server     ServerConfig
	Search     SearchConfig
	Fetcher    FetcherConfig
	Classifier ClassifierConfig
	Discovery  DiscoveryConfig
	Scraper    ScraperConfig
	Browser    BrowserConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Logging    LoggingConfig
}

type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

type SearchConfig struct {
	Providers    []string
	Primary      string
	BingKeys     []string
	BingEndpoint string
	BraveKeys    []string
	BraveURL     string
	ResultCount  int
	Timeout      time.Duration
	MaxAttempts  int
	BaseDelay    time.Duration
	MaxBackoff   time.Duration
	MaxTotal     time.Duration
	CacheTTL     time.Duration
	CacheBackend string
	MinInterval  time.Duration
	MaxInterval  time.Duration
}

type FetcherConfig struct {
	Timeout      time.Duration
	MaxRetries   int
	RetryDelay   time.Duration
	RatePerHost  float64
	UserAgents   []string
	MaxBodyBytes int64
}

type ClassifierConfig struct {
	RealThreshold int
	MinKeywords   int
	AllowedTLDs   []string
}

type DiscoveryConfig struct {
	TopK       int
	QueryDelay time.Duration
	MinHTML    int
}

type ScraperConfig struct {
	Concurrency       int
	MinDiscoveryScore int
	Timeout           time.Duration
	UseBrowser        bool
	PriceMin          float64
	PriceMax          float64
}

type BrowserConfig struct {
	Headless       bool
	Timeout        time.Duration
	ViewportWidth  int
	ViewportHeight int
	AcceptLanguage string
	TimezoneID     string
	Locale         string
}

type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	MaxConns int32
}

type RedisConfig struct {
	Enabled       bool
	Addr          string
	Password      string
	DB            int
	ResultsStream string
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvOrDefault("SERVER_PORT", "8080"),
			Host:            getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 5*time.Minute),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			AllowedOrigins:  getStringSliceOrDefault("CORS_ALLOWED_ORIGINS", []string{"http://localhost:*", "https://localhost:*"}),
		},
		Search: SearchConfig{
			Providers:    getStringSliceOrDefault("SEARCH_PROVIDERS", []string{"bing", "brave"}),
			Primary:      getEnvOrDefault("SEARCH_PRIMARY", "bing"),
			BingKeys:     getStringSliceOrDefault("BING_API_KEYS", []string{}),
			BingEndpoint: getEnvOrDefault("BING_ENDPOINT", "https://api.bing.microsoft.com/v7.0/search"),
			BraveKeys:    getStringSliceOrDefault("BRAVE_API_KEYS", []string{}),
			BraveURL:     getEnvOrDefault("BRAVE_ENDPOINT", "https://api.search.brave.com/res/v1/web/search"),
			ResultCount:  getIntOrDefault("SEARCH_RESULT_COUNT", 10),
			Timeout:      getDurationOrDefault("SEARCH_TIMEOUT", 10*time.Second),
			MaxAttempts:  getIntOrDefault("SEARCH_MAX_ATTEMPTS", 3),
			BaseDelay:    getDurationOrDefault("SEARCH_BASE_DELAY", 500*time.Millisecond),
			MaxBackoff:   getDurationOrDefault("SEARCH_MAX_BACKOFF", 10*time.Second),
			MaxTotal:     getDurationOrDefault("SEARCH_MAX_TOTAL_BACKOFF", 10*time.Second),
			CacheTTL:     getDurationOrDefault("SEARCH_CACHE_TTL", 24*time.Hour),
			CacheBackend: getEnvOrDefault("SEARCH_CACHE", "memory"),
			MinInterval:  getDurationOrDefault("SEARCH_MIN_INTERVAL", 200*time.Millisecond),
			MaxInterval:  getDurationOrDefault("SEARCH_MAX_INTERVAL", 600*time.Millisecond),
		},
		Fetcher: FetcherConfig{
			Timeout:      getDurationOrDefault("FETCH_TIMEOUT", 15*time.Second),
			MaxRetries:   getIntOrDefault("FETCH_MAX_RETRIES", 2),
			RetryDelay:   getDurationOrDefault("FETCH_RETRY_DELAY", time.Second),
			RatePerHost:  getFloatOrDefault("FETCH_RATE_PER_HOST", 1),
			UserAgents:   getStringSliceOrDefault("FETCH_USER_AGENTS", defaultUserAgents()),
			MaxBodyBytes: int64(getIntOrDefault("FETCH_MAX_BODY_BYTES", 5<<20)),
		},
		Classifier: ClassifierConfig{
			RealThreshold: getIntOrDefault("CLASSIFIER_REAL_THRESHOLD", 20),
			MinKeywords:   getIntOrDefault("CLASSIFIER_MIN_KEYWORDS", 2),
			AllowedTLDs:   getStringSliceOrDefault("CLASSIFIER_ALLOWED_TLDS", defaultAllowedTLDs()),
		},
		Discovery: DiscoveryConfig{
			TopK:       getIntOrDefault("DISCOVERY_TOP_K", 3),
			QueryDelay: getDurationOrDefault("DISCOVERY_QUERY_DELAY", time.Second),
			MinHTML:    getIntOrDefault("DISCOVERY_MIN_HTML", 5000),
		},
		Scraper: ScraperConfig{
			Concurrency:       getIntOrDefault("SCRAPER_CONCURRENCY", 2),
			MinDiscoveryScore: getIntOrDefault("SCRAPER_MIN_DISCOVERY_SCORE", 25),
			Timeout:           getDurationOrDefault("SCRAPER_TIMEOUT", 30*time.Second),
			UseBrowser:        getBoolOrDefault("SCRAPER_USE_BROWSER", false),
			PriceMin:          getFloatOrDefault("PRICE_MIN", 10),
			PriceMax:          getFloatOrDefault("PRICE_MAX", 300),
		},
		Browser: BrowserConfig{
			Headless:       getBoolOrDefault("BROWSER_HEADLESS", true),
			Timeout:        getDurationOrDefault("BROWSER_TIMEOUT", 30*time.Second),
			ViewportWidth:  getIntOrDefault("BROWSER_VIEWPORT_WIDTH", 1920),
			ViewportHeight: getIntOrDefault("BROWSER_VIEWPORT_HEIGHT", 1080),
			AcceptLanguage: getEnvOrDefault("BROWSER_ACCEPT_LANGUAGE", "en-US,en;q=0.9"),
			TimezoneID:     getEnvOrDefault("BROWSER_TIMEZONE", "America/New_York"),
			Locale:         getEnvOrDefault("BROWSER_LOCALE", "en-US"),
		},
		Database: DatabaseConfig{
			Enabled:  getBoolOrDefault("DB_ENABLED", false),
			Host:     getEnvOrDefault("DB_HOST", "localhost"),
			Port:     getIntOrDefault("DB_PORT", 5432),
			User:     getEnvOrDefault("DB_USER", "postgres"),
			Password: getEnvOrDefault("DB_PASSWORD", ""),
			DBName:   getEnvOrDefault("DB_NAME", "salon_prices"),
			MaxConns: int32(getIntOrDefault("DB_MAX_CONNS", 10)),
		},
		Redis: RedisConfig{
			Enabled:       getBoolOrDefault("REDIS_ENABLED", false),
			Addr:          getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
			Password:      getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:            getIntOrDefault("REDIS_DB", 0),
			ResultsStream: getEnvOrDefault("REDIS_RESULTS_STREAM", "stream:competitor_prices"),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Scraper.Concurrency < 1 {
		return fmt.Errorf("SCRAPER_CONCURRENCY must be at least 1")
	}

	if c.Search.MaxAttempts < 1 {
		return fmt.Errorf("SEARCH_MAX_ATTEMPTS must be at least 1")
	}

	if c.Search.MaxTotal <= 0 {
		return fmt.Errorf("SEARCH_MAX_TOTAL_BACKOFF must be positive")
	}

	if c.Classifier.MinKeywords < 0 {
		return fmt.Errorf("CLASSIFIER_MIN_KEYWORDS cannot be negative")
	}

	if c.Discovery.TopK < 1 {
		return fmt.Errorf("DISCOVERY_TOP_K must be at least 1")
	}

	if c.Scraper.PriceMin >= c.Scraper.PriceMax {
		return fmt.Errorf("PRICE_MIN must be lower than PRICE_MAX")
	}

	if c.Search.CacheBackend != "memory" && c.Search.CacheBackend != "redis" {
		return fmt.Errorf("SEARCH_CACHE must be memory or redis")
	}

	if c.Search.CacheBackend == "redis" && !c.Redis.Enabled {
		return fmt.Errorf("SEARCH_CACHE=redis requires REDIS_ENABLED")
	}

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return d
		}
	}
	return defaultValue
}

func getStringSliceOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func defaultUserAgents() []string {
	return []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
	}
}

func defaultAllowedTLDs() []string {
	return []string{"com", "net", "org", "us", "biz", "co", "salon", "spa", "beauty", "nails"}
}
