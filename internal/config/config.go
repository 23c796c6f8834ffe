package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Extractor ExtractorConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
	Metrics   MetricsConfig
	Cache     CacheConfig
	Database  DatabaseConfig
	Tracing   TracingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	PublicDir       string
}

// ExtractorConfig holds yt-dlp invocation settings
type ExtractorConfig struct {
	Path         string
	ExtraArgs    []string
	InfoTimeout  time.Duration
	WaitDelay    time.Duration
	ChunkSize    int
	MaxInfoBytes int64
}

// RateLimitConfig holds per-client admission settings for /api
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	Burst             int
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level  string
	Format string
	Output string
}

// MetricsConfig holds prometheus server settings
type MetricsConfig struct {
	Enabled bool
	Port    int
}

// CacheConfig holds the redis metadata cache settings
type CacheConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	TTL      time.Duration
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
	MinConns int
}

// TracingConfig holds jaeger settings
type TracingConfig struct {
	Enabled     bool
	ServiceName string
	Endpoint    string
}

// Address returns the listen address of the HTTP server
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Load reads configuration from file and environment variables.
// An empty configPath skips the file and uses defaults plus environment.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults
	setDefaults(v)

	// PORT is honoured for parity with common PaaS environments
	if err := v.BindEnv("server.port", "SERVER_PORT", "PORT"); err != nil {
		return nil, fmt.Errorf("failed to bind env: %w", err)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks values that would otherwise fail at runtime
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if strings.TrimSpace(c.Extractor.Path) == "" {
		return errors.New("extractor path must not be empty")
	}
	if c.Extractor.ChunkSize <= 0 {
		return fmt.Errorf("invalid extractor chunk size %d", c.Extractor.ChunkSize)
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerMinute <= 0 || c.RateLimit.Burst <= 0) {
		return errors.New("rate limit requires positive requestsPerMinute and burst")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.readTimeout", "30s")
	// Downloads stream for as long as the extractor produces output
	v.SetDefault("server.writeTimeout", "0s")
	v.SetDefault("server.shutdownTimeout", "10s")
	v.SetDefault("server.publicDir", "public")

	// Extractor defaults
	v.SetDefault("extractor.path", "yt-dlp")
	v.SetDefault("extractor.extraArgs", []string{})
	v.SetDefault("extractor.infoTimeout", "60s")
	v.SetDefault("extractor.waitDelay", "5s")
	v.SetDefault("extractor.chunkSize", 32*1024)          // 32KB
	v.SetDefault("extractor.maxInfoBytes", 32*1024*1024) // 32MB

	// Rate limit defaults
	v.SetDefault("rateLimit.enabled", true)
	v.SetDefault("rateLimit.requestsPerMinute", 12)
	v.SetDefault("rateLimit.burst", 12)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)

	// Cache defaults
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.host", "localhost")
	v.SetDefault("cache.port", 6379)
	v.SetDefault("cache.password", "")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.ttl", "10m")

	// Database defaults
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "mediagate")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.maxConns", 10)
	v.SetDefault("database.minConns", 1)

	// Tracing defaults
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.serviceName", "mediagate")
	v.SetDefault("tracing.endpoint", "")
}
