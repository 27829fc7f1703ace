package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Sources   SourcesConfig   `yaml:"sources" envconfig:"SOURCES"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
	Cache     CacheConfig     `yaml:"cache" envconfig:"CACHE"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RefreshTimeout  time.Duration `yaml:"refresh_timeout" envconfig:"REFRESH_TIMEOUT" default:"2m"`
}

// SourcesConfig describes the external data sources feeding the dashboard
type SourcesConfig struct {
	ClimateBaseURL  string        `yaml:"climate_base_url" envconfig:"CLIMATE_BASE_URL" default:"https://archive-api.open-meteo.com/v1/archive"`
	QuotesBaseURL   string        `yaml:"quotes_base_url" envconfig:"QUOTES_BASE_URL" default:"https://query1.finance.yahoo.com/v8/finance/chart"`
	Latitude        float64       `yaml:"latitude" envconfig:"LATITUDE" default:"-12.54"`
	Longitude       float64       `yaml:"longitude" envconfig:"LONGITUDE" default:"-55.72"`
	Timezone        string        `yaml:"timezone" envconfig:"TIMEZONE" default:"America/Sao_Paulo"`
	CommoditySymbol string        `yaml:"commodity_symbol" envconfig:"COMMODITY_SYMBOL" default:"ZS=F"`
	WindowYears     int           `yaml:"window_years" envconfig:"WINDOW_YEARS" default:"3"`
	HTTPTimeout     time.Duration `yaml:"http_timeout" envconfig:"HTTP_TIMEOUT" default:"10s"`
	MaxRetries      int           `yaml:"max_retries" envconfig:"MAX_RETRIES" default:"2"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"100"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"50"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format      string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output      string `yaml:"output" envconfig:"OUTPUT" default:"both"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/app.log"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT" default:"true"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	ExecutableDir string `yaml:"executable_dir" envconfig:"EXECUTABLE_DIR"`
	DataDir       string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	ReportsDir    string `yaml:"reports_dir" envconfig:"REPORTS_DIR" default:"data/reports"`
	CacheDir      string `yaml:"cache_dir" envconfig:"CACHE_DIR" default:"data/cache"`
	LogsDir       string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE" default:"1024"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE" default:"1024"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD" default:"30s"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT" default:"60s"`
}

// CacheConfig controls the in-memory result cache
type CacheConfig struct {
	TTL        time.Duration `yaml:"ttl" envconfig:"TTL" default:"15m"`
	MaxEntries int           `yaml:"max_entries" envconfig:"MAX_ENTRIES" default:"64"`
}

// Load loads configuration from environment variables and config file
func Load() (*Config, error) {
	var cfg Config

	// Load from environment variables first
	if err := envconfig.Process("AGRO", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	// Load from config file if exists
	configFile := getConfigFilePath()
	if configFile != "" {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	// Resolve relative paths against the executable directory
	if err := cfg.resolvePaths(); err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs merges file config with env config (env takes precedence)
func mergeConfigs(fileConfig, envConfig Config) Config {
	if envConfig.Server.Port == 0 {
		envConfig.Server.Port = fileConfig.Server.Port
	}
	if envConfig.Server.ReadTimeout == 0 {
		envConfig.Server.ReadTimeout = fileConfig.Server.ReadTimeout
	}
	if envConfig.Sources.ClimateBaseURL == "" {
		envConfig.Sources.ClimateBaseURL = fileConfig.Sources.ClimateBaseURL
	}
	if envConfig.Sources.QuotesBaseURL == "" {
		envConfig.Sources.QuotesBaseURL = fileConfig.Sources.QuotesBaseURL
	}
	if envConfig.Sources.WindowYears == 0 {
		envConfig.Sources.WindowYears = fileConfig.Sources.WindowYears
	}
	if envConfig.Cache.TTL == 0 {
		envConfig.Cache.TTL = fileConfig.Cache.TTL
	}

	return envConfig
}

// resolvePaths sets up the executable directory and resolves configured paths
func (c *Config) resolvePaths() error {
	paths, err := GetPaths()
	if err != nil {
		return fmt.Errorf("failed to get paths: %w", err)
	}

	c.Paths.ExecutableDir = paths.ExecutableDir
	return nil
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Sources.Latitude < -90 || c.Sources.Latitude > 90 {
		return fmt.Errorf("invalid latitude: %f", c.Sources.Latitude)
	}

	if c.Sources.Longitude < -180 || c.Sources.Longitude > 180 {
		return fmt.Errorf("invalid longitude: %f", c.Sources.Longitude)
	}

	if c.Sources.WindowYears < 1 || c.Sources.WindowYears > 20 {
		return fmt.Errorf("window years must be between 1 and 20, got %d", c.Sources.WindowYears)
	}

	if len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}

	// Logging is always JSON with dual output
	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}

	if c.Logging.Output != "both" && c.Logging.Output != "file" && c.Logging.Output != "stdout" {
		c.Logging.Output = "both"
	}

	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/app.log"
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			RefreshTimeout:  2 * time.Minute,
		},
		Sources: SourcesConfig{
			ClimateBaseURL:  "https://archive-api.open-meteo.com/v1/archive",
			QuotesBaseURL:   "https://query1.finance.yahoo.com/v8/finance/chart",
			Latitude:        -12.54,
			Longitude:       -55.72,
			Timezone:        "America/Sao_Paulo",
			CommoditySymbol: "ZS=F",
			WindowYears:     3,
			HTTPTimeout:     10 * time.Second,
			MaxRetries:      2,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:       "info",
			Format:      "json",
			Output:      "both",
			FilePath:    "logs/app.log",
			Development: true,
		},
		Paths: PathsConfig{
			DataDir:    "data",
			ReportsDir: "data/reports",
			CacheDir:   "data/cache",
			LogsDir:    "logs",
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			PingPeriod:      30 * time.Second,
			PongWait:        60 * time.Second,
		},
		Cache: CacheConfig{
			TTL:        15 * time.Minute,
			MaxEntries: 64,
		},
	}
}
