package common

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	OCR      OCRConfig      `yaml:"ocr"`
	Vision   VisionConfig   `yaml:"vision"`
	Cache    CacheConfig    `yaml:"cache"`
	Export   ExportConfig   `yaml:"export"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
	DialTimeout     time.Duration `yaml:"dial_timeout"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	HTTPAddr     string        `yaml:"http_addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	MaxBodyBytes int           `yaml:"max_body_bytes"`
}

// OCRConfig holds tesseract-related configuration
type OCRConfig struct {
	Binary      string        `yaml:"binary"`
	Languages   string        `yaml:"languages"`
	TessdataDir string        `yaml:"tessdata_dir"`
	Timeout     time.Duration `yaml:"timeout"`
}

// VisionConfig holds the cloud vision OCR client configuration. An empty
// APIKey disables the vision engine and the chain runs tesseract only.
type VisionConfig struct {
	Endpoint string        `yaml:"endpoint"`
	APIKey   string        `yaml:"api_key"`
	Timeout  time.Duration `yaml:"timeout"`
}

// CacheConfig holds the local scan ledger configuration
type CacheConfig struct {
	Path string `yaml:"path"`
}

// ExportConfig holds spreadsheet export configuration
type ExportConfig struct {
	OutputDir string `yaml:"output_dir"`
}

func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			MaxConns:        20,
			MinConns:        5,
			MaxConnLifetime: 30 * time.Minute,
			MaxConnIdleTime: 5 * time.Minute,
			DialTimeout:     3 * time.Second,
		},
		Server: ServerConfig{
			HTTPAddr:     ":8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			MaxBodyBytes: 15 << 20,
		},
		OCR: OCRConfig{
			Binary:    "tesseract",
			Languages: "spa+eng",
			Timeout:   60 * time.Second,
		},
		Vision: VisionConfig{
			Endpoint: "https://vision.googleapis.com/v1/images:annotate",
			Timeout:  45 * time.Second,
		},
		Cache: CacheConfig{
			Path: "./scan-cache.db",
		},
		Export: ExportConfig{
			OutputDir: "./exports",
		},
	}
}

// LoadConfig builds the configuration from defaults, an optional YAML file,
// and environment variable overrides, in that order of precedence.
func LoadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, NewAppError("CONFIG_ERROR", "read config file", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, NewAppError("CONFIG_ERROR", "parse config file", err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Database.DSN = getEnv("DB_URL", c.Database.DSN)
	c.Database.MaxConns = getEnvAsInt32("DB_MAX_CONNS", c.Database.MaxConns)
	c.Database.MinConns = getEnvAsInt32("DB_MIN_CONNS", c.Database.MinConns)
	c.Database.MaxConnLifetime = getEnvAsDuration("DB_MAX_CONN_LIFETIME", c.Database.MaxConnLifetime)
	c.Database.MaxConnIdleTime = getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", c.Database.MaxConnIdleTime)
	c.Database.DialTimeout = getEnvAsDuration("DB_DIAL_TIMEOUT", c.Database.DialTimeout)

	c.Server.HTTPAddr = getEnv("HTTP_ADDR", c.Server.HTTPAddr)
	c.Server.ReadTimeout = getEnvAsDuration("HTTP_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvAsDuration("HTTP_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.MaxBodyBytes = getEnvAsInt("HTTP_MAX_BODY_BYTES", c.Server.MaxBodyBytes)

	c.OCR.Binary = getEnv("TESSERACT_BIN", c.OCR.Binary)
	c.OCR.Languages = getEnv("TESSERACT_LANGS", c.OCR.Languages)
	c.OCR.TessdataDir = getEnv("TESSDATA_PREFIX", c.OCR.TessdataDir)
	c.OCR.Timeout = getEnvAsDuration("TESSERACT_TIMEOUT", c.OCR.Timeout)

	c.Vision.Endpoint = getEnv("VISION_ENDPOINT", c.Vision.Endpoint)
	c.Vision.APIKey = getEnv("VISION_API_KEY", c.Vision.APIKey)
	c.Vision.Timeout = getEnvAsDuration("VISION_TIMEOUT", c.Vision.Timeout)

	c.Cache.Path = getEnv("SCAN_CACHE_PATH", c.Cache.Path)
	c.Export.OutputDir = getEnv("EXPORT_DIR", c.Export.OutputDir)
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate checks the parts of the configuration every binary needs.
// The database DSN is checked by the binaries that actually open a pool.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.OCR.Binary == "" {
		return NewAppError("CONFIG_ERROR", "TESSERACT_BIN is required", ErrInvalidInput)
	}
	if c.OCR.Languages == "" {
		return NewAppError("CONFIG_ERROR", "TESSERACT_LANGS is required", ErrInvalidInput)
	}
	return nil
}
