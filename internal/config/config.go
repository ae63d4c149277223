// Package config provides unified configuration loading for the service.
// Supports YAML files, environment variables, and programmatic overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pagelens/pagelens/internal/domain"
)

// Config holds all configuration for the service.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	OCR           OCRConfig           `yaml:"ocr"`
	Summarizer    SummarizerConfig    `yaml:"summarizer"`
	Storage       StorageConfig       `yaml:"storage"`
	Cache         CacheConfig         `yaml:"cache"`
	History       HistoryConfig       `yaml:"history"`
	Pipeline      PipelineConfig      `yaml:"pipeline"`
	Report        ReportConfig        `yaml:"report"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
	MaxUploadMB      int           `yaml:"max_upload_mb"`
	AllowedOrigins   []string      `yaml:"allowed_origins"`
}

// OCRConfig holds OCR engine settings.
type OCRConfig struct {
	Provider  string        `yaml:"provider"` // tesseract, tesseract-cli or vision
	Languages []string      `yaml:"languages"`
	Timeout   time.Duration `yaml:"timeout"`
	Tesseract TesseractConfig `yaml:"tesseract"`
	Vision    VisionConfig    `yaml:"vision"`
}

// TesseractConfig holds settings for the local tesseract engines.
type TesseractConfig struct {
	BinaryPath  string `yaml:"binary_path"`
	TessdataDir string `yaml:"tessdata_dir"`
	PSM         int    `yaml:"psm"`
	OEM         int    `yaml:"oem"`
}

// VisionConfig holds settings for the remote vision engine.
type VisionConfig struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
}

// SummarizerConfig holds chat-completion API settings.
type SummarizerConfig struct {
	Endpoint   string        `yaml:"endpoint"`
	Model      string        `yaml:"model"`
	APIKey     string        `yaml:"api_key"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// StorageConfig holds object storage settings.
type StorageConfig struct {
	Driver       string        `yaml:"driver"` // memory or minio
	Bucket       string        `yaml:"bucket"`
	Endpoint     string        `yaml:"endpoint"`
	AccessKey    string        `yaml:"access_key"`
	SecretKey    string        `yaml:"secret_key"`
	UseSSL       bool          `yaml:"use_ssl"`
	PresignExpiry time.Duration `yaml:"presign_expiry"`
}

// CacheConfig holds OCR result cache settings.
type CacheConfig struct {
	Driver     string        `yaml:"driver"` // memory or redis
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
	Redis      RedisConfig   `yaml:"redis"`
}

// RedisConfig holds Redis-specific settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// HistoryConfig holds result-history persistence settings.
type HistoryConfig struct {
	Driver   string         `yaml:"driver"` // none, sqlite or postgres
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// SQLiteConfig holds SQLite-specific settings.
type SQLiteConfig struct {
	Path         string `yaml:"path"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// PostgresConfig holds Postgres-specific settings.
type PostgresConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// PipelineConfig holds per-request processing settings.
type PipelineConfig struct {
	MaxConcurrentFiles int           `yaml:"max_concurrent_files"`
	MaxImageWidth      int           `yaml:"max_image_width"`
	MaxImageHeight     int           `yaml:"max_image_height"`
	StageTimeout       time.Duration `yaml:"stage_timeout"`
	StoreImages        bool          `yaml:"store_images"`
}

// ReportConfig holds PDF report rendering settings.
type ReportConfig struct {
	// FontPath points at a TTF file covering the document languages, for
	// example NanumGothic for Korean output. Empty falls back to the
	// Latin-only Helvetica core font.
	FontPath string `yaml:"font_path"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Load reads configuration from a YAML file and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, domain.ConfigError("read config file", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, domain.ConfigError("parse config file", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, domain.ConfigError("validate config", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults for development.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8080,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     60 * time.Second,
			IdleTimeout:      120 * time.Second,
			GracefulShutdown: 10 * time.Second,
			MaxUploadMB:      10,
			AllowedOrigins:   []string{"*"},
		},
		OCR: OCRConfig{
			Provider:  "tesseract",
			Languages: []string{"kor", "eng"},
			Timeout:   30 * time.Second,
			Tesseract: TesseractConfig{
				BinaryPath:  "/usr/bin/tesseract",
				TessdataDir: "",
				PSM:         6,
				OEM:         3,
			},
			Vision: VisionConfig{
				Endpoint: "https://openrouter.ai/api/v1/chat/completions",
				Model:    "google/gemini-2.5-flash-preview-09-2025",
			},
		},
		Summarizer: SummarizerConfig{
			Endpoint:   "https://api.openai.com/v1/chat/completions",
			Model:      "gpt-3.5-turbo",
			Timeout:    60 * time.Second,
			MaxRetries: 3,
		},
		Storage: StorageConfig{
			Driver:        "memory",
			Bucket:        "ocr-temp-storage",
			UseSSL:        false,
			PresignExpiry: time.Hour,
		},
		Cache: CacheConfig{
			Driver:     "memory",
			TTL:        15 * time.Minute,
			MaxEntries: 1000,
			Redis: RedisConfig{
				Addr:     "localhost:6379",
				DB:       0,
				PoolSize: 10,
			},
		},
		History: HistoryConfig{
			Driver: "none",
			SQLite: SQLiteConfig{
				Path:         "/tmp/pagelens.db",
				MaxOpenConns: 1,
			},
			Postgres: PostgresConfig{
				MaxOpenConns:    25,
				MaxIdleConns:    5,
				ConnMaxLifetime: 5 * time.Minute,
			},
		},
		Pipeline: PipelineConfig{
			MaxConcurrentFiles: 4,
			MaxImageWidth:      2480,
			MaxImageHeight:     3508,
			StageTimeout:       30 * time.Second,
			StoreImages:        false,
		},
		Observability: ObservabilityConfig{
			LogLevel:  "debug",
			LogFormat: "json",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.OCR.Provider {
	case "tesseract", "tesseract-cli", "vision":
	default:
		return fmt.Errorf("invalid ocr provider: %s", c.OCR.Provider)
	}

	if c.OCR.Provider == "vision" && c.Vision().APIKey == "" {
		return fmt.Errorf("vision provider requires an API key")
	}

	if c.Storage.Driver != "memory" && c.Storage.Driver != "minio" {
		return fmt.Errorf("invalid storage driver: %s", c.Storage.Driver)
	}

	if c.Storage.Driver == "minio" && c.Storage.Endpoint == "" {
		return fmt.Errorf("minio storage requires an endpoint")
	}

	if c.Storage.PresignExpiry < time.Hour || c.Storage.PresignExpiry > 24*time.Hour {
		return fmt.Errorf("presign_expiry must be between 1h and 24h")
	}

	if c.Cache.Driver != "memory" && c.Cache.Driver != "redis" {
		return fmt.Errorf("invalid cache driver: %s", c.Cache.Driver)
	}

	switch c.History.Driver {
	case "none", "sqlite", "postgres":
	default:
		return fmt.Errorf("invalid history driver: %s", c.History.Driver)
	}

	if c.Server.MaxUploadMB < 1 {
		return fmt.Errorf("max_upload_mb must be at least 1")
	}

	if c.Pipeline.MaxConcurrentFiles < 1 {
		return fmt.Errorf("max_concurrent_files must be at least 1")
	}

	if len(c.OCR.Languages) == 0 {
		return fmt.Errorf("at least one OCR language is required")
	}

	return nil
}

// Vision returns the vision engine settings.
func (c *Config) Vision() VisionConfig { return c.OCR.Vision }

// MaxUploadBytes returns the per-file upload cap in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Server.MaxUploadMB) * 1024 * 1024
}

// HistoryDSN returns the appropriate history database connection string.
func (c *Config) HistoryDSN() string {
	if c.History.Driver == "sqlite" {
		return c.History.SQLite.Path
	}
	return c.History.Postgres.DSN
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}

	if v := os.Getenv("MAX_UPLOAD_MB"); v != "" {
		if mb, err := strconv.Atoi(v); err == nil && mb > 0 {
			cfg.Server.MaxUploadMB = mb
		}
	}

	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = strings.Split(v, ",")
	}

	if v := os.Getenv("OCR_PROVIDER"); v != "" {
		cfg.OCR.Provider = v
	}

	if v := os.Getenv("OCR_LANGUAGES"); v != "" {
		cfg.OCR.Languages = strings.Split(v, "+")
	}

	if v := os.Getenv("TESSERACT_CMD"); v != "" {
		cfg.OCR.Tesseract.BinaryPath = v
	}

	if v := os.Getenv("TESSDATA_DIR"); v != "" {
		cfg.OCR.Tesseract.TessdataDir = v
	}

	if v := os.Getenv("VISION_API_KEY"); v != "" {
		cfg.OCR.Vision.APIKey = v
	}

	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Summarizer.APIKey = v
		if cfg.OCR.Vision.APIKey == "" {
			cfg.OCR.Vision.APIKey = v
		}
	}

	if v := os.Getenv("SUMMARIZER_URL"); v != "" {
		cfg.Summarizer.Endpoint = v
	}

	if v := os.Getenv("SUMMARIZER_MODEL"); v != "" {
		cfg.Summarizer.Model = v
	}

	if v := os.Getenv("STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}

	if v := os.Getenv("S3_BUCKET"); v != "" {
		cfg.Storage.Bucket = v
	}

	if v := os.Getenv("MINIO_ENDPOINT"); v != "" {
		cfg.Storage.Driver = "minio"
		cfg.Storage.Endpoint = v
	}

	if v := os.Getenv("MINIO_ACCESS_KEY"); v != "" {
		cfg.Storage.AccessKey = v
	}

	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		cfg.Storage.SecretKey = v
	}

	if v := os.Getenv("MINIO_USE_SSL"); v != "" {
		cfg.Storage.UseSSL = v == "true"
	}

	if v := os.Getenv("PRESIGN_EXPIRY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Storage.PresignExpiry = d
		}
	}

	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Cache.Driver = "redis"
		cfg.Cache.Redis.Addr = strings.TrimPrefix(v, "redis://")
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		if strings.HasPrefix(v, "sqlite:") {
			cfg.History.Driver = "sqlite"
			cfg.History.SQLite.Path = strings.TrimPrefix(v, "sqlite:")
		} else if strings.HasPrefix(v, "postgres") {
			cfg.History.Driver = "postgres"
			cfg.History.Postgres.DSN = v
		}
	}

	if v := os.Getenv("REPORT_FONT_PATH"); v != "" {
		cfg.Report.FontPath = v
	}

	if v := os.Getenv("STORE_IMAGES"); v != "" {
		cfg.Pipeline.StoreImages = v == "true"
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
}
