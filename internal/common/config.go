package common

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	OCR       OCRConfig
	NER       NERConfig
	Extractor ExtractorConfig
	Log       LogConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	// DSN is a postgres:// URL, a sqlite file path, or ":memory:".
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr  string
	HTTPAddr  string
	// ImageRoot confines image_path in remote requests. Empty rejects them.
	ImageRoot string
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Engine            string // tesseract | gosseract | vision | none
	Language          string
	DPI               int
	HeicConverter     string
	TessdataDir       string
	ArtifactCacheDir  string
	Timeout           time.Duration
	CacheTTL          time.Duration
	VisionCredentials string
}

// NERConfig holds configuration for the optional entity recognizer.
type NERConfig struct {
	Enabled     bool
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration
	MaxRetries  int
}

// ExtractorConfig holds pipeline configuration.
type ExtractorConfig struct {
	PatternsDir    string
	ImageHeuristic bool
	Workers        int
	QueueSize      int
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string
	Format string
}

// OCR engine names.
const (
	EngineTesseract = "tesseract"
	EngineGosseract = "gosseract"
	EngineVision    = "vision"
	EngineNone      = "none"
)

// envBindings maps config keys to the environment variables that set them.
var envBindings = map[string]string{
	"db.url":                    "DB_URL",
	"db.max_conns":              "DB_MAX_CONNS",
	"db.min_conns":              "DB_MIN_CONNS",
	"db.max_conn_lifetime":      "DB_MAX_CONN_LIFETIME",
	"db.max_conn_idle_time":     "DB_MAX_CONN_IDLE_TIME",
	"db.dial_timeout":           "DB_DIAL_TIMEOUT",
	"db.statement_timeout":      "DB_STATEMENT_TIMEOUT",
	"server.grpc_addr":          "GRPC_ADDR",
	"server.http_addr":          "HTTP_ADDR",
	"server.image_root":         "INBOX_DIR",
	"ocr.engine":                "OCR_ENGINE",
	"ocr.language":              "OCR_LANGUAGE",
	"ocr.dpi":                   "OCR_DPI",
	"ocr.heic_converter":        "HEIC_CONVERTER",
	"ocr.tessdata_dir":          "TESSDATA_PREFIX",
	"ocr.artifact_cache_dir":    "ARTIFACT_CACHE_DIR",
	"ocr.timeout":               "OCR_TIMEOUT",
	"ocr.cache_ttl":             "OCR_CACHE_TTL",
	"ocr.vision_credentials":    "GOOGLE_APPLICATION_CREDENTIALS",
	"ner.enabled":               "NER_ENABLED",
	"ner.model":                 "OPENAI_MODEL",
	"ner.api_key":               "OPENAI_API_KEY",
	"ner.base_url":              "OPENAI_BASE_URL",
	"ner.temperature":           "OPENAI_TEMPERATURE",
	"ner.timeout":               "OPENAI_TIMEOUT",
	"ner.max_retries":           "OPENAI_MAX_RETRIES",
	"extractor.patterns_dir":    "PATTERNS_DIR",
	"extractor.image_heuristic": "IMAGE_HEURISTIC",
	"extractor.workers":         "EXTRACT_WORKERS",
	"extractor.queue_size":      "EXTRACT_QUEUE_SIZE",
	"log.level":                 "LOG_LEVEL",
	"log.format":                "LOG_FORMAT",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db.url", "")
	v.SetDefault("db.max_conns", 20)
	v.SetDefault("db.min_conns", 5)
	v.SetDefault("db.max_conn_lifetime", 30*time.Minute)
	v.SetDefault("db.max_conn_idle_time", 5*time.Minute)
	v.SetDefault("db.dial_timeout", 3*time.Second)
	v.SetDefault("db.statement_timeout", time.Duration(0))
	v.SetDefault("server.grpc_addr", ":8080")
	v.SetDefault("server.http_addr", ":8081")
	v.SetDefault("server.image_root", "")
	v.SetDefault("ocr.engine", EngineTesseract)
	v.SetDefault("ocr.language", "fra+eng")
	v.SetDefault("ocr.dpi", 300)
	v.SetDefault("ocr.heic_converter", "magick")
	v.SetDefault("ocr.tessdata_dir", "")
	v.SetDefault("ocr.artifact_cache_dir", "./tmp")
	v.SetDefault("ocr.timeout", 60*time.Second)
	v.SetDefault("ocr.cache_ttl", 10*time.Minute)
	v.SetDefault("ocr.vision_credentials", "")
	v.SetDefault("ner.enabled", false)
	v.SetDefault("ner.model", "gpt-4o-mini")
	v.SetDefault("ner.api_key", "")
	v.SetDefault("ner.base_url", "")
	v.SetDefault("ner.temperature", 0.0)
	v.SetDefault("ner.timeout", 45*time.Second)
	v.SetDefault("ner.max_retries", 3)
	v.SetDefault("extractor.patterns_dir", "")
	v.SetDefault("extractor.image_heuristic", true)
	v.SetDefault("extractor.workers", 4)
	v.SetDefault("extractor.queue_size", 100)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// LoadConfig loads configuration from environment variables and, when path is
// not empty, from a config file (any format viper understands).
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, NewAppError("CONFIG_ERROR", "read config file "+path, err)
		}
	}

	return &Config{
		Database: DatabaseConfig{
			DSN:              v.GetString("db.url"),
			MaxConns:         v.GetInt32("db.max_conns"),
			MinConns:         v.GetInt32("db.min_conns"),
			MaxConnLifetime:  v.GetDuration("db.max_conn_lifetime"),
			MaxConnIdleTime:  v.GetDuration("db.max_conn_idle_time"),
			DialTimeout:      v.GetDuration("db.dial_timeout"),
			StatementTimeout: v.GetDuration("db.statement_timeout"),
		},
		Server: ServerConfig{
			GRPCAddr:  v.GetString("server.grpc_addr"),
			HTTPAddr:  v.GetString("server.http_addr"),
			ImageRoot: v.GetString("server.image_root"),
		},
		OCR: OCRConfig{
			Engine:            strings.ToLower(v.GetString("ocr.engine")),
			Language:          v.GetString("ocr.language"),
			DPI:               v.GetInt("ocr.dpi"),
			HeicConverter:     v.GetString("ocr.heic_converter"),
			TessdataDir:       v.GetString("ocr.tessdata_dir"),
			ArtifactCacheDir:  v.GetString("ocr.artifact_cache_dir"),
			Timeout:           v.GetDuration("ocr.timeout"),
			CacheTTL:          v.GetDuration("ocr.cache_ttl"),
			VisionCredentials: v.GetString("ocr.vision_credentials"),
		},
		NER: NERConfig{
			Enabled:     v.GetBool("ner.enabled"),
			Model:       v.GetString("ner.model"),
			APIKey:      v.GetString("ner.api_key"),
			BaseURL:     v.GetString("ner.base_url"),
			Temperature: float32(v.GetFloat64("ner.temperature")),
			Timeout:     v.GetDuration("ner.timeout"),
			MaxRetries:  v.GetInt("ner.max_retries"),
		},
		Extractor: ExtractorConfig{
			PatternsDir:    v.GetString("extractor.patterns_dir"),
			ImageHeuristic: v.GetBool("extractor.image_heuristic"),
			Workers:        v.GetInt("extractor.workers"),
			QueueSize:      v.GetInt("extractor.queue_size"),
		},
		Log: LogConfig{
			Level:  strings.ToLower(v.GetString("log.level")),
			Format: strings.ToLower(v.GetString("log.format")),
		},
	}, nil
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	v := NewValidator().
		Field("OCR_ENGINE", c.OCR.Engine, OneOf(EngineTesseract, EngineGosseract, EngineVision, EngineNone)).
		Field("LOG_FORMAT", c.Log.Format, OneOf("json", "text")).
		Field("LOG_LEVEL", c.Log.Level, OneOf("debug", "info", "warn", "error")).
		Check(c.Extractor.Workers > 0, "EXTRACT_WORKERS", c.Extractor.Workers, "must be positive").
		Check(c.OCR.DPI > 0, "OCR_DPI", c.OCR.DPI, "must be positive")
	if c.NER.Enabled {
		v.Field("OPENAI_API_KEY", c.NER.APIKey, Required)
	}
	if v.HasErrors() {
		return NewAppError("CONFIG_ERROR", v.ErrorMessage(), ErrInvalidInput)
	}
	return nil
}

// RequireDatabase is checked by commands that persist jobs.
func (c *Config) RequireDatabase() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	return nil
}

// RequireServer is checked by the serve command.
func (c *Config) RequireServer() error {
	if c.Server.GRPCAddr == "" && c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "GRPC_ADDR or HTTP_ADDR is required", ErrInvalidInput)
	}
	return nil
}
