package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Provider names accepted in OCR.Providers.
const (
	ProviderOCRSpace = "ocrspace"
	ProviderVision   = "vision"
	ProviderGemini   = "gemini"
	ProviderLocal    = "local"
)

// Config holds all application configuration
type Config struct {
	OCR      OCRConfig
	OCRSpace OCRSpaceConfig
	Vision   VisionConfig
	Gemini   GeminiConfig
	Database DatabaseConfig
	Server   ServerConfig
	Export   ExportConfig
	Backup   BackupConfig
}

// OCRConfig holds the provider chain and local engine settings
type OCRConfig struct {
	Providers        []string // priority order, local is always last
	Languages        []string // local engine language models
	Engine           string   // "gosseract" | "cli"
	Tesseract        string   // binary for the cli engine
	TessdataDir      string
	PSM              int
	HeicConverter    string
	ArtifactCacheDir string
	MaxImageBytes    int
	MaxDimension     int // preprocessing downscales larger images
}

// OCRSpaceConfig configures remote provider A
type OCRSpaceConfig struct {
	APIKey   string
	Endpoint string
	Language string
	Engine   int
	Timeout  time.Duration
}

// VisionConfig configures remote provider B
type VisionConfig struct {
	APIKey        string
	Endpoint      string
	LanguageHints []string
	Timeout       time.Duration
}

// GeminiConfig configures the optional LLM transcription provider
type GeminiConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN              string // postgres://... or a sqlite path; empty means in-memory sqlite
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr     string
	HTTPAddr     string
	ScanTimeout  time.Duration
	ScanWorkers  int
	ScanQueueLen int
}

// ExportConfig holds spreadsheet export settings
type ExportConfig struct {
	SpreadsheetID   string
	CredentialsFile string
	SheetRange      string
}

// BackupConfig holds encrypted backup settings
type BackupConfig struct {
	Passphrase string
}

// fileConfig mirrors Config for the optional TOML overlay. Durations are strings ("30s").
type fileConfig struct {
	OCR struct {
		Providers        []string `toml:"providers"`
		Languages        []string `toml:"languages"`
		Engine           string   `toml:"engine"`
		Tesseract        string   `toml:"tesseract"`
		TessdataDir      string   `toml:"tessdata_dir"`
		PSM              int      `toml:"psm"`
		HeicConverter    string   `toml:"heic_converter"`
		ArtifactCacheDir string   `toml:"artifact_cache_dir"`
		MaxImageBytes    int      `toml:"max_image_bytes"`
		MaxDimension     int      `toml:"max_dimension"`
	} `toml:"ocr"`
	OCRSpace struct {
		Endpoint string `toml:"endpoint"`
		Language string `toml:"language"`
		Engine   int    `toml:"engine"`
		Timeout  string `toml:"timeout"`
	} `toml:"ocrspace"`
	Vision struct {
		Endpoint      string   `toml:"endpoint"`
		LanguageHints []string `toml:"language_hints"`
		Timeout       string   `toml:"timeout"`
	} `toml:"vision"`
	Gemini struct {
		Model   string `toml:"model"`
		Timeout string `toml:"timeout"`
	} `toml:"gemini"`
	Database struct {
		DSN string `toml:"dsn"`
	} `toml:"database"`
	Server struct {
		GRPCAddr    string `toml:"grpc_addr"`
		HTTPAddr    string `toml:"http_addr"`
		ScanTimeout string `toml:"scan_timeout"`
		ScanWorkers int    `toml:"scan_workers"`
	} `toml:"server"`
	Export struct {
		SpreadsheetID   string `toml:"spreadsheet_id"`
		CredentialsFile string `toml:"credentials_file"`
		SheetRange      string `toml:"sheet_range"`
	} `toml:"export"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		OCR: OCRConfig{
			Providers:        []string{ProviderOCRSpace, ProviderVision, ProviderLocal},
			Languages:        []string{"eng", "hin"},
			Engine:           "gosseract",
			Tesseract:        "tesseract",
			PSM:              6,
			HeicConverter:    "magick",
			ArtifactCacheDir: "./tmp",
			MaxImageBytes:    10 << 20,
			MaxDimension:     2400,
		},
		OCRSpace: OCRSpaceConfig{
			Endpoint: "https://api.ocr.space/parse/image",
			Language: "eng",
			Engine:   2,
			Timeout:  30 * time.Second,
		},
		Vision: VisionConfig{
			LanguageHints: []string{"en", "hi"},
			Timeout:       30 * time.Second,
		},
		Gemini: GeminiConfig{
			Model:   "gemini-1.5-flash",
			Timeout: 45 * time.Second,
		},
		Database: DatabaseConfig{
			MaxConns:        10,
			MinConns:        1,
			MaxConnLifetime: 30 * time.Minute,
			MaxConnIdleTime: 5 * time.Minute,
			DialTimeout:     3 * time.Second,
		},
		Server: ServerConfig{
			GRPCAddr:     ":8080",
			HTTPAddr:     ":8081",
			ScanTimeout:  2 * time.Minute,
			ScanWorkers:  4,
			ScanQueueLen: 128,
		},
		Export: ExportConfig{
			SheetRange: "Sheet1!A:C",
		},
	}
}

// LoadConfig loads defaults, then the TOML file named by DOCSCAN_CONFIG (if any),
// then environment variables. Environment wins.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()
	if path := os.Getenv("DOCSCAN_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	cfg.mergeEnv()
	cfg.normalize()
	return cfg, nil
}

// LoadConfigFile is LoadConfig with an explicit overlay path.
func LoadConfigFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	cfg.mergeEnv()
	cfg.normalize()
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return NewAppError(CodeConfig, "open config file", err)
	}
	defer func() { _ = f.Close() }()

	var fc fileConfig
	dec := toml.NewDecoder(f).DisallowUnknownFields()
	if err := dec.Decode(&fc); err != nil {
		return NewAppError(CodeConfig, fmt.Sprintf("parse %s", path), err)
	}

	setStrings(&c.OCR.Providers, fc.OCR.Providers)
	setStrings(&c.OCR.Languages, fc.OCR.Languages)
	setString(&c.OCR.Engine, fc.OCR.Engine)
	setString(&c.OCR.Tesseract, fc.OCR.Tesseract)
	setString(&c.OCR.TessdataDir, fc.OCR.TessdataDir)
	setInt(&c.OCR.PSM, fc.OCR.PSM)
	setString(&c.OCR.HeicConverter, fc.OCR.HeicConverter)
	setString(&c.OCR.ArtifactCacheDir, fc.OCR.ArtifactCacheDir)
	setInt(&c.OCR.MaxImageBytes, fc.OCR.MaxImageBytes)
	setInt(&c.OCR.MaxDimension, fc.OCR.MaxDimension)

	setString(&c.OCRSpace.Endpoint, fc.OCRSpace.Endpoint)
	setString(&c.OCRSpace.Language, fc.OCRSpace.Language)
	setInt(&c.OCRSpace.Engine, fc.OCRSpace.Engine)
	setString(&c.Vision.Endpoint, fc.Vision.Endpoint)
	setStrings(&c.Vision.LanguageHints, fc.Vision.LanguageHints)
	setString(&c.Gemini.Model, fc.Gemini.Model)
	setString(&c.Database.DSN, fc.Database.DSN)
	setString(&c.Server.GRPCAddr, fc.Server.GRPCAddr)
	setString(&c.Server.HTTPAddr, fc.Server.HTTPAddr)
	setInt(&c.Server.ScanWorkers, fc.Server.ScanWorkers)
	setString(&c.Export.SpreadsheetID, fc.Export.SpreadsheetID)
	setString(&c.Export.CredentialsFile, fc.Export.CredentialsFile)
	setString(&c.Export.SheetRange, fc.Export.SheetRange)

	for _, d := range []struct {
		dst *time.Duration
		raw string
		key string
	}{
		{&c.OCRSpace.Timeout, fc.OCRSpace.Timeout, "ocrspace.timeout"},
		{&c.Vision.Timeout, fc.Vision.Timeout, "vision.timeout"},
		{&c.Gemini.Timeout, fc.Gemini.Timeout, "gemini.timeout"},
		{&c.Server.ScanTimeout, fc.Server.ScanTimeout, "server.scan_timeout"},
	} {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return NewAppError(CodeConfig, d.key, err)
		}
		*d.dst = v
	}
	return nil
}

func (c *Config) mergeEnv() {
	c.OCR.Providers = getEnvAsList("DOCSCAN_PROVIDERS", c.OCR.Providers)
	c.OCR.Languages = getEnvAsList("DOCSCAN_OCR_LANGUAGES", c.OCR.Languages)
	c.OCR.Engine = getEnv("DOCSCAN_OCR_ENGINE", c.OCR.Engine)
	c.OCR.Tesseract = getEnv("TESSERACT_BIN", c.OCR.Tesseract)
	c.OCR.TessdataDir = getEnv("TESSDATA_PREFIX", c.OCR.TessdataDir)
	c.OCR.PSM = getEnvAsInt("DOCSCAN_OCR_PSM", c.OCR.PSM)
	c.OCR.HeicConverter = getEnv("HEIC_CONVERTER", c.OCR.HeicConverter)
	c.OCR.ArtifactCacheDir = getEnv("ARTIFACT_CACHE_DIR", c.OCR.ArtifactCacheDir)
	c.OCR.MaxImageBytes = getEnvAsInt("DOCSCAN_MAX_IMAGE_BYTES", c.OCR.MaxImageBytes)

	c.OCRSpace.APIKey = getEnv("OCRSPACE_API_KEY", c.OCRSpace.APIKey)
	c.OCRSpace.Endpoint = getEnv("OCRSPACE_ENDPOINT", c.OCRSpace.Endpoint)
	c.OCRSpace.Timeout = getEnvAsDuration("OCRSPACE_TIMEOUT", c.OCRSpace.Timeout)

	c.Vision.APIKey = getEnv("GOOGLE_VISION_API_KEY", c.Vision.APIKey)
	c.Vision.Endpoint = getEnv("GOOGLE_VISION_ENDPOINT", c.Vision.Endpoint)
	c.Vision.LanguageHints = getEnvAsList("GOOGLE_VISION_LANGUAGE_HINTS", c.Vision.LanguageHints)
	c.Vision.Timeout = getEnvAsDuration("GOOGLE_VISION_TIMEOUT", c.Vision.Timeout)

	c.Gemini.APIKey = getEnv("GEMINI_API_KEY", c.Gemini.APIKey)
	c.Gemini.Model = getEnv("GEMINI_MODEL", c.Gemini.Model)
	c.Gemini.Timeout = getEnvAsDuration("GEMINI_TIMEOUT", c.Gemini.Timeout)

	c.Database.DSN = getEnv("DB_URL", c.Database.DSN)
	c.Database.MaxConns = getEnvAsInt32("DB_MAX_CONNS", c.Database.MaxConns)
	c.Database.MinConns = getEnvAsInt32("DB_MIN_CONNS", c.Database.MinConns)
	c.Database.DialTimeout = getEnvAsDuration("DB_DIAL_TIMEOUT", c.Database.DialTimeout)
	c.Database.StatementTimeout = getEnvAsDuration("DB_STATEMENT_TIMEOUT", c.Database.StatementTimeout)

	c.Server.GRPCAddr = getEnv("GRPC_ADDR", c.Server.GRPCAddr)
	c.Server.HTTPAddr = getEnv("HTTP_ADDR", c.Server.HTTPAddr)
	c.Server.ScanTimeout = getEnvAsDuration("SCAN_TIMEOUT", c.Server.ScanTimeout)
	c.Server.ScanWorkers = getEnvAsInt("SCAN_WORKERS", c.Server.ScanWorkers)

	c.Export.SpreadsheetID = getEnv("SHEETS_SPREADSHEET_ID", c.Export.SpreadsheetID)
	c.Export.CredentialsFile = getEnv("GOOGLE_APPLICATION_CREDENTIALS", c.Export.CredentialsFile)

	c.Backup.Passphrase = getEnv("DOCSCAN_BACKUP_PASSPHRASE", c.Backup.Passphrase)
}

// normalize lowercases provider names, drops duplicates and pins local last.
func (c *Config) normalize() {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(c.OCR.Providers)+1)
	for _, p := range c.OCR.Providers {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" || p == ProviderLocal {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	c.OCR.Providers = append(out, ProviderLocal)
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

// getEnvAsList splits a comma separated value.
func getEnvAsList(key string, defaultValue []string) []string {
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
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setStrings(dst *[]string, v []string) {
	if len(v) > 0 {
		*dst = v
	}
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	v := NewValidator()
	v.Field("ocr.languages", c.OCR.Languages, NonEmptyList)
	v.Field("ocr.engine", c.OCR.Engine, OneOf("gosseract", "cli"))
	for _, p := range c.OCR.Providers {
		v.Field("ocr.providers", p, OneOf(ProviderOCRSpace, ProviderVision, ProviderGemini, ProviderLocal))
	}
	if len(c.OCR.Providers) == 0 || c.OCR.Providers[len(c.OCR.Providers)-1] != ProviderLocal {
		v.Field("ocr.providers", c.OCR.Providers, func(field string, value interface{}) *ValidationError {
			return &ValidationError{Field: field, Value: value, Message: "must end with the local engine"}
		})
	}
	if c.OCR.Engine == "cli" {
		v.Field("ocr.tesseract", c.OCR.Tesseract, Required)
	}
	if v.HasErrors() {
		return NewAppError(CodeConfig, v.ErrorMessage(), ErrInvalidInput)
	}
	return nil
}
