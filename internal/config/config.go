package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeBatch  = "batch"
	ModeSingle = "single"
	ModeStdio  = "stdio"

	// OCR engines
	EngineTesseract = "tesseract"
	EngineAzure     = "azure"

	// Log formats
	FormatText = "text"
	FormatJSON = "json"

	// Default values
	DefaultOutputDirectory = "output"
	DefaultOCRLanguage     = "eng"
	DefaultMinTextLength   = 20
	DefaultDPI             = 300
	DefaultLogLevel        = "info"
	DefaultMaxFileSize     = 100 * 1024 * 1024 // 100MB
	DefaultEnvFile         = ".env"

	// Directory permissions
	DefaultDirPerm = 0o750

	envPrefix = "INVOICE"
)

// Config holds all configuration for the invoice extractor
type Config struct {
	Mode string // "batch", "single" or "stdio"

	// Inputs
	PDFDirectory string
	Inputs       []string // positional files or directories

	// Output
	OutputDirectory string
	PreviewRows     int

	// Text acquisition
	OCRLanguage   string
	ForceOCR      bool
	OCREngine     string
	AzureEndpoint string
	AzureKey      string
	MinTextLength int
	DPI           int

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string
	LogFormat   string
	MaxFileSize int64 // Maximum PDF file size in bytes
	EnvFile     string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:            ModeBatch,
		PDFDirectory:    currentDir,
		OutputDirectory: DefaultOutputDirectory,
		OCRLanguage:     DefaultOCRLanguage,
		OCREngine:       EngineTesseract,
		MinTextLength:   DefaultMinTextLength,
		DPI:             DefaultDPI,
		Version:         "1.0.0",
		ServerName:      "gst-invoice-extractor",
		LogLevel:        DefaultLogLevel,
		LogFormat:       FormatText,
		MaxFileSize:     DefaultMaxFileSize,
		EnvFile:         DefaultEnvFile,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	// .env values only fill variables the environment does not already set,
	// so they must be loaded before viper resolves anything.
	envFile := viper.GetString("env-file")
	if err := loadEnvFile(envFile, pflag.Lookup("env-file").Changed); err != nil {
		return nil, err
	}

	populateConfigFromViper(cfg)
	cfg.Inputs = pflag.Args()

	if cfg.PDFDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.PDFDirectory); err == nil {
			cfg.PDFDirectory = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadEnvFile reads KEY=VALUE pairs into the process environment. A missing
// default file is ignored; a missing explicit file is an error.
func loadEnvFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return nil
	}
	return fmt.Errorf("cannot load env file %s: %w", path, err)
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("dir", cfg.PDFDirectory)
	viper.SetDefault("out", cfg.OutputDirectory)
	viper.SetDefault("preview", cfg.PreviewRows)
	viper.SetDefault("ocr-lang", cfg.OCRLanguage)
	viper.SetDefault("force-ocr", cfg.ForceOCR)
	viper.SetDefault("ocr-engine", cfg.OCREngine)
	viper.SetDefault("azure-endpoint", cfg.AzureEndpoint)
	viper.SetDefault("azure-key", cfg.AzureKey)
	viper.SetDefault("min-text-length", cfg.MinTextLength)
	viper.SetDefault("dpi", cfg.DPI)
	viper.SetDefault("log-level", cfg.LogLevel)
	viper.SetDefault("log-format", cfg.LogFormat)
	viper.SetDefault("max-file-size", cfg.MaxFileSize)
	viper.SetDefault("env-file", cfg.EnvFile)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Run mode: 'batch', 'single' or 'stdio' (MCP over standard I/O)")
	pflag.String("dir", cfg.PDFDirectory, "Directory scanned for invoices when no inputs are given")
	pflag.String("out", cfg.OutputDirectory, "Directory the reports are written to")
	pflag.Int("preview", cfg.PreviewRows, "Print the first N consolidated rows (0 disables the preview)")
	pflag.String("ocr-lang", cfg.OCRLanguage, "OCR language code, e.g. 'eng' or 'eng+hin'")
	pflag.Bool("force-ocr", cfg.ForceOCR, "Skip the text layer and always OCR")
	pflag.String("ocr-engine", cfg.OCREngine, "OCR engine: 'tesseract' or 'azure'")
	pflag.String("azure-endpoint", cfg.AzureEndpoint, "Azure Computer Vision endpoint (azure engine only)")
	pflag.String("azure-key", cfg.AzureKey, "Azure Computer Vision key (azure engine only)")
	pflag.Int("min-text-length", cfg.MinTextLength, "Text layers shorter than this many characters fall back to OCR")
	pflag.Int("dpi", cfg.DPI, "Page rendering resolution for OCR")
	pflag.String("log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.String("log-format", cfg.LogFormat, "Log format (text, json)")
	pflag.Int64("max-file-size", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	pflag.String("env-file", cfg.EnvFile, "File with KEY=VALUE environment defaults")
}

var flagNames = []string{
	"mode", "dir", "out", "preview", "ocr-lang", "force-ocr", "ocr-engine",
	"azure-endpoint", "azure-key", "min-text-length", "dpi", "log-level",
	"log-format", "max-file-size", "env-file",
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, name := range flagNames {
		_ = viper.BindPFlag(name, pflag.Lookup(name))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nGST Invoice Extractor - pulls header fields and line items out of invoice PDFs\n\n")
		fmt.Fprintf(os.Stderr, "  %s [options] [file.pdf|directory ...]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s --dir=/path/to/invoices --out=reports   # batch, consolidated CSV + ZIP\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=single invoice.pdf               # summary JSON + items CSV\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --force-ocr --ocr-lang=eng+hin scans/   # OCR every page\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=stdio --dir=/path/to/invoices    # MCP server\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  Every option can be set as INVOICE_<OPTION>, dashes become underscores,\n")
		fmt.Fprintf(os.Stderr, "  e.g. INVOICE_OCR_LANG, INVOICE_AZURE_KEY, INVOICE_LOG_LEVEL.\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.PDFDirectory = viper.GetString("dir")
	cfg.OutputDirectory = viper.GetString("out")
	cfg.PreviewRows = viper.GetInt("preview")
	cfg.OCRLanguage = viper.GetString("ocr-lang")
	cfg.ForceOCR = viper.GetBool("force-ocr")
	cfg.OCREngine = viper.GetString("ocr-engine")
	cfg.AzureEndpoint = viper.GetString("azure-endpoint")
	cfg.AzureKey = viper.GetString("azure-key")
	cfg.MinTextLength = viper.GetInt("min-text-length")
	cfg.DPI = viper.GetInt("dpi")
	cfg.LogLevel = viper.GetString("log-level")
	cfg.LogFormat = viper.GetString("log-format")
	cfg.MaxFileSize = viper.GetInt64("max-file-size")
	cfg.EnvFile = viper.GetString("env-file")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeBatch, ModeSingle, ModeStdio:
	default:
		return errors.New("mode must be one of 'batch', 'single' or 'stdio'")
	}

	if c.Mode == ModeSingle && len(c.Inputs) != 1 {
		return errors.New("single mode needs exactly one input file")
	}

	if c.PDFDirectory == "" {
		return errors.New("PDF directory cannot be empty")
	}
	if c.Mode != ModeStdio && c.OutputDirectory == "" {
		return errors.New("output directory cannot be empty")
	}

	if c.PreviewRows < 0 {
		return errors.New("preview rows cannot be negative")
	}
	if strings.TrimSpace(c.OCRLanguage) == "" {
		return errors.New("OCR language cannot be empty")
	}
	if c.MinTextLength < 1 {
		return fmt.Errorf("minimum text length must be at least 1, got %d", c.MinTextLength)
	}
	if c.DPI < 72 || c.DPI > 1200 {
		return fmt.Errorf("dpi must be between 72 and 1200, got %d", c.DPI)
	}

	switch c.OCREngine {
	case EngineTesseract:
	case EngineAzure:
		if c.AzureEndpoint == "" || c.AzureKey == "" {
			return errors.New("azure engine needs both an endpoint and a key")
		}
	default:
		return fmt.Errorf("invalid OCR engine: %s (must be one of: tesseract, azure)", c.OCREngine)
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}
	if c.LogFormat != FormatText && c.LogFormat != FormatJSON {
		return fmt.Errorf("invalid log format: %s (must be one of: text, json)", c.LogFormat)
	}

	return nil
}

// EnsureOutputDirectory creates the output directory if it does not exist
func (c *Config) EnsureOutputDirectory() error {
	if err := os.MkdirAll(c.OutputDirectory, DefaultDirPerm); err != nil {
		return fmt.Errorf("cannot create output directory %s: %w", c.OutputDirectory, err)
	}
	return nil
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration. The Azure
// key is never printed.
func (c *Config) String() string {
	key := ""
	if c.AzureKey != "" {
		key = "***"
	}
	return fmt.Sprintf("Config{Mode: %s, PDFDirectory: %s, Output: %s, OCR: %s/%s, ForceOCR: %t, AzureKey: %s, LogLevel: %s, MaxFileSize: %d}",
		c.Mode, c.PDFDirectory, c.OutputDirectory, c.OCREngine, c.OCRLanguage, c.ForceOCR, key, c.LogLevel, c.MaxFileSize)
}

// IsStdioMode returns true if the extractor runs as an MCP server over stdio
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}

// IsSingleMode returns true if exactly one document is processed
func (c *Config) IsSingleMode() bool {
	return c.Mode == ModeSingle
}
