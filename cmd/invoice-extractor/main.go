package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/a3tai/gst-invoice-extractor/internal/config"
	"github.com/a3tai/gst-invoice-extractor/internal/extractor"
	"github.com/a3tai/gst-invoice-extractor/internal/mcp"
	"github.com/a3tai/gst-invoice-extractor/internal/pdf"
	"github.com/a3tai/gst-invoice-extractor/internal/report"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// errNoInvoices is returned when a batch run finds nothing to process.
var errNoInvoices = errors.New("no invoice PDFs found")

// newLogger builds the structured logger. Logs always go to w (stderr in
// main) so that stdout stays free for the MCP protocol and the preview.
func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level, AddSource: cfg.IsDebug()}
	if cfg.LogFormat == config.FormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// newRecognizer returns the configured OCR engine, or nil when the local
// tesseract binary is missing.
func newRecognizer(cfg *config.Config, logger *slog.Logger) (pdf.Recognizer, error) {
	if cfg.OCREngine == config.EngineAzure {
		azure, err := pdf.NewAzureRecognizer(cfg.AzureEndpoint, cfg.AzureKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create azure recognizer: %w", err)
		}
		return azure, nil
	}

	tesseract := pdf.NewTesseractRecognizer()
	if !tesseract.Available() {
		logger.Warn("tesseract not found in PATH, scanned invoices will yield no text")
		return nil, nil
	}
	return tesseract, nil
}

// newRenderer chains pdftoppm, when installed, with the embedded image
// extractor.
func newRenderer(cfg *config.Config, logger *slog.Logger) pdf.PageRenderer {
	poppler := pdf.NewPopplerRenderer(cfg.DPI)
	if poppler.Available() {
		return pdf.NewFallbackRenderer(poppler, pdf.NewEmbeddedImageRenderer())
	}
	logger.Warn("pdftoppm not found in PATH, OCR falls back to embedded page images")
	return pdf.NewFallbackRenderer(pdf.NewEmbeddedImageRenderer())
}

// newService wires text acquisition and extraction from the configuration.
func newService(cfg *config.Config, logger *slog.Logger) (*extractor.Service, string, error) {
	recognizer, err := newRecognizer(cfg, logger)
	if err != nil {
		return nil, "", err
	}

	acquirer := pdf.NewAcquirer(pdf.AcquirerConfig{
		Renderer:      newRenderer(cfg, logger),
		Recognizer:    recognizer,
		MinTextLength: cfg.MinTextLength,
		Logger:        logger,
	})

	svc := extractor.NewService(acquirer, pdf.NewValidator(cfg.MaxFileSize), logger)
	return svc, acquirer.Engine(), nil
}

func options(cfg *config.Config) extractor.Options {
	return extractor.Options{OCRLanguage: cfg.OCRLanguage, ForceOCR: cfg.ForceOCR}
}

// runBatch extracts every input and writes the consolidated CSV and the
// per-invoice bundle. With no inputs the configured directory is scanned.
func runBatch(ctx context.Context, cfg *config.Config, svc *extractor.Service, stdout io.Writer, logger *slog.Logger) error {
	inputs := cfg.Inputs
	if len(inputs) == 0 {
		inputs = []string{cfg.PDFDirectory}
	}

	paths, err := extractor.CollectFiles(pdf.NewSearch(cfg.MaxFileSize), inputs)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("%w in %s", errNoInvoices, strings.Join(inputs, ", "))
	}

	if err := cfg.EnsureOutputDirectory(); err != nil {
		return err
	}

	batch, err := svc.ExtractFiles(ctx, paths, options(cfg))
	if err != nil {
		return fmt.Errorf("batch interrupted after %d of %d documents: %w", len(batch.Results), len(paths), err)
	}

	csvPath, zipPath, err := report.WriteBatch(cfg.OutputDirectory, batch)
	if err != nil {
		return err
	}
	logger.Info("reports written", "csv", csvPath, "bundle", zipPath, "rows", len(batch.Rows))

	if cfg.PreviewRows > 0 {
		return report.WritePreview(stdout, batch.Rows, cfg.PreviewRows)
	}
	return nil
}

// runSingle extracts one document into a summary JSON and an items CSV.
func runSingle(ctx context.Context, cfg *config.Config, svc *extractor.Service, logger *slog.Logger) error {
	batch, err := svc.ExtractFiles(ctx, cfg.Inputs[:1], options(cfg))
	if err != nil {
		return err
	}

	summaryPath, itemsPath, err := report.WriteSingle(cfg.OutputDirectory, batch.Results[0])
	if err != nil {
		return err
	}
	logger.Info("reports written", "summary", summaryPath, "items", itemsPath)
	return nil
}

// runStdioMode serves the MCP tools until stdin closes or ctx is cancelled.
func runStdioMode(ctx context.Context, cfg *config.Config, svc *extractor.Service, engine string, logger *slog.Logger) error {
	server, err := mcp.NewServer(cfg, svc, engine, logger)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	return server.Run(ctx)
}

func run(ctx context.Context, cfg *config.Config, stdout io.Writer, logger *slog.Logger) error {
	svc, engine, err := newService(cfg, logger)
	if err != nil {
		return err
	}
	logger.Debug("starting", "config", cfg.String(), "engine", engine)

	switch cfg.Mode {
	case config.ModeStdio:
		return runStdioMode(ctx, cfg, svc, engine, logger)
	case config.ModeSingle:
		return runSingle(ctx, cfg, svc, logger)
	default:
		return runBatch(ctx, cfg, svc, stdout, logger)
	}
}

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion(os.Stdout)
			return
		}
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(2)
	}
	if version != "dev" {
		cfg.Version = version
	}

	logger := newLogger(cfg, os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Stdout, logger); err != nil {
		logger.Error("extraction failed", "error", err)
		stop()
		os.Exit(1)
	}
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "GST Invoice Extractor\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}
