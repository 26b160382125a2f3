// Package mcp exposes invoice extraction as Model Context Protocol tools.
package mcp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/gst-invoice-extractor/internal/config"
	"github.com/a3tai/gst-invoice-extractor/internal/descriptions"
	"github.com/a3tai/gst-invoice-extractor/internal/extractor"
	"github.com/a3tai/gst-invoice-extractor/internal/pdf"
	"github.com/a3tai/gst-invoice-extractor/internal/pdf/security"
	"github.com/a3tai/gst-invoice-extractor/internal/report"
)

const maxListedFiles = 10

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	extractor *extractor.Service
	search    *pdf.Search
	paths     *security.PathValidator
	engine    string
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance. engine describes the OCR
// setup and is reported by the server info tool.
func NewServer(cfg *config.Config, svc *extractor.Service, engine string, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if svc == nil {
		return nil, fmt.Errorf("extractor service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	paths, err := security.NewPathValidator(cfg.PDFDirectory)
	if err != nil {
		return nil, fmt.Errorf("invalid invoice directory: %w", err)
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		config:    cfg,
		extractor: svc,
		search:    pdf.NewSearch(cfg.MaxFileSize),
		paths:     paths,
		engine:    engine,
		logger:    logger,
		mcpServer: mcpServer,
	}
	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	extractFileTool := mcp.NewTool(
		"invoice_extract_file",
		mcp.WithDescription(descriptions.InvoiceExtractFileDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF, absolute or relative to the invoice directory"),
		),
		mcp.WithBoolean("force_ocr",
			mcp.Description("Skip the text layer and OCR every page"),
		),
		mcp.WithString("ocr_lang",
			mcp.Description("OCR language code, e.g. 'eng' or 'eng+hin'"),
		),
	)
	s.mcpServer.AddTool(extractFileTool, s.handleExtractFile)

	extractDirectoryTool := mcp.NewTool(
		"invoice_extract_directory",
		mcp.WithDescription(descriptions.InvoiceExtractDirectoryDescription),
		mcp.WithString("directory",
			mcp.Description("Directory to process (uses the invoice directory if empty)"),
		),
		mcp.WithString("query",
			mcp.Description("Only process files whose names contain these words"),
		),
		mcp.WithBoolean("force_ocr",
			mcp.Description("Skip the text layer and OCR every page"),
		),
		mcp.WithString("ocr_lang",
			mcp.Description("OCR language code, e.g. 'eng' or 'eng+hin'"),
		),
	)
	s.mcpServer.AddTool(extractDirectoryTool, s.handleExtractDirectory)

	serverInfoTool := mcp.NewTool(
		"invoice_server_info",
		mcp.WithDescription(descriptions.InvoiceServerInfoDescription),
	)
	s.mcpServer.AddTool(serverInfoTool, s.handleServerInfo)
}

func (s *Server) options(args map[string]interface{}) extractor.Options {
	opts := extractor.Options{
		OCRLanguage: s.config.OCRLanguage,
		ForceOCR:    s.config.ForceOCR,
	}
	if force, ok := args["force_ocr"].(bool); ok {
		opts.ForceOCR = force
	}
	if lang, ok := args["ocr_lang"].(string); ok && strings.TrimSpace(lang) != "" {
		opts.OCRLanguage = strings.TrimSpace(lang)
	}
	return opts
}

func (s *Server) handleExtractFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resolved, err := s.paths.Resolve(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	batch, err := s.extractor.ExtractFiles(ctx, []string{resolved}, s.options(request.GetArguments()))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(batch.Results) == 0 {
		return mcp.NewToolResultError(fmt.Sprintf("no result for %s", path)), nil
	}

	text, err := formatDocument(batch.Results[0])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleExtractDirectory(ctx context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	args := request.GetArguments()

	dirArg, _ := args["directory"].(string)
	directory, err := s.paths.ResolveDirectory(dirArg)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	query, _ := args["query"].(string)
	files, err := s.search.Find(directory, query)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(files) == 0 {
		text := fmt.Sprintf("No invoice PDFs found in directory: %s", directory)
		if query != "" {
			text += fmt.Sprintf(" (searched for: %s)", query)
		}
		return mcp.NewToolResultText(text), nil
	}

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}

	batch, err := s.extractor.ExtractFiles(ctx, paths, s.options(args))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("extraction stopped after %d of %d documents: %v",
			len(batch.Results), len(paths), err)), nil
	}

	text, err := formatBatch(directory, batch)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleServerInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	files, err := s.search.FindPDFs(s.paths.Root())
	if err != nil {
		s.logger.Warn("cannot list invoice directory", "directory", s.paths.Root(), "error", err)
	}
	return mcp.NewToolResultText(s.formatServerInfo(files)), nil
}

// Formatting methods
func formatDocument(r *extractor.Result) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Invoice: %s\n", r.Name)
	fmt.Fprintf(&b, "Text source: %s\n", r.TextSource)
	fmt.Fprintf(&b, "Pages: %d\n", r.Pages)
	fmt.Fprintf(&b, "Line items: %d (from %s)\n", len(r.Items), r.ItemSource)

	b.WriteString("\nSummary:\n")
	if err := report.WriteSummaryJSON(&b, r.Summary()); err != nil {
		return "", err
	}

	b.WriteString("\nLine items (CSV):\n")
	if err := report.WriteItemsCSV(&b, r.Items); err != nil {
		return "", err
	}

	writeWarnings(&b, r)
	return b.String(), nil
}

func formatBatch(directory string, batch *extractor.BatchResult) (string, error) {
	stats := batch.Stats()

	var b strings.Builder
	fmt.Fprintf(&b, "Extracted %d invoice(s) into %d row(s) from directory: %s\n",
		stats.Documents, stats.Rows, directory)
	fmt.Fprintf(&b, "Text layer: %d, OCR: %d, no text: %d\n", stats.TextLayer, stats.OCR, stats.NoText)

	b.WriteString("\nConsolidated rows (CSV):\n")
	if err := report.WriteConsolidatedCSV(&b, batch.Rows); err != nil {
		return "", err
	}

	for _, r := range batch.Results {
		writeWarnings(&b, r)
	}
	return b.String(), nil
}

func writeWarnings(w io.Writer, r *extractor.Result) {
	if len(r.Warnings) == 0 {
		return
	}
	fmt.Fprintf(w, "\nWarnings for %s:\n", r.Name)
	for _, msg := range r.WarningMessages() {
		fmt.Fprintf(w, "  - %s\n", msg)
	}
}

func (s *Server) formatServerInfo(files []pdf.FileInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s v%s - Server Information\n", s.config.ServerName, s.config.Version)
	fmt.Fprintf(&b, "Invoice Directory: %s\n", s.paths.Root())
	fmt.Fprintf(&b, "OCR Engine: %s\n", s.engine)
	fmt.Fprintf(&b, "OCR Language: %s (force OCR: %t)\n", s.config.OCRLanguage, s.config.ForceOCR)
	fmt.Fprintf(&b, "Max File Size: %d MB\n\n", s.config.MaxFileSize/(1024*1024))

	if len(files) == 0 {
		b.WriteString("Directory Contents: No invoice PDFs found\n")
	} else {
		fmt.Fprintf(&b, "Directory Contents (%d invoice PDFs found):\n", len(files))
		for i, file := range files {
			if i >= maxListedFiles {
				fmt.Fprintf(&b, "   ... and %d more files\n", len(files)-maxListedFiles)
				break
			}
			fmt.Fprintf(&b, "   %d. %s (%d bytes)\n", i+1, file.Name, file.Size)
		}
	}

	b.WriteString("\nAvailable Tools:\n")
	for _, name := range descriptions.GetAllToolNames() {
		summary, _, _ := strings.Cut(descriptions.GetToolDescription(name), "\n")
		fmt.Fprintf(&b, "  %s: %s\n", name, summary)
	}
	b.WriteString("\nPaths are resolved relative to the invoice directory and may not leave it.\n")

	return b.String()
}

// Run serves MCP over stdin/stdout until ctx is cancelled or input ends.
func (s *Server) Run(ctx context.Context) error {
	return s.serve(ctx, os.Stdin, os.Stdout)
}

func (s *Server) serve(ctx context.Context, in io.Reader, out io.Writer) error {
	s.logger.Info("starting MCP server",
		"name", s.config.ServerName,
		"directory", s.paths.Root(),
		"engine", s.engine)

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))

	if err := stdio.Listen(ctx, in, out); err != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
