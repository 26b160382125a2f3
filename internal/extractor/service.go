// Package extractor runs invoice documents through text acquisition, field
// extraction and line-item extraction.
package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/a3tai/gst-invoice-extractor/internal/invoice"
	"github.com/a3tai/gst-invoice-extractor/internal/pdf"
	pdferrors "github.com/a3tai/gst-invoice-extractor/internal/pdf/errors"
)

// TextAcquirer obtains the text of a PDF.
type TextAcquirer interface {
	Acquire(ctx context.Context, data []byte, opts pdf.AcquireOptions) (*pdf.DocumentText, []error)
}

// Options are the per-run extraction settings.
type Options struct {
	OCRLanguage string
	ForceOCR    bool
}

// Document is one input PDF.
type Document struct {
	Name string
	Data []byte
}

// Service orchestrates extraction of invoice documents
type Service struct {
	acquirer  TextAcquirer
	validator *pdf.Validator
	logger    *slog.Logger
}

// NewService creates a new extraction service. validator may be nil, in
// which case documents are not inspected.
func NewService(acquirer TextAcquirer, validator *pdf.Validator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		acquirer:  acquirer,
		validator: validator,
		logger:    logger,
	}
}

// ExtractDocument extracts the header and line items of one document. It
// always returns a result; problems are reported in Result.Warnings.
func (s *Service) ExtractDocument(ctx context.Context, doc Document, opts Options) *Result {
	warnings := pdferrors.NewCollection(doc.Name)
	result := &Result{Name: doc.Name}

	if s.validator != nil {
		inspection, err := s.validator.Inspect(doc.Data)
		if err != nil {
			warnings.Add(pdferrors.New(pdferrors.StageValidate, err))
		}
		result.Inspection = inspection
	}

	text, errs := s.acquirer.Acquire(ctx, doc.Data, pdf.AcquireOptions{
		OCRLanguage: opts.OCRLanguage,
		ForceOCR:    opts.ForceOCR,
	})
	for _, err := range errs {
		warnings.Add(err)
	}
	if text == nil {
		text = &pdf.DocumentText{Source: pdf.SourceNone}
	}

	result.Text = text.Text
	result.TextSource = text.Source
	result.Pages = len(text.Pages)
	result.Tables = len(text.Tables)
	result.Header = invoice.ExtractHeader(text.Text, doc.Name)
	result.Items, result.ItemSource = invoice.ExtractItemsWithSource(text.TableRows(), text.Text)
	result.Warnings = warnings.Errors()

	s.logResult(result)
	return result
}

// ExtractBatch extracts documents one at a time in input order. A document
// that panics still contributes a defaulted result. Cancellation is checked
// between documents; the results gathered so far are returned with the
// context error.
func (s *Service) ExtractBatch(ctx context.Context, docs []Document, opts Options) (*BatchResult, error) {
	names := make([]string, len(docs))
	for i, doc := range docs {
		names[i] = doc.Name
	}
	return s.run(ctx, names, func(i int) *Result {
		return s.extractSafely(ctx, docs[i], opts)
	})
}

// ExtractFiles is ExtractBatch over paths on disk. Files are read one at a
// time; a file that cannot be loaded contributes a defaulted result with a
// validation warning.
func (s *Service) ExtractFiles(ctx context.Context, paths []string, opts Options) (*BatchResult, error) {
	names := make([]string, len(paths))
	for i, path := range paths {
		names[i] = filepath.Base(path)
	}
	return s.run(ctx, names, func(i int) *Result {
		doc, err := LoadFile(s.validator, paths[i])
		if err != nil {
			s.logger.Warn("cannot load document", "path", paths[i], "error", err)
			return failedResult(names[i], pdferrors.New(pdferrors.StageValidate, err))
		}
		return s.extractSafely(ctx, doc, opts)
	})
}

func (s *Service) run(ctx context.Context, names []string, extract func(i int) *Result) (*BatchResult, error) {
	batch := &BatchResult{}

	for i, name := range names {
		if err := ctx.Err(); err != nil {
			return batch, err
		}

		s.logger.Info("processing document", "document", name, "index", i+1, "total", len(names))
		batch.add(extract(i))
	}

	stats := batch.Stats()
	s.logger.Info("batch complete",
		"documents", stats.Documents,
		"rows", stats.Rows,
		"ocr", stats.OCR,
		"no_text", stats.NoText,
		"warnings", stats.Warnings)

	return batch, nil
}

func (s *Service) extractSafely(ctx context.Context, doc Document, opts Options) (result *Result) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("document extraction panicked", "document", doc.Name, "panic", rec)
			result = failedResult(doc.Name, pdferrors.Newf(pdferrors.StageOpen, "extraction panic: %v", rec))
		}
	}()
	return s.ExtractDocument(ctx, doc, opts)
}

func (s *Service) logResult(r *Result) {
	for _, w := range r.Warnings {
		s.logger.Warn("extraction warning", "document", r.Name, "error", w)
	}
	s.logger.Info("document extracted",
		"document", r.Name,
		"source", r.TextSource,
		"pages", r.Pages,
		"tables", r.Tables,
		"items", len(r.Items),
		"item_source", r.ItemSource,
		"invoice_number", r.Header.InvoiceNumber)
}

// failedResult is the record of a document whose extraction did not finish.
func failedResult(name string, cause *pdferrors.ExtractionError) *Result {
	return &Result{
		Name:       name,
		Header:     invoice.ExtractHeader("", name),
		Items:      invoice.ExtractItems(nil, ""),
		ItemSource: invoice.ItemsPlaceholder,
		TextSource: pdf.SourceNone,
		Warnings:   []error{cause.WithDocument(name)},
	}
}

// LoadFile reads a PDF from disk after validating it. The document is
// named after the file's base name.
func LoadFile(validator *pdf.Validator, path string) (Document, error) {
	if validator != nil {
		if err := validator.ValidateFile(path); err != nil {
			return Document{}, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return Document{Name: filepath.Base(path), Data: data}, nil
}
