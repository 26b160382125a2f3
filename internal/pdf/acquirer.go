package pdf

import (
	"context"
	"errors"
	"log/slog"

	pdferrors "github.com/a3tai/gst-invoice-extractor/internal/pdf/errors"
)

// ErrNoOCREngine is reported when OCR is needed but no renderer or
// recognizer is configured.
var ErrNoOCREngine = errors.New("no OCR engine configured")

// ErrNoPageImage is reported for a page the renderer produced no image for.
var ErrNoPageImage = errors.New("no image for page")

// AcquirerConfig wires an Acquirer.
type AcquirerConfig struct {
	Renderer      PageRenderer
	Recognizer    Recognizer
	MinTextLength int
	Logger        *slog.Logger
}

// Acquirer obtains the text of a PDF, preferring the embedded text layer
// and falling back to OCR for scanned documents.
type Acquirer struct {
	reader        *Reader
	renderer      PageRenderer
	recognizer    Recognizer
	minTextLength int
	logger        *slog.Logger
}

// NewAcquirer creates an Acquirer. A zero MinTextLength selects
// DefaultMinTextLength.
func NewAcquirer(cfg AcquirerConfig) *Acquirer {
	minLen := cfg.MinTextLength
	if minLen <= 0 {
		minLen = DefaultMinTextLength
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Acquirer{
		reader:        NewReader(),
		renderer:      cfg.Renderer,
		recognizer:    cfg.Recognizer,
		minTextLength: minLen,
		logger:        logger,
	}
}

// Acquire returns the text of data. It never returns nil; failures are
// reported as warnings and leave the best text found so far in place.
func (a *Acquirer) Acquire(ctx context.Context, data []byte, opts AcquireOptions) (*DocumentText, []error) {
	doc := &DocumentText{Source: SourceNone}
	var warnings []error

	if !opts.ForceOCR {
		layer, errs := a.reader.Read(data)
		warnings = append(warnings, errs...)

		doc.Pages = layer.Pages
		doc.Tables = layer.Tables
		doc.Text = JoinPages(layer.Pages)
		if doc.Text != "" {
			doc.Source = SourceTextLayer
		}

		if textLength(doc.Text) >= a.minTextLength {
			return doc, warnings
		}
		a.logger.Debug("text layer too short, falling back to OCR",
			"chars", textLength(doc.Text), "min", a.minTextLength)
	}

	pages, errs := a.recognize(ctx, data, opts.language())
	warnings = append(warnings, errs...)

	if text := JoinPages(pages); text != "" {
		doc.Pages = pages
		doc.Text = text
		doc.Source = SourceOCR
	}

	return doc, warnings
}

// recognize renders every page and OCRs it in page order. A page that
// fails to recognize is recorded as "".
func (a *Acquirer) recognize(ctx context.Context, data []byte, lang string) ([]string, []error) {
	if a.renderer == nil || a.recognizer == nil {
		return nil, []error{pdferrors.New(pdferrors.StageOCR, ErrNoOCREngine)}
	}

	images, err := a.renderer.Render(ctx, data)
	if err != nil {
		return nil, []error{pdferrors.New(pdferrors.StageRender, err)}
	}

	var warnings []error
	pages := make([]string, 0, len(images))
	for i, img := range images {
		if img == nil {
			warnings = append(warnings, pdferrors.New(pdferrors.StageRender, ErrNoPageImage).WithPage(i+1))
			pages = append(pages, "")
			continue
		}
		text, err := a.recognizer.Recognize(ctx, img, lang)
		if err != nil {
			warnings = append(warnings, pdferrors.New(pdferrors.StageOCR, err).WithPage(i+1))
			text = ""
		}
		pages = append(pages, text)
	}

	a.logger.Debug("ocr complete", "pages", len(pages), "engine", a.recognizer.Name(), "lang", lang)
	return pages, warnings
}

// Engine describes the configured OCR chain, for diagnostics.
func (a *Acquirer) Engine() string {
	if a.renderer == nil || a.recognizer == nil {
		return "none"
	}
	return a.renderer.Name() + "+" + a.recognizer.Name()
}
