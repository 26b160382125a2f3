package pdf

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// Recognizer reads the printed text in a page image.
type Recognizer interface {
	Name() string
	Recognize(ctx context.Context, img image.Image, lang string) (string, error)
}

// Preprocess prepares a page image for OCR: grayscale, stronger contrast,
// and a light sharpen.
func Preprocess(img image.Image) *image.NRGBA {
	out := imaging.Grayscale(img)
	out = imaging.AdjustContrast(out, 20)
	return imaging.Sharpen(out, 1.0)
}

// TesseractRecognizer runs the tesseract command on a preprocessed image.
type TesseractRecognizer struct {
	Binary string
}

// NewTesseractRecognizer creates a recognizer using tesseract from PATH.
func NewTesseractRecognizer() *TesseractRecognizer {
	return &TesseractRecognizer{Binary: "tesseract"}
}

// Name implements Recognizer.
func (t *TesseractRecognizer) Name() string { return "tesseract" }

// Available reports whether the tesseract binary can be found.
func (t *TesseractRecognizer) Available() bool {
	_, err := exec.LookPath(t.Binary)
	return err == nil
}

// Recognize implements Recognizer.
func (t *TesseractRecognizer) Recognize(ctx context.Context, img image.Image, lang string) (string, error) {
	if lang == "" {
		lang = DefaultOCRLanguage
	}

	tmpDir, err := os.MkdirTemp("", "invoice-ocr-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	input := filepath.Join(tmpDir, "page.png")
	if err := imaging.Save(Preprocess(img), input); err != nil {
		return "", fmt.Errorf("failed to save page image: %w", err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.Binary, input, "stdout", "-l", lang, "--psm", "3")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s failed: %w: %s", t.Binary, err, bytes.TrimSpace(stderr.Bytes()))
	}

	return strings.TrimSpace(stdout.String()), nil
}
