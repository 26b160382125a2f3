package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/disintegration/imaging"
)

// PageRenderer turns every page of a PDF into an image, in page order. A
// nil image stands for a page with nothing to recognize.
type PageRenderer interface {
	Name() string
	Render(ctx context.Context, data []byte) ([]image.Image, error)
}

// ErrNoPages is returned by a renderer that produced no page images.
var ErrNoPages = errors.New("no page images rendered")

var renderedPagePattern = regexp.MustCompile(`-(\d+)\.png$`)

// PopplerRenderer rasterizes pages with the pdftoppm command.
type PopplerRenderer struct {
	Binary string
	DPI    int
}

// NewPopplerRenderer creates a renderer using pdftoppm from PATH at dpi.
func NewPopplerRenderer(dpi int) *PopplerRenderer {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return &PopplerRenderer{Binary: "pdftoppm", DPI: dpi}
}

// Name implements PageRenderer.
func (r *PopplerRenderer) Name() string { return "pdftoppm" }

// Available reports whether the pdftoppm binary can be found.
func (r *PopplerRenderer) Available() bool {
	_, err := exec.LookPath(r.Binary)
	return err == nil
}

// Render implements PageRenderer.
func (r *PopplerRenderer) Render(ctx context.Context, data []byte) ([]image.Image, error) {
	tmpDir, err := os.MkdirTemp("", "invoice-render-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	input := filepath.Join(tmpDir, "input.pdf")
	if err := os.WriteFile(input, data, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write PDF for rendering: %w", err)
	}

	prefix := filepath.Join(tmpDir, "page")
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.Binary, "-png", "-r", strconv.Itoa(r.DPI), input, prefix)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s failed: %w: %s", r.Binary, err, bytes.TrimSpace(stderr.Bytes()))
	}

	files, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return nil, fmt.Errorf("failed to list rendered pages: %w", err)
	}
	if len(files) == 0 {
		return nil, ErrNoPages
	}
	sortRenderedPages(files)

	pages := make([]image.Image, 0, len(files))
	for _, file := range files {
		img, err := imaging.Open(file)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(file), err)
		}
		pages = append(pages, img)
	}
	return pages, nil
}

// sortRenderedPages orders pdftoppm output by page number. pdftoppm pads
// the number to the width of the page count, so lexical order is not enough.
func sortRenderedPages(files []string) {
	sort.SliceStable(files, func(i, j int) bool {
		return renderedPageNumber(files[i]) < renderedPageNumber(files[j])
	})
}

func renderedPageNumber(path string) int {
	m := renderedPagePattern.FindStringSubmatch(filepath.Base(path))
	if len(m) < 2 {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

// FallbackRenderer tries each renderer in turn and returns the first
// successful rendering.
type FallbackRenderer struct {
	renderers []PageRenderer
}

// NewFallbackRenderer creates a renderer chain. Nil entries are skipped.
func NewFallbackRenderer(renderers ...PageRenderer) *FallbackRenderer {
	chain := make([]PageRenderer, 0, len(renderers))
	for _, r := range renderers {
		if r != nil {
			chain = append(chain, r)
		}
	}
	return &FallbackRenderer{renderers: chain}
}

// Name implements PageRenderer.
func (f *FallbackRenderer) Name() string { return "fallback" }

// Render implements PageRenderer.
func (f *FallbackRenderer) Render(ctx context.Context, data []byte) ([]image.Image, error) {
	if len(f.renderers) == 0 {
		return nil, errors.New("no page renderer configured")
	}

	var errs []error
	for _, r := range f.renderers {
		pages, err := r.Render(ctx, data)
		if err == nil && len(pages) > 0 {
			return pages, nil
		}
		if err == nil {
			err = ErrNoPages
		}
		errs = append(errs, fmt.Errorf("%s: %w", r.Name(), err))
	}
	return nil, errors.Join(errs...)
}
