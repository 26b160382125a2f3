package pdf

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"sort"

	"github.com/disintegration/imaging"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// EmbeddedImageRenderer renders a page as the largest raster image drawn on
// it. Scanned invoices carry one full-page image per page, so this stands
// in for a rasterizer when pdftoppm is not installed.
type EmbeddedImageRenderer struct{}

// NewEmbeddedImageRenderer creates a renderer backed by pdfcpu.
func NewEmbeddedImageRenderer() *EmbeddedImageRenderer {
	return &EmbeddedImageRenderer{}
}

// Name implements PageRenderer.
func (e *EmbeddedImageRenderer) Name() string { return "embedded-images" }

// Render implements PageRenderer. A page without a decodable image is
// returned as nil; an error is returned only when no page yields one.
func (e *EmbeddedImageRenderer) Render(ctx context.Context, data []byte) (pages []image.Image, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			pages, err = nil, fmt.Errorf("pdfcpu panic: %v", rec)
		}
	}()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}
	if err := pctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to ensure page count: %w", err)
	}

	return collectPages(ctx, pctx.PageCount, func(pageNum int) image.Image {
		images, err := pdfcpu.ExtractPageImages(pctx, pageNum, false)
		if err != nil {
			return nil
		}
		return largestImage(images)
	})
}

// collectPages gathers one image per page, nil where pageImage finds none.
func collectPages(ctx context.Context, count int, pageImage func(pageNum int) image.Image) ([]image.Image, error) {
	pages := make([]image.Image, 0, count)
	found := false
	for pageNum := 1; pageNum <= count; pageNum++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img := pageImage(pageNum)
		found = found || img != nil
		pages = append(pages, img)
	}

	if !found {
		return nil, ErrNoPages
	}
	return pages, nil
}

// largestImage decodes the page images and returns the one with the most
// pixels. Formats imaging cannot decode (JPEG 2000, JBIG2) are ignored.
func largestImage(images map[int]model.Image) image.Image {
	objNrs := make([]int, 0, len(images))
	for objNr := range images {
		objNrs = append(objNrs, objNr)
	}
	sort.Ints(objNrs)

	var best image.Image
	bestArea := 0
	for _, objNr := range objNrs {
		img, err := imaging.Decode(images[objNr])
		if err != nil {
			continue
		}
		b := img.Bounds()
		if area := b.Dx() * b.Dy(); area > bestArea {
			best, bestArea = img, area
		}
	}
	return best
}
