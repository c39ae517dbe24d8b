// Package raster renders PDF pages to PNG images for OCR.
package raster

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"
	"strings"

	fitz "github.com/gen2brain/go-fitz"

	"notelens/notice"
)

var (
	// ErrNotPDF means the buffer does not start with the %PDF- header.
	ErrNotPDF = errors.New("not a PDF document")

	// ErrEncrypted means the document is password protected.
	ErrEncrypted = errors.New("PDF is password protected")

	// ErrCorrupted means the document could not be parsed.
	ErrCorrupted = errors.New("PDF could not be parsed")
)

// baseDPI is the rendering resolution at scale 1.0.
const baseDPI = 72

var pdfMagic = []byte("%PDF-")

// CheckMagic reports whether buf starts with the PDF header.
func CheckMagic(buf []byte) bool {
	return bytes.HasPrefix(buf, pdfMagic)
}

// PageImage is one rendered page. PageNumber is 1-based and never renumbered
// after a skipped page. ByteSize is the encoded PNG's byte length.
type PageImage struct {
	PageNumber int
	Base64Data string
	ByteSize   int
	Width      int
	Height     int
}

// Result carries the rendered pages plus the document's full page count.
type Result struct {
	Pages      []PageImage
	TotalPages int
}

// Progress is called after each attempted page.
type Progress func(page, total int)

// Rasterize renders up to maxPages pages (0 = unlimited) at the given scale.
// A page that fails to render is logged and skipped; the document failing to
// open is fatal and classified as encrypted or corrupted.
func Rasterize(ctx context.Context, buf []byte, scale float64, maxPages int, log *notice.Logger, progress Progress) (*Result, error) {
	if !CheckMagic(buf) {
		return nil, ErrNotPDF
	}

	doc, err := fitz.NewFromMemory(buf)
	if err != nil {
		return nil, classifyOpenError(err)
	}
	defer doc.Close()

	total := doc.NumPage()
	pages := total
	if maxPages > 0 && maxPages < total {
		pages = maxPages
	}
	log.Debugf("rasterizing %d of %d pages at %.1fx", pages, total, scale)

	result := &Result{TotalPages: total}
	for i := 0; i < pages; i++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		img, err := doc.ImageDPI(i, baseDPI*scale)
		if err != nil {
			log.Warnf("page %d failed to render: %v", i+1, err)
			if progress != nil {
				progress(i+1, pages)
			}
			continue
		}

		var encoded bytes.Buffer
		if err := png.Encode(&encoded, img); err != nil {
			log.Warnf("page %d failed to encode: %v", i+1, err)
			if progress != nil {
				progress(i+1, pages)
			}
			continue
		}

		bounds := img.Bounds()
		result.Pages = append(result.Pages, PageImage{
			PageNumber: i + 1,
			Base64Data: base64.StdEncoding.EncodeToString(encoded.Bytes()),
			ByteSize:   encoded.Len(),
			Width:      bounds.Dx(),
			Height:     bounds.Dy(),
		})
		if progress != nil {
			progress(i+1, pages)
		}
	}

	return result, nil
}

// classifyOpenError distinguishes password protection from plain corruption.
func classifyOpenError(err error) error {
	if errors.Is(err, fitz.ErrNeedsPassword) || strings.Contains(strings.ToLower(err.Error()), "password") {
		return fmt.Errorf("%w: %v", ErrEncrypted, err)
	}
	return fmt.Errorf("%w: %v", ErrCorrupted, err)
}
