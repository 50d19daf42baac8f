// Package pdfengine provides the rendering backends behind render.Engine:
// go-pdfium over WebAssembly (pure Go, no CGo) and go-fitz (MuPDF, requires
// CGo). Both share the imaging-based thumbnail downsample.
package pdfengine

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/disintegration/imaging"

	"github.com/programClown/Caly/render"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger

// New opens filename with the named backend. An empty or unknown name picks
// the PDFium backend, which runs everywhere.
func New(backend, filename string, dpi float64, thumbnailWidth int) (render.Engine, error) {
	switch backend {
	case "fitz":
		return NewFitzEngine(filename, dpi, thumbnailWidth)
	case "", "pdfium":
		return NewPDFiumEngine(filename, dpi, thumbnailWidth)
	default:
		return nil, fmt.Errorf("unknown PDF engine %q", backend)
	}
}

// downsample resizes a page raster to the thumbnail width, preserving aspect
// ratio, with a light sharpen to keep text legible at small sizes.
func downsample(page image.Image, width int) image.Image {
	thumb := imaging.Resize(page, width, 0, imaging.Lanczos)
	return imaging.Sharpen(thumb, 0.5)
}
