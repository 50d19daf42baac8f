package render

import (
	"context"
	"image"
)

// Engine is the document rendering backend. Implementations live in the
// pdfengine package; the dispatch core treats every operation as opaque,
// slow, cancelable and fallible. Page numbers are 1-based. Implementations
// are expected to honor ctx internally so canceled work aborts promptly.
type Engine interface {
	// PageCount returns the number of pages in the document.
	PageCount() int

	// PageSize returns the intrinsic size of a page in points.
	PageSize(ctx context.Context, pageNumber int) (width, height float64, err error)

	// RenderPage decodes a page into a full-resolution raster.
	RenderPage(ctx context.Context, pageNumber int) (image.Image, error)

	// Thumbnail downsamples an already-decoded page raster.
	Thumbnail(ctx context.Context, page image.Image) (image.Image, error)

	// TextLayer extracts the text of a page.
	TextLayer(ctx context.Context, pageNumber int) (*TextLayer, error)

	// Close releases the backend's resources.
	Close() error
}
