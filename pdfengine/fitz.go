package pdfengine

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/ledongthuc/pdf"

	"github.com/programClown/Caly/render"
)

// FitzEngine renders pages with go-fitz (MuPDF) and extracts positioned text
// with ledongthuc/pdf, falling back to MuPDF's plain text when the PDF parser
// cannot read the file.
type FitzEngine struct {
	doc            *fitz.Document
	textFile       *os.File
	textReader     *pdf.Reader
	dpi            float64
	thumbnailWidth int
}

// NewFitzEngine opens filename for rendering at dpi.
func NewFitzEngine(filename string, dpi float64, thumbnailWidth int) (*FitzEngine, error) {
	doc, err := fitz.New(filename)
	if err != nil {
		return nil, fmt.Errorf("unable to open PDF document: %w", err)
	}
	engine := &FitzEngine{doc: doc, dpi: dpi, thumbnailWidth: thumbnailWidth}

	textFile, textReader, err := pdf.Open(filename)
	if err != nil {
		Logger.Warn("Positioned text extraction unavailable, will fall back to plain text",
			"fileName", filepath.Base(filename), "error", err)
	} else {
		engine.textFile = textFile
		engine.textReader = textReader
	}
	return engine, nil
}

// PageCount returns the number of pages in the document.
func (e *FitzEngine) PageCount() int {
	return e.doc.NumPage()
}

// PageSize returns the page bounds in points.
func (e *FitzEngine) PageSize(ctx context.Context, pageNumber int) (float64, float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	bounds, err := e.doc.Bound(pageNumber - 1)
	if err != nil {
		return 0, 0, fmt.Errorf("unable to measure page %d: %w", pageNumber, err)
	}
	return float64(bounds.Dx()), float64(bounds.Dy()), nil
}

// RenderPage decodes one page at the engine's DPI.
func (e *FitzEngine) RenderPage(ctx context.Context, pageNumber int) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, err := e.doc.ImageDPI(pageNumber-1, e.dpi)
	if err != nil {
		return nil, fmt.Errorf("unable to render page %d: %w", pageNumber, err)
	}
	return img, nil
}

// Thumbnail downsamples an already-decoded page raster.
func (e *FitzEngine) Thumbnail(ctx context.Context, page image.Image) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return downsample(page, e.thumbnailWidth), nil
}

// TextLayer extracts the page text, with word positions when available.
func (e *FitzEngine) TextLayer(ctx context.Context, pageNumber int) (*render.TextLayer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if e.textReader != nil {
		layer, err := positionedText(e.textReader, pageNumber)
		if err == nil && layer.Plain != "" {
			return layer, nil
		}
		if err != nil {
			Logger.Debug("Positioned text extraction failed, falling back to plain text",
				"page", pageNumber, "error", err)
		}
	}
	text, err := e.doc.Text(pageNumber - 1)
	if err != nil {
		return nil, fmt.Errorf("unable to extract text for page %d: %w", pageNumber, err)
	}
	return &render.TextLayer{Plain: text}, nil
}

func positionedText(reader *pdf.Reader, pageNumber int) (*render.TextLayer, error) {
	page := reader.Page(pageNumber)
	if page.V.IsNull() {
		return nil, fmt.Errorf("page %d has no content", pageNumber)
	}
	content := page.Content()
	layer := &render.TextLayer{Words: make([]render.Word, 0, len(content.Text))}
	var plain strings.Builder
	for _, text := range content.Text {
		layer.Words = append(layer.Words, render.Word{
			Text:     text.S,
			X:        text.X,
			Y:        text.Y,
			W:        text.W,
			FontSize: text.FontSize,
		})
		plain.WriteString(text.S)
	}
	layer.Plain = plain.String()
	return layer, nil
}

// Close releases the MuPDF document and the text reader.
func (e *FitzEngine) Close() error {
	if e.textFile != nil {
		e.textFile.Close()
		e.textFile = nil
		e.textReader = nil
	}
	if e.doc != nil {
		err := e.doc.Close()
		e.doc = nil
		return err
	}
	return nil
}
