package pdfengine

import (
	"context"
	"fmt"
	"image"
	"os"
	"time"

	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/references"
	"github.com/klippa-app/go-pdfium/requests"
	"github.com/klippa-app/go-pdfium/webassembly"

	"github.com/programClown/Caly/render"
)

// PDFiumEngine renders pages with go-pdfium over WebAssembly (pure Go, no
// CGo). The dispatcher serializes all calls, so a single worker is enough.
type PDFiumEngine struct {
	pool           pdfium.Pool
	instance       pdfium.Pdfium
	document       references.FPDF_DOCUMENT
	pageCount      int
	dpi            float64
	thumbnailWidth int
}

// NewPDFiumEngine opens filename for rendering at dpi.
func NewPDFiumEngine(filename string, dpi float64, thumbnailWidth int) (*PDFiumEngine, error) {
	pool, err := webassembly.Init(webassembly.Config{
		MinIdle:  1, // Minimum idle workers
		MaxIdle:  1, // Maximum idle workers
		MaxTotal: 1, // Total worker limit
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PDFium WebAssembly: %w", err)
	}

	instance, err := pool.GetInstance(time.Second * 30)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to get PDFium instance: %w", err)
	}

	pdfBytes, err := os.ReadFile(filename)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to read PDF file: %w", err)
	}

	doc, err := instance.OpenDocument(&requests.OpenDocument{
		File: &pdfBytes,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to open PDF document: %w", err)
	}

	pageCountResp, err := instance.FPDF_GetPageCount(&requests.FPDF_GetPageCount{
		Document: doc.Document,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to get page count: %w", err)
	}

	return &PDFiumEngine{
		pool:           pool,
		instance:       instance,
		document:       doc.Document,
		pageCount:      pageCountResp.PageCount,
		dpi:            dpi,
		thumbnailWidth: thumbnailWidth,
	}, nil
}

// PageCount returns the number of pages in the document.
func (e *PDFiumEngine) PageCount() int {
	return e.pageCount
}

func (e *PDFiumEngine) page(pageNumber int) requests.Page {
	return requests.Page{
		ByIndex: &requests.PageByIndex{
			Document: e.document,
			Index:    pageNumber - 1,
		},
	}
}

// PageSize returns the page size in points.
func (e *PDFiumEngine) PageSize(ctx context.Context, pageNumber int) (float64, float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	resp, err := e.instance.GetPageSize(&requests.GetPageSize{
		Page: e.page(pageNumber),
	})
	if err != nil {
		return 0, 0, fmt.Errorf("unable to measure page %d: %w", pageNumber, err)
	}
	return resp.Width, resp.Height, nil
}

// RenderPage decodes one page at the engine's DPI.
func (e *PDFiumEngine) RenderPage(ctx context.Context, pageNumber int) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pageRender, err := e.instance.RenderPageInDPI(&requests.RenderPageInDPI{
		DPI:  int(e.dpi),
		Page: e.page(pageNumber),
	})
	if err != nil {
		return nil, fmt.Errorf("unable to render page %d: %w", pageNumber, err)
	}
	img := pageRender.Result.Image

	// Clean up WebAssembly resources for this page
	pageRender.Cleanup()
	return img, nil
}

// Thumbnail downsamples an already-decoded page raster.
func (e *PDFiumEngine) Thumbnail(ctx context.Context, page image.Image) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return downsample(page, e.thumbnailWidth), nil
}

// TextLayer extracts the page text. PDFium reports plain text only; word
// positions stay empty on this backend.
func (e *PDFiumEngine) TextLayer(ctx context.Context, pageNumber int) (*render.TextLayer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := e.instance.GetPageText(&requests.GetPageText{
		Page: e.page(pageNumber),
	})
	if err != nil {
		return nil, fmt.Errorf("unable to extract text for page %d: %w", pageNumber, err)
	}
	return &render.TextLayer{Plain: resp.Text}, nil
}

// Close releases the document and the WebAssembly pool.
func (e *PDFiumEngine) Close() error {
	if e.instance != nil {
		e.instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{
			Document: e.document,
		})
		e.instance = nil
	}
	if e.pool != nil {
		e.pool.Close()
		e.pool = nil
	}
	return nil
}
