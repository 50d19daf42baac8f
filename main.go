package main

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/programClown/Caly/config"
	"github.com/programClown/Caly/ipc"
	"github.com/programClown/Caly/pdfengine"
	"github.com/programClown/Caly/render"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger

// artifactWait bounds how long an HTTP request waits for the dispatcher to
// produce its artifact before giving up with 504.
const artifactWait = 30 * time.Second

// injectGlobals injects all of our globals into their packages
func injectGlobals(logger *slog.Logger) {
	Logger = logger
	config.Logger = logger
	render.Logger = logger
	pdfengine.Logger = logger
	ipc.Logger = logger
}

func main() {
	viewerConfig, logger := config.Setup()
	injectGlobals(logger) //inject the logger into all of the packages

	if len(os.Args) < 2 {
		fmt.Println("usage: caly <document.pdf>")
		os.Exit(2)
	}
	docPath, err := filepath.Abs(os.Args[1])
	if err != nil {
		Logger.Error("Unable to resolve document path", "path", os.Args[1], "error", err)
		os.Exit(1)
	}

	// Forward the document to an already-running instance when there is one.
	notifyErr := ipc.Notify(viewerConfig.SocketPath, ipc.CommandOpen, docPath)
	if notifyErr == nil {
		Logger.Info("Forwarded document to running instance", "path", docPath)
		return
	}
	if !errors.Is(notifyErr, ipc.ErrNoInstance) {
		Logger.Warn("Found a running instance but could not forward the document", "error", notifyErr)
	}

	engine, err := pdfengine.New(viewerConfig.Engine, docPath, float64(viewerConfig.RenderDPI), viewerConfig.ThumbnailWidth)
	if err != nil {
		Logger.Error("Unable to open document", "path", docPath, "error", err)
		os.Exit(1)
	}

	doc := render.NewDocument(docPath, engine)
	defer doc.Close()
	Logger.Info("Opened document", "path", docPath, "pages", doc.PageCount())

	if viewerConfig.JanitorInterval > 0 {
		janitor := doc.StartJanitor(viewerConfig.JanitorInterval, viewerConfig.JanitorWindow)
		defer janitor.Stop()
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Nobody answered the Notify above, so any socket file left behind is
	// stale. A Notify that failed after connecting means the instance is
	// alive and keeps its socket.
	if errors.Is(notifyErr, ipc.ErrNoInstance) {
		os.Remove(viewerConfig.SocketPath)
	}
	err = ipc.Listen(rootCtx, viewerConfig.SocketPath, func(msg ipc.Message) {
		switch msg.Command {
		case ipc.CommandOpen:
			Logger.Info("Open request from second instance", "path", msg.Payload)
		case ipc.CommandFront:
			Logger.Info("Bring-to-front request from second instance")
		default:
			Logger.Warn("Unknown instance command", "command", msg.Command)
		}
	})
	if err != nil {
		Logger.Warn("Single-instance socket unavailable", "error", err)
	} else {
		defer os.Remove(viewerConfig.SocketPath)
	}

	handler := &viewerHandler{doc: doc, service: doc.Service()}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.GET("/api/document", handler.getDocument)
	e.GET("/api/pages/:number/size", handler.getPageSize)
	e.GET("/api/pages/:number/picture", handler.getPagePicture)
	e.GET("/api/pages/:number/thumbnail", handler.getPageThumbnail)
	e.GET("/api/pages/:number/text", handler.getPageText)
	e.DELETE("/api/pages/:number/picture", handler.removePagePicture)
	e.DELETE("/api/pages/:number/thumbnail", handler.removeThumbnail)
	e.DELETE("/api/pages/:number/text", handler.removeTextLayer)

	go func() {
		<-rootCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		e.Shutdown(shutdownCtx)
	}()

	addr := viewerConfig.ListenAddrIP + ":" + viewerConfig.ListenAddrPort
	Logger.Info("Caly viewer backend listening", "addr", addr, "document", docPath)
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		Logger.Error("Server stopped", "error", err)
	}
}

// viewerHandler will inject the variables needed into routes
type viewerHandler struct {
	doc     *render.Document
	service *render.Service
}

func (h *viewerHandler) page(c echo.Context) (*render.Page, error) {
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid page number")
	}
	page := h.doc.Page(number)
	if page == nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, "page out of range")
	}
	return page, nil
}

// waitFor blocks until ready reports true or ctx ends. The page's update
// broadcast avoids polling: grab the channel, re-check, then wait.
func waitFor(ctx context.Context, page *render.Page, ready func() bool) error {
	for {
		updated := page.Updated()
		if ready() {
			return nil
		}
		select {
		case <-updated:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *viewerHandler) getDocument(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"path":      h.doc.Path,
		"pageCount": h.doc.PageCount(),
	})
}

func (h *viewerHandler) getPageSize(c echo.Context) error {
	page, err := h.page(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), artifactWait)
	defer cancel()

	h.service.AskPageSize(ctx, page)
	if err := waitFor(ctx, page, page.HasSize); err != nil {
		return echo.NewHTTPError(http.StatusGatewayTimeout, "page size not available")
	}
	width, height := page.Size()
	return c.JSON(http.StatusOK, map[string]float64{"width": width, "height": height})
}

func (h *viewerHandler) getPagePicture(c echo.Context) error {
	page, err := h.page(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), artifactWait)
	defer cancel()

	h.service.AskPagePicture(ctx, page)
	if err := waitFor(ctx, page, func() bool { return page.Picture() != nil }); err != nil {
		return echo.NewHTTPError(http.StatusGatewayTimeout, "picture not available")
	}
	raster := page.ClonePicture()
	if raster == nil {
		return echo.NewHTTPError(http.StatusGatewayTimeout, "picture not available")
	}
	defer raster.Release()
	return writePNG(c, raster)
}

func (h *viewerHandler) getPageThumbnail(c echo.Context) error {
	page, err := h.page(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), artifactWait)
	defer cancel()

	h.service.AskPageThumbnail(ctx, page)
	if err := waitFor(ctx, page, func() bool { return page.Thumbnail() != nil }); err != nil {
		return echo.NewHTTPError(http.StatusGatewayTimeout, "thumbnail not available")
	}
	raster := page.CloneThumbnail()
	if raster == nil {
		return echo.NewHTTPError(http.StatusGatewayTimeout, "thumbnail not available")
	}
	defer raster.Release()
	return writePNG(c, raster)
}

func (h *viewerHandler) getPageText(c echo.Context) error {
	page, err := h.page(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), artifactWait)
	defer cancel()

	h.service.AskPageTextLayer(ctx, page)
	if err := waitFor(ctx, page, func() bool { return page.Text() != nil }); err != nil {
		return echo.NewHTTPError(http.StatusGatewayTimeout, "text layer not available")
	}
	return c.JSON(http.StatusOK, page.Text())
}

func (h *viewerHandler) removePagePicture(c echo.Context) error {
	page, err := h.page(c)
	if err != nil {
		return err
	}
	h.service.AskRemovePagePicture(page)
	return c.NoContent(http.StatusNoContent)
}

func (h *viewerHandler) removeThumbnail(c echo.Context) error {
	page, err := h.page(c)
	if err != nil {
		return err
	}
	h.service.AskRemoveThumbnail(page)
	return c.NoContent(http.StatusNoContent)
}

func (h *viewerHandler) removeTextLayer(c echo.Context) error {
	page, err := h.page(c)
	if err != nil {
		return err
	}
	h.service.AskRemovePageTextLayer(page)
	return c.NoContent(http.StatusNoContent)
}

func writePNG(c echo.Context, raster *render.Raster) error {
	c.Response().Header().Set(echo.HeaderContentType, "image/png")
	c.Response().WriteHeader(http.StatusOK)
	return png.Encode(c.Response(), raster.Image())
}
