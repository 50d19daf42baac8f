package render

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger

// Service owns the render pipeline: the unbounded request queue, the
// per-kind cancellation registries and the single dispatcher goroutine that
// serializes all engine work. Ask*/AskRemove* may be called from any
// goroutine, concurrently with each other and with the dispatcher.
type Service struct {
	engine Engine

	queue      *requestQueue
	pictures   *cancelRegistry
	thumbnails *cancelRegistry
	textLayers *cancelRegistry

	root     context.Context
	shutdown context.CancelFunc
	disposed atomic.Bool
	done     chan struct{}

	// focus is the page number of the most recent picture request; the
	// janitor sweeps around it.
	focus atomic.Int64
}

// NewService starts the dispatcher goroutine and returns the running
// service. The caller keeps ownership of engine but must not close it before
// closing the service.
func NewService(engine Engine) *Service {
	root, cancel := context.WithCancel(context.Background())
	s := &Service{
		engine:     engine,
		queue:      newRequestQueue(),
		pictures:   newCancelRegistry(KindPicture),
		thumbnails: newCancelRegistry(KindThumbnail),
		textLayers: newCancelRegistry(KindTextLayer),
		root:       root,
		shutdown:   cancel,
		done:       make(chan struct{}),
	}
	context.AfterFunc(root, s.queue.Close)
	go s.processLoop()
	return s
}

// AskPageSize requests the intrinsic size of page. Size requests are neither
// deduplicated nor cancelable: geometry is cheap, idempotent and always
// wanted once known, so ctx is accepted for symmetry only.
func (s *Service) AskPageSize(ctx context.Context, page *Page) {
	_ = ctx
	if s.disposed.Load() {
		return
	}
	s.queue.Enqueue(newRequest(page, KindPageSize, s.root))
}

// AskPagePicture requests the full-resolution raster for page. A duplicate
// request while one is in flight is dropped. ctx typically belongs to the
// viewport; canceling it abandons the request.
func (s *Service) AskPagePicture(ctx context.Context, page *Page) {
	if s.disposed.Load() {
		return
	}
	tok, ok := s.pictures.Admit(page.Number, s.root, ctx)
	if !ok {
		return
	}
	s.focus.Store(int64(page.Number))
	s.queue.Enqueue(newRequest(page, KindPicture, tok))
}

// AskPageThumbnail requests the thumbnail raster for page.
func (s *Service) AskPageThumbnail(ctx context.Context, page *Page) {
	if s.disposed.Load() {
		return
	}
	tok, ok := s.thumbnails.Admit(page.Number, s.root, ctx)
	if !ok {
		return
	}
	s.queue.Enqueue(newRequest(page, KindThumbnail, tok))
}

// AskPageTextLayer requests the extracted text layer for page.
func (s *Service) AskPageTextLayer(ctx context.Context, page *Page) {
	if s.disposed.Load() {
		return
	}
	tok, ok := s.textLayers.Admit(page.Number, s.root, ctx)
	if !ok {
		return
	}
	s.queue.Enqueue(newRequest(page, KindTextLayer, tok))
}

// AskRemovePagePicture cancels any in-flight picture request for page and
// releases the already-rendered raster, if any.
func (s *Service) AskRemovePagePicture(page *Page) {
	s.pictures.CancelAndRemove(page.Number)
	page.ClearPicture()
}

// AskRemoveThumbnail cancels any in-flight thumbnail request for page and
// releases the thumbnail raster, if any.
func (s *Service) AskRemoveThumbnail(page *Page) {
	s.thumbnails.CancelAndRemove(page.Number)
	page.ClearThumbnail()
}

// AskRemovePageTextLayer cancels any in-flight text request for page and
// clears the text layer slot.
func (s *Service) AskRemovePageTextLayer(page *Page) {
	s.textLayers.CancelAndRemove(page.Number)
	page.ClearTextLayer()
}

// Close cancels the root token, stops the dispatcher and marks the service
// disposed. Queued requests are abandoned. Close is idempotent and disposal
// is terminal: a closed service never restarts and every later Ask* is a
// silent no-op.
func (s *Service) Close() error {
	if s.disposed.Swap(true) {
		return nil
	}
	s.shutdown()
	<-s.done
	return nil
}

func (s *Service) processLoop() {
	defer close(s.done)
	for {
		req, ok := s.queue.Dequeue()
		if !ok {
			return
		}
		if s.root.Err() != nil {
			return
		}
		s.process(req)
	}
}

// process routes one request to its kind handler. Handlers run strictly one
// at a time; a failed page simply never gets its artifact and the caller can
// retry by asking again.
func (s *Service) process(req *Request) {
	defer func() {
		if r := recover(); r != nil {
			Logger.Error("Panic recovered in render handler",
				"panic", r, "requestID", req.ID.String(),
				"page", req.Page.Number, "kind", req.Kind.String())
		}
	}()

	var err error
	switch req.Kind {
	case KindPageSize:
		err = s.handlePageSize(req)
	case KindPicture:
		err = s.handlePicture(req)
	case KindThumbnail:
		err = s.handleThumbnail(req)
	case KindTextLayer:
		err = s.handleTextLayer(req)
	default:
		Logger.Warn("Dropping request of unknown kind", "kind", int(req.Kind))
	}

	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		Logger.Debug("Render request canceled",
			"requestID", req.ID.String(), "page", req.Page.Number, "kind", req.Kind.String())
	default:
		Logger.Error("Render request failed",
			"requestID", req.ID.String(), "page", req.Page.Number,
			"kind", req.Kind.String(), "error", err)
	}
}
