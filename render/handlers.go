package render

import "context"

// The four kind handlers share one skeleton: skip when the slot is already
// populated, fail fast on disposal or cancellation, fetch from the engine,
// commit with a token re-check inside the page's critical section, and
// release the registry entry on every exit path.

func (s *Service) handlePageSize(req *Request) error {
	page := req.Page
	if page.HasSize() {
		return nil
	}
	if s.disposed.Load() {
		return context.Canceled
	}
	if err := req.ctx.Err(); err != nil {
		return err
	}
	width, height, err := s.engine.PageSize(req.ctx, page.Number)
	if err != nil {
		return err
	}
	page.setSize(req.ctx, width, height)
	return nil
}

func (s *Service) handlePicture(req *Request) error {
	page := req.Page
	defer s.pictures.Release(page.Number, req.ctx)

	if page.Picture() != nil {
		return nil
	}
	if s.disposed.Load() {
		return context.Canceled
	}
	if err := req.ctx.Err(); err != nil {
		return err
	}

	img, err := s.engine.RenderPage(req.ctx, page.Number)
	if err != nil {
		return err
	}
	raster := NewRaster(img)
	if !page.setPicture(req.ctx, raster) {
		// Canceled or removed between fetch and commit.
		raster.Release()
		return req.ctx.Err()
	}
	bounds := raster.Bounds()
	page.setSize(req.ctx, float64(bounds.Dx()), float64(bounds.Dy()))
	return nil
}

func (s *Service) handleThumbnail(req *Request) error {
	page := req.Page
	defer s.thumbnails.Release(page.Number, req.ctx)

	if page.Thumbnail() != nil {
		return nil
	}
	if s.disposed.Load() {
		return context.Canceled
	}
	if err := req.ctx.Err(); err != nil {
		return err
	}

	// Reuse the full raster when the page already has one. Otherwise this may
	// be the first decode of the page, so the size side effect applies too.
	src := page.ClonePicture()
	if src == nil {
		img, err := s.engine.RenderPage(req.ctx, page.Number)
		if err != nil {
			return err
		}
		src = NewRaster(img)
		bounds := src.Bounds()
		page.setSize(req.ctx, float64(bounds.Dx()), float64(bounds.Dy()))
	}
	defer src.Release()

	if err := req.ctx.Err(); err != nil {
		return err
	}
	thumb, err := s.engine.Thumbnail(req.ctx, src.Image())
	if err != nil {
		return err
	}
	raster := NewRaster(thumb)
	if !page.setThumbnail(req.ctx, raster) {
		raster.Release()
		return req.ctx.Err()
	}
	return nil
}

func (s *Service) handleTextLayer(req *Request) error {
	page := req.Page
	defer s.textLayers.Release(page.Number, req.ctx)

	if page.Text() != nil {
		return nil
	}
	if s.disposed.Load() {
		return context.Canceled
	}
	if err := req.ctx.Err(); err != nil {
		return err
	}

	layer, err := s.engine.TextLayer(req.ctx, page.Number)
	if err != nil {
		return err
	}
	if !page.setTextLayer(req.ctx, layer) {
		return req.ctx.Err()
	}
	return nil
}
