package render

import (
	"context"
	"sync"
)

// Word is one positioned fragment of a page's extracted text.
type Word struct {
	Text     string  `json:"text"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	W        float64 `json:"w"`
	FontSize float64 `json:"fontSize"`
}

// TextLayer is the extracted text of one page. Words carry positions when
// the extractor can provide them; Plain is always populated.
type TextLayer struct {
	Plain string `json:"plain"`
	Words []Word `json:"words,omitempty"`
}

// Page is the visual model for a single document page. Its slots are the
// single source of truth for "already computed": handlers skip work when
// their slot is populated. Slots are written only by the dispatcher goroutine
// but may be read or cleared concurrently by callers, so every access goes
// through the mutex. Commits re-check the request token inside the critical
// section so a concurrent AskRemove* wins the race with an in-flight handler.
type Page struct {
	Number int // 1-based

	mu        sync.Mutex
	width     float64
	height    float64
	picture   *Raster
	thumbnail *Raster
	textLayer *TextLayer
	updated   chan struct{}
}

// NewPage creates the model for page number (1-based).
func NewPage(number int) *Page {
	return &Page{
		Number:  number,
		updated: make(chan struct{}),
	}
}

// Size returns the intrinsic page size, zero until known.
func (p *Page) Size() (width, height float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.width, p.height
}

// HasSize reports whether the intrinsic size is known.
func (p *Page) HasSize() bool {
	w, h := p.Size()
	return w > 0 && h > 0
}

// Picture returns the full-resolution raster slot, or nil. The returned
// handle is borrowed; use ClonePicture to retain it past the next AskRemove.
func (p *Page) Picture() *Raster {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.picture
}

// ClonePicture returns a new reference to the picture slot, or nil when the
// slot is empty. The caller owns the returned reference.
func (p *Page) ClonePicture() *Raster {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.picture == nil {
		return nil
	}
	return p.picture.Clone()
}

// Thumbnail returns the thumbnail raster slot, or nil. Borrowed reference;
// see Picture.
func (p *Page) Thumbnail() *Raster {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.thumbnail
}

// CloneThumbnail returns a new reference to the thumbnail slot, or nil.
func (p *Page) CloneThumbnail() *Raster {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.thumbnail == nil {
		return nil
	}
	return p.thumbnail.Clone()
}

// Text returns the extracted text layer, or nil.
func (p *Page) Text() *TextLayer {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.textLayer
}

// Updated returns a channel that is closed the next time any slot changes.
// Callers grab the channel, re-check the slot they care about, then wait.
func (p *Page) Updated() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.updated
}

func (p *Page) notifyLocked() {
	close(p.updated)
	p.updated = make(chan struct{})
}

// setSize stores the intrinsic size unless it is already known or the token
// was canceled first.
func (p *Page) setSize(tok context.Context, width, height float64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if tok != nil && tok.Err() != nil {
		return false
	}
	if p.width > 0 && p.height > 0 {
		return false
	}
	p.width, p.height = width, height
	p.notifyLocked()
	return true
}

// setPicture commits a rendered raster. Ownership of the handle transfers to
// the page on success; on failure the caller still owns it and must release.
func (p *Page) setPicture(tok context.Context, r *Raster) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if tok.Err() != nil || p.picture != nil {
		return false
	}
	p.picture = r
	p.notifyLocked()
	return true
}

func (p *Page) setThumbnail(tok context.Context, r *Raster) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if tok.Err() != nil || p.thumbnail != nil {
		return false
	}
	p.thumbnail = r
	p.notifyLocked()
	return true
}

func (p *Page) setTextLayer(tok context.Context, layer *TextLayer) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if tok.Err() != nil || p.textLayer != nil {
		return false
	}
	p.textLayer = layer
	p.notifyLocked()
	return true
}

// ClearPicture empties the picture slot and releases the page's reference.
func (p *Page) ClearPicture() {
	p.mu.Lock()
	r := p.picture
	p.picture = nil
	if r != nil {
		p.notifyLocked()
	}
	p.mu.Unlock()
	if r != nil {
		r.Release()
	}
}

// ClearThumbnail empties the thumbnail slot and releases the page's reference.
func (p *Page) ClearThumbnail() {
	p.mu.Lock()
	r := p.thumbnail
	p.thumbnail = nil
	if r != nil {
		p.notifyLocked()
	}
	p.mu.Unlock()
	if r != nil {
		r.Release()
	}
}

// ClearTextLayer empties the text layer slot.
func (p *Page) ClearTextLayer() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.textLayer == nil {
		return
	}
	p.textLayer = nil
	p.notifyLocked()
}
