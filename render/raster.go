package render

import (
	"image"
	"sync/atomic"
)

// Raster is a ref-counted handle to a decoded page image. Clone increments
// the count, Release decrements it, and the pixels are dropped when the count
// reaches zero. A handle must not be used after its final Release.
type Raster struct {
	refs atomic.Int32
	img  image.Image
}

// NewRaster wraps img in a handle with a reference count of one.
func NewRaster(img image.Image) *Raster {
	r := &Raster{img: img}
	r.refs.Store(1)
	return r
}

// Clone adds a reference and returns the handle.
func (r *Raster) Clone() *Raster {
	r.refs.Add(1)
	return r
}

// Release drops one reference. The underlying image is freed exactly once,
// when the count reaches zero.
func (r *Raster) Release() {
	if r.refs.Add(-1) == 0 {
		r.img = nil
	}
}

// Image returns the decoded pixels, or nil after the final Release.
func (r *Raster) Image() image.Image {
	return r.img
}

// Bounds returns the pixel bounds of the raster.
func (r *Raster) Bounds() image.Rectangle {
	if r.img == nil {
		return image.Rectangle{}
	}
	return r.img.Bounds()
}
