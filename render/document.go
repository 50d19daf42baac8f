package render

// Document binds a rendering engine to its page models and the service that
// fills them. The document owns the engine and the service; pages are shared
// with the viewer, which asks for artifacts as they scroll into view.
type Document struct {
	Path string

	engine  Engine
	service *Service
	pages   []*Page
}

// NewDocument builds page models for every page of the engine's document and
// starts a render service on top of it.
func NewDocument(path string, engine Engine) *Document {
	pages := make([]*Page, engine.PageCount())
	for i := range pages {
		pages[i] = NewPage(i + 1)
	}
	return &Document{
		Path:    path,
		engine:  engine,
		service: NewService(engine),
		pages:   pages,
	}
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return len(d.pages)
}

// Page returns the model for page number (1-based), or nil when out of range.
func (d *Document) Page(number int) *Page {
	if number < 1 || number > len(d.pages) {
		return nil
	}
	return d.pages[number-1]
}

// Service returns the render service filling this document's pages.
func (d *Document) Service() *Service {
	return d.service
}

// Close stops the render service, then the engine.
func (d *Document) Close() error {
	d.service.Close()
	return d.engine.Close()
}
