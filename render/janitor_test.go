package render

import (
	"context"
	"image"
	"testing"

	"github.com/robfig/cron/v3"
)

func populatedDocument(t *testing.T, pageCount int) *Document {
	t.Helper()
	doc := NewDocument("testdata/sample.pdf", &fakeEngine{pageCount: pageCount})
	t.Cleanup(func() { doc.Close() })
	for _, page := range doc.pages {
		page.setPicture(context.Background(), NewRaster(image.NewRGBA(image.Rect(0, 0, 4, 4))))
		page.setTextLayer(context.Background(), &TextLayer{Plain: "words"})
	}
	return doc
}

func TestSweepEvictsOutsideWindow(t *testing.T) {
	doc := populatedDocument(t, 10)
	doc.service.focus.Store(5)

	j := &Janitor{c: cron.New(), doc: doc, window: 2}
	j.sweep()

	for _, page := range doc.pages {
		inWindow := page.Number >= 3 && page.Number <= 7
		if inWindow {
			if page.Picture() == nil || page.Text() == nil {
				t.Errorf("Page %d inside the window must keep its artifacts", page.Number)
			}
			continue
		}
		if page.Picture() != nil {
			t.Errorf("Page %d outside the window should have its picture evicted", page.Number)
		}
		if page.Text() != nil {
			t.Errorf("Page %d outside the window should have its text evicted", page.Number)
		}
	}
}

func TestSweepSkipsWithoutFocus(t *testing.T) {
	doc := populatedDocument(t, 4)

	j := &Janitor{c: cron.New(), doc: doc, window: 1}
	j.sweep()

	for _, page := range doc.pages {
		if page.Picture() == nil || page.Text() == nil {
			t.Errorf("Page %d must be untouched before any picture was requested", page.Number)
		}
	}
}

func TestSweepKeepsThumbnails(t *testing.T) {
	doc := populatedDocument(t, 3)
	for _, page := range doc.pages {
		page.setThumbnail(context.Background(), NewRaster(image.NewRGBA(image.Rect(0, 0, 2, 3))))
	}
	doc.service.focus.Store(1)

	j := &Janitor{c: cron.New(), doc: doc, window: 0}
	j.sweep()

	for _, page := range doc.pages {
		if page.Thumbnail() == nil {
			t.Errorf("Page %d thumbnail must survive a sweep", page.Number)
		}
	}
}
