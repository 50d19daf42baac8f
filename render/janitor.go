package render

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

// Janitor periodically evicts the expensive artifacts of pages far away from
// the most recently requested page, keeping a scrolling viewer's memory
// bounded. Thumbnails are kept: they are small and back the page list.
type Janitor struct {
	c      *cron.Cron
	doc    *Document
	window int
}

// StartJanitor schedules an eviction sweep every intervalMinutes, keeping
// pictures and text layers for window pages on each side of the focus page.
func (d *Document) StartJanitor(intervalMinutes, window int) *Janitor {
	j := &Janitor{c: cron.New(), doc: d, window: window}
	var sweepJob cron.Job
	sweepJob = cron.FuncJob(j.sweep)
	sweepJob = cron.NewChain(cron.SkipIfStillRunning(cron.DefaultLogger)).Then(sweepJob) //ensure we don't kick off another if old one is still running
	j.c.AddJob(fmt.Sprintf("@every %dm", intervalMinutes), sweepJob)
	j.c.Start()
	Logger.Info("Started artifact janitor", "interval_minutes", intervalMinutes, "window", window)
	return j
}

func (j *Janitor) sweep() {
	service := j.doc.service
	focus := int(service.focus.Load())
	if focus == 0 {
		return
	}
	evicted := 0
	for _, page := range j.doc.pages {
		if page.Number >= focus-j.window && page.Number <= focus+j.window {
			continue
		}
		if page.Picture() != nil {
			service.AskRemovePagePicture(page)
			evicted++
		}
		if page.Text() != nil {
			service.AskRemovePageTextLayer(page)
			evicted++
		}
	}
	if evicted > 0 {
		Logger.Debug("Janitor evicted artifacts", "focus", focus, "count", evicted)
	}
}

// Stop halts the sweep schedule. A sweep already running completes.
func (j *Janitor) Stop() {
	j.c.Stop()
}
