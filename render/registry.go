package render

import (
	"context"

	"github.com/puzpuzpuz/xsync/v3"
)

// pending is one in-flight request's owned cancellation handle.
type pending struct {
	ctx    context.Context
	cancel context.CancelFunc
	unlink func() bool
}

func (p *pending) dispose() {
	if p.unlink != nil {
		p.unlink()
	}
	p.cancel()
}

// cancelRegistry enforces "at most one pending request of this kind per
// page". Every operation is a single-key atomic on the underlying concurrent
// map, so no external locking is needed.
type cancelRegistry struct {
	kind    Kind
	entries *xsync.MapOf[int, *pending]
}

func newCancelRegistry(kind Kind) *cancelRegistry {
	return &cancelRegistry{
		kind:    kind,
		entries: xsync.NewMapOf[int, *pending](),
	}
}

// Admit registers a new cancellation handle for pageNumber unless one is
// already present. The handle derives from root and is additionally canceled
// when caller is canceled, so firing either token cancels it. Returns the
// handle's token on success, or (nil, false) when an entry already exists;
// the in-flight entry was itself derived from the most recent intent, so the
// new request is simply dropped.
func (r *cancelRegistry) Admit(pageNumber int, root, caller context.Context) (context.Context, bool) {
	ctx, cancel := context.WithCancel(root)
	entry := &pending{ctx: ctx, cancel: cancel}
	if caller != nil {
		entry.unlink = context.AfterFunc(caller, cancel)
	}
	if _, loaded := r.entries.LoadOrStore(pageNumber, entry); loaded {
		entry.dispose()
		return nil, false
	}
	return ctx, true
}

// Release removes and disposes the handle for pageNumber, but only when the
// stored entry is the one identified by tok. Handlers call it on every exit
// path with their own token: a handler that already lost its entry to
// CancelAndRemove must not evict, let alone cancel, a successor entry admitted
// for the same page in the meantime. A no-op when no matching entry exists.
func (r *cancelRegistry) Release(pageNumber int, tok context.Context) {
	var owned *pending
	r.entries.Compute(pageNumber, func(entry *pending, loaded bool) (*pending, bool) {
		if !loaded || entry.ctx != tok {
			return entry, !loaded
		}
		owned = entry
		return nil, true
	})
	if owned != nil {
		owned.dispose()
	}
}

// CancelAndRemove cancels the in-flight handle, if any, then removes it. A
// running handler observes the cancellation at its next checkpoint. A fresh
// request for the same page may be admitted immediately afterwards.
func (r *cancelRegistry) CancelAndRemove(pageNumber int) {
	if entry, ok := r.entries.LoadAndDelete(pageNumber); ok {
		entry.dispose()
	}
}

// Len reports the number of live entries.
func (r *cancelRegistry) Len() int {
	return r.entries.Size()
}
