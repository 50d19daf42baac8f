package render

import (
	"context"

	"github.com/oklog/ulid/v2"
)

// Request is one unit of render work: a target page, the artifact kind to
// produce and the cancellation token it was admitted with. Requests are
// immutable once built and consumed exactly once by the dispatcher.
type Request struct {
	ID   ulid.ULID
	Page *Page
	Kind Kind

	ctx context.Context
}

func newRequest(page *Page, kind Kind, ctx context.Context) *Request {
	return &Request{
		ID:   ulid.Make(),
		Page: page,
		Kind: kind,
		ctx:  ctx,
	}
}

// Context returns the cancellation token the request was admitted with.
func (r *Request) Context() context.Context {
	return r.ctx
}
