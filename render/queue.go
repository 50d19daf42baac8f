package render

import "sync"

// requestQueue is an unbounded multi-producer/single-consumer FIFO queue.
// Producers never block; the dispatcher blocks in Dequeue until an item
// arrives or the queue is closed. Requests are delivered strictly in enqueue
// order across all producers.
type requestQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []*Request
	closed bool
}

func newRequestQueue() *requestQueue {
	q := &requestQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Enqueue appends a request and wakes the consumer. It never blocks.
// Enqueueing on a closed queue is a no-op: the dispatcher has already
// stopped and would never drain the item.
func (q *requestQueue) Enqueue(req *Request) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.items = append(q.items, req)
	q.cond.Signal()
}

// Dequeue removes and returns the oldest request, blocking while the queue
// is empty. It returns (nil, false) once the queue has been closed; any
// requests still queued at that point are abandoned.
func (q *requestQueue) Dequeue() (*Request, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if q.closed {
		return nil, false
	}
	req := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return req, true
}

// Close wakes the consumer and drops any queued requests. Close is
// idempotent.
func (q *requestQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.items = nil
	q.cond.Broadcast()
}

// Len reports the number of queued requests.
func (q *requestQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
