package render

import (
	"context"
	"testing"
	"time"
)

func pictureRequest(pageNumber int) *Request {
	return newRequest(NewPage(pageNumber), KindPicture, context.Background())
}

func TestQueueFIFOAcrossEnqueues(t *testing.T) {
	q := newRequestQueue()
	for _, n := range []int{3, 1, 2} {
		q.Enqueue(pictureRequest(n))
	}

	var got []int
	for i := 0; i < 3; i++ {
		req, ok := q.Dequeue()
		if !ok {
			t.Fatalf("Queue closed unexpectedly after %d items", i)
		}
		got = append(got, req.Page.Number)
	}
	want := []int{3, 1, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Expected delivery order %v, got %v", want, got)
		}
	}
}

func TestQueueDequeueBlocksUntilEnqueue(t *testing.T) {
	q := newRequestQueue()
	done := make(chan int, 1)
	go func() {
		req, ok := q.Dequeue()
		if !ok {
			done <- -1
			return
		}
		done <- req.Page.Number
	}()

	time.Sleep(10 * time.Millisecond)
	q.Enqueue(pictureRequest(7))

	select {
	case n := <-done:
		if n != 7 {
			t.Errorf("Expected page 7, got %d", n)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Dequeue never returned after Enqueue")
	}
}

func TestQueueCloseUnblocksDequeue(t *testing.T) {
	q := newRequestQueue()
	done := make(chan bool, 1)
	go func() {
		_, ok := q.Dequeue()
		done <- ok
	}()

	time.Sleep(10 * time.Millisecond)
	q.Close()

	select {
	case ok := <-done:
		if ok {
			t.Error("Expected Dequeue to report closed")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Dequeue never returned after Close")
	}
}

func TestQueueCloseAbandonsQueuedItems(t *testing.T) {
	q := newRequestQueue()
	q.Enqueue(pictureRequest(1))
	q.Enqueue(pictureRequest(2))
	q.Close()

	if _, ok := q.Dequeue(); ok {
		t.Error("Expected closed queue to abandon queued items")
	}
}

func TestQueueEnqueueAfterCloseIsNoop(t *testing.T) {
	q := newRequestQueue()
	q.Close()
	q.Enqueue(pictureRequest(1))
	if q.Len() != 0 {
		t.Errorf("Expected empty queue after enqueue-on-closed, got %d items", q.Len())
	}
}
