package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker()
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func drain(ch chan []byte) []string {
	time.Sleep(50 * time.Millisecond)
	var out []string
	for {
		select {
		case msg := <-ch:
			out = append(out, string(msg))
		default:
			return out
		}
	}
}

func TestPublishNoteEvent_Frame(t *testing.T) {
	b := NewBroker(WithThrottle(time.Hour))
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishNoteEvent("created", "n1")

	msgs := drain(ch)
	if len(msgs) != 2 {
		t.Fatalf("messages = %q", msgs)
	}
	want := "id: 1\nevent: note.created\ndata: {\"id\":\"n1\"}\n\n"
	if msgs[0] != want {
		t.Errorf("frame = %q, want %q", msgs[0], want)
	}
	if !strings.HasPrefix(msgs[1], "id: 2\nevent: collection.updated\n") {
		t.Errorf("collection frame = %q", msgs[1])
	}
}

func TestPublishNoteEvent_CollectionThrottle(t *testing.T) {
	b := NewBroker(WithThrottle(500 * time.Millisecond))
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Only the first change within the window triggers collection.updated.
	b.PublishNoteEvent("created", "a")
	b.PublishNoteEvent("updated", "b")

	collection, notes := 0, 0
	for _, s := range drain(ch) {
		if strings.Contains(s, EventCollectionUpdated) {
			collection++
		} else {
			notes++
		}
	}
	if notes != 2 {
		t.Errorf("note events = %d, want 2", notes)
	}
	if collection != 1 {
		t.Errorf("collection events = %d, want 1 (throttled)", collection)
	}
}

func TestPublishNoteEvent_Kinds(t *testing.T) {
	b := NewBroker(WithThrottle(time.Hour))
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishNoteEvent("deleted", "x")
	b.PublishNoteEvent("cleared", "")
	b.PublishNoteEvent("reloaded", "")
	b.PublishNoteEvent("bogus", "y")

	msgs := drain(ch)
	// deleted, collection.updated, cleared, reloaded
	if len(msgs) != 4 {
		t.Fatalf("messages = %q", msgs)
	}
	if !strings.Contains(msgs[0], "event: note.deleted") || !strings.Contains(msgs[0], `"id":"x"`) {
		t.Errorf("delete event = %q", msgs[0])
	}
	if !strings.Contains(msgs[2], "event: notes.cleared") || !strings.Contains(msgs[2], "data: {}") {
		t.Errorf("clear event = %q", msgs[2])
	}
	if !strings.Contains(msgs[3], "event: notes.reloaded") {
		t.Errorf("reload event = %q", msgs[3])
	}
}

// lockedRecorder lets the test read the body while ServeHTTP may still write.
type lockedRecorder struct {
	*httptest.ResponseRecorder
	mu sync.Mutex
}

func (r *lockedRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ResponseRecorder.Write(p)
}

func (r *lockedRecorder) body() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Body.String()
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(WithKeepAlive(20 * time.Millisecond))
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	w := &lockedRecorder{ResponseRecorder: httptest.NewRecorder()}

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.PublishNoteEvent("updated", "n1")
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	body := w.body()
	if !strings.HasPrefix(body, "retry: 3000\n\n") {
		t.Errorf("missing retry hint: %q", body)
	}
	if !strings.Contains(body, "event: note.updated") {
		t.Errorf("handler output missing event: %q", body)
	}
	if !strings.Contains(body, ": ping\n\n") {
		t.Errorf("handler output missing keepalive: %q", body)
	}
	if got := w.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("content type = %q", got)
	}

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(WithThrottle(time.Hour))
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// The client buffer holds clientBuffer frames; the rest are dropped
	// without blocking the loop.
	for i := 0; i < clientBuffer+10; i++ {
		b.PublishNoteEvent("updated", "x")
	}
	if got := len(drain(ch)); got != clientBuffer {
		t.Errorf("delivered = %d, want %d", got, clientBuffer)
	}
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	b.PublishNoteEvent("updated", "x")
	b.Close()
}
