package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type capturedRequest struct {
	Auth string
	Body completionRequest
	Raw  map[string]any
}

type recorder struct {
	mu   sync.Mutex
	reqs []capturedRequest
}

func (r *recorder) at(i int) capturedRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reqs[i]
}

// fakeEndpoint serves a fixed completion reply and records each request.
func fakeEndpoint(t *testing.T, status int, reply string) (*httptest.Server, *recorder, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		var cr capturedRequest
		cr.Auth = r.Header.Get("Authorization")
		var raw map[string]any
		dec := json.NewDecoder(r.Body)
		if err := dec.Decode(&raw); err != nil {
			t.Errorf("decode request: %v", err)
		}
		cr.Raw = raw
		b, _ := json.Marshal(raw)
		_ = json.Unmarshal(b, &cr.Body)
		rec.mu.Lock()
		rec.reqs = append(rec.reqs, cr)
		rec.mu.Unlock()

		w.WriteHeader(status)
		if status == http.StatusOK {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"choices": []any{map[string]any{"message": map[string]any{"content": reply}}},
			})
			return
		}
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv, rec, &hits
}

func TestComplete_RequestShape(t *testing.T) {
	srv, reqs, _ := fakeEndpoint(t, http.StatusOK, "hi")
	c := NewClient(srv.URL, "secret", "gemini", 5*time.Second)

	out, err := c.Complete(context.Background(), []Message{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: "hello"},
	}, Options{Temperature: 0.7})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != "hi" {
		t.Errorf("out = %q", out)
	}
	got := reqs.at(0)
	if got.Auth != "Bearer secret" {
		t.Errorf("auth = %q", got.Auth)
	}
	if got.Body.Model != "gemini" || got.Body.Temperature != 0.7 || len(got.Body.Messages) != 2 {
		t.Errorf("body = %+v", got.Body)
	}
	if _, ok := got.Raw["response_format"]; ok {
		t.Error("response_format should be absent for free-text calls")
	}
}

func TestComplete_JSONMode(t *testing.T) {
	srv, reqs, _ := fakeEndpoint(t, http.StatusOK, "{}")
	c := NewClient(srv.URL, "k", "m", 0)

	if _, err := c.Complete(context.Background(), nil, Options{Temperature: 0.5, JSON: true}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	raw := reqs.at(0).Raw
	rf, ok := raw["response_format"].(map[string]any)
	if !ok || rf["type"] != "json_object" {
		t.Errorf("response_format = %v", raw["response_format"])
	}
}

func TestComplete_ServiceError(t *testing.T) {
	srv, _, _ := fakeEndpoint(t, http.StatusTooManyRequests, "slow down")
	c := NewClient(srv.URL, "k", "m", 0)

	_, err := c.Complete(context.Background(), nil, Options{})
	var se *ServiceError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *ServiceError", err)
	}
	if se.Status != http.StatusTooManyRequests || se.Body != "slow down" {
		t.Errorf("service error = %+v", se)
	}
}

func TestComplete_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()
	c := NewClient(srv.URL, "k", "m", 0)

	out, err := c.Complete(context.Background(), nil, Options{})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != emptyReply {
		t.Errorf("out = %q, want %q", out, emptyReply)
	}
}

func TestOffline_NoNetworkAttempts(t *testing.T) {
	srv, _, hits := fakeEndpoint(t, http.StatusOK, "never")
	c := NewClient(srv.URL, "k", "m", 0, WithConnectivity(Offline{}))
	g := NewGateway(c)
	ctx := context.Background()

	if _, err := c.Complete(ctx, nil, Options{}); !errors.Is(err, ErrOffline) {
		t.Errorf("Complete err = %v", err)
	}
	if _, err := g.MagicFormat(ctx, "x"); !errors.Is(err, ErrOffline) {
		t.Errorf("MagicFormat err = %v", err)
	}
	if _, err := g.Summarize(ctx, "x"); !errors.Is(err, ErrOffline) {
		t.Errorf("Summarize err = %v", err)
	}
	if _, err := g.RewriteTone(ctx, "x", "Pirate"); !errors.Is(err, ErrOffline) {
		t.Errorf("RewriteTone err = %v", err)
	}
	if n := hits.Load(); n != 0 {
		t.Errorf("network attempts = %d, want 0", n)
	}
}

func TestDialProbe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	probe, err := NewDialProbe(srv.URL, time.Second)
	if err != nil {
		t.Fatalf("NewDialProbe: %v", err)
	}
	if !probe.Online(context.Background()) {
		t.Error("probe should reach a listening server")
	}
	srv.Close()
	if probe.Online(context.Background()) {
		t.Error("probe should fail after the server closed")
	}
}

func TestNewDialProbe_DefaultPorts(t *testing.T) {
	p, err := NewDialProbe("https://api.example.com/v1/chat/completions", time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if p.Addr != "api.example.com:443" {
		t.Errorf("addr = %q", p.Addr)
	}
	p, _ = NewDialProbe("http://localhost/v1", time.Second)
	if p.Addr != "localhost:80" {
		t.Errorf("addr = %q", p.Addr)
	}
}
