// Package testutil provides shared test helpers for stores and AI endpoints.
package testutil

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/starford/mindflow/internal/storage"
)

// Discard is a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestFS creates a temporary data directory with an FS key-value store.
func TestFS(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	kv, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, kv
}

// TestStores returns a note store and preferences sharing one temporary FS.
func TestStores(t *testing.T) (*storage.NoteStore, *storage.Preferences, *storage.FS) {
	t.Helper()
	_, kv := TestFS(t)
	return storage.NewNoteStore(kv, Discard()), storage.NewPreferences(kv, Discard()), kv
}

// AIServer is a fake chat completions endpoint.
type AIServer struct {
	*httptest.Server
	hits atomic.Int32
}

// Hits returns the number of requests served.
func (s *AIServer) Hits() int {
	return int(s.hits.Load())
}

// TestAIServer serves reply as the content of every completion.
func TestAIServer(t *testing.T, reply string) *AIServer {
	t.Helper()
	s := &AIServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		_, _ = io.Copy(io.Discard, r.Body)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"role": "assistant", "content": reply}}},
		})
	}))
	t.Cleanup(s.Close)
	return s
}
