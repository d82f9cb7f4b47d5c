package storage

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/starford/mindflow/internal/checksum"
	"github.com/starford/mindflow/internal/models"
)

// NotesKey is the single key that holds the serialized note collection.
const NotesKey = "chaos_notes_data_v1"

// NoteStore persists the whole note collection as one JSON array under
// NotesKey. Each mutation is a full load-modify-save with no concurrency
// token: two interleaved mutations resolve as last writer wins.
type NoteStore struct {
	kv     KV
	logger *slog.Logger

	lastSaved atomic.Pointer[string] // checksum of the last blob written here
}

// NewNoteStore creates a note store on top of kv.
func NewNoteStore(kv KV, logger *slog.Logger) *NoteStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoteStore{kv: kv, logger: logger}
}

// Load returns the stored collection. A missing or corrupt blob yields an
// empty collection.
func (s *NoteStore) Load() []models.Note {
	data, err := s.kv.Get(NotesKey)
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			s.logger.Warn("failed to load notes", slog.String("error", err.Error()))
		}
		return []models.Note{}
	}
	var notes []models.Note
	if err := json.Unmarshal(data, &notes); err != nil {
		s.logger.Warn("failed to decode notes", slog.String("error", err.Error()))
		return []models.Note{}
	}
	if notes == nil {
		notes = []models.Note{}
	}
	return notes
}

// Save overwrites the stored collection. Failures are logged, never returned.
func (s *NoteStore) Save(notes []models.Note) {
	if notes == nil {
		notes = []models.Note{}
	}
	data, err := json.Marshal(notes)
	if err != nil {
		s.logger.Error("failed to encode notes", slog.String("error", err.Error()))
		return
	}
	if err := s.kv.Set(NotesKey, data); err != nil {
		s.logger.Error("failed to save notes", slog.String("error", err.Error()))
		return
	}
	sum := checksum.Sum(data)
	s.lastSaved.Store(&sum)
}

// LastSaved returns the checksum of the blob most recently written by this
// store, or "" when it has written nothing or has just cleared the store.
// Watchers use it to tell their own writes from external ones.
func (s *NoteStore) LastSaved() string {
	if p := s.lastSaved.Load(); p != nil {
		return *p
	}
	return ""
}

// Create prepends note to the collection and returns the new collection.
func (s *NoteStore) Create(note models.Note) []models.Note {
	notes := append([]models.Note{note}, s.Load()...)
	s.Save(notes)
	return notes
}

// Update replaces the entry whose id matches note.ID. A missing id leaves the
// collection unchanged.
func (s *NoteStore) Update(note models.Note) []models.Note {
	notes := s.Load()
	for i := range notes {
		if notes[i].ID == note.ID {
			notes[i] = note
		}
	}
	s.Save(notes)
	return notes
}

// Remove drops the entry with the given id and returns the new collection.
func (s *NoteStore) Remove(id string) []models.Note {
	current := s.Load()
	notes := make([]models.Note, 0, len(current))
	for _, n := range current {
		if n.ID != id {
			notes = append(notes, n)
		}
	}
	s.Save(notes)
	return notes
}

// Clear erases the entire underlying store, including keys that do not belong
// to the note collection. Callers that need other keys must re-persist them.
func (s *NoteStore) Clear() {
	if err := s.kv.Clear(); err != nil {
		s.logger.Error("failed to clear storage", slog.String("error", err.Error()))
		return
	}
	empty := ""
	s.lastSaved.Store(&empty)
}
