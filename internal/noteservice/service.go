// Package noteservice orchestrates note edits: raw saves, AI transformations,
// undo, and the small direct mutations (pin, archive, task toggles).
package noteservice

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/starford/mindflow/internal/ai"
	"github.com/starford/mindflow/internal/apperr"
	"github.com/starford/mindflow/internal/checksum"
	"github.com/starford/mindflow/internal/markdown"
	"github.com/starford/mindflow/internal/models"
	"github.com/starford/mindflow/internal/storage"
)

// Change event kinds passed to the Notifier.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
	EventCleared = "cleared"
)

// Transformer is the AI side of the orchestrator.
type Transformer interface {
	MagicFormat(ctx context.Context, text string) (ai.Transformation, error)
	Summarize(ctx context.Context, text string) (ai.Transformation, error)
	RewriteTone(ctx context.Context, text, tone string) (string, error)
}

// Asker answers questions about the collection.
type Asker interface {
	Ask(ctx context.Context, question string, notes []models.Note) (string, error)
}

// Notifier receives a change event after every mutation.
type Notifier interface {
	PublishNoteEvent(kind, id string)
}

// Draft is what the user submits from the editor. An empty ID means a new
// note.
type Draft struct {
	ID      string
	Title   string
	Content string
	Tags    []string
}

// subject identifies the draft for the in-flight guard.
func (d Draft) subject() string {
	if d.ID != "" {
		return d.ID
	}
	return checksum.String(d.Content)
}

// Service coordinates the note store, preferences and the AI gateway.
type Service struct {
	store    *storage.NoteStore
	prefs    *storage.Preferences
	ai       Transformer
	asker    Asker
	notifier Notifier
	logger   *slog.Logger
	inflight *inFlight
	now      func() time.Time
	newID    func() string
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier sets the change event sink.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides time.Now for creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides the note id generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) { s.newID = gen }
}

// NewService creates a new note service.
func NewService(store *storage.NoteStore, prefs *storage.Preferences, t Transformer, a Asker, opts ...Option) *Service {
	s := &Service{
		store:    store,
		prefs:    prefs,
		ai:       t,
		asker:    a,
		logger:   slog.Default(),
		inflight: newInFlight(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns the active notes, pinned first, newest first.
func (s *Service) List(_ context.Context) []models.Note {
	return models.ActiveSorted(s.store.Load())
}

// All returns the whole collection in stored order, archived notes included.
func (s *Service) All(_ context.Context) []models.Note {
	return s.store.Load()
}

// Get returns a single note.
func (s *Service) Get(_ context.Context, id string) (models.Note, error) {
	n, ok := models.Find(s.store.Load(), id)
	if !ok {
		return models.Note{}, apperr.ErrNotFound
	}
	return n, nil
}

// Tasks lists the checkboxes of a note.
func (s *Service) Tasks(ctx context.Context, id string) ([]markdown.Task, error) {
	n, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return markdown.Tasks(n.Content), nil
}

// SaveRaw stores the draft without AI. A new note is raw; an existing note
// keeps its type and transformation history.
func (s *Service) SaveRaw(ctx context.Context, d Draft) (models.Note, error) {
	if strings.TrimSpace(d.Content) == "" {
		return models.Note{}, apperr.ErrEmptyContent
	}
	if d.ID == "" {
		n := s.newNote(d.Title, d.Content, nonNil(d.Tags), models.TypeRaw, nil)
		s.store.Create(n)
		s.publish(EventCreated, n.ID)
		return n, nil
	}

	n, err := s.Get(ctx, d.ID)
	if err != nil {
		return models.Note{}, err
	}
	n.Title = titlePtr(d.Title)
	n.Content = d.Content
	n.Tags = nonNil(d.Tags)
	s.store.Update(n)
	s.publish(EventUpdated, n.ID)
	return n, nil
}

// MagicFormat restructures the draft with AI after confirmation.
func (s *Service) MagicFormat(ctx context.Context, d Draft, c Confirmer) (models.Note, error) {
	return s.transform(ctx, d, c, ActionMagicFormat, PromptMagicFormat, models.TypeFormatted, s.ai.MagicFormat)
}

// Summarize condenses the draft with AI after confirmation.
func (s *Service) Summarize(ctx context.Context, d Draft, c Confirmer) (models.Note, error) {
	return s.transform(ctx, d, c, ActionSummarize, PromptSummarize, models.TypeSummary, s.ai.Summarize)
}

func (s *Service) transform(
	ctx context.Context,
	d Draft,
	c Confirmer,
	action Action,
	prompt string,
	typ models.NoteType,
	run func(context.Context, string) (ai.Transformation, error),
) (models.Note, error) {
	if strings.TrimSpace(d.Content) == "" {
		return models.Note{}, apperr.ErrEmptyContent
	}
	if d.ID != "" {
		if _, err := s.Get(ctx, d.ID); err != nil {
			return models.Note{}, err
		}
	}
	if err := confirm(ctx, c, prompt); err != nil {
		return models.Note{}, err
	}

	release, err := s.inflight.begin(action, d.subject())
	if err != nil {
		return models.Note{}, err
	}
	defer release()

	raw := d.Content
	res, err := run(ctx, raw)
	if err != nil {
		s.logger.Warn("ai transformation failed",
			slog.String("action", string(action)),
			slog.String("error", err.Error()))
		return models.Note{}, fmt.Errorf("%s: %w", action, err)
	}
	if res.Fallback {
		s.logger.Warn("ai reply was not structured, keeping it as content",
			slog.String("action", string(action)))
	}

	title := d.Title
	if res.Title != "" {
		title = res.Title
	}
	tags := models.MergeTags(d.Tags, res.Tags)
	var original *string
	if res.Content != raw {
		original = models.Ptr(raw)
	}

	if d.ID == "" {
		n := s.newNote(title, res.Content, tags, typ, original)
		s.store.Create(n)
		s.publish(EventCreated, n.ID)
		return n, nil
	}

	// The note may have changed while the request was running; apply the
	// result to whatever is stored now.
	n, err := s.Get(ctx, d.ID)
	if err != nil {
		return models.Note{}, err
	}
	n.Title = titlePtr(title)
	n.Content = res.Content
	n.Tags = tags
	n.Type = typ
	if original != nil {
		n.OriginalContent = original
	}
	s.store.Update(n)
	s.publish(EventUpdated, n.ID)
	return n, nil
}

// RewriteTone returns the text rewritten in tone. Nothing is persisted.
func (s *Service) RewriteTone(ctx context.Context, text, tone string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", apperr.ErrEmptyContent
	}
	release, err := s.inflight.begin(ActionRewriteTone, checksum.String(text))
	if err != nil {
		return "", err
	}
	defer release()

	out, err := s.ai.RewriteTone(ctx, text, tone)
	if err != nil {
		s.logger.Warn("tone rewrite failed", slog.String("tone", tone), slog.String("error", err.Error()))
		return "", fmt.Errorf("%s: %w", ActionRewriteTone, err)
	}
	return out, nil
}

// Undo restores the pre-transformation content after confirmation.
func (s *Service) Undo(ctx context.Context, id string, c Confirmer) (models.Note, error) {
	n, err := s.Get(ctx, id)
	if err != nil {
		return models.Note{}, err
	}
	if !n.CanUndo() {
		return models.Note{}, apperr.ErrNothingToUndo
	}
	if err := confirm(ctx, c, PromptUndo); err != nil {
		return models.Note{}, err
	}

	n, err = s.Get(ctx, id)
	if err != nil {
		return models.Note{}, err
	}
	if err := n.Revert(); err != nil {
		return models.Note{}, apperr.ErrNothingToUndo
	}
	s.store.Update(n)
	s.publish(EventUpdated, n.ID)
	return n, nil
}

// UpdateContent replaces the content of a note in place. Type and history are
// untouched.
func (s *Service) UpdateContent(ctx context.Context, id, content string) (models.Note, error) {
	return s.mutate(ctx, id, func(n *models.Note) error {
		n.Content = content
		return nil
	})
}

// ToggleTask flips the checkbox with the given index.
func (s *Service) ToggleTask(ctx context.Context, id string, index int) (models.Note, error) {
	return s.mutate(ctx, id, func(n *models.Note) error {
		out, err := markdown.ToggleTask(n.Content, index)
		if err != nil {
			return fmt.Errorf("%w: task %d: %w", apperr.ErrNotFound, index, err)
		}
		n.Content = out
		return nil
	})
}

// TogglePin flips the pinned flag.
func (s *Service) TogglePin(ctx context.Context, id string) (models.Note, error) {
	return s.mutate(ctx, id, func(n *models.Note) error {
		n.IsPinned = models.Ptr(!n.Pinned())
		return nil
	})
}

// Archive hides a note from the active list.
func (s *Service) Archive(ctx context.Context, id string) (models.Note, error) {
	return s.mutate(ctx, id, func(n *models.Note) error {
		n.IsArchived = true
		return nil
	})
}

func (s *Service) mutate(ctx context.Context, id string, fn func(*models.Note) error) (models.Note, error) {
	n, err := s.Get(ctx, id)
	if err != nil {
		return models.Note{}, err
	}
	if err := fn(&n); err != nil {
		return models.Note{}, err
	}
	s.store.Update(n)
	s.publish(EventUpdated, n.ID)
	return n, nil
}

// Delete removes a note after confirmation.
func (s *Service) Delete(ctx context.Context, id string, c Confirmer) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := confirm(ctx, c, PromptDelete); err != nil {
		return err
	}
	s.store.Remove(id)
	s.publish(EventDeleted, id)
	return nil
}

// ClearAll wipes the store after confirmation. The theme preference is
// written back immediately afterwards.
func (s *Service) ClearAll(ctx context.Context, c Confirmer) error {
	if err := confirm(ctx, c, PromptClearAll); err != nil {
		return err
	}
	theme := s.prefs.Theme()
	s.store.Clear()
	s.prefs.SetTheme(theme)
	s.publish(EventCleared, "")
	return nil
}

// Import prepends notes to the collection, filling in missing ids, creation
// times and types. Notes whose id already exists are skipped.
func (s *Service) Import(_ context.Context, notes []models.Note) []models.Note {
	current := s.store.Load()
	seen := make(map[string]struct{}, len(current))
	for _, n := range current {
		seen[n.ID] = struct{}{}
	}

	var added []models.Note
	for _, n := range notes {
		if n.ID == "" {
			n.ID = s.newID()
		}
		if _, dup := seen[n.ID]; dup {
			continue
		}
		seen[n.ID] = struct{}{}
		if n.CreatedAt == 0 {
			n.CreatedAt = s.now().UnixMilli()
		}
		if !n.Type.Valid() {
			n.Type = models.TypeRaw
		}
		added = append(added, n)
	}
	if len(added) == 0 {
		return nil
	}
	s.store.Save(append(append([]models.Note{}, added...), current...))
	for _, n := range added {
		s.publish(EventCreated, n.ID)
	}
	return added
}

// Ask answers a question from the notes. The collection is only read.
func (s *Service) Ask(ctx context.Context, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", apperr.ErrEmptyContent
	}
	release, err := s.inflight.begin(ActionAsk, checksum.String(question))
	if err != nil {
		return "", err
	}
	defer release()

	answer, err := s.asker.Ask(ctx, question, s.store.Load())
	if err != nil {
		s.logger.Warn("ask failed", slog.String("error", err.Error()))
		return "", fmt.Errorf("%s: %w", ActionAsk, err)
	}
	return answer, nil
}

// Processing reports whether action is running for subject. For new drafts
// and free text the subject is the checksum of the text.
func (s *Service) Processing(action Action, subject string) bool {
	return s.inflight.active(action, subject)
}

// InFlight returns the number of AI requests currently running.
func (s *Service) InFlight() int {
	return s.inflight.count()
}

// Theme returns the current theme.
func (s *Service) Theme() string {
	return s.prefs.Theme()
}

// SetTheme changes the theme.
func (s *Service) SetTheme(theme string) error {
	if !s.prefs.SetTheme(theme) {
		return fmt.Errorf("%w: %q", apperr.ErrInvalidTheme, theme)
	}
	return nil
}

func (s *Service) newNote(title, content string, tags []string, typ models.NoteType, original *string) models.Note {
	return models.Note{
		ID:              s.newID(),
		Title:           titlePtr(title),
		Content:         content,
		OriginalContent: original,
		CreatedAt:       s.now().UnixMilli(),
		IsPinned:        models.Ptr(false),
		Tags:            tags,
		Type:            typ,
	}
}

func (s *Service) publish(kind, id string) {
	if s.notifier != nil {
		s.notifier.PublishNoteEvent(kind, id)
	}
}

func titlePtr(title string) *string {
	if strings.TrimSpace(title) == "" {
		return nil
	}
	return models.Ptr(title)
}

func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
