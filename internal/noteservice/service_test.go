package noteservice

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/starford/mindflow/internal/ai"
	"github.com/starford/mindflow/internal/apperr"
	"github.com/starford/mindflow/internal/checksum"
	"github.com/starford/mindflow/internal/models"
	"github.com/starford/mindflow/internal/storage"
	"github.com/starford/mindflow/internal/testutil"
)

type fakeAI struct {
	result ai.Transformation
	tone   string
	err    error
	calls  int
	mu     sync.Mutex

	// When gate is non-nil, structured calls block until it is closed.
	// started is signalled on entry.
	gate    chan struct{}
	started chan struct{}
}

func (f *fakeAI) call(ctx context.Context, gated bool) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if !gated {
		return f.err
	}
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.err
}

func (f *fakeAI) MagicFormat(ctx context.Context, _ string) (ai.Transformation, error) {
	if err := f.call(ctx, true); err != nil {
		return ai.Transformation{}, err
	}
	return f.result, nil
}

func (f *fakeAI) Summarize(ctx context.Context, _ string) (ai.Transformation, error) {
	return f.MagicFormat(ctx, "")
}

func (f *fakeAI) RewriteTone(ctx context.Context, _, _ string) (string, error) {
	if err := f.call(ctx, false); err != nil {
		return "", err
	}
	return f.tone, nil
}

func (f *fakeAI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeAsker struct {
	answer string
	seen   int
}

func (a *fakeAsker) Ask(_ context.Context, _ string, notes []models.Note) (string, error) {
	a.seen = len(notes)
	return a.answer, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingNotifier) PublishNoteEvent(kind, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, kind+":"+id)
}

type env struct {
	svc    *Service
	store  *storage.NoteStore
	prefs  *storage.Preferences
	ai     *fakeAI
	events *recordingNotifier
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store, prefs, _ := testutil.TestStores(t)
	fa := &fakeAI{}
	events := &recordingNotifier{}
	seq := 0
	svc := NewService(store, prefs, fa, &fakeAsker{answer: "42"},
		WithNotifier(events),
		WithLogger(testutil.Discard()),
		WithClock(func() time.Time { return time.UnixMilli(1700000000000) }),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("note-%d", seq)
		}),
	)
	return &env{svc: svc, store: store, prefs: prefs, ai: fa, events: events}
}

func TestSaveRaw_NewNote(t *testing.T) {
	e := newEnv(t)
	n, err := e.svc.SaveRaw(context.Background(), Draft{Title: "Groceries", Content: "milk", Tags: []string{"home"}})
	if err != nil {
		t.Fatalf("SaveRaw: %v", err)
	}
	want := models.Note{
		ID:        "note-1",
		Title:     models.Ptr("Groceries"),
		Content:   "milk",
		CreatedAt: 1700000000000,
		IsPinned:  models.Ptr(false),
		Tags:      []string{"home"},
		Type:      models.TypeRaw,
	}
	if !reflect.DeepEqual(n, want) {
		t.Errorf("note = %+v", n)
	}
	if got, _ := e.svc.Get(context.Background(), "note-1"); !reflect.DeepEqual(got, want) {
		t.Errorf("stored = %+v", got)
	}
	if !reflect.DeepEqual(e.events.events, []string{"created:note-1"}) {
		t.Errorf("events = %v", e.events.events)
	}
}

func TestSaveRaw_EmptyContent(t *testing.T) {
	e := newEnv(t)
	if _, err := e.svc.SaveRaw(context.Background(), Draft{Content: "  \n"}); !errors.Is(err, apperr.ErrEmptyContent) {
		t.Errorf("err = %v", err)
	}
	if len(e.store.Load()) != 0 {
		t.Error("empty draft was persisted")
	}
}

func TestSaveRaw_EditKeepsTypeAndHistory(t *testing.T) {
	e := newEnv(t)
	e.store.Create(models.Note{
		ID: "x", Content: "- [ ] milk", OriginalContent: models.Ptr("milk"), Type: models.TypeFormatted,
	})

	n, err := e.svc.SaveRaw(context.Background(), Draft{ID: "x", Content: "- [ ] milk\n- [ ] eggs"})
	if err != nil {
		t.Fatalf("SaveRaw: %v", err)
	}
	if n.Type != models.TypeFormatted || n.OriginalContent == nil || *n.OriginalContent != "milk" {
		t.Errorf("note = %+v", n)
	}
}

func TestMagicFormat_NewDraft(t *testing.T) {
	e := newEnv(t)
	e.ai.result = ai.Transformation{Title: "Errands", Content: "- [ ] Buy milk", Tags: []string{"x", "Personal"}}

	n, err := e.svc.MagicFormat(context.Background(),
		Draft{Content: "buy milk", Tags: []string{"Work", "x"}}, Confirmed(true))
	if err != nil {
		t.Fatalf("MagicFormat: %v", err)
	}
	if n.Type != models.TypeFormatted || n.Content != "- [ ] Buy milk" || n.TitleOr("") != "Errands" {
		t.Errorf("note = %+v", n)
	}
	if !reflect.DeepEqual(n.Tags, []string{"Work", "x", "Personal"}) {
		t.Errorf("tags = %v", n.Tags)
	}
	if n.OriginalContent == nil || *n.OriginalContent != "buy milk" {
		t.Errorf("originalContent = %v", n.OriginalContent)
	}
	if !n.CanUndo() {
		t.Error("transformed note should be undoable")
	}
}

func TestSummarize_UnchangedContentHasNoHistory(t *testing.T) {
	e := newEnv(t)
	e.ai.result = ai.Transformation{Content: "same", Tags: []string{}}

	n, err := e.svc.Summarize(context.Background(), Draft{Title: "Mine", Content: "same"}, Confirmed(true))
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if n.Type != models.TypeSummary || n.OriginalContent != nil {
		t.Errorf("note = %+v", n)
	}
	if n.TitleOr("") != "Mine" {
		t.Errorf("user title should stay when AI returns none, got %q", n.TitleOr(""))
	}
	if n.CanUndo() {
		t.Error("nothing to undo when the text did not change")
	}
}

func TestMagicFormat_Declined(t *testing.T) {
	e := newEnv(t)
	var prompt string
	decline := ConfirmFunc(func(_ context.Context, p string) (bool, error) {
		prompt = p
		return false, nil
	})

	_, err := e.svc.MagicFormat(context.Background(), Draft{Content: "text"}, decline)
	if !errors.Is(err, apperr.ErrNotConfirmed) {
		t.Fatalf("err = %v", err)
	}
	if prompt != PromptMagicFormat {
		t.Errorf("prompt = %q", prompt)
	}
	if e.ai.callCount() != 0 {
		t.Error("AI called without confirmation")
	}
	if _, err := e.svc.Summarize(context.Background(), Draft{Content: "text"}, nil); !errors.Is(err, apperr.ErrNotConfirmed) {
		t.Errorf("nil confirmer: err = %v", err)
	}
}

func TestMagicFormat_AIFailurePersistsNothing(t *testing.T) {
	e := newEnv(t)
	e.store.Create(models.Note{ID: "x", Content: "messy", Type: models.TypeRaw})
	before := e.store.Load()
	e.ai.err = ai.ErrOffline

	_, err := e.svc.MagicFormat(context.Background(), Draft{ID: "x", Content: "messy"}, Confirmed(true))
	if !errors.Is(err, ai.ErrOffline) {
		t.Fatalf("err = %v", err)
	}
	if _, err := e.svc.MagicFormat(context.Background(), Draft{Content: "new"}, Confirmed(true)); err == nil {
		t.Fatal("expected error")
	}
	if after := e.store.Load(); !reflect.DeepEqual(after, before) {
		t.Errorf("store changed: %+v", after)
	}
	if e.svc.InFlight() != 0 {
		t.Error("failed request left an in-flight entry")
	}
}

func TestMagicFormat_UnknownNote(t *testing.T) {
	e := newEnv(t)
	if _, err := e.svc.MagicFormat(context.Background(), Draft{ID: "nope", Content: "x"}, Confirmed(true)); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestMagicFormat_DuplicateInFlight(t *testing.T) {
	e := newEnv(t)
	e.ai.result = ai.Transformation{Content: "formatted", Tags: []string{}}
	e.ai.gate = make(chan struct{})
	e.ai.started = make(chan struct{}, 1)
	d := Draft{Content: "raw text"}

	done := make(chan error, 1)
	go func() {
		_, err := e.svc.MagicFormat(context.Background(), d, Confirmed(true))
		done <- err
	}()
	<-e.ai.started

	if !e.svc.Processing(ActionMagicFormat, checksum.String("raw text")) {
		t.Error("first request should be processing")
	}
	if _, err := e.svc.MagicFormat(context.Background(), d, Confirmed(true)); !errors.Is(err, apperr.ErrInProgress) {
		t.Errorf("duplicate err = %v", err)
	}
	// A different action on the same text is not blocked.
	if _, err := e.svc.RewriteTone(context.Background(), "raw text", "Pirate"); err != nil {
		t.Errorf("unrelated action: %v", err)
	}

	close(e.ai.gate)
	if err := <-done; err != nil {
		t.Fatalf("first request: %v", err)
	}
	if e.svc.Processing(ActionMagicFormat, checksum.String("raw text")) {
		t.Error("processing state should clear")
	}
}

func TestMagicFormat_StaleResultAppliedToCurrent(t *testing.T) {
	e := newEnv(t)
	e.store.Create(models.Note{ID: "x", Content: "old", Type: models.TypeRaw, Tags: []string{}})
	e.ai.result = ai.Transformation{Content: "formatted", Tags: []string{"ai"}}
	e.ai.gate = make(chan struct{})
	e.ai.started = make(chan struct{}, 1)

	done := make(chan error, 1)
	go func() {
		_, err := e.svc.MagicFormat(context.Background(), Draft{ID: "x", Content: "old"}, Confirmed(true))
		done <- err
	}()
	<-e.ai.started
	if _, err := e.svc.TogglePin(context.Background(), "x"); err != nil {
		t.Fatal(err)
	}
	close(e.ai.gate)
	if err := <-done; err != nil {
		t.Fatal(err)
	}

	n, _ := e.svc.Get(context.Background(), "x")
	if !n.Pinned() || n.Content != "formatted" {
		t.Errorf("note = %+v", n)
	}
}

func TestMagicFormat_NoteDeletedDuringRequest(t *testing.T) {
	e := newEnv(t)
	e.store.Create(models.Note{ID: "x", Content: "old", Type: models.TypeRaw})
	e.ai.result = ai.Transformation{Content: "formatted", Tags: []string{}}
	e.ai.gate = make(chan struct{})
	e.ai.started = make(chan struct{}, 1)

	done := make(chan error, 1)
	go func() {
		_, err := e.svc.MagicFormat(context.Background(), Draft{ID: "x", Content: "old"}, Confirmed(true))
		done <- err
	}()
	<-e.ai.started
	e.store.Remove("x")
	close(e.ai.gate)

	if err := <-done; !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v", err)
	}
	if len(e.store.Load()) != 0 {
		t.Error("deleted note was resurrected")
	}
}

func TestUndo(t *testing.T) {
	e := newEnv(t)
	e.store.Create(models.Note{ID: "x", Content: "- [ ] milk", OriginalContent: models.Ptr("milk"), Type: models.TypeFormatted})
	ctx := context.Background()

	if _, err := e.svc.Undo(ctx, "x", Confirmed(false)); !errors.Is(err, apperr.ErrNotConfirmed) {
		t.Fatalf("declined undo err = %v", err)
	}
	n, err := e.svc.Undo(ctx, "x", Confirmed(true))
	if err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if n.Content != "milk" || n.Type != models.TypeRaw || n.OriginalContent != nil {
		t.Errorf("note = %+v", n)
	}
	if _, err := e.svc.Undo(ctx, "x", Confirmed(true)); !errors.Is(err, apperr.ErrNothingToUndo) {
		t.Errorf("second undo err = %v", err)
	}
	if _, err := e.svc.Undo(ctx, "missing", Confirmed(true)); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing note err = %v", err)
	}
}

func TestToggleTask(t *testing.T) {
	e := newEnv(t)
	e.store.Create(models.Note{ID: "x", Content: "- [ ] a\n- [ ] b", Type: models.TypeFormatted})
	ctx := context.Background()

	n, err := e.svc.ToggleTask(ctx, "x", 1)
	if err != nil {
		t.Fatalf("ToggleTask: %v", err)
	}
	if n.Content != "- [ ] a\n- [x] b" || n.Type != models.TypeFormatted {
		t.Errorf("note = %+v", n)
	}
	if _, err := e.svc.ToggleTask(ctx, "x", 5); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("out of range err = %v", err)
	}
	tasks, err := e.svc.Tasks(ctx, "x")
	if err != nil || len(tasks) != 2 || !tasks[1].Checked {
		t.Errorf("tasks = %+v, err = %v", tasks, err)
	}
}

func TestPinArchiveUpdate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.store.Create(models.Note{ID: "a", Content: "a", CreatedAt: 1})
	e.store.Create(models.Note{ID: "b", Content: "b", CreatedAt: 2})

	if _, err := e.svc.TogglePin(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if got := e.svc.List(ctx); got[0].ID != "a" {
		t.Errorf("pinned note should lead, got %s", got[0].ID)
	}
	if _, err := e.svc.Archive(ctx, "b"); err != nil {
		t.Fatal(err)
	}
	if got := e.svc.List(ctx); len(got) != 1 {
		t.Errorf("active = %d", len(got))
	}
	if got := e.svc.All(ctx); len(got) != 2 {
		t.Errorf("all = %d", len(got))
	}
	n, err := e.svc.UpdateContent(ctx, "a", "edited")
	if err != nil || n.Content != "edited" {
		t.Errorf("UpdateContent = %+v, %v", n, err)
	}
	if _, err := e.svc.TogglePin(ctx, "zzz"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestDelete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.store.Create(models.Note{ID: "x", Content: "x"})

	if err := e.svc.Delete(ctx, "x", Confirmed(false)); !errors.Is(err, apperr.ErrNotConfirmed) {
		t.Fatalf("err = %v", err)
	}
	if len(e.store.Load()) != 1 {
		t.Fatal("declined delete removed the note")
	}
	if err := e.svc.Delete(ctx, "x", Confirmed(true)); err != nil {
		t.Fatal(err)
	}
	if _, err := e.svc.Get(ctx, "x"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v", err)
	}
}

// The theme surviving a full wipe is deliberate: the store is cleared first
// and the preference written back right after.
func TestClearAll_ThemeSurvives(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.store.Create(models.Note{ID: "x", Content: "x"})
	if err := e.svc.SetTheme(storage.ThemeLatte); err != nil {
		t.Fatal(err)
	}

	if err := e.svc.ClearAll(ctx, Confirmed(false)); !errors.Is(err, apperr.ErrNotConfirmed) {
		t.Fatalf("err = %v", err)
	}
	if err := e.svc.ClearAll(ctx, Confirmed(true)); err != nil {
		t.Fatal(err)
	}
	if n := len(e.store.Load()); n != 0 {
		t.Errorf("notes left = %d", n)
	}
	if got := e.svc.Theme(); got != storage.ThemeLatte {
		t.Errorf("theme = %q, want latte", got)
	}
}

func TestSetTheme_Invalid(t *testing.T) {
	e := newEnv(t)
	if err := e.svc.SetTheme("solarized"); !errors.Is(err, apperr.ErrInvalidTheme) {
		t.Errorf("err = %v", err)
	}
	if e.svc.Theme() != storage.ThemeMocha {
		t.Error("default theme should be mocha")
	}
}

func TestAsk(t *testing.T) {
	e := newEnv(t)
	e.store.Create(models.Note{ID: "x", Content: "x"})
	got, err := e.svc.Ask(context.Background(), "meaning of life?")
	if err != nil || got != "42" {
		t.Errorf("Ask = %q, %v", got, err)
	}
	if _, err := e.svc.Ask(context.Background(), " "); !errors.Is(err, apperr.ErrEmptyContent) {
		t.Errorf("err = %v", err)
	}
}

func TestImport(t *testing.T) {
	e := newEnv(t)
	e.store.Create(models.Note{ID: "keep", Content: "k"})

	added := e.svc.Import(context.Background(), []models.Note{
		{Content: "fresh"},
		{ID: "keep", Content: "duplicate"},
		{ID: "given", Content: "g", CreatedAt: 5, Type: models.TypeSummary},
	})
	if len(added) != 2 {
		t.Fatalf("added = %+v", added)
	}
	if added[0].ID != "note-1" || added[0].Type != models.TypeRaw || added[0].CreatedAt != 1700000000000 {
		t.Errorf("filled note = %+v", added[0])
	}
	all := e.store.Load()
	if len(all) != 3 || all[2].ID != "keep" {
		t.Errorf("collection = %+v", all)
	}
}
