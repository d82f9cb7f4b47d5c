// Package rag answers questions about the note collection by feeding a
// bounded slice of notes to the completion endpoint.
package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/starford/mindflow/internal/ai"
	"github.com/starford/mindflow/internal/models"
)

const (
	// DefaultLimit caps how many notes go into the context block.
	DefaultLimit = 30

	// NotFoundAnswer is the sentence the model must use when the notes do not
	// contain the answer.
	NotFoundAnswer = "I couldn't find that in your notes."

	dateLayout = "1/2/2006"
)

// Asker builds the context window and delegates to a Completer.
type Asker struct {
	c     ai.Completer
	limit int
	loc   *time.Location
}

// Option configures an Asker.
type Option func(*Asker)

// WithLimit overrides DefaultLimit.
func WithLimit(n int) Option {
	return func(a *Asker) {
		if n > 0 {
			a.limit = n
		}
	}
}

// WithLocation sets the time zone used to render note dates.
func WithLocation(loc *time.Location) Option {
	return func(a *Asker) {
		if loc != nil {
			a.loc = loc
		}
	}
}

// NewAsker creates an Asker.
func NewAsker(c ai.Completer, opts ...Option) *Asker {
	a := &Asker{c: c, limit: DefaultLimit, loc: time.Local}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Ask answers question from notes. notes is only read.
func (a *Asker) Ask(ctx context.Context, question string, notes []models.Note) (string, error) {
	return a.c.Complete(ctx, []ai.Message{
		{Role: ai.RoleSystem, Content: systemPrompt(a.BuildContext(notes))},
		{Role: ai.RoleUser, Content: question},
	}, ai.Options{Temperature: ai.DefaultTemperature})
}

// BuildContext renders the first limit non-archived notes, in collection
// order, one per line. The collection stores newest first, so this keeps the
// most recently inserted notes. No relevance ranking is applied.
func (a *Asker) BuildContext(notes []models.Note) string {
	lines := make([]string, 0, a.limit)
	for _, n := range notes {
		if len(lines) == a.limit {
			break
		}
		if n.IsArchived {
			continue
		}
		lines = append(lines, fmt.Sprintf("- [%s] (%s): %s",
			n.TitleOr("Untitled"), n.Created().In(a.loc).Format(dateLayout), n.Content))
	}
	return strings.Join(lines, "\n")
}

func systemPrompt(contextBlock string) string {
	return `You are a helpful "Second Brain" assistant.
You have access to the user's personal notes.
Answer the user's question based ONLY on the context provided below.
If the answer isn't in the notes, say "` + NotFoundAnswer + `"
Do NOT invent information.

--- USER NOTES CONTEXT ---
` + contextBlock + `
--- END CONTEXT ---`
}
