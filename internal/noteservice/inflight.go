package noteservice

import (
	"github.com/patrickmn/go-cache"

	"github.com/starford/mindflow/internal/apperr"
)

// Action names an AI-backed operation for the in-flight guard.
type Action string

const (
	ActionMagicFormat Action = "magic_format"
	ActionSummarize   Action = "summarize"
	ActionRewriteTone Action = "rewrite_tone"
	ActionAsk         Action = "ask"
)

// inFlight tracks running AI requests so the same action cannot be submitted
// twice for one subject. Entries never expire; the caller releases them.
type inFlight struct {
	c *cache.Cache
}

func newInFlight() *inFlight {
	return &inFlight{c: cache.New(cache.NoExpiration, 0)}
}

func inFlightKey(action Action, subject string) string {
	return string(action) + ":" + subject
}

// begin registers (action, subject) and returns the release func.
func (f *inFlight) begin(action Action, subject string) (func(), error) {
	key := inFlightKey(action, subject)
	if err := f.c.Add(key, struct{}{}, cache.NoExpiration); err != nil {
		return nil, apperr.ErrInProgress
	}
	return func() { f.c.Delete(key) }, nil
}

func (f *inFlight) active(action Action, subject string) bool {
	_, ok := f.c.Get(inFlightKey(action, subject))
	return ok
}

func (f *inFlight) count() int {
	return f.c.ItemCount()
}
