package noteservice

import (
	"context"

	"github.com/starford/mindflow/internal/apperr"
)

// Prompts shown before each destructive or AI-backed action.
const (
	PromptMagicFormat = "Use Magic Format? This will restructure your note using AI."
	PromptSummarize   = "Summarize this text? The original text will be saved in history."
	PromptUndo        = "Revert to original messy text?"
	PromptDelete      = "Delete this note permanently?"
	PromptClearAll    = "Are you sure? This deletes ALL notes locally."
)

// Confirmer asks the user to approve an action before it runs.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

// Confirm calls f.
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// Confirmed is a Confirmer with a fixed answer, for surfaces where the caller
// already approved the action (HTTP confirm flag, MCP argument).
type Confirmed bool

// Confirm returns the fixed answer.
func (c Confirmed) Confirm(context.Context, string) (bool, error) {
	return bool(c), nil
}

func confirm(ctx context.Context, c Confirmer, prompt string) error {
	if c == nil {
		return apperr.ErrNotConfirmed
	}
	ok, err := c.Confirm(ctx, prompt)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.ErrNotConfirmed
	}
	return nil
}
