package models

import (
	"errors"
	"sort"
)

// ErrNotRevertible is returned by Revert when the note carries no
// transformation history.
var ErrNotRevertible = errors.New("note has no original content to restore")

// CanUndo reports whether the note's content came from an AI transformation
// and the pre-transformation text is still available.
func (n Note) CanUndo() bool {
	return (n.Type == TypeFormatted || n.Type == TypeSummary) && n.OriginalContent != nil
}

// Revert restores the pre-transformation content. The transformation history
// is discarded, so a second Revert fails.
func (n *Note) Revert() error {
	if !n.CanUndo() {
		return ErrNotRevertible
	}
	n.Content = *n.OriginalContent
	n.OriginalContent = nil
	n.Type = TypeRaw
	return nil
}

// MergeTags returns the union of the given tag lists in first-seen order.
// Blank tags are dropped. The result is never nil.
func MergeTags(lists ...[]string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, list := range lists {
		for _, t := range list {
			if t == "" {
				continue
			}
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}

// ActiveSorted returns the non-archived notes, pinned first, each group
// ordered by CreatedAt descending. The input slice is not modified.
func ActiveSorted(notes []Note) []Note {
	out := make([]Note, 0, len(notes))
	for _, n := range notes {
		if !n.IsArchived {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := out[i].Pinned(), out[j].Pinned()
		if pi != pj {
			return pi
		}
		return out[i].CreatedAt > out[j].CreatedAt
	})
	return out
}

// Find returns the note with the given id.
func Find(notes []Note, id string) (Note, bool) {
	for _, n := range notes {
		if n.ID == id {
			return n, true
		}
	}
	return Note{}, false
}
