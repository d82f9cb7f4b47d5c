// Package models defines the domain types for mindflow.
package models

import (
	"encoding/json"
	"time"
)

// NoteType records how the current content of a note was produced.
type NoteType string

const (
	TypeRaw       NoteType = "raw"
	TypeFormatted NoteType = "formatted"
	TypeSummary   NoteType = "summary"
)

// Valid reports whether t is one of the known note types.
func (t NoteType) Valid() bool {
	switch t {
	case TypeRaw, TypeFormatted, TypeSummary:
		return true
	}
	return false
}

// Note is the sole persisted entity. Pointer and nil-slice fields keep the
// difference between an absent value and an empty one.
type Note struct {
	ID              string
	Title           *string
	Content         string
	OriginalContent *string
	CreatedAt       int64 // Unix milliseconds
	IsArchived      bool
	IsPinned        *bool
	Tags            []string // nil means absent
	Type            NoteType
}

type noteJSON struct {
	ID              string    `json:"id"`
	Title           *string   `json:"title,omitempty"`
	Content         string    `json:"content"`
	OriginalContent *string   `json:"originalContent,omitempty"`
	CreatedAt       int64     `json:"createdAt"`
	IsArchived      bool      `json:"isArchived"`
	IsPinned        *bool     `json:"isPinned,omitempty"`
	Tags            *[]string `json:"tags,omitempty"`
	Type            NoteType  `json:"type"`
}

// MarshalJSON writes the camelCase shape shared with the storage blob.
func (n Note) MarshalJSON() ([]byte, error) {
	out := noteJSON{
		ID:              n.ID,
		Title:           n.Title,
		Content:         n.Content,
		OriginalContent: n.OriginalContent,
		CreatedAt:       n.CreatedAt,
		IsArchived:      n.IsArchived,
		IsPinned:        n.IsPinned,
		Type:            n.Type,
	}
	if n.Tags != nil {
		tags := n.Tags
		out.Tags = &tags
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the camelCase shape. A present but empty "tags" array
// decodes to a non-nil empty slice.
func (n *Note) UnmarshalJSON(data []byte) error {
	var in noteJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*n = Note{
		ID:              in.ID,
		Title:           in.Title,
		Content:         in.Content,
		OriginalContent: in.OriginalContent,
		CreatedAt:       in.CreatedAt,
		IsArchived:      in.IsArchived,
		IsPinned:        in.IsPinned,
		Type:            in.Type,
	}
	if in.Tags != nil {
		n.Tags = *in.Tags
		if n.Tags == nil {
			n.Tags = []string{}
		}
	}
	if n.Type == "" {
		n.Type = TypeRaw
	}
	return nil
}

// Created returns CreatedAt as a time.Time.
func (n Note) Created() time.Time {
	return time.UnixMilli(n.CreatedAt)
}

// TitleOr returns the title, or fallback when it is absent or empty.
func (n Note) TitleOr(fallback string) string {
	if n.Title == nil || *n.Title == "" {
		return fallback
	}
	return *n.Title
}

// Pinned reports whether the note is pinned. An absent flag means unpinned.
func (n Note) Pinned() bool {
	return n.IsPinned != nil && *n.IsPinned
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
