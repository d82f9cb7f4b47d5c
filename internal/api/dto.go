package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/mindflow/internal/markdown"
	"github.com/starford/mindflow/internal/models"
	"github.com/starford/mindflow/internal/noteservice"
	"github.com/starford/mindflow/internal/storage"
)

const maxTagLength = 64

// DraftRequest is the editor payload for saves and transformations. Tags may
// be sent as a list, as the comma-separated TagList field, or both.
type DraftRequest struct {
	ID      string   `json:"id,omitempty" example:"3f1c2a9e-..."`
	Title   string   `json:"title,omitempty" example:"Errands"`
	Content string   `json:"content" example:"buy milk, dentist 4pm" validate:"required"`
	Tags    []string `json:"tags,omitempty" example:"work,home"`
	TagList string   `json:"tag_list,omitempty" example:"work, home"`
	Confirm bool     `json:"confirm,omitempty"`
}

// Validate validates the draft.
func (r *DraftRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Content, validation.Required),
		validation.Field(&r.Tags, validation.Each(validation.Length(1, maxTagLength))),
	)
}

// Draft converts the request into a service draft.
func (r *DraftRequest) Draft() noteservice.Draft {
	tags := r.Tags
	if r.TagList != "" {
		tags = append(append([]string{}, tags...), markdown.ParseTagList(r.TagList)...)
	}
	return noteservice.Draft{ID: r.ID, Title: r.Title, Content: r.Content, Tags: tags}
}

// ContentRequest replaces the content of a note.
type ContentRequest struct {
	Content string `json:"content" example:"- [x] Buy milk" validate:"required"`
}

// Validate validates the request.
func (r *ContentRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Content, validation.Required),
	)
}

// ToneRequest asks for a tone rewrite.
type ToneRequest struct {
	Text string `json:"text" example:"hey, send the file" validate:"required"`
	Tone string `json:"tone" example:"Professional" validate:"required"`
}

// Validate validates the request.
func (r *ToneRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Text, validation.Required),
		validation.Field(&r.Tone, validation.Required, validation.Length(1, 64)),
	)
}

// ToneResponse carries the rewritten text.
type ToneResponse struct {
	Text string `json:"text" validate:"required"`
}

// AskRequest is a question about the notes.
type AskRequest struct {
	Question string `json:"question" example:"When is the dentist?" validate:"required"`
}

// Validate validates the request.
func (r *AskRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Question, validation.Required),
	)
}

// AskResponse carries the answer.
type AskResponse struct {
	Answer string `json:"answer" validate:"required"`
}

// ThemeRequest changes the theme.
type ThemeRequest struct {
	Theme string `json:"theme" example:"latte" validate:"required"`
}

// Validate validates the request.
func (r *ThemeRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Theme, validation.Required, validation.In(storage.ThemeMocha, storage.ThemeLatte)),
	)
}

// ThemeResponse reports the theme.
type ThemeResponse struct {
	Theme string `json:"theme" example:"mocha" validate:"required"`
}

// ConfirmRequest is the optional body of confirmation-gated actions.
type ConfirmRequest struct {
	Confirm bool `json:"confirm"`
}

// NoteListResponse wraps note listings.
type NoteListResponse struct {
	Notes []models.Note `json:"notes" validate:"required"`
	Total int           `json:"total" example:"42" validate:"required"`
}

// TaskListResponse wraps the checkboxes of a note.
type TaskListResponse struct {
	Tasks []markdown.Task `json:"tasks" validate:"required"`
}

// Validate accepts any confirmation body.
func (r *ConfirmRequest) Validate() error { return nil }
