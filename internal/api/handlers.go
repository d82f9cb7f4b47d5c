package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/mindflow/internal/noteservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

func noteID(r *http.Request) string {
	return chi.URLParam(r, "id")
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List notes, pinned first then newest first
//	@Tags			notes
//	@Produce		json
//	@Param			archived	query		bool	false	"Include archived notes, in stored order"
//	@Success		200			{object}	NoteListResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	notes := h.svc.List(r.Context())
	if all, _ := strconv.ParseBool(r.URL.Query().Get("archived")); all {
		notes = h.svc.All(r.Context())
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: notes, Total: len(notes)})
}

// CreateNote handles POST /api/notes. The note is stored as written.
//
//	@Summary		Create a raw note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		DraftRequest	true	"Draft"
//	@Success		201		{object}	models.Note
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req DraftRequest
	if !decode(w, r, &req, false) {
		return
	}
	d := req.Draft()
	d.ID = ""
	note, err := h.svc.SaveRaw(r.Context(), d)
	if err != nil {
		writeError(w, "create note", err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// ClearNotes handles DELETE /api/notes. The theme preference is kept.
//
//	@Summary		Delete every note
//	@Tags			notes
//	@Param			confirm	query	bool	true	"Must be true"
//	@Success		204		"Collection cleared"
//	@Failure		428		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [delete]
func (h *Handler) ClearNotes(w http.ResponseWriter, r *http.Request) {
	var req ConfirmRequest
	if !decode(w, r, &req, true) {
		return
	}
	if err := h.svc.ClearAll(r.Context(), noteservice.Confirmed(confirmed(r, req.Confirm))); err != nil {
		writeError(w, "clear notes", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetNote handles GET /api/notes/{id}.
//
//	@Summary		Get a single note
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		string	true	"Note id"
//	@Success		200	{object}	models.Note
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.svc.Get(r.Context(), noteID(r))
	if err != nil {
		writeError(w, "get note", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// UpdateNote handles PUT /api/notes/{id}: a raw save of an edited note.
//
//	@Summary		Save an edited note without AI
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Note id"
//	@Param			body	body		DraftRequest	true	"Draft"
//	@Success		200		{object}	models.Note
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [put]
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	var req DraftRequest
	if !decode(w, r, &req, false) {
		return
	}
	d := req.Draft()
	d.ID = noteID(r)
	note, err := h.svc.SaveRaw(r.Context(), d)
	if err != nil {
		writeError(w, "update note", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// DeleteNote handles DELETE /api/notes/{id}.
//
//	@Summary		Delete a note
//	@Tags			notes
//	@Param			id		path	string	true	"Note id"
//	@Param			confirm	query	bool	true	"Must be true"
//	@Success		204		"Note deleted"
//	@Failure		404		{object}	errResponse
//	@Failure		428		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [delete]
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	var req ConfirmRequest
	if !decode(w, r, &req, true) {
		return
	}
	if err := h.svc.Delete(r.Context(), noteID(r), noteservice.Confirmed(confirmed(r, req.Confirm))); err != nil {
		writeError(w, "delete note", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateContent handles PUT /api/notes/{id}/content.
func (h *Handler) UpdateContent(w http.ResponseWriter, r *http.Request) {
	var req ContentRequest
	if !decode(w, r, &req, false) {
		return
	}
	note, err := h.svc.UpdateContent(r.Context(), noteID(r), req.Content)
	if err != nil {
		writeError(w, "update content", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// ListTasks handles GET /api/notes/{id}/tasks.
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.svc.Tasks(r.Context(), noteID(r))
	if err != nil {
		writeError(w, "list tasks", err)
		return
	}
	writeJSON(w, http.StatusOK, TaskListResponse{Tasks: tasks})
}

// ToggleTask handles POST /api/notes/{id}/tasks/{index}.
func (h *Handler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("task index must be an integer"))
		return
	}
	note, err := h.svc.ToggleTask(r.Context(), noteID(r), index)
	if err != nil {
		writeError(w, "toggle task", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// TogglePin handles POST /api/notes/{id}/pin.
func (h *Handler) TogglePin(w http.ResponseWriter, r *http.Request) {
	note, err := h.svc.TogglePin(r.Context(), noteID(r))
	if err != nil {
		writeError(w, "toggle pin", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// Archive handles POST /api/notes/{id}/archive.
func (h *Handler) Archive(w http.ResponseWriter, r *http.Request) {
	note, err := h.svc.Archive(r.Context(), noteID(r))
	if err != nil {
		writeError(w, "archive note", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// Undo handles POST /api/notes/{id}/undo.
//
//	@Summary		Restore the text a transformation replaced
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Note id"
//	@Param			body	body		ConfirmRequest	false	"Confirmation"
//	@Success		200		{object}	models.Note
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Failure		428		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/undo [post]
func (h *Handler) Undo(w http.ResponseWriter, r *http.Request) {
	var req ConfirmRequest
	if !decode(w, r, &req, true) {
		return
	}
	note, err := h.svc.Undo(r.Context(), noteID(r), noteservice.Confirmed(confirmed(r, req.Confirm)))
	if err != nil {
		writeError(w, "undo", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// MagicFormat handles POST /api/transform/magic. A draft with an id edits
// that note; without one a new note is created.
//
//	@Summary		Restructure a draft with AI
//	@Tags			transform
//	@Accept			json
//	@Produce		json
//	@Param			body	body		DraftRequest	true	"Draft with confirm=true"
//	@Success		200		{object}	models.Note
//	@Failure		409		{object}	errResponse
//	@Failure		428		{object}	errResponse
//	@Failure		502		{object}	errResponse
//	@Failure		503		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/transform/magic [post]
func (h *Handler) MagicFormat(w http.ResponseWriter, r *http.Request) {
	var req DraftRequest
	if !decode(w, r, &req, false) {
		return
	}
	note, err := h.svc.MagicFormat(r.Context(), req.Draft(), noteservice.Confirmed(confirmed(r, req.Confirm)))
	if err != nil {
		writeError(w, "magic format", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// Summarize handles POST /api/transform/summary.
func (h *Handler) Summarize(w http.ResponseWriter, r *http.Request) {
	var req DraftRequest
	if !decode(w, r, &req, false) {
		return
	}
	note, err := h.svc.Summarize(r.Context(), req.Draft(), noteservice.Confirmed(confirmed(r, req.Confirm)))
	if err != nil {
		writeError(w, "summarize", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// RewriteTone handles POST /api/transform/tone. Nothing is saved.
func (h *Handler) RewriteTone(w http.ResponseWriter, r *http.Request) {
	var req ToneRequest
	if !decode(w, r, &req, false) {
		return
	}
	text, err := h.svc.RewriteTone(r.Context(), req.Text, req.Tone)
	if err != nil {
		writeError(w, "rewrite tone", err)
		return
	}
	writeJSON(w, http.StatusOK, ToneResponse{Text: text})
}

// Ask handles POST /api/ask.
//
//	@Summary		Ask a question answered only from the notes
//	@Tags			ask
//	@Accept			json
//	@Produce		json
//	@Param			body	body		AskRequest	true	"Question"
//	@Success		200		{object}	AskResponse
//	@Failure		503		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/ask [post]
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if !decode(w, r, &req, false) {
		return
	}
	answer, err := h.svc.Ask(r.Context(), req.Question)
	if err != nil {
		writeError(w, "ask", err)
		return
	}
	writeJSON(w, http.StatusOK, AskResponse{Answer: answer})
}

// GetTheme handles GET /api/preferences/theme.
func (h *Handler) GetTheme(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ThemeResponse{Theme: h.svc.Theme()})
}

// PutTheme handles PUT /api/preferences/theme.
func (h *Handler) PutTheme(w http.ResponseWriter, r *http.Request) {
	var req ThemeRequest
	if !decode(w, r, &req, false) {
		return
	}
	if err := h.svc.SetTheme(req.Theme); err != nil {
		writeError(w, "set theme", err)
		return
	}
	writeJSON(w, http.StatusOK, ThemeResponse{Theme: h.svc.Theme()})
}
