package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/mindflow/internal/ai"
	"github.com/starford/mindflow/internal/apperr"
)

const maxBodyBytes = 10 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error" validate:"required"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// decode reads a JSON body into v and validates it. An empty body is allowed
// when allowEmpty is set. It writes the 400 response itself and reports false.
func decode(w http.ResponseWriter, r *http.Request, v validation.Validatable, allowEmpty bool) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if !(allowEmpty && errors.Is(err, io.EOF)) {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
			return false
		}
	}
	if err := v.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return false
	}
	return true
}

// confirmed reports whether the caller approved a gated action, through the
// body flag or ?confirm=true.
func confirmed(r *http.Request, bodyFlag bool) bool {
	if bodyFlag {
		return true
	}
	ok, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	return ok
}

// writeError maps service errors onto HTTP statuses.
func writeError(w http.ResponseWriter, op string, err error) {
	var se *ai.ServiceError
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrNotConfirmed):
		writeJSON(w, http.StatusPreconditionRequired, errorBody("confirmation required"))
	case errors.Is(err, apperr.ErrNothingToUndo):
		writeJSON(w, http.StatusConflict, errorBody("nothing to undo"))
	case errors.Is(err, apperr.ErrInProgress):
		writeJSON(w, http.StatusConflict, errorBody("already processing"))
	case errors.Is(err, apperr.ErrEmptyContent):
		writeJSON(w, http.StatusBadRequest, errorBody("content is empty"))
	case errors.Is(err, apperr.ErrInvalidTheme):
		writeJSON(w, http.StatusBadRequest, errorBody("invalid theme"))
	case errors.Is(err, ai.ErrOffline):
		writeJSON(w, http.StatusServiceUnavailable, errorBody("offline: AI features unavailable"))
	case errors.As(err, &se):
		slog.Warn(op+" failed", slog.Int("upstream_status", se.Status), slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadGateway, errorBody(se.Error()))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}
