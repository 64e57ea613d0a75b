package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/wayfarer/wayfarer/accounts"
	"github.com/wayfarer/wayfarer/comments"
	"github.com/wayfarer/wayfarer/recommend"
	"github.com/wayfarer/wayfarer/session"
)

const maxBodySize = 64 << 10

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// decodeJSON reads a size-limited JSON body into T. On failure it writes a
// 400 and returns false.
func decodeJSON[T any](w http.ResponseWriter, r *http.Request, limit int64) (T, bool) {
	var v T
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		case errors.Is(err, io.EOF):
			writeError(w, http.StatusBadRequest, "request body is empty")
		default:
			writeError(w, http.StatusBadRequest, "invalid JSON body")
		}
		return v, false
	}
	return v, true
}

// mapError translates a component error into a status code and client
// message. Anything unrecognised is logged and reported as a generic 500.
func (a *API) mapError(w http.ResponseWriter, r *http.Request, err error) {
	var inputErr *accounts.InputError
	switch {
	case errors.As(err, &inputErr):
		writeError(w, http.StatusBadRequest, inputErr.Reason)
	case errors.Is(err, accounts.ErrAlreadyExists):
		writeError(w, http.StatusBadRequest, accounts.ErrAlreadyExists.Error())
	case errors.Is(err, accounts.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, accounts.ErrInvalidCredentials.Error())
	case errors.Is(err, accounts.ErrNotFound):
		writeError(w, http.StatusNotFound, accounts.ErrNotFound.Error())
	case errors.Is(err, session.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, session.ErrUnauthenticated.Error())
	case errors.Is(err, session.ErrIntegrityViolation):
		writeError(w, http.StatusUnauthorized, session.ErrIntegrityViolation.Error())
	case errors.Is(err, recommend.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, recommend.ErrUnavailable):
		writeError(w, http.StatusInternalServerError, recommend.ErrUnavailable.Error())
	case errors.Is(err, comments.ErrEmpty), errors.Is(err, comments.ErrTooLong):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		a.writeInternalError(w, r, "internal error", err)
	}
}

func (a *API) writeInternalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	a.logger.ErrorContext(r.Context(), msg, "error", err, "path", r.URL.Path)
	writeError(w, http.StatusInternalServerError, "internal server error")
}
