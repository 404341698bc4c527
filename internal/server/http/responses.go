package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"agora/internal/errs"
)

type errorBody struct {
	Error string `json:"error"`
}

// writeJSON renders a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps sentinel errors to HTTP statuses once, at the boundary.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := "internal"
	switch {
	case errors.Is(err, errs.ErrNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, errs.ErrUnauthorized):
		status, msg = http.StatusUnauthorized, err.Error()
	case errors.Is(err, errs.ErrNotEligible):
		status, msg = http.StatusForbidden, err.Error()
	case errors.Is(err, errs.ErrMalformedVote):
		status, msg = http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, errs.ErrSignupClosed),
		errors.Is(err, errs.ErrAlreadyVoted),
		errors.Is(err, errs.ErrNotOpen),
		errors.Is(err, errs.ErrAlreadyTallied),
		errors.Is(err, errs.ErrNotTallied),
		errors.Is(err, errs.ErrCandidatesLocked):
		status, msg = http.StatusConflict, err.Error()
	case strings.HasPrefix(err.Error(), "validation:"):
		status, msg = http.StatusBadRequest, err.Error()
	}
	writeJSON(w, status, errorBody{Error: msg})
}
