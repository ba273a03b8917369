package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/babybook-api/internal/application/auth"
	"github.com/babybook-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// AuthEnvelope wraps login and verification responses. Bearer and Pending are
// mutually exclusive: a bypassed login carries the token immediately, a
// normal login carries the pending-verification details.
type AuthEnvelope struct {
	Bearer  string                    `json:"bearer,omitempty"`
	Pending *auth.PendingVerification `json:"pending,omitempty"`
	Account *domain.Account           `json:"account,omitempty"`
	Message string                    `json:"message,omitempty"`
	Error   string                    `json:"error,omitempty"`
}

// PaginatedAccountsEnvelope wraps paginated account list responses.
type PaginatedAccountsEnvelope struct {
	Data       []domain.Account `json:"data"`
	NextCursor string           `json:"next_cursor,omitempty"`
	Error      string           `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// httpError maps a service error onto an HTTP status via the domain
// sentinels. Unrecognised errors become opaque 500s so infrastructure
// detail never leaks.
func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrMaxAttempts):
		writeError(w, http.StatusTooManyRequests, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
