package handler

import (
	"encoding/json"
	"net/http"

	"github.com/babybook-api/internal/application/auth"
	"github.com/babybook-api/internal/pkg/validate"
)

// SessionHandler handles login and code verification.
type SessionHandler struct {
	svc auth.Service
}

func NewSessionHandler(svc auth.Service) *SessionHandler {
	return &SessionHandler{svc: svc}
}

func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	result, err := h.svc.Login(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	if result.Bearer != "" {
		writeJSON(w, http.StatusOK, AuthEnvelope{Bearer: result.Bearer, Account: result.Account})
		return
	}
	writeJSON(w, http.StatusOK, AuthEnvelope{Pending: result.Pending, Message: "verification code sent"})
}

func (h *SessionHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req auth.VerifyCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	result, err := h.svc.VerifyCode(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	if !result.Complete {
		writeJSON(w, http.StatusOK, AuthEnvelope{Message: "verification recorded, setup incomplete"})
		return
	}
	writeJSON(w, http.StatusOK, AuthEnvelope{Bearer: result.Bearer, Account: result.Account})
}
