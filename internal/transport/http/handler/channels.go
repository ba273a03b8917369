package handler

import (
	"encoding/json"
	"net/http"

	"github.com/babybook-api/internal/application/auth"
	"github.com/babybook-api/internal/domain"
	"github.com/babybook-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
)

// ChannelHandler handles verification-channel endpoints: requesting and
// confirming channel proofs, switching the default channel and changing the
// phone number behind the sms channel.
type ChannelHandler struct {
	svc auth.Service
}

func NewChannelHandler(svc auth.Service) *ChannelHandler {
	return &ChannelHandler{svc: svc}
}

func (h *ChannelHandler) RequestProof(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	channel := domain.Channel(chi.URLParam(r, "channel"))
	pending, err := h.svc.RequestChannelProof(r.Context(), claims.AccountID, channel)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthEnvelope{Pending: pending, Message: "verification code sent"})
}

func (h *ChannelHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var body struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Code == "" {
		writeError(w, http.StatusBadRequest, "code required")
		return
	}
	channel := domain.Channel(chi.URLParam(r, "channel"))
	if err := h.svc.ConfirmChannel(r.Context(), claims.AccountID, channel, body.Code); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "channel verified"})
}

func (h *ChannelHandler) SetDefault(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	channel := domain.Channel(chi.URLParam(r, "channel"))
	if err := h.svc.SetDefaultChannel(r.Context(), claims.AccountID, channel); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "default channel updated"})
}

func (h *ChannelHandler) ChangePhone(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var body struct {
		Phone string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Phone == "" {
		writeError(w, http.StatusBadRequest, "phone required")
		return
	}
	if err := h.svc.ChangePhone(r.Context(), claims.AccountID, body.Phone); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "phone updated, confirm the new number"})
}
