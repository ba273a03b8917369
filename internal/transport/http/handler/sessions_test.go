package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/babybook-api/internal/application/auth"
	"github.com/babybook-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mock ---

type mockAuthSvc struct{ mock.Mock }

func (m *mockAuthSvc) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResult, error) {
	args := m.Called(ctx, req)
	if r, _ := args.Get(0).(*auth.LoginResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAuthSvc) VerifyCode(ctx context.Context, req auth.VerifyCodeRequest) (*auth.VerifyResult, error) {
	args := m.Called(ctx, req)
	if r, _ := args.Get(0).(*auth.VerifyResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAuthSvc) RequestChannelProof(ctx context.Context, accountID string, channel domain.Channel) (*auth.PendingVerification, error) {
	args := m.Called(ctx, accountID, channel)
	if p, _ := args.Get(0).(*auth.PendingVerification); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAuthSvc) ConfirmChannel(ctx context.Context, accountID string, channel domain.Channel, code string) error {
	return m.Called(ctx, accountID, channel, code).Error(0)
}
func (m *mockAuthSvc) SetDefaultChannel(ctx context.Context, accountID string, channel domain.Channel) error {
	return m.Called(ctx, accountID, channel).Error(0)
}
func (m *mockAuthSvc) ChangePassword(ctx context.Context, accountID, currentPassword, newPassword string) error {
	return m.Called(ctx, accountID, currentPassword, newPassword).Error(0)
}
func (m *mockAuthSvc) ChangePhone(ctx context.Context, accountID, newPhone string) error {
	return m.Called(ctx, accountID, newPhone).Error(0)
}
func (m *mockAuthSvc) RequestPasswordReset(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}
func (m *mockAuthSvc) ResetPassword(ctx context.Context, token, newPassword string) error {
	return m.Called(ctx, token, newPassword).Error(0)
}

// --- Login ---

func TestLogin_InvalidBody(t *testing.T) {
	h := NewSessionHandler(&mockAuthSvc{})
	r := httptest.NewRequest(http.MethodPost, "/v1/sessions/login", bytes.NewBufferString("not-json"))
	rr := httptest.NewRecorder()
	h.Login(rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLogin_ValidationFailure(t *testing.T) {
	h := NewSessionHandler(&mockAuthSvc{})
	body, _ := json.Marshal(auth.LoginRequest{Email: "a@b.com"}) // missing password
	r := httptest.NewRequest(http.MethodPost, "/v1/sessions/login", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.Login(rr, r)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestLogin_UnknownAccount(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("Login", mock.Anything, mock.Anything).Return(nil, domain.ErrNotFound)
	h := NewSessionHandler(svc)

	body, _ := json.Marshal(auth.LoginRequest{Email: "a@b.com", Password: "pw"})
	r := httptest.NewRequest(http.MethodPost, "/v1/sessions/login", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.Login(rr, r)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestLogin_IncompleteSetup_MapsToForbidden(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("Login", mock.Anything, mock.Anything).Return(nil, domain.ErrForbidden)
	h := NewSessionHandler(svc)

	body, _ := json.Marshal(auth.LoginRequest{Email: "a@b.com", Password: "pw"})
	r := httptest.NewRequest(http.MethodPost, "/v1/sessions/login", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.Login(rr, r)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestLogin_Pending(t *testing.T) {
	svc := &mockAuthSvc{}
	pending := &auth.PendingVerification{Channel: domain.ChannelEmail, ExpiresAt: time.Now().Add(5 * time.Minute)}
	svc.On("Login", mock.Anything, mock.Anything).Return(&auth.LoginResult{Pending: pending}, nil)
	h := NewSessionHandler(svc)

	body, _ := json.Marshal(auth.LoginRequest{Email: "a@b.com", Password: "pw"})
	r := httptest.NewRequest(http.MethodPost, "/v1/sessions/login", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.Login(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp AuthEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Empty(t, resp.Bearer)
	require.NotNil(t, resp.Pending)
	assert.Equal(t, domain.ChannelEmail, resp.Pending.Channel)
}

func TestLogin_Bypass_ReturnsBearer(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("Login", mock.Anything, mock.Anything).Return(&auth.LoginResult{
		Bearer:  "bearer-token",
		Account: &domain.Account{AccountID: "a1", Email: "a@b.com"},
	}, nil)
	h := NewSessionHandler(svc)

	body, _ := json.Marshal(auth.LoginRequest{Email: "a@b.com", Password: "pw", Biometric: true})
	r := httptest.NewRequest(http.MethodPost, "/v1/sessions/login", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.Login(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp AuthEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "bearer-token", resp.Bearer)
	assert.Nil(t, resp.Pending)
}

// --- VerifyCode ---

func TestVerifyCode_MaxAttempts_MapsTo429(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("VerifyCode", mock.Anything, mock.Anything).Return(nil, domain.ErrMaxAttempts)
	h := NewSessionHandler(svc)

	body, _ := json.Marshal(auth.VerifyCodeRequest{Email: "a@b.com", Code: "123456"})
	r := httptest.NewRequest(http.MethodPost, "/v1/sessions/verify-code", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.VerifyCode(rr, r)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
}

func TestVerifyCode_Incomplete_WithholdsToken(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("VerifyCode", mock.Anything, mock.Anything).Return(&auth.VerifyResult{Complete: false}, nil)
	h := NewSessionHandler(svc)

	body, _ := json.Marshal(auth.VerifyCodeRequest{Email: "a@b.com", Code: "123456"})
	r := httptest.NewRequest(http.MethodPost, "/v1/sessions/verify-code", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.VerifyCode(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp AuthEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Empty(t, resp.Bearer)
	assert.NotEmpty(t, resp.Message)
}

func TestVerifyCode_Complete_ReturnsBearer(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("VerifyCode", mock.Anything, mock.Anything).Return(&auth.VerifyResult{
		Bearer:   "bearer-token",
		Complete: true,
		Account:  &domain.Account{AccountID: "a1"},
	}, nil)
	h := NewSessionHandler(svc)

	body, _ := json.Marshal(auth.VerifyCodeRequest{Email: "a@b.com", Code: "123456"})
	r := httptest.NewRequest(http.MethodPost, "/v1/sessions/verify-code", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.VerifyCode(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp AuthEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "bearer-token", resp.Bearer)
}
