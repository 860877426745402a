package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hardikSrivastav/imp-mail-sub002/internal/delivery/http/helpers"
	"github.com/hardikSrivastav/imp-mail-sub002/internal/delivery/http/middleware"
	"github.com/hardikSrivastav/imp-mail-sub002/internal/domain"
	"github.com/hardikSrivastav/imp-mail-sub002/internal/services"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// fakeUserService implements domain.UserService for handler tests.
type fakeUserService struct {
	signUpUser  *domain.User
	signUpErr   error
	loginResult *domain.AuthResult
	loginErr    error
	oauthURL    string
	oauthErr    error
	callbackRes *domain.AuthResult
	callbackErr error
	getByIDUser *domain.User
	getByIDErr  error
}

func (f *fakeUserService) SignUp(ctx context.Context, email, password, name string) (*domain.User, error) {
	return f.signUpUser, f.signUpErr
}

func (f *fakeUserService) Login(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	return f.loginResult, f.loginErr
}

func (f *fakeUserService) OAuthLoginURL(ctx context.Context) (string, error) {
	return f.oauthURL, f.oauthErr
}

func (f *fakeUserService) OAuthCallback(ctx context.Context, state, code string) (*domain.AuthResult, error) {
	return f.callbackRes, f.callbackErr
}

func (f *fakeUserService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return f.getByIDUser, f.getByIDErr
}

func TestAuthController_SignUp(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		fakeUser     *domain.User
		fakeErr      error
		wantStatus   int
		wantBodyCode string
	}{
		{
			name:       "success",
			body:       `{"email":"a@b.com","password":"password123","name":"Alice"}`,
			fakeUser:   &domain.User{ID: "u1", Email: "a@b.com", Name: "Alice"},
			wantStatus: http.StatusCreated,
		},
		{
			name:         "missing password",
			body:         `{"email":"a@b.com"}`,
			wantStatus:   http.StatusBadRequest,
			wantBodyCode: helpers.ErrCodeBadRequest,
		},
		{
			name:         "invalid email",
			body:         `{"email":"nope","password":"password123"}`,
			wantStatus:   http.StatusBadRequest,
			wantBodyCode: helpers.ErrCodeBadRequest,
		},
		{
			name:         "unknown field rejected",
			body:         `{"email":"a@b.com","password":"password123","role":"admin"}`,
			wantStatus:   http.StatusBadRequest,
			wantBodyCode: helpers.ErrCodeBadRequest,
		},
		{
			name:         "duplicate email",
			body:         `{"email":"a@b.com","password":"password123"}`,
			fakeErr:      domain.ErrDuplicateEmail,
			wantStatus:   http.StatusBadRequest,
			wantBodyCode: helpers.ErrCodeBadRequest,
		},
		{
			name:         "service error",
			body:         `{"email":"a@b.com","password":"password123"}`,
			fakeErr:      assert.AnError,
			wantStatus:   http.StatusInternalServerError,
			wantBodyCode: helpers.ErrCodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeUserService{signUpUser: tt.fakeUser, signUpErr: tt.fakeErr}
			ctrl := NewAuthController(testLogger(), fake)

			req := httptest.NewRequest(http.MethodPost, "http://test/auth/signup", bytes.NewBufferString(tt.body))
			rr := httptest.NewRecorder()

			ctrl.SignUp(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			var envelope helpers.APIResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
			if tt.wantBodyCode != "" {
				require.NotNil(t, envelope.Error)
				assert.Equal(t, tt.wantBodyCode, envelope.Error.Code)
			}
		})
	}
}

func TestAuthController_Login(t *testing.T) {
	t.Run("success returns bearer token", func(t *testing.T) {
		fake := &fakeUserService{loginResult: &domain.AuthResult{
			Token: "jwt-token",
			User:  &domain.User{ID: "u1", Email: "a@b.com"},
		}}
		ctrl := NewAuthController(testLogger(), fake)

		req := httptest.NewRequest(http.MethodPost, "http://test/auth/login",
			bytes.NewBufferString(`{"email":"a@b.com","password":"password123"}`))
		rr := httptest.NewRecorder()

		ctrl.Login(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var envelope struct {
			Data LoginResponse `json:"data"`
		}
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
		assert.Equal(t, "jwt-token", envelope.Data.Token)
		assert.Equal(t, "Bearer", envelope.Data.TokenType)
		assert.Equal(t, "u1", envelope.Data.User.ID)
	})

	t.Run("invalid credentials", func(t *testing.T) {
		fake := &fakeUserService{loginErr: services.ErrInvalidCredentials}
		ctrl := NewAuthController(testLogger(), fake)

		req := httptest.NewRequest(http.MethodPost, "http://test/auth/login",
			bytes.NewBufferString(`{"email":"a@b.com","password":"wrong"}`))
		rr := httptest.NewRecorder()

		ctrl.Login(rr, req)

		require.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestAuthController_GoogleFlow(t *testing.T) {
	t.Run("login returns consent url", func(t *testing.T) {
		fake := &fakeUserService{oauthURL: "https://accounts.google.com/o/oauth2/auth?state=abc"}
		ctrl := NewAuthController(testLogger(), fake)

		req := httptest.NewRequest(http.MethodGet, "http://test/auth/google/login", nil)
		rr := httptest.NewRecorder()

		ctrl.GoogleLogin(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var envelope struct {
			Data OAuthURLResponse `json:"data"`
		}
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
		assert.Contains(t, envelope.Data.URL, "state=abc")
	})

	t.Run("callback without params is rejected", func(t *testing.T) {
		ctrl := NewAuthController(testLogger(), &fakeUserService{})

		req := httptest.NewRequest(http.MethodGet, "http://test/auth/google/callback", nil)
		rr := httptest.NewRecorder()

		ctrl.GoogleCallback(rr, req)

		require.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("callback with bad state", func(t *testing.T) {
		fake := &fakeUserService{callbackErr: services.ErrInvalidOAuthState}
		ctrl := NewAuthController(testLogger(), fake)

		req := httptest.NewRequest(http.MethodGet, "http://test/auth/google/callback?state=old&code=xyz", nil)
		rr := httptest.NewRecorder()

		ctrl.GoogleCallback(rr, req)

		require.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("callback success", func(t *testing.T) {
		fake := &fakeUserService{callbackRes: &domain.AuthResult{
			Token: "jwt-token",
			User:  &domain.User{ID: "u1", Email: "g@b.com", Provider: "google"},
		}}
		ctrl := NewAuthController(testLogger(), fake)

		req := httptest.NewRequest(http.MethodGet, "http://test/auth/google/callback?state=abc&code=xyz", nil)
		rr := httptest.NewRecorder()

		ctrl.GoogleCallback(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestAuthController_Me(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		fake := &fakeUserService{getByIDUser: &domain.User{ID: "u1", Email: "a@b.com"}}
		ctrl := NewAuthController(testLogger(), fake)

		req := httptest.NewRequest(http.MethodGet, "http://test/users/me", nil)
		req = req.WithContext(middleware.SetUserID(req.Context(), "u1"))
		rr := httptest.NewRecorder()

		ctrl.Me(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("no user in context", func(t *testing.T) {
		ctrl := NewAuthController(testLogger(), &fakeUserService{})

		req := httptest.NewRequest(http.MethodGet, "http://test/users/me", nil)
		rr := httptest.NewRecorder()

		ctrl.Me(rr, req)

		require.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("not found", func(t *testing.T) {
		fake := &fakeUserService{getByIDErr: domain.ErrUserNotFound}
		ctrl := NewAuthController(testLogger(), fake)

		req := httptest.NewRequest(http.MethodGet, "http://test/users/me", nil)
		req = req.WithContext(middleware.SetUserID(req.Context(), "ghost"))
		rr := httptest.NewRecorder()

		ctrl.Me(rr, req)

		require.Equal(t, http.StatusNotFound, rr.Code)
	})
}
