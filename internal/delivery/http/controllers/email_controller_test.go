package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hardikSrivastav/imp-mail-sub002/internal/delivery/http/helpers"
	"github.com/hardikSrivastav/imp-mail-sub002/internal/delivery/http/middleware"
	"github.com/hardikSrivastav/imp-mail-sub002/internal/domain"
)

// fakeEmailService implements domain.EmailService for handler tests.
type fakeEmailService struct {
	page       *domain.EmailPage
	listErr    error
	lastParams domain.PaginationParams
	lastFilter domain.EmailFilter
	email      *domain.Email
	getErr     error
	syncResult *domain.SyncResult
	syncErr    error
}

func (f *fakeEmailService) List(ctx context.Context, userID string, filter domain.EmailFilter, p domain.PaginationParams) (*domain.EmailPage, error) {
	f.lastFilter = filter
	f.lastParams = p
	return f.page, f.listErr
}

func (f *fakeEmailService) Get(ctx context.Context, userID, id string) (*domain.Email, error) {
	return f.email, f.getErr
}

func (f *fakeEmailService) Sync(ctx context.Context, userID string, max int) (*domain.SyncResult, error) {
	return f.syncResult, f.syncErr
}

// fakePreferenceService implements domain.PreferenceService for handler tests.
type fakePreferenceService struct {
	prefs       *domain.Preferences
	getErr      error
	lastUpdated int
}

func (f *fakePreferenceService) Get(ctx context.Context, userID string) (*domain.Preferences, error) {
	return f.prefs, f.getErr
}

func (f *fakePreferenceService) Update(ctx context.Context, userID string, itemsPerPage int, autoClassify bool) (*domain.Preferences, error) {
	f.lastUpdated = itemsPerPage
	return &domain.Preferences{UserID: userID, ItemsPerPage: itemsPerPage, AutoClassify: autoClassify}, nil
}

func authedRequest(method, url string, body []byte) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, url, bytes.NewBuffer(body))
	} else {
		req = httptest.NewRequest(method, url, nil)
	}
	return req.WithContext(middleware.SetUserID(req.Context(), "u1"))
}

func TestEmailController_List(t *testing.T) {
	somePage := &domain.EmailPage{
		Emails: []*domain.Email{{ID: "e1", UserID: "u1", Subject: "hello", ReceivedAt: time.Now()}},
		Total:  95,
	}

	t.Run("uses stored preference when no page_size given", func(t *testing.T) {
		emails := &fakeEmailService{page: somePage}
		prefs := &fakePreferenceService{prefs: &domain.Preferences{UserID: "u1", ItemsPerPage: 25}}
		ctrl := NewEmailController(testLogger(), emails, prefs)

		rr := httptest.NewRecorder()
		ctrl.List(rr, authedRequest(http.MethodGet, "http://test/emails?page=2", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, 25, emails.lastParams.PageSize)
		assert.Equal(t, 2, emails.lastParams.Page)
		assert.Zero(t, prefs.lastUpdated)
	})

	t.Run("page size change resets to page 1 and stores the preference", func(t *testing.T) {
		emails := &fakeEmailService{page: somePage}
		prefs := &fakePreferenceService{prefs: &domain.Preferences{UserID: "u1", ItemsPerPage: 25}}
		ctrl := NewEmailController(testLogger(), emails, prefs)

		rr := httptest.NewRecorder()
		ctrl.List(rr, authedRequest(http.MethodGet, "http://test/emails?page=4&page_size=50", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, 50, emails.lastParams.PageSize)
		assert.Equal(t, 1, emails.lastParams.Page)
		assert.Equal(t, 50, prefs.lastUpdated)
	})

	t.Run("disallowed page size falls back to the preference", func(t *testing.T) {
		emails := &fakeEmailService{page: somePage}
		prefs := &fakePreferenceService{prefs: &domain.Preferences{UserID: "u1", ItemsPerPage: 25}}
		ctrl := NewEmailController(testLogger(), emails, prefs)

		rr := httptest.NewRecorder()
		ctrl.List(rr, authedRequest(http.MethodGet, "http://test/emails?page=3&page_size=33", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, 25, emails.lastParams.PageSize)
		assert.Equal(t, 3, emails.lastParams.Page)
	})

	t.Run("meta carries the pagination window", func(t *testing.T) {
		emails := &fakeEmailService{page: somePage}
		prefs := &fakePreferenceService{prefs: &domain.Preferences{UserID: "u1", ItemsPerPage: 25}}
		ctrl := NewEmailController(testLogger(), emails, prefs)

		rr := httptest.NewRecorder()
		ctrl.List(rr, authedRequest(http.MethodGet, "http://test/emails?page=4", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		var envelope struct {
			Data struct {
				Items []domain.Email         `json:"items"`
				Meta  helpers.PaginationMeta `json:"meta"`
			} `json:"data"`
		}
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
		assert.Equal(t, 95, envelope.Data.Meta.Total)
		assert.Equal(t, 4, envelope.Data.Meta.Window.TotalPages)
		assert.Equal(t, 76, envelope.Data.Meta.Window.StartItem)
		assert.Equal(t, 95, envelope.Data.Meta.Window.EndItem)
		assert.False(t, envelope.Data.Meta.Window.CanGoNext)
	})

	t.Run("importance filter is forwarded", func(t *testing.T) {
		emails := &fakeEmailService{page: &domain.EmailPage{}}
		prefs := &fakePreferenceService{prefs: domain.DefaultPreferences("u1")}
		ctrl := NewEmailController(testLogger(), emails, prefs)

		rr := httptest.NewRecorder()
		ctrl.List(rr, authedRequest(http.MethodGet, "http://test/emails?importance=important", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "important", emails.lastFilter.Importance)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		ctrl := NewEmailController(testLogger(), &fakeEmailService{}, &fakePreferenceService{})

		rr := httptest.NewRecorder()
		ctrl.List(rr, httptest.NewRequest(http.MethodGet, "http://test/emails", nil))

		require.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestEmailController_Get(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		emails := &fakeEmailService{email: &domain.Email{ID: "e1", Subject: "hi"}}
		ctrl := NewEmailController(testLogger(), emails, &fakePreferenceService{})

		req := authedRequest(http.MethodGet, "http://test/emails/e1", nil)
		req.SetPathValue("id", "e1")
		rr := httptest.NewRecorder()

		ctrl.Get(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("not found", func(t *testing.T) {
		emails := &fakeEmailService{getErr: domain.ErrEmailNotFound}
		ctrl := NewEmailController(testLogger(), emails, &fakePreferenceService{})

		req := authedRequest(http.MethodGet, "http://test/emails/missing", nil)
		req.SetPathValue("id", "missing")
		rr := httptest.NewRecorder()

		ctrl.Get(rr, req)

		require.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestEmailController_Sync(t *testing.T) {
	t.Run("returns counters", func(t *testing.T) {
		emails := &fakeEmailService{syncResult: &domain.SyncResult{Fetched: 10, Stored: 7, Skipped: 3}}
		ctrl := NewEmailController(testLogger(), emails, &fakePreferenceService{})

		rr := httptest.NewRecorder()
		ctrl.Sync(rr, authedRequest(http.MethodPost, "http://test/emails/sync?max=10", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		var envelope struct {
			Data domain.SyncResult `json:"data"`
		}
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
		assert.Equal(t, 7, envelope.Data.Stored)
	})

	t.Run("service error", func(t *testing.T) {
		emails := &fakeEmailService{syncErr: assert.AnError}
		ctrl := NewEmailController(testLogger(), emails, &fakePreferenceService{})

		rr := httptest.NewRecorder()
		ctrl.Sync(rr, authedRequest(http.MethodPost, "http://test/emails/sync", nil))

		require.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}
