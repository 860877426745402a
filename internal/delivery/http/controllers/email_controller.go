package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	h "github.com/hardikSrivastav/imp-mail-sub002/internal/delivery/http/helpers"
	"github.com/hardikSrivastav/imp-mail-sub002/internal/delivery/http/middleware"
	"github.com/hardikSrivastav/imp-mail-sub002/internal/domain"
)

type EmailController struct {
	Logger      *slog.Logger
	Service     domain.EmailService
	Preferences domain.PreferenceService
}

func NewEmailController(logger *slog.Logger, svc domain.EmailService, prefs domain.PreferenceService) *EmailController {
	return &EmailController{
		Logger:      logger,
		Service:     svc,
		Preferences: prefs,
	}
}

// List godoc
// @Summary List the user's emails
// @Description Returns one page of the user's emails, newest first, with pagination metadata including the visible page window. When page_size differs from the stored preference the listing restarts at page 1 and the preference is updated.
// @Tags emails
// @Produce json
// @Security BearerAuth
// @Param page query int false "page number (default 1)"
// @Param page_size query int false "items per page: 10, 25, 50, or 100 (default: user preference)"
// @Param importance query string false "filter: important, not_important, or unclassified"
// @Success 200 {object} helpers.APIResponse "data contains items and meta"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /emails [get]
func (c *EmailController) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "not authenticated")
		return
	}

	params, sizeGiven := h.ParsePagination(r)
	prefs, err := c.Preferences.Get(r.Context(), userID)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
		return
	}
	if sizeGiven && params.PageSize != prefs.ItemsPerPage {
		// Changing the page size restarts the listing from the first page
		// and becomes the new stored preference.
		params.Page = 1
		if _, err := c.Preferences.Update(r.Context(), userID, params.PageSize, prefs.AutoClassify); err != nil {
			c.Logger.WarnContext(r.Context(), "failed to store page size preference", "user_id", userID, "err", err)
		}
	}
	if !sizeGiven {
		params.PageSize = prefs.ItemsPerPage
	}

	filter := domain.EmailFilter{Importance: r.URL.Query().Get("importance")}
	page, err := c.Service.List(r.Context(), userID, filter, params)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
		return
	}

	emails := page.Emails
	if emails == nil {
		emails = []*domain.Email{}
	}
	h.WriteJSONSuccess(w, http.StatusOK, h.ListResponse{
		Items: emails,
		Meta:  h.NewPaginationMeta(params.Page, params.PageSize, page.Total),
	})
}

// Get godoc
// @Summary Get one email
// @Description Returns a single email with its HTML content sanitized for display.
// @Tags emails
// @Produce json
// @Security BearerAuth
// @Param id path string true "email id"
// @Success 200 {object} helpers.APIResponse "data contains the email"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /emails/{id} [get]
func (c *EmailController) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "not authenticated")
		return
	}
	email, err := c.Service.Get(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, domain.ErrEmailNotFound) {
			h.WriteJSONError(w, http.StatusNotFound, h.ErrCodeNotFound, "email not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, email)
}

// Sync godoc
// @Summary Sync recent mail
// @Description Pulls recent messages from the user's mailbox and stores the ones not yet indexed.
// @Tags emails
// @Produce json
// @Security BearerAuth
// @Param max query int false "maximum messages to examine (default 100)"
// @Success 200 {object} helpers.APIResponse "data contains fetched, stored, and skipped counts"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /emails/sync [post]
func (c *EmailController) Sync(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "not authenticated")
		return
	}
	max := 0
	if s := r.URL.Query().Get("max"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			max = v
		}
	}
	result, err := c.Service.Sync(r.Context(), userID, max)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, result)
}
