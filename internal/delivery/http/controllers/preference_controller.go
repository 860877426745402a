package controllers

import (
	"fmt"
	"log/slog"
	"net/http"

	h "github.com/hardikSrivastav/imp-mail-sub002/internal/delivery/http/helpers"
	"github.com/hardikSrivastav/imp-mail-sub002/internal/delivery/http/middleware"
	"github.com/hardikSrivastav/imp-mail-sub002/internal/domain"
	"github.com/hardikSrivastav/imp-mail-sub002/pkg/pagination"
)

// UpdatePreferencesRequest is the request body for PUT /users/me/preferences
type UpdatePreferencesRequest struct {
	ItemsPerPage int  `json:"items_per_page"`
	AutoClassify bool `json:"auto_classify"`
}

// Validate implements Validator.
func (u UpdatePreferencesRequest) Validate() []string {
	var errs []string
	if !pagination.IsAllowedPageSize(u.ItemsPerPage) {
		errs = append(errs, fmt.Sprintf("items_per_page must be one of %v", pagination.AllowedPageSizes))
	}
	return errs
}

type PreferenceController struct {
	Logger  *slog.Logger
	Service domain.PreferenceService
}

func NewPreferenceController(logger *slog.Logger, svc domain.PreferenceService) *PreferenceController {
	return &PreferenceController{
		Logger:  logger,
		Service: svc,
	}
}

// Get godoc
// @Summary Get the user's preferences
// @Tags preferences
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains the preferences"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/me/preferences [get]
func (c *PreferenceController) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "not authenticated")
		return
	}
	prefs, err := c.Service.Get(r.Context(), userID)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, prefs)
}

// Update godoc
// @Summary Update the user's preferences
// @Description Stores the listing page size (10, 25, 50, or 100) and the auto-classify flag.
// @Tags preferences
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body UpdatePreferencesRequest true "preferences"
// @Success 200 {object} helpers.APIResponse "data contains the stored preferences"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/me/preferences [put]
func (c *PreferenceController) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "not authenticated")
		return
	}
	var req UpdatePreferencesRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	prefs, err := c.Service.Update(r.Context(), userID, req.ItemsPerPage, req.AutoClassify)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, prefs)
}
