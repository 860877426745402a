package controllers

import (
	"log/slog"
	"net/http"

	h "github.com/hardikSrivastav/imp-mail-sub002/internal/delivery/http/helpers"
	"github.com/hardikSrivastav/imp-mail-sub002/internal/domain"
)

// SaveAllResponse is the response body for POST /models/save
type SaveAllResponse struct {
	Saved int `json:"saved"`
}

// ModelController exposes model persistence operations for operators.
type ModelController struct {
	Logger  *slog.Logger
	Service domain.ModelAdminService
}

func NewModelController(logger *slog.Logger, svc domain.ModelAdminService) *ModelController {
	return &ModelController{
		Logger:  logger,
		Service: svc,
	}
}

// Status godoc
// @Summary List persisted model snapshots
// @Tags models
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains one snapshot per user"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /models/status [get]
func (c *ModelController) Status(w http.ResponseWriter, r *http.Request) {
	snapshots, err := c.Service.PersistenceStatus(r.Context())
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
		return
	}
	if snapshots == nil {
		snapshots = []domain.ModelSnapshot{}
	}
	h.WriteJSONSuccess(w, http.StatusOK, snapshots)
}

// SaveAll godoc
// @Summary Flush in-memory models to disk
// @Tags models
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains the saved count"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /models/save [post]
func (c *ModelController) SaveAll(w http.ResponseWriter, r *http.Request) {
	saved, err := c.Service.SaveAll(r.Context())
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, SaveAllResponse{Saved: saved})
}
