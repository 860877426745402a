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

// ExampleInput is one labeled example in classifier request bodies.
type ExampleInput struct {
	EmailID     string  `json:"email_id"`
	IsImportant bool    `json:"is_important"`
	Confidence  float64 `json:"confidence"`
}

// TrainRequest is the request body for POST /classifier/train
type TrainRequest struct {
	Examples []ExampleInput `json:"examples"`
	Retrain  bool           `json:"retrain"`
}

// Validate implements Validator.
func (t TrainRequest) Validate() []string {
	var errs []string
	if len(t.Examples) == 0 {
		errs = append(errs, "examples are required")
	}
	for _, ex := range t.Examples {
		if ex.EmailID == "" {
			errs = append(errs, "every example needs an email_id")
			break
		}
	}
	return errs
}

// ClassifyRequest is the request body for POST /classifier/classify
type ClassifyRequest struct {
	EmailIDs []string `json:"email_ids"`
}

// Validate implements Validator.
func (c ClassifyRequest) Validate() []string {
	if len(c.EmailIDs) == 0 {
		return []string{"email_ids are required"}
	}
	return nil
}

// ClassifyResponse is the response body for POST /classifier/classify
type ClassifyResponse struct {
	Results      []domain.ClassificationResult `json:"results"`
	ModelVersion string                        `json:"model_version,omitempty"`
}

// FeedbackRequest is the request body for POST /classifier/feedback
type FeedbackRequest struct {
	EmailID        string  `json:"email_id"`
	ActualLabel    bool    `json:"actual_label"`
	PredictedLabel bool    `json:"predicted_label"`
	Confidence     float64 `json:"confidence"`
}

// Validate implements Validator.
func (f FeedbackRequest) Validate() []string {
	if f.EmailID == "" {
		return []string{"email_id is required"}
	}
	return nil
}

// LabelRequest is the request body for POST /classifier/labels
type LabelRequest struct {
	Examples []ExampleInput `json:"examples"`
}

// Validate implements Validator.
func (l LabelRequest) Validate() []string {
	if len(l.Examples) == 0 {
		return []string{"examples are required"}
	}
	for _, ex := range l.Examples {
		if ex.EmailID == "" {
			return []string{"every example needs an email_id"}
		}
	}
	return nil
}

// BulkLabelRequest is the request body for POST /classifier/bulk-label
type BulkLabelRequest struct {
	ImportantEmailIDs   []string `json:"important_email_ids"`
	UnimportantEmailIDs []string `json:"unimportant_email_ids"`
}

// Validate implements Validator.
func (b BulkLabelRequest) Validate() []string {
	if len(b.ImportantEmailIDs) == 0 && len(b.UnimportantEmailIDs) == 0 {
		return []string{"at least one email id is required"}
	}
	return nil
}

type ClassifierController struct {
	Logger  *slog.Logger
	Service domain.ClassifierService
}

func NewClassifierController(logger *slog.Logger, svc domain.ClassifierService) *ClassifierController {
	return &ClassifierController{
		Logger:  logger,
		Service: svc,
	}
}

func toExamples(inputs []ExampleInput) []domain.LabeledExample {
	examples := make([]domain.LabeledExample, len(inputs))
	for i, in := range inputs {
		examples[i] = domain.LabeledExample{
			EmailID:     in.EmailID,
			IsImportant: in.IsImportant,
			Confidence:  in.Confidence,
		}
	}
	return examples
}

// writeTrainError maps classifier training failures onto API errors.
func (c *ClassifierController) writeTrainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInsufficientExamples):
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "not enough training examples")
	case errors.Is(err, domain.ErrNoEmailData):
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "no email data found for provided ids")
	default:
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
	}
}

// Train godoc
// @Summary Train the user's importance model
// @Description Adds labeled examples and fits the model. With retrain=true all prior examples are replaced first.
// @Tags classifier
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body TrainRequest true "labeled examples"
// @Success 200 {object} helpers.APIResponse "data contains the training report"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /classifier/train [post]
func (c *ClassifierController) Train(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "not authenticated")
		return
	}
	var req TrainRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	report, err := c.Service.Train(r.Context(), userID, toExamples(req.Examples), req.Retrain)
	if err != nil {
		c.writeTrainError(w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, report)
}

// Classify godoc
// @Summary Classify emails
// @Description Scores the given email ids with the user's model. Emails without embeddings, or requests before any training, yield a zero-confidence default.
// @Tags classifier
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body ClassifyRequest true "email ids"
// @Success 200 {object} helpers.APIResponse "data contains results and model_version"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /classifier/classify [post]
func (c *ClassifierController) Classify(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "not authenticated")
		return
	}
	var req ClassifyRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	results, version, err := c.Service.Classify(r.Context(), userID, req.EmailIDs)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, ClassifyResponse{Results: results, ModelVersion: version})
}

// Feedback godoc
// @Summary Submit a prediction correction
// @Description Records the user's actual label for a prediction. A mismatch becomes a new training example and may trigger retraining.
// @Tags classifier
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body FeedbackRequest true "feedback"
// @Success 204 "recorded"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /classifier/feedback [post]
func (c *ClassifierController) Feedback(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "not authenticated")
		return
	}
	var req FeedbackRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	err := c.Service.SubmitFeedback(r.Context(), userID, domain.Feedback{
		EmailID:        req.EmailID,
		ActualLabel:    req.ActualLabel,
		PredictedLabel: req.PredictedLabel,
		Confidence:     req.Confidence,
	})
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Label godoc
// @Summary Label emails
// @Description Records direct importance labels. Once enough examples exist the model retrains automatically.
// @Tags classifier
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body LabelRequest true "labeled examples"
// @Success 200 {object} helpers.APIResponse "data contains the training report"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /classifier/labels [post]
func (c *ClassifierController) Label(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "not authenticated")
		return
	}
	var req LabelRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	report, err := c.Service.Label(r.Context(), userID, toExamples(req.Examples))
	if err != nil {
		c.writeTrainError(w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, report)
}

// BulkLabel godoc
// @Summary Label many emails at once
// @Description Records labels from two id lists, important and unimportant. Once enough examples exist the model retrains automatically.
// @Tags classifier
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body BulkLabelRequest true "id lists"
// @Success 200 {object} helpers.APIResponse "data contains the training report"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /classifier/bulk-label [post]
func (c *ClassifierController) BulkLabel(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "not authenticated")
		return
	}
	var req BulkLabelRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	report, err := c.Service.BulkLabel(r.Context(), userID, domain.BulkLabels{
		ImportantEmailIDs:   req.ImportantEmailIDs,
		UnimportantEmailIDs: req.UnimportantEmailIDs,
	})
	if err != nil {
		c.writeTrainError(w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, report)
}

// Stats godoc
// @Summary Get model stats
// @Tags classifier
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains the model stats"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /classifier/stats [get]
func (c *ClassifierController) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "not authenticated")
		return
	}
	stats, err := c.Service.Stats(r.Context(), userID)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, stats)
}

// Similar godoc
// @Summary Find similar emails
// @Description Returns the user's stored emails nearest to the given one by embedding similarity.
// @Tags classifier
// @Produce json
// @Security BearerAuth
// @Param id path string true "Email ID"
// @Param limit query int false "Maximum results (default 10)"
// @Success 200 {object} helpers.APIResponse "data contains the ranked emails"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /classifier/similar/{id} [get]
func (c *ClassifierController) Similar(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "not authenticated")
		return
	}
	emailID := r.PathValue("id")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	similar, err := c.Service.FindSimilar(r.Context(), userID, emailID, limit)
	if err != nil {
		if errors.Is(err, domain.ErrNoEmailData) {
			h.WriteJSONError(w, http.StatusNotFound, h.ErrCodeNotFound, "no embedding found for email")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
		return
	}
	if similar == nil {
		similar = []domain.SimilarEmail{}
	}
	h.WriteJSONSuccess(w, http.StatusOK, similar)
}

// Reset godoc
// @Summary Reset the user's model
// @Description Deletes the user's model and all training data, in memory and on disk.
// @Tags classifier
// @Produce json
// @Security BearerAuth
// @Success 204 "reset"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /classifier/reset [post]
func (c *ClassifierController) Reset(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "not authenticated")
		return
	}
	if err := c.Service.Reset(r.Context(), userID); err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
