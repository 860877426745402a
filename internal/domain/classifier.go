package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for classifier operations.
var (
	ErrModelNotTrained      = errors.New("model not trained")
	ErrInsufficientExamples = errors.New("insufficient training examples")
	ErrNoEmailData          = errors.New("no email data found for provided ids")
)

// LabeledExample is a user-provided importance label used as training data.
type LabeledExample struct {
	EmailID     string    `json:"email_id"`
	IsImportant bool      `json:"is_important"`
	Confidence  float64   `json:"confidence"`
	CreatedAt   time.Time `json:"created_at"`
}

// ExampleRepository stores labeled examples per user. Save upserts on
// (user, email) so relabeling replaces the previous label.
type ExampleRepository interface {
	Save(ctx context.Context, userID string, examples []LabeledExample) error
	ListByUser(ctx context.Context, userID string) ([]LabeledExample, error)
	DeleteByUser(ctx context.Context, userID string) error
}

// ClassificationResult is the model's verdict on a single email.
type ClassificationResult struct {
	EmailID     string  `json:"email_id"`
	IsImportant bool    `json:"is_important"`
	Confidence  float64 `json:"confidence"`
	Reasoning   string  `json:"reasoning,omitempty"`
}

// TrainReport summarizes a training run.
type TrainReport struct {
	ExamplesAdded int    `json:"examples_added"`
	TotalExamples int    `json:"total_examples"`
	EmailsFound   int    `json:"emails_found"`
	ModelVersion  string `json:"model_version"`
	Trained       bool   `json:"trained"`
}

// ModelStats reports the state of a user's importance model.
type ModelStats struct {
	UserID        string    `json:"user_id"`
	TotalExamples int       `json:"total_examples"`
	LastTrained   time.Time `json:"last_trained"`
	ModelVersion  string    `json:"model_version"`
	Trained       bool      `json:"trained"`
}

// Feedback is a user's correction of a prediction.
type Feedback struct {
	EmailID        string
	ActualLabel    bool
	PredictedLabel bool
	Confidence     float64
}

// BulkLabels partitions email IDs into important and unimportant sets.
type BulkLabels struct {
	ImportantEmailIDs   []string
	UnimportantEmailIDs []string
}

// SimilarEmail is a stored email ranked by embedding similarity.
type SimilarEmail struct {
	Email *Email  `json:"email"`
	Score float64 `json:"score"`
}

// ClassifierService defines the business logic for training and scoring
// per-user importance models. All operations act on the given user's model.
type ClassifierService interface {
	// Train adds labeled examples (replacing all prior ones when retrain is
	// set) and fits the user's model.
	Train(ctx context.Context, userID string, examples []LabeledExample, retrain bool) (*TrainReport, error)
	// Classify scores the given emails. IDs without vector data, or any
	// request before a model exists, yield a zero-confidence default.
	Classify(ctx context.Context, userID string, emailIDs []string) ([]ClassificationResult, string, error)
	// SubmitFeedback records a correction; a mismatch becomes a new training
	// example and may trigger retraining.
	SubmitFeedback(ctx context.Context, userID string, fb Feedback) error
	// Label records direct labels and retrains once enough examples exist.
	Label(ctx context.Context, userID string, examples []LabeledExample) (*TrainReport, error)
	// BulkLabel records labels from two ID lists and retrains once enough
	// examples exist.
	BulkLabel(ctx context.Context, userID string, labels BulkLabels) (*TrainReport, error)
	Stats(ctx context.Context, userID string) (*ModelStats, error)
	// FindSimilar returns the user's stored emails nearest to the given one
	// by embedding similarity, best first.
	FindSimilar(ctx context.Context, userID, emailID string, limit int) ([]SimilarEmail, error)
	// Reset clears the user's model and training data, in memory and on disk.
	Reset(ctx context.Context, userID string) error
}

// ModelSnapshot describes one user's persisted model state.
type ModelSnapshot struct {
	UserID          string    `json:"user_id"`
	ExamplesCount   int       `json:"examples_count"`
	ModelVersion    string    `json:"model_version"`
	LastTrained     time.Time `json:"last_trained"`
	HasTrainedModel bool      `json:"has_trained_model"`
}

// ModelAdminService exposes model persistence operations for operators.
type ModelAdminService interface {
	// PersistenceStatus lists every user's on-disk model snapshot.
	PersistenceStatus(ctx context.Context) ([]ModelSnapshot, error)
	// SaveAll flushes every in-memory model to disk and returns the count saved.
	SaveAll(ctx context.Context) (int, error)
}
