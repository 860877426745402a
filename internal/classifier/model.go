package classifier

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hardikSrivastav/imp-mail-sub002/internal/domain"
)

// Training hyperparameters. Batch gradient descent is deterministic for a
// given example set, so retraining on the same data reproduces the model.
const (
	trainEpochs       = 500
	trainLearningRate = 0.1
	trainL2           = 0.001
)

// MinTrainingExamples is the minimum number of labeled examples with vector
// data required to fit a model.
const MinTrainingExamples = 2

// Model is a logistic classifier over the extracted feature vector.
type Model struct {
	Weights   []float64 `json:"weights"`
	Bias      float64   `json:"bias"`
	Version   string    `json:"version"`
	TrainedAt time.Time `json:"trained_at"`
	Examples  int       `json:"examples"`
}

// Train fits a logistic model on the given feature matrix and labels.
// It requires at least MinTrainingExamples rows.
func Train(features [][]float64, labels []bool) (*Model, error) {
	if len(features) != len(labels) {
		return nil, fmt.Errorf("feature/label count mismatch: %d != %d", len(features), len(labels))
	}
	if len(features) < MinTrainingExamples {
		return nil, fmt.Errorf("%w: need at least %d, got %d", domain.ErrInsufficientExamples, MinTrainingExamples, len(features))
	}
	dim := len(features[0])
	for i, f := range features {
		if len(f) != dim {
			return nil, fmt.Errorf("feature row %d has dimension %d, want %d", i, len(f), dim)
		}
	}

	y := make([]float64, len(labels))
	for i, l := range labels {
		if l {
			y[i] = 1
		}
	}

	weights := make([]float64, dim)
	bias := 0.0
	n := float64(len(features))

	for epoch := 0; epoch < trainEpochs; epoch++ {
		gradW := make([]float64, dim)
		gradB := 0.0
		for i, row := range features {
			err := sigmoid(dot(weights, row)+bias) - y[i]
			for j, x := range row {
				gradW[j] += err * x
			}
			gradB += err
		}
		for j := range weights {
			weights[j] -= trainLearningRate * (gradW[j]/n + trainL2*weights[j])
		}
		bias -= trainLearningRate * gradB / n
	}

	return &Model{
		Weights:   weights,
		Bias:      bias,
		Version:   newVersion(),
		TrainedAt: time.Now().UTC(),
		Examples:  len(features),
	}, nil
}

// Predict scores one feature vector. Confidence is the probability of the
// predicted class, so it is always >= 0.5.
func (m *Model) Predict(features []float64) (important bool, confidence float64) {
	p := sigmoid(dot(m.Weights, features) + m.Bias)
	if p >= 0.5 {
		return true, p
	}
	return false, 1 - p
}

// newVersion returns a short random model version id.
func newVersion() string {
	return uuid.NewString()[:8]
}

// Reasoning produces the human-readable explanation attached to a
// classification result.
func Reasoning(userID string, v *domain.EmailVector, important bool, confidence float64) string {
	var reasons []string
	if v != nil {
		if model, _ := v.Metadata["embeddingModel"].(string); strings.Contains(model, "text-embedding") {
			reasons = append(reasons, "consistent embedding model")
		}
		if uid, _ := v.Metadata["userId"].(string); uid == userID {
			reasons = append(reasons, "same user context")
		}
		if createdAt, _ := v.Metadata["createdAt"].(string); createdAt != "" {
			if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
				if h := t.Hour(); h >= 9 && h <= 17 {
					reasons = append(reasons, "sent during business hours")
				}
				if wd := t.Weekday(); wd != time.Saturday && wd != time.Sunday {
					reasons = append(reasons, "sent on weekday")
				}
			}
		}
		if len(v.Embedding) > 0 {
			reasons = append(reasons, "semantic content analysis")
		}
	}

	label := "not important"
	if important {
		label = "important"
	}
	reasonText := "based on learned patterns"
	if len(reasons) > 0 {
		reasonText = strings.Join(reasons, ", ")
	}
	return fmt.Sprintf("Classified as %s (confidence: %.2f) - %s", label, confidence, reasonText)
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
