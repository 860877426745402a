// Package classifier implements per-user email importance models: similarity
// feature extraction over embeddings, a logistic model, and on-disk state.
package classifier

import (
	"math"
	"strings"
	"time"

	"github.com/hardikSrivastav/imp-mail-sub002/internal/domain"
)

// FeatureCount is the dimensionality of the extracted feature vector.
const FeatureCount = 14

// LabeledVector pairs an embedding with its user-assigned importance label.
type LabeledVector struct {
	EmailID     string
	Embedding   []float64
	IsImportant bool
}

// ExtractFeatures builds the feature vector for one email from cosine
// similarities against the user's labeled embeddings plus metadata signals.
// Layout:
//
//	0-4  avg/max similarity to important, avg/max to unimportant, and the
//	     discriminative difference avgImportant-avgUnimportant
//	5-7  mean, stddev, max over all similarities
//	8    embedding magnitude
//	9-11 business-hours, weekend, off-hours flags from createdAt metadata
//	12   same-user flag
//	13   embedding-model consistency flag
//
// A zero vector is returned when the email has no embedding or no labeled
// data exists.
func ExtractFeatures(userID string, v *domain.EmailVector, labeled []LabeledVector) []float64 {
	features := make([]float64, 0, FeatureCount)

	if v == nil || len(v.Embedding) == 0 || len(labeled) == 0 {
		return make([]float64, FeatureCount)
	}

	var importantSims, unimportantSims []float64
	for _, lv := range labeled {
		if len(lv.Embedding) == 0 {
			continue
		}
		sim := cosineSimilarity(v.Embedding, lv.Embedding)
		if lv.IsImportant {
			importantSims = append(importantSims, sim)
		} else {
			unimportantSims = append(unimportantSims, sim)
		}
	}

	avgImportant := mean(importantSims)
	avgUnimportant := mean(unimportantSims)
	features = append(features,
		avgImportant,
		maxOf(importantSims),
		avgUnimportant,
		maxOf(unimportantSims),
		avgImportant-avgUnimportant,
	)

	all := append(append([]float64{}, importantSims...), unimportantSims...)
	features = append(features, mean(all), stddev(all), maxOf(all))

	features = append(features, magnitude(v.Embedding))

	business, weekend, offHours := temporalFlags(v.Metadata)
	features = append(features, business, weekend, offHours)

	sameUser := 0.0
	if uid, _ := v.Metadata["userId"].(string); uid == userID {
		sameUser = 1.0
	}
	features = append(features, sameUser)

	consistentModel := 0.0
	if model, _ := v.Metadata["embeddingModel"].(string); strings.Contains(model, "text-embedding") {
		consistentModel = 1.0
	}
	features = append(features, consistentModel)

	return features
}

// temporalFlags derives business-hours/weekend/off-hours indicators from the
// createdAt metadata value. Unknown timestamps yield the neutral 0.5/0.5/0.
func temporalFlags(metadata map[string]any) (business, weekend, offHours float64) {
	createdAt, _ := metadata["createdAt"].(string)
	if createdAt == "" {
		return 0.5, 0.5, 0
	}
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return 0.5, 0.5, 0
	}
	hour := t.Hour()
	if hour >= 9 && hour <= 17 {
		business = 1
	}
	if wd := t.Weekday(); wd == time.Saturday || wd == time.Sunday {
		weekend = 1
	}
	if hour < 8 || hour > 18 {
		offHours = 1
	}
	return business, weekend, offHours
}

// cosineSimilarity returns the cosine of the angle between a and b, treating
// length mismatches and zero vectors as zero similarity.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func magnitude(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stddev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	var sum float64
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)))
}

func maxOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	max := xs[0]
	for _, x := range xs[1:] {
		if x > max {
			max = x
		}
	}
	return max
}
