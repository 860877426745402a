package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hardikSrivastav/imp-mail-sub002/internal/classifier"
	"github.com/hardikSrivastav/imp-mail-sub002/internal/domain"
)

// retrainThreshold is the example count at which labeling triggers an
// automatic retrain.
const retrainThreshold = 10

type classifierService struct {
	vectors     domain.VectorStore
	exampleRepo domain.ExampleRepository
	emailRepo   domain.EmailRepository
	store       *classifier.Store
	logger      *slog.Logger

	mu     sync.RWMutex
	states map[string]*classifier.State
}

// NewClassifierService creates the per-user importance model service. States
// are cached in memory and lazily loaded from the snapshot store.
func NewClassifierService(
	vectors domain.VectorStore,
	exampleRepo domain.ExampleRepository,
	emailRepo domain.EmailRepository,
	store *classifier.Store,
	logger *slog.Logger,
) *classifierService {
	return &classifierService{
		vectors:     vectors,
		exampleRepo: exampleRepo,
		emailRepo:   emailRepo,
		store:       store,
		logger:      logger,
		states:      make(map[string]*classifier.State),
	}
}

var (
	_ domain.ClassifierService = (*classifierService)(nil)
	_ domain.ModelAdminService = (*classifierService)(nil)
)

// WarmUp loads every persisted user state into the in-memory cache. It is
// called once at startup so trained models serve immediately after a restart.
func (s *classifierService) WarmUp(ctx context.Context) (int, error) {
	states, err := s.store.LoadAll()
	if err != nil {
		return 0, fmt.Errorf("failed to load persisted models: %w", err)
	}
	s.mu.Lock()
	for _, st := range states {
		if _, ok := s.states[st.UserID]; !ok {
			s.states[st.UserID] = st
		}
	}
	loaded := len(s.states)
	s.mu.Unlock()
	s.logger.Info("persisted models loaded", "users", loaded)
	return loaded, nil
}

// state returns the user's cached state, loading the on-disk snapshot on
// first access. When no snapshot exists, labeled examples stored in Postgres
// are recovered so a lost data directory does not lose the training set.
func (s *classifierService) state(ctx context.Context, userID string) (*classifier.State, error) {
	s.mu.RLock()
	st, ok := s.states[userID]
	s.mu.RUnlock()
	if ok {
		return st, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.states[userID]; ok {
		return st, nil
	}
	st, err := s.store.Load(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load model state: %w", err)
	}
	if len(st.Examples) == 0 && st.Model == nil {
		examples, err := s.exampleRepo.ListByUser(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to load stored examples: %w", err)
		}
		st.Examples = examples
	}
	s.states[userID] = st
	return st, nil
}

func (s *classifierService) Train(ctx context.Context, userID string, examples []domain.LabeledExample, retrain bool) (*domain.TrainReport, error) {
	st, err := s.state(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if retrain {
		st.Examples = nil
		if err := s.exampleRepo.DeleteByUser(ctx, userID); err != nil {
			s.mu.Unlock()
			return nil, fmt.Errorf("failed to clear examples: %w", err)
		}
	}
	added := mergeExamples(st, examples)
	s.mu.Unlock()

	if len(examples) > 0 {
		if err := s.exampleRepo.Save(ctx, userID, examples); err != nil {
			return nil, fmt.Errorf("failed to save examples: %w", err)
		}
	}

	report, err := s.fit(ctx, userID, st)
	if err != nil {
		return nil, err
	}
	report.ExamplesAdded = added
	return report, nil
}

// fit trains the user's model from the current example set and persists the
// resulting state.
func (s *classifierService) fit(ctx context.Context, userID string, st *classifier.State) (*domain.TrainReport, error) {
	s.mu.RLock()
	examples := append([]domain.LabeledExample{}, st.Examples...)
	s.mu.RUnlock()

	report := &domain.TrainReport{TotalExamples: len(examples)}
	if len(examples) < classifier.MinTrainingExamples {
		return nil, domain.ErrInsufficientExamples
	}

	ids := make([]string, len(examples))
	for i, ex := range examples {
		ids[i] = ex.EmailID
	}
	vectors, err := s.vectors.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch embeddings: %w", err)
	}
	byID := make(map[string]*domain.EmailVector, len(vectors))
	for _, v := range vectors {
		byID[v.EmailID] = v
	}

	labeled := make([]classifier.LabeledVector, 0, len(examples))
	for _, ex := range examples {
		v, ok := byID[ex.EmailID]
		if !ok {
			continue
		}
		labeled = append(labeled, classifier.LabeledVector{
			EmailID:     ex.EmailID,
			Embedding:   v.Embedding,
			IsImportant: ex.IsImportant,
		})
	}
	report.EmailsFound = len(labeled)
	if len(labeled) == 0 {
		return nil, domain.ErrNoEmailData
	}
	if len(labeled) < classifier.MinTrainingExamples {
		return nil, domain.ErrInsufficientExamples
	}

	// Each example is scored against the other labeled embeddings, never
	// against itself.
	features := make([][]float64, len(labeled))
	labels := make([]bool, len(labeled))
	for i, lv := range labeled {
		others := make([]classifier.LabeledVector, 0, len(labeled)-1)
		for j, other := range labeled {
			if j != i {
				others = append(others, other)
			}
		}
		features[i] = classifier.ExtractFeatures(userID, byID[lv.EmailID], others)
		labels[i] = lv.IsImportant
	}

	model, err := classifier.Train(features, labels)
	if err != nil {
		return nil, fmt.Errorf("failed to train model: %w", err)
	}

	s.mu.Lock()
	st.Model = model
	st.ModelVersion = model.Version
	st.LastTrained = model.TrainedAt
	snapshot := *st
	s.mu.Unlock()

	if err := s.store.Save(&snapshot); err != nil {
		s.logger.Warn("failed to persist model", "user_id", userID, "error", err)
	}

	report.ModelVersion = model.Version
	report.Trained = true
	s.logger.Info("model trained", "user_id", userID,
		"version", model.Version, "examples", len(labeled))
	return report, nil
}

func (s *classifierService) Classify(ctx context.Context, userID string, emailIDs []string) ([]domain.ClassificationResult, string, error) {
	st, err := s.state(ctx, userID)
	if err != nil {
		return nil, "", err
	}

	s.mu.RLock()
	model := st.Model
	version := st.ModelVersion
	labeledExamples := append([]domain.LabeledExample{}, st.Examples...)
	s.mu.RUnlock()

	results := make([]domain.ClassificationResult, 0, len(emailIDs))
	if model == nil {
		for _, id := range emailIDs {
			results = append(results, domain.ClassificationResult{
				EmailID:   id,
				Reasoning: "no trained model for user",
			})
		}
		return results, "", nil
	}

	labeledIDs := make([]string, len(labeledExamples))
	for i, ex := range labeledExamples {
		labeledIDs[i] = ex.EmailID
	}
	labeled, err := s.labeledVectors(ctx, labeledExamples, labeledIDs)
	if err != nil {
		return nil, "", err
	}

	vectors, err := s.vectors.GetByIDs(ctx, emailIDs)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch embeddings: %w", err)
	}
	byID := make(map[string]*domain.EmailVector, len(vectors))
	for _, v := range vectors {
		byID[v.EmailID] = v
	}

	for _, id := range emailIDs {
		v, ok := byID[id]
		if !ok {
			results = append(results, domain.ClassificationResult{
				EmailID:   id,
				Reasoning: "no embedding found for email",
			})
			continue
		}
		features := classifier.ExtractFeatures(userID, v, labeled)
		important, confidence := model.Predict(features)
		results = append(results, domain.ClassificationResult{
			EmailID:     id,
			IsImportant: important,
			Confidence:  confidence,
			Reasoning:   classifier.Reasoning(userID, v, important, confidence),
		})
		s.recordImportance(ctx, userID, id, important, confidence, false)
	}
	return results, version, nil
}

func (s *classifierService) labeledVectors(ctx context.Context, examples []domain.LabeledExample, ids []string) ([]classifier.LabeledVector, error) {
	vectors, err := s.vectors.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch labeled embeddings: %w", err)
	}
	byID := make(map[string]*domain.EmailVector, len(vectors))
	for _, v := range vectors {
		byID[v.EmailID] = v
	}
	labeled := make([]classifier.LabeledVector, 0, len(examples))
	for _, ex := range examples {
		if v, ok := byID[ex.EmailID]; ok {
			labeled = append(labeled, classifier.LabeledVector{
				EmailID:     ex.EmailID,
				Embedding:   v.Embedding,
				IsImportant: ex.IsImportant,
			})
		}
	}
	return labeled, nil
}

func (s *classifierService) SubmitFeedback(ctx context.Context, userID string, fb domain.Feedback) error {
	st, err := s.state(ctx, userID)
	if err != nil {
		return err
	}

	s.recordImportance(ctx, userID, fb.EmailID, fb.ActualLabel, 1, true)

	if fb.ActualLabel == fb.PredictedLabel {
		return nil
	}

	// A correction becomes a new training example.
	example := domain.LabeledExample{
		EmailID:     fb.EmailID,
		IsImportant: fb.ActualLabel,
		Confidence:  1,
		CreatedAt:   time.Now(),
	}
	if err := s.exampleRepo.Save(ctx, userID, []domain.LabeledExample{example}); err != nil {
		return fmt.Errorf("failed to save feedback example: %w", err)
	}

	s.mu.Lock()
	mergeExamples(st, []domain.LabeledExample{example})
	total := len(st.Examples)
	s.mu.Unlock()

	if total >= retrainThreshold {
		if _, err := s.fit(ctx, userID, st); err != nil {
			s.logger.Warn("retrain after feedback failed", "user_id", userID, "error", err)
		}
	}
	return nil
}

func (s *classifierService) Label(ctx context.Context, userID string, examples []domain.LabeledExample) (*domain.TrainReport, error) {
	st, err := s.state(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	for i := range examples {
		if examples[i].Confidence == 0 {
			examples[i].Confidence = 1
		}
		if examples[i].CreatedAt.IsZero() {
			examples[i].CreatedAt = now
		}
	}
	if err := s.exampleRepo.Save(ctx, userID, examples); err != nil {
		return nil, fmt.Errorf("failed to save examples: %w", err)
	}
	for _, ex := range examples {
		s.recordImportance(ctx, userID, ex.EmailID, ex.IsImportant, ex.Confidence, true)
	}

	s.mu.Lock()
	added := mergeExamples(st, examples)
	total := len(st.Examples)
	snapshot := *st
	s.mu.Unlock()

	report := &domain.TrainReport{ExamplesAdded: added, TotalExamples: total}
	if total >= retrainThreshold {
		fitted, err := s.fit(ctx, userID, st)
		if err != nil {
			s.logger.Warn("retrain after labeling failed", "user_id", userID, "error", err)
			return report, nil
		}
		fitted.ExamplesAdded = added
		return fitted, nil
	}

	if err := s.store.Save(&snapshot); err != nil {
		s.logger.Warn("failed to persist examples", "user_id", userID, "error", err)
	}
	return report, nil
}

func (s *classifierService) BulkLabel(ctx context.Context, userID string, labels domain.BulkLabels) (*domain.TrainReport, error) {
	now := time.Now()
	examples := make([]domain.LabeledExample, 0, len(labels.ImportantEmailIDs)+len(labels.UnimportantEmailIDs))
	for _, id := range labels.ImportantEmailIDs {
		examples = append(examples, domain.LabeledExample{EmailID: id, IsImportant: true, Confidence: 1, CreatedAt: now})
	}
	for _, id := range labels.UnimportantEmailIDs {
		examples = append(examples, domain.LabeledExample{EmailID: id, IsImportant: false, Confidence: 1, CreatedAt: now})
	}
	return s.Label(ctx, userID, examples)
}

func (s *classifierService) Stats(ctx context.Context, userID string) (*domain.ModelStats, error) {
	st, err := s.state(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &domain.ModelStats{
		UserID:        userID,
		TotalExamples: len(st.Examples),
		LastTrained:   st.LastTrained,
		ModelVersion:  st.ModelVersion,
		Trained:       st.Trained(),
	}, nil
}

// defaultSimilarLimit is the result count for FindSimilar when none is given.
const defaultSimilarLimit = 10

func (s *classifierService) FindSimilar(ctx context.Context, userID, emailID string, limit int) ([]domain.SimilarEmail, error) {
	if limit <= 0 {
		limit = defaultSimilarLimit
	}
	vectors, err := s.vectors.GetByIDs(ctx, []string{emailID})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch embedding: %w", err)
	}
	if len(vectors) == 0 {
		return nil, domain.ErrNoEmailData
	}

	// One extra hit since the email itself is its own nearest neighbor.
	hits, err := s.vectors.SearchSimilar(ctx, vectors[0].Embedding, limit+1)
	if err != nil {
		return nil, fmt.Errorf("failed to search similar emails: %w", err)
	}

	ids := make([]string, 0, len(hits))
	scores := make(map[string]float64, len(hits))
	for _, hit := range hits {
		if hit.EmailID == emailID {
			continue
		}
		ids = append(ids, hit.EmailID)
		scores[hit.EmailID] = hit.Score
	}

	// GetByIDs is scoped to the user, so hits on other users' emails drop out.
	emails, err := s.emailRepo.GetByIDs(ctx, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load similar emails: %w", err)
	}
	byID := make(map[string]*domain.Email, len(emails))
	for _, e := range emails {
		byID[e.ID] = e
	}

	results := make([]domain.SimilarEmail, 0, limit)
	for _, id := range ids {
		e, ok := byID[id]
		if !ok {
			continue
		}
		results = append(results, domain.SimilarEmail{Email: e, Score: scores[id]})
		if len(results) == limit {
			break
		}
	}
	return results, nil
}

func (s *classifierService) Reset(ctx context.Context, userID string) error {
	if err := s.exampleRepo.DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete examples: %w", err)
	}
	if err := s.store.Delete(userID); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.states, userID)
	s.mu.Unlock()
	s.logger.Info("model reset", "user_id", userID)
	return nil
}

func (s *classifierService) PersistenceStatus(ctx context.Context) ([]domain.ModelSnapshot, error) {
	statuses, err := s.store.Status()
	if err != nil {
		return nil, err
	}
	snapshots := make([]domain.ModelSnapshot, len(statuses))
	for i, st := range statuses {
		snapshots[i] = domain.ModelSnapshot{
			UserID:          st.UserID,
			ExamplesCount:   st.ExamplesCount,
			ModelVersion:    st.ModelVersion,
			LastTrained:     st.LastTrained,
			HasTrainedModel: st.HasTrainedModel,
		}
	}
	return snapshots, nil
}

func (s *classifierService) SaveAll(ctx context.Context) (int, error) {
	s.mu.RLock()
	snapshots := make([]classifier.State, 0, len(s.states))
	for _, st := range s.states {
		snapshots = append(snapshots, *st)
	}
	s.mu.RUnlock()

	saved := 0
	for i := range snapshots {
		if err := s.store.Save(&snapshots[i]); err != nil {
			return saved, fmt.Errorf("failed to save model for user %s: %w", snapshots[i].UserID, err)
		}
		saved++
	}
	return saved, nil
}

// recordImportance updates the stored email's classification, tolerating
// emails that only exist in the vector store.
func (s *classifierService) recordImportance(ctx context.Context, userID, emailID string, important bool, confidence float64, userLabeled bool) {
	importance := domain.ImportanceNotImportant
	if important {
		importance = domain.ImportanceImportant
	}
	if err := s.emailRepo.SetImportance(ctx, userID, emailID, importance, confidence, userLabeled); err != nil {
		s.logger.Debug("importance not recorded", "user_id", userID, "email_id", emailID, "error", err)
	}
}

// mergeExamples upserts examples by email ID and returns how many were new.
func mergeExamples(st *classifier.State, examples []domain.LabeledExample) int {
	index := make(map[string]int, len(st.Examples))
	for i, ex := range st.Examples {
		index[ex.EmailID] = i
	}
	added := 0
	for _, ex := range examples {
		if i, ok := index[ex.EmailID]; ok {
			st.Examples[i] = ex
			continue
		}
		index[ex.EmailID] = len(st.Examples)
		st.Examples = append(st.Examples, ex)
		added++
	}
	return added
}
