package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/hardikSrivastav/imp-mail-sub002/internal/domain"
)

// State is the persisted classifier state for one user.
type State struct {
	UserID       string
	Examples     []domain.LabeledExample
	Model        *Model // nil until trained
	ModelVersion string
	LastTrained  time.Time
}

// Trained reports whether a fitted model exists.
func (s *State) Trained() bool {
	return s.Model != nil
}

// Store persists classifier state under dataDir/models/<userID>/ as
// examples.json, model.json, and metadata.json. Writes are atomic
// (temp file + rename) so a crash never leaves a torn snapshot.
type Store struct {
	dataDir string
}

// NewStore creates the data directory if needed and returns the store.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(dataDir, "models"), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &Store{dataDir: dataDir}, nil
}

type examplesFile struct {
	Examples    []domain.LabeledExample `json:"examples"`
	Count       int                     `json:"count"`
	LastUpdated time.Time               `json:"last_updated"`
}

type metadataFile struct {
	UserID        string    `json:"user_id"`
	ModelVersion  string    `json:"model_version"`
	LastTrained   time.Time `json:"last_trained"`
	ExamplesCount int       `json:"examples_count"`
}

func (s *Store) userDir(userID string) string {
	return filepath.Join(s.dataDir, "models", userID)
}

// Save writes the user's full state to disk.
func (s *Store) Save(state *State) error {
	dir := s.userDir(state.UserID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}

	ex := examplesFile{
		Examples:    state.Examples,
		Count:       len(state.Examples),
		LastUpdated: time.Now().UTC(),
	}
	if err := writeJSONAtomic(filepath.Join(dir, "examples.json"), ex); err != nil {
		return fmt.Errorf("failed to save examples: %w", err)
	}

	meta := metadataFile{
		UserID:        state.UserID,
		ModelVersion:  state.ModelVersion,
		LastTrained:   state.LastTrained,
		ExamplesCount: len(state.Examples),
	}
	if err := writeJSONAtomic(filepath.Join(dir, "metadata.json"), meta); err != nil {
		return fmt.Errorf("failed to save metadata: %w", err)
	}

	if state.Model != nil {
		if err := writeJSONAtomic(filepath.Join(dir, "model.json"), state.Model); err != nil {
			return fmt.Errorf("failed to save model: %w", err)
		}
	}
	return nil
}

// Load reads one user's state. A missing directory yields a fresh empty state.
func (s *Store) Load(userID string) (*State, error) {
	dir := s.userDir(userID)
	state := &State{UserID: userID}

	var meta metadataFile
	if err := readJSON(filepath.Join(dir, "metadata.json"), &meta); err == nil {
		state.ModelVersion = meta.ModelVersion
		state.LastTrained = meta.LastTrained
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load metadata for user %s: %w", userID, err)
	}

	var ex examplesFile
	if err := readJSON(filepath.Join(dir, "examples.json"), &ex); err == nil {
		state.Examples = ex.Examples
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load examples for user %s: %w", userID, err)
	}

	var model Model
	if err := readJSON(filepath.Join(dir, "model.json"), &model); err == nil {
		state.Model = &model
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load model for user %s: %w", userID, err)
	}

	return state, nil
}

// LoadAll reads every saved user state, skipping unreadable entries.
func (s *Store) LoadAll() ([]*State, error) {
	entries, err := os.ReadDir(filepath.Join(s.dataDir, "models"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read models directory: %w", err)
	}
	var states []*State
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		state, err := s.Load(e.Name())
		if err != nil {
			continue
		}
		states = append(states, state)
	}
	return states, nil
}

// Delete removes a user's saved state entirely.
func (s *Store) Delete(userID string) error {
	if err := os.RemoveAll(s.userDir(userID)); err != nil {
		return fmt.Errorf("failed to remove saved model for user %s: %w", userID, err)
	}
	return nil
}

// UserModelStatus describes one persisted user model for the status endpoint.
type UserModelStatus struct {
	UserID          string    `json:"user_id"`
	ExamplesCount   int       `json:"examples_count"`
	ModelVersion    string    `json:"model_version"`
	LastTrained     time.Time `json:"last_trained"`
	HasTrainedModel bool      `json:"has_trained_model"`
}

// Status lists the persisted state of every user with a saved model directory.
func (s *Store) Status() ([]UserModelStatus, error) {
	entries, err := os.ReadDir(filepath.Join(s.dataDir, "models"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read models directory: %w", err)
	}
	var statuses []UserModelStatus
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := s.userDir(e.Name())
		var meta metadataFile
		if err := readJSON(filepath.Join(dir, "metadata.json"), &meta); err != nil {
			continue
		}
		_, modelErr := os.Stat(filepath.Join(dir, "model.json"))
		statuses = append(statuses, UserModelStatus{
			UserID:          e.Name(),
			ExamplesCount:   meta.ExamplesCount,
			ModelVersion:    meta.ModelVersion,
			LastTrained:     meta.LastTrained,
			HasTrainedModel: modelErr == nil,
		})
	}
	return statuses, nil
}

func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
