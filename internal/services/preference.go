package services

import (
	"context"
	"fmt"
	"time"

	"github.com/hardikSrivastav/imp-mail-sub002/internal/domain"
	"github.com/hardikSrivastav/imp-mail-sub002/pkg/pagination"
)

type preferenceService struct {
	prefRepo domain.PreferenceRepository
}

// NewPreferenceService creates a PreferenceService over the given repository.
func NewPreferenceService(prefRepo domain.PreferenceRepository) domain.PreferenceService {
	return &preferenceService{prefRepo: prefRepo}
}

func (s *preferenceService) Get(ctx context.Context, userID string) (*domain.Preferences, error) {
	prefs, err := s.prefRepo.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}
	return prefs, nil
}

func (s *preferenceService) Update(ctx context.Context, userID string, itemsPerPage int, autoClassify bool) (*domain.Preferences, error) {
	if !pagination.IsAllowedPageSize(itemsPerPage) {
		return nil, fmt.Errorf("items_per_page must be one of %v", pagination.AllowedPageSizes)
	}
	prefs := &domain.Preferences{
		UserID:       userID,
		ItemsPerPage: itemsPerPage,
		AutoClassify: autoClassify,
		UpdatedAt:    time.Now(),
	}
	if err := s.prefRepo.Put(ctx, prefs); err != nil {
		return nil, fmt.Errorf("failed to store preferences: %w", err)
	}
	return prefs, nil
}
