package domain

import (
	"context"
	"time"
)

// Preferences are the per-user listing and classification settings.
// swagger:model Preferences
type Preferences struct {
	UserID       string    `json:"user_id"`
	ItemsPerPage int       `json:"items_per_page"`
	AutoClassify bool      `json:"auto_classify"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DefaultItemsPerPage applies when a user has no stored preference.
const DefaultItemsPerPage = 25

// DefaultPreferences returns the preferences a new user starts with.
func DefaultPreferences(userID string) *Preferences {
	return &Preferences{
		UserID:       userID,
		ItemsPerPage: DefaultItemsPerPage,
		AutoClassify: true,
	}
}

// PreferenceRepository stores per-user preferences. Get returns defaults when
// no row exists; Put upserts.
type PreferenceRepository interface {
	Get(ctx context.Context, userID string) (*Preferences, error)
	Put(ctx context.Context, prefs *Preferences) error
}

// PreferenceService defines the business logic for user preferences.
type PreferenceService interface {
	Get(ctx context.Context, userID string) (*Preferences, error)
	// Update validates and stores the given preferences for the user.
	Update(ctx context.Context, userID string, itemsPerPage int, autoClassify bool) (*Preferences, error)
}
