package postgres

import (
	"context"
	"database/sql"

	"github.com/hardikSrivastav/imp-mail-sub002/internal/domain"
)

type preferenceRepository struct {
	DB *sql.DB
}

// NewPreferenceRepository returns a domain.PreferenceRepository implemented with Postgres.
func NewPreferenceRepository(db *sql.DB) domain.PreferenceRepository {
	return &preferenceRepository{DB: db}
}

func (r *preferenceRepository) Get(ctx context.Context, userID string) (*domain.Preferences, error) {
	query := `
		SELECT user_id, items_per_page, auto_classify, updated_at
		FROM user_preferences
		WHERE user_id = $1
	`
	p := &domain.Preferences{}
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(&p.UserID, &p.ItemsPerPage, &p.AutoClassify, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.DefaultPreferences(userID), nil
		}
		return nil, err
	}
	return p, nil
}

func (r *preferenceRepository) Put(ctx context.Context, prefs *domain.Preferences) error {
	query := `
		INSERT INTO user_preferences (user_id, items_per_page, auto_classify, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET items_per_page = EXCLUDED.items_per_page,
		    auto_classify = EXCLUDED.auto_classify,
		    updated_at = EXCLUDED.updated_at
	`
	_, err := r.DB.ExecContext(ctx, query, prefs.UserID, prefs.ItemsPerPage, prefs.AutoClassify, prefs.UpdatedAt)
	return err
}
