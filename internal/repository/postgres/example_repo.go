package postgres

import (
	"context"
	"database/sql"

	"github.com/hardikSrivastav/imp-mail-sub002/internal/domain"
)

type exampleRepository struct {
	DB *sql.DB
}

// NewExampleRepository returns a domain.ExampleRepository implemented with Postgres.
func NewExampleRepository(db *sql.DB) domain.ExampleRepository {
	return &exampleRepository{DB: db}
}

func (r *exampleRepository) Save(ctx context.Context, userID string, examples []domain.LabeledExample) error {
	query := `
		INSERT INTO labeled_examples (user_id, email_id, is_important, confidence, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, email_id) DO UPDATE
		SET is_important = EXCLUDED.is_important,
		    confidence = EXCLUDED.confidence,
		    created_at = EXCLUDED.created_at
	`
	for _, ex := range examples {
		if _, err := r.DB.ExecContext(ctx, query, userID, ex.EmailID, ex.IsImportant, ex.Confidence, ex.CreatedAt); err != nil {
			return err
		}
	}
	return nil
}

func (r *exampleRepository) ListByUser(ctx context.Context, userID string) ([]domain.LabeledExample, error) {
	query := `
		SELECT email_id, is_important, confidence, created_at
		FROM labeled_examples
		WHERE user_id = $1
		ORDER BY created_at
	`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var examples []domain.LabeledExample
	for rows.Next() {
		var ex domain.LabeledExample
		if err := rows.Scan(&ex.EmailID, &ex.IsImportant, &ex.Confidence, &ex.CreatedAt); err != nil {
			return nil, err
		}
		examples = append(examples, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return examples, nil
}

func (r *exampleRepository) DeleteByUser(ctx context.Context, userID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM labeled_examples WHERE user_id = $1`, userID)
	return err
}
