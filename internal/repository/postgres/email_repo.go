package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/hardikSrivastav/imp-mail-sub002/internal/domain"
)

type emailRepository struct {
	DB *sql.DB
}

// NewEmailRepository returns a domain.EmailRepository implemented with Postgres.
func NewEmailRepository(db *sql.DB) domain.EmailRepository {
	return &emailRepository{DB: db}
}

const emailColumns = `
	id, user_id, message_id, subject, sender, recipients, content, html_content,
	received_at, indexed_at, importance, importance_confidence, user_labeled,
	vector_id, has_attachments, thread_id, labels
`

func scanEmail(row interface{ Scan(...any) error }) (*domain.Email, error) {
	e := &domain.Email{}
	err := row.Scan(
		&e.ID, &e.UserID, &e.MessageID, &e.Subject, &e.Sender,
		pq.Array(&e.Recipients), &e.Content, &e.HTMLContent,
		&e.ReceivedAt, &e.IndexedAt, &e.Importance, &e.ImportanceConfidence,
		&e.UserLabeled, &e.VectorID, &e.HasAttachments, &e.ThreadID,
		pq.Array(&e.Labels),
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *emailRepository) Create(ctx context.Context, e *domain.Email) error {
	query := `
		INSERT INTO emails (
			user_id, message_id, subject, sender, recipients, content, html_content,
			received_at, indexed_at, importance, importance_confidence, user_labeled,
			vector_id, has_attachments, thread_id, labels
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		e.UserID, e.MessageID, e.Subject, e.Sender, pq.Array(e.Recipients),
		e.Content, e.HTMLContent, e.ReceivedAt, e.IndexedAt, e.Importance,
		e.ImportanceConfidence, e.UserLabeled, e.VectorID, e.HasAttachments,
		e.ThreadID, pq.Array(e.Labels),
	).Scan(&e.ID)
}

func (r *emailRepository) GetByID(ctx context.Context, userID, id string) (*domain.Email, error) {
	query := `SELECT ` + emailColumns + ` FROM emails WHERE user_id = $1 AND id = $2`
	e, err := scanEmail(r.DB.QueryRowContext(ctx, query, userID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrEmailNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *emailRepository) GetByIDs(ctx context.Context, userID string, ids []string) ([]*domain.Email, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + emailColumns + ` FROM emails WHERE user_id = $1 AND id = ANY($2)`
	rows, err := r.DB.QueryContext(ctx, query, userID, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var emails []*domain.Email
	for rows.Next() {
		e, err := scanEmail(rows)
		if err != nil {
			return nil, err
		}
		emails = append(emails, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return emails, nil
}

func (r *emailRepository) List(ctx context.Context, userID string, filter domain.EmailFilter, p domain.PaginationParams) ([]*domain.Email, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM emails WHERE user_id = $1 AND ($2 = '' OR importance = $2)`
	if err := r.DB.QueryRowContext(ctx, countQuery, userID, filter.Importance).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + emailColumns + `
		FROM emails
		WHERE user_id = $1 AND ($2 = '' OR importance = $2)
		ORDER BY received_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.DB.QueryContext(ctx, query, userID, filter.Importance, p.Limit(), p.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var emails []*domain.Email
	for rows.Next() {
		e, err := scanEmail(rows)
		if err != nil {
			return nil, 0, err
		}
		emails = append(emails, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return emails, total, nil
}

func (r *emailRepository) ExistingMessageIDs(ctx context.Context, userID string, messageIDs []string) (map[string]bool, error) {
	existing := make(map[string]bool, len(messageIDs))
	if len(messageIDs) == 0 {
		return existing, nil
	}
	query := `SELECT message_id FROM emails WHERE user_id = $1 AND message_id = ANY($2)`
	rows, err := r.DB.QueryContext(ctx, query, userID, pq.Array(messageIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		existing[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return existing, nil
}

func (r *emailRepository) SetImportance(ctx context.Context, userID, id, importance string, confidence float64, userLabeled bool) error {
	if userLabeled {
		query := `
			UPDATE emails
			SET importance = $3, importance_confidence = $4, user_labeled = TRUE
			WHERE user_id = $1 AND id = $2
		`
		result, err := r.DB.ExecContext(ctx, query, userID, id, importance, confidence)
		if err != nil {
			return err
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return domain.ErrEmailNotFound
		}
		return nil
	}

	// Model predictions must not overwrite a label the user set; zero rows
	// here means the email is user-labeled or absent, and both are fine.
	query := `
		UPDATE emails
		SET importance = $3, importance_confidence = $4, user_labeled = FALSE
		WHERE user_id = $1 AND id = $2 AND user_labeled = FALSE
	`
	_, err := r.DB.ExecContext(ctx, query, userID, id, importance, confidence)
	return err
}
