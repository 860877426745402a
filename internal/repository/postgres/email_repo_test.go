package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/hardikSrivastav/imp-mail-sub002/internal/domain"
)

var emailCols = []string{
	"id", "user_id", "message_id", "subject", "sender", "recipients", "content",
	"html_content", "received_at", "indexed_at", "importance",
	"importance_confidence", "user_labeled", "vector_id", "has_attachments",
	"thread_id", "labels",
}

func emailRow(id, userID, importance string, received time.Time) []driver.Value {
	return []driver.Value{
		id, userID, "msg-" + id, "Subject", "sender@example.com",
		pq.StringArray{"me@example.com"}, "body", "<p>body</p>",
		received, received, importance, 0.0, false, "", false, "", pq.StringArray{},
	}
}

func TestEmailRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	t.Run("found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT (.+) FROM emails WHERE user_id = \$1 AND id = \$2`).
			WithArgs("u1", "e1").
			WillReturnRows(sqlmock.NewRows(emailCols).AddRow(emailRow("e1", "u1", domain.ImportanceUnclassified, now)...))

		repo := NewEmailRepository(db)
		e, err := repo.GetByID(ctx, "u1", "e1")
		require.NoError(t, err)
		require.Equal(t, "e1", e.ID)
		require.Equal(t, []string{"me@example.com"}, e.Recipients)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT (.+) FROM emails WHERE user_id = \$1 AND id = \$2`).
			WithArgs("u1", "missing").
			WillReturnError(sql.ErrNoRows)

		repo := NewEmailRepository(db)
		_, err = repo.GetByID(ctx, "u1", "missing")
		require.ErrorIs(t, err, domain.ErrEmailNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestEmailRepository_List(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	t.Run("returns page and total", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM emails`).
			WithArgs("u1", "").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))
		mock.ExpectQuery(`SELECT (.+) FROM emails`).
			WithArgs("u1", "", 25, 25).
			WillReturnRows(sqlmock.NewRows(emailCols).
				AddRow(emailRow("e1", "u1", domain.ImportanceImportant, now)...).
				AddRow(emailRow("e2", "u1", domain.ImportanceUnclassified, now.Add(-time.Hour))...))

		repo := NewEmailRepository(db)
		emails, total, err := repo.List(ctx, "u1", domain.EmailFilter{}, domain.PaginationParams{Page: 2, PageSize: 25})
		require.NoError(t, err)
		require.Equal(t, 42, total)
		require.Len(t, emails, 2)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("importance filter is passed through", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM emails`).
			WithArgs("u1", domain.ImportanceImportant).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectQuery(`SELECT (.+) FROM emails`).
			WithArgs("u1", domain.ImportanceImportant, 10, 0).
			WillReturnRows(sqlmock.NewRows(emailCols).
				AddRow(emailRow("e1", "u1", domain.ImportanceImportant, now)...))

		repo := NewEmailRepository(db)
		emails, total, err := repo.List(ctx, "u1", domain.EmailFilter{Importance: domain.ImportanceImportant}, domain.PaginationParams{Page: 1, PageSize: 10})
		require.NoError(t, err)
		require.Equal(t, 1, total)
		require.Len(t, emails, 1)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestEmailRepository_ExistingMessageIDs(t *testing.T) {
	ctx := context.Background()

	t.Run("empty input short-circuits", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := NewEmailRepository(db)
		existing, err := repo.ExistingMessageIDs(ctx, "u1", nil)
		require.NoError(t, err)
		require.Empty(t, existing)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns stored ids", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT message_id FROM emails`).
			WithArgs("u1", sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"message_id"}).AddRow("m1").AddRow("m3"))

		repo := NewEmailRepository(db)
		existing, err := repo.ExistingMessageIDs(ctx, "u1", []string{"m1", "m2", "m3"})
		require.NoError(t, err)
		require.True(t, existing["m1"])
		require.False(t, existing["m2"])
		require.True(t, existing["m3"])
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestEmailRepository_SetImportance(t *testing.T) {
	ctx := context.Background()

	t.Run("user label updates", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`UPDATE emails SET (.+) user_labeled = TRUE`).
			WithArgs("u1", "e1", domain.ImportanceImportant, 0.9).
			WillReturnResult(sqlmock.NewResult(0, 1))

		repo := NewEmailRepository(db)
		err = repo.SetImportance(ctx, "u1", "e1", domain.ImportanceImportant, 0.9, true)
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("user label on missing email fails", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`UPDATE emails`).
			WithArgs("u1", "missing", domain.ImportanceImportant, 0.9).
			WillReturnResult(sqlmock.NewResult(0, 0))

		repo := NewEmailRepository(db)
		err = repo.SetImportance(ctx, "u1", "missing", domain.ImportanceImportant, 0.9, true)
		require.ErrorIs(t, err, domain.ErrEmailNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("prediction only touches unlabeled rows", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`UPDATE emails SET (.+) WHERE user_id = \$1 AND id = \$2 AND user_labeled = FALSE`).
			WithArgs("u1", "e1", domain.ImportanceNotImportant, 0.8).
			WillReturnResult(sqlmock.NewResult(0, 0))

		repo := NewEmailRepository(db)
		// Zero affected rows means the email carries a user label; the
		// prediction is dropped without error.
		err = repo.SetImportance(ctx, "u1", "e1", domain.ImportanceNotImportant, 0.8, false)
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
