package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/hardikSrivastav/imp-mail-sub002/internal/domain"
)

func TestExampleRepository_Save(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	t.Run("upserts each example", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`INSERT INTO labeled_examples`).
			WithArgs("u1", "e1", true, 1.0, now).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO labeled_examples`).
			WithArgs("u1", "e2", false, 1.0, now).
			WillReturnResult(sqlmock.NewResult(0, 1))

		repo := NewExampleRepository(db)
		err = repo.Save(ctx, "u1", []domain.LabeledExample{
			{EmailID: "e1", IsImportant: true, Confidence: 1, CreatedAt: now},
			{EmailID: "e2", IsImportant: false, Confidence: 1, CreatedAt: now},
		})
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stops on first error", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`INSERT INTO labeled_examples`).
			WillReturnError(sql.ErrConnDone)

		repo := NewExampleRepository(db)
		err = repo.Save(ctx, "u1", []domain.LabeledExample{
			{EmailID: "e1", IsImportant: true, Confidence: 1, CreatedAt: now},
			{EmailID: "e2", IsImportant: false, Confidence: 1, CreatedAt: now},
		})
		require.Error(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestExampleRepository_ListByUser(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT email_id, is_important, confidence, created_at`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"email_id", "is_important", "confidence", "created_at"}).
			AddRow("e1", true, 1.0, now).
			AddRow("e2", false, 0.8, now.Add(time.Minute)))

	repo := NewExampleRepository(db)
	examples, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, examples, 2)
	require.Equal(t, "e1", examples[0].EmailID)
	require.True(t, examples[0].IsImportant)
	require.Equal(t, 0.8, examples[1].Confidence)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExampleRepository_DeleteByUser(t *testing.T) {
	ctx := context.Background()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM labeled_examples`).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	repo := NewExampleRepository(db)
	require.NoError(t, repo.DeleteByUser(ctx, "u1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
