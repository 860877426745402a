package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/hardikSrivastav/imp-mail-sub002/internal/domain"
)

func TestUserRepository_Create(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		user    *domain.User
		mock    func(mock sqlmock.Sqlmock)
		wantErr bool
		errIs   error
	}{
		{
			name: "success",
			user: &domain.User{Email: "alice@example.com", Name: "Alice", Provider: "password", PasswordHash: "h", Salt: "s", CreatedAt: now, UpdatedAt: now},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO users`).
					WithArgs("alice@example.com", "Alice", "password", "h", "s", now, now).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("user-uuid-1"))
			},
		},
		{
			name: "duplicate email",
			user: &domain.User{Email: "taken@example.com", Provider: "password", CreatedAt: now, UpdatedAt: now},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO users`).
					WillReturnError(&pq.Error{Code: "23505"})
			},
			wantErr: true,
			errIs:   domain.ErrDuplicateEmail,
		},
		{
			name: "db error",
			user: &domain.User{Email: "a@b.com", Provider: "password", CreatedAt: now, UpdatedAt: now},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO users`).
					WillReturnError(sql.ErrConnDone)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewUserRepository(db)
			err = repo.Create(ctx, tt.user)
			if tt.wantErr {
				require.Error(t, err)
				if tt.errIs != nil {
					require.ErrorIs(t, err, tt.errIs)
				}
			} else {
				require.NoError(t, err)
				require.Equal(t, "user-uuid-1", tt.user.ID)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_GetByEmail(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	cols := []string{"id", "email", "name", "provider", "password_hash", "salt", "created_at", "updated_at"}

	t.Run("found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT id, email, name, provider, password_hash, salt, created_at, updated_at`).
			WithArgs("alice@example.com").
			WillReturnRows(sqlmock.NewRows(cols).
				AddRow("u1", "alice@example.com", "Alice", "password", "h", "s", now, now))

		repo := NewUserRepository(db)
		u, err := repo.GetByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		require.Equal(t, "u1", u.ID)
		require.Equal(t, "h", u.PasswordHash)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT id, email, name, provider, password_hash, salt, created_at, updated_at`).
			WithArgs("missing@example.com").
			WillReturnError(sql.ErrNoRows)

		repo := NewUserRepository(db)
		_, err = repo.GetByEmail(ctx, "missing@example.com")
		require.ErrorIs(t, err, domain.ErrUserNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_Update(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		user    *domain.User
		mock    func(mock sqlmock.Sqlmock)
		wantErr bool
		errIs   error
	}{
		{
			name: "success",
			user: &domain.User{ID: "u1", Email: "alice@example.com", Name: "Alice", UpdatedAt: time.Now()},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE users`).
					WithArgs("Alice", "alice@example.com", sqlmock.AnyArg(), "u1").
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "not found zero rows affected",
			user: &domain.User{ID: "nonexistent", Email: "a@b.com", Name: "A", UpdatedAt: time.Now()},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE users`).
					WithArgs("A", "a@b.com", sqlmock.AnyArg(), "nonexistent").
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantErr: true,
			errIs:   domain.ErrUserNotFound,
		},
		{
			name: "unique violation returns ErrDuplicateEmail",
			user: &domain.User{ID: "u1", Email: "taken@example.com", UpdatedAt: time.Now()},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE users`).
					WillReturnError(&pq.Error{Code: "23505"})
			},
			wantErr: true,
			errIs:   domain.ErrDuplicateEmail,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewUserRepository(db)
			err = repo.Update(ctx, tt.user)
			if tt.wantErr {
				require.Error(t, err)
				if tt.errIs != nil {
					require.ErrorIs(t, err, tt.errIs)
				}
			} else {
				require.NoError(t, err)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
