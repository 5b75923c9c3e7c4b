package accounts

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartspend/internal/common"
	"smartspend/internal/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	created := time.Now()
	rows := sqlmock.NewRows([]string{"id", "created_at"}).AddRow("a-1", created)
	mock.ExpectQuery(`INSERT\s+INTO\s+accounts`).
		WithArgs("a@x.com", "hash", "Ada", "Lovelace", string(models.RoleUser), false).
		WillReturnRows(rows)

	acc := &models.Account{
		Email: "a@x.com", PasswordHash: "hash",
		FirstName: "Ada", LastName: "Lovelace", Role: models.RoleUser,
	}
	got, err := repo.Create(context.Background(), acc)
	require.NoError(t, err)
	assert.Equal(t, "a-1", got.ID)
	assert.Equal(t, created, got.CreatedAt)
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+accounts`).
		WillReturnError(&pgconn.PgError{Code: uniqueViolation})

	_, err := repo.Create(context.Background(), &models.Account{Email: "a@x.com", Role: models.RoleUser})
	assert.ErrorIs(t, err, common.ErrDuplicateEmail)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+accounts`).
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.Account{Email: "a@x.com", Role: models.RoleUser})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error")
}

func TestGetByEmail_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "first_name", "last_name", "role", "verified", "created_at"}).
		AddRow("a-1", "a@x.com", "hash", "Ada", "Lovelace", "USER", true, time.Now())
	mock.ExpectQuery(`SELECT\s+id,\s*email,.*FROM\s+accounts\s+WHERE\s+email`).
		WithArgs("a@x.com").
		WillReturnRows(rows)

	got, err := repo.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "a-1", got.ID)
	assert.True(t, got.Verified)
}

func TestGetByEmail_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+id,\s*email,.*FROM\s+accounts\s+WHERE\s+email`).
		WithArgs("ghost@x.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), "ghost@x.com")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSetVerified_NoRow(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE\s+accounts\s+SET\s+verified`).
		WithArgs("missing", true).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetVerified(context.Background(), "missing", true)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestList_OrdersByCreation(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "first_name", "last_name", "role", "verified", "created_at"}).
		AddRow("a-1", "a@x.com", "h", "A", "A", "USER", true, time.Now().Add(-time.Hour)).
		AddRow("a-2", "b@x.com", "h", "B", "B", "ADMIN", true, time.Now())
	mock.ExpectQuery(`SELECT\s+id,\s*email,.*FROM\s+accounts\s+ORDER\s+BY\s+created_at`).
		WillReturnRows(rows)

	got, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a-1", got[0].ID)
	assert.Equal(t, models.RoleAdmin, got[1].Role)
}
