package repository_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sweetshop/sweetshop-client/internal/session/repository"
	"github.com/sweetshop/sweetshop-client/pkg/config"
	"github.com/sweetshop/sweetshop-client/pkg/database"
	apperrors "github.com/sweetshop/sweetshop-client/pkg/errors"
	"github.com/sweetshop/sweetshop-client/pkg/logger"
	"github.com/sweetshop/sweetshop-client/pkg/testutil"
)

func newMockRepo(t *testing.T, driver string) (*repository.TokenRepository, *testutil.MockDB) {
	t.Helper()
	mockDB := testutil.NewMockDB(t, driver)
	t.Cleanup(func() { mockDB.Close() })
	return repository.NewTokenRepository(database.Wrap(mockDB.DB, logger.Nop()), ""), mockDB
}

func TestLoad_Postgres(t *testing.T) {
	repo, mockDB := newMockRepo(t, "postgres")

	mockDB.Mock.ExpectQuery(`SELECT token\s+FROM session_tokens\s+WHERE session_key = \$1`).
		WithArgs(repository.DefaultKey).
		WillReturnRows(testutil.MockRows("token").AddRow("tok-1"))

	token, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)
	mockDB.ExpectationsWereMet(t)
}

func TestLoad_NothingStored(t *testing.T) {
	repo, mockDB := newMockRepo(t, "postgres")

	mockDB.Mock.ExpectQuery(`FROM session_tokens`).
		WillReturnRows(testutil.MockRows("token"))

	token, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, token)
	mockDB.ExpectationsWereMet(t)
}

func TestLoad_MissingTableIsMapped(t *testing.T) {
	repo, mockDB := newMockRepo(t, "postgres")

	mockDB.Mock.ExpectQuery(`FROM session_tokens`).
		WillReturnError(&pq.Error{Code: "42P01"})

	_, err := repo.Load(context.Background())
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "STORE_NOT_INITIALISED", appErr.Code)
}

func TestSave_Upserts(t *testing.T) {
	repo, mockDB := newMockRepo(t, "postgres")

	mockDB.Mock.ExpectExec(`INSERT INTO session_tokens \(session_key, token, updated_at\)\s+VALUES \(\$1, \$2, \$3\)\s+ON CONFLICT`).
		WithArgs(repository.DefaultKey, "tok-2", testutil.AnyTime{}).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Save(context.Background(), "tok-2"))
	mockDB.ExpectationsWereMet(t)
}

func TestClear(t *testing.T) {
	repo, mockDB := newMockRepo(t, "postgres")

	mockDB.ExpectExec(`DELETE FROM session_tokens WHERE session_key = $1`).
		WithArgs(repository.DefaultKey).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Clear(context.Background()))
	mockDB.ExpectationsWereMet(t)
}

func TestSQLiteRoundTrip(t *testing.T) {
	db, err := database.New(&config.SessionConfig{
		Driver: config.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "session.sqlite3"),
	}, logger.Nop())
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	repo := repository.NewTokenRepository(db, "")
	require.NoError(t, repo.EnsureSchema(ctx))
	require.NoError(t, repo.EnsureSchema(ctx))

	token, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, repo.Save(ctx, "first"))
	require.NoError(t, repo.Save(ctx, "second"))
	token, err = repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", token)

	other := repository.NewTokenRepository(db, "other")
	token, err = other.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, repo.Clear(ctx))
	token, err = repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestMemoryTokenRepository(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryTokenRepository()

	require.NoError(t, repo.Save(ctx, "tok"))
	token, _ := repo.Load(ctx)
	assert.Equal(t, "tok", token)

	require.NoError(t, repo.Clear(ctx))
	token, _ = repo.Load(ctx)
	assert.Empty(t, token)
}
