package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sweetshop/sweetshop-client/internal/session/repository"
	"github.com/sweetshop/sweetshop-client/pkg/database"
	"github.com/sweetshop/sweetshop-client/pkg/logger"
	"github.com/sweetshop/sweetshop-client/pkg/testutil"
)

func TestPostgresRoundTrip(t *testing.T) {
	testutil.SkipIfShort(t)
	ctx := testutil.DefaultTestContext(t)

	container, err := testutil.NewPostgresContainer(ctx, testutil.DefaultPostgresConfig())
	require.NoError(t, err)
	t.Cleanup(func() { container.Terminate(context.Background()) })

	raw, err := container.Connect(ctx)
	require.NoError(t, err)
	db := database.Wrap(raw, logger.Nop())
	defer db.Close()

	repo := repository.NewTokenRepository(db, "integration")
	require.NoError(t, repo.EnsureSchema(ctx))

	require.NoError(t, repo.Save(ctx, "pg-token"))
	require.NoError(t, repo.Save(ctx, "pg-token-2"))

	token, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "pg-token-2", token)

	require.NoError(t, repo.Clear(ctx))
	token, err = repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
}
