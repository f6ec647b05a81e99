//go:build integration

package database

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/heritago/backend/internal/config"
	"github.com/heritago/backend/internal/models"
)

// setupPostgresRepository starts a PostgreSQL container and connects a migrated repository to it.
func setupPostgresRepository(t *testing.T) *PostgresRepository {
	t.Helper()

	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("heritago_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "failed to start PostgreSQL container")

	t.Cleanup(func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := container.Terminate(cleanupCtx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	repo, err := NewPostgresRepository(&config.Config{DatabaseURL: dsn}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(repo.Close)

	return repo
}

func TestPostgres_MultimediaLifecycle(t *testing.T) {
	repo := setupPostgresRepository(t)
	ctx := context.Background()

	sophia, err := repo.CreateHeritage(ctx, &models.CreateHeritageRequest{Title: "Hagia Sophia"})
	require.NoError(t, err)
	ephesus, err := repo.CreateHeritage(ctx, &models.CreateHeritageRequest{Title: "Ephesus"})
	require.NoError(t, err)

	attach := func(heritageID string) *models.Multimedia {
		id := uuid.New().String()
		m, err := repo.CreateMultimedia(ctx, &models.Multimedia{
			ID:         id,
			HeritageID: heritageID,
			Type:       "image",
			URL:        "https://example.org/" + id + ".png",
		})
		require.NoError(t, err)
		return m
	}

	first := attach(sophia.ID)
	second := attach(sophia.ID)
	other := attach(ephesus.ID)

	items, err := repo.ListMultimedia(ctx, sophia.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.ElementsMatch(t, []string{first.ID, second.ID}, []string{items[0].ID, items[1].ID})

	require.NoError(t, repo.DeleteHeritage(ctx, sophia.ID))

	_, err = repo.GetMultimedia(ctx, first.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	items, err = repo.ListMultimedia(ctx, sophia.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	kept, err := repo.GetMultimedia(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, ephesus.ID, kept.HeritageID)

	assert.ErrorIs(t, repo.DeleteHeritage(ctx, sophia.ID), ErrNotFound)
}

func TestPostgres_MalformedIDsAreNotFound(t *testing.T) {
	repo := setupPostgresRepository(t)
	ctx := context.Background()

	_, err := repo.GetHeritage(ctx, "42")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.DeleteHeritage(ctx, "42"), ErrNotFound)
	assert.ErrorIs(t, repo.DeleteMultimedia(ctx, "42"), ErrNotFound)

	items, err := repo.ListMultimedia(ctx, "42")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestPostgres_LongAnnotationHeritageID(t *testing.T) {
	repo := setupPostgresRepository(t)
	ctx := context.Background()

	heritageID := strings.Repeat("9", 300)
	created, err := repo.CreateAnnotation(ctx, &models.Annotation{
		BodyValue:  "note",
		TargetID:   "http://example.com/api/v1/heritages/" + heritageID + "/annotations",
		HeritageID: heritageID,
	})
	require.NoError(t, err)

	got, err := repo.GetAnnotation(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, heritageID, got.HeritageID)
}
