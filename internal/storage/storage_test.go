package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repolens/repolens/internal/health"
	"github.com/repolens/repolens/internal/project"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveAndGet(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	rec := &Record{
		ID:          "a1",
		RepoURL:     "https://example.com/org/repo",
		ProjectType: project.TypeNodeJS,
		Health: health.Report{
			ReadmeIsPresent:     true,
			BuildSuccessful:     true,
			TestsFoundAndPassed: false,
		},
		SummaryJSON: `{"health_report":{}}`,
	}
	require.NoError(t, store.Save(ctx, rec))
	assert.False(t, rec.CreatedAt.IsZero())

	got, err := store.Get(ctx, "a1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec.RepoURL, got.RepoURL)
	assert.Equal(t, project.TypeNodeJS, got.ProjectType)
	assert.True(t, got.Health.ReadmeIsPresent)
	assert.True(t, got.Health.BuildSuccessful)
	assert.False(t, got.Health.TestsFoundAndPassed)
	assert.Equal(t, rec.SummaryJSON, got.SummaryJSON)
}

func TestGetMissing(t *testing.T) {
	store := openTestStore(t)

	got, err := store.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSaveRequiresID(t *testing.T) {
	store := openTestStore(t)
	err := store.Save(context.Background(), &Record{RepoURL: "x"})
	assert.Error(t, err)
}

func TestListNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"old", "mid", "new"} {
		require.NoError(t, store.Save(ctx, &Record{
			ID:        id,
			RepoURL:   "https://example.com/" + id,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	records, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "new", records[0].ID)
	assert.Equal(t, "old", records[2].ID)

	limited, err := store.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "new", limited[0].ID)
}

func TestDuplicateIDRejected(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	require.NoError(t, store.Save(ctx, &Record{ID: "dup", RepoURL: "a"}))
	assert.Error(t, store.Save(ctx, &Record{ID: "dup", RepoURL: "b"}))
}
