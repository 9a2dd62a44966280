package datastore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/absmartly/domeditor/internal/common"
	"github.com/absmartly/domeditor/internal/config"
	"github.com/absmartly/domeditor/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *ChangesetStore {
	t.Helper()
	cfg := config.StorageConfig{
		DatabasePath: filepath.Join(t.TempDir(), "changesets.db"),
	}
	store, err := NewChangesetStore(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleChanges() []models.Change {
	return []models.Change{
		{Selector: ".title", Type: models.ChangeTypeText, Enabled: true, Value: "Buy now"},
		{Selector: "#hero", Type: models.ChangeTypeStyle, Enabled: true, ValueMap: map[string]string{"color": "red"}},
	}
}

func TestNewChangesetStoreRequiresPath(t *testing.T) {
	_, err := NewChangesetStore(config.StorageConfig{}, zerolog.Nop())
	assert.Error(t, err)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "exp_homepage", sampleChanges()))

	loaded, err := store.Load(ctx, "exp_homepage")
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, ".title", loaded[0].Selector)
	assert.Equal(t, "Buy now", loaded[0].Value)
	assert.Equal(t, map[string]string{"color": "red"}, loaded[1].ValueMap)
}

func TestSaveUpsertsExistingExperiment(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "exp_a", sampleChanges()))
	require.NoError(t, store.Save(ctx, "exp_a", sampleChanges()[:1]))

	loaded, err := store.Load(ctx, "exp_a")
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
}

func TestSaveRejectsEmptyExperimentID(t *testing.T) {
	store := newTestStore(t)
	assert.Error(t, store.Save(context.Background(), "", sampleChanges()))
}

func TestLoadMissingExperimentReturnsNotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Load(context.Background(), "never_saved")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestListExperimentsOrdersByRecency(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "exp_old", sampleChanges()))
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, store.Save(ctx, "exp_new", sampleChanges()))

	ids, err := store.ListExperiments(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"exp_new", "exp_old"}, ids)
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "exp_gone", sampleChanges()))
	require.NoError(t, store.Delete(ctx, "exp_gone"))

	_, err := store.Load(ctx, "exp_gone")
	assert.ErrorIs(t, err, common.ErrNotFound)

	// Deleting an absent experiment is a no-op.
	assert.NoError(t, store.Delete(ctx, "exp_gone"))
}
