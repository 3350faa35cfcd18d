package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmunix/mediacat/internal/migrations"
)

func TestStore_AddMedia(t *testing.T) {
	store := NewStore(setupTestDB(t))

	m := &Media{Title: "My Great Movie", FilePath: "my_great_movie.mp4"}
	require.NoError(t, store.AddMedia(context.Background(), m))
	assert.NotZero(t, m.ID, "ID should be set after AddMedia")

	got, err := store.GetMedia(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, "My Great Movie", got.Title)
	assert.Equal(t, "my_great_movie.mp4", got.FilePath)
	assert.Nil(t, got.Category)
	assert.Nil(t, got.ParentID)
	assert.Nil(t, got.EpisodeNumber)
}

func TestStore_AddMedia_DuplicatePath(t *testing.T) {
	store := NewStore(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, store.AddMedia(ctx, &Media{Title: "A", FilePath: "a.mp4"}))
	err := store.AddMedia(ctx, &Media{Title: "A again", FilePath: "a.mp4"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestStore_GetMedia_NotFound(t *testing.T) {
	store := NewStore(setupTestDB(t))

	_, err := store.GetMedia(context.Background(), 9999)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetMedia(9999) error = %v, want ErrNotFound", err)
	}
}

func TestStore_UpdateMedia(t *testing.T) {
	store := NewStore(setupTestDB(t))
	ctx := context.Background()

	series := addMediaT(t, store, "Show", "show/trailer.mp4", nil)
	ep := addMediaT(t, store, "Pilot", "show/pilot.mp4", nil)

	ep.Category = ptr("drama")
	ep.ParentID = ptr(series.ID)
	ep.EpisodeNumber = ptr(1)
	require.NoError(t, store.UpdateMedia(ctx, ep))

	got, err := store.GetMedia(ctx, ep.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ParentID)
	assert.Equal(t, series.ID, *got.ParentID)
	require.NotNil(t, got.EpisodeNumber)
	assert.Equal(t, 1, *got.EpisodeNumber)
	assert.Equal(t, "drama", *got.Category)
}

func TestStore_UpdateMedia_InvalidParent(t *testing.T) {
	store := NewStore(setupTestDB(t))
	ctx := context.Background()

	m := addMediaT(t, store, "Lonely", "lonely.mp4", nil)

	m.ParentID = ptr(m.ID)
	assert.ErrorIs(t, store.UpdateMedia(ctx, m), ErrConstraint, "self parent")

	m.ParentID = ptr(int64(4242))
	assert.ErrorIs(t, store.UpdateMedia(ctx, m), ErrConstraint, "missing parent")
}

func TestStore_UpdateMedia_NotFound(t *testing.T) {
	store := NewStore(setupTestDB(t))

	err := store.UpdateMedia(context.Background(), &Media{ID: 77, Title: "ghost"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Paths(t *testing.T) {
	store := NewStore(setupTestDB(t))
	addMediaT(t, store, "A", "a.mp4", nil)
	addMediaT(t, store, "B", "dir/b.mp3", nil)

	paths, err := store.Paths(context.Background())
	require.NoError(t, err)
	assert.Len(t, paths, 2)
	assert.Contains(t, paths, "a.mp4")
	assert.Contains(t, paths, "dir/b.mp3")
}

func TestStore_CategoriesAndCount(t *testing.T) {
	store := NewStore(setupTestDB(t))
	addMediaT(t, store, "A", "a.mp4", ptr("education"))
	addMediaT(t, store, "B", "b.mp4", ptr("comedy"))
	addMediaT(t, store, "C", "c.mp4", ptr("education"))
	addMediaT(t, store, "D", "d.mp4", nil)

	cats, err := store.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"comedy", "education"}, cats)

	n, err := store.CountMedia(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestStore_Tx_RollbackDiscardsInsert(t *testing.T) {
	store := NewStore(setupTestDB(t))
	ctx := context.Background()

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	m := &Media{Title: "Temp", FilePath: "temp.mp4"}
	require.NoError(t, tx.AddMedia(ctx, m))
	got, err := tx.GetMedia(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "Temp", got.Title)
	require.NoError(t, tx.Rollback())

	_, err = store.GetMedia(ctx, m.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Capabilities(t *testing.T) {
	caps, err := NewStore(setupTestDB(t)).Capabilities(context.Background())
	require.NoError(t, err)
	assert.True(t, caps.Series)

	caps, err = NewStore(setupLegacyDB(t)).Capabilities(context.Background())
	require.NoError(t, err)
	assert.False(t, caps.Series)
}

func TestStore_Capabilities_Cached(t *testing.T) {
	db := setupLegacyDB(t)
	ctx := context.Background()
	store := NewStore(db)

	caps, err := store.Capabilities(ctx)
	require.NoError(t, err)
	require.False(t, caps.Series)

	// Upgrading underneath an existing store is not observed until a new
	// store is created.
	require.NoError(t, migrations.Up(ctx, db, migrations.Options{Series: true}))
	caps, err = store.Capabilities(ctx)
	require.NoError(t, err)
	assert.False(t, caps.Series)

	caps, err = NewStore(db).Capabilities(ctx)
	require.NoError(t, err)
	assert.True(t, caps.Series)
}

func TestStore_Legacy_RejectsSeriesFields(t *testing.T) {
	store := NewStore(setupLegacyDB(t))
	ctx := context.Background()

	err := store.AddMedia(ctx, &Media{Title: "Ep", FilePath: "ep.mp4", EpisodeNumber: ptr(1)})
	assert.ErrorIs(t, err, ErrSchemaUnsupported)

	m := addMediaT(t, store, "Plain", "plain.mp4", nil)
	got, err := store.GetMedia(ctx, m.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ParentID)

	m.ParentID = ptr(int64(1))
	assert.ErrorIs(t, store.UpdateMedia(ctx, m), ErrSchemaUnsupported)
}
