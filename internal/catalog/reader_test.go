package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmunix/mediacat/internal/catalog/mocks"
	"go.uber.org/mock/gomock"
)

func newTestReader(t *testing.T) (*Reader, *Store, *mocks.MockThumbnailer) {
	t.Helper()
	ctrl := gomock.NewController(t)
	thumbs := mocks.NewMockThumbnailer(ctrl)
	store := NewStore(setupTestDB(t))
	return NewReader(store, thumbs, "", testLogger()), store, thumbs
}

func titles(items []*DecoratedMedia) []string {
	out := make([]string, len(items))
	for i, d := range items {
		out[i] = d.Title
	}
	return out
}

func TestReader_List_NewestFirst(t *testing.T) {
	reader, store, _ := newTestReader(t)
	addMediaT(t, store, "First", "first.mp3", nil)
	addMediaT(t, store, "Second", "second.mp3", nil)
	addMediaT(t, store, "Third", "third.mp3", nil)

	items, err := reader.List(context.Background(), MediaFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Third", "Second", "First"}, titles(items))
}

func TestReader_List_FilterComposition(t *testing.T) {
	reader, store, _ := newTestReader(t)
	addMediaT(t, store, "Documentary One", "d1.mp3", ptr("education"))
	addMediaT(t, store, "The DOCK", "d2.mp3", ptr("education"))
	addMediaT(t, store, "Doctor Sleep", "d3.mp3", ptr("horror"))
	addMediaT(t, store, "Algebra", "a.mp3", ptr("education"))
	addMediaT(t, store, "docs", "d4.mp3", ptr("Education"))

	items, err := reader.List(context.Background(), MediaFilter{
		UserID:   ptr(int64(1)),
		Query:    ptr("doc"),
		Category: ptr("education"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"The DOCK", "Documentary One"}, titles(items))
}

func TestReader_List_QueryIsLiteral(t *testing.T) {
	reader, store, _ := newTestReader(t)
	addMediaT(t, store, "100% Pure", "pure.mp3", nil)
	addMediaT(t, store, "1000 Ways", "ways.mp3", nil)

	items, err := reader.List(context.Background(), MediaFilter{Query: ptr("0%")})
	require.NoError(t, err)
	assert.Equal(t, []string{"100% Pure"}, titles(items))
}

func TestReader_List_QueryUnicode(t *testing.T) {
	reader, store, _ := newTestReader(t)
	addMediaT(t, store, "Élan Vital", "elan.mp3", nil)
	addMediaT(t, store, "ÜBER ALLES", "uber.mp3", nil)
	addMediaT(t, store, "Straße_Müller 50%", "strasse.mp3", nil)
	addMediaT(t, store, "Elan", "plain.mp3", nil)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"same case", "Élan", []string{"Élan Vital"}},
		{"lower query upper title", "über", []string{"ÜBER ALLES"}},
		{"upper query lower title", "ÉLAN V", []string{"Élan Vital"}},
		{"sharp s folds", "STRASSE", []string{"Straße_Müller 50%"}},
		{"wildcards stay literal", "ße_mü", []string{"Straße_Müller 50%"}},
		{"percent with non-ascii", "müller 50%", []string{"Straße_Müller 50%"}},
		{"underscore is not any char", "ße mü", []string{}},
		{"ascii query skips accented", "elan v", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := reader.List(context.Background(), MediaFilter{Query: ptr(tt.query)})
			require.NoError(t, err)
			assert.Equal(t, tt.want, titles(items))
		})
	}
}

func TestReader_List_ProgressPerUser(t *testing.T) {
	reader, store, _ := newTestReader(t)
	ctx := context.Background()
	a := addMediaT(t, store, "A", "a.mp3", nil)
	b := addMediaT(t, store, "B", "b.mp3", nil)
	require.NoError(t, store.UpsertProgress(ctx, 1, a.ID, 30))
	require.NoError(t, store.UpsertProgress(ctx, 2, b.ID, 90))

	items, err := reader.List(ctx, MediaFilter{UserID: ptr(int64(1))})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(0), items[0].Progress, "B has no row for user 1")
	assert.Equal(t, int64(30), items[1].Progress)

	anon, err := reader.List(ctx, MediaFilter{})
	require.NoError(t, err)
	for _, d := range anon {
		assert.Zero(t, d.Progress)
	}
}

func TestReader_List_Pagination(t *testing.T) {
	reader, store, _ := newTestReader(t)
	for _, p := range []string{"1.mp3", "2.mp3", "3.mp3", "4.mp3"} {
		addMediaT(t, store, p, p, nil)
	}

	items, err := reader.List(context.Background(), MediaFilter{Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"3.mp3", "2.mp3"}, titles(items))
}

func TestReader_List_OffsetWithoutLimit(t *testing.T) {
	reader, store, _ := newTestReader(t)
	for _, p := range []string{"1.mp3", "2.mp3", "3.mp3"} {
		addMediaT(t, store, p, p, nil)
	}

	items, err := reader.List(context.Background(), MediaFilter{Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"2.mp3", "1.mp3"}, titles(items))
}

func TestReader_Count(t *testing.T) {
	reader, store, _ := newTestReader(t)
	ctx := context.Background()
	addMediaT(t, store, "Élan One", "e1.mp3", ptr("music"))
	addMediaT(t, store, "élan two", "e2.mp3", ptr("music"))
	addMediaT(t, store, "ÉLAN three", "e3.mp3", ptr("talk"))
	addMediaT(t, store, "Other", "o.mp3", ptr("music"))

	n, err := reader.Count(ctx, MediaFilter{})
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	f := MediaFilter{Query: ptr("élan"), Category: ptr("music"), Limit: 1, Offset: 1}
	n, err = reader.Count(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "limit and offset do not affect the count")

	page, err := reader.List(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, []string{"Élan One"}, titles(page))
}

func TestReader_Decorate_NonVideo(t *testing.T) {
	reader, store, _ := newTestReader(t)
	m := addMediaT(t, store, "Song", "song.mp3", nil)

	// No Ensure expectation: audio must not hit the generator.
	d, err := reader.Get(context.Background(), m.ID, nil)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.False(t, d.IsVideo)
	assert.Equal(t, KindAudio, d.Kind)
	assert.Equal(t, DefaultPlaceholder, d.Thumb)
	assert.Zero(t, d.Progress)
	assert.Nil(t, d.Category)
}

func TestReader_Decorate_Video(t *testing.T) {
	reader, store, thumbs := newTestReader(t)
	m := addMediaT(t, store, "Film", "films/film.mkv", nil)

	thumbs.EXPECT().
		Ensure(gomock.Any(), "films/film.mkv", m.ID).
		Return("/static/thumbs/videos/1.jpg", nil)

	d, err := reader.Get(context.Background(), m.ID, nil)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.True(t, d.IsVideo)
	assert.Equal(t, "/static/thumbs/videos/1.jpg", d.Thumb)
}

func TestReader_Decorate_ThumbnailFailure(t *testing.T) {
	reader, store, thumbs := newTestReader(t)
	m := addMediaT(t, store, "Broken", "broken.mp4", nil)

	thumbs.EXPECT().
		Ensure(gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", errors.New("ffmpeg: exit status 1"))

	d, err := reader.Get(context.Background(), m.ID, nil)
	require.NoError(t, err, "generation failure must not fail the read")
	assert.Equal(t, DefaultPlaceholder, d.Thumb)
	assert.True(t, d.IsVideo)
}

func TestReader_Decorate_NoGenerator(t *testing.T) {
	store := NewStore(setupTestDB(t))
	reader := NewReader(store, nil, "/static/none.png", testLogger())
	m := addMediaT(t, store, "Film", "film.mp4", nil)

	d, err := reader.Get(context.Background(), m.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "/static/none.png", d.Thumb)
	assert.Equal(t, "/static/none.png", reader.Placeholder())
}

func TestReader_Get_ProgressFilteredByUser(t *testing.T) {
	reader, store, _ := newTestReader(t)
	ctx := context.Background()
	m := addMediaT(t, store, "Shared", "shared.mp3", nil)
	require.NoError(t, store.UpsertProgress(ctx, 2, m.ID, 500))

	d, err := reader.Get(ctx, m.ID, ptr(int64(1)))
	require.NoError(t, err)
	assert.Zero(t, d.Progress, "another user's progress must not leak")

	d, err = reader.Get(ctx, m.ID, ptr(int64(2)))
	require.NoError(t, err)
	assert.Equal(t, int64(500), d.Progress)

	d, err = reader.Get(ctx, m.ID, nil)
	require.NoError(t, err)
	assert.Zero(t, d.Progress)
}

func TestReader_Get_Absent(t *testing.T) {
	reader, _, _ := newTestReader(t)

	d, err := reader.Get(context.Background(), 12345, nil)
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestReader_Next(t *testing.T) {
	reader, store, _ := newTestReader(t)
	ctx := context.Background()
	a := addMediaT(t, store, "A", "a.mp3", nil)
	b := addMediaT(t, store, "B", "b.mp3", nil)
	c := addMediaT(t, store, "C", "c.mp3", nil)
	require.NoError(t, store.UpsertProgress(ctx, 1, b.ID, 44))

	next, err := reader.Next(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, b.ID, next.ID)
	assert.Zero(t, next.Progress)

	next, err = reader.Next(ctx, c.ID)
	require.NoError(t, err)
	assert.Nil(t, next, "last entry has no next")

	next, err = reader.Next(ctx, 0)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, a.ID, next.ID)
}

func TestReader_Episodes_Ordered(t *testing.T) {
	reader, store, _ := newTestReader(t)
	ctx := context.Background()
	series := addMediaT(t, store, "Show", "show/show.mp3", nil)

	for _, n := range []int{3, 1, 2} {
		ep := &Media{
			Title:         "Episode",
			FilePath:      "show/ep" + string(rune('0'+n)) + ".mp3",
			ParentID:      ptr(series.ID),
			EpisodeNumber: ptr(n),
		}
		require.NoError(t, store.AddMedia(ctx, ep))
	}
	addMediaT(t, store, "Unrelated", "other.mp3", nil)

	eps, err := reader.Episodes(ctx, series.ID)
	require.NoError(t, err)
	require.Len(t, eps, 3)
	for i, ep := range eps {
		require.NotNil(t, ep.EpisodeNumber)
		assert.Equal(t, i+1, *ep.EpisodeNumber)
	}
}

func TestReader_Episodes_UnnumberedLast(t *testing.T) {
	reader, store, _ := newTestReader(t)
	ctx := context.Background()
	series := addMediaT(t, store, "Show", "show/show.mp3", nil)

	extra := &Media{Title: "Extra", FilePath: "show/extra.mp3", ParentID: ptr(series.ID)}
	require.NoError(t, store.AddMedia(ctx, extra))
	for _, n := range []int{2, 1} {
		ep := &Media{
			Title:         "Episode",
			FilePath:      "show/ep" + string(rune('0'+n)) + ".mp3",
			ParentID:      ptr(series.ID),
			EpisodeNumber: ptr(n),
		}
		require.NoError(t, store.AddMedia(ctx, ep))
	}

	eps, err := reader.Episodes(ctx, series.ID)
	require.NoError(t, err)
	require.Len(t, eps, 3)
	assert.Equal(t, 1, *eps[0].EpisodeNumber)
	assert.Equal(t, 2, *eps[1].EpisodeNumber)
	assert.Nil(t, eps[2].EpisodeNumber)
	assert.Equal(t, extra.ID, eps[2].ID)
}

func TestReader_Episodes_None(t *testing.T) {
	reader, _, _ := newTestReader(t)

	eps, err := reader.Episodes(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, eps)
}

func TestReader_Episodes_LegacySchema(t *testing.T) {
	store := NewStore(setupLegacyDB(t))
	reader := NewReader(store, nil, "", testLogger())
	addMediaT(t, store, "A", "a.mp3", nil)

	eps, err := reader.Episodes(context.Background(), 1)
	require.NoError(t, err)
	assert.NotNil(t, eps)
	assert.Empty(t, eps)

	// The rest of the reader still works on the flat schema.
	items, err := reader.List(context.Background(), MediaFilter{})
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
