package news

import (
	"context"
	"testing"

	"github.com/nmoram/newsdesk/internal/testutil"
	"github.com/stretchr/testify/require"
)

func acquireStore(ctx context.Context, t *testing.T) (*Store, func()) {
	db, cleanup := testutil.AcquireDatabase(ctx, t)
	store, err := NewStore(db)
	if err != nil {
		cleanup()
		t.Fatal(err)
	}
	err = store.Setup(ctx)
	if err != nil {
		cleanup()
		t.Fatal(err)
	}
	return store, cleanup
}

func sample(title string) *Article {
	return &Article{
		Title:            title,
		Subtitle:         "sub",
		ImageURL:         "static/pic.png",
		ImageDescription: "a picture",
		Body:             "body text",
	}
}

func TestCreateGet(t *testing.T) {
	ctx := context.Background()
	store, cleanup := acquireStore(ctx, t)
	defer cleanup()

	a := sample("first")
	require.NoError(t, store.Create(ctx, a))
	require.NotZero(t, a.ID)
	require.False(t, a.Date.IsZero())

	got, err := store.Get(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, a.Title, got.Title)
	require.Equal(t, a.ImageURL, got.ImageURL)
	require.True(t, a.Date.Equal(got.Date))

	// second read comes from the cache and must agree
	cached, err := store.Get(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, got, cached)
}

func TestGetMissing(t *testing.T) {
	ctx := context.Background()
	store, cleanup := acquireStore(ctx, t)
	defer cleanup()

	_, err := store.Get(ctx, 42)
	var missing ArticleNotFound
	require.ErrorAs(t, err, &missing)
	require.EqualValues(t, 42, missing.ID)
}

func TestListPagination(t *testing.T) {
	ctx := context.Background()
	store, cleanup := acquireStore(ctx, t)
	defer cleanup()

	for _, title := range []string{"one", "two", "three"} {
		require.NoError(t, store.Create(ctx, sample(title)))
	}

	all, err := store.List(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "one", all[0].Title)

	page, err := store.List(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, "two", page[0].Title)

	empty, err := store.List(ctx, 10, 10)
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestUpdateInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	store, cleanup := acquireStore(ctx, t)
	defer cleanup()

	a := sample("old title")
	require.NoError(t, store.Create(ctx, a))
	_, err := store.Get(ctx, a.ID) // warm the cache
	require.NoError(t, err)

	a.Title = "new title"
	a.ImageURL = ""
	require.NoError(t, store.Update(ctx, a))

	got, err := store.Get(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, "new title", got.Title)
	require.Equal(t, "static/pic.png", got.ImageURL, "empty image url keeps the stored one")
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	store, cleanup := acquireStore(ctx, t)
	defer cleanup()

	a := sample("doomed")
	require.NoError(t, store.Create(ctx, a))
	_, err := store.Get(ctx, a.ID) // warm the cache
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, a.ID))
	_, err = store.Get(ctx, a.ID)
	var missing ArticleNotFound
	require.ErrorAs(t, err, &missing)

	require.ErrorAs(t, store.Delete(ctx, a.ID), &missing)
	require.ErrorAs(t, store.Update(ctx, a), &missing)
}
