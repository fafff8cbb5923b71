package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roomscout/backend/internal/domain"
)

func openTestStore(t *testing.T) *SessionStore {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "roomscout.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testSession(id string, createdAt time.Time) *domain.Session {
	return &domain.Session{
		ID:        id,
		ImagePath: "/uploads/" + id + ".jpg",
		CreatedAt: createdAt,
		Items: []domain.SessionItem{
			{
				Item: domain.Item{Type: "sofa", Description: "3-seat beige linen sofa", SearchKeywords: []string{"3 seater sofa beige", "linen sofa"}},
				Products: []domain.ProductRecord{
					{Title: "Oslo Sofa", ProductURL: "https://store-x.com/p/1", Store: "Store X", Price: "KD 199"},
					{Title: "Alba Sofa", ProductURL: "https://gulfhome.ae/p/2", Store: "Gulf Home"},
				},
			},
			{
				Item:     domain.Item{Type: "floor_lamp", Description: "brass arc floor lamp"},
				Products: []domain.ProductRecord{},
			},
		},
	}
}

func TestSessionStore_CreateAndGet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	created := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)

	require.NoError(t, store.Create(ctx, testSession("s1", created)))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)

	assert.Equal(t, "s1", got.ID)
	assert.Equal(t, "/uploads/s1.jpg", got.ImagePath)
	assert.True(t, created.Equal(got.CreatedAt), "created_at = %v", got.CreatedAt)
	require.Len(t, got.Items, 2)

	sofa := got.Items[0]
	assert.Equal(t, "sofa", sofa.Item.Type)
	assert.Equal(t, []string{"3 seater sofa beige", "linen sofa"}, sofa.Item.SearchKeywords)
	require.Len(t, sofa.Products, 2)
	assert.Equal(t, "Oslo Sofa", sofa.Products[0].Title)
	assert.Equal(t, "KD 199", sofa.Products[0].Price)
	assert.Equal(t, "Alba Sofa", sofa.Products[1].Title)

	lamp := got.Items[1]
	assert.Equal(t, "floor_lamp", lamp.Item.Type)
	assert.Empty(t, lamp.Products)
	assert.NotNil(t, lamp.Products)
}

func TestSessionStore_GetNotFound(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionStore_List(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	empty, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Create(ctx, testSession("older", base)))
	newer := testSession("newer", base.Add(time.Hour))
	newer.Items = newer.Items[:1]
	require.NoError(t, store.Create(ctx, newer))

	summaries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	assert.Equal(t, "newer", summaries[0].ID)
	assert.Equal(t, 1, summaries[0].ItemCount)
	assert.Equal(t, "older", summaries[1].ID)
	assert.Equal(t, 2, summaries[1].ItemCount)
}

func TestSessionStore_DuplicateIDRollsBack(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.Create(ctx, testSession("dup", now)))
	assert.Error(t, store.Create(ctx, testSession("dup", now)))

	got, err := store.Get(ctx, "dup")
	require.NoError(t, err)
	assert.Len(t, got.Items, 2)
}

func TestOpen_ReopensExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roomscout.db")
	ctx := context.Background()

	first, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, first.Create(ctx, testSession("kept", time.Now().UTC())))
	require.NoError(t, first.Close())

	second, err := Open(ctx, path)
	require.NoError(t, err)
	defer second.Close()

	_, err = second.Get(ctx, "kept")
	assert.NoError(t, err)
}
