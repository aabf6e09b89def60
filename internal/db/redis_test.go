package db

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davemarchant/offerbuilder/internal/models"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	store, err := InitRedis(mr.Addr())
	require.NoError(t, err)
	t.Cleanup(store.Close)
	return store, mr
}

func TestSaveAndLoadCollection(t *testing.T) {
	store, _ := newTestStore(t)

	dv := 12.5
	items := []models.OfferItem{
		{
			ID:            1,
			ProductID:     101,
			Title:         "Shirt",
			Source:        models.SourceCatalog,
			DiscountType:  models.DiscountPercentage,
			DiscountValue: &dv,
			Variants: []models.OfferVariantLine{
				{ID: 11, ParentItemID: 1, Title: "S"},
				{ID: 12, ParentItemID: 1, Title: "M"},
			},
			Expanded: true,
		},
		{ID: 2, Source: models.SourceNew},
	}

	require.NoError(t, store.SaveCollection("sess-1", items, time.Hour))

	got, err := store.LoadCollection("sess-1")
	require.NoError(t, err)
	assert.Equal(t, items, got)
}

func TestLoadCollectionMissing(t *testing.T) {
	store, _ := newTestStore(t)

	got, err := store.LoadCollection("nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSaveCollectionSetsTTL(t *testing.T) {
	store, mr := newTestStore(t)

	require.NoError(t, store.SaveCollection("sess-1", []models.OfferItem{{ID: 1, Source: models.SourceNew}}, time.Hour))
	assert.Equal(t, time.Hour, mr.TTL(collectionKey("sess-1")))

	mr.FastForward(2 * time.Hour)
	got, err := store.LoadCollection("sess-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDeleteCollection(t *testing.T) {
	store, _ := newTestStore(t)

	require.NoError(t, store.SaveCollection("sess-1", []models.OfferItem{{ID: 1, Source: models.SourceNew}}, time.Hour))
	require.NoError(t, store.DeleteCollection("sess-1"))

	got, err := store.LoadCollection("sess-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLoadCollectionCorruptPayload(t *testing.T) {
	store, mr := newTestStore(t)

	require.NoError(t, mr.Set(collectionKey("sess-1"), "{not json"))
	_, err := store.LoadCollection("sess-1")
	assert.Error(t, err)
}
