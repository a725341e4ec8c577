package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedListing struct {
	ID    uint    `json:"id"`
	Title string  `json:"title"`
	Price float64 `json:"price"`
}

func setupTestRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	SetClient(rdb)
	t.Cleanup(func() {
		SetClient(nil)
		_ = rdb.Close()
	})

	return mr
}

func TestAside_MissThenHit(t *testing.T) {
	setupTestRedis(t)
	ctx := context.Background()

	loads := 0
	load := func(dest *cachedListing) func() error {
		return func() error {
			loads++
			*dest = cachedListing{ID: 7, Title: "Dresser", Price: 40}
			return nil
		}
	}

	var first cachedListing
	err := Aside(ctx, ListingKey(7), &first, ListingTTL, load(&first))
	require.NoError(t, err)
	assert.Equal(t, 1, loads)
	assert.Equal(t, "Dresser", first.Title)

	var second cachedListing
	err = Aside(ctx, ListingKey(7), &second, ListingTTL, load(&second))
	require.NoError(t, err)
	assert.Equal(t, 1, loads, "second read should be served from cache")
	assert.Equal(t, first, second)
}

func TestAside_NilClientDegradesToLoad(t *testing.T) {
	SetClient(nil)

	var got cachedListing
	err := Aside(context.Background(), ListingKey(1), &got, time.Minute, func() error {
		got = cachedListing{ID: 1, Title: "Lamp", Price: 5}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Lamp", got.Title)
}

func TestAside_CorruptEntryReloads(t *testing.T) {
	mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, mr.Set(ListingKey(3), "{not json"))

	var got cachedListing
	err := Aside(ctx, ListingKey(3), &got, time.Minute, func() error {
		got = cachedListing{ID: 3, Title: "Bike", Price: 120}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Bike", got.Title)

	// The corrupt value was replaced with a valid one.
	stored, err := mr.Get(ListingKey(3))
	require.NoError(t, err)
	assert.Contains(t, stored, `"title":"Bike"`)
}

func TestInvalidateListing(t *testing.T) {
	mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, mr.Set(ListingKey(9), `{"id":9}`))
	InvalidateListing(ctx, 9)
	assert.False(t, mr.Exists(ListingKey(9)))
}
