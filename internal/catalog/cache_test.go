package catalog_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/co-codin/query-compiler/internal/catalog"
	"github.com/co-codin/query-compiler/internal/ir"
)

func newTestRedisCache(t *testing.T) *catalog.RedisCache {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	return catalog.NewRedisCache(client)
}

func TestRedisCache_SetThenGetRoundTrips(t *testing.T) {
	ctx := context.Background()
	cache := newTestRedisCache(t)

	entry := catalog.Entry{
		Table:      ir.Table{PhysicalName: "patient"},
		Field:      "id",
		Type:       "int",
		Attributes: []string{"pii"},
	}

	require.NoError(t, cache.SetMany(ctx, map[string]catalog.Entry{"patient.id": entry}))

	found, err := cache.GetMany(ctx, []string{"patient.id", "patient.unknown"})
	require.NoError(t, err)

	require.Contains(t, found, "patient.id")
	assert.Equal(t, entry, found["patient.id"])
	assert.NotContains(t, found, "patient.unknown")
}

func TestRedisCache_GetMany_EmptyNamesReturnsNil(t *testing.T) {
	cache := newTestRedisCache(t)
	found, err := cache.GetMany(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestRedisCache_SetMany_EmptyEntriesIsNoop(t *testing.T) {
	cache := newTestRedisCache(t)
	assert.NoError(t, cache.SetMany(context.Background(), nil))
}
