package catalog_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/co-codin/query-compiler/internal/catalog"
	"github.com/co-codin/query-compiler/internal/ir"
)

type fakeFetcher struct {
	calls   int32
	entries map[string]catalog.Entry
	err     error
}

func (f *fakeFetcher) FetchMappings(_ context.Context, names []string) (map[string]catalog.Entry, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]catalog.Entry, len(names))
	for _, n := range names {
		if e, ok := f.entries[n]; ok {
			out[n] = e
		}
	}
	return out, nil
}

func TestResolver_SkipsFetchWhenAllResolved(t *testing.T) {
	cat := catalog.New(map[string]catalog.Entry{
		"patient.id": {Table: ir.Table{PhysicalName: "patient"}, Field: "id"},
	})
	fetcher := &fakeFetcher{}
	resolver := catalog.NewResolver(cat, fetcher, nil)

	err := resolver.Resolve(context.Background(), []string{"patient.id"})
	require.NoError(t, err)
	assert.EqualValues(t, 0, fetcher.calls)
}

func TestResolver_FetchesMissingAndMerges(t *testing.T) {
	cat := catalog.New(nil)
	fetcher := &fakeFetcher{entries: map[string]catalog.Entry{
		"patient.id": {Table: ir.Table{PhysicalName: "patient"}, Field: "id"},
	}}
	resolver := catalog.NewResolver(cat, fetcher, nil)

	err := resolver.Resolve(context.Background(), []string{"patient.id"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, fetcher.calls)

	entry, ok := cat.Get("patient.id")
	assert.True(t, ok)
	assert.Equal(t, "id", entry.Field)
}

/*
TestResolver_ErrorsWhenFetchLeavesNamesUnresolved covers the case where the
catalog service's response doesn't cover every requested name.
*/
func TestResolver_ErrorsWhenFetchLeavesNamesUnresolved(t *testing.T) {
	cat := catalog.New(nil)
	fetcher := &fakeFetcher{entries: map[string]catalog.Entry{}}
	resolver := catalog.NewResolver(cat, fetcher, nil)

	err := resolver.Resolve(context.Background(), []string{"patient.unknown_field"})
	require.Error(t, err)
}

type fakeCache struct {
	data map[string]catalog.Entry
	hits int32
}

func (c *fakeCache) GetMany(_ context.Context, names []string) (map[string]catalog.Entry, error) {
	atomic.AddInt32(&c.hits, 1)
	out := make(map[string]catalog.Entry)
	for _, n := range names {
		if e, ok := c.data[n]; ok {
			out[n] = e
		}
	}
	return out, nil
}

func (c *fakeCache) SetMany(_ context.Context, entries map[string]catalog.Entry) error {
	for k, v := range entries {
		c.data[k] = v
	}
	return nil
}

/*
TestResolver_L2CacheHitSkipsFetcher verifies a cache hit satisfies
resolution without ever calling the HTTP fetcher.
*/
func TestResolver_L2CacheHitSkipsFetcher(t *testing.T) {
	cat := catalog.New(nil)
	cache := &fakeCache{data: map[string]catalog.Entry{
		"patient.id": {Table: ir.Table{PhysicalName: "patient"}, Field: "id"},
	}}
	fetcher := &fakeFetcher{}
	resolver := catalog.NewResolver(cat, fetcher, cache)

	err := resolver.Resolve(context.Background(), []string{"patient.id"})
	require.NoError(t, err)
	assert.EqualValues(t, 0, fetcher.calls)
	assert.EqualValues(t, 1, cache.hits)
}
