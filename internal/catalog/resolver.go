package catalog

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/co-codin/query-compiler/internal/compiler/cerr"
)

// Fetcher issues the batched catalog lookup described in SPEC_FULL.md
// section 4.3: one GET per resolution, positionally aligned response.
type Fetcher interface {
	FetchMappings(ctx context.Context, names []string) (map[string]Entry, error)
}

// L2Cache is an optional cache consulted before falling back to Fetcher —
// backed by Redis in production, so multiple worker processes share
// resolved metadata instead of each one cold-starting its own catalog.
type L2Cache interface {
	GetMany(ctx context.Context, names []string) (map[string]Entry, error)
	SetMany(ctx context.Context, entries map[string]Entry) error
}

// Resolver ensures every name in a requested set has a Catalog entry,
// batch-fetching whatever is missing.
type Resolver struct {
	catalog *Catalog
	fetcher Fetcher
	cache   L2Cache
	group   singleflight.Group
}

// NewResolver builds a Resolver. cache may be nil to run without an L2 tier.
func NewResolver(catalog *Catalog, fetcher Fetcher, cache L2Cache) *Resolver {
	return &Resolver{catalog: catalog, fetcher: fetcher, cache: cache}
}

// Resolve guarantees every name in names has an entry in the catalog when
// it returns successfully, implementing SPEC_FULL.md section 4.3's
// algorithm: compute the missing set, skip the round trip if it's empty,
// otherwise issue exactly one batched fetch and merge the result.
//
// Concurrent calls for overlapping missing sets are coalesced with
// singleflight so a burst of simultaneous compilations referencing the
// same new attribute only pays for one HTTP round trip.
func (r *Resolver) Resolve(ctx context.Context, names []string) error {
	missing := r.catalog.Missing(names)
	if len(missing) == 0 {
		return nil
	}

	key := missingKey(missing)
	_, err, _ := r.group.Do(key, func() (any, error) {
		stillMissing := r.catalog.Missing(missing)
		if len(stillMissing) == 0 {
			return nil, nil
		}

		if r.cache != nil {
			cached, err := r.cache.GetMany(ctx, stillMissing)
			if err == nil && len(cached) > 0 {
				r.catalog.Merge(cached)
				stillMissing = r.catalog.Missing(stillMissing)
			}
		}

		if len(stillMissing) == 0 {
			return nil, nil
		}

		resolved, err := r.fetcher.FetchMappings(ctx, stillMissing)
		if err != nil {
			return nil, err
		}
		r.catalog.Merge(resolved)

		if r.cache != nil {
			_ = r.cache.SetMany(ctx, resolved)
		}
		return nil, nil
	})
	if err != nil {
		return err
	}

	if remaining := r.catalog.Missing(names); len(remaining) > 0 {
		return cerr.HTTPErrorFromDataCatalog("", 0, "missing entries after resolution", nil)
	}
	return nil
}

func missingKey(names []string) string {
	key := ""
	for _, n := range names {
		key += n + "\x00"
	}
	return key
}
