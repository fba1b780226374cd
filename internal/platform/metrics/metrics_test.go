// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package metrics_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/co-codin/query-compiler/internal/platform/metrics"
)

func TestCounters_BeginCompile_SuccessIncrementsCompiled(t *testing.T) {
	c := metrics.New()
	done := c.BeginCompile()
	assert.EqualValues(t, 1, c.Snapshot().InFlight)

	done(true)
	snap := c.Snapshot()
	assert.EqualValues(t, 0, snap.InFlight)
	assert.EqualValues(t, 1, snap.Compiled)
	assert.EqualValues(t, 0, snap.Failed)
}

func TestCounters_BeginCompile_FailureIncrementsFailed(t *testing.T) {
	c := metrics.New()
	done := c.BeginCompile()
	done(false)

	snap := c.Snapshot()
	assert.EqualValues(t, 0, snap.InFlight)
	assert.EqualValues(t, 0, snap.Compiled)
	assert.EqualValues(t, 1, snap.Failed)
}

func TestCounters_ConcurrentCompiles(t *testing.T) {
	c := metrics.New()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(ok bool) {
			defer wg.Done()
			done := c.BeginCompile()
			done(ok)
		}(i%2 == 0)
	}
	wg.Wait()

	snap := c.Snapshot()
	assert.EqualValues(t, 0, snap.InFlight)
	assert.EqualValues(t, 50, snap.Compiled)
	assert.EqualValues(t, 50, snap.Failed)
}
