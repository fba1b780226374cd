// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package metrics tracks in-flight and cumulative compilation counters,
// surfaced on the readiness endpoint — the per-compilation counterpart of
// the teacher's per-request HTTP latency metrics.
package metrics

import "go.uber.org/atomic"

// Counters holds the worker's compilation counters.
type Counters struct {
	InFlight atomic.Int64
	Compiled atomic.Int64
	Failed   atomic.Int64
}

// New returns a zeroed Counters.
func New() *Counters {
	return &Counters{}
}

// BeginCompile records the start of a compilation, returning a function to
// call when it finishes.
func (c *Counters) BeginCompile() func(ok bool) {
	c.InFlight.Inc()
	return func(ok bool) {
		c.InFlight.Dec()
		if ok {
			c.Compiled.Inc()
		} else {
			c.Failed.Inc()
		}
	}
}

// Snapshot is a point-in-time view of the counters, suitable for JSON
// encoding on the readiness endpoint.
type Snapshot struct {
	InFlight int64 `json:"in_flight"`
	Compiled int64 `json:"compiled_total"`
	Failed   int64 `json:"failed_total"`
}

// Snapshot returns the current counter values.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		InFlight: c.InFlight.Load(),
		Compiled: c.Compiled.Load(),
		Failed:   c.Failed.Load(),
	}
}
