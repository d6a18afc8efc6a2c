/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package trace

import (
	"time"
)

// WindowSample is the congestion state of a consumer after a change.
type WindowSample struct {
	At       time.Duration
	App      string
	Window   float64
	Ssthresh float64
	InFlight uint32
}

// WindowTracer logs the congestion window, slow-start threshold and in-flight count of consumers.
type WindowTracer struct {
	samples map[string][]WindowSample
}

// NewWindowTracer creates an empty tracer.
func NewWindowTracer() *WindowTracer {
	t := new(WindowTracer)
	t.samples = make(map[string][]WindowSample)
	return t
}

// Record stores a sample unless it repeats the last one of the same consumer.
func (t *WindowTracer) Record(sample WindowSample) {
	samples := t.samples[sample.App]
	if n := len(samples); n > 0 {
		last := samples[n-1]
		if last.Window == sample.Window && last.Ssthresh == sample.Ssthresh && last.InFlight == sample.InFlight {
			return
		}
	}
	t.samples[sample.App] = append(samples, sample)
}

// Samples returns the samples of the named consumer in order.
func (t *WindowTracer) Samples(app string) []WindowSample {
	return t.samples[app]
}
