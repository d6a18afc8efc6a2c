/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package trace

import (
	"time"

	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DelaySample is the delay of one satisfied Interest as seen by a consumer.
type DelaySample struct {
	At  time.Duration
	App string
	Seq uint32
	// LastDelay is measured from the last transmission of the Interest.
	LastDelay time.Duration
	// FullDelay is measured from the first transmission of the Interest.
	FullDelay time.Duration
	RetxCount int
}

// DelaySummary summarizes the delays observed by one consumer, in seconds.
type DelaySummary struct {
	App           string  `yaml:"app"`
	Samples       int     `yaml:"samples"`
	MeanLastDelay float64 `yaml:"mean_last_delay"`
	StdLastDelay  float64 `yaml:"std_last_delay"`
	MeanFullDelay float64 `yaml:"mean_full_delay"`
	StdFullDelay  float64 `yaml:"std_full_delay"`
	MinFullDelay  float64 `yaml:"min_full_delay"`
	MaxFullDelay  float64 `yaml:"max_full_delay"`
	Retransmitted int     `yaml:"retransmitted"`
}

// AppDelayTracer records the delays of satisfied Interests per consumer.
type AppDelayTracer struct {
	samples map[string][]DelaySample
}

// NewAppDelayTracer creates an empty tracer.
func NewAppDelayTracer() *AppDelayTracer {
	t := new(AppDelayTracer)
	t.samples = make(map[string][]DelaySample)
	return t
}

// Record stores a sample.
func (t *AppDelayTracer) Record(sample DelaySample) {
	t.samples[sample.App] = append(t.samples[sample.App], sample)
}

// Samples returns the samples of the named consumer in arrival order.
func (t *AppDelayTracer) Samples(app string) []DelaySample {
	return t.samples[app]
}

// Summaries returns the summary of every consumer, ordered by name.
func (t *AppDelayTracer) Summaries() []DelaySummary {
	apps := make([]string, 0, len(t.samples))
	for app := range t.samples {
		apps = append(apps, app)
	}
	slices.Sort(apps)

	summaries := make([]DelaySummary, 0, len(apps))
	for _, app := range apps {
		summaries = append(summaries, t.Summary(app))
	}
	return summaries
}

// Summary returns the summary of the named consumer.
func (t *AppDelayTracer) Summary(app string) DelaySummary {
	samples := t.samples[app]
	summary := DelaySummary{App: app, Samples: len(samples)}
	if len(samples) == 0 {
		return summary
	}

	last := make([]float64, len(samples))
	full := make([]float64, len(samples))
	for i, sample := range samples {
		last[i] = sample.LastDelay.Seconds()
		full[i] = sample.FullDelay.Seconds()
		if sample.RetxCount > 0 {
			summary.Retransmitted++
		}
	}
	summary.MeanLastDelay = stat.Mean(last, nil)
	summary.MeanFullDelay = stat.Mean(full, nil)
	if len(samples) > 1 {
		summary.StdLastDelay = stat.StdDev(last, nil)
		summary.StdFullDelay = stat.StdDev(full, nil)
	}
	summary.MinFullDelay = floats.Min(full)
	summary.MaxFullDelay = floats.Max(full)
	return summary
}
