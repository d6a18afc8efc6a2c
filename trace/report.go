/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package trace

import (
	"io"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// NodeReport holds the final counters of one node.
type NodeReport struct {
	Name        string                  `yaml:"name"`
	Total       FaceCounters            `yaml:"total"`
	Faces       map[uint64]FaceCounters `yaml:"faces"`
	PitFailures uint64                  `yaml:"pit_failures"`
	Malformed   uint64                  `yaml:"malformed"`
	CsHits      uint64                  `yaml:"cs_hits"`
	CsMisses    uint64                  `yaml:"cs_misses"`
	CsEvictions uint64                  `yaml:"cs_evictions"`
}

// Report is the outcome of a simulation run.
type Report struct {
	StopTime time.Duration  `yaml:"stop_time"`
	Nodes    []NodeReport   `yaml:"nodes"`
	Delays   []DelaySummary `yaml:"delays"`
}

// NewReport snapshots the counters and delay summaries.
func NewReport(stopTime time.Duration, metrics *Metrics, delays *AppDelayTracer) *Report {
	r := new(Report)
	r.StopTime = stopTime
	for _, name := range metrics.Nodes() {
		counters := metrics.Node(name)
		node := NodeReport{
			Name:        name,
			Total:       counters.Total(),
			Faces:       make(map[uint64]FaceCounters),
			PitFailures: counters.PitFailures,
			Malformed:   counters.Malformed,
			CsHits:      counters.CsHits,
			CsMisses:    counters.CsMisses,
			CsEvictions: counters.CsEvictions,
		}
		for _, id := range counters.Faces() {
			node.Faces[id] = *counters.Face(id)
		}
		r.Nodes = append(r.Nodes, node)
	}
	if delays != nil {
		r.Delays = delays.Summaries()
	}
	return r
}

// Node returns the report of the named node, or nil.
func (r *Report) Node(name string) *NodeReport {
	for i := range r.Nodes {
		if r.Nodes[i].Name == name {
			return &r.Nodes[i]
		}
	}
	return nil
}

// WriteYAML writes the report as a YAML document.
func (r *Report) WriteYAML(w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(r); err != nil {
		return errors.Wrap(err, "unable to encode report")
	}
	return errors.Wrap(encoder.Close(), "unable to encode report")
}
