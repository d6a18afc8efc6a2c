/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

// Package trace collects the counters and samples a simulation reports.
package trace

import (
	"golang.org/x/exp/slices"
)

// FaceCounters are the packet counters of one face of a node.
type FaceCounters struct {
	InInterests        uint64 `yaml:"in_interests"`
	OutInterests       uint64 `yaml:"out_interests"`
	DropInterests      uint64 `yaml:"drop_interests"`
	InNacks            uint64 `yaml:"in_nacks"`
	OutNacks           uint64 `yaml:"out_nacks"`
	DropNacks          uint64 `yaml:"drop_nacks"`
	InData             uint64 `yaml:"in_data"`
	OutData            uint64 `yaml:"out_data"`
	DropData           uint64 `yaml:"drop_data"`
	SatisfiedInterests uint64 `yaml:"satisfied_interests"`
	TimedOutInterests  uint64 `yaml:"timed_out_interests"`
}

// add accumulates other into c.
func (c *FaceCounters) add(other *FaceCounters) {
	c.InInterests += other.InInterests
	c.OutInterests += other.OutInterests
	c.DropInterests += other.DropInterests
	c.InNacks += other.InNacks
	c.OutNacks += other.OutNacks
	c.DropNacks += other.DropNacks
	c.InData += other.InData
	c.OutData += other.OutData
	c.DropData += other.DropData
	c.SatisfiedInterests += other.SatisfiedInterests
	c.TimedOutInterests += other.TimedOutInterests
}

// NodeCounters are the counters of one node.
type NodeCounters struct {
	name  string
	faces map[uint64]*FaceCounters

	// Interests whose PIT entry could not be created.
	PitFailures uint64
	// Packets that could not be decoded or were addressed to an unknown face.
	Malformed   uint64
	CsHits      uint64
	CsMisses    uint64
	CsEvictions uint64
}

// Face returns the counters of the specified face, creating them if needed.
// Face 0 collects events not tied to a face, such as Content Store hits.
func (n *NodeCounters) Face(id uint64) *FaceCounters {
	counters, ok := n.faces[id]
	if !ok {
		counters = new(FaceCounters)
		n.faces[id] = counters
	}
	return counters
}

// Faces returns the IDs of the faces with counters, in ascending order.
func (n *NodeCounters) Faces() []uint64 {
	ids := make([]uint64, 0, len(n.faces))
	for id := range n.faces {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Total returns the sum of the counters of all faces.
func (n *NodeCounters) Total() FaceCounters {
	var total FaceCounters
	for _, counters := range n.faces {
		total.add(counters)
	}
	return total
}

// Metrics holds the counters of every node in a simulation.
type Metrics struct {
	nodes map[string]*NodeCounters
}

// NewMetrics creates an empty set of counters.
func NewMetrics() *Metrics {
	m := new(Metrics)
	m.nodes = make(map[string]*NodeCounters)
	return m
}

// Node returns the counters of the named node, creating them if needed.
func (m *Metrics) Node(name string) *NodeCounters {
	counters, ok := m.nodes[name]
	if !ok {
		counters = new(NodeCounters)
		counters.name = name
		counters.faces = make(map[uint64]*FaceCounters)
		m.nodes[name] = counters
	}
	return counters
}

// Nodes returns the names of the nodes with counters, in ascending order.
func (m *Metrics) Nodes() []string {
	names := make([]string, 0, len(m.nodes))
	for name := range m.nodes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
