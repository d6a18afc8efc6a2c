/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package table

import (
	"time"

	"github.com/named-data/hobhis/ndn"
	"golang.org/x/exp/slices"
)

// FaceStatus is the reachability status of a nexthop.
type FaceStatus int

// Face statuses, in order of preference.
const (
	FaceGreen FaceStatus = iota
	FaceYellow
	FaceRed
)

func (s FaceStatus) String() string {
	switch s {
	case FaceGreen:
		return "GREEN"
	case FaceYellow:
		return "YELLOW"
	case FaceRed:
		return "RED"
	default:
		return "UNKNOWN"
	}
}

const (
	rttGain    = 0.125
	rttVarGain = 0.25
)

// FaceMetric is a nexthop of a FIB entry together with its measured performance.
type FaceMetric struct {
	Face   uint64
	Cost   uint64
	Status FaceStatus
	SRtt   time.Duration
	RttVar time.Duration
	hasRtt bool
}

// HasRtt returns whether an RTT sample has been taken for this nexthop.
func (m *FaceMetric) HasRtt() bool {
	return m.hasRtt
}

func (m *FaceMetric) updateRtt(sample time.Duration) {
	if !m.hasRtt {
		m.SRtt = sample
		m.RttVar = sample / 2
		m.hasRtt = true
		return
	}
	diff := m.SRtt - sample
	if diff < 0 {
		diff = -diff
	}
	m.RttVar = time.Duration((1-rttVarGain)*float64(m.RttVar) + rttVarGain*float64(diff))
	m.SRtt = time.Duration((1-rttGain)*float64(m.SRtt) + rttGain*float64(sample))
}

// FibEntry is a node in the FIB prefix tree.
type FibEntry struct {
	component ndn.NameComponent
	name      *ndn.Name
	depth     int

	parent   *FibEntry
	children []*FibEntry

	nexthops []*FaceMetric
}

// Fib is the Forwarding Information Base of a node.
type Fib struct {
	root        *FibEntry
	fibPrefixes map[uint64]*FibEntry
}

// NewFib creates an empty FIB.
func NewFib() *Fib {
	f := new(Fib)
	f.root = new(FibEntry)
	// Root component will be nil since it represents zero components
	f.root.name = ndn.NewName()
	f.fibPrefixes = make(map[uint64]*FibEntry)
	return f
}

func (f *Fib) String() string {
	return "Fib"
}

// findExactMatchEntry returns the entry corresponding to the exact match of
// the given name. It returns nil if no exact match was found.
func (e *FibEntry) findExactMatchEntry(name *ndn.Name) *FibEntry {
	if name.Size() > e.depth {
		for _, child := range e.children {
			if name.At(child.depth - 1).Equals(child.component) {
				return child.findExactMatchEntry(name)
			}
		}
	} else if name.Size() == e.depth {
		return e
	}
	return nil
}

// findLongestPrefixEntry returns the deepest entry whose name is a prefix of the given name.
func (e *FibEntry) findLongestPrefixEntry(name *ndn.Name) *FibEntry {
	if name.Size() > e.depth {
		for _, child := range e.children {
			if name.At(child.depth - 1).Equals(child.component) {
				return child.findLongestPrefixEntry(name)
			}
		}
	}
	return e
}

// fillTreeToPrefix breaks the given name into components and adds nodes to the
// tree for any missing components.
func (f *Fib) fillTreeToPrefix(name *ndn.Name) *FibEntry {
	curNode := f.root.findLongestPrefixEntry(name)
	for depth := curNode.depth + 1; depth <= name.Size(); depth++ {
		newNode := new(FibEntry)
		newNode.component = name.At(depth - 1)
		newNode.name = name.Prefix(depth)
		newNode.depth = depth
		newNode.parent = curNode
		curNode.children = append(curNode.children, newNode)
		curNode = newNode
	}
	return curNode
}

// pruneIfEmpty prunes nodes from the tree if they no longer have nexthops or children.
func (e *FibEntry) pruneIfEmpty() {
	for curNode := e; curNode.parent != nil && len(curNode.children) == 0 && len(curNode.nexthops) == 0; curNode = curNode.parent {
		parent := curNode.parent
		for i, child := range parent.children {
			if child == curNode {
				parent.children = slices.Delete(parent.children, i, i+1)
				break
			}
		}
	}
}

// Add inserts or updates a nexthop for the specified prefix. New nexthops start YELLOW.
func (f *Fib) Add(prefix *ndn.Name, face uint64, cost uint64) *FibEntry {
	entry := f.fillTreeToPrefix(prefix)
	f.fibPrefixes[prefix.Hash()] = entry
	if metric := entry.findNexthop(face); metric != nil {
		metric.Cost = cost
		return entry
	}
	entry.nexthops = append(entry.nexthops, &FaceMetric{Face: face, Cost: cost, Status: FaceYellow})
	return entry
}

// Remove removes a nexthop from the specified prefix.
func (f *Fib) Remove(prefix *ndn.Name, face uint64) error {
	entry := f.root.findExactMatchEntry(prefix)
	if entry == nil {
		return ErrNoSuchPrefix
	}
	for i, metric := range entry.nexthops {
		if metric.Face == face {
			entry.nexthops = slices.Delete(entry.nexthops, i, i+1)
			if len(entry.nexthops) == 0 {
				delete(f.fibPrefixes, prefix.Hash())
				entry.pruneIfEmpty()
			}
			return nil
		}
	}
	return ErrNoSuchFace
}

// RemoveFace removes the specified face from every entry.
func (f *Fib) RemoveFace(face uint64) {
	for hash, entry := range f.fibPrefixes {
		for i, metric := range entry.nexthops {
			if metric.Face == face {
				entry.nexthops = slices.Delete(entry.nexthops, i, i+1)
				break
			}
		}
		if len(entry.nexthops) == 0 {
			delete(f.fibPrefixes, hash)
			entry.pruneIfEmpty()
		}
	}
}

// Find returns the entry for exactly the specified prefix, or nil.
func (f *Fib) Find(prefix *ndn.Name) *FibEntry {
	entry := f.root.findExactMatchEntry(prefix)
	if entry == nil || len(entry.nexthops) == 0 {
		return nil
	}
	return entry
}

// LongestPrefixMatch returns the deepest entry with nexthops whose prefix matches the specified name, or nil.
func (f *Fib) LongestPrefixMatch(name *ndn.Name) *FibEntry {
	for curNode := f.root.findLongestPrefixEntry(name); curNode != nil; curNode = curNode.parent {
		if len(curNode.nexthops) > 0 {
			return curNode
		}
	}
	return nil
}

// Size returns the number of prefixes with nexthops.
func (f *Fib) Size() int {
	return len(f.fibPrefixes)
}

// SetFaceStatus updates the status of the specified face in every entry.
func (f *Fib) SetFaceStatus(face uint64, status FaceStatus) {
	for _, entry := range f.fibPrefixes {
		entry.UpdateStatus(face, status)
	}
}

// Name returns the prefix of the entry.
func (e *FibEntry) Name() *ndn.Name {
	return e.name
}

func (e *FibEntry) findNexthop(face uint64) *FaceMetric {
	for _, metric := range e.nexthops {
		if metric.Face == face {
			return metric
		}
	}
	return nil
}

// Nexthop returns the metric of the specified face, or nil if it is not a nexthop.
func (e *FibEntry) Nexthop(face uint64) *FaceMetric {
	return e.findNexthop(face)
}

// Faces returns the nexthops ranked by status, then cost, then smoothed RTT.
func (e *FibEntry) Faces() []*FaceMetric {
	ranked := slices.Clone(e.nexthops)
	slices.SortStableFunc(ranked, func(a, b *FaceMetric) int {
		switch {
		case a.Status != b.Status:
			return int(a.Status) - int(b.Status)
		case a.Cost != b.Cost:
			if a.Cost < b.Cost {
				return -1
			}
			return 1
		case a.SRtt != b.SRtt:
			if a.SRtt < b.SRtt {
				return -1
			}
			return 1
		}
		return 0
	})
	return ranked
}

// UpdateRtt folds an RTT sample into the metric of the specified face.
func (e *FibEntry) UpdateRtt(face uint64, sample time.Duration) {
	if metric := e.findNexthop(face); metric != nil {
		metric.updateRtt(sample)
	}
}

// UpdateStatus sets the status of the specified face.
func (e *FibEntry) UpdateStatus(face uint64, status FaceStatus) {
	if metric := e.findNexthop(face); metric != nil {
		metric.Status = status
	}
}
