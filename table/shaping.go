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

// NoRtt marks a shaping entry without an RTT sample.
const NoRtt time.Duration = -1

// ShapingEntry is the shaping state of one flow through an outgoing face.
type ShapingEntry struct {
	Flow *ndn.Name
	// Rate is the last computed shaping rate in Interests per second.
	Rate float64
	// QueueLength is the number of the flow's Data packets queued on the downstream link.
	QueueLength uint32
	// TotalQueueLength is the number of Data packets queued on the downstream link.
	TotalQueueLength uint32
	Rtt              time.Duration
	// Bandwidth of the downstream face in bit/s.
	Bandwidth float64
	MaxChunks uint32
}

// ShapingTable holds the shaping entries of one outgoing face, keyed by flow prefix.
type ShapingTable struct {
	entries map[uint64]*ShapingEntry
}

// NewShapingTable creates an empty shaping table.
func NewShapingTable() *ShapingTable {
	t := new(ShapingTable)
	t.entries = make(map[uint64]*ShapingEntry)
	return t
}

// Get returns the entry of the specified flow, or nil.
func (t *ShapingTable) Get(flow *ndn.Name) *ShapingEntry {
	return t.entries[flow.Hash()]
}

// GetOrCreate returns the entry of the specified flow, creating it if needed. The second result reports creation.
func (t *ShapingTable) GetOrCreate(flow *ndn.Name) (*ShapingEntry, bool) {
	hash := flow.Hash()
	if entry, ok := t.entries[hash]; ok {
		return entry, false
	}
	entry := &ShapingEntry{Flow: flow, Rate: -1, Rtt: NoRtt}
	t.entries[hash] = entry
	return entry, true
}

// Len returns the number of flows in the table.
func (t *ShapingTable) Len() int {
	return len(t.entries)
}

// Entries returns all entries in canonical flow order.
func (t *ShapingTable) Entries() []*ShapingEntry {
	entries := make([]*ShapingEntry, 0, len(t.entries))
	for _, entry := range t.entries {
		entries = append(entries, entry)
	}
	slices.SortFunc(entries, func(a, b *ShapingEntry) int {
		return a.Flow.Compare(b.Flow)
	})
	return entries
}

type sendTime struct {
	name *ndn.Name
	at   time.Duration
}

// SendingTimeTable pairs Interests leaving a shaper with the Data that returns for them.
type SendingTimeTable struct {
	times map[uint64]sendTime
}

// NewSendingTimeTable creates an empty sending-time table.
func NewSendingTimeTable() *SendingTimeTable {
	t := new(SendingTimeTable)
	t.times = make(map[uint64]sendTime)
	return t
}

// Record stores the send time of the specified name unless one is already stored. Returns whether it was stored.
func (t *SendingTimeTable) Record(name *ndn.Name, at time.Duration) bool {
	hash := name.Hash()
	if _, ok := t.times[hash]; ok {
		return false
	}
	t.times[hash] = sendTime{name: name, at: at}
	return true
}

// Take returns and erases the send time of the specified name.
func (t *SendingTimeTable) Take(name *ndn.Name) (time.Duration, bool) {
	hash := name.Hash()
	entry, ok := t.times[hash]
	if !ok || !entry.name.Equals(name) {
		return 0, false
	}
	delete(t.times, hash)
	return entry.at, true
}

// Len returns the number of stored send times.
func (t *SendingTimeTable) Len() int {
	return len(t.times)
}
