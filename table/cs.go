/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package table

import (
	"github.com/iti/rngstream"
	"github.com/named-data/hobhis/core"
	"github.com/named-data/hobhis/ndn"
	"github.com/named-data/hobhis/sched"
)

// CsEntry is an entry in a node's Content Store.
type CsEntry struct {
	index  uint64
	data   *ndn.Data
	expiry sched.EventID
}

// Data returns the cached Data packet.
func (e *CsEntry) Data() *ndn.Data {
	return e.data
}

// ContentStore caches Data packets by name.
type ContentStore struct {
	opts        CsOptions
	scheduler   sched.Scheduler
	replacement CsReplacementPolicy
	csMap       map[uint64]*CsEntry // Key is name hash

	// WillRemoveEntry is called before an entry leaves the store for any reason.
	WillRemoveEntry func(data *ndn.Data)
}

// NewContentStore creates a Content Store with the replacement policy named in the options.
// The random number stream is only used by the random policy.
func NewContentStore(opts CsOptions, scheduler sched.Scheduler, rng *rngstream.RngStream) (*ContentStore, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	cs := new(ContentStore)
	cs.opts = opts
	cs.scheduler = scheduler
	cs.csMap = make(map[uint64]*CsEntry)
	replacement, err := newReplacementPolicy(cs, opts.ReplacementPolicy, rng)
	if err != nil {
		return nil, err
	}
	cs.replacement = replacement
	return cs, nil
}

func (cs *ContentStore) String() string {
	return "ContentStore"
}

// Capacity returns the maximum number of entries. Zero means unbounded.
func (cs *ContentStore) Capacity() int {
	return cs.opts.Capacity
}

func (cs *ContentStore) exceeds(n int) bool {
	return cs.opts.Capacity > 0 && n > cs.opts.Capacity
}

// Size returns the number of entries in the store.
func (cs *ContentStore) Size() int {
	return len(cs.csMap)
}

// Add inserts or refreshes the Data packet. Returns false if the replacement policy refused it.
func (cs *ContentStore) Add(data *ndn.Data) bool {
	index := data.Name().Hash()

	if entry, ok := cs.csMap[index]; ok {
		// Replace existing entry
		entry.data = data
		cs.scheduleExpiry(entry)
		cs.replacement.AfterRefresh(index, data)
		return true
	}

	entry := new(CsEntry)
	entry.index = index
	entry.data = data
	cs.csMap[index] = entry
	if !cs.replacement.AfterInsert(index, data) {
		delete(cs.csMap, index)
		core.LogTrace(cs, "Policy refused ", data.Name())
		return false
	}
	cs.scheduleExpiry(entry)

	// Tell replacement strategy to evict entries if needed
	cs.replacement.EvictEntries()
	return true
}

func (cs *ContentStore) scheduleExpiry(entry *CsEntry) {
	cs.scheduler.Cancel(entry.expiry)
	if !cs.opts.Freshness || entry.data.Freshness() <= 0 {
		return
	}
	entry.expiry = cs.scheduler.Schedule(entry.data.Freshness(), func() {
		core.LogTrace(cs, "Freshness of ", entry.data.Name(), " elapsed")
		cs.Erase(entry.data.Name())
	})
}

// Lookup returns the Data with the longest stored name that is a prefix of the specified name, or nil.
func (cs *ContentStore) Lookup(name *ndn.Name) *ndn.Data {
	for size := name.Size(); size >= 0; size-- {
		prefix := name.Prefix(size)
		index := prefix.Hash()
		entry, ok := cs.csMap[index]
		if !ok || !entry.data.Name().Equals(prefix) {
			continue
		}
		cs.replacement.BeforeUse(index, entry.data)
		return entry.data
	}
	return nil
}

// Erase removes the Data with exactly the specified name. Returns whether it was present.
func (cs *ContentStore) Erase(name *ndn.Name) bool {
	index := name.Hash()
	entry, ok := cs.csMap[index]
	if !ok {
		return false
	}
	cs.replacement.BeforeErase(index, entry.data)
	cs.remove(entry)
	return true
}

// eraseFromReplacementPolicy allows the replacement policy to evict the entry with the specified index.
func (cs *ContentStore) eraseFromReplacementPolicy(index uint64) {
	if entry, ok := cs.csMap[index]; ok {
		core.LogTrace(cs, "Evicting ", entry.data.Name())
		cs.remove(entry)
	}
}

func (cs *ContentStore) remove(entry *CsEntry) {
	if cs.WillRemoveEntry != nil {
		cs.WillRemoveEntry(entry.data)
	}
	cs.scheduler.Cancel(entry.expiry)
	delete(cs.csMap, entry.index)
}
