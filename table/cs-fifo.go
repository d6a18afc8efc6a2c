/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package table

import (
	"container/list"

	"github.com/named-data/hobhis/ndn"
)

// CsFIFO evicts the oldest inserted entry first. Use and refresh do not change the order.
type CsFIFO struct {
	cs        *ContentStore
	queue     *list.List
	locations map[uint64]*list.Element
}

// NewCsFIFO creates a new FIFO replacement policy for the Content Store.
func NewCsFIFO(cs *ContentStore) *CsFIFO {
	f := new(CsFIFO)
	f.cs = cs
	f.queue = list.New()
	f.locations = make(map[uint64]*list.Element)
	return f
}

// AfterInsert is called after a new entry is inserted into the Content Store.
func (f *CsFIFO) AfterInsert(index uint64, data *ndn.Data) bool {
	f.locations[index] = f.queue.PushBack(index)
	return true
}

// AfterRefresh is called after a new data packet refreshes an existing entry in the Content Store.
func (f *CsFIFO) AfterRefresh(index uint64, data *ndn.Data) {}

// BeforeErase is called before an entry is erased from the Content Store other than by eviction.
func (f *CsFIFO) BeforeErase(index uint64, data *ndn.Data) {
	if location, ok := f.locations[index]; ok {
		f.queue.Remove(location)
		delete(f.locations, index)
	}
}

// BeforeUse is called before an entry in the Content Store is used to satisfy a pending Interest.
func (f *CsFIFO) BeforeUse(index uint64, data *ndn.Data) {}

// EvictEntries is called to instruct the policy to evict enough entries to reduce the Content Store size below its size limit.
func (f *CsFIFO) EvictEntries() {
	for f.cs.exceeds(f.queue.Len()) {
		indexToErase := f.queue.Front().Value.(uint64)
		f.queue.Remove(f.queue.Front())
		delete(f.locations, indexToErase)
		f.cs.eraseFromReplacementPolicy(indexToErase)
	}
}
