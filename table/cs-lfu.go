/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package table

import (
	"github.com/named-data/hobhis/ndn"
	"github.com/named-data/hobhis/utils/priority_queue"
)

// CsLFU evicts the least frequently used entry first.
type CsLFU struct {
	cs        *ContentStore
	queue     priority_queue.Queue[uint64, uint64]
	locations map[uint64]*priority_queue.Item[uint64, uint64]
}

// NewCsLFU creates a new LFU replacement policy for the Content Store.
func NewCsLFU(cs *ContentStore) *CsLFU {
	l := new(CsLFU)
	l.cs = cs
	l.queue = priority_queue.New[uint64, uint64]()
	l.locations = make(map[uint64]*priority_queue.Item[uint64, uint64])
	return l
}

// AfterInsert is called after a new entry is inserted into the Content Store.
// When the store is full the least frequently used entry is evicted first, so the new entry is kept.
func (l *CsLFU) AfterInsert(index uint64, data *ndn.Data) bool {
	if capacity := l.cs.Capacity(); capacity > 0 && l.queue.Len() >= capacity {
		indexToErase := l.queue.Pop()
		delete(l.locations, indexToErase)
		l.cs.eraseFromReplacementPolicy(indexToErase)
	}
	l.locations[index] = l.queue.Push(index, 0)
	return true
}

// AfterRefresh is called after a new data packet refreshes an existing entry in the Content Store.
func (l *CsLFU) AfterRefresh(index uint64, data *ndn.Data) {
	l.use(index)
}

// BeforeErase is called before an entry is erased from the Content Store other than by eviction.
func (l *CsLFU) BeforeErase(index uint64, data *ndn.Data) {
	if item, ok := l.locations[index]; ok {
		l.queue.Remove(item)
		delete(l.locations, index)
	}
}

// BeforeUse is called before an entry in the Content Store is used to satisfy a pending Interest.
func (l *CsLFU) BeforeUse(index uint64, data *ndn.Data) {
	l.use(index)
}

func (l *CsLFU) use(index uint64) {
	if item, ok := l.locations[index]; ok {
		l.queue.Update(item, item.Priority()+1)
	}
}

// EvictEntries is called to instruct the policy to evict enough entries to reduce the Content Store size below its size limit.
func (l *CsLFU) EvictEntries() {
	for l.cs.exceeds(l.queue.Len()) {
		indexToErase := l.queue.Pop()
		delete(l.locations, indexToErase)
		l.cs.eraseFromReplacementPolicy(indexToErase)
	}
}
