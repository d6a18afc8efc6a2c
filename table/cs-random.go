/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package table

import (
	"math"

	"github.com/iti/rngstream"
	"github.com/named-data/hobhis/ndn"
	"github.com/named-data/hobhis/utils/priority_queue"
)

// CsRandom gives every entry a random order on insertion and evicts the lowest order.
// A new entry whose order is below every stored one is refused when the store is full.
type CsRandom struct {
	cs        *ContentStore
	rng       *rngstream.RngStream
	queue     priority_queue.Queue[uint64, uint32]
	locations map[uint64]*priority_queue.Item[uint64, uint32]
}

// NewCsRandom creates a new random replacement policy for the Content Store.
func NewCsRandom(cs *ContentStore, rng *rngstream.RngStream) *CsRandom {
	r := new(CsRandom)
	r.cs = cs
	r.rng = rng
	r.queue = priority_queue.New[uint64, uint32]()
	r.locations = make(map[uint64]*priority_queue.Item[uint64, uint32])
	return r
}

// AfterInsert is called after a new entry is inserted into the Content Store.
func (r *CsRandom) AfterInsert(index uint64, data *ndn.Data) bool {
	order := uint32(r.rng.RandU01() * math.MaxUint32)
	capacity := r.cs.Capacity()
	if capacity > 0 && r.queue.Len() >= capacity {
		if order < r.queue.PeekPriority() {
			return false
		}
		indexToErase := r.queue.Pop()
		delete(r.locations, indexToErase)
		r.cs.eraseFromReplacementPolicy(indexToErase)
	}
	r.locations[index] = r.queue.Push(index, order)
	return true
}

// AfterRefresh is called after a new data packet refreshes an existing entry in the Content Store.
func (r *CsRandom) AfterRefresh(index uint64, data *ndn.Data) {}

// BeforeErase is called before an entry is erased from the Content Store other than by eviction.
func (r *CsRandom) BeforeErase(index uint64, data *ndn.Data) {
	if item, ok := r.locations[index]; ok {
		r.queue.Remove(item)
		delete(r.locations, index)
	}
}

// BeforeUse is called before an entry in the Content Store is used to satisfy a pending Interest.
func (r *CsRandom) BeforeUse(index uint64, data *ndn.Data) {}

// EvictEntries is called to instruct the policy to evict enough entries to reduce the Content Store size below its size limit.
func (r *CsRandom) EvictEntries() {
	for r.cs.exceeds(r.queue.Len()) {
		indexToErase := r.queue.Pop()
		delete(r.locations, indexToErase)
		r.cs.eraseFromReplacementPolicy(indexToErase)
	}
}
