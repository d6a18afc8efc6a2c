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
)

// CsReplacementPolicy represents a cache replacement policy for the Content Store.
type CsReplacementPolicy interface {
	// AfterInsert is called after a new entry is inserted into the Content Store.
	// Returning false refuses the entry, which is then removed again.
	AfterInsert(index uint64, data *ndn.Data) bool

	// AfterRefresh is called after a new data packet refreshes an existing entry in the Content Store.
	AfterRefresh(index uint64, data *ndn.Data)

	// BeforeErase is called before an entry is erased from the Content Store other than by eviction.
	BeforeErase(index uint64, data *ndn.Data)

	// BeforeUse is called before an entry in the Content Store is used to satisfy a pending Interest.
	BeforeUse(index uint64, data *ndn.Data)

	// EvictEntries is called to instruct the policy to evict enough entries to reduce the Content Store size below its size limit.
	EvictEntries()
}

// newReplacementPolicy creates the named policy for the specified Content Store.
func newReplacementPolicy(cs *ContentStore, name string, rng *rngstream.RngStream) (CsReplacementPolicy, error) {
	switch name {
	case "lru":
		return NewCsLRU(cs), nil
	case "fifo":
		return NewCsFIFO(cs), nil
	case "lfu":
		return NewCsLFU(cs), nil
	case "random":
		return NewCsRandom(cs, rng), nil
	default:
		return nil, core.ErrUnknownPolicy
	}
}
