/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package table

import (
	"encoding/binary"
	"time"

	"github.com/cespare/xxhash"
	"github.com/named-data/hobhis/ndn"
	"github.com/named-data/hobhis/sched"
	"github.com/named-data/hobhis/utils/priority_queue"
)

// DeadNonceList remembers name and nonce pairs of Interests whose PIT entry is gone.
type DeadNonceList struct {
	list            map[uint64]bool
	expirationQueue priority_queue.Queue[uint64, time.Duration]
	lifetime        time.Duration
	scheduler       sched.Scheduler
	cleanup         sched.EventID
}

// NewDeadNonceList creates a new Dead Nonce List.
func NewDeadNonceList(scheduler sched.Scheduler) *DeadNonceList {
	d := new(DeadNonceList)
	d.list = make(map[uint64]bool)
	d.expirationQueue = priority_queue.New[uint64, time.Duration]()
	d.lifetime = deadNonceListLifetime()
	d.scheduler = scheduler
	return d
}

func hashNameNonce(name *ndn.Name, nonce uint32) uint64 {
	var buf [12]byte
	binary.BigEndian.PutUint64(buf[:8], name.Hash())
	binary.BigEndian.PutUint32(buf[8:], nonce)
	return xxhash.Sum64(buf[:])
}

// Find returns whether the specified name and nonce combination are present in the Dead Nonce List.
func (d *DeadNonceList) Find(name *ndn.Name, nonce uint32) bool {
	_, ok := d.list[hashNameNonce(name, nonce)]
	return ok
}

// Insert inserts an entry in the Dead Nonce List with the specified name and nonce.
// Returns whether nonce already present.
func (d *DeadNonceList) Insert(name *ndn.Name, nonce uint32) bool {
	hash := hashNameNonce(name, nonce)
	_, exists := d.list[hash]

	if !exists {
		d.list[hash] = true
		d.expirationQueue.Push(hash, d.scheduler.Now()+d.lifetime)
		if !d.scheduler.IsPending(d.cleanup) {
			d.cleanup = d.scheduler.Schedule(d.lifetime, d.RemoveExpiredEntries)
		}
	}
	return exists
}

// Len returns the number of entries in the Dead Nonce List.
func (d *DeadNonceList) Len() int {
	return len(d.list)
}

// RemoveExpiredEntries removes all expired entries from the Dead Nonce List and schedules the next pass.
func (d *DeadNonceList) RemoveExpiredEntries() {
	now := d.scheduler.Now()
	for d.expirationQueue.Len() > 0 && d.expirationQueue.PeekPriority() <= now {
		hash := d.expirationQueue.Pop()
		delete(d.list, hash)
	}
	if d.expirationQueue.Len() > 0 && !d.scheduler.IsPending(d.cleanup) {
		d.cleanup = d.scheduler.Schedule(d.expirationQueue.PeekPriority()-now, d.RemoveExpiredEntries)
	}
}
