/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package table

import (
	"time"

	"github.com/named-data/hobhis/core"
	"github.com/named-data/hobhis/ndn"
	"github.com/named-data/hobhis/sched"
	"golang.org/x/exp/slices"
)

// PitInRecord records an incoming Interest on a given face.
type PitInRecord struct {
	Face    uint64
	Arrival time.Duration
}

// PitOutRecord records an outgoing Interest on a given face.
type PitOutRecord struct {
	Face          uint64
	SendTime      time.Duration
	RetxCount     int
	Nonce         uint32
	WaitingInVain bool
}

// PitEntry is an entry in a node's PIT.
type PitEntry struct {
	pit  *Pit
	name *ndn.Name

	inRecords  map[uint64]*PitInRecord  // Key is face ID
	outRecords map[uint64]*PitOutRecord // Key is face ID
	nonces     map[uint32]struct{}

	maxRetxCount int
	expiry       time.Duration
	erased       bool

	expiryEvent sched.EventID
	pruneEvent  sched.EventID
}

// Pit is the Pending Interest Table of a node. Entries are keyed by exact name.
type Pit struct {
	opts      PitOptions
	scheduler sched.Scheduler
	entries   map[uint64][]*PitEntry // Key is name hash
	size      int

	// OnTimeout is called before an entry whose lifetime elapsed is removed.
	OnTimeout func(entry *PitEntry)
}

// NewPit creates a new Pending Interest Table driven by the specified scheduler.
func NewPit(opts PitOptions, scheduler sched.Scheduler) (*Pit, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	p := new(Pit)
	p.opts = opts
	p.scheduler = scheduler
	p.entries = make(map[uint64][]*PitEntry)
	return p, nil
}

func (p *Pit) String() string {
	return "Pit"
}

// Size returns the number of entries in the PIT, including erased entries awaiting pruning.
func (p *Pit) Size() int {
	return p.size
}

// Lookup returns the entry with exactly the specified name, erased or not, or nil if none exists.
func (p *Pit) Lookup(name *ndn.Name) *PitEntry {
	for _, entry := range p.entries[name.Hash()] {
		if entry.name.Equals(name) {
			return entry
		}
	}
	return nil
}

// LookupPending returns the entry with the specified name only if it is live and still has incoming faces.
func (p *Pit) LookupPending(name *ndn.Name) *PitEntry {
	entry := p.Lookup(name)
	if entry == nil || entry.erased || len(entry.inRecords) == 0 {
		return nil
	}
	return entry
}

// Create inserts a new entry for the specified name. It returns nil if an entry for the name already exists or the table is full.
func (p *Pit) Create(name *ndn.Name) *PitEntry {
	if p.Lookup(name) != nil {
		return nil
	}
	if p.opts.MaxEntries > 0 && p.size >= p.opts.MaxEntries {
		core.LogDebug(p, "Unable to create entry for ", name, ": table full")
		return nil
	}

	entry := new(PitEntry)
	entry.pit = p
	entry.name = name
	entry.inRecords = make(map[uint64]*PitInRecord)
	entry.outRecords = make(map[uint64]*PitOutRecord)
	entry.nonces = make(map[uint32]struct{})
	entry.expiry = p.scheduler.Now()

	hash := name.Hash()
	p.entries[hash] = append(p.entries[hash], entry)
	p.size++
	return entry
}

// MarkErased flags the entry as satisfied or exhausted and schedules its removal after the pruning timeout.
func (p *Pit) MarkErased(entry *PitEntry) {
	if entry.erased {
		return
	}
	entry.erased = true
	p.scheduler.Cancel(entry.expiryEvent)
	entry.pruneEvent = p.scheduler.Schedule(p.opts.PruningTimeout, func() {
		p.Erase(entry)
	})
}

// Revive makes an erased entry pending again and cancels its pruning. The caller must schedule a
// new lifetime or erase the entry again.
func (p *Pit) Revive(entry *PitEntry) {
	if !entry.erased {
		return
	}
	entry.erased = false
	p.scheduler.Cancel(entry.pruneEvent)
}

// Erase removes the entry from the table immediately.
func (p *Pit) Erase(entry *PitEntry) {
	hash := entry.name.Hash()
	bucket := p.entries[hash]
	for i, candidate := range bucket {
		if candidate != entry {
			continue
		}
		bucket = slices.Delete(bucket, i, i+1)
		if len(bucket) == 0 {
			delete(p.entries, hash)
		} else {
			p.entries[hash] = bucket
		}
		p.size--
		p.scheduler.Cancel(entry.expiryEvent)
		p.scheduler.Cancel(entry.pruneEvent)
		return
	}
}

// RemoveFace strips the specified face from the records of every entry.
func (p *Pit) RemoveFace(face uint64) {
	for _, bucket := range p.entries {
		for _, entry := range bucket {
			delete(entry.inRecords, face)
			delete(entry.outRecords, face)
		}
	}
}

func (p *Pit) expire(entry *PitEntry) {
	core.LogTrace(p, "Entry ", entry.name, " expired")
	if p.OnTimeout != nil {
		p.OnTimeout(entry)
	}
	p.Erase(entry)
}

///////////////////
// Entry methods //
///////////////////

func (e *PitEntry) String() string {
	return "PitEntry(" + e.name.String() + ")"
}

// Name returns the name of the entry.
func (e *PitEntry) Name() *ndn.Name {
	return e.name
}

// IsErased returns whether the entry has been satisfied or exhausted and awaits pruning.
func (e *PitEntry) IsErased() bool {
	return e.erased
}

// ExpiryTime returns the simulated time at which the entry times out.
func (e *PitEntry) ExpiryTime() time.Duration {
	return e.expiry
}

// InRecords returns the incoming records of the entry.
func (e *PitEntry) InRecords() map[uint64]*PitInRecord {
	return e.inRecords
}

// OutRecords returns the outgoing records of the entry.
func (e *PitEntry) OutRecords() map[uint64]*PitOutRecord {
	return e.outRecords
}

// InFaces returns the incoming face IDs in ascending order.
func (e *PitEntry) InFaces() []uint64 {
	faces := make([]uint64, 0, len(e.inRecords))
	for face := range e.inRecords {
		faces = append(faces, face)
	}
	slices.Sort(faces)
	return faces
}

// AddIncoming records an Interest arrival on the specified face. Returns whether the face is new.
func (e *PitEntry) AddIncoming(face uint64) bool {
	if _, ok := e.inRecords[face]; ok {
		return false
	}
	e.inRecords[face] = &PitInRecord{Face: face, Arrival: e.pit.scheduler.Now()}
	return true
}

// RemoveIncoming removes the incoming record for the specified face.
func (e *PitEntry) RemoveIncoming(face uint64) {
	delete(e.inRecords, face)
}

// ClearIncoming removes all incoming records.
func (e *PitEntry) ClearIncoming() {
	e.inRecords = make(map[uint64]*PitInRecord)
}

// HasIncoming returns whether the specified face has an incoming record.
func (e *PitEntry) HasIncoming(face uint64) bool {
	_, ok := e.inRecords[face]
	return ok
}

// AddOutgoing records an Interest sent on the specified face. Sending again on the same face counts as a retransmission.
func (e *PitEntry) AddOutgoing(face uint64, nonce uint32) *PitOutRecord {
	now := e.pit.scheduler.Now()
	if record, ok := e.outRecords[face]; ok {
		record.RetxCount++
		record.SendTime = now
		record.Nonce = nonce
		record.WaitingInVain = false
		return record
	}
	record := &PitOutRecord{Face: face, SendTime: now, Nonce: nonce}
	e.outRecords[face] = record
	return record
}

// RemoveOutgoing removes the outgoing record for the specified face.
func (e *PitEntry) RemoveOutgoing(face uint64) {
	delete(e.outRecords, face)
}

// ClearOutgoing removes all outgoing records.
func (e *PitEntry) ClearOutgoing() {
	e.outRecords = make(map[uint64]*PitOutRecord)
}

// HasOutgoing returns whether the specified face has an outgoing record.
func (e *PitEntry) HasOutgoing(face uint64) bool {
	_, ok := e.outRecords[face]
	return ok
}

// AddSeenNonce remembers the nonce for loop detection.
func (e *PitEntry) AddSeenNonce(nonce uint32) {
	e.nonces[nonce] = struct{}{}
}

// IsNonceSeen returns whether the nonce was already seen by this entry.
func (e *PitEntry) IsNonceSeen(nonce uint32) bool {
	_, ok := e.nonces[nonce]
	return ok
}

// SetWaitingInVain marks the outgoing record of the specified face as not expected to bring Data.
func (e *PitEntry) SetWaitingInVain(face uint64) {
	if record, ok := e.outRecords[face]; ok {
		record.WaitingInVain = true
	}
}

// AreAllOutgoingInVain returns whether no outgoing face is still expected to bring Data. True if there are no outgoing records.
func (e *PitEntry) AreAllOutgoingInVain() bool {
	for _, record := range e.outRecords {
		if !record.WaitingInVain {
			return false
		}
	}
	return true
}

// AreTherePromisingOutgoingFacesExcept returns whether a face other than the specified one is still expected to bring Data.
func (e *PitEntry) AreTherePromisingOutgoingFacesExcept(face uint64) bool {
	for _, record := range e.outRecords {
		if record.Face != face && !record.WaitingInVain {
			return true
		}
	}
	return false
}

// MaxRetxCount returns the number of retransmissions currently allowed per outgoing face.
func (e *PitEntry) MaxRetxCount() int {
	return e.maxRetxCount
}

// IncreaseAllowedRetxCount allows one more retransmission per outgoing face.
func (e *PitEntry) IncreaseAllowedRetxCount() {
	e.maxRetxCount++
}

// UpdateLifetime extends the expiry of the entry to now+lifetime. The expiry is never moved earlier.
func (e *PitEntry) UpdateLifetime(lifetime time.Duration) {
	if lifetime <= 0 {
		lifetime = DefaultInterestLifetime
	}
	scheduler := e.pit.scheduler
	expiry := scheduler.Now() + lifetime
	if expiry <= e.expiry && scheduler.IsPending(e.expiryEvent) {
		return
	}
	e.expiry = expiry
	scheduler.Cancel(e.expiryEvent)
	e.expiryEvent = scheduler.Schedule(lifetime, func() {
		e.pit.expire(e)
	})
}
