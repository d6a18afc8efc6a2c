/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

// Package fw contains the forwarding pipelines of a node and its forwarding strategies.
package fw

import (
	"github.com/iti/rngstream"
	"github.com/named-data/hobhis/core"
	"github.com/named-data/hobhis/face"
	"github.com/named-data/hobhis/ndn"
	"github.com/named-data/hobhis/sched"
	"github.com/named-data/hobhis/table"
	"github.com/named-data/hobhis/trace"
)

// Pipeline holds the forwarding steps a decorator may extend. Steps call each other through
// the outermost Pipeline of the forwarder, so a decorator sees every invocation.
type Pipeline interface {
	OnInterest(inFace face.Face, interest *ndn.Interest)
	OnNack(inFace face.Face, nack *ndn.Interest)
	DidReceiveDuplicateInterest(inFace face.Face, interest *ndn.Interest, pitEntry *table.PitEntry)
	DidExhaustForwardingOptions(inFace face.Face, interest *ndn.Interest, pitEntry *table.PitEntry)
}

// Forwarder is the network layer of a node: it owns the node's faces and tables and runs
// the forwarding pipelines for every packet they receive.
type Forwarder struct {
	node      string
	opts      Options
	scheduler sched.Scheduler

	faces         *face.Table
	pit           *table.Pit
	fib           *table.Fib
	cs            *table.ContentStore
	measurements  *table.Measurements
	deadNonceList *table.DeadNonceList

	strategy Strategy
	pipeline Pipeline
	counters *trace.NodeCounters
}

// NewForwarder creates the forwarder of the named node. Its counters are registered in metrics.
// rng feeds the random Content Store policy.
func NewForwarder(node string, opts Options, scheduler sched.Scheduler, metrics *trace.Metrics, rng *rngstream.RngStream) (*Forwarder, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	f := new(Forwarder)
	f.node = node
	f.opts = opts
	f.scheduler = scheduler
	f.counters = metrics.Node(node)
	f.faces = face.NewTable(node)
	f.fib = table.NewFib()
	f.measurements = table.NewMeasurements()
	f.deadNonceList = table.NewDeadNonceList(scheduler)

	var err error
	if f.pit, err = table.NewPit(opts.Pit, scheduler); err != nil {
		return nil, err
	}
	f.pit.OnTimeout = f.willEraseTimedOutPendingInterest
	if f.cs, err = table.NewContentStore(opts.Cs, scheduler, rng); err != nil {
		return nil, err
	}
	f.cs.WillRemoveEntry = func(*ndn.Data) {
		f.counters.CsEvictions++
	}

	if f.strategy, err = InstantiateStrategy(opts.Strategy, f); err != nil {
		return nil, err
	}
	f.pipeline = NewNacks(&basePipeline{f}, f, opts.EnableNacks)
	return f, nil
}

func (f *Forwarder) String() string {
	return "Forwarder-" + f.node
}

// Node returns the name of the node.
func (f *Forwarder) Node() string {
	return f.node
}

// Faces returns the face table of the node.
func (f *Forwarder) Faces() *face.Table {
	return f.faces
}

// Pit returns the Pending Interest Table of the node.
func (f *Forwarder) Pit() *table.Pit {
	return f.pit
}

// Fib returns the Forwarding Information Base of the node.
func (f *Forwarder) Fib() *table.Fib {
	return f.fib
}

// Cs returns the Content Store of the node.
func (f *Forwarder) Cs() *table.ContentStore {
	return f.cs
}

// Measurements returns the measurements table of the node.
func (f *Forwarder) Measurements() *table.Measurements {
	return f.measurements
}

// DeadNonceList returns the dead nonce list of the node.
func (f *Forwarder) DeadNonceList() *table.DeadNonceList {
	return f.deadNonceList
}

// Strategy returns the forwarding strategy of the node.
func (f *Forwarder) Strategy() Strategy {
	return f.strategy
}

// Counters returns the counters of the node.
func (f *Forwarder) Counters() *trace.NodeCounters {
	return f.counters
}

// SetPipeline replaces the outermost pipeline, so that further decorators can wrap the current one.
func (f *Forwarder) SetPipeline(pipeline Pipeline) {
	f.pipeline = pipeline
}

// Pipeline returns the outermost pipeline.
func (f *Forwarder) Pipeline() Pipeline {
	return f.pipeline
}

// AddFace registers the face with the node and starts receiving from it.
func (f *Forwarder) AddFace(newFace face.Face) uint64 {
	id := f.faces.Add(newFace)
	newFace.RegisterProtocolHandler(f.Receive)
	return id
}

// RemoveFace removes the face from the node and from every table entry referencing it.
func (f *Forwarder) RemoveFace(id uint64) {
	oldFace := f.faces.Get(id)
	if oldFace == nil {
		return
	}
	oldFace.RegisterProtocolHandler(nil)
	f.pit.RemoveFace(id)
	f.fib.RemoveFace(id)
	f.faces.Remove(id)
}

// AddRoute adds a nexthop for the prefix to the FIB.
func (f *Forwarder) AddRoute(prefix *ndn.Name, faceID uint64, cost uint64) *table.FibEntry {
	core.LogDebug(f, "Adding route ", prefix, " via FaceID=", faceID, " cost=", cost)
	return f.fib.Add(prefix, faceID, cost)
}

// Receive dispatches a packet received on a face to the forwarding pipelines.
func (f *Forwarder) Receive(inFace face.Face, packet *ndn.Packet) {
	if f.faces.Get(inFace.ID()) != inFace {
		core.LogError(f, "Packet from unknown face ", inFace, " - DROP")
		f.counters.Malformed++
		return
	}
	switch {
	case packet.Interest != nil:
		f.pipeline.OnInterest(inFace, packet.Interest)
	case packet.Data != nil:
		f.onData(inFace, packet.Data)
	default:
		core.LogError(f, "Empty packet from ", inFace, " - DROP")
		f.counters.Malformed++
	}
}

func (f *Forwarder) faceCounters(inFace face.Face) *trace.FaceCounters {
	if inFace == nil {
		return f.counters.Face(0)
	}
	return f.counters.Face(inFace.ID())
}

////////////////////
// Base pipeline  //
////////////////////

// basePipeline runs the forwarding steps without NACK support.
type basePipeline struct {
	f *Forwarder
}

// OnInterest runs the incoming Interest pipeline.
func (p *basePipeline) OnInterest(inFace face.Face, interest *ndn.Interest) {
	p.f.onInterest(inFace, interest)
}

// OnNack drops the NACK, since the base pipeline does not act upon them.
func (p *basePipeline) OnNack(inFace face.Face, nack *ndn.Interest) {
	counters := p.f.faceCounters(inFace)
	counters.InNacks++
	counters.DropNacks++
}

// DidReceiveDuplicateInterest records the face and drops the Interest.
func (p *basePipeline) DidReceiveDuplicateInterest(inFace face.Face, interest *ndn.Interest, pitEntry *table.PitEntry) {
	// An erased entry only remembers nonces until it is pruned
	if pitEntry != nil && !pitEntry.IsErased() {
		pitEntry.AddIncoming(inFace.ID())
	}
	core.LogDebug(p.f, "Interest ", interest.Name(), " with nonce ", interest.Nonce(), " is looping - DROP")
	p.f.faceCounters(inFace).DropInterests++
}

// DidExhaustForwardingOptions gives up on the entry once no upstream is expected to answer.
func (p *basePipeline) DidExhaustForwardingOptions(inFace face.Face, interest *ndn.Interest, pitEntry *table.PitEntry) {
	if !pitEntry.AreAllOutgoingInVain() {
		return
	}
	core.LogDebug(p.f, "No forwarding options left for ", interest.Name(), " - DROP")
	p.f.faceCounters(inFace).DropInterests++
	pitEntry.ClearIncoming()
	pitEntry.ClearOutgoing()
	p.f.pit.MarkErased(pitEntry)
}

/////////////////////
// Interest steps  //
/////////////////////

func (f *Forwarder) onInterest(inFace face.Face, interest *ndn.Interest) {
	core.LogTrace(f, "OnIncomingInterest: ", interest.Name(), ", FaceID=", inFace.ID())
	f.faceCounters(inFace).InInterests++

	pitEntry := f.pit.Lookup(interest.Name())
	similarInterest := true
	if pitEntry == nil {
		similarInterest = false
		if f.deadNonceList.Find(interest.Name(), interest.Nonce()) {
			f.pipeline.DidReceiveDuplicateInterest(inFace, interest, nil)
			return
		}
		pitEntry = f.pit.Create(interest.Name())
		if pitEntry == nil {
			f.failedToCreatePitEntry(inFace, interest)
			return
		}
		core.LogTrace(f, "Created PIT entry for ", interest.Name())
	}

	if pitEntry.IsNonceSeen(interest.Nonce()) {
		f.pipeline.DidReceiveDuplicateInterest(inFace, interest, pitEntry)
		return
	}
	pitEntry.AddSeenNonce(interest.Nonce())
	f.pit.Revive(pitEntry)

	if data := f.cs.Lookup(interest.Name()); data != nil {
		core.LogTrace(f, "Content Store hit for ", interest.Name())
		f.counters.CsHits++
		pitEntry.AddIncoming(inFace.ID())
		f.willSatisfyPendingInterest(nil, pitEntry)
		f.satisfyPendingInterest(nil, data, pitEntry)
		return
	}
	f.counters.CsMisses++

	if similarInterest && f.shouldSuppressIncomingInterest(inFace, pitEntry) {
		pitEntry.AddIncoming(inFace.ID())
		pitEntry.UpdateLifetime(interest.Lifetime())
		core.LogTrace(f, "Suppressing similar Interest ", interest.Name())
		f.faceCounters(inFace).DropInterests++
		return
	}

	f.propagateInterest(inFace, interest, pitEntry)
}

func (f *Forwarder) failedToCreatePitEntry(inFace face.Face, interest *ndn.Interest) {
	core.LogDebug(f, "Unable to create PIT entry for ", interest.Name(), " - DROP")
	f.counters.PitFailures++
	f.faceCounters(inFace).DropInterests++
}

// detectRetransmittedInterest considers an Interest arriving again on an incoming face a retransmission.
func (f *Forwarder) detectRetransmittedInterest(inFace face.Face, pitEntry *table.PitEntry) bool {
	return f.opts.DetectRetransmissions && pitEntry.HasIncoming(inFace.ID())
}

func (f *Forwarder) shouldSuppressIncomingInterest(inFace face.Face, pitEntry *table.PitEntry) bool {
	isNew := len(pitEntry.InRecords()) == 0 && len(pitEntry.OutRecords()) == 0
	if isNew {
		return false
	}
	if pitEntry.HasOutgoing(inFace.ID()) {
		// A new Interest from a face we are expecting Data from
		return false
	}
	return !f.detectRetransmittedInterest(inFace, pitEntry)
}

func (f *Forwarder) propagateInterest(inFace face.Face, interest *ndn.Interest, pitEntry *table.PitEntry) {
	isRetransmitted := f.detectRetransmittedInterest(inFace, pitEntry)

	pitEntry.AddIncoming(inFace.ID())
	pitEntry.UpdateLifetime(interest.Lifetime())

	propagated := f.strategy.DoPropagateInterest(inFace, interest, pitEntry)
	if !propagated && isRetransmitted {
		pitEntry.IncreaseAllowedRetxCount()
		propagated = f.strategy.DoPropagateInterest(inFace, interest, pitEntry)
	}

	if !propagated && pitEntry.AreAllOutgoingInVain() {
		f.pipeline.DidExhaustForwardingOptions(inFace, interest, pitEntry)
	}
}

// CanSendOutInterest returns whether the Interest may be sent on outFace.
func (f *Forwarder) CanSendOutInterest(inFace face.Face, outFace face.Face, pitEntry *table.PitEntry) bool {
	if outFace == inFace || !outFace.IsUp() {
		return false
	}
	if record, ok := pitEntry.OutRecords()[outFace.ID()]; ok {
		if !f.opts.DetectRetransmissions {
			return false
		}
		if record.RetxCount >= pitEntry.MaxRetxCount() {
			// Already forwarded during this retransmission cycle
			return false
		}
	}
	return true
}

// TrySendOutInterest sends the Interest on outFace if allowed, recording the out-record and the
// shaping state of the flow.
func (f *Forwarder) TrySendOutInterest(inFace face.Face, outFace face.Face, interest *ndn.Interest, pitEntry *table.PitEntry) bool {
	if !f.CanSendOutInterest(inFace, outFace, pitEntry) {
		return false
	}

	flow := interest.Name().Cut(1)
	downstream, isShapingDownstream := inFace.(*face.HobhisFace)
	isShapingDownstream = isShapingDownstream && downstream.IsShaping()
	upstream, isHobhisUpstream := outFace.(*face.HobhisFace)
	if isShapingDownstream && isHobhisUpstream {
		upstream.SetInFaceBW(flow, downstream.Capacity())
	}

	if !outFace.Send(ndn.InterestPacket(interest)) {
		core.LogTrace(f, "FaceID=", outFace.ID(), " refused Interest ", interest.Name())
		f.faceCounters(outFace).DropInterests++
		return false
	}
	pitEntry.AddOutgoing(outFace.ID(), interest.Nonce())

	if isShapingDownstream && isHobhisUpstream {
		upstream.TrackFlow(flow, downstream)
	}

	core.LogTrace(f, "OnOutgoingInterest: ", interest.Name(), ", FaceID=", outFace.ID())
	f.faceCounters(outFace).OutInterests++
	return true
}

func (f *Forwarder) willEraseTimedOutPendingInterest(pitEntry *table.PitEntry) {
	if pitEntry.IsErased() {
		return
	}
	core.LogDebug(f, "PIT entry ", pitEntry.Name(), " timed out")
	for _, inFace := range pitEntry.InFaces() {
		f.counters.Face(inFace).TimedOutInterests++
	}
	fibEntry := f.fib.LongestPrefixMatch(pitEntry.Name())
	for faceID, record := range pitEntry.OutRecords() {
		f.deadNonceList.Insert(pitEntry.Name(), record.Nonce)
		if fibEntry == nil {
			continue
		}
		if metric := fibEntry.Nexthop(faceID); metric != nil && metric.Status == table.FaceGreen {
			metric.Status = table.FaceYellow
		}
	}
}

/////////////////
// Data steps  //
/////////////////

func (f *Forwarder) onData(inFace face.Face, data *ndn.Data) {
	core.LogTrace(f, "OnIncomingData: ", data.Name(), ", FaceID=", inFace.ID())
	f.faceCounters(inFace).InData++

	pitEntry := f.pit.LookupPending(data.Name())
	if pitEntry == nil {
		f.didReceiveUnsolicitedData(inFace, data)
		return
	}

	f.cs.Add(data)
	for pitEntry != nil {
		f.willSatisfyPendingInterest(inFace, pitEntry)
		f.satisfyPendingInterest(inFace, data, pitEntry)
		pitEntry = f.pit.LookupPending(data.Name())
	}

	if shaper, ok := inFace.(*face.HobhisFace); ok && shaper.IsShaping() {
		shaper.SampleRtt(data.Name())
	}
}

func (f *Forwarder) didReceiveUnsolicitedData(inFace face.Face, data *ndn.Data) {
	if f.opts.CacheUnsolicitedData {
		core.LogTrace(f, "Caching unsolicited Data ", data.Name())
		f.cs.Add(data)
		return
	}
	core.LogDebug(f, "Unsolicited Data ", data.Name(), " - DROP")
	f.faceCounters(inFace).DropData++
}

// willSatisfyPendingInterest updates the FIB measurements of the face the Data arrived on. inFace
// is nil for Content Store hits.
func (f *Forwarder) willSatisfyPendingInterest(inFace face.Face, pitEntry *table.PitEntry) {
	if inFace == nil {
		return
	}
	record, ok := pitEntry.OutRecords()[inFace.ID()]
	if !ok {
		return
	}
	if fibEntry := f.fib.LongestPrefixMatch(pitEntry.Name()); fibEntry != nil {
		fibEntry.UpdateRtt(inFace.ID(), f.scheduler.Now()-record.SendTime)
		fibEntry.UpdateStatus(inFace.ID(), table.FaceGreen)
	}
}

// satisfyPendingInterest sends the Data to every downstream of the entry and erases it.
func (f *Forwarder) satisfyPendingInterest(inFace face.Face, data *ndn.Data, pitEntry *table.PitEntry) {
	if inFace != nil {
		pitEntry.RemoveIncoming(inFace.ID())
	}

	packet := ndn.DataPacket(data)
	for _, faceID := range pitEntry.InFaces() {
		counters := f.counters.Face(faceID)
		outFace := f.faces.Get(faceID)
		if outFace == nil || !outFace.Send(packet) {
			core.LogDebug(f, "Cannot satisfy ", data.Name(), " on FaceID=", faceID)
			counters.DropData++
			continue
		}
		core.LogTrace(f, "OnOutgoingData: ", data.Name(), ", FaceID=", faceID)
		counters.OutData++
		counters.SatisfiedInterests++
	}

	for _, record := range pitEntry.OutRecords() {
		f.deadNonceList.Insert(pitEntry.Name(), record.Nonce)
	}
	pitEntry.ClearIncoming()
	pitEntry.ClearOutgoing()
	f.pit.MarkErased(pitEntry)
}
