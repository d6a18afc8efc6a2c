/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package fw

import (
	"github.com/named-data/hobhis/core"
	"github.com/named-data/hobhis/face"
	"github.com/named-data/hobhis/ndn"
	"github.com/named-data/hobhis/table"
)

// Nacks extends a pipeline with Interest NACKs: loops and exhausted entries are reported
// downstream, and NACKs received from upstream let the entry try other nexthops.
// When disabled, it passes every step to the wrapped pipeline unchanged.
type Nacks struct {
	Pipeline
	f       *Forwarder
	enabled bool
}

// NewNacks wraps the pipeline.
func NewNacks(inner Pipeline, forwarder *Forwarder, enabled bool) *Nacks {
	return &Nacks{Pipeline: inner, f: forwarder, enabled: enabled}
}

func (n *Nacks) String() string {
	return "Nacks-" + n.f.node
}

// Enabled returns whether NACKs are generated and processed.
func (n *Nacks) Enabled() bool {
	return n.enabled
}

// OnInterest sends NACKs to the NACK pipeline and normal Interests to the wrapped one.
func (n *Nacks) OnInterest(inFace face.Face, interest *ndn.Interest) {
	if interest.IsNack() {
		n.f.pipeline.OnNack(inFace, interest)
		return
	}
	n.Pipeline.OnInterest(inFace, interest)
}

// OnNack looks up the pending entry the NACK refers to.
func (n *Nacks) OnNack(inFace face.Face, nack *ndn.Interest) {
	if !n.enabled {
		n.Pipeline.OnNack(inFace, nack)
		return
	}
	counters := n.f.faceCounters(inFace)
	counters.InNacks++

	pitEntry := n.f.pit.LookupPending(nack.Name())
	if pitEntry == nil {
		core.LogDebug(n, "NACK ", nack.Name(), " without pending Interest - DROP")
		counters.DropNacks++
		return
	}
	n.didReceiveValidNack(inFace, nack, pitEntry)
}

// DidReceiveDuplicateInterest reports the loop back to the downstream face.
func (n *Nacks) DidReceiveDuplicateInterest(inFace face.Face, interest *ndn.Interest, pitEntry *table.PitEntry) {
	n.Pipeline.DidReceiveDuplicateInterest(inFace, interest, pitEntry)
	if !n.enabled {
		return
	}
	nack := interest.Copy()
	nack.SetNack(ndn.NackLoop)
	n.sendNack(inFace, nack)
}

// DidExhaustForwardingOptions tells every downstream face that the entry is given up.
func (n *Nacks) DidExhaustForwardingOptions(inFace face.Face, interest *ndn.Interest, pitEntry *table.PitEntry) {
	if n.enabled {
		nack := interest.Copy()
		nack.SetNack(ndn.NackGiveUpPit)
		for _, faceID := range pitEntry.InFaces() {
			if downstream := n.f.faces.Get(faceID); downstream != nil {
				n.sendNack(downstream, nack)
			}
		}
		pitEntry.ClearOutgoing()
	}
	n.Pipeline.DidExhaustForwardingOptions(inFace, interest, pitEntry)
}

func (n *Nacks) sendNack(outFace face.Face, nack *ndn.Interest) {
	core.LogTrace(n, "Sending NACK ", nack.Nack(), " for ", nack.Name(), " on FaceID=", outFace.ID())
	if !outFace.Send(ndn.InterestPacket(nack)) {
		n.f.faceCounters(outFace).DropNacks++
		return
	}
	n.f.faceCounters(outFace).OutNacks++
}

func (n *Nacks) didReceiveValidNack(inFace face.Face, nack *ndn.Interest, pitEntry *table.PitEntry) {
	switch nack.Nack() {
	case ndn.NackGiveUpPit:
		pitEntry.RemoveIncoming(inFace.ID())
		fallthrough
	case ndn.NackLoop, ndn.NackCongestion:
		pitEntry.SetWaitingInVain(inFace.ID())
	default:
		core.LogDebug(n, "Unknown NACK code ", nack.Nack(), " for ", nack.Name(), " - DROP")
		n.f.faceCounters(inFace).DropNacks++
		return
	}

	if !pitEntry.AreAllOutgoingInVain() {
		core.LogTrace(n, "Other upstreams of ", nack.Name(), " are still promising")
		n.f.faceCounters(inFace).DropNacks++
		return
	}

	// Try the remaining nexthops with a normal Interest
	interest := nack.Copy()
	interest.SetNack(ndn.NormalInterest)
	if !n.f.strategy.DoPropagateInterest(inFace, interest, pitEntry) {
		n.f.pipeline.DidExhaustForwardingOptions(inFace, interest, pitEntry)
	}
}
