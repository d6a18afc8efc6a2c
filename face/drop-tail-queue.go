/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package face

import (
	"github.com/named-data/hobhis/ndn"
)

type frame struct {
	packet *ndn.Packet
	wire   []byte
}

type flowCount struct {
	flow  *ndn.Name
	count uint32
}

// NdnDropTailQueue is the transmit queue of a link. It tail-drops Data and Interests beyond
// MaxPackets, lets NACKs through and counts queued Data per flow.
type NdnDropTailQueue struct {
	maxPackets uint32
	frames     []frame
	bytes      int
	dataQueued uint32
	perFlow    map[uint64]*flowCount // Key is flow name hash
	drops      uint64
}

// NewNdnDropTailQueue creates a queue holding at most maxPackets packets.
func NewNdnDropTailQueue(maxPackets uint32) *NdnDropTailQueue {
	q := new(NdnDropTailQueue)
	q.maxPackets = maxPackets
	q.perFlow = make(map[uint64]*flowCount)
	return q
}

func flowOf(name *ndn.Name) *ndn.Name {
	return name.Cut(1)
}

// Enqueue appends the packet, returning false if it was dropped.
func (q *NdnDropTailQueue) Enqueue(packet *ndn.Packet, wire []byte) bool {
	isNack := packet.Interest != nil && packet.Interest.IsNack()
	if !isNack && uint32(len(q.frames)) >= q.maxPackets {
		q.drops++
		return false
	}

	q.frames = append(q.frames, frame{packet: packet, wire: wire})
	q.bytes += len(wire)
	if packet.Data != nil {
		q.dataQueued++
		flow := flowOf(packet.Data.Name())
		hash := flow.Hash()
		if fc, ok := q.perFlow[hash]; ok {
			if fc.count+1 <= q.maxPackets {
				fc.count++
			}
		} else {
			q.perFlow[hash] = &flowCount{flow: flow, count: 1}
		}
	}
	return true
}

// Dequeue removes and returns the head of the queue.
func (q *NdnDropTailQueue) Dequeue() (*ndn.Packet, []byte, bool) {
	if len(q.frames) == 0 {
		return nil, nil, false
	}
	head := q.frames[0]
	q.frames[0] = frame{}
	q.frames = q.frames[1:]
	q.bytes -= len(head.wire)
	if head.packet.Data != nil {
		q.dataQueued--
		if fc, ok := q.perFlow[flowOf(head.packet.Data.Name()).Hash()]; ok && fc.count != 0 {
			fc.count--
		}
	}
	return head.packet, head.wire, true
}

// Len returns the number of queued packets.
func (q *NdnDropTailQueue) Len() uint32 {
	return uint32(len(q.frames))
}

// Bytes returns the number of queued bytes.
func (q *NdnDropTailQueue) Bytes() int {
	return q.bytes
}

// QueueSizePerFlow returns the number of queued Data packets of the flow.
func (q *NdnDropTailQueue) QueueSizePerFlow(flow *ndn.Name) uint32 {
	if fc, ok := q.perFlow[flow.Hash()]; ok {
		return fc.count
	}
	return 0
}

// DataQueueLength returns the number of queued Data packets.
func (q *NdnDropTailQueue) DataQueueLength() uint32 {
	return q.dataQueued
}

// FlowNumber returns the number of flows whose Data has passed through the queue.
func (q *NdnDropTailQueue) FlowNumber() int {
	return len(q.perFlow)
}

// MaxChunks returns the capacity of the queue in packets.
func (q *NdnDropTailQueue) MaxChunks() uint32 {
	return q.maxPackets
}

// Drops returns the number of packets dropped at the tail.
func (q *NdnDropTailQueue) Drops() uint64 {
	return q.drops
}
