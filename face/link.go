/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package face

import (
	"strconv"
	"time"

	"github.com/named-data/hobhis/core"
	"github.com/named-data/hobhis/ndn"
	"github.com/named-data/hobhis/sched"
)

// LinkOptions configures a point-to-point link.
type LinkOptions struct {
	// Rate is the bit rate in bit/s. Zero means frames are serialized instantly.
	Rate float64
	// Delay is the propagation delay.
	Delay time.Duration
	// QueueMaxPackets bounds the transmit queue of each end.
	QueueMaxPackets uint32
}

// DefaultLinkOptions returns link options with the queue size from the active configuration.
func DefaultLinkOptions() LinkOptions {
	return LinkOptions{
		Rate:            10e6,
		Delay:           10 * time.Millisecond,
		QueueMaxPackets: uint32(core.GetConfig().Link.QueueMaxPackets),
	}
}

// Validate checks that the options are consistent.
func (o LinkOptions) Validate() error {
	if o.Rate < 0 || o.Delay < 0 || o.QueueMaxPackets == 0 {
		return core.ErrInvalidOption
	}
	return nil
}

// FrameTracer observes every frame put on a link.
type FrameTracer func(at time.Duration, wire []byte)

// Link is a full-duplex point-to-point channel between two nodes.
type Link struct {
	opts      LinkOptions
	scheduler sched.Scheduler
	ends      [2]*NetDeviceFace
	tracer    FrameTracer
}

// NewLink creates a link between the named nodes.
func NewLink(nodeA string, nodeB string, opts LinkOptions, scheduler sched.Scheduler) (*Link, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	l := new(Link)
	l.opts = opts
	l.scheduler = scheduler
	l.ends[0] = newNetDeviceFace(nodeA, l)
	l.ends[1] = newNetDeviceFace(nodeB, l)
	l.ends[0].peer = l.ends[1]
	l.ends[1].peer = l.ends[0]
	return l, nil
}

func (l *Link) String() string {
	return "Link (" + l.ends[0].node + " <-> " + l.ends[1].node + ")"
}

// A returns the end of the link attached to the first node.
func (l *Link) A() *NetDeviceFace {
	return l.ends[0]
}

// B returns the end of the link attached to the second node.
func (l *Link) B() *NetDeviceFace {
	return l.ends[1]
}

// Rate returns the bit rate of the link in bit/s.
func (l *Link) Rate() float64 {
	return l.opts.Rate
}

// Delay returns the propagation delay of the link.
func (l *Link) Delay() time.Duration {
	return l.opts.Delay
}

// SetFrameTracer sets the observer of frames put on the link.
func (l *Link) SetFrameTracer(tracer FrameTracer) {
	l.tracer = tracer
}

func (l *Link) txTime(size int) time.Duration {
	if l.opts.Rate == 0 {
		return 0
	}
	return time.Duration(float64(size) * 8 / l.opts.Rate * float64(time.Second))
}

// NetDeviceFace is one end of a Link.
type NetDeviceFace struct {
	faceBase
	link  *Link
	peer  *NetDeviceFace
	queue *NdnDropTailQueue
	busy  bool

	// owner is the face inbound packets are attributed to.
	owner Face
	// onReceive is called for every decoded inbound packet before it is delivered.
	onReceive func(packet *ndn.Packet, size int)

	nOutFrames   uint64
	nInFrames    uint64
	decodeErrors uint64
}

func newNetDeviceFace(node string, link *Link) *NetDeviceFace {
	f := new(NetDeviceFace)
	f.init(node)
	f.link = link
	f.queue = NewNdnDropTailQueue(link.opts.QueueMaxPackets)
	f.owner = f
	return f
}

func (f *NetDeviceFace) String() string {
	return "NetDeviceFace (faceid=" + strconv.FormatUint(f.id, 10) + ", node=" + f.node + ", peer=" + f.peer.node + ")"
}

// Link returns the link the face belongs to.
func (f *NetDeviceFace) Link() *Link {
	return f.link
}

// Queue returns the transmit queue of the face.
func (f *NetDeviceFace) Queue() *NdnDropTailQueue {
	return f.queue
}

// Capacity returns the bit rate of the link.
func (f *NetDeviceFace) Capacity() float64 {
	return f.link.opts.Rate
}

// NOutFrames returns the number of frames put on the link.
func (f *NetDeviceFace) NOutFrames() uint64 {
	return f.nOutFrames
}

// NInFrames returns the number of frames received from the link.
func (f *NetDeviceFace) NInFrames() uint64 {
	return f.nInFrames
}

// DecodeErrors returns the number of received frames that failed to decode.
func (f *NetDeviceFace) DecodeErrors() uint64 {
	return f.decodeErrors
}

// Send encodes the packet and puts it on the transmit queue.
func (f *NetDeviceFace) Send(packet *ndn.Packet) bool {
	if !f.IsUp() {
		return false
	}
	wire, err := packet.Encode()
	if err != nil {
		core.LogError(f, "Unable to encode ", packet, ": ", err)
		return false
	}
	if !f.queue.Enqueue(packet, wire) {
		core.LogTrace(f, "Transmit queue full, dropping ", packet)
		return false
	}
	if !f.busy {
		f.transmitStart()
	}
	return true
}

func (f *NetDeviceFace) transmitStart() {
	_, wire, ok := f.queue.Dequeue()
	if !ok {
		f.busy = false
		return
	}
	f.busy = true
	f.nOutFrames++
	scheduler := f.link.scheduler
	if f.link.tracer != nil {
		f.link.tracer(scheduler.Now(), wire)
	}
	scheduler.Schedule(f.link.txTime(len(wire)), func() {
		peer := f.peer
		scheduler.Schedule(f.link.opts.Delay, func() {
			peer.receive(wire)
		})
		f.transmitStart()
	})
}

func (f *NetDeviceFace) receive(wire []byte) {
	if !f.IsUp() {
		return
	}
	f.nInFrames++
	packet, err := ndn.DecodePacket(wire)
	if err != nil {
		f.decodeErrors++
		core.LogError(f, "Unable to decode frame: ", err)
		return
	}
	if f.onReceive != nil {
		f.onReceive(packet, len(wire))
	}
	f.deliver(f.owner, packet)
}
