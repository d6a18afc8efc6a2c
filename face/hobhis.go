/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package face

import (
	"math"
	"strconv"
	"time"

	"github.com/named-data/hobhis/core"
	"github.com/named-data/hobhis/ndn"
	"github.com/named-data/hobhis/sched"
	"github.com/named-data/hobhis/table"
)

const (
	// reopenDelay is how long a shaper with a non-positive rate waits before trying again.
	reopenDelay = 100 * time.Microsecond

	minDynamicDesign = 0.01
	maxDynamicDesign = 1.0
)

// HobhisOptions configures the interest shaper of a HobhisFace.
type HobhisOptions struct {
	Enabled bool
	// ClientServer marks faces of consumer or producer nodes, which never shape.
	ClientServer bool
	// MaxInterest bounds the shaper queue.
	MaxInterest int
	// Design is the gain applied to the queue-length correction.
	Design float64
	// QueueTarget is the target number of queued Data per flow on the downstream link.
	QueueTarget float64
	// DynamicDesign derives the gain from the RTT and the number of flows.
	DynamicDesign bool
	// UpdatePeriod is the refresh period of downstream queue lengths.
	UpdatePeriod time.Duration
}

// DefaultHobhisOptions returns the shaper options from the active configuration.
func DefaultHobhisOptions() HobhisOptions {
	c := core.GetConfig().Hobhis
	return HobhisOptions{
		Enabled:       c.Enabled,
		ClientServer:  c.ClientServer,
		MaxInterest:   c.MaxInterest,
		Design:        c.Design,
		QueueTarget:   c.QueueTarget,
		DynamicDesign: c.DynamicDesign,
		UpdatePeriod:  time.Duration(c.UpdatePeriodUs) * time.Microsecond,
	}
}

// Validate checks that the options are consistent.
func (o HobhisOptions) Validate() error {
	if o.MaxInterest <= 0 || o.Design < 0 || o.QueueTarget < 0 || o.UpdatePeriod <= 0 {
		return core.ErrInvalidOption
	}
	return nil
}

type shaperState int

const (
	shaperOpen shaperState = iota
	shaperBlocked
)

// sizeEstimate is a packet size smoothed with gain 1/8. The first sample seeds it.
type sizeEstimate struct {
	value  float64
	seeded bool
}

func (s *sizeEstimate) add(sample int) {
	if !s.seeded {
		s.value = float64(sample)
		s.seeded = true
		return
	}
	s.value += (float64(sample) - s.value) / 8
}

// HobhisFace is a NetDeviceFace whose outgoing Interests are shaped per flow so that the
// Data they bring back fits the downstream links.
type HobhisFace struct {
	*NetDeviceFace
	opts         HobhisOptions
	scheduler    sched.Scheduler
	measurements *table.Measurements

	state         shaperState
	interestQueue []*ndn.Packet
	perFlow       map[uint64]uint32 // Key is flow hash
	shaperEvent   sched.EventID
	drops         uint64

	outContentSize  sizeEstimate
	outInterestSize sizeEstimate
	inContentSize   sizeEstimate

	outBitRate  float64
	shapingRate float64
	flowNumber  int

	shaping      *table.ShapingTable
	sendingTimes *table.SendingTimeTable
	refresh      map[uint64]sched.EventID // Key is flow hash
}

// NewHobhisFace wraps the device face with a shaper. Bandwidth measurements are kept in the
// measurements table of the node owning the face.
func NewHobhisFace(device *NetDeviceFace, opts HobhisOptions, measurements *table.Measurements) (*HobhisFace, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	f := new(HobhisFace)
	f.NetDeviceFace = device
	f.opts = opts
	f.scheduler = device.link.scheduler
	f.measurements = measurements
	f.perFlow = make(map[uint64]uint32)
	f.outContentSize.value = 1000
	f.outInterestSize.value = 40
	f.inContentSize.value = 1000
	f.outBitRate = device.Capacity()
	f.shapingRate = f.outBitRate
	f.shaping = table.NewShapingTable()
	f.sendingTimes = table.NewSendingTimeTable()
	f.refresh = make(map[uint64]sched.EventID)

	device.owner = f
	device.onReceive = f.onReceive
	return f, nil
}

func (f *HobhisFace) String() string {
	return "HobhisFace (faceid=" + strconv.FormatUint(f.id, 10) + ", node=" + f.node + ", peer=" + f.peer.node + ")"
}

// IsShaping returns whether the face shapes its outgoing Interests.
func (f *HobhisFace) IsShaping() bool {
	return f.opts.Enabled && !f.opts.ClientServer
}

// Shaping returns the shaping table of the face.
func (f *HobhisFace) Shaping() *table.ShapingTable {
	return f.shaping
}

// SendingTimes returns the table pairing shaped Interests with returning Data.
func (f *HobhisFace) SendingTimes() *table.SendingTimeTable {
	return f.sendingTimes
}

// ShapingRate returns the last computed shaping rate in Interests per second.
func (f *HobhisFace) ShapingRate() float64 {
	return f.shapingRate
}

// FlowNumber returns the number of flows sharing the downstream link, as last reported.
func (f *HobhisFace) FlowNumber() int {
	return f.flowNumber
}

// SetFlowNumber records the number of flows sharing the downstream link.
func (f *HobhisFace) SetFlowNumber(flows int) {
	f.flowNumber = flows
}

// FairShare returns the per-flow ceiling of the shaping rate in Interests per second.
func (f *HobhisFace) FairShare() float64 {
	flows := 1.0
	if f.flowNumber > 0 {
		flows = float64(f.flowNumber)
	}
	return f.outBitRate / (8 * f.outInterestSize.value) / flows
}

// QueueLength returns the number of Interests waiting in the shaper.
func (f *HobhisFace) QueueLength() int {
	return len(f.interestQueue)
}

// QueueSizePerFlow returns the number of Interests of the flow waiting in the shaper.
func (f *HobhisFace) QueueSizePerFlow(flow *ndn.Name) uint32 {
	return f.perFlow[flow.Hash()]
}

// Drops returns the number of Interests dropped at the tail of the shaper queue.
func (f *HobhisFace) Drops() uint64 {
	return f.drops
}

// SetInFaceBW records the bandwidth of the face the Data of the flow is returned on. The first value wins.
func (f *HobhisFace) SetInFaceBW(flow *ndn.Name, bw float64) {
	f.measurements.SetInFaceBW(f.id, flow, bw)
}

// InFaceBW returns the bandwidth recorded for the flow, assuming a symmetric link when none was recorded.
func (f *HobhisFace) InFaceBW(flow *ndn.Name) float64 {
	if bw, ok := f.measurements.InFaceBW(f.id, flow); ok {
		return bw
	}
	return f.outBitRate
}

// Send transmits the packet, shaping non-NACK Interests when enabled.
func (f *HobhisFace) Send(packet *ndn.Packet) bool {
	if !f.IsUp() {
		return false
	}
	if packet.Data != nil {
		f.outContentSize.add(packet.EncodedSize())
		return f.NetDeviceFace.Send(packet)
	}
	if packet.Interest.IsNack() || !f.IsShaping() {
		return f.NetDeviceFace.Send(packet)
	}

	if len(f.interestQueue)+1 > f.opts.MaxInterest {
		f.drops++
		core.LogTrace(f, "Shaper queue full, dropping ", packet.Interest.Name())
		return false
	}
	f.interestQueue = append(f.interestQueue, packet)
	hash := flowOf(packet.Interest.Name()).Hash()
	if f.perFlow[hash]+1 <= uint32(f.opts.MaxInterest) {
		f.perFlow[hash]++
	}

	if f.state == shaperOpen {
		if !f.outInterestSize.seeded {
			f.outInterestSize.add(packet.EncodedSize())
			f.shaperSend()
		} else {
			f.outInterestSize.add(packet.EncodedSize())
			f.shaperDequeue()
		}
	}
	return true
}

func (f *HobhisFace) shaperOpen() {
	if len(f.interestQueue) > 0 {
		f.shaperDequeue()
	} else {
		f.state = shaperOpen
	}
}

func (f *HobhisFace) shaperDequeue() {
	gap, ok := f.computeGap()
	if ok {
		f.shaperEvent = f.scheduler.Schedule(gap, f.shaperSend)
	} else {
		f.shaperEvent = f.scheduler.Schedule(reopenDelay, f.shaperOpen)
	}
}

func (f *HobhisFace) shaperSend() {
	if len(f.interestQueue) == 0 {
		f.state = shaperOpen
		return
	}
	packet := f.interestQueue[0]
	f.interestQueue[0] = nil
	f.interestQueue = f.interestQueue[1:]

	name := packet.Interest.Name()
	hash := flowOf(name).Hash()
	if f.perFlow[hash] != 0 {
		f.perFlow[hash]--
	}
	f.sendingTimes.Record(name, f.scheduler.Now())
	f.NetDeviceFace.Send(packet)
	f.shaperOpen()
}

// computeGap blocks the shaper and returns the delay before the head of the queue may be
// sent. The second result is false when the rate is not positive.
func (f *HobhisFace) computeGap() (time.Duration, bool) {
	f.state = shaperBlocked
	flow := flowOf(f.interestQueue[0].Interest.Name())
	bw := f.InFaceBW(flow)

	entry := f.shaping.Get(flow)
	rtt := -1.0
	var qlenFlow, qlen float64
	if entry != nil && entry.Rtt != table.NoRtt {
		rtt = entry.Rtt.Seconds()
	}
	if entry != nil {
		qlenFlow = float64(entry.QueueLength)
		qlen = float64(entry.TotalQueueLength)
	}
	flows := 1.0
	if f.flowNumber > 0 {
		flows = float64(f.flowNumber)
	}

	if rtt > 0 {
		queueRel := 1.0
		if qlen != 0 && qlenFlow != 0 {
			queueRel = qlenFlow / qlen
		}
		design := f.opts.Design
		if f.opts.DynamicDesign {
			design = math.Min(math.Max(1/(rtt*flows), minDynamicDesign), maxDynamicDesign)
		}
		f.shapingRate = bw/(8*f.inContentSize.value) + design*(f.opts.QueueTarget*queueRel-qlenFlow)/rtt
	} else {
		f.shapingRate = bw / (8 * f.outInterestSize.value)
	}

	gap := time.Duration(0)
	ok := true
	if fairShare := f.FairShare(); f.shapingRate >= fairShare {
		f.shapingRate = fairShare
	} else if f.shapingRate > 0 {
		gap = time.Duration(float64(time.Second) / f.shapingRate)
	} else {
		ok = false
	}
	if f.shapingRate < 0 {
		f.shapingRate = 0
	}
	if entry != nil {
		entry.Rate = f.shapingRate
	}
	core.LogTrace(f, "Shaping rate ", f.shapingRate, " Interests/s, gap ", gap)
	return gap, ok
}

func (f *HobhisFace) onReceive(packet *ndn.Packet, size int) {
	if packet.Data != nil {
		f.inContentSize.add(size)
	}
}

// TrackFlow updates the shaping entry of the flow after one of its Interests was forwarded
// on this face. downstream is the face the Data of the flow will be returned on. The first
// call for a flow starts the periodic refresh of its downstream queue lengths.
func (f *HobhisFace) TrackFlow(flow *ndn.Name, downstream *HobhisFace) {
	queue := downstream.Queue()
	qlenFlow := queue.QueueSizePerFlow(flow)
	f.SetFlowNumber(queue.FlowNumber())

	entry, created := f.shaping.GetOrCreate(flow)
	entry.MaxChunks = queue.MaxChunks()
	if bw := downstream.Capacity(); bw != 0 {
		entry.QueueLength = qlenFlow
		entry.TotalQueueLength = queue.Len()
		entry.Bandwidth = bw
	} else {
		entry.QueueLength = 0
		entry.TotalQueueLength = 0
		entry.Bandwidth = f.Capacity()
	}
	if created {
		f.refreshQueueLength(flow, downstream)
	}
}

func (f *HobhisFace) refreshQueueLength(flow *ndn.Name, downstream *HobhisFace) {
	queue := downstream.Queue()
	if entry := f.shaping.Get(flow); entry != nil {
		if downstream.IsShaping() {
			entry.QueueLength = queue.QueueSizePerFlow(flow)
			entry.TotalQueueLength = queue.DataQueueLength()
		} else {
			entry.QueueLength = queue.Len()
			entry.TotalQueueLength = queue.Len()
		}
	}
	f.refresh[flow.Hash()] = f.scheduler.Schedule(f.opts.UpdatePeriod, func() {
		f.refreshQueueLength(flow, downstream)
	})
}

// SampleRtt pairs the Data name with the send time of its Interest and folds the elapsed time
// into the RTT of the flow. Returns false if the Interest did not leave through this shaper.
func (f *HobhisFace) SampleRtt(name *ndn.Name) bool {
	sent, ok := f.sendingTimes.Take(name)
	if !ok {
		return false
	}
	cur := f.scheduler.Now() - sent
	entry := f.shaping.Get(flowOf(name))
	if entry == nil {
		return true
	}
	if entry.Rtt == table.NoRtt {
		entry.Rtt = cur
	} else {
		entry.Rtt = time.Duration(0.8*float64(cur) + 0.2*float64(entry.Rtt))
	}
	return true
}

// Stop cancels the pending shaper event and the queue-length refreshes.
func (f *HobhisFace) Stop() {
	f.scheduler.Cancel(f.shaperEvent)
	for hash, event := range f.refresh {
		f.scheduler.Cancel(event)
		delete(f.refresh, hash)
	}
}
