/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package app

import (
	"math"
	"time"

	"github.com/iti/rngstream"
	"github.com/named-data/hobhis/core"
	"github.com/named-data/hobhis/face"
	"github.com/named-data/hobhis/ndn"
	"github.com/named-data/hobhis/sched"
	"github.com/named-data/hobhis/trace"
	"github.com/named-data/hobhis/utils/rtt"
	"golang.org/x/exp/slices"
)

// ConsumerOptions configures a Consumer.
type ConsumerOptions struct {
	Prefix   string
	StartSeq uint32
	// MaxSeq is one past the last sequence number requested.
	MaxSeq uint32
	// RandComponentLenMax adds a random component of up to this many letters before the sequence number.
	RandComponentLenMax int
	Lifetime            time.Duration
	// RetxTimer is the period of the retransmission timeout check.
	RetxTimer time.Duration
	Rtt       rtt.Options
}

// DefaultConsumerOptions returns the consumer options from the active configuration.
func DefaultConsumerOptions() ConsumerOptions {
	c := core.GetConfig().App
	return ConsumerOptions{
		Prefix:    "/",
		MaxSeq:    math.MaxUint32,
		Lifetime:  time.Duration(c.InterestLifetimeMs) * time.Millisecond,
		RetxTimer: time.Duration(c.RetxTimerMs) * time.Millisecond,
		Rtt:       rtt.DefaultOptions(),
	}
}

// Validate checks that the options are consistent.
func (o ConsumerOptions) Validate() error {
	if _, err := ndn.NameFromString(o.Prefix); err != nil {
		return err
	}
	if o.RetxTimer <= 0 || o.Lifetime < 0 || o.RandComponentLenMax < 0 || o.MaxSeq < o.StartSeq {
		return core.ErrInvalidOption
	}
	return o.Rtt.Validate()
}

// ConsumerStats counts the packets exchanged by a consumer.
type ConsumerStats struct {
	Interests uint64
	Data      uint64
	Nacks     uint64
	Timeouts  uint64
}

// Consumer requests a sequence of named chunks under a prefix, retransmitting lost ones. When and how fast
// Interests are sent is decided by its CongestionController.
type Consumer struct {
	appBase
	opts       ConsumerOptions
	prefix     *ndn.Name
	controller CongestionController
	rng        *rngstream.RngStream
	rtt        *rtt.Estimator

	seq           uint32
	retxSeqs      []uint32 // Ascending
	seqTimeouts   map[uint32]time.Duration
	seqFullDelay  map[uint32]time.Duration
	seqLastDelay  map[uint32]time.Duration
	seqRetxCounts map[uint32]int
	randComponent string

	sendEvent sched.EventID
	retxEvent sched.EventID

	delays  *trace.AppDelayTracer
	windows *trace.WindowTracer
	stats   ConsumerStats
}

// NewConsumer creates a consumer named name that talks through appFace. rng draws the nonces, random name
// components and any randomness of the controller.
func NewConsumer(name string, appFace *face.AppFace, scheduler sched.Scheduler, opts ConsumerOptions,
	controller CongestionController, rng *rngstream.RngStream) (*Consumer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	estimator, err := rtt.NewEstimator(opts.Rtt, scheduler.Now)
	if err != nil {
		return nil, err
	}

	c := new(Consumer)
	c.init(name, appFace, scheduler)
	c.opts = opts
	c.prefix = ndn.MustNameFromString(opts.Prefix)
	c.controller = controller
	c.rng = rng
	c.rtt = estimator
	c.seq = opts.StartSeq
	c.seqTimeouts = make(map[uint32]time.Duration)
	c.seqFullDelay = make(map[uint32]time.Duration)
	c.seqLastDelay = make(map[uint32]time.Duration)
	c.seqRetxCounts = make(map[uint32]int)
	c.onData = c.onContent
	c.onInterest = c.onNack
	controller.Init(c)
	return c, nil
}

func (c *Consumer) String() string {
	return "Consumer-" + c.name
}

// SetTracers sets where delay and window samples are recorded. Either may be nil.
func (c *Consumer) SetTracers(delays *trace.AppDelayTracer, windows *trace.WindowTracer) {
	c.delays = delays
	c.windows = windows
}

// Controller returns the congestion controller of the consumer.
func (c *Consumer) Controller() CongestionController {
	return c.controller
}

// Scheduler returns the scheduler driving the consumer.
func (c *Consumer) Scheduler() sched.Scheduler {
	return c.scheduler
}

// Rtt returns the RTT estimator of the consumer.
func (c *Consumer) Rtt() *rtt.Estimator {
	return c.rtt
}

// Rng returns the random number stream of the consumer.
func (c *Consumer) Rng() *rngstream.RngStream {
	return c.rng
}

// Seq returns the next new sequence number to be requested.
func (c *Consumer) Seq() uint32 {
	return c.seq
}

// Stats returns the packet counters of the consumer.
func (c *Consumer) Stats() ConsumerStats {
	return c.stats
}

// PendingRetransmissions returns the sequence numbers waiting to be retransmitted, in ascending order.
func (c *Consumer) PendingRetransmissions() []uint32 {
	return slices.Clone(c.retxSeqs)
}

// LastSendTime returns when the sequence was last sent, if it is outstanding.
func (c *Consumer) LastSendTime(seq uint32) (time.Duration, bool) {
	at, ok := c.seqLastDelay[seq]
	return at, ok
}

// RetxCount returns how many times the outstanding sequence was sent.
func (c *Consumer) RetxCount(seq uint32) int {
	return c.seqRetxCounts[seq]
}

// Start starts requesting data.
func (c *Consumer) Start() {
	if c.active {
		return
	}
	core.LogInfo(c, "Starting with ", c.controller)
	c.active = true
	c.retxEvent = c.scheduler.Schedule(c.opts.RetxTimer, c.checkRetxTimeout)
	c.controller.ScheduleNextPacket()
}

// Stop stops requesting data. Outstanding Interests are abandoned.
func (c *Consumer) Stop() {
	if !c.active {
		return
	}
	core.LogInfo(c, "Stopping after ", c.stats.Data, " Data")
	c.active = false
	c.scheduler.Cancel(c.sendEvent)
	c.scheduler.Cancel(c.retxEvent)
}

// ScheduleSend replaces any pending transmission with one after the specified delay.
func (c *Consumer) ScheduleSend(delay time.Duration) {
	c.scheduler.Cancel(c.sendEvent)
	c.sendEvent = c.scheduler.Schedule(delay, c.sendPacket)
}

// IsSendPending returns whether a transmission is scheduled.
func (c *Consumer) IsSendPending() bool {
	return c.scheduler.IsPending(c.sendEvent)
}

func (c *Consumer) checkRetxTimeout() {
	now := c.scheduler.Now()
	rto := c.rtt.RetransmitTimeout()

	var expired []uint32
	for seq, at := range c.seqTimeouts {
		if at+rto <= now {
			expired = append(expired, seq)
		}
	}
	slices.SortFunc(expired, func(a, b uint32) int {
		switch {
		case c.seqTimeouts[a] != c.seqTimeouts[b]:
			if c.seqTimeouts[a] < c.seqTimeouts[b] {
				return -1
			}
			return 1
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return 0
	})
	for _, seq := range expired {
		delete(c.seqTimeouts, seq)
		c.onTimeout(seq)
	}

	c.retxEvent = c.scheduler.Schedule(c.opts.RetxTimer, c.checkRetxTimeout)
}

// nextSeq picks the lowest pending retransmission, or else the next new sequence number.
func (c *Consumer) nextSeq() (uint32, bool) {
	if len(c.retxSeqs) > 0 {
		seq := c.retxSeqs[0]
		c.retxSeqs = slices.Delete(c.retxSeqs, 0, 1)
		return seq, true
	}
	if c.seq >= c.opts.MaxSeq {
		return 0, false
	}
	seq := c.seq
	c.seq++
	return seq, true
}

func (c *Consumer) interestName(seq uint32) *ndn.Name {
	name := c.prefix
	if c.opts.RandComponentLenMax > 0 {
		if c.randComponent == "" {
			letters := make([]byte, c.opts.RandComponentLenMax+1)
			for i := range letters {
				letters[i] = byte('a' + c.rng.RandInt(0, 25))
			}
			c.randComponent = string(letters)
		}
		name = name.AppendString(c.randComponent[:c.rng.RandInt(1, c.opts.RandComponentLenMax)])
	}
	return name.AppendSeq(seq)
}

func (c *Consumer) sendPacket() {
	if !c.active {
		return
	}
	seq, ok := c.nextSeq()
	if !ok {
		core.LogDebug(c, "All ", c.opts.MaxSeq-c.opts.StartSeq, " sequences requested")
		return
	}

	interest := ndn.NewInterest(c.interestName(seq))
	interest.SetNonce(uint32(c.rng.RandU01() * math.MaxUint32))
	interest.SetLifetime(c.opts.Lifetime)

	c.willSendOutInterest(seq)
	core.LogTrace(c, "Sending Interest ", interest.Name())
	c.stats.Interests++
	c.send(ndn.InterestPacket(interest))

	c.controller.ScheduleNextPacket()
	c.traceWindow()
}

func (c *Consumer) willSendOutInterest(seq uint32) {
	now := c.scheduler.Now()
	c.controller.WillSendInterest(seq)
	c.seqTimeouts[seq] = now
	if _, ok := c.seqFullDelay[seq]; !ok {
		c.seqFullDelay[seq] = now
	}
	c.seqLastDelay[seq] = now
	c.seqRetxCounts[seq]++
	c.rtt.SentSeq(seq, 1)
}

func (c *Consumer) onContent(data *ndn.Data) {
	seq, err := data.Name().Seq()
	if err != nil {
		core.LogWarn(c, "Data ", data.Name(), " without sequence number - DROP")
		return
	}
	core.LogTrace(c, "Received Data ", data.Name())
	c.stats.Data++
	c.controller.DidReceiveData(seq)

	now := c.scheduler.Now()
	if first, ok := c.seqFullDelay[seq]; ok && c.delays != nil {
		last := c.seqLastDelay[seq]
		c.delays.Record(trace.DelaySample{
			At:        now,
			App:       c.name,
			Seq:       seq,
			LastDelay: now - last,
			FullDelay: now - first,
			RetxCount: c.seqRetxCounts[seq],
		})
	}

	delete(c.seqRetxCounts, seq)
	delete(c.seqFullDelay, seq)
	delete(c.seqLastDelay, seq)
	delete(c.seqTimeouts, seq)
	c.eraseRetx(seq)
	c.rtt.AckSeq(seq)

	c.controller.ScheduleNextPacket()
	c.traceWindow()
}

func (c *Consumer) onNack(nack *ndn.Interest) {
	if !nack.IsNack() {
		core.LogWarn(c, "Unexpected Interest ", nack.Name(), " - DROP")
		return
	}
	seq, err := nack.Name().Seq()
	if err != nil {
		core.LogWarn(c, "NACK ", nack.Name(), " without sequence number - DROP")
		return
	}
	core.LogDebug(c, "Received NACK ", nack.Nack(), " for ", nack.Name())
	c.stats.Nacks++
	c.controller.DidReceiveNack(seq)

	c.insertRetx(seq)
	delete(c.seqTimeouts, seq)
	c.rtt.IncreaseMultiplier()

	c.controller.ScheduleNextPacket()
	c.traceWindow()
}

func (c *Consumer) onTimeout(seq uint32) {
	core.LogDebug(c, "Timeout for sequence ", seq)
	c.stats.Timeouts++
	c.controller.DidTimeout(seq)

	c.rtt.IncreaseMultiplier()
	// Disable the RTT sample of this sequence
	c.rtt.SentSeq(seq, 1)
	c.insertRetx(seq)

	c.controller.ScheduleNextPacket()
	c.traceWindow()
}

func (c *Consumer) insertRetx(seq uint32) {
	if i, found := slices.BinarySearch(c.retxSeqs, seq); !found {
		c.retxSeqs = slices.Insert(c.retxSeqs, i, seq)
	}
}

func (c *Consumer) eraseRetx(seq uint32) {
	if i, found := slices.BinarySearch(c.retxSeqs, seq); found {
		c.retxSeqs = slices.Delete(c.retxSeqs, i, i+1)
	}
}

func (c *Consumer) traceWindow() {
	if c.windows == nil {
		return
	}
	w, ok := c.controller.(WindowedController)
	if !ok {
		return
	}
	c.windows.Record(trace.WindowSample{
		At:       c.scheduler.Now(),
		App:      c.name,
		Window:   float64(w.Window()),
		Ssthresh: float64(w.Ssthresh()),
		InFlight: w.InFlight(),
	})
}
