/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package app_test

import (
	"testing"
	"time"

	"github.com/iti/rngstream"
	"github.com/named-data/hobhis/app"
	"github.com/named-data/hobhis/face"
	"github.com/named-data/hobhis/ndn"
	"github.com/named-data/hobhis/sched"
	"github.com/named-data/hobhis/table"
	"github.com/named-data/hobhis/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// network stands in for the forwarder behind an application face.
type network struct {
	clock     *sched.Clock
	face      *face.AppFace
	interests []*ndn.Interest
	data      []*ndn.Data
	respond   func(interest *ndn.Interest)
}

func newNetwork() *network {
	n := &network{clock: sched.NewClock()}
	n.face = face.NewAppFace("n0", "app", n.clock)
	n.face.RegisterProtocolHandler(func(_ face.Face, packet *ndn.Packet) {
		if packet.Data != nil {
			n.data = append(n.data, packet.Data)
			return
		}
		n.interests = append(n.interests, packet.Interest)
		if n.respond != nil {
			n.respond(packet.Interest)
		}
	})
	return n
}

func (n *network) reply(interest *ndn.Interest) {
	n.face.Send(ndn.DataPacket(ndn.NewData(interest.Name(), nil)))
}

func (n *network) replyAfter(delay time.Duration) func(*ndn.Interest) {
	return func(interest *ndn.Interest) {
		n.clock.Schedule(delay, func() {
			n.reply(interest)
		})
	}
}

func (n *network) nack(interest *ndn.Interest, code ndn.NackCode) {
	nack := interest.Copy()
	nack.SetNack(code)
	n.face.Send(ndn.InterestPacket(nack))
}

func (n *network) seqs() []uint32 {
	seqs := make([]uint32, 0, len(n.interests))
	for _, interest := range n.interests {
		seq, _ := interest.Name().Seq()
		seqs = append(seqs, seq)
	}
	return seqs
}

func (n *network) consumer(t *testing.T, controller string, mutate func(*app.ConsumerOptions, *app.ControllerOptions)) *app.Consumer {
	opts := app.DefaultConsumerOptions()
	opts.Prefix = "/prefix"
	ctrlOpts := app.DefaultControllerOptions()
	if mutate != nil {
		mutate(&opts, &ctrlOpts)
	}
	ctrl, err := app.NewController(controller, ctrlOpts)
	require.NoError(t, err)
	c, err := app.NewConsumer("c0", n.face, n.clock, opts, ctrl, rngstream.New("app-test"))
	require.NoError(t, err)
	return c
}

func (n *network) runFor(d time.Duration) {
	n.clock.RunUntil(n.clock.Now() + d)
}

func TestRelentlessWindowAfterFiveData(t *testing.T) {
	n := newNetwork()
	n.respond = n.replyAfter(10 * time.Millisecond)
	c := n.consumer(t, "relentless", func(opts *app.ConsumerOptions, _ *app.ControllerOptions) {
		opts.MaxSeq = 5
	})
	c.Start()
	n.runFor(time.Second)

	relentless := c.Controller().(*app.Relentless)
	assert.Equal(t, uint32(6), relentless.Window())
	assert.Zero(t, relentless.InFlight())
	assert.Equal(t, uint64(5), c.Stats().Data)
	assert.Equal(t, []uint32{0, 1, 2, 3, 4}, n.seqs())
	assert.Equal(t, "/prefix/0", n.interests[0].Name().String())
	assert.Equal(t, 2*time.Second, n.interests[0].Lifetime())
}

func TestRelentlessNack(t *testing.T) {
	n := newNetwork()
	c := n.consumer(t, "relentless", func(_ *app.ConsumerOptions, ctrl *app.ControllerOptions) {
		ctrl.Window = 3
	})
	c.Start()
	n.runFor(time.Millisecond)
	require.Len(t, n.interests, 3)

	n.nack(n.interests[1], ndn.NackCongestion)
	n.runFor(time.Millisecond)

	relentless := c.Controller().(*app.Relentless)
	assert.Equal(t, uint32(2), relentless.Window())
	assert.Equal(t, uint32(2), relentless.Ssthresh())
	assert.Equal(t, uint64(1), c.Stats().Nacks)
	assert.Len(t, n.interests, 3)
}

func TestWindowConstant(t *testing.T) {
	n := newNetwork()
	c := n.consumer(t, "window", func(_ *app.ConsumerOptions, ctrl *app.ControllerOptions) {
		ctrl.Window = 2
	})
	c.Start()
	n.runFor(time.Millisecond)
	require.Equal(t, []uint32{0, 1}, n.seqs())

	n.reply(n.interests[0])
	n.runFor(time.Millisecond)
	assert.Equal(t, []uint32{0, 1, 2}, n.seqs())
	assert.Equal(t, uint32(2), c.Controller().(*app.WindowConstant).Window())
}

func TestWindowZeroProbes(t *testing.T) {
	n := newNetwork()
	c := n.consumer(t, "window", func(_ *app.ConsumerOptions, ctrl *app.ControllerOptions) {
		ctrl.Window = 0
	})
	c.Start()
	n.runFor(400 * time.Millisecond)
	assert.Empty(t, n.interests)
	n.runFor(200 * time.Millisecond)
	assert.Len(t, n.interests, 1)
}

func TestAIMDSingleDecreasePerEpoch(t *testing.T) {
	n := newNetwork()
	c := n.consumer(t, "aimd", nil)
	c.Start()
	n.runFor(time.Millisecond)
	require.Equal(t, []uint32{0}, n.seqs())

	n.reply(n.interests[0])
	n.runFor(time.Millisecond)
	require.Equal(t, []uint32{0, 1, 2}, n.seqs())

	n.reply(n.interests[1])
	n.reply(n.interests[2])
	n.runFor(time.Millisecond)
	require.Equal(t, []uint32{0, 1, 2, 3, 4, 5, 6}, n.seqs())

	aimd := c.Controller().(*app.AIMD)
	require.Equal(t, uint32(4), aimd.Window())
	for _, interest := range n.interests[3:7] {
		n.nack(interest, ndn.NackCongestion)
	}
	n.runFor(time.Millisecond)

	assert.Equal(t, uint32(2), aimd.Window())
	assert.Equal(t, uint32(2), aimd.Ssthresh())
	assert.Equal(t, uint32(7), aimd.Recover())
	// The lowest NACKed sequences are retransmitted first
	assert.Equal(t, []uint32{0, 1, 2, 3, 4, 5, 6, 3, 4}, n.seqs())
	assert.Equal(t, []uint32{5, 6}, c.PendingRetransmissions())
}

func TestCubicSlowStartMonotonic(t *testing.T) {
	n := newNetwork()
	n.respond = n.replyAfter(10 * time.Millisecond)
	c := n.consumer(t, "cubic", func(opts *app.ConsumerOptions, _ *app.ControllerOptions) {
		opts.MaxSeq = 20
	})
	windows := trace.NewWindowTracer()
	c.SetTracers(nil, windows)
	c.Start()
	n.runFor(time.Second)

	var observed []float64
	for _, sample := range windows.Samples("c0") {
		if len(observed) == 0 || observed[len(observed)-1] != sample.Window {
			observed = append(observed, sample.Window)
		}
	}
	require.Len(t, observed, 21)
	for i, window := range observed {
		assert.Equal(t, float64(i+1), window)
	}
	assert.Equal(t, 10*time.Millisecond, c.Controller().(*app.Cubic).MinRtt())
}

func TestCubicDecrease(t *testing.T) {
	n := newNetwork()
	c := n.consumer(t, "cubic", func(_ *app.ConsumerOptions, ctrl *app.ControllerOptions) {
		ctrl.Window = 10
	})
	c.Start()
	n.runFor(time.Millisecond)
	require.Len(t, n.interests, 10)

	cubic := c.Controller().(*app.Cubic)
	n.nack(n.interests[0], ndn.NackCongestion)
	n.nack(n.interests[1], ndn.NackCongestion)
	n.runFor(time.Millisecond)

	// The second NACK is for an Interest sent before the decrease
	assert.Equal(t, uint32(8), cubic.Window())
	assert.Equal(t, uint32(8), cubic.Ssthresh())
}

func TestRaaqmDecreaseProbability(t *testing.T) {
	ctrlOpts := app.DefaultControllerOptions()
	ctrlOpts.Raaqm.RttSampleSize = 3
	ctrl, err := app.NewController("raaqm", ctrlOpts)
	require.NoError(t, err)
	raaqm := ctrl.(*app.Raaqm)

	_, full := raaqm.AddRttSample(10 * time.Millisecond)
	assert.False(t, full)
	_, full = raaqm.AddRttSample(20 * time.Millisecond)
	assert.False(t, full)
	p, full := raaqm.AddRttSample(15 * time.Millisecond)
	require.True(t, full)
	pMin, pMax := ctrlOpts.Raaqm.PMin, ctrlOpts.Raaqm.PMax
	assert.InDelta(t, pMin+(pMax-pMin)/2, p, 1e-9)

	p, full = raaqm.AddRttSample(20 * time.Millisecond)
	require.True(t, full)
	assert.InDelta(t, pMax, p, 1e-9)
	assert.InDelta(t, pMax, raaqm.DecreaseProbability(), 1e-9)
}

func TestRaaqmGrowsLikeRelentless(t *testing.T) {
	n := newNetwork()
	n.respond = n.replyAfter(10 * time.Millisecond)
	c := n.consumer(t, "raaqm", func(opts *app.ConsumerOptions, _ *app.ControllerOptions) {
		opts.MaxSeq = 5
	})
	c.Start()
	n.runFor(time.Second)

	// Fewer samples than the sample window never trigger a decrease
	assert.Equal(t, uint32(6), c.Controller().(*app.Raaqm).Window())
}

func TestRateAdaptive(t *testing.T) {
	n := newNetwork()
	n.respond = n.replyAfter(10 * time.Millisecond)
	c := n.consumer(t, "rate", nil)
	c.Start()
	n.runFor(150 * time.Millisecond)

	rate := c.Controller().(*app.RateAdaptive)
	assert.Equal(t, []uint32{0, 1}, n.seqs())
	assert.InDelta(t, 10, rate.DataFrequency(), 1e-9)
	assert.InDelta(t, 20, rate.Frequency(), 1e-9)
	assert.True(t, rate.InSlowStart())
}

func TestConstantRate(t *testing.T) {
	n := newNetwork()
	c := n.consumer(t, "cbr", func(_ *app.ConsumerOptions, ctrl *app.ControllerOptions) {
		ctrl.Frequency = 100
	})
	c.Start()
	n.runFor(95 * time.Millisecond)
	assert.Len(t, n.interests, 10)

	c.Stop()
	n.runFor(time.Second)
	assert.Len(t, n.interests, 10)
	assert.False(t, c.IsActive())
}

func TestConsumerTimeoutRetransmits(t *testing.T) {
	n := newNetwork()
	c := n.consumer(t, "window", func(opts *app.ConsumerOptions, _ *app.ControllerOptions) {
		opts.MaxSeq = 1
	})
	c.Start()
	n.runFor(5 * time.Second)

	require.GreaterOrEqual(t, len(n.interests), 2)
	for _, seq := range n.seqs() {
		assert.Equal(t, uint32(0), seq)
	}
	assert.GreaterOrEqual(t, c.Stats().Timeouts, uint64(1))
	assert.Greater(t, c.Rtt().Multiplier(), uint16(1))
}

func TestConsumerNackRetransmits(t *testing.T) {
	n := newNetwork()
	delays := trace.NewAppDelayTracer()
	c := n.consumer(t, "window", func(opts *app.ConsumerOptions, _ *app.ControllerOptions) {
		opts.MaxSeq = 1
	})
	c.SetTracers(delays, nil)
	c.Start()
	n.runFor(time.Millisecond)
	require.Len(t, n.interests, 1)

	n.nack(n.interests[0], ndn.NackGiveUpPit)
	n.runFor(time.Millisecond)
	require.Len(t, n.interests, 2)
	assert.Equal(t, n.interests[0].Name().String(), n.interests[1].Name().String())
	assert.NotEqual(t, n.interests[0].Nonce(), n.interests[1].Nonce())
	assert.Equal(t, 2, c.RetxCount(0))

	n.clock.Schedule(5*time.Millisecond, func() {
		n.reply(n.interests[1])
	})
	n.runFor(10 * time.Millisecond)
	samples := delays.Samples("c0")
	require.Len(t, samples, 1)
	assert.Equal(t, 2, samples[0].RetxCount)
	// First sent at 0, retransmitted at 1ms, answered at 7ms
	assert.Equal(t, 6*time.Millisecond, samples[0].LastDelay)
	assert.Equal(t, 7*time.Millisecond, samples[0].FullDelay)
}

func TestConsumerRandomComponent(t *testing.T) {
	n := newNetwork()
	c := n.consumer(t, "window", func(opts *app.ConsumerOptions, ctrl *app.ControllerOptions) {
		opts.RandComponentLenMax = 4
		opts.MaxSeq = 3
		ctrl.Window = 3
	})
	c.Start()
	n.runFor(time.Millisecond)

	require.Len(t, n.interests, 3)
	for _, interest := range n.interests {
		name := interest.Name()
		require.Equal(t, 3, name.Size())
		random := name.At(1)
		assert.GreaterOrEqual(t, len(random), 1)
		assert.LessOrEqual(t, len(random), 4)
	}
}

func TestControllerRegistry(t *testing.T) {
	assert.Equal(t, []string{"aimd", "cbr", "cubic", "raaqm", "rate", "relentless", "window"}, app.ControllerNames())
	_, err := app.NewController("vegas", app.DefaultControllerOptions())
	assert.Error(t, err)

	opts := app.DefaultControllerOptions()
	opts.Cubic.Beta = 1
	_, err = app.NewController("cubic", opts)
	assert.Error(t, err)
}

type fibRegistrar struct {
	fib *table.Fib
}

func (r fibRegistrar) AddRoute(prefix *ndn.Name, faceID uint64, cost uint64) *table.FibEntry {
	return r.fib.Add(prefix, faceID, cost)
}

func TestProducer(t *testing.T) {
	n := newNetwork()
	n.face.SetID(4)
	fib := table.NewFib()
	opts := app.DefaultProducerOptions()
	opts.Prefix = "/prefix"
	opts.RandomPayloadSizeMin = 10
	opts.RandomPayloadSizeMax = 20
	opts.RandomDelayMin = 5 * time.Millisecond
	opts.RandomDelayMax = 10 * time.Millisecond
	opts.Freshness = 2 * time.Second
	p, err := app.NewProducer("p0", n.face, n.clock, opts, fibRegistrar{fib}, rngstream.New("producer-test"))
	require.NoError(t, err)
	p.Start()

	metric := fib.Find(ndn.MustNameFromString("/prefix")).Nexthop(4)
	require.NotNil(t, metric)
	assert.Equal(t, table.FaceGreen, metric.Status)

	interest := ndn.NewInterest(ndn.MustNameFromString("/prefix/7"))
	n.face.Send(ndn.InterestPacket(interest))
	n.runFor(4 * time.Millisecond)
	assert.Empty(t, n.data)
	n.runFor(7 * time.Millisecond)

	require.Len(t, n.data, 1)
	assert.Equal(t, "/prefix/7", n.data[0].Name().String())
	assert.GreaterOrEqual(t, len(n.data[0].Content()), 10)
	assert.LessOrEqual(t, len(n.data[0].Content()), 20)
	assert.Equal(t, 2*time.Second, n.data[0].Freshness())
	assert.Equal(t, uint64(1), p.NInterests())
	assert.Equal(t, uint64(1), p.NData())

	p.Stop()
	n.face.Send(ndn.InterestPacket(ndn.NewInterest(ndn.MustNameFromString("/prefix/8"))))
	n.runFor(20 * time.Millisecond)
	assert.Len(t, n.data, 1)
}
