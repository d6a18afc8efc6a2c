/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package face_test

import (
	"strconv"
	"testing"
	"time"

	"github.com/named-data/hobhis/core"
	"github.com/named-data/hobhis/face"
	"github.com/named-data/hobhis/ndn"
	"github.com/named-data/hobhis/sched"
	"github.com/named-data/hobhis/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func routerOptions() face.HobhisOptions {
	return face.HobhisOptions{
		Enabled:      true,
		MaxInterest:  100,
		Design:       0.1,
		QueueTarget:  50,
		UpdatePeriod: 100 * time.Microsecond,
	}
}

// newShapedLink returns the shaping face at the "router" end of a link towards "upstream".
func newShapedLink(t *testing.T, clock *sched.Clock, rate float64, opts face.HobhisOptions) *face.HobhisFace {
	link, err := face.NewLink("router", "upstream", face.LinkOptions{Rate: rate, Delay: time.Millisecond, QueueMaxPackets: 1000}, clock)
	require.NoError(t, err)
	f, err := face.NewHobhisFace(link.A(), opts, table.NewMeasurements())
	require.NoError(t, err)
	return f
}

func TestHobhisTailDrop(t *testing.T) {
	clock := sched.NewClock()
	f := newShapedLink(t, clock, 1e6, routerOptions())
	assert.True(t, f.IsShaping())

	// The first Interest finds the shaper open and leaves at once
	require.True(t, f.Send(interestPacket("/flow/0")))
	assert.Equal(t, 0, f.QueueLength())

	for i := 1; i <= 100; i++ {
		require.True(t, f.Send(interestPacket("/flow/"+strconv.Itoa(i))))
	}
	assert.Equal(t, 100, f.QueueLength())
	assert.Equal(t, uint32(100), f.QueueSizePerFlow(ndn.MustNameFromString("/flow")))

	assert.False(t, f.Send(interestPacket("/flow/101")))
	assert.Equal(t, 100, f.QueueLength())
	assert.Equal(t, uint64(1), f.Drops())

	clock.Run()
	assert.Equal(t, 0, f.QueueLength())
	assert.Equal(t, uint32(0), f.QueueSizePerFlow(ndn.MustNameFromString("/flow")))
	assert.Equal(t, 101, f.SendingTimes().Len())
}

func TestHobhisGap(t *testing.T) {
	clock := sched.NewClock()
	f := newShapedLink(t, clock, 1e6, routerOptions())
	flow := ndn.MustNameFromString("/flow")
	size := interestPacket("/flow/0").EncodedSize()

	// Data returns on a link carrying one Interest-sized packet every 10 ms
	bw := float64(8*size) * 100
	f.SetInFaceBW(flow, bw)
	f.SetInFaceBW(flow, 1e9)
	assert.Equal(t, bw, f.InFaceBW(flow))

	require.True(t, f.Send(interestPacket("/flow/0")))
	require.True(t, f.Send(interestPacket("/flow/1")))
	assert.InDelta(t, 100, f.ShapingRate(), 1e-9)

	clock.RunUntil(9 * time.Millisecond)
	assert.Equal(t, 1, f.QueueLength())
	clock.RunUntil(11 * time.Millisecond)
	assert.Equal(t, 0, f.QueueLength())
	assert.Equal(t, uint64(2), f.NOutFrames())
}

func TestHobhisFairnessCeiling(t *testing.T) {
	for _, bw := range []float64{1e3, 1e5, 1e6, 1e8, 1e10} {
		for _, flows := range []int{0, 1, 3, 10} {
			clock := sched.NewClock()
			f := newShapedLink(t, clock, 1e6, routerOptions())
			flow := ndn.MustNameFromString("/flow")
			f.SetInFaceBW(flow, bw)
			f.SetFlowNumber(flows)
			// The first Interest leaves before any rate is computed
			require.True(t, f.Send(interestPacket("/flow/0")))
			for i := 1; i < 5; i++ {
				require.True(t, f.Send(interestPacket("/flow/"+strconv.Itoa(i))))
				assert.LessOrEqual(t, f.ShapingRate(), f.FairShare()+1e-9, "bw=%v flows=%v", bw, flows)
				assert.GreaterOrEqual(t, f.ShapingRate(), 0.0)
			}
			clock.RunUntil(time.Second)
		}
	}
}

func TestHobhisFairShare(t *testing.T) {
	clock := sched.NewClock()
	f := newShapedLink(t, clock, 1e6, routerOptions())
	size := interestPacket("/flow/0").EncodedSize()
	require.True(t, f.Send(interestPacket("/flow/0")))

	assert.InDelta(t, 1e6/(8*float64(size)), f.FairShare(), 1e-9)
	f.SetFlowNumber(4)
	assert.InDelta(t, 1e6/(8*float64(size))/4, f.FairShare(), 1e-9)
}

func TestHobhisBypass(t *testing.T) {
	clock := sched.NewClock()
	f := newShapedLink(t, clock, 1e6, routerOptions())
	require.True(t, f.Send(interestPacket("/flow/0")))
	require.True(t, f.Send(interestPacket("/flow/1")))
	assert.Equal(t, 1, f.QueueLength())

	// NACKs and Data go straight to the device while the shaper is blocked
	require.True(t, f.Send(nackPacket("/flow/2", ndn.NackCongestion)))
	require.True(t, f.Send(dataPacket("/flow/3")))
	assert.Equal(t, 1, f.QueueLength())
	assert.Equal(t, uint64(3), f.NOutFrames()+uint64(f.Queue().Len()))

	opts := routerOptions()
	opts.ClientServer = true
	edge := newShapedLink(t, clock, 1e6, opts)
	assert.False(t, edge.IsShaping())
	for i := 0; i < 5; i++ {
		require.True(t, edge.Send(interestPacket("/flow/"+strconv.Itoa(i))))
	}
	assert.Equal(t, 0, edge.QueueLength())
	assert.Equal(t, 0, edge.SendingTimes().Len())
}

func TestHobhisSampleRtt(t *testing.T) {
	clock := sched.NewClock()
	up := newShapedLink(t, clock, 1e6, routerOptions())
	down := newShapedLink(t, clock, 2e6, routerOptions())
	flow := ndn.MustNameFromString("/flow")

	require.True(t, up.Send(interestPacket("/flow/0")))
	up.TrackFlow(flow, down)
	entry := up.Shaping().Get(flow)
	require.NotNil(t, entry)
	assert.Equal(t, table.NoRtt, entry.Rtt)
	assert.Equal(t, 2e6, entry.Bandwidth)
	assert.Equal(t, uint32(1000), entry.MaxChunks)

	clock.RunUntil(100 * time.Millisecond)
	assert.True(t, up.SampleRtt(ndn.MustNameFromString("/flow/0")))
	assert.Equal(t, 100*time.Millisecond, entry.Rtt)
	// The send time is consumed by the first sample
	assert.False(t, up.SampleRtt(ndn.MustNameFromString("/flow/0")))

	up.SendingTimes().Record(ndn.MustNameFromString("/flow/1"), clock.Now())
	clock.RunUntil(150 * time.Millisecond)
	assert.True(t, up.SampleRtt(ndn.MustNameFromString("/flow/1")))
	assert.Equal(t, 60*time.Millisecond, entry.Rtt)

	up.Stop()
	clock.Run()
	assert.Equal(t, 0, clock.Pending())
}

func TestHobhisQueueRefresh(t *testing.T) {
	clock := sched.NewClock()
	up := newShapedLink(t, clock, 1e6, routerOptions())
	down := newShapedLink(t, clock, 1e3, routerOptions())
	flow := ndn.MustNameFromString("/flow")

	up.TrackFlow(flow, down)
	entry := up.Shaping().Get(flow)
	require.NotNil(t, entry)
	assert.Equal(t, uint32(0), entry.QueueLength)

	// The slow downstream link keeps Data queued
	for i := 0; i < 4; i++ {
		require.True(t, down.Send(dataPacket("/flow/"+strconv.Itoa(i))))
	}
	require.True(t, down.Send(dataPacket("/other/0")))
	clock.RunUntil(200 * time.Microsecond)
	assert.Equal(t, uint32(3), entry.QueueLength)
	assert.Equal(t, uint32(4), entry.TotalQueueLength)
	assert.Equal(t, 2, down.Queue().FlowNumber())

	up.TrackFlow(flow, down)
	assert.Equal(t, 2, up.FlowNumber())
	up.Stop()
}

func TestHobhisOptions(t *testing.T) {
	clock := sched.NewClock()
	link, err := face.NewLink("a", "b", face.DefaultLinkOptions(), clock)
	require.NoError(t, err)

	opts := routerOptions()
	opts.MaxInterest = 0
	_, err = face.NewHobhisFace(link.A(), opts, table.NewMeasurements())
	assert.ErrorIs(t, err, core.ErrInvalidOption)

	defaults := face.DefaultHobhisOptions()
	assert.NoError(t, defaults.Validate())
	assert.Equal(t, 100, defaults.MaxInterest)
	assert.True(t, defaults.ClientServer)
	assert.Equal(t, 100*time.Microsecond, defaults.UpdatePeriod)
}

func TestHobhisOwnsInboundPackets(t *testing.T) {
	clock := sched.NewClock()
	link, err := face.NewLink("a", "b", face.LinkOptions{Rate: 1e6, Delay: time.Millisecond, QueueMaxPackets: 10}, clock)
	require.NoError(t, err)
	f, err := face.NewHobhisFace(link.B(), routerOptions(), table.NewMeasurements())
	require.NoError(t, err)

	var from face.Face
	f.RegisterProtocolHandler(func(in face.Face, packet *ndn.Packet) {
		from = in
	})
	require.True(t, link.A().Send(dataPacket("/flow/0")))
	clock.Run()
	assert.Same(t, f, from)
}
