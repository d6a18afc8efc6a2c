/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package fw_test

import (
	"testing"
	"time"

	"github.com/iti/rngstream"
	"github.com/named-data/hobhis/core"
	"github.com/named-data/hobhis/face"
	"github.com/named-data/hobhis/fw"
	"github.com/named-data/hobhis/ndn"
	"github.com/named-data/hobhis/sched"
	"github.com/named-data/hobhis/table"
	"github.com/named-data/hobhis/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// endpoint is an application face that records every packet the forwarder hands it.
type endpoint struct {
	face      *face.AppFace
	interests []*ndn.Interest
	data      []*ndn.Data
	// reply, if set, answers every normal Interest after the face received it.
	reply func(interest *ndn.Interest) *ndn.Packet
}

type bench struct {
	t         *testing.T
	clock     *sched.Clock
	metrics   *trace.Metrics
	forwarder *fw.Forwarder
}

func newBench(t *testing.T, mutate func(opts *fw.Options)) *bench {
	opts := fw.DefaultOptions()
	opts.Pit.PruningTimeout = 10 * time.Second
	if mutate != nil {
		mutate(&opts)
	}
	b := &bench{t: t, clock: sched.NewClock(), metrics: trace.NewMetrics()}
	forwarder, err := fw.NewForwarder("n0", opts, b.clock, b.metrics, rngstream.New("fw-test"))
	require.NoError(t, err)
	b.forwarder = forwarder
	return b
}

func (b *bench) endpoint(app string) *endpoint {
	e := &endpoint{face: face.NewAppFace("n0", app, b.clock)}
	e.face.SetAppHandler(func(packet *ndn.Packet) {
		switch {
		case packet.Interest != nil:
			e.interests = append(e.interests, packet.Interest)
			if e.reply != nil && !packet.Interest.IsNack() {
				if response := e.reply(packet.Interest); response != nil {
					e.face.Receive(response)
				}
			}
		case packet.Data != nil:
			e.data = append(e.data, packet.Data)
		}
	})
	b.forwarder.AddFace(e.face)
	return e
}

func producer(interest *ndn.Interest) *ndn.Packet {
	return ndn.DataPacket(ndn.NewData(interest.Name(), []byte("content")))
}

func interest(name string, nonce uint32) *ndn.Packet {
	i := ndn.NewInterest(ndn.MustNameFromString(name))
	i.SetNonce(nonce)
	return ndn.InterestPacket(i)
}

func (b *bench) settle() {
	b.clock.RunUntil(b.clock.Now() + time.Millisecond)
}

func (b *bench) counters(e *endpoint) *trace.FaceCounters {
	return b.metrics.Node("n0").Face(e.face.ID())
}

func TestInterestDataRoundTrip(t *testing.T) {
	b := newBench(t, nil)
	consumer := b.endpoint("consumer")
	prod := b.endpoint("producer")
	prod.reply = producer
	b.forwarder.AddRoute(ndn.MustNameFromString("/a"), prod.face.ID(), 1)

	consumer.face.Receive(interest("/a/1", 1))
	b.settle()

	require.Len(t, prod.interests, 1)
	require.Len(t, consumer.data, 1)
	assert.Equal(t, "/a/1", consumer.data[0].Name().String())

	assert.Equal(t, uint64(1), b.counters(consumer).InInterests)
	assert.Equal(t, uint64(1), b.counters(consumer).OutData)
	assert.Equal(t, uint64(1), b.counters(consumer).SatisfiedInterests)
	assert.Equal(t, uint64(1), b.counters(prod).OutInterests)
	assert.Equal(t, uint64(1), b.counters(prod).InData)

	entry := b.forwarder.Pit().Lookup(ndn.MustNameFromString("/a/1"))
	require.NotNil(t, entry)
	assert.True(t, entry.IsErased())
	assert.Empty(t, entry.InRecords())
	assert.NotNil(t, b.forwarder.Cs().Lookup(ndn.MustNameFromString("/a/1")))
	assert.True(t, b.forwarder.DeadNonceList().Find(ndn.MustNameFromString("/a/1"), 1))

	metric := b.forwarder.Fib().Find(ndn.MustNameFromString("/a")).Nexthop(prod.face.ID())
	assert.Equal(t, table.FaceGreen, metric.Status)
	assert.True(t, metric.HasRtt())
}

func TestContentStoreHit(t *testing.T) {
	b := newBench(t, nil)
	first := b.endpoint("first")
	second := b.endpoint("second")
	prod := b.endpoint("producer")
	prod.reply = producer
	b.forwarder.AddRoute(ndn.MustNameFromString("/a"), prod.face.ID(), 1)

	first.face.Receive(interest("/a/1", 1))
	b.settle()
	second.face.Receive(interest("/a/1", 2))
	b.settle()

	assert.Len(t, prod.interests, 1)
	assert.Len(t, second.data, 1)
	assert.Equal(t, uint64(1), b.forwarder.Counters().CsHits)
	assert.Equal(t, uint64(1), b.counters(second).SatisfiedInterests)
}

func TestDuplicateNonce(t *testing.T) {
	b := newBench(t, func(opts *fw.Options) {
		opts.EnableNacks = true
	})
	first := b.endpoint("first")
	second := b.endpoint("second")
	prod := b.endpoint("producer")
	b.forwarder.AddRoute(ndn.MustNameFromString("/a"), prod.face.ID(), 1)

	first.face.Receive(interest("/a/1", 7))
	second.face.Receive(interest("/a/1", 7))
	b.settle()

	assert.Len(t, prod.interests, 1)
	assert.Empty(t, first.interests)
	require.Len(t, second.interests, 1)
	assert.Equal(t, ndn.NackLoop, second.interests[0].Nack())
	assert.Equal(t, uint64(1), b.counters(second).DropInterests)
	assert.Equal(t, uint64(1), b.counters(second).OutNacks)
}

func TestDuplicateNonceAfterSatisfaction(t *testing.T) {
	b := newBench(t, nil)
	first := b.endpoint("first")
	looper := b.endpoint("looper")
	third := b.endpoint("third")
	prod := b.endpoint("producer")
	prod.reply = producer
	b.forwarder.AddRoute(ndn.MustNameFromString("/a"), prod.face.ID(), 1)
	name := ndn.MustNameFromString("/a/1")

	first.face.Receive(interest("/a/1", 1))
	b.settle()
	require.Len(t, first.data, 1)

	looper.face.Receive(interest("/a/1", 1))
	b.settle()
	entry := b.forwarder.Pit().Lookup(name)
	require.NotNil(t, entry)
	assert.True(t, entry.IsErased())
	assert.Empty(t, entry.InRecords())
	assert.Nil(t, b.forwarder.Pit().LookupPending(name))
	assert.Equal(t, uint64(1), b.counters(looper).DropInterests)
	assert.Len(t, prod.interests, 1)

	// A late copy of the Data has nobody left to go to
	prod.face.Receive(producer(prod.interests[0]))
	b.settle()
	assert.Empty(t, looper.data)
	assert.Equal(t, uint64(1), b.counters(prod).DropData)

	// A fresh nonce from another face is still answered
	third.face.Receive(interest("/a/1", 3))
	b.settle()
	assert.Len(t, third.data, 1)
	assert.True(t, entry.IsErased())

	b.clock.RunUntil(b.clock.Now() + 10*time.Second)
	assert.Nil(t, b.forwarder.Pit().Lookup(name))
	assert.Equal(t, 0, b.forwarder.Pit().Size())
}

func TestFreshNonceRevivesErasedEntry(t *testing.T) {
	b := newBench(t, nil)
	consumer := b.endpoint("consumer")
	prod := b.endpoint("producer")
	name := ndn.MustNameFromString("/late/1")

	consumer.face.Receive(interest("/late/1", 1))
	b.settle()
	entry := b.forwarder.Pit().Lookup(name)
	require.NotNil(t, entry)
	require.True(t, entry.IsErased())

	b.forwarder.AddRoute(ndn.MustNameFromString("/late"), prod.face.ID(), 1)
	consumer.face.Receive(interest("/late/1", 2))
	b.settle()

	require.Len(t, prod.interests, 1)
	assert.Equal(t, entry, b.forwarder.Pit().LookupPending(name))
	assert.Greater(t, entry.ExpiryTime(), b.clock.Now())

	// The revived entry times out instead of lingering
	b.clock.RunUntil(entry.ExpiryTime())
	assert.Nil(t, b.forwarder.Pit().Lookup(name))
	assert.Equal(t, uint64(1), b.counters(consumer).TimedOutInterests)
}

func TestSuppressionAndAggregation(t *testing.T) {
	b := newBench(t, nil)
	first := b.endpoint("first")
	second := b.endpoint("second")
	prod := b.endpoint("producer")
	b.forwarder.AddRoute(ndn.MustNameFromString("/a"), prod.face.ID(), 1)

	first.face.Receive(interest("/a/1", 1))
	second.face.Receive(interest("/a/1", 2))
	b.settle()
	require.Len(t, prod.interests, 1)
	assert.Equal(t, uint64(1), b.counters(second).DropInterests)

	prod.face.Receive(producer(prod.interests[0]))
	b.settle()
	assert.Len(t, first.data, 1)
	assert.Len(t, second.data, 1)
}

func TestRetransmission(t *testing.T) {
	b := newBench(t, nil)
	consumer := b.endpoint("consumer")
	prod := b.endpoint("producer")
	b.forwarder.AddRoute(ndn.MustNameFromString("/a"), prod.face.ID(), 1)

	consumer.face.Receive(interest("/a/1", 1))
	b.settle()
	consumer.face.Receive(interest("/a/1", 2))
	b.settle()

	require.Len(t, prod.interests, 2)
	entry := b.forwarder.Pit().Lookup(ndn.MustNameFromString("/a/1"))
	require.NotNil(t, entry)
	assert.Equal(t, 1, entry.OutRecords()[prod.face.ID()].RetxCount)
	assert.Equal(t, uint32(2), entry.OutRecords()[prod.face.ID()].Nonce)
}

func TestRetransmissionSuppressedWithoutDetection(t *testing.T) {
	b := newBench(t, func(opts *fw.Options) {
		opts.DetectRetransmissions = false
	})
	consumer := b.endpoint("consumer")
	prod := b.endpoint("producer")
	b.forwarder.AddRoute(ndn.MustNameFromString("/a"), prod.face.ID(), 1)

	consumer.face.Receive(interest("/a/1", 1))
	consumer.face.Receive(interest("/a/1", 2))
	b.settle()

	assert.Len(t, prod.interests, 1)
}

func TestNoRouteGivesUp(t *testing.T) {
	b := newBench(t, func(opts *fw.Options) {
		opts.EnableNacks = true
	})
	consumer := b.endpoint("consumer")

	consumer.face.Receive(interest("/nowhere/1", 1))
	b.settle()

	require.Len(t, consumer.interests, 1)
	assert.Equal(t, ndn.NackGiveUpPit, consumer.interests[0].Nack())
	assert.Equal(t, uint64(1), b.counters(consumer).OutNacks)
	entry := b.forwarder.Pit().Lookup(ndn.MustNameFromString("/nowhere/1"))
	require.NotNil(t, entry)
	assert.True(t, entry.IsErased())
}

func TestNoRouteWithoutNacks(t *testing.T) {
	b := newBench(t, nil)
	consumer := b.endpoint("consumer")

	consumer.face.Receive(interest("/nowhere/1", 1))
	b.settle()

	assert.Empty(t, consumer.interests)
	assert.Equal(t, uint64(1), b.counters(consumer).DropInterests)
}

func TestNackTriesNextHop(t *testing.T) {
	b := newBench(t, func(opts *fw.Options) {
		opts.EnableNacks = true
	})
	consumer := b.endpoint("consumer")
	congested := b.endpoint("congested")
	backup := b.endpoint("backup")
	backup.reply = producer
	b.forwarder.AddRoute(ndn.MustNameFromString("/a"), congested.face.ID(), 1)
	b.forwarder.AddRoute(ndn.MustNameFromString("/a"), backup.face.ID(), 2)

	consumer.face.Receive(interest("/a/1", 1))
	b.settle()
	require.Len(t, congested.interests, 1)
	assert.Empty(t, backup.interests)

	nack := congested.interests[0].Copy()
	nack.SetNack(ndn.NackCongestion)
	congested.face.Receive(ndn.InterestPacket(nack))
	b.settle()

	require.Len(t, backup.interests, 1)
	assert.False(t, backup.interests[0].IsNack())
	assert.Len(t, consumer.data, 1)
	assert.Equal(t, uint64(1), b.counters(congested).InNacks)
}

func TestNackForUnknownEntry(t *testing.T) {
	b := newBench(t, func(opts *fw.Options) {
		opts.EnableNacks = true
	})
	upstream := b.endpoint("upstream")

	nack := interest("/a/1", 1)
	nack.Interest.SetNack(ndn.NackLoop)
	upstream.face.Receive(nack)

	assert.Equal(t, uint64(1), b.counters(upstream).InNacks)
	assert.Equal(t, uint64(1), b.counters(upstream).DropNacks)
}

func TestNackGiveUpPropagatesDownstream(t *testing.T) {
	b := newBench(t, func(opts *fw.Options) {
		opts.EnableNacks = true
	})
	consumer := b.endpoint("consumer")
	upstream := b.endpoint("upstream")
	b.forwarder.AddRoute(ndn.MustNameFromString("/a"), upstream.face.ID(), 1)

	consumer.face.Receive(interest("/a/1", 1))
	b.settle()
	require.Len(t, upstream.interests, 1)

	nack := upstream.interests[0].Copy()
	nack.SetNack(ndn.NackGiveUpPit)
	upstream.face.Receive(ndn.InterestPacket(nack))
	b.settle()

	require.Len(t, consumer.interests, 1)
	assert.Equal(t, ndn.NackGiveUpPit, consumer.interests[0].Nack())
}

func TestTimeout(t *testing.T) {
	b := newBench(t, nil)
	consumer := b.endpoint("consumer")
	prod := b.endpoint("producer")
	prod.reply = producer
	prefix := ndn.MustNameFromString("/a")
	b.forwarder.AddRoute(prefix, prod.face.ID(), 1)

	consumer.face.Receive(interest("/a/1", 1))
	b.settle()
	require.Equal(t, table.FaceGreen, b.forwarder.Fib().Find(prefix).Nexthop(prod.face.ID()).Status)

	prod.reply = nil
	lost := interest("/a/2", 2)
	lost.Interest.SetLifetime(100 * time.Millisecond)
	consumer.face.Receive(lost)
	b.clock.RunUntil(b.clock.Now() + 200*time.Millisecond)

	assert.Equal(t, uint64(1), b.counters(consumer).TimedOutInterests)
	assert.Equal(t, table.FaceYellow, b.forwarder.Fib().Find(prefix).Nexthop(prod.face.ID()).Status)
	assert.Nil(t, b.forwarder.Pit().Lookup(lost.Name()))
	assert.True(t, b.forwarder.DeadNonceList().Find(lost.Name(), 2))

	// The same nonce again is a loop caught by the dead nonce list
	consumer.face.Receive(interest("/a/2", 2))
	b.settle()
	assert.Len(t, prod.interests, 2)
	assert.Equal(t, uint64(1), b.counters(consumer).DropInterests)
}

func TestUnsolicitedData(t *testing.T) {
	b := newBench(t, nil)
	upstream := b.endpoint("upstream")
	upstream.face.Receive(ndn.DataPacket(ndn.NewData(ndn.MustNameFromString("/a/1"), nil)))
	assert.Equal(t, uint64(1), b.counters(upstream).DropData)
	assert.Nil(t, b.forwarder.Cs().Lookup(ndn.MustNameFromString("/a/1")))

	b = newBench(t, func(opts *fw.Options) {
		opts.CacheUnsolicitedData = true
	})
	upstream = b.endpoint("upstream")
	upstream.face.Receive(ndn.DataPacket(ndn.NewData(ndn.MustNameFromString("/a/1"), nil)))
	assert.Zero(t, b.counters(upstream).DropData)
	assert.NotNil(t, b.forwarder.Cs().Lookup(ndn.MustNameFromString("/a/1")))
}

func TestFlooding(t *testing.T) {
	b := newBench(t, func(opts *fw.Options) {
		opts.Strategy = "flooding"
	})
	consumer := b.endpoint("consumer")
	first := b.endpoint("first")
	second := b.endpoint("second")
	red := b.endpoint("red")
	prefix := ndn.MustNameFromString("/a")
	b.forwarder.AddRoute(prefix, first.face.ID(), 1)
	b.forwarder.AddRoute(prefix, second.face.ID(), 2)
	b.forwarder.AddRoute(prefix, red.face.ID(), 0)
	b.forwarder.Fib().Find(prefix).UpdateStatus(red.face.ID(), table.FaceRed)

	consumer.face.Receive(interest("/a/1", 1))
	b.settle()

	assert.Len(t, first.interests, 1)
	assert.Len(t, second.interests, 1)
	assert.Empty(t, red.interests)
	assert.Equal(t, "/localhost/nfd/strategy/flooding", b.forwarder.Strategy().GetName().String())
}

func TestBestRouteSkipsDownFace(t *testing.T) {
	b := newBench(t, nil)
	consumer := b.endpoint("consumer")
	down := b.endpoint("down")
	up := b.endpoint("up")
	b.forwarder.AddRoute(ndn.MustNameFromString("/a"), down.face.ID(), 1)
	b.forwarder.AddRoute(ndn.MustNameFromString("/a"), up.face.ID(), 2)
	down.face.SetUp(false)

	consumer.face.Receive(interest("/a/1", 1))
	b.settle()

	assert.Empty(t, down.interests)
	assert.Len(t, up.interests, 1)
}

func TestRemoveFace(t *testing.T) {
	b := newBench(t, nil)
	consumer := b.endpoint("consumer")
	prod := b.endpoint("producer")
	prefix := ndn.MustNameFromString("/a")
	b.forwarder.AddRoute(prefix, prod.face.ID(), 1)
	consumer.face.Receive(interest("/a/1", 1))
	b.settle()

	b.forwarder.RemoveFace(prod.face.ID())
	assert.Nil(t, b.forwarder.Fib().Find(prefix))
	assert.Nil(t, b.forwarder.Faces().Get(prod.face.ID()))
	assert.Empty(t, b.forwarder.Pit().Lookup(ndn.MustNameFromString("/a/1")).OutRecords())
}

func TestUnknownStrategy(t *testing.T) {
	opts := fw.DefaultOptions()
	opts.Strategy = "random"
	_, err := fw.NewForwarder("n0", opts, sched.NewClock(), trace.NewMetrics(), nil)
	assert.ErrorIs(t, err, core.ErrUnknownStrategy)
	assert.Equal(t, []string{"best-route", "flooding"}, fw.StrategyNames())
}
