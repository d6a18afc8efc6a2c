/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package app

import (
	"time"

	"github.com/iti/rngstream"
	"github.com/named-data/hobhis/core"
	"github.com/named-data/hobhis/face"
	"github.com/named-data/hobhis/ndn"
	"github.com/named-data/hobhis/sched"
	"github.com/named-data/hobhis/table"
)

// RouteRegistrar installs routes in the FIB of a node.
type RouteRegistrar interface {
	AddRoute(prefix *ndn.Name, faceID uint64, cost uint64) *table.FibEntry
}

// ProducerOptions configures a Producer.
type ProducerOptions struct {
	Prefix      string
	PayloadSize int
	// RandomPayloadSizeMin and RandomPayloadSizeMax draw the payload size uniformly when the maximum is non-zero.
	RandomPayloadSizeMin int
	RandomPayloadSizeMax int
	// Freshness of the produced Data. Zero means unlimited.
	Freshness time.Duration
	// RandomDelayMin and RandomDelayMax bound the uniformly drawn processing delay of each response.
	RandomDelayMin time.Duration
	RandomDelayMax time.Duration
}

// DefaultProducerOptions returns the default producer options.
func DefaultProducerOptions() ProducerOptions {
	return ProducerOptions{Prefix: "/", PayloadSize: 1024}
}

// Validate checks that the options are consistent.
func (o ProducerOptions) Validate() error {
	if _, err := ndn.NameFromString(o.Prefix); err != nil {
		return err
	}
	if o.PayloadSize < 0 || o.RandomPayloadSizeMin < 0 || o.RandomPayloadSizeMax < o.RandomPayloadSizeMin ||
		o.Freshness < 0 || o.RandomDelayMin < 0 || o.RandomDelayMax < o.RandomDelayMin {
		return core.ErrInvalidOption
	}
	return nil
}

// Producer answers every Interest under its prefix with a Data packet of the configured size.
type Producer struct {
	appBase
	opts      ProducerOptions
	prefix    *ndn.Name
	registrar RouteRegistrar
	rng       *rngstream.RngStream

	pending    map[sched.EventID]struct{}
	nInterests uint64
	nData      uint64
}

// NewProducer creates a producer named name that talks through appFace and registers its prefix with registrar when started.
func NewProducer(name string, appFace *face.AppFace, scheduler sched.Scheduler, opts ProducerOptions,
	registrar RouteRegistrar, rng *rngstream.RngStream) (*Producer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	p := new(Producer)
	p.init(name, appFace, scheduler)
	p.opts = opts
	p.prefix = ndn.MustNameFromString(opts.Prefix)
	p.registrar = registrar
	p.rng = rng
	p.pending = make(map[sched.EventID]struct{})
	p.onInterest = p.onIncomingInterest
	return p, nil
}

func (p *Producer) String() string {
	return "Producer-" + p.name
}

// Prefix returns the prefix the producer serves.
func (p *Producer) Prefix() *ndn.Name {
	return p.prefix
}

// NInterests returns the number of Interests received.
func (p *Producer) NInterests() uint64 {
	return p.nInterests
}

// NData returns the number of Data packets sent.
func (p *Producer) NData() uint64 {
	return p.nData
}

// Start registers the prefix through the face of the producer, with status GREEN, and starts answering.
func (p *Producer) Start() {
	if p.active {
		return
	}
	core.LogInfo(p, "Serving ", p.prefix)
	p.active = true
	entry := p.registrar.AddRoute(p.prefix, p.face.ID(), 0)
	entry.UpdateStatus(p.face.ID(), table.FaceGreen)
}

// Stop stops answering. Responses still being prepared are discarded.
func (p *Producer) Stop() {
	if !p.active {
		return
	}
	p.active = false
	for id := range p.pending {
		p.scheduler.Cancel(id)
	}
	p.pending = make(map[sched.EventID]struct{})
}

func (p *Producer) payloadSize() int {
	if p.opts.RandomPayloadSizeMax > 0 {
		return p.rng.RandInt(p.opts.RandomPayloadSizeMin, p.opts.RandomPayloadSizeMax)
	}
	return p.opts.PayloadSize
}

func (p *Producer) delay() time.Duration {
	spread := p.opts.RandomDelayMax - p.opts.RandomDelayMin
	if spread == 0 {
		return p.opts.RandomDelayMin
	}
	return p.opts.RandomDelayMin + time.Duration(p.rng.RandU01()*float64(spread))
}

func (p *Producer) onIncomingInterest(interest *ndn.Interest) {
	if interest.IsNack() {
		core.LogDebug(p, "Received NACK ", interest.Nack(), " for ", interest.Name())
		return
	}
	core.LogTrace(p, "Received Interest ", interest.Name())
	p.nInterests++

	data := ndn.NewData(interest.Name(), make([]byte, p.payloadSize()))
	data.SetFreshness(p.opts.Freshness)

	var id sched.EventID
	id = p.scheduler.Schedule(p.delay(), func() {
		delete(p.pending, id)
		p.nData++
		p.send(ndn.DataPacket(data))
	})
	p.pending[id] = struct{}{}
}
