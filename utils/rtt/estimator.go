/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

// Package rtt implements a mean-deviation round-trip time estimator keyed by sequence number.
package rtt

import (
	"math"
	"time"

	"github.com/named-data/hobhis/core"
)

// Options configures an Estimator.
type Options struct {
	Gain            float64
	InitialEstimate time.Duration
	MinRto          time.Duration
	MaxRto          time.Duration
	MaxMultiplier   uint16
}

// DefaultOptions returns the estimator options from the active configuration.
func DefaultOptions() Options {
	c := core.GetConfig().Rtt
	return Options{
		Gain:            c.Gain,
		InitialEstimate: time.Duration(c.InitialEstimateMs) * time.Millisecond,
		MinRto:          time.Duration(c.MinRtoMs) * time.Millisecond,
		MaxRto:          time.Duration(c.MaxRtoMs) * time.Millisecond,
		MaxMultiplier:   uint16(c.MaxMultiplier),
	}
}

// Validate checks that the options are consistent.
func (o Options) Validate() error {
	if o.Gain <= 0 || o.Gain > 1 || o.MinRto < 0 || o.MaxRto < o.MinRto || o.MaxMultiplier < 1 {
		return core.ErrInvalidOption
	}
	return nil
}

type history struct {
	seq  uint32
	time time.Duration
	retx bool
}

// Estimator tracks smoothed RTT and the retransmission timeout of one flow.
type Estimator struct {
	opts       Options
	now        func() time.Duration
	next       uint32
	history    []history
	estimate   time.Duration
	variance   time.Duration
	nSamples   uint32
	multiplier uint16
}

// NewEstimator creates an estimator reading the current time from now.
func NewEstimator(opts Options, now func() time.Duration) (*Estimator, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	e := new(Estimator)
	e.opts = opts
	e.now = now
	e.Reset()
	return e, nil
}

func (e *Estimator) String() string {
	return "RttEstimator"
}

// SentSeq notes that the sequence has been sent. Sequences below the highest sent so far are retransmissions and will not be sampled.
func (e *Estimator) SentSeq(seq uint32, size uint32) {
	if seq >= e.next {
		e.history = append(e.history, history{seq: seq, time: e.now()})
		e.next = seq + size
		return
	}
	for i := range e.history {
		if e.history[i].seq == seq {
			e.history[i].retx = true
		}
	}
}

// AckSeq notes that the sequence has been acknowledged and returns the measured RTT, or zero if the sequence is unknown or was retransmitted.
func (e *Estimator) AckSeq(seq uint32) time.Duration {
	for i, h := range e.history {
		if h.seq != seq {
			continue
		}
		var m time.Duration
		if !h.retx {
			m = e.now() - h.time
			e.Measurement(m)
			e.ResetMultiplier()
		}
		e.history = append(e.history[:i], e.history[i+1:]...)
		return m
	}
	return 0
}

// ClearSent forgets all sent sequences.
func (e *Estimator) ClearSent() {
	e.next = 0
	e.history = e.history[:0]
}

// Measurement folds an RTT sample into the estimate.
func (e *Estimator) Measurement(m time.Duration) {
	if e.nSamples > 0 {
		err := m - e.estimate
		e.estimate += time.Duration(e.opts.Gain * float64(err))
		diff := absDuration(err) - e.variance
		e.variance += time.Duration(e.opts.Gain * float64(diff))
	} else {
		e.estimate = m
		e.variance = m / 2
	}
	e.nSamples++
}

// RetransmitTimeout returns the current RTO.
func (e *Estimator) RetransmitTimeout() time.Duration {
	base := e.estimate + 4*e.variance
	if base < e.opts.MinRto {
		base = e.opts.MinRto
	}
	rto := float64(e.multiplier) * float64(base)
	if rto > float64(e.opts.MaxRto) {
		return e.opts.MaxRto
	}
	return time.Duration(rto)
}

// IncreaseMultiplier doubles the RTO multiplier, up to the configured maximum.
func (e *Estimator) IncreaseMultiplier() {
	doubled := 2 * uint32(e.multiplier)
	e.multiplier = uint16(math.Min(float64(doubled), float64(e.opts.MaxMultiplier)))
}

// ResetMultiplier restores the RTO multiplier to 1.
func (e *Estimator) ResetMultiplier() {
	e.multiplier = 1
}

// Multiplier returns the current RTO multiplier.
func (e *Estimator) Multiplier() uint16 {
	return e.multiplier
}

// Reset returns the estimator to its initial state.
func (e *Estimator) Reset() {
	e.next = 0
	e.history = nil
	e.estimate = e.opts.InitialEstimate
	e.variance = 0
	e.nSamples = 0
	e.multiplier = 1
}

// SetCurrentEstimate forcefully sets the RTT estimate.
func (e *Estimator) SetCurrentEstimate(estimate time.Duration) {
	e.estimate = estimate
}

// CurrentEstimate returns the smoothed RTT.
func (e *Estimator) CurrentEstimate() time.Duration {
	return e.estimate
}

// Variance returns the smoothed mean deviation.
func (e *Estimator) Variance() time.Duration {
	return e.variance
}

// NSamples returns the number of samples taken.
func (e *Estimator) NSamples() uint32 {
	return e.nSamples
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
