/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package app

import (
	"time"

	"github.com/named-data/hobhis/core"
	"gonum.org/v1/gonum/floats"
)

// RaaqmOptions configures the RAAQM controller.
type RaaqmOptions struct {
	// Beta is the multiplicative decrease factor.
	Beta float64
	// PMin and PMax bound the decrease probability.
	PMin float64
	PMax float64
	// RttSampleSize is the number of recent RTT samples the probability is computed over.
	RttSampleSize int
}

// DefaultRaaqmOptions returns the default RAAQM tunables.
func DefaultRaaqmOptions() RaaqmOptions {
	return RaaqmOptions{Beta: 0.1, PMin: 0.00001, PMax: 0.1, RttSampleSize: 30}
}

// Validate checks that the options are consistent.
func (o RaaqmOptions) Validate() error {
	if o.Beta <= 0 || o.Beta >= 1 || o.PMin < 0 || o.PMax > 1 || o.PMin > o.PMax || o.RttSampleSize < 2 {
		return core.ErrInvalidOption
	}
	return nil
}

// Raaqm grows the window like Relentless and decreases it with a probability that rises with the position
// of the current RTT between the smallest and largest recent RTT.
type Raaqm struct {
	windowBase
	opts      RaaqmOptions
	initial   uint32
	windowCnt uint32
	samples   []float64 // Seconds, oldest first
	lastP     float64
}

func init() {
	controllers["raaqm"] = func(opts ControllerOptions) CongestionController {
		return &Raaqm{opts: opts.Raaqm, initial: opts.Window}
	}
}

func (r *Raaqm) String() string {
	return "Raaqm"
}

// Init binds the controller to its consumer.
func (r *Raaqm) Init(consumer *Consumer) {
	r.init(consumer, r.initial)
}

// DecreaseProbability returns the probability computed for the last sample, or zero before the sample window filled.
func (r *Raaqm) DecreaseProbability() float64 {
	return r.lastP
}

// AddRttSample adds a sample to the window and returns the decrease probability for it. The second
// result is false until the window holds RttSampleSize samples.
func (r *Raaqm) AddRttSample(rtt time.Duration) (float64, bool) {
	r.samples = append(r.samples, rtt.Seconds())
	if len(r.samples) < r.opts.RttSampleSize {
		return 0, false
	}
	if excess := len(r.samples) - r.opts.RttSampleSize; excess > 0 {
		r.samples = r.samples[excess:]
	}

	minRtt := floats.Min(r.samples)
	maxRtt := floats.Max(r.samples)
	if maxRtt == minRtt {
		r.lastP = r.opts.PMin
	} else {
		r.lastP = r.opts.PMin + (r.opts.PMax-r.opts.PMin)*(rtt.Seconds()-minRtt)/(maxRtt-minRtt)
	}
	return r.lastP, true
}

// DidReceiveData grows the window, then samples the RTT of first transmissions and randomly decreases the window.
func (r *Raaqm) DidReceiveData(seq uint32) {
	r.release()
	r.grow(&r.windowCnt)

	if r.consumer.RetxCount(seq) != 1 {
		return
	}
	sent, ok := r.consumer.LastSendTime(seq)
	if !ok {
		return
	}
	p, full := r.AddRttSample(r.consumer.Scheduler().Now() - sent)
	if full && r.consumer.Rng().RandU01() < p {
		r.window = uint32(float64(r.window) * (1 - r.opts.Beta))
		r.ssthresh = r.window
	}
}
