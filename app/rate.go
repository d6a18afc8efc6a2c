/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package app

import (
	"time"
)

// rateBase sends Interests at a frequency, independently of the outstanding ones.
type rateBase struct {
	consumer  *Consumer
	frequency float64
	started   bool
}

// Frequency returns the current sending rate in Interests per second.
func (r *rateBase) Frequency() float64 {
	return r.frequency
}

// ScheduleNextPacket sends the first Interest right away and each later one 1/frequency after the previous.
func (r *rateBase) ScheduleNextPacket() {
	if !r.started {
		r.started = true
		r.consumer.ScheduleSend(0)
		return
	}
	if !r.consumer.IsSendPending() {
		r.consumer.ScheduleSend(time.Duration(float64(time.Second) / r.frequency))
	}
}

// WillSendInterest does nothing.
func (r *rateBase) WillSendInterest(uint32) {}

// DidReceiveNack does nothing.
func (r *rateBase) DidReceiveNack(uint32) {}

// DidTimeout does nothing.
func (r *rateBase) DidTimeout(uint32) {}

// ConstantRate sends Interests at a fixed frequency.
type ConstantRate struct {
	rateBase
}

func init() {
	controllers["cbr"] = func(opts ControllerOptions) CongestionController {
		return &ConstantRate{rateBase{frequency: opts.Frequency}}
	}
}

func (c *ConstantRate) String() string {
	return "ConstantRate"
}

// Init binds the controller to its consumer.
func (c *ConstantRate) Init(consumer *Consumer) {
	c.consumer = consumer
}

// DidReceiveData does nothing.
func (c *ConstantRate) DidReceiveData(uint32) {}

// RateAdaptive follows the rate at which Data arrives. In slow start it sends at twice the measured Data rate,
// afterwards at the measured rate plus a probing increment.
type RateAdaptive struct {
	rateBase
	probeFactor   float64
	dataFrequency float64
	prevData      time.Duration
	hasPrevData   bool
	inSlowStart   bool
}

func init() {
	controllers["rate"] = func(opts ControllerOptions) CongestionController {
		return &RateAdaptive{
			rateBase:    rateBase{frequency: opts.Frequency},
			probeFactor: opts.ProbeFactor,
			inSlowStart: true,
		}
	}
}

func (r *RateAdaptive) String() string {
	return "RateAdaptive"
}

// Init binds the controller to its consumer.
func (r *RateAdaptive) Init(consumer *Consumer) {
	r.consumer = consumer
}

// InSlowStart returns whether the measured Data rate was still increasing at the last sample.
func (r *RateAdaptive) InSlowStart() bool {
	return r.inSlowStart
}

// DataFrequency returns the smoothed rate at which Data arrives.
func (r *RateAdaptive) DataFrequency() float64 {
	return r.dataFrequency
}

// DidReceiveData folds the inter-arrival time of Data into the measured rate and derives the sending rate from it.
func (r *RateAdaptive) DidReceiveData(uint32) {
	now := r.consumer.Scheduler().Now()
	if r.hasPrevData && now > r.prevData {
		freq := 1 / (now - r.prevData).Seconds()
		if r.dataFrequency == 0 {
			r.dataFrequency = freq
		} else {
			r.dataFrequency = r.dataFrequency*7/8 + freq/8
			if freq < r.dataFrequency {
				r.inSlowStart = false
			}
		}
		if r.inSlowStart {
			r.frequency = r.dataFrequency * 2
		} else {
			r.frequency = r.dataFrequency + r.probeFactor
		}
	}
	r.prevData = now
	r.hasPrevData = true
}
