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

	"github.com/named-data/hobhis/core"
)

// CubicOptions configures the CUBIC controller.
type CubicOptions struct {
	// Beta is the multiplicative decrease factor.
	Beta float64
	// C scales the cubic growth function.
	C               float64
	FastConvergence bool
}

// DefaultCubicOptions returns the default CUBIC tunables.
func DefaultCubicOptions() CubicOptions {
	return CubicOptions{Beta: 0.2, C: 0.4, FastConvergence: true}
}

// Validate checks that the options are consistent.
func (o CubicOptions) Validate() error {
	if o.Beta <= 0 || o.Beta >= 1 || o.C <= 0 {
		return core.ErrInvalidOption
	}
	return nil
}

// Cubic grows the window by slow start and then along a cubic function of the time since the last decrease,
// centered on the window at which that decrease happened.
type Cubic struct {
	windowBase
	opts      CubicOptions
	initial   uint32
	windowCnt uint32

	decreased    bool
	lastDecrease time.Duration
	epochStart   time.Duration
	epochStarted bool
	dMin         time.Duration
	lastWindow   uint32
	k            float64
	originPoint  uint32
}

func init() {
	controllers["cubic"] = func(opts ControllerOptions) CongestionController {
		return &Cubic{opts: opts.Cubic, initial: opts.Window}
	}
}

func (c *Cubic) String() string {
	return "Cubic"
}

// Init binds the controller to its consumer.
func (c *Cubic) Init(consumer *Consumer) {
	c.init(consumer, c.initial)
}

// MinRtt returns the smallest RTT observed, or zero before the first sample.
func (c *Cubic) MinRtt() time.Duration {
	return c.dMin
}

// DidReceiveData grows the window.
func (c *Cubic) DidReceiveData(seq uint32) {
	c.release()
	now := c.consumer.Scheduler().Now()
	if sent, ok := c.consumer.LastSendTime(seq); ok {
		if rtt := now - sent; c.dMin == 0 || rtt < c.dMin {
			c.dMin = rtt
		}
	}

	if c.window < c.ssthresh {
		c.window++
		return
	}

	if !c.epochStarted {
		c.epochStarted = true
		c.epochStart = now
		c.k = math.Cbrt((float64(c.lastWindow) - float64(c.window)) / c.opts.C)
		c.originPoint = c.lastWindow
	}
	t := (now + c.dMin - c.epochStart).Seconds()
	target := float64(c.originPoint) + c.opts.C*math.Pow(t-c.k, 3)

	var cnt uint32
	if target = math.Min(target, math.MaxUint32); target > 0 && uint32(target) > c.window {
		cnt = c.window / (uint32(target) - c.window)
	} else {
		cnt = 100 * c.window
	}
	if c.windowCnt >= cnt {
		c.window++
		c.windowCnt = 0
	} else {
		c.windowCnt++
	}
}

// DidReceiveNack shrinks the window by Beta, once per Interest sent after the previous decrease.
func (c *Cubic) DidReceiveNack(seq uint32) {
	c.release()
	sent, ok := c.consumer.LastSendTime(seq)
	if !ok || c.decreased && sent <= c.lastDecrease {
		return
	}

	c.decreased = true
	c.epochStarted = false
	c.lastDecrease = c.consumer.Scheduler().Now()
	if c.window < c.lastWindow && c.opts.FastConvergence {
		c.lastWindow = uint32(float64(c.window) * (2 - c.opts.Beta) / 2)
	} else {
		c.lastWindow = c.window
	}
	c.window = uint32(float64(c.window) * (1 - c.opts.Beta))
	c.ssthresh = c.window
}
