/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package app

// Relentless grows the window by slow start up to ssthresh and linearly afterwards. Every NACK shrinks
// the window by one and sets ssthresh to the result.
type Relentless struct {
	windowBase
	initial   uint32
	windowCnt uint32
}

func init() {
	controllers["relentless"] = func(opts ControllerOptions) CongestionController {
		return &Relentless{initial: opts.Window}
	}
}

func (r *Relentless) String() string {
	return "Relentless"
}

// Init binds the controller to its consumer.
func (r *Relentless) Init(consumer *Consumer) {
	r.init(consumer, r.initial)
}

// DidReceiveData grows the window.
func (r *Relentless) DidReceiveData(uint32) {
	r.release()
	r.grow(&r.windowCnt)
}

// DidReceiveNack shrinks the window by one.
func (r *Relentless) DidReceiveNack(uint32) {
	r.release()
	if r.window > 0 {
		r.window--
	}
	r.ssthresh = r.window
}

// AIMD grows like Relentless but halves the outstanding Interests on a NACK, at most once per window of
// Interests sent before the last decrease.
type AIMD struct {
	Relentless
	recover uint32
}

func init() {
	controllers["aimd"] = func(opts ControllerOptions) CongestionController {
		return &AIMD{Relentless: Relentless{initial: opts.Window}}
	}
}

func (a *AIMD) String() string {
	return "AIMD"
}

// Recover returns the sequence number NACKs must exceed to decrease the window again.
func (a *AIMD) Recover() uint32 {
	return a.recover
}

// DidReceiveNack applies the multiplicative decrease unless one already happened in this epoch.
func (a *AIMD) DidReceiveNack(seq uint32) {
	a.release()
	if seq <= a.recover {
		return
	}
	a.ssthresh = a.inFlight / 2
	if a.ssthresh < 2 {
		a.ssthresh = 2
	}
	a.window = a.ssthresh
	a.windowCnt = 0
	a.recover = a.consumer.Seq()
}
