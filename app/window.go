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
)

// zeroWindowProbe bounds the wait before probing with a zero window.
const zeroWindowProbe = 500 * time.Millisecond

// windowBase keeps the number of outstanding Interests below a window.
type windowBase struct {
	consumer *Consumer
	window   uint32
	ssthresh uint32
	inFlight uint32
}

func (w *windowBase) init(consumer *Consumer, window uint32) {
	w.consumer = consumer
	w.window = window
	w.ssthresh = math.MaxUint32
}

// Window returns the current window.
func (w *windowBase) Window() uint32 {
	return w.window
}

// Ssthresh returns the slow-start threshold.
func (w *windowBase) Ssthresh() uint32 {
	return w.ssthresh
}

// InFlight returns the number of outstanding Interests.
func (w *windowBase) InFlight() uint32 {
	return w.inFlight
}

// ScheduleNextPacket sends right away while the window allows it. A zero window probes after min(0.5s, RTO).
func (w *windowBase) ScheduleNextPacket() {
	switch {
	case w.window == 0:
		delay := w.consumer.Rtt().RetransmitTimeout()
		if delay > zeroWindowProbe {
			delay = zeroWindowProbe
		}
		w.consumer.ScheduleSend(delay)
	case w.inFlight >= w.window:
		// Wait for Data, a NACK or a timeout
	default:
		w.consumer.ScheduleSend(0)
	}
}

// WillSendInterest counts the Interest as outstanding.
func (w *windowBase) WillSendInterest(uint32) {
	w.inFlight++
}

func (w *windowBase) release() {
	if w.inFlight > 0 {
		w.inFlight--
	}
}

// DidReceiveData releases a window slot.
func (w *windowBase) DidReceiveData(uint32) {
	w.release()
}

// DidReceiveNack releases a window slot.
func (w *windowBase) DidReceiveNack(uint32) {
	w.release()
}

// DidTimeout releases a window slot.
func (w *windowBase) DidTimeout(uint32) {
	w.release()
}

// grow applies slow start below ssthresh and otherwise one increment per window-worth of Data.
func (w *windowBase) grow(counter *uint32) {
	if w.window < w.ssthresh {
		w.window++
		return
	}
	if *counter >= w.window {
		w.window++
		*counter = 0
	} else {
		*counter++
	}
}

// WindowConstant keeps a fixed number of Interests outstanding.
type WindowConstant struct {
	windowBase
	initial uint32
}

func init() {
	controllers["window"] = func(opts ControllerOptions) CongestionController {
		return &WindowConstant{initial: opts.Window}
	}
}

func (w *WindowConstant) String() string {
	return "WindowConstant"
}

// Init binds the controller to its consumer.
func (w *WindowConstant) Init(consumer *Consumer) {
	w.init(consumer, w.initial)
}
