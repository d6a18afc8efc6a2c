/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

// Package sched provides the virtual clock that drives every component of the engine.
//
// All callbacks run on the goroutine that calls Run. Callbacks scheduled for the same
// instant run in the order they were scheduled.
package sched

import (
	"container/heap"
	"time"
)

// EventID identifies a scheduled callback. The zero value never refers to an event.
type EventID uint64

// Scheduler is the timer abstraction consumed by components needing delayed actions.
type Scheduler interface {
	// Now returns the current simulated time.
	Now() time.Duration
	// Schedule runs task after delay.
	Schedule(delay time.Duration, task func()) EventID
	// ScheduleNow runs task at the current instant, after already queued tasks for this instant.
	ScheduleNow(task func()) EventID
	// Cancel removes a pending event. Unknown or expired IDs are ignored.
	Cancel(id EventID)
	// IsPending returns whether the event is still waiting to run.
	IsPending(id EventID) bool
}

type event struct {
	id    EventID
	at    time.Duration
	seq   uint64
	task  func()
	index int
}

type eventQueue []*event

func (q eventQueue) Len() int { return len(q) }

func (q eventQueue) Less(i, j int) bool {
	if q[i].at != q[j].at {
		return q[i].at < q[j].at
	}
	return q[i].seq < q[j].seq
}

func (q eventQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *eventQueue) Push(x interface{}) {
	e := x.(*event)
	e.index = len(*q)
	*q = append(*q, e)
}

func (q *eventQueue) Pop() interface{} {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil  // avoid memory leak
	e.index = -1   // for safety
	*q = old[0 : n-1]
	return e
}

// Clock is a discrete-event Scheduler.
type Clock struct {
	now     time.Duration
	queue   eventQueue
	pending map[EventID]*event
	nextID  EventID
	nextSeq uint64
	stopped bool
}

// NewClock creates a clock starting at time zero.
func NewClock() *Clock {
	c := new(Clock)
	c.pending = make(map[EventID]*event)
	return c
}

func (c *Clock) String() string {
	return "Clock"
}

// Now returns the current simulated time.
func (c *Clock) Now() time.Duration {
	return c.now
}

// Schedule runs task after delay. Negative delays are treated as zero.
func (c *Clock) Schedule(delay time.Duration, task func()) EventID {
	if delay < 0 {
		delay = 0
	}
	c.nextID++
	c.nextSeq++
	e := &event{
		id:   c.nextID,
		at:   c.now + delay,
		seq:  c.nextSeq,
		task: task,
	}
	heap.Push(&c.queue, e)
	c.pending[e.id] = e
	return e.id
}

// ScheduleNow runs task at the current instant.
func (c *Clock) ScheduleNow(task func()) EventID {
	return c.Schedule(0, task)
}

// Cancel removes a pending event.
func (c *Clock) Cancel(id EventID) {
	e, ok := c.pending[id]
	if !ok {
		return
	}
	heap.Remove(&c.queue, e.index)
	delete(c.pending, id)
}

// IsPending returns whether the event is still waiting to run.
func (c *Clock) IsPending(id EventID) bool {
	_, ok := c.pending[id]
	return ok
}

// Pending returns the number of events waiting to run.
func (c *Clock) Pending() int {
	return len(c.queue)
}

// Step runs the earliest pending event, returning false if there was none.
func (c *Clock) Step() bool {
	if len(c.queue) == 0 {
		return false
	}
	e := heap.Pop(&c.queue).(*event)
	delete(c.pending, e.id)
	c.now = e.at
	e.task()
	return true
}

// Run executes events until none remain or Stop is called.
func (c *Clock) Run() {
	c.stopped = false
	for !c.stopped && c.Step() {
	}
}

// RunUntil executes all events scheduled at or before t, then advances the clock to t.
func (c *Clock) RunUntil(t time.Duration) {
	c.stopped = false
	for !c.stopped && len(c.queue) > 0 && c.queue[0].at <= t {
		c.Step()
	}
	if !c.stopped && c.now < t {
		c.now = t
	}
}

// Stop makes Run or RunUntil return after the current callback.
func (c *Clock) Stop() {
	c.stopped = true
}
