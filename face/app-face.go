/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package face

import (
	"strconv"

	"github.com/named-data/hobhis/ndn"
	"github.com/named-data/hobhis/sched"
)

// AppFace connects an application to the forwarder of its node.
type AppFace struct {
	faceBase
	app       string
	scheduler sched.Scheduler
	toApp     func(packet *ndn.Packet)
}

// NewAppFace creates a face for the named application on the named node.
func NewAppFace(node string, app string, scheduler sched.Scheduler) *AppFace {
	f := new(AppFace)
	f.init(node)
	f.app = app
	f.scheduler = scheduler
	return f
}

func (f *AppFace) String() string {
	return "AppFace (faceid=" + strconv.FormatUint(f.id, 10) + ", node=" + f.node + ", app=" + f.app + ")"
}

// SetAppHandler sets the callback receiving packets destined to the application.
func (f *AppFace) SetAppHandler(handler func(packet *ndn.Packet)) {
	f.toApp = handler
}

// Send hands the packet to the application at the current instant.
func (f *AppFace) Send(packet *ndn.Packet) bool {
	if !f.IsUp() || f.toApp == nil {
		return false
	}
	toApp := f.toApp
	f.scheduler.ScheduleNow(func() {
		toApp(packet)
	})
	return true
}

// Receive passes a packet from the application to the forwarder.
func (f *AppFace) Receive(packet *ndn.Packet) {
	f.deliver(f, packet)
}

// Capacity returns zero since application faces are not rate limited.
func (f *AppFace) Capacity() float64 {
	return 0
}
