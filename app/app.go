/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

// Package app contains the applications that generate and answer Interests: windowed and rate-based consumers and producers.
package app

import (
	"github.com/named-data/hobhis/face"
	"github.com/named-data/hobhis/ndn"
	"github.com/named-data/hobhis/sched"
)

// App is an application attached to a node through an application face.
type App interface {
	String() string
	Name() string
	Face() *face.AppFace
	Start()
	Stop()
	IsActive() bool
}

// appBase holds the state shared by all applications.
type appBase struct {
	name      string
	face      *face.AppFace
	scheduler sched.Scheduler
	active    bool

	onInterest func(interest *ndn.Interest)
	onData     func(data *ndn.Data)
}

func (a *appBase) init(name string, appFace *face.AppFace, scheduler sched.Scheduler) {
	a.name = name
	a.face = appFace
	a.scheduler = scheduler
	appFace.SetAppHandler(a.receive)
}

// Name returns the name of the application.
func (a *appBase) Name() string {
	return a.name
}

// Face returns the face connecting the application to its node.
func (a *appBase) Face() *face.AppFace {
	return a.face
}

// IsActive returns whether the application has been started and not stopped.
func (a *appBase) IsActive() bool {
	return a.active
}

func (a *appBase) receive(packet *ndn.Packet) {
	if !a.active {
		return
	}
	switch {
	case packet.Interest != nil:
		if a.onInterest != nil {
			a.onInterest(packet.Interest)
		}
	case packet.Data != nil:
		if a.onData != nil {
			a.onData(packet.Data)
		}
	}
}

func (a *appBase) send(packet *ndn.Packet) {
	a.face.Receive(packet)
}
