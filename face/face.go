/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

// Package face contains the faces through which a node exchanges packets: application faces, point-to-point links and the HoBHIS shaper.
package face

import (
	"github.com/named-data/hobhis/ndn"
)

// ProtocolHandler is invoked for every packet a face receives.
type ProtocolHandler func(face Face, packet *ndn.Packet)

// Face is an endpoint through which a node sends and receives packets.
type Face interface {
	String() string

	ID() uint64
	SetID(id uint64)

	// Send transmits the packet. False means the face rejected it.
	Send(packet *ndn.Packet) bool
	// RegisterProtocolHandler sets the handler inbound packets are delivered to.
	RegisterProtocolHandler(handler ProtocolHandler)
	// Capacity returns the bit rate of the face in bit/s, or zero if unlimited.
	Capacity() float64

	State() State
	IsUp() bool
	SetUp(up bool)
}

// faceBase contains the state common to all faces.
type faceBase struct {
	id      uint64
	node    string
	state   State
	handler ProtocolHandler
}

func (f *faceBase) init(node string) {
	f.node = node
	f.state = Up
}

// ID returns the face ID.
func (f *faceBase) ID() uint64 {
	return f.id
}

// SetID sets the face ID.
func (f *faceBase) SetID(id uint64) {
	f.id = id
}

// RegisterProtocolHandler sets the handler inbound packets are delivered to.
func (f *faceBase) RegisterProtocolHandler(handler ProtocolHandler) {
	f.handler = handler
}

// State returns the state of the face.
func (f *faceBase) State() State {
	return f.state
}

// IsUp returns whether the face is up.
func (f *faceBase) IsUp() bool {
	return f.state == Up
}

// SetUp brings the face up or down.
func (f *faceBase) SetUp(up bool) {
	if up {
		f.state = Up
	} else {
		f.state = Down
	}
}

func (f *faceBase) deliver(self Face, packet *ndn.Packet) {
	if f.handler != nil && f.state == Up {
		f.handler(self, packet)
	}
}
