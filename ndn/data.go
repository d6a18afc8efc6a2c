/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package ndn

import (
	"encoding/binary"
	"math"
	"time"
)

const dataFixed = 2

// Data represents a Data packet: a content object header followed by its payload.
type Data struct {
	name      *Name
	freshness time.Duration
	content   []byte
}

// NewData creates a new Data packet with the given name and payload.
func NewData(name *Name, content []byte) *Data {
	d := new(Data)
	d.name = name
	d.content = content
	return d
}

func (d *Data) String() string {
	return "Data(Name=" + d.name.String() + ")"
}

// Name returns the name of the Data packet.
func (d *Data) Name() *Name {
	return d.name
}

// Freshness returns the freshness period of the Data packet.
func (d *Data) Freshness() time.Duration {
	return d.freshness
}

// SetFreshness sets the freshness period of the Data packet. Zero means no expiry.
func (d *Data) SetFreshness(freshness time.Duration) {
	d.freshness = freshness
}

// Content returns the payload of the Data packet.
func (d *Data) Content() []byte {
	return d.content
}

// EncodedSize returns the length of the wire encoding of the Data packet.
func (d *Data) EncodedSize() int {
	return dataFixed + nameEncodedSize(d.name) + 2 + 2 + 4 + len(d.content)
}

// Encode encodes the Data packet into its wire format.
func (d *Data) Encode() ([]byte, error) {
	seconds := int64(d.freshness / time.Second)
	if seconds < 0 || seconds > math.MaxUint16 {
		return nil, ErrLifetimeRange
	}
	if int64(len(d.content)) > math.MaxUint32 {
		return nil, ErrTooLong
	}

	wire := make([]byte, 0, d.EncodedSize())
	wire = append(wire, MarkerVersion, MarkerData)
	wire, err := appendName(wire, d.name)
	if err != nil {
		return nil, err
	}
	wire = binary.BigEndian.AppendUint16(wire, uint16(seconds))
	wire = binary.BigEndian.AppendUint16(wire, 0) // reserved
	wire = binary.BigEndian.AppendUint32(wire, uint32(len(d.content)))
	wire = append(wire, d.content...)
	return wire, nil
}

// DecodeData decodes a Data packet from its wire format.
func DecodeData(wire []byte) (*Data, error) {
	if len(wire) < dataFixed {
		return nil, ErrBufferTooShort
	}
	if wire[0] != MarkerVersion || wire[1] != MarkerData {
		return nil, ErrBadMarker
	}

	name, n, err := readName(wire[dataFixed:])
	if err != nil {
		return nil, err
	}
	pos := dataFixed + n
	if len(wire) < pos+8 {
		return nil, ErrBufferTooShort
	}

	d := new(Data)
	d.name = name
	d.freshness = time.Duration(binary.BigEndian.Uint16(wire[pos:])) * time.Second
	length := int(binary.BigEndian.Uint32(wire[pos+4:]))
	pos += 8
	if len(wire) < pos+length {
		return nil, ErrBufferTooShort
	}
	d.content = append([]byte(nil), wire[pos:pos+length]...)
	return d, nil
}
