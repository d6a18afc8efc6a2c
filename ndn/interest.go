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
	"strconv"
	"time"
)

// Header markers
const (
	MarkerVersion  byte = 0x80
	MarkerInterest byte = 0x00
	MarkerData     byte = 0x01
)

// DefaultScope is the scope of newly created Interests.
const DefaultScope byte = 0xFF

const (
	interestFixed   = 2 + 4 + 1 + 1 + 2
	interestTrailer = 2 + 2
)

// Interest represents an Interest header.
type Interest struct {
	name     *Name
	nonce    uint32
	scope    byte
	nack     NackCode
	lifetime time.Duration
}

// NewInterest creates a new Interest for the given name with default field values.
func NewInterest(name *Name) *Interest {
	i := new(Interest)
	i.name = name
	i.scope = DefaultScope
	return i
}

func (i *Interest) String() string {
	out := "Interest(Name=" + i.name.String() + ", Nonce=" + strconv.FormatUint(uint64(i.nonce), 10)
	if i.nack != NormalInterest {
		out += ", Nack=" + i.nack.String()
	}
	return out + ", Lifetime=" + strconv.FormatInt(i.lifetime.Milliseconds(), 10) + "ms)"
}

// Name returns the name of the Interest.
func (i *Interest) Name() *Name {
	return i.name
}

// SetName sets the name of the Interest.
func (i *Interest) SetName(name *Name) {
	i.name = name
}

// Nonce returns the nonce of the Interest.
func (i *Interest) Nonce() uint32 {
	return i.nonce
}

// SetNonce sets the nonce of the Interest.
func (i *Interest) SetNonce(nonce uint32) {
	i.nonce = nonce
}

// Scope returns the scope of the Interest.
func (i *Interest) Scope() byte {
	return i.scope
}

// SetScope sets the scope of the Interest.
func (i *Interest) SetScope(scope byte) {
	i.scope = scope
}

// Nack returns the NACK code of the Interest.
func (i *Interest) Nack() NackCode {
	return i.nack
}

// SetNack sets the NACK code of the Interest.
func (i *Interest) SetNack(code NackCode) {
	i.nack = code
}

// IsNack returns whether the Interest carries a NACK code.
func (i *Interest) IsNack() bool {
	return i.nack != NormalInterest
}

// Lifetime returns the lifetime of the Interest.
func (i *Interest) Lifetime() time.Duration {
	return i.lifetime
}

// SetLifetime sets the lifetime of the Interest.
func (i *Interest) SetLifetime(lifetime time.Duration) {
	i.lifetime = lifetime
}

// Copy returns a shallow copy of the Interest. The name is shared, since names are immutable.
func (i *Interest) Copy() *Interest {
	c := *i
	return &c
}

// EncodedSize returns the length of the wire encoding of the Interest.
func (i *Interest) EncodedSize() int {
	return interestFixed + nameEncodedSize(i.name) + interestTrailer
}

// Encode encodes the Interest into its wire format.
func (i *Interest) Encode() ([]byte, error) {
	seconds := int64(i.lifetime / time.Second)
	if seconds < 0 || seconds > math.MaxUint16 {
		return nil, ErrLifetimeRange
	}

	wire := make([]byte, 0, i.EncodedSize())
	wire = append(wire, MarkerVersion, MarkerInterest)
	wire = binary.BigEndian.AppendUint32(wire, i.nonce)
	wire = append(wire, i.scope, byte(i.nack))
	wire = binary.BigEndian.AppendUint16(wire, uint16(seconds))
	wire, err := appendName(wire, i.name)
	if err != nil {
		return nil, err
	}
	wire = binary.BigEndian.AppendUint16(wire, 0) // no selectors
	wire = binary.BigEndian.AppendUint16(wire, 0) // no options
	return wire, nil
}

// DecodeInterest decodes an Interest from its wire format.
func DecodeInterest(wire []byte) (*Interest, error) {
	if len(wire) < interestFixed {
		return nil, ErrBufferTooShort
	}
	if wire[0] != MarkerVersion || wire[1] != MarkerInterest {
		return nil, ErrBadMarker
	}

	i := new(Interest)
	i.nonce = binary.BigEndian.Uint32(wire[2:6])
	i.scope = wire[6]
	i.nack = NackCode(wire[7])
	i.lifetime = time.Duration(binary.BigEndian.Uint16(wire[8:10])) * time.Second

	name, n, err := readName(wire[interestFixed:])
	if err != nil {
		return nil, err
	}
	i.name = name
	if len(wire) < interestFixed+n+interestTrailer {
		return nil, ErrBufferTooShort
	}
	return i, nil
}

func nameEncodedSize(name *Name) int {
	size := 2
	for _, component := range name.components {
		size += 2 + len(component)
	}
	return size
}

func appendName(wire []byte, name *Name) ([]byte, error) {
	if name.Size() > math.MaxUint16 {
		return nil, ErrTooLong
	}
	wire = binary.BigEndian.AppendUint16(wire, uint16(name.Size()))
	for _, component := range name.components {
		if len(component) > math.MaxUint16 {
			return nil, ErrTooLong
		}
		wire = binary.BigEndian.AppendUint16(wire, uint16(len(component)))
		wire = append(wire, component...)
	}
	return wire, nil
}

// readName decodes a name, returning it with the number of bytes consumed.
func readName(wire []byte) (*Name, int, error) {
	if len(wire) < 2 {
		return nil, 0, ErrBufferTooShort
	}
	count := int(binary.BigEndian.Uint16(wire))
	pos := 2
	name := new(Name)
	name.components = make([]NameComponent, 0, count)
	for c := 0; c < count; c++ {
		if len(wire) < pos+2 {
			return nil, 0, ErrBufferTooShort
		}
		length := int(binary.BigEndian.Uint16(wire[pos:]))
		pos += 2
		if len(wire) < pos+length {
			return nil, 0, ErrBufferTooShort
		}
		name.components = append(name.components, NameComponent(append([]byte(nil), wire[pos:pos+length]...)))
		pos += length
	}
	return name, pos, nil
}
