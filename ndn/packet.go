/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package ndn

// Packet is a unit carried between faces: either an Interest (possibly a NACK) or a Data packet.
type Packet struct {
	Interest *Interest
	Data     *Data
}

// InterestPacket wraps an Interest.
func InterestPacket(interest *Interest) *Packet {
	return &Packet{Interest: interest}
}

// DataPacket wraps a Data packet.
func DataPacket(data *Data) *Packet {
	return &Packet{Data: data}
}

func (p *Packet) String() string {
	if p.Interest != nil {
		return p.Interest.String()
	}
	if p.Data != nil {
		return p.Data.String()
	}
	return "Packet(empty)"
}

// Name returns the name of the carried Interest or Data.
func (p *Packet) Name() *Name {
	if p.Interest != nil {
		return p.Interest.Name()
	}
	if p.Data != nil {
		return p.Data.Name()
	}
	return nil
}

// EncodedSize returns the wire length of the packet.
func (p *Packet) EncodedSize() int {
	if p.Interest != nil {
		return p.Interest.EncodedSize()
	}
	if p.Data != nil {
		return p.Data.EncodedSize()
	}
	return 0
}

// Encode encodes the carried Interest or Data.
func (p *Packet) Encode() ([]byte, error) {
	if p.Interest != nil {
		return p.Interest.Encode()
	}
	if p.Data != nil {
		return p.Data.Encode()
	}
	return nil, ErrBufferTooShort
}

// DecodePacket decodes a wire buffer, dispatching on the packet type marker.
func DecodePacket(wire []byte) (*Packet, error) {
	if len(wire) < 2 {
		return nil, ErrBufferTooShort
	}
	if wire[0] != MarkerVersion {
		return nil, ErrBadMarker
	}
	switch wire[1] {
	case MarkerInterest:
		interest, err := DecodeInterest(wire)
		if err != nil {
			return nil, err
		}
		return InterestPacket(interest), nil
	case MarkerData:
		data, err := DecodeData(wire)
		if err != nil {
			return nil, err
		}
		return DataPacket(data), nil
	default:
		return nil, ErrBadMarker
	}
}
