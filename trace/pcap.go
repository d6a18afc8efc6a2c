/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package trace

import (
	"io"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/pkg/errors"
)

// LinkTypeUser0 is DLT_USER0, under which frames are recorded.
const LinkTypeUser0 layers.LinkType = 147

const snapLen = 65535

// PcapWriter records link frames in the pcap format. Capture timestamps carry the simulated time
// as an offset from the Unix epoch.
type PcapWriter struct {
	w      *pcapgo.Writer
	frames int
	err    error
}

// NewPcapWriter writes the pcap file header to w.
func NewPcapWriter(w io.Writer) (*PcapWriter, error) {
	p := new(PcapWriter)
	p.w = pcapgo.NewWriter(w)
	if err := p.w.WriteFileHeader(snapLen, LinkTypeUser0); err != nil {
		return nil, errors.Wrap(err, "unable to write pcap header")
	}
	return p, nil
}

// WriteFrame records a frame put on a link at the specified simulated time.
func (p *PcapWriter) WriteFrame(at time.Duration, wire []byte) error {
	if p.err != nil {
		return p.err
	}
	ci := gopacket.CaptureInfo{
		Timestamp:     time.Unix(0, int64(at)).UTC(),
		CaptureLength: len(wire),
		Length:        len(wire),
	}
	if err := p.w.WritePacket(ci, wire); err != nil {
		p.err = errors.Wrap(err, "unable to write frame")
		return p.err
	}
	p.frames++
	return nil
}

// Frames returns the number of recorded frames.
func (p *PcapWriter) Frames() int {
	return p.frames
}

// Err returns the first write error, if any.
func (p *PcapWriter) Err() error {
	return p.err
}
