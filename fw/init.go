/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package fw

import (
	"github.com/named-data/hobhis/core"
	"github.com/named-data/hobhis/table"
)

// Options configures a Forwarder.
type Options struct {
	// Strategy is the name of the forwarding strategy, "best-route" or "flooding".
	Strategy string
	// EnableNacks makes the forwarder send NACKs for looping and unsatisfiable Interests.
	EnableNacks bool
	// CacheUnsolicitedData admits Data without a pending Interest into the Content Store.
	CacheUnsolicitedData bool
	// DetectRetransmissions treats an Interest arriving again on the same face as a retransmission.
	DetectRetransmissions bool

	Pit table.PitOptions
	Cs  table.CsOptions
}

// DefaultOptions returns the forwarder options from the active configuration.
func DefaultOptions() Options {
	c := core.GetConfig().Fw
	return Options{
		Strategy:              c.Strategy,
		EnableNacks:           c.EnableNacks,
		CacheUnsolicitedData:  c.CacheUnsolicitedData,
		DetectRetransmissions: c.DetectRetransmissions,
		Pit:                   table.DefaultPitOptions(),
		Cs:                    table.DefaultCsOptions(),
	}
}

// Validate checks that the options are consistent.
func (o Options) Validate() error {
	if _, ok := strategies[o.Strategy]; !ok {
		return core.ErrUnknownStrategy
	}
	if err := o.Pit.Validate(); err != nil {
		return err
	}
	return o.Cs.Validate()
}
