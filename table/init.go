/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package table

import (
	"time"

	"github.com/named-data/hobhis/core"
)

// DefaultInterestLifetime is used for PIT expiry when an Interest carries no lifetime.
const DefaultInterestLifetime = 4 * time.Second

// PitOptions configures a Pit.
type PitOptions struct {
	// PruningTimeout is how long an erased entry is retained before removal.
	PruningTimeout time.Duration
	// MaxEntries bounds the number of entries. Zero means unbounded.
	MaxEntries int
}

// DefaultPitOptions returns the PIT options from the active configuration.
func DefaultPitOptions() PitOptions {
	c := core.GetConfig().Tables.Pit
	return PitOptions{
		PruningTimeout: time.Duration(c.PruningTimeoutMs) * time.Millisecond,
		MaxEntries:     c.MaxEntries,
	}
}

// Validate checks that the options are consistent.
func (o PitOptions) Validate() error {
	if o.PruningTimeout < 0 || o.MaxEntries < 0 {
		return core.ErrInvalidOption
	}
	return nil
}

// CsOptions configures a ContentStore.
type CsOptions struct {
	Capacity          int
	ReplacementPolicy string
	// Freshness enables erasure of Data once its freshness period elapses.
	Freshness bool
}

// DefaultCsOptions returns the Content Store options from the active configuration.
func DefaultCsOptions() CsOptions {
	c := core.GetConfig().Tables.ContentStore
	return CsOptions{
		Capacity:          c.Capacity,
		ReplacementPolicy: c.ReplacementPolicy,
		Freshness:         c.Freshness,
	}
}

// Validate checks that the options are consistent.
func (o CsOptions) Validate() error {
	if o.Capacity < 0 {
		return core.ErrInvalidOption
	}
	switch o.ReplacementPolicy {
	case "lru", "fifo", "lfu", "random":
		return nil
	default:
		return core.ErrUnknownPolicy
	}
}

// deadNonceListLifetime returns the lifetime of entries in the dead nonce list.
func deadNonceListLifetime() time.Duration {
	return time.Duration(core.GetConfig().Tables.DeadNonceList.LifetimeMs) * time.Millisecond
}
