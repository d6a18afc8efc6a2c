/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package fw

import (
	"github.com/named-data/hobhis/face"
	"github.com/named-data/hobhis/ndn"
	"github.com/named-data/hobhis/table"
)

// StrategyPrefix is the prefix of all strategy names.
const StrategyPrefix = "/localhost/nfd/strategy"

// Strategy chooses the upstream faces of an Interest.
type Strategy interface {
	Instantiate(forwarder *Forwarder)
	String() string
	GetName() *ndn.Name

	// DoPropagateInterest forwards the Interest, returning whether it was sent on at least one face.
	DoPropagateInterest(inFace face.Face, interest *ndn.Interest, pitEntry *table.PitEntry) bool
}

// StrategyBase provides common helper methods for forwarding strategies.
type StrategyBase struct {
	forwarder *Forwarder
	name      *ndn.Name
}

// NewStrategyBase is a helper that allows specific strategies to initialize the base.
func (s *StrategyBase) NewStrategyBase(forwarder *Forwarder, name string) {
	s.forwarder = forwarder
	s.name = ndn.MustNameFromString(StrategyPrefix + "/" + name)
}

// GetName returns the name of the strategy.
func (s *StrategyBase) GetName() *ndn.Name {
	return s.name
}

// Nexthops returns the ranked nexthops of the FIB entry matching the PIT entry, or nil.
func (s *StrategyBase) Nexthops(pitEntry *table.PitEntry) []*table.FaceMetric {
	fibEntry := s.forwarder.fib.LongestPrefixMatch(pitEntry.Name())
	if fibEntry == nil {
		return nil
	}
	return fibEntry.Faces()
}

// SendInterest tries to forward the Interest on the specified face.
func (s *StrategyBase) SendInterest(inFace face.Face, nexthop uint64, interest *ndn.Interest, pitEntry *table.PitEntry) bool {
	outFace := s.forwarder.faces.Get(nexthop)
	if outFace == nil {
		return false
	}
	return s.forwarder.TrySendOutInterest(inFace, outFace, interest, pitEntry)
}
