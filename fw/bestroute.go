/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package fw

import (
	"github.com/named-data/hobhis/core"
	"github.com/named-data/hobhis/face"
	"github.com/named-data/hobhis/ndn"
	"github.com/named-data/hobhis/table"
)

// BestRoute is a forwarding strategy that forwards Interests to the best ranked nexthop that accepts them.
type BestRoute struct {
	StrategyBase
}

func init() {
	strategies["best-route"] = func() Strategy {
		return new(BestRoute)
	}
}

// Instantiate creates a new instance of the BestRoute strategy.
func (s *BestRoute) Instantiate(forwarder *Forwarder) {
	s.NewStrategyBase(forwarder, "best-route")
}

func (s *BestRoute) String() string {
	return "Strategy-BestRoute"
}

// DoPropagateInterest tries the nexthops in rank order and stops at the first success or at the first RED face.
func (s *BestRoute) DoPropagateInterest(inFace face.Face, interest *ndn.Interest, pitEntry *table.PitEntry) bool {
	nexthops := s.Nexthops(pitEntry)
	if len(nexthops) == 0 {
		core.LogDebug(s, "No nexthop for Interest ", interest.Name())
		return false
	}

	for _, nexthop := range nexthops {
		if nexthop.Status == table.FaceRed {
			break
		}
		if !s.SendInterest(inFace, nexthop.Face, interest, pitEntry) {
			continue
		}
		core.LogTrace(s, "Forwarded Interest ", interest.Name(), " to FaceID=", nexthop.Face)
		return true
	}
	return false
}
