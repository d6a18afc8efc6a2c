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

// Flooding is a forwarding strategy that forwards Interests to every usable nexthop.
type Flooding struct {
	StrategyBase
}

func init() {
	strategies["flooding"] = func() Strategy {
		return new(Flooding)
	}
}

// Instantiate creates a new instance of the Flooding strategy.
func (s *Flooding) Instantiate(forwarder *Forwarder) {
	s.NewStrategyBase(forwarder, "flooding")
}

func (s *Flooding) String() string {
	return "Strategy-Flooding"
}

// DoPropagateInterest sends the Interest on every nexthop ranked before the first RED face.
func (s *Flooding) DoPropagateInterest(inFace face.Face, interest *ndn.Interest, pitEntry *table.PitEntry) bool {
	propagated := 0
	for _, nexthop := range s.Nexthops(pitEntry) {
		if nexthop.Status == table.FaceRed {
			break
		}
		if s.SendInterest(inFace, nexthop.Face, interest, pitEntry) {
			core.LogTrace(s, "Forwarded Interest ", interest.Name(), " to FaceID=", nexthop.Face)
			propagated++
		}
	}
	return propagated > 0
}
