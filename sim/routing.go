/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package sim

import (
	"math"

	"github.com/named-data/hobhis/core"
	"github.com/named-data/hobhis/ndn"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

// router computes shortest-path routes over the link graph of a simulation.
type router struct {
	sim   *Simulation
	ids   map[string]int64
	names []string
	graph *simple.WeightedUndirectedGraph
}

func newRouter(s *Simulation) *router {
	r := new(router)
	r.sim = s
	r.ids = make(map[string]int64)
	r.graph = simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	for i, node := range s.scenario.Nodes {
		r.ids[node.Name] = int64(i)
		r.names = append(r.names, node.Name)
		r.graph.AddNode(simple.Node(i))
	}
	for _, link := range s.scenario.Links {
		cost := link.Cost
		if cost == 0 {
			cost = 1
		}
		from, to := simple.Node(r.ids[link.A]), simple.Node(r.ids[link.B])
		if existing := r.graph.WeightedEdge(from.ID(), to.ID()); existing != nil && existing.Weight() <= float64(cost) {
			continue
		}
		r.graph.SetWeightedEdge(simple.WeightedEdge{F: from, T: to, W: float64(cost)})
	}
	return r
}

// origins returns the explicit origins followed by the prefixes of the producers.
func (r *router) origins() []OriginSpec {
	origins := append([]OriginSpec(nil), r.sim.scenario.Origins...)
	for _, spec := range r.sim.scenario.Apps {
		if spec.Kind == KindProducer {
			origins = append(origins, OriginSpec{Node: spec.Node, Prefix: spec.Prefix})
		}
	}
	return origins
}

// install adds a route towards each origin on every node that can reach it. The nexthop is the
// neighbor on a shortest path and the cost is the length of that path.
func (r *router) install() error {
	for _, origin := range r.origins() {
		prefix, err := ndn.NameFromString(origin.Prefix)
		if err != nil {
			return err
		}
		tree := path.DijkstraFrom(simple.Node(r.ids[origin.Node]), r.graph)
		for id, name := range r.names {
			if name == origin.Node {
				continue
			}
			nodes, weight := tree.To(int64(id))
			if len(nodes) < 2 {
				core.LogDebug(r.sim, "No path from ", name, " to origin ", origin.Node, " of ", prefix)
				continue
			}
			nexthop := r.names[nodes[len(nodes)-2].ID()]
			if err := r.sim.addRoute(name, prefix, nexthop, uint64(weight)); err != nil {
				return err
			}
		}
	}
	return nil
}
