/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package fw

import (
	"github.com/named-data/hobhis/core"
	"golang.org/x/exp/slices"
)

// strategies maps strategy names to constructors. Strategies register themselves in init.
var strategies = make(map[string]func() Strategy)

// StrategyNames returns the names of all known strategies in ascending order.
func StrategyNames() []string {
	names := make([]string, 0, len(strategies))
	for name := range strategies {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// InstantiateStrategy creates the named strategy for the forwarder.
func InstantiateStrategy(name string, forwarder *Forwarder) (Strategy, error) {
	newStrategy, ok := strategies[name]
	if !ok {
		return nil, core.ErrUnknownStrategy
	}
	strategy := newStrategy()
	strategy.Instantiate(forwarder)
	core.LogDebug(forwarder, "Using strategy ", strategy.GetName())
	return strategy, nil
}
