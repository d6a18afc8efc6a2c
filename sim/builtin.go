/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package sim

import (
	"embed"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

//go:embed scenarios/*.yaml
var builtinScenarios embed.FS

// BuiltinNames returns the names of the scenarios shipped with the engine in ascending order.
func BuiltinNames() []string {
	entries, err := builtinScenarios.ReadDir("scenarios")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, strings.TrimSuffix(entry.Name(), ".yaml"))
	}
	slices.Sort(names)
	return names
}

// Builtin returns a fresh copy of the named built-in scenario.
func Builtin(name string) (*Scenario, error) {
	doc, err := builtinScenarios.ReadFile("scenarios/" + name + ".yaml")
	if err != nil {
		return nil, errors.Wrap(ErrUnknownScenario, name)
	}
	return ParseScenario(doc)
}
