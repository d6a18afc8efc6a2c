/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package sim

import "errors"

// Error definitions
var (
	ErrInvalidScenario = errors.New("invalid scenario")
	ErrUnknownNode     = errors.New("unknown node")
	ErrUnknownScenario = errors.New("unknown built-in scenario")
	ErrNotLinked       = errors.New("nodes are not linked")
	ErrAlreadyRun      = errors.New("simulation already run")
)
