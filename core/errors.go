/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package core

import "errors"

// Error definitions
var (
	ErrInvalidOption     = errors.New("invalid configuration option")
	ErrUnknownPolicy     = errors.New("unknown replacement policy")
	ErrUnknownStrategy   = errors.New("unknown forwarding strategy")
	ErrUnknownController = errors.New("unknown congestion controller")
)
