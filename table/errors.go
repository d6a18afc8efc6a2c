/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package table

import "errors"

// Error definitions
var (
	ErrNoSuchPrefix = errors.New("no FIB entry for prefix")
	ErrNoSuchFace   = errors.New("face is not a nexthop of prefix")
)
