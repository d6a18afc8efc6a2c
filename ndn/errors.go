/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package ndn

import "errors"

// Error definitions
var (
	ErrBadMarker       = errors.New("header does not start with a recognized marker")
	ErrBufferTooShort  = errors.New("buffer too short")
	ErrLifetimeRange   = errors.New("interest lifetime must be within [0, 65535] seconds")
	ErrTooLong         = errors.New("value too long for its length field")
	ErrNotSequence     = errors.New("last name component is not a sequence number")
	ErrEscapeSequence  = errors.New("invalid escape sequence in name component")
	ErrUnknownNackCode = errors.New("unknown NACK code")
)
