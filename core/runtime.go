/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package core

// Version of the engine.
var Version string

// BuildTime contains the timestamp of when the version of the engine was built.
var BuildTime string
