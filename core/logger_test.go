/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package core

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateLogMessage(t *testing.T) {
	msg := generateLogMessage("Forwarder-1", "Interest ", "/a/b", " nonce=", uint32(42), " ok=", true)
	assert.Equal(t, "[Forwarder-1] Interest /a/b nonce=42 ok=true", msg)

	msg = generateLogMessage("Face", errors.New("boom"), " ", 1.5)
	assert.Equal(t, "[Face] boom 1.5", msg)
}

func TestGenerateLogMessageWithClock(t *testing.T) {
	SetLogClock(func() time.Duration { return 1500 * time.Millisecond })
	defer SetLogClock(nil)

	msg := generateLogMessage("Pit", "entry")
	assert.Equal(t, "1.500000s [Pit] entry", msg)
}
