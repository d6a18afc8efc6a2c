/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package table_test

import (
	"testing"
	"time"

	"github.com/named-data/hobhis/core"
	"github.com/named-data/hobhis/ndn"
	"github.com/named-data/hobhis/sched"
	"github.com/named-data/hobhis/table"
	"github.com/stretchr/testify/assert"
)

func TestDeadNonceList(t *testing.T) {
	core.SetConfig(core.DefaultConfig())
	clock := sched.NewClock()
	dnl := table.NewDeadNonceList(clock)
	name := ndn.MustNameFromString("/a/b")

	assert.False(t, dnl.Find(name, 1))
	assert.False(t, dnl.Insert(name, 1))
	assert.True(t, dnl.Insert(name, 1))
	assert.True(t, dnl.Find(name, 1))
	assert.False(t, dnl.Find(name, 2))
	assert.False(t, dnl.Find(ndn.MustNameFromString("/a"), 1))

	clock.RunUntil(3 * time.Second)
	dnl.Insert(name, 2)
	assert.Equal(t, 2, dnl.Len())

	// Default lifetime is 6 s
	clock.RunUntil(6 * time.Second)
	assert.False(t, dnl.Find(name, 1))
	assert.True(t, dnl.Find(name, 2))
	clock.RunUntil(9 * time.Second)
	assert.False(t, dnl.Find(name, 2))
	assert.Equal(t, 0, dnl.Len())
	assert.Equal(t, 0, clock.Pending())
}
