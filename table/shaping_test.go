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

	"github.com/named-data/hobhis/ndn"
	"github.com/named-data/hobhis/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapingTable(t *testing.T) {
	st := table.NewShapingTable()
	assert.Nil(t, st.Get(ndn.MustNameFromString("/b")))

	b, created := st.GetOrCreate(ndn.MustNameFromString("/b"))
	require.True(t, created)
	assert.Equal(t, table.NoRtt, b.Rtt)
	b.QueueLength = 3

	again, created := st.GetOrCreate(ndn.MustNameFromString("/b"))
	assert.False(t, created)
	assert.Equal(t, uint32(3), again.QueueLength)

	st.GetOrCreate(ndn.MustNameFromString("/a"))
	require.Equal(t, 2, st.Len())
	entries := st.Entries()
	assert.Equal(t, "/a", entries[0].Flow.String())
	assert.Equal(t, "/b", entries[1].Flow.String())
}

func TestSendingTimeTable(t *testing.T) {
	stt := table.NewSendingTimeTable()
	name := ndn.MustNameFromString("/a/1")

	assert.True(t, stt.Record(name, 10*time.Millisecond))
	// The first send time wins
	assert.False(t, stt.Record(name, 20*time.Millisecond))

	at, ok := stt.Take(ndn.MustNameFromString("/a/1"))
	assert.True(t, ok)
	assert.Equal(t, 10*time.Millisecond, at)
	_, ok = stt.Take(name)
	assert.False(t, ok)
	assert.Equal(t, 0, stt.Len())
}
