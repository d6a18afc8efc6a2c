/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package table_test

import (
	"testing"

	"github.com/named-data/hobhis/ndn"
	"github.com/named-data/hobhis/table"
	"github.com/stretchr/testify/assert"
)

func TestMeasurementsAddToInt(t *testing.T) {
	m := table.NewMeasurements()
	assert.Nil(t, m.Get("count"))
	m.AddToInt("count", 2)
	m.AddToInt("count", 3)
	assert.Equal(t, 5, m.Get("count"))
}

func TestMeasurementsEWMA(t *testing.T) {
	m := table.NewMeasurements()
	m.AddSampleToEWMA("rtt", 100, 0.5)
	assert.Equal(t, 100.0, m.Get("rtt"))
	m.AddSampleToEWMA("rtt", 200, 0.5)
	assert.Equal(t, 150.0, m.Get("rtt"))
}

func TestMeasurementsInFaceBW(t *testing.T) {
	m := table.NewMeasurements()
	flow := ndn.MustNameFromString("/flow")
	_, ok := m.InFaceBW(1, flow)
	assert.False(t, ok)

	m.SetInFaceBW(1, flow, 1e6)
	m.SetInFaceBW(1, flow, 2e6)
	bw, ok := m.InFaceBW(1, flow)
	assert.True(t, ok)
	assert.Equal(t, 1e6, bw)

	_, ok = m.InFaceBW(2, flow)
	assert.False(t, ok)
}
