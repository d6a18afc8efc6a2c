/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package table

import (
	"strconv"

	"github.com/cornelk/hashmap"
	"github.com/named-data/hobhis/ndn"
)

// Measurements contains the measurements table of a node.
type Measurements struct {
	table hashmap.HashMap
}

// NewMeasurements creates an empty measurements table.
func NewMeasurements() *Measurements {
	return new(Measurements)
}

// Get returns the measurement table value at the specified key or nil if it does not exist.
func (m *Measurements) Get(key string) interface{} {
	value, isOk := m.table.GetStringKey(key)
	if !isOk {
		return nil
	}
	return value
}

// Set atomically sets the value of the specified measurement table key only if it is equal to the expected value, returning whether the operation was successful.
func (m *Measurements) Set(key string, expected interface{}, value interface{}) bool {
	return m.table.Cas(key, expected, value)
}

// AddToInt adds the specified value to the given measurement key, setting as value if unitialized.
func (m *Measurements) AddToInt(key string, value int) {
	wasSet := false
	for !wasSet {
		expected := m.Get(key)
		if expected != nil {
			wasSet = m.Set(key, expected, expected.(int)+value)
		} else {
			_, wasSet = m.table.GetOrInsert(key, value)
			// We need to flip this because it returns false if set
			wasSet = !wasSet
		}
	}
}

// AddSampleToEWMA adds a sample to an exponentially weighted moving average.
func (m *Measurements) AddSampleToEWMA(key string, measurement float64, alpha float64) {
	wasSet := false
	for !wasSet {
		expected := m.Get(key)
		if expected != nil {
			newValue := expected.(float64) + alpha*(measurement-expected.(float64))
			wasSet = m.Set(key, expected, newValue)
		} else {
			_, wasSet = m.table.GetOrInsert(key, measurement)
			// We need to flip this because it returns false if set
			wasSet = !wasSet
		}
	}
}

func inFaceBWKey(face uint64, flow *ndn.Name) string {
	return "bw/" + strconv.FormatUint(face, 10) + flow.String()
}

// SetInFaceBW records the bandwidth of the face Data for the flow returns on, as seen from the specified outgoing face. The first value recorded wins.
func (m *Measurements) SetInFaceBW(face uint64, flow *ndn.Name, bw float64) {
	m.table.GetOrInsert(inFaceBWKey(face, flow), bw)
}

// InFaceBW returns the bandwidth recorded by SetInFaceBW.
func (m *Measurements) InFaceBW(face uint64, flow *ndn.Name) (float64, bool) {
	value := m.Get(inFaceBWKey(face, flow))
	if value == nil {
		return 0, false
	}
	return value.(float64), true
}

// FaceRttKey returns the measurement key of the smoothed RTT of the specified face.
func FaceRttKey(face uint64) string {
	return "rtt/" + strconv.FormatUint(face, 10)
}
