/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package app

import (
	"math"

	"github.com/named-data/hobhis/core"
	"golang.org/x/exp/slices"
)

// CongestionController decides when a consumer sends its next Interest and how it reacts to Data, NACKs and timeouts.
// The consumer calls the hooks before updating its own per-sequence bookkeeping.
type CongestionController interface {
	String() string
	Init(consumer *Consumer)

	// ScheduleNextPacket arranges the next transmission of the consumer, if one is allowed.
	ScheduleNextPacket()

	WillSendInterest(seq uint32)
	DidReceiveData(seq uint32)
	DidReceiveNack(seq uint32)
	DidTimeout(seq uint32)
}

// WindowedController is a controller that limits the number of outstanding Interests.
type WindowedController interface {
	CongestionController
	Window() uint32
	Ssthresh() uint32
	InFlight() uint32
}

// ControllerOptions holds the tunables of every controller variant. Each variant reads only its own fields.
type ControllerOptions struct {
	// Window is the initial window of window-based controllers.
	Window uint32
	// Frequency is the fixed Interest rate of the constant-rate controller and the initial rate of the
	// adaptive one, in Interests per second.
	Frequency float64
	// ProbeFactor is added to the measured Data rate once the adaptive controller leaves slow start.
	ProbeFactor float64
	Cubic       CubicOptions
	Raaqm       RaaqmOptions
}

// DefaultControllerOptions returns the default tunables of all controllers.
func DefaultControllerOptions() ControllerOptions {
	return ControllerOptions{
		Window:      1,
		Frequency:   10,
		ProbeFactor: 10,
		Cubic:       DefaultCubicOptions(),
		Raaqm:       DefaultRaaqmOptions(),
	}
}

// Validate checks that the options are consistent.
func (o ControllerOptions) Validate() error {
	if o.Frequency <= 0 || math.IsInf(o.Frequency, 0) || o.ProbeFactor < 0 {
		return core.ErrInvalidOption
	}
	if err := o.Cubic.Validate(); err != nil {
		return err
	}
	return o.Raaqm.Validate()
}

var controllers = map[string]func(opts ControllerOptions) CongestionController{}

// ControllerNames returns the names of all known controllers in ascending order.
func ControllerNames() []string {
	names := make([]string, 0, len(controllers))
	for name := range controllers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// NewController creates the named controller.
func NewController(name string, opts ControllerOptions) (CongestionController, error) {
	create, ok := controllers[name]
	if !ok {
		return nil, core.ErrUnknownController
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return create(opts), nil
}
