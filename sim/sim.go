/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

// Package sim builds a network of forwarders, links and applications from a scenario and runs it
// on a virtual clock.
package sim

import (
	"io"
	"time"

	"github.com/iti/rngstream"
	"github.com/named-data/hobhis/app"
	"github.com/named-data/hobhis/core"
	"github.com/named-data/hobhis/face"
	"github.com/named-data/hobhis/fw"
	"github.com/named-data/hobhis/ndn"
	"github.com/named-data/hobhis/sched"
	"github.com/named-data/hobhis/trace"
	"github.com/pkg/errors"
)

// BuildOptions holds the outputs of a simulation besides its report.
type BuildOptions struct {
	// Pcap receives every frame put on a link when non-nil.
	Pcap io.Writer
}

// Node is a node of the simulated network.
type Node struct {
	Name      string
	Role      string
	Forwarder *fw.Forwarder
	// neighbors maps a neighbor name to the face of the first link towards it.
	neighbors map[string]*face.HobhisFace
}

// Face returns the face towards the named neighbor, or nil.
func (n *Node) Face(neighbor string) *face.HobhisFace {
	return n.neighbors[neighbor]
}

// Simulation is a network built from a scenario, ready to run.
type Simulation struct {
	scenario *Scenario
	clock    *sched.Clock
	metrics  *trace.Metrics
	delays   *trace.AppDelayTracer
	windows  *trace.WindowTracer
	pcap     *trace.PcapWriter

	nodes   map[string]*Node
	links   []*face.Link
	shapers []*face.HobhisFace
	apps    []app.App
	ran     bool
}

// Build creates the network described by the scenario using the active configuration.
func Build(scenario *Scenario, opts BuildOptions) (*Simulation, error) {
	if err := scenario.Validate(); err != nil {
		return nil, err
	}
	s := new(Simulation)
	s.scenario = scenario
	s.clock = sched.NewClock()
	s.metrics = trace.NewMetrics()
	s.delays = trace.NewAppDelayTracer()
	s.windows = trace.NewWindowTracer()
	s.nodes = make(map[string]*Node)
	core.SetLogClock(s.clock.Now)

	if scenario.StopTime == 0 {
		scenario.StopTime = time.Duration(core.GetConfig().Sim.StopTimeS * float64(time.Second))
	}

	if opts.Pcap != nil {
		pcap, err := trace.NewPcapWriter(opts.Pcap)
		if err != nil {
			return nil, err
		}
		s.pcap = pcap
	}

	for _, spec := range scenario.Nodes {
		if err := s.buildNode(spec); err != nil {
			return nil, errors.Wrapf(err, "node %s", spec.Name)
		}
	}
	for i, spec := range scenario.Links {
		if err := s.buildLink(spec); err != nil {
			return nil, errors.Wrapf(err, "link %d", i)
		}
	}
	for i, spec := range scenario.Routes {
		prefix, err := ndn.NameFromString(spec.Prefix)
		if err != nil {
			return nil, errors.Wrapf(err, "route %d", i)
		}
		if err := s.addRoute(spec.Node, prefix, spec.Nexthop, spec.Cost); err != nil {
			return nil, errors.Wrapf(err, "route %d", i)
		}
	}
	if scenario.GlobalRouting {
		if err := newRouter(s).install(); err != nil {
			return nil, errors.Wrap(err, "global routing")
		}
	}
	for _, spec := range scenario.Apps {
		if err := s.buildApp(spec); err != nil {
			return nil, errors.Wrapf(err, "app %s", spec.Name)
		}
	}
	core.LogInfo(s, "Built ", len(s.nodes), " nodes, ", len(s.links), " links and ", len(s.apps), " applications")
	return s, nil
}

func (s *Simulation) String() string {
	return "Simulation-" + s.scenario.Name
}

func (s *Simulation) buildNode(spec NodeSpec) error {
	opts := fw.DefaultOptions()
	if s.scenario.Strategy != "" {
		opts.Strategy = s.scenario.Strategy
	}
	if spec.Cs != nil {
		if spec.Cs.Policy != "" {
			opts.Cs.ReplacementPolicy = spec.Cs.Policy
		}
		if spec.Cs.Capacity != nil {
			opts.Cs.Capacity = *spec.Cs.Capacity
		}
	}
	forwarder, err := fw.NewForwarder(spec.Name, opts, s.clock, s.metrics, rngstream.New(spec.Name))
	if err != nil {
		return err
	}
	s.nodes[spec.Name] = &Node{
		Name:      spec.Name,
		Role:      spec.Role,
		Forwarder: forwarder,
		neighbors: make(map[string]*face.HobhisFace),
	}
	return nil
}

func (s *Simulation) hobhisOptions(role string) face.HobhisOptions {
	opts := face.DefaultHobhisOptions()
	opts.ClientServer = role != RoleRouter
	if override := s.scenario.Hobhis; override != nil {
		if override.Enabled != nil {
			opts.Enabled = *override.Enabled
		}
		if override.DynamicDesign != nil {
			opts.DynamicDesign = *override.DynamicDesign
		}
		if override.MaxInterest > 0 {
			opts.MaxInterest = override.MaxInterest
		}
		if override.Design > 0 {
			opts.Design = override.Design
		}
		if override.QueueTarget > 0 {
			opts.QueueTarget = override.QueueTarget
		}
	}
	return opts
}

func (s *Simulation) buildLink(spec LinkSpec) error {
	opts := face.DefaultLinkOptions()
	if spec.Rate > 0 {
		opts.Rate = float64(spec.Rate)
	}
	if spec.Delay > 0 {
		opts.Delay = spec.Delay
	}
	if spec.Queue > 0 {
		opts.QueueMaxPackets = spec.Queue
	}
	link, err := face.NewLink(spec.A, spec.B, opts, s.clock)
	if err != nil {
		return err
	}
	if s.pcap != nil {
		link.SetFrameTracer(func(at time.Duration, wire []byte) {
			if err := s.pcap.WriteFrame(at, wire); err != nil {
				core.LogWarn(s, "Unable to capture frame: ", err)
			}
		})
	}
	s.links = append(s.links, link)

	ends := []struct {
		device   *face.NetDeviceFace
		node     *Node
		neighbor string
	}{
		{link.A(), s.nodes[spec.A], spec.B},
		{link.B(), s.nodes[spec.B], spec.A},
	}
	for _, end := range ends {
		shaper, err := face.NewHobhisFace(end.device, s.hobhisOptions(end.node.Role), end.node.Forwarder.Measurements())
		if err != nil {
			return err
		}
		end.node.Forwarder.AddFace(shaper)
		if _, ok := end.node.neighbors[end.neighbor]; !ok {
			end.node.neighbors[end.neighbor] = shaper
		}
		s.shapers = append(s.shapers, shaper)
	}
	return nil
}

func (s *Simulation) addRoute(node string, prefix *ndn.Name, nexthop string, cost uint64) error {
	n, ok := s.nodes[node]
	if !ok {
		return errors.Wrap(ErrUnknownNode, node)
	}
	towards := n.Face(nexthop)
	if towards == nil {
		return errors.Wrapf(ErrNotLinked, "%s to %s", node, nexthop)
	}
	core.LogDebug(s, "Route ", prefix, " on ", node, " via ", nexthop, " cost=", cost)
	n.Forwarder.AddRoute(prefix, towards.ID(), cost)
	return nil
}

func (s *Simulation) buildApp(spec AppSpec) error {
	node := s.nodes[spec.Node]
	appFace := face.NewAppFace(spec.Node, spec.Name, s.clock)
	node.Forwarder.AddFace(appFace)
	rng := rngstream.New(spec.Node + "/" + spec.Name)

	var application app.App
	switch spec.Kind {
	case KindConsumer:
		consumer, err := s.buildConsumer(spec, appFace, rng)
		if err != nil {
			return err
		}
		application = consumer
	case KindProducer:
		opts := app.DefaultProducerOptions()
		opts.Prefix = spec.Prefix
		if spec.PayloadSize > 0 {
			opts.PayloadSize = spec.PayloadSize
		}
		opts.RandomPayloadSizeMin = spec.PayloadSizeMin
		opts.RandomPayloadSizeMax = spec.PayloadSizeMax
		opts.Freshness = spec.Freshness
		opts.RandomDelayMin = spec.DelayMin
		opts.RandomDelayMax = spec.DelayMax
		producer, err := app.NewProducer(spec.Name, appFace, s.clock, opts, node.Forwarder, rng)
		if err != nil {
			return err
		}
		application = producer
	}

	s.apps = append(s.apps, application)
	s.clock.Schedule(spec.Start, application.Start)
	if spec.Stop > 0 {
		s.clock.Schedule(spec.Stop, application.Stop)
	}
	return nil
}

func (s *Simulation) buildConsumer(spec AppSpec, appFace *face.AppFace, rng *rngstream.RngStream) (*app.Consumer, error) {
	controllerOpts := app.DefaultControllerOptions()
	if spec.Window > 0 {
		controllerOpts.Window = spec.Window
	}
	if spec.Frequency > 0 {
		controllerOpts.Frequency = spec.Frequency
	}
	if spec.ProbeFactor > 0 {
		controllerOpts.ProbeFactor = spec.ProbeFactor
	}
	name := spec.Controller
	if name == "" {
		name = "window"
	}
	controller, err := app.NewController(name, controllerOpts)
	if err != nil {
		return nil, errors.Wrapf(err, "controller %q", name)
	}

	opts := app.DefaultConsumerOptions()
	opts.Prefix = spec.Prefix
	opts.StartSeq = spec.StartSeq
	if spec.MaxSeq != nil {
		opts.MaxSeq = *spec.MaxSeq
	}
	if spec.Lifetime > 0 {
		opts.Lifetime = spec.Lifetime
	}
	opts.RandComponentLenMax = spec.RandComponentLenMax
	consumer, err := app.NewConsumer(spec.Name, appFace, s.clock, opts, controller, rng)
	if err != nil {
		return nil, err
	}
	consumer.SetTracers(s.delays, s.windows)
	return consumer, nil
}

// Scenario returns the scenario the simulation was built from.
func (s *Simulation) Scenario() *Scenario {
	return s.scenario
}

// Clock returns the virtual clock of the simulation.
func (s *Simulation) Clock() *sched.Clock {
	return s.clock
}

// Metrics returns the packet counters of every node.
func (s *Simulation) Metrics() *trace.Metrics {
	return s.metrics
}

// Delays returns the application delay trace.
func (s *Simulation) Delays() *trace.AppDelayTracer {
	return s.delays
}

// Windows returns the congestion window trace.
func (s *Simulation) Windows() *trace.WindowTracer {
	return s.windows
}

// Node returns the named node, or nil.
func (s *Simulation) Node(name string) *Node {
	return s.nodes[name]
}

// App returns the named application, or nil.
func (s *Simulation) App(name string) app.App {
	for _, a := range s.apps {
		if a.Name() == name {
			return a
		}
	}
	return nil
}

// Links returns the links in scenario order.
func (s *Simulation) Links() []*face.Link {
	return s.links
}

// Run advances the clock to the stop time of the scenario, stops every application and shaper and
// reports the final counters. A simulation can only run once.
func (s *Simulation) Run() (*trace.Report, error) {
	if s.ran {
		return nil, ErrAlreadyRun
	}
	s.ran = true

	core.LogInfo(s, "Running until ", s.scenario.StopTime)
	s.clock.RunUntil(s.scenario.StopTime)
	for _, a := range s.apps {
		if a.IsActive() {
			a.Stop()
		}
	}
	for _, shaper := range s.shapers {
		shaper.Stop()
	}
	core.LogInfo(s, "Stopped with ", s.clock.Pending(), " pending events")

	report := trace.NewReport(s.scenario.StopTime, s.metrics, s.delays)
	if s.pcap != nil {
		if err := s.pcap.Err(); err != nil {
			return report, err
		}
		core.LogInfo(s, "Captured ", s.pcap.Frames(), " frames")
	}
	return report, nil
}
