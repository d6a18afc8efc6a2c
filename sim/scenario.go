/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package sim

import (
	"bytes"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/named-data/hobhis/ndn"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Node roles.
const (
	RoleRouter = "router"
	RoleClient = "client"
	RoleServer = "server"
)

// Application kinds.
const (
	KindConsumer = "consumer"
	KindProducer = "producer"
)

// DataRate is a bit rate in bit/s. In YAML it is either a plain number or a number with one of the
// suffixes bps, kbps, Mbps or Gbps.
type DataRate float64

var rateUnits = []struct {
	suffix string
	scale  float64
}{
	{"Gbps", 1e9},
	{"Mbps", 1e6},
	{"kbps", 1e3},
	{"bps", 1},
}

// ParseDataRate parses a rate such as "1Mbps" or "250000".
func ParseDataRate(str string) (DataRate, error) {
	str = strings.TrimSpace(str)
	scale := 1.0
	for _, unit := range rateUnits {
		if strings.HasSuffix(str, unit.suffix) {
			str = strings.TrimSpace(strings.TrimSuffix(str, unit.suffix))
			scale = unit.scale
			break
		}
	}
	value, err := strconv.ParseFloat(str, 64)
	if err != nil || value < 0 {
		return 0, errors.Wrapf(ErrInvalidScenario, "invalid data rate %q", str)
	}
	return DataRate(value * scale), nil
}

// UnmarshalYAML decodes a rate with an optional unit suffix.
func (r *DataRate) UnmarshalYAML(value *yaml.Node) error {
	rate, err := ParseDataRate(value.Value)
	if err != nil {
		return errors.Wrapf(err, "line %d", value.Line)
	}
	*r = rate
	return nil
}

// MarshalYAML encodes the rate in bit/s.
func (r DataRate) MarshalYAML() (interface{}, error) {
	return strconv.FormatFloat(float64(r), 'f', -1, 64) + "bps", nil
}

// Scenario describes a topology, its routes and the applications running on it.
type Scenario struct {
	Name     string        `yaml:"name"`
	StopTime time.Duration `yaml:"stop_time"`
	// Strategy overrides the configured forwarding strategy on every node.
	Strategy string `yaml:"strategy,omitempty"`
	// GlobalRouting installs shortest-path routes towards every origin.
	GlobalRouting bool         `yaml:"global_routing"`
	Hobhis        *HobhisSpec  `yaml:"hobhis,omitempty"`
	Nodes         []NodeSpec   `yaml:"nodes"`
	Links         []LinkSpec   `yaml:"links"`
	Routes        []RouteSpec  `yaml:"routes,omitempty"`
	Origins       []OriginSpec `yaml:"origins,omitempty"`
	Apps          []AppSpec    `yaml:"apps"`
}

// HobhisSpec overrides the configured shaper options. Zero values keep the configuration.
type HobhisSpec struct {
	Enabled       *bool   `yaml:"enabled,omitempty"`
	MaxInterest   int     `yaml:"max_interest,omitempty"`
	Design        float64 `yaml:"design,omitempty"`
	QueueTarget   float64 `yaml:"queue_target,omitempty"`
	DynamicDesign *bool   `yaml:"dynamic_design,omitempty"`
}

// NodeSpec describes a node. Client and server nodes never shape Interests.
type NodeSpec struct {
	Name string  `yaml:"name"`
	Role string  `yaml:"role"`
	Cs   *CsSpec `yaml:"cs,omitempty"`
}

// CsSpec overrides the configured Content Store of a node.
type CsSpec struct {
	Policy   string `yaml:"policy,omitempty"`
	Capacity *int   `yaml:"capacity,omitempty"`
}

// LinkSpec describes a point-to-point link. Zero values take the defaults.
type LinkSpec struct {
	A     string        `yaml:"a"`
	B     string        `yaml:"b"`
	Rate  DataRate      `yaml:"rate,omitempty"`
	Delay time.Duration `yaml:"delay,omitempty"`
	Queue uint32        `yaml:"queue,omitempty"`
	// Cost is the routing metric of the link. Zero means 1.
	Cost uint64 `yaml:"cost,omitempty"`
}

// RouteSpec installs a static route on a node towards a neighbor.
type RouteSpec struct {
	Node    string `yaml:"node"`
	Prefix  string `yaml:"prefix"`
	Nexthop string `yaml:"nexthop"`
	Cost    uint64 `yaml:"cost,omitempty"`
}

// OriginSpec announces a prefix served by a node to global routing. Producers are origins implicitly.
type OriginSpec struct {
	Node   string `yaml:"node"`
	Prefix string `yaml:"prefix"`
}

// AppSpec describes an application. Consumer fields are ignored by producers and the reverse.
type AppSpec struct {
	Name   string        `yaml:"name"`
	Node   string        `yaml:"node"`
	Kind   string        `yaml:"kind"`
	Prefix string        `yaml:"prefix"`
	Start  time.Duration `yaml:"start,omitempty"`
	// Stop is when the application stops. Zero means it runs until the end of the scenario.
	Stop time.Duration `yaml:"stop,omitempty"`

	Controller          string        `yaml:"controller,omitempty"`
	StartSeq            uint32        `yaml:"start_seq,omitempty"`
	MaxSeq              *uint32       `yaml:"max_seq,omitempty"`
	Window              uint32        `yaml:"window,omitempty"`
	Frequency           float64       `yaml:"frequency,omitempty"`
	ProbeFactor         float64       `yaml:"probe_factor,omitempty"`
	Lifetime            time.Duration `yaml:"lifetime,omitempty"`
	RandComponentLenMax int           `yaml:"rand_component_len_max,omitempty"`

	PayloadSize    int           `yaml:"payload_size,omitempty"`
	PayloadSizeMin int           `yaml:"payload_size_min,omitempty"`
	PayloadSizeMax int           `yaml:"payload_size_max,omitempty"`
	Freshness      time.Duration `yaml:"freshness,omitempty"`
	DelayMin       time.Duration `yaml:"delay_min,omitempty"`
	DelayMax       time.Duration `yaml:"delay_max,omitempty"`
}

// LoadScenario reads and validates a scenario from a YAML file.
func LoadScenario(file string) (*Scenario, error) {
	doc, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read scenario file %s", file)
	}
	scenario, err := ParseScenario(doc)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to load scenario file %s", file)
	}
	return scenario, nil
}

// ParseScenario decodes and validates a scenario from a YAML document. Unknown fields are rejected.
func ParseScenario(doc []byte) (*Scenario, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(doc))
	decoder.KnownFields(true)
	scenario := new(Scenario)
	if err := decoder.Decode(scenario); err != nil {
		return nil, errors.Wrap(err, "unable to decode scenario")
	}
	if err := scenario.Validate(); err != nil {
		return nil, err
	}
	return scenario, nil
}

// Node returns the spec of the named node, or nil.
func (s *Scenario) Node(name string) *NodeSpec {
	for i := range s.Nodes {
		if s.Nodes[i].Name == name {
			return &s.Nodes[i]
		}
	}
	return nil
}

func (s *Scenario) linked(a string, b string) bool {
	for _, link := range s.Links {
		if (link.A == a && link.B == b) || (link.A == b && link.B == a) {
			return true
		}
	}
	return false
}

// Validate checks that the scenario is consistent and fills in empty roles.
func (s *Scenario) Validate() error {
	if s.StopTime < 0 {
		return errors.Wrap(ErrInvalidScenario, "negative stop time")
	}
	if len(s.Nodes) == 0 {
		return errors.Wrap(ErrInvalidScenario, "no nodes")
	}

	seen := make(map[string]bool)
	for i := range s.Nodes {
		node := &s.Nodes[i]
		if node.Name == "" || seen[node.Name] {
			return errors.Wrapf(ErrInvalidScenario, "node %d: missing or duplicate name %q", i, node.Name)
		}
		seen[node.Name] = true
		switch node.Role {
		case "":
			node.Role = RoleRouter
		case RoleRouter, RoleClient, RoleServer:
		default:
			return errors.Wrapf(ErrInvalidScenario, "node %s: unknown role %q", node.Name, node.Role)
		}
		if node.Cs != nil && node.Cs.Capacity != nil && *node.Cs.Capacity < 0 {
			return errors.Wrapf(ErrInvalidScenario, "node %s: negative cs capacity", node.Name)
		}
	}

	for i, link := range s.Links {
		if !seen[link.A] || !seen[link.B] {
			return errors.Wrapf(ErrUnknownNode, "link %d: %s-%s", i, link.A, link.B)
		}
		if link.A == link.B {
			return errors.Wrapf(ErrInvalidScenario, "link %d: %s is linked to itself", i, link.A)
		}
		if link.Delay < 0 {
			return errors.Wrapf(ErrInvalidScenario, "link %d: negative delay", i)
		}
	}

	for i, route := range s.Routes {
		if !seen[route.Node] || !seen[route.Nexthop] {
			return errors.Wrapf(ErrUnknownNode, "route %d: %s via %s", i, route.Node, route.Nexthop)
		}
		if !s.linked(route.Node, route.Nexthop) {
			return errors.Wrapf(ErrNotLinked, "route %d: %s via %s", i, route.Node, route.Nexthop)
		}
		if _, err := ndn.NameFromString(route.Prefix); err != nil {
			return errors.Wrapf(err, "route %d", i)
		}
	}

	for i, origin := range s.Origins {
		if !seen[origin.Node] {
			return errors.Wrapf(ErrUnknownNode, "origin %d: %s", i, origin.Node)
		}
		if _, err := ndn.NameFromString(origin.Prefix); err != nil {
			return errors.Wrapf(err, "origin %d", i)
		}
	}

	apps := make(map[string]bool)
	for i, spec := range s.Apps {
		if spec.Name == "" || apps[spec.Name] {
			return errors.Wrapf(ErrInvalidScenario, "app %d: missing or duplicate name %q", i, spec.Name)
		}
		apps[spec.Name] = true
		if !seen[spec.Node] {
			return errors.Wrapf(ErrUnknownNode, "app %s: %s", spec.Name, spec.Node)
		}
		if spec.Kind != KindConsumer && spec.Kind != KindProducer {
			return errors.Wrapf(ErrInvalidScenario, "app %s: unknown kind %q", spec.Name, spec.Kind)
		}
		if spec.Start < 0 || (spec.Stop != 0 && spec.Stop < spec.Start) {
			return errors.Wrapf(ErrInvalidScenario, "app %s: invalid start or stop time", spec.Name)
		}
	}
	return nil
}
