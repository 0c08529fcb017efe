package models

import (
	"fmt"

	"github.com/basin-sim/basin-sim/engine"
)

// KindChannel identifies channel routing reaches.
const KindChannel engine.NodeKind = "channel"

// ChannelConfig parameterizes a Muskingum routing reach.
type ChannelConfig struct {
	TravelTime  float64 `yaml:"travel_time"`  // K, reach travel time in steps
	Weight      float64 `yaml:"weight"`       // X, inflow weighting in [0, 0.5]
	Inflows     int     `yaml:"inflows"`      // upstream inlets to declare, at least 1
	InitialFlow float64 `yaml:"initial_flow"` // starting inflow and outflow
}

// Channel routes combined upstream inflow through the Muskingum scheme
//
//	O = c0*I + c1*Iprev + c2*Oprev
//
// with coefficients derived from TravelTime and Weight at unit step width.
// State carries the previous inflow and outflow. Construction enforces
// 2KX <= 1 <= 2K(1-X), the window in which all three coefficients are
// non-negative and routing cannot produce negative flow.
//
// Ports: inlets "inflow0".."inflowN-1", outlet "outflow".
// Recordables: "outflow".
type Channel struct {
	*engine.NodeCore
	c0, c1, c2 float64

	ins []engine.View
	out engine.Cell
	buf *engine.StateBuffer

	outflowSeries engine.Series
}

// State component indices.
const (
	channelPrevInflow = iota
	channelPrevOutflow
)

// NewChannel constructs the node, registers it on g, and declares its
// ports.
func NewChannel(g *engine.Graph, name string, cfg ChannelConfig) (*Channel, error) {
	if cfg.Weight < 0 || cfg.Weight > 0.5 {
		return nil, fmt.Errorf("channel %q: weight %g outside [0,0.5]", name, cfg.Weight)
	}
	if cfg.Inflows < 1 {
		return nil, fmt.Errorf("channel %q: needs at least one inflow, got %d", name, cfg.Inflows)
	}
	if cfg.InitialFlow < 0 {
		return nil, fmt.Errorf("channel %q: initial flow %g is negative", name, cfg.InitialFlow)
	}
	k, x := cfg.TravelTime, cfg.Weight
	if 2*k*x > 1 || 2*k*(1-x) < 1 {
		return nil, fmt.Errorf("channel %q: travel time %g and weight %g violate 2KX <= 1 <= 2K(1-X)", name, k, x)
	}
	core, err := g.NewCore(name, KindChannel)
	if err != nil {
		return nil, err
	}
	denom := 2*k*(1-x) + 1
	c := &Channel{
		NodeCore: core,
		c0:       (1 - 2*k*x) / denom,
		c1:       (1 + 2*k*x) / denom,
		c2:       (2*k*(1-x) - 1) / denom,
		ins:      make([]engine.View, cfg.Inflows),
	}
	for i := range c.ins {
		core.DeclareInlet(fmt.Sprintf("inflow%d", i), &c.ins[i])
	}
	c.out = core.NewOutlet("outflow")
	c.buf = core.NewState(2)
	c.buf.SetInitial(channelPrevInflow, cfg.InitialFlow)
	c.buf.SetInitial(channelPrevOutflow, cfg.InitialFlow)
	core.DeclareRecordable("outflow", &c.outflowSeries)
	g.Add(c)
	return c, nil
}

// Run routes the step's combined inflow.
func (c *Channel) Run(int) error {
	inflow := 0.0
	for _, in := range c.ins {
		inflow += in.Value()
	}
	outflow := c.c0*inflow + c.c1*c.buf.Old(channelPrevInflow) + c.c2*c.buf.Old(channelPrevOutflow)
	c.buf.SetNext(channelPrevInflow, inflow)
	c.buf.SetNext(channelPrevOutflow, outflow)
	c.out.Set(outflow)
	return nil
}

// SaveData records the step's outflow.
func (c *Channel) SaveData(t int) error {
	return engine.WriteScalar(c.outflowSeries, t, c.out.Value())
}
