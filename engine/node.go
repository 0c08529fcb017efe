package engine

import (
	"fmt"
	"sort"
)

// NodeID densely indexes nodes within a Graph.
type NodeID int32

// NodeKind discriminates model types for logs, reports, and scenario files.
type NodeKind string

// Node is one simulated component. The scheduler drives every node through
// the same phase sequence at each time index t:
//
//	LoadData(t)  pull forcing for t from configured series into working memory
//	Run(t)       compute the next state and outputs from old state and inputs
//	SaveData(t)  write selected values for t to configured series
//
// Run reads upstream outputs through bound views; layer ordering guarantees
// those cells already hold their value for t. State returns the node's state
// buffer, or nil for stateless nodes; the scheduler commits it once per index
// after every layer has finished.
type Node interface {
	ID() NodeID
	Name() string
	Kind() NodeKind

	LoadData(t int) error
	Run(t int) error
	SaveData(t int) error

	State() *StateBuffer
	BindInlet(name string, v View) error
	UnboundInlets() []string
	Outlet(name string) (Cell, bool)
	SetSeries(variable string, s Series) error
}

// NodeCore carries the identity, port, and series bookkeeping shared by all
// node implementations. Concrete types embed it, allocate outlets for the
// cells they own, declare inlets against the View fields their Run reads,
// and declare recordables against the Series fields their SaveData writes.
// Registering fields up front keeps the per-step hot path free of map
// lookups.
//
// NodeCore provides no-op LoadData and SaveData so nodes without forcing or
// recording need not define them; Run is deliberately left to the concrete
// type.
type NodeCore struct {
	id   NodeID
	name string
	kind NodeKind

	arena   *ValueArena
	state   *StateBuffer
	outlets map[string]Cell
	inlets  map[string]*View
	records map[string]*Series
}

func newNodeCore(id NodeID, name string, kind NodeKind, arena *ValueArena) *NodeCore {
	return &NodeCore{
		id:      id,
		name:    name,
		kind:    kind,
		arena:   arena,
		outlets: make(map[string]Cell),
		inlets:  make(map[string]*View),
		records: make(map[string]*Series),
	}
}

func (c *NodeCore) ID() NodeID     { return c.id }
func (c *NodeCore) Name() string   { return c.name }
func (c *NodeCore) Kind() NodeKind { return c.kind }

// State returns the buffer allocated by NewState, or nil.
func (c *NodeCore) State() *StateBuffer { return c.state }

// LoadData is a no-op; nodes with forcing series override it.
func (c *NodeCore) LoadData(int) error { return nil }

// SaveData is a no-op; nodes with recordable variables override it.
func (c *NodeCore) SaveData(int) error { return nil }

// NewState allocates the node's state buffer with n components. At most one
// buffer per node.
func (c *NodeCore) NewState(n int) *StateBuffer {
	if c.state != nil {
		panic(fmt.Sprintf("node %q: state buffer already allocated", c.name))
	}
	c.state = NewStateBuffer(n)
	return c.state
}

// NewOutlet allocates a fresh arena cell owned by this node and registers
// it under the given port name.
func (c *NodeCore) NewOutlet(name string) Cell {
	if _, ok := c.outlets[name]; ok {
		panic(fmt.Sprintf("node %q: duplicate outlet %q", c.name, name))
	}
	cell := c.arena.NewCell(c.id)
	c.outlets[name] = cell
	return cell
}

// DeclareInlet registers target as the view the node reads under the given
// port name. The view starts unbound; Graph.Connect fills it in.
func (c *NodeCore) DeclareInlet(name string, target *View) {
	if _, ok := c.inlets[name]; ok {
		panic(fmt.Sprintf("node %q: duplicate inlet %q", c.name, name))
	}
	c.inlets[name] = target
}

// DeclareRecordable registers target as the series the node writes for the
// given variable. The target starts as Discard; SetSeries replaces it when
// the host configures recording.
func (c *NodeCore) DeclareRecordable(variable string, target *Series) {
	if _, ok := c.records[variable]; ok {
		panic(fmt.Sprintf("node %q: duplicate recordable %q", c.name, variable))
	}
	*target = Discard
	c.records[variable] = target
}

// BindInlet wires a declared inlet to a view. Each inlet binds exactly once.
func (c *NodeCore) BindInlet(name string, v View) error {
	target, ok := c.inlets[name]
	if !ok {
		return configErrorf("node %q has no inlet %q", c.name, name)
	}
	if target.Valid() {
		return configErrorf("inlet %s.%s is already bound", c.name, name)
	}
	*target = v
	return nil
}

// UnboundInlets returns the names of declared inlets not yet bound, sorted.
func (c *NodeCore) UnboundInlets() []string {
	var names []string
	for name, target := range c.inlets {
		if !target.Valid() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Outlet looks up a registered outlet cell by port name.
func (c *NodeCore) Outlet(name string) (Cell, bool) {
	cell, ok := c.outlets[name]
	return cell, ok
}

// SetSeries routes a declared recordable variable to s.
func (c *NodeCore) SetSeries(variable string, s Series) error {
	target, ok := c.records[variable]
	if !ok {
		return configErrorf("node %q has no recordable variable %q", c.name, variable)
	}
	*target = s
	return nil
}
