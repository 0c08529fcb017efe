package engine

import "fmt"

// Graph assembles a node network: it owns the value arena, the node table,
// and the series registry. Build order is NewCore (reserve identity),
// construct the node and Add it, Connect links, ConfigureSeries for
// recording and forcing; NewScheduler then validates and freezes the
// topology.
type Graph struct {
	arena  *ValueArena
	nodes  []Node
	names  []string
	byName map[string]NodeID

	series      map[string]Series
	seriesOrder []string
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		arena:  NewValueArena(),
		byName: make(map[string]NodeID),
		series: make(map[string]Series),
	}
}

// NewCore reserves the next node slot under the given name and returns the
// core a concrete node embeds. Names must be unique and non-empty.
func (g *Graph) NewCore(name string, kind NodeKind) (*NodeCore, error) {
	if name == "" {
		return nil, configErrorf("node name must not be empty")
	}
	if _, ok := g.byName[name]; ok {
		return nil, configErrorf("duplicate node name %q", name)
	}
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, nil)
	g.names = append(g.names, name)
	g.byName[name] = id
	return newNodeCore(id, name, kind, g.arena), nil
}

// Add fills the slot reserved by NewCore with the finished node. Adding a
// node whose core came from another graph, or twice, is a programming
// error.
func (g *Graph) Add(n Node) {
	id := n.ID()
	if int(id) >= len(g.nodes) || g.names[id] != n.Name() {
		panic(fmt.Sprintf("node %q was not enrolled in this graph", n.Name()))
	}
	if g.nodes[id] != nil {
		panic(fmt.Sprintf("node %q added twice", n.Name()))
	}
	g.nodes[id] = n
}

// Node looks up a node by name.
func (g *Graph) Node(name string) (Node, bool) {
	id, ok := g.byName[name]
	if !ok || g.nodes[id] == nil {
		return nil, false
	}
	return g.nodes[id], true
}

// NumNodes reports how many node slots exist, added or not.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// Connect binds the named outlet of node from to the named inlet of node
// to, recording the dependency used for layer assignment.
func (g *Graph) Connect(from, outlet, to, inlet string) error {
	src, ok := g.Node(from)
	if !ok {
		return configErrorf("link source node %q does not exist", from)
	}
	dst, ok := g.Node(to)
	if !ok {
		return configErrorf("link target node %q does not exist", to)
	}
	cell, ok := src.Outlet(outlet)
	if !ok {
		return configErrorf("node %q has no outlet %q", from, outlet)
	}
	return dst.BindInlet(inlet, g.arena.Bind(cell, dst.ID()))
}

// ConfigureSeries creates the series for one recorded variable. Keys are
// conventionally "node.variable" and must be unique: configuring the same
// variable twice is an error, not an overwrite.
func (g *Graph) ConfigureSeries(key string, spec SeriesSpec) (Series, error) {
	if _, ok := g.series[key]; ok {
		return nil, configErrorf("series %q configured twice", key)
	}
	s, err := newSeries(key, spec)
	if err != nil {
		return nil, err
	}
	g.series[key] = s
	g.seriesOrder = append(g.seriesOrder, key)
	return s, nil
}

// Series looks up a configured series by key.
func (g *Graph) Series(key string) (Series, bool) {
	s, ok := g.series[key]
	return s, ok
}

// SeriesKeys returns the configured series keys in configuration order.
func (g *Graph) SeriesKeys() []string {
	keys := make([]string, len(g.seriesOrder))
	copy(keys, g.seriesOrder)
	return keys
}
