package engine

import "fmt"

// adderNode is the minimal node the engine tests drive: each Run publishes
// bias plus the sum of its bound inlets on the "out" outlet and mirrors the
// same value into its one state component. With accumulate set it adds the
// committed state too, so the value grows across indices and committed-state
// visibility becomes observable.
type adderNode struct {
	*NodeCore
	bias       float64
	accumulate bool
	mute       bool // skip publishing "out"; the host drives the cell instead

	ins []*View
	out Cell
	rec Series

	loadHook func(t int) error // optional fault injection per phase
	runHook  func(t int) error
	saveHook func(t int) error
}

// newAdderNode enrolls an adder with the given number of inlets named
// "in0".."inN-1". Construction failures panic; tests build valid graphs
// explicitly when probing error paths.
func newAdderNode(g *Graph, name string, bias float64, inlets int) *adderNode {
	core, err := g.NewCore(name, "adder")
	if err != nil {
		panic(err)
	}
	n := &adderNode{NodeCore: core, bias: bias}
	for i := 0; i < inlets; i++ {
		v := new(View)
		core.DeclareInlet(fmt.Sprintf("in%d", i), v)
		n.ins = append(n.ins, v)
	}
	n.out = core.NewOutlet("out")
	core.NewState(1)
	core.DeclareRecordable("value", &n.rec)
	g.Add(n)
	return n
}

func (n *adderNode) LoadData(t int) error {
	if n.loadHook != nil {
		return n.loadHook(t)
	}
	return nil
}

func (n *adderNode) Run(t int) error {
	if n.runHook != nil {
		if err := n.runHook(t); err != nil {
			return err
		}
	}
	sum := n.bias
	if n.accumulate {
		sum += n.State().Old(0)
	}
	for _, v := range n.ins {
		sum += v.Value()
	}
	n.State().SetNext(0, sum)
	if !n.mute {
		n.out.Set(sum)
	}
	return nil
}

func (n *adderNode) SaveData(t int) error {
	if n.saveHook != nil {
		if err := n.saveHook(t); err != nil {
			return err
		}
	}
	return WriteScalar(n.rec, t, n.out.Value())
}

// committed reads back the node's committed state component.
func (n *adderNode) committed() float64 { return n.State().Old(0) }

// chainGraph builds source -> mid -> sink with the given biases and returns
// the three nodes. The source takes no inputs; mid and sink read their
// predecessor through "in0".
func chainGraph(g *Graph, biases [3]float64) (*adderNode, *adderNode, *adderNode) {
	a := newAdderNode(g, "A", biases[0], 0)
	b := newAdderNode(g, "B", biases[1], 1)
	c := newAdderNode(g, "C", biases[2], 1)
	mustConnect(g, "A", "out", "B", "in0")
	mustConnect(g, "B", "out", "C", "in0")
	return a, b, c
}

func mustConnect(g *Graph, from, outlet, to, inlet string) {
	if err := g.Connect(from, outlet, to, inlet); err != nil {
		panic(err)
	}
}

// recordInMemory routes the node's "value" recordable to a fresh memory
// series covering [0, length).
func recordInMemory(g *Graph, n *adderNode, length int) Series {
	s, err := g.ConfigureSeries(n.Name()+".value", SeriesSpec{Mode: ModeMemory, Length: length})
	if err != nil {
		panic(err)
	}
	if err := n.SetSeries("value", s); err != nil {
		panic(err)
	}
	return s
}
