package engine

// LinkID indexes a shared scalar cell inside a ValueArena. IDs are dense,
// stable for the lifetime of the arena, and never reused.
type LinkID int32

// ValueArena owns every scalar shared between nodes. Cells are addressed by
// LinkID rather than by raw pointer, so a handle stays valid for the whole
// run and tearing down a node cannot leave a dangling reference behind.
//
// During a time index a cell is written only by its owning node, inside that
// node's layer, and read only by nodes in strictly later layers. That
// discipline is what lets access go without locks; the scheduler derives the
// layer assignment from the edges recorded here by Bind.
type ValueArena struct {
	values []float64
	owners []NodeID
	edges  []linkEdge
}

// linkEdge is one owner -> reader dependency created by Bind.
type linkEdge struct {
	from NodeID
	to   NodeID
}

// NewValueArena returns an empty arena.
func NewValueArena() *ValueArena { return &ValueArena{} }

// NewCell allocates a fresh scalar owned by the given node and returns the
// owner's handle. Cells start at zero.
func (a *ValueArena) NewCell(owner NodeID) Cell {
	id := LinkID(len(a.values))
	a.values = append(a.values, 0)
	a.owners = append(a.owners, owner)
	return Cell{arena: a, id: id}
}

// Bind creates a view of c for the given reader and records the
// owner -> reader dependency used for layer assignment. A cell may be bound
// any number of times.
func (a *ValueArena) Bind(c Cell, reader NodeID) View {
	a.edges = append(a.edges, linkEdge{from: a.owners[c.id], to: reader})
	return View{arena: a, id: c.id}
}

// Len reports how many cells have been allocated.
func (a *ValueArena) Len() int { return len(a.values) }

// Owner returns the node owning the given cell.
func (a *ValueArena) Owner(id LinkID) NodeID { return a.owners[id] }

// Cell is the owning handle of a shared scalar. The zero value is invalid;
// cells come from ValueArena.NewCell.
type Cell struct {
	arena *ValueArena
	id    LinkID
}

// Set stores v into the shared slot.
func (c Cell) Set(v float64) { c.arena.values[c.id] = v }

// Value reads the shared slot.
func (c Cell) Value() float64 { return c.arena.values[c.id] }

// ID returns the cell's stable link index.
func (c Cell) ID() LinkID { return c.id }

// Valid reports whether the handle refers to an arena cell.
func (c Cell) Valid() bool { return c.arena != nil }

// View is an alias of a cell owned elsewhere. Nodes read their inputs
// through views; the owner has published the value for the current index by
// the time any reader's layer starts.
type View struct {
	arena *ValueArena
	id    LinkID
}

// Value reads the shared slot.
func (v View) Value() float64 { return v.arena.values[v.id] }

// Set stores x into the shared slot. Node code must not write through
// views while a layer is executing; Set exists for host callbacks that
// inject values between phases.
func (v View) Set(x float64) { v.arena.values[v.id] = x }

// ID returns the underlying cell's link index.
func (v View) ID() LinkID { return v.id }

// Valid reports whether the view has been bound to a cell.
func (v View) Valid() bool { return v.arena != nil }
