package engine

// StateBuffer holds a node's state as two equally sized float64 vectors:
// the committed state from the end of the previous time index, and the
// in-progress state being produced for the current one. Run reads the
// committed side and writes the in-progress side; the committed side never
// changes mid-step, which is what makes intra-layer parallelism safe
// without locks.
//
// Run must produce every component each step, via SetNext or via Carry for
// components it leaves untouched; components never written since the last
// commit hold stale values.
type StateBuffer struct {
	old    []float64
	next   []float64
	pinned bool
}

// NewStateBuffer allocates a zeroed buffer of n state components.
func NewStateBuffer(n int) *StateBuffer {
	return &StateBuffer{old: make([]float64, n), next: make([]float64, n)}
}

// Len returns the number of state components.
func (b *StateBuffer) Len() int { return len(b.old) }

// Old reads component i of the committed state.
func (b *StateBuffer) Old(i int) float64 { return b.old[i] }

// Next reads back component i of the in-progress state.
func (b *StateBuffer) Next(i int) float64 { return b.next[i] }

// SetNext writes component i of the in-progress state.
func (b *StateBuffer) SetNext(i int, v float64) { b.next[i] = v }

// Carry copies component i of the committed state into the in-progress one.
func (b *StateBuffer) Carry(i int) { b.next[i] = b.old[i] }

// SetInitial seeds component i of the committed state. Call before the
// first index runs.
func (b *StateBuffer) SetInitial(i int, v float64) { b.old[i] = v }

// OldVector returns the committed vector itself. Obtaining it marks the
// buffer as externally aliased: from then on Commit copies instead of
// swapping, so the returned slice keeps tracking the committed state.
func (b *StateBuffer) OldVector() []float64 {
	b.pinned = true
	return b.old
}

// Commit publishes the in-progress state as the committed one. Unpinned
// buffers swap the two vectors; pinned buffers copy element-wise so
// external aliases of the committed vector stay live. The scheduler calls
// Commit exactly once per node per time index, after every layer has
// finished; an aborted index is never committed.
func (b *StateBuffer) Commit() {
	if b.pinned {
		copy(b.old, b.next)
		return
	}
	b.old, b.next = b.next, b.old
}
