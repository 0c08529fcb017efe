// Package engine provides a deterministic time-stepped simulation core for
// networks of interacting process models.
//
// # Reading Guide
//
// Start with these three files to understand the stepping kernel:
//   - valuelink.go: the shared-scalar arena nodes publish and read through
//   - node.go: the Node phase contract (LoadData → Run → SaveData) and NodeCore
//   - scheduler.go: the window loop, layer sweep, and commit pass
//
// # Architecture
//
// The engine package defines the contracts and the loop; everything model
// and tool shaped lives in sub-packages:
//   - engine/recordio/: headerless fixed-record binary series files
//   - engine/kernels/: pure numerical kernels (interpolation, root finding,
//     quadrature)
//   - engine/models/: concrete process models (reservoir, runoff, channel)
//
// A run is assembled on a Graph: enroll node cores, add the constructed
// nodes, Connect outlets to inlets, and configure a Series per recorded
// variable. NewScheduler freezes the topology, derives the layer order
// from the bindings, and Simulate advances the whole network one time
// index at a time. Within an index, nodes in the same layer execute in
// parallel; nodes only read values published by earlier layers plus their
// own committed state, so results are identical at any worker count.
//
// # Determinism
//
// Three rules keep a run bit-reproducible:
//   - a cell is written only by its owner, in the owner's layer
//   - Run reads old state; new state appears only at the commit pass
//   - no node observes scheduling order within its layer
//
// # Key Interfaces
//
//   - Node: the phase contract every model implements (usually via NodeCore)
//   - Series: one recorded variable, backed by nothing, memory, or disk
//   - Observer: scheduler notifications for metrics export
package engine
