package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func edge(from, to NodeID) linkEdge { return linkEdge{from: from, to: to} }

func namesFor(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = string(rune('A' + i))
	}
	return names
}

func TestBuildLayers_NoEdges_SingleLayer(t *testing.T) {
	layers, err := buildLayers(3, namesFor(3), nil)

	require.NoError(t, err)
	assert.Equal(t, [][]NodeID{{0, 1, 2}}, layers)
}

func TestBuildLayers_Chain(t *testing.T) {
	layers, err := buildLayers(3, namesFor(3), []linkEdge{edge(0, 1), edge(1, 2)})

	require.NoError(t, err)
	assert.Equal(t, [][]NodeID{{0}, {1}, {2}}, layers)
}

func TestBuildLayers_Diamond(t *testing.T) {
	layers, err := buildLayers(4, namesFor(4), []linkEdge{
		edge(0, 1), edge(0, 2), edge(1, 3), edge(2, 3),
	})

	require.NoError(t, err)
	assert.Equal(t, [][]NodeID{{0}, {1, 2}, {3}}, layers)
}

func TestBuildLayers_ReaderAboveEveryOwner(t *testing.T) {
	// C reads both A and B, but B also reads A; C must land strictly above
	// the higher of its two owners.
	layers, err := buildLayers(3, namesFor(3), []linkEdge{
		edge(0, 2), edge(0, 1), edge(1, 2),
	})

	require.NoError(t, err)
	assert.Equal(t, [][]NodeID{{0}, {1}, {2}}, layers)
}

func TestBuildLayers_ParallelBindingsCountTwice(t *testing.T) {
	// Two bindings of the same owner pair still release the reader once.
	layers, err := buildLayers(2, namesFor(2), []linkEdge{edge(0, 1), edge(0, 1)})

	require.NoError(t, err)
	assert.Equal(t, [][]NodeID{{0}, {1}}, layers)
}

func TestBuildLayers_IdsAscendingWithinLayer(t *testing.T) {
	layers, err := buildLayers(4, namesFor(4), []linkEdge{
		edge(0, 3), edge(0, 1), edge(0, 2),
	})

	require.NoError(t, err)
	assert.Equal(t, [][]NodeID{{0}, {1, 2, 3}}, layers)
}

func TestBuildLayers_TwoNodeCycle(t *testing.T) {
	_, err := buildLayers(2, []string{"up", "down"}, []linkEdge{edge(0, 1), edge(1, 0)})

	var cycleErr *CycleError
	require.ErrorAs(t, err, &cycleErr)
	assert.ElementsMatch(t, []string{"up", "down"}, cycleErr.Nodes)
}

func TestBuildLayers_SelfLoop(t *testing.T) {
	_, err := buildLayers(1, []string{"solo"}, []linkEdge{edge(0, 0)})

	var cycleErr *CycleError
	require.ErrorAs(t, err, &cycleErr)
	assert.Equal(t, []string{"solo"}, cycleErr.Nodes)
}

func TestBuildLayers_CycleError_IncludesDownstreamNodes(t *testing.T) {
	// C only reads B, but B is stuck in a cycle with A, so C can never be
	// placed either.
	_, err := buildLayers(3, []string{"A", "B", "C"}, []linkEdge{
		edge(0, 1), edge(1, 0), edge(1, 2),
	})

	var cycleErr *CycleError
	require.ErrorAs(t, err, &cycleErr)
	assert.ElementsMatch(t, []string{"A", "B", "C"}, cycleErr.Nodes)
	assert.Contains(t, err.Error(), "cyclic dependency")
}

func TestBuildLayers_EmptyGraph(t *testing.T) {
	layers, err := buildLayers(0, nil, nil)

	require.NoError(t, err)
	assert.Empty(t, layers)
}
