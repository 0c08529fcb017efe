package engine

import "sort"

// buildLayers assigns every node the smallest layer index consistent with
// its inbound views: a node reading a cell lands in a strictly greater
// layer than the cell's owner. The result lists layers in ascending order,
// each holding node ids in ascending order so traversal is deterministic.
//
// The assignment is a Kahn peel over the owner -> reader edges recorded by
// the arena. If any node is never released its dependencies contain a
// cycle and no assignment exists.
func buildLayers(n int, names []string, edges []linkEdge) ([][]NodeID, error) {
	adjacent := make([][]NodeID, n)
	indegree := make([]int, n)
	for _, e := range edges {
		adjacent[e.from] = append(adjacent[e.from], e.to)
		indegree[e.to]++
	}

	var frontier []NodeID
	for id := 0; id < n; id++ {
		if indegree[id] == 0 {
			frontier = append(frontier, NodeID(id))
		}
	}

	var layers [][]NodeID
	placed := 0
	for len(frontier) > 0 {
		layers = append(layers, frontier)
		placed += len(frontier)
		var next []NodeID
		for _, u := range frontier {
			for _, v := range adjacent[u] {
				indegree[v]--
				if indegree[v] == 0 {
					next = append(next, v)
				}
			}
		}
		sort.Slice(next, func(i, j int) bool { return next[i] < next[j] })
		frontier = next
	}

	if placed != n {
		var stuck []string
		for id := 0; id < n; id++ {
			if indegree[id] > 0 {
				stuck = append(stuck, names[id])
			}
		}
		return nil, &CycleError{Nodes: stuck}
	}
	return layers, nil
}
