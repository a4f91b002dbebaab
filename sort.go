package framegraph

import (
	"fmt"
	"sort"
)

// resolveEdges derives the dependency adjacency from the declared inputs
// and outputs: for every input there is one edge from each producer of that
// resource to the consumer. A pass that both reads and writes the same
// resource (ping-pong) produces no self-edge; instead the matching output
// slot is marked in outputMask so the barrier planner leaves its state to
// the callback.
//
// Adjacency and indegrees are expressed in pre-sort handles.
func (g *Graph) resolveEdges() ([][]int32, error) {
	adj := make([][]int32, len(g.nodes))

	for h := range g.nodes {
		node := &g.nodes[h]

		for _, in := range node.inputs {
			pos := findResource(g.resources, in.resID)
			if pos == -1 {
				return nil, fmt.Errorf("input resource %d of pass %q not registered: %w",
					in.resID, node.name, ErrGraphInvalid)
			}

			res := &g.resources[pos]
			for p := range res.numProducers {
				prod := res.producers[p]
				if int(prod) == h {
					node.outputMask |= pingPongBit(node, in.resID)
					continue
				}
				if !containsEdge(adj[prod], int32(h)) {
					adj[prod] = append(adj[prod], int32(h))
					node.indegree++
				}
			}
		}
	}

	return adj, nil
}

// pingPongBit returns the outputMask bit for the output slot writing resID,
// or zero when the pass declares no such output.
func pingPongBit(node *passNode, resID uint64) uint32 {
	for slot, out := range node.outputs {
		if out.resID == resID {
			return 1 << slot
		}
	}
	return 0
}

func containsEdge(edges []int32, to int32) bool {
	for _, e := range edges {
		if e == to {
			return true
		}
	}
	return false
}

// sortNodes assigns every pass its batch (longest-path depth from the
// sources) via Kahn's algorithm, then stably reorders the pass table by
// batch. Registration order is preserved within a batch. The pre-sort to
// execution-order mapping is stored for handle translation.
//
// A cycle leaves unvisited passes and fails the frame with ErrGraphInvalid.
func (g *Graph) sortNodes(adj [][]int32) error {
	n := len(g.nodes)

	frontier := make([]int32, 0, n)
	for h := range g.nodes {
		if g.nodes[h].indegree == 0 {
			frontier = append(frontier, int32(h))
		}
	}

	visited := 0
	for len(frontier) > 0 {
		u := frontier[0]
		frontier = frontier[1:]
		visited++

		for _, v := range adj[u] {
			if b := g.nodes[u].batch + 1; b > g.nodes[v].batch {
				g.nodes[v].batch = b
			}
			g.nodes[v].indegree--
			if g.nodes[v].indegree == 0 {
				frontier = append(frontier, v)
			}
		}
	}

	if visited != n {
		return fmt.Errorf("dependency cycle among %d of %d passes: %w",
			n-visited, n, ErrGraphInvalid)
	}

	// Stable sort by batch over registration order, tracked through an
	// index permutation so pre-sort handles stay translatable.
	perm := make([]int32, n)
	for i := range perm {
		perm[i] = int32(i)
	}
	sort.SliceStable(perm, func(a, b int) bool {
		return g.nodes[perm[a]].batch < g.nodes[perm[b]].batch
	})

	sorted := make([]passNode, n)
	g.mapping = make([]int32, n)
	for newPos, old := range perm {
		sorted[newPos] = g.nodes[old]
		g.mapping[old] = int32(newPos)
	}
	g.nodes = sorted

	return nil
}
