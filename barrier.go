package framegraph

// writeHazardStates are the states that make simultaneous access illegal.
// StateCommon is declared through WriteStates for validation but carries no
// hazard.
const writeHazardStates = StateRenderTarget | StateUnorderedAccess |
	StateDepthWrite | StateCopyDest

// planBarriers walks the sorted pass table and annotates every pass with
// the transitions its dependencies require and the cross-queue producer it
// must wait for.
//
// State transitions use the superset test: a barrier is emitted only when
// the tracked state is missing a required bit. Read-to-read transitions
// move to the union of both states so later readers in the frame are
// already satisfied. Dummy resources are exempt from all of this.
//
// Cross-queue waits are deduplicated per consuming queue: once a consumer
// has waited for a producer at execution position p, earlier producers on
// that queue are covered by the same fence and produce no further wait.
func (g *Graph) planBarriers() {
	// Highest already-synced producer position, per consuming queue.
	var lastSynced [NumQueues]int32
	for q := range lastSynced {
		lastSynced[q] = -1
	}

	for i := range g.nodes {
		node := &g.nodes[i]

		for _, in := range node.inputs {
			// Dummy resources carry CPU-side ordering only: no
			// transitions and no queue-level fence waits.
			if isDummyID(in.resID) {
				continue
			}

			res := &g.resources[findResource(g.resources, in.resID)]
			g.planCrossQueue(node, int32(i), in.resID, &lastSynced)
			g.planTransition(node, res, in.state)
		}

		for slot, out := range node.outputs {
			if isDummyID(out.resID) {
				continue
			}
			if node.outputMask&(1<<slot) != 0 {
				// Ping-pong slot: the callback transitions this
				// resource itself and restores the input state.
				continue
			}

			res := &g.resources[findResource(g.resources, out.resID)]
			g.planTransition(node, res, out.state)
		}
	}

	// The display surface is handed to the presenter as-is; the presenter
	// owns the final transition to the present state.
	if g.presentID != 0 {
		if pos := findResource(g.resources, g.presentID); pos != -1 {
			g.resources[pos].state = StatePresent
		}
	}
}

// planCrossQueue records a fence wait on node for the latest not-yet-synced
// producer of resID living on the other queue.
func (g *Graph) planCrossQueue(node *passNode, sortedPos int32, resID uint64, lastSynced *[NumQueues]int32) {
	pos := findResource(g.resources, resID)
	if pos == -1 {
		return
	}
	res := &g.resources[pos]

	for p := range res.numProducers {
		prodPos := g.mapping[res.producers[p]]
		if prodPos == sortedPos || g.nodes[prodPos].queue == node.queue {
			continue
		}
		if prodPos > lastSynced[node.queue] {
			lastSynced[node.queue] = prodPos
			if prodPos > node.crossQueueDep {
				node.crossQueueDep = prodPos
			}
		}
	}
}

// planTransition emits a barrier on node when the tracked state of res does
// not already satisfy required, and advances the tracked state.
func (g *Graph) planTransition(node *passNode, res *resourceMeta, required ResourceState) {
	if res.state.Satisfies(required) {
		return
	}

	after := required
	if res.state&writeHazardStates == 0 && required&writeHazardStates == 0 {
		after = res.state | required
	}

	if node.queue == QueueCompute && (res.state|after)&InvalidComputeStates != 0 {
		node.hasUnsupportedBarrier = true
	}

	node.barriers = append(node.barriers, Barrier{
		ResourceID: res.id,
		Backing:    res.backing,
		Before:     res.state,
		After:      after,
	})
	res.state = after
}
