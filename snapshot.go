package framegraph

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Snapshot is a frozen, serializable view of a built frame: the sorted
// passes with their planned barriers, the aggregate submission units, and
// the tracked resource states. Intended for debug dumps and tests.
type Snapshot struct {
	Passes     []PassSnapshot      `yaml:"passes"`
	Aggregates []AggregateSnapshot `yaml:"aggregates"`
	Resources  []ResourceSnapshot  `yaml:"resources"`
}

// PassSnapshot describes one pass in execution order.
type PassSnapshot struct {
	Name          string            `yaml:"name"`
	Queue         string            `yaml:"queue"`
	Batch         int32             `yaml:"batch"`
	Aggregate     int32             `yaml:"aggregate"`
	ForceSeparate bool              `yaml:"forceSeparate,omitempty"`
	Barriers      []BarrierSnapshot `yaml:"barriers,omitempty"`
	WaitsFor      string            `yaml:"waitsFor,omitempty"`
}

// BarrierSnapshot describes one planned transition.
type BarrierSnapshot struct {
	Resource uint64 `yaml:"resource"`
	Before   string `yaml:"before"`
	After    string `yaml:"after"`
}

// AggregateSnapshot describes one submission unit.
type AggregateSnapshot struct {
	Name         string   `yaml:"name"`
	Queue        string   `yaml:"queue"`
	Batch        int32    `yaml:"batch"`
	Passes       []string `yaml:"passes"`
	MergedStream int32    `yaml:"mergedStream"`
	Terminal     bool     `yaml:"terminal,omitempty"`
}

// ResourceSnapshot describes one tracked resource record.
type ResourceSnapshot struct {
	ID               uint64 `yaml:"id"`
	State            string `yaml:"state"`
	SurfaceDependent bool   `yaml:"surfaceDependent,omitempty"`
}

// Snapshot captures the built frame. Valid between Build and the next
// BeginFrame.
func (g *Graph) Snapshot() (*Snapshot, error) {
	if !g.built {
		return nil, fmt.Errorf("Snapshot before Build: %w", ErrProtocolViolation)
	}

	snap := &Snapshot{
		Passes:     make([]PassSnapshot, len(g.nodes)),
		Aggregates: make([]AggregateSnapshot, len(g.aggregates)),
		Resources:  make([]ResourceSnapshot, len(g.resources)),
	}

	for i := range g.nodes {
		node := &g.nodes[i]
		ps := PassSnapshot{
			Name:          node.name,
			Queue:         node.queue.String(),
			Batch:         node.batch,
			Aggregate:     node.aggIndex,
			ForceSeparate: node.forceSeparate,
		}
		for _, b := range node.barriers {
			ps.Barriers = append(ps.Barriers, BarrierSnapshot{
				Resource: b.ResourceID,
				Before:   b.Before.String(),
				After:    b.After.String(),
			})
		}
		if node.crossQueueDep != -1 {
			ps.WaitsFor = g.nodes[node.crossQueueDep].name
		}
		snap.Passes[i] = ps
	}

	for i, agg := range g.aggregates {
		as := AggregateSnapshot{
			Name:         agg.name,
			Queue:        agg.queue.String(),
			Batch:        agg.batch,
			MergedStream: agg.mergedStreamIndex,
			Terminal:     agg.isLast,
		}
		for _, p := range agg.passes {
			as.Passes = append(as.Passes, g.nodes[p].name)
		}
		snap.Aggregates[i] = as
	}

	for i := range g.resources {
		res := &g.resources[i]
		snap.Resources[i] = ResourceSnapshot{
			ID:               res.id,
			State:            res.state.String(),
			SurfaceDependent: res.surfaceDependent,
		}
	}

	return snap, nil
}

// YAML renders the snapshot as a YAML document.
func (s *Snapshot) YAML() (string, error) {
	out, err := yaml.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	return string(out), nil
}

// LogGraph writes a per-aggregate summary of the built frame to the
// package logger at debug level.
func (g *Graph) LogGraph() error {
	if !g.built {
		return fmt.Errorf("LogGraph before Build: %w", ErrProtocolViolation)
	}

	log := slogger()
	for i, agg := range g.aggregates {
		numBarriers := 0
		for _, p := range agg.passes {
			numBarriers += len(g.nodes[p].barriers)
		}
		log.Debug("framegraph: aggregate",
			"index", i,
			"name", agg.name,
			"queue", agg.queue.String(),
			"batch", agg.batch,
			"passes", len(agg.passes),
			"barriers", numBarriers,
			"mergedStream", agg.mergedStreamIndex)
	}
	return nil
}
