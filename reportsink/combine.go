package reportsink

import (
	"strconv"
	"sync"

	"lexforge/automaton"
	"lexforge/charset"
	"lexforge/reporting"
)

// CombiningSink accumulates every reported snapshot into a single artefact
// instead of forwarding each stage individually, for the driver's
// combine-graphs option (spec §4.6: "multi-stage sink aggregates into a
// single artefact"). Node IDs from each reported snapshot are re-prefixed
// with "<stage>/<key>/<n>/", n being the number of nodes accumulated before
// that call, so accumulating them can never collide, since each stage's
// own local-ID counters otherwise restart at zero.
type CombiningSink struct {
	Inner reporting.Sink

	mu       sync.Mutex
	combined automaton.Snapshot
}

// NewCombiningSink wraps inner (use reporting.Nop{} to only collect).
func NewCombiningSink(inner reporting.Sink) *CombiningSink {
	if inner == nil {
		inner = reporting.Nop{}
	}
	return &CombiningSink{Inner: inner, combined: automaton.Snapshot{Alpha: &charset.Set{}}}
}

// OnStage folds snap into the running combined artefact.
func (c *CombiningSink) OnStage(stageTag string, snap automaton.Snapshot, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := stageTag + "/" + key + "/" + strconv.Itoa(len(c.combined.Nodes))
	remapped := remapSnapshot(snap, prefix)

	c.combined.Nodes = append(c.combined.Nodes, remapped.Nodes...)
	c.combined.Edges = append(c.combined.Edges, remapped.Edges...)
	c.combined.Finals = append(c.combined.Finals, remapped.Finals...)
	if c.combined.Alpha == nil {
		c.combined.Alpha = &charset.Set{}
	}
	if snap.Alpha != nil {
		c.combined.Alpha = c.combined.Alpha.Union(snap.Alpha)
	}
}

// Flush forwards the accumulated artefact to Inner under stage tag
// "combined" and resets the accumulator.
func (c *CombiningSink) Flush(key string) {
	c.mu.Lock()
	combined := c.combined
	c.combined = automaton.Snapshot{Alpha: &charset.Set{}}
	c.mu.Unlock()
	c.Inner.OnStage("combined", combined, key)
}

func remapSnapshot(snap automaton.Snapshot, prefix string) automaton.Snapshot {
	remap := func(id automaton.NodeID) automaton.NodeID {
		return automaton.NodeID{Owner: prefix + "/" + id.Owner, Local: id.Local}
	}
	nodes := make([]automaton.Node, len(snap.Nodes))
	for i, n := range snap.Nodes {
		nodes[i] = automaton.Node{ID: remap(n.ID), Line: n.Line}
	}
	edges := make([]automaton.Edge, len(snap.Edges))
	for i, e := range snap.Edges {
		edges[i] = automaton.Edge{From: remap(e.From), To: remap(e.To), Label: e.Label}
	}
	finals := make([]automaton.Final, len(snap.Finals))
	for i, f := range snap.Finals {
		finals[i] = automaton.Final{Node: remap(f.Node), RuleTag: f.RuleTag}
	}
	return automaton.Snapshot{
		Nodes:   nodes,
		Edges:   edges,
		Initial: remap(snap.Initial),
		Finals:  finals,
		Alpha:   snap.Alpha,
	}
}
