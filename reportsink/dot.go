// Package reportsink provides concrete reporting.Sink implementations: a
// GraphViz exporter grounded on the teacher's regexlib/dot.go, a
// logrus-backed step logger, and a combine-graphs aggregator (spec §4.6,
// §6.3).
package reportsink

import (
	"fmt"
	"io"

	"lexforge/automaton"
)

// DotSink writes a GraphViz DOT rendering of every reported snapshot to w.
// Each call emits a self-contained digraph, the way the teacher's
// ExportDOT renders one automaton per call.
type DotSink struct {
	W io.Writer
}

// OnStage renders snap as a DOT digraph labeled with stageTag and key.
func (d DotSink) OnStage(stageTag string, snap automaton.Snapshot, key string) {
	fmt.Fprintf(d.W, "digraph %s_%s {\n", sanitize(stageTag), sanitize(key))
	fmt.Fprintln(d.W, "    rankdir=LR;")

	finalOf := map[automaton.NodeID]string{}
	for _, f := range snap.Finals {
		finalOf[f.Node] = f.RuleTag
	}

	for _, n := range snap.Nodes {
		shape := "circle"
		if _, ok := finalOf[n.ID]; ok {
			shape = "doublecircle"
		}
		fmt.Fprintf(d.W, "    %q [shape=%s];\n", n.ID.String(), shape)
	}
	for _, e := range snap.Edges {
		label := "eps"
		if !e.IsEpsilon() {
			label = e.Label.Render()
		}
		fmt.Fprintf(d.W, "    %q -> %q [label=%q];\n", e.From.String(), e.To.String(), label)
	}
	fmt.Fprintf(d.W, "    _start [shape=point]; _start -> %q;\n", snap.Initial.String())
	fmt.Fprintln(d.W, "}")
}

func sanitize(s string) string {
	if s == "" {
		return "g"
	}
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' {
			out = append(out, c)
		} else {
			out = append(out, '_')
		}
	}
	return string(out)
}
