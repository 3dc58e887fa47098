package reportsink

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexforge/automaton"
	"lexforge/charset"
	"lexforge/reporting"
)

func sampleSnapshot() automaton.Snapshot {
	fa := automaton.New("R")
	a := fa.CreateNode(0)
	b := fa.CreateNode(0)
	fa.SetInitial(a)
	fa.AddEdge(a, b, charset.NewSet(charset.MustRange('a', 'a')))
	fa.AddFinal(b, "R")
	return fa.Snap()
}

func TestDotSinkWritesDigraph(t *testing.T) {
	var buf bytes.Buffer
	sink := DotSink{W: &buf}
	sink.OnStage(reporting.StageBasicChar, sampleSnapshot(), "R")
	out := buf.String()
	require.True(t, strings.HasPrefix(out, "digraph"))
	assert.Contains(t, out, "doublecircle")
	assert.Contains(t, out, "_start")
}

func TestCombiningSinkAccumulatesThenFlushes(t *testing.T) {
	var captured automaton.Snapshot
	var gotStage string
	inner := sinkFunc(func(stage string, snap automaton.Snapshot, key string) {
		gotStage = stage
		captured = snap
	})
	c := NewCombiningSink(inner)
	c.OnStage(reporting.StageBasicChar, sampleSnapshot(), "R")
	c.OnStage(reporting.StageConcat, sampleSnapshot(), "R")
	c.Flush("R")

	assert.Equal(t, "combined", gotStage)
	assert.Len(t, captured.Nodes, 4) // 2 nodes per stage, re-prefixed distinct
}

type sinkFunc func(stage string, snap automaton.Snapshot, key string)

func (f sinkFunc) OnStage(stage string, snap automaton.Snapshot, key string) { f(stage, snap, key) }
