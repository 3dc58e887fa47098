package automaton

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexforge/charset"
)

func TestCreateNodeMonotonic(t *testing.T) {
	f := New("r1")
	a := f.CreateNode(0)
	b := f.CreateNode(0)
	assert.Equal(t, 0, a.Local)
	assert.Equal(t, 1, b.Local)
}

func TestAddEdgeUpdatesAlphabet(t *testing.T) {
	f := New("r1")
	a := f.CreateNode(0)
	b := f.CreateNode(0)
	f.AddEdge(a, b, charset.NewSet(charset.MustRange('a', 'c')))
	assert.True(t, f.Alphabet().Contains('b'))
	assert.False(t, f.Alphabet().Contains('z'))
}

func TestMergeRemapsIDsAndMovesFrom(t *testing.T) {
	a := New("a")
	a0 := a.CreateNode(0)
	a.SetInitial(a0)

	b := New("b")
	b0 := b.CreateNode(0)
	b1 := b.CreateNode(0)
	b.AddEdge(b0, b1, nil)
	b.AddFinal(b1, "RULE")

	remap := a.Merge(b, MergeOptions{})
	require.Len(t, a.Nodes(), 3)
	newB1 := remap[b1]
	tag, ok := a.IsFinal(newB1)
	require.True(t, ok)
	assert.Equal(t, "RULE", tag)

	assert.Panics(t, func() { b.Nodes() })
}

func TestValidateDetectsMissingInitial(t *testing.T) {
	f := New("x")
	f.CreateNode(0)
	err := f.Validate()
	require.Error(t, err)
}

func TestSnapshotIsIndependentCopy(t *testing.T) {
	f := New("x")
	n0 := f.CreateNode(0)
	f.SetInitial(n0)
	snap := f.Snap()
	f.CreateNode(0)
	assert.Len(t, snap.Nodes, 1)
}
