package subset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexforge/ast"
	"lexforge/automaton"
	"lexforge/reporting"
	"lexforge/thompson"
)

func buildNFA(t *testing.T, name string, body ast.Node) *automaton.FA {
	t.Helper()
	fa, err := thompson.SynthesizeRule(&ast.RegexpStatement{Name: name, Regexp: body}, reporting.Nop{})
	require.NoError(t, err)
	return fa
}

// run simulates the DFA over a string of runes, returning whether it ends
// in an accepting state.
func run(dfa *automaton.FA, s string) bool {
	cur := dfa.Initial()
	for _, c := range s {
		next, ok := step(dfa, cur, c)
		if !ok {
			return false
		}
		cur = next
	}
	_, accept := dfa.IsFinal(cur)
	return accept
}

func step(dfa *automaton.FA, from automaton.NodeID, c rune) (automaton.NodeID, bool) {
	for _, e := range dfa.EdgesFrom(from) {
		if e.Label != nil && e.Label.Contains(c) {
			return e.To, true
		}
	}
	return automaton.NodeID{}, false
}

func TestSingleCharDFA(t *testing.T) {
	nfa := buildNFA(t, "A", &ast.Char{Literal: 'a'})
	dfa := Construct(nfa, "A", nil, nil)
	assert.True(t, run(dfa, "a"))
	assert.False(t, run(dfa, "b"))
	assert.False(t, run(dfa, ""))
}

func TestAlternationDFA(t *testing.T) {
	body := &ast.Alternation{Left: &ast.Char{Literal: 'a'}, Right: &ast.Char{Literal: 'b'}}
	nfa := buildNFA(t, "A", body)
	dfa := Construct(nfa, "A", nil, nil)
	assert.True(t, run(dfa, "a"))
	assert.True(t, run(dfa, "b"))
	assert.False(t, run(dfa, "c"))
	assert.False(t, run(dfa, "ab"))
}

func TestKleeneStarDFA(t *testing.T) {
	// (ab)*
	body := &ast.Closure{KindOf: ast.ClosureStar, Body: &ast.Concatenation{
		Left: &ast.Char{Literal: 'a'}, Right: &ast.Char{Literal: 'b'},
	}}
	nfa := buildNFA(t, "A", body)
	dfa := Construct(nfa, "A", nil, nil)
	assert.True(t, run(dfa, ""))
	assert.True(t, run(dfa, "ab"))
	assert.True(t, run(dfa, "abab"))
	assert.False(t, run(dfa, "a"))
	assert.False(t, run(dfa, "abb"))
}

func TestPlusOnCharClassDFA(t *testing.T) {
	body := &ast.Closure{KindOf: ast.ClosurePlus, Body: &ast.Set{
		Ranges: []ast.Range{{Lower: 'a', Upper: 'z'}},
	}}
	nfa := buildNFA(t, "A", body)
	dfa := Construct(nfa, "A", nil, nil)
	assert.True(t, run(dfa, "abc"))
	assert.False(t, run(dfa, ""))
	assert.False(t, run(dfa, "aB"))
}

func TestBoundedRepeatDFA(t *testing.T) {
	body := &ast.Closure{
		KindOf:     ast.ClosureRepeat,
		Body:       &ast.Char{Literal: 'a'},
		Quantifier: &ast.ClosureRange{Lower: 2, Upper: 4},
	}
	nfa := buildNFA(t, "A", body)
	dfa := Construct(nfa, "A", nil, nil)
	assert.False(t, run(dfa, "a"))
	assert.True(t, run(dfa, "aa"))
	assert.True(t, run(dfa, "aaa"))
	assert.True(t, run(dfa, "aaaa"))
	assert.False(t, run(dfa, "aaaaa"))
}

func TestNoEpsilonEdgesInDFA(t *testing.T) {
	body := &ast.Alternation{Left: &ast.Char{Literal: 'a'}, Right: &ast.Char{Literal: 'b'}}
	nfa := buildNFA(t, "A", body)
	dfa := Construct(nfa, "A", nil, nil)
	for _, e := range dfa.Edges() {
		assert.False(t, e.IsEpsilon(), "DFA must not contain epsilon edges")
	}
}
