package dfaops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexforge/ast"
	"lexforge/automaton"
	"lexforge/minimize"
	"lexforge/reporting"
	"lexforge/subset"
	"lexforge/thompson"
)

func compile(t *testing.T, name string, body ast.Node) *automaton.FA {
	t.Helper()
	nfa, err := thompson.SynthesizeRule(&ast.RegexpStatement{Name: name, Regexp: body}, reporting.Nop{})
	require.NoError(t, err)
	dfa := subset.Construct(nfa, name, nil, reporting.Nop{})
	return minimize.Minimize(dfa, name, reporting.Nop{})
}

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

func charDFA(t *testing.T, name string, c rune) *automaton.FA {
	return compile(t, name, &ast.Char{Literal: c})
}

func TestComplementFlipsAcceptance(t *testing.T) {
	d := charDFA(t, "A", 'a')
	comp := Complement(d, "notA")
	assert.False(t, run(comp, "a"))
	assert.True(t, run(comp, "b"))
	assert.True(t, run(comp, ""))
	assert.True(t, run(comp, "aa"))
}

func TestUnionAcceptsEither(t *testing.T) {
	a := charDFA(t, "A", 'a')
	b := charDFA(t, "B", 'b')
	u := Union(a, b, "AorB")
	assert.True(t, run(u, "a"))
	assert.True(t, run(u, "b"))
	assert.False(t, run(u, "c"))
	assert.False(t, run(u, "ab"))
}

func TestIntersectRequiresBoth(t *testing.T) {
	body := &ast.Closure{KindOf: ast.ClosurePlus, Body: &ast.Set{
		Ranges: []ast.Range{{Lower: 'a', Upper: 'z'}},
	}}
	lower := compile(t, "Lower", body)
	abOnly := compile(t, "AB", &ast.Concatenation{Left: &ast.Char{Literal: 'a'}, Right: &ast.Char{Literal: 'b'}})

	both := Intersect(lower, abOnly, "both")
	assert.True(t, run(both, "ab"))
	assert.False(t, run(both, "ac"))
	assert.False(t, run(both, "AB"))
}

func TestReverseNFAAcceptsReversedStrings(t *testing.T) {
	body := &ast.Concatenation{Left: &ast.Char{Literal: 'a'}, Right: &ast.Char{Literal: 'b'}}
	ab := compile(t, "AB", body)

	revNFA := ReverseNFA(ab, "BA")
	revDFA := subset.Construct(revNFA, "BA", nil, reporting.Nop{})
	assert.True(t, run(revDFA, "ba"))
	assert.False(t, run(revDFA, "ab"))
}

func TestToRegexpRoundTripsSingleChar(t *testing.T) {
	d := charDFA(t, "A", 'a')
	re := ToRegexp(d)
	assert.Equal(t, "a", re)
}

func TestToRegexpOnEmptyLanguageIsEmptySet(t *testing.T) {
	fa := automaton.New("E")
	n := fa.CreateNode(0)
	fa.SetInitial(n)
	assert.Equal(t, emptySet, ToRegexp(fa))
}

func TestToRegexpOnAlternationContainsBothBranches(t *testing.T) {
	body := &ast.Alternation{Left: &ast.Char{Literal: 'a'}, Right: &ast.Char{Literal: 'b'}}
	d := compile(t, "A", body)
	re := ToRegexp(d)
	assert.Contains(t, re, "a")
	assert.Contains(t, re, "b")
}
