package thompson

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexforge/ast"
	"lexforge/lexerr"
	"lexforge/reporting"
)

func synthesizeBody(t *testing.T, body ast.Node) Frag {
	t.Helper()
	s := New("R", body, reporting.Nop{})
	f, err := s.Synthesize(body, 1)
	require.NoError(t, err)
	return f
}

// every intermediate fragment must have exactly one initial, exactly one
// final, no incoming edge to initial, and no outgoing edge from final
// (spec §4.3 invariants after synthesis).
func assertSingleExitInvariant(t *testing.T, f Frag) {
	t.Helper()
	for _, e := range f.FA.Edges() {
		assert.NotEqual(t, f.Init, e.To, "incoming edge to initial node")
		assert.NotEqual(t, f.Final, e.From, "outgoing edge from final node")
	}
}

func TestCharTemplate(t *testing.T) {
	f := synthesizeBody(t, &ast.Char{Literal: 'a'})
	assertSingleExitInvariant(t, f)
	assert.Len(t, f.FA.Nodes(), 2)
	assert.Len(t, f.FA.Edges(), 1)
}

func TestConcatTemplate(t *testing.T) {
	body := &ast.Concatenation{Left: &ast.Char{Literal: 'a'}, Right: &ast.Char{Literal: 'b'}}
	f := synthesizeBody(t, body)
	assertSingleExitInvariant(t, f)
}

func TestAltTemplate(t *testing.T) {
	body := &ast.Alternation{Left: &ast.Char{Literal: 'a'}, Right: &ast.Char{Literal: 'b'}}
	f := synthesizeBody(t, body)
	assertSingleExitInvariant(t, f)
	// fresh init + fresh final + 2*(2 nodes per char) = 6 nodes
	assert.Len(t, f.FA.Nodes(), 6)
}

func TestStarTemplate(t *testing.T) {
	body := &ast.Closure{KindOf: ast.ClosureStar, Body: &ast.Char{Literal: 'a'}}
	f := synthesizeBody(t, body)
	assertSingleExitInvariant(t, f)
}

func TestRepeatBoundedFullySkippable(t *testing.T) {
	// a{2,4}: accepts aa, aaa, aaaa; rejects a, aaaaa (spec §8 scenario 6).
	// The language is checked on the DFA in package subset; here only the
	// single-exit invariant of the unrolled fragment is checked.
	body := &ast.Closure{
		KindOf:     ast.ClosureRepeat,
		Body:       &ast.Char{Literal: 'a'},
		Quantifier: &ast.ClosureRange{Lower: 2, Upper: 4},
	}
	f := synthesizeBody(t, body)
	assertSingleExitInvariant(t, f)
}

func TestRepeatUnboundedAppendsStar(t *testing.T) {
	body := &ast.Closure{
		KindOf:     ast.ClosureRepeat,
		Body:       &ast.Char{Literal: 'a'},
		Quantifier: &ast.ClosureRange{Lower: 2, Upper: -1},
	}
	f := synthesizeBody(t, body)
	assertSingleExitInvariant(t, f)
}

func TestNonGreedyClosureIsUnsupported(t *testing.T) {
	body := &ast.Closure{KindOf: ast.ClosureStarLazy, Body: &ast.Char{Literal: 'a'}}
	s := New("R", body, reporting.Nop{})
	_, err := s.Synthesize(body, 1)
	require.Error(t, err)
	e, ok := lexerr.As(err)
	require.True(t, ok)
	assert.Equal(t, lexerr.UnsupportedConstruct, e.Kind)
}

func TestSetNegationAgainstObservedAlphabet(t *testing.T) {
	// [^a-c] next to [a-c]: the observed alphabet is {a,b,c}, taken from the
	// non-negated class only, and the negated class is lowered against it.
	body := &ast.Concatenation{
		Left: &ast.Set{Ranges: []ast.Range{{Lower: 'a', Upper: 'c'}}},
		Right: &ast.Set{
			Negated: true,
			Ranges:  []ast.Range{{Lower: 'a', Upper: 'c'}},
		},
	}
	s := New("R", body, reporting.Nop{})
	require.True(t, s.Observed.Contains('a'))
	f, err := s.Synthesize(body, 1)
	require.NoError(t, err)
	assertSingleExitInvariant(t, f)
}

func TestRuleLevelPrefixing(t *testing.T) {
	stmt := &ast.RegexpStatement{Name: "ID", Regexp: &ast.Char{Literal: 'a'}, SourceLine: 3}
	fa, err := SynthesizeRule(stmt, reporting.Nop{})
	require.NoError(t, err)
	for _, n := range fa.Nodes() {
		assert.Equal(t, "ID", n.ID.Owner)
	}
}

func TestOrdinaryRuleIsNotReportedEmpty(t *testing.T) {
	// an alternation of nothing reachable: deliberately build a final with
	// no incoming path by pointing to a disconnected empty body is hard to
	// construct directly from the grammar, so we exercise the detector via
	// a rule whose body never reaches an accept: a Closure-free, isolated
	// fragment is not expressible from valid AST, so this test instead
	// checks that a normal rule is NOT flagged empty.
	stmt := &ast.RegexpStatement{Name: "X", Regexp: &ast.Char{Literal: 'z'}}
	_, err := SynthesizeRule(stmt, reporting.Nop{})
	require.NoError(t, err)
}
