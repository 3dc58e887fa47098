package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexforge/ast"
	"lexforge/automaton"
)

func run(dfa *automaton.FA, s string) (string, bool) {
	cur := dfa.Initial()
	for _, c := range s {
		found := false
		for _, e := range dfa.EdgesFrom(cur) {
			if e.Label != nil && e.Label.Contains(c) {
				cur = e.To
				found = true
				break
			}
		}
		if !found {
			return "", false
		}
	}
	tag, ok := dfa.IsFinal(cur)
	return tag, ok
}

func keywordAndIdentRules() *ast.LexerDescription {
	kw := &ast.RegexpStatement{Name: "KW", Regexp: &ast.Concatenation{
		Left: &ast.Char{Literal: 'i'}, Right: &ast.Char{Literal: 'f'},
	}}
	id := &ast.RegexpStatement{Name: "ID", Regexp: &ast.Closure{
		KindOf: ast.ClosurePlus,
		Body:   &ast.Set{Ranges: []ast.Range{{Lower: 'a', Upper: 'z'}}},
	}}
	return &ast.LexerDescription{Rules: []*ast.RegexpStatement{kw, id}}
}

func TestFlattenModeKeywordWinsTie(t *testing.T) {
	d := New(Options{}, nil)
	res, err := d.Compile(keywordAndIdentRules())
	require.NoError(t, err)

	tag, ok := run(res.DFA, "if")
	require.True(t, ok)
	assert.Equal(t, "KW", tag)

	tag, ok = run(res.DFA, "ifs")
	require.True(t, ok)
	assert.Equal(t, "ID", tag)

	assert.Equal(t, []string{"KW", "ID"}, res.RuleOrder)
}

func TestStructuredModeKeywordWinsTie(t *testing.T) {
	d := New(Options{Structured: true}, nil)
	res, err := d.Compile(keywordAndIdentRules())
	require.NoError(t, err)

	tag, ok := run(res.DFA, "if")
	require.True(t, ok)
	assert.Equal(t, "KW", tag)

	tag, ok = run(res.DFA, "ifs")
	require.True(t, ok)
	assert.Equal(t, "ID", tag)
}

func TestUnsupportedConstructIsSkippedNotFatal(t *testing.T) {
	good := &ast.RegexpStatement{Name: "OK", Regexp: &ast.Char{Literal: 'a'}}
	bad := &ast.RegexpStatement{Name: "BAD", Regexp: &ast.Closure{
		KindOf: ast.ClosureStarLazy, Body: &ast.Char{Literal: 'b'},
	}}
	desc := &ast.LexerDescription{Rules: []*ast.RegexpStatement{good, bad}}

	d := New(Options{}, nil)
	res, err := d.Compile(desc)
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "BAD", res.Warnings[0].Rule)
	assert.Equal(t, []string{"OK"}, res.RuleOrder)

	tag, ok := run(res.DFA, "a")
	require.True(t, ok)
	assert.Equal(t, "OK", tag)
}

func TestEmitStepsInvokesSink(t *testing.T) {
	var stages []string
	sink := sinkFunc(func(stage string, _ automaton.Snapshot, _ string) {
		stages = append(stages, stage)
	})
	d := New(Options{EmitSteps: true}, sink)
	_, err := d.Compile(keywordAndIdentRules())
	require.NoError(t, err)
	assert.Contains(t, stages, "subset")
	assert.Contains(t, stages, "hopcroft")
	assert.Contains(t, stages, "basic_char")
}

type sinkFunc func(stage string, snap automaton.Snapshot, key string)

func (f sinkFunc) OnStage(stage string, snap automaton.Snapshot, key string) { f(stage, snap, key) }
