// Package thompson implements the Thompson synthesizer (spec §4.3,
// component C3): a bottom-up traversal of the regex AST that builds a
// single-exit NFA fragment per construct and composes fragments via
// epsilon welds, grounded on the teacher's regexlib/nfa.go buildNFA
// switch, generalized from single-rune edges to charset.Set edges and
// corrected where the teacher's {m,n} unrolling double-chains outputs
// (see DESIGN.md).
package thompson

import (
	"lexforge/ast"
	"lexforge/automaton"
	"lexforge/charset"
	"lexforge/lexerr"
	"lexforge/reporting"
)

// Frag is a single-exit NFA fragment: exactly one initial node and exactly
// one final node, with no incoming edge to Init and no outgoing edge from
// Final (spec §4.3 "Invariants after synthesis").
type Frag struct {
	FA    *automaton.FA
	Init  automaton.NodeID
	Final automaton.NodeID
}

// ObservedAlphabet walks an AST and collects every literal code point and
// non-negated character-class range it finds. Negated classes are
// normalized against this locally observed alphabet rather than a
// Unicode-wide one (spec §9 open question, decided — see DESIGN.md).
func ObservedAlphabet(root ast.Node) *charset.Set {
	out := &charset.Set{}
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		if n == nil {
			return
		}
		switch v := n.(type) {
		case *ast.Char:
			out.Insert(charset.Range{Min: v.Literal, Max: v.Literal})
		case *ast.Set:
			if v.Negated {
				return
			}
			for _, r := range v.Ranges {
				out.Insert(charset.Range{Min: r.Lower, Max: r.Upper})
			}
		case *ast.Alternation:
			walk(v.Left)
			walk(v.Right)
		case *ast.Concatenation:
			walk(v.Left)
			walk(v.Right)
		case *ast.Closure:
			walk(v.Body)
		case *ast.Paren:
			walk(v.Body)
		}
	}
	walk(root)
	return out
}

// Synthesizer holds the state threaded through one rule's synthesis: the
// owning rule name (for node provenance), the locally observed alphabet
// for negation lowering, and the reporting sink.
type Synthesizer struct {
	Rule     string
	Observed *charset.Set
	Sink     reporting.Sink
}

// New returns a Synthesizer for the given rule, computing the observed
// alphabet from body up front.
func New(rule string, body ast.Node, sink reporting.Sink) *Synthesizer {
	if sink == nil {
		sink = reporting.Nop{}
	}
	return &Synthesizer{Rule: rule, Observed: ObservedAlphabet(body), Sink: sink}
}

// Synthesize builds the NFA fragment for node. It marks no node as
// accepting; SynthesizeRule stamps the top-level fragment's final node
// under the rule tag.
func (s *Synthesizer) Synthesize(node ast.Node, line int) (Frag, error) {
	switch n := node.(type) {
	case *ast.Char:
		return s.charFrag(n, line), nil
	case *ast.Set:
		return s.setFrag(n, line)
	case *ast.Paren:
		return s.Synthesize(n.Body, line)
	case *ast.Concatenation:
		return s.concatNode(n, line)
	case *ast.Alternation:
		return s.altNode(n, line)
	case *ast.Closure:
		return s.closureNode(n, line)
	case nil:
		return s.emptyFrag(line), nil
	default:
		return Frag{}, lexerr.New(lexerr.InternalInvariantViolation, s.Rule, line,
			"unknown AST node type %T", node)
	}
}

func (s *Synthesizer) emit(stage string, f Frag) {
	s.Sink.OnStage(stage, f.FA.Snap(), s.Rule)
}

func (s *Synthesizer) emptyFrag(line int) Frag {
	fa := automaton.New(s.Rule)
	n := fa.CreateNode(line)
	fa.SetInitial(n)
	return Frag{FA: fa, Init: n, Final: n}
}

func (s *Synthesizer) charFrag(n *ast.Char, line int) Frag {
	fa := automaton.New(s.Rule)
	a := fa.CreateNode(line)
	b := fa.CreateNode(line)
	fa.SetInitial(a)
	fa.AddEdge(a, b, charset.Single(n.Literal))
	f := Frag{FA: fa, Init: a, Final: b}
	s.emit(reporting.StageBasicChar, f)
	return f
}

func (s *Synthesizer) setFrag(n *ast.Set, line int) (Frag, error) {
	raw := &charset.Set{}
	hasRange := false
	for _, r := range n.Ranges {
		if r.Lower > r.Upper {
			return Frag{}, lexerr.New(lexerr.MalformedRange, s.Rule, line,
				"set range [%d,%d] has lower>upper", r.Lower, r.Upper)
		}
		if r.Lower != r.Upper {
			hasRange = true
		}
		raw.Insert(charset.Range{Min: r.Lower, Max: r.Upper})
	}
	set := raw
	if n.Negated {
		set = raw.Negate(s.Observed)
	}
	fa := automaton.New(s.Rule)
	a := fa.CreateNode(line)
	b := fa.CreateNode(line)
	fa.SetInitial(a)
	fa.AddEdge(a, b, set)
	f := Frag{FA: fa, Init: a, Final: b}
	if hasRange {
		s.emit(reporting.StageRange, f)
	} else {
		s.emit(reporting.StageBasicSet, f)
	}
	return f, nil
}

// concatFrag welds a.Final to b.Init with an epsilon edge and absorbs b's
// FA into a's, returning the combined fragment (spec §4.3 Concat
// template). b is consumed; callers must not reuse it.
func concatFrag(a, b Frag) Frag {
	remap := a.FA.Merge(b.FA, automaton.MergeOptions{})
	a.FA.AddEdge(a.Final, remap[b.Init], nil)
	return Frag{FA: a.FA, Init: a.Init, Final: remap[b.Final]}
}

func (s *Synthesizer) concatNode(n *ast.Concatenation, line int) (Frag, error) {
	left, err := s.Synthesize(n.Left, line)
	if err != nil {
		return Frag{}, err
	}
	right, err := s.Synthesize(n.Right, line)
	if err != nil {
		return Frag{}, err
	}
	f := concatFrag(left, right)
	s.emit(reporting.StageConcat, f)
	return f, nil
}

// altFrag builds a fresh init/final pair and epsilon-welds both operands
// in parallel (spec §4.3 Alt template).
func altFrag(owner string, a, b Frag, line int) Frag {
	fa := automaton.New(owner)
	init := fa.CreateNode(line)
	final := fa.CreateNode(line)
	fa.SetInitial(init)
	remapA := fa.Merge(a.FA, automaton.MergeOptions{})
	remapB := fa.Merge(b.FA, automaton.MergeOptions{})
	fa.AddEdge(init, remapA[a.Init], nil)
	fa.AddEdge(init, remapB[b.Init], nil)
	fa.AddEdge(remapA[a.Final], final, nil)
	fa.AddEdge(remapB[b.Final], final, nil)
	return Frag{FA: fa, Init: init, Final: final}
}

func (s *Synthesizer) altNode(n *ast.Alternation, line int) (Frag, error) {
	left, err := s.Synthesize(n.Left, line)
	if err != nil {
		return Frag{}, err
	}
	right, err := s.Synthesize(n.Right, line)
	if err != nil {
		return Frag{}, err
	}
	f := altFrag(s.Rule, left, right, line)
	s.emit(reporting.StageAlt, f)
	return f, nil
}

// starFrag: fresh init/final; epsilon init->body.Init, init->final,
// body.Final->body.Init, body.Final->final (spec §4.3 Closure-none-or-more).
func starFrag(owner string, body Frag, line int) Frag {
	fa := automaton.New(owner)
	init := fa.CreateNode(line)
	final := fa.CreateNode(line)
	fa.SetInitial(init)
	remap := fa.Merge(body.FA, automaton.MergeOptions{})
	bi, bf := remap[body.Init], remap[body.Final]
	fa.AddEdge(init, bi, nil)
	fa.AddEdge(init, final, nil)
	fa.AddEdge(bf, bi, nil)
	fa.AddEdge(bf, final, nil)
	return Frag{FA: fa, Init: init, Final: final}
}

// plusFrag: same as star but without the init->final shortcut (spec §4.3
// Closure-one-or-more) — the body must be traversed at least once.
func plusFrag(owner string, body Frag, line int) Frag {
	fa := automaton.New(owner)
	init := fa.CreateNode(line)
	final := fa.CreateNode(line)
	fa.SetInitial(init)
	remap := fa.Merge(body.FA, automaton.MergeOptions{})
	bi, bf := remap[body.Init], remap[body.Final]
	fa.AddEdge(init, bi, nil)
	fa.AddEdge(bf, bi, nil)
	fa.AddEdge(bf, final, nil)
	return Frag{FA: fa, Init: init, Final: final}
}

// qmarkFrag: fresh init/final; epsilon init->body.Init, init->final,
// body.Final->final (spec §4.3 Closure-one-or-none).
func qmarkFrag(owner string, body Frag, line int) Frag {
	fa := automaton.New(owner)
	init := fa.CreateNode(line)
	final := fa.CreateNode(line)
	fa.SetInitial(init)
	remap := fa.Merge(body.FA, automaton.MergeOptions{})
	bi, bf := remap[body.Init], remap[body.Final]
	fa.AddEdge(init, bi, nil)
	fa.AddEdge(init, final, nil)
	fa.AddEdge(bf, final, nil)
	return Frag{FA: fa, Init: init, Final: final}
}

func (s *Synthesizer) closureNode(n *ast.Closure, line int) (Frag, error) {
	switch n.KindOf {
	case ast.ClosureStar:
		body, err := s.Synthesize(n.Body, line)
		if err != nil {
			return Frag{}, err
		}
		f := starFrag(s.Rule, body, line)
		s.emit(reporting.StageClosure, f)
		return f, nil
	case ast.ClosurePlus:
		body, err := s.Synthesize(n.Body, line)
		if err != nil {
			return Frag{}, err
		}
		f := plusFrag(s.Rule, body, line)
		s.emit(reporting.StageClosure, f)
		return f, nil
	case ast.ClosureOptional:
		body, err := s.Synthesize(n.Body, line)
		if err != nil {
			return Frag{}, err
		}
		f := qmarkFrag(s.Rule, body, line)
		s.emit(reporting.StageClosure, f)
		return f, nil
	case ast.ClosureRepeat:
		f, err := s.repeatFrag(n, line)
		if err != nil {
			return Frag{}, err
		}
		s.emit(reporting.StageClosure, f)
		return f, nil
	case ast.ClosureStarLazy, ast.ClosurePlusLazy:
		return Frag{}, lexerr.New(lexerr.UnsupportedConstruct, s.Rule, line,
			"non-greedy closures are recognized but not compiled")
	default:
		return Frag{}, lexerr.New(lexerr.InternalInvariantViolation, s.Rule, line,
			"unknown closure kind %v", n.KindOf)
	}
}

// repeatFrag unrolls a bounded {m,n} closure (spec §4.3 "Finite" template):
// m required copies concatenated, followed by (n-m) optional copies, or a
// trailing unbounded star when n = infinity. Unlike the teacher's
// nfa.go nRepeat case — which re-chains frag.outs on every optional copy
// and leaves earlier copies un-skippable once a later one is built — each
// optional copy here is nested inside the previous one's "?" so every
// suffix remains independently skippable (see DESIGN.md).
func (s *Synthesizer) repeatFrag(n *ast.Closure, line int) (Frag, error) {
	q := n.Quantifier
	if q == nil {
		return Frag{}, lexerr.New(lexerr.InternalInvariantViolation, s.Rule, line, "repeat closure missing quantifier")
	}
	if q.Upper != -1 && q.Upper < q.Lower {
		return Frag{}, lexerr.New(lexerr.MalformedRange, s.Rule, line,
			"repeat bound {%d,%d} has upper<lower", q.Lower, q.Upper)
	}

	var required *Frag
	for i := 0; i < q.Lower; i++ {
		piece, err := s.Synthesize(n.Body, line)
		if err != nil {
			return Frag{}, err
		}
		if required == nil {
			required = &piece
		} else {
			combined := concatFrag(*required, piece)
			required = &combined
		}
	}

	if q.Upper == -1 {
		piece, err := s.Synthesize(n.Body, line)
		if err != nil {
			return Frag{}, err
		}
		star := starFrag(s.Rule, piece, line)
		if required == nil {
			return star, nil
		}
		return concatFrag(*required, star), nil
	}

	optionalCount := q.Upper - q.Lower
	if optionalCount == 0 {
		if required == nil {
			return s.emptyFrag(line), nil
		}
		return *required, nil
	}

	var tail *Frag
	for i := 0; i < optionalCount; i++ {
		piece, err := s.Synthesize(n.Body, line)
		if err != nil {
			return Frag{}, err
		}
		var seg Frag
		if tail == nil {
			seg = piece
		} else {
			seg = concatFrag(piece, *tail)
		}
		opt := qmarkFrag(s.Rule, seg, line)
		tail = &opt
	}
	if required == nil {
		return *tail, nil
	}
	return concatFrag(*required, *tail), nil
}

// SynthesizeRule builds the complete NFA for one rule statement: it
// synthesizes the body, stamps the final node as accepting under the
// rule's name, and prefixes every node's provenance with that name (spec
// §4.3 "Rule-level prefixing").
func SynthesizeRule(stmt *ast.RegexpStatement, sink reporting.Sink) (*automaton.FA, error) {
	s := New(stmt.Name, stmt.Regexp, sink)
	frag, err := s.Synthesize(stmt.Regexp, stmt.SourceLine)
	if err != nil {
		return nil, lexerr.Wrap(err, errKind(err), stmt.Name, stmt.SourceLine, "synthesizing rule "+stmt.Name)
	}
	frag.FA.AddFinal(frag.Final, stmt.Name)
	frag.FA.PrefixLabels(stmt.Name)
	if err := frag.FA.Validate(); err != nil {
		return nil, err
	}
	if isEmptyLanguage(frag.FA) {
		return frag.FA, lexerr.New(lexerr.EmptyLanguage, stmt.Name, stmt.SourceLine,
			"rule %s compiles to an automaton with no path to any final state", stmt.Name)
	}
	return frag.FA, nil
}

func errKind(err error) lexerr.Kind {
	if e, ok := lexerr.As(err); ok {
		return e.Kind
	}
	return lexerr.InternalInvariantViolation
}

// isEmptyLanguage reports whether no final node is reachable from the
// initial node at all (spec §7 EmptyLanguage — a warning, not fatal).
func isEmptyLanguage(fa *automaton.FA) bool {
	visited := map[automaton.NodeID]bool{}
	stack := []automaton.NodeID{fa.Initial()}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[cur] {
			continue
		}
		visited[cur] = true
		if _, ok := fa.IsFinal(cur); ok {
			return false
		}
		for _, e := range fa.EdgesFrom(cur) {
			if !visited[e.To] {
				stack = append(stack, e.To)
			}
		}
	}
	return true
}
