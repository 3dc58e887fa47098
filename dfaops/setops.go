// Package dfaops implements set operations and the regexp round-trip on
// minimal DFAs (SPEC_FULL §12), supplementing spec.md with the teacher's
// regexlib/setops.go and regexlib/toregexp.go surface, generalized from
// single-rune edges to charset.Set edges over the minterm partition of the
// operands' alphabets.
package dfaops

import (
	"lexforge/automaton"
	"lexforge/charset"
)

// totalize returns a DFA equivalent to d but with an explicit sink state
// so every state has exactly one outgoing edge per minterm of d's edge
// labels, plus one edge to the sink for every code point outside d's
// alphabet (spec §4.4:
// "sink state materialization is optional" — set operations are exactly
// the place that optionality is exercised, since Complement and Product
// both need a genuinely total transition function to be correct).
func totalize(d *automaton.FA, owner string) (*automaton.FA, automaton.NodeID) {
	var labels []*charset.Set
	for _, e := range d.Edges() {
		if !e.IsEpsilon() {
			labels = append(labels, e.Label)
		}
	}
	minterms := charset.Minterms(labels...)
	rest := d.Alphabet().Negate(nil)
	out := automaton.New(owner)

	idMap := make(map[automaton.NodeID]automaton.NodeID, len(d.Nodes()))
	for _, n := range d.Nodes() {
		idMap[n.ID] = out.CreateNode(n.Line)
	}
	sink := out.CreateNode(0)

	out.SetInitial(idMap[d.Initial()])
	for _, f := range d.Finals() {
		out.AddFinal(idMap[f.Node], f.RuleTag)
	}

	for _, n := range d.Nodes() {
		from := idMap[n.ID]
		for _, m := range minterms {
			to := sink
			if target, ok := stepOn(d, n.ID, m); ok {
				to = idMap[target]
			}
			out.AddEdge(from, to, m)
		}
		if !rest.Empty() {
			out.AddEdge(from, sink, rest)
		}
	}
	for _, m := range minterms {
		out.AddEdge(sink, sink, m)
	}
	if !rest.Empty() {
		out.AddEdge(sink, sink, rest)
	}
	return out, sink
}

func stepOn(d *automaton.FA, from automaton.NodeID, m *charset.Set) (automaton.NodeID, bool) {
	rep, ok := m.Representative()
	if !ok {
		return automaton.NodeID{}, false
	}
	for _, e := range d.EdgesFrom(from) {
		if e.Label != nil && e.Label.Contains(rep) {
			return e.To, true
		}
	}
	return automaton.NodeID{}, false
}

// Complement returns a DFA accepting the complement language of d, which
// must be a total (or totalizable) DFA — any missing transition is treated
// as an implicit reject, per spec §4.4's sink-state note.
func Complement(d *automaton.FA, owner string) *automaton.FA {
	total, sink := totalize(d, owner+"_tot")
	var labels []*charset.Set
	for _, e := range total.Edges() {
		labels = append(labels, e.Label)
	}
	minterms := charset.Minterms(labels...)

	out := automaton.New(owner)
	idMap := make(map[automaton.NodeID]automaton.NodeID, len(total.Nodes()))
	for _, n := range total.Nodes() {
		idMap[n.ID] = out.CreateNode(n.Line)
	}
	out.SetInitial(idMap[total.Initial()])

	acceptingOriginal := map[automaton.NodeID]bool{}
	for _, f := range total.Finals() {
		acceptingOriginal[f.Node] = true
	}
	for _, n := range total.Nodes() {
		if !acceptingOriginal[n.ID] {
			out.AddFinal(idMap[n.ID], "complement")
		}
	}
	_ = sink

	for _, n := range total.Nodes() {
		for _, m := range minterms {
			if to, ok := stepOn(total, n.ID, m); ok {
				out.AddEdge(idMap[n.ID], idMap[to], m)
			}
		}
	}
	return out
}

// combineOp is the acceptance rule for Product: given whether the current
// state in A and B are accepting, decide whether the product state
// accepts.
type combineOp func(acceptA, acceptB bool) bool

// Product runs the classical product construction over the minterm
// partition of the union of a's and b's alphabets (teacher's
// regexlib/setops.go Product, generalized from single runes to ranges).
func Product(a, b *automaton.FA, owner string, op combineOp) *automaton.FA {
	totalA, _ := totalize(a, owner+"_a")
	totalB, _ := totalize(b, owner+"_b")
	var labels []*charset.Set
	for _, e := range totalA.Edges() {
		labels = append(labels, e.Label)
	}
	for _, e := range totalB.Edges() {
		labels = append(labels, e.Label)
	}
	minterms := charset.Minterms(labels...)

	type pair struct{ a, b automaton.NodeID }
	out := automaton.New(owner)
	seen := map[pair]automaton.NodeID{}

	acceptA := map[automaton.NodeID]string{}
	for _, f := range totalA.Finals() {
		acceptA[f.Node] = f.RuleTag
	}
	acceptB := map[automaton.NodeID]string{}
	for _, f := range totalB.Finals() {
		acceptB[f.Node] = f.RuleTag
	}

	tagFor := func(pa, pb automaton.NodeID) (string, bool) {
		tagA, okA := acceptA[pa]
		tagB, okB := acceptB[pb]
		if !op(okA, okB) {
			return "", false
		}
		if okA {
			return tagA, true
		}
		return tagB, true
	}

	start := pair{totalA.Initial(), totalB.Initial()}
	startID := out.CreateNode(0)
	out.SetInitial(startID)
	seen[start] = startID
	if tag, ok := tagFor(start.a, start.b); ok {
		out.AddFinal(startID, tag)
	}

	queue := []pair{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		curID := seen[cur]

		for _, m := range minterms {
			ta, okA := stepOn(totalA, cur.a, m)
			tb, okB := stepOn(totalB, cur.b, m)
			if !okA || !okB {
				continue
			}
			np := pair{ta, tb}
			nid, exists := seen[np]
			if !exists {
				nid = out.CreateNode(0)
				seen[np] = nid
				if tag, ok := tagFor(ta, tb); ok {
					out.AddFinal(nid, tag)
				}
				queue = append(queue, np)
			}
			out.AddEdge(curID, nid, m)
		}
	}
	return out
}

// Union returns a DFA accepting L(a) union L(b).
func Union(a, b *automaton.FA, owner string) *automaton.FA {
	return Product(a, b, owner, func(x, y bool) bool { return x || y })
}

// Intersect returns a DFA accepting L(a) intersect L(b).
func Intersect(a, b *automaton.FA, owner string) *automaton.FA {
	return Product(a, b, owner, func(x, y bool) bool { return x && y })
}

// ReverseNFA builds an NFA accepting the reverse of every string d accepts,
// by reversing transitions into a fresh start node with epsilon edges to
// every original accept state, then leaves determinization to the caller
// (subset.Construct) — mirroring the teacher's regexlib/setops.go
// ReverseDFA, which calls back into its own nfaToDFA.
func ReverseNFA(d *automaton.FA, owner string) *automaton.FA {
	out := automaton.New(owner)
	idMap := make(map[automaton.NodeID]automaton.NodeID, len(d.Nodes()))
	for _, n := range d.Nodes() {
		idMap[n.ID] = out.CreateNode(n.Line)
	}
	start := out.CreateNode(0)
	out.SetInitial(start)

	for _, f := range d.Finals() {
		out.AddEdge(start, idMap[f.Node], nil)
	}
	for _, e := range d.Edges() {
		out.AddEdge(idMap[e.To], idMap[e.From], e.Label)
	}
	out.AddFinal(idMap[d.Initial()], "reverse")
	return out
}
