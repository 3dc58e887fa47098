// Package automaton implements the shared finite-automaton graph (spec
// §3.3-3.4, §4.2): a directed multigraph whose edges carry either an
// epsilon marker or a charset.Set, with a single initial node and a set of
// rule-tagged final nodes.
package automaton

import (
	"fmt"

	"lexforge/charset"
	"lexforge/lexerr"
)

// Epsilon is the nil-Set sentinel label used for epsilon edges; a non-nil
// *charset.Set on an edge means "consume one code point from this set".
var Epsilon *charset.Set

// NodeID is a stable, structured node identity: the rule that owns it plus
// a per-FA-local sequence number. Spec §9's design note prefers this
// structured tuple over a formatted label string; String() renders the
// "prefix_<id>" form only when a sink actually asks for a label.
type NodeID struct {
	Owner string
	Local int
}

func (id NodeID) String() string {
	if id.Owner == "" {
		return fmt.Sprintf("n%d", id.Local)
	}
	return fmt.Sprintf("%s_%d", id.Owner, id.Local)
}

// Node carries provenance: the owning rule (if any), a source-line
// reference, and its structured identity.
type Node struct {
	ID   NodeID
	Line int
}

// Edge carries a transition label: nil Label means epsilon.
type Edge struct {
	From, To NodeID
	Label    *charset.Set
}

// IsEpsilon reports whether this edge is an epsilon transition.
func (e Edge) IsEpsilon() bool { return e.Label == nil }

// Final records that a node is accepting, tagged with the rule that owns
// it, so ambiguity between rules is resolvable at subset-construction time
// (spec §4.4 step 4, §3.3 tie-break).
type Final struct {
	Node    NodeID
	RuleTag string
}

// FA is a directed multigraph: a Thompson-constructed epsilon-NFA, a
// determinized DFA, or a minimized DFA, depending on stage. It owns its
// nodes and edges; Merge absorbs another FA's storage, after which the
// absorbed FA is moved-from and must not be used again (spec §3.4).
type FA struct {
	owner   string
	nodes   []*Node
	edges   []Edge
	initial NodeID
	finals  []Final
	alpha   *charset.Set

	counter int
	movedFrom bool
}

// New creates an empty FA scoped to the given owning rule name (used for
// provenance prefixing; pass "" for flatten-mode combined automata before
// a rule identity is assigned).
func New(owner string) *FA {
	return &FA{owner: owner, alpha: &charset.Set{}}
}

// CreateNode allocates a fresh node with a monotonically increasing local
// ID (spec §5 ordering guarantee: node identifiers within a single FA are
// monotonically increasing).
func (f *FA) CreateNode(line int) NodeID {
	f.assertNotMoved()
	id := NodeID{Owner: f.owner, Local: f.counter}
	f.counter++
	f.nodes = append(f.nodes, &Node{ID: id, Line: line})
	return id
}

// AddEdge adds a transition. label == nil means epsilon; otherwise it must
// be non-empty.
func (f *FA) AddEdge(from, to NodeID, label *charset.Set) {
	f.assertNotMoved()
	f.edges = append(f.edges, Edge{From: from, To: to, Label: label})
	if label != nil {
		f.alpha = f.alpha.Union(label)
	}
}

// SetInitial overwrites any prior initial node (spec §4.2: "set_initial
// overwrites any prior initial").
func (f *FA) SetInitial(id NodeID) {
	f.assertNotMoved()
	f.initial = id
}

// Initial returns the single initial node.
func (f *FA) Initial() NodeID { f.assertNotMoved(); return f.initial }

// AddFinal marks id as accepting under ruleTag. Additive and not
// deduplicated: AddFinal does not prevent a node from being recorded twice
// for the same tag, nor from carrying more than one owner in pathological
// combined automata
// (spec §9, second open question: implementation-defined, left to the
// caller to avoid).
func (f *FA) AddFinal(id NodeID, ruleTag string) {
	f.assertNotMoved()
	f.finals = append(f.finals, Final{Node: id, RuleTag: ruleTag})
}

// Finals returns the accepting nodes declared so far.
func (f *FA) Finals() []Final { f.assertNotMoved(); return f.finals }

// IsFinal reports whether id is any accepting node, and if so the rule tag
// of the first Final recorded for it (spec §4.4 step 4 tie-break happens one layer
// up, in subset construction, over a *set* of NFA nodes; this helper only
// answers for a single node).
func (f *FA) IsFinal(id NodeID) (string, bool) {
	for _, fin := range f.finals {
		if fin.Node == id {
			return fin.RuleTag, true
		}
	}
	return "", false
}

// Nodes returns all nodes, in creation order.
func (f *FA) Nodes() []*Node { f.assertNotMoved(); return f.nodes }

// Edges returns all edges.
func (f *FA) Edges() []Edge { f.assertNotMoved(); return f.edges }

// EdgesFrom returns the outgoing edges of id.
func (f *FA) EdgesFrom(id NodeID) []Edge {
	f.assertNotMoved()
	var out []Edge
	for _, e := range f.edges {
		if e.From == id {
			out = append(out, e)
		}
	}
	return out
}

// Alphabet returns the union of every non-epsilon edge label accumulated
// so far (spec §3.3: "An alphabet: the union of all CharRangeSets").
func (f *FA) Alphabet() *charset.Set { f.assertNotMoved(); return f.alpha }

// UpdateAlphabet recomputes the alphabet field from current edge labels
// (spec §4.2). Useful after bulk edits that bypassed AddEdge.
func (f *FA) UpdateAlphabet() {
	f.assertNotMoved()
	alpha := &charset.Set{}
	for _, e := range f.edges {
		if e.Label != nil {
			alpha = alpha.Union(e.Label)
		}
	}
	f.alpha = alpha
}

// MergeOptions controls Merge's relabeling behavior.
type MergeOptions struct {
	// PreserveLabels keeps the absorbed FA's original node owner/local
	// pair; otherwise nodes are rewritten under a fresh prefix (spec §4.2
	// merge option flag "preserve-labels").
	PreserveLabels bool
	// Prefix is the owner string used for rewritten nodes when
	// PreserveLabels is false. Defaults to the receiver's owner.
	Prefix string
}

// Merge absorbs other's nodes and edges into f, remapping node IDs so the
// result has unique identifiers, and returns the old->new ID mapping. With
// PreserveLabels set, IDs are kept as they are and no check is made, so
// the result's IDs are unique only if no absorbed ID is already in f.
// other is left moved-from and must not be used again (spec §3.4).
func (f *FA) Merge(other *FA, opts MergeOptions) map[NodeID]NodeID {
	f.assertNotMoved()
	other.assertNotMoved()

	prefix := opts.Prefix
	if prefix == "" {
		prefix = f.owner
	}

	remap := make(map[NodeID]NodeID, len(other.nodes))
	for _, n := range other.nodes {
		var newID NodeID
		if opts.PreserveLabels {
			newID = n.ID
		} else {
			newID = NodeID{Owner: prefix, Local: f.counter}
			f.counter++
		}
		remap[n.ID] = newID
		f.nodes = append(f.nodes, &Node{ID: newID, Line: n.Line})
	}
	for _, e := range other.edges {
		f.edges = append(f.edges, Edge{From: remap[e.From], To: remap[e.To], Label: e.Label})
	}
	for _, fin := range other.finals {
		f.finals = append(f.finals, Final{Node: remap[fin.Node], RuleTag: fin.RuleTag})
	}
	f.alpha = f.alpha.Union(other.alpha)

	other.movedFrom = true
	other.nodes = nil
	other.edges = nil
	return remap
}

// PrefixLabels rewrites every node's owner to prefix, used for provenance
// in reporting (spec §4.2). It does not change local sequence numbers, so
// relative ordering within the FA is preserved.
func (f *FA) PrefixLabels(prefix string) {
	f.assertNotMoved()
	f.owner = prefix
	for _, n := range f.nodes {
		n.ID.Owner = prefix
	}
	for i, e := range f.edges {
		e.From.Owner = prefix
		e.To.Owner = prefix
		f.edges[i] = e
	}
	for i, fin := range f.finals {
		fin.Node.Owner = prefix
		f.finals[i] = fin
	}
	f.initial.Owner = prefix
}

func (f *FA) assertNotMoved() {
	if f.movedFrom {
		panic(lexerr.New(lexerr.InternalInvariantViolation, f.owner, 0,
			"use of FA after it was moved-from by Merge"))
	}
}

// Validate checks the structural invariants spec §3.3 requires of an
// epsilon-NFA: any transition label is epsilon or non-empty, and exactly
// one initial node exists (the caller is expected to have called
// SetInitial at least once).
func (f *FA) Validate() error {
	f.assertNotMoved()
	if len(f.nodes) == 0 {
		return lexerr.New(lexerr.InternalInvariantViolation, f.owner, 0, "FA has no nodes")
	}
	found := false
	for _, n := range f.nodes {
		if n.ID == f.initial {
			found = true
			break
		}
	}
	if !found {
		return lexerr.New(lexerr.InternalInvariantViolation, f.owner, 0, "initial node %v not present", f.initial)
	}
	for _, e := range f.edges {
		if e.Label != nil && e.Label.Empty() {
			return lexerr.New(lexerr.InternalInvariantViolation, f.owner, 0, "edge %v->%v has empty non-epsilon label", e.From, e.To)
		}
	}
	return nil
}

// Snapshot is an immutable, deep-copied view of an FA suitable for handing
// to a reporting sink (spec §6.3: "the sink must not retain references
// past the call unless it deep-copies" — Snapshot already has).
type Snapshot struct {
	Nodes   []Node
	Edges   []Edge
	Initial NodeID
	Finals  []Final
	Alpha   *charset.Set
}

// Snap produces a Snapshot of the current FA state.
func (f *FA) Snap() Snapshot {
	f.assertNotMoved()
	nodes := make([]Node, len(f.nodes))
	for i, n := range f.nodes {
		nodes[i] = *n
	}
	edges := make([]Edge, len(f.edges))
	copy(edges, f.edges)
	finals := make([]Final, len(f.finals))
	copy(finals, f.finals)
	return Snapshot{
		Nodes:   nodes,
		Edges:   edges,
		Initial: f.initial,
		Finals:  finals,
		Alpha:   f.alpha,
	}
}
