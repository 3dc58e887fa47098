// Package subset implements subset construction (spec §4.4, component
// C4): determinizing an epsilon-NFA into a DFA over the minterm partition
// of its non-epsilon edge labels. Grounded on the teacher's
// regexlib/dfa.go (epsilonClosure, moveNFA, nfaToDFAcore), generalized
// from a small explicit rune alphabet to charset.Set minterms, and from
// sort.Ints+fmt.Sprint subset keys to a structhash digest (see DESIGN.md).
package subset

import (
	"sort"

	"github.com/cnf/structhash"
	arraylist "github.com/emirpasic/gods/lists/arraylist"

	"lexforge/automaton"
	"lexforge/charset"
	"lexforge/reporting"
)

// nodeSet is an unordered set of NFA node IDs, represented as a sorted
// slice once frozen for hashing/iteration.
type nodeSet map[automaton.NodeID]struct{}

func (s nodeSet) sorted() []automaton.NodeID {
	out := make([]automaton.NodeID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Owner != out[j].Owner {
			return out[i].Owner < out[j].Owner
		}
		return out[i].Local < out[j].Local
	})
	return out
}

// stateKey hashes a frozen (sorted) node-id slice to a dedup key for the
// subset-construction worklist, replacing the teacher's
// sort.Ints+fmt.Sprint approach with structhash, a dependency already
// present in the retrieved pack (gorgo's go.mod).
func stateKey(ids []automaton.NodeID) string {
	h, err := structhash.Hash(ids, 1)
	if err != nil {
		// structhash only fails on unhashable types; ids is a plain
		// struct slice, so this is unreachable in practice.
		panic(err)
	}
	return h
}

// epsilonClosure returns the least fixed point containing seed and closed
// under epsilon-edges (spec §4.4 step 2).
func epsilonClosure(nfa *automaton.FA, seed nodeSet) nodeSet {
	out := make(nodeSet, len(seed))
	stack := arraylist.New()
	for id := range seed {
		out[id] = struct{}{}
		stack.Add(id)
	}
	for !stack.Empty() {
		v, _ := stack.Get(stack.Size() - 1)
		stack.Remove(stack.Size() - 1)
		cur := v.(automaton.NodeID)
		for _, e := range nfa.EdgesFrom(cur) {
			if !e.IsEpsilon() {
				continue
			}
			if _, ok := out[e.To]; !ok {
				out[e.To] = struct{}{}
				stack.Add(e.To)
			}
		}
	}
	return out
}

// move computes {t | exists s in Q, edge s->t with label L, m subset L}
// (spec §4.4 step 3).
func move(nfa *automaton.FA, q nodeSet, minterm *charset.Set) nodeSet {
	rep, ok := minterm.Representative()
	if !ok {
		return nodeSet{}
	}
	out := nodeSet{}
	for id := range q {
		for _, e := range nfa.EdgesFrom(id) {
			if e.IsEpsilon() {
				continue
			}
			if e.Label.Contains(rep) {
				out[e.To] = struct{}{}
			}
		}
	}
	return out
}

// RulePriority maps a rule tag to its declaration order (lower wins ties).
// A nil map means "no declared order" — acceptable only when the caller
// knows at most one rule tag can appear in any reachable DFA state.
type RulePriority map[string]int

// dfaState is the worklist item: the NFA node-set and the DFA node it maps
// to, plus whatever rule tag it inherits.
type dfaState struct {
	id     automaton.NodeID
	nfaSet nodeSet
}

// Construct runs subset construction over nfa, producing a DFA (still
// represented as an *automaton.FA, now satisfying the "no epsilon edges,
// at most one outgoing edge per minterm" invariants of spec §3.3).
// DFA state enumeration follows worklist FIFO order (spec §5 ordering
// guarantee), and owner is used as the new FA's node-ID prefix.
func Construct(nfa *automaton.FA, owner string, priority RulePriority, sink reporting.Sink) *automaton.FA {
	if sink == nil {
		sink = reporting.Nop{}
	}
	var labels []*charset.Set
	for _, e := range nfa.Edges() {
		if !e.IsEpsilon() {
			labels = append(labels, e.Label)
		}
	}
	minterms := charset.Minterms(labels...)

	dfa := automaton.New(owner)
	seen := map[string]automaton.NodeID{}

	initSet := epsilonClosure(nfa, nodeSet{nfa.Initial(): {}})
	initKey := stateKey(initSet.sorted())
	initID := dfa.CreateNode(0)
	dfa.SetInitial(initID)
	seen[initKey] = initID
	stampFinal(dfa, initID, nfa, initSet, priority)

	queue := arraylist.New()
	queue.Add(dfaState{id: initID, nfaSet: initSet})

	for !queue.Empty() {
		v, _ := queue.Get(0)
		queue.Remove(0)
		cur := v.(dfaState)

		for _, m := range minterms {
			moved := move(nfa, cur.nfaSet, m)
			if len(moved) == 0 {
				continue
			}
			closure := epsilonClosure(nfa, moved)
			key := stateKey(closure.sorted())
			to, ok := seen[key]
			if !ok {
				to = dfa.CreateNode(0)
				seen[key] = to
				stampFinal(dfa, to, nfa, closure, priority)
				queue.Add(dfaState{id: to, nfaSet: closure})
			}
			dfa.AddEdge(cur.id, to, m)
		}
	}

	sink.OnStage(reporting.StageSubset, dfa.Snap(), owner)
	return dfa
}

// stampFinal marks dfaID accepting when any NFA node in set is final,
// tagged with the rule owning the lowest-declared-order such node (spec
// §4.4 step 4: "rule tag is the owning rule of the lowest-numbered such
// final node, tie-break: rule declaration order").
func stampFinal(dfa *automaton.FA, dfaID automaton.NodeID, nfa *automaton.FA, set nodeSet, priority RulePriority) {
	best := ""
	bestRank := int(^uint(0) >> 1)
	found := false
	for id := range set {
		tag, ok := nfa.IsFinal(id)
		if !ok {
			continue
		}
		rank := 0
		if priority != nil {
			if r, ok := priority[tag]; ok {
				rank = r
			}
		}
		if !found || rank < bestRank {
			found = true
			bestRank = rank
			best = tag
		}
	}
	if found {
		dfa.AddFinal(dfaID, best)
	}
}
