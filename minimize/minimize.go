// Package minimize implements Hopcroft partition-refinement minimization
// (spec §4.5, component C5), grounded on the teacher's regexlib/minimize.go,
// generalized from a binary accept/non-accept initial split to one block
// per (accept?, rule-tag) so accept states owned by different rules are
// never merged, and from a per-rune alphabet to the DFA's minterm
// partition. The smaller-half worklist discipline and block-id tie-break
// are carried from the teacher unchanged.
package minimize

import (
	"sort"

	arraylist "github.com/emirpasic/gods/lists/arraylist"

	"lexforge/automaton"
	"lexforge/charset"
	"lexforge/reporting"
)

type block map[automaton.NodeID]struct{}

func minID(b block) automaton.NodeID {
	first := true
	var best automaton.NodeID
	for id := range b {
		if first || less(id, best) {
			best = id
			first = false
		}
	}
	return best
}

func less(a, b automaton.NodeID) bool {
	if a.Owner != b.Owner {
		return a.Owner < b.Owner
	}
	return a.Local < b.Local
}

// delta looks up the DFA's transition from `from` under minterm m.
func delta(dfa *automaton.FA, from automaton.NodeID, m *charset.Set) (automaton.NodeID, bool) {
	rep, ok := m.Representative()
	if !ok {
		return automaton.NodeID{}, false
	}
	for _, e := range dfa.EdgesFrom(from) {
		if e.Label != nil && e.Label.Contains(rep) {
			return e.To, true
		}
	}
	return automaton.NodeID{}, false
}

// Minimize partitions dfa's states into Hopcroft-equivalence classes,
// preserving rule-tag distinctions among accept states (spec §4.5
// correctness invariant), and returns the minimized DFA under the given
// owner prefix.
func Minimize(dfa *automaton.FA, owner string, sink reporting.Sink) *automaton.FA {
	if sink == nil {
		sink = reporting.Nop{}
	}
	states := dfa.Nodes()
	if len(states) == 0 {
		return dfa
	}
	var labels []*charset.Set
	for _, e := range dfa.Edges() {
		if !e.IsEpsilon() {
			labels = append(labels, e.Label)
		}
	}
	minterms := charset.Minterms(labels...)

	// --- 1. initial partition: (accept?, rule-tag) ----------------------
	nonAccept := block{}
	byTag := map[string]block{}
	var tagOrder []string
	for _, n := range states {
		if tag, ok := dfa.IsFinal(n.ID); ok {
			if _, exists := byTag[tag]; !exists {
				tagOrder = append(tagOrder, tag)
				byTag[tag] = block{}
			}
			byTag[tag][n.ID] = struct{}{}
		} else {
			nonAccept[n.ID] = struct{}{}
		}
	}
	var blocks []block
	if len(nonAccept) > 0 {
		blocks = append(blocks, nonAccept)
	}
	for _, tag := range tagOrder {
		blocks = append(blocks, byTag[tag])
	}

	work := arraylist.New()
	for i := range blocks {
		work.Add(i)
	}

	// --- 2. refinement ----------------------------------------------------
	for !work.Empty() {
		v, _ := work.Get(0)
		work.Remove(0)
		idx := v.(int)
		A := blocks[idx]

		for _, m := range minterms {
			X := block{}
			for _, s := range states {
				if to, ok := delta(dfa, s.ID, m); ok {
					if _, in := A[to]; in {
						X[s.ID] = struct{}{}
					}
				}
			}
			if len(X) == 0 {
				continue
			}

			for pIdx := 0; pIdx < len(blocks); pIdx++ {
				Y := blocks[pIdx]
				inter, diff := block{}, block{}
				for s := range Y {
					if _, in := X[s]; in {
						inter[s] = struct{}{}
					} else {
						diff[s] = struct{}{}
					}
				}
				if len(inter) == 0 || len(diff) == 0 {
					continue
				}
				blocks[pIdx] = inter
				blocks = append(blocks, diff)

				if len(inter) < len(diff) {
					work.Add(pIdx)
				} else {
					work.Add(len(blocks) - 1)
				}
			}
		}
	}

	// --- 3. build minimized DFA --------------------------------------------
	sort.Slice(blocks, func(i, j int) bool { return less(minID(blocks[i]), minID(blocks[j])) })

	stateBlock := map[automaton.NodeID]int{}
	for bi, b := range blocks {
		for id := range b {
			stateBlock[id] = bi
		}
	}

	result := automaton.New(owner)
	blockNode := make([]automaton.NodeID, len(blocks))
	for bi := range blocks {
		blockNode[bi] = result.CreateNode(0)
	}
	result.SetInitial(blockNode[stateBlock[dfa.Initial()]])

	for bi, b := range blocks {
		for id := range b {
			if tag, ok := dfa.IsFinal(id); ok {
				result.AddFinal(blockNode[bi], tag)
			}
			break
		}
	}

	for bi, b := range blocks {
		var rep automaton.NodeID
		for id := range b {
			rep = id
			break
		}
		for _, m := range minterms {
			if to, ok := delta(dfa, rep, m); ok {
				result.AddEdge(blockNode[bi], blockNode[stateBlock[to]], m)
			}
		}
	}

	sink.OnStage(reporting.StageHopcroft, result.Snap(), owner)
	return result
}
