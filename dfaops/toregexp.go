package dfaops

import (
	"strings"

	"lexforge/automaton"
)

// ToRegexp reconstructs a regular expression equivalent to d's language by
// state elimination (McNaughton-Yamada), grounded directly on the teacher's
// regexlib/toregexp.go and generalized from one rune-labeled edge per
// transition to charset.Set-labeled edges rendered via Set.Render.
func ToRegexp(d *automaton.FA) string {
	nodes := d.Nodes()
	if len(nodes) == 0 {
		return emptySet
	}

	index := make(map[automaton.NodeID]int, len(nodes))
	for i, n := range nodes {
		index[n.ID] = i
	}
	n := len(nodes)

	r := make([][]string, n)
	for i := range r {
		r[i] = make([]string, n)
	}
	for _, e := range d.Edges() {
		i, j := index[e.From], index[e.To]
		label := emptyString
		if !e.IsEpsilon() {
			label = e.Label.Render()
		}
		r[i][j] = orJoin(r[i][j], label)
	}

	start := index[d.Initial()]
	var finals []int
	for _, f := range d.Finals() {
		finals = append(finals, index[f.Node])
	}

	for k := 0; k < n; k++ {
		for i := 0; i < n; i++ {
			if i == k {
				continue
			}
			for j := 0; j < n; j++ {
				if j == k {
					continue
				}
				rik, rkk, rkj := r[i][k], r[k][k], r[k][j]
				if rik == "" || rkj == "" {
					continue
				}
				var middle string
				if rkk != "" {
					middle = "(" + rkk + ")*"
				}
				expr := alt(rik) + middle + alt(rkj)
				r[i][j] = orJoin(r[i][j], expr)
			}
		}
	}

	var parts []string
	for _, f := range finals {
		if part := r[start][f]; part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) == 0 {
		return emptySet
	}
	return strings.Join(parts, "|")
}

const (
	emptySet    = "∅"
	emptyString = ""
)

func orJoin(existing, next string) string {
	if existing == "" {
		return next
	}
	return existing + "|" + next
}

// alt wraps s in a non-capturing grouping when it already contains a
// top-level alternation, so concatenating it with a following term doesn't
// change its meaning.
func alt(s string) string {
	if strings.ContainsRune(s, '|') {
		return "(" + s + ")"
	}
	return s
}
