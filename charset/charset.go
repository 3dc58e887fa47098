// Package charset implements disjoint-interval set algebra over 32-bit code
// points: the edge-label alphabet the rest of the automaton pipeline is
// built on (spec §3.1-3.2, §4.1). Expanding a class like [a-zA-Z0-9] into
// one edge per symbol is rejected on purpose — a single "." over the full
// code-point range would explode any automaton with one edge per symbol.
package charset

import (
	"fmt"
	"sort"
	"strings"

	gods "github.com/emirpasic/gods/sets/treeset"
	"github.com/pkg/errors"

	"lexforge/lexerr"
)

// MaxCodePoint bounds the universal alphabet used to normalize negated
// classes against the *locally observed* alphabet (spec §9, decided: see
// DESIGN.md). It is only a fallback ceiling for a rule whose observed
// alphabet is empty.
const MaxCodePoint = 0x10FFFF

// Range is a closed interval [Min, Max] over code points. Min <= Max always.
type Range struct {
	Min, Max rune
}

// NewRange validates and returns a Range, or a MalformedRange error.
func NewRange(min, max rune) (Range, error) {
	if min > max || min < 0 {
		return Range{}, lexerr.New(lexerr.MalformedRange, "", 0,
			"range [%d,%d] has min>max or negative bound", min, max)
	}
	return Range{Min: min, Max: max}, nil
}

// Contains reports whether r is inside the range.
func (r Range) Contains(c rune) bool { return c >= r.Min && c <= r.Max }

// Overlaps reports whether the two ranges share at least one code point, or
// are adjacent (so they coalesce into a single run).
func (r Range) Overlaps(o Range) bool {
	return r.Min <= o.Max+1 && o.Min <= r.Max+1
}

func (r Range) String() string {
	if r.Min == r.Max {
		return runeLit(r.Min)
	}
	return fmt.Sprintf("%s-%s", runeLit(r.Min), runeLit(r.Max))
}

func runeLit(c rune) string {
	switch c {
	case '-', ']', '^', '\\':
		return "\\" + string(c)
	}
	if c < 0x20 || c > 0x10FFFF {
		return fmt.Sprintf("\\x%x", c)
	}
	return string(c)
}

// Set is a disjoint, sorted set of Ranges. The zero value is the empty set.
// Negated is cosmetic bookkeeping carried from the AST; ranges are always
// stored in positive (enumerated) form once a Set participates in any
// algebra (spec §3.2).
type Set struct {
	ranges  []Range
	Negated bool
}

// NewSet builds a Set from the given ranges, coalescing overlaps.
func NewSet(ranges ...Range) *Set {
	s := &Set{}
	for _, r := range ranges {
		s.Insert(r)
	}
	return s
}

// Single returns a Set containing exactly one code point.
func Single(c rune) *Set { return NewSet(Range{Min: c, Max: c}) }

// Ranges returns the disjoint, sorted ranges backing the set. Callers must
// not mutate the returned slice.
func (s *Set) Ranges() []Range {
	if s == nil {
		return nil
	}
	return s.ranges
}

// Empty reports whether the set has no ranges.
func (s *Set) Empty() bool { return s == nil || len(s.ranges) == 0 }

// Insert merges r into the set, coalescing adjacent/overlapping ranges.
// Idempotent.
func (s *Set) Insert(r Range) {
	if r.Min > r.Max {
		return
	}
	out := make([]Range, 0, len(s.ranges)+1)
	out = append(out, s.ranges...)
	out = append(out, r)
	sort.Slice(out, func(i, j int) bool { return out[i].Min < out[j].Min })
	s.ranges = coalesce(out)
}

func coalesce(ranges []Range) []Range {
	if len(ranges) == 0 {
		return ranges
	}
	out := make([]Range, 0, len(ranges))
	cur := ranges[0]
	for _, r := range ranges[1:] {
		if cur.Overlaps(r) {
			if r.Max > cur.Max {
				cur.Max = r.Max
			}
			if r.Min < cur.Min {
				cur.Min = r.Min
			}
			continue
		}
		out = append(out, cur)
		cur = r
	}
	out = append(out, cur)
	return out
}

// Contains reports whether c is a member of the set (logarithmic in the
// number of ranges).
func (s *Set) Contains(c rune) bool {
	if s == nil {
		return false
	}
	i := sort.Search(len(s.ranges), func(i int) bool { return s.ranges[i].Max >= c })
	return i < len(s.ranges) && s.ranges[i].Min <= c
}

// clone returns a deep copy.
func (s *Set) clone() *Set {
	if s == nil {
		return &Set{}
	}
	out := &Set{ranges: make([]Range, len(s.ranges)), Negated: s.Negated}
	copy(out.ranges, s.ranges)
	return out
}

// Union returns a new set containing every code point in s or o.
func (s *Set) Union(o *Set) *Set {
	out := s.clone()
	for _, r := range o.Ranges() {
		out.Insert(r)
	}
	return out
}

// Intersect returns a new set containing every code point in both s and o.
func (s *Set) Intersect(o *Set) *Set {
	out := &Set{}
	for _, a := range s.Ranges() {
		for _, b := range o.Ranges() {
			lo, hi := a.Min, a.Max
			if b.Min > lo {
				lo = b.Min
			}
			if b.Max < hi {
				hi = b.Max
			}
			if lo <= hi {
				out.Insert(Range{Min: lo, Max: hi})
			}
		}
	}
	return out
}

// Subtract returns a new set containing every code point in s but not o.
func (s *Set) Subtract(o *Set) *Set {
	out := &Set{}
	for _, a := range s.Ranges() {
		lo := a.Min
		for _, b := range o.Ranges() {
			if b.Max < lo || b.Min > a.Max {
				continue
			}
			if b.Min > lo {
				out.Insert(Range{Min: lo, Max: b.Min - 1})
			}
			if b.Max+1 > lo {
				lo = b.Max + 1
			}
		}
		if lo <= a.Max {
			out.Insert(Range{Min: lo, Max: a.Max})
		}
	}
	return out
}

// Negate normalizes a negated character class against the supplied
// universal alphabet (spec §9 open question, resolved in DESIGN.md: the
// *locally observed* alphabet rather than a Unicode-wide one). The result
// is always stored in positive form.
func (s *Set) Negate(universe *Set) *Set {
	if universe.Empty() {
		whole, _ := NewRange(0, MaxCodePoint)
		universe = NewSet(whole)
	}
	return universe.Subtract(s)
}

// Representative returns an arbitrary code point belonging to the set,
// used by subset construction and minimization to test minterm containment
// against an edge label (every minterm is, by construction, either fully
// inside or fully outside any given label, so any single member suffices).
func (s *Set) Representative() (rune, bool) {
	rs := s.Ranges()
	if len(rs) == 0 {
		return 0, false
	}
	return rs[0].Min, true
}

// Render produces the human-readable form used by spec §3.2:
// "[a-z0-9]" or "[^...]" when Negated is set cosmetically.
func (s *Set) Render() string {
	var b strings.Builder
	b.WriteByte('[')
	if s.Negated {
		b.WriteByte('^')
	}
	for _, r := range s.Ranges() {
		b.WriteString(r.String())
	}
	b.WriteByte(']')
	return b.String()
}

// Minterms partitions the union of s and every set in others into maximal
// ranges that are label-equivalent across all of them: each minterm is
// either fully contained in, or fully disjoint from, every input set. This
// is the finest alphabet over which subset-construction's delta function is
// total (spec §4.4 step 1). Implemented as an endpoint sweep over a sorted
// set of boundary points, using a gods treeset to keep the sweep ordered
// the way the rest of the pack's retrieved dependencies already support.
func Minterms(sets ...*Set) []*Set {
	boundaries := gods.NewWith(runeComparator)
	for _, s := range sets {
		for _, r := range s.Ranges() {
			boundaries.Add(r.Min, r.Max+1)
		}
	}
	if boundaries.Empty() {
		return nil
	}
	points := make([]rune, 0, boundaries.Size())
	for _, v := range boundaries.Values() {
		points = append(points, v.(rune))
	}
	sort.Slice(points, func(i, j int) bool { return points[i] < points[j] })

	var out []*Set
	for i := 0; i+1 < len(points); i++ {
		lo, hi := points[i], points[i+1]-1
		if lo > hi {
			continue
		}
		mid := lo
		member := false
		for _, s := range sets {
			if s.Contains(mid) {
				member = true
				break
			}
		}
		if !member {
			continue
		}
		out = append(out, NewSet(Range{Min: lo, Max: hi}))
	}
	return out
}

func runeComparator(a, b interface{}) int {
	x, y := a.(rune), b.(rune)
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}

// MustRange panics on a malformed range; only meant for tests and AST
// lowering where the caller already validated bounds.
func MustRange(min, max rune) Range {
	r, err := NewRange(min, max)
	if err != nil {
		panic(errors.Wrap(err, "charset.MustRange"))
	}
	return r
}
