// Package ast defines the external AST contract the automaton core
// consumes (spec §6.1). The lexer-description parser and AST builder that
// produce these trees are an out-of-scope collaborator; this package only
// names the shapes the core traverses.
package ast

// Kind discriminates the AST node variants spec §6.1 lists.
type Kind int

const (
	KindLexerDescription Kind = iota
	KindRegexpStatement
	KindAlternation
	KindConcatenation
	KindClosure
	KindParen
	KindSet
	KindChar
)

// Node is the structural-recursion contract every AST node satisfies: a
// kind discriminator plus, for leaves, access to their literal payload.
// Spec §9 replaces open-class visitor dispatch with a tagged sum over AST
// kinds; Node is that tag, and the synthesizer type-switches on Kind()
// rather than double-dispatching through a visitor interface.
type Node interface {
	Kind() Kind
}

// ClosureKind enumerates the closure/repetition operators the AST
// recognizes. NonGreedy variants are recognized but never compiled (spec
// §4.3 "Non-greedy variants"); compiling one raises UnsupportedConstruct.
type ClosureKind int

const (
	ClosureStar       ClosureKind = iota // *
	ClosurePlus                         // +
	ClosureOptional                     // ?
	ClosureRepeat                       // {m,n}
	ClosureStarLazy                     // *?  (reserved, unimplemented)
	ClosurePlusLazy                     // +?  (reserved, unimplemented)
)

// LexerDescription is the root of the tree: an ordered sequence of named
// regex rules.
type LexerDescription struct {
	Rules []*RegexpStatement
}

func (*LexerDescription) Kind() Kind { return KindLexerDescription }

// RegexpStatement binds a rule name to a regex AST and the action code the
// scanner runtime would run on a match (action code is opaque to the
// core — it is only carried through for provenance/reporting).
type RegexpStatement struct {
	Name       string
	Regexp     Node
	ActionCode string
	SourceLine int
}

func (*RegexpStatement) Kind() Kind { return KindRegexpStatement }

// Alternation is `left | right`.
type Alternation struct {
	Left, Right Node
}

func (*Alternation) Kind() Kind { return KindAlternation }

// Concatenation is `left right`.
type Concatenation struct {
	Left, Right Node
}

func (*Concatenation) Kind() Kind { return KindConcatenation }

// ClosureRange is the {m,n} bound on a Closure node of kind ClosureRepeat.
// Upper == -1 denotes n = infinity.
type ClosureRange struct {
	Lower int
	Upper int // -1 means infinity
}

// Closure is one of `body*`, `body+`, `body?`, `body{m,n}`, or a reserved
// non-greedy variant.
type Closure struct {
	KindOf     ClosureKind
	Body       Node
	Quantifier *ClosureRange // only set when KindOf == ClosureRepeat
}

func (*Closure) Kind() Kind { return KindClosure }

// Paren is `(body)` — grouping with no semantic effect on the language.
type Paren struct {
	Body Node
}

func (*Paren) Kind() Kind { return KindParen }

// Range is an inclusive code-point interval used inside a Set.
type Range struct {
	Lower, Upper rune
}

// Set is a character class `[...]`, optionally negated. Ranges holds both
// single characters (Lower == Upper) and true ranges.
type Set struct {
	Negated bool
	Ranges  []Range
}

func (*Set) Kind() Kind { return KindSet }

// Char is a single literal code point.
type Char struct {
	Literal rune
}

func (*Char) Kind() Kind { return KindChar }
