// Package lexerr defines the error kinds the automaton core can raise
// (spec §7) and wraps them with contextual stack traces via pkg/errors.
package lexerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind identifies one of the four error categories the core produces.
type Kind int

const (
	// UnsupportedConstruct marks an AST node the synthesizer recognizes
	// but deliberately does not compile (non-greedy closures; the AST has
	// no node for lookaround assertions).
	UnsupportedConstruct Kind = iota
	// MalformedRange marks a CharRange with lower > upper.
	MalformedRange
	// EmptyLanguage marks a rule whose FA has no path to any final node.
	// Non-fatal; the driver reports it as a warning and skips the rule.
	EmptyLanguage
	// InternalInvariantViolation marks a failed invariant from spec §3.
	// Always fatal.
	InternalInvariantViolation
)

func (k Kind) String() string {
	switch k {
	case UnsupportedConstruct:
		return "unsupported-construct"
	case MalformedRange:
		return "malformed-range"
	case EmptyLanguage:
		return "empty-language"
	case InternalInvariantViolation:
		return "internal-invariant-violation"
	default:
		return "unknown"
	}
}

// Fatal reports whether errors of this kind should abort the whole
// pipeline run rather than being skipped for a single rule.
func (k Kind) Fatal() bool {
	return k == InternalInvariantViolation
}

// Error is the concrete error type the core raises. It carries the rule
// name and a source-line reference so a driver can report usefully without
// the core doing any I/O itself.
type Error struct {
	Kind     Kind
	Rule     string
	Line     int
	cause    error
	message  string
}

func (e *Error) Error() string {
	loc := e.Rule
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", e.Rule, e.Line)
	}
	if loc == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Kind, e.message, loc)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a *Error of the given kind, wrapped with a stack trace.
func New(kind Kind, rule string, line int, format string, args ...interface{}) error {
	e := &Error{
		Kind:    kind,
		Rule:    rule,
		Line:    line,
		message: fmt.Sprintf(format, args...),
	}
	e.cause = errors.New(e.Error())
	return errors.WithStack(e)
}

// Wrap attaches kind/rule/line context to an existing error.
func Wrap(err error, kind Kind, rule string, line int, msg string) error {
	if err == nil {
		return nil
	}
	e := &Error{Kind: kind, Rule: rule, Line: line, cause: err, message: msg}
	return errors.WithStack(e)
}

// As reports whether err (or something it wraps) is a *Error, and returns
// it. Mirrors the standard errors.As contract without requiring callers to
// import both packages.
func As(err error) (*Error, bool) {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}

// IsFatal reports whether err represents a fatal condition (an
// InternalInvariantViolation, or any error that isn't a recognized
// *Error at all — the latter is treated conservatively as fatal).
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	e, ok := As(err)
	if !ok {
		return true
	}
	return e.Kind.Fatal()
}
