package regexparse

import (
	"strconv"

	"lexforge/ast"
	"lexforge/lexerr"
)

type parser struct {
	rule string
	line int
	lex  *lexer
	look token
}

func newParser(rule string, line int, pattern string) *parser {
	p := &parser{rule: rule, line: line, lex: newLexer(pattern)}
	p.look = p.lex.next()
	return p
}

func (p *parser) scan() { p.look = p.lex.next() }

// ParsePattern parses pattern into an ast.Node, with no rule name or
// source line attached (used for one-off patterns in tests).
func ParsePattern(pattern string) (ast.Node, error) {
	p := newParser("", 0, pattern)
	node, err := p.parseExpr(1)
	if err != nil {
		return nil, err
	}
	if p.look.typ != tEOF {
		return nil, lexerr.New(lexerr.UnsupportedConstruct, p.rule, p.line, "trailing input after pattern")
	}
	return node, nil
}

// ParseRule parses pattern into a full ast.RegexpStatement bound to name,
// the way cmd/lexforge's demo driver builds one rule per NAME=pattern pair
// of its -rules flag.
func ParseRule(name string, line int, pattern, action string) (*ast.RegexpStatement, error) {
	p := newParser(name, line, pattern)
	node, err := p.parseExpr(1)
	if err != nil {
		return nil, err
	}
	if p.look.typ != tEOF {
		return nil, lexerr.New(lexerr.UnsupportedConstruct, name, line, "trailing input after pattern")
	}
	return &ast.RegexpStatement{Name: name, Regexp: node, ActionCode: action, SourceLine: line}, nil
}

func precedence(t tokenType) int {
	switch t {
	case tUnion:
		return 1
	case tChar, tLParen, tLBracket, tCaret:
		return 2 // implicit concatenation
	case tStar, tPlus, tQMark, tLBrace:
		return 3
	default:
		return 0
	}
}

func (p *parser) parseExpr(minPrec int) (ast.Node, error) {
	var left ast.Node
	switch p.look.typ {
	case tChar:
		left = &ast.Char{Literal: p.look.ch}
		p.scan()
	case tCaret:
		left = &ast.Char{Literal: '^'}
		p.scan()
	case tLParen:
		p.scan()
		inner, err := p.parseExpr(1)
		if err != nil {
			return nil, err
		}
		if p.look.typ != tRParen {
			return nil, lexerr.New(lexerr.UnsupportedConstruct, p.rule, p.line, "expected )")
		}
		left = &ast.Paren{Body: inner}
		p.scan()
	case tLBracket:
		p.scan()
		set, err := p.parseCharClass()
		if err != nil {
			return nil, err
		}
		left = set
	case tBackRef:
		return nil, lexerr.New(lexerr.UnsupportedConstruct, p.rule, p.line,
			"backreferences are not part of the supported regex surface")
	default:
		return nil, lexerr.New(lexerr.UnsupportedConstruct, p.rule, p.line, "unexpected token %d", p.look.typ)
	}

	for {
		switch p.look.typ {
		case tStar:
			left = &ast.Closure{KindOf: ast.ClosureStar, Body: left}
			p.scan()
		case tPlus:
			left = &ast.Closure{KindOf: ast.ClosurePlus, Body: left}
			p.scan()
		case tQMark:
			left = &ast.Closure{KindOf: ast.ClosureOptional, Body: left}
			p.scan()
		case tLBrace:
			lo, hi, err := p.parseRepeat()
			if err != nil {
				return nil, err
			}
			left = &ast.Closure{KindOf: ast.ClosureRepeat, Body: left, Quantifier: &ast.ClosureRange{Lower: lo, Upper: hi}}
		default:
			goto noPostfix
		}
	}
noPostfix:

	for precedence(p.look.typ) >= minPrec {
		isUnion := p.look.typ == tUnion
		prec := 2
		if isUnion {
			prec = 1
			p.scan()
		}

		right, err := p.parseExpr(prec + 1)
		if err != nil {
			return nil, err
		}
		if isUnion {
			left = &ast.Alternation{Left: left, Right: right}
		} else {
			left = &ast.Concatenation{Left: left, Right: right}
		}
	}
	return left, nil
}

func (p *parser) parseCharClass() (*ast.Set, error) {
	negate := false
	if p.look.typ == tCaret {
		negate = true
		p.scan()
	}

	var ranges []ast.Range
	for p.look.typ != tRBracket && p.look.typ != tEOF {
		if p.look.typ != tChar {
			return nil, lexerr.New(lexerr.UnsupportedConstruct, p.rule, p.line, "invalid char class token")
		}
		lo := p.look.ch
		p.scan()
		hi := lo
		if p.look.typ == tDash {
			p.scan()
			if p.look.typ != tChar {
				return nil, lexerr.New(lexerr.MalformedRange, p.rule, p.line, "incomplete range")
			}
			hi = p.look.ch
			p.scan()
		}
		if lo > hi {
			return nil, lexerr.New(lexerr.MalformedRange, p.rule, p.line, "range [%c-%c] has lower>upper", lo, hi)
		}
		ranges = append(ranges, ast.Range{Lower: lo, Upper: hi})
	}
	if p.look.typ != tRBracket {
		return nil, lexerr.New(lexerr.UnsupportedConstruct, p.rule, p.line, "missing ]")
	}
	p.scan()
	return &ast.Set{Negated: negate, Ranges: ranges}, nil
}

func (p *parser) parseRepeat() (int, int, error) {
	p.scan() // '{'
	lo, err := p.parseNumber()
	if err != nil {
		return 0, 0, err
	}
	hi := lo
	if p.look.typ == tComma {
		p.scan()
		if p.look.typ == tChar && isDigit(p.look.ch) {
			hi, err = p.parseNumber()
			if err != nil {
				return 0, 0, err
			}
		} else {
			hi = -1
		}
	}
	if p.look.typ != tRBrace {
		return 0, 0, lexerr.New(lexerr.UnsupportedConstruct, p.rule, p.line, "expected }")
	}
	p.scan()
	return lo, hi, nil
}

func (p *parser) parseNumber() (int, error) {
	digits := ""
	for p.look.typ == tChar && isDigit(p.look.ch) {
		digits += string(p.look.ch)
		p.scan()
	}
	if digits == "" {
		return 0, lexerr.New(lexerr.UnsupportedConstruct, p.rule, p.line, "expected number in {m,n}")
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, lexerr.New(lexerr.UnsupportedConstruct, p.rule, p.line, "malformed number %q", digits)
	}
	return n, nil
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }
