/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package memory

import (
	"bytes"
	"fmt"
	"math/big"
	"reflect"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/suparena/recordstore/storagemodels"
)

// Matcher reports whether an attribute map satisfies a predicate.
type Matcher func(attrs map[string]types.AttributeValue) bool

// Compile parses a predicate written in DynamoDB condition syntax.
//
// Supported: comparisons (= <> < <= > >=), BETWEEN, IN, AND, OR, NOT,
// parentheses, begins_with, contains, attribute_exists,
// attribute_not_exists, dotted paths into maps, and the TRUEPREDICATE and
// FALSEPREDICATE constants. A comparison involving a missing attribute is
// false.
func Compile(p storagemodels.Predicate) (Matcher, error) {
	if p.IsTrue() {
		return func(map[string]types.AttributeValue) bool { return true }, nil
	}
	toks, err := lex(p.Expression)
	if err != nil {
		return nil, err
	}
	ps := &parser{toks: toks, pred: p}
	m, err := ps.parseOr()
	if err != nil {
		return nil, err
	}
	if t := ps.peek(); t.kind != tokEOF {
		return nil, ps.errorf(t, "unexpected %q", t.text)
	}
	return m, nil
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokName
	tokValue
	tokLParen
	tokRParen
	tokComma
	tokDot
	tokCompare
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func isIdentChar(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

func lex(s string) ([]token, error) {
	var toks []token
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			toks = append(toks, token{tokLParen, "(", i})
			i++
		case c == ')':
			toks = append(toks, token{tokRParen, ")", i})
			i++
		case c == ',':
			toks = append(toks, token{tokComma, ",", i})
			i++
		case c == '.':
			toks = append(toks, token{tokDot, ".", i})
			i++
		case c == '=':
			toks = append(toks, token{tokCompare, "=", i})
			i++
		case c == '<' || c == '>':
			op := string(c)
			if i+1 < len(s) && (s[i+1] == '=' || (c == '<' && s[i+1] == '>')) {
				op += string(s[i+1])
			}
			toks = append(toks, token{tokCompare, op, i})
			i += len(op)
		case c == '#' || c == ':':
			j := i + 1
			for j < len(s) && isIdentChar(s[j]) {
				j++
			}
			if j == i+1 {
				return nil, fmt.Errorf("predicate: empty placeholder at offset %d", i)
			}
			kind := tokName
			if c == ':' {
				kind = tokValue
			}
			toks = append(toks, token{kind, s[i:j], i})
			i = j
		case isIdentChar(c):
			j := i
			for j < len(s) && isIdentChar(s[j]) {
				j++
			}
			toks = append(toks, token{tokIdent, s[i:j], i})
			i = j
		default:
			return nil, fmt.Errorf("predicate: unexpected character %q at offset %d", c, i)
		}
	}
	return append(toks, token{tokEOF, "", len(s)}), nil
}

// operand resolves to a value, or reports false when the attribute is missing.
type operand func(attrs map[string]types.AttributeValue) (types.AttributeValue, bool)

type parser struct {
	toks []token
	pos  int
	pred storagemodels.Predicate
}

func (ps *parser) peek() token {
	return ps.toks[ps.pos]
}

func (ps *parser) next() token {
	t := ps.toks[ps.pos]
	if t.kind != tokEOF {
		ps.pos++
	}
	return t
}

func (ps *parser) keyword(word string) bool {
	t := ps.peek()
	return t.kind == tokIdent && strings.EqualFold(t.text, word)
}

func (ps *parser) expect(kind tokenKind, what string) error {
	if t := ps.next(); t.kind != kind {
		return ps.errorf(t, "expected %s, found %q", what, t.text)
	}
	return nil
}

func (ps *parser) errorf(t token, format string, args ...any) error {
	return fmt.Errorf("predicate: %s at offset %d in %q", fmt.Sprintf(format, args...), t.pos, ps.pred.Expression)
}

func (ps *parser) parseOr() (Matcher, error) {
	left, err := ps.parseAnd()
	if err != nil {
		return nil, err
	}
	for ps.keyword("OR") {
		ps.next()
		right, err := ps.parseAnd()
		if err != nil {
			return nil, err
		}
		l := left
		left = func(a map[string]types.AttributeValue) bool { return l(a) || right(a) }
	}
	return left, nil
}

func (ps *parser) parseAnd() (Matcher, error) {
	left, err := ps.parseNot()
	if err != nil {
		return nil, err
	}
	for ps.keyword("AND") {
		ps.next()
		right, err := ps.parseNot()
		if err != nil {
			return nil, err
		}
		l := left
		left = func(a map[string]types.AttributeValue) bool { return l(a) && right(a) }
	}
	return left, nil
}

func (ps *parser) parseNot() (Matcher, error) {
	if ps.keyword("NOT") {
		ps.next()
		inner, err := ps.parseNot()
		if err != nil {
			return nil, err
		}
		return func(a map[string]types.AttributeValue) bool { return !inner(a) }, nil
	}
	return ps.parsePrimary()
}

func (ps *parser) parsePrimary() (Matcher, error) {
	t := ps.peek()
	switch {
	case t.kind == tokLParen:
		ps.next()
		m, err := ps.parseOr()
		if err != nil {
			return nil, err
		}
		if err := ps.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		return m, nil
	case ps.keyword(storagemodels.TruePredicateExpression):
		ps.next()
		return func(map[string]types.AttributeValue) bool { return true }, nil
	case ps.keyword("FALSEPREDICATE"):
		ps.next()
		return func(map[string]types.AttributeValue) bool { return false }, nil
	case t.kind == tokIdent && ps.toks[ps.pos+1].kind == tokLParen:
		return ps.parseFunction()
	}
	return ps.parseComparison()
}

func (ps *parser) parseFunction() (Matcher, error) {
	name := ps.next()
	ps.next()

	path, err := ps.parsePath()
	if err != nil {
		return nil, err
	}

	var m Matcher
	switch strings.ToLower(name.text) {
	case "attribute_exists":
		m = func(a map[string]types.AttributeValue) bool {
			_, ok := path(a)
			return ok
		}
	case "attribute_not_exists":
		m = func(a map[string]types.AttributeValue) bool {
			_, ok := path(a)
			return !ok
		}
	case "begins_with", "contains":
		if err := ps.expect(tokComma, "','"); err != nil {
			return nil, err
		}
		arg, err := ps.parseOperand()
		if err != nil {
			return nil, err
		}
		fn := beginsWith
		if strings.EqualFold(name.text, "contains") {
			fn = containsValue
		}
		m = func(a map[string]types.AttributeValue) bool {
			x, ok := path(a)
			if !ok {
				return false
			}
			y, ok := arg(a)
			return ok && fn(x, y)
		}
	default:
		return nil, ps.errorf(name, "unknown function %q", name.text)
	}

	if err := ps.expect(tokRParen, "')'"); err != nil {
		return nil, err
	}
	return m, nil
}

func (ps *parser) parseComparison() (Matcher, error) {
	left, err := ps.parseOperand()
	if err != nil {
		return nil, err
	}

	t := ps.peek()
	switch {
	case t.kind == tokCompare:
		ps.next()
		right, err := ps.parseOperand()
		if err != nil {
			return nil, err
		}
		test := comparator(t.text)
		return func(a map[string]types.AttributeValue) bool {
			x, ok := left(a)
			if !ok {
				return false
			}
			y, ok := right(a)
			return ok && test(x, y)
		}, nil

	case ps.keyword("BETWEEN"):
		ps.next()
		lo, err := ps.parseOperand()
		if err != nil {
			return nil, err
		}
		if !ps.keyword("AND") {
			return nil, ps.errorf(ps.peek(), "expected AND in BETWEEN")
		}
		ps.next()
		hi, err := ps.parseOperand()
		if err != nil {
			return nil, err
		}
		return func(a map[string]types.AttributeValue) bool {
			x, ok1 := left(a)
			l, ok2 := lo(a)
			h, ok3 := hi(a)
			if !ok1 || !ok2 || !ok3 {
				return false
			}
			c1, ok1 := compareValues(x, l)
			c2, ok2 := compareValues(x, h)
			return ok1 && ok2 && c1 >= 0 && c2 <= 0
		}, nil

	case ps.keyword("IN"):
		ps.next()
		if err := ps.expect(tokLParen, "'('"); err != nil {
			return nil, err
		}
		var list []operand
		for {
			o, err := ps.parseOperand()
			if err != nil {
				return nil, err
			}
			list = append(list, o)
			if ps.peek().kind != tokComma {
				break
			}
			ps.next()
		}
		if err := ps.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		return func(a map[string]types.AttributeValue) bool {
			x, ok := left(a)
			if !ok {
				return false
			}
			for _, o := range list {
				if y, ok := o(a); ok && equalValues(x, y) {
					return true
				}
			}
			return false
		}, nil
	}
	return nil, ps.errorf(t, "expected comparison, found %q", t.text)
}

func (ps *parser) parseOperand() (operand, error) {
	t := ps.peek()
	if t.kind == tokValue {
		ps.next()
		v, ok := ps.pred.Values[t.text]
		if !ok {
			return nil, ps.errorf(t, "undefined value placeholder %s", t.text)
		}
		return func(map[string]types.AttributeValue) (types.AttributeValue, bool) { return v, true }, nil
	}
	return ps.parsePath()
}

func (ps *parser) parsePath() (operand, error) {
	var segments []string
	for {
		t := ps.next()
		switch t.kind {
		case tokIdent:
			segments = append(segments, t.text)
		case tokName:
			name, ok := ps.pred.Names[t.text]
			if !ok {
				return nil, ps.errorf(t, "undefined name placeholder %s", t.text)
			}
			segments = append(segments, name)
		default:
			return nil, ps.errorf(t, "expected attribute name, found %q", t.text)
		}
		if ps.peek().kind != tokDot {
			break
		}
		ps.next()
	}

	return func(a map[string]types.AttributeValue) (types.AttributeValue, bool) {
		v, ok := a[segments[0]]
		for _, s := range segments[1:] {
			if !ok {
				return nil, false
			}
			m, isMap := v.(*types.AttributeValueMemberM)
			if !isMap {
				return nil, false
			}
			v, ok = m.Value[s]
		}
		return v, ok
	}, nil
}

func comparator(op string) func(x, y types.AttributeValue) bool {
	ordered := func(test func(int) bool) func(x, y types.AttributeValue) bool {
		return func(x, y types.AttributeValue) bool {
			c, ok := compareValues(x, y)
			return ok && test(c)
		}
	}
	switch op {
	case "=":
		return equalValues
	case "<>":
		return func(x, y types.AttributeValue) bool { return !equalValues(x, y) }
	case "<":
		return ordered(func(c int) bool { return c < 0 })
	case "<=":
		return ordered(func(c int) bool { return c <= 0 })
	case ">":
		return ordered(func(c int) bool { return c > 0 })
	}
	return ordered(func(c int) bool { return c >= 0 })
}

// compareValues orders strings, numbers and binaries of the same type.
func compareValues(x, y types.AttributeValue) (int, bool) {
	switch a := x.(type) {
	case *types.AttributeValueMemberS:
		if b, ok := y.(*types.AttributeValueMemberS); ok {
			return strings.Compare(a.Value, b.Value), true
		}
	case *types.AttributeValueMemberN:
		if b, ok := y.(*types.AttributeValueMemberN); ok {
			return compareNumbers(a.Value, b.Value)
		}
	case *types.AttributeValueMemberB:
		if b, ok := y.(*types.AttributeValueMemberB); ok {
			return bytes.Compare(a.Value, b.Value), true
		}
	}
	return 0, false
}

func compareNumbers(a, b string) (int, bool) {
	x, ok := new(big.Float).SetString(a)
	if !ok {
		return 0, false
	}
	y, ok := new(big.Float).SetString(b)
	if !ok {
		return 0, false
	}
	return x.Cmp(y), true
}

func equalValues(x, y types.AttributeValue) bool {
	if c, ok := compareValues(x, y); ok {
		return c == 0
	}
	return reflect.DeepEqual(x, y)
}

func beginsWith(x, y types.AttributeValue) bool {
	switch a := x.(type) {
	case *types.AttributeValueMemberS:
		if b, ok := y.(*types.AttributeValueMemberS); ok {
			return strings.HasPrefix(a.Value, b.Value)
		}
	case *types.AttributeValueMemberB:
		if b, ok := y.(*types.AttributeValueMemberB); ok {
			return bytes.HasPrefix(a.Value, b.Value)
		}
	}
	return false
}

func containsValue(x, y types.AttributeValue) bool {
	switch a := x.(type) {
	case *types.AttributeValueMemberS:
		if b, ok := y.(*types.AttributeValueMemberS); ok {
			return strings.Contains(a.Value, b.Value)
		}
	case *types.AttributeValueMemberSS:
		if b, ok := y.(*types.AttributeValueMemberS); ok {
			return slices.Contains(a.Value, b.Value)
		}
	case *types.AttributeValueMemberNS:
		if b, ok := y.(*types.AttributeValueMemberN); ok {
			return slices.ContainsFunc(a.Value, func(n string) bool {
				c, ok := compareNumbers(n, b.Value)
				return ok && c == 0
			})
		}
	case *types.AttributeValueMemberBS:
		if b, ok := y.(*types.AttributeValueMemberB); ok {
			return slices.ContainsFunc(a.Value, func(v []byte) bool { return bytes.Equal(v, b.Value) })
		}
	case *types.AttributeValueMemberL:
		return slices.ContainsFunc(a.Value, func(v types.AttributeValue) bool { return equalValues(v, y) })
	}
	return false
}
