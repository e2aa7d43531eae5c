// Package condition compiles and evaluates answer visibility conditions.
//
// The language is a small arithmetic and boolean expression grammar over
// integer tag counts:
//
//	cats > 2 && !dogs
//	(cats + dogs) % 2 == 0 or visited_shop
//
// There are no calls, no member access and no strings. Values are numbers;
// booleans are 1 and 0, and truthiness is "non-zero".
package condition

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokOp
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// SyntaxError reports a malformed condition.
type SyntaxError struct {
	Source string
	Pos    int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("condition %q: %s at offset %d", e.Source, e.Msg, e.Pos)
}

// operators lists multi-character operators before their prefixes.
var operators = []string{"||", "&&", "==", "!=", "<=", ">=", "//", "<", ">", "!", "+", "-", "*", "/", "%"}

func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := decodeRune(src, i)
		switch {
		case unicode.IsSpace(c):
			i += runeLen(src, i)
		case c == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", pos: i})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", pos: i})
			i++
		case isDigit(src[i]) || (c == '.' && i+1 < len(src) && isDigit(src[i+1])):
			start := i
			seenDot := false
			for i < len(src) && (isDigit(src[i]) || (src[i] == '.' && !seenDot)) {
				if src[i] == '.' {
					seenDot = true
				}
				i++
			}
			toks = append(toks, token{kind: tokNumber, text: src[start:i], pos: start})
		case isIdentStart(src, i):
			start := i
			for i < len(src) && isIdentPart(src, i) {
				i += runeLen(src, i)
			}
			toks = append(toks, token{kind: tokIdent, text: src[start:i], pos: start})
		default:
			op := matchOperator(src[i:])
			if op == "" {
				return nil, &SyntaxError{Source: src, Pos: i, Msg: fmt.Sprintf("unexpected character %q", c)}
			}
			toks = append(toks, token{kind: tokOp, text: op, pos: i})
			i += len(op)
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(src)})
	return toks, nil
}

func matchOperator(s string) string {
	for _, op := range operators {
		if strings.HasPrefix(s, op) {
			return op
		}
	}
	return ""
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func decodeRune(s string, i int) rune {
	r, _ := utf8.DecodeRuneInString(s[i:])
	return r
}

func runeLen(s string, i int) int {
	_, n := utf8.DecodeRuneInString(s[i:])
	return n
}

// Identifiers may contain letters of any script, digits and underscores.
func isIdentStart(s string, i int) bool {
	r := decodeRune(s, i)
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(s string, i int) bool {
	r := decodeRune(s, i)
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
