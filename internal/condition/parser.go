package condition

import (
	"fmt"
	"strconv"
)

// keyword aliases for the symbolic operators.
var keywords = map[string]string{
	"or":  "||",
	"and": "&&",
	"not": "!",
}

var literals = map[string]float64{
	"true":  1,
	"True":  1,
	"false": 0,
	"False": 0,
}

type parser struct {
	src  string
	toks []token
	pos  int
}

func parse(src string) (node, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{src: src, toks: toks}
	if p.peek().kind == tokEOF {
		return nil, p.errorf("empty condition")
	}
	n, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, p.errorf("unexpected %q", t.text)
	}
	return n, nil
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

// op returns the normalized operator at the cursor, or "".
func (p *parser) op() string {
	t := p.peek()
	switch t.kind {
	case tokOp:
		return t.text
	case tokIdent:
		return keywords[t.text]
	}
	return ""
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Source: p.src, Pos: p.peek().pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) parseOr() (node, error) {
	l, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.op() == "||" {
		p.next()
		r, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		l = &logical{op: "||", l: l, r: r}
	}
	return l, nil
}

func (p *parser) parseAnd() (node, error) {
	l, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.op() == "&&" {
		p.next()
		r, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		l = &logical{op: "&&", l: l, r: r}
	}
	return l, nil
}

func (p *parser) parseNot() (node, error) {
	if p.op() == "!" {
		p.next()
		x, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &unary{op: "!", x: x}, nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (node, error) {
	first, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	cmp := &comparison{operands: []node{first}}
	for {
		switch op := p.op(); op {
		case "==", "!=", "<", "<=", ">", ">=":
			p.next()
			r, err := p.parseSum()
			if err != nil {
				return nil, err
			}
			cmp.ops = append(cmp.ops, op)
			cmp.operands = append(cmp.operands, r)
		default:
			if len(cmp.ops) == 0 {
				return first, nil
			}
			return cmp, nil
		}
	}
}

func (p *parser) parseSum() (node, error) {
	l, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		op := p.op()
		if op != "+" && op != "-" {
			return l, nil
		}
		p.next()
		r, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		l = &binary{op: op, l: l, r: r}
	}
}

func (p *parser) parseTerm() (node, error) {
	l, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op := p.op()
		if op != "*" && op != "/" && op != "//" && op != "%" {
			return l, nil
		}
		p.next()
		r, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		l = &binary{op: op, l: l, r: r}
	}
}

func (p *parser) parseUnary() (node, error) {
	if op := p.op(); op == "-" || op == "+" {
		p.next()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &unary{op: op, x: x}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (node, error) {
	t := p.peek()
	switch t.kind {
	case tokNumber:
		p.next()
		v, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, &SyntaxError{Source: p.src, Pos: t.pos, Msg: "bad number " + strconv.Quote(t.text)}
		}
		return numberLit(v), nil
	case tokIdent:
		if _, isKeyword := keywords[t.text]; isKeyword {
			return nil, p.errorf("unexpected %q", t.text)
		}
		p.next()
		if v, ok := literals[t.text]; ok {
			return numberLit(v), nil
		}
		return ident(t.text), nil
	case tokLParen:
		p.next()
		n, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.peek().kind != tokRParen {
			return nil, p.errorf("missing closing parenthesis")
		}
		p.next()
		return n, nil
	case tokEOF:
		return nil, p.errorf("unexpected end of condition")
	default:
		return nil, p.errorf("unexpected %q", t.text)
	}
}
