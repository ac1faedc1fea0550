// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package script

import (
	"fmt"

	"nickandperla.net/texp/internal/expr"
	"nickandperla.net/texp/internal/scanner"
	"nickandperla.net/texp/internal/token"
)

// Parser builds statements from scanner items.
type Parser struct {
	s *scanner.Scanner
}

// Parse parses a whole block.
func Parse(src string) ([]expr.Stmt, error) {
	p := &Parser{s: scanner.NewFromString(src)}
	return p.file()
}

// ParseExpr parses src as a single expression.
func ParseExpr(src string) (expr.Expr, error) {
	stmts, err := Parse(src)
	if err != nil {
		return nil, err
	}
	if len(stmts) != 1 {
		return nil, fmt.Errorf("expected one expression, got %d statements", len(stmts))
	}
	st, ok := stmts[0].(*expr.ExprStmt)
	if !ok {
		return nil, fmt.Errorf("line %d: not an expression: %s", stmts[0].Pos(), stmts[0])
	}
	return st.X, nil
}

func (p *Parser) peek() (*scanner.Item, error) { return p.s.Peek() }

func (p *Parser) next() (*scanner.Item, error) { return p.s.Next() }

// accept consumes the next item if it has token t.
func (p *Parser) accept(t token.Token) (bool, error) {
	it, err := p.peek()
	if err != nil {
		return false, err
	}
	if it.Token != t {
		return false, nil
	}
	_, err = p.next()
	return true, err
}

func (p *Parser) expect(t token.Token) (*scanner.Item, error) {
	it, err := p.next()
	if err != nil {
		return nil, err
	}
	if it.Token != t {
		return nil, syntaxError(it, "expected %s", t)
	}
	return it, nil
}

func syntaxError(it *scanner.Item, format string, args ...any) error {
	return fmt.Errorf("line %d: syntax error at %s: %s", it.Line, it, fmt.Sprintf(format, args...))
}

func (p *Parser) file() ([]expr.Stmt, error) {
	var stmts []expr.Stmt
	for {
		it, err := p.peek()
		if err != nil {
			return nil, err
		}
		switch it.Token {
		case token.EOF:
			return stmts, nil
		case token.NEWLINE:
			p.next()
			continue
		case token.INDENT:
			return nil, syntaxError(it, "unexpected indent")
		}
		st, err := p.statement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, st)
	}
}

func (p *Parser) statement() (expr.Stmt, error) {
	it, err := p.peek()
	if err != nil {
		return nil, err
	}
	switch it.Token {
	case token.DEF, token.AT:
		return p.def()
	case token.IF:
		p.next()
		return p.ifStmt(it.Line)
	case token.WITH:
		p.next()
		ctx, err := p.expression()
		if err != nil {
			return nil, err
		}
		body, err := p.suite()
		if err != nil {
			return nil, err
		}
		return &expr.With{Line: it.Line, Ctx: ctx, Body: body}, nil
	}
	st, err := p.simple()
	if err != nil {
		return nil, err
	}
	if err := p.endOfLine(); err != nil {
		return nil, err
	}
	return st, nil
}

func (p *Parser) endOfLine() error {
	it, err := p.next()
	if err != nil {
		return err
	}
	if it.Token != token.NEWLINE && it.Token != token.EOF {
		return syntaxError(it, "expected end of line")
	}
	return nil
}

func (p *Parser) simple() (expr.Stmt, error) {
	it, err := p.peek()
	if err != nil {
		return nil, err
	}
	switch it.Token {
	case token.PASS:
		p.next()
		return &expr.Pass{Line: it.Line}, nil
	case token.RETURN:
		p.next()
		nx, err := p.peek()
		if err != nil {
			return nil, err
		}
		if nx.Token.EndsLine() {
			return &expr.Return{Line: it.Line}, nil
		}
		v, err := p.expression()
		if err != nil {
			return nil, err
		}
		return &expr.Return{Line: it.Line, Value: v}, nil
	}

	x, err := p.expression()
	if err != nil {
		return nil, err
	}
	ok, err := p.accept(token.ASSIGN)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &expr.ExprStmt{Line: it.Line, X: x}, nil
	}
	switch x.(type) {
	case expr.Name, expr.Index:
	default:
		return nil, syntaxError(it, "cannot assign to %s", x)
	}
	v, err := p.expression()
	if err != nil {
		return nil, err
	}
	return &expr.Assign{Line: it.Line, Target: x, Value: v}, nil
}

// suite parses the body after a colon: either the rest of the line or an
// indented block.
func (p *Parser) suite() ([]expr.Stmt, error) {
	if _, err := p.expect(token.COLON); err != nil {
		return nil, err
	}
	ok, err := p.accept(token.NEWLINE)
	if err != nil {
		return nil, err
	}
	if !ok {
		st, err := p.simple()
		if err != nil {
			return nil, err
		}
		if err := p.endOfLine(); err != nil {
			return nil, err
		}
		return []expr.Stmt{st}, nil
	}
	if _, err := p.expect(token.INDENT); err != nil {
		return nil, err
	}
	var body []expr.Stmt
	for {
		done, err := p.accept(token.DEDENT)
		if err != nil {
			return nil, err
		}
		if done {
			return body, nil
		}
		if eof, err := p.accept(token.EOF); err != nil || eof {
			return body, err
		}
		st, err := p.statement()
		if err != nil {
			return nil, err
		}
		body = append(body, st)
	}
}

func (p *Parser) def() (expr.Stmt, error) {
	var decorators []expr.Expr
	for {
		ok, err := p.accept(token.AT)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		d, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.NEWLINE); err != nil {
			return nil, err
		}
		decorators = append(decorators, d)
	}

	kw, err := p.expect(token.DEF)
	if err != nil {
		return nil, err
	}
	name, err := p.expect(token.NAME)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	var params []expr.Param
	seenDefault := false
	for {
		if ok, err := p.accept(token.RPAREN); err != nil || ok {
			if err != nil {
				return nil, err
			}
			break
		}
		pn, err := p.expect(token.NAME)
		if err != nil {
			return nil, err
		}
		param := expr.Param{Name: pn.Value}
		if ok, err := p.accept(token.ASSIGN); err != nil {
			return nil, err
		} else if ok {
			if param.Default, err = p.expression(); err != nil {
				return nil, err
			}
			seenDefault = true
		} else if seenDefault {
			return nil, syntaxError(pn, "non-default parameter follows default parameter")
		}
		params = append(params, param)
		if ok, err := p.accept(token.COMMA); err != nil {
			return nil, err
		} else if !ok {
			if _, err := p.expect(token.RPAREN); err != nil {
				return nil, err
			}
			break
		}
	}
	body, err := p.suite()
	if err != nil {
		return nil, err
	}
	return &expr.Def{Line: kw.Line, Name: name.Value, Params: params, Body: body, Decorators: decorators}, nil
}

func (p *Parser) ifStmt(line int) (expr.Stmt, error) {
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	then, err := p.suite()
	if err != nil {
		return nil, err
	}
	st := &expr.If{Line: line, Cond: cond, Then: then}

	it, err := p.peek()
	if err != nil {
		return nil, err
	}
	switch it.Token {
	case token.ELIF:
		p.next()
		elif, err := p.ifStmt(it.Line)
		if err != nil {
			return nil, err
		}
		st.Else = []expr.Stmt{elif}
	case token.ELSE:
		p.next()
		if st.Else, err = p.suite(); err != nil {
			return nil, err
		}
	}
	return st, nil
}

// Expressions, lowest precedence first.

func (p *Parser) expression() (expr.Expr, error) {
	return p.binary(0)
}

var precedence = [][]token.Token{
	{token.OR},
	{token.AND},
	nil, // not
	{token.EQ, token.NE},
	{token.PLUS},
}

func (p *Parser) binary(level int) (expr.Expr, error) {
	if level == len(precedence) {
		return p.postfix()
	}
	if precedence[level] == nil {
		if ok, err := p.accept(token.NOT); err != nil {
			return nil, err
		} else if ok {
			x, err := p.binary(level)
			if err != nil {
				return nil, err
			}
			return expr.Not{X: x}, nil
		}
		return p.binary(level + 1)
	}

	x, err := p.binary(level + 1)
	if err != nil {
		return nil, err
	}
	for {
		it, err := p.peek()
		if err != nil {
			return nil, err
		}
		matched := false
		for _, op := range precedence[level] {
			if it.Token == op {
				matched = true
			}
		}
		if !matched {
			return x, nil
		}
		p.next()
		y, err := p.binary(level + 1)
		if err != nil {
			return nil, err
		}
		x = expr.Binary{Op: it.Token, X: x, Y: y}
	}
}

func (p *Parser) postfix() (expr.Expr, error) {
	x, err := p.atom()
	if err != nil {
		return nil, err
	}
	for {
		it, err := p.peek()
		if err != nil {
			return nil, err
		}
		switch it.Token {
		case token.LPAREN:
			p.next()
			args, err := p.arguments()
			if err != nil {
				return nil, err
			}
			x = expr.Call{Fn: x, Args: args}
		case token.LBRACK:
			p.next()
			key, err := p.expression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.RBRACK); err != nil {
				return nil, err
			}
			x = expr.Index{X: x, Key: key}
		default:
			return x, nil
		}
	}
}

func (p *Parser) arguments() ([]expr.Expr, error) {
	var args []expr.Expr
	for {
		if ok, err := p.accept(token.RPAREN); err != nil || ok {
			return args, err
		}
		a, err := p.expression()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		ok, err := p.accept(token.COMMA)
		if err != nil {
			return nil, err
		}
		if !ok {
			_, err := p.expect(token.RPAREN)
			return args, err
		}
	}
}

func (p *Parser) atom() (expr.Expr, error) {
	it, err := p.next()
	if err != nil {
		return nil, err
	}
	switch it.Token {
	case token.NAME:
		return expr.Name{Name: it.Value}, nil
	case token.NUMBER:
		return expr.Num{Text: it.Value}, nil
	case token.NONE, token.TRUE, token.FALSE:
		return expr.Const{Kind: it.Token}, nil
	case token.STRING:
		// adjacent literals concatenate
		s := it.Value
		for {
			nx, err := p.peek()
			if err != nil {
				return nil, err
			}
			if nx.Token != token.STRING {
				break
			}
			p.next()
			s += nx.Value
		}
		return expr.Str{Value: s}, nil
	case token.LPAREN:
		x, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return x, nil
	}
	return nil, syntaxError(it, "unexpected token")
}
