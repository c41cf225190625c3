package parser

import (
	"github.com/joetechbob/cypher-guard/pkg/ast"
	"github.com/joetechbob/cypher-guard/pkg/lexer"
)

// parseExpression is the expression grammar's entry point: precedence
// climbing from the lowest-precedence operator, `OR`, through `XOR`,
// `AND`, `NOT`, comparisons, `||` concatenation and arithmetic down to
// the postfix-chained primary (spec §4.F). WHERE's boolean connectives are
// folded into the same climb rather than kept as a separate grammar,
// since a WhereCondition's leaves are themselves full Expressions.
func (p *Parser) parseExpression() (ast.Expression, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (ast.Expression, error) {
	left, err := p.parseXor()
	if err != nil {
		return nil, err
	}
	for p.eatKeyword("OR") {
		right, err := p.parseXor()
		if err != nil {
			return nil, err
		}
		left = &ast.Or{Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseXor() (ast.Expression, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.eatKeyword("XOR") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.Xor{Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (ast.Expression, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.eatKeyword("AND") {
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &ast.And{Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseNot() (ast.Expression, error) {
	if p.eatKeyword("NOT") {
		inner, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &ast.Not{Inner: inner}, nil
	}
	return p.parseComparison()
}

var comparisonOps = []string{"<=", ">=", "<>", "=~", "=", "<", ">"}

// parseComparison parses the WHERE-condition comparison forms (spec
// §4.F null-safety requirement): a plain operator comparison, the word
// operators (STARTS WITH / ENDS WITH / CONTAINS / IN), the postfix
// IS [NOT] NULL forms, and the regex/plain operators above. Falls
// through to the concatenation level when none apply.
func (p *Parser) parseComparison() (ast.Expression, error) {
	left, err := p.parseConcat()
	if err != nil {
		return nil, err
	}

	for {
		if p.peekKeywords("IS", "NOT", "NULL") {
			p.advance()
			p.advance()
			p.advance()
			left = &ast.Not{Inner: &ast.Comparison{Left: left, Operator: "IS NULL", Right: &ast.NullLit{}}}
			continue
		}
		if p.peekKeywords("IS", "NULL") {
			p.advance()
			p.advance()
			left = &ast.Comparison{Left: left, Operator: "IS NULL", Right: &ast.NullLit{}}
			continue
		}
		if p.peekKeywords("STARTS", "WITH") {
			p.advance()
			p.advance()
			right, err := p.parseConcat()
			if err != nil {
				return nil, err
			}
			left = &ast.Comparison{Left: left, Operator: "STARTS WITH", Right: right}
			continue
		}
		if p.peekKeywords("ENDS", "WITH") {
			p.advance()
			p.advance()
			right, err := p.parseConcat()
			if err != nil {
				return nil, err
			}
			left = &ast.Comparison{Left: left, Operator: "ENDS WITH", Right: right}
			continue
		}
		if p.peekKeyword("CONTAINS") {
			p.advance()
			right, err := p.parseConcat()
			if err != nil {
				return nil, err
			}
			left = &ast.Comparison{Left: left, Operator: "CONTAINS", Right: right}
			continue
		}
		if p.peekKeyword("IN") {
			p.advance()
			right, err := p.parseConcat()
			if err != nil {
				return nil, err
			}
			left = &ast.Comparison{Left: left, Operator: "IN", Right: right}
			continue
		}
		matchedOp := ""
		for _, op := range comparisonOps {
			if p.peekSymbol(op) {
				matchedOp = op
				break
			}
		}
		if matchedOp != "" {
			p.advance()
			right, err := p.parseConcat()
			if err != nil {
				return nil, err
			}
			left = &ast.Comparison{Left: left, Operator: matchedOp, Right: right}
			continue
		}
		break
	}
	return left, nil
}

// parseConcat is precedence level 1, `||` string concatenation.
func (p *Parser) parseConcat() (ast.Expression, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.peekSymbol("|") && p.at(p.pos+1).Kind == lexer.TokSymbol && p.at(p.pos+1).Text == "|" {
		p.advance()
		p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Left: left, Op: "||", Right: right}
	}
	return left, nil
}

// parseAdditive is precedence level 2, left-associative `+`/`-`. `->`
// and `<-` are lexed as single tokens by pkg/lexer; a `-` that starts a
// relationship (`-[`, `--`, `-->`) is left alone via peekRelationshipStart.
func (p *Parser) parseAdditive() (ast.Expression, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.peekSymbol("+") || (p.peekSymbol("-") && !p.peekRelationshipStart()) {
		op := p.advance().Text
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Left: left, Op: op, Right: right}
	}
	return left, nil
}

// peekRelationshipStart reports whether the cursor is on the first token
// of a relationship pattern: `<-`, or `-` followed by `[`, `-` or `->`.
func (p *Parser) peekRelationshipStart() bool {
	if p.peekSymbol("<-") {
		return true
	}
	next := p.at(p.pos + 1)
	return p.peekSymbol("-") && next.Kind == lexer.TokSymbol && (next.Text == "[" || next.Text == "-" || next.Text == "->")
}

// parseMultiplicative is precedence level 3, left-associative `* / %`.
func (p *Parser) parseMultiplicative() (ast.Expression, error) {
	left, err := p.parsePower()
	if err != nil {
		return nil, err
	}
	for p.peekSymbol("*") || p.peekSymbol("/") || p.peekSymbol("%") {
		op := p.advance().Text
		right, err := p.parsePower()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Left: left, Op: op, Right: right}
	}
	return left, nil
}

// parsePower is precedence level 4, `^` exponentiation. Parsed
// left-associative, matching the grounding source rather than standard
// Cypher's right-associativity — see DESIGN.md for why this is kept
// and flagged rather than silently "fixed".
func (p *Parser) parsePower() (ast.Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.peekSymbol("^") {
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Left: left, Op: "^", Right: right}
	}
	return left, nil
}

func (p *Parser) parseUnary() (ast.Expression, error) {
	if p.peekSymbol("-") || p.peekSymbol("+") {
		op := p.advance().Text
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{Op: op, Inner: inner}, nil
	}
	return p.parsePostfix()
}

// parsePostfix parses a primary followed by any number of postfix chain
// elements: index `[i]`, slice `[a..b]`, map projection `{ ... }`. These
// may repeat in any order (spec §4.F level 5).
func (p *Parser) parsePostfix() (ast.Expression, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		if p.peekSymbol("[") {
			mark := p.mark()
			p.advance()
			if p.peekSymbol("..") {
				p.advance()
				upper, err := p.parseExpression()
				if err != nil {
					p.reset(mark)
					break
				}
				if err := p.expectSymbol("]"); err != nil {
					p.reset(mark)
					break
				}
				expr = &ast.SliceAccess{Target: expr, Upper: upper}
				continue
			}
			first, err := p.parseExpression()
			if err != nil {
				p.reset(mark)
				break
			}
			if p.peekSymbol("..") {
				p.advance()
				if p.peekSymbol("]") {
					p.advance()
					expr = &ast.SliceAccess{Target: expr, Lower: first}
					continue
				}
				upper, err := p.parseExpression()
				if err != nil {
					p.reset(mark)
					break
				}
				if err := p.expectSymbol("]"); err != nil {
					p.reset(mark)
					break
				}
				expr = &ast.SliceAccess{Target: expr, Lower: first, Upper: upper}
				continue
			}
			if err := p.expectSymbol("]"); err != nil {
				p.reset(mark)
				break
			}
			expr = &ast.IndexAccess{Target: expr, Index: first}
			continue
		}
		if p.peekSymbol("{") {
			mark := p.mark()
			proj, ok := p.tryMapProjectionTail(expr)
			if !ok {
				p.reset(mark)
				break
			}
			expr = proj
			continue
		}
		break
	}
	return expr, nil
}

// tryMapProjectionTail parses the `{ .*, field, var.prop, alias: expr }`
// tail of a map projection once a variable-like primary has already
// been parsed. Only meaningful when expr is an *ast.Identifier with one
// part (a bare variable) — anything else and this isn't a projection.
func (p *Parser) tryMapProjectionTail(expr ast.Expression) (ast.Expression, bool) {
	ident, ok := expr.(*ast.Identifier)
	if !ok || len(ident.Parts) != 1 {
		return nil, false
	}
	if !p.eatSymbol("{") {
		return nil, false
	}
	var items []ast.MapProjectionItem
	for {
		if p.peekSymbol("}") {
			break
		}
		if p.eatSymbol(".") {
			if p.eatSymbol("*") {
				items = append(items, ast.MapProjectionItem{AllProps: true})
			} else {
				name, err := p.identText()
				if err != nil {
					return nil, false
				}
				items = append(items, ast.MapProjectionItem{Key: name, VarShortcut: true})
			}
		} else {
			name, err := p.identText()
			if err != nil {
				return nil, false
			}
			if p.eatSymbol(":") {
				val, err := p.parseExpression()
				if err != nil {
					return nil, false
				}
				items = append(items, ast.MapProjectionItem{Key: name, Value: val})
			} else {
				items = append(items, ast.MapProjectionItem{Key: name, VarShortcut: true})
			}
		}
		if !p.eatSymbol(",") {
			break
		}
	}
	if !p.eatSymbol("}") {
		return nil, false
	}
	return &ast.MapProjection{Variable: ident.Parts[0], Items: items}, true
}

// parsePrimary tries, in priority order, the subquery-valued forms,
// function calls, the `[` family (pattern comprehension, list
// comprehension, list literal), parameters, property access / bare
// identifiers, literals, and parenthesized expressions. Every failed
// alternative restores the cursor (spec §4.F conflict resolution).
func (p *Parser) parsePrimary() (ast.Expression, error) {
	t := p.peek()

	switch {
	case isKeywordTok(t, "EXISTS"):
		return p.parseSubqueryExpr("EXISTS")
	case isKeywordTok(t, "COLLECT"):
		return p.parseSubqueryExpr("COLLECT")
	case isKeywordTok(t, "COUNT"):
		if p.at(p.pos+1).Kind == lexer.TokSymbol && p.at(p.pos+1).Text == "{" {
			return p.parseSubqueryExpr("COUNT")
		}
	case isKeywordTok(t, "TRUE"):
		p.advance()
		return &ast.BoolLit{Value: true}, nil
	case isKeywordTok(t, "FALSE"):
		p.advance()
		return &ast.BoolLit{Value: false}, nil
	case isKeywordTok(t, "NULL"):
		p.advance()
		return &ast.NullLit{}, nil
	}

	switch t.Kind {
	case lexer.TokString:
		p.advance()
		return &ast.StringLit{Value: t.Text}, nil
	case lexer.TokNumber:
		p.advance()
		asInt, asFloat, isFloat := lexer.ParseNumberText(t.Text)
		return &ast.NumberLit{IsFloat: isFloat, Int: asInt, Float: asFloat, Text: t.Text}, nil
	case lexer.TokParameter:
		p.advance()
		return &ast.ParameterExpr{Name: t.Text}, nil
	}

	if p.peekSymbol("(") {
		mark := p.mark()
		p.advance()
		inner, err := p.parseExpression()
		if err == nil && p.eatSymbol(")") && !p.peekRelationshipStart() {
			return &ast.Parenthesized{Inner: inner}, nil
		}
		p.reset(mark)

		// Falls through to the standalone pattern-predicate form
		// (spec §4.F WHERE fallback order): `(a)-[:REL]->(b)` as a
		// boolean existence check rather than a value expression.
		if pattern, ok := p.tryStandalonePatternPredicate(); ok {
			return &ast.PatternPredicate{Pattern: pattern}, nil
		}
	}

	if p.peekSymbol("[") {
		if expr, ok := p.tryPatternComprehension(); ok {
			return expr, nil
		}
		if expr, ok := p.tryListComprehension(); ok {
			return expr, nil
		}
		return p.parseListLiteral()
	}

	if p.peekSymbol("{") {
		return p.parseMapLiteral()
	}

	if t.Kind == lexer.TokIdentifier {
		name, _ := p.identText()
		if p.peekSymbol("(") {
			return p.parseFunctionCallTail(name)
		}
		parts := []string{name}
		for p.peekSymbol(".") && p.at(p.pos+1).Kind == lexer.TokIdentifier {
			p.advance()
			next, _ := p.identText()
			parts = append(parts, next)
		}
		return &ast.Identifier{Parts: parts}, nil
	}

	return nil, p.errorf("unexpected token %q while parsing expression", t.Text)
}

// tryStandalonePatternPredicate attempts a bare pattern sequence as a
// boolean predicate, restoring the cursor on failure.
func (p *Parser) tryStandalonePatternPredicate() ([]ast.PatternElement, bool) {
	mark := p.mark()
	pattern, err := p.parsePatternSequence()
	if err != nil {
		p.reset(mark)
		return nil, false
	}
	return pattern, true
}

func (p *Parser) parseFunctionCallTail(name string) (ast.Expression, error) {
	if err := p.expectSymbol("("); err != nil {
		return nil, err
	}
	var args []ast.Expression
	if !p.peekSymbol(")") {
		for {
			arg, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !p.eatSymbol(",") {
				break
			}
		}
	}
	if err := p.expectSymbol(")"); err != nil {
		return nil, err
	}
	return &ast.FunctionCall{Name: name, Args: args}, nil
}

func (p *Parser) parseSubqueryExpr(which string) (ast.Expression, error) {
	p.advance()
	if err := p.expectSymbol("{"); err != nil {
		return nil, err
	}
	body, err := p.parseQueryBody()
	if err != nil {
		return nil, err
	}
	if err := p.expectSymbol("}"); err != nil {
		return nil, err
	}
	switch which {
	case "EXISTS":
		return &ast.ExistsSubquery{Body: body}, nil
	case "COLLECT":
		return &ast.CollectSubquery{Body: body}, nil
	default:
		return &ast.CountSubquery{Body: body}, nil
	}
}

func (p *Parser) parseListLiteral() (ast.Expression, error) {
	if err := p.expectSymbol("["); err != nil {
		return nil, err
	}
	var items []ast.Expression
	if !p.peekSymbol("]") {
		for {
			item, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			items = append(items, item)
			if !p.eatSymbol(",") {
				break
			}
		}
	}
	if err := p.expectSymbol("]"); err != nil {
		return nil, err
	}
	return &ast.ListLit{Items: items}, nil
}

func (p *Parser) parseMapLiteral() (ast.Expression, error) {
	if err := p.expectSymbol("{"); err != nil {
		return nil, err
	}
	var entries []ast.PropertyMapEntry
	if !p.peekSymbol("}") {
		for {
			key, err := p.mapKey()
			if err != nil {
				return nil, err
			}
			if err := p.expectSymbol(":"); err != nil {
				return nil, err
			}
			val, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			entries = append(entries, ast.PropertyMapEntry{Key: key, Value: val})
			if !p.eatSymbol(",") {
				break
			}
		}
	}
	if err := p.expectSymbol("}"); err != nil {
		return nil, err
	}
	return &ast.MapLit{Entries: entries}, nil
}

func (p *Parser) mapKey() (string, error) {
	t := p.peek()
	if t.Kind == lexer.TokIdentifier || t.Kind == lexer.TokString {
		p.advance()
		return t.Text, nil
	}
	return "", p.errorf("expected map key, got %q", t.Text)
}

// tryListComprehension attempts `[ ident IN expr (WHERE cond)? (| proj)? ]`,
// identified by the `IN` binding keyword. Leaves the cursor untouched
// on failure so parsePrimary can fall through to a plain list literal.
func (p *Parser) tryListComprehension() (ast.Expression, bool) {
	mark := p.mark()
	if !p.eatSymbol("[") {
		return nil, false
	}
	if p.peek().Kind != lexer.TokIdentifier {
		p.reset(mark)
		return nil, false
	}
	varName, _ := p.identText()
	if !p.eatKeyword("IN") {
		p.reset(mark)
		return nil, false
	}
	source, err := p.parseExpression()
	if err != nil {
		p.reset(mark)
		return nil, false
	}
	var where ast.Expression
	if p.eatKeyword("WHERE") {
		where, err = p.parseExpression()
		if err != nil {
			p.reset(mark)
			return nil, false
		}
	}
	var project ast.Expression
	if p.peekSymbol("|") {
		p.advance()
		project, err = p.parseExpression()
		if err != nil {
			p.reset(mark)
			return nil, false
		}
	}
	if !p.eatSymbol("]") {
		p.reset(mark)
		return nil, false
	}
	return &ast.ListComprehension{Variable: varName, Source: source, Where: where, Project: project}, true
}

// tryPatternComprehension attempts `[ pathVar=(pattern) (WHERE cond)? (| proj)? ]`,
// distinguished by a leading `(` (or `pathVar =` then `(`) right after
// `[`, per spec §4.F. Leaves the cursor untouched on failure.
func (p *Parser) tryPatternComprehension() (ast.Expression, bool) {
	mark := p.mark()
	if !p.eatSymbol("[") {
		return nil, false
	}
	pathVar := ""
	if p.peek().Kind == lexer.TokIdentifier && p.at(p.pos+1).Kind == lexer.TokSymbol && p.at(p.pos+1).Text == "=" {
		pathVar, _ = p.identText()
		p.advance()
	}
	if !p.peekSymbol("(") {
		p.reset(mark)
		return nil, false
	}
	pattern, err := p.parsePatternSequence()
	if err != nil {
		p.reset(mark)
		return nil, false
	}
	var where ast.Expression
	if p.eatKeyword("WHERE") {
		where, err = p.parseExpression()
		if err != nil {
			p.reset(mark)
			return nil, false
		}
	}
	var project ast.Expression
	if p.peekSymbol("|") {
		p.advance()
		project, err = p.parseExpression()
		if err != nil {
			p.reset(mark)
			return nil, false
		}
	}
	if !p.eatSymbol("]") {
		p.reset(mark)
		return nil, false
	}
	return &ast.PatternComprehension{PathVariable: pathVar, Pattern: pattern, Where: where, Project: project}, true
}
