package parser

import (
	"github.com/joetechbob/cypher-guard/pkg/ast"
	"github.com/joetechbob/cypher-guard/pkg/lexer"
)

// parsePatternSequence parses one `(node) -[rel]- (node) ...` chain,
// alternating NodePattern and RelationshipPattern/QuantifiedPathPattern
// elements (spec §4.E). Used by MATCH/MERGE/CREATE elements and by
// pattern comprehensions.
func (p *Parser) parsePatternSequence() ([]ast.PatternElement, error) {
	var elems []ast.PatternElement

	node, err := p.parseNodeOrQPP()
	if err != nil {
		return nil, err
	}
	elems = append(elems, node)

	for {
		if p.peekSymbol("-") || p.peekSymbol("<-") {
			rel, err := p.parseRelationship()
			if err != nil {
				return nil, err
			}
			elems = append(elems, rel)

			next, err := p.parseNodeOrQPP()
			if err != nil {
				return nil, err
			}
			elems = append(elems, next)
			continue
		}
		// A QPP (or a node directly following one) may be juxtaposed
		// without a connecting relationship: `(a) ((b)-[:T]->(c)){1,3} (d)`.
		if p.peekSymbol("(") {
			next, err := p.parseNodeOrQPP()
			if err != nil {
				return nil, err
			}
			elems = append(elems, next)
			continue
		}
		break
	}

	return elems, nil
}

// parseNodeOrQPP parses `(` then decides, via the close-paren lookahead
// for a trailing `{min,max}`/`*`/`+`, whether this was a plain node
// pattern or a quantified path pattern wrapping an inner sequence.
func (p *Parser) parseNodeOrQPP() (ast.PatternElement, error) {
	if err := p.expectSymbol("("); err != nil {
		return nil, err
	}

	// A QPP's inner content is itself a pattern sequence: if after the
	// opening paren we see something that isn't `var? labelExpr?
	// propMap? )`, or if after the matching `)` a quantifier follows,
	// treat this as a QPP. We parse optimistically as a node first and
	// only reinterpret if a quantifier follows the close-paren — this
	// matches simple single-node QPP bodies; multi-element QPP bodies
	// (a QPP wrapping `(a)-->(b)`) are detected by a `-` continuing
	// immediately rather than a quantifier.
	mark := p.mark()
	node, nodeErr := p.parseNodeBody()
	if nodeErr == nil && p.peekSymbol(")") {
		afterParen := p.mark()
		p.advance() // consume ')'
		if q, ok := p.tryQuantifierTail(); ok {
			return &ast.QuantifiedPathPattern{Inner: []ast.PatternElement{node}, Min: q.Min, Max: q.Max}, nil
		}
		p.reset(afterParen)
		p.advance()
		return node, nil
	}
	p.reset(mark)

	// Multi-element QPP body: `( pattern )quantifier`.
	inner, err := p.parsePatternSequence()
	if err != nil {
		return nil, err
	}
	var innerWhere ast.Expression
	if p.eatKeyword("WHERE") {
		innerWhere, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	if err := p.expectSymbol(")"); err != nil {
		return nil, err
	}
	q, ok := p.tryQuantifierTail()
	if !ok {
		return nil, p.errorf("expected quantifier after multi-element parenthesized pattern")
	}
	return &ast.QuantifiedPathPattern{Inner: inner, Min: q.Min, Max: q.Max, InnerWhere: innerWhere}, nil
}

// parseNodeBody parses `var? labelExpr? propMap?` with the enclosing
// parens already consumed/not-yet-consumed by the caller (caller has
// consumed the opening paren; this does not consume the closing one).
func (p *Parser) parseNodeBody() (*ast.NodePattern, error) {
	n := &ast.NodePattern{}
	if p.peek().Kind == lexer.TokIdentifier && !p.peekSymbol(":") {
		n.Variable, _ = p.identText()
	}
	if p.peekSymbol(":") {
		labels, err := p.parseLabelExpr()
		if err != nil {
			return nil, err
		}
		n.Labels = labels
	}
	if p.peekSymbol("{") {
		props, err := p.parsePropertyMap()
		if err != nil {
			return nil, err
		}
		n.Properties = props
	}
	return n, nil
}

type qRange struct{ Min, Max *int64 }

// tryQuantifierTail parses a QPP quantifier: `{n}`, `{n,}`, `{,m}`,
// `{n,m}`, or the `*`/`+` shorthand. Returns ok=false (no cursor change)
// if none is present.
func (p *Parser) tryQuantifierTail() (qRange, bool) {
	if p.peekSymbol("*") {
		p.advance()
		zero := int64(0)
		return qRange{Min: &zero}, true
	}
	if p.peekSymbol("+") {
		p.advance()
		one := int64(1)
		return qRange{Min: &one}, true
	}
	if !p.peekSymbol("{") {
		return qRange{}, false
	}
	mark := p.mark()
	p.advance()
	var min, max *int64
	if p.peek().Kind == lexer.TokNumber {
		n, _, _ := lexer.ParseNumberText(p.advance().Text)
		min = &n
	}
	if p.eatSymbol(",") {
		if p.peek().Kind == lexer.TokNumber {
			n, _, _ := lexer.ParseNumberText(p.advance().Text)
			max = &n
		}
	} else {
		max = min
	}
	if !p.eatSymbol("}") {
		p.reset(mark)
		return qRange{}, false
	}
	return qRange{Min: min, Max: max}, true
}

// parseLabelExpr parses the `:Name`/`!`/`&`/`|` label-expression
// grammar, left-associative: primary, then `&`-chains, then `|`-chains
// (spec §4.E). A primary's leading colon is optional after `&`, `|` or
// `!` (`:A&B`, `:!A`), and `:A:B` is read as `A & B`.
func (p *Parser) parseLabelExpr() (ast.LabelExpr, error) {
	return p.parseLabelOr()
}

func (p *Parser) parseLabelOr() (ast.LabelExpr, error) {
	left, err := p.parseLabelAnd()
	if err != nil {
		return nil, err
	}
	for p.peekSymbol("|") {
		p.advance()
		right, err := p.parseLabelAnd()
		if err != nil {
			return nil, err
		}
		left = ast.LabelOr{Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseLabelAnd() (ast.LabelExpr, error) {
	left, err := p.parseLabelPrimary()
	if err != nil {
		return nil, err
	}
	for p.peekSymbol("&") || p.peekSymbol(":") {
		p.eatSymbol("&")
		right, err := p.parseLabelPrimary()
		if err != nil {
			return nil, err
		}
		left = ast.LabelAnd{Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseLabelPrimary() (ast.LabelExpr, error) {
	p.eatSymbol(":")
	if p.eatSymbol("!") {
		inner, err := p.parseLabelPrimary()
		if err != nil {
			return nil, err
		}
		return ast.LabelNot{Inner: inner}, nil
	}
	name, err := p.identText()
	if err != nil {
		return nil, err
	}
	return ast.LabelSingle{Name: name}, nil
}

// parsePropertyMap parses `{ key: expr (, key: expr)* }`.
func (p *Parser) parsePropertyMap() (*ast.PropertyMap, error) {
	if err := p.expectSymbol("{"); err != nil {
		return nil, err
	}
	m := &ast.PropertyMap{}
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
			m.Entries = append(m.Entries, ast.PropertyMapEntry{Key: key, Value: val})
			if !p.eatSymbol(",") {
				break
			}
		}
	}
	if err := p.expectSymbol("}"); err != nil {
		return nil, err
	}
	return m, nil
}

// parseRelationship parses `-[details]-` with direction determined by
// the terminal arrows (spec §4.E). The details block may be entirely
// omitted.
func (p *Parser) parseRelationship() (*ast.RelationshipPattern, error) {
	dirLeft := false
	if p.eatSymbol("<-") {
		dirLeft = true
	} else if err := p.expectSymbol("-"); err != nil {
		return nil, err
	}

	r := &ast.RelationshipPattern{}

	if p.eatSymbol("[") {
		if p.peek().Kind == lexer.TokIdentifier && !p.peekSymbol(":") {
			r.Variable, _ = p.identText()
		}
		if p.peekSymbol(":") {
			typ, err := p.parseLabelExpr()
			if err != nil {
				return nil, err
			}
			r.Type = typ
		}
		if p.peekSymbol("*") {
			r.HasLength = true
			p.advance()
			var min, max *int64
			if p.peek().Kind == lexer.TokNumber {
				n, _, _ := lexer.ParseNumberText(p.advance().Text)
				min = &n
			}
			if p.eatSymbol("..") {
				if p.peek().Kind == lexer.TokNumber {
					n, _, _ := lexer.ParseNumberText(p.advance().Text)
					max = &n
				}
			} else {
				max = min
			}
			r.MinHops, r.MaxHops = min, max
		} else if p.peekSymbol("{") {
			q, ok := p.tryQuantifierTail()
			if ok {
				r.Quantifier = &ast.Quantifier{Min: q.Min, Max: q.Max}
			}
		}
		if p.peekSymbol("{") {
			props, err := p.parsePropertyMap()
			if err != nil {
				return nil, err
			}
			r.Properties = props
		}
		if p.eatKeyword("WHERE") {
			cond, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			r.Where = cond
		}
		if err := p.expectSymbol("]"); err != nil {
			return nil, err
		}
	}

	if p.eatSymbol("->") {
		if dirLeft {
			return nil, p.errorf("relationship pattern cannot have arrows on both ends")
		}
		r.Direction = ast.DirRight
	} else if err := p.expectSymbol("-"); err != nil {
		return nil, err
	} else if dirLeft {
		r.Direction = ast.DirLeft
	} else {
		r.Direction = ast.DirUndirected
	}

	return r, nil
}

// tryParsePathSelector parses the MATCH-level SHORTEST/ANY/ALL modifier
// (spec §4.E), taking care not to eat the function names shortestPath /
// allShortestPaths — it peeks for a following `(` that would make this a
// call instead of a selector keyword, and backs out if so.
func (p *Parser) tryParsePathSelector() (*ast.PathSelector, bool) {
	mark := p.mark()

	if p.peekKeyword("SHORTEST") {
		if p.at(p.pos+1).Kind == lexer.TokSymbol && p.at(p.pos+1).Text == "(" {
			return nil, false
		}
		p.advance()
		k := p.tryCountLiteral()
		if p.peekKeyword("GROUPS") {
			p.advance()
			return &ast.PathSelector{Kind: ast.SelectShortestGroups, K: k}, true
		}
		return &ast.PathSelector{Kind: ast.SelectShortest, K: k}, true
	}

	if p.peekKeyword("ALL") {
		next := p.at(p.pos + 1)
		if isKeywordTok(next, "SHORTEST") {
			p.advance()
			p.advance()
			return &ast.PathSelector{Kind: ast.SelectAllShortest}, true
		}
		if next.Kind == lexer.TokSymbol && next.Text == "," {
			p.reset(mark)
			return nil, false
		}
		// Bare `ALL` selector only makes sense directly before a
		// pattern's variable/paren — if what follows can't start a
		// pattern, this isn't the selector. `all(...)` as a function
		// call is only reachable from expression context, which this
		// head-level selector parser never is.
		if next.Kind == lexer.TokIdentifier || (next.Kind == lexer.TokSymbol && next.Text == "(") {
			p.advance()
			return &ast.PathSelector{Kind: ast.SelectAll}, true
		}
		return nil, false
	}

	if p.peekKeyword("ANY") {
		if p.at(p.pos+1).Kind == lexer.TokSymbol && p.at(p.pos+1).Text == "(" {
			return nil, false
		}
		p.advance()
		k := p.tryCountLiteral()
		return &ast.PathSelector{Kind: ast.SelectAny, K: k}, true
	}

	return nil, false
}

func (p *Parser) tryCountLiteral() *int64 {
	if p.peek().Kind == lexer.TokNumber {
		n, _, _ := lexer.ParseNumberText(p.advance().Text)
		return &n
	}
	return nil
}
