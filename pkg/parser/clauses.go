package parser

import (
	"github.com/joetechbob/cypher-guard/pkg/ast"
	"github.com/joetechbob/cypher-guard/pkg/lexer"
)

func (p *Parser) parseMatchClause(optional bool) (*ast.MatchClause, error) {
	startPos := p.pos2position()
	if err := p.expectKeyword("MATCH"); err != nil {
		return nil, err
	}
	m := &ast.MatchClause{Base: ast.NewBase(startPos), Optional: optional}

	if sel, ok := p.tryParsePathSelector(); ok {
		m.Selector = sel
	}

	for {
		elem, err := p.parseMatchElement()
		if err != nil {
			return nil, err
		}
		m.Elements = append(m.Elements, elem)
		if !p.eatSymbol(",") {
			break
		}
	}

	if optional {
		for _, e := range m.Elements {
			for _, pe := range ast.FlattenPattern(e.Pattern) {
				if rel, ok := pe.(*ast.RelationshipPattern); ok {
					rel.Optional = true
				}
			}
		}
	}

	return m, nil
}

// parseMatchElement parses one comma-separated MATCH entry: an optional
// `pathVar =` binding, an optional shortestPath()/allShortestPaths()
// wrapper, then a pattern sequence.
func (p *Parser) parseMatchElement() (*ast.MatchElement, error) {
	e := &ast.MatchElement{}

	if p.peek().Kind == lexer.TokIdentifier && p.at(p.pos+1).Kind == lexer.TokSymbol && p.at(p.pos+1).Text == "=" {
		mark := p.mark()
		name, _ := p.identText()
		p.advance() // '='
		if p.peekKeyword("shortestPath") || p.peekKeyword("allShortestPaths") {
			funcName, _ := p.identText()
			if err := p.expectSymbol("("); err != nil {
				p.reset(mark)
			} else {
				pattern, err := p.parsePatternSequence()
				if err != nil {
					return nil, err
				}
				if err := p.expectSymbol(")"); err != nil {
					return nil, err
				}
				e.PathVariable = name
				e.PathFunc = funcName
				e.Pattern = pattern
				return e, nil
			}
		} else {
			e.PathVariable = name
		}
	}

	if p.peekKeyword("shortestPath") || p.peekKeyword("allShortestPaths") {
		funcName, _ := p.identText()
		if err := p.expectSymbol("("); err == nil {
			pattern, err := p.parsePatternSequence()
			if err != nil {
				return nil, err
			}
			if err := p.expectSymbol(")"); err != nil {
				return nil, err
			}
			e.PathFunc = funcName
			e.Pattern = pattern
			return e, nil
		}
	}

	pattern, err := p.parsePatternSequence()
	if err != nil {
		return nil, err
	}
	e.Pattern = pattern
	return e, nil
}

func (p *Parser) parseWhereClause() (*ast.WhereClause, error) {
	startPos := p.pos2position()
	if err := p.expectKeyword("WHERE"); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ast.WhereClause{Base: ast.NewBase(startPos), Condition: cond}, nil
}

func (p *Parser) parseItemList() ([]ast.Item, error) {
	var items []ast.Item
	for {
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		it := ast.Item{Expr: expr}
		if p.eatKeyword("AS") {
			alias, err := p.identText()
			if err != nil {
				return nil, err
			}
			it.Alias = alias
		}
		items = append(items, it)
		if !p.eatSymbol(",") {
			break
		}
		if p.peekSymbol(")") || p.peek().Kind == lexer.TokEOF {
			return nil, p.errorf("trailing comma in item list")
		}
	}
	return items, nil
}

func (p *Parser) parseWithClause() (*ast.WithClause, error) {
	startPos := p.pos2position()
	if err := p.expectKeyword("WITH"); err != nil {
		return nil, err
	}
	w := &ast.WithClause{Base: ast.NewBase(startPos)}
	if p.eatKeyword("DISTINCT") {
		w.Distinct = true
	}
	items, err := p.parseItemList()
	if err != nil {
		return nil, err
	}
	w.Items = items
	return w, nil
}

func (p *Parser) parseReturnClause() (*ast.ReturnClause, error) {
	startPos := p.pos2position()
	if err := p.expectKeyword("RETURN"); err != nil {
		return nil, err
	}
	r := &ast.ReturnClause{Base: ast.NewBase(startPos)}
	if p.eatKeyword("DISTINCT") {
		r.Distinct = true
	}
	items, err := p.parseItemList()
	if err != nil {
		return nil, err
	}
	r.Items = items

	if p.eatKeywords("ORDER", "BY") {
		for {
			expr, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			desc := false
			if p.eatKeyword("DESC") || p.eatKeyword("DESCENDING") {
				desc = true
			} else {
				p.eatKeyword("ASC")
				p.eatKeyword("ASCENDING")
			}
			r.OrderBy = append(r.OrderBy, ast.OrderItem{Expr: expr, Descending: desc})
			if !p.eatSymbol(",") {
				break
			}
		}
	}
	if p.eatKeyword("SKIP") {
		skip, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		r.Skip = skip
	}
	if p.eatKeyword("LIMIT") {
		limit, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		r.Limit = limit
	}
	return r, nil
}

// parseUnwindClause parses `UNWIND expr AS ident`. The expression form
// is restricted per spec §4.G to list literal, identifier, property
// access, function call, parameter — not arbitrary arithmetic — so this
// uses parsePostfix (which covers all five) rather than the full
// parseExpression climb.
func (p *Parser) parseUnwindClause() (*ast.UnwindClause, error) {
	startPos := p.pos2position()
	if err := p.expectKeyword("UNWIND"); err != nil {
		return nil, err
	}
	src, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("AS"); err != nil {
		return nil, err
	}
	name, err := p.identText()
	if err != nil {
		return nil, err
	}
	return &ast.UnwindClause{Base: ast.NewBase(startPos), Source: src, Variable: name}, nil
}

// parseCallClause parses either `CALL { subquery } [IN TRANSACTIONS (OF n ROWS)?]`
// or `CALL ns.proc(args) [YIELD ident, ...]` (spec §4.G).
func (p *Parser) parseCallClause() (*ast.CallClause, error) {
	startPos := p.pos2position()
	if err := p.expectKeyword("CALL"); err != nil {
		return nil, err
	}
	c := &ast.CallClause{Base: ast.NewBase(startPos)}

	if p.eatSymbol("{") {
		body, err := p.parseQueryBody()
		if err != nil {
			return nil, err
		}
		if err := p.expectSymbol("}"); err != nil {
			return nil, err
		}
		c.Subquery = body
		if p.eatKeywords("IN", "TRANSACTIONS") {
			c.InTransactions = true
			if p.eatKeyword("OF") {
				if p.peek().Kind == lexer.TokNumber {
					n, _, _ := lexer.ParseNumberText(p.advance().Text)
					c.BatchSize = &n
				}
				p.eatKeyword("ROWS")
			}
		}
		return c, nil
	}

	proc, err := p.dottedName()
	if err != nil {
		return nil, err
	}
	c.Procedure = proc
	if p.eatSymbol("(") {
		if !p.peekSymbol(")") {
			for {
				arg, err := p.parseExpression()
				if err != nil {
					return nil, err
				}
				c.Args = append(c.Args, arg)
				if !p.eatSymbol(",") {
					break
				}
			}
		}
		if err := p.expectSymbol(")"); err != nil {
			return nil, err
		}
	}
	if p.eatKeyword("YIELD") {
		for {
			name, err := p.identText()
			if err != nil {
				return nil, err
			}
			c.Yield = append(c.Yield, name)
			if !p.eatSymbol(",") {
				break
			}
		}
	}
	return c, nil
}

func (p *Parser) parseMergeClause() (*ast.MergeClause, error) {
	startPos := p.pos2position()
	if err := p.expectKeyword("MERGE"); err != nil {
		return nil, err
	}
	pattern, err := p.parsePatternSequence()
	if err != nil {
		return nil, err
	}
	m := &ast.MergeClause{Base: ast.NewBase(startPos), Pattern: pattern}

	// Zero or one ON CREATE SET and zero or one ON MATCH SET, in either
	// order (spec §4.G).
	for i := 0; i < 2; i++ {
		if p.eatKeywords("ON", "CREATE") {
			set, err := p.parseSetClause()
			if err != nil {
				return nil, err
			}
			m.OnCreate = set
		} else if p.eatKeywords("ON", "MATCH") {
			set, err := p.parseSetClause()
			if err != nil {
				return nil, err
			}
			m.OnMatch = set
		} else {
			break
		}
	}
	return m, nil
}

func (p *Parser) parseCreateClause() (*ast.CreateClause, error) {
	startPos := p.pos2position()
	if err := p.expectKeyword("CREATE"); err != nil {
		return nil, err
	}
	c := &ast.CreateClause{Base: ast.NewBase(startPos)}
	for {
		pattern, err := p.parsePatternSequence()
		if err != nil {
			return nil, err
		}
		c.Patterns = append(c.Patterns, pattern)
		if !p.eatSymbol(",") {
			break
		}
	}
	return c, nil
}

func (p *Parser) parseSetClause() (*ast.SetClause, error) {
	startPos := p.pos2position()
	if err := p.expectKeyword("SET"); err != nil {
		return nil, err
	}
	s := &ast.SetClause{Base: ast.NewBase(startPos)}
	for {
		item, err := p.parseSetItem()
		if err != nil {
			return nil, err
		}
		s.Items = append(s.Items, item)
		if !p.eatSymbol(",") {
			break
		}
	}
	return s, nil
}

func (p *Parser) parseSetItem() (ast.SetItem, error) {
	name, err := p.identText()
	if err != nil {
		return ast.SetItem{}, err
	}
	if p.peekSymbol(":") {
		var labels []string
		for p.peekSymbol(":") {
			p.advance()
			l, err := p.identText()
			if err != nil {
				return ast.SetItem{}, err
			}
			labels = append(labels, l)
		}
		return ast.SetItem{Kind: ast.SetLabels, Variable: name, Labels: labels}, nil
	}
	if p.eatSymbol(".") {
		prop, err := p.identText()
		if err != nil {
			return ast.SetItem{}, err
		}
		if err := p.expectSymbol("="); err != nil {
			return ast.SetItem{}, err
		}
		val, err := p.parseExpression()
		if err != nil {
			return ast.SetItem{}, err
		}
		return ast.SetItem{Kind: ast.SetProperty, Variable: name, Property: prop, Value: val}, nil
	}
	additive := p.eatSymbol("+=")
	if !additive {
		if err := p.expectSymbol("="); err != nil {
			return ast.SetItem{}, err
		}
	}
	val, err := p.parseExpression()
	if err != nil {
		return ast.SetItem{}, err
	}
	return ast.SetItem{Kind: ast.SetAll, Variable: name, Value: val, Additive: additive}, nil
}

func (p *Parser) parseDeleteClause(detach bool) (*ast.DeleteClause, error) {
	startPos := p.pos2position()
	if err := p.expectKeyword("DELETE"); err != nil {
		return nil, err
	}
	d := &ast.DeleteClause{Base: ast.NewBase(startPos), Detach: detach}
	for {
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		d.Expressions = append(d.Expressions, expr)
		if !p.eatSymbol(",") {
			break
		}
	}
	return d, nil
}

func (p *Parser) parseRemoveClause() (*ast.RemoveClause, error) {
	startPos := p.pos2position()
	if err := p.expectKeyword("REMOVE"); err != nil {
		return nil, err
	}
	r := &ast.RemoveClause{Base: ast.NewBase(startPos)}
	for {
		name, err := p.identText()
		if err != nil {
			return nil, err
		}
		item := ast.RemoveItem{Variable: name}
		if p.eatSymbol(".") {
			prop, err := p.identText()
			if err != nil {
				return nil, err
			}
			item.Property = prop
		} else {
			for p.peekSymbol(":") {
				p.advance()
				l, err := p.identText()
				if err != nil {
					return nil, err
				}
				item.Labels = append(item.Labels, l)
			}
		}
		r.Items = append(r.Items, item)
		if !p.eatSymbol(",") {
			break
		}
	}
	return r, nil
}

// parseForeachClause parses `FOREACH ( ident IN iterable | updates )`
// where updates is a comma-separated list of CREATE/MERGE/SET/DELETE/
// REMOVE/FOREACH clauses (spec §4.G).
func (p *Parser) parseForeachClause() (*ast.ForeachClause, error) {
	startPos := p.pos2position()
	if err := p.expectKeyword("FOREACH"); err != nil {
		return nil, err
	}
	if err := p.expectSymbol("("); err != nil {
		return nil, err
	}
	name, err := p.identText()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("IN"); err != nil {
		return nil, err
	}
	iterable, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.expectSymbol("|"); err != nil {
		return nil, err
	}
	f := &ast.ForeachClause{Base: ast.NewBase(startPos), Variable: name, Iterable: iterable}
	for {
		t := p.peek()
		var update ast.Clause
		var uerr error
		switch {
		case isKeywordTok(t, "CREATE"):
			update, uerr = p.parseCreateClause()
		case isKeywordTok(t, "MERGE"):
			update, uerr = p.parseMergeClause()
		case isKeywordTok(t, "SET"):
			update, uerr = p.parseSetClause()
		case isKeywordTok(t, "DELETE"):
			update, uerr = p.parseDeleteClause(false)
		case isKeywordTok(t, "DETACH"):
			p.advance()
			update, uerr = p.parseDeleteClause(true)
		case isKeywordTok(t, "REMOVE"):
			update, uerr = p.parseRemoveClause()
		case isKeywordTok(t, "FOREACH"):
			update, uerr = p.parseForeachClause()
		default:
			return nil, p.errorf("expected an update clause inside FOREACH, got %q", t.Text)
		}
		if uerr != nil {
			return nil, uerr
		}
		f.Updates = append(f.Updates, update)
		if !p.eatSymbol(",") {
			break
		}
	}
	if err := p.expectSymbol(")"); err != nil {
		return nil, err
	}
	return f, nil
}

// parseUsingPeriodicCommit handles the optional `USING PERIODIC COMMIT n?`
// prefix that may precede LOAD CSV.
func (p *Parser) parseUsingPeriodicCommit() (*ast.LoadCSVClause, error) {
	if err := p.expectKeyword("USING"); err != nil {
		return nil, err
	}
	if err := p.expectKeywords2("PERIODIC", "COMMIT"); err != nil {
		return nil, err
	}
	var commit *int64
	if p.peek().Kind == lexer.TokNumber {
		n, _, _ := lexer.ParseNumberText(p.advance().Text)
		commit = &n
	}
	return p.parseLoadCSVClause(commit)
}

func (p *Parser) expectKeywords2(a, b string) error {
	if !p.eatKeywords(a, b) {
		return p.errorf("expected %q %q", a, b)
	}
	return nil
}

// parseLoadCSVClause parses `LOAD CSV (WITH HEADERS)? FROM expr AS ident
// (FIELDTERMINATOR expr)?`, with an optional already-parsed leading
// periodic-commit count (spec §4.G).
func (p *Parser) parseLoadCSVClause(periodicCommit *int64) (*ast.LoadCSVClause, error) {
	startPos := p.pos2position()
	if err := p.expectKeyword("LOAD"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("CSV"); err != nil {
		return nil, err
	}
	l := &ast.LoadCSVClause{Base: ast.NewBase(startPos), PeriodicCommit: periodicCommit}
	if p.eatKeywords("WITH", "HEADERS") {
		l.WithHeaders = true
	}
	if err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	from, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	l.From = from
	if err := p.expectKeyword("AS"); err != nil {
		return nil, err
	}
	name, err := p.identText()
	if err != nil {
		return nil, err
	}
	l.Variable = name
	if p.eatKeyword("FIELDTERMINATOR") {
		term, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		l.FieldTerminator = term
	}
	return l, nil
}
