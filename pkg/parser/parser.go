// Package parser turns Cypher text into the pkg/ast tree: lexical
// primitives and clause keywords come together here as a hand-written
// recursive-descent parser with precedence climbing for expressions.
// Nothing here is generated and nothing here is a parser-combinator
// library — every alternative is tried in an explicit priority order
// and every failed attempt leaves the cursor exactly where it started,
// so callers can backtrack cheaply (see tryX helpers throughout).
package parser

import (
	"fmt"
	"strings"

	"github.com/joetechbob/cypher-guard/pkg/ast"
	"github.com/joetechbob/cypher-guard/pkg/cgerrors"
	"github.com/joetechbob/cypher-guard/pkg/lexer"
	"github.com/joetechbob/cypher-guard/pkg/order"
)

// Parser walks a flat token stream. It never mutates tokens, only its
// own position — every "try" helper saves p.pos before attempting an
// alternative and restores it on failure.
type Parser struct {
	toks []lexer.Token
	pos  int
	src  string
}

// ParseQuery is the package's top-level entry point: text in, a Query
// AST (with any UNION chain attached) or a ParseError out. The entire
// input must be consumed; leftover tokens are a parse error.
func ParseQuery(text string) (*ast.Query, error) {
	toks, err := lexer.Tokenize(text)
	if err != nil {
		return nil, &cgerrors.ParseError{Kind: cgerrors.KindSyntax, Message: err.Error(), Pos: lexer.PositionOf(text, 0)}
	}
	p := &Parser{toks: toks, src: text}
	q, err := p.parseQueryBody()
	if err != nil {
		return nil, err
	}
	if p.peek().Kind != lexer.TokEOF {
		return nil, p.errorf("unexpected input after query")
	}
	return q, nil
}

func (p *Parser) mark() int         { return p.pos }
func (p *Parser) reset(mark int)    { p.pos = mark }
func (p *Parser) peek() lexer.Token { return p.toks[p.pos] }
func (p *Parser) at(i int) lexer.Token {
	if i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[i]
}
func (p *Parser) advance() lexer.Token {
	t := p.toks[p.pos]
	if t.Kind != lexer.TokEOF {
		p.pos++
	}
	return t
}

func (p *Parser) pos2position() cgerrors.Position {
	return lexer.PositionOf(p.src, p.peek().Offset)
}

func (p *Parser) errorf(format string, args ...interface{}) error {
	return cgerrors.NewSyntaxError(p.pos2position(), fmt.Sprintf(format, args...))
}

func isKeywordTok(t lexer.Token, kw string) bool {
	return t.Kind == lexer.TokIdentifier && strings.EqualFold(t.Text, kw)
}

func (p *Parser) peekKeyword(kw string) bool { return isKeywordTok(p.peek(), kw) }

// peekKeywords checks a run of consecutive identifier tokens against a
// multi-word keyword phrase (e.g. "ORDER", "BY") without consuming.
func (p *Parser) peekKeywords(kws ...string) bool {
	for i, kw := range kws {
		if !isKeywordTok(p.at(p.pos+i), kw) {
			return false
		}
	}
	return true
}

func (p *Parser) eatKeyword(kw string) bool {
	if p.peekKeyword(kw) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) eatKeywords(kws ...string) bool {
	if p.peekKeywords(kws...) {
		for range kws {
			p.advance()
		}
		return true
	}
	return false
}

func (p *Parser) expectKeyword(kw string) error {
	if p.eatKeyword(kw) {
		return nil
	}
	return p.errorf("expected %q, got %q", kw, p.peek().Text)
}

func (p *Parser) peekSymbol(sym string) bool {
	t := p.peek()
	return t.Kind == lexer.TokSymbol && t.Text == sym
}

func (p *Parser) eatSymbol(sym string) bool {
	if p.peekSymbol(sym) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expectSymbol(sym string) error {
	if p.eatSymbol(sym) {
		return nil
	}
	return p.errorf("expected %q, got %q", sym, p.peek().Text)
}

// identText returns the raw text of an identifier token, consuming it,
// or an error if the next token isn't one.
func (p *Parser) identText() (string, error) {
	t := p.peek()
	if t.Kind != lexer.TokIdentifier {
		return "", p.errorf("expected identifier, got %q", t.Text)
	}
	p.advance()
	return t.Text, nil
}

// dottedName reads `ident (. ident)*`, used for procedure names and USE
// graph references.
func (p *Parser) dottedName() ([]string, error) {
	first, err := p.identText()
	if err != nil {
		return nil, err
	}
	parts := []string{first}
	for p.peekSymbol(".") {
		mark := p.mark()
		p.advance()
		if p.peek().Kind != lexer.TokIdentifier {
			p.reset(mark)
			break
		}
		next, _ := p.identText()
		parts = append(parts, next)
	}
	return parts, nil
}

// parseQueryBody parses one USE? clause* (UNION [ALL] query)? body. It is
// called both for the top-level query and recursively for UNION tails
// and CALL { ... } subquery bodies (component H's mutual recursion with
// the expression parser's subquery-valued expressions).
func (p *Parser) parseQueryBody() (*ast.Query, error) {
	q := &ast.Query{}

	use, err := p.tryParseUse()
	if err != nil {
		return nil, err
	}
	q.Use = use

	for {
		clause, matched, err := p.tryParseClause()
		if err != nil {
			return nil, err
		}
		if !matched {
			break
		}
		q.Sequence = append(q.Sequence, clause)
		attachClause(q, clause)
	}

	if len(q.Sequence) == 0 {
		return nil, p.errorf("empty query")
	}

	if err := order.Validate(q.Sequence); err != nil {
		return nil, err
	}

	if isAll, matched := p.tryParseUnionHead(); matched {
		body, err := p.parseQueryBody()
		if err != nil {
			return nil, err
		}
		q.Union = &ast.UnionQuery{IsAll: isAll, Body: body}
	}

	return q, nil
}

func attachClause(q *ast.Query, c ast.Clause) {
	switch v := c.(type) {
	case *ast.MatchClause:
		q.Match = append(q.Match, v)
	case *ast.MergeClause:
		q.Merge = append(q.Merge, v)
	case *ast.CreateClause:
		q.Create = append(q.Create, v)
	case *ast.WhereClause:
		q.Where = append(q.Where, v)
	case *ast.WithClause:
		q.With = append(q.With, v)
	case *ast.ReturnClause:
		q.Return = append(q.Return, v)
	case *ast.UnwindClause:
		q.Unwind = append(q.Unwind, v)
	case *ast.CallClause:
		q.Call = append(q.Call, v)
	case *ast.SetClause:
		q.Set = append(q.Set, v)
	case *ast.DeleteClause:
		q.Delete = append(q.Delete, v)
	case *ast.RemoveClause:
		q.Remove = append(q.Remove, v)
	case *ast.ForeachClause:
		q.Foreach = append(q.Foreach, v)
	case *ast.LoadCSVClause:
		q.LoadCSV = append(q.LoadCSV, v)
	}
}

func (p *Parser) tryParseUnionHead() (isAll bool, matched bool) {
	if !p.eatKeyword("UNION") {
		return false, false
	}
	if p.eatKeyword("ALL") {
		return true, true
	}
	return false, true
}

// tryParseUse parses a leading USE clause. It must appear before any
// other clause (§4.G), which parseQueryBody enforces by only calling
// this once, up front.
func (p *Parser) tryParseUse() (*ast.UseClause, error) {
	if !p.peekKeyword("USE") {
		return nil, nil
	}
	startPos := p.pos2position()
	p.advance()

	ref, err := p.parseGraphRef()
	if err != nil {
		return nil, err
	}
	return &ast.UseClause{Base: ast.NewBase(startPos), Graph: ref}, nil
}

func (p *Parser) parseGraphRef() (ast.GraphRef, error) {
	first, err := p.identText()
	if err != nil {
		return ast.GraphRef{}, err
	}
	parts := []string{first}
	for p.peekSymbol(".") {
		mark := p.mark()
		p.advance()
		if p.peek().Kind != lexer.TokIdentifier {
			p.reset(mark)
			break
		}
		next, _ := p.identText()
		parts = append(parts, next)
		if p.peekSymbol("(") {
			funcName := strings.Join(parts, ".")
			if funcName == "graph.byName" || funcName == "graph.byElementId" {
				p.advance()
				arg, err := p.parseExpression()
				if err != nil {
					return ast.GraphRef{}, err
				}
				if err := p.expectSymbol(")"); err != nil {
					return ast.GraphRef{}, err
				}
				return ast.GraphRef{FuncName: funcName, Arg: arg}, nil
			}
		}
	}
	return ast.GraphRef{Parts: parts}, nil
}

// tryParseClause dispatches on the next keyword to the matching clause
// parser. Clause keywords are mutually exclusive on their leading
// token(s), so this is a plain switch rather than ordered-choice
// backtracking — the ordered-choice discipline in this grammar is
// reserved for places where the *same* leading token can start more
// than one construct (expressions, path selectors).
func (p *Parser) tryParseClause() (ast.Clause, bool, error) {
	t := p.peek()
	if t.Kind != lexer.TokIdentifier {
		return nil, false, nil
	}
	switch strings.ToUpper(t.Text) {
	case "OPTIONAL":
		if isKeywordTok(p.at(p.pos+1), "MATCH") {
			p.advance()
			c, err := p.parseMatchClause(true)
			return c, true, err
		}
		return nil, false, nil
	case "MATCH":
		c, err := p.parseMatchClause(false)
		return c, true, err
	case "MERGE":
		c, err := p.parseMergeClause()
		return c, true, err
	case "CREATE":
		c, err := p.parseCreateClause()
		return c, true, err
	case "WHERE":
		c, err := p.parseWhereClause()
		return c, true, err
	case "WITH":
		c, err := p.parseWithClause()
		return c, true, err
	case "RETURN":
		c, err := p.parseReturnClause()
		return c, true, err
	case "UNWIND":
		c, err := p.parseUnwindClause()
		return c, true, err
	case "CALL":
		c, err := p.parseCallClause()
		return c, true, err
	case "SET":
		c, err := p.parseSetClause()
		return c, true, err
	case "DELETE":
		c, err := p.parseDeleteClause(false)
		return c, true, err
	case "DETACH":
		if !isKeywordTok(p.at(p.pos+1), "DELETE") {
			return nil, false, nil
		}
		p.advance()
		c, err := p.parseDeleteClause(true)
		return c, true, err
	case "REMOVE":
		c, err := p.parseRemoveClause()
		return c, true, err
	case "FOREACH":
		c, err := p.parseForeachClause()
		return c, true, err
	case "LOAD":
		c, err := p.parseLoadCSVClause(nil)
		return c, true, err
	case "USING":
		c, err := p.parseUsingPeriodicCommit()
		return c, true, err
	default:
		return nil, false, nil
	}
}

