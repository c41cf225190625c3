package parser

import (
	"testing"

	"github.com/joetechbob/cypher-guard/pkg/ast"
	"github.com/joetechbob/cypher-guard/pkg/cgerrors"
	"github.com/stretchr/testify/require"
)

func TestParseQueryBasicMatchReturn(t *testing.T) {
	q, err := ParseQuery("MATCH (a:Person) RETURN a")
	require.NoError(t, err)
	require.Len(t, q.Match, 1)
	require.Len(t, q.Return, 1)
}

func TestParseQueryRejectsEmptyClauseSequence(t *testing.T) {
	_, err := ParseQuery("   ")
	require.Error(t, err)
}

func TestParseQueryLabelExpression(t *testing.T) {
	q, err := ParseQuery("MATCH (a:Person&Employee|Contractor) RETURN a")
	require.NoError(t, err)
	node := q.Match[0].Elements[0].Pattern[0].(*ast.NodePattern)
	_, ok := node.Labels.(ast.LabelOr)
	require.True(t, ok)
}

func TestParseQueryNegatedLabel(t *testing.T) {
	q, err := ParseQuery("MATCH (a:!Person) RETURN a")
	require.NoError(t, err)
	node := q.Match[0].Elements[0].Pattern[0].(*ast.NodePattern)
	neg, ok := node.Labels.(ast.LabelNot)
	require.True(t, ok)
	single, ok := neg.Inner.(ast.LabelSingle)
	require.True(t, ok)
	require.Equal(t, "Person", single.Name)
}

func TestParseQueryQuantifiedPathPattern(t *testing.T) {
	q, err := ParseQuery("MATCH (a)((b)-[:KNOWS]->(c)){1,3} RETURN a")
	require.NoError(t, err)
	elems := q.Match[0].Elements[0].Pattern
	require.Len(t, elems, 2)
	qpp, ok := elems[1].(*ast.QuantifiedPathPattern)
	require.True(t, ok)
	require.NotNil(t, qpp.Min)
	require.Equal(t, int64(1), *qpp.Min)
	require.NotNil(t, qpp.Max)
	require.Equal(t, int64(3), *qpp.Max)
	require.Len(t, qpp.Inner, 3)
}

func TestParseQueryVariableLengthRelationship(t *testing.T) {
	q, err := ParseQuery("MATCH (a)-[:KNOWS*1..3]->(b) RETURN a")
	require.NoError(t, err)
	rel := q.Match[0].Elements[0].Pattern[1].(*ast.RelationshipPattern)
	require.True(t, rel.HasLength)
	require.Equal(t, int64(1), *rel.MinHops)
	require.Equal(t, int64(3), *rel.MaxHops)
}

func TestParseQueryShortestPathSelector(t *testing.T) {
	q, err := ParseQuery("MATCH SHORTEST 2 (a)-[:KNOWS]->(b) RETURN a")
	require.NoError(t, err)
	sel := q.Match[0].Selector
	require.NotNil(t, sel)
	require.Equal(t, ast.SelectShortest, sel.Kind)
	require.Equal(t, int64(2), *sel.K)
}

func TestParseQueryShortestAsIdentifierNotSelector(t *testing.T) {
	q, err := ParseQuery("MATCH (shortest:Person) RETURN shortest")
	require.NoError(t, err)
	require.Nil(t, q.Match[0].Selector)
	node := q.Match[0].Elements[0].Pattern[0].(*ast.NodePattern)
	require.Equal(t, "shortest", node.Variable)
}

func TestParseQueryAllPathSelector(t *testing.T) {
	q, err := ParseQuery("MATCH ALL (a:Person)-[:KNOWS*]-(b:Person) RETURN a, b")
	require.NoError(t, err)
	sel := q.Match[0].Selector
	require.NotNil(t, sel)
	require.Equal(t, ast.SelectAll, sel.Kind)
}

func TestParseQueryUnionAll(t *testing.T) {
	q, err := ParseQuery("MATCH (a:Person) RETURN a UNION ALL MATCH (b:Company) RETURN b")
	require.NoError(t, err)
	require.NotNil(t, q.Union)
	require.True(t, q.Union.IsAll)
	require.Len(t, q.Union.Body.Match, 1)
}

func TestParseQueryUseClause(t *testing.T) {
	q, err := ParseQuery("USE myGraph MATCH (a) RETURN a")
	require.NoError(t, err)
	require.NotNil(t, q.Use)
	require.Equal(t, []string{"myGraph"}, q.Use.Graph.Parts)
}

func TestParseQueryWhereBeforeMatchIsRejected(t *testing.T) {
	_, err := ParseQuery("WHERE a.x = 1 MATCH (a) RETURN a")
	require.Error(t, err)
	pe, ok := err.(*cgerrors.ParseError)
	require.True(t, ok)
	require.Equal(t, cgerrors.KindWhereBeforeMatch, pe.Kind)
}

func TestParseQueryListComprehension(t *testing.T) {
	q, err := ParseQuery("MATCH (n) WITH [x IN range(1,10) WHERE x > 5 | x * 2] AS evens RETURN evens")
	require.NoError(t, err)
	require.Len(t, q.With, 1)
	_, ok := q.With[0].Items[0].Expr.(*ast.ListComprehension)
	require.True(t, ok)
}

func TestParseQueryMapLiteral(t *testing.T) {
	q, err := ParseQuery("RETURN {name: 'Bob', age: 30} AS m")
	require.NoError(t, err)
	lit, ok := q.Return[0].Items[0].Expr.(*ast.MapLit)
	require.True(t, ok)
	require.Len(t, lit.Entries, 2)
}
