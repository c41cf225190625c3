package extract

import (
	"testing"

	"github.com/joetechbob/cypher-guard/pkg/parser"
	"github.com/joetechbob/cypher-guard/pkg/schema"
	"github.com/stretchr/testify/require"
)

func TestExtractBindsNodeVariableToFirstLabel(t *testing.T) {
	q, err := parser.ParseQuery("MATCH (a:Person:Employee) RETURN a")
	require.NoError(t, err)
	el := Extract(q)
	require.Equal(t, "Person", el.VariableNodeBindings["a"])
	require.True(t, el.Labels["Person"])
	require.True(t, el.Labels["Employee"])
	require.True(t, el.DefinedVariables["a"])
}

func TestExtractRecordsPropertyAccessAndReferencedVariable(t *testing.T) {
	q, err := parser.ParseQuery("MATCH (a:Person) RETURN a.name")
	require.NoError(t, err)
	el := Extract(q)
	require.True(t, el.ReferencedVariables["a"])
	require.Len(t, el.PropertyAccesses, 1)
	require.Equal(t, "a", el.PropertyAccesses[0].Variable)
	require.Equal(t, "name", el.PropertyAccesses[0].Property)
	require.Equal(t, ContextReturn, el.PropertyAccesses[0].Context)
}

func TestExtractRecordsPropertyComparisonWithInferredType(t *testing.T) {
	q, err := parser.ParseQuery("MATCH (a:Person) WHERE a.age > 30 RETURN a")
	require.NoError(t, err)
	el := Extract(q)
	require.Len(t, el.PropertyComparisons, 1)
	cmp := el.PropertyComparisons[0]
	require.Equal(t, "a", cmp.Variable)
	require.Equal(t, "age", cmp.Property)
	require.Equal(t, schema.TypeInteger, cmp.ValueType)
}

func TestExtractInfersDateFunctionCall(t *testing.T) {
	q, err := parser.ParseQuery("MATCH (a:Person) WHERE a.birthday = date('2020-01-01') RETURN a")
	require.NoError(t, err)
	el := Extract(q)
	require.Len(t, el.PropertyComparisons, 1)
	require.Equal(t, schema.TypeDate, el.PropertyComparisons[0].ValueType)
}

func TestExtractUndefinedVariableLeftOutOfDefinedSet(t *testing.T) {
	q, err := parser.ParseQuery("MATCH (p:Project) WHERE c.client_id = 'X' RETURN p")
	require.NoError(t, err)
	el := Extract(q)
	require.True(t, el.ReferencedVariables["c"])
	require.False(t, el.DefinedVariables["c"])
	require.True(t, el.DefinedVariables["p"])
}

func TestExtractWithAliasDefinesVariable(t *testing.T) {
	q, err := parser.ParseQuery("MATCH (a:Person) WITH a.name AS n RETURN n")
	require.NoError(t, err)
	el := Extract(q)
	require.True(t, el.DefinedVariables["n"])
}

func TestExtractRecordsDirectionSequenceForPattern(t *testing.T) {
	q, err := parser.ParseQuery("MATCH (a:Person)-[r:ACTED_IN]->(b:Movie) RETURN a")
	require.NoError(t, err)
	el := Extract(q)
	require.Len(t, el.PatternSequences, 1)
	require.Len(t, el.PatternSequences[0], 3)
	require.Equal(t, "ACTED_IN", el.VariableRelBindings["r"])
}

func TestExtractMergesUnionBranchesIndependently(t *testing.T) {
	q, err := parser.ParseQuery("MATCH (n:Person) RETURN n.name UNION ALL MATCH (m:Company) RETURN m.name")
	require.NoError(t, err)
	el := Extract(q)
	require.True(t, el.DefinedVariables["n"])
	require.True(t, el.DefinedVariables["m"])
	require.True(t, el.Labels["Person"])
	require.True(t, el.Labels["Company"])
}
