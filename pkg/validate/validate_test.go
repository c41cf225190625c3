package validate

import (
	"testing"

	"github.com/joetechbob/cypher-guard/pkg/cgerrors"
	"github.com/joetechbob/cypher-guard/pkg/extract"
	"github.com/joetechbob/cypher-guard/pkg/parser"
	"github.com/joetechbob/cypher-guard/pkg/schema"
	"github.com/stretchr/testify/require"
)

func extractFrom(t *testing.T, query string) *extract.QueryElements {
	t.Helper()
	q, err := parser.ParseQuery(query)
	require.NoError(t, err)
	return extract.Extract(q)
}

func TestValidateCleanQueryProducesNoErrors(t *testing.T) {
	s := schema.New()
	s.AddNodeLabel("Person")
	el := extractFrom(t, "MATCH (a:Person) RETURN a")
	require.Empty(t, Validate(el, s))
}

func TestValidateUnknownLabel(t *testing.T) {
	s := schema.New()
	el := extractFrom(t, "MATCH (a:Ghost) RETURN a")
	errs := Validate(el, s)
	require.Len(t, errs, 1)
	require.Equal(t, cgerrors.KindInvalidNodeLabel, errs[0].Kind)
	require.Equal(t, "Ghost", errs[0].Label)
}

func TestValidateUnknownRelationshipType(t *testing.T) {
	s := schema.New()
	s.AddNodeLabel("Person")
	s.AddNodeLabel("Movie")
	el := extractFrom(t, "MATCH (a:Person)-[:UNKNOWN_REL]->(b:Movie) RETURN a")
	errs := Validate(el, s)
	found := false
	for _, e := range errs {
		if e.Kind == cgerrors.KindInvalidRelationshipType {
			require.Equal(t, "UNKNOWN_REL", e.RelType)
			found = true
		}
	}
	require.True(t, found)
}

func TestValidateDirectionMismatch(t *testing.T) {
	s := schema.New()
	s.AddNodeLabel("Person")
	s.AddNodeLabel("Movie")
	s.AddRelationshipPattern("Person", "Movie", "ACTED_IN")
	el := extractFrom(t, "MATCH (a:Person)<-[:ACTED_IN]-(b:Movie) RETURN a, b")
	errs := Validate(el, s)
	require.Len(t, errs, 1)
	require.Equal(t, cgerrors.KindInvalidRelationship, errs[0].Kind)
	require.Contains(t, errs[0].Description, "expected Person->Movie")
}

func TestValidateDirectionMatchesProducesNoError(t *testing.T) {
	s := schema.New()
	s.AddNodeLabel("Person")
	s.AddNodeLabel("Movie")
	s.AddRelationshipPattern("Person", "Movie", "ACTED_IN")
	el := extractFrom(t, "MATCH (a:Person)-[:ACTED_IN]->(b:Movie) RETURN a, b")
	require.Empty(t, Validate(el, s))
}

func TestValidateUndefinedVariableSuppressesCascadingPropertyAccessError(t *testing.T) {
	s := schema.New()
	s.AddNodeLabel("Project")
	el := extractFrom(t, "MATCH (p:Project) WHERE c.client_id = 'X' RETURN p")
	errs := Validate(el, s)
	require.Len(t, errs, 1)
	require.Equal(t, cgerrors.KindUndefinedVariable, errs[0].Kind)
	require.Equal(t, "c", errs[0].Variable)
}

func TestValidateInvalidPropertyAccessOnDefinedVariable(t *testing.T) {
	s := schema.New()
	s.AddNodeLabel("Person")
	el := extractFrom(t, "MATCH (a:Person) RETURN a.nonexistent")
	errs := Validate(el, s)
	found := false
	for _, e := range errs {
		if e.Kind == cgerrors.KindInvalidPropertyAccess {
			require.Equal(t, "a", e.Variable)
			require.Equal(t, "nonexistent", e.Property)
			found = true
		}
	}
	require.True(t, found)
}

func TestValidateDeclaredPropertyOnWrongLabel(t *testing.T) {
	s := schema.New()
	s.AddNodeProperty("Person", "name", schema.TypeString)
	el := extractFrom(t, "MATCH (a:Person {name: 'Bob', age: 30}) RETURN a")
	errs := Validate(el, s)
	found := false
	for _, e := range errs {
		if e.Kind == cgerrors.KindInvalidNodeProperty {
			require.Equal(t, "Person", e.Label)
			require.Equal(t, "age", e.Property)
			found = true
		}
	}
	require.True(t, found)
}
