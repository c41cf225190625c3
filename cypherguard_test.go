package cypherguard

import (
	"testing"

	"github.com/joetechbob/cypher-guard/pkg/cgerrors"
	"github.com/joetechbob/cypher-guard/pkg/schema"
	"github.com/stretchr/testify/require"
)

func personMovieSchema() *schema.Schema {
	s := schema.New()
	s.AddNodeProperty("Person", "name", schema.TypeString)
	s.AddNodeLabel("Movie")
	s.AddNodeLabel("Project")
	s.AddNodeLabel("Company")
	s.AddRelationshipPattern("Person", "Movie", "ACTED_IN")
	return s
}

func TestBasicMatchReturn(t *testing.T) {
	s := personMovieSchema()
	report := Validate("MATCH (a:Person) RETURN a", s, Options{})
	require.NoError(t, report.ParseError)
	require.Empty(t, report.ValidationErrors)
}

func TestUndefinedVariable(t *testing.T) {
	s := personMovieSchema()
	report := Validate("MATCH (p:Project) WHERE c.client_id IN ['X'] RETURN p", s, Options{})
	require.NoError(t, report.ParseError)
	require.Len(t, report.ValidationErrors, 1)
	require.Equal(t, cgerrors.KindUndefinedVariable, report.ValidationErrors[0].Kind)
	require.Equal(t, "c", report.ValidationErrors[0].Variable)
}

func TestStringVsDateMismatchStrict(t *testing.T) {
	s := schema.New()
	s.AddNodeProperty("ProjectStaffing", "valid_from", schema.TypeString)
	s.AddNodeProperty("ProjectStaffing", "valid_to", schema.TypeString)

	query := "MATCH (ps:ProjectStaffing) WHERE ps.valid_from <= date('2025-04-08') AND ps.valid_to >= date('2025-04-04') RETURN ps"
	report := Validate(query, s, Options{TypeChecking: TypeCheckStrict})
	require.NoError(t, report.ParseError)
	require.Empty(t, report.ValidationErrors)
	require.Len(t, report.TypeIssues, 2)
	for _, issue := range report.TypeIssues {
		require.Equal(t, cgerrors.SeverityError, issue.Severity)
		require.Contains(t, issue.Suggestion, "date(")
	}
}

func TestDirectionMismatch(t *testing.T) {
	s := personMovieSchema()
	report := Validate("MATCH (a:Person)<-[:ACTED_IN]-(b:Movie) RETURN a, b", s, Options{})
	require.NoError(t, report.ParseError)
	require.NotEmpty(t, report.ValidationErrors)
	found := false
	for _, e := range report.ValidationErrors {
		if e.Kind == cgerrors.KindInvalidRelationship {
			require.Contains(t, e.Description, "ACTED_IN")
			require.Contains(t, e.Description, "Person")
			require.Contains(t, e.Description, "Movie")
			found = true
		}
	}
	require.True(t, found)
}

func TestUnionAll(t *testing.T) {
	s := schema.New()
	s.AddNodeProperty("Person", "name", schema.TypeString)
	s.AddNodeProperty("Company", "name", schema.TypeString)
	q, err := ParseQuery("MATCH (n:Person) RETURN n.name UNION ALL MATCH (m:Company) RETURN m.name")
	require.NoError(t, err)
	require.NotNil(t, q.Union)
	require.True(t, q.Union.IsAll)

	report := Validate("MATCH (n:Person) RETURN n.name UNION ALL MATCH (m:Company) RETURN m.name", s, Options{})
	require.NoError(t, report.ParseError)
	require.Empty(t, report.ValidationErrors)
}

func TestOrderViolation(t *testing.T) {
	_, err := ParseQuery("MATCH (a:Person) RETURN a WHERE a.age > 30")
	require.Error(t, err)
	pe, ok := err.(*cgerrors.ParseError)
	require.True(t, ok)
	require.Equal(t, cgerrors.KindWhereAfterReturn, pe.Kind)
	require.Contains(t, pe.Context, "after RETURN")
	require.Contains(t, pe.Details, "WHERE")
}

func TestTypeCheckOffSuppressesIssues(t *testing.T) {
	s := schema.New()
	s.AddNodeProperty("ProjectStaffing", "valid_from", schema.TypeString)
	report := Validate("MATCH (ps:ProjectStaffing) WHERE ps.valid_from <= date('2025-04-08') RETURN ps", s, Options{TypeChecking: TypeCheckOff})
	require.Empty(t, report.TypeIssues)
}

func TestTypeCheckWarningsDowngradesSeverity(t *testing.T) {
	s := schema.New()
	s.AddNodeProperty("ProjectStaffing", "valid_from", schema.TypeString)
	report := Validate("MATCH (ps:ProjectStaffing) WHERE ps.valid_from <= date('2025-04-08') RETURN ps", s, Options{TypeChecking: TypeCheckWarnings})
	require.Len(t, report.TypeIssues, 1)
	require.Equal(t, cgerrors.SeverityWarning, report.TypeIssues[0].Severity)
}
