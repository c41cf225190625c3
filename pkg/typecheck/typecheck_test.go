package typecheck

import (
	"testing"

	"github.com/joetechbob/cypher-guard/pkg/extract"
	"github.com/joetechbob/cypher-guard/pkg/schema"
	"github.com/stretchr/testify/require"
)

func TestCheckCompatibilityUnlistedPairAllowed(t *testing.T) {
	_, found := CheckCompatibility(schema.TypeInteger, schema.TypeFloat)
	require.False(t, found)
}

func TestCheckCompatibilityUnknownAlwaysAllowed(t *testing.T) {
	_, found := CheckCompatibility(schema.TypeUnknown, schema.TypeString)
	require.False(t, found)
	_, found = CheckCompatibility(schema.TypeString, schema.TypeUnknown)
	require.False(t, found)
}

func TestCheckCompatibilityNullObservedAlwaysAllowed(t *testing.T) {
	_, found := CheckCompatibility(schema.TypeString, schema.TypeNull)
	require.False(t, found)
}

func TestCheckCompatibilityStringVsDateIsError(t *testing.T) {
	sev, found := CheckCompatibility(schema.TypeString, schema.TypeDate)
	require.True(t, found)
	require.Equal(t, "Error", string(sev))
}

func TestCheckResolvesDeclaredTypeViaNodeBinding(t *testing.T) {
	s := schema.New()
	s.AddNodeProperty("ProjectStaffing", "valid_from", schema.TypeString)

	el := &extract.QueryElements{
		VariableNodeBindings: map[string]string{"ps": "ProjectStaffing"},
		PropertyComparisons: []extract.PropertyComparison{
			{Variable: "ps", Property: "valid_from", ValueType: schema.TypeDate},
		},
	}
	issues := Check(el, s, Options{Level: Strict})
	require.Len(t, issues, 1)
	require.Equal(t, "Error", string(issues[0].Severity))
	require.Contains(t, issues[0].Suggestion, "date(ps.valid_from)")
}

func TestCheckWarningsDowngradesSeverity(t *testing.T) {
	s := schema.New()
	s.AddNodeProperty("ProjectStaffing", "valid_from", schema.TypeString)

	el := &extract.QueryElements{
		VariableNodeBindings: map[string]string{"ps": "ProjectStaffing"},
		PropertyComparisons: []extract.PropertyComparison{
			{Variable: "ps", Property: "valid_from", ValueType: schema.TypeDate},
		},
	}
	issues := Check(el, s, Options{Level: Warnings})
	require.Len(t, issues, 1)
	require.Equal(t, "Warning", string(issues[0].Severity))
}

func TestCheckOffReturnsNil(t *testing.T) {
	s := schema.New()
	el := &extract.QueryElements{
		PropertyComparisons: []extract.PropertyComparison{
			{Variable: "ps", Property: "valid_from", ValueType: schema.TypeDate},
		},
	}
	require.Nil(t, Check(el, s, Options{Level: Off}))
}

func TestCheckGlobalFallbackWhenNoBinding(t *testing.T) {
	s := schema.New()
	s.AddNodeProperty("Movie", "title", schema.TypeString)

	el := &extract.QueryElements{
		PropertyComparisons: []extract.PropertyComparison{
			{Variable: "x", Property: "title", ValueType: schema.TypeBoolean},
		},
	}
	issues := Check(el, s, Options{Level: Strict})
	require.Len(t, issues, 1)
	require.Equal(t, "Error", string(issues[0].Severity))
}
