package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseNeo4jTypeAliases(t *testing.T) {
	require.Equal(t, TypeInteger, ParseNeo4jType("int"))
	require.Equal(t, TypeInteger, ParseNeo4jType("LONG"))
	require.Equal(t, TypeFloat, ParseNeo4jType("Double"))
	require.Equal(t, TypeBoolean, ParseNeo4jType("bool"))
	require.Equal(t, TypeDateTime, ParseNeo4jType("ZonedDateTime"))
	require.Equal(t, TypeUnknown, ParseNeo4jType("nonsense"))
}

func TestAddNodePropertyImplicitlyDeclaresLabel(t *testing.T) {
	s := New()
	s.AddNodeProperty("Person", "name", TypeString)
	require.True(t, s.HasLabel("Person"))
	require.True(t, s.HasNodeProperty("Person", "name"))
	typ, ok := s.NodePropertyType("Person", "name")
	require.True(t, ok)
	require.Equal(t, TypeString, typ)
}

func TestAddRelationshipPatternDeclaresType(t *testing.T) {
	s := New()
	s.AddRelationshipPattern("Person", "Movie", "ACTED_IN")
	require.True(t, s.HasRelationshipType("ACTED_IN"))
	patterns := s.RelationshipPatternsByType("ACTED_IN")
	require.Len(t, patterns, 1)
	require.Equal(t, "Person", patterns[0].Start)
	require.Equal(t, "Movie", patterns[0].End)
}

func TestAnyLabelHasPropertyFallback(t *testing.T) {
	s := New()
	s.AddNodeProperty("Movie", "title", TypeString)
	label, typ, found := s.AnyLabelHasProperty("title")
	require.True(t, found)
	require.Equal(t, "Movie", label)
	require.Equal(t, TypeString, typ)

	_, _, found = s.AnyLabelHasProperty("nope")
	require.False(t, found)
}

func TestFromDocumentSkipsEmptyNamesAndBuildsSchema(t *testing.T) {
	doc := &Document{
		NodeProps: map[string][]propJSON{
			"Person": {{Name: "name", Neo4jType: "STRING"}, {Name: "", Neo4jType: "STRING"}},
		},
		Relationships: []relJSON{
			{Start: "Person", End: "Movie", RelType: "ACTED_IN"},
			{Start: "", End: "", RelType: ""},
		},
	}
	s := FromDocument(doc)
	require.True(t, s.HasLabel("Person"))
	require.True(t, s.HasNodeProperty("Person", "name"))
	require.True(t, s.HasRelationshipType("ACTED_IN"))
	require.Len(t, s.RelationshipPatternsByType("ACTED_IN"), 1)
}

func TestLoadJSONRoundTrip(t *testing.T) {
	data := []byte(`{
		"node_props": {"Person": [{"name": "name", "neo4j_type": "String"}]},
		"rel_props": {},
		"relationships": [{"start": "Person", "end": "Movie", "rel_type": "ACTED_IN"}],
		"metadata": {"index": [], "constraint": []}
	}`)
	s, err := LoadJSON(data)
	require.NoError(t, err)
	require.True(t, s.HasNodeProperty("Person", "name"))
	require.True(t, s.HasRelationshipType("ACTED_IN"))
}

func TestLoadYAMLRoundTrip(t *testing.T) {
	data := []byte(`
node_props:
  Person:
    - name: name
      neo4j_type: String
relationships:
  - start: Person
    end: Movie
    rel_type: ACTED_IN
`)
	s, err := LoadYAML(data)
	require.NoError(t, err)
	require.True(t, s.HasNodeProperty("Person", "name"))
	require.True(t, s.HasRelationshipType("ACTED_IN"))
}
