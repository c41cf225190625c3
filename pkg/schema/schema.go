// Package schema is the in-memory description of a target graph
// database against which a parsed query is validated: legal labels,
// relationship patterns (start/end/type), and typed node/relationship
// properties. It is append-only while being built and read-only once
// handed to the validator — the same append-builder/read-only-snapshot
// split the storage layer uses for its constraint and index managers,
// scaled down to the analyzer's needs.
package schema

import (
	"fmt"
	"sync"
)

// Neo4jType is the closed set of declared property types a schema can
// carry. Unknown is the conservative default for anything the loader
// can't recognize.
type Neo4jType string

const (
	TypeString   Neo4jType = "String"
	TypeInteger  Neo4jType = "Integer"
	TypeFloat    Neo4jType = "Float"
	TypeBoolean  Neo4jType = "Boolean"
	TypeDate     Neo4jType = "Date"
	TypeDateTime Neo4jType = "DateTime"
	TypeLocalTime Neo4jType = "LocalTime"
	TypeTime     Neo4jType = "Time"
	TypeDuration Neo4jType = "Duration"
	TypePoint    Neo4jType = "Point"
	TypeUnknown  Neo4jType = "Unknown"

	// TypeNull is never a declared property type — no schema document
	// can legally declare a property as Null — but the extractor needs
	// a value in this same vocabulary to record a WHERE comparison
	// against a literal `null`. The type checker treats it exactly like
	// Unknown: always allowed, regardless of the declared side.
	TypeNull Neo4jType = "Null"
)

// ParseNeo4jType maps a case-insensitive JSON/YAML type name onto the
// closed Neo4jType set, including the aliases the schema wire format
// accepts (INT/LONG for Integer, DOUBLE for Float, BOOL for Boolean,
// ZONEDDATETIME for DateTime). Anything unrecognized becomes Unknown
// rather than an error: a schema with a typo'd type name should still
// let referential validation run.
func ParseNeo4jType(s string) Neo4jType {
	switch upper(s) {
	case "STRING":
		return TypeString
	case "INTEGER", "INT", "LONG":
		return TypeInteger
	case "FLOAT", "DOUBLE":
		return TypeFloat
	case "BOOLEAN", "BOOL":
		return TypeBoolean
	case "DATE":
		return TypeDate
	case "DATETIME", "ZONEDDATETIME":
		return TypeDateTime
	case "LOCALTIME":
		return TypeLocalTime
	case "TIME":
		return TypeTime
	case "DURATION":
		return TypeDuration
	case "POINT":
		return TypePoint
	default:
		return TypeUnknown
	}
}

func upper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}

// PropertyDef is one typed property declared under a label or
// relationship type.
type PropertyDef struct {
	Name string
	Type Neo4jType
}

// RelPattern is one `{start,end,type}` entry. A relationship type need
// not be unique to a single start/end pair: multiple patterns sharing a
// type are legal, and direction checking enumerates all of them.
type RelPattern struct {
	Start string
	End   string
	Type  string
}

// IndexMeta and ConstraintMeta carry the schema's metadata.index[] and
// metadata.constraint[] entries through unchanged. The analyzer itself
// never consults them (index/constraint selection is out of scope, §1
// non-goals) but a complete schema model keeps them for callers that
// want to inspect what indexes/constraints the target database exposes
// alongside the query being checked.
type IndexMeta struct {
	Name       string
	Label      string
	Properties []string
}

type ConstraintMeta struct {
	Name     string
	Label    string
	Property string
}

// Schema is the read-only-during-analysis snapshot. The zero value
// answers every lookup as empty, but its maps are nil, so the Add*
// methods panic on it; build schemas with New.
type Schema struct {
	mu sync.RWMutex

	labels     map[string]bool
	relTypes   map[string]bool
	relPatterns []RelPattern

	nodeProps map[string][]PropertyDef // label -> props
	relProps  map[string][]PropertyDef // rel type -> props

	indexes     []IndexMeta
	constraints []ConstraintMeta
}

// New returns an empty schema ready for Add* calls.
func New() *Schema {
	return &Schema{
		labels:    make(map[string]bool),
		relTypes:  make(map[string]bool),
		nodeProps: make(map[string][]PropertyDef),
		relProps:  make(map[string][]PropertyDef),
	}
}

// AddNodeLabel declares a legal node label, with no properties.
// Safe to call more than once for the same label.
func (s *Schema) AddNodeLabel(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.labels[label] = true
	if _, ok := s.nodeProps[label]; !ok {
		s.nodeProps[label] = nil
	}
}

// AddNodeProperty declares a typed property under a label, implicitly
// declaring the label if it wasn't already known.
func (s *Schema) AddNodeProperty(label, name string, typ Neo4jType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.labels[label] = true
	s.nodeProps[label] = append(s.nodeProps[label], PropertyDef{Name: name, Type: typ})
}

// AddRelationshipPattern declares a legal `(start)-[:type]->(end)` shape.
func (s *Schema) AddRelationshipPattern(start, end, relType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.relTypes[relType] = true
	s.relPatterns = append(s.relPatterns, RelPattern{Start: start, End: end, Type: relType})
	if _, ok := s.relProps[relType]; !ok {
		s.relProps[relType] = nil
	}
}

// AddRelationshipProperty declares a typed property under a
// relationship type, implicitly declaring the type if needed.
func (s *Schema) AddRelationshipProperty(relType, name string, typ Neo4jType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.relTypes[relType] = true
	s.relProps[relType] = append(s.relProps[relType], PropertyDef{Name: name, Type: typ})
}

// AddIndexMeta and AddConstraintMeta record descriptive metadata only;
// see the IndexMeta/ConstraintMeta doc comment.
func (s *Schema) AddIndexMeta(m IndexMeta) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexes = append(s.indexes, m)
}

func (s *Schema) AddConstraintMeta(m ConstraintMeta) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.constraints = append(s.constraints, m)
}

// HasLabel reports whether label is declared. O(1) hashed lookup.
func (s *Schema) HasLabel(label string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.labels[label]
}

// HasRelationshipType reports whether relType is declared.
func (s *Schema) HasRelationshipType(relType string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.relTypes[relType]
}

// HasNodeProperty reports whether label declares a property named name.
func (s *Schema) HasNodeProperty(label, name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.nodeProps[label] {
		if p.Name == name {
			return true
		}
	}
	return false
}

// HasRelationshipProperty reports whether relType declares a property
// named name.
func (s *Schema) HasRelationshipProperty(relType, name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.relProps[relType] {
		if p.Name == name {
			return true
		}
	}
	return false
}

// NodePropertyType returns the declared type of label.name, and whether
// it was found at all.
func (s *Schema) NodePropertyType(label, name string) (Neo4jType, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.nodeProps[label] {
		if p.Name == name {
			return p.Type, true
		}
	}
	return TypeUnknown, false
}

// RelationshipPropertyType returns the declared type of relType.name,
// and whether it was found at all.
func (s *Schema) RelationshipPropertyType(relType, name string) (Neo4jType, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.relProps[relType] {
		if p.Name == name {
			return p.Type, true
		}
	}
	return TypeUnknown, false
}

// RelationshipPatternsByType returns every declared {start,end} pair for
// relType — a type need not be unique to one pair.
func (s *Schema) RelationshipPatternsByType(relType string) []RelPattern {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []RelPattern
	for _, p := range s.relPatterns {
		if p.Type == relType {
			out = append(out, p)
		}
	}
	return out
}

// AnyLabelHasProperty searches every declared label for one that
// declares a property named name, returning the first match in Go map
// iteration order, so which label is returned when several declare name
// is not defined. Used by the type checker's global fallback lookup
// (§4.L step 3) and by property-access validation (§4.K step 5).
func (s *Schema) AnyLabelHasProperty(name string) (label string, typ Neo4jType, found bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for lbl, props := range s.nodeProps {
		for _, p := range props {
			if p.Name == name {
				return lbl, p.Type, true
			}
		}
	}
	return "", TypeUnknown, false
}

// AnyRelTypeHasProperty is AnyLabelHasProperty's relationship-side twin.
func (s *Schema) AnyRelTypeHasProperty(name string) (relType string, typ Neo4jType, found bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for rt, props := range s.relProps {
		for _, p := range props {
			if p.Name == name {
				return rt, p.Type, true
			}
		}
	}
	return "", TypeUnknown, false
}

func (s *Schema) String() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fmt.Sprintf("Schema{labels=%d relTypes=%d relPatterns=%d}", len(s.labels), len(s.relTypes), len(s.relPatterns))
}
