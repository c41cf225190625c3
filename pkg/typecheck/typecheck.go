// Package typecheck implements the type blocklist and the type checker
// layered on top of schema validation (spec component L): given the
// extractor's PropertyComparisons and a schema, decide which comparisons
// pair an incompatible declared/observed type and at what severity.
package typecheck

import (
	"fmt"

	"github.com/joetechbob/cypher-guard/pkg/cgerrors"
	"github.com/joetechbob/cypher-guard/pkg/extract"
	"github.com/joetechbob/cypher-guard/pkg/schema"
)

// Level is the tunable type-checking strictness (spec §4.L).
type Level int

const (
	Off Level = iota
	Warnings
	Strict
)

type blockKey struct {
	declared schema.Neo4jType
	observed schema.Neo4jType
}

// blocklist is the declared×observed severity table from spec §4.L.
// Anything absent — including every pairing where either side is
// Unknown or Null — is Allowed. This is a blocklist, not a whitelist:
// the default for an unlisted pair (e.g. Integer↔Float, Date↔DateTime)
// is always Allowed.
var blocklist = map[blockKey]cgerrors.Severity{
	{schema.TypeString, schema.TypeDate}:     cgerrors.SeverityError,
	{schema.TypeString, schema.TypeDateTime}: cgerrors.SeverityError,
	{schema.TypeString, schema.TypeBoolean}:  cgerrors.SeverityError,
	{schema.TypeString, schema.TypeInteger}:  cgerrors.SeverityWarning,
	{schema.TypeString, schema.TypeFloat}:    cgerrors.SeverityWarning,

	{schema.TypeInteger, schema.TypeString}:   cgerrors.SeverityWarning,
	{schema.TypeInteger, schema.TypeBoolean}:  cgerrors.SeverityError,
	{schema.TypeInteger, schema.TypeDate}:     cgerrors.SeverityError,
	{schema.TypeInteger, schema.TypeDateTime}: cgerrors.SeverityError,

	{schema.TypeBoolean, schema.TypeString}:  cgerrors.SeverityError,
	{schema.TypeBoolean, schema.TypeInteger}: cgerrors.SeverityError,
	{schema.TypeBoolean, schema.TypeFloat}:   cgerrors.SeverityError,

	{schema.TypeFloat, schema.TypeString}:  cgerrors.SeverityWarning,
	{schema.TypeFloat, schema.TypeBoolean}: cgerrors.SeverityError,
}

// CheckCompatibility looks up the blocklist. found is false when the
// pair is allowed (including any pair touching Unknown or Null).
func CheckCompatibility(declared, observed schema.Neo4jType) (sev cgerrors.Severity, found bool) {
	if declared == schema.TypeUnknown || observed == schema.TypeUnknown || observed == schema.TypeNull {
		return "", false
	}
	sev, found = blocklist[blockKey{declared, observed}]
	return sev, found
}

// Options mirrors spec §6's `{ type_checking: Off|Warnings|Strict }`.
type Options struct {
	Level Level
}

// Check runs the type checker over every PropertyComparison in el,
// resolving each comparison's declared type via the three-step lookup
// in spec §4.L: context-aware by node-label binding, then by
// relationship-type binding, then a global fallback search. Off returns
// nil immediately; Warnings computes each issue's base severity from
// the blocklist and then downgrades it to Warning — deliberately after
// the fact, not by skipping the Error entries (see DESIGN.md).
func Check(el *extract.QueryElements, s *schema.Schema, opts Options) []cgerrors.TypeIssue {
	if opts.Level == Off {
		return nil
	}
	var issues []cgerrors.TypeIssue
	for _, cmp := range el.PropertyComparisons {
		declared, ok := resolveDeclaredType(el, s, cmp)
		if !ok {
			continue
		}
		sev, blocked := CheckCompatibility(declared, cmp.ValueType)
		if !blocked {
			continue
		}
		if opts.Level == Warnings {
			sev = cgerrors.SeverityWarning
		}
		issues = append(issues, cgerrors.TypeIssue{
			Variable:   cmp.Variable,
			Property:   cmp.Property,
			Severity:   sev,
			Message:    fmt.Sprintf("Type mismatch: %s.%s is %s, compared with %s", cmp.Variable, cmp.Property, declared, cmp.ValueType),
			Suggestion: suggestionFor(cmp, declared),
		})
	}
	return issues
}

// resolveDeclaredType implements the three-step lookup. The first two
// steps are context-aware (do not search across labels/types once the
// variable's binding is known); the third is a deliberate
// backward-compatibility fallback that can mask a real
// InvalidPropertyAccess finding from the schema validator — kept as-is
// per DESIGN.md.
func resolveDeclaredType(el *extract.QueryElements, s *schema.Schema, cmp extract.PropertyComparison) (schema.Neo4jType, bool) {
	if label, ok := el.VariableNodeBindings[cmp.Variable]; ok {
		return s.NodePropertyType(label, cmp.Property)
	}
	if relType, ok := el.VariableRelBindings[cmp.Variable]; ok {
		return s.RelationshipPropertyType(relType, cmp.Property)
	}
	if _, typ, found := s.AnyLabelHasProperty(cmp.Property); found {
		return typ, true
	}
	if _, typ, found := s.AnyRelTypeHasProperty(cmp.Property); found {
		return typ, true
	}
	return schema.TypeUnknown, false
}

// suggestionFor produces the "convert to X" hint spec scenario 3
// expects for a String-observed-as-Date/DateTime mismatch, generalizing
// the grounding source's single String/Date case to DateTime as well,
// since both arise identically from `date(...)` /
// `datetime(...)` function calls on a declared-String property.
func suggestionFor(cmp extract.PropertyComparison, declared schema.Neo4jType) string {
	if declared != schema.TypeString {
		return ""
	}
	switch cmp.ValueType {
	case schema.TypeDate:
		return fmt.Sprintf("Convert string to date: WHERE date(%s.%s) <= date(...)", cmp.Variable, cmp.Property)
	case schema.TypeDateTime:
		return fmt.Sprintf("Convert string to datetime: WHERE datetime(%s.%s) <= datetime(...)", cmp.Variable, cmp.Property)
	default:
		return ""
	}
}
