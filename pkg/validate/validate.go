// Package validate checks a QueryElements set against a schema,
// accumulating validation errors — undefined variables, unknown labels
// and relationship types, unknown properties, unresolved property
// accesses, and relationship-direction mismatches (spec component K).
// Validation never short-circuits: callers get the complete list.
package validate

import (
	"fmt"

	"github.com/joetechbob/cypher-guard/pkg/ast"
	"github.com/joetechbob/cypher-guard/pkg/cgerrors"
	"github.com/joetechbob/cypher-guard/pkg/extract"
	"github.com/joetechbob/cypher-guard/pkg/schema"
)

// Validate runs every check in spec §4.K against el and s, returning
// the accumulated list of validation errors (nil if none).
func Validate(el *extract.QueryElements, s *schema.Schema) []cgerrors.ValidationError {
	var errs []cgerrors.ValidationError

	errs = append(errs, checkUndefinedVariables(el)...)
	errs = append(errs, checkLabels(el, s)...)
	errs = append(errs, checkRelTypes(el, s)...)
	errs = append(errs, checkDeclaredProperties(el, s)...)
	errs = append(errs, checkPropertyAccesses(el, s)...)
	errs = append(errs, checkDirections(el, s)...)

	return errs
}

// checkUndefinedVariables emits one UndefinedVariable per element of
// referenced_variables not in defined_variables (spec §4.K step 1).
func checkUndefinedVariables(el *extract.QueryElements) []cgerrors.ValidationError {
	var errs []cgerrors.ValidationError
	for v := range el.ReferencedVariables {
		if !el.DefinedVariables[v] {
			errs = append(errs, cgerrors.ValidationError{Kind: cgerrors.KindUndefinedVariable, Variable: v})
		}
	}
	return errs
}

// checkLabels emits InvalidNodeLabel for every extracted label unknown
// to the schema (spec §4.K step 2).
func checkLabels(el *extract.QueryElements, s *schema.Schema) []cgerrors.ValidationError {
	var errs []cgerrors.ValidationError
	for label := range el.Labels {
		if !s.HasLabel(label) {
			errs = append(errs, cgerrors.ValidationError{Kind: cgerrors.KindInvalidNodeLabel, Label: label})
		}
	}
	return errs
}

// checkRelTypes is checkLabels' relationship-type twin (spec §4.K step 3).
func checkRelTypes(el *extract.QueryElements, s *schema.Schema) []cgerrors.ValidationError {
	var errs []cgerrors.ValidationError
	for rt := range el.RelTypes {
		if !s.HasRelationshipType(rt) {
			errs = append(errs, cgerrors.ValidationError{Kind: cgerrors.KindInvalidRelationshipType, RelType: rt})
		}
	}
	return errs
}

// checkDeclaredProperties emits InvalidNodeProperty/InvalidRelationshipProperty
// for property-map keys referenced against a known label/type that
// doesn't declare that property (spec §4.K step 4).
func checkDeclaredProperties(el *extract.QueryElements, s *schema.Schema) []cgerrors.ValidationError {
	var errs []cgerrors.ValidationError
	for label, props := range el.NodePropertyRefs {
		if !s.HasLabel(label) {
			continue
		}
		for prop := range props {
			if !s.HasNodeProperty(label, prop) {
				errs = append(errs, cgerrors.ValidationError{Kind: cgerrors.KindInvalidNodeProperty, Label: label, Property: prop})
			}
		}
	}
	for relType, props := range el.RelPropertyRefs {
		if !s.HasRelationshipType(relType) {
			continue
		}
		for prop := range props {
			if !s.HasRelationshipProperty(relType, prop) {
				errs = append(errs, cgerrors.ValidationError{Kind: cgerrors.KindInvalidRelationshipProp, RelType: relType, Property: prop})
			}
		}
	}
	return errs
}

// checkPropertyAccesses emits InvalidPropertyAccess for each recorded
// access that matches no property on any known label or relationship
// type (spec §4.K step 5). Like the type checker's global fallback,
// this is deliberately context-free: it doesn't use variable bindings,
// so it can only say "no such property anywhere in the schema", not
// "wrong property for this variable's label".
func checkPropertyAccesses(el *extract.QueryElements, s *schema.Schema) []cgerrors.ValidationError {
	var errs []cgerrors.ValidationError
	for _, pa := range el.PropertyAccesses {
		// An access on a variable that is itself undefined is already
		// reported by checkUndefinedVariables; skip it here rather than
		// cascading a second, less useful error for the same mistake.
		if !el.DefinedVariables[pa.Variable] {
			continue
		}
		if _, _, found := s.AnyLabelHasProperty(pa.Property); found {
			continue
		}
		if _, _, found := s.AnyRelTypeHasProperty(pa.Property); found {
			continue
		}
		errs = append(errs, cgerrors.ValidationError{
			Kind: cgerrors.KindInvalidPropertyAccess, Variable: pa.Variable, Property: pa.Property, Context: string(pa.Context),
		})
	}
	return errs
}

// checkDirections walks every recorded pattern sequence and, for each
// relationship with a known type, checks its direction against the
// schema's declared {start,end} pairs for that type (spec §4.K step 6).
func checkDirections(el *extract.QueryElements, s *schema.Schema) []cgerrors.ValidationError {
	var errs []cgerrors.ValidationError
	for _, seq := range el.PatternSequences {
		for i := 1; i < len(seq)-1; i += 2 {
			rel, ok := seq[i].(*ast.RelationshipPattern)
			if !ok {
				continue
			}
			prevNode, ok1 := seq[i-1].(*ast.NodePattern)
			nextNode, ok2 := seq[i+1].(*ast.NodePattern)
			if !ok1 || !ok2 {
				continue
			}
			relType := firstLabelName(rel.Type)
			if relType == "" || !s.HasRelationshipType(relType) {
				continue
			}
			n0 := firstLabelName(prevNode.Labels)
			n1 := firstLabelName(nextNode.Labels)
			if n0 == "" || n1 == "" {
				continue
			}
			patterns := s.RelationshipPatternsByType(relType)
			if !anyPatternSatisfies(patterns, rel.Direction, n0, n1) {
				errs = append(errs, cgerrors.ValidationError{
					Kind:        cgerrors.KindInvalidRelationship,
					RelType:     relType,
					Description: describeMismatch(relType, patterns, rel.Direction, n0, n1),
				})
			}
		}
	}
	return errs
}

func anyPatternSatisfies(patterns []schema.RelPattern, dir ast.Direction, n0, n1 string) bool {
	if len(patterns) == 0 {
		return true // type unknown to direction data; nothing to check against
	}
	for _, p := range patterns {
		switch dir {
		case ast.DirRight:
			if n0 == p.Start && n1 == p.End {
				return true
			}
		case ast.DirLeft:
			if n0 == p.End && n1 == p.Start {
				return true
			}
		case ast.DirUndirected:
			if (n0 == p.Start && n1 == p.End) || (n0 == p.End && n1 == p.Start) {
				return true
			}
		}
	}
	return false
}

func describeMismatch(relType string, patterns []schema.RelPattern, dir ast.Direction, n0, n1 string) string {
	if len(patterns) == 0 {
		return fmt.Sprintf("relationship '%s' has no declared start/end for %s/%s", relType, n0, n1)
	}
	p := patterns[0]
	switch dir {
	case ast.DirRight, ast.DirLeft:
		expectedStart, expectedEnd := p.Start, p.End
		gotStart, gotEnd := n0, n1
		if dir == ast.DirLeft {
			gotStart, gotEnd = n1, n0
		}
		return fmt.Sprintf("Relationship '%s' direction mismatch: expected %s->%s, got %s->%s", relType, expectedStart, expectedEnd, gotStart, gotEnd)
	default:
		return fmt.Sprintf("Relationship '%s' invalid node combination: expected %s and %s, got %s and %s", relType, p.Start, p.End, n0, n1)
	}
}

func firstLabelName(expr ast.LabelExpr) string {
	switch v := expr.(type) {
	case nil:
		return ""
	case ast.LabelSingle:
		return v.Name
	case ast.LabelAnd:
		if l := firstLabelName(v.Left); l != "" {
			return l
		}
		return firstLabelName(v.Right)
	case ast.LabelOr:
		if l := firstLabelName(v.Left); l != "" {
			return l
		}
		return firstLabelName(v.Right)
	case ast.LabelNot:
		return firstLabelName(v.Inner)
	default:
		return ""
	}
}
