// Package extract walks a parsed ast.Query and produces QueryElements:
// the flattened set of facts the schema validator and type checker need
// — referenced labels and relationship types, property references,
// variable bindings, defined/referenced variable sets, property
// comparisons for type checking, and the full pattern sequences needed
// for relationship-direction checking (spec component J).
package extract

import (
	"strings"

	"github.com/joetechbob/cypher-guard/pkg/ast"
	"github.com/joetechbob/cypher-guard/pkg/schema"
)

// Context distinguishes where a PropertyAccess was found, since WHERE,
// RETURN and WITH are tracked separately by the spec.
type Context string

const (
	ContextWhere  Context = "Where"
	ContextReturn Context = "Return"
	ContextWith   Context = "With"
)

// PropertyAccess is one `variable.property` reference recorded during
// extraction, along with which clause kind it came from.
type PropertyAccess struct {
	Variable string
	Property string
	Context  Context
}

// PropertyComparison is one WHERE comparison whose left side is a
// property access, recorded for the type checker. ValueType is the
// extractor's structural inference described in spec §4.J, expressed in
// the same vocabulary as schema.Neo4jType so the type checker can
// compare declared-vs-observed without a second enum.
type PropertyComparison struct {
	Variable  string
	Property  string
	Value     ast.Expression
	ValueType schema.Neo4jType
}

// QueryElements is the extractor's full output.
type QueryElements struct {
	Labels   map[string]bool
	RelTypes map[string]bool

	// NodePropertyRefs/RelPropertyRefs record, for each label/rel-type
	// seen in a pattern's property map, which property keys were
	// referenced against it.
	NodePropertyRefs map[string]map[string]bool
	RelPropertyRefs  map[string]map[string]bool

	PropertyAccesses    []PropertyAccess
	PropertyComparisons []PropertyComparison

	VariableNodeBindings map[string]string // var -> label
	VariableRelBindings  map[string]string // var -> rel type

	DefinedVariables    map[string]bool
	ReferencedVariables map[string]bool

	// PatternSequences holds one entry per pattern walked (each
	// MATCH/MERGE/CREATE pattern, plus every QPP body, pattern predicate
	// and pattern comprehension), already flattened through
	// ast.FlattenPattern, for the schema validator's direction check
	// (spec §4.K step 6).
	PatternSequences [][]ast.PatternElement
}

func newElements() *QueryElements {
	return &QueryElements{
		Labels:               make(map[string]bool),
		RelTypes:             make(map[string]bool),
		NodePropertyRefs:     make(map[string]map[string]bool),
		RelPropertyRefs:      make(map[string]map[string]bool),
		VariableNodeBindings: make(map[string]string),
		VariableRelBindings:  make(map[string]string),
		DefinedVariables:     make(map[string]bool),
		ReferencedVariables:  make(map[string]bool),
	}
}

// Extract walks the full query, including its UNION chain, and returns
// the combined QueryElements. Every UNION member is extracted into the
// same QueryElements, so defined and referenced variables are pooled
// across branches rather than scoped per branch.
func Extract(q *ast.Query) *QueryElements {
	el := newElements()
	extractInto(el, q)
	for u := q.Union; u != nil; u = u.Body.Union {
		extractInto(el, u.Body)
	}
	return el
}

func extractInto(el *QueryElements, q *ast.Query) {
	for _, m := range q.Match {
		for _, e := range m.Elements {
			if e.PathVariable != "" {
				el.DefinedVariables[e.PathVariable] = true
			}
			extractPattern(el, e.Pattern)
		}
	}
	for _, m := range q.Merge {
		extractPattern(el, m.Pattern)
		if m.OnCreate != nil {
			extractSetItems(el, m.OnCreate.Items)
		}
		if m.OnMatch != nil {
			extractSetItems(el, m.OnMatch.Items)
		}
	}
	for _, c := range q.Create {
		for _, pat := range c.Patterns {
			extractPattern(el, pat)
		}
	}
	for _, w := range q.Where {
		extractCondition(el, w.Condition, ContextWhere)
	}
	for _, w := range q.With {
		for _, it := range w.Items {
			extractExprRefs(el, it.Expr, ContextWith)
			if it.Alias != "" {
				el.DefinedVariables[it.Alias] = true
			} else if id, ok := it.Expr.(*ast.Identifier); ok && len(id.Parts) == 1 {
				el.DefinedVariables[id.Parts[0]] = true
			}
		}
	}
	for _, r := range q.Return {
		for _, it := range r.Items {
			extractExprRefs(el, it.Expr, ContextReturn)
			if it.Alias != "" {
				el.DefinedVariables[it.Alias] = true
			}
		}
	}
	for _, u := range q.Unwind {
		extractExprRefs(el, u.Source, ContextWhere)
		el.DefinedVariables[u.Variable] = true
	}
	for _, c := range q.Call {
		if c.Subquery != nil {
			extractInto(el, c.Subquery)
		}
		for _, a := range c.Args {
			extractExprRefs(el, a, ContextWhere)
		}
		for _, y := range c.Yield {
			el.DefinedVariables[y] = true
		}
	}
	for _, s := range q.Set {
		extractSetItems(el, s.Items)
	}
	for _, d := range q.Delete {
		for _, e := range d.Expressions {
			extractExprRefs(el, e, ContextWhere)
		}
	}
	for _, r := range q.Remove {
		for _, it := range r.Items {
			el.ReferencedVariables[it.Variable] = true
		}
	}
	for _, f := range q.Foreach {
		extractExprRefs(el, f.Iterable, ContextWhere)
		el.DefinedVariables[f.Variable] = true
		for _, u := range f.Updates {
			extractUpdateClause(el, u)
		}
	}
	for _, l := range q.LoadCSV {
		extractExprRefs(el, l.From, ContextWhere)
		el.DefinedVariables[l.Variable] = true
	}
}

func extractUpdateClause(el *QueryElements, c ast.Clause) {
	switch v := c.(type) {
	case *ast.CreateClause:
		for _, pat := range v.Patterns {
			extractPattern(el, pat)
		}
	case *ast.MergeClause:
		extractPattern(el, v.Pattern)
	case *ast.SetClause:
		extractSetItems(el, v.Items)
	case *ast.DeleteClause:
		for _, e := range v.Expressions {
			extractExprRefs(el, e, ContextWhere)
		}
	case *ast.RemoveClause:
		for _, it := range v.Items {
			el.ReferencedVariables[it.Variable] = true
		}
	case *ast.ForeachClause:
		extractExprRefs(el, v.Iterable, ContextWhere)
		el.DefinedVariables[v.Variable] = true
		for _, u := range v.Updates {
			extractUpdateClause(el, u)
		}
	}
}

func extractSetItems(el *QueryElements, items []ast.SetItem) {
	for _, it := range items {
		el.ReferencedVariables[it.Variable] = true
		if it.Value != nil {
			extractExprRefs(el, it.Value, ContextWhere)
		}
	}
}

// extractPattern binds each node's variable to its first label and each
// relationship's variable to its type, records property-map key
// references, recurses into QPPs (including an inner WHERE), and files
// the whole flattened sequence away for direction checking.
func extractPattern(el *QueryElements, elems []ast.PatternElement) {
	el.PatternSequences = append(el.PatternSequences, ast.FlattenPattern(elems))

	for _, e := range elems {
		switch v := e.(type) {
		case *ast.NodePattern:
			if v.Variable != "" {
				el.DefinedVariables[v.Variable] = true
				if label := firstLabel(v.Labels); label != "" {
					el.Labels[label] = true
					el.VariableNodeBindings[v.Variable] = label
				}
			}
			eachLabel(v.Labels, func(l string) { el.Labels[l] = true })
			if v.Properties != nil {
				label := firstLabel(v.Labels)
				for _, entry := range v.Properties.Entries {
					recordNodePropertyRef(el, label, entry.Key)
					extractExprRefs(el, entry.Value, ContextWhere)
				}
			}
		case *ast.RelationshipPattern:
			if v.Variable != "" {
				el.DefinedVariables[v.Variable] = true
			}
			relType := firstLabel(v.Type)
			if relType != "" {
				el.RelTypes[relType] = true
				if v.Variable != "" {
					el.VariableRelBindings[v.Variable] = relType
				}
			}
			if v.Properties != nil {
				for _, entry := range v.Properties.Entries {
					recordRelPropertyRef(el, relType, entry.Key)
					extractExprRefs(el, entry.Value, ContextWhere)
				}
			}
			if v.Where != nil {
				extractExprRefs(el, v.Where, ContextWhere)
			}
		case *ast.QuantifiedPathPattern:
			if v.PathVariable != "" {
				el.DefinedVariables[v.PathVariable] = true
			}
			extractPattern(el, v.Inner)
			if v.InnerWhere != nil {
				extractCondition(el, v.InnerWhere, ContextWhere)
			}
		}
	}
}

func recordNodePropertyRef(el *QueryElements, label, key string) {
	if label == "" {
		return
	}
	if el.NodePropertyRefs[label] == nil {
		el.NodePropertyRefs[label] = make(map[string]bool)
	}
	el.NodePropertyRefs[label][key] = true
}

func recordRelPropertyRef(el *QueryElements, relType, key string) {
	if relType == "" {
		return
	}
	if el.RelPropertyRefs[relType] == nil {
		el.RelPropertyRefs[relType] = make(map[string]bool)
	}
	el.RelPropertyRefs[relType][key] = true
}

// firstLabel returns the first label name it finds walking a label
// expression tree depth-first, matching "bind to its first label" in
// spec §4.J — a node pattern with a compound label expression still
// only contributes one binding.
func firstLabel(expr ast.LabelExpr) string {
	switch v := expr.(type) {
	case nil:
		return ""
	case ast.LabelSingle:
		return v.Name
	case ast.LabelAnd:
		if l := firstLabel(v.Left); l != "" {
			return l
		}
		return firstLabel(v.Right)
	case ast.LabelOr:
		if l := firstLabel(v.Left); l != "" {
			return l
		}
		return firstLabel(v.Right)
	case ast.LabelNot:
		return firstLabel(v.Inner)
	default:
		return ""
	}
}

func eachLabel(expr ast.LabelExpr, fn func(string)) {
	switch v := expr.(type) {
	case nil:
		return
	case ast.LabelSingle:
		fn(v.Name)
	case ast.LabelAnd:
		eachLabel(v.Left, fn)
		eachLabel(v.Right, fn)
	case ast.LabelOr:
		eachLabel(v.Left, fn)
		eachLabel(v.Right, fn)
	case ast.LabelNot:
		eachLabel(v.Inner, fn)
	}
}

// extractCondition recurses into a WHERE boolean tree, additionally
// recording a PropertyComparison whenever a Comparison's left side is a
// `variable.property` access (spec §4.J).
func extractCondition(el *QueryElements, cond ast.Expression, ctx Context) {
	switch v := cond.(type) {
	case *ast.And:
		extractCondition(el, v.Left, ctx)
		extractCondition(el, v.Right, ctx)
	case *ast.Or:
		extractCondition(el, v.Left, ctx)
		extractCondition(el, v.Right, ctx)
	case *ast.Xor:
		extractCondition(el, v.Left, ctx)
		extractCondition(el, v.Right, ctx)
	case *ast.Not:
		extractCondition(el, v.Inner, ctx)
	case *ast.Parenthesized:
		extractCondition(el, v.Inner, ctx)
	case *ast.Comparison:
		extractExprRefs(el, v.Left, ctx)
		extractExprRefs(el, v.Right, ctx)
		if ident, ok := v.Left.(*ast.Identifier); ok && len(ident.Parts) == 2 {
			el.PropertyComparisons = append(el.PropertyComparisons, PropertyComparison{
				Variable:  ident.Parts[0],
				Property:  ident.Parts[1],
				Value:     v.Right,
				ValueType: inferValueType(v.Right),
			})
		}
	case *ast.PatternPredicate:
		extractPattern(el, v.Pattern)
	case *ast.PathPropertyPredicate:
		extractExprRefs(el, v.Path, ctx)
	default:
		extractExprRefs(el, cond, ctx)
	}
}

// inferValueType is the structural inference table from spec §4.J,
// expressed in schema.Neo4jType's vocabulary so the type checker can
// compare it directly against a declared property type. NumberLit
// distinguishes Integer from Float via its IsFloat flag rather than
// collapsing both into one "Number" kind, since the blocklist in §4.L
// needs Integer and Float as distinct observed types.
func inferValueType(v ast.Expression) schema.Neo4jType {
	switch e := v.(type) {
	case *ast.StringLit:
		return schema.TypeString
	case *ast.NumberLit:
		if e.IsFloat {
			return schema.TypeFloat
		}
		return schema.TypeInteger
	case *ast.BoolLit:
		return schema.TypeBoolean
	case *ast.NullLit:
		return schema.TypeNull
	case *ast.FunctionCall:
		switch strings.ToLower(e.Name) {
		case "date":
			return schema.TypeDate
		case "datetime":
			return schema.TypeDateTime
		default:
			return schema.TypeUnknown
		}
	case *ast.Parenthesized:
		return inferValueType(e.Inner)
	default:
		return schema.TypeUnknown
	}
}

// extractExprRefs walks an expression tree recording PropertyAccess
// entries (for `var.prop` identifiers) and ReferencedVariables (for bare
// identifiers and the variable half of a property access), recursing
// into every composite expression form.
func extractExprRefs(el *QueryElements, expr ast.Expression, ctx Context) {
	if expr == nil {
		return
	}
	switch v := expr.(type) {
	case *ast.Identifier:
		if len(v.Parts) == 1 {
			el.ReferencedVariables[v.Parts[0]] = true
		} else if len(v.Parts) >= 2 {
			el.ReferencedVariables[v.Parts[0]] = true
			el.PropertyAccesses = append(el.PropertyAccesses, PropertyAccess{
				Variable: v.Parts[0], Property: v.Parts[1], Context: ctx,
			})
		}
	case *ast.BinaryOp:
		extractExprRefs(el, v.Left, ctx)
		extractExprRefs(el, v.Right, ctx)
	case *ast.UnaryOp:
		extractExprRefs(el, v.Inner, ctx)
	case *ast.IndexAccess:
		extractExprRefs(el, v.Target, ctx)
		extractExprRefs(el, v.Index, ctx)
	case *ast.SliceAccess:
		extractExprRefs(el, v.Target, ctx)
		extractExprRefs(el, v.Lower, ctx)
		extractExprRefs(el, v.Upper, ctx)
	case *ast.FunctionCall:
		for _, a := range v.Args {
			extractExprRefs(el, a, ctx)
		}
	case *ast.ListLit:
		for _, it := range v.Items {
			extractExprRefs(el, it, ctx)
		}
	case *ast.MapLit:
		for _, entry := range v.Entries {
			extractExprRefs(el, entry.Value, ctx)
		}
	case *ast.Parenthesized:
		extractExprRefs(el, v.Inner, ctx)
	case *ast.Comparison:
		extractCondition(el, v, ctx)
	case *ast.And, *ast.Or, *ast.Xor, *ast.Not:
		extractCondition(el, v, ctx)
	case *ast.ListComprehension:
		extractExprRefs(el, v.Source, ctx)
		extractExprRefs(el, v.Where, ctx)
		extractExprRefs(el, v.Project, ctx)
	case *ast.PatternComprehension:
		extractPattern(el, v.Pattern)
		extractExprRefs(el, v.Where, ctx)
		extractExprRefs(el, v.Project, ctx)
	case *ast.MapProjection:
		el.ReferencedVariables[v.Variable] = true
		for _, it := range v.Items {
			extractExprRefs(el, it.Value, ctx)
		}
	case *ast.ExistsSubquery:
		extractInto(el, v.Body)
	case *ast.CollectSubquery:
		extractInto(el, v.Body)
	case *ast.CountSubquery:
		extractInto(el, v.Body)
	}
}
