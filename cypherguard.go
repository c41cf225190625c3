// Package cypherguard is the external interface of the static analyzer
// (spec §6): parse a Cypher query into an AST, or run the full
// parse-order-extract-validate-typecheck pipeline against a schema and
// get back a structured report. The core is synchronous and
// single-threaded per call, touches no filesystem or network, and never
// mutates the schema it's handed (spec §5) — every exported function
// here is a pure function of its arguments.
package cypherguard

import (
	"github.com/joetechbob/cypher-guard/pkg/ast"
	"github.com/joetechbob/cypher-guard/pkg/cgerrors"
	"github.com/joetechbob/cypher-guard/pkg/extract"
	"github.com/joetechbob/cypher-guard/pkg/parser"
	"github.com/joetechbob/cypher-guard/pkg/schema"
	"github.com/joetechbob/cypher-guard/pkg/typecheck"
	"github.com/joetechbob/cypher-guard/pkg/validate"
)

// TypeCheckLevel is re-exported so callers don't need to import
// pkg/typecheck just to build an Options value.
type TypeCheckLevel = typecheck.Level

const (
	TypeCheckOff      = typecheck.Off
	TypeCheckWarnings = typecheck.Warnings
	TypeCheckStrict   = typecheck.Strict
)

// Options configures Validate. The zero value (TypeCheckOff) runs no
// type checking at all.
type Options struct {
	TypeChecking TypeCheckLevel
}

// Report is the structured result of Validate: the validation errors
// accumulated against the schema and the type issues found, if type
// checking was enabled. A non-nil ParseError means the query never
// reached validation at all — ValidationErrors and TypeIssues are
// always empty in that case.
type Report struct {
	ParseError       error
	ValidationErrors []cgerrors.ValidationError
	TypeIssues       []cgerrors.TypeIssue
}

// ParseQuery parses Cypher text into an AST. It returns a *cgerrors.ParseError
// (wrapped as error) on any structural failure — including clause-order
// violations, which are checked as part of parsing (spec §4.H/§4.I).
func ParseQuery(text string) (*ast.Query, error) {
	return parser.ParseQuery(text)
}

// Validate runs the full pipeline: parse, extract, validate against s,
// and optionally type-check. A parse failure short-circuits the rest of
// the pipeline (parse errors are always fatal, spec §7); validation and
// type checking never short-circuit each other once parsing succeeds.
func Validate(text string, s *schema.Schema, opts Options) Report {
	q, err := parser.ParseQuery(text)
	if err != nil {
		return Report{ParseError: err}
	}

	elements := extract.Extract(q)
	validationErrors := validate.Validate(elements, s)
	typeIssues := typecheck.Check(elements, s, typecheck.Options{Level: opts.TypeChecking})

	return Report{
		ValidationErrors: validationErrors,
		TypeIssues:       typeIssues,
	}
}
