// Package order implements the finite state machine that enforces
// Cypher's clause-ordering rules (spec component I): given the sequence
// of clauses a query parsed to, in parse order, decide whether that
// sequence is a legal arrangement before any schema is even consulted.
package order

import (
	"github.com/joetechbob/cypher-guard/pkg/ast"
	"github.com/joetechbob/cypher-guard/pkg/cgerrors"
)

type state int

const (
	stateInitial state = iota
	stateAfterMatch
	stateAfterUnwind
	stateAfterWhere
	stateAfterWith
	stateAfterCall
	stateAfterWrite
	stateAfterReturn
)

// clauseKind buckets the clause variants the transition table switches
// on. CREATE/MERGE/DELETE/REMOVE/SET/FOREACH are all "write" clauses.
type clauseKind int

const (
	kindMatch clauseKind = iota
	kindUnwind
	kindWhere
	kindWith
	kindCall
	kindWrite
	kindReturn
)

func kindOf(c ast.Clause) clauseKind {
	switch c.(type) {
	case *ast.MatchClause:
		return kindMatch
	case *ast.UnwindClause:
		return kindUnwind
	case *ast.WhereClause:
		return kindWhere
	case *ast.WithClause:
		return kindWith
	case *ast.CallClause:
		return kindCall
	case *ast.ReturnClause:
		return kindReturn
	default:
		return kindWrite
	}
}

// Validate walks a parsed clause sequence against the transition table
// in spec §4.I and returns the first violation found, or nil if the
// sequence is legal. Empty sequences are rejected by the caller before
// Validate is reached (an empty query has nothing to walk).
func Validate(seq []ast.Clause) error {
	st := stateInitial
	for _, c := range seq {
		k := kindOf(c)
		next, err := transition(st, k, c)
		if err != nil {
			return err
		}
		st = next
	}
	// AfterWith is non-terminal: a WITH must be followed by RETURN or a
	// write clause (spec §4.I terminal-acceptance rule).
	if st == stateAfterWith {
		last := seq[len(seq)-1]
		return &cgerrors.ParseError{
			Kind:    cgerrors.KindMissingRequiredClause,
			Clause:  "RETURN or a write clause",
			Pos:     last.Span().Pos,
			Context: "after WITH",
		}
	}
	return nil
}

func transition(st state, k clauseKind, c ast.Clause) (state, error) {
	pos := c.Span().Pos

	if st == stateAfterReturn {
		switch k {
		case kindMatch:
			return st, clauseOrderErr(cgerrors.KindMatchAfterReturn, pos, "after RETURN", "MATCH")
		case kindUnwind:
			return st, clauseOrderErr(cgerrors.KindUnwindAfterReturn, pos, "after RETURN", "UNWIND")
		case kindWhere:
			return st, clauseOrderErr(cgerrors.KindWhereAfterReturn, pos, "after RETURN", "WHERE")
		case kindWith:
			return st, clauseOrderErr(cgerrors.KindWithAfterReturn, pos, "after RETURN", "WITH")
		case kindCall:
			return st, invalidOrderErr(pos, "after RETURN", "CALL")
		case kindWrite:
			return stateAfterWrite, nil
		case kindReturn:
			return st, clauseOrderErr(cgerrors.KindReturnAfterReturn, pos, "after RETURN", "RETURN")
		}
	}

	if st == stateAfterWrite {
		switch k {
		case kindWith:
			return stateAfterWith, nil
		case kindWrite:
			return stateAfterWrite, nil
		case kindReturn:
			return stateAfterReturn, nil
		default:
			return st, invalidOrderErr(pos, "after a write clause", clauseName(k))
		}
	}

	if st == stateAfterCall {
		switch k {
		case kindWhere:
			return stateAfterWhere, nil
		case kindWith:
			return stateAfterWith, nil
		case kindCall:
			return stateAfterCall, nil
		case kindWrite:
			return stateAfterWrite, nil
		case kindReturn:
			return stateAfterReturn, nil
		default:
			return st, invalidOrderErr(pos, "after CALL", clauseName(k))
		}
	}

	// Initial, AfterMatch, AfterUnwind, AfterWhere, AfterWith all share
	// the same row per the transition table, except Initial forbids a
	// leading WHERE/WITH (there is nothing yet to filter or carry).
	switch k {
	case kindMatch:
		return stateAfterMatch, nil
	case kindUnwind:
		return stateAfterUnwind, nil
	case kindWhere:
		if st == stateInitial {
			return st, clauseOrderErr(cgerrors.KindWhereBeforeMatch, pos, "at start of query", "WHERE")
		}
		return stateAfterWhere, nil
	case kindWith:
		if st == stateInitial {
			return st, invalidOrderErr(pos, "at start of query", "WITH")
		}
		return stateAfterWith, nil
	case kindCall:
		return stateAfterCall, nil
	case kindWrite:
		return stateAfterWrite, nil
	case kindReturn:
		return stateAfterReturn, nil
	}
	return st, invalidOrderErr(pos, "", clauseName(k))
}

func clauseName(k clauseKind) string {
	switch k {
	case kindMatch:
		return "MATCH"
	case kindUnwind:
		return "UNWIND"
	case kindWhere:
		return "WHERE"
	case kindWith:
		return "WITH"
	case kindCall:
		return "CALL"
	case kindWrite:
		return "a write clause"
	case kindReturn:
		return "RETURN"
	default:
		return "clause"
	}
}

func clauseOrderErr(kind cgerrors.ParseErrorKind, pos cgerrors.Position, context, details string) error {
	return &cgerrors.ParseError{Kind: kind, Pos: pos, Context: context, Details: details}
}

func invalidOrderErr(pos cgerrors.Position, context, details string) error {
	return &cgerrors.ParseError{Kind: cgerrors.KindInvalidClauseOrder, Pos: pos, Context: context, Details: details}
}
