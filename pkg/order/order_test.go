package order

import (
	"testing"

	"github.com/joetechbob/cypher-guard/pkg/ast"
	"github.com/joetechbob/cypher-guard/pkg/cgerrors"
	"github.com/stretchr/testify/require"
)

func base() ast.Base { return ast.NewBase(cgerrors.Position{Line: 1, Column: 1}) }

func TestValidateAcceptsMatchWhereReturn(t *testing.T) {
	seq := []ast.Clause{
		&ast.MatchClause{Base: base()},
		&ast.WhereClause{Base: base()},
		&ast.ReturnClause{Base: base()},
	}
	require.NoError(t, Validate(seq))
}

func TestValidateAcceptsUnwindAsFirstClause(t *testing.T) {
	seq := []ast.Clause{
		&ast.UnwindClause{Base: base()},
		&ast.ReturnClause{Base: base()},
	}
	require.NoError(t, Validate(seq))
}

func TestValidateRejectsWhereBeforeMatch(t *testing.T) {
	seq := []ast.Clause{
		&ast.WhereClause{Base: base()},
		&ast.ReturnClause{Base: base()},
	}
	err := Validate(seq)
	require.Error(t, err)
	pe := err.(*cgerrors.ParseError)
	require.Equal(t, cgerrors.KindWhereBeforeMatch, pe.Kind)
}

func TestValidateRejectsMatchAfterReturn(t *testing.T) {
	seq := []ast.Clause{
		&ast.MatchClause{Base: base()},
		&ast.ReturnClause{Base: base()},
		&ast.MatchClause{Base: base()},
	}
	err := Validate(seq)
	require.Error(t, err)
	pe := err.(*cgerrors.ParseError)
	require.Equal(t, cgerrors.KindMatchAfterReturn, pe.Kind)
}

func TestValidateRejectsTrailingWith(t *testing.T) {
	seq := []ast.Clause{
		&ast.MatchClause{Base: base()},
		&ast.WithClause{Base: base()},
	}
	err := Validate(seq)
	require.Error(t, err)
	pe := err.(*cgerrors.ParseError)
	require.Equal(t, cgerrors.KindMissingRequiredClause, pe.Kind)
	require.Contains(t, pe.Context, "after WITH")
}

func TestValidateAcceptsWriteClauseAfterCall(t *testing.T) {
	seq := []ast.Clause{
		&ast.CallClause{Base: base()},
		&ast.CreateClause{Base: base()},
		&ast.ReturnClause{Base: base()},
	}
	require.NoError(t, Validate(seq))
}

func TestValidateAcceptsReturnAsFirstClause(t *testing.T) {
	seq := []ast.Clause{
		&ast.ReturnClause{Base: base()},
	}
	require.NoError(t, Validate(seq))
}
