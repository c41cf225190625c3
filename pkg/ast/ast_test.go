package ast

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFlattenPatternPassesThroughPlainSequence(t *testing.T) {
	a := &NodePattern{Variable: "a"}
	r := &RelationshipPattern{Variable: "r"}
	b := &NodePattern{Variable: "b"}
	out := FlattenPattern([]PatternElement{a, r, b})
	require.Equal(t, []PatternElement{a, r, b}, out)
}

func TestFlattenPatternInlinesQPPInnerOnce(t *testing.T) {
	a := &NodePattern{Variable: "a"}
	innerB := &NodePattern{Variable: "b"}
	innerRel := &RelationshipPattern{Variable: "r"}
	innerC := &NodePattern{Variable: "c"}
	qpp := &QuantifiedPathPattern{Inner: []PatternElement{innerB, innerRel, innerC}}

	out := FlattenPattern([]PatternElement{a, qpp})
	require.Equal(t, []PatternElement{a, innerB, innerRel, innerC}, out)
}

func TestFlattenPatternDoesNotRecurseIntoNestedQPP(t *testing.T) {
	nested := &QuantifiedPathPattern{Inner: []PatternElement{&NodePattern{Variable: "x"}}}
	outer := &QuantifiedPathPattern{Inner: []PatternElement{&NodePattern{Variable: "y"}, nested}}

	out := FlattenPattern([]PatternElement{outer})
	require.Len(t, out, 1)
	_, ok := out[0].(*NodePattern)
	require.True(t, ok)
}
