package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenizeBasicClause(t *testing.T) {
	toks, err := Tokenize("MATCH (a:Person) RETURN a")
	require.NoError(t, err)

	var kinds []TokenKind
	var texts []string
	for _, tk := range toks {
		kinds = append(kinds, tk.Kind)
		texts = append(texts, tk.Text)
	}
	require.Contains(t, texts, "MATCH")
	require.Contains(t, texts, "Person")
	require.Equal(t, TokEOF, kinds[len(kinds)-1])
}

func TestScanStringNoEscapeProcessing(t *testing.T) {
	content, next, err := ScanString(`'it''s'`, 0)
	require.NoError(t, err)
	// The literal ends at the first re-occurrence of the opening quote,
	// so the doubled quote is not treated as an escaped apostrophe.
	require.Equal(t, "it", content)
	require.Equal(t, 4, next)
}

func TestScanNumberFractional(t *testing.T) {
	text, isFloat, next := ScanNumber("3.14 ", 0)
	require.Equal(t, "3.14", text)
	require.True(t, isFloat)
	require.Equal(t, 4, next)
}

func TestScanParameter(t *testing.T) {
	name, next, err := ScanParameter("$userId ", 0)
	require.NoError(t, err)
	require.Equal(t, "userId", name)
	require.Equal(t, 7, next)
}

func TestTokenizeHasNoCommentSupport(t *testing.T) {
	toks, err := Tokenize("MATCH (a) // a comment\nRETURN a")
	require.NoError(t, err)
	// `//` tokenizes as two bare '/' symbols rather than being skipped,
	// matching the documented absence of comment support.
	slashCount := 0
	for _, tk := range toks {
		if tk.Kind == TokSymbol && tk.Text == "/" {
			slashCount++
		}
	}
	require.Equal(t, 2, slashCount)
}

func TestPositionOfCountsNewlines(t *testing.T) {
	src := "MATCH (a)\nRETURN a"
	pos := PositionOf(src, len("MATCH (a)\n"))
	require.Equal(t, 2, pos.Line)
	require.Equal(t, 1, pos.Column)
}
