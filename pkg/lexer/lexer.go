// Package lexer provides the lexical primitives the parser builds on:
// identifier, number, string-literal and parameter recognizers, plus a
// tokenizer that strings them together. Reserved words are not lexically
// distinguished from identifiers here — disambiguation between e.g.
// `SHORTEST` the path selector and `shortest` the variable name happens
// grammatically, one layer up, in pkg/parser.
package lexer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/joetechbob/cypher-guard/pkg/cgerrors"
)

// TokenKind classifies one scanned token.
type TokenKind int

const (
	TokEOF TokenKind = iota
	TokIdentifier
	TokNumber
	TokString
	TokParameter
	TokSymbol // punctuation/operators: ( ) [ ] { } , . : = etc, matched verbatim
)

// Token is one lexeme plus its byte offset in the source, used to derive
// line/column positions on demand rather than eagerly for every token.
type Token struct {
	Kind   TokenKind
	Text   string
	Offset int
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// ScanIdentifier reads a maximal identifier starting at offset i; returns
// the identifier text and the offset just past it. Caller must have
// already confirmed isIdentStart(src[i]).
func ScanIdentifier(src string, i int) (string, int) {
	j := i + 1
	for j < len(src) && isIdentPart(src[j]) {
		j++
	}
	return src[i:j], j
}

// ScanNumber reads a maximal numeric literal starting at offset i:
// optional leading '-', digits, optional '.' + digits. Returns the raw
// text, whether a fractional part was present, and the offset past it.
func ScanNumber(src string, i int) (text string, isFloat bool, next int) {
	j := i
	if j < len(src) && src[j] == '-' {
		j++
	}
	start := j
	for j < len(src) && isDigit(src[j]) {
		j++
	}
	if j < len(src) && src[j] == '.' && j+1 < len(src) && isDigit(src[j+1]) {
		isFloat = true
		j++
		for j < len(src) && isDigit(src[j]) {
			j++
		}
	}
	_ = start
	return src[i:j], isFloat, j
}

// ScanString reads a single- or double-quoted string literal starting at
// offset i (src[i] must be a quote character). There is no escape
// processing: the literal ends at the next occurrence of the opening
// quote byte, whatever precedes it. This matches the grounding source's
// documented limitation (see DESIGN.md) rather than a generic unescape.
func ScanString(src string, i int) (content string, next int, err error) {
	quote := src[i]
	j := i + 1
	for j < len(src) && src[j] != quote {
		j++
	}
	if j >= len(src) {
		return "", j, fmt.Errorf("unterminated string literal starting at offset %d", i)
	}
	return src[i+1 : j], j + 1, nil
}

// ScanParameter reads a `$identifier` parameter reference starting at
// offset i (src[i] must be '$').
func ScanParameter(src string, i int) (name string, next int, err error) {
	j := i + 1
	if j >= len(src) || !isIdentStart(src[j]) {
		return "", j, fmt.Errorf("expected identifier after '$' at offset %d", i)
	}
	name, next = ScanIdentifier(src, j)
	return name, next, nil
}

// multiByteSymbols are tried longest-first so e.g. `<=` is not split
// into `<` and `=`.
var multiByteSymbols = []string{
	"<>", "<=", ">=", "=~", "..", "+=", "->", "<-",
}

// Tokenize turns raw Cypher text into a flat token stream. Whitespace is
// consumed greedily between tokens. There is no comment support: a `//`
// sequence is tokenized as two TokSymbol `/` tokens, which the parser
// will then fail to make sense of — matching the documented absence of
// comment support (see DESIGN.md open question).
func Tokenize(src string) ([]Token, error) {
	var toks []Token
	i := 0
	n := len(src)
	for i < n {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case isIdentStart(c):
			text, j := ScanIdentifier(src, i)
			toks = append(toks, Token{TokIdentifier, text, i})
			i = j
		case isDigit(c) || (c == '-' && i+1 < n && isDigit(src[i+1]) && precededByOperand(toks)):
			text, _, j := ScanNumber(src, i)
			toks = append(toks, Token{TokNumber, text, i})
			i = j
		case c == '\'' || c == '"':
			content, j, err := ScanString(src, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, Token{TokString, content, i})
			i = j
		case c == '$':
			name, j, err := ScanParameter(src, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, Token{TokParameter, name, i})
			i = j
		default:
			matched := false
			for _, sym := range multiByteSymbols {
				if strings.HasPrefix(src[i:], sym) {
					toks = append(toks, Token{TokSymbol, sym, i})
					i += len(sym)
					matched = true
					break
				}
			}
			if matched {
				continue
			}
			toks = append(toks, Token{TokSymbol, string(c), i})
			i++
		}
	}
	toks = append(toks, Token{TokEOF, "", n})
	return toks, nil
}

// precededByOperand reports whether a leading '-' should be read as part
// of a negative number literal (true at the start of input, or right
// after an operator/open-bracket/comma) versus as a binary minus
// operator (true right after an identifier, number, string, or closing
// bracket). The parser's expression grammar re-derives this more
// precisely via lookahead; this is only used to keep the tokenizer from
// needing a second pass.
func precededByOperand(toks []Token) bool {
	if len(toks) == 0 {
		return true
	}
	last := toks[len(toks)-1]
	if last.Kind != TokSymbol {
		return false
	}
	switch last.Text {
	case ")", "]", "}":
		return false
	default:
		return true
	}
}

// PositionOf derives a 1-indexed line/column for a byte offset by
// counting newline bytes up to it.
func PositionOf(src string, offset int) cgerrors.Position {
	if offset > len(src) {
		offset = len(src)
	}
	line := 1
	col := 1
	for i := 0; i < offset; i++ {
		if src[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return cgerrors.Position{Line: line, Column: col}
}

// ParseNumberText converts a scanned numeric literal's raw text into its
// int64/float64 forms. The int64 form is always populated, even for
// fractional literals, via truncation — see DESIGN.md for why this
// preserves rather than resolves the lossy-conversion open question.
func ParseNumberText(text string) (asInt int64, asFloat float64, isFloat bool) {
	if strings.Contains(text, ".") {
		f, err := strconv.ParseFloat(text, 64)
		if err == nil {
			return int64(f), f, true
		}
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err == nil {
		return n, float64(n), false
	}
	f, _ := strconv.ParseFloat(text, 64)
	return int64(f), f, true
}
