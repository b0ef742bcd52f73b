// Package mask implements reversible masking of Pawn formatting tokens.
//
// Machine translation engines reorder, translate, and occasionally mangle
// arbitrary substrings. The only things that reliably survive a round trip
// through the engine are short inert markers, so every formatting token
// (color codes, format specifiers, escape sequences, layout whitespace) is
// replaced by a numbered marker before translation and restored afterwards.
//
// Markers use the mathematical white brackets ⟦N⟧ (U+27E6/U+27E7). Neither
// bracket exists in Windows-1251, so a marker can never collide with text
// that came out of a decoded Pawn script.
package mask

import (
	"regexp"
	"strconv"
	"strings"
)

// tokenPattern matches every formatting token recognized in Pawn string
// literals, in the order the alternatives are tried:
//
//	{FF0000} / {RED}       inline color codes
//	%s %d %-5.2f %% ...    format specifiers
//	\n \t \" \\ ...        escape sequences (backslash + escapable char)
//	\<newline>             line continuation
//	two or more spaces     layout padding
//	bare CR / LF           raw line breaks inside multi-line literals
var tokenPattern = regexp.MustCompile(
	`\{[\w#]+\}` +
		`|%[-.\d]*[sdifucxbU%]` +
		"|\\\\[ntbrfva\"'\\\\%{} ]" +
		`|\\\r?\n` +
		`| {2,}` +
		`|\r` +
		`|\n`,
)

// markerPattern matches the markers produced by Mask.
var markerPattern = regexp.MustCompile(`⟦(\d+)⟧`)

// TokenMap records the original token for each marker index,
// in first-occurrence order.
type TokenMap []string

// Masked is a string literal with its formatting tokens replaced by markers,
// together with the mapping needed to reverse the replacement.
type Masked struct {
	Text   string
	Tokens TokenMap
}

// Marker returns the inert marker text for index i.
func Marker(i int) string {
	return "⟦" + strconv.Itoa(i) + "⟧"
}

// Mask replaces every formatting token in s with a numbered marker.
// Markers are assigned in first-occurrence order and a repeated token reuses
// its marker, so equal literals always mask to equal text. This keeps cache
// keys stable across runs.
func Mask(s string) Masked {
	var tokens TokenMap
	index := make(map[string]int)

	text := tokenPattern.ReplaceAllStringFunc(s, func(tok string) string {
		i, ok := index[tok]
		if !ok {
			i = len(tokens)
			index[tok] = i
			tokens = append(tokens, tok)
		}
		return Marker(i)
	})

	return Masked{Text: text, Tokens: tokens}
}

// Unmask substitutes the original tokens back into translated, which is the
// masked text after it has (possibly) been through the translation engine.
// Markers the engine duplicated are expanded at every occurrence; markers
// with no recorded token are left untouched.
//
// Unmask(m.Text) == s holds for m = Mask(s).
func (m Masked) Unmask(translated string) string {
	return markerPattern.ReplaceAllStringFunc(translated, func(mk string) string {
		n := strings.TrimSuffix(strings.TrimPrefix(mk, "⟦"), "⟧")
		i, err := strconv.Atoi(n)
		if err != nil || i < 0 || i >= len(m.Tokens) {
			return mk
		}
		return m.Tokens[i]
	})
}
