package pawnfile

import "strings"

// Scan extracts the string literals from decoded Pawn source text, in
// document order, non-overlapping. Quoted text inside block comments
// (/* */) and line comments (//) is never extracted. Escaped quotes (\")
// inside a literal do not terminate it. Empty literals are still yielded;
// deciding that they need no translation is the translator's job.
func Scan(text string) []Literal {
	var lits []Literal

	i := 0
	n := len(text)
	for i < n {
		switch {
		case strings.HasPrefix(text[i:], "//"):
			j := strings.IndexAny(text[i:], "\r\n")
			if j < 0 {
				return lits
			}
			i += j

		case strings.HasPrefix(text[i:], "/*"):
			j := strings.Index(text[i+2:], "*/")
			if j < 0 {
				return lits
			}
			i += 2 + j + 2

		case text[i] == '"':
			start := i + 1
			j := start
			for j < n && text[j] != '"' {
				if text[j] == '\\' && j+1 < n {
					j += 2
					continue
				}
				j++
			}
			if j >= n {
				// Unterminated literal; treat the tail as plain text.
				return lits
			}
			lits = append(lits, Literal{Text: text[start:j], Start: start, End: j})
			i = j + 1

		default:
			i++
		}
	}

	return lits
}

// pawnEscapable lists the characters that may legally follow a backslash in
// a Pawn string literal.
const pawnEscapable = `ntbrfva"'\%{} `

// EscapeForPawn re-escapes translated text so it is a valid Pawn string
// literal body. Escape sequences that survived translation intact are kept
// as-is; a bare backslash that is not part of a recognized sequence becomes
// \\, and a bare double quote becomes \".
func EscapeForPawn(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\':
			if i+1 < len(s) && strings.IndexByte(pawnEscapable, s[i+1]) >= 0 {
				b.WriteByte(c)
				b.WriteByte(s[i+1])
				i++
			} else {
				b.WriteString(`\\`)
			}
		case '"':
			b.WriteString(`\"`)
		default:
			b.WriteByte(c)
		}
	}

	return b.String()
}
