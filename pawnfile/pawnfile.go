// Package pawnfile implements reading, scanning, and writing of Pawn
// (SA-MP gamemode) script files.
//
// Pawn scripts from the SA-MP era are encoded in Windows-1251. The codepage
// is strictly a boundary concern: Load decodes the raw bytes into UTF-8 once,
// everything in between operates on the decoded text, and Save encodes back
// to Windows-1251 at the very end. Runes that cannot be represented in the
// target codepage are replaced rather than failing the write, matching how
// the scripts were produced in the first place.
package pawnfile

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Document is a decoded Pawn script together with its extracted string
// literals. The text is immutable for the duration of a run; Render produces
// a new string instead of mutating it.
type Document struct {
	// Text is the full script decoded to UTF-8.
	Text string
	// Literals are the extracted string literals in document order,
	// non-overlapping, with ascending spans.
	Literals []Literal
}

// Literal is one extracted string literal: the text between the quotes
// (escape sequences left intact) plus its byte span within Document.Text.
type Literal struct {
	Text  string
	Start int // offset of the first byte after the opening quote
	End   int // offset of the closing quote
}

// Load reads and decodes a Pawn script and extracts its string literals.
func Load(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	defer f.Close()

	text, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	return &Document{Text: text, Literals: Scan(text)}, nil
}

// Decode converts Windows-1251 bytes into a UTF-8 string.
func Decode(r io.Reader) (string, error) {
	data, err := io.ReadAll(transform.NewReader(r, charmap.Windows1251.NewDecoder()))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Encode converts a UTF-8 string into Windows-1251 bytes. Runes without a
// Windows-1251 representation are replaced with the codepage substitute.
func Encode(text string) ([]byte, error) {
	enc := encoding.ReplaceUnsupported(charmap.Windows1251.NewEncoder())
	return enc.Bytes([]byte(text))
}

// Save encodes text to Windows-1251 and writes it to path.
func Save(path, text string) error {
	data, err := Encode(text)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Backup copies the file at path to path+".bak", preserving the raw bytes.
func Backup(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	bak := path + ".bak"
	if err := os.WriteFile(bak, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", bak, err)
	}
	return nil
}

// Render splices replacement texts over the literal spans and returns the
// final document text. replacements maps a literal index (into d.Literals)
// to the new inner text; literals without a replacement are left verbatim,
// as is everything between literals. Spans are processed in ascending order
// with a running cursor, so no offset bookkeeping is needed.
func (d *Document) Render(replacements map[int]string) string {
	var b strings.Builder
	b.Grow(len(d.Text))

	cursor := 0
	for i, lit := range d.Literals {
		rep, ok := replacements[i]
		if !ok {
			continue
		}
		b.WriteString(d.Text[cursor:lit.Start])
		b.WriteString(rep)
		cursor = lit.End
	}
	b.WriteString(d.Text[cursor:])

	return b.String()
}
