package roster

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ReadLines reads the whole roster from r and splits it into lines.
//
// A UTF-8 or UTF-16 byte order mark selects the matching decoding and is
// stripped. Input without a BOM that is not valid UTF-8 is read as Latin-1.
// Trailing carriage returns are removed and the empty tail after a final
// newline is dropped.
func ReadLines(r io.Reader) ([]string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster: %w", err)
	}

	text, _, err := transform.Bytes(unicode.BOMOverride(transform.Nop), raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode roster: %w", err)
	}
	if !utf8.Valid(text) {
		text, err = charmap.ISO8859_1.NewDecoder().Bytes(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to decode roster as latin-1: %w", err)
		}
	}

	if len(text) == 0 {
		return nil, nil
	}
	lines := strings.Split(string(text), "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines, nil
}
