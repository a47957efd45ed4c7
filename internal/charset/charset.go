// Package charset decodes legacy (non-UTF-8) ZIP filenames and comments, per spec.md §3 rule 4: when the
// general-purpose bit flag's language-encoding bit is clear, the raw bytes are decoded with a caller-supplied
// fallback charset, defaulting to CP-437. Grounded on golang.org/x/text/encoding/charmap, which is already an
// indirect dependency of the teacher's module graph (pulled in transitively via golang.org/x/net) and is the
// standard ecosystem home for legacy code-page decoding in Go.
package charset

import (
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Default is the fallback decoder used when a caller doesn't supply one: CP-437, the code page the original PKZIP
// tooling used, per spec.md's glossary entry for CP-437.
var Default encoding.Encoding = charmap.CodePage437

// Windows1252 is offered as the documented "acceptable superset approximation" for CP-437 per spec.md's glossary.
var Windows1252 encoding.Encoding = charmap.Windows1252

// Decode converts raw bytes encoded in enc into a UTF-8 string. If enc is nil, Default is used. Malformed byte
// sequences are replaced rather than causing an error, matching the parser's general tolerance for malformed
// input (spec.md §4.2's directory walk never fails on a single entry's cosmetic fields).
func Decode(raw []byte, enc encoding.Encoding) string {
	if enc == nil {
		enc = Default
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		// NewDecoder().Bytes never actually returns an error for charmap decoders (every byte maps to some
		// rune), but fall back to a lossy conversion defensively.
		return string(raw)
	}
	return string(out)
}
