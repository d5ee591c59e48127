package pointcsv

// decode.go normalizes uploaded bytes before parsing.
//
// Files come from spreadsheet exports on every platform, so the decoder:
//   - strips a UTF-8 BOM (0xEF 0xBB 0xBF)
//   - detects a UTF-16 BOM and transcodes to UTF-8
//   - replaces invalid UTF-8 sequences with U+FFFD
//
// Replaced bytes only ever affect a single field, which then fails numeric
// parsing and drops its row.

import (
	"fmt"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

func newDecoder() transform.Transformer {
	return unicode.BOMOverride(unicode.UTF8.NewDecoder())
}

// Decode converts raw file bytes to UTF-8 text.
func Decode(data []byte) (string, error) {
	out, _, err := transform.Bytes(newDecoder(), data)
	if err != nil {
		return "", fmt.Errorf("encoding error: %w", err)
	}
	return string(out), nil
}
