// Package pointcsv parses point-cloud CSV exports into coordinate sets.
//
// Two layouts are supported, each with its own entry point:
//
//   - Named: the first row is a header; x, y and optional z columns are
//     located by label (case-insensitive). A header without x or y is an
//     error.
//   - Positional: the legacy survey export (fid, Meetpunt, X, Y). The first
//     row is skipped unread and x/y are taken from columns 2 and 3.
//
// In both layouts fields may be separated by commas or semicolons, mixed
// freely within a file. A row whose x or y is not a finite number is dropped
// and counted in Result.Skipped; that is never an error.
package pointcsv

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/JonMunkholm/geocalc/internal/geometry"
	"github.com/samber/lo"
)

// Legacy positional column indices.
const (
	PositionalXIndex = 2
	PositionalYIndex = 3
)

var (
	lineSep  = regexp.MustCompile(`\r\n|\r|\n`)
	fieldSep = regexp.MustCompile(`[;,]`)
)

// Result is the outcome of parsing one file.
type Result struct {
	Points  geometry.CoordinateSet
	Rows    int // data rows after the header
	Skipped int // rows dropped because x or y did not parse
}

// MissingColumnError is returned by the named parser when the header has no
// x or no y column.
type MissingColumnError struct {
	Header  []string
	Missing []string
}

func (e *MissingColumnError) Error() string {
	return "Columns X and Y not found in header"
}

// Columns holds located column indices. Z is -1 when the header has no z.
type Columns struct {
	X int
	Y int
	Z int
}

// ParseNamed parses text whose first row names its columns.
func ParseNamed(text string) (Result, error) {
	records := splitRecords(text)
	if len(records) == 0 {
		return Result{}, &MissingColumnError{Missing: []string{"x", "y"}}
	}

	cols, err := LocateColumns(records[0])
	if err != nil {
		return Result{}, err
	}

	res := Result{Rows: len(records) - 1}
	for _, row := range records[1:] {
		x, okX := fieldFloat(row, cols.X)
		y, okY := fieldFloat(row, cols.Y)
		if !okX || !okY {
			res.Skipped++
			continue
		}

		pt := geometry.Point3D{X: x, Y: y}
		if cols.Z >= 0 {
			if z, ok := fieldFloat(row, cols.Z); ok {
				pt.Z = geometry.Some(z)
			}
		}
		res.Points = append(res.Points, pt)
	}

	return res, nil
}

// ParsePositional parses the legacy layout. It never fails: a file with a
// meaningless header simply yields whatever rows parse at columns 2 and 3.
func ParsePositional(text string) Result {
	records := splitRecords(text)
	if len(records) == 0 {
		return Result{}
	}

	res := Result{Rows: len(records) - 1}
	for _, row := range records[1:] {
		x, okX := fieldFloat(row, PositionalXIndex)
		y, okY := fieldFloat(row, PositionalYIndex)
		if !okX || !okY {
			res.Skipped++
			continue
		}
		res.Points = append(res.Points, geometry.Point3D{X: x, Y: y})
	}

	return res
}

// LocateColumns finds the x, y and z columns in a header row. The first
// matching label wins when a label repeats.
func LocateColumns(header []string) (Columns, error) {
	labels := lo.Map(header, func(h string, _ int) string {
		return strings.ToLower(cleanField(h))
	})

	cols := Columns{
		X: lo.IndexOf(labels, "x"),
		Y: lo.IndexOf(labels, "y"),
		Z: lo.IndexOf(labels, "z"),
	}

	var missing []string
	if cols.X < 0 {
		missing = append(missing, "x")
	}
	if cols.Y < 0 {
		missing = append(missing, "y")
	}
	if len(missing) > 0 {
		return Columns{}, &MissingColumnError{Header: header, Missing: missing}
	}

	return cols, nil
}

// splitRecords splits text into rows and fields. Surrounding whitespace is
// trimmed first so a trailing newline does not produce an empty row.
func splitRecords(text string) [][]string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	lines := lineSep.Split(text, -1)
	records := make([][]string, len(lines))
	for i, line := range lines {
		records[i] = fieldSep.Split(line, -1)
	}
	return records
}

// fieldFloat parses row[idx] as a finite float.
func fieldFloat(row []string, idx int) (float64, bool) {
	if idx < 0 || idx >= len(row) {
		return 0, false
	}
	s := cleanField(row[idx])
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// cleanField trims whitespace and one level of double quotes.
func cleanField(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

// Mode selects a parsing layout.
type Mode string

const (
	ModeNamed      Mode = "named"
	ModePositional Mode = "positional"
)

// ParseMode converts a user-supplied mode name. The empty string selects
// ModeNamed; "legacy" is accepted for ModePositional.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(ModeNamed):
		return ModeNamed, nil
	case string(ModePositional), "legacy":
		return ModePositional, nil
	default:
		return "", fmt.Errorf("unknown csv mode %q (want named or positional)", s)
	}
}

// Parser turns raw file bytes into a coordinate set.
type Parser interface {
	Parse(data []byte) (Result, error)
}

// NamedParser is the Parser for header-labelled files.
type NamedParser struct{}

// Parse decodes data and calls ParseNamed.
func (NamedParser) Parse(data []byte) (Result, error) {
	text, err := Decode(data)
	if err != nil {
		return Result{}, err
	}
	return ParseNamed(text)
}

// PositionalParser is the Parser for the legacy layout.
type PositionalParser struct{}

// Parse decodes data and calls ParsePositional.
func (PositionalParser) Parse(data []byte) (Result, error) {
	text, err := Decode(data)
	if err != nil {
		return Result{}, err
	}
	return ParsePositional(text), nil
}

// Parser returns the Parser for m. Unknown modes get the named parser.
func (m Mode) Parser() Parser {
	if m == ModePositional {
		return PositionalParser{}
	}
	return NamedParser{}
}
