package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/JonMunkholm/geocalc/internal/geometry"
	"github.com/JonMunkholm/geocalc/internal/pointcsv"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"nil error returns empty", nil, ""},
		{"missing file", errNoFile, "INP001"},
		{"missing both files", errNoFiles, "INP001"},
		{"missing density", errNoDensity, "INP002"},
		{"missing volume", errNoVolume, "INP003"},
		{"too few points", errFewPoints, "VAL001"},
		{"too few points in either file", errFewPointsAny, "VAL001"},
		{"invalid height", &geometry.InvalidHeightError{Height: 0, Derived: true}, "VAL002"},
		{"invalid volume", errBadVolume, "VAL003"},
		{"invalid density", errBadDensity, "VAL004"},
		{"unknown mode", NewModeError("fixed"), "VAL005"},
		{"missing columns", &pointcsv.MissingColumnError{Header: []string{"a", "b"}}, "CSV001"},
		{"missing columns inside read error", &ReadError{File: "a.csv", Err: &pointcsv.MissingColumnError{}}, "CSV001"},
		{"encoding error", errors.New("encoding error: invalid UTF-8"), "CSV002"},
		{"file too large", fmt.Errorf("read big.csv: %w", ErrFileTooLarge), "CSV003"},
		{"no height data", &geometry.InsufficientDataError{BottomHasZ: true}, "HGT001"},
		{"busy", ErrBusy, "UPL002"},
		{"cancelled", context.Canceled, "UPL004"},
		{"timed out", context.DeadlineExceeded, "UPL005"},
		{"rate limited", errors.New("Rate limit exceeded"), "RATE001"},
		{"unknown", errors.New("some random internal error"), "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MapError(tt.err); got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	got := FormatUserError(ErrBusy)
	want := "System is busy processing other computations (Code: UPL002). Please wait a moment and try again"
	if got != want {
		t.Errorf("FormatUserError() = %q, want %q", got, want)
	}

	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"known", ErrFileTooLarge, true},
		{"unknown", errors.New("xyz"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUserText(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"missing input is verbatim", errNoDensity, "Enter a density."},
		{"validation is verbatim", errBadVolume, "Enter a valid volume greater than zero."},
		{"insufficient data is verbatim", &geometry.InsufficientDataError{}, "Enter a height or provide a Z column in both files"},
		{"missing columns carry the marker", &ReadError{File: "a.csv", Err: &pointcsv.MissingColumnError{}}, "Error: Columns X and Y not found in header"},
		{"mapped read failure", &ReadError{File: "a.csv", Err: ErrFileTooLarge}, "Error: File exceeds the maximum size limit"},
		{"unmapped read failure keeps detail", &ReadError{File: "a.csv", Err: errors.New("permission denied")}, "Error: read a.csv: permission denied"},
		{"other errors are mapped", ErrBusy, "Error: System is busy processing other computations"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserText(tt.err); got != tt.want {
				t.Errorf("UserText() = %q, want %q", got, tt.want)
			}
		})
	}
}
