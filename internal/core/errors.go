package core

import (
	"errors"
	"fmt"

	"github.com/JonMunkholm/geocalc/internal/geometry"
	"github.com/JonMunkholm/geocalc/internal/pointcsv"
)

// ErrFileTooLarge is returned when an input file exceeds the configured size.
var ErrFileTooLarge = errors.New("file too large")

// InputMissingError reports a required input the user did not provide.
// It is recovered locally and shown as a plain instruction.
type InputMissingError struct {
	Field   string
	Message string
}

func (e *InputMissingError) Error() string {
	return e.Message
}

// Validation fields. Each has its own user-facing message.
const (
	FieldPoints  = "points"
	FieldHeight  = "height"
	FieldVolume  = "volume"
	FieldDensity = "density"
	FieldMode    = "mode"
)

// ValidationError reports a value that was supplied but is unusable.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ReadError wraps a failure to read or parse one input file.
type ReadError struct {
	File string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.File, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

var (
	errNoFile       = &InputMissingError{Field: "file", Message: "Upload a CSV file first."}
	errNoFiles      = &InputMissingError{Field: "file", Message: "Upload both CSV files first."}
	errNoVolume     = &InputMissingError{Field: FieldVolume, Message: "Enter a volume."}
	errNoDensity    = &InputMissingError{Field: FieldDensity, Message: "Enter a density."}
	errFewPoints    = &ValidationError{Field: FieldPoints, Message: "No valid data: at least 3 points with numeric X and Y are required."}
	errFewPointsAny = &ValidationError{Field: FieldPoints, Message: "No valid data in one of the files: each needs at least 3 points with numeric X and Y."}
	errBadVolume    = &ValidationError{Field: FieldVolume, Message: "Enter a valid volume greater than zero."}
	errBadDensity   = &ValidationError{Field: FieldDensity, Message: "Enter a valid density greater than zero."}
)

// NewModeError reports a CSV mode name that is neither named nor positional.
func NewModeError(mode string) error {
	return &ValidationError{Field: FieldMode, Message: fmt.Sprintf("Unknown CSV mode %q: use named or positional.", mode)}
}

// errorMarker prefixes failures that come from reading or parsing a file.
const errorMarker = "Error: "

// UserText returns the single status line shown in place of a result.
//
// Input and validation problems are instructions and are returned verbatim.
// Read and parse failures, including missing header columns, carry the
// error marker. Anything else is mapped through MapError.
func UserText(err error) string {
	if err == nil {
		return ""
	}

	var (
		missing      *InputMissingError
		invalid      *ValidationError
		insufficient *geometry.InsufficientDataError
		badHeight    *geometry.InvalidHeightError
		columns      *pointcsv.MissingColumnError
		read         *ReadError
	)

	switch {
	case errors.As(err, &missing):
		return missing.Error()
	case errors.As(err, &invalid):
		return invalid.Error()
	case errors.As(err, &insufficient):
		return insufficient.Error()
	case errors.As(err, &badHeight):
		return badHeight.Error()
	case errors.As(err, &columns):
		return errorMarker + columns.Error()
	case errors.As(err, &read):
		if IsUserFacing(read.Err) {
			return errorMarker + MapError(read.Err).Message
		}
		return errorMarker + read.Error()
	default:
		return errorMarker + MapError(err).Message
	}
}
