// Package core provides the computation pipeline for geocalc.
//
// # Error Codes Reference
//
// This file maps errors to user-friendly messages with codes for support
// reference. Users can quote the code when reporting a problem.
//
// # Input Errors (INP001-INP099)
//
//	INP001 - No file: A CSV file was not provided
//	         Action: Select a CSV file (two for a volume computation)
//	INP002 - No density: Density was not entered
//	         Action: Enter a density in tons per cubic meter
//	INP003 - No volume: Volume was not entered
//	         Action: Enter a volume in cubic meters
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Too few points: Fewer than 3 rows had numeric X and Y
//	         Action: Check the X and Y columns contain numbers
//	VAL002 - Invalid height: Height must be greater than zero
//	         Action: Enter a positive height or use differing elevations
//	VAL003 - Invalid volume: Volume must be greater than zero
//	VAL004 - Invalid density: Density must be greater than zero
//	VAL005 - Invalid mode: CSV mode is not named or positional
//
// # CSV Errors (CSV001-CSV099)
//
//	CSV001 - Missing columns: Header has no X or Y column
//	         Action: Name the coordinate columns X and Y, or use positional mode
//	CSV002 - Unreadable file: The file could not be read or decoded
//	         Patterns: "encoding error", "read"
//	CSV003 - File too large: The file exceeds the configured size limit
//	         Patterns: "file too large"
//
// # Height Errors (HGT001-HGT099)
//
//	HGT001 - No height data: No height entered and elevations incomplete
//	         Action: Enter a height or add a Z column to both files
//
// # Service Errors
//
//	UPL002 - System busy: Too many computations in progress
//	UPL004 - Request cancelled
//	UPL005 - Request timed out
//	RATE001 - Rate limited
//	ERR000 - Unknown error; check application logs
//
// # Matching
//
// Typed errors are matched first with errors.As. Remaining errors fall back
// to case-insensitive substring patterns; the first match wins.
package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/geocalc/internal/geometry"
	"github.com/JonMunkholm/geocalc/internal/pointcsv"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// typedRule matches an error by type or identity.
type typedRule struct {
	match func(error) bool
	msg   func(error) UserMessage
}

func asType[T error](err error) bool {
	var target T
	return errors.As(err, &target)
}

func fixed(msg UserMessage) func(error) UserMessage {
	return func(error) UserMessage { return msg }
}

var typedRules = []typedRule{
	{
		match: func(err error) bool {
			var e *InputMissingError
			return errors.As(err, &e) && e.Field == "file"
		},
		msg: fixed(UserMessage{
			Message: "No file was selected",
			Action:  "Select a CSV file (two for a volume computation)",
			Code:    "INP001",
		}),
	},
	{
		match: func(err error) bool {
			var e *InputMissingError
			return errors.As(err, &e) && e.Field == FieldDensity
		},
		msg: fixed(UserMessage{
			Message: "Density was not entered",
			Action:  "Enter a density in tons per cubic meter",
			Code:    "INP002",
		}),
	},
	{
		match: func(err error) bool {
			var e *InputMissingError
			return errors.As(err, &e) && e.Field == FieldVolume
		},
		msg: fixed(UserMessage{
			Message: "Volume was not entered",
			Action:  "Enter a volume in cubic meters",
			Code:    "INP003",
		}),
	},
	{
		match: asType[*ValidationError],
		msg: func(err error) UserMessage {
			var e *ValidationError
			errors.As(err, &e)
			return validationMessages[e.Field]
		},
	},
	{
		match: asType[*geometry.InvalidHeightError],
		msg:   func(error) UserMessage { return validationMessages[FieldHeight] },
	},
	{
		match: asType[*pointcsv.MissingColumnError],
		msg: fixed(UserMessage{
			Message: "Columns X and Y not found in header",
			Action:  "Name the coordinate columns X and Y, or use positional mode",
			Code:    "CSV001",
		}),
	},
	{
		match: func(err error) bool { return errors.Is(err, ErrFileTooLarge) },
		msg: fixed(UserMessage{
			Message: "File exceeds the maximum size limit",
			Action:  "Remove unused columns or split the survey",
			Code:    "CSV003",
		}),
	},
	{
		match: asType[*geometry.InsufficientDataError],
		msg: fixed(UserMessage{
			Message: "No height entered and the files lack complete elevation data",
			Action:  "Enter a height or add a Z column to both files",
			Code:    "HGT001",
		}),
	},
	{
		match: func(err error) bool { return errors.Is(err, ErrBusy) },
		msg: fixed(UserMessage{
			Message: "System is busy processing other computations",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
		}),
	},
}

var validationMessages = map[string]UserMessage{
	FieldPoints: {
		Message: "Not enough valid points",
		Action:  "Check the X and Y columns contain at least 3 numeric rows",
		Code:    "VAL001",
	},
	FieldHeight: {
		Message: "Height must be greater than zero",
		Action:  "Enter a positive height or use files with differing elevations",
		Code:    "VAL002",
	},
	FieldVolume: {
		Message: "Volume must be greater than zero",
		Action:  "Enter a positive volume in cubic meters",
		Code:    "VAL003",
	},
	FieldDensity: {
		Message: "Density must be greater than zero",
		Action:  "Enter a positive density in tons per cubic meter",
		Code:    "VAL004",
	},
	FieldMode: {
		Message: "Unknown CSV mode",
		Action:  "Use named for files with an X/Y header, positional for legacy exports",
		Code:    "VAL005",
	},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (case-insensitive) to user messages
// for errors that are not one of the typed errors above.
var errorPatterns = []errorPattern{
	{
		pattern: "encoding error",
		msg: UserMessage{
			Message: "File contains invalid characters",
			Action:  "Save the file as UTF-8",
			Code:    "CSV002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "UPL005",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
	{
		pattern: "read",
		msg: UserMessage{
			Message: "The file could not be read",
			Action:  "Check the file is a plain CSV export and try again",
			Code:    "CSV002",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts an error to a user-friendly message. Typed errors are
// checked first, then text patterns. Unmatched errors get ERR000.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, r := range typedRules {
		if r.match(err) {
			return r.msg(err)
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
