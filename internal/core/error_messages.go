package core

// error_messages.go maps technical errors to user-facing messages with codes
// for support reference. Codes are grouped by category:
//
//	DB001-DB007     database constraints and connectivity
//	VAL001-VAL008   field and file-structure validation
//	FILE001-FILE005 uploaded file handling
//	IMP001-IMP005   import workflow
//	INV001-INV004   inventory record state
//	RATE001         request throttling
//	ERR000          fallback; check the server log for the original error
//
// Patterns are matched case-insensitively with strings.Contains and the
// first match wins, so specific patterns come before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action"`
	Code    string `json:"code"`
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// =========================================================================
	// Database (DB001-DB007)
	// =========================================================================
	{"duplicate key", UserMessage{"A record with this ID already exists", "Use a different ID or update the existing record", "DB001"}},
	{"unique constraint", UserMessage{"This value must be unique but already exists", "Check for duplicate entries", "DB002"}},
	{"violates unique", UserMessage{"A duplicate value was found", "Review your data for duplicate key values", "DB002"}},
	{"foreign key", UserMessage{"Referenced record does not exist", "Check the selected category and subcategory", "DB003"}},
	{"connection refused", UserMessage{"Unable to connect to database", "Please try again in a few moments", "DB004"}},
	{"connection reset", UserMessage{"Database connection was interrupted", "Please try again", "DB005"}},
	{"timeout", UserMessage{"Operation timed out", "Try a smaller file or try again later", "DB006"}},
	{"deadlock", UserMessage{"Database was busy with conflicting operations", "Please try again", "DB007"}},

	// =========================================================================
	// Validation (VAL001-VAL008)
	// =========================================================================
	{"invalid date", UserMessage{"Invalid date format detected", "Use YYYY-MM-DD or MM/DD/YYYY", "VAL001"}},
	{"invalid number", UserMessage{"Invalid number format detected", "Remove letters and use a standard decimal format", "VAL002"}},
	{"required field", UserMessage{"Required field is empty", "Fill in every required field", "VAL003"}},
	{"missing required column", UserMessage{"Required column is missing from CSV", "Download the template and compare headers", "VAL004"}},
	{"header not found", UserMessage{"Expected header row not found in CSV", "Verify column headers match the template", "VAL005"}},
	{"must be one of", UserMessage{"Value is not in the allowed list", "Check the allowed values for this field", "VAL006"}},
	{"invalid ipv4", UserMessage{"Invalid IP address", "Use dotted form such as 192.168.1.10", "VAL007"}},
	{"invalid mac", UserMessage{"Invalid MAC address", "Use 12 hex digits such as AA:BB:CC:DD:EE:FF", "VAL008"}},

	// =========================================================================
	// Files (FILE001-FILE005)
	// =========================================================================
	{"file too large", UserMessage{"File exceeds the maximum upload size", "Split the file into smaller chunks", "FILE001"}},
	{"invalid csv", UserMessage{"File is not a valid CSV", "Ensure the file is comma-separated", "FILE002"}},
	{"encoding error", UserMessage{"File contains invalid characters", "Save the file as UTF-8", "FILE003"}},
	{"no file provided", UserMessage{"No file was selected", "Please select a CSV file to upload", "FILE004"}},
	{"empty file", UserMessage{"The uploaded file is empty", "Please upload a CSV file with data rows", "FILE005"}},

	// =========================================================================
	// Imports (IMP001-IMP005)
	// =========================================================================
	{"import cancelled", UserMessage{"Import was cancelled", "Start a new import when ready", "IMP001"}},
	{"too many concurrent imports", UserMessage{"System is busy processing other imports", "Please wait a moment and try again", "IMP002"}},
	{"too many rows", UserMessage{"File has more rows than a single import allows", "Split the file into smaller chunks", "IMP003"}},
	{"context canceled", UserMessage{"Request was cancelled", "Please try again", "IMP004"}},
	{"context deadline exceeded", UserMessage{"Request timed out", "Try a smaller file or check your connection", "IMP005"}},

	// =========================================================================
	// Inventory records (INV001-INV004)
	// =========================================================================
	{"not deleted", UserMessage{"Record is not deleted", "Only deleted records can be restored", "INV002"}},
	{"serial number", UserMessage{"Serial number is already in use", "Search deleted records for the existing entry", "INV003"}},
	{"in use", UserMessage{"Item is still in use", "Reassign subscriptions first or force the change", "INV004"}},
	{"not found", UserMessage{"Record not found", "It may have been deleted; check the admin panel", "INV001"}},

	// =========================================================================
	// Rate limiting (RATE001)
	// =========================================================================
	{"rate limit", UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
// Example:
//
//	msg := MapError(errors.New("duplicate key violation"))
//	// msg.Code == "DB001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
