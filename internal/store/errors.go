package store

import (
	"fmt"
	"regexp"
	"strings"
)

// QueryError is a store-level execution failure with a sanitized message.
type QueryError struct {
	Message string
}

func (e *QueryError) Error() string {
	return e.Message
}

// TableNotFoundError reports a schema request for an unknown table.
type TableNotFoundError struct {
	Table string
}

func (e *TableNotFoundError) Error() string {
	return fmt.Sprintf("no such table: %s", e.Table)
}

// errorClasses are the relational error classes worth preserving verbatim.
// Everything after the class keeps the offending identifier; everything
// before it (driver prefixes, SQLite extended codes) is dropped.
var errorClasses = []string{
	"no such table:",
	"no such column:",
	"no such function:",
	"ambiguous column name:",
	"syntax error",
	"datatype mismatch",
	"too many terms in compound SELECT",
}

// trailingCode matches the " (123)" numeric code modernc/sqlite appends.
var trailingCode = regexp.MustCompile(`\s*\(\d+\)\s*$`)

// SanitizeError reduces a store error to its relational error class plus
// the offending identifier, stripping driver internals and any file paths.
func SanitizeError(err error) string {
	msg := err.Error()

	for _, class := range errorClasses {
		if idx := strings.Index(msg, class); idx >= 0 {
			out := strings.TrimSpace(trailingCode.ReplaceAllString(msg[idx:], ""))
			return stripPaths(out)
		}
	}

	if strings.Contains(msg, "context canceled") || strings.Contains(msg, "context deadline exceeded") {
		return "query canceled"
	}

	return "query execution failed"
}

// stripPaths removes tokens that look like filesystem paths.
func stripPaths(msg string) string {
	fields := strings.Fields(msg)
	kept := fields[:0]
	for _, f := range fields {
		if strings.ContainsRune(f, '/') || strings.ContainsRune(f, '\\') {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}
