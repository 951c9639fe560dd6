package goavsc

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeMalformedJSON    = "malformed_json"
	CodeMissingType      = "missing_type"
	CodeUndefinedType    = "undefined_type"
	CodeUnknownNamedType = "unknown_named_type"
	CodeInvalidName      = "invalid_name"
	CodeReservedName     = "reserved_name"
	CodeDuplicateName    = "duplicate_name"
	CodeInvalidField     = "invalid_field"
	CodeDuplicateSymbol  = "duplicate_symbol"
	CodeInvalidSize      = "invalid_size"
	CodeInvalidUnion     = "invalid_union"
	CodeInvalidSchema    = "invalid_schema"
	CodeSchemaTooDeep    = "schema_too_deep"
	// Input enforcement (duplicate object keys, size cap)
	CodeDuplicateKey = "duplicate_key"
	CodeTruncated    = "truncated"
)

// Issue represents a single schema construction failure.
type Issue struct {
	Path    string // JSON Pointer into the schema document (for example: /fields/2/type).
	Code    string // One of the codes listed above.
	Message string
	Hint    string // Optional: offending name, type keyword, etc.
	Cause   error  // Optional: underlying error.
	// Params carries structured parameters (e.g., {"name":"User"}) for i18n
	// and callers that render their own messages.
	Params map[string]any
}

func (it Issue) String() string {
	var b strings.Builder
	b.WriteString(it.Code)
	if it.Path != "" {
		b.WriteString(" at ")
		b.WriteString(it.Path)
	}
	if it.Message != "" {
		b.WriteString(": ")
		b.WriteString(it.Message)
	}
	if it.Cause != nil {
		b.WriteString(" (")
		b.WriteString(it.Cause.Error())
		b.WriteString(")")
	}
	return b.String()
}

// Issues is a collection of schema errors that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	lim := min(len(iss), maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(iss[i].String())
	}
	if n := len(iss); n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// Unwrap exposes the causes so errors.Is/As can see through wrapped issues.
func (iss Issues) Unwrap() []error {
	var out []error
	for _, it := range iss {
		if it.Cause != nil {
			out = append(out, it.Cause)
		}
	}
	return out
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	return append(dst, more...)
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// HasCode reports whether err, or any error it wraps, carries an issue with
// the given code. Field failures wrap the underlying issue, so
// HasCode(err, CodeDuplicateName) holds for a duplicate nested in a field type.
func HasCode(err error, code string) bool {
	if err == nil {
		return false
	}
	if iss, ok := err.(Issues); ok {
		for _, it := range iss {
			if it.Code == code || HasCode(it.Cause, code) {
				return true
			}
		}
		return false
	}
	switch u := err.(type) {
	case interface{ Unwrap() error }:
		return HasCode(u.Unwrap(), code)
	case interface{ Unwrap() []error }:
		for _, e := range u.Unwrap() {
			if HasCode(e, code) {
				return true
			}
		}
	}
	return false
}

// FirstCode returns the code of the outermost issue in err, or "" when err
// carries no Issues.
func FirstCode(err error) string {
	if iss, ok := AsIssues(err); ok && len(iss) > 0 {
		return iss[0].Code
	}
	return ""
}

func singleIssue(code, path, msg string) Issues {
	return AppendIssues(nil, Issue{Code: code, Path: path, Message: msg})
}
