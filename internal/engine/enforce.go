package engine

import (
	"strconv"
	"strings"
)

// DuplicateStrictness controls duplicate object key handling.
type DuplicateStrictness int

const (
	DupIgnore DuplicateStrictness = iota
	DupWarn
	DupError
)

// Issue codes produced by the enforcement wrapper.
const (
	CodeDuplicateKey = "duplicate_key"
	CodeTooDeep      = "too_deep"
	CodeTruncated    = "truncated"
)

// SimpleIssue is a minimal issue representation used by internal helpers.
type SimpleIssue struct {
	Code    string
	Path    string
	Message string
}

// IssueError is a lightweight error carrying a SimpleIssue.
type IssueError struct{ SimpleIssue }

func (e IssueError) Error() string { return e.SimpleIssue.Message }

// EnforceOptions controls runtime enforcement behavior.
type EnforceOptions struct {
	OnDuplicate DuplicateStrictness
	MaxDepth    int
	MaxBytes    int64
	// IssueSink receives non-fatal issues (duplicate keys under DupWarn).
	IssueSink func(SimpleIssue)
}

type containerKind int

const (
	kindObject containerKind = iota
	kindArray
)

type frame struct {
	kind         containerKind
	keys         map[string]struct{}
	expectingKey bool
	path         string
	nextIndex    int
	pendingKey   string
}

// WrapWithEnforcement returns a TokenSource that enforces duplicate key policy,
// maximum nesting depth, and maximum consumed bytes.
func WrapWithEnforcement(inner TokenSource, opt EnforceOptions) TokenSource {
	if opt.OnDuplicate == DupIgnore && opt.MaxDepth <= 0 && opt.MaxBytes <= 0 {
		return inner
	}
	return &enforcingTokenSource{inner: inner, opt: opt}
}

type enforcingTokenSource struct {
	inner TokenSource
	opt   EnforceOptions
	stack []frame
}

func (e *enforcingTokenSource) NextToken() (Token, error) {
	tok, err := e.inner.NextToken()
	if err != nil {
		return Token{}, err
	}

	path := e.pathForToken(tok)

	switch tok.Kind {
	case KindBeginObject, KindBeginArray:
		f := frame{kind: kindArray, path: path}
		if tok.Kind == KindBeginObject {
			f = frame{kind: kindObject, keys: make(map[string]struct{}), expectingKey: true, path: path}
		}
		e.stack = append(e.stack, f)
		if e.opt.MaxDepth > 0 && len(e.stack) > e.opt.MaxDepth {
			return Token{}, IssueError{SimpleIssue{Code: CodeTooDeep, Path: normalizeIssuePath(path), Message: "max depth exceeded"}}
		}
	case KindEndObject, KindEndArray:
		if n := len(e.stack); n > 0 {
			e.stack = e.stack[:n-1]
		}
		e.valueDone()
	case KindKey:
		if n := len(e.stack); n > 0 {
			top := &e.stack[n-1]
			if top.kind == kindObject && top.expectingKey {
				if _, dup := top.keys[tok.String]; dup && e.opt.OnDuplicate != DupIgnore {
					si := SimpleIssue{Code: CodeDuplicateKey, Path: normalizeIssuePath(path), Message: "key '" + tok.String + "' duplicated"}
					if e.opt.OnDuplicate == DupError {
						return Token{}, IssueError{si}
					}
					if e.opt.IssueSink != nil {
						e.opt.IssueSink(si)
					}
				}
				top.keys[tok.String] = struct{}{}
				top.expectingKey = false
				top.pendingKey = tok.String
			}
		}
	default:
		e.valueDone()
	}

	if e.opt.MaxBytes > 0 {
		if off := e.Location(); off >= 0 && off > e.opt.MaxBytes {
			return Token{}, IssueError{SimpleIssue{Code: CodeTruncated, Path: normalizeIssuePath(path), Message: "max bytes exceeded"}}
		}
	}
	return tok, nil
}

// valueDone flips the enclosing object back to expecting a key.
func (e *enforcingTokenSource) valueDone() {
	if n := len(e.stack); n > 0 {
		top := &e.stack[n-1]
		if top.kind == kindObject && !top.expectingKey {
			top.expectingKey = true
			top.pendingKey = ""
		}
	}
}

func (e *enforcingTokenSource) pathForToken(tok Token) string {
	if len(e.stack) == 0 {
		return ""
	}
	top := &e.stack[len(e.stack)-1]
	switch tok.Kind {
	case KindKey:
		return JoinPointer(top.path, tok.String)
	case KindEndObject, KindEndArray:
		return top.path
	}
	if top.kind == kindArray {
		p := JoinPointer(top.path, strconv.Itoa(top.nextIndex))
		top.nextIndex++
		return p
	}
	if !top.expectingKey {
		return JoinPointer(top.path, top.pendingKey)
	}
	return top.path
}

func (e *enforcingTokenSource) Location() int64 { return e.inner.Location() }

func normalizeIssuePath(p string) string {
	if p == "" {
		return "/"
	}
	return p
}

var jsonPointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

// JoinPointer appends one escaped RFC 6901 reference token to base.
func JoinPointer(base, token string) string {
	return base + "/" + jsonPointerEscaper.Replace(token)
}
