package goavsc

import (
	"bytes"
	"errors"
	"io"
	"strconv"

	"github.com/reoring/goavsc/i18n"
	eng "github.com/reoring/goavsc/internal/engine"
	yamlsrc "github.com/reoring/goavsc/source/yaml"
)

// Parse builds a schema graph from JSON text. Every call uses a fresh Names
// registry, so independent calls may run concurrently.
func Parse(text string, opts ...ParseOpt) (Schema, error) {
	return ParseBytes([]byte(text), opts...)
}

// MustParse is like Parse but panics on error. It is meant for schemas
// embedded in programs.
func MustParse(text string) Schema {
	s, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return s
}

// ParseBytes builds a schema graph from a JSON document.
func ParseBytes(data []byte, opts ...ParseOpt) (Schema, error) {
	return ParseFrom(JSONBytes(data), opts...)
}

// ParseReader builds a schema graph from a JSON stream. When MaxBytes is set
// it enforces the size cap up front.
func ParseReader(r io.Reader, opts ...ParseOpt) (Schema, error) {
	opt := lastOpt(opts)
	if opt.MaxBytes > 0 {
		data, err := io.ReadAll(io.LimitReader(r, opt.MaxBytes+1))
		if err != nil {
			return nil, malformed(err)
		}
		if int64(len(data)) > opt.MaxBytes {
			return nil, singleIssue(CodeTruncated, "/", i18n.T(CodeTruncated, nil))
		}
		return ParseBytes(data, opts...)
	}
	return ParseFrom(JSONReader(r), opts...)
}

// ParseFrom consumes tokens from src and builds the schema graph.
func ParseFrom(src Source, opts ...ParseOpt) (Schema, error) {
	opt := lastOpt(opts)
	v, err := decodeDocument(src, opt)
	if err != nil {
		return nil, err
	}
	return buildSchema(v, opt)
}

// ParseValue builds a schema graph from an already decoded JSON value
// (map[string]any, []any, string; numbers as json.Number or float64).
func ParseValue(v any, opts ...ParseOpt) (Schema, error) {
	return buildSchema(v, lastOpt(opts))
}

// ParseYAML builds a schema graph from a YAML document. Duplicate mapping keys
// are always rejected. MaxBytes bounds the document size; aliases may expand
// to at most yaml.MaxNodes values.
func ParseYAML(data []byte, opts ...ParseOpt) (Schema, error) {
	opt := lastOpt(opts)
	if opt.MaxBytes > 0 && int64(len(data)) > opt.MaxBytes {
		return nil, singleIssue(CodeTruncated, "/", i18n.T(CodeTruncated, nil))
	}
	v, err := yamlsrc.Decode(bytes.NewReader(data))
	if err != nil {
		var de *yamlsrc.DuplicateKeyError
		if errors.As(err, &de) {
			return nil, AppendIssues(nil, Issue{
				Code:    CodeDuplicateKey,
				Path:    "/",
				Message: i18n.T(CodeDuplicateKey, map[string]string{"key": de.Key}),
				Hint:    "line " + strconv.Itoa(de.Line),
				Cause:   err,
			})
		}
		return nil, malformed(err)
	}
	return buildSchema(v, opt)
}

func decodeDocument(src Source, opt ParseOpt) (any, error) {
	var sink func(eng.SimpleIssue)
	if opt.OnWarning != nil {
		sink = func(si eng.SimpleIssue) {
			opt.OnWarning(Issue{Code: si.Code, Path: si.Path, Message: si.Message})
		}
	}
	enforced := eng.WrapWithEnforcement(engineTokenSource(src), eng.EnforceOptions{
		OnDuplicate: toEngineDup(opt.Strictness.OnDuplicateKey),
		MaxDepth:    opt.maxDepth(),
		MaxBytes:    opt.MaxBytes,
		IssueSink:   sink,
	})
	v, err := eng.DecodeValue(enforced)
	if err != nil {
		return nil, toIssues(err, opt)
	}
	return v, nil
}

func toEngineDup(s Severity) eng.DuplicateStrictness {
	switch s {
	case Error:
		return eng.DupError
	case Warn:
		return eng.DupWarn
	default:
		return eng.DupIgnore
	}
}

func toIssues(err error, opt ParseOpt) Issues {
	if iss, ok := AsIssues(err); ok {
		return iss
	}
	var ie eng.IssueError
	if errors.As(err, &ie) {
		switch ie.Code {
		case eng.CodeTooDeep:
			return singleIssue(CodeSchemaTooDeep, ie.Path, i18n.T(CodeSchemaTooDeep, map[string]string{"max": strconv.Itoa(opt.maxDepth())}))
		case eng.CodeTruncated:
			return singleIssue(CodeTruncated, ie.Path, i18n.T(CodeTruncated, nil))
		case eng.CodeDuplicateKey:
			return AppendIssues(nil, Issue{Code: CodeDuplicateKey, Path: ie.Path, Message: ie.Message})
		}
	}
	return malformed(err)
}

func malformed(err error) Issues {
	it := Issue{Code: CodeMalformedJSON, Path: "/", Message: i18n.T(CodeMalformedJSON, nil), Cause: err}
	var se *eng.SyntaxError
	if errors.As(err, &se) && se.Offset >= 0 {
		it.Params = map[string]any{"offset": se.Offset}
	}
	return AppendIssues(nil, it)
}
