package goavsc

import (
	"io"
	"sync"

	eng "github.com/reoring/goavsc/internal/engine"
	jsonsrc "github.com/reoring/goavsc/source/json"
)

// TokenKind enumerates JSON token kinds. Values mirror the engine's kinds one
// to one.
type TokenKind int

const (
	TokenBeginObject TokenKind = iota
	TokenEndObject
	TokenBeginArray
	TokenEndArray
	TokenKey
	TokenString
	TokenNumber
	TokenBool
	TokenNull
)

// Token describes a token in the input stream. Offset records the byte position
// when known (-1 otherwise).
type Token struct {
	Kind   TokenKind
	String string // Stored for key/string tokens.
	Number string // Stored as text so numeric attributes round-trip exactly.
	Bool   bool
	Offset int64
}

// Source abstracts over schema document inputs. NextToken returns io.EOF
// after the last token.
type Source interface {
	NextToken() (Token, error)
	Location() int64 // byte offset; -1 if unknown
}

// JSONDriver converts JSON input into a Source via a pluggable SPI. The default
// implementation is based on encoding/json and may be swapped with SetJSONDriver.
type JSONDriver interface {
	NewReader(r io.Reader) Source
	NewBytes(b []byte) Source
	Name() string
}

var (
	jsonDriverMu      sync.RWMutex
	currentJSONDriver JSONDriver = defaultJSONDriver{}
)

// SetJSONDriver replaces the global JSON driver; nil values are ignored.
func SetJSONDriver(d JSONDriver) {
	if d == nil {
		return
	}
	jsonDriverMu.Lock()
	currentJSONDriver = d
	jsonDriverMu.Unlock()
}

// UseDefaultJSONDriver restores the default encoding/json-backed driver.
func UseDefaultJSONDriver() { SetJSONDriver(defaultJSONDriver{}) }

// CurrentJSONDriver returns the driver used by JSONBytes and JSONReader.
func CurrentJSONDriver() JSONDriver {
	jsonDriverMu.RLock()
	defer jsonDriverMu.RUnlock()
	return currentJSONDriver
}

type defaultJSONDriver struct{}

func (defaultJSONDriver) NewReader(r io.Reader) Source { return SourceFromEngine(jsonsrc.NewReader(r)) }
func (defaultJSONDriver) NewBytes(b []byte) Source     { return SourceFromEngine(jsonsrc.NewBytes(b)) }
func (defaultJSONDriver) Name() string                 { return "encoding/json" }

// JSONReader wraps an io.Reader as a JSON Source.
func JSONReader(r io.Reader) Source { return CurrentJSONDriver().NewReader(r) }

// JSONBytes wraps a byte slice as a JSON Source.
func JSONBytes(b []byte) Source { return CurrentJSONDriver().NewBytes(b) }

// SourceFromEngine wraps an engine.TokenSource as a goavsc.Source.
func SourceFromEngine(inner eng.TokenSource) Source { return &engineSourceAdapter{inner: inner} }

type engineSourceAdapter struct{ inner eng.TokenSource }

func (s *engineSourceAdapter) NextToken() (Token, error) {
	t, err := s.inner.NextToken()
	if err != nil {
		return Token{}, err
	}
	return Token{Kind: TokenKind(t.Kind), String: t.String, Number: t.Number, Bool: t.Bool, Offset: t.Offset}, nil
}
func (s *engineSourceAdapter) Location() int64 { return s.inner.Location() }

// tokenSourceAdapter exposes a caller-supplied Source to the engine.
type tokenSourceAdapter struct{ inner Source }

func (a *tokenSourceAdapter) NextToken() (eng.Token, error) {
	t, err := a.inner.NextToken()
	if err != nil {
		return eng.Token{}, err
	}
	return eng.Token{Kind: eng.Kind(t.Kind), String: t.String, Number: t.Number, Bool: t.Bool, Offset: t.Offset}, nil
}

func (a *tokenSourceAdapter) Location() int64 { return a.inner.Location() }

func engineTokenSource(s Source) eng.TokenSource {
	if ea, ok := s.(*engineSourceAdapter); ok {
		return ea.inner
	}
	return &tokenSourceAdapter{inner: s}
}
