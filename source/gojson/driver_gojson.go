//go:build gojson

package gojson

import (
	"bytes"
	"io"
	"strconv"

	j "github.com/goccy/go-json"

	goavsc "github.com/reoring/goavsc"
	eng "github.com/reoring/goavsc/internal/engine"
)

// Driver returns a goavsc.JSONDriver backed by goccy/go-json.
func Driver() goavsc.JSONDriver { return driverGoJSON{} }

type driverGoJSON struct{}

func (driverGoJSON) NewReader(r io.Reader) goavsc.Source {
	return goavsc.SourceFromEngine(NewReader(r))
}
func (driverGoJSON) NewBytes(b []byte) goavsc.Source {
	return goavsc.SourceFromEngine(NewBytes(b))
}
func (driverGoJSON) Name() string { return "go-json" }

type containerKind int

const (
	kindObject containerKind = iota
	kindArray
)

type frame struct {
	kind         containerKind
	expectingKey bool
}

type source struct {
	dec   *j.Decoder
	stack []frame
}

// NewReader wraps an io.Reader into an engine.TokenSource for JSON using go-json.
// go-json does not expose input offsets, so Location reports -1.
func NewReader(r io.Reader) eng.TokenSource {
	dec := j.NewDecoder(r)
	dec.UseNumber()
	return &source{dec: dec}
}

// NewBytes wraps a byte slice into an engine.TokenSource for JSON using go-json.
func NewBytes(b []byte) eng.TokenSource { return NewReader(bytes.NewReader(b)) }

func (s *source) NextToken() (eng.Token, error) {
	tok, err := s.dec.Token()
	if err != nil {
		return eng.Token{}, err
	}
	switch v := tok.(type) {
	case j.Delim:
		switch v {
		case '{':
			s.stack = append(s.stack, frame{kind: kindObject, expectingKey: true})
			return eng.Token{Kind: eng.KindBeginObject, Offset: -1}, nil
		case '[':
			s.stack = append(s.stack, frame{kind: kindArray})
			return eng.Token{Kind: eng.KindBeginArray, Offset: -1}, nil
		case '}':
			s.pop()
			return eng.Token{Kind: eng.KindEndObject, Offset: -1}, nil
		case ']':
			s.pop()
			return eng.Token{Kind: eng.KindEndArray, Offset: -1}, nil
		}
	case string:
		if n := len(s.stack); n > 0 && s.stack[n-1].kind == kindObject && s.stack[n-1].expectingKey {
			s.stack[n-1].expectingKey = false
			return eng.Token{Kind: eng.KindKey, String: v, Offset: -1}, nil
		}
		s.valueDone()
		return eng.Token{Kind: eng.KindString, String: v, Offset: -1}, nil
	case bool:
		s.valueDone()
		return eng.Token{Kind: eng.KindBool, Bool: v, Offset: -1}, nil
	case j.Number:
		s.valueDone()
		return eng.Token{Kind: eng.KindNumber, Number: string(v), Offset: -1}, nil
	case float64:
		s.valueDone()
		return eng.Token{Kind: eng.KindNumber, Number: strconv.FormatFloat(v, 'g', -1, 64), Offset: -1}, nil
	}
	s.valueDone()
	return eng.Token{Kind: eng.KindNull, Offset: -1}, nil
}

func (s *source) pop() {
	if n := len(s.stack); n > 0 {
		s.stack = s.stack[:n-1]
	}
	s.valueDone()
}

func (s *source) valueDone() {
	if n := len(s.stack); n > 0 && s.stack[n-1].kind == kindObject {
		s.stack[n-1].expectingKey = true
	}
}

func (s *source) Location() int64 { return -1 }
