package json

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"

	eng "github.com/reoring/goavsc/internal/engine"
)

type containerKind int

const (
	kindObject containerKind = iota
	kindArray
)

// frame tracks whether the next string inside an object is a key.
type frame struct {
	kind         containerKind
	expectingKey bool
}

type jsonSource struct {
	dec        *json.Decoder
	stack      []frame
	lastOffset int64
}

// NewReader wraps an io.Reader into an engine.TokenSource for JSON schema
// documents. Numbers are kept as text.
func NewReader(r io.Reader) eng.TokenSource {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	return &jsonSource{dec: dec, lastOffset: -1}
}

// NewBytes wraps a byte slice into an engine.TokenSource for JSON.
func NewBytes(b []byte) eng.TokenSource { return NewReader(bytes.NewReader(b)) }

func (s *jsonSource) NextToken() (eng.Token, error) {
	tok, err := s.dec.Token()
	if err != nil {
		return eng.Token{}, err
	}
	s.lastOffset = s.dec.InputOffset()
	off := s.lastOffset

	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			s.stack = append(s.stack, frame{kind: kindObject, expectingKey: true})
			return eng.Token{Kind: eng.KindBeginObject, Offset: off}, nil
		case '[':
			s.stack = append(s.stack, frame{kind: kindArray})
			return eng.Token{Kind: eng.KindBeginArray, Offset: off}, nil
		case '}':
			s.pop()
			return eng.Token{Kind: eng.KindEndObject, Offset: off}, nil
		case ']':
			s.pop()
			return eng.Token{Kind: eng.KindEndArray, Offset: off}, nil
		}
	case string:
		if n := len(s.stack); n > 0 && s.stack[n-1].kind == kindObject && s.stack[n-1].expectingKey {
			s.stack[n-1].expectingKey = false
			return eng.Token{Kind: eng.KindKey, String: v, Offset: off}, nil
		}
		s.valueDone()
		return eng.Token{Kind: eng.KindString, String: v, Offset: off}, nil
	case bool:
		s.valueDone()
		return eng.Token{Kind: eng.KindBool, Bool: v, Offset: off}, nil
	case json.Number:
		s.valueDone()
		return eng.Token{Kind: eng.KindNumber, Number: string(v), Offset: off}, nil
	case float64:
		s.valueDone()
		return eng.Token{Kind: eng.KindNumber, Number: strconv.FormatFloat(v, 'g', -1, 64), Offset: off}, nil
	}
	s.valueDone()
	return eng.Token{Kind: eng.KindNull, Offset: off}, nil
}

func (s *jsonSource) pop() {
	if n := len(s.stack); n > 0 {
		s.stack = s.stack[:n-1]
	}
	s.valueDone()
}

func (s *jsonSource) valueDone() {
	if n := len(s.stack); n > 0 && s.stack[n-1].kind == kindObject {
		s.stack[n-1].expectingKey = true
	}
}

func (s *jsonSource) Location() int64 { return s.lastOffset }
