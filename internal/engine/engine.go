package engine

import (
	"encoding/json"
	"io"
)

// Kind represents token kinds from a generic source.
type Kind int

const (
	KindBeginObject Kind = iota
	KindEndObject
	KindBeginArray
	KindEndArray
	KindKey
	KindString
	KindNumber
	KindBool
	KindNull
)

// Token represents a streaming token with approximate input offset.
type Token struct {
	Kind   Kind
	String string
	Number string
	Bool   bool
	Offset int64
}

// TokenSource is a minimal interface required by the engine.
type TokenSource interface {
	NextToken() (Token, error)
	Location() int64
}

// DecodeValue builds a JSON-compatible Go value from the token source.
// Objects become map[string]any, arrays []any and numbers json.Number so
// that numeric attributes survive a round trip without precision loss.
// Trailing tokens after the first complete value are rejected.
func DecodeValue(src TokenSource) (any, error) {
	tok, err := src.NextToken()
	if err != nil {
		if err == io.EOF {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	v, err := decodeValue(src, tok)
	if err != nil {
		return nil, err
	}
	if extra, err := src.NextToken(); err == nil {
		return nil, &SyntaxError{Offset: extra.Offset, Msg: "unexpected data after top-level value"}
	} else if err != io.EOF {
		return nil, err
	}
	return v, nil
}

// SyntaxError reports structurally invalid token streams.
type SyntaxError struct {
	Offset int64
	Msg    string
}

func (e *SyntaxError) Error() string { return e.Msg }

func decodeValue(src TokenSource, tok Token) (any, error) {
	switch tok.Kind {
	case KindBeginObject:
		return decodeObject(src)
	case KindBeginArray:
		return decodeArray(src)
	case KindString:
		return tok.String, nil
	case KindNumber:
		return json.Number(tok.Number), nil
	case KindBool:
		return tok.Bool, nil
	case KindNull:
		return nil, nil
	default:
		return nil, &SyntaxError{Offset: tok.Offset, Msg: "unexpected token"}
	}
}

func decodeObject(src TokenSource) (any, error) {
	m := make(map[string]any)
	for {
		tok, err := next(src)
		if err != nil {
			return nil, err
		}
		if tok.Kind == KindEndObject {
			return m, nil
		}
		if tok.Kind != KindKey {
			return nil, &SyntaxError{Offset: tok.Offset, Msg: "expected object key"}
		}
		vt, err := next(src)
		if err != nil {
			return nil, err
		}
		v, err := decodeValue(src, vt)
		if err != nil {
			return nil, err
		}
		m[tok.String] = v
	}
}

func decodeArray(src TokenSource) (any, error) {
	arr := []any{}
	for {
		tok, err := next(src)
		if err != nil {
			return nil, err
		}
		if tok.Kind == KindEndArray {
			return arr, nil
		}
		v, err := decodeValue(src, tok)
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
}

// next reads a token inside a container, where EOF is always premature.
func next(src TokenSource) (Token, error) {
	tok, err := src.NextToken()
	if err == io.EOF {
		return Token{}, io.ErrUnexpectedEOF
	}
	return tok, err
}
