//go:build !gojson

package gojson

import (
	"io"

	goavsc "github.com/reoring/goavsc"
	jsonsrc "github.com/reoring/goavsc/source/json"
)

// Driver returns a stand-in when the gojson tag is not enabled.
// It delegates to the encoding/json-based source directly to avoid recursion.
func Driver() goavsc.JSONDriver { return stub{} }

type stub struct{}

func (stub) NewReader(r io.Reader) goavsc.Source {
	return goavsc.SourceFromEngine(jsonsrc.NewReader(r))
}
func (stub) NewBytes(b []byte) goavsc.Source {
	return goavsc.SourceFromEngine(jsonsrc.NewBytes(b))
}
func (stub) Name() string { return "encoding/json (gojson stub)" }
