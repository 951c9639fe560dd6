package goavsc_test

import (
	"errors"
	"io"
	"testing"

	goavsc "github.com/reoring/goavsc"
)

func TestConstructors_Validation(t *testing.T) {
	if _, err := goavsc.NewPrimitive(goavsc.KindRecord); goavsc.FirstCode(err) != goavsc.CodeUndefinedType {
		t.Fatalf("NewPrimitive(record): %v", err)
	}
	if _, err := goavsc.NewPrimitive(goavsc.KindInt, goavsc.WithProps(map[string]any{"name": "x"})); goavsc.FirstCode(err) != goavsc.CodeInvalidSchema {
		t.Fatalf("reserved prop accepted: %v", err)
	}
	if _, err := goavsc.NewFixed(goavsc.MustName("F"), -1); goavsc.FirstCode(err) != goavsc.CodeInvalidSize {
		t.Fatalf("negative size: %v", err)
	}
	if _, err := goavsc.NewFixed(goavsc.Name{}, 1); goavsc.FirstCode(err) != goavsc.CodeInvalidName {
		t.Fatalf("zero name: %v", err)
	}
	if _, err := goavsc.NewEnum(goavsc.MustName("E"), []string{"A", "B", "A"}); goavsc.FirstCode(err) != goavsc.CodeDuplicateSymbol {
		t.Fatalf("duplicate symbol: %v", err)
	}
	if _, err := goavsc.NewArray(nil); goavsc.FirstCode(err) != goavsc.CodeInvalidSchema {
		t.Fatalf("nil items: %v", err)
	}
	if _, err := goavsc.NewRecord(goavsc.KindEnum, goavsc.MustName("R"), nil); goavsc.FirstCode(err) != goavsc.CodeUndefinedType {
		t.Fatalf("record of kind enum: %v", err)
	}

	i, _ := goavsc.NewPrimitive(goavsc.KindInt)
	if _, err := goavsc.NewField("f", i, goavsc.WithOrder("sideways")); goavsc.FirstCode(err) != goavsc.CodeInvalidField {
		t.Fatalf("bad order: %v", err)
	}
	if _, err := goavsc.NewField("", i); !goavsc.HasCode(err, goavsc.CodeInvalidName) {
		t.Fatalf("empty field name: %v", err)
	}
	if _, err := goavsc.NewField("f", i, goavsc.WithFieldProps(map[string]any{"default": 1})); goavsc.FirstCode(err) != goavsc.CodeInvalidField {
		t.Fatalf("reserved field prop: %v", err)
	}
	f1, _ := goavsc.NewField("f", i)
	f2, _ := goavsc.NewField("f", i)
	if _, err := goavsc.NewRecord(goavsc.KindRecord, goavsc.MustName("R"), []*goavsc.Field{f1, f2}); goavsc.FirstCode(err) != goavsc.CodeInvalidField {
		t.Fatalf("duplicate field: %v", err)
	}

	u, _ := goavsc.NewUnion(i)
	if _, err := goavsc.NewUnion(i, i); goavsc.FirstCode(err) != goavsc.CodeInvalidUnion {
		t.Fatalf("duplicate branch: %v", err)
	}
	if _, err := goavsc.NewUnion(u); goavsc.FirstCode(err) != goavsc.CodeInvalidUnion {
		t.Fatalf("nested union: %v", err)
	}
	str, _ := goavsc.NewPrimitive(goavsc.KindString)
	if _, err := goavsc.NewErrorUnion([]goavsc.Schema{str}); goavsc.FirstCode(err) != goavsc.CodeInvalidUnion {
		t.Fatalf("error union declaring string: %v", err)
	}
}

func TestSchema_PropsAreCopies(t *testing.T) {
	s := mustParse(t, `{"type":"string","meta":{"tags":["a"]}}`)
	props := s.Props()
	props["meta"].(map[string]any)["tags"] = nil
	props["extra"] = true
	if _, ok := s.Prop("extra"); ok {
		t.Fatalf("Props leaked a mutable map")
	}
	meta, _ := s.Prop("meta")
	if meta.(map[string]any)["tags"] == nil {
		t.Fatalf("nested property mutated through a copy")
	}
}

func TestKind(t *testing.T) {
	for _, name := range []string{"null", "fixed", "record", "error", "array", "map", "union", "request", "error_union"} {
		k, ok := goavsc.KindOf(name)
		if !ok || k.String() != name {
			t.Fatalf("KindOf(%s)=%v %v", name, k, ok)
		}
	}
	if _, ok := goavsc.KindOf("widget"); ok {
		t.Fatalf("widget is not a kind")
	}
	if !goavsc.KindDouble.IsPrimitive() || goavsc.KindFixed.IsPrimitive() || !goavsc.KindError.IsNamed() || goavsc.KindArray.IsNamed() {
		t.Fatalf("kind classification is wrong")
	}
}

func TestEqual(t *testing.T) {
	a := mustParse(t, `{"type":"record","name":"N","fields":[{"name":"n","type":["null","N"]}]}`)
	b := mustParse(t, `{"type":"record","name":"N","fields":[{"name":"n","type":["null","N"]}]}`)
	if !goavsc.Equal(a, b) {
		t.Fatalf("identical recursive schemas should be equal")
	}
	for _, doc := range []string{
		`{"type":"record","name":"N","fields":[{"name":"n","type":["null","N"],"default":null}]}`,
		`{"type":"record","name":"N","fields":[{"name":"m","type":["null","N"]}]}`,
		`{"type":"record","name":"M","fields":[{"name":"n","type":["null","M"]}]}`,
		`{"type":"record","name":"N","doc":"x","fields":[{"name":"n","type":["null","N"]}]}`,
		`{"type":"error","name":"N","fields":[{"name":"n","type":["null","N"]}]}`,
	} {
		if goavsc.Equal(a, mustParse(t, doc)) {
			t.Fatalf("should differ: %s", doc)
		}
	}
	if goavsc.Equal(a, nil) || !goavsc.Equal(nil, nil) {
		t.Fatalf("nil handling")
	}
}

// visitCounter counts variants reached by a walk.
type visitCounter struct{ counts map[string]int }

func (v *visitCounter) hit(kind string) error {
	v.counts[kind]++
	return nil
}

func (v *visitCounter) VisitPrimitive(*goavsc.Primitive) error { return v.hit("primitive") }
func (v *visitCounter) VisitFixed(*goavsc.Fixed) error         { return v.hit("fixed") }
func (v *visitCounter) VisitEnum(*goavsc.Enum) error           { return v.hit("enum") }
func (v *visitCounter) VisitArray(*goavsc.Array) error         { return v.hit("array") }
func (v *visitCounter) VisitMap(*goavsc.Map) error             { return v.hit("map") }
func (v *visitCounter) VisitUnion(*goavsc.Union) error         { return v.hit("union") }
func (v *visitCounter) VisitRecord(*goavsc.Record) error       { return v.hit("record") }

func TestVisitor_Dispatch(t *testing.T) {
	v := &visitCounter{counts: map[string]int{}}
	for _, doc := range []string{
		`"int"`, `{"type":"fixed","name":"F","size":1}`, `{"type":"enum","name":"E","symbols":["A"]}`,
		`{"type":"array","items":"int"}`, `{"type":"map","values":"int"}`, `["int","null"]`,
		`{"type":"record","name":"R","fields":[]}`, `{"type":"error","name":"X","fields":[]}`,
	} {
		if err := mustParse(t, doc).Accept(v); err != nil {
			t.Fatal(err)
		}
	}
	for _, k := range []string{"primitive", "fixed", "enum", "array", "map", "union"} {
		if v.counts[k] != 1 {
			t.Fatalf("%s visited %d times", k, v.counts[k])
		}
	}
	if v.counts["record"] != 2 {
		t.Fatalf("record visited %d times", v.counts["record"])
	}
}

func TestIssues_ErrorModel(t *testing.T) {
	_, err := goavsc.Parse(`{"type":"record","name":"R","fields":[{"name":"f","type":"Missing"}]}`)
	iss, ok := goavsc.AsIssues(err)
	if !ok || len(iss) != 1 {
		t.Fatalf("AsIssues: %v %v", iss, ok)
	}
	var inner goavsc.Issues
	if !errors.As(iss[0].Cause, &inner) || inner[0].Code != goavsc.CodeUnknownNamedType || inner[0].Hint != "Missing" {
		t.Fatalf("cause=%v", iss[0].Cause)
	}
	if inner[0].Path != "/fields/0/type" {
		t.Fatalf("cause path=%s", inner[0].Path)
	}
	if goavsc.HasCode(nil, goavsc.CodeInvalidField) || goavsc.FirstCode(errors.New("x")) != "" {
		t.Fatalf("helpers on foreign errors")
	}
}

// sliceSource feeds prepared tokens.
type sliceSource struct {
	toks []goavsc.Token
	i    int
}

func (s *sliceSource) NextToken() (goavsc.Token, error) {
	if s.i >= len(s.toks) {
		return goavsc.Token{}, io.EOF
	}
	t := s.toks[s.i]
	s.i++
	return t, nil
}

func (s *sliceSource) Location() int64 { return -1 }

func TestParseFrom_CustomSource(t *testing.T) {
	src := &sliceSource{toks: []goavsc.Token{
		{Kind: goavsc.TokenBeginObject},
		{Kind: goavsc.TokenKey, String: "type"},
		{Kind: goavsc.TokenString, String: "fixed"},
		{Kind: goavsc.TokenKey, String: "name"},
		{Kind: goavsc.TokenString, String: "F"},
		{Kind: goavsc.TokenKey, String: "size"},
		{Kind: goavsc.TokenNumber, Number: "8"},
		{Kind: goavsc.TokenEndObject},
	}}
	s, err := goavsc.ParseFrom(src)
	if err != nil {
		t.Fatalf("ParseFrom: %v", err)
	}
	if f, ok := s.(*goavsc.Fixed); !ok || f.Size() != 8 {
		t.Fatalf("got %v", s)
	}
}

type countingDriver struct {
	goavsc.JSONDriver
	bytes int
}

func (d *countingDriver) NewBytes(b []byte) goavsc.Source {
	d.bytes++
	return d.JSONDriver.NewBytes(b)
}

func (d *countingDriver) Name() string { return "counting" }

func TestJSONDriver_Swap(t *testing.T) {
	d := &countingDriver{JSONDriver: goavsc.CurrentJSONDriver()}
	goavsc.SetJSONDriver(d)
	defer goavsc.UseDefaultJSONDriver()

	if goavsc.CurrentJSONDriver().Name() != "counting" {
		t.Fatalf("driver not installed")
	}
	mustParse(t, `"int"`)
	if d.bytes != 1 {
		t.Fatalf("driver used %d times", d.bytes)
	}
	goavsc.SetJSONDriver(nil)
	if goavsc.CurrentJSONDriver().Name() != "counting" {
		t.Fatalf("nil driver should be ignored")
	}
	goavsc.UseDefaultJSONDriver()
	if goavsc.CurrentJSONDriver().Name() != "encoding/json" {
		t.Fatalf("default driver=%s", goavsc.CurrentJSONDriver().Name())
	}
}
