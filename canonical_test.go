package goavsc_test

import (
	"testing"

	goavsc "github.com/reoring/goavsc"
)

func TestCanonicalForm(t *testing.T) {
	cases := []struct{ in, want string }{
		{`{"type":"int","logicalType":"date"}`, `"int"`},
		{
			`{"type":"record","name":"User","doc":"d","fields":[{"name":"id","type":"long","doc":"x"},{"name":"tag","type":"string","default":"","order":"ignore"}]}`,
			`{"name":"User","type":"record","fields":[{"name":"id","type":"long"},{"name":"tag","type":"string"}]}`,
		},
		{
			`{"type":"fixed","name":"Hash","namespace":"a","size":16,"doc":"x"}`,
			`{"name":"a.Hash","type":"fixed","size":16}`,
		},
		{
			`{"namespace":"a","symbols":["X","Y"],"name":"E","type":"enum"}`,
			`{"name":"a.E","type":"enum","symbols":["X","Y"]}`,
		},
		{
			`{"type":"record","name":"Node","namespace":"l","fields":[{"name":"next","type":["null","Node"]},{"name":"all","type":{"type":"map","values":{"type":"array","items":"Node"}}}]}`,
			`{"name":"l.Node","type":"record","fields":[{"name":"next","type":["null","l.Node"]},{"name":"all","type":{"type":"map","values":{"type":"array","items":"l.Node"}}}]}`,
		},
		{`{"type":"record","name":"S","fields":[{"name":"s","type":{"type":"enum","name":"T","symbols":["<&>"]}}]}`,
			`{"name":"S","type":"record","fields":[{"name":"s","type":{"name":"T","type":"enum","symbols":["<&>"]}}]}`},
	}
	for _, tc := range cases {
		got, err := goavsc.CanonicalForm(mustParse(t, tc.in))
		if err != nil {
			t.Fatalf("CanonicalForm(%s): %v", tc.in, err)
		}
		if string(got) != tc.want {
			t.Fatalf("CanonicalForm(%s)\n got: %s\nwant: %s", tc.in, got, tc.want)
		}
	}
}

func TestFingerprints(t *testing.T) {
	a := mustParse(t, `{"type":"record","name":"R","namespace":"n","fields":[{"name":"f","type":"int"}]}`)
	// Same schema with docs, props and whitespace added.
	b := mustParse(t, `{ "type" : "record", "name" : "n.R", "doc" : "hello",
		"fields" : [ {"name":"f", "type":{"type":"int","x":1}, "default": 3} ] }`)
	c := mustParse(t, `{"type":"record","name":"R","namespace":"n","fields":[{"name":"f","type":"long"}]}`)

	fa, err := goavsc.Fingerprint64(a)
	if err != nil {
		t.Fatal(err)
	}
	fb, _ := goavsc.Fingerprint64(b)
	fc, _ := goavsc.Fingerprint64(c)
	if fa != fb {
		t.Fatalf("equivalent schemas fingerprint differently: %x %x", fa, fb)
	}
	if fa == fc {
		t.Fatalf("int and long fields share a fingerprint")
	}

	sa, _ := goavsc.FingerprintSHA256(a)
	sb, _ := goavsc.FingerprintSHA256(b)
	sc, _ := goavsc.FingerprintSHA256(c)
	if sa != sb || sa == sc {
		t.Fatalf("sha256 fingerprints: %x %x %x", sa, sb, sc)
	}
}

func TestFingerprint64_PrimitiveForms(t *testing.T) {
	p1, _ := goavsc.Fingerprint64(mustParse(t, `"null"`))
	p2, _ := goavsc.Fingerprint64(mustParse(t, `{"type":"null","doc":"nothing"}`))
	if p1 != p2 || p1 == 0 {
		t.Fatalf("fingerprints %x %x", p1, p2)
	}
}

func TestCanonicalForm_DistinctNodesSharingAName(t *testing.T) {
	a, _ := goavsc.NewFixed(goavsc.MustName("X"), 1)
	b, _ := goavsc.NewFixed(goavsc.MustName("X"), 2)
	u, err := goavsc.NewUnion(a, mustArray(t, b))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := goavsc.CanonicalForm(u); goavsc.FirstCode(err) != goavsc.CodeDuplicateName {
		t.Fatalf("expected duplicate_name, got %v", err)
	}
	if _, err := goavsc.FingerprintSHA256(u); goavsc.FirstCode(err) != goavsc.CodeDuplicateName {
		t.Fatalf("expected duplicate_name, got %v", err)
	}
}

func mustArray(t *testing.T, items goavsc.Schema) *goavsc.Array {
	t.Helper()
	arr, err := goavsc.NewArray(items)
	if err != nil {
		t.Fatal(err)
	}
	return arr
}
