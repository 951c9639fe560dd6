package goavsc

import (
	"bytes"

	json "github.com/goccy/go-json"

	"github.com/reoring/goavsc/i18n"
)

// ToJSON converts a schema graph back into JSON-compatible values
// (map[string]any, []any, string). Re-parsing the encoded result yields an
// equivalent graph.
//
// A named schema is written out in full the first time it is met; later
// occurrences, including recursive ones, become references. Namespaces equal
// to the enclosing default namespace are omitted.
func ToJSON(s Schema) (any, error) {
	z := &serializer{names: NewNames(None)}
	return z.value(s)
}

// Marshal encodes the schema as compact JSON.
func Marshal(s Schema) ([]byte, error) { return MarshalIndent(s, "", "") }

// MarshalIndent encodes the schema as JSON with the given indentation.
func MarshalIndent(s Schema, prefix, indent string) ([]byte, error) {
	v, err := ToJSON(s)
	if err != nil {
		return nil, err
	}
	return encodeJSON(v, prefix, indent)
}

// String returns the compact JSON form of s, or "" when it cannot be encoded.
func String(s Schema) string {
	b, err := Marshal(s)
	if err != nil {
		return ""
	}
	return string(b)
}

func encodeJSON(v any, prefix, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if prefix != "" || indent != "" {
		enc.SetIndent(prefix, indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// serializer walks the graph with its own registry. out holds the result of
// the most recent Accept.
type serializer struct {
	names *Names
	out   any
}

func (z *serializer) value(s Schema) (any, error) {
	if err := s.Accept(z); err != nil {
		return nil, err
	}
	return z.out, nil
}

func (z *serializer) object(s Schema) map[string]any {
	m := s.Props()
	m["type"] = s.Kind().String()
	if d := s.Doc(); d != "" {
		m["doc"] = d
	}
	return m
}

// named emits a reference when n was already written, otherwise registers
// it and returns its attribute object. A different node under a fullname
// already written fails with duplicate_name.
func (z *serializer) named(n NamedSchema) (m map[string]any, ref bool, err error) {
	full := n.Name()
	if prev, seen := z.names.names[full.Fullname()]; seen {
		if prev != n {
			return nil, false, AppendIssues(nil, Issue{
				Code:    CodeDuplicateName,
				Path:    "/",
				Message: i18n.T(CodeDuplicateName, map[string]string{"name": full.Fullname()}),
				Hint:    full.Fullname(),
			})
		}
		z.out = full.RefIn(z.names.DefaultNamespace())
		return nil, true, nil
	}
	if err := z.names.add(full, n); err != nil {
		return nil, false, err
	}
	m = z.object(n)
	m["name"] = full.Short()
	ns, _ := full.Namespace()
	if ns == "" {
		if z.names.DefaultNamespace().IsSet() {
			return nil, false, AppendIssues(nil, Issue{
				Code:    CodeInvalidName,
				Path:    "/",
				Message: i18n.T(CodeInvalidName, map[string]string{"what": "namespace", "name": ""}),
				Hint:    "cannot write " + full.Fullname() + " inside namespace " + z.names.DefaultNamespace().Or(""),
			})
		}
		return m, false, nil
	}
	m["namespace"] = ns
	return z.names.PruneNamespace(m), false, nil
}

func (z *serializer) VisitPrimitive(p *Primitive) error {
	if len(p.props) == 0 && p.doc == "" {
		z.out = p.kind.String()
		return nil
	}
	z.out = z.object(p)
	return nil
}

func (z *serializer) VisitFixed(f *Fixed) error {
	m, ref, err := z.named(f)
	if err != nil || ref {
		return err
	}
	m["size"] = f.size
	z.out = m
	return nil
}

func (z *serializer) VisitEnum(e *Enum) error {
	m, ref, err := z.named(e)
	if err != nil || ref {
		return err
	}
	syms := make([]any, len(e.symbols))
	for i, s := range e.symbols {
		syms[i] = s
	}
	m["symbols"] = syms
	z.out = m
	return nil
}

func (z *serializer) VisitArray(a *Array) error {
	m := z.object(a)
	items, err := z.value(a.items)
	if err != nil {
		return err
	}
	m["items"] = items
	z.out = m
	return nil
}

func (z *serializer) VisitMap(mp *Map) error {
	m := z.object(mp)
	values, err := z.value(mp.values)
	if err != nil {
		return err
	}
	m["values"] = values
	z.out = m
	return nil
}

func (z *serializer) VisitUnion(u *Union) error {
	branches := make([]any, 0, len(u.branches))
	for _, br := range u.Declared() {
		v, err := z.value(br)
		if err != nil {
			return err
		}
		branches = append(branches, v)
	}
	if u.kind != KindErrorUnion {
		z.out = branches
		return nil
	}
	m := z.object(u)
	m["declared_errors"] = branches
	z.out = m
	return nil
}

func (z *serializer) VisitRecord(r *Record) error {
	m, ref, err := z.named(r)
	if err != nil || ref {
		return err
	}
	ns, _ := r.name.Namespace()
	restore := z.names.enter(ns)
	defer restore()

	fields := make([]any, len(r.fields))
	for i, f := range r.fields {
		fm := f.Props()
		fm["name"] = f.name
		t, err := z.value(f.typ)
		if err != nil {
			return err
		}
		fm["type"] = t
		if f.hasDefault {
			fm["default"] = cloneJSON(f.def)
		}
		if f.order != "" {
			fm["order"] = string(f.order)
		}
		if f.doc != "" {
			fm["doc"] = f.doc
		}
		fields[i] = fm
	}
	m["fields"] = fields
	z.out = m
	return nil
}
