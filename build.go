package goavsc

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/reoring/goavsc/i18n"
	eng "github.com/reoring/goavsc/internal/engine"
)

// builder turns a decoded schema document into a graph. One builder serves
// exactly one parse call.
type builder struct {
	names    *Names
	maxDepth int
	depth    int
	// pending holds references to names not registered yet when they were
	// met. They are patched once the whole document has been built.
	pending []pendingRef
	// unions with a pending branch are validated again after patching.
	unions []unionAt
	// fields is the stack of record fields being built, innermost last.
	fields []fieldCtx
}

type pendingRef struct {
	slot   *Schema
	ref    *forwardRef
	path   string
	fields []fieldCtx
}

type unionAt struct {
	u    *Union
	path string
}

type fieldCtx struct {
	recordPath string
	index      int
	name       string
}

// forwardRef stands in for a named type that is referenced before its
// definition. It never escapes the builder.
type forwardRef struct {
	base
	full Name   // resolved against the default namespace at the reference
	raw  string // as written
}

func (f *forwardRef) Accept(Visitor) error {
	return fmt.Errorf("goavsc: unresolved reference %q", f.raw)
}

func buildSchema(v any, opt ParseOpt) (Schema, error) {
	b := &builder{names: NewNames(None), maxDepth: opt.maxDepth()}
	var root Schema
	if err := b.child(v, "", &root); err != nil {
		return nil, err
	}
	if err := b.resolvePending(); err != nil {
		return nil, err
	}
	return root, nil
}

// child builds v into *slot and remembers the slot when it holds a forward
// reference.
func (b *builder) child(v any, path string, slot *Schema) error {
	s, err := b.build(v, path)
	if err != nil {
		return err
	}
	*slot = s
	if fr, ok := s.(*forwardRef); ok {
		b.pending = append(b.pending, pendingRef{slot: slot, ref: fr, path: path, fields: slices.Clone(b.fields)})
	}
	return nil
}

func (b *builder) build(v any, path string) (Schema, error) {
	if b.maxDepth > 0 && b.depth >= b.maxDepth {
		return nil, singleIssue(CodeSchemaTooDeep, at(path), i18n.T(CodeSchemaTooDeep, map[string]string{"max": strconv.Itoa(b.maxDepth)}))
	}
	b.depth++
	defer func() { b.depth-- }()

	switch t := v.(type) {
	case string:
		return b.buildRef(t, path)
	case []any:
		return b.buildUnion(t, path)
	case map[string]any:
		return b.buildObject(t, path)
	}
	return nil, invalidAttr(path, "type", fmt.Sprintf("expected a type name, union or object, got %s", jsonKind(v)))
}

// buildRef handles a bare string: a primitive type, a registered name, or a
// name defined later in the document.
func (b *builder) buildRef(s string, path string) (Schema, error) {
	if k, ok := KindOf(s); ok {
		if !k.IsPrimitive() {
			return nil, undefinedType(path, s)
		}
		return &Primitive{base: base{kind: k}}, nil
	}
	if named, _, ok := b.names.lookup(s); ok {
		return named, nil
	}
	full, err := b.names.resolve(s, None)
	if err != nil {
		return nil, reissue(err, path)
	}
	return &forwardRef{full: full, raw: s}, nil
}

func (b *builder) buildUnion(arr []any, path string) (Schema, error) {
	u := &Union{base: base{kind: KindUnion}, branches: make([]Schema, len(arr))}
	return b.fillUnion(u, arr, 0, path, path)
}

// fillUnion builds arr into u.branches starting at offset.
func (b *builder) fillUnion(u *Union, arr []any, offset int, unionPath, itemsPath string) (Schema, error) {
	before := len(b.pending)
	for i, el := range arr {
		if err := b.child(el, eng.JoinPointer(itemsPath, strconv.Itoa(i)), &u.branches[offset+i]); err != nil {
			return nil, err
		}
	}
	if err := u.validate(at(unionPath)); err != nil {
		return nil, err
	}
	if len(b.pending) > before {
		b.unions = append(b.unions, unionAt{u: u, path: unionPath})
	}
	return u, nil
}

func (b *builder) buildObject(m map[string]any, path string) (Schema, error) {
	raw, ok := m["type"]
	if !ok {
		return nil, singleIssue(CodeMissingType, at(path), i18n.T(CodeMissingType, nil))
	}
	typ, ok := raw.(string)
	if !ok {
		return nil, undefinedType(eng.JoinPointer(path, "type"), fmt.Sprint(raw))
	}
	k, ok := KindOf(typ)
	if !ok {
		return nil, undefinedType(eng.JoinPointer(path, "type"), typ)
	}
	bs, err := b.baseOf(k, m, path)
	if err != nil {
		return nil, err
	}

	switch {
	case k.IsPrimitive():
		return &Primitive{base: bs}, nil
	case k.IsNamed():
		return b.buildNamed(bs, m, path)
	}
	switch k {
	case KindArray:
		a := &Array{base: bs}
		items, ok := m["items"]
		if !ok {
			return nil, invalidAttr(path, "items", "missing")
		}
		if err := b.child(items, eng.JoinPointer(path, "items"), &a.items); err != nil {
			return nil, err
		}
		return a, nil
	case KindMap:
		mp := &Map{base: bs}
		values, ok := m["values"]
		if !ok {
			return nil, invalidAttr(path, "values", "missing")
		}
		if err := b.child(values, eng.JoinPointer(path, "values"), &mp.values); err != nil {
			return nil, err
		}
		return mp, nil
	case KindErrorUnion:
		declared, ok := m["declared_errors"].([]any)
		if !ok {
			return nil, invalidAttr(path, "declared_errors", "expected an array")
		}
		delete(bs.props, "declared_errors")
		u := &Union{base: bs, branches: make([]Schema, len(declared)+1)}
		u.branches[0] = stringSchema()
		return b.fillUnion(u, declared, 1, path, eng.JoinPointer(path, "declared_errors"))
	}
	// union and request are valid keywords without an object form here.
	return nil, undefinedType(eng.JoinPointer(path, "type"), typ)
}

// baseOf collects the doc and non-reserved attributes of a schema object.
func (b *builder) baseOf(k Kind, m map[string]any, path string) (base, error) {
	bs := base{kind: k, props: otherProps(m, schemaReservedProps)}
	if raw, ok := m["doc"]; ok {
		doc, ok := raw.(string)
		if !ok {
			return base{}, invalidAttr(path, "doc", "expected a string")
		}
		bs.doc = doc
	}
	return bs, nil
}

func (b *builder) buildNamed(bs base, m map[string]any, path string) (Schema, error) {
	nameRaw, ok := m["name"]
	if !ok {
		return nil, singleIssue(CodeInvalidName, at(path), i18n.T(CodeInvalidName, map[string]string{"what": "name", "name": ""}))
	}
	name, ok := nameRaw.(string)
	if !ok {
		return nil, singleIssue(CodeInvalidName, eng.JoinPointer(path, "name"), i18n.T(CodeInvalidName, map[string]string{"what": "name", "name": fmt.Sprint(nameRaw)}))
	}
	ns := None
	if raw, present := m["namespace"]; present {
		s, ok := raw.(string)
		if !ok {
			return nil, singleIssue(CodeInvalidName, eng.JoinPointer(path, "namespace"), i18n.T(CodeInvalidName, map[string]string{"what": "namespace", "name": fmt.Sprint(raw)}))
		}
		ns = Some(s)
	}
	full, err := b.names.resolve(name, ns)
	if err != nil {
		return nil, reissue(err, path)
	}
	nm := named{base: bs, name: full}

	var node NamedSchema
	var fixed *Fixed
	var enum *Enum
	var rec *Record
	switch bs.kind {
	case KindFixed:
		fixed = &Fixed{named: nm}
		node = fixed
	case KindEnum:
		enum = &Enum{named: nm}
		node = enum
	default:
		rec = &Record{named: nm}
		node = rec
	}
	// Register before children so fields can refer back to the record.
	if err := b.names.add(full, node); err != nil {
		return nil, reissue(err, eng.JoinPointer(path, "name"))
	}

	switch {
	case fixed != nil:
		size, ok := asSize(m["size"])
		if !ok {
			return nil, AppendIssues(nil, Issue{Code: CodeInvalidSize, Path: eng.JoinPointer(path, "size"), Message: i18n.T(CodeInvalidSize, nil), Hint: fmt.Sprint(m["size"])})
		}
		fixed.size = size
	case enum != nil:
		syms, err := stringList(m["symbols"], path, "symbols")
		if err != nil {
			return nil, err
		}
		enum.symbols = syms
		if err := enum.validate(path); err != nil {
			return nil, err
		}
	default:
		if err := b.buildFields(rec, m, path); err != nil {
			return nil, err
		}
	}
	return node, nil
}

func (b *builder) buildFields(rec *Record, m map[string]any, path string) error {
	rawFields, ok := m["fields"].([]any)
	if !ok {
		return invalidAttr(path, "fields", "expected an array")
	}
	ns, _ := rec.name.Namespace()
	restore := b.names.enter(ns)
	defer restore()

	fields := make([]*Field, len(rawFields))
	for i, raw := range rawFields {
		f, err := b.buildField(raw, path, i)
		if err != nil {
			return err
		}
		fields[i] = f
	}
	return rec.setFields(fields, path)
}

func (b *builder) buildField(raw any, recordPath string, i int) (*Field, error) {
	fpath := eng.JoinPointer(eng.JoinPointer(recordPath, "fields"), strconv.Itoa(i))
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fieldIssue(recordPath, i, "", invalidAttr(fpath, "fields", "expected an object"))
	}
	name, _ := m["name"].(string)
	if name == "" {
		return nil, fieldIssue(recordPath, i, name, singleIssue(CodeInvalidName, eng.JoinPointer(fpath, "name"), i18n.T(CodeInvalidName, map[string]string{"what": "field name", "name": fmt.Sprint(m["name"])})))
	}
	typ, ok := m["type"]
	if !ok {
		return nil, fieldIssue(recordPath, i, name, singleIssue(CodeMissingType, fpath, i18n.T(CodeMissingType, nil)))
	}

	f := &Field{name: name, props: otherProps(m, fieldReservedProps)}
	b.fields = append(b.fields, fieldCtx{recordPath: recordPath, index: i, name: name})
	err := b.child(typ, eng.JoinPointer(fpath, "type"), &f.typ)
	b.fields = b.fields[:len(b.fields)-1]
	if err != nil {
		return nil, fieldIssue(recordPath, i, name, err)
	}

	if def, ok := m["default"]; ok {
		f.def = cloneJSON(def)
		f.hasDefault = true
	}
	if raw, ok := m["order"]; ok {
		o, _ := raw.(string)
		if !Order(o).Valid() {
			cause := singleIssue(CodeInvalidField, eng.JoinPointer(fpath, "order"), fmt.Sprintf("order must be one of ascending, descending, ignore, got %v", raw))
			return nil, fieldIssue(recordPath, i, name, cause)
		}
		f.order = Order(o)
	}
	if raw, ok := m["doc"]; ok {
		doc, ok := raw.(string)
		if !ok {
			return nil, fieldIssue(recordPath, i, name, invalidAttr(fpath, "doc", "expected a string"))
		}
		f.doc = doc
	}
	return f, nil
}

func (b *builder) resolvePending() error {
	for _, p := range b.pending {
		s, ok := b.names.names[p.ref.full.Fullname()]
		if !ok {
			var err error = AppendIssues(nil, Issue{
				Code:    CodeUnknownNamedType,
				Path:    at(p.path),
				Message: i18n.T(CodeUnknownNamedType, map[string]string{"name": p.ref.raw}),
				Hint:    p.ref.raw,
			})
			for j := len(p.fields) - 1; j >= 0; j-- {
				fc := p.fields[j]
				err = fieldIssue(fc.recordPath, fc.index, fc.name, err)
			}
			return err
		}
		*p.slot = s
	}
	for _, ua := range b.unions {
		if err := ua.u.validate(at(ua.path)); err != nil {
			return err
		}
	}
	return nil
}

// ---- helpers ----

func at(path string) string {
	if path == "" {
		return "/"
	}
	return path
}

func undefinedType(path, typ string) Issues {
	return AppendIssues(nil, Issue{Code: CodeUndefinedType, Path: at(path), Message: i18n.T(CodeUndefinedType, map[string]string{"type": typ}), Hint: typ})
}

func invalidAttr(path, attr, reason string) Issues {
	return singleIssue(CodeInvalidSchema, at(path), i18n.T(CodeInvalidSchema, map[string]string{"attr": attr, "reason": reason}))
}

// reissue prefixes the relative paths of issues raised by constructors with
// the location of the node being built.
func reissue(err error, path string) error {
	iss, ok := err.(Issues)
	if !ok {
		return err
	}
	out := make(Issues, len(iss))
	for i, it := range iss {
		if it.Path == "/" {
			it.Path = ""
		}
		it.Path = at(path + it.Path)
		out[i] = it
	}
	return out
}

func stringList(v any, path, attr string) ([]string, error) {
	arr, ok := v.([]any)
	if !ok {
		return nil, invalidAttr(path, attr, "expected an array of strings")
	}
	out := make([]string, len(arr))
	for i, el := range arr {
		s, ok := el.(string)
		if !ok {
			return nil, invalidAttr(eng.JoinPointer(eng.JoinPointer(path, attr), strconv.Itoa(i)), attr, "expected a string")
		}
		out[i] = s
	}
	return out, nil
}

// asSize accepts a non-negative integral JSON number.
func asSize(v any) (int, bool) {
	var f float64
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return checkSize(i)
		}
		var err error
		if f, err = t.Float64(); err != nil {
			return 0, false
		}
	case float64:
		f = t
	case int:
		return checkSize(int64(t))
	case int64:
		return checkSize(t)
	default:
		return 0, false
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) || f > math.MaxInt32 {
		return 0, false
	}
	return checkSize(int64(f))
}

func checkSize(i int64) (int, bool) {
	if i < 0 || i > math.MaxInt32 {
		return 0, false
	}
	return int(i), true
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case json.Number, float64, int, int64:
		return "number"
	}
	return fmt.Sprintf("%T", v)
}
