package goavsc

import (
	"slices"
	"strconv"

	"github.com/reoring/goavsc/i18n"
)

// named extends base with the resolved fullname.
type named struct {
	base
	name Name
}

func (n *named) Name() Name { return n.name }

func newNamed(k Kind, name Name, opts []SchemaOption) (named, error) {
	if name.IsZero() {
		return named{}, singleIssue(CodeInvalidName, "", i18n.T(CodeInvalidName, map[string]string{"what": "name", "name": ""}))
	}
	b, err := newBase(k, opts)
	if err != nil {
		return named{}, err
	}
	return named{base: b, name: name}, nil
}

// Fixed is a named byte string of constant size.
type Fixed struct {
	named
	size int
}

// NewFixed creates a fixed node. size must not be negative.
func NewFixed(name Name, size int, opts ...SchemaOption) (*Fixed, error) {
	if size < 0 {
		return nil, singleIssue(CodeInvalidSize, "", i18n.T(CodeInvalidSize, nil))
	}
	n, err := newNamed(KindFixed, name, opts)
	if err != nil {
		return nil, err
	}
	return &Fixed{named: n, size: size}, nil
}

func (f *Fixed) Size() int              { return f.size }
func (f *Fixed) Accept(v Visitor) error { return v.VisitFixed(f) }

// Enum is a named set of symbols.
type Enum struct {
	named
	symbols []string
}

// NewEnum creates an enum node. Symbols must be non-empty and distinct.
func NewEnum(name Name, symbols []string, opts ...SchemaOption) (*Enum, error) {
	n, err := newNamed(KindEnum, name, opts)
	if err != nil {
		return nil, err
	}
	e := &Enum{named: n, symbols: slices.Clone(symbols)}
	if err := e.validate(""); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Enum) validate(path string) error {
	seen := make(map[string]struct{}, len(e.symbols))
	for i, s := range e.symbols {
		if s == "" {
			return singleIssue(CodeInvalidSchema, path+"/symbols/"+strconv.Itoa(i), i18n.T(CodeInvalidSchema, map[string]string{"attr": "symbols", "reason": "empty symbol"}))
		}
		if _, dup := seen[s]; dup {
			return AppendIssues(nil, Issue{
				Code:    CodeDuplicateSymbol,
				Path:    path + "/symbols/" + strconv.Itoa(i),
				Message: i18n.T(CodeDuplicateSymbol, map[string]string{"symbol": s}),
				Hint:    s,
			})
		}
		seen[s] = struct{}{}
	}
	return nil
}

// Symbols returns the symbols in declaration order.
func (e *Enum) Symbols() []string { return slices.Clone(e.symbols) }

// Ordinal returns the position of symbol, or -1.
func (e *Enum) Ordinal(symbol string) int { return slices.Index(e.symbols, symbol) }

func (e *Enum) Accept(v Visitor) error { return v.VisitEnum(e) }

// Record is a named sequence of fields. Error schemas share the
// representation and differ only in kind.
type Record struct {
	named
	fields []*Field
	index  map[string]int
}

// NewRecord creates a record (kind KindRecord) or error (kind KindError) node.
func NewRecord(kind Kind, name Name, fields []*Field, opts ...SchemaOption) (*Record, error) {
	return NewRecursiveRecord(kind, name, func(*Record) ([]*Field, error) { return fields, nil }, opts...)
}

// NewRecursiveRecord creates a record whose fields may refer to the record
// itself. build receives the record before its fields are attached and must
// not retain it for anything other than field types.
func NewRecursiveRecord(kind Kind, name Name, build func(self *Record) ([]*Field, error), opts ...SchemaOption) (*Record, error) {
	if kind != KindRecord && kind != KindError {
		return nil, singleIssue(CodeUndefinedType, "", i18n.T(CodeUndefinedType, map[string]string{"type": kind.String()}))
	}
	n, err := newNamed(kind, name, opts)
	if err != nil {
		return nil, err
	}
	r := &Record{named: n}
	fields, err := build(r)
	if err != nil {
		return nil, err
	}
	if err := r.setFields(fields, ""); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Record) setFields(fields []*Field, path string) error {
	r.fields = slices.Clone(fields)
	r.index = make(map[string]int, len(fields))
	for i, f := range r.fields {
		if f == nil {
			return fieldIssue(path, i, "", singleIssue(CodeInvalidSchema, "", i18n.T(CodeInvalidSchema, map[string]string{"attr": "fields", "reason": "nil field"})))
		}
		if _, dup := r.index[f.name]; dup {
			return fieldIssue(path, i, f.name, singleIssue(CodeInvalidField, "", "field name already used in "+r.name.Fullname()))
		}
		r.index[f.name] = i
	}
	return nil
}

// Fields returns the fields in declaration order.
func (r *Record) Fields() []*Field { return slices.Clone(r.fields) }

// Field looks a field up by name.
func (r *Record) Field(name string) (*Field, bool) {
	i, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return r.fields[i], true
}

// IsError reports whether the record was declared as an error.
func (r *Record) IsError() bool { return r.kind == KindError }

func (r *Record) Accept(v Visitor) error { return v.VisitRecord(r) }

// Field is a named, typed slot of a record. It is not a Schema itself.
type Field struct {
	name       string
	typ        Schema
	def        any
	hasDefault bool
	order      Order
	doc        string
	props      map[string]any
}

// FieldOption configures optional attributes of a Field.
type FieldOption func(*Field) error

// WithDefault sets the default value. v must be JSON-compatible; null is a
// valid default distinct from "no default".
func WithDefault(v any) FieldOption {
	return func(f *Field) error {
		f.def = cloneJSON(v)
		f.hasDefault = true
		return nil
	}
}

// WithOrder sets the sort order.
func WithOrder(o Order) FieldOption {
	return func(f *Field) error {
		if !o.Valid() {
			return singleIssue(CodeInvalidField, "/order", `order must be one of ascending, descending, ignore, got "`+string(o)+`"`)
		}
		f.order = o
		return nil
	}
}

// WithFieldDoc sets the field's "doc" attribute.
func WithFieldDoc(doc string) FieldOption {
	return func(f *Field) error {
		f.doc = doc
		return nil
	}
}

// WithFieldProps attaches extra field attributes. Reserved names are rejected.
func WithFieldProps(props map[string]any) FieldOption {
	return func(f *Field) error {
		for k := range props {
			if _, reserved := fieldReservedProps[k]; reserved {
				return singleIssue(CodeInvalidField, "/"+k, "reserved field attribute "+k)
			}
		}
		if len(props) > 0 {
			f.props = cloneJSON(props).(map[string]any)
		}
		return nil
	}
}

// NewField creates a record field.
func NewField(name string, typ Schema, opts ...FieldOption) (*Field, error) {
	f := &Field{name: name, typ: typ}
	if name == "" {
		return nil, fieldIssue("", -1, name, singleIssue(CodeInvalidName, "/name", i18n.T(CodeInvalidName, map[string]string{"what": "field name", "name": name})))
	}
	if typ == nil {
		return nil, fieldIssue("", -1, name, missingAttr("type"))
	}
	for _, o := range opts {
		if err := o(f); err != nil {
			return nil, fieldIssue("", -1, name, err)
		}
	}
	return f, nil
}

func (f *Field) Name() string { return f.name }
func (f *Field) Type() Schema { return f.typ }
func (f *Field) Doc() string  { return f.doc }

// Default returns the default value and whether one was declared.
func (f *Field) Default() (any, bool) { return cloneJSON(f.def), f.hasDefault }

// HasDefault reports whether a default was declared.
func (f *Field) HasDefault() bool { return f.hasDefault }

// Order returns the declared order, OrderAscending when none was declared.
func (f *Field) Order() Order {
	if f.order == "" {
		return OrderAscending
	}
	return f.order
}

// HasOrder reports whether an order was declared explicitly.
func (f *Field) HasOrder() bool { return f.order != "" }

// Props returns a copy of the non-reserved field attributes.
func (f *Field) Props() map[string]any {
	if len(f.props) == 0 {
		return map[string]any{}
	}
	return cloneJSON(f.props).(map[string]any)
}

// fieldIssue wraps a field failure into one invalid_field issue. i < 0 means
// the position is unknown.
func fieldIssue(recordPath string, i int, name string, cause error) Issues {
	path := recordPath
	if i >= 0 {
		path = recordPath + "/fields/" + strconv.Itoa(i)
	}
	return AppendIssues(nil, Issue{
		Code:    CodeInvalidField,
		Path:    path,
		Message: i18n.T(CodeInvalidField, map[string]string{"name": name}),
		Hint:    name,
		Cause:   cause,
	})
}
