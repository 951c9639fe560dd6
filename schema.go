package goavsc

import (
	"maps"
	"slices"

	"github.com/reoring/goavsc/i18n"
)

// Schema is one node of a schema graph. The set of implementations is closed:
// *Primitive, *Fixed, *Enum, *Array, *Map, *Union and *Record.
type Schema interface {
	// Kind returns the type discriminator.
	Kind() Kind
	// Doc returns the "doc" attribute, "" when absent.
	Doc() string
	// Props returns a copy of the non-reserved attributes.
	Props() map[string]any
	// Prop returns one non-reserved attribute.
	Prop(key string) (any, bool)
	// Accept dispatches to the Visitor method for the concrete variant.
	Accept(v Visitor) error

	schemaNode()
}

// NamedSchema is implemented by fixed, enum, record and error nodes.
type NamedSchema interface {
	Schema
	Name() Name
}

// Visitor has one method per schema variant. Walks over a graph implement it
// so that a new variant cannot be forgotten.
type Visitor interface {
	VisitPrimitive(*Primitive) error
	VisitFixed(*Fixed) error
	VisitEnum(*Enum) error
	VisitArray(*Array) error
	VisitMap(*Map) error
	VisitUnion(*Union) error
	VisitRecord(*Record) error
}

// base holds the data every variant shares.
type base struct {
	kind  Kind
	doc   string
	props map[string]any
}

func (b *base) Kind() Kind  { return b.kind }
func (b *base) Doc() string { return b.doc }
func (b *base) schemaNode() {}

func (b *base) Props() map[string]any {
	if len(b.props) == 0 {
		return map[string]any{}
	}
	return cloneJSON(b.props).(map[string]any)
}

func (b *base) Prop(key string) (any, bool) {
	v, ok := b.props[key]
	if !ok {
		return nil, false
	}
	return cloneJSON(v), true
}

// SchemaOption configures optional attributes of a schema node.
type SchemaOption func(*base) error

// WithDoc sets the "doc" attribute.
func WithDoc(doc string) SchemaOption {
	return func(b *base) error {
		b.doc = doc
		return nil
	}
}

// WithProps attaches extra attributes. Reserved attribute names are rejected.
func WithProps(props map[string]any) SchemaOption {
	return func(b *base) error {
		for k := range props {
			if _, reserved := schemaReservedProps[k]; reserved {
				return singleIssue(CodeInvalidSchema, "", i18n.T(CodeInvalidSchema, map[string]string{"attr": k, "reason": "reserved attribute"}))
			}
		}
		if len(props) > 0 {
			b.props = cloneJSON(props).(map[string]any)
		}
		return nil
	}
}

func newBase(k Kind, opts []SchemaOption) (base, error) {
	b := base{kind: k}
	for _, o := range opts {
		if err := o(&b); err != nil {
			return base{}, err
		}
	}
	return b, nil
}

// Primitive is a leaf node of one of the eight primitive kinds.
type Primitive struct{ base }

// NewPrimitive creates a primitive node. k must be a primitive kind.
func NewPrimitive(k Kind, opts ...SchemaOption) (*Primitive, error) {
	if !k.IsPrimitive() {
		return nil, singleIssue(CodeUndefinedType, "", i18n.T(CodeUndefinedType, map[string]string{"type": k.String()}))
	}
	b, err := newBase(k, opts)
	if err != nil {
		return nil, err
	}
	return &Primitive{base: b}, nil
}

func (p *Primitive) Accept(v Visitor) error { return v.VisitPrimitive(p) }

// Array holds a sequence of items of one schema.
type Array struct {
	base
	items Schema
}

// NewArray creates an array node.
func NewArray(items Schema, opts ...SchemaOption) (*Array, error) {
	if items == nil {
		return nil, missingAttr("items")
	}
	b, err := newBase(KindArray, opts)
	if err != nil {
		return nil, err
	}
	return &Array{base: b, items: items}, nil
}

func (a *Array) Items() Schema          { return a.items }
func (a *Array) Accept(v Visitor) error { return v.VisitArray(a) }

// Map holds string-keyed values of one schema.
type Map struct {
	base
	values Schema
}

// NewMap creates a map node.
func NewMap(values Schema, opts ...SchemaOption) (*Map, error) {
	if values == nil {
		return nil, missingAttr("values")
	}
	b, err := newBase(KindMap, opts)
	if err != nil {
		return nil, err
	}
	return &Map{base: b, values: values}, nil
}

func (m *Map) Values() Schema         { return m.values }
func (m *Map) Accept(v Visitor) error { return v.VisitMap(m) }

// Union is an ordered choice between branches. An error union (kind
// error_union) always starts with an implicit string branch followed by the
// declared errors.
type Union struct {
	base
	branches []Schema
}

// NewUnion creates a union. Branches must have distinct type identities and
// may not be unions themselves.
func NewUnion(branches ...Schema) (*Union, error) {
	u := &Union{base: base{kind: KindUnion}, branches: slices.Clone(branches)}
	if err := u.validate(""); err != nil {
		return nil, err
	}
	return u, nil
}

// NewErrorUnion creates an error union over the declared error schemas.
func NewErrorUnion(declared []Schema, opts ...SchemaOption) (*Union, error) {
	b, err := newBase(KindErrorUnion, opts)
	if err != nil {
		return nil, err
	}
	u := &Union{base: b, branches: append([]Schema{stringSchema()}, declared...)}
	if err := u.validate(""); err != nil {
		return nil, err
	}
	return u, nil
}

// Branches returns all branches in declaration order.
func (u *Union) Branches() []Schema { return slices.Clone(u.branches) }

// Declared returns the declared errors of an error union, or all branches of
// a plain union.
func (u *Union) Declared() []Schema {
	if u.kind == KindErrorUnion && len(u.branches) > 0 {
		return slices.Clone(u.branches[1:])
	}
	return u.Branches()
}

func (u *Union) Accept(v Visitor) error { return v.VisitUnion(u) }

// validate enforces distinct branch identities and no directly nested unions.
func (u *Union) validate(path string) error {
	seen := make(map[string]int, len(u.branches))
	for i, br := range u.branches {
		if br == nil {
			return singleIssue(CodeInvalidUnion, path, i18n.T(CodeInvalidUnion, map[string]string{"reason": "nil branch"}))
		}
		if k := br.Kind(); k == KindUnion || k == KindErrorUnion {
			return singleIssue(CodeInvalidUnion, path, i18n.T(CodeInvalidUnion, map[string]string{"reason": "unions may not contain unions"}))
		}
		key := branchKey(br)
		if j, dup := seen[key]; dup {
			return AppendIssues(nil, Issue{
				Code:    CodeInvalidUnion,
				Path:    path,
				Message: i18n.T(CodeInvalidUnion, map[string]string{"reason": "duplicate branch " + key}),
				Params:  map[string]any{"branch": key, "first": j, "second": i},
			})
		}
		seen[key] = i
	}
	return nil
}

// branchKey is the identity of a union branch: the fullname of a named type,
// the kind keyword otherwise.
func branchKey(s Schema) string {
	switch t := s.(type) {
	case NamedSchema:
		return t.Name().Fullname()
	case *forwardRef:
		return t.full.Fullname()
	}
	return s.Kind().String()
}

func missingAttr(attr string) Issues {
	return singleIssue(CodeInvalidSchema, "", i18n.T(CodeInvalidSchema, map[string]string{"attr": attr, "reason": "missing"}))
}

var stringSingleton = &Primitive{base: base{kind: KindString}}

func stringSchema() Schema { return stringSingleton }

// cloneJSON deep-copies JSON-compatible values so that property bags cannot be
// mutated through aliases.
func cloneJSON(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = cloneJSON(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneJSON(t[i])
		}
		return out
	}
	return v
}

// otherProps returns the attributes of m that are not reserved.
func otherProps(m map[string]any, reserved map[string]struct{}) map[string]any {
	out := maps.Clone(m)
	maps.DeleteFunc(out, func(k string, _ any) bool {
		_, r := reserved[k]
		return r
	})
	if len(out) == 0 {
		return nil
	}
	return cloneJSON(out).(map[string]any)
}
