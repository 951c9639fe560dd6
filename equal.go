package goavsc

import "reflect"

// Equal reports whether a and b describe the same schema, including docs,
// properties and field defaults. Recursive graphs are compared without
// looping: a pair of nodes already under comparison is assumed equal.
func Equal(a, b Schema) bool {
	e := equaler{visiting: make(map[[2]Schema]struct{})}
	return e.equal(a, b)
}

type equaler struct {
	visiting map[[2]Schema]struct{}
}

func (e equaler) equal(a, b Schema) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind() != b.Kind() || a.Doc() != b.Doc() || !reflect.DeepEqual(a.Props(), b.Props()) {
		return false
	}
	pair := [2]Schema{a, b}
	if _, ok := e.visiting[pair]; ok {
		return true
	}
	e.visiting[pair] = struct{}{}
	defer delete(e.visiting, pair)

	switch x := a.(type) {
	case *Primitive:
		return true
	case *Fixed:
		y := b.(*Fixed)
		return x.name == y.name && x.size == y.size
	case *Enum:
		y := b.(*Enum)
		return x.name == y.name && reflect.DeepEqual(x.symbols, y.symbols)
	case *Array:
		return e.equal(x.items, b.(*Array).items)
	case *Map:
		return e.equal(x.values, b.(*Map).values)
	case *Union:
		y := b.(*Union)
		if len(x.branches) != len(y.branches) {
			return false
		}
		for i := range x.branches {
			if !e.equal(x.branches[i], y.branches[i]) {
				return false
			}
		}
		return true
	case *Record:
		y := b.(*Record)
		if x.name != y.name || len(x.fields) != len(y.fields) {
			return false
		}
		for i, f := range x.fields {
			g := y.fields[i]
			if f.name != g.name || f.Order() != g.Order() || f.doc != g.doc ||
				f.hasDefault != g.hasDefault || !reflect.DeepEqual(f.def, g.def) ||
				!reflect.DeepEqual(f.Props(), g.Props()) {
				return false
			}
			if !e.equal(f.typ, g.typ) {
				return false
			}
		}
		return true
	}
	return false
}
