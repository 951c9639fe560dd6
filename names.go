package goavsc

import (
	"maps"

	"github.com/reoring/goavsc/i18n"
)

// Names is the symbol table of one parse or serialize call. It maps fullnames
// to named schemas and tracks the default namespace of the context being
// walked. A Names value must not be shared between concurrent calls.
type Names struct {
	defaultNamespace Opt
	names            map[string]NamedSchema
}

// NewNames creates an empty registry.
func NewNames(defaultNamespace Opt) *Names {
	return &Names{defaultNamespace: defaultNamespace, names: make(map[string]NamedSchema)}
}

// DefaultNamespace returns the namespace inherited by unqualified names.
func (n *Names) DefaultNamespace() Opt { return n.defaultNamespace }

// enter switches the default namespace to ns ("" meaning none) and returns a
// func restoring the previous one.
func (n *Names) enter(ns string) (restore func()) {
	prev := n.defaultNamespace
	if ns == "" {
		n.defaultNamespace = None
	} else {
		n.defaultNamespace = Some(ns)
	}
	return func() { n.defaultNamespace = prev }
}

// resolve computes the fullname of a candidate against the default namespace.
func (n *Names) resolve(name string, namespace Opt) (Name, error) {
	return NewName(Some(name), namespace, n.defaultNamespace)
}

// HasName reports whether the resolved fullname is registered.
func (n *Names) HasName(name string, namespace Opt) bool {
	_, ok := n.GetName(name, namespace)
	return ok
}

// GetName returns the schema registered under the resolved fullname.
func (n *Names) GetName(name string, namespace Opt) (NamedSchema, bool) {
	full, err := n.resolve(name, namespace)
	if err != nil {
		return nil, false
	}
	s, ok := n.names[full.Fullname()]
	return s, ok
}

// lookup resolves a type reference written in the current context. An
// unqualified reference always takes the default namespace; a type in the null
// namespace cannot be named from inside a namespace.
func (n *Names) lookup(ref string) (NamedSchema, Name, bool) {
	full, err := n.resolve(ref, None)
	if err != nil {
		return nil, Name{}, false
	}
	s, ok := n.names[full.Fullname()]
	return s, full, ok
}

// AddName registers s under the resolved fullname. It fails with
// reserved_name when the fullname is a type keyword and with duplicate_name
// when the fullname is already taken.
func (n *Names) AddName(name string, namespace Opt, s NamedSchema) (Name, error) {
	full, err := n.resolve(name, namespace)
	if err != nil {
		return Name{}, err
	}
	if err := n.add(full, s); err != nil {
		return Name{}, err
	}
	return full, nil
}

func (n *Names) add(full Name, s NamedSchema) error {
	fn := full.Fullname()
	if _, reserved := KindOf(fn); reserved {
		return AppendIssues(nil, Issue{Code: CodeReservedName, Message: i18n.T(CodeReservedName, map[string]string{"name": fn}), Hint: fn})
	}
	if _, dup := n.names[fn]; dup {
		return AppendIssues(nil, Issue{Code: CodeDuplicateName, Message: i18n.T(CodeDuplicateName, map[string]string{"name": fn}), Hint: fn})
	}
	n.names[fn] = s
	return nil
}

// Len returns the number of registered names.
func (n *Names) Len() int { return len(n.names) }

// PruneNamespace drops the "namespace" attribute from props when it equals the
// default namespace. props is returned unchanged otherwise; it is never
// modified in place.
func (n *Names) PruneNamespace(props map[string]any) map[string]any {
	def, ok := n.defaultNamespace.Get()
	if !ok {
		return props
	}
	ns, present := props["namespace"]
	if !present || ns != def {
		return props
	}
	out := maps.Clone(props)
	delete(out, "namespace")
	return out
}
