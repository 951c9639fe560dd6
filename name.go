package goavsc

import (
	"strings"

	"github.com/reoring/goavsc/i18n"
)

// Name is a resolved, namespace-qualified identifier. The zero Name is unset.
type Name struct {
	full string
}

// NewName resolves a fullname from a short or dotted name, an explicit
// namespace and the namespace inherited from the enclosing context.
//
// A name that already contains a dot is the fullname verbatim. Otherwise the
// explicit namespace wins over the default one; with neither the name stands
// alone. Some("") is rejected for every argument: only None means "not
// provided". Dotted values may not contain empty segments.
func NewName(name, namespace, defaultNamespace Opt) (Name, error) {
	for _, a := range []struct {
		what string
		v    Opt
	}{{"name", name}, {"namespace", namespace}, {"default namespace", defaultNamespace}} {
		if s, ok := a.v.Get(); ok && !validDotted(s) {
			return Name{}, singleIssue(CodeInvalidName, "", i18n.T(CodeInvalidName, map[string]string{"what": a.what, "name": s}))
		}
	}
	n, ok := name.Get()
	if !ok {
		return Name{}, nil
	}
	switch {
	case strings.Contains(n, "."):
		return Name{full: n}, nil
	case namespace.IsSet():
		return Name{full: namespace.v + "." + n}, nil
	case defaultNamespace.IsSet():
		return Name{full: defaultNamespace.v + "." + n}, nil
	}
	return Name{full: n}, nil
}

// MustName is like NewName with no default namespace and panics on error.
// It is meant for schemas built in code.
func MustName(name string, namespace ...string) Name {
	ns := None
	if len(namespace) > 0 {
		ns = Some(namespace[0])
	}
	n, err := NewName(Some(name), ns, None)
	if err != nil {
		panic(err)
	}
	return n
}

// Fullname returns the qualified name, "" for the zero Name.
func (n Name) Fullname() string { return n.full }

// IsZero reports whether the name is unset.
func (n Name) IsZero() bool { return n.full == "" }

// Namespace returns the part of the fullname before the last dot, "" when the
// name is unqualified. ok is false only for the zero Name.
func (n Name) Namespace() (ns string, ok bool) {
	if n.full == "" {
		return "", false
	}
	if i := strings.LastIndexByte(n.full, '.'); i >= 0 {
		return n.full[:i], true
	}
	return "", true
}

// Short returns the part of the fullname after the last dot.
func (n Name) Short() string {
	if i := strings.LastIndexByte(n.full, '.'); i >= 0 {
		return n.full[i+1:]
	}
	return n.full
}

// RefIn returns how a reference to n is written inside a context whose
// default namespace is defaultNS: the short name when the namespaces match,
// the fullname otherwise.
func (n Name) RefIn(defaultNS Opt) string {
	ns, _ := n.Namespace()
	if _, keyword := KindOf(n.Short()); keyword {
		return n.full
	}
	if ns == defaultNS.Or("") {
		return n.Short()
	}
	return n.full
}

func (n Name) String() string { return n.full }

func validDotted(s string) bool {
	if s == "" {
		return false
	}
	for _, seg := range strings.Split(s, ".") {
		if seg == "" {
			return false
		}
	}
	return true
}
