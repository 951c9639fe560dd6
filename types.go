package goavsc

// Kind is the closed set of schema type discriminators.
type Kind int

const (
	KindNull Kind = iota
	KindBoolean
	KindString
	KindBytes
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindFixed
	KindEnum
	KindRecord
	KindError
	KindArray
	KindMap
	KindUnion
	KindRequest
	KindErrorUnion
)

var kindNames = [...]string{
	KindNull:       "null",
	KindBoolean:    "boolean",
	KindString:     "string",
	KindBytes:      "bytes",
	KindInt:        "int",
	KindLong:       "long",
	KindFloat:      "float",
	KindDouble:     "double",
	KindFixed:      "fixed",
	KindEnum:       "enum",
	KindRecord:     "record",
	KindError:      "error",
	KindArray:      "array",
	KindMap:        "map",
	KindUnion:      "union",
	KindRequest:    "request",
	KindErrorUnion: "error_union",
}

var kindByName = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, s := range kindNames {
		m[s] = Kind(k)
	}
	return m
}()

// String returns the type keyword used in schema documents.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "invalid"
	}
	return kindNames[k]
}

// KindOf maps a type keyword to its Kind.
func KindOf(s string) (Kind, bool) {
	k, ok := kindByName[s]
	return k, ok
}

// IsPrimitive reports whether k is one of the eight leaf types.
func (k Kind) IsPrimitive() bool { return k >= KindNull && k <= KindDouble }

// IsNamed reports whether nodes of kind k carry a fullname.
func (k Kind) IsNamed() bool { return k >= KindFixed && k <= KindError }

// Reserved attribute names. They never land in a property bag.
var (
	schemaReservedProps = map[string]struct{}{
		"type": {}, "name": {}, "namespace": {}, "fields": {}, "items": {},
		"size": {}, "symbols": {}, "values": {}, "doc": {},
	}
	fieldReservedProps = map[string]struct{}{
		"default": {}, "name": {}, "doc": {}, "order": {}, "type": {},
	}
)

// Order is the sort order attribute of a record field.
type Order string

const (
	OrderAscending  Order = "ascending"
	OrderDescending Order = "descending"
	OrderIgnore     Order = "ignore"
)

// Valid reports whether o is one of the recognized orders.
func (o Order) Valid() bool {
	switch o {
	case OrderAscending, OrderDescending, OrderIgnore:
		return true
	}
	return false
}

// Severity expresses the severity level for input enforcement.
type Severity int

const (
	Ignore Severity = iota
	Warn
	Error
)

// Strictness configures enforcement for duplicate object keys.
type Strictness struct {
	OnDuplicateKey Severity // Ignore (last wins), Warn or Error.
}

// DefaultMaxDepth bounds schema nesting when ParseOpt.MaxDepth is zero.
const DefaultMaxDepth = 512

// ParseOpt bundles parsing options.
type ParseOpt struct {
	Strictness Strictness
	// MaxDepth bounds both JSON container nesting and schema recursion.
	// Zero selects DefaultMaxDepth; negative disables the bound.
	MaxDepth int
	MaxBytes int64
	// OnWarning receives non-fatal issues (duplicate keys under Warn).
	OnWarning func(Issue)
}

func (o ParseOpt) maxDepth() int {
	switch {
	case o.MaxDepth == 0:
		return DefaultMaxDepth
	case o.MaxDepth < 0:
		return 0
	}
	return o.MaxDepth
}

func lastOpt(opts []ParseOpt) ParseOpt {
	if len(opts) > 0 {
		return opts[len(opts)-1]
	}
	return ParseOpt{}
}

// Opt is an optional string. The zero value is None, which is distinct from
// Some("").
type Opt struct {
	v  string
	ok bool
}

// None is the absent optional string.
var None = Opt{}

// Some wraps a present string, including the empty string.
func Some(s string) Opt { return Opt{v: s, ok: true} }

// Get returns the value and whether it is present.
func (o Opt) Get() (string, bool) { return o.v, o.ok }

// IsSet reports presence.
func (o Opt) IsSet() bool { return o.ok }

// Or returns the value, or def when absent.
func (o Opt) Or(def string) string {
	if o.ok {
		return o.v
	}
	return def
}
