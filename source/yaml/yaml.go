// Package yaml reads schema documents written in YAML and converts them into
// the same JSON-compatible values the JSON sources produce, so the builder
// sees no difference between the two notations.
package yaml

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	yamlv3 "gopkg.in/yaml.v3"
)

const (
	maxNesting = 10000

	// MaxNodes caps the number of values a document may expand to once
	// aliases are followed. Nested aliases multiply, so a few hundred bytes
	// can otherwise describe millions of nodes.
	MaxNodes = 1 << 20
)

// DuplicateKeyError reports a duplicate key found in a YAML mapping with both
// the first occurrence position and the duplicate occurrence position.
type DuplicateKeyError struct {
	Key       string
	FirstLine int
	FirstCol  int
	Line      int
	Col       int
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate YAML key %q at %d:%d (first at %d:%d)", e.Key, e.Line, e.Col, e.FirstLine, e.FirstCol)
}

// ValueError reports a YAML value with no JSON equivalent.
type ValueError struct {
	Line int
	Col  int
	Msg  string
}

func (e *ValueError) Error() string { return fmt.Sprintf("%s at %d:%d", e.Msg, e.Line, e.Col) }

// ErrEmpty is returned for a stream without any document.
var ErrEmpty = errors.New("yaml: empty document")

// Decode reads the first YAML document from r. Mappings become
// map[string]any, sequences []any and numbers json.Number.
func Decode(r io.Reader) (any, error) {
	var root yamlv3.Node
	if err := yamlv3.NewDecoder(r).Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmpty
		}
		return nil, err
	}
	if len(root.Content) == 0 {
		return nil, ErrEmpty
	}
	c := &converter{budget: MaxNodes}
	return c.convert(root.Content[0], 0)
}

// converter turns a node tree into JSON values, spending one unit of budget
// per value produced.
type converter struct {
	budget int
}

func (c *converter) convert(n *yamlv3.Node, depth int) (any, error) {
	if depth > maxNesting {
		return nil, &ValueError{Line: n.Line, Col: n.Column, Msg: "nesting too deep"}
	}
	if n.Kind != yamlv3.AliasNode && n.Kind != yamlv3.DocumentNode {
		if c.budget == 0 {
			return nil, &ValueError{Line: n.Line, Col: n.Column, Msg: fmt.Sprintf("document expands to more than %d values", MaxNodes)}
		}
		c.budget--
	}
	switch n.Kind {
	case yamlv3.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return c.convert(n.Content[0], depth+1)
	case yamlv3.AliasNode:
		return c.convert(n.Alias, depth+1)
	case yamlv3.MappingNode:
		m := make(map[string]any, len(n.Content)/2)
		first := make(map[string][2]int, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if k.Kind != yamlv3.ScalarNode {
				return nil, &ValueError{Line: k.Line, Col: k.Column, Msg: "mapping key must be a scalar"}
			}
			if pos, dup := first[k.Value]; dup {
				return nil, &DuplicateKeyError{Key: k.Value, FirstLine: pos[0], FirstCol: pos[1], Line: k.Line, Col: k.Column}
			}
			first[k.Value] = [2]int{k.Line, k.Column}
			val, err := c.convert(v, depth+1)
			if err != nil {
				return nil, err
			}
			m[k.Value] = val
		}
		return m, nil
	case yamlv3.SequenceNode:
		arr := make([]any, 0, len(n.Content))
		for _, el := range n.Content {
			v, err := c.convert(el, depth+1)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil
	case yamlv3.ScalarNode:
		return scalar(n)
	}
	return nil, nil
}

func scalar(n *yamlv3.Node) (any, error) {
	switch n.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, err
		}
		return b, nil
	case "!!int":
		i, err := strconv.ParseInt(n.Value, 0, 64)
		if err != nil {
			// Out of int64 range: keep the digits, JSON numbers are unbounded.
			return json.Number(n.Value), nil
		}
		return json.Number(strconv.FormatInt(i, 10)), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, err
		}
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return nil, &ValueError{Line: n.Line, Col: n.Column, Msg: "non-finite number"}
		}
		return json.Number(strconv.FormatFloat(f, 'g', -1, 64)), nil
	default:
		return n.Value, nil
	}
}
