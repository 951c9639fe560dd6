package goavsc

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"strconv"

	"github.com/reoring/goavsc/i18n"
)

// CanonicalForm returns the Parsing Canonical Form of s: names are fully
// qualified, only attributes that affect decoding are kept (name, type,
// fields, symbols, items, values, size), keys appear in that order and no
// whitespace is emitted. Two schemas that decode the same data share a
// canonical form.
func CanonicalForm(s Schema) ([]byte, error) {
	c := &canonicalizer{seen: make(map[string]NamedSchema)}
	if err := c.write(s); err != nil {
		return nil, err
	}
	return c.buf.Bytes(), nil
}

// Fingerprint64 returns the CRC-64-AVRO fingerprint of the canonical form.
func Fingerprint64(s Schema) (uint64, error) {
	pcf, err := CanonicalForm(s)
	if err != nil {
		return 0, err
	}
	return crc64Avro(pcf), nil
}

// FingerprintSHA256 returns the SHA-256 digest of the canonical form.
func FingerprintSHA256(s Schema) ([32]byte, error) {
	pcf, err := CanonicalForm(s)
	if err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256(pcf), nil
}

type canonicalizer struct {
	buf  bytes.Buffer
	seen map[string]NamedSchema
}

func (c *canonicalizer) str(s string) error {
	b, err := encodeJSON(s, "", "")
	if err != nil {
		return err
	}
	c.buf.Write(b)
	return nil
}

// key writes `"k":` preceded by a comma unless first.
func (c *canonicalizer) key(k string, first bool) {
	if !first {
		c.buf.WriteByte(',')
	}
	c.buf.WriteByte('"')
	c.buf.WriteString(k)
	c.buf.WriteString(`":`)
}

func (c *canonicalizer) list(items []Schema) error {
	c.buf.WriteByte('[')
	for i, it := range items {
		if i > 0 {
			c.buf.WriteByte(',')
		}
		if err := c.write(it); err != nil {
			return err
		}
	}
	c.buf.WriteByte(']')
	return nil
}

func (c *canonicalizer) write(s Schema) error {
	k := s.Kind()
	if k.IsPrimitive() {
		return c.str(k.String())
	}
	if n, ok := s.(NamedSchema); ok {
		full := n.Name().Fullname()
		if prev, dup := c.seen[full]; dup {
			if prev != n {
				return singleIssue(CodeDuplicateName, "/", i18n.T(CodeDuplicateName, map[string]string{"name": full}))
			}
			return c.str(full)
		}
		c.seen[full] = n
		c.buf.WriteByte('{')
		c.key("name", true)
		if err := c.str(full); err != nil {
			return err
		}
		c.key("type", false)
		if err := c.str(k.String()); err != nil {
			return err
		}
		switch t := s.(type) {
		case *Record:
			c.key("fields", false)
			c.buf.WriteByte('[')
			for i, f := range t.fields {
				if i > 0 {
					c.buf.WriteByte(',')
				}
				c.buf.WriteByte('{')
				c.key("name", true)
				if err := c.str(f.name); err != nil {
					return err
				}
				c.key("type", false)
				if err := c.write(f.typ); err != nil {
					return err
				}
				c.buf.WriteByte('}')
			}
			c.buf.WriteByte(']')
		case *Enum:
			c.key("symbols", false)
			c.buf.WriteByte('[')
			for i, sym := range t.symbols {
				if i > 0 {
					c.buf.WriteByte(',')
				}
				if err := c.str(sym); err != nil {
					return err
				}
			}
			c.buf.WriteByte(']')
		case *Fixed:
			c.key("size", false)
			c.buf.WriteString(strconv.Itoa(t.size))
		}
		c.buf.WriteByte('}')
		return nil
	}
	switch t := s.(type) {
	case *Array:
		c.buf.WriteString(`{"type":"array",`)
		c.key("items", true)
		if err := c.write(t.items); err != nil {
			return err
		}
		c.buf.WriteByte('}')
	case *Map:
		c.buf.WriteString(`{"type":"map",`)
		c.key("values", true)
		if err := c.write(t.values); err != nil {
			return err
		}
		c.buf.WriteByte('}')
	case *Union:
		if t.kind == KindErrorUnion {
			c.buf.WriteString(`{"type":"error_union",`)
			c.key("declared_errors", true)
			if err := c.list(t.Declared()); err != nil {
				return err
			}
			c.buf.WriteByte('}')
			return nil
		}
		return c.list(t.branches)
	default:
		return fmt.Errorf("goavsc: cannot canonicalize %T", s)
	}
	return nil
}

const crc64AvroEmpty uint64 = 0xc15d213aa4d7a795

var crc64AvroTable = func() (t [256]uint64) {
	for i := range t {
		fp := uint64(i)
		for range 8 {
			fp = (fp >> 1) ^ (crc64AvroEmpty & -(fp & 1))
		}
		t[i] = fp
	}
	return t
}()

// crc64Avro is the Rabin fingerprint used by Avro single-object encoding.
// hash/crc64 cannot express it: the register starts at the polynomial itself
// and the result is not inverted.
func crc64Avro(b []byte) uint64 {
	fp := crc64AvroEmpty
	for _, c := range b {
		fp = (fp >> 8) ^ crc64AvroTable[byte(fp)^c]
	}
	return fp
}
