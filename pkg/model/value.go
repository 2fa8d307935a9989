package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"reflect"
	"slices"
	"strconv"
	"time"

	"github.com/google/go-cmp/cmp"

	herrors "github.com/matzehuels/hermes/pkg/errors"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindScalar
	KindMapping
	KindSequence
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindMapping:
		return "mapping"
	case KindSequence:
		return "sequence"
	default:
		return "null"
	}
}

// Value is a JSON-like tree node: null, a scalar (string, float64 or bool),
// a mapping with insertion-ordered keys, or a sequence.
//
// All numbers are stored as float64 so that values survive a JSON round
// trip unchanged and compare equal afterwards.
type Value struct {
	kind   Kind
	scalar any
	keys   []string
	fields map[string]*Value
	items  []*Value
}

// Null returns a null value.
func Null() *Value { return &Value{} }

// String returns a string scalar.
func String(s string) *Value { return &Value{kind: KindScalar, scalar: s} }

// Number returns a numeric scalar.
func Number(f float64) *Value { return &Value{kind: KindScalar, scalar: f} }

// Bool returns a boolean scalar.
func Bool(b bool) *Value { return &Value{kind: KindScalar, scalar: b} }

// NewMapping returns an empty mapping.
func NewMapping() *Value {
	return &Value{kind: KindMapping, fields: make(map[string]*Value)}
}

// NewSequence returns a sequence holding items.
func NewSequence(items ...*Value) *Value {
	v := &Value{kind: KindSequence, items: make([]*Value, 0, len(items))}
	for _, it := range items {
		v.items = append(v.items, orNull(it))
	}
	return v
}

// FromAny converts Go data as produced by encoding/json, yaml.v3 or toml
// decoders into a Value. Maps must have string keys.
func FromAny(x any) (*Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case *Value:
		return t.Clone(), nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case float64:
		return Number(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil, herrors.Wrap(herrors.ErrCodeInvalidValue, err, "number %q", t)
		}
		return Number(f), nil
	case time.Time:
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
			return String(t.Format(time.DateOnly)), nil
		}
		return String(t.Format(time.RFC3339)), nil
	case map[string]any:
		// Go maps have no order; sort for a deterministic result.
		m := NewMapping()
		for _, k := range slices.Sorted(maps.Keys(t)) {
			child, err := FromAny(t[k])
			if err != nil {
				return nil, err
			}
			m.SetField(k, child)
		}
		return m, nil
	case []any:
		s := NewSequence()
		for _, it := range t {
			child, err := FromAny(it)
			if err != nil {
				return nil, err
			}
			s.Append(child)
		}
		return s, nil
	}

	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Number(float64(rv.Int())), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Number(float64(rv.Uint())), nil
	case reflect.Float32:
		return Number(rv.Float()), nil
	case reflect.Pointer:
		if rv.IsNil() {
			return Null(), nil
		}
		return FromAny(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		s := NewSequence()
		for i := 0; i < rv.Len(); i++ {
			child, err := FromAny(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			s.Append(child)
		}
		return s, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, herrors.New(herrors.ErrCodeInvalidValue, "mapping keys must be strings, got %s", rv.Type().Key())
		}
		plain := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			plain[iter.Key().String()] = iter.Value().Interface()
		}
		return FromAny(plain)
	}
	return nil, herrors.New(herrors.ErrCodeInvalidValue, "unsupported value type %T", x)
}

// MustFromAny is like FromAny but panics on unsupported input.
func MustFromAny(x any) *Value {
	v, err := FromAny(x)
	if err != nil {
		panic(err)
	}
	return v
}

func orNull(v *Value) *Value {
	if v == nil {
		return Null()
	}
	return v
}

// Kind returns the variant held by v.
func (v *Value) Kind() Kind {
	if v == nil {
		return KindNull
	}
	return v.kind
}

// IsNull reports whether v is null (or a nil pointer).
func (v *Value) IsNull() bool { return v.Kind() == KindNull }

// Str returns the string scalar held by v.
func (v *Value) Str() (string, bool) {
	if v.Kind() != KindScalar {
		return "", false
	}
	s, ok := v.scalar.(string)
	return s, ok
}

// Num returns the numeric scalar held by v.
func (v *Value) Num() (float64, bool) {
	if v.Kind() != KindScalar {
		return 0, false
	}
	f, ok := v.scalar.(float64)
	return f, ok
}

// BoolValue returns the boolean scalar held by v.
func (v *Value) BoolValue() (bool, bool) {
	if v.Kind() != KindScalar {
		return false, false
	}
	b, ok := v.scalar.(bool)
	return b, ok
}

// Len returns the number of fields or items; zero for scalars and null.
func (v *Value) Len() int {
	switch v.Kind() {
	case KindMapping:
		return len(v.keys)
	case KindSequence:
		return len(v.items)
	}
	return 0
}

// Keys returns the mapping keys in insertion order.
func (v *Value) Keys() []string {
	if v.Kind() != KindMapping {
		return nil
	}
	return append([]string(nil), v.keys...)
}

// Field returns the mapping entry for k.
func (v *Value) Field(k string) (*Value, bool) {
	if v.Kind() != KindMapping {
		return nil, false
	}
	f, ok := v.fields[k]
	return f, ok
}

// SetField sets a mapping entry, keeping the key's original position when
// it already exists. It is a no-op on non-mappings.
func (v *Value) SetField(k string, child *Value) {
	if v.Kind() != KindMapping {
		return
	}
	if _, ok := v.fields[k]; !ok {
		v.keys = append(v.keys, k)
	}
	v.fields[k] = orNull(child)
}

// Items returns the sequence items.
func (v *Value) Items() []*Value {
	if v.Kind() != KindSequence {
		return nil
	}
	return append([]*Value(nil), v.items...)
}

// Item returns the sequence item at i.
func (v *Value) Item(i int) (*Value, bool) {
	if v.Kind() != KindSequence || i < 0 || i >= len(v.items) {
		return nil, false
	}
	return v.items[i], true
}

// SetItem sets the sequence item at i, padding with nulls as needed.
// It is a no-op on non-sequences.
func (v *Value) SetItem(i int, child *Value) {
	if v.Kind() != KindSequence || i < 0 {
		return
	}
	for len(v.items) <= i {
		v.items = append(v.items, Null())
	}
	v.items[i] = orNull(child)
}

// Append adds an item to a sequence.
func (v *Value) Append(child *Value) {
	if v.Kind() != KindSequence {
		return
	}
	v.items = append(v.items, orNull(child))
}

// Clone returns a deep copy of v.
func (v *Value) Clone() *Value {
	switch v.Kind() {
	case KindNull:
		return Null()
	case KindScalar:
		return &Value{kind: KindScalar, scalar: v.scalar}
	case KindMapping:
		m := NewMapping()
		for _, k := range v.keys {
			m.SetField(k, v.fields[k].Clone())
		}
		return m
	default:
		s := NewSequence()
		for _, it := range v.items {
			s.Append(it.Clone())
		}
		return s
	}
}

// Interface converts v back into plain Go data: nil, string, float64, bool,
// map[string]any or []any.
func (v *Value) Interface() any {
	switch v.Kind() {
	case KindScalar:
		return v.scalar
	case KindMapping:
		m := make(map[string]any, len(v.keys))
		for _, k := range v.keys {
			m[k] = v.fields[k].Interface()
		}
		return m
	case KindSequence:
		s := make([]any, len(v.items))
		for i, it := range v.items {
			s[i] = it.Interface()
		}
		return s
	}
	return nil
}

// Equal reports deep equality. Mapping key order is not significant.
func (v *Value) Equal(o *Value) bool {
	return cmp.Equal(v.Interface(), o.Interface())
}

// String renders v as compact JSON.
func (v *Value) String() string {
	b, err := v.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<%s>", v.Kind())
	}
	return string(b)
}

// MarshalJSON encodes v, writing mapping keys in insertion order.
func (v *Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v *Value) encode(buf *bytes.Buffer) error {
	switch v.Kind() {
	case KindNull:
		buf.WriteString("null")
	case KindScalar:
		if f, ok := v.scalar.(float64); ok {
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return herrors.New(herrors.ErrCodeInvalidValue, "number %v is not representable in JSON", f)
			}
			buf.WriteString(strconv.FormatFloat(f, 'f', -1, 64))
			return nil
		}
		b, err := json.Marshal(v.scalar)
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindMapping:
		buf.WriteByte('{')
		for i, k := range v.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, _ := json.Marshal(k)
			buf.Write(kb)
			buf.WriteByte(':')
			if err := v.fields[k].encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case KindSequence:
		buf.WriteByte('[')
		for i, it := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := it.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	}
	return nil
}

// UnmarshalJSON decodes JSON into v, preserving object key order.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	out, err := decodeValue(dec)
	if err != nil {
		return err
	}
	*v = *out
	return nil
}

func decodeValue(dec *json.Decoder) (*Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case float64:
		return Number(t), nil
	case json.Delim:
		switch t {
		case '{':
			m := NewMapping()
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, _ := kt.(string)
				child, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				m.SetField(key, child)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return m, nil
		case '[':
			s := NewSequence()
			for dec.More() {
				child, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				s.Append(child)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return s, nil
		}
	}
	return nil, fmt.Errorf("unexpected JSON token %v", tok)
}
