package types

/*
 * Licensed under LGPL-3.0.
 *
 * You can get a copy of the LGPL-3.0 License at
 *
 * https://www.gnu.org/licenses/lgpl-3.0.en.html
 *
 * @wcgcyx - https://github.com/wcgcyx
 */

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wcgcyx/rubidity/vmerrors"
)

// Kind is the tag of a type.
type Kind uint8

const (
	KindBool Kind = iota + 1
	KindUint
	KindInt
	KindAddress
	KindBytes32
	KindBytes
	KindString
	KindMapping
	KindArray
	KindStruct
	KindContract
)

// tagNames maps the elementary tag names to kinds.
var tagNames = map[string]Kind{
	"bool":     KindBool,
	"uint":     KindUint,
	"int":      KindInt,
	"address":  KindAddress,
	"bytes32":  KindBytes32,
	"bytes":    KindBytes,
	"string":   KindString,
	"mapping":  KindMapping,
	"array":    KindArray,
	"struct":   KindStruct,
	"contract": KindContract,
}

// Field is a named member of a struct type.
type Field struct {
	Name string
	Type *Type
}

// Metadata carries the extra information of composite and sized types.
type Metadata struct {
	// Bits for uint and int
	Bits int

	// Key and value type for mapping
	Key   *Type
	Value *Type

	// Element type and length for array, 0 length means dynamic
	Elem   *Type
	Length int

	// Name for struct and contract
	Name string

	// Field list for struct
	Fields []Field
}

// Type is an immutable value object describing the kind of a typed value.
type Type struct {
	kind   Kind
	bits   int
	key    *Type
	value  *Type
	elem   *Type
	length int
	name   string
	fields []Field
}

// Commonly used types.
var (
	Bool    = mustElementary(KindBool, 0)
	Address = mustElementary(KindAddress, 0)
	Bytes32 = mustElementary(KindBytes32, 0)
	Bytes   = mustElementary(KindBytes, 0)
	String  = mustElementary(KindString, 0)
	Uint8   = mustElementary(KindUint, 8)
	Uint160 = mustElementary(KindUint, 160)
	Uint256 = mustElementary(KindUint, 256)
	Int256  = mustElementary(KindInt, 256)
)

func mustElementary(kind Kind, bits int) *Type {
	return &Type{kind: kind, bits: bits}
}

// NewType creates a new type from a tag and optional metadata.
// It fails with a TypeError on invalid tag or metadata.
func NewType(tag string, meta *Metadata) (*Type, error) {
	kind, ok := tagNames[tag]
	if !ok {
		// Allow sized names like uint256 or int8.
		return ParseType(tag)
	}
	if meta == nil {
		meta = &Metadata{}
	}
	switch kind {
	case KindBool, KindAddress, KindBytes32, KindBytes, KindString:
		return &Type{kind: kind}, nil
	case KindUint, KindInt:
		bits := meta.Bits
		if bits == 0 {
			bits = 256
		}
		if bits < 8 || bits > 256 || bits%8 != 0 {
			return nil, vmerrors.NewTypeError("invalid integer width %v for %v", bits, tag)
		}
		return &Type{kind: kind, bits: bits}, nil
	case KindMapping:
		if meta.Key == nil || meta.Value == nil {
			return nil, vmerrors.NewTypeError("mapping requires key and value type")
		}
		if !meta.Key.IsElementary() {
			return nil, vmerrors.NewTypeError("invalid mapping key type %v", meta.Key)
		}
		return &Type{kind: kind, key: meta.Key, value: meta.Value}, nil
	case KindArray:
		if meta.Elem == nil {
			return nil, vmerrors.NewTypeError("array requires element type")
		}
		if meta.Elem.kind == KindMapping {
			return nil, vmerrors.NewTypeError("array of mapping is not supported")
		}
		if meta.Length < 0 {
			return nil, vmerrors.NewTypeError("invalid array length %v", meta.Length)
		}
		return &Type{kind: kind, elem: meta.Elem, length: meta.Length}, nil
	case KindStruct:
		if meta.Name == "" {
			return nil, vmerrors.NewTypeError("struct requires a name")
		}
		seen := make(map[string]bool)
		fields := make([]Field, 0, len(meta.Fields))
		for _, f := range meta.Fields {
			if f.Name == "" || f.Type == nil {
				return nil, vmerrors.NewTypeError("invalid field in struct %v", meta.Name)
			}
			if seen[f.Name] {
				return nil, vmerrors.NewTypeError("duplicate field %v in struct %v", f.Name, meta.Name)
			}
			if f.Type.kind == KindMapping {
				return nil, vmerrors.NewTypeError("mapping field %v in struct %v is not supported", f.Name, meta.Name)
			}
			seen[f.Name] = true
			fields = append(fields, f)
		}
		return &Type{kind: kind, name: meta.Name, fields: fields}, nil
	case KindContract:
		if meta.Name == "" {
			return nil, vmerrors.NewTypeError("contract type requires a name")
		}
		return &Type{kind: kind, name: meta.Name}, nil
	}
	return nil, vmerrors.NewTypeError("invalid type tag %v", tag)
}

// ParseType parses an elementary type name, optionally suffixed with array brackets.
// e.g. "uint256", "int8", "address", "bytes32[]", "uint8[4]".
func ParseType(name string) (*Type, error) {
	name = strings.TrimSpace(name)
	if strings.HasSuffix(name, "]") {
		open := strings.LastIndex(name, "[")
		if open <= 0 {
			return nil, vmerrors.NewTypeError("invalid type %v", name)
		}
		elem, err := ParseType(name[:open])
		if err != nil {
			return nil, err
		}
		length := 0
		if lenStr := name[open+1 : len(name)-1]; lenStr != "" {
			length, err = strconv.Atoi(lenStr)
			if err != nil || length <= 0 {
				return nil, vmerrors.NewTypeError("invalid array length in %v", name)
			}
		}
		return ArrayOf(elem, length)
	}
	switch name {
	case "bool", "address", "bytes32", "bytes", "string":
		return NewType(name, nil)
	}
	for _, prefix := range []string{"uint", "int"} {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		bitsStr := strings.TrimPrefix(name, prefix)
		if bitsStr == "" {
			return NewType(prefix, nil)
		}
		bits, err := strconv.Atoi(bitsStr)
		if err != nil {
			return nil, vmerrors.NewTypeError("invalid type %v", name)
		}
		return NewType(prefix, &Metadata{Bits: bits})
	}
	return nil, vmerrors.NewTypeError("invalid type %v", name)
}

// MustParseType is like ParseType but panics on error.
// It should only be used with constant type names.
func MustParseType(name string) *Type {
	t, err := ParseType(name)
	if err != nil {
		panic(err)
	}
	return t
}

// MappingOf creates a mapping type.
func MappingOf(key *Type, value *Type) (*Type, error) {
	return NewType("mapping", &Metadata{Key: key, Value: value})
}

// ArrayOf creates an array type, 0 length means dynamic.
func ArrayOf(elem *Type, length int) (*Type, error) {
	return NewType("array", &Metadata{Elem: elem, Length: length})
}

// StructOf creates a struct type.
func StructOf(name string, fields []Field) (*Type, error) {
	return NewType("struct", &Metadata{Name: name, Fields: fields})
}

// ContractOf creates a contract type.
func ContractOf(name string) (*Type, error) {
	return NewType("contract", &Metadata{Name: name})
}

// IntegerType gets the uint or int type with given width.
func IntegerType(signed bool, bits int) (*Type, error) {
	if signed {
		return NewType("int", &Metadata{Bits: bits})
	}
	return NewType("uint", &Metadata{Bits: bits})
}

// Kind gets the tag of the type.
func (t *Type) Kind() Kind {
	return t.kind
}

// Bits gets the width of an integer type.
func (t *Type) Bits() int {
	return t.bits
}

// Key gets the key type of a mapping.
func (t *Type) Key() *Type {
	return t.key
}

// Value gets the value type of a mapping.
func (t *Type) Value() *Type {
	return t.value
}

// Elem gets the element type of an array.
func (t *Type) Elem() *Type {
	return t.elem
}

// Length gets the length of a fixed array, 0 for dynamic arrays.
func (t *Type) Length() int {
	return t.length
}

// Name gets the name of a struct or contract type.
func (t *Type) Name() string {
	return t.name
}

// Fields gets a copy of the field list of a struct type.
func (t *Type) Fields() []Field {
	res := make([]Field, len(t.fields))
	copy(res, t.fields)
	return res
}

// FieldType gets the type of the named struct field.
func (t *Type) FieldType(name string) (*Type, bool) {
	for _, f := range t.fields {
		if f.Name == name {
			return f.Type, true
		}
	}
	return nil, false
}

// IsInteger checks if the type is uint or int.
func (t *Type) IsInteger() bool {
	return t.kind == KindUint || t.kind == KindInt
}

// IsElementary checks if the type is a value type usable as a mapping key.
func (t *Type) IsElementary() bool {
	switch t.kind {
	case KindBool, KindUint, KindInt, KindAddress, KindBytes32, KindBytes, KindString:
		return true
	}
	return false
}

// Equal checks if two types have the same tag and metadata.
func (t *Type) Equal(o *Type) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.kind != o.kind {
		return false
	}
	switch t.kind {
	case KindUint, KindInt:
		return t.bits == o.bits
	case KindMapping:
		return t.key.Equal(o.key) && t.value.Equal(o.value)
	case KindArray:
		return t.length == o.length && t.elem.Equal(o.elem)
	case KindContract:
		return t.name == o.name
	case KindStruct:
		if t.name != o.name || len(t.fields) != len(o.fields) {
			return false
		}
		for i := range t.fields {
			if t.fields[i].Name != o.fields[i].Name || !t.fields[i].Type.Equal(o.fields[i].Type) {
				return false
			}
		}
		return true
	}
	return true
}

// String gets the canonical name of the type.
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.kind {
	case KindBool:
		return "bool"
	case KindUint:
		return fmt.Sprintf("uint%v", t.bits)
	case KindInt:
		return fmt.Sprintf("int%v", t.bits)
	case KindAddress:
		return "address"
	case KindBytes32:
		return "bytes32"
	case KindBytes:
		return "bytes"
	case KindString:
		return "string"
	case KindMapping:
		return fmt.Sprintf("mapping(%v => %v)", t.key, t.value)
	case KindArray:
		if t.length == 0 {
			return fmt.Sprintf("%v[]", t.elem)
		}
		return fmt.Sprintf("%v[%v]", t.elem, t.length)
	case KindStruct:
		return "struct " + t.name
	case KindContract:
		return "contract " + t.name
	}
	return "unknown"
}
