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
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"regexp"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/wcgcyx/rubidity/vmerrors"
)

var (
	addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	bytes32Pattern = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)
	bytesPattern   = regexp.MustCompile(`^0x([0-9a-fA-F]{2})*$`)
)

// TypedValue pairs a type with a value that satisfies it.
// A TypedValue is never mutated, every update returns a new value.
//
// Internal representation per kind:
//   - bool: bool
//   - uint, int: *big.Int
//   - address, bytes32, bytes, contract: lowercase 0x-prefixed hex string
//   - string: string
//   - mapping: *mappingData
//   - array: []*TypedValue
//   - struct: map[string]*TypedValue
type TypedValue struct {
	typ *Type
	v   interface{}
}

// mappingData holds the non-zero entries of a mapping.
type mappingData struct {
	keys map[string]*TypedValue
	vals map[string]*TypedValue
}

// Type gets the type of the value.
func (tv *TypedValue) Type() *Type {
	return tv.typ
}

// String gets a human readable form of the value.
func (tv *TypedValue) String() string {
	switch tv.typ.kind {
	case KindMapping, KindArray, KindStruct:
		data, err := json.Marshal(Serialize(tv))
		if err != nil {
			return tv.typ.String()
		}
		return string(data)
	}
	return fmt.Sprintf("%v", tv.v)
}

// Validate validates a raw host value against the type.
// It fails with a VariableTypeError if the value does not satisfy the type.
func Validate(typ *Type, raw interface{}) (*TypedValue, error) {
	return validate(typ, raw, false)
}

// Parse is like Validate but also accepts decimal or hex strings for integers.
// It is used for values that come from outside the runtime, e.g. payload arguments and snapshots.
func Parse(typ *Type, raw interface{}) (*TypedValue, error) {
	return validate(typ, raw, true)
}

// MustValidate is like Validate but panics on error.
func MustValidate(typ *Type, raw interface{}) *TypedValue {
	tv, err := Validate(typ, raw)
	if err != nil {
		panic(err)
	}
	return tv
}

func validate(typ *Type, raw interface{}, lenient bool) (*TypedValue, error) {
	if typ == nil {
		return nil, vmerrors.NewTypeError("nil type")
	}
	if tv, ok := raw.(*TypedValue); ok {
		if tv == nil {
			return ZeroValue(typ), nil
		}
		if tv.typ.Equal(typ) {
			return tv, nil
		}
		if tv.typ.kind == KindMapping {
			return nil, invalidValue(typ, tv, "mapping can only be assigned to the same type")
		}
		raw = tv.Unbox()
	}
	switch typ.kind {
	case KindBool:
		b, ok := raw.(bool)
		if !ok {
			return nil, invalidValue(typ, raw, "")
		}
		return &TypedValue{typ: typ, v: b}, nil
	case KindUint, KindInt:
		n, err := toBigInt(raw, lenient)
		if err != nil {
			return nil, invalidValue(typ, raw, err.Error())
		}
		lo, hi := intRange(typ)
		if n.Cmp(lo) < 0 || n.Cmp(hi) > 0 {
			return nil, invalidValue(typ, raw, "out of range")
		}
		return &TypedValue{typ: typ, v: n}, nil
	case KindAddress, KindContract:
		s, ok := toHexString(raw)
		if !ok || !addressPattern.MatchString(s) {
			return nil, invalidValue(typ, raw, "")
		}
		return &TypedValue{typ: typ, v: strings.ToLower(s)}, nil
	case KindBytes32:
		s, ok := toHexString(raw)
		if !ok || !bytes32Pattern.MatchString(s) {
			return nil, invalidValue(typ, raw, "")
		}
		return &TypedValue{typ: typ, v: strings.ToLower(s)}, nil
	case KindBytes:
		if bs, ok := raw.([]byte); ok {
			return &TypedValue{typ: typ, v: hexutil.Encode(bs)}, nil
		}
		s, ok := toHexString(raw)
		if !ok || !bytesPattern.MatchString(s) {
			return nil, invalidValue(typ, raw, "")
		}
		return &TypedValue{typ: typ, v: strings.ToLower(s)}, nil
	case KindString:
		s, ok := raw.(string)
		if !ok {
			return nil, invalidValue(typ, raw, "")
		}
		return &TypedValue{typ: typ, v: s}, nil
	case KindMapping:
		return validateMapping(typ, raw, lenient)
	case KindArray:
		return validateArray(typ, raw, lenient)
	case KindStruct:
		return validateStruct(typ, raw, lenient)
	}
	return nil, vmerrors.NewTypeError("unknown type %v", typ)
}

func validateMapping(typ *Type, raw interface{}, lenient bool) (*TypedValue, error) {
	if raw == nil {
		return ZeroValue(typ), nil
	}
	entries, ok := raw.(map[string]interface{})
	if !ok {
		return nil, invalidValue(typ, raw, "")
	}
	data := &mappingData{
		keys: make(map[string]*TypedValue),
		vals: make(map[string]*TypedValue),
	}
	for k, v := range entries {
		key, err := ParseKey(typ.key, k)
		if err != nil {
			return nil, err
		}
		val, err := validate(typ.value, v, lenient)
		if err != nil {
			return nil, err
		}
		if IsZero(val) {
			continue
		}
		ks := key.KeyString()
		data.keys[ks] = key
		data.vals[ks] = val
	}
	return &TypedValue{typ: typ, v: data}, nil
}

func validateArray(typ *Type, raw interface{}, lenient bool) (*TypedValue, error) {
	if raw == nil {
		return ZeroValue(typ), nil
	}
	var items []interface{}
	switch r := raw.(type) {
	case []interface{}:
		items = r
	case []*TypedValue:
		items = make([]interface{}, len(r))
		for i, item := range r {
			items[i] = item
		}
	default:
		return nil, invalidValue(typ, raw, "")
	}
	if typ.length > 0 && len(items) != typ.length {
		return nil, invalidValue(typ, raw, fmt.Sprintf("expect %v elements got %v", typ.length, len(items)))
	}
	elems := make([]*TypedValue, len(items))
	for i, item := range items {
		elem, err := validate(typ.elem, item, lenient)
		if err != nil {
			return nil, err
		}
		elems[i] = elem
	}
	return &TypedValue{typ: typ, v: elems}, nil
}

func validateStruct(typ *Type, raw interface{}, lenient bool) (*TypedValue, error) {
	if raw == nil {
		return ZeroValue(typ), nil
	}
	values, ok := raw.(map[string]interface{})
	if !ok {
		return nil, invalidValue(typ, raw, "")
	}
	for name := range values {
		if _, ok := typ.FieldType(name); !ok {
			return nil, invalidValue(typ, raw, "unknown field "+name)
		}
	}
	fields := make(map[string]*TypedValue)
	for _, f := range typ.fields {
		v, ok := values[f.Name]
		if !ok {
			fields[f.Name] = ZeroValue(f.Type)
			continue
		}
		fv, err := validate(f.Type, v, lenient)
		if err != nil {
			return nil, err
		}
		fields[f.Name] = fv
	}
	return &TypedValue{typ: typ, v: fields}, nil
}

// ZeroValue gets the default value of the type.
func ZeroValue(typ *Type) *TypedValue {
	switch typ.kind {
	case KindBool:
		return &TypedValue{typ: typ, v: false}
	case KindUint, KindInt:
		return &TypedValue{typ: typ, v: new(big.Int)}
	case KindAddress, KindContract:
		return &TypedValue{typ: typ, v: "0x" + strings.Repeat("0", 40)}
	case KindBytes32:
		return &TypedValue{typ: typ, v: "0x" + strings.Repeat("0", 64)}
	case KindBytes:
		return &TypedValue{typ: typ, v: "0x"}
	case KindString:
		return &TypedValue{typ: typ, v: ""}
	case KindMapping:
		return &TypedValue{typ: typ, v: &mappingData{
			keys: make(map[string]*TypedValue),
			vals: make(map[string]*TypedValue),
		}}
	case KindArray:
		elems := make([]*TypedValue, typ.length)
		for i := range elems {
			elems[i] = ZeroValue(typ.elem)
		}
		return &TypedValue{typ: typ, v: elems}
	case KindStruct:
		fields := make(map[string]*TypedValue)
		for _, f := range typ.fields {
			fields[f.Name] = ZeroValue(f.Type)
		}
		return &TypedValue{typ: typ, v: fields}
	}
	return &TypedValue{typ: typ}
}

// IsZero checks if the value equals the default value of its type.
func IsZero(tv *TypedValue) bool {
	switch tv.typ.kind {
	case KindMapping:
		return len(tv.v.(*mappingData).vals) == 0
	case KindArray:
		elems := tv.v.([]*TypedValue)
		if tv.typ.length == 0 {
			return len(elems) == 0
		}
		for _, e := range elems {
			if !IsZero(e) {
				return false
			}
		}
		return true
	case KindStruct:
		for _, f := range tv.v.(map[string]*TypedValue) {
			if !IsZero(f) {
				return false
			}
		}
		return true
	}
	return Equal(tv, ZeroValue(tv.typ))
}

// Unbox gets the host representation of the value.
// Integers are returned as *big.Int, hex kinds as strings, containers as maps and slices.
func (tv *TypedValue) Unbox() interface{} {
	switch tv.typ.kind {
	case KindUint, KindInt:
		return new(big.Int).Set(tv.v.(*big.Int))
	case KindMapping:
		data := tv.v.(*mappingData)
		res := make(map[string]interface{})
		for k, v := range data.vals {
			res[k] = v.Unbox()
		}
		return res
	case KindArray:
		elems := tv.v.([]*TypedValue)
		res := make([]interface{}, len(elems))
		for i, e := range elems {
			res[i] = e.Unbox()
		}
		return res
	case KindStruct:
		res := make(map[string]interface{})
		for k, v := range tv.v.(map[string]*TypedValue) {
			res[k] = v.Unbox()
		}
		return res
	}
	return tv.v
}

// Bool gets the value of a bool.
func (tv *TypedValue) Bool() (bool, error) {
	b, ok := tv.v.(bool)
	if !ok {
		return false, vmerrors.NewTypeError("expect bool got %v", tv.typ)
	}
	return b, nil
}

// BigInt gets a copy of the value of an integer.
func (tv *TypedValue) BigInt() (*big.Int, error) {
	n, ok := tv.v.(*big.Int)
	if !ok {
		return nil, vmerrors.NewTypeError("expect integer got %v", tv.typ)
	}
	return new(big.Int).Set(n), nil
}

// Int64 gets the value of an integer that fits in int64.
func (tv *TypedValue) Int64() (int64, error) {
	n, err := tv.BigInt()
	if err != nil {
		return 0, err
	}
	if !n.IsInt64() {
		return 0, vmerrors.NewTypeError("integer %v does not fit in int64", n)
	}
	return n.Int64(), nil
}

// Str gets the value of a string or the hex form of an address, bytes32, bytes or contract.
func (tv *TypedValue) Str() (string, error) {
	s, ok := tv.v.(string)
	if !ok {
		return "", vmerrors.NewTypeError("expect string got %v", tv.typ)
	}
	return s, nil
}

// Address gets the value of an address or contract reference.
func (tv *TypedValue) Address() (common.Address, error) {
	if tv.typ.kind != KindAddress && tv.typ.kind != KindContract {
		return common.Address{}, vmerrors.NewTypeError("expect address got %v", tv.typ)
	}
	return common.HexToAddress(tv.v.(string)), nil
}

// Hash gets the value of a bytes32.
func (tv *TypedValue) Hash() (common.Hash, error) {
	if tv.typ.kind != KindBytes32 {
		return common.Hash{}, vmerrors.NewTypeError("expect bytes32 got %v", tv.typ)
	}
	return common.HexToHash(tv.v.(string)), nil
}

// RawBytes gets the byte content of a bytes, bytes32, address or string value.
func (tv *TypedValue) RawBytes() ([]byte, error) {
	switch tv.typ.kind {
	case KindString:
		return []byte(tv.v.(string)), nil
	case KindBytes, KindBytes32, KindAddress, KindContract:
		return hexutil.Decode(tv.v.(string))
	}
	return nil, vmerrors.NewTypeError("expect bytes got %v", tv.typ)
}

// KeyString gets the canonical mapping key form of an elementary value.
func (tv *TypedValue) KeyString() string {
	switch tv.typ.kind {
	case KindUint, KindInt:
		return tv.v.(*big.Int).String()
	case KindBool:
		if tv.v.(bool) {
			return "true"
		}
		return "false"
	}
	return fmt.Sprintf("%v", tv.v)
}

// ParseKey parses a canonical mapping key form back into a value of the key type.
func ParseKey(typ *Type, key string) (*TypedValue, error) {
	switch typ.kind {
	case KindBool:
		switch key {
		case "true":
			return &TypedValue{typ: typ, v: true}, nil
		case "false":
			return &TypedValue{typ: typ, v: false}, nil
		}
		return nil, invalidValue(typ, key, "")
	}
	return validate(typ, key, true)
}

// Equal checks if two values are equal. Values of different kinds are never equal.
func Equal(a *TypedValue, b *TypedValue) bool {
	if a.typ.kind != b.typ.kind {
		// Contract references compare with addresses.
		if !(a.typ.kind == KindAddress || a.typ.kind == KindContract) ||
			!(b.typ.kind == KindAddress || b.typ.kind == KindContract) {
			return false
		}
	}
	switch a.typ.kind {
	case KindUint, KindInt:
		return a.v.(*big.Int).Cmp(b.v.(*big.Int)) == 0
	case KindMapping, KindArray, KindStruct:
		if !a.typ.Equal(b.typ) {
			return false
		}
		left, err1 := json.Marshal(Serialize(a))
		right, err2 := json.Marshal(Serialize(b))
		return err1 == nil && err2 == nil && string(left) == string(right)
	}
	return a.v == b.v
}

// Serialize converts the value into a storage safe structure.
// Integers become decimal strings, mappings become maps keyed by KeyString.
func Serialize(tv *TypedValue) interface{} {
	switch tv.typ.kind {
	case KindUint, KindInt:
		return tv.v.(*big.Int).String()
	case KindMapping:
		data := tv.v.(*mappingData)
		res := make(map[string]interface{})
		for k, v := range data.vals {
			res[k] = Serialize(v)
		}
		return res
	case KindArray:
		elems := tv.v.([]*TypedValue)
		res := make([]interface{}, len(elems))
		for i, e := range elems {
			res[i] = Serialize(e)
		}
		return res
	case KindStruct:
		res := make(map[string]interface{})
		for k, v := range tv.v.(map[string]*TypedValue) {
			res[k] = Serialize(v)
		}
		return res
	}
	return tv.v
}

// Deserialize rebuilds a value of the type from its serialized form.
func Deserialize(typ *Type, raw interface{}) (*TypedValue, error) {
	return Parse(typ, raw)
}

// SortedKeys gets the keys of a mapping in sorted order.
func (tv *TypedValue) SortedKeys() ([]*TypedValue, error) {
	data, ok := tv.v.(*mappingData)
	if !ok {
		return nil, vmerrors.NewTypeError("expect mapping got %v", tv.typ)
	}
	ks := make([]string, 0, len(data.keys))
	for k := range data.keys {
		ks = append(ks, k)
	}
	sort.Strings(ks)
	res := make([]*TypedValue, len(ks))
	for i, k := range ks {
		res[i] = data.keys[k]
	}
	return res, nil
}

// intRange gets the inclusive bounds of an integer type.
func intRange(typ *Type) (*big.Int, *big.Int) {
	if typ.kind == KindUint {
		hi := new(big.Int).Lsh(big.NewInt(1), uint(typ.bits))
		return new(big.Int), hi.Sub(hi, big.NewInt(1))
	}
	half := new(big.Int).Lsh(big.NewInt(1), uint(typ.bits-1))
	lo := new(big.Int).Neg(half)
	return lo, half.Sub(half, big.NewInt(1))
}

// toBigInt converts a raw host integer into a *big.Int.
func toBigInt(raw interface{}, lenient bool) (*big.Int, error) {
	switch r := raw.(type) {
	case *big.Int:
		if r == nil {
			return nil, fmt.Errorf("nil integer")
		}
		return new(big.Int).Set(r), nil
	case *uint256.Int:
		return r.ToBig(), nil
	case int:
		return big.NewInt(int64(r)), nil
	case int8:
		return big.NewInt(int64(r)), nil
	case int16:
		return big.NewInt(int64(r)), nil
	case int32:
		return big.NewInt(int64(r)), nil
	case int64:
		return big.NewInt(r), nil
	case uint:
		return new(big.Int).SetUint64(uint64(r)), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(r)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(r)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(r)), nil
	case uint64:
		return new(big.Int).SetUint64(r), nil
	case float64:
		if r != math.Trunc(r) || math.IsInf(r, 0) {
			return nil, fmt.Errorf("not an integer")
		}
		n, _ := big.NewFloat(r).Int(nil)
		return n, nil
	case json.Number:
		n, ok := new(big.Int).SetString(string(r), 10)
		if !ok {
			return nil, fmt.Errorf("not an integer")
		}
		return n, nil
	case string:
		if !lenient {
			return nil, fmt.Errorf("string is not an integer")
		}
		if strings.HasPrefix(r, "0x") || strings.HasPrefix(r, "-0x") {
			n, ok := new(big.Int).SetString(strings.TrimPrefix(strings.TrimPrefix(r, "-"), "0x"), 16)
			if !ok {
				return nil, fmt.Errorf("invalid hex integer")
			}
			if strings.HasPrefix(r, "-") {
				n.Neg(n)
			}
			return n, nil
		}
		n, ok := new(big.Int).SetString(r, 10)
		if !ok {
			return nil, fmt.Errorf("not an integer")
		}
		return n, nil
	}
	return nil, fmt.Errorf("unsupported integer value %T", raw)
}

// toHexString gets the hex form of a raw host value.
func toHexString(raw interface{}) (string, bool) {
	switch r := raw.(type) {
	case string:
		return r, true
	case common.Address:
		return strings.ToLower(r.Hex()), true
	case common.Hash:
		return r.Hex(), true
	}
	return "", false
}

func invalidValue(typ *Type, raw interface{}, msg string) error {
	return &vmerrors.VariableTypeError{Type: typ.String(), Value: raw, Msg: msg}
}
