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
	"math/big"
	"strings"

	"github.com/wcgcyx/rubidity/vmerrors"
)

// ArithOp is a checked integer operation.
type ArithOp int

const (
	OpAdd ArithOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpPow
)

// Arith applies op on two integers. The result has the type of a and is re-validated,
// so overflow and underflow fail with a VariableTypeError.
// The right operand may be a raw host integer.
func Arith(op ArithOp, a *TypedValue, b interface{}) (*TypedValue, error) {
	if !a.typ.IsInteger() {
		return nil, vmerrors.NewTypeError("expect integer got %v", a.typ)
	}
	right, err := operand(a.typ, b)
	if err != nil {
		return nil, err
	}
	x := a.v.(*big.Int)
	res := new(big.Int)
	switch op {
	case OpAdd:
		res.Add(x, right)
	case OpSub:
		res.Sub(x, right)
	case OpMul:
		res.Mul(x, right)
	case OpDiv:
		if right.Sign() == 0 {
			return nil, vmerrors.NewContractError("division by zero")
		}
		// Truncate towards zero.
		res.Quo(x, right)
	case OpMod:
		if right.Sign() == 0 {
			return nil, vmerrors.NewContractError("modulo by zero")
		}
		res.Rem(x, right)
	case OpPow:
		if right.Sign() < 0 {
			return nil, vmerrors.NewTypeError("negative exponent %v", right)
		}
		if right.BitLen() > 16 && x.CmpAbs(big.NewInt(1)) > 0 {
			return nil, invalidValue(a.typ, "pow", "out of range")
		}
		res.Exp(x, right, nil)
	default:
		return nil, vmerrors.NewTypeError("unknown arithmetic operation %v", op)
	}
	return Validate(a.typ, res)
}

// Add is a checked addition.
func (tv *TypedValue) Add(o interface{}) (*TypedValue, error) {
	return Arith(OpAdd, tv, o)
}

// Sub is a checked subtraction.
func (tv *TypedValue) Sub(o interface{}) (*TypedValue, error) {
	return Arith(OpSub, tv, o)
}

// Mul is a checked multiplication.
func (tv *TypedValue) Mul(o interface{}) (*TypedValue, error) {
	return Arith(OpMul, tv, o)
}

// Div is a checked division.
func (tv *TypedValue) Div(o interface{}) (*TypedValue, error) {
	return Arith(OpDiv, tv, o)
}

// Mod is a checked remainder.
func (tv *TypedValue) Mod(o interface{}) (*TypedValue, error) {
	return Arith(OpMod, tv, o)
}

// Pow is a checked exponentiation.
func (tv *TypedValue) Pow(o interface{}) (*TypedValue, error) {
	return Arith(OpPow, tv, o)
}

// Cmp compares two integers or two strings, returning -1, 0 or 1.
func (tv *TypedValue) Cmp(o interface{}) (int, error) {
	if tv.typ.IsInteger() {
		right, err := operand(tv.typ, o)
		if err != nil {
			return 0, err
		}
		return tv.v.(*big.Int).Cmp(right), nil
	}
	left, ok := tv.v.(string)
	if !ok {
		return 0, vmerrors.NewTypeError("cannot compare %v", tv.typ)
	}
	var right string
	switch r := o.(type) {
	case *TypedValue:
		right, ok = r.v.(string)
	case string:
		right, ok = r, true
	default:
		ok = false
	}
	if !ok {
		return 0, vmerrors.NewTypeError("cannot compare %v with %T", tv.typ, o)
	}
	return strings.Compare(left, right), nil
}

// Eq checks if the value equals another value, raw host values are validated against tv's type first.
func (tv *TypedValue) Eq(o interface{}) (bool, error) {
	other, ok := o.(*TypedValue)
	if !ok {
		var err error
		other, err = Validate(tv.typ, o)
		if err != nil {
			return false, err
		}
	}
	return Equal(tv, other), nil
}

// Not negates a bool.
func (tv *TypedValue) Not() (*TypedValue, error) {
	b, err := tv.Bool()
	if err != nil {
		return nil, err
	}
	return &TypedValue{typ: Bool, v: !b}, nil
}

// And is the boolean conjunction.
func (tv *TypedValue) And(o *TypedValue) (*TypedValue, error) {
	a, err := tv.Bool()
	if err != nil {
		return nil, err
	}
	b, err := o.Bool()
	if err != nil {
		return nil, err
	}
	return &TypedValue{typ: Bool, v: a && b}, nil
}

// Or is the boolean disjunction.
func (tv *TypedValue) Or(o *TypedValue) (*TypedValue, error) {
	a, err := tv.Bool()
	if err != nil {
		return nil, err
	}
	b, err := o.Bool()
	if err != nil {
		return nil, err
	}
	return &TypedValue{typ: Bool, v: a || b}, nil
}

// Get reads a mapping entry, absent keys read as the zero value.
func (tv *TypedValue) Get(key interface{}) (*TypedValue, error) {
	data, ok := tv.v.(*mappingData)
	if !ok {
		return nil, vmerrors.NewTypeError("expect mapping got %v", tv.typ)
	}
	k, err := mappingKey(tv.typ.key, key)
	if err != nil {
		return nil, err
	}
	v, ok := data.vals[k.KeyString()]
	if !ok {
		return ZeroValue(tv.typ.value), nil
	}
	return v, nil
}

// Set gets a new mapping with the entry updated. Zero values remove the entry.
func (tv *TypedValue) Set(key interface{}, value interface{}) (*TypedValue, error) {
	data, ok := tv.v.(*mappingData)
	if !ok {
		return nil, vmerrors.NewTypeError("expect mapping got %v", tv.typ)
	}
	k, err := mappingKey(tv.typ.key, key)
	if err != nil {
		return nil, err
	}
	v, err := Validate(tv.typ.value, value)
	if err != nil {
		return nil, err
	}
	res := &mappingData{
		keys: make(map[string]*TypedValue, len(data.keys)+1),
		vals: make(map[string]*TypedValue, len(data.vals)+1),
	}
	for ks, kv := range data.keys {
		res.keys[ks] = kv
		res.vals[ks] = data.vals[ks]
	}
	ks := k.KeyString()
	if IsZero(v) {
		delete(res.keys, ks)
		delete(res.vals, ks)
	} else {
		res.keys[ks] = k
		res.vals[ks] = v
	}
	return &TypedValue{typ: tv.typ, v: res}, nil
}

// Len gets the length of an array or the number of non-zero entries of a mapping.
func (tv *TypedValue) Len() (int, error) {
	switch d := tv.v.(type) {
	case []*TypedValue:
		return len(d), nil
	case *mappingData:
		return len(d.vals), nil
	}
	return 0, vmerrors.NewTypeError("expect array got %v", tv.typ)
}

// Index reads an array element.
func (tv *TypedValue) Index(i interface{}) (*TypedValue, error) {
	elems, idx, err := tv.arrayIndex(i)
	if err != nil {
		return nil, err
	}
	return elems[idx], nil
}

// SetIndex gets a new array with the element updated.
func (tv *TypedValue) SetIndex(i interface{}, value interface{}) (*TypedValue, error) {
	elems, idx, err := tv.arrayIndex(i)
	if err != nil {
		return nil, err
	}
	v, err := Validate(tv.typ.elem, value)
	if err != nil {
		return nil, err
	}
	res := make([]*TypedValue, len(elems))
	copy(res, elems)
	res[idx] = v
	return &TypedValue{typ: tv.typ, v: res}, nil
}

// Push gets a new dynamic array with the value appended.
func (tv *TypedValue) Push(value interface{}) (*TypedValue, error) {
	elems, ok := tv.v.([]*TypedValue)
	if !ok || tv.typ.length != 0 {
		return nil, vmerrors.NewTypeError("cannot push to %v", tv.typ)
	}
	v, err := Validate(tv.typ.elem, value)
	if err != nil {
		return nil, err
	}
	res := make([]*TypedValue, len(elems), len(elems)+1)
	copy(res, elems)
	res = append(res, v)
	return &TypedValue{typ: tv.typ, v: res}, nil
}

// Pop gets a new dynamic array without the last element, and the removed element.
func (tv *TypedValue) Pop() (*TypedValue, *TypedValue, error) {
	elems, ok := tv.v.([]*TypedValue)
	if !ok || tv.typ.length != 0 {
		return nil, nil, vmerrors.NewTypeError("cannot pop from %v", tv.typ)
	}
	if len(elems) == 0 {
		return nil, nil, vmerrors.NewContractError("pop from empty array")
	}
	res := make([]*TypedValue, len(elems)-1)
	copy(res, elems)
	return &TypedValue{typ: tv.typ, v: res}, elems[len(elems)-1], nil
}

// Field reads a struct field.
func (tv *TypedValue) Field(name string) (*TypedValue, error) {
	fields, ok := tv.v.(map[string]*TypedValue)
	if !ok {
		return nil, vmerrors.NewTypeError("expect struct got %v", tv.typ)
	}
	v, ok := fields[name]
	if !ok {
		return nil, vmerrors.NewTypeError("struct %v has no field %v", tv.typ.name, name)
	}
	return v, nil
}

// SetField gets a new struct with the field updated.
func (tv *TypedValue) SetField(name string, value interface{}) (*TypedValue, error) {
	fields, ok := tv.v.(map[string]*TypedValue)
	if !ok {
		return nil, vmerrors.NewTypeError("expect struct got %v", tv.typ)
	}
	ft, ok := tv.typ.FieldType(name)
	if !ok {
		return nil, vmerrors.NewTypeError("struct %v has no field %v", tv.typ.name, name)
	}
	v, err := Validate(ft, value)
	if err != nil {
		return nil, err
	}
	res := make(map[string]*TypedValue, len(fields))
	for k, f := range fields {
		res[k] = f
	}
	res[name] = v
	return &TypedValue{typ: tv.typ, v: res}, nil
}

func (tv *TypedValue) arrayIndex(i interface{}) ([]*TypedValue, int, error) {
	elems, ok := tv.v.([]*TypedValue)
	if !ok {
		return nil, 0, vmerrors.NewTypeError("expect array got %v", tv.typ)
	}
	idx, err := operand(Uint256, i)
	if err != nil {
		return nil, 0, err
	}
	if idx.Sign() < 0 || !idx.IsInt64() || idx.Int64() >= int64(len(elems)) {
		return nil, 0, vmerrors.NewContractError("index %v out of bounds", idx)
	}
	return elems, int(idx.Int64()), nil
}

// operand gets the integer value of a typed or raw right hand operand.
func operand(typ *Type, o interface{}) (*big.Int, error) {
	if tv, ok := o.(*TypedValue); ok {
		n, ok := tv.v.(*big.Int)
		if !ok {
			return nil, vmerrors.NewTypeError("expect integer operand got %v", tv.typ)
		}
		return n, nil
	}
	n, err := toBigInt(o, false)
	if err != nil {
		return nil, invalidValue(typ, o, err.Error())
	}
	return n, nil
}

// mappingKey gets the typed key, contract references are accepted for address keys.
func mappingKey(typ *Type, key interface{}) (*TypedValue, error) {
	if tv, ok := key.(*TypedValue); ok && typ.kind == KindAddress && tv.typ.kind == KindContract {
		return &TypedValue{typ: typ, v: tv.v}, nil
	}
	return Validate(typ, key)
}
