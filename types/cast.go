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
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/wcgcyx/rubidity/vmerrors"
)

// Cast converts a raw value or a typed value into the given type.
// Conversions may be lossy, e.g. integers are reduced modulo 2^bits.
// It fails with a TypeError when the conversion is undefined.
func Cast(typ *Type, raw interface{}) (*TypedValue, error) {
	src, ok := raw.(*TypedValue)
	if !ok {
		// Raw host values are boxed into their natural type first.
		boxed, err := Box(raw)
		if err != nil {
			return Validate(typ, raw)
		}
		src = boxed
	}
	if src.typ.Equal(typ) {
		return src, nil
	}
	switch typ.kind {
	case KindUint, KindInt:
		n, err := castToInt(src)
		if err != nil {
			return nil, err
		}
		return &TypedValue{typ: typ, v: wrapInt(n, typ)}, nil
	case KindAddress, KindContract:
		return castToAddress(typ, src)
	case KindBytes32:
		return castToBytes32(src)
	case KindBytes:
		switch src.typ.kind {
		case KindBytes32, KindAddress, KindContract:
			return &TypedValue{typ: typ, v: src.v}, nil
		case KindString:
			return &TypedValue{typ: typ, v: hexutil.Encode([]byte(src.v.(string)))}, nil
		}
	case KindString:
		if src.typ.kind == KindBytes {
			bs, err := hexutil.Decode(src.v.(string))
			if err != nil || !utf8.Valid(bs) {
				return nil, vmerrors.NewTypeError("bytes %v is not valid utf-8", src.v)
			}
			return &TypedValue{typ: typ, v: string(bs)}, nil
		}
	default:
		tv, err := Validate(typ, src)
		if err == nil {
			return tv, nil
		}
	}
	return nil, vmerrors.NewTypeError("cannot cast %v to %v", src.typ, typ)
}

// Box wraps a raw host value into the typed value of its natural type.
// Hex strings become address, bytes32 or bytes by length, integers get the inferred width.
func Box(raw interface{}) (*TypedValue, error) {
	if tv, ok := raw.(*TypedValue); ok {
		return tv, nil
	}
	switch r := raw.(type) {
	case bool:
		return &TypedValue{typ: Bool, v: r}, nil
	case string:
		switch {
		case addressPattern.MatchString(r):
			return &TypedValue{typ: Address, v: strings.ToLower(r)}, nil
		case bytes32Pattern.MatchString(r):
			return &TypedValue{typ: Bytes32, v: strings.ToLower(r)}, nil
		case bytesPattern.MatchString(r):
			return &TypedValue{typ: Bytes, v: strings.ToLower(r)}, nil
		}
		return &TypedValue{typ: String, v: r}, nil
	case common.Address:
		return &TypedValue{typ: Address, v: strings.ToLower(r.Hex())}, nil
	case common.Hash:
		return &TypedValue{typ: Bytes32, v: r.Hex()}, nil
	}
	n, err := toBigInt(raw, false)
	if err != nil {
		return nil, err
	}
	typ, err := InferIntegerType(n)
	if err != nil {
		return nil, err
	}
	return &TypedValue{typ: typ, v: n}, nil
}

func castToInt(src *TypedValue) (*big.Int, error) {
	switch src.typ.kind {
	case KindUint, KindInt:
		return new(big.Int).Set(src.v.(*big.Int)), nil
	case KindAddress, KindContract, KindBytes32:
		n, ok := new(big.Int).SetString(strings.TrimPrefix(src.v.(string), "0x"), 16)
		if !ok {
			return nil, vmerrors.NewTypeError("invalid hex %v", src.v)
		}
		return n, nil
	case KindBytes:
		bs, err := hexutil.Decode(src.v.(string))
		if err != nil {
			return nil, err
		}
		if len(bs) > 32 {
			return nil, vmerrors.NewTypeError("cannot cast %v bytes to integer", len(bs))
		}
		return new(big.Int).SetBytes(bs), nil
	}
	return nil, vmerrors.NewTypeError("cannot cast %v to integer", src.typ)
}

// wrapInt reduces n modulo 2^bits, reinterpreting as two's complement for signed types.
func wrapInt(n *big.Int, typ *Type) *big.Int {
	mod := new(big.Int).Lsh(big.NewInt(1), uint(typ.bits))
	res := new(big.Int).Mod(n, mod)
	if typ.kind == KindInt {
		half := new(big.Int).Rsh(mod, 1)
		if res.Cmp(half) >= 0 {
			res.Sub(res, mod)
		}
	}
	return res
}

func castToAddress(typ *Type, src *TypedValue) (*TypedValue, error) {
	switch src.typ.kind {
	case KindAddress, KindContract:
		return &TypedValue{typ: typ, v: src.v}, nil
	case KindUint, KindInt:
		n := wrapInt(src.v.(*big.Int), Uint160)
		return &TypedValue{typ: typ, v: strings.ToLower(common.BigToAddress(n).Hex())}, nil
	case KindBytes32:
		s := src.v.(string)
		return &TypedValue{typ: typ, v: "0x" + s[len(s)-40:]}, nil
	case KindBytes:
		bs, err := hexutil.Decode(src.v.(string))
		if err == nil && len(bs) == common.AddressLength {
			return &TypedValue{typ: typ, v: src.v}, nil
		}
	}
	return nil, vmerrors.NewTypeError("cannot cast %v to %v", src.typ, typ)
}

func castToBytes32(src *TypedValue) (*TypedValue, error) {
	switch src.typ.kind {
	case KindUint, KindInt:
		word, err := ToWord(src)
		if err != nil {
			return nil, err
		}
		return &TypedValue{typ: Bytes32, v: word.Hex()}, nil
	case KindAddress, KindContract:
		return &TypedValue{typ: Bytes32, v: common.HexToHash(src.v.(string)).Hex()}, nil
	case KindBytes, KindString:
		bs, err := src.RawBytes()
		if err != nil {
			return nil, err
		}
		// Right pad short input, keep the leading 32 bytes of long input.
		word := make([]byte, common.HashLength)
		copy(word, bs)
		return &TypedValue{typ: Bytes32, v: hexutil.Encode(word)}, nil
	}
	return nil, vmerrors.NewTypeError("cannot cast %v to bytes32", src.typ)
}

// InferIntegerType picks the smallest 8-bit aligned integer type that holds the literal.
// Non-negative literals are unsigned, negative literals are signed with the sign bit included.
func InferIntegerType(n *big.Int) (*Type, error) {
	signed := n.Sign() < 0
	var bits int
	if signed {
		// -2^(k-1) needs k bits.
		abs := new(big.Int).Neg(n)
		bits = abs.Sub(abs, big.NewInt(1)).BitLen() + 1
	} else {
		bits = n.BitLen()
	}
	bits = (bits + 7) / 8 * 8
	if bits < 8 {
		bits = 8
	}
	if bits > 256 {
		return nil, vmerrors.NewTypeError("integer literal %v exceeds 256 bits", n)
	}
	return IntegerType(signed, bits)
}

// ToWord encodes an elementary value as a 32-byte word.
// Signed integers use two's complement, addresses are left padded.
func ToWord(tv *TypedValue) (common.Hash, error) {
	switch tv.typ.kind {
	case KindBool:
		if tv.v.(bool) {
			return common.BigToHash(big.NewInt(1)), nil
		}
		return common.Hash{}, nil
	case KindUint, KindInt:
		n := tv.v.(*big.Int)
		word := new(uint256.Int)
		if n.Sign() < 0 {
			word.SetFromBig(new(big.Int).Neg(n))
			word.Neg(word)
		} else {
			word.SetFromBig(n)
		}
		return common.Hash(word.Bytes32()), nil
	case KindAddress, KindContract, KindBytes32:
		return common.HexToHash(tv.v.(string)), nil
	}
	return common.Hash{}, vmerrors.NewTypeError("%v has no word encoding", tv.typ)
}

// EncodePacked concatenates values without slot padding.
// Integers take bits/8 bytes, bool one byte, address 20 bytes, bytes and string their raw content.
// Array elements are padded to 32-byte words.
func EncodePacked(values ...*TypedValue) ([]byte, error) {
	res := make([]byte, 0)
	for _, tv := range values {
		enc, err := packOne(tv, false)
		if err != nil {
			return nil, err
		}
		res = append(res, enc...)
	}
	return res, nil
}

func packOne(tv *TypedValue, inArray bool) ([]byte, error) {
	switch tv.typ.kind {
	case KindArray:
		res := make([]byte, 0)
		for _, elem := range tv.v.([]*TypedValue) {
			enc, err := packOne(elem, true)
			if err != nil {
				return nil, err
			}
			res = append(res, enc...)
		}
		return res, nil
	case KindBytes, KindString:
		if inArray {
			return nil, vmerrors.NewTypeError("cannot pack dynamic %v inside array", tv.typ)
		}
		return tv.RawBytes()
	case KindMapping, KindStruct:
		return nil, vmerrors.NewTypeError("cannot pack %v", tv.typ)
	}
	word, err := ToWord(tv)
	if err != nil {
		return nil, err
	}
	if inArray {
		return word.Bytes(), nil
	}
	switch tv.typ.kind {
	case KindBool:
		return word.Bytes()[31:], nil
	case KindUint, KindInt:
		return word.Bytes()[32-tv.typ.bits/8:], nil
	case KindAddress, KindContract:
		return word.Bytes()[12:], nil
	}
	return word.Bytes(), nil
}
