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
	"github.com/ethereum/go-ethereum/common"
	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// MarshalAddress implements the mus.Marshaller interface.
func MarshalAddress(v common.Address, bs []byte) (n int) {
	return MarshalBytes(v.Bytes(), bs)
}

// UnmarshalAddress implements the mus.Unmarshaller interface.
func UnmarshalAddress(bs []byte) (v common.Address, n int, err error) {
	var sl []byte
	sl, n, err = UnmarshalBytes(bs)
	if err != nil {
		return
	}
	v.SetBytes(sl)
	return
}

// SizeAddress implements the mus.Sizer interface.
func SizeAddress(v common.Address) (size int) {
	return SizeBytes(v.Bytes())
}

// MarshalHash implements the mus.Marshaller interface.
func MarshalHash(v common.Hash, bs []byte) (n int) {
	return MarshalBytes(v.Bytes(), bs)
}

// UnmarshalHash implements the mus.Unmarshaller interface.
func UnmarshalHash(bs []byte) (v common.Hash, n int, err error) {
	var sl []byte
	sl, n, err = UnmarshalBytes(bs)
	if err != nil {
		return
	}
	v.SetBytes(sl)
	return
}

// SizeHash implements the mus.Sizer interface.
func SizeHash(v common.Hash) (size int) {
	return SizeBytes(v.Bytes())
}

// MarshalBytes implements the mus.Marshaller interface.
func MarshalBytes(v []byte, bs []byte) (n int) {
	m := mus.MarshallerFn[byte](varint.MarshalByte)
	n = ord.MarshalSlice[byte](v, m, bs)
	return
}

// UnmarshalBytes implements the mus.Unmarshaller interface.
func UnmarshalBytes(bs []byte) (v []byte, n int, err error) {
	u := mus.UnmarshallerFn[byte](varint.UnmarshalByte)
	v, n, err = ord.UnmarshalSlice[byte](u, bs)
	return
}

// SizeBytes implements the mus.Sizer interface.
func SizeBytes(v []byte) (size int) {
	s := mus.SizerFn[byte](varint.SizeByte)
	size = ord.SizeSlice[byte](v, s)
	return
}
