package statestore

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
	"encoding/base64"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fxamacker/cbor/v2"
	"github.com/ipfs/go-datastore"
	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

const (
	persistedKey     = "p"
	transactionKey   = "t"
	receiptKey       = "r"
	callsKey         = "k"
	contractKey      = "c"
	artifactKey      = "a"
	dependencyKey    = "e"
	snapshotKey      = "b"
	contractNonceKey = "nc"
	eoaNonceKey      = "ne"
	separator        = "/"
)

// Heights in keys are zero padded so snapshots iterate in block order.
const heightWidth = 20

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]interface{}(nil)),
	}.DecMode()
	if err != nil {
		panic(err)
	}
}

// EncodeValue encodes a serialized value in canonical CBOR.
func EncodeValue(v interface{}) ([]byte, error) {
	return encMode.Marshal(v)
}

// DecodeValue decodes a value encoded by EncodeValue.
func DecodeValue(bs []byte) (interface{}, error) {
	if len(bs) == 0 {
		return nil, nil
	}
	var res interface{}
	err := decMode.Unmarshal(bs, &res)
	return res, err
}

// DecodeState decodes a serialized contract state.
func DecodeState(bs []byte) (map[string]interface{}, error) {
	res := make(map[string]interface{})
	if len(bs) == 0 {
		return res, nil
	}
	if err := decMode.Unmarshal(bs, &res); err != nil {
		return nil, err
	}
	return res, nil
}

func encodeKeyPart(bs []byte) string {
	return base64.URLEncoding.EncodeToString(bs)
}

func formatHeight(height uint64) string {
	return fmt.Sprintf("%0*d", heightWidth, height)
}

// persistedHeightKey gets the datastore key for persisted height.
func persistedHeightKey() datastore.Key {
	return datastore.NewKey(persistedKey)
}

// getTransactionKey gets the datastore key for a transaction.
func getTransactionKey(txHash common.Hash) datastore.Key {
	return datastore.NewKey(transactionKey + separator + encodeKeyPart(txHash.Bytes()))
}

// getReceiptKey gets the datastore key for a receipt.
func getReceiptKey(txHash common.Hash) datastore.Key {
	return datastore.NewKey(receiptKey + separator + encodeKeyPart(txHash.Bytes()))
}

// getCallsKey gets the datastore key for the calls of a transaction.
func getCallsKey(txHash common.Hash) datastore.Key {
	return datastore.NewKey(callsKey + separator + encodeKeyPart(txHash.Bytes()))
}

// getContractKey gets the datastore key for a contract.
func getContractKey(addr common.Address) datastore.Key {
	return datastore.NewKey(contractKey + separator + encodeKeyPart(addr.Bytes()))
}

// getArtifactKey gets the datastore key for an artifact.
func getArtifactKey(initCodeHash common.Hash) datastore.Key {
	return datastore.NewKey(artifactKey + separator + encodeKeyPart(initCodeHash.Bytes()))
}

// getDependencyPrefix gets the key prefix of the dependencies of an artifact.
func getDependencyPrefix(initCodeHash common.Hash) string {
	return separator + dependencyKey + separator + encodeKeyPart(initCodeHash.Bytes())
}

// getDependencyKey gets the datastore key for a dependency edge.
func getDependencyKey(initCodeHash common.Hash, dep common.Hash) datastore.Key {
	return datastore.NewKey(getDependencyPrefix(initCodeHash) + separator + encodeKeyPart(dep.Bytes()))
}

// splitDependencyKey splits the dependency key to get the dependency.
// This is unsafe, must be called on valid key string.
func splitDependencyKey(key string) common.Hash {
	temp := strings.Split(strings.TrimPrefix(key, separator), separator)
	data, _ := base64.URLEncoding.DecodeString(temp[2])
	return common.BytesToHash(data)
}

// getSnapshotKey gets the datastore key for the state of a contract at a height.
func getSnapshotKey(height uint64, addr common.Address) datastore.Key {
	return datastore.NewKey(snapshotKey + separator + formatHeight(height) + separator + encodeKeyPart(addr.Bytes()))
}

// splitSnapshotKey splits the snapshot key to get the height.
// This is unsafe, must be called on valid key string.
func splitSnapshotKey(key string) uint64 {
	temp := strings.Split(strings.TrimPrefix(key, separator), separator)
	height, _ := strconv.ParseUint(temp[1], 10, 64)
	return height
}

// getContractNonceKey gets the datastore key for the nonce of a contract.
func getContractNonceKey(addr common.Address) datastore.Key {
	return datastore.NewKey(contractNonceKey + separator + encodeKeyPart(addr.Bytes()))
}

// getEoaNonceKey gets the datastore key for the nonce of an externally owned address.
func getEoaNonceKey(addr common.Address) datastore.Key {
	return datastore.NewKey(eoaNonceKey + separator + encodeKeyPart(addr.Bytes()))
}

// encodePersistedHeight encodes the persisted height and hash.
func encodePersistedHeight(height uint64, hash common.Hash) []byte {
	v := persistedHeight{height: height, hash: hash}
	bs := make([]byte, sizePersistedHeight(v))
	marshalPersistedHeight(v, bs)
	return bs
}

// decodePersistedHeight decodes the persisted height and hash.
func decodePersistedHeight(bs []byte) (uint64, common.Hash, error) {
	v, _, err := unmarshalPersistedHeight(bs)
	return v.height, v.hash, err
}

// encodeNonce encodes a nonce counter.
func encodeNonce(nonce uint64) []byte {
	bs := make([]byte, varint.SizeUint64(nonce))
	varint.MarshalUint64(nonce, bs)
	return bs
}

// decodeNonce decodes a nonce counter.
func decodeNonce(bs []byte) (uint64, error) {
	res, _, err := varint.UnmarshalUint64(bs)
	return res, err
}

// encodeCalls encodes the calls of a transaction.
func encodeCalls(calls []CallRecord) []byte {
	s := mus.SizerFn[CallRecord](sizeCall)
	bs := make([]byte, ord.SizeSlice[CallRecord](calls, s))
	ord.MarshalSlice[CallRecord](calls, mus.MarshallerFn[CallRecord](marshalCall), bs)
	return bs
}

// decodeCalls decodes the calls of a transaction.
func decodeCalls(bs []byte) ([]CallRecord, error) {
	res, _, err := ord.UnmarshalSlice[CallRecord](mus.UnmarshallerFn[CallRecord](unmarshalCall), bs)
	return res, err
}

// encode encodes a record with its mus functions.
func encode[T any](v T, size func(T) int, marshal func(T, []byte) int) []byte {
	bs := make([]byte, size(v))
	marshal(v, bs)
	return bs
}

// decode decodes a record with its mus function.
func decode[T any](bs []byte, unmarshal func([]byte) (T, int, error)) (T, error) {
	v, _, err := unmarshal(bs)
	return v, err
}
