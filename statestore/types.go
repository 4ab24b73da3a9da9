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
	"github.com/ethereum/go-ethereum/common"
	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	rtypes "github.com/wcgcyx/rubidity/types"
)

// TransactionRecord is a processed transaction.
type TransactionRecord struct {
	Hash        common.Hash
	BlockNumber uint64
	BlockHash   common.Hash
	Index       uint64
	From        common.Address
	// Payload is the raw payload the transaction was decoded from.
	Payload []byte
}

// LogRecord is a persisted event.
type LogRecord struct {
	Contract common.Address
	Event    string
	Topic    common.Hash
	// Data is the CBOR encoded event data.
	Data     []byte
	LogIndex uint64
}

// Receipt is the outcome of a transaction.
type Receipt struct {
	TransactionHash common.Hash
	BlockNumber     uint64
	Index           uint64
	From            common.Address
	Status          string
	Error           string
	// ContractAddress is the created contract, zero if none.
	ContractAddress common.Address
	// GasUsed is in milli-units.
	GasUsed uint64
	Logs    []LogRecord
}

// CallRecord is one frame of a transaction.
type CallRecord struct {
	CallIndex     uint64
	InternalIndex uint64
	CallType      string
	From          common.Address
	To            common.Address
	InitCodeHash  common.Hash
	Function      string
	// Args and ReturnValue are CBOR encoded.
	Args        []byte
	ReturnValue []byte
	Static      bool
	Status      string
	Error       string
	StartTime   int64
	EndTime     int64
}

// ContractRecord is the latest state of a contract.
type ContractRecord struct {
	Address      common.Address
	InitCodeHash common.Hash
	ClassName    string
	Deployer     common.Address
	CreatedBlock uint64
	CreatedTx    common.Hash
	UpdatedBlock uint64
	// State is the CBOR encoded serialized state.
	State []byte
}

// Artifact is a contract class known to the store.
type Artifact struct {
	InitCodeHash common.Hash
	Name         string
	Source       string
	// ABI is the exported JSON ABI.
	ABI []byte
	// Dependencies are the init code hashes of the parents and available contracts.
	Dependencies []common.Hash
}

// BlockRecords is everything persisted for one block.
type BlockRecords struct {
	Number       uint64
	Hash         common.Hash
	Transactions []TransactionRecord
	Receipts     []Receipt
	// Calls are keyed by transaction hash.
	Calls     map[common.Hash][]CallRecord
	Contracts []ContractRecord
	Artifacts []Artifact
	// Nonce increments made by the block.
	ContractNonces map[common.Address]uint64
	EoaNonces      map[common.Address]uint64
}

// persistedHeight is used to store height and block hash.
type persistedHeight struct {
	height uint64
	hash   common.Hash
}

// marshalPersistedHeight implements the mus.Marshaller interface.
func marshalPersistedHeight(v persistedHeight, bs []byte) (n int) {
	n = varint.MarshalUint64(v.height, bs)
	n += rtypes.MarshalHash(v.hash, bs[n:])
	return
}

// unmarshalPersistedHeight implements the mus.Unmarshaller interface.
func unmarshalPersistedHeight(bs []byte) (v persistedHeight, n int, err error) {
	r := &reader{bs: bs}
	v.height = r.uint64()
	v.hash = r.hash()
	return v, r.n, r.err
}

// sizePersistedHeight implements the mus.Sizer interface.
func sizePersistedHeight(v persistedHeight) (size int) {
	size = varint.SizeUint64(v.height)
	size += rtypes.SizeHash(v.hash)
	return
}

// marshalTransaction implements the mus.Marshaller interface.
func marshalTransaction(v TransactionRecord, bs []byte) (n int) {
	n = rtypes.MarshalHash(v.Hash, bs)
	n += varint.MarshalUint64(v.BlockNumber, bs[n:])
	n += rtypes.MarshalHash(v.BlockHash, bs[n:])
	n += varint.MarshalUint64(v.Index, bs[n:])
	n += rtypes.MarshalAddress(v.From, bs[n:])
	n += rtypes.MarshalBytes(v.Payload, bs[n:])
	return
}

// unmarshalTransaction implements the mus.Unmarshaller interface.
func unmarshalTransaction(bs []byte) (v TransactionRecord, n int, err error) {
	r := &reader{bs: bs}
	v.Hash = r.hash()
	v.BlockNumber = r.uint64()
	v.BlockHash = r.hash()
	v.Index = r.uint64()
	v.From = r.address()
	v.Payload = r.bytes()
	return v, r.n, r.err
}

// sizeTransaction implements the mus.Sizer interface.
func sizeTransaction(v TransactionRecord) (size int) {
	size = rtypes.SizeHash(v.Hash)
	size += varint.SizeUint64(v.BlockNumber)
	size += rtypes.SizeHash(v.BlockHash)
	size += varint.SizeUint64(v.Index)
	size += rtypes.SizeAddress(v.From)
	size += rtypes.SizeBytes(v.Payload)
	return
}

// marshalLog implements the mus.Marshaller interface.
func marshalLog(v LogRecord, bs []byte) (n int) {
	n = rtypes.MarshalAddress(v.Contract, bs)
	n += ord.MarshalString(v.Event, bs[n:])
	n += rtypes.MarshalHash(v.Topic, bs[n:])
	n += rtypes.MarshalBytes(v.Data, bs[n:])
	n += varint.MarshalUint64(v.LogIndex, bs[n:])
	return
}

// unmarshalLog implements the mus.Unmarshaller interface.
func unmarshalLog(bs []byte) (v LogRecord, n int, err error) {
	r := &reader{bs: bs}
	v.Contract = r.address()
	v.Event = r.string()
	v.Topic = r.hash()
	v.Data = r.bytes()
	v.LogIndex = r.uint64()
	return v, r.n, r.err
}

// sizeLog implements the mus.Sizer interface.
func sizeLog(v LogRecord) (size int) {
	size = rtypes.SizeAddress(v.Contract)
	size += ord.SizeString(v.Event)
	size += rtypes.SizeHash(v.Topic)
	size += rtypes.SizeBytes(v.Data)
	size += varint.SizeUint64(v.LogIndex)
	return
}

// marshalReceipt implements the mus.Marshaller interface.
func marshalReceipt(v Receipt, bs []byte) (n int) {
	n = rtypes.MarshalHash(v.TransactionHash, bs)
	n += varint.MarshalUint64(v.BlockNumber, bs[n:])
	n += varint.MarshalUint64(v.Index, bs[n:])
	n += rtypes.MarshalAddress(v.From, bs[n:])
	n += ord.MarshalString(v.Status, bs[n:])
	n += ord.MarshalString(v.Error, bs[n:])
	n += rtypes.MarshalAddress(v.ContractAddress, bs[n:])
	n += varint.MarshalUint64(v.GasUsed, bs[n:])
	n += ord.MarshalSlice[LogRecord](v.Logs, mus.MarshallerFn[LogRecord](marshalLog), bs[n:])
	return
}

// unmarshalReceipt implements the mus.Unmarshaller interface.
func unmarshalReceipt(bs []byte) (v Receipt, n int, err error) {
	r := &reader{bs: bs}
	v.TransactionHash = r.hash()
	v.BlockNumber = r.uint64()
	v.Index = r.uint64()
	v.From = r.address()
	v.Status = r.string()
	v.Error = r.string()
	v.ContractAddress = r.address()
	v.GasUsed = r.uint64()
	if r.err == nil {
		var n1 int
		v.Logs, n1, r.err = ord.UnmarshalSlice[LogRecord](mus.UnmarshallerFn[LogRecord](unmarshalLog), r.bs[r.n:])
		r.n += n1
	}
	return v, r.n, r.err
}

// sizeReceipt implements the mus.Sizer interface.
func sizeReceipt(v Receipt) (size int) {
	size = rtypes.SizeHash(v.TransactionHash)
	size += varint.SizeUint64(v.BlockNumber)
	size += varint.SizeUint64(v.Index)
	size += rtypes.SizeAddress(v.From)
	size += ord.SizeString(v.Status)
	size += ord.SizeString(v.Error)
	size += rtypes.SizeAddress(v.ContractAddress)
	size += varint.SizeUint64(v.GasUsed)
	size += ord.SizeSlice[LogRecord](v.Logs, mus.SizerFn[LogRecord](sizeLog))
	return
}

// marshalCall implements the mus.Marshaller interface.
func marshalCall(v CallRecord, bs []byte) (n int) {
	n = varint.MarshalUint64(v.CallIndex, bs)
	n += varint.MarshalUint64(v.InternalIndex, bs[n:])
	n += ord.MarshalString(v.CallType, bs[n:])
	n += rtypes.MarshalAddress(v.From, bs[n:])
	n += rtypes.MarshalAddress(v.To, bs[n:])
	n += rtypes.MarshalHash(v.InitCodeHash, bs[n:])
	n += ord.MarshalString(v.Function, bs[n:])
	n += rtypes.MarshalBytes(v.Args, bs[n:])
	n += rtypes.MarshalBytes(v.ReturnValue, bs[n:])
	n += ord.MarshalBool(v.Static, bs[n:])
	n += ord.MarshalString(v.Status, bs[n:])
	n += ord.MarshalString(v.Error, bs[n:])
	n += varint.MarshalInt64(v.StartTime, bs[n:])
	n += varint.MarshalInt64(v.EndTime, bs[n:])
	return
}

// unmarshalCall implements the mus.Unmarshaller interface.
func unmarshalCall(bs []byte) (v CallRecord, n int, err error) {
	r := &reader{bs: bs}
	v.CallIndex = r.uint64()
	v.InternalIndex = r.uint64()
	v.CallType = r.string()
	v.From = r.address()
	v.To = r.address()
	v.InitCodeHash = r.hash()
	v.Function = r.string()
	v.Args = r.bytes()
	v.ReturnValue = r.bytes()
	v.Static = r.bool()
	v.Status = r.string()
	v.Error = r.string()
	v.StartTime = r.int64()
	v.EndTime = r.int64()
	return v, r.n, r.err
}

// sizeCall implements the mus.Sizer interface.
func sizeCall(v CallRecord) (size int) {
	size = varint.SizeUint64(v.CallIndex)
	size += varint.SizeUint64(v.InternalIndex)
	size += ord.SizeString(v.CallType)
	size += rtypes.SizeAddress(v.From)
	size += rtypes.SizeAddress(v.To)
	size += rtypes.SizeHash(v.InitCodeHash)
	size += ord.SizeString(v.Function)
	size += rtypes.SizeBytes(v.Args)
	size += rtypes.SizeBytes(v.ReturnValue)
	size += ord.SizeBool(v.Static)
	size += ord.SizeString(v.Status)
	size += ord.SizeString(v.Error)
	size += varint.SizeInt64(v.StartTime)
	size += varint.SizeInt64(v.EndTime)
	return
}

// marshalContract implements the mus.Marshaller interface.
func marshalContract(v ContractRecord, bs []byte) (n int) {
	n = rtypes.MarshalAddress(v.Address, bs)
	n += rtypes.MarshalHash(v.InitCodeHash, bs[n:])
	n += ord.MarshalString(v.ClassName, bs[n:])
	n += rtypes.MarshalAddress(v.Deployer, bs[n:])
	n += varint.MarshalUint64(v.CreatedBlock, bs[n:])
	n += rtypes.MarshalHash(v.CreatedTx, bs[n:])
	n += varint.MarshalUint64(v.UpdatedBlock, bs[n:])
	n += rtypes.MarshalBytes(v.State, bs[n:])
	return
}

// unmarshalContract implements the mus.Unmarshaller interface.
func unmarshalContract(bs []byte) (v ContractRecord, n int, err error) {
	r := &reader{bs: bs}
	v.Address = r.address()
	v.InitCodeHash = r.hash()
	v.ClassName = r.string()
	v.Deployer = r.address()
	v.CreatedBlock = r.uint64()
	v.CreatedTx = r.hash()
	v.UpdatedBlock = r.uint64()
	v.State = r.bytes()
	return v, r.n, r.err
}

// sizeContract implements the mus.Sizer interface.
func sizeContract(v ContractRecord) (size int) {
	size = rtypes.SizeAddress(v.Address)
	size += rtypes.SizeHash(v.InitCodeHash)
	size += ord.SizeString(v.ClassName)
	size += rtypes.SizeAddress(v.Deployer)
	size += varint.SizeUint64(v.CreatedBlock)
	size += rtypes.SizeHash(v.CreatedTx)
	size += varint.SizeUint64(v.UpdatedBlock)
	size += rtypes.SizeBytes(v.State)
	return
}

// marshalArtifact implements the mus.Marshaller interface.
func marshalArtifact(v Artifact, bs []byte) (n int) {
	n = rtypes.MarshalHash(v.InitCodeHash, bs)
	n += ord.MarshalString(v.Name, bs[n:])
	n += ord.MarshalString(v.Source, bs[n:])
	n += rtypes.MarshalBytes(v.ABI, bs[n:])
	n += ord.MarshalSlice[common.Hash](v.Dependencies, mus.MarshallerFn[common.Hash](rtypes.MarshalHash), bs[n:])
	return
}

// unmarshalArtifact implements the mus.Unmarshaller interface.
func unmarshalArtifact(bs []byte) (v Artifact, n int, err error) {
	r := &reader{bs: bs}
	v.InitCodeHash = r.hash()
	v.Name = r.string()
	v.Source = r.string()
	v.ABI = r.bytes()
	if r.err == nil {
		var n1 int
		v.Dependencies, n1, r.err = ord.UnmarshalSlice[common.Hash](mus.UnmarshallerFn[common.Hash](rtypes.UnmarshalHash), r.bs[r.n:])
		r.n += n1
	}
	return v, r.n, r.err
}

// sizeArtifact implements the mus.Sizer interface.
func sizeArtifact(v Artifact) (size int) {
	size = rtypes.SizeHash(v.InitCodeHash)
	size += ord.SizeString(v.Name)
	size += ord.SizeString(v.Source)
	size += rtypes.SizeBytes(v.ABI)
	size += ord.SizeSlice[common.Hash](v.Dependencies, mus.SizerFn[common.Hash](rtypes.SizeHash))
	return
}

// reader unmarshals fields in sequence, keeping the first error.
type reader struct {
	bs  []byte
	n   int
	err error
}

func (r *reader) hash() (v common.Hash) {
	if r.err != nil {
		return
	}
	var n int
	v, n, r.err = rtypes.UnmarshalHash(r.bs[r.n:])
	r.n += n
	return
}

func (r *reader) address() (v common.Address) {
	if r.err != nil {
		return
	}
	var n int
	v, n, r.err = rtypes.UnmarshalAddress(r.bs[r.n:])
	r.n += n
	return
}

func (r *reader) bytes() (v []byte) {
	if r.err != nil {
		return
	}
	var n int
	v, n, r.err = rtypes.UnmarshalBytes(r.bs[r.n:])
	r.n += n
	return
}

func (r *reader) string() (v string) {
	if r.err != nil {
		return
	}
	var n int
	v, n, r.err = ord.UnmarshalString(r.bs[r.n:])
	r.n += n
	return
}

func (r *reader) uint64() (v uint64) {
	if r.err != nil {
		return
	}
	var n int
	v, n, r.err = varint.UnmarshalUint64(r.bs[r.n:])
	r.n += n
	return
}

func (r *reader) int64() (v int64) {
	if r.err != nil {
		return
	}
	var n int
	v, n, r.err = varint.UnmarshalInt64(r.bs[r.n:])
	r.n += n
	return
}

func (r *reader) bool() (v bool) {
	if r.err != nil {
		return
	}
	var n int
	v, n, r.err = ord.UnmarshalBool(r.bs[r.n:])
	r.n += n
	return
}
