package vm

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
	"github.com/wcgcyx/rubidity/contract"
	"github.com/wcgcyx/rubidity/gas"
)

// BlockInfo is the ambient block of a transaction.
type BlockInfo struct {
	Number    uint64
	Hash      common.Hash
	Timestamp uint64
}

// TxInfo is the ambient transaction.
type TxInfo struct {
	Hash   common.Hash
	Index  uint64
	Origin common.Address
}

// Host is the execution context a call stack runs in.
// It is scoped to one transaction.
type Host interface {
	// Block gets the current block.
	Block() BlockInfo

	// Tx gets the current transaction.
	Tx() TxInfo

	// Meter gets the gas meter of the transaction.
	Meter() *gas.Meter

	// SupportedContractClass resolves a class by init code hash.
	// With validate set, it fails if the hash is not in the supported set.
	SupportedContractClass(initCodeHash common.Hash, validate bool) (*contract.Class, error)

	// ClassByName resolves a class by name.
	ClassByName(name string) (*contract.Class, bool)

	// GetExistingContract gets a deployed contract, nil if none exists at the address.
	GetExistingContract(addr common.Address) (*Instance, error)

	// AddContract registers a newly created contract.
	AddContract(inst *Instance) error

	// Touch records the state of the contract before its first mutation in the transaction.
	Touch(inst *Instance)

	// NextLogIndex gets the next log index of the transaction.
	NextLogIndex() uint64

	// CalculateContractNonce counts the successful creates from a contract.
	CalculateContractNonce(addr common.Address) (uint64, error)

	// CalculateEoaNonce counts the successful transactions from an externally owned address.
	CalculateEoaNonce(addr common.Address) (uint64, error)
}
