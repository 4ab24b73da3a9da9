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
)

//go:generate mockgen -source=statestore.go -destination=mock_statestore.go -package=statestore

type StateStore interface {
	// GetPersistedHeight gets the persisted block height and hash.
	// It returns 0 and an empty hash if nothing has been persisted.
	GetPersistedHeight() (uint64, common.Hash, error)

	// GetContract gets the persisted contract at the address, nil if none.
	GetContract(addr common.Address) (*ContractRecord, error)

	// GetContracts gets the persisted contracts at the addresses.
	// Addresses without a contract are absent from the result.
	GetContracts(addrs []common.Address) (map[common.Address]*ContractRecord, error)

	// GetArtifact gets the persisted artifact for the init code hash.
	GetArtifact(initCodeHash common.Hash) (*Artifact, error)

	// GetDependencies gets the init code hashes an artifact depends on.
	GetDependencies(initCodeHash common.Hash) ([]common.Hash, error)

	// GetSnapshot gets the encoded state of a contract at the given height.
	GetSnapshot(height uint64, addr common.Address) ([]byte, error)

	// GetContractNonce gets the persisted nonce of a contract.
	GetContractNonce(addr common.Address) (uint64, error)

	// GetEoaNonce gets the persisted nonce of an externally owned address.
	GetEoaNonce(addr common.Address) (uint64, error)

	// GetTransaction gets a persisted transaction.
	GetTransaction(txHash common.Hash) (*TransactionRecord, error)

	// GetReceipt gets the receipt of a persisted transaction.
	GetReceipt(txHash common.Hash) (*Receipt, error)

	// GetCalls gets the calls of a persisted transaction.
	GetCalls(txHash common.Hash) ([]CallRecord, error)

	// NewTransaction creates a new transaction to write.
	NewTransaction() (Transaction, error)

	// Shutdown safely shuts the statestore down.
	Shutdown()
}

type Transaction interface {
	// ImportBlock writes all records of a block.
	// It includes snapshots of every updated contract and the new persisted height.
	ImportBlock(records BlockRecords) error

	// Commit commits all changes.
	Commit() error

	// Discard discards all changes.
	Discard()
}
