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
	"context"
	"errors"
	"fmt"

	"github.com/ipfs/go-datastore"
)

// transactionImpl implements Transaction.
type transactionImpl struct {
	ctx    context.Context
	cancel context.CancelFunc
	txn    datastore.Txn
}

// NewTransaction creates a new transaction to write.
func (s *stateStoreImpl) NewTransaction() (Transaction, error) {
	ctx, cancel := context.WithTimeout(s.ctx, s.opts.WriteTimeout)
	txn, err := s.ds.NewTransaction(ctx, false)
	if err != nil {
		cancel()
		return nil, err
	}
	return &transactionImpl{ctx: ctx, cancel: cancel, txn: txn}, nil
}

// ImportBlock writes all records of a block.
func (t *transactionImpl) ImportBlock(records BlockRecords) error {
	val, err := t.txn.Get(t.ctx, persistedHeightKey())
	if err == nil {
		height, _, err := decodePersistedHeight(val)
		if err != nil {
			return err
		}
		if records.Number <= height {
			return fmt.Errorf("block %v is not above persisted height %v", records.Number, height)
		}
	} else if !errors.Is(err, datastore.ErrNotFound) {
		return err
	}
	err = t.txn.Put(t.ctx, persistedHeightKey(), encodePersistedHeight(records.Number, records.Hash))
	if err != nil {
		return err
	}

	for _, tx := range records.Transactions {
		err = t.txn.Put(t.ctx, getTransactionKey(tx.Hash), encode(tx, sizeTransaction, marshalTransaction))
		if err != nil {
			return err
		}
	}

	for _, receipt := range records.Receipts {
		err = t.txn.Put(t.ctx, getReceiptKey(receipt.TransactionHash), encode(receipt, sizeReceipt, marshalReceipt))
		if err != nil {
			return err
		}
	}

	for txHash, calls := range records.Calls {
		err = t.txn.Put(t.ctx, getCallsKey(txHash), encodeCalls(calls))
		if err != nil {
			return err
		}
	}

	for _, contract := range records.Contracts {
		err = t.txn.Put(t.ctx, getContractKey(contract.Address), encode(contract, sizeContract, marshalContract))
		if err != nil {
			return err
		}
		// Snapshot the state at this block
		err = t.txn.Put(t.ctx, getSnapshotKey(records.Number, contract.Address), contract.State)
		if err != nil {
			return err
		}
	}

	for _, artifact := range records.Artifacts {
		err = t.txn.Put(t.ctx, getArtifactKey(artifact.InitCodeHash), encode(artifact, sizeArtifact, marshalArtifact))
		if err != nil {
			return err
		}
		for _, dep := range artifact.Dependencies {
			err = t.txn.Put(t.ctx, getDependencyKey(artifact.InitCodeHash, dep), []byte{})
			if err != nil {
				return err
			}
		}
	}

	for addr, inc := range records.ContractNonces {
		if err = t.addNonce(getContractNonceKey(addr), inc); err != nil {
			return err
		}
	}
	for addr, inc := range records.EoaNonces {
		if err = t.addNonce(getEoaNonceKey(addr), inc); err != nil {
			return err
		}
	}
	return nil
}

// addNonce increments the nonce counter at the key.
func (t *transactionImpl) addNonce(key datastore.Key, inc uint64) error {
	if inc == 0 {
		return nil
	}
	current := uint64(0)
	val, err := t.txn.Get(t.ctx, key)
	if err == nil {
		current, err = decodeNonce(val)
		if err != nil {
			return err
		}
	} else if !errors.Is(err, datastore.ErrNotFound) {
		return err
	}
	return t.txn.Put(t.ctx, key, encodeNonce(current+inc))
}

// Commit commits all changes.
func (t *transactionImpl) Commit() error {
	defer t.cancel()
	return t.txn.Commit(t.ctx)
}

// Discard discards all changes.
func (t *transactionImpl) Discard() {
	defer t.cancel()
	t.txn.Discard(t.ctx)
}
