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
	"time"

	"github.com/dgraph-io/badger/v2/options"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ipfs/go-datastore"
	"github.com/ipfs/go-datastore/query"
	badgerds "github.com/ipfs/go-ds-badger2"
	logging "github.com/ipfs/go-log"
)

// Logger
var log = logging.Logger("statestore")

const (
	defaultGCPeriod = time.Hour
	defaultTimeout  = 5 * time.Second
)

// stateStoreImpl implements StateStore.
type stateStoreImpl struct {
	ctx  context.Context
	opts Opts
	ds   *badgerds.Datastore
	// Process related
	routineCtx context.Context
	cancel     context.CancelFunc
	exitLoop   chan bool
}

// NewStateStoreImpl creates a new StateStore
func NewStateStoreImpl(ctx context.Context, opts Opts) (StateStore, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("empty path provided")
	}
	if opts.GCPeriod <= 0 {
		opts.GCPeriod = defaultGCPeriod
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = defaultTimeout
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = defaultTimeout
	}
	dsopts := badgerds.DefaultOptions
	dsopts.SyncWrites = false
	dsopts.Truncate = true
	// Use max table size of 256MiB
	dsopts.Options.MaxTableSize = 256 << 20
	// Use memory map for value log
	dsopts.Options.ValueLogLoadingMode = options.MemoryMap
	ds, err := badgerds.NewDatastore(opts.Path, &dsopts)
	if err != nil {
		return nil, err
	}
	routineCtx, cancel := context.WithCancel(context.Background())
	res := &stateStoreImpl{
		ctx:        ctx,
		opts:       opts,
		ds:         ds,
		routineCtx: routineCtx,
		cancel:     cancel,
		exitLoop:   make(chan bool),
	}
	height, hash, err := res.GetPersistedHeight()
	if err != nil {
		cancel()
		ds.Close()
		return nil, err
	}
	if hash != (common.Hash{}) {
		log.Infof("Existing ds detected at height %v", height)
	}
	go res.gcRoutine()
	return res, nil
}

// get gets the raw value at the key, nil if absent.
func (s *stateStoreImpl) get(key datastore.Key) ([]byte, error) {
	ctx, cancel := context.WithTimeout(s.ctx, s.opts.ReadTimeout)
	defer cancel()

	val, err := s.ds.Get(ctx, key)
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return val, nil
}

// GetPersistedHeight gets the persisted block height and hash.
func (s *stateStoreImpl) GetPersistedHeight() (uint64, common.Hash, error) {
	val, err := s.get(persistedHeightKey())
	if err != nil || val == nil {
		return 0, common.Hash{}, err
	}
	return decodePersistedHeight(val)
}

// GetContract gets the persisted contract at the address, nil if none.
func (s *stateStoreImpl) GetContract(addr common.Address) (*ContractRecord, error) {
	val, err := s.get(getContractKey(addr))
	if err != nil || val == nil {
		return nil, err
	}
	res, err := decode(val, unmarshalContract)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// GetContracts gets the persisted contracts at the addresses.
func (s *stateStoreImpl) GetContracts(addrs []common.Address) (map[common.Address]*ContractRecord, error) {
	ctx, cancel := context.WithTimeout(s.ctx, s.opts.ReadTimeout)
	defer cancel()

	txn, err := s.ds.NewTransaction(ctx, true)
	if err != nil {
		return nil, err
	}
	defer txn.Discard(ctx)
	res := make(map[common.Address]*ContractRecord)
	for _, addr := range addrs {
		if _, ok := res[addr]; ok {
			continue
		}
		val, err := txn.Get(ctx, getContractKey(addr))
		if err != nil {
			if errors.Is(err, datastore.ErrNotFound) {
				continue
			}
			return nil, err
		}
		record, err := decode(val, unmarshalContract)
		if err != nil {
			return nil, err
		}
		res[addr] = &record
	}
	log.Debugf("Batch loaded %v of %v contracts", len(res), len(addrs))
	return res, nil
}

// GetArtifact gets the persisted artifact for the init code hash.
func (s *stateStoreImpl) GetArtifact(initCodeHash common.Hash) (*Artifact, error) {
	val, err := s.get(getArtifactKey(initCodeHash))
	if err != nil {
		return nil, err
	}
	if val == nil {
		return nil, datastore.ErrNotFound
	}
	res, err := decode(val, unmarshalArtifact)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// GetDependencies gets the init code hashes an artifact depends on.
func (s *stateStoreImpl) GetDependencies(initCodeHash common.Hash) ([]common.Hash, error) {
	ctx, cancel := context.WithTimeout(s.ctx, s.opts.ReadTimeout)
	defer cancel()

	results, err := s.ds.Query(ctx, query.Query{Prefix: getDependencyPrefix(initCodeHash), KeysOnly: true})
	if err != nil {
		return nil, err
	}
	defer results.Close()
	res := make([]common.Hash, 0)
	for r := range results.Next() {
		if r.Error != nil {
			return nil, r.Error
		}
		res = append(res, splitDependencyKey(r.Key))
	}
	return res, nil
}

// GetSnapshot gets the encoded state of a contract at the given height.
func (s *stateStoreImpl) GetSnapshot(height uint64, addr common.Address) ([]byte, error) {
	val, err := s.get(getSnapshotKey(height, addr))
	if err != nil {
		return nil, err
	}
	if val == nil {
		return nil, datastore.ErrNotFound
	}
	return val, nil
}

// GetContractNonce gets the persisted nonce of a contract.
func (s *stateStoreImpl) GetContractNonce(addr common.Address) (uint64, error) {
	val, err := s.get(getContractNonceKey(addr))
	if err != nil || val == nil {
		return 0, err
	}
	return decodeNonce(val)
}

// GetEoaNonce gets the persisted nonce of an externally owned address.
func (s *stateStoreImpl) GetEoaNonce(addr common.Address) (uint64, error) {
	val, err := s.get(getEoaNonceKey(addr))
	if err != nil || val == nil {
		return 0, err
	}
	return decodeNonce(val)
}

// GetTransaction gets a persisted transaction.
func (s *stateStoreImpl) GetTransaction(txHash common.Hash) (*TransactionRecord, error) {
	val, err := s.get(getTransactionKey(txHash))
	if err != nil {
		return nil, err
	}
	if val == nil {
		return nil, datastore.ErrNotFound
	}
	res, err := decode(val, unmarshalTransaction)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// GetReceipt gets the receipt of a persisted transaction.
func (s *stateStoreImpl) GetReceipt(txHash common.Hash) (*Receipt, error) {
	val, err := s.get(getReceiptKey(txHash))
	if err != nil {
		return nil, err
	}
	if val == nil {
		return nil, datastore.ErrNotFound
	}
	res, err := decode(val, unmarshalReceipt)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// GetCalls gets the calls of a persisted transaction.
func (s *stateStoreImpl) GetCalls(txHash common.Hash) ([]CallRecord, error) {
	val, err := s.get(getCallsKey(txHash))
	if err != nil {
		return nil, err
	}
	if val == nil {
		return nil, datastore.ErrNotFound
	}
	return decodeCalls(val)
}

// Shutdown safely shuts the statestore down.
func (s *stateStoreImpl) Shutdown() {
	log.Infof("Close statestore...")
	s.cancel()
	<-s.exitLoop
	err := s.ds.Close()
	if err != nil {
		log.Errorf("Fail to close statestore: %v", err.Error())
		return
	}
	log.Infof("Statestore closed successfully.")
}
