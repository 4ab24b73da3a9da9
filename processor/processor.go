package processor

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
	"sort"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/ipfs/go-datastore"
	logging "github.com/ipfs/go-log"
	"github.com/wcgcyx/rubidity/contract"
	"github.com/wcgcyx/rubidity/statestore"
	"github.com/wcgcyx/rubidity/types"
	"github.com/wcgcyx/rubidity/vm"
	"github.com/wcgcyx/rubidity/vmerrors"
)

// Logger
var log = logging.Logger("processor")

const defaultArtifactCacheSize = 128

// Processor executes blocks of contract transactions.
type Processor struct {
	opts Opts

	artifacts ArtifactLookup
	store     statestore.StateStore

	// Resolved classes by init code hash
	cache *lru.Cache[common.Hash, *contract.Class]
	// Deployable init code hashes
	supported mapset.Set[common.Hash]

	// Blocks are processed one at a time.
	lock sync.Mutex
}

// NewProcessor creates a new processor.
func NewProcessor(opts Opts, artifacts ArtifactLookup, store statestore.StateStore) (*Processor, error) {
	if artifacts == nil || store == nil {
		return nil, fmt.Errorf("processor requires an artifact lookup and a state store")
	}
	size := opts.ArtifactCacheSize
	if size <= 0 {
		size = defaultArtifactCacheSize
	}
	cache, err := lru.New[common.Hash, *contract.Class](size)
	if err != nil {
		return nil, err
	}
	return &Processor{
		opts:      opts,
		artifacts: artifacts,
		store:     store,
		cache:     cache,
		supported: mapset.NewSet[common.Hash](opts.SupportedInitCodeHashes...),
	}, nil
}

// supports checks if a class may be deployed.
func (p *Processor) supports(initCodeHash common.Hash) bool {
	return p.supported.Cardinality() == 0 || p.supported.Contains(initCodeHash)
}

// class resolves a class by init code hash.
// An unknown hash reverts when it comes from a transaction and is fatal when it comes from storage.
func (p *Processor) class(initCodeHash common.Hash, fromTx bool) (*contract.Class, error) {
	if c, ok := p.cache.Get(initCodeHash); ok {
		return c, nil
	}
	c, err := p.artifacts.FindContractArtifact(initCodeHash)
	if err != nil {
		if fromTx && errors.Is(err, contract.ErrArtifactNotFound) {
			return nil, vmerrors.NewContractError("unknown init code hash %v", initCodeHash)
		}
		return nil, vmerrors.NewInfraError(err, "fail to resolve artifact %v", initCodeHash)
	}
	p.cache.Add(initCodeHash, c)
	return c, nil
}

// ProcessBlock executes the transactions of a block in order and persists the results.
// Transaction failures are recorded in the outcomes, an error is only returned when the block cannot be processed.
func (p *Processor) ProcessBlock(ctx context.Context, header Header, payloads [][]byte) (*Result, error) {
	p.lock.Lock()
	defer p.lock.Unlock()

	height, _, err := p.store.GetPersistedHeight()
	if err != nil {
		return nil, vmerrors.NewInfraError(err, "fail to get persisted height")
	}
	if height > 0 && header.Number <= height {
		return nil, fmt.Errorf("block %v is not after persisted height %v", header.Number, height)
	}
	log.Infof("Start processing block %v with %v transactions", header.Number, len(payloads))

	bc := newBlockContext(p, header)
	active := header.Number >= p.opts.StartBlock
	decoded := make([]*Payload, len(payloads))
	decodeErrs := make([]error, len(payloads))
	targets := mapset.NewThreadUnsafeSet[common.Address]()
	for i, raw := range payloads {
		decoded[i], decodeErrs[i] = DecodePayload(raw)
		if decodeErrs[i] == nil && decoded[i].Data.To != nil {
			targets.Add(*decoded[i].Data.To)
		}
	}
	if active {
		if err = bc.prefetch(targets.ToSlice()); err != nil {
			return nil, err
		}
	}

	res := &Result{
		Number:   header.Number,
		Hash:     header.Hash,
		Outcomes: make([]*Outcome, 0, len(payloads)),
		Records: statestore.BlockRecords{
			Number:       header.Number,
			Hash:         header.Hash,
			Transactions: make([]statestore.TransactionRecord, 0, len(payloads)),
			Receipts:     make([]statestore.Receipt, 0, len(payloads)),
			Calls:        make(map[common.Hash][]statestore.CallRecord),
		},
	}
	for i, raw := range payloads {
		if err = ctx.Err(); err != nil {
			return nil, err
		}
		index := uint64(i)
		var outcome *Outcome
		switch {
		case decodeErrs[i] != nil:
			// Without a decodable hash the payload is identified by its content.
			outcome = &Outcome{
				TransactionHash: crypto.Keccak256Hash(raw),
				Index:           index,
				Status:          StatusFailure,
				Error:           decodeErrs[i].Error(),
			}
		case !active:
			outcome = &Outcome{
				TransactionHash: decoded[i].TxHash,
				Index:           index,
				From:            decoded[i].From,
				Status:          StatusSkipped,
			}
		default:
			outcome, err = p.processTx(bc, index, decoded[i])
			if err != nil {
				log.Errorf("Fail to process transaction %v in block %v: %v", decoded[i].TxHash, header.Number, err.Error())
				return nil, err
			}
		}
		res.Outcomes = append(res.Outcomes, outcome)
		res.Records.Transactions = append(res.Records.Transactions, statestore.TransactionRecord{
			Hash:        outcome.TransactionHash,
			BlockNumber: header.Number,
			BlockHash:   header.Hash,
			Index:       index,
			From:        outcome.From,
			Payload:     raw,
		})
		if outcome.Status == StatusSkipped {
			continue
		}
		r, err := receipt(header.Number, outcome)
		if err != nil {
			return nil, err
		}
		res.Records.Receipts = append(res.Records.Receipts, r)
		if len(outcome.Calls) > 0 {
			calls, err := callRecords(outcome.Calls)
			if err != nil {
				return nil, err
			}
			res.Records.Calls[outcome.TransactionHash] = calls
		}
	}

	res.Records.Contracts, err = bc.contractRecords()
	if err != nil {
		return nil, err
	}
	res.Records.Artifacts, err = p.newArtifacts(bc.classes.ToSlice())
	if err != nil {
		return nil, err
	}
	res.Records.ContractNonces = bc.contractNonces
	res.Records.EoaNonces = bc.eoaNonces

	txn, err := p.store.NewTransaction()
	if err != nil {
		return nil, vmerrors.NewInfraError(err, "fail to start transaction")
	}
	defer txn.Discard()
	if err = txn.ImportBlock(res.Records); err != nil {
		return nil, vmerrors.NewInfraError(err, "fail to import block %v", header.Number)
	}
	if err = txn.Commit(); err != nil {
		return nil, vmerrors.NewInfraError(err, "fail to commit block %v", header.Number)
	}
	log.Infof("Finished processing block %v, %v contracts updated, %v new artifacts", header.Number, len(res.Records.Contracts), len(res.Records.Artifacts))
	return res, nil
}

// processTx executes one transaction.
// Contract errors revert the transaction, infra errors are returned.
func (p *Processor) processTx(bc *blockContext, index uint64, payload *Payload) (*Outcome, error) {
	h := newTxHost(bc, vm.TxInfo{
		Hash:   payload.TxHash,
		Index:  index,
		Origin: payload.From,
	})
	outcome := &Outcome{
		TransactionHash: payload.TxHash,
		Index:           index,
		From:            payload.From,
	}
	req, err := payload.Request()
	var ret *types.TypedValue
	if err == nil {
		ret, err = h.cs.Execute(req)
	}
	outcome.Calls = h.cs.Calls()
	outcome.GasUsed = h.meter.Total()
	outcome.GasLedger = h.meter.Ledger()
	if err != nil {
		if vmerrors.IsFatal(err) {
			return nil, err
		}
		h.revert()
		outcome.Status = StatusFailure
		outcome.Error = err.Error()
		log.Debugf("Transaction %v reverted: %v", payload.TxHash, err.Error())
		return outcome, nil
	}
	outcome.StateDiffs = h.diffs()
	h.commit()
	outcome.Status = StatusSuccess
	outcome.Logs = logs(outcome.Calls)
	if ret != nil {
		outcome.ReturnValue = types.Serialize(ret)
	}
	if req.CallType == vm.CallTypeCreate {
		outcome.ContractAddress = outcome.Calls[0].To
	}
	return outcome, nil
}

// newArtifacts gets the artifacts of the classes not yet persisted.
func (p *Processor) newArtifacts(hashes []common.Hash) ([]statestore.Artifact, error) {
	sort.Slice(hashes, func(i, j int) bool {
		return hashes[i].Cmp(hashes[j]) < 0
	})
	res := make([]statestore.Artifact, 0)
	for _, hash := range hashes {
		_, err := p.store.GetArtifact(hash)
		if err == nil {
			continue
		}
		if !errors.Is(err, datastore.ErrNotFound) {
			return nil, vmerrors.NewInfraError(err, "fail to get artifact %v", hash)
		}
		class, err := p.class(hash, false)
		if err != nil {
			return nil, err
		}
		abi, err := class.ABIJSON()
		if err != nil {
			return nil, vmerrors.NewInfraError(err, "fail to encode abi of %v", class.Name())
		}
		deps, err := p.dependencies(class)
		if err != nil {
			return nil, err
		}
		res = append(res, statestore.Artifact{
			InitCodeHash: hash,
			Name:         class.Name(),
			Source:       class.Definition().SourceText,
			ABI:          abi,
			Dependencies: deps,
		})
	}
	return res, nil
}

// dependencies gets the init code hashes of the ancestors and deployable contracts of a class.
func (p *Processor) dependencies(class *contract.Class) ([]common.Hash, error) {
	names := append(class.Ancestors(), class.AvailableContracts()...)
	seen := mapset.NewThreadUnsafeSet[common.Hash]()
	res := make([]common.Hash, 0, len(names))
	for _, name := range names {
		dep, ok := p.artifacts.ClassByName(name)
		if !ok {
			return nil, vmerrors.NewInfraError(contract.ErrArtifactNotFound, "fail to resolve dependency %v of %v", name, class.Name())
		}
		if seen.Add(dep.InitCodeHash()) {
			res = append(res, dep.InitCodeHash())
		}
	}
	return res, nil
}
