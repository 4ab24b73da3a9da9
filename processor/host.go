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
	"reflect"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/wcgcyx/rubidity/contract"
	"github.com/wcgcyx/rubidity/gas"
	"github.com/wcgcyx/rubidity/statestore"
	"github.com/wcgcyx/rubidity/types"
	"github.com/wcgcyx/rubidity/vm"
	"github.com/wcgcyx/rubidity/vmerrors"
)

// contractMeta is the deployment information of a contract.
type contractMeta struct {
	deployer     common.Address
	createdBlock uint64
	createdTx    common.Hash
}

// blockContext is the state shared by all transactions of a block.
type blockContext struct {
	p      *Processor
	header Header

	// Contracts loaded or created in the block
	contracts map[common.Address]*vm.Instance
	// Deployment information of contracts created in the block
	created map[common.Address]*contractMeta
	// Persisted deployment information of loaded contracts
	loaded map[common.Address]*statestore.ContractRecord
	// Contracts mutated by a successful transaction
	dirty mapset.Set[common.Address]
	// Init code hashes deployed in the block
	classes mapset.Set[common.Hash]

	// Same block nonce increments
	eoaNonces      map[common.Address]uint64
	contractNonces map[common.Address]uint64
}

func newBlockContext(p *Processor, header Header) *blockContext {
	return &blockContext{
		p:              p,
		header:         header,
		contracts:      make(map[common.Address]*vm.Instance),
		created:        make(map[common.Address]*contractMeta),
		loaded:         make(map[common.Address]*statestore.ContractRecord),
		dirty:          mapset.NewThreadUnsafeSet[common.Address](),
		classes:        mapset.NewThreadUnsafeSet[common.Hash](),
		eoaNonces:      make(map[common.Address]uint64),
		contractNonces: make(map[common.Address]uint64),
	}
}

// prefetch loads the given contracts in one batch.
func (bc *blockContext) prefetch(addrs []common.Address) error {
	if len(addrs) == 0 {
		return nil
	}
	records, err := bc.p.store.GetContracts(addrs)
	if err != nil {
		return vmerrors.NewInfraError(err, "fail to get contracts")
	}
	for _, record := range records {
		if _, err = bc.load(record); err != nil {
			return err
		}
	}
	return nil
}

// load creates an instance from a persisted record.
func (bc *blockContext) load(record *statestore.ContractRecord) (*vm.Instance, error) {
	class, err := bc.p.class(record.InitCodeHash, false)
	if err != nil {
		return nil, err
	}
	state, err := statestore.DecodeState(record.State)
	if err != nil {
		return nil, vmerrors.NewInfraError(err, "fail to decode state of %v", record.Address)
	}
	inst, err := vm.LoadInstance(class, record.Address, state)
	if err != nil {
		return nil, vmerrors.NewInfraError(err, "fail to load contract %v", record.Address)
	}
	bc.contracts[record.Address] = inst
	bc.loaded[record.Address] = record
	return inst, nil
}

// contract gets a contract, nil if none exists.
func (bc *blockContext) contract(addr common.Address) (*vm.Instance, error) {
	if inst, ok := bc.contracts[addr]; ok {
		return inst, nil
	}
	record, err := bc.p.store.GetContract(addr)
	if err != nil {
		return nil, vmerrors.NewInfraError(err, "fail to get contract %v", addr)
	}
	if record == nil {
		return nil, nil
	}
	return bc.load(record)
}

// contractRecords gets the records of every contract mutated in the block.
func (bc *blockContext) contractRecords() ([]statestore.ContractRecord, error) {
	addrs := bc.dirty.ToSlice()
	sort.Slice(addrs, func(i, j int) bool {
		return addrs[i].Cmp(addrs[j]) < 0
	})
	res := make([]statestore.ContractRecord, 0, len(addrs))
	for _, addr := range addrs {
		inst := bc.contracts[addr]
		state, err := statestore.EncodeValue(inst.SerializeState())
		if err != nil {
			return nil, vmerrors.NewInfraError(err, "fail to encode state of %v", addr)
		}
		record := statestore.ContractRecord{
			Address:      addr,
			InitCodeHash: inst.Class.InitCodeHash(),
			ClassName:    inst.Class.Name(),
			UpdatedBlock: bc.header.Number,
			State:        state,
		}
		if meta, ok := bc.created[addr]; ok {
			record.Deployer = meta.deployer
			record.CreatedBlock = meta.createdBlock
			record.CreatedTx = meta.createdTx
		} else if prev, ok := bc.loaded[addr]; ok {
			record.Deployer = prev.Deployer
			record.CreatedBlock = prev.CreatedBlock
			record.CreatedTx = prev.CreatedTx
		}
		res = append(res, record)
	}
	return res, nil
}

// txHost is the host of one transaction.
type txHost struct {
	bc    *blockContext
	tx    vm.TxInfo
	meter *gas.Meter
	cs    *vm.CallStack

	// State of touched contracts before their first mutation
	touched map[common.Address]map[string]*types.TypedValue
	// Contracts created in the transaction, in creation order
	created []common.Address

	logIndex uint64
}

func newTxHost(bc *blockContext, tx vm.TxInfo) *txHost {
	h := &txHost{
		bc:      bc,
		tx:      tx,
		meter:   gas.NewMeter(bc.p.opts.GasLimit),
		touched: make(map[common.Address]map[string]*types.TypedValue),
		created: make([]common.Address, 0),
	}
	h.cs = vm.NewCallStack(h)
	return h
}

func (h *txHost) Block() vm.BlockInfo {
	return vm.BlockInfo{
		Number:    h.bc.header.Number,
		Hash:      h.bc.header.Hash,
		Timestamp: h.bc.header.Timestamp,
	}
}

func (h *txHost) Tx() vm.TxInfo {
	return h.tx
}

func (h *txHost) Meter() *gas.Meter {
	return h.meter
}

func (h *txHost) SupportedContractClass(initCodeHash common.Hash, validate bool) (*contract.Class, error) {
	if validate && !h.bc.p.supports(initCodeHash) {
		return nil, vmerrors.NewContractError("unsupported init code hash %v", initCodeHash)
	}
	return h.bc.p.class(initCodeHash, validate)
}

func (h *txHost) ClassByName(name string) (*contract.Class, bool) {
	return h.bc.p.artifacts.ClassByName(name)
}

func (h *txHost) GetExistingContract(addr common.Address) (*vm.Instance, error) {
	return h.bc.contract(addr)
}

func (h *txHost) AddContract(inst *vm.Instance) error {
	if _, ok := h.bc.contracts[inst.Address]; ok {
		return vmerrors.NewContractError("contract already exists at %v", inst.Address)
	}
	h.bc.contracts[inst.Address] = inst
	h.bc.created[inst.Address] = &contractMeta{
		deployer:     h.cs.Current().From,
		createdBlock: h.bc.header.Number,
		createdTx:    h.tx.Hash,
	}
	h.created = append(h.created, inst.Address)
	return nil
}

func (h *txHost) Touch(inst *vm.Instance) {
	if _, ok := h.touched[inst.Address]; ok {
		return
	}
	h.touched[inst.Address] = inst.Snapshot()
}

func (h *txHost) NextLogIndex() uint64 {
	res := h.logIndex
	h.logIndex++
	return res
}

func (h *txHost) CalculateContractNonce(addr common.Address) (uint64, error) {
	persisted, err := h.bc.p.store.GetContractNonce(addr)
	if err != nil {
		return 0, vmerrors.NewInfraError(err, "fail to get contract nonce of %v", addr)
	}
	res := persisted + h.bc.contractNonces[addr]
	for _, frame := range h.cs.Calls() {
		if frame.CallType == vm.CallTypeCreate && frame.From == addr && frame.Succeeded() {
			res++
		}
	}
	return res, nil
}

func (h *txHost) CalculateEoaNonce(addr common.Address) (uint64, error) {
	persisted, err := h.bc.p.store.GetEoaNonce(addr)
	if err != nil {
		return 0, vmerrors.NewInfraError(err, "fail to get eoa nonce of %v", addr)
	}
	return persisted + h.bc.eoaNonces[addr], nil
}

// revert restores every touched contract and drops the created ones.
func (h *txHost) revert() {
	for _, addr := range h.created {
		delete(h.bc.contracts, addr)
		delete(h.bc.created, addr)
	}
	for addr, snap := range h.touched {
		if inst, ok := h.bc.contracts[addr]; ok {
			inst.Restore(snap)
		}
	}
}

// commit marks the mutated contracts dirty and counts the nonces.
func (h *txHost) commit() {
	for addr := range h.touched {
		h.bc.dirty.Add(addr)
	}
	for _, addr := range h.created {
		h.bc.dirty.Add(addr)
		h.bc.classes.Add(h.bc.contracts[addr].Class.InitCodeHash())
	}
	h.bc.eoaNonces[h.tx.Origin]++
	for _, frame := range h.cs.Calls() {
		// Top level creates are counted by the eoa nonce.
		if frame.CallType == vm.CallTypeCreate && frame.InternalIndex > 0 && frame.Succeeded() {
			h.bc.contractNonces[frame.From]++
		}
	}
}

// diffs gets the state changes of the transaction.
func (h *txHost) diffs() []StateDiff {
	res := make([]StateDiff, 0)
	addrs := make([]common.Address, 0, len(h.touched)+len(h.created))
	for addr := range h.touched {
		addrs = append(addrs, addr)
	}
	for _, addr := range h.created {
		if _, ok := h.touched[addr]; !ok {
			addrs = append(addrs, addr)
		}
	}
	sort.Slice(addrs, func(i, j int) bool {
		return addrs[i].Cmp(addrs[j]) < 0
	})
	for _, addr := range addrs {
		inst, ok := h.bc.contracts[addr]
		if !ok {
			continue
		}
		var before map[string]*types.TypedValue
		if meta, isNew := h.bc.created[addr]; !isNew || meta.createdTx != h.tx.Hash {
			before = h.touched[addr]
		}
		after := inst.SerializeState()
		names := make([]string, 0, len(after))
		for name := range after {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			var prev interface{}
			if v, ok := before[name]; ok {
				prev = types.Serialize(v)
			}
			if reflect.DeepEqual(prev, after[name]) {
				continue
			}
			res = append(res, StateDiff{
				Contract: addr,
				Variable: name,
				Before:   prev,
				After:    after[name],
			})
		}
	}
	return res
}
