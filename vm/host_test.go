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
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/wcgcyx/rubidity/contract"
	"github.com/wcgcyx/rubidity/gas"
	"github.com/wcgcyx/rubidity/types"
	"github.com/wcgcyx/rubidity/vmerrors"
)

var (
	testOrigin = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	testBlock  = BlockInfo{Number: 10, Hash: common.HexToHash("0x01"), Timestamp: 1700000000}
	testTx     = TxInfo{Hash: common.HexToHash("0x02"), Index: 0, Origin: testOrigin}
)

// memHost is an in-memory host.
type memHost struct {
	registry  *contract.Registry
	meter     *gas.Meter
	contracts map[common.Address]*Instance
	touched   map[common.Address]map[string]*types.TypedValue
	logIndex  uint64
}

func newMemHost(t *testing.T, limit gas.Gas) *memHost {
	r, err := contract.NewRegistry(contract.Opts{})
	assert.Nil(t, err)
	return &memHost{
		registry:  r,
		meter:     gas.NewMeter(limit),
		contracts: make(map[common.Address]*Instance),
		touched:   make(map[common.Address]map[string]*types.TypedValue),
	}
}

func (h *memHost) register(t *testing.T, b *contract.Builder) *contract.Class {
	def, err := b.Build()
	assert.Nil(t, err)
	c, err := h.registry.Register(def)
	assert.Nil(t, err)
	return c
}

func (h *memHost) Block() BlockInfo { return testBlock }

func (h *memHost) Tx() TxInfo { return testTx }

func (h *memHost) Meter() *gas.Meter { return h.meter }

func (h *memHost) SupportedContractClass(initCodeHash common.Hash, validate bool) (*contract.Class, error) {
	c, err := h.registry.FindContractArtifact(initCodeHash)
	if err != nil {
		return nil, vmerrors.NewContractError("contract class %v not supported", initCodeHash)
	}
	return c, nil
}

func (h *memHost) ClassByName(name string) (*contract.Class, bool) {
	return h.registry.ClassByName(name)
}

func (h *memHost) GetExistingContract(addr common.Address) (*Instance, error) {
	return h.contracts[addr], nil
}

func (h *memHost) AddContract(inst *Instance) error {
	h.contracts[inst.Address] = inst
	return nil
}

func (h *memHost) Touch(inst *Instance) {
	if _, ok := h.touched[inst.Address]; !ok {
		h.touched[inst.Address] = inst.Snapshot()
	}
}

func (h *memHost) NextLogIndex() uint64 {
	h.logIndex++
	return h.logIndex - 1
}

func (h *memHost) CalculateContractNonce(addr common.Address) (uint64, error) {
	return 0, nil
}

func (h *memHost) CalculateEoaNonce(addr common.Address) (uint64, error) {
	return 0, nil
}

// deploy creates a contract of the class from the origin.
func deploy(t *testing.T, h *memHost, class *contract.Class, salt byte, args ...interface{}) common.Address {
	hash := class.InitCodeHash()
	s := common.BytesToHash([]byte{salt})
	res, err := NewCallStack(h).Execute(CallRequest{
		InitCodeHash: &hash,
		CallType:     CallTypeCreate,
		Salt:         &s,
		Args:         args,
	})
	assert.Nil(t, err)
	addr, err := res.Address()
	assert.Nil(t, err)
	return addr
}
