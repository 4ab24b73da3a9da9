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
	"encoding/json"
	"errors"
	"math/big"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ipfs/go-datastore"
	"github.com/stretchr/testify/assert"
	"github.com/wcgcyx/rubidity/contract"
	"github.com/wcgcyx/rubidity/gas"
	"github.com/wcgcyx/rubidity/library"
	"github.com/wcgcyx/rubidity/script"
	"github.com/wcgcyx/rubidity/statestore"
	"github.com/wcgcyx/rubidity/vmerrors"
	"go.uber.org/mock/gomock"
)

const (
	testDS       = "./test-ds"
	testAcct1Str = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	testAcct2Str = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
)

var (
	acct1 = common.HexToAddress(testAcct1Str)
	acct2 = common.HexToAddress(testAcct2Str)
)

func TestMain(m *testing.M) {
	os.RemoveAll(testDS)
	os.Mkdir(testDS, os.ModePerm)
	defer os.RemoveAll(testDS)
	m.Run()
}

func newTestRegistry(t *testing.T) *contract.Registry {
	r, err := contract.NewRegistry(contract.Opts{})
	assert.Nil(t, err)
	assert.Nil(t, library.Register(r, script.Opts{}))
	return r
}

func newTestStore(t *testing.T) statestore.StateStore {
	sstore, err := statestore.NewStateStoreImpl(context.Background(), statestore.Opts{
		Path:         testDS,
		GCPeriod:     time.Minute,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	assert.Nil(t, err)
	return sstore
}

func newTestProcessor(t *testing.T, opts Opts) (*Processor, *contract.Registry, statestore.StateStore) {
	r := newTestRegistry(t)
	sstore := newTestStore(t)
	p, err := NewProcessor(opts, r, sstore)
	assert.Nil(t, err)
	return p, r, sstore
}

func txHash(n int64) common.Hash {
	return common.BigToHash(big.NewInt(n))
}

func payload(t *testing.T, hash common.Hash, from common.Address, op string, data PayloadData, args ...interface{}) []byte {
	raw, err := json.Marshal(args)
	assert.Nil(t, err)
	data.Args = raw
	bs, err := json.Marshal(Payload{TxHash: hash, From: from, Op: op, Data: data})
	assert.Nil(t, err)
	return bs
}

func createTx(t *testing.T, n int64, from common.Address, class *contract.Class, args ...interface{}) []byte {
	hash := class.InitCodeHash()
	return payload(t, txHash(n), from, "create", PayloadData{InitCodeHash: &hash}, args...)
}

func callTx(t *testing.T, n int64, from common.Address, to common.Address, function string, args ...interface{}) []byte {
	return payload(t, txHash(n), from, "call", PayloadData{To: &to, Function: function}, args...)
}

func header(number uint64) Header {
	return Header{Number: number, Hash: common.BigToHash(new(big.Int).SetUint64(number + 1000)), Timestamp: 1700000000 + number}
}

func lower(addr common.Address) string {
	return strings.ToLower(addr.Hex())
}

func storedState(t *testing.T, sstore statestore.StateStore, addr common.Address) map[string]interface{} {
	record, err := sstore.GetContract(addr)
	assert.Nil(t, err)
	if !assert.NotNil(t, record) {
		return nil
	}
	state, err := statestore.DecodeState(record.State)
	assert.Nil(t, err)
	return state
}

func TestNewProcessor(t *testing.T) {
	_, err := NewProcessor(Opts{}, nil, nil)
	assert.NotNil(t, err)
}

func TestProcessToken(t *testing.T) {
	defer os.RemoveAll(testDS)

	p, r, sstore := newTestProcessor(t, Opts{})
	defer sstore.Shutdown()

	tokenClass, _ := r.ClassByName("Token")
	token := crypto.CreateAddress(acct1, 0)
	res, err := p.ProcessBlock(context.Background(), header(1), [][]byte{
		createTx(t, 1, acct1, tokenClass, "Test", "TST", 18),
		callTx(t, 2, acct1, token, "mint", lower(acct1), "1000"),
		callTx(t, 3, acct1, token, "transfer", lower(acct2), 300),
		callTx(t, 4, acct2, token, "mint", lower(acct2), "1"),
		callTx(t, 5, acct1, token, "transfer", map[string]interface{}{"to": lower(acct2), "amount": 0}),
	})
	assert.Nil(t, err)
	assert.Len(t, res.Outcomes, 5)

	assert.Equal(t, StatusSuccess, res.Outcomes[0].Status)
	assert.Equal(t, token, res.Outcomes[0].ContractAddress)
	assert.Equal(t, StatusSuccess, res.Outcomes[1].Status)
	assert.Equal(t, StatusSuccess, res.Outcomes[2].Status)
	assert.Equal(t, true, res.Outcomes[2].ReturnValue)
	assert.Equal(t, StatusFailure, res.Outcomes[3].Status)
	assert.Contains(t, res.Outcomes[3].Error, "Ownable: caller is not the owner")
	assert.Equal(t, StatusFailure, res.Outcomes[4].Status)
	assert.Contains(t, res.Outcomes[4].Error, "Token: zero transfer")

	// Logs and diffs of the transfer
	transfer := res.Outcomes[2]
	assert.Len(t, transfer.Logs, 1)
	assert.Equal(t, "Transfer", transfer.Logs[0].Event)
	assert.Equal(t, token, transfer.Logs[0].Contract)
	assert.Equal(t, "300", transfer.Logs[0].Data["amount"])
	assert.NotEmpty(t, transfer.StateDiffs)
	assert.Equal(t, "balanceOf", transfer.StateDiffs[0].Variable)
	assert.True(t, transfer.GasUsed >= gas.Cost(gas.OpCall))
	assert.NotEmpty(t, transfer.GasLedger)

	// Persisted state
	state := storedState(t, sstore, token)
	assert.Equal(t, "Test", state["name"])
	assert.Equal(t, "1000", state["totalSupply"])
	assert.Equal(t, lower(acct1), state["owner"])
	balances := state["balanceOf"].(map[string]interface{})
	assert.Equal(t, "700", balances[lower(acct1)])
	assert.Equal(t, "300", balances[lower(acct2)])
	snap, err := sstore.GetSnapshot(1, token)
	assert.Nil(t, err)
	assert.NotEmpty(t, snap)

	receipt, err := sstore.GetReceipt(txHash(4))
	assert.Nil(t, err)
	assert.Equal(t, StatusFailure, receipt.Status)
	assert.Contains(t, receipt.Error, "caller is not the owner")
	receipt, err = sstore.GetReceipt(txHash(3))
	assert.Nil(t, err)
	assert.Len(t, receipt.Logs, 1)
	calls, err := sstore.GetCalls(txHash(1))
	assert.Nil(t, err)
	assert.Equal(t, "constructor", calls[0].Function)
	assert.Equal(t, "create", calls[0].CallType)

	// Artifacts and their dependencies
	artifact, err := sstore.GetArtifact(tokenClass.InitCodeHash())
	assert.Nil(t, err)
	assert.Equal(t, "Token", artifact.Name)
	erc20, _ := r.ClassByName("ERC20")
	ownable, _ := r.ClassByName("Ownable")
	assert.ElementsMatch(t, []common.Hash{erc20.InitCodeHash(), ownable.InitCodeHash()}, artifact.Dependencies)

	// Only successful transactions count
	nonce, err := sstore.GetEoaNonce(acct1)
	assert.Nil(t, err)
	assert.Equal(t, uint64(3), nonce)
	nonce, err = sstore.GetEoaNonce(acct2)
	assert.Nil(t, err)
	assert.Equal(t, uint64(0), nonce)

	// Replaying a persisted block fails
	_, err = p.ProcessBlock(context.Background(), header(1), nil)
	assert.NotNil(t, err)

	// The next create uses the persisted nonce
	res, err = p.ProcessBlock(context.Background(), header(2), [][]byte{
		createTx(t, 6, acct1, tokenClass, "Second", "SND", 6),
		callTx(t, 7, acct2, token, "transfer", lower(acct1), "100"),
	})
	assert.Nil(t, err)
	assert.Equal(t, crypto.CreateAddress(acct1, 3), res.Outcomes[0].ContractAddress)
	assert.Equal(t, StatusSuccess, res.Outcomes[1].Status)
	balances = storedState(t, sstore, token)["balanceOf"].(map[string]interface{})
	assert.Equal(t, "800", balances[lower(acct1)])
	assert.Equal(t, "200", balances[lower(acct2)])
	height, hash, err := sstore.GetPersistedHeight()
	assert.Nil(t, err)
	assert.Equal(t, uint64(2), height)
	assert.Equal(t, header(2).Hash, hash)
}

func TestProcessCounter(t *testing.T) {
	defer os.RemoveAll(testDS)

	p, r, sstore := newTestProcessor(t, Opts{})
	defer sstore.Shutdown()

	counterClass, _ := r.ClassByName("Counter")
	counter := crypto.CreateAddress(acct1, 0)
	res, err := p.ProcessBlock(context.Background(), header(1), [][]byte{
		createTx(t, 1, acct1, counterClass, "5"),
		callTx(t, 2, acct2, counter, "increment"),
		callTx(t, 3, acct2, counter, "incrementBy", 3),
		callTx(t, 4, acct2, counter, "incrementBy", 150),
		callTx(t, 5, acct2, counter, "reset"),
		callTx(t, 6, acct2, counter, "missing"),
	})
	assert.Nil(t, err)
	assert.Equal(t, StatusSuccess, res.Outcomes[0].Status)
	assert.Equal(t, counter, res.Outcomes[0].ContractAddress)
	assert.Equal(t, "6", res.Outcomes[1].ReturnValue)
	assert.Len(t, res.Outcomes[1].Logs, 1)
	assert.Equal(t, "Incremented", res.Outcomes[1].Logs[0].Event)
	assert.Equal(t, "6", res.Outcomes[1].Logs[0].Data["count"])
	assert.Equal(t, "9", res.Outcomes[2].ReturnValue)

	// Exceeding the loop bound reverts every iteration
	assert.Equal(t, StatusFailure, res.Outcomes[3].Status)
	assert.Contains(t, res.Outcomes[3].Error, vmerrors.MsgMaxIterationsExceeded)
	assert.Equal(t, StatusFailure, res.Outcomes[4].Status)
	assert.Contains(t, res.Outcomes[4].Error, "Counter: caller is not the owner")
	assert.Equal(t, StatusFailure, res.Outcomes[5].Status)

	state := storedState(t, sstore, counter)
	assert.Equal(t, "9", state["count"])
	assert.Equal(t, lower(acct1), state["owner"])
}

func TestProcessFactory(t *testing.T) {
	defer os.RemoveAll(testDS)

	p, r, sstore := newTestProcessor(t, Opts{})
	defer sstore.Shutdown()

	factoryClass, _ := r.ClassByName("TokenFactory")
	tokenClass, _ := r.ClassByName("Token")
	factory := crypto.CreateAddress(acct1, 0)
	salt := common.HexToHash("0x01").Hex()
	res, err := p.ProcessBlock(context.Background(), header(1), [][]byte{
		createTx(t, 1, acct1, factoryClass),
		callTx(t, 2, acct2, factory, "predict", salt),
		callTx(t, 3, acct2, factory, "deploy", "Fac", "FAC", salt, "500"),
		callTx(t, 4, acct2, factory, "deploy", "Fac", "FAC", salt, "500"),
	})
	assert.Nil(t, err)
	assert.Equal(t, StatusSuccess, res.Outcomes[0].Status)
	assert.Equal(t, StatusSuccess, res.Outcomes[1].Status)
	assert.Equal(t, StatusSuccess, res.Outcomes[2].Status)
	predicted := res.Outcomes[1].ReturnValue
	assert.Equal(t, predicted, res.Outcomes[2].ReturnValue)
	assert.Equal(t, lower(crypto.CreateAddress2(factory, common.HexToHash(salt), tokenClass.InitCodeHash().Bytes())), predicted)

	// Same salt collides
	assert.Equal(t, StatusFailure, res.Outcomes[3].Status)

	deploy := res.Outcomes[2]
	assert.True(t, len(deploy.Calls) >= 4)
	assert.Equal(t, 1, deploy.Calls[1].InternalIndex)

	token := common.HexToAddress(predicted.(string))
	state := storedState(t, sstore, token)
	assert.Equal(t, lower(acct2), state["owner"])
	assert.Equal(t, "500", state["balanceOf"].(map[string]interface{})[lower(acct2)])
	factoryState := storedState(t, sstore, factory)
	assert.Equal(t, "1", factoryState["deployed"])

	record, err := sstore.GetContract(token)
	assert.Nil(t, err)
	assert.Equal(t, factory, record.Deployer)
	assert.Equal(t, txHash(3), record.CreatedTx)

	artifact, err := sstore.GetArtifact(factoryClass.InitCodeHash())
	assert.Nil(t, err)
	assert.Equal(t, []common.Hash{tokenClass.InitCodeHash()}, artifact.Dependencies)
	_, err = sstore.GetArtifact(tokenClass.InitCodeHash())
	assert.Nil(t, err)

	nonce, err := sstore.GetContractNonce(factory)
	assert.Nil(t, err)
	assert.Equal(t, uint64(1), nonce)
}

func TestStartBlock(t *testing.T) {
	defer os.RemoveAll(testDS)

	p, r, sstore := newTestProcessor(t, Opts{StartBlock: 10})
	defer sstore.Shutdown()

	counterClass, _ := r.ClassByName("Counter")
	res, err := p.ProcessBlock(context.Background(), header(5), [][]byte{
		createTx(t, 1, acct1, counterClass, 0),
	})
	assert.Nil(t, err)
	assert.Equal(t, StatusSkipped, res.Outcomes[0].Status)

	_, err = sstore.GetTransaction(txHash(1))
	assert.Nil(t, err)
	_, err = sstore.GetReceipt(txHash(1))
	assert.ErrorIs(t, err, datastore.ErrNotFound)
	record, err := sstore.GetContract(crypto.CreateAddress(acct1, 0))
	assert.Nil(t, err)
	assert.Nil(t, record)
	height, _, err := sstore.GetPersistedHeight()
	assert.Nil(t, err)
	assert.Equal(t, uint64(5), height)
}

func TestGasLimit(t *testing.T) {
	defer os.RemoveAll(testDS)

	p, r, sstore := newTestProcessor(t, Opts{GasLimit: 600})
	defer sstore.Shutdown()

	tokenClass, _ := r.ClassByName("Token")
	res, err := p.ProcessBlock(context.Background(), header(1), [][]byte{
		createTx(t, 1, acct1, tokenClass, "Test", "TST", 18),
	})
	assert.Nil(t, err)
	outcome := res.Outcomes[0]
	assert.Equal(t, StatusFailure, outcome.Status)
	assert.Contains(t, outcome.Error, vmerrors.MsgGasLimitExceeded)
	assert.True(t, outcome.GasUsed > 600)
	assert.Empty(t, res.Records.Contracts)
	assert.Empty(t, res.Records.Artifacts)
}

func TestSupportedInitCodeHashes(t *testing.T) {
	defer os.RemoveAll(testDS)

	r := newTestRegistry(t)
	counterClass, _ := r.ClassByName("Counter")
	tokenClass, _ := r.ClassByName("Token")
	sstore := newTestStore(t)
	defer sstore.Shutdown()
	p, err := NewProcessor(Opts{SupportedInitCodeHashes: []common.Hash{counterClass.InitCodeHash()}}, r, sstore)
	assert.Nil(t, err)

	unknown := common.HexToHash("0xdead")
	res, err := p.ProcessBlock(context.Background(), header(1), [][]byte{
		createTx(t, 1, acct1, tokenClass, "Test", "TST", 18),
		payload(t, txHash(2), acct1, "create", PayloadData{InitCodeHash: &unknown}),
		createTx(t, 3, acct1, counterClass, 1),
		[]byte("not a payload"),
	})
	assert.Nil(t, err)
	assert.Equal(t, StatusFailure, res.Outcomes[0].Status)
	assert.Contains(t, res.Outcomes[0].Error, "unsupported init code hash")
	assert.Equal(t, StatusFailure, res.Outcomes[1].Status)
	assert.Equal(t, StatusSuccess, res.Outcomes[2].Status)
	assert.Equal(t, StatusFailure, res.Outcomes[3].Status)
	assert.Equal(t, crypto.Keccak256Hash([]byte("not a payload")), res.Outcomes[3].TransactionHash)
}

func TestDecodePayload(t *testing.T) {
	_, err := DecodePayload([]byte(`{"txHash":"0x01","op":"delete"}`))
	assert.NotNil(t, err)
	_, err = DecodePayload([]byte(`{"txHash":"0x01","op":"call","data":{"function":"f"}}`))
	assert.NotNil(t, err)
	_, err = DecodePayload([]byte(`{"op":"create","data":{"initCodeHash":"0x0000000000000000000000000000000000000000000000000000000000000001"}}`))
	assert.NotNil(t, err)

	p, err := DecodePayload([]byte(`{"txHash":"0x0000000000000000000000000000000000000000000000000000000000000001","op":"call","data":{"to":"0x70997970C51812dc3A010C7d01b50e0d17dc79C8","function":"f","args":{"amount":10}}}`))
	assert.Nil(t, err)
	args, err := p.DecodeArgs()
	assert.Nil(t, err)
	assert.Len(t, args, 1)
	assert.Equal(t, json.Number("10"), args[0].(map[string]interface{})["amount"])

	p.Data.Args = json.RawMessage(`"x"`)
	_, err = p.DecodeArgs()
	assert.NotNil(t, err)
	p.Data.Args = nil
	args, err = p.DecodeArgs()
	assert.Nil(t, err)
	assert.Empty(t, args)
}

func TestInfraFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	sstore := statestore.NewMockStateStore(ctrl)
	artifacts := NewMockArtifactLookup(ctrl)
	p, err := NewProcessor(Opts{}, artifacts, sstore)
	assert.Nil(t, err)

	// Height lookup failure aborts the block
	sstore.EXPECT().GetPersistedHeight().Return(uint64(0), common.Hash{}, errors.New("disk"))
	_, err = p.ProcessBlock(context.Background(), header(1), nil)
	assert.True(t, vmerrors.IsFatal(err))

	// A persisted contract with an unknown class aborts the block
	target := common.HexToAddress(testAcct2Str)
	missing := common.HexToHash("0xbeef")
	sstore.EXPECT().GetPersistedHeight().Return(uint64(0), common.Hash{}, nil)
	sstore.EXPECT().GetContracts(gomock.Any()).Return(map[common.Address]*statestore.ContractRecord{
		target: {Address: target, InitCodeHash: missing},
	}, nil)
	artifacts.EXPECT().FindContractArtifact(missing).Return(nil, contract.ErrArtifactNotFound)
	_, err = p.ProcessBlock(context.Background(), header(1), [][]byte{callTx(t, 1, acct1, target, "f")})
	assert.True(t, vmerrors.IsFatal(err))

	// A commit failure aborts the block
	txn := statestore.NewMockTransaction(ctrl)
	sstore.EXPECT().GetPersistedHeight().Return(uint64(0), common.Hash{}, nil)
	sstore.EXPECT().NewTransaction().Return(txn, nil)
	txn.EXPECT().ImportBlock(gomock.Any()).Return(nil)
	txn.EXPECT().Commit().Return(errors.New("disk"))
	txn.EXPECT().Discard()
	_, err = p.ProcessBlock(context.Background(), header(1), nil)
	assert.True(t, vmerrors.IsFatal(err))
}
