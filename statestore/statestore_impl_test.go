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
	"os"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ipfs/go-datastore"
	"github.com/stretchr/testify/assert"
)

const (
	testDS       = "./test-ds"
	testAcct1Str = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	testAcct2Str = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
	testContract = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
)

var (
	testTx1  = common.HexToHash("0x01")
	testTx2  = common.HexToHash("0x02")
	testHash = common.HexToHash("0xaa")
	testDep  = common.HexToHash("0xbb")
)

func TestMain(m *testing.M) {
	os.RemoveAll(testDS)
	os.Mkdir(testDS, os.ModePerm)
	defer os.RemoveAll(testDS)
	m.Run()
}

func newTestStore(t *testing.T, retain uint64) StateStore {
	sstore, err := NewStateStoreImpl(context.Background(), Opts{
		Path:              testDS,
		GCPeriod:          time.Minute,
		SnapshotsToRetain: retain,
		ReadTimeout:       time.Second,
		WriteTimeout:      time.Second,
	})
	assert.Nil(t, err)
	assert.NotNil(t, sstore)
	return sstore
}

func encodeState(t *testing.T, state map[string]interface{}) []byte {
	bs, err := EncodeValue(state)
	assert.Nil(t, err)
	return bs
}

func contractRecord(t *testing.T, height uint64, count string) ContractRecord {
	return ContractRecord{
		Address:      common.HexToAddress(testContract),
		InitCodeHash: testHash,
		ClassName:    "Counter",
		Deployer:     common.HexToAddress(testAcct1Str),
		CreatedBlock: 1,
		CreatedTx:    testTx1,
		UpdatedBlock: height,
		State:        encodeState(t, map[string]interface{}{"count": count}),
	}
}

func importBlock(t *testing.T, sstore StateStore, records BlockRecords) error {
	txn, err := sstore.NewTransaction()
	assert.Nil(t, err)
	defer txn.Discard()
	if err = txn.ImportBlock(records); err != nil {
		return err
	}
	return txn.Commit()
}

func TestNewStateStore(t *testing.T) {
	defer os.RemoveAll(testDS)

	ctx := context.Background()

	// Empty path should fail
	_, err := NewStateStoreImpl(ctx, Opts{
		GCPeriod:     time.Minute,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	assert.NotNil(t, err)

	sstore := newTestStore(t, 0)
	height, hash, err := sstore.GetPersistedHeight()
	assert.Nil(t, err)
	assert.Equal(t, uint64(0), height)
	assert.Equal(t, common.Hash{}, hash)

	err = importBlock(t, sstore, BlockRecords{Number: 5, Hash: testHash})
	assert.Nil(t, err)
	sstore.Shutdown()

	// Open existing should work
	sstore = newTestStore(t, 0)
	defer sstore.Shutdown()
	height, hash, err = sstore.GetPersistedHeight()
	assert.Nil(t, err)
	assert.Equal(t, uint64(5), height)
	assert.Equal(t, testHash, hash)

	// Importing at or below the persisted height should fail
	err = importBlock(t, sstore, BlockRecords{Number: 5, Hash: testHash})
	assert.NotNil(t, err)
}

func TestImportBlock(t *testing.T) {
	defer os.RemoveAll(testDS)

	sstore := newTestStore(t, 0)
	defer sstore.Shutdown()

	acct1 := common.HexToAddress(testAcct1Str)
	acct2 := common.HexToAddress(testAcct2Str)
	contract := contractRecord(t, 1, "1")
	logData := encodeState(t, map[string]interface{}{"count": "1"})
	args := encodeState(t, map[string]interface{}{"start": "0"})
	records := BlockRecords{
		Number: 1,
		Hash:   testHash,
		Transactions: []TransactionRecord{
			{Hash: testTx1, BlockNumber: 1, BlockHash: testHash, Index: 0, From: acct1, Payload: []byte(`{"op":"create"}`)},
			{Hash: testTx2, BlockNumber: 1, BlockHash: testHash, Index: 1, From: acct2, Payload: []byte(`{"op":"call"}`)},
		},
		Receipts: []Receipt{
			{
				TransactionHash: testTx1,
				BlockNumber:     1,
				Index:           0,
				From:            acct1,
				Status:          "success",
				ContractAddress: contract.Address,
				GasUsed:         560,
				Logs: []LogRecord{
					{Contract: contract.Address, Event: "Incremented", Topic: testDep, Data: logData, LogIndex: 0},
				},
			},
			{TransactionHash: testTx2, BlockNumber: 1, Index: 1, From: acct2, Status: "failure", Error: "nope", GasUsed: 500},
		},
		Calls: map[common.Hash][]CallRecord{
			testTx1: {
				{
					CallIndex:    0,
					CallType:     "create",
					From:         acct1,
					To:           contract.Address,
					InitCodeHash: testHash,
					Function:     "constructor",
					Args:         args,
					Status:       "success",
					StartTime:    100,
					EndTime:      200,
				},
			},
		},
		Contracts: []ContractRecord{contract},
		Artifacts: []Artifact{
			{InitCodeHash: testHash, Name: "Counter", Source: "src", ABI: []byte("[]"), Dependencies: []common.Hash{testDep}},
		},
		ContractNonces: map[common.Address]uint64{contract.Address: 2},
		EoaNonces:      map[common.Address]uint64{acct1: 1, acct2: 1},
	}
	assert.Nil(t, importBlock(t, sstore, records))

	tx, err := sstore.GetTransaction(testTx2)
	assert.Nil(t, err)
	assert.Equal(t, records.Transactions[1], *tx)

	receipt, err := sstore.GetReceipt(testTx1)
	assert.Nil(t, err)
	assert.Equal(t, "success", receipt.Status)
	assert.Equal(t, contract.Address, receipt.ContractAddress)
	assert.Equal(t, uint64(560), receipt.GasUsed)
	assert.Len(t, receipt.Logs, 1)
	assert.Equal(t, records.Receipts[0].Logs[0], receipt.Logs[0])

	receipt, err = sstore.GetReceipt(testTx2)
	assert.Nil(t, err)
	assert.Equal(t, "nope", receipt.Error)
	assert.Empty(t, receipt.Logs)

	calls, err := sstore.GetCalls(testTx1)
	assert.Nil(t, err)
	assert.Len(t, calls, 1)
	assert.Equal(t, "constructor", calls[0].Function)
	assert.Equal(t, args, calls[0].Args)
	assert.Equal(t, int64(200), calls[0].EndTime)

	_, err = sstore.GetCalls(testTx2)
	assert.ErrorIs(t, err, datastore.ErrNotFound)

	stored, err := sstore.GetContract(contract.Address)
	assert.Nil(t, err)
	assert.Equal(t, contract, *stored)
	state, err := DecodeState(stored.State)
	assert.Nil(t, err)
	assert.Equal(t, "1", state["count"])

	missing, err := sstore.GetContract(acct1)
	assert.Nil(t, err)
	assert.Nil(t, missing)

	artifact, err := sstore.GetArtifact(testHash)
	assert.Nil(t, err)
	assert.Equal(t, "Counter", artifact.Name)
	assert.Equal(t, []common.Hash{testDep}, artifact.Dependencies)
	deps, err := sstore.GetDependencies(testHash)
	assert.Nil(t, err)
	assert.Equal(t, []common.Hash{testDep}, deps)
	_, err = sstore.GetArtifact(testDep)
	assert.ErrorIs(t, err, datastore.ErrNotFound)

	snap, err := sstore.GetSnapshot(1, contract.Address)
	assert.Nil(t, err)
	assert.Equal(t, contract.State, snap)

	// Nonces accumulate across blocks
	assert.Nil(t, importBlock(t, sstore, BlockRecords{
		Number:         2,
		Hash:           testDep,
		ContractNonces: map[common.Address]uint64{contract.Address: 1},
		EoaNonces:      map[common.Address]uint64{acct1: 0},
	}))
	nonce, err := sstore.GetContractNonce(contract.Address)
	assert.Nil(t, err)
	assert.Equal(t, uint64(3), nonce)
	nonce, err = sstore.GetEoaNonce(acct1)
	assert.Nil(t, err)
	assert.Equal(t, uint64(1), nonce)
	nonce, err = sstore.GetEoaNonce(contract.Address)
	assert.Nil(t, err)
	assert.Equal(t, uint64(0), nonce)
}

func TestGetContracts(t *testing.T) {
	defer os.RemoveAll(testDS)

	sstore := newTestStore(t, 0)
	defer sstore.Shutdown()

	contract := contractRecord(t, 1, "7")
	assert.Nil(t, importBlock(t, sstore, BlockRecords{Number: 1, Hash: testHash, Contracts: []ContractRecord{contract}}))

	other := common.HexToAddress(testAcct2Str)
	res, err := sstore.GetContracts([]common.Address{contract.Address, other, contract.Address})
	assert.Nil(t, err)
	assert.Len(t, res, 1)
	assert.Equal(t, contract, *res[contract.Address])
	_, ok := res[other]
	assert.False(t, ok)
}

func TestSnapshotGC(t *testing.T) {
	defer os.RemoveAll(testDS)

	sstore := newTestStore(t, 1)
	defer sstore.Shutdown()

	for height := uint64(1); height <= 3; height++ {
		contract := contractRecord(t, height, "1")
		assert.Nil(t, importBlock(t, sstore, BlockRecords{Number: height, Hash: testHash, Contracts: []ContractRecord{contract}}))
	}
	addr := common.HexToAddress(testContract)
	for height := uint64(1); height <= 3; height++ {
		_, err := sstore.GetSnapshot(height, addr)
		assert.Nil(t, err)
	}

	cleaned, err := sstore.(*stateStoreImpl).gcRound()
	assert.Nil(t, err)
	assert.Equal(t, 2, cleaned)

	_, err = sstore.GetSnapshot(1, addr)
	assert.ErrorIs(t, err, datastore.ErrNotFound)
	_, err = sstore.GetSnapshot(2, addr)
	assert.ErrorIs(t, err, datastore.ErrNotFound)
	_, err = sstore.GetSnapshot(3, addr)
	assert.Nil(t, err)

	// The latest contract record is kept
	stored, err := sstore.GetContract(addr)
	assert.Nil(t, err)
	assert.Equal(t, uint64(3), stored.UpdatedBlock)

	cleaned, err = sstore.(*stateStoreImpl).gcRound()
	assert.Nil(t, err)
	assert.Equal(t, 0, cleaned)
}

func TestValueCodec(t *testing.T) {
	value := map[string]interface{}{
		"balances": map[string]interface{}{"0xabc": "10"},
		"list":     []interface{}{"1", "2"},
		"flag":     true,
	}
	bs, err := EncodeValue(value)
	assert.Nil(t, err)
	again, err := EncodeValue(value)
	assert.Nil(t, err)
	assert.Equal(t, bs, again)

	decoded, err := DecodeValue(bs)
	assert.Nil(t, err)
	assert.Equal(t, value, decoded)

	state, err := DecodeState(nil)
	assert.Nil(t, err)
	assert.Empty(t, state)
}
