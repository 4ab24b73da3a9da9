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
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/wcgcyx/rubidity/gas"
	"github.com/wcgcyx/rubidity/statestore"
	"github.com/wcgcyx/rubidity/types"
	"github.com/wcgcyx/rubidity/vm"
	"github.com/wcgcyx/rubidity/vmerrors"
)

// Transaction status
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusSkipped = "skipped"
)

// StateDiff is the change of one state variable.
type StateDiff struct {
	Contract common.Address
	Variable string
	// Before is nil for a contract created in the transaction.
	Before interface{}
	After  interface{}
}

// Outcome is the result of one transaction.
type Outcome struct {
	TransactionHash common.Hash
	Index           uint64
	From            common.Address
	Status          string
	Error           string

	// Set for a successful create
	ContractAddress common.Address
	ReturnValue     interface{}

	GasUsed   gas.Gas
	GasLedger []gas.Entry

	Calls      []*vm.Frame
	Logs       []vm.Log
	StateDiffs []StateDiff
}

// Result is the result of a block.
type Result struct {
	Number   uint64
	Hash     common.Hash
	Outcomes []*Outcome
	Records  statestore.BlockRecords
}

// logs gets the logs of the succeeded frames ordered by log index.
func logs(calls []*vm.Frame) []vm.Log {
	res := make([]vm.Log, 0)
	for _, frame := range calls {
		if frame.Succeeded() {
			res = append(res, frame.Logs...)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].LogIndex < res[j].LogIndex
	})
	return res
}

// receipt gets the persisted form of an outcome.
func receipt(number uint64, o *Outcome) (statestore.Receipt, error) {
	res := statestore.Receipt{
		TransactionHash: o.TransactionHash,
		BlockNumber:     number,
		Index:           o.Index,
		From:            o.From,
		Status:          o.Status,
		Error:           o.Error,
		ContractAddress: o.ContractAddress,
		GasUsed:         uint64(o.GasUsed),
		Logs:            make([]statestore.LogRecord, 0, len(o.Logs)),
	}
	for _, l := range o.Logs {
		data, err := statestore.EncodeValue(l.Data)
		if err != nil {
			return statestore.Receipt{}, vmerrors.NewInfraError(err, "fail to encode log %v", l.Event)
		}
		res.Logs = append(res.Logs, statestore.LogRecord{
			Contract: l.Contract,
			Event:    l.Event,
			Topic:    l.Topic,
			Data:     data,
			LogIndex: l.LogIndex,
		})
	}
	return res, nil
}

// callRecords gets the persisted form of the frames of a transaction.
func callRecords(calls []*vm.Frame) ([]statestore.CallRecord, error) {
	res := make([]statestore.CallRecord, 0, len(calls))
	for _, frame := range calls {
		args, err := statestore.EncodeValue(frame.Args)
		if err != nil {
			return nil, vmerrors.NewInfraError(err, "fail to encode args of call %v", frame.CallIndex)
		}
		var ret []byte
		if frame.ReturnValue != nil {
			ret, err = statestore.EncodeValue(types.Serialize(frame.ReturnValue))
			if err != nil {
				return nil, vmerrors.NewInfraError(err, "fail to encode return value of call %v", frame.CallIndex)
			}
		}
		res = append(res, statestore.CallRecord{
			CallIndex:     uint64(frame.CallIndex),
			InternalIndex: uint64(frame.InternalIndex),
			CallType:      frame.CallType.String(),
			From:          frame.From,
			To:            frame.To,
			InitCodeHash:  frame.InitCodeHash,
			Function:      frame.Function,
			Args:          args,
			ReturnValue:   ret,
			Static:        frame.Static,
			Status:        frame.Status.String(),
			Error:         frame.Error,
			StartTime:     frame.StartTime.UnixNano(),
			EndTime:       frame.EndTime.UnixNano(),
		})
	}
	return res, nil
}
