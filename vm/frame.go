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
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/wcgcyx/rubidity/types"
)

// CallType is the type of a frame.
type CallType uint8

const (
	CallTypeCall CallType = iota
	CallTypeCreate
)

func (c CallType) String() string {
	if c == CallTypeCreate {
		return "create"
	}
	return "call"
}

// ParseCallType parses "call" or "create".
func ParseCallType(s string) (CallType, bool) {
	switch s {
	case "call":
		return CallTypeCall, true
	case "create":
		return CallTypeCreate, true
	}
	return 0, false
}

// Status is the status of a frame.
type Status uint8

const (
	StatusPending Status = iota
	StatusSuccess
	StatusFailure
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	default:
		return "pending"
	}
}

// Log is an event emitted by a contract.
type Log struct {
	Contract common.Address
	Event    string
	Topic    common.Hash
	Data     map[string]interface{}
	LogIndex uint64
}

// Frame is one contract invocation on the call stack.
type Frame struct {
	To           common.Address
	InitCodeHash common.Hash
	Function     string
	Args         []interface{}
	CallType     CallType
	From         common.Address
	Salt         *common.Hash
	Static       bool

	// Block and transaction coordinates
	BlockNumber      uint64
	BlockHash        common.Hash
	TransactionHash  common.Hash
	TransactionIndex uint64

	// InternalIndex is the stack depth before the frame was pushed.
	InternalIndex int

	// CallIndex is the position of the frame among all frames of the transaction.
	CallIndex int

	Status      Status
	Error       string
	ReturnValue *types.TypedValue
	Logs        []Log

	StartTime time.Time
	EndTime   time.Time
}

// Succeeded checks if the frame completed successfully.
func (f *Frame) Succeeded() bool {
	return f.Status == StatusSuccess
}
