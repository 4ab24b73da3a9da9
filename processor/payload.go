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
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/wcgcyx/rubidity/vm"
)

// Header is the header of a block to process.
type Header struct {
	Number    uint64      `json:"number"`
	Hash      common.Hash `json:"hash"`
	Timestamp uint64      `json:"timestamp"`
}

// Block is a header with its ordered transaction payloads.
type Block struct {
	Header
	Transactions []json.RawMessage `json:"transactions"`
}

// Payload is a contract transaction.
type Payload struct {
	TxHash common.Hash    `json:"txHash"`
	From   common.Address `json:"from"`
	Op     string         `json:"op"`
	Data   PayloadData    `json:"data"`
}

// PayloadData is the operation of a contract transaction.
type PayloadData struct {
	To           *common.Address `json:"to,omitempty"`
	InitCodeHash *common.Hash    `json:"initCodeHash,omitempty"`
	Function     string          `json:"function,omitempty"`
	// Args is either a positional array or an object of named arguments.
	Args json.RawMessage `json:"args,omitempty"`
	Salt *common.Hash    `json:"salt,omitempty"`
}

// DecodePayload decodes and checks a transaction payload.
func DecodePayload(raw []byte) (*Payload, error) {
	p := &Payload{}
	if err := json.Unmarshal(raw, p); err != nil {
		return nil, fmt.Errorf("fail to decode payload: %w", err)
	}
	if p.TxHash == (common.Hash{}) {
		return nil, fmt.Errorf("payload without transaction hash")
	}
	callType, ok := vm.ParseCallType(p.Op)
	if !ok {
		return nil, fmt.Errorf("unknown op %q", p.Op)
	}
	switch callType {
	case vm.CallTypeCreate:
		if p.Data.InitCodeHash == nil {
			return nil, fmt.Errorf("create without init code hash")
		}
	case vm.CallTypeCall:
		if p.Data.To == nil || p.Data.Function == "" {
			return nil, fmt.Errorf("call without target or function")
		}
	}
	return p, nil
}

// CallType gets the call type of the payload.
func (p *Payload) CallType() vm.CallType {
	res, _ := vm.ParseCallType(p.Op)
	return res
}

// DecodeArgs decodes the arguments. Numbers are kept as json.Number.
func (p *Payload) DecodeArgs() ([]interface{}, error) {
	raw := bytes.TrimSpace(p.Data.Args)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []interface{}{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("fail to decode args: %w", err)
	}
	switch a := v.(type) {
	case []interface{}:
		return a, nil
	case map[string]interface{}:
		return []interface{}{a}, nil
	}
	return nil, fmt.Errorf("args must be an array or an object")
}

// Request gets the call request of the payload.
func (p *Payload) Request() (vm.CallRequest, error) {
	args, err := p.DecodeArgs()
	if err != nil {
		return vm.CallRequest{}, err
	}
	return vm.CallRequest{
		To:           p.Data.To,
		InitCodeHash: p.Data.InitCodeHash,
		Function:     p.Data.Function,
		Args:         args,
		CallType:     p.CallType(),
		Salt:         p.Data.Salt,
	}, nil
}
