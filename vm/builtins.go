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
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/wcgcyx/rubidity/contract"
	"github.com/wcgcyx/rubidity/gas"
	"github.com/wcgcyx/rubidity/types"
	"github.com/wcgcyx/rubidity/vmerrors"
)

// builtin runs a builtin by name.
func (sb *sandbox) builtin(name string, args []interface{}) (*types.TypedValue, error) {
	switch name {
	case contract.BuiltinRequire:
		return nil, sb.require(args)
	case contract.BuiltinRevert:
		msg := "reverted"
		if len(args) > 0 {
			msg = fmt.Sprintf("%v", args[0])
		}
		return nil, vmerrors.NewContractError(msg)
	case contract.BuiltinEmit:
		return nil, sb.emit(args)
	case contract.BuiltinThis:
		typ, err := types.ContractOf(sb.inst.Class.Name())
		if err != nil {
			return nil, err
		}
		return types.Validate(typ, sb.inst.Address)
	case contract.BuiltinMsg:
		if err := expectField(name, args, "sender"); err != nil {
			return nil, err
		}
		return types.Validate(types.Address, sb.frame.From)
	case contract.BuiltinTx:
		return sb.txField(args)
	case contract.BuiltinBlock:
		return sb.blockField(args)
	case contract.BuiltinKeccak256:
		return sb.keccak256(args)
	case contract.BuiltinCreate2Address:
		return sb.create2Address(args)
	case contract.BuiltinForLoop:
		return nil, sb.forLoop(args)
	case contract.BuiltinNew:
		return sb.create(args)
	case contract.BuiltinABI:
		return sb.abiEncodePacked(args)
	case contract.BuiltinJSON:
		return sb.jsonStringify(args)
	case contract.BuiltinSqrt:
		return sb.sqrt(args)
	case contract.BuiltinEcrecover:
		return sb.ecrecover(args)
	}
	return nil, &vmerrors.MethodResolutionError{Name: name}
}

func expectField(name string, args []interface{}, fields ...string) error {
	if len(args) != 1 {
		return &vmerrors.ArgumentError{Function: name, Msg: wrongArgs(1, len(args))}
	}
	field, _ := args[0].(string)
	for _, f := range fields {
		if f == field {
			return nil
		}
	}
	return &vmerrors.MethodResolutionError{Name: fmt.Sprintf("%v.%v", name, args[0])}
}

func (sb *sandbox) require(args []interface{}) error {
	if len(args) == 0 || len(args) > 2 {
		return &vmerrors.ArgumentError{Function: contract.BuiltinRequire, Msg: wrongArgs(2, len(args))}
	}
	cond, err := types.Validate(types.Bool, args[0])
	if err != nil {
		return err
	}
	if cond.Unbox().(bool) {
		return nil
	}
	msg := "requirement failed"
	if len(args) == 2 {
		msg = fmt.Sprintf("%v", args[1])
	}
	return vmerrors.NewContractError(msg)
}

func (sb *sandbox) txField(args []interface{}) (*types.TypedValue, error) {
	if err := expectField(contract.BuiltinTx, args, "origin", "hash"); err != nil {
		return nil, err
	}
	tx := sb.cs.host.Tx()
	if args[0] == "origin" {
		return types.Validate(types.Address, tx.Origin)
	}
	return types.Validate(types.Bytes32, tx.Hash)
}

func (sb *sandbox) blockField(args []interface{}) (*types.TypedValue, error) {
	if err := expectField(contract.BuiltinBlock, args, "number", "timestamp", "hash"); err != nil {
		return nil, err
	}
	block := sb.cs.host.Block()
	switch args[0] {
	case "number":
		return types.Validate(types.Uint256, block.Number)
	case "timestamp":
		return types.Validate(types.Uint256, block.Timestamp)
	}
	return types.Validate(types.Bytes32, block.Hash)
}

// emit appends a log of a declared event to the frame.
func (sb *sandbox) emit(args []interface{}) error {
	if sb.readOnly {
		return vmerrors.NewContractError("cannot emit event in read-only context")
	}
	if len(args) == 0 || len(args) > 2 {
		return &vmerrors.ArgumentError{Function: contract.BuiltinEmit, Msg: wrongArgs(2, len(args))}
	}
	if err := sb.cs.host.Meter().ChargeAndCheck(gas.OpEmit); err != nil {
		return err
	}
	name, ok := args[0].(string)
	if !ok {
		return vmerrors.NewTypeError("invalid event name %v", args[0])
	}
	ev, ok := sb.inst.Class.Event(name)
	if !ok {
		return vmerrors.NewContractError("event %v not found in %v", name, sb.inst.Class.Name())
	}
	values := make(map[string]interface{})
	if len(args) == 2 {
		values, ok = args[1].(map[string]interface{})
		if !ok {
			return vmerrors.NewTypeError("event data must be a map")
		}
	}
	data := make(map[string]interface{}, len(ev.Params))
	missing := make([]string, 0)
	sigTypes := make([]string, len(ev.Params))
	for i, p := range ev.Params {
		sigTypes[i] = p.Type.String()
		v, ok := values[p.Name]
		if !ok {
			missing = append(missing, p.Name)
			continue
		}
		tv, err := types.Validate(p.Type, v)
		if err != nil {
			return err
		}
		data[p.Name] = types.Serialize(tv)
	}
	unexpected := make([]string, 0)
	for k := range values {
		if _, ok := data[k]; !ok && !containsName(missing, k) {
			unexpected = append(unexpected, k)
		}
	}
	sort.Strings(unexpected)
	if len(missing) > 0 || len(unexpected) > 0 {
		return &vmerrors.ArgumentError{Function: name, Missing: missing, Unexpected: unexpected}
	}
	sb.frame.Logs = append(sb.frame.Logs, Log{
		Contract: sb.inst.Address,
		Event:    name,
		Topic:    crypto.Keccak256Hash([]byte(fmt.Sprintf("%v(%v)", name, strings.Join(sigTypes, ",")))),
		Data:     data,
		LogIndex: sb.cs.host.NextLogIndex(),
	})
	return nil
}

func containsName(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// keccak256 hashes the packed form of a value. Plain strings hash their utf-8 content.
func (sb *sandbox) keccak256(args []interface{}) (*types.TypedValue, error) {
	if len(args) != 1 {
		return nil, &vmerrors.ArgumentError{Function: contract.BuiltinKeccak256, Msg: wrongArgs(1, len(args))}
	}
	if err := sb.cs.host.Meter().ChargeAndCheck(gas.OpKeccak256); err != nil {
		return nil, err
	}
	var input []byte
	if s, ok := args[0].(string); ok && !strings.HasPrefix(s, "0x") {
		input = []byte(s)
	} else {
		tv, err := types.Box(args[0])
		if err != nil {
			return nil, err
		}
		input, err = types.EncodePacked(tv)
		if err != nil {
			return nil, err
		}
	}
	return types.Validate(types.Bytes32, crypto.Keccak256Hash(input))
}

// create2Address predicts the address of a deployment with salt by deployer.
func (sb *sandbox) create2Address(args []interface{}) (*types.TypedValue, error) {
	if len(args) != 3 {
		return nil, &vmerrors.ArgumentError{Function: contract.BuiltinCreate2Address, Msg: wrongArgs(3, len(args))}
	}
	if err := sb.cs.host.Meter().ChargeAndCheck(gas.OpCreate2Address); err != nil {
		return nil, err
	}
	salt, err := types.Cast(types.Bytes32, args[0])
	if err != nil {
		return nil, err
	}
	deployer, err := types.Cast(types.Address, args[1])
	if err != nil {
		return nil, err
	}
	name, ok := args[2].(string)
	if !ok {
		return nil, vmerrors.NewTypeError("invalid contract name %v", args[2])
	}
	class, ok := sb.cs.host.ClassByName(name)
	if !ok {
		return nil, vmerrors.NewContractError("unknown contract %v", name)
	}
	saltHash, _ := salt.Hash()
	from, _ := deployer.Address()
	return types.Validate(types.Address, crypto.CreateAddress2(from, saltHash, class.InitCodeHash().Bytes()))
}

// create deploys an available contract class in a new frame.
// The first argument is the class name, an optional contract.Salt follows.
func (sb *sandbox) create(args []interface{}) (*types.TypedValue, error) {
	if len(args) == 0 {
		return nil, &vmerrors.ArgumentError{Function: contract.BuiltinNew, Msg: wrongArgs(1, 0)}
	}
	name, ok := args[0].(string)
	if !ok {
		return nil, vmerrors.NewTypeError("invalid contract name %v", args[0])
	}
	if name != sb.inst.Class.Name() && !containsName(sb.inst.Class.AvailableContracts(), name) {
		return nil, &vmerrors.MethodResolutionError{Name: name}
	}
	class, ok := sb.cs.host.ClassByName(name)
	if !ok {
		return nil, vmerrors.NewContractError("unknown contract %v", name)
	}
	rest := args[1:]
	var salt *common.Hash
	if len(rest) > 0 {
		if s, ok := rest[0].(contract.Salt); ok {
			tv, err := types.Cast(types.Bytes32, s.Value)
			if err != nil {
				return nil, err
			}
			h, _ := tv.Hash()
			salt = &h
			rest = rest[1:]
		}
	}
	hash := class.InitCodeHash()
	return sb.cs.Execute(CallRequest{
		InitCodeHash: &hash,
		Function:     contract.ConstructorName,
		Args:         rest,
		CallType:     CallTypeCreate,
		Salt:         salt,
		Static:       sb.readOnly,
	})
}

func (sb *sandbox) abiEncodePacked(args []interface{}) (*types.TypedValue, error) {
	if err := expectFieldPrefix(contract.BuiltinABI, args, "encodePacked"); err != nil {
		return nil, err
	}
	if err := sb.cs.host.Meter().ChargeAndCheck(gas.OpABIEncode); err != nil {
		return nil, err
	}
	values := make([]*types.TypedValue, 0, len(args)-1)
	for _, arg := range args[1:] {
		tv, err := types.Box(arg)
		if err != nil {
			return nil, err
		}
		values = append(values, tv)
	}
	enc, err := types.EncodePacked(values...)
	if err != nil {
		return nil, err
	}
	return types.Validate(types.Bytes, hexutil.Encode(enc))
}

func (sb *sandbox) jsonStringify(args []interface{}) (*types.TypedValue, error) {
	if err := expectFieldPrefix(contract.BuiltinJSON, args, "stringify"); err != nil {
		return nil, err
	}
	if len(args) != 2 {
		return nil, &vmerrors.ArgumentError{Function: "json.stringify", Msg: wrongArgs(1, len(args)-1)}
	}
	var v interface{} = args[1]
	if tv, ok := args[1].(*types.TypedValue); ok {
		v = types.Serialize(tv)
	}
	enc, err := json.Marshal(v)
	if err != nil {
		return nil, vmerrors.NewTypeError("cannot stringify %v: %v", args[1], err.Error())
	}
	return types.Validate(types.String, string(enc))
}

func expectFieldPrefix(name string, args []interface{}, field string) error {
	if len(args) == 0 {
		return &vmerrors.ArgumentError{Function: name, Msg: wrongArgs(1, 0)}
	}
	if f, _ := args[0].(string); f != field {
		return &vmerrors.MethodResolutionError{Name: fmt.Sprintf("%v.%v", name, args[0])}
	}
	return nil
}

// sqrt gets the integer square root of a uint256.
func (sb *sandbox) sqrt(args []interface{}) (*types.TypedValue, error) {
	if len(args) != 1 {
		return nil, &vmerrors.ArgumentError{Function: contract.BuiltinSqrt, Msg: wrongArgs(1, len(args))}
	}
	if err := sb.cs.host.Meter().ChargeAndCheck(gas.OpSqrt); err != nil {
		return nil, err
	}
	x, err := types.Validate(types.Uint256, args[0])
	if err != nil {
		return nil, err
	}
	n, _ := x.BigInt()
	v, _ := uint256.FromBig(n)
	return types.Validate(types.Uint256, new(uint256.Int).Sqrt(v))
}

// ecrecover gets the signer of a message hash, zero address if the signature is invalid.
func (sb *sandbox) ecrecover(args []interface{}) (*types.TypedValue, error) {
	if len(args) != 2 {
		return nil, &vmerrors.ArgumentError{Function: contract.BuiltinEcrecover, Msg: wrongArgs(2, len(args))}
	}
	if err := sb.cs.host.Meter().ChargeAndCheck(gas.OpEcrecover); err != nil {
		return nil, err
	}
	hash, err := types.Validate(types.Bytes32, args[0])
	if err != nil {
		return nil, err
	}
	sigTv, err := types.Validate(types.Bytes, args[1])
	if err != nil {
		return nil, err
	}
	digest, _ := hash.Hash()
	sig, _ := sigTv.RawBytes()
	if len(sig) != crypto.SignatureLength {
		return types.Validate(types.Address, common.Address{})
	}
	sig = common.CopyBytes(sig)
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}
	pub, err := crypto.SigToPub(digest.Bytes(), sig)
	if err != nil {
		return types.Validate(types.Address, common.Address{})
	}
	return types.Validate(types.Address, crypto.PubkeyToAddress(*pub))
}
