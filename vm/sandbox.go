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
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/wcgcyx/rubidity/contract"
	"github.com/wcgcyx/rubidity/gas"
	"github.com/wcgcyx/rubidity/types"
	"github.com/wcgcyx/rubidity/vmerrors"
)

// opKind is the kind of a name reachable from contract code.
type opKind int

const (
	opCast opKind = iota
	opContractType
	opStruct
	opSuper
	opFunction
	opBuiltin
)

// castNames are the conversion functions reachable from contract code.
var castNames = func() []string {
	res := []string{"address", "bytes32", "bytes", "string", "bool"}
	for bits := 8; bits <= 256; bits += 8 {
		res = append(res, fmt.Sprintf("uint%v", bits), fmt.Sprintf("int%v", bits))
	}
	return res
}()

// frameState is shared by every sandbox running in the same frame.
type frameState struct {
	// failure is the first revert raised in the frame. It fails the frame even if swallowed.
	failure error
}

// sandbox is the environment a function body runs against.
type sandbox struct {
	cs       *CallStack
	frame    *Frame
	inst     *Instance
	fn       *contract.Function
	args     map[string]*types.TypedValue
	readOnly bool
	state    *frameState
}

func newSandbox(cs *CallStack, frame *Frame, inst *Instance, fn *contract.Function, args map[string]*types.TypedValue, readOnly bool) *sandbox {
	return &sandbox{
		cs:       cs,
		frame:    frame,
		inst:     inst,
		fn:       fn,
		args:     args,
		readOnly: readOnly,
		state:    &frameState{},
	}
}

// run executes the function as the entry of its frame.
func (sb *sandbox) run() (res *types.TypedValue, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = recovered(r)
		}
		if sb.state.failure != nil {
			res = nil
			err = sb.state.failure
		}
	}()
	return sb.exec()
}

// exec executes the function body and validates its return value.
func (sb *sandbox) exec() (*types.TypedValue, error) {
	if sb.fn.Body == nil {
		return nil, vmerrors.NewDefinitionError(vmerrors.MissingBody, sb.inst.Class.Name(), sb.fn.Name, "function has no body")
	}
	raw, err := sb.fn.Body(sb)
	if err != nil {
		return nil, sb.mark(err)
	}
	if sb.state.failure != nil {
		return nil, sb.state.failure
	}
	res, err := sb.fn.CheckReturn(raw)
	if err != nil {
		return nil, sb.mark(err)
	}
	return res, nil
}

// child creates a sandbox for an internal call in the same frame.
func (sb *sandbox) child(fn *contract.Function, args map[string]*types.TypedValue) *sandbox {
	return &sandbox{
		cs:       sb.cs,
		frame:    sb.frame,
		inst:     sb.inst,
		fn:       fn,
		args:     args,
		readOnly: sb.readOnly || fn.ReadOnly(),
		state:    sb.state,
	}
}

// mark records err as the failure of the frame. Static call failures are not recorded.
func (sb *sandbox) mark(err error) error {
	var sce *vmerrors.StaticCallError
	if err == nil || errors.As(err, &sce) {
		return err
	}
	if sb.state.failure == nil {
		sb.state.failure = err
	}
	return err
}

// recovered converts a recovered panic into an error.
func recovered(r interface{}) error {
	if err, ok := r.(error); ok {
		if vmerrors.IsRevert(err) || vmerrors.IsFatal(err) {
			return err
		}
		return vmerrors.NewContractError("contract panicked: %v", err.Error())
	}
	return vmerrors.NewContractError("contract panicked: %v", r)
}

// table gets the dispatch table of the running class.
func (sb *sandbox) table() map[string]opKind {
	class := sb.inst.Class
	if t, ok := sb.cs.tables[class]; ok {
		return t
	}
	t := make(map[string]opKind)
	for _, name := range castNames {
		t[name] = opCast
	}
	t[class.Name()] = opContractType
	for _, name := range class.AvailableContracts() {
		t[name] = opContractType
	}
	for _, name := range class.StructNames() {
		t[name] = opStruct
	}
	for _, name := range class.SuperNames() {
		t[name] = opSuper
	}
	for _, f := range class.Functions() {
		if !f.Constructor {
			t[f.Name] = opFunction
		}
	}
	for _, name := range contract.Builtins {
		t[name] = opBuiltin
	}
	sb.cs.tables[class] = t
	return t
}

// Names gets every name reachable through Invoke.
func (sb *sandbox) Names() []string {
	t := sb.table()
	res := make([]string, 0, len(t))
	for name := range t {
		res = append(res, name)
	}
	sort.Strings(res)
	return res
}

// Invoke dispatches an allow-listed operation by name.
func (sb *sandbox) Invoke(name string, args ...interface{}) (*types.TypedValue, error) {
	kind, ok := sb.table()[name]
	if !ok {
		return nil, sb.mark(&vmerrors.MethodResolutionError{Name: name})
	}
	var res *types.TypedValue
	var err error
	switch kind {
	case opCast:
		res, err = sb.cast(name, args)
	case opContractType:
		res, err = sb.contractRef(name, args)
	case opStruct:
		res, err = sb.structValue(name, args)
	case opSuper:
		parts := strings.SplitN(name, ".", 2)
		fn, _ := sb.inst.Class.Super(parts[0], parts[1])
		res, err = sb.internalCall(fn, args)
	case opFunction:
		fn, _ := sb.inst.Class.Function(name)
		res, err = sb.internalCall(fn, args)
	case opBuiltin:
		res, err = sb.builtin(name, args)
	}
	return res, sb.mark(err)
}

// internalCall runs a function of the class in the running frame.
func (sb *sandbox) internalCall(fn *contract.Function, args []interface{}) (*types.TypedValue, error) {
	bound, err := fn.BindArgs(args)
	if err != nil {
		return nil, err
	}
	return sb.child(fn, bound).exec()
}

func (sb *sandbox) cast(name string, args []interface{}) (*types.TypedValue, error) {
	if len(args) != 1 {
		return nil, &vmerrors.ArgumentError{Function: name, Msg: wrongArgs(1, len(args))}
	}
	typ, err := types.ParseType(name)
	if err != nil {
		return nil, err
	}
	return types.Cast(typ, args[0])
}

func (sb *sandbox) contractRef(name string, args []interface{}) (*types.TypedValue, error) {
	if len(args) != 1 {
		return nil, &vmerrors.ArgumentError{Function: name, Msg: wrongArgs(1, len(args))}
	}
	typ, err := types.ContractOf(name)
	if err != nil {
		return nil, err
	}
	return types.Cast(typ, args[0])
}

func (sb *sandbox) structValue(name string, args []interface{}) (*types.TypedValue, error) {
	if len(args) != 1 {
		return nil, &vmerrors.ArgumentError{Function: name, Msg: wrongArgs(1, len(args))}
	}
	typ, _ := sb.inst.Class.Struct(name)
	return types.Parse(typ, args[0])
}

// Arg gets an argument bound to the running function.
func (sb *sandbox) Arg(name string) (*types.TypedValue, error) {
	v, ok := sb.args[name]
	if !ok {
		return nil, sb.mark(&vmerrors.ArgumentError{Function: sb.fn.Name, Msg: fmt.Sprintf("unknown argument %v", name)})
	}
	return v, nil
}

// Load reads a state variable.
func (sb *sandbox) Load(variable string, keys ...interface{}) (*types.TypedValue, error) {
	if err := sb.cs.host.Meter().ChargeAndCheck(gas.OpStorageRead); err != nil {
		return nil, sb.mark(err)
	}
	v, ok := sb.inst.Get(variable)
	if !ok {
		return nil, sb.mark(vmerrors.NewContractError("unknown state variable %v", variable))
	}
	var err error
	for _, key := range keys {
		v, err = step(v, key)
		if err != nil {
			return nil, sb.mark(err)
		}
	}
	return v, nil
}

// Store writes a state variable.
func (sb *sandbox) Store(variable string, value interface{}, keys ...interface{}) error {
	if sb.readOnly {
		return sb.mark(vmerrors.NewContractError("cannot modify state variable %v in read-only context", variable))
	}
	if err := sb.cs.host.Meter().ChargeAndCheck(gas.OpStorageWrite); err != nil {
		return sb.mark(err)
	}
	cur, ok := sb.inst.Get(variable)
	if !ok {
		return sb.mark(vmerrors.NewContractError("unknown state variable %v", variable))
	}
	updated, err := setPath(cur, keys, value)
	if err != nil {
		return sb.mark(err)
	}
	sb.cs.host.Touch(sb.inst)
	sb.inst.set(variable, updated)
	return nil
}

// step reads one level of a container.
func step(v *types.TypedValue, key interface{}) (*types.TypedValue, error) {
	switch v.Type().Kind() {
	case types.KindMapping:
		return v.Get(key)
	case types.KindArray:
		return v.Index(key)
	case types.KindStruct:
		name, err := fieldName(key)
		if err != nil {
			return nil, err
		}
		return v.Field(name)
	}
	return nil, vmerrors.NewTypeError("cannot index into %v", v.Type())
}

// setPath gets a copy of cur with the value at the key path replaced.
func setPath(cur *types.TypedValue, keys []interface{}, value interface{}) (*types.TypedValue, error) {
	if len(keys) == 0 {
		return types.Validate(cur.Type(), value)
	}
	child, err := step(cur, keys[0])
	if err != nil {
		return nil, err
	}
	updated, err := setPath(child, keys[1:], value)
	if err != nil {
		return nil, err
	}
	switch cur.Type().Kind() {
	case types.KindMapping:
		return cur.Set(keys[0], updated)
	case types.KindArray:
		return cur.SetIndex(keys[0], updated)
	default:
		name, _ := fieldName(keys[0])
		return cur.SetField(name, updated)
	}
}

func fieldName(key interface{}) (string, error) {
	switch k := key.(type) {
	case string:
		return k, nil
	case *types.TypedValue:
		return k.Str()
	}
	return "", vmerrors.NewTypeError("invalid field name %v", key)
}

// Call calls a function on another contract in a new frame.
func (sb *sandbox) Call(target interface{}, function string, args ...interface{}) (*types.TypedValue, error) {
	addr, err := toAddress(target)
	if err != nil {
		return nil, sb.mark(err)
	}
	res, err := sb.cs.Execute(CallRequest{
		To:       &addr,
		Function: function,
		Args:     args,
		CallType: CallTypeCall,
		Static:   sb.readOnly,
	})
	return res, sb.mark(err)
}

// StaticCall calls a read-only function on another contract.
func (sb *sandbox) StaticCall(target interface{}, function string, args ...interface{}) (*types.TypedValue, error) {
	addr, err := toAddress(target)
	if err != nil {
		return nil, sb.mark(err)
	}
	res, err := sb.cs.Execute(CallRequest{
		To:       &addr,
		Function: function,
		Args:     args,
		CallType: CallTypeCall,
		Static:   true,
	})
	if err == nil {
		return res, nil
	}
	if vmerrors.IsFatal(err) || isExhausted(err) {
		return nil, sb.mark(err)
	}
	return nil, &vmerrors.StaticCallError{Err: err}
}

// isExhausted reports whether err ran a transaction level limit dry.
// These unwind the whole transaction and cannot be caught by a static call.
func isExhausted(err error) bool {
	var ce *vmerrors.ContractError
	if !errors.As(err, &ce) {
		return false
	}
	switch ce.Msg {
	case vmerrors.MsgGasLimitExceeded, vmerrors.MsgTooManyInternalTransactions, vmerrors.MsgMaxIterationsExceeded:
		return true
	}
	return false
}

// toAddress gets the address of a call target.
func toAddress(target interface{}) (common.Address, error) {
	switch t := target.(type) {
	case common.Address:
		return t, nil
	case *types.TypedValue:
		return t.Address()
	case string:
		tv, err := types.Validate(types.Address, t)
		if err != nil {
			return common.Address{}, err
		}
		return tv.Address()
	}
	return common.Address{}, vmerrors.NewTypeError("invalid call target %v", target)
}

func wrongArgs(expected int, got int) string {
	return fmt.Sprintf("wrong number of arguments (given %v, expected %v)", got, expected)
}
