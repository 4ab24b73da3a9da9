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
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	logging "github.com/ipfs/go-log"
	"github.com/wcgcyx/rubidity/contract"
	"github.com/wcgcyx/rubidity/gas"
	"github.com/wcgcyx/rubidity/types"
	"github.com/wcgcyx/rubidity/vmerrors"
)

// Logger
var log = logging.Logger("vm")

// MaxCallCount is the maximum depth of the call stack.
const MaxCallCount = 100

// CallRequest is a request to execute a contract in a new frame.
type CallRequest struct {
	// To is the target of a call.
	To *common.Address

	// InitCodeHash is the class of a create.
	InitCodeHash *common.Hash

	Function string
	Args     []interface{}
	CallType CallType

	// Salt makes a create address deterministic.
	Salt *common.Hash

	// Static forbids state mutation in the frame and its children.
	Static bool
}

// CallStack executes the frames of one transaction.
type CallStack struct {
	host   Host
	frames []*Frame
	calls  []*Frame

	// Dispatch tables per class
	tables map[*contract.Class]map[string]opKind
}

// NewCallStack creates a new call stack.
func NewCallStack(host Host) *CallStack {
	return &CallStack{
		host:   host,
		frames: make([]*Frame, 0),
		calls:  make([]*Frame, 0),
		tables: make(map[*contract.Class]map[string]opKind),
	}
}

// Depth gets the number of frames on the stack.
func (cs *CallStack) Depth() int {
	return len(cs.frames)
}

// Current gets the running frame, nil if none.
func (cs *CallStack) Current() *Frame {
	if len(cs.frames) == 0 {
		return nil
	}
	return cs.frames[len(cs.frames)-1]
}

// Calls gets every frame executed in the transaction so far, in execution order.
func (cs *CallStack) Calls() []*Frame {
	res := make([]*Frame, len(cs.calls))
	copy(res, cs.calls)
	return res
}

// Execute runs a request in a new frame.
// The frame is popped regardless of outcome.
func (cs *CallStack) Execute(req CallRequest) (*types.TypedValue, error) {
	tx := cs.host.Tx()
	block := cs.host.Block()
	from := tx.Origin
	static := req.Static
	if parent := cs.Current(); parent != nil {
		from = parent.To
		static = static || parent.Static
	}
	frame := &Frame{
		Function:         req.Function,
		Args:             serializeArgs(req.Args),
		CallType:         req.CallType,
		From:             from,
		Salt:             req.Salt,
		Static:           static,
		BlockNumber:      block.Number,
		BlockHash:        block.Hash,
		TransactionHash:  tx.Hash,
		TransactionIndex: tx.Index,
		InternalIndex:    len(cs.frames),
		CallIndex:        len(cs.calls),
		Status:           StatusPending,
		Logs:             make([]Log, 0),
		StartTime:        time.Now(),
	}
	if req.To != nil {
		frame.To = *req.To
	}
	if req.InitCodeHash != nil {
		frame.InitCodeHash = *req.InitCodeHash
	}
	cs.calls = append(cs.calls, frame)
	if len(cs.frames) >= MaxCallCount {
		return nil, cs.fail(frame, vmerrors.NewContractError(vmerrors.MsgTooManyInternalTransactions), nil)
	}
	cs.frames = append(cs.frames, frame)
	defer func() {
		cs.frames = cs.frames[:len(cs.frames)-1]
	}()
	log.Debugf("Execute %v %v depth %v from %v", frame.CallType, frame.Function, frame.InternalIndex, frame.From)

	inst, fn, args, err := cs.resolve(frame, req)
	if err != nil {
		return nil, cs.fail(frame, err, inst)
	}
	res, err := cs.run(frame, inst, fn, args)
	if err != nil {
		return nil, cs.fail(frame, err, inst)
	}
	frame.Status = StatusSuccess
	frame.ReturnValue = res
	frame.EndTime = time.Now()
	if frame.CallType == CallTypeCreate {
		// A create returns the reference to the new contract.
		ref, err := types.ContractOf(inst.Class.Name())
		if err != nil {
			return nil, cs.fail(frame, err, inst)
		}
		return types.Validate(ref, inst.Address)
	}
	return res, nil
}

// resolve finds the target instance, function and bound arguments of a frame.
func (cs *CallStack) resolve(frame *Frame, req CallRequest) (*Instance, *contract.Function, map[string]*types.TypedValue, error) {
	switch req.CallType {
	case CallTypeCreate:
		if err := cs.host.Meter().ChargeAndCheck(gas.OpCreate); err != nil {
			return nil, nil, nil, err
		}
		if req.InitCodeHash == nil {
			return nil, nil, nil, vmerrors.NewContractError("missing init code hash for create")
		}
		if frame.Static {
			return nil, nil, nil, vmerrors.NewContractError("cannot create contract in read-only context")
		}
		class, err := cs.host.SupportedContractClass(*req.InitCodeHash, true)
		if err != nil {
			return nil, nil, nil, err
		}
		if class.IsAbstract() {
			return nil, nil, nil, vmerrors.NewContractError("cannot create abstract contract %v", class.Name())
		}
		addr, err := cs.createAddress(frame.From, req.Salt, class.InitCodeHash())
		if err != nil {
			return nil, nil, nil, err
		}
		existing, err := cs.host.GetExistingContract(addr)
		if err != nil {
			return nil, nil, nil, err
		}
		if existing != nil {
			return nil, nil, nil, vmerrors.NewContractError("contract already exists at %v", addr)
		}
		frame.To = addr
		inst := NewInstance(class, addr)
		if err = cs.host.AddContract(inst); err != nil {
			return nil, nil, nil, err
		}
		fn, ok := class.Constructor()
		if !ok {
			if len(req.Args) > 0 {
				return inst, nil, nil, &vmerrors.ArgumentError{Function: contract.ConstructorName, Msg: "no constructor to take arguments"}
			}
			return inst, nil, nil, nil
		}
		frame.Function = contract.ConstructorName
		args, err := fn.BindArgs(req.Args)
		return inst, fn, args, err
	default:
		if err := cs.host.Meter().ChargeAndCheck(gas.OpCall); err != nil {
			return nil, nil, nil, err
		}
		if req.To == nil {
			return nil, nil, nil, vmerrors.NewContractError("missing target address for call")
		}
		inst, err := cs.host.GetExistingContract(*req.To)
		if err != nil {
			return nil, nil, nil, err
		}
		if inst == nil {
			return nil, nil, nil, vmerrors.NewContractError("contract not found at %v", *req.To)
		}
		frame.InitCodeHash = inst.Class.InitCodeHash()
		fn, ok := inst.Class.Function(req.Function)
		if !ok || fn.Constructor {
			return inst, nil, nil, vmerrors.NewContractError("function %v not found in %v", req.Function, inst.Class.Name())
		}
		if !fn.Callable() {
			return inst, nil, nil, vmerrors.NewContractError("function %v of %v is not callable externally", req.Function, inst.Class.Name())
		}
		args, err := fn.BindArgs(req.Args)
		return inst, fn, args, err
	}
}

// createAddress derives the address of a new contract.
func (cs *CallStack) createAddress(from common.Address, salt *common.Hash, initCodeHash common.Hash) (common.Address, error) {
	if salt != nil {
		return crypto.CreateAddress2(from, *salt, initCodeHash.Bytes()), nil
	}
	var nonce uint64
	var err error
	if len(cs.frames) <= 1 {
		nonce, err = cs.host.CalculateEoaNonce(from)
	} else {
		nonce, err = cs.host.CalculateContractNonce(from)
	}
	if err != nil {
		return common.Address{}, err
	}
	return crypto.CreateAddress(from, nonce), nil
}

// run executes the function body in a sandbox.
func (cs *CallStack) run(frame *Frame, inst *Instance, fn *contract.Function, args map[string]*types.TypedValue) (*types.TypedValue, error) {
	if fn == nil {
		return nil, nil
	}
	sb := newSandbox(cs, frame, inst, fn, args, frame.Static || fn.ReadOnly())
	return sb.run()
}

// fail marks the frame failed and annotates the error with the originating contract.
func (cs *CallStack) fail(frame *Frame, err error, inst *Instance) error {
	frame.Status = StatusFailure
	frame.Error = err.Error()
	frame.EndTime = time.Now()
	if inst != nil {
		vmerrors.Annotate(err, strings.ToLower(inst.Address.Hex()), inst.Class.Name(), func() string {
			return excerpt(inst.Class, frame.Function)
		})
	}
	log.Debugf("Frame %v of %v failed: %v", frame.CallIndex, frame.Function, err.Error())
	return err
}

// excerpt gets the source line declaring the function.
func excerpt(class *contract.Class, function string) string {
	src := class.Definition().SourceText
	if src == "" || function == "" {
		return ""
	}
	for i, line := range strings.Split(src, "\n") {
		if strings.Contains(line, function) {
			return fmt.Sprintf("%v:%v: %v", class.Name(), i+1, strings.TrimSpace(line))
		}
	}
	return ""
}

// serializeArgs gets the storage safe form of call arguments.
func serializeArgs(args []interface{}) []interface{} {
	res := make([]interface{}, len(args))
	for i, arg := range args {
		res[i] = serializeArg(arg)
	}
	return res
}

func serializeArg(arg interface{}) interface{} {
	switch a := arg.(type) {
	case *types.TypedValue:
		return types.Serialize(a)
	case contract.Salt:
		return serializeArg(a.Value)
	case map[string]interface{}:
		res := make(map[string]interface{}, len(a))
		for k, v := range a {
			res[k] = serializeArg(v)
		}
		return res
	case []interface{}:
		return serializeArgs(a)
	}
	return arg
}
