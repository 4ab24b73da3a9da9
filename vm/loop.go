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
	"github.com/wcgcyx/rubidity/contract"
	"github.com/wcgcyx/rubidity/gas"
	"github.com/wcgcyx/rubidity/types"
	"github.com/wcgcyx/rubidity/vmerrors"
)

// forLoop runs a bounded loop.
// Without a condition the body runs exactly MaxIterations times.
func (sb *sandbox) forLoop(args []interface{}) error {
	if len(args) != 1 {
		return &vmerrors.ArgumentError{Function: contract.BuiltinForLoop, Msg: wrongArgs(1, len(args))}
	}
	var loop contract.Loop
	switch l := args[0].(type) {
	case contract.Loop:
		loop = l
	case *contract.Loop:
		if l == nil {
			return vmerrors.NewTypeError("nil loop")
		}
		loop = *l
	default:
		return vmerrors.NewTypeError("forLoop expects a loop got %T", args[0])
	}
	if loop.Body == nil {
		return vmerrors.NewDefinitionError(vmerrors.MissingBody, sb.inst.Class.Name(), contract.BuiltinForLoop, "loop has no body")
	}
	limit := loop.MaxIterations
	if limit == 0 {
		limit = contract.MaxLoopIterations
	}
	if limit < 0 || limit > contract.MaxLoopIterations {
		return vmerrors.NewContractError("max iterations %v must be between 1 and %v", limit, contract.MaxLoopIterations)
	}
	i := loop.Start
	if i == nil {
		i = types.ZeroValue(types.Uint256)
	}
	step := loop.Step
	if step == nil {
		step = types.MustValidate(types.Int256, 1)
	}
	meter := sb.cs.host.Meter()
	for count := 0; ; count++ {
		if loop.Condition != nil {
			ok, err := loop.Condition(i)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
		} else if count == limit {
			return nil
		}
		if count >= limit {
			return vmerrors.NewContractError(vmerrors.MsgMaxIterationsExceeded)
		}
		if err := meter.ChargeAndCheck(gas.OpLoopIteration); err != nil {
			return err
		}
		next, err := runIteration(loop.Body, i, step)
		if err != nil {
			return err
		}
		i = next
	}
}

// runIteration runs the body once and advances the counter.
// The counter advances even if the body fails, and an advancement failure takes precedence.
func runIteration(body func(*types.TypedValue) error, i *types.TypedValue, step *types.TypedValue) (next *types.TypedValue, err error) {
	defer func() {
		advanced, stepErr := i.Add(step)
		if stepErr != nil {
			next, err = nil, stepErr
			return
		}
		if err == nil {
			next = advanced
		}
	}()
	return nil, body(i)
}
