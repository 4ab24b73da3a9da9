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
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/wcgcyx/rubidity/contract"
	"github.com/wcgcyx/rubidity/gas"
	"github.com/wcgcyx/rubidity/types"
	"github.com/wcgcyx/rubidity/vmerrors"
)

var (
	balancesType = mustType(types.MappingOf(types.Address, types.Uint256))
	alice        = common.HexToAddress("0x00000000000000000000000000000000000000a1")
)

func mustType(t *types.Type, err error) *types.Type {
	if err != nil {
		panic(err)
	}
	return t
}

func call(h *memHost, addr common.Address, function string, args ...interface{}) (*CallStack, *types.TypedValue, error) {
	cs := NewCallStack(h)
	res, err := cs.Execute(CallRequest{
		To:       &addr,
		Function: function,
		Args:     args,
		CallType: CallTypeCall,
	})
	return cs, res, err
}

func tokenBuilder() *contract.Builder {
	return contract.NewBuilder("Token").
		StateVar("balanceOf", balancesType, contract.PublicVar).
		Event("Transfer", contract.P("from", types.Address), contract.P("to", types.Address), contract.P("amount", types.Uint256)).
		Constructor([]contract.Param{contract.P("supply", types.Uint256)}, func(env contract.Env) (interface{}, error) {
			sender, err := env.Invoke("msg", "sender")
			if err != nil {
				return nil, err
			}
			supply, err := env.Arg("supply")
			if err != nil {
				return nil, err
			}
			return nil, env.Store("balanceOf", supply, sender)
		}).
		Function("transfer", []contract.Param{contract.P("to", types.Address), contract.P("amount", types.Uint256)}, func(env contract.Env) (interface{}, error) {
			from, err := env.Invoke("msg", "sender")
			if err != nil {
				return nil, err
			}
			to, _ := env.Arg("to")
			amount, _ := env.Arg("amount")
			balance, err := env.Load("balanceOf", from)
			if err != nil {
				return nil, err
			}
			cmp, err := balance.Cmp(amount)
			if err != nil {
				return nil, err
			}
			if _, err = env.Invoke("require", cmp >= 0, "insufficient balance"); err != nil {
				return nil, err
			}
			left, err := balance.Sub(amount)
			if err != nil {
				return nil, err
			}
			if err = env.Store("balanceOf", left, from); err != nil {
				return nil, err
			}
			received, err := env.Load("balanceOf", to)
			if err != nil {
				return nil, err
			}
			total, err := received.Add(amount)
			if err != nil {
				return nil, err
			}
			if err = env.Store("balanceOf", total, to); err != nil {
				return nil, err
			}
			_, err = env.Invoke("emit", "Transfer", map[string]interface{}{"from": from, "to": to, "amount": amount})
			return true, err
		}, contract.Returns(types.Bool))
}

func TestTokenTransfer(t *testing.T) {
	h := newMemHost(t, 0)
	token := h.register(t, tokenBuilder())
	addr := deploy(t, h, token, 1, 1000)

	cs, res, err := call(h, addr, "transfer", alice, 400)
	assert.Nil(t, err)
	ok, _ := res.Bool()
	assert.True(t, ok)

	calls := cs.Calls()
	assert.Equal(t, 1, len(calls))
	assert.True(t, calls[0].Succeeded())
	assert.Equal(t, 1, len(calls[0].Logs))
	assert.Equal(t, crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)")), calls[0].Logs[0].Topic)
	assert.Equal(t, "400", calls[0].Logs[0].Data["amount"])

	_, res, err = call(h, addr, "balanceOf", alice)
	assert.Nil(t, err)
	n, _ := res.BigInt()
	assert.Equal(t, big.NewInt(400), n)
	_, res, err = call(h, addr, "balanceOf", testOrigin)
	assert.Nil(t, err)
	n, _ = res.BigInt()
	assert.Equal(t, big.NewInt(600), n)
}

func TestTokenTransferReverts(t *testing.T) {
	h := newMemHost(t, 0)
	token := h.register(t, tokenBuilder().Source("contract Token {\n  function transfer(address to, uint256 amount) {\n  }\n}"))
	addr := deploy(t, h, token, 1, 100)

	cs, _, err := call(h, addr, "transfer", alice, 101)
	assert.NotNil(t, err)
	var ce *vmerrors.ContractError
	assert.True(t, errors.As(err, &ce))
	assert.Equal(t, "insufficient balance", ce.Msg)
	assert.Equal(t, "Token", ce.ContractName)
	assert.Equal(t, "Token:2: function transfer(address to, uint256 amount) {", ce.Excerpt)
	assert.Equal(t, StatusFailure, cs.Calls()[0].Status)
	assert.Equal(t, "insufficient balance", cs.Calls()[0].Error)

	_, _, err = call(h, addr, "transfer", alice)
	var ae *vmerrors.ArgumentError
	assert.True(t, errors.As(err, &ae))
	assert.Equal(t, []string{"amount"}, ae.Missing)

	_, _, err = call(h, addr, "mint", alice, 1)
	assert.True(t, vmerrors.IsRevert(err))
}

func recursiveBuilder() *contract.Builder {
	return contract.NewBuilder("Recursive").
		Function("recurse", []contract.Param{contract.P("depth", types.Uint256)}, func(env contract.Env) (interface{}, error) {
			depth, _ := env.Arg("depth")
			if types.IsZero(depth) {
				return nil, nil
			}
			this, err := env.Invoke("this")
			if err != nil {
				return nil, err
			}
			next, err := depth.Sub(1)
			if err != nil {
				return nil, err
			}
			_, err = env.Call(this, "recurse", next)
			return nil, err
		})
}

func TestCallDepthLimit(t *testing.T) {
	h := newMemHost(t, 0)
	class := h.register(t, recursiveBuilder())
	addr := deploy(t, h, class, 1)

	cs, _, err := call(h, addr, "recurse", MaxCallCount-1)
	assert.Nil(t, err)
	assert.Equal(t, MaxCallCount, len(cs.Calls()))
	assert.Equal(t, 0, cs.Depth())
	assert.Equal(t, MaxCallCount-1, cs.Calls()[MaxCallCount-1].InternalIndex)

	cs, _, err = call(h, addr, "recurse", MaxCallCount)
	assert.NotNil(t, err)
	assert.Equal(t, vmerrors.MsgTooManyInternalTransactions, err.Error())
	calls := cs.Calls()
	assert.Equal(t, MaxCallCount+1, len(calls))
	for _, frame := range calls {
		assert.Equal(t, StatusFailure, frame.Status)
	}
	assert.Equal(t, 0, cs.Depth())
}

// staticRecursiveBuilder recurses through static calls and ignores their failures.
func staticRecursiveBuilder() *contract.Builder {
	return contract.NewBuilder("StaticRecursive").
		Function("peek", []contract.Param{contract.P("depth", types.Uint256)}, func(env contract.Env) (interface{}, error) {
			depth, _ := env.Arg("depth")
			if types.IsZero(depth) {
				return nil, nil
			}
			this, err := env.Invoke("this")
			if err != nil {
				return nil, err
			}
			next, err := depth.Sub(1)
			if err != nil {
				return nil, err
			}
			env.StaticCall(this, "peek", next)
			return nil, nil
		}, contract.View)
}

func TestStaticCallCannotCatchDepthLimit(t *testing.T) {
	h := newMemHost(t, 0)
	class := h.register(t, staticRecursiveBuilder())
	addr := deploy(t, h, class, 1)

	_, _, err := call(h, addr, "peek", MaxCallCount-1)
	assert.Nil(t, err)

	cs, _, err := call(h, addr, "peek", MaxCallCount)
	assert.NotNil(t, err)
	assert.Equal(t, vmerrors.MsgTooManyInternalTransactions, err.Error())
	assert.Equal(t, StatusFailure, cs.Calls()[0].Status)
}

func TestStaticCallCannotCatchLoopLimit(t *testing.T) {
	h := newMemHost(t, 0)
	counter := deploy(t, h, h.register(t, counterBuilder()), 1)
	reader := h.register(t, contract.NewBuilder("Reader").
		Function("read", []contract.Param{contract.P("n", types.Uint256)}, func(env contract.Env) (interface{}, error) {
			n, _ := env.Arg("n")
			res, err := env.StaticCall(counter, "sum", n)
			var sce *vmerrors.StaticCallError
			if errors.As(err, &sce) {
				return nil, nil
			}
			return res, err
		}, contract.View, contract.Returns(types.Uint256)))
	addr := deploy(t, h, reader, 2)

	_, res, err := call(h, addr, "read", 4)
	assert.Nil(t, err)
	n, _ := res.BigInt()
	assert.Equal(t, big.NewInt(6), n)

	_, _, err = call(h, addr, "read", 101)
	assert.NotNil(t, err)
	assert.Equal(t, vmerrors.MsgMaxIterationsExceeded, err.Error())
}

func counterBuilder() *contract.Builder {
	return contract.NewBuilder("Counter").
		StateVar("count", types.Uint256, contract.PublicVar).
		Function("increment", nil, func(env contract.Env) (interface{}, error) {
			count, err := env.Load("count")
			if err != nil {
				return nil, err
			}
			next, err := count.Add(1)
			if err != nil {
				return nil, err
			}
			return nil, env.Store("count", next)
		}).
		Function("peek", nil, func(env contract.Env) (interface{}, error) {
			if err := env.Store("count", 1); err != nil {
				return nil, err
			}
			return env.Load("count")
		}, contract.View, contract.Returns(types.Uint256)).
		Function("spin", nil, func(env contract.Env) (interface{}, error) {
			_, err := env.Invoke("forLoop", contract.Loop{
				Condition:     func(i *types.TypedValue) (bool, error) { return true, nil },
				MaxIterations: 5,
				Body: func(i *types.TypedValue) error {
					_, err := env.Invoke("increment")
					return err
				},
			})
			return nil, err
		}).
		Function("sum", []contract.Param{contract.P("n", types.Uint256)}, func(env contract.Env) (interface{}, error) {
			n, _ := env.Arg("n")
			total := types.ZeroValue(types.Uint256)
			_, err := env.Invoke("forLoop", contract.Loop{
				Condition: func(i *types.TypedValue) (bool, error) {
					cmp, err := i.Cmp(n)
					return cmp < 0, err
				},
				Body: func(i *types.TypedValue) error {
					var err error
					total, err = total.Add(i)
					return err
				},
			})
			return total, err
		}, contract.Pure, contract.Returns(types.Uint256)).
		Function("escape", nil, func(env contract.Env) (interface{}, error) {
			_, err := env.Invoke("system", "ls")
			return nil, err
		}).
		Function("swallow", nil, func(env contract.Env) (interface{}, error) {
			env.Invoke("system", "ls")
			return nil, nil
		})
}

func TestBoundedLoop(t *testing.T) {
	h := newMemHost(t, 0)
	class := h.register(t, counterBuilder())
	addr := deploy(t, h, class, 1)

	_, res, err := call(h, addr, "sum", 4)
	assert.Nil(t, err)
	n, _ := res.BigInt()
	assert.Equal(t, big.NewInt(6), n)

	_, _, err = call(h, addr, "spin")
	assert.NotNil(t, err)
	assert.Equal(t, vmerrors.MsgMaxIterationsExceeded, err.Error())
	// The body ran five times before the sixth iteration was refused.
	inst, _ := h.GetExistingContract(addr)
	count, _ := inst.Get("count")
	n, _ = count.BigInt()
	assert.Equal(t, big.NewInt(5), n)
	// The pre-mutation state is journaled.
	before := h.touched[addr]["count"]
	assert.True(t, types.IsZero(before))

	_, _, err = call(h, addr, "sum", 101)
	assert.NotNil(t, err)
	assert.Equal(t, vmerrors.MsgMaxIterationsExceeded, err.Error())
}

func TestLoopAdvancesOnFailure(t *testing.T) {
	step := types.MustValidate(types.Int256, 1)
	boom := vmerrors.NewContractError("boom")
	var seen []int64
	fail := func(i *types.TypedValue) error {
		n, _ := i.Int64()
		seen = append(seen, n)
		return boom
	}

	next, err := runIteration(func(i *types.TypedValue) error { return nil }, types.MustValidate(types.Uint8, 3), step)
	assert.Nil(t, err)
	n, _ := next.Int64()
	assert.Equal(t, int64(4), n)

	next, err = runIteration(fail, types.MustValidate(types.Uint8, 3), step)
	assert.Equal(t, boom, err)
	assert.Nil(t, next)

	// Advancement past the counter type fails even after a failing body.
	_, err = runIteration(fail, types.MustValidate(types.Uint8, 255), step)
	var ve *vmerrors.VariableTypeError
	assert.True(t, errors.As(err, &ve))
	assert.Equal(t, []int64{3, 255}, seen)
}

func TestGasLimit(t *testing.T) {
	h := newMemHost(t, 0)
	class := h.register(t, counterBuilder())
	addr := deploy(t, h, class, 1)

	h.meter = gas.NewMeter(1000)
	_, _, err := call(h, addr, "spin")
	assert.NotNil(t, err)
	assert.Equal(t, vmerrors.MsgGasLimitExceeded, err.Error())
	assert.True(t, h.meter.Total() > h.meter.Limit())

	h.meter = gas.NewMeter(0)
	_, _, err = call(h, addr, "increment")
	assert.Nil(t, err)
	assert.Equal(t, gas.Gas(500+30+50), h.meter.Total())
}

func TestMethodResolution(t *testing.T) {
	h := newMemHost(t, 0)
	class := h.register(t, counterBuilder())
	addr := deploy(t, h, class, 1)

	_, _, err := call(h, addr, "escape")
	var mre *vmerrors.MethodResolutionError
	assert.True(t, errors.As(err, &mre))
	assert.Equal(t, "undefined method `system' for sandbox", err.Error())

	// A swallowed failure still fails the frame.
	cs, _, err := call(h, addr, "swallow")
	assert.True(t, errors.As(err, &mre))
	assert.Equal(t, StatusFailure, cs.Calls()[0].Status)
}

func TestReadOnlyStore(t *testing.T) {
	h := newMemHost(t, 0)
	class := h.register(t, counterBuilder())
	addr := deploy(t, h, class, 1)

	_, _, err := call(h, addr, "peek")
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "read-only")
	_, ok := h.touched[addr]
	assert.False(t, ok)
}

func TestStaticCall(t *testing.T) {
	h := newMemHost(t, 0)
	counter := h.register(t, counterBuilder())
	prober := h.register(t, contract.NewBuilder("Prober").
		AvailableContracts("Counter").
		Function("probe", []contract.Param{contract.P("target", types.Address)}, func(env contract.Env) (interface{}, error) {
			target, _ := env.Arg("target")
			_, err := env.StaticCall(target, "increment")
			var sce *vmerrors.StaticCallError
			if !errors.As(err, &sce) {
				return nil, errors.New("expect static call error")
			}
			return env.StaticCall(target, "count")
		}, contract.Returns(types.Uint256)))
	counterAddr := deploy(t, h, counter, 1)
	proberAddr := deploy(t, h, prober, 2)

	cs, res, err := call(h, proberAddr, "probe", counterAddr)
	assert.Nil(t, err)
	assert.True(t, types.IsZero(res))
	calls := cs.Calls()
	assert.Equal(t, 3, len(calls))
	assert.True(t, calls[0].Succeeded())
	assert.Equal(t, StatusFailure, calls[1].Status)
	assert.True(t, calls[1].Static)
	assert.True(t, calls[2].Succeeded())
}

func TestCreateWithSalt(t *testing.T) {
	h := newMemHost(t, 0)
	counter := h.register(t, counterBuilder())
	factory := h.register(t, contract.NewBuilder("Factory").
		AvailableContracts("Counter").
		Function("make", []contract.Param{contract.P("salt", types.Bytes32)}, func(env contract.Env) (interface{}, error) {
			salt, _ := env.Arg("salt")
			this, err := env.Invoke("this")
			if err != nil {
				return nil, err
			}
			predicted, err := env.Invoke("create2_address", salt, this, "Counter")
			if err != nil {
				return nil, err
			}
			ref, err := env.Invoke("new", "Counter", contract.Salt{Value: salt})
			if err != nil {
				return nil, err
			}
			eq, err := ref.Eq(predicted)
			if err != nil {
				return nil, err
			}
			if _, err = env.Invoke("require", eq, "address mismatch"); err != nil {
				return nil, err
			}
			return env.Invoke("address", ref)
		}, contract.Returns(types.Address)))
	factoryAddr := deploy(t, h, factory, 1)

	salt := common.HexToHash("0x1234")
	cs, res, err := call(h, factoryAddr, "make", salt)
	assert.Nil(t, err)
	addr, _ := res.Address()
	assert.Equal(t, crypto.CreateAddress2(factoryAddr, salt, counter.InitCodeHash().Bytes()), addr)
	assert.Equal(t, CallTypeCreate, cs.Calls()[1].CallType)
	assert.Equal(t, factoryAddr, cs.Calls()[1].From)
	inst, _ := h.GetExistingContract(addr)
	assert.NotNil(t, inst)
	assert.Equal(t, "Counter", inst.Class.Name())

	// The same salt collides.
	_, _, err = call(h, factoryAddr, "make", salt)
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestAncestorCall(t *testing.T) {
	h := newMemHost(t, 0)
	h.register(t, contract.NewBuilder("Greeter").
		Function("greet", nil, func(env contract.Env) (interface{}, error) {
			return "hello", nil
		}, contract.Pure, contract.Virtual, contract.Returns(types.String)))
	child := h.register(t, contract.NewBuilder("LoudGreeter").
		Parents("Greeter").
		Function("greet", nil, func(env contract.Env) (interface{}, error) {
			base, err := env.Invoke("Greeter.greet")
			if err != nil {
				return nil, err
			}
			s, err := base.Str()
			return s + "!", err
		}, contract.Pure, contract.Override, contract.Returns(types.String)))
	addr := deploy(t, h, child, 1)

	_, res, err := call(h, addr, "greet")
	assert.Nil(t, err)
	s, _ := res.Str()
	assert.Equal(t, "hello!", s)
}
