package library

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
	"github.com/wcgcyx/rubidity/types"
)

var (
	balancesType   = mustType(types.MappingOf(types.Address, types.Uint256))
	allowancesType = mustType(types.MappingOf(types.Address, balancesType))
)

// ERC20 is the base fungible token.
func ERC20() (*contract.Definition, error) {
	return contract.NewBuilder("ERC20").
		Abstract().
		StateVar("name", types.String, contract.PublicVar).
		StateVar("symbol", types.String, contract.PublicVar).
		StateVar("decimals", types.Uint8, contract.PublicVar).
		StateVar("totalSupply", types.Uint256, contract.PublicVar).
		StateVar("balanceOf", balancesType, contract.PublicVar).
		StateVar("allowance", allowancesType, contract.PublicVar).
		Event("Transfer", contract.P("from", types.Address), contract.P("to", types.Address), contract.P("amount", types.Uint256)).
		Event("Approval", contract.P("owner", types.Address), contract.P("spender", types.Address), contract.P("amount", types.Uint256)).
		Constructor([]contract.Param{
			contract.P("name", types.String),
			contract.P("symbol", types.String),
			contract.P("decimals", types.Uint8),
		}, func(env contract.Env) (interface{}, error) {
			for _, name := range []string{"name", "symbol", "decimals"} {
				v, err := env.Arg(name)
				if err != nil {
					return nil, err
				}
				if err = env.Store(name, v); err != nil {
					return nil, err
				}
			}
			return nil, nil
		}).
		Function("approve", []contract.Param{contract.P("spender", types.Address), contract.P("amount", types.Uint256)}, func(env contract.Env) (interface{}, error) {
			owner, err := env.Invoke(contract.BuiltinMsg, "sender")
			if err != nil {
				return nil, err
			}
			spender, _ := env.Arg("spender")
			amount, _ := env.Arg("amount")
			if err = env.Store("allowance", amount, owner, spender); err != nil {
				return nil, err
			}
			_, err = env.Invoke(contract.BuiltinEmit, "Approval", map[string]interface{}{"owner": owner, "spender": spender, "amount": amount})
			return true, err
		}, contract.Virtual, contract.Returns(types.Bool)).
		Function("transfer", []contract.Param{contract.P("to", types.Address), contract.P("amount", types.Uint256)}, func(env contract.Env) (interface{}, error) {
			from, err := env.Invoke(contract.BuiltinMsg, "sender")
			if err != nil {
				return nil, err
			}
			to, _ := env.Arg("to")
			amount, _ := env.Arg("amount")
			if _, err = env.Invoke("_transfer", from, to, amount); err != nil {
				return nil, err
			}
			return true, nil
		}, contract.Virtual, contract.Returns(types.Bool)).
		Function("transferFrom", []contract.Param{
			contract.P("from", types.Address),
			contract.P("to", types.Address),
			contract.P("amount", types.Uint256),
		}, func(env contract.Env) (interface{}, error) {
			spender, err := env.Invoke(contract.BuiltinMsg, "sender")
			if err != nil {
				return nil, err
			}
			from, _ := env.Arg("from")
			to, _ := env.Arg("to")
			amount, _ := env.Arg("amount")
			allowed, err := env.Load("allowance", from, spender)
			if err != nil {
				return nil, err
			}
			cmp, err := allowed.Cmp(amount)
			if err != nil {
				return nil, err
			}
			if _, err = env.Invoke(contract.BuiltinRequire, cmp >= 0, "ERC20: insufficient allowance"); err != nil {
				return nil, err
			}
			left, err := allowed.Sub(amount)
			if err != nil {
				return nil, err
			}
			if err = env.Store("allowance", left, from, spender); err != nil {
				return nil, err
			}
			if _, err = env.Invoke("_transfer", from, to, amount); err != nil {
				return nil, err
			}
			return true, nil
		}, contract.Virtual, contract.Returns(types.Bool)).
		Function("_transfer", []contract.Param{
			contract.P("from", types.Address),
			contract.P("to", types.Address),
			contract.P("amount", types.Uint256),
		}, func(env contract.Env) (interface{}, error) {
			from, _ := env.Arg("from")
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
			if _, err = env.Invoke(contract.BuiltinRequire, cmp >= 0, "ERC20: insufficient balance"); err != nil {
				return nil, err
			}
			if err = addBalance(env, from, amount, false); err != nil {
				return nil, err
			}
			if err = addBalance(env, to, amount, true); err != nil {
				return nil, err
			}
			_, err = env.Invoke(contract.BuiltinEmit, "Transfer", map[string]interface{}{"from": from, "to": to, "amount": amount})
			return nil, err
		}, contract.Internal).
		Function("_mint", []contract.Param{contract.P("to", types.Address), contract.P("amount", types.Uint256)}, func(env contract.Env) (interface{}, error) {
			to, _ := env.Arg("to")
			amount, _ := env.Arg("amount")
			supply, err := env.Load("totalSupply")
			if err != nil {
				return nil, err
			}
			supply, err = supply.Add(amount)
			if err != nil {
				return nil, err
			}
			if err = env.Store("totalSupply", supply); err != nil {
				return nil, err
			}
			if err = addBalance(env, to, amount, true); err != nil {
				return nil, err
			}
			_, err = env.Invoke(contract.BuiltinEmit, "Transfer", map[string]interface{}{
				"from":   types.ZeroValue(types.Address),
				"to":     to,
				"amount": amount,
			})
			return nil, err
		}, contract.Internal).
		Build()
}

// addBalance adds or subtracts amount from the balance of holder.
func addBalance(env contract.Env, holder *types.TypedValue, amount *types.TypedValue, add bool) error {
	balance, err := env.Load("balanceOf", holder)
	if err != nil {
		return err
	}
	if add {
		balance, err = balance.Add(amount)
	} else {
		balance, err = balance.Sub(amount)
	}
	if err != nil {
		return err
	}
	return env.Store("balanceOf", balance, holder)
}
