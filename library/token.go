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

// Token is a mintable ERC20 owned by its deployer.
func Token() (*contract.Definition, error) {
	return contract.NewBuilder("Token").
		Parents("ERC20", "Ownable").
		Source(tokenSource).
		Constructor([]contract.Param{
			contract.P("name", types.String),
			contract.P("symbol", types.String),
			contract.P("decimals", types.Uint8),
		}, func(env contract.Env) (interface{}, error) {
			name, _ := env.Arg("name")
			symbol, _ := env.Arg("symbol")
			decimals, _ := env.Arg("decimals")
			if _, err := env.Invoke("ERC20.constructor", name, symbol, decimals); err != nil {
				return nil, err
			}
			_, err := env.Invoke("Ownable.constructor")
			return nil, err
		}).
		Function("mint", []contract.Param{contract.P("to", types.Address), contract.P("amount", types.Uint256)}, func(env contract.Env) (interface{}, error) {
			if _, err := env.Invoke("onlyOwner"); err != nil {
				return nil, err
			}
			to, _ := env.Arg("to")
			amount, _ := env.Arg("amount")
			_, err := env.Invoke("_mint", to, amount)
			return nil, err
		}).
		Function("transfer", []contract.Param{contract.P("to", types.Address), contract.P("amount", types.Uint256)}, func(env contract.Env) (interface{}, error) {
			amount, _ := env.Arg("amount")
			if _, err := env.Invoke(contract.BuiltinRequire, !types.IsZero(amount), "Token: zero transfer"); err != nil {
				return nil, err
			}
			to, _ := env.Arg("to")
			return env.Invoke("ERC20.transfer", to, amount)
		}, contract.Override, contract.Returns(types.Bool)).
		Build()
}

const tokenSource = `contract Token is ERC20, Ownable {
  constructor(string name, string symbol, uint8 decimals) {
    ERC20.constructor(name, symbol, decimals);
    Ownable.constructor();
  }
  function mint(address to, uint256 amount) public {
    onlyOwner();
    _mint(to, amount);
  }
  function transfer(address to, uint256 amount) public override returns (bool) {
    require(amount != 0, "Token: zero transfer");
    return ERC20.transfer(to, amount);
  }
}`
