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

// Ownable gives a contract a single owner, initially the deployer.
func Ownable() (*contract.Definition, error) {
	return contract.NewBuilder("Ownable").
		Abstract().
		StateVar("owner", types.Address, contract.PublicVar).
		Event("OwnershipTransferred", contract.P("previousOwner", types.Address), contract.P("newOwner", types.Address)).
		Constructor(nil, func(env contract.Env) (interface{}, error) {
			sender, err := env.Invoke(contract.BuiltinMsg, "sender")
			if err != nil {
				return nil, err
			}
			return nil, env.Store("owner", sender)
		}).
		Function("onlyOwner", nil, func(env contract.Env) (interface{}, error) {
			sender, err := env.Invoke(contract.BuiltinMsg, "sender")
			if err != nil {
				return nil, err
			}
			owner, err := env.Load("owner")
			if err != nil {
				return nil, err
			}
			ok, err := owner.Eq(sender)
			if err != nil {
				return nil, err
			}
			_, err = env.Invoke(contract.BuiltinRequire, ok, "Ownable: caller is not the owner")
			return nil, err
		}, contract.View, contract.Internal).
		Function("transferOwnership", []contract.Param{contract.P("newOwner", types.Address)}, func(env contract.Env) (interface{}, error) {
			if _, err := env.Invoke("onlyOwner"); err != nil {
				return nil, err
			}
			newOwner, err := env.Arg("newOwner")
			if err != nil {
				return nil, err
			}
			if _, err = env.Invoke(contract.BuiltinRequire, !types.IsZero(newOwner), "Ownable: new owner is the zero address"); err != nil {
				return nil, err
			}
			previous, err := env.Load("owner")
			if err != nil {
				return nil, err
			}
			if err = env.Store("owner", newOwner); err != nil {
				return nil, err
			}
			_, err = env.Invoke(contract.BuiltinEmit, "OwnershipTransferred", map[string]interface{}{
				"previousOwner": previous,
				"newOwner":      newOwner,
			})
			return nil, err
		}, contract.Virtual).
		Build()
}
