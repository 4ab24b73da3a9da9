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
	"github.com/wcgcyx/rubidity/script"
	"github.com/wcgcyx/rubidity/types"
)

const factoryScript = `
function deploy(name, symbol, s, supply) {
  var token = create("Token", salt(s), name, symbol, 18);
  call(token, "mint", msg.sender, supply);
  call(token, "transferOwnership", msg.sender);
  store("deployed", load("deployed").add(1));
  store("tokenOf", token, s);
  emit("TokenDeployed", { token: token, owner: msg.sender, salt: s });
  return token;
}

function predict(s) {
  return create2_address(s, self(), "Token");
}
`

// TokenFactory deploys tokens at deterministic addresses.
func TokenFactory(opts script.Opts) (*contract.Definition, error) {
	prog, err := script.Compile("TokenFactory", factoryScript, opts)
	if err != nil {
		return nil, err
	}
	tokenOf, err := types.MappingOf(types.Bytes32, types.Address)
	if err != nil {
		return nil, err
	}
	return contract.NewBuilder("TokenFactory").
		Source(prog.Source()).
		AvailableContracts("Token").
		StateVar("deployed", types.Uint256, contract.PublicVar).
		StateVar("tokenOf", tokenOf, contract.PublicVar).
		Event("TokenDeployed", contract.P("token", types.Address), contract.P("owner", types.Address), contract.P("salt", types.Bytes32)).
		Function("deploy", []contract.Param{
			contract.P("name", types.String),
			contract.P("symbol", types.String),
			contract.P("salt", types.Bytes32),
			contract.P("supply", types.Uint256),
		}, prog.Body("deploy", "name", "symbol", "salt", "supply"), contract.Returns(types.Address)).
		Function("predict", []contract.Param{contract.P("salt", types.Bytes32)}, prog.Body("predict", "salt"), contract.View, contract.Returns(types.Address)).
		Build()
}
