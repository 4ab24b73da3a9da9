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

const counterScript = `
function increment() {
  var next = load("count").add(1);
  store("count", next);
  emit("Incremented", { by: 1, count: next });
  return next;
}

function incrementBy(n) {
  forLoop({
    max: 100,
    condition: function(i) { return i.cmp(n) < 0; },
    body: function(i) { store("count", load("count").add(1)); }
  });
  var count = load("count");
  emit("Incremented", { by: n, count: count });
  return count;
}

function reset() {
  require(load("owner").eq(msg.sender), "Counter: caller is not the owner");
  store("count", 0);
}

function init(start) {
  store("owner", msg.sender);
  store("count", start);
}
`

// Counter is a script-backed counter with a bounded bulk increment.
func Counter(opts script.Opts) (*contract.Definition, error) {
	prog, err := script.Compile("Counter", counterScript, opts)
	if err != nil {
		return nil, err
	}
	return contract.NewBuilder("Counter").
		Source(prog.Source()).
		StateVar("count", types.Uint256, contract.PublicVar).
		StateVar("owner", types.Address, contract.PublicVar).
		Event("Incremented", contract.P("by", types.Uint256), contract.P("count", types.Uint256)).
		Constructor([]contract.Param{contract.P("start", types.Uint256)}, prog.Body("init", "start")).
		Function("increment", nil, prog.Body("increment"), contract.Returns(types.Uint256)).
		Function("incrementBy", []contract.Param{contract.P("n", types.Uint256)}, prog.Body("incrementBy", "n"), contract.Returns(types.Uint256)).
		Function("reset", nil, prog.Body("reset")).
		Build()
}
