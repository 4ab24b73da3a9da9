package contract

/*
 * Licensed under LGPL-3.0.
 *
 * You can get a copy of the LGPL-3.0 License at
 *
 * https://www.gnu.org/licenses/lgpl-3.0.en.html
 *
 * @wcgcyx - https://github.com/wcgcyx
 */

import "github.com/wcgcyx/rubidity/types"

//go:generate mockgen -source=env.go -destination=mock_env.go -package=contract

// Env is the sandbox a function body runs against.
// It is the only surface reachable from contract code.
type Env interface {
	// Invoke dispatches an allow-listed operation by name.
	// Reachable names are own ABI functions, available contract types, struct types,
	// ancestor synonyms ("Parent.fn"), integer casts and the builtins.
	// Any other name fails with a MethodResolutionError.
	Invoke(name string, args ...interface{}) (*types.TypedValue, error)

	// Arg gets an argument bound to the running function.
	Arg(name string) (*types.TypedValue, error)

	// Load reads a state variable. Keys index into mappings and arrays or name struct fields.
	Load(variable string, keys ...interface{}) (*types.TypedValue, error)

	// Store writes a state variable.
	Store(variable string, value interface{}, keys ...interface{}) error

	// Call calls a function on another contract in a new frame.
	Call(target interface{}, function string, args ...interface{}) (*types.TypedValue, error)

	// StaticCall calls a read-only function on another contract.
	// Failures are returned as StaticCallError and do not fail the calling frame.
	StaticCall(target interface{}, function string, args ...interface{}) (*types.TypedValue, error)

	// Names gets every name reachable through Invoke.
	Names() []string
}

// Builtin operation names.
const (
	BuiltinRequire        = "require"
	BuiltinRevert         = "revert"
	BuiltinEmit           = "emit"
	BuiltinThis           = "this"
	BuiltinMsg            = "msg"
	BuiltinTx             = "tx"
	BuiltinBlock          = "block"
	BuiltinKeccak256      = "keccak256"
	BuiltinCreate2Address = "create2_address"
	BuiltinForLoop        = "forLoop"
	BuiltinNew            = "new"
	BuiltinABI            = "abi"
	BuiltinJSON           = "json"
	BuiltinSqrt           = "sqrt"
	BuiltinEcrecover      = "ecrecover"
)

// Builtins is the fixed allow-list of builtin names.
var Builtins = []string{
	BuiltinRequire,
	BuiltinRevert,
	BuiltinEmit,
	BuiltinThis,
	BuiltinMsg,
	BuiltinTx,
	BuiltinBlock,
	BuiltinKeccak256,
	BuiltinCreate2Address,
	BuiltinForLoop,
	BuiltinNew,
	BuiltinABI,
	BuiltinJSON,
	BuiltinSqrt,
	BuiltinEcrecover,
}

// MaxLoopIterations is the hard ceiling of a bounded loop.
const MaxLoopIterations = 100

// Loop is a bounded loop passed to the forLoop builtin.
type Loop struct {
	// Start defaults to uint256 zero.
	Start *types.TypedValue

	// Condition is checked before every iteration.
	Condition func(i *types.TypedValue) (bool, error)

	// Step defaults to int256 one.
	Step *types.TypedValue

	// MaxIterations defaults to MaxLoopIterations and must not exceed it.
	MaxIterations int

	Body func(i *types.TypedValue) error
}

// Salt marks the deployment salt argument of the new builtin.
type Salt struct {
	Value interface{}
}
