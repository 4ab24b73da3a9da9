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

	"github.com/ethereum/go-ethereum/common"
	"github.com/wcgcyx/rubidity/contract"
	"github.com/wcgcyx/rubidity/types"
)

// Instance is a deployed contract: an address bound to a class and its state.
type Instance struct {
	Address common.Address
	Class   *contract.Class

	state map[string]*types.TypedValue
}

// NewInstance creates an instance with every state variable at its zero value.
func NewInstance(class *contract.Class, addr common.Address) *Instance {
	state := make(map[string]*types.TypedValue)
	for _, v := range class.StateVars() {
		state[v.Name] = types.ZeroValue(v.Type)
	}
	return &Instance{
		Address: addr,
		Class:   class,
		state:   state,
	}
}

// LoadInstance creates an instance from a serialized state.
// Variables missing from the state are set to their zero value.
func LoadInstance(class *contract.Class, addr common.Address, raw map[string]interface{}) (*Instance, error) {
	inst := NewInstance(class, addr)
	for name, v := range raw {
		sv, ok := class.StateVar(name)
		if !ok {
			return nil, fmt.Errorf("unknown state variable %v for class %v", name, class.Name())
		}
		tv, err := types.Deserialize(sv.Type, v)
		if err != nil {
			return nil, fmt.Errorf("fail to load state variable %v: %w", name, err)
		}
		inst.state[name] = tv
	}
	return inst, nil
}

// Get gets the value of a state variable.
func (i *Instance) Get(name string) (*types.TypedValue, bool) {
	v, ok := i.state[name]
	return v, ok
}

// set replaces the value of a state variable.
func (i *Instance) set(name string, v *types.TypedValue) {
	i.state[name] = v
}

// Snapshot gets a copy of the state. Values are immutable so a shallow copy is enough.
func (i *Instance) Snapshot() map[string]*types.TypedValue {
	res := make(map[string]*types.TypedValue, len(i.state))
	for k, v := range i.state {
		res[k] = v
	}
	return res
}

// Restore resets the state to a snapshot.
func (i *Instance) Restore(snap map[string]*types.TypedValue) {
	i.state = make(map[string]*types.TypedValue, len(snap))
	for k, v := range snap {
		i.state[k] = v
	}
}

// SerializeState gets the storage safe form of the state.
func (i *Instance) SerializeState() map[string]interface{} {
	res := make(map[string]interface{}, len(i.state))
	for k, v := range i.state {
		res[k] = types.Serialize(v)
	}
	return res
}
