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

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/wcgcyx/rubidity/types"
)

// ABIParam is an exported parameter.
type ABIParam struct {
	Name       string     `json:"name"`
	Type       string     `json:"type"`
	Components []ABIParam `json:"components,omitempty"`
}

// ABIEntry is an exported function.
type ABIEntry struct {
	Name              string     `json:"name,omitempty"`
	Inputs            []ABIParam `json:"inputs"`
	OverrideModifiers []string   `json:"overrideModifiers"`
	Outputs           []ABIParam `json:"outputs"`
	StateMutability   string     `json:"stateMutability"`
	Type              string     `json:"type"`
	Visibility        string     `json:"visibility"`
	FromParent        bool       `json:"fromParent"`
}

// ABI exports the merged function table.
func (c *Class) ABI() []ABIEntry {
	res := make([]ABIEntry, 0, len(c.order))
	for _, f := range c.Functions() {
		res = append(res, exportFunction(f))
	}
	return res
}

// ABIJSON exports the merged function table as JSON.
func (c *Class) ABIJSON() ([]byte, error) {
	return json.MarshalIndent(c.ABI(), "", "  ")
}

func exportFunction(f *Function) ABIEntry {
	entry := ABIEntry{
		Inputs:            exportParams(f.Params),
		OverrideModifiers: make([]string, 0),
		Outputs:           exportParams(f.Returns),
		StateMutability:   f.Mutability.String(),
		Type:              "function",
		Visibility:        f.Visibility.String(),
		FromParent:        f.FromParent,
	}
	if f.Constructor {
		entry.Type = "constructor"
	} else {
		entry.Name = f.Name
	}
	if f.Virtual {
		entry.OverrideModifiers = append(entry.OverrideModifiers, "virtual")
	}
	if f.Override {
		entry.OverrideModifiers = append(entry.OverrideModifiers, "override")
	}
	return entry
}

func exportParams(params []Param) []ABIParam {
	res := make([]ABIParam, 0, len(params))
	for _, p := range params {
		res = append(res, exportParam(p.Name, p.Type))
	}
	return res
}

// exportParam serializes structs as tuples with named components and arrays as elem[length].
func exportParam(name string, typ *types.Type) ABIParam {
	switch typ.Kind() {
	case types.KindStruct:
		components := make([]ABIParam, 0)
		for _, f := range typ.Fields() {
			components = append(components, exportParam(f.Name, f.Type))
		}
		return ABIParam{Name: name, Type: "tuple", Components: components}
	case types.KindArray:
		elem := exportParam(name, typ.Elem())
		if typ.Length() == 0 {
			elem.Type = elem.Type + "[]"
		} else {
			elem.Type = fmt.Sprintf("%v[%v]", elem.Type, typ.Length())
		}
		return elem
	case types.KindContract:
		return ABIParam{Name: name, Type: "address"}
	}
	return ABIParam{Name: name, Type: typ.String()}
}

// canonical is the description hashed into the init code hash.
type canonical struct {
	Name       string       `json:"name"`
	Parents    []string     `json:"parents"`
	StateVars  [][2]string  `json:"stateVars"`
	Events     []canonEvent `json:"events"`
	ABI        []ABIEntry   `json:"abi"`
	Abstract   bool         `json:"abstract"`
	Upgradable bool         `json:"upgradeable"`
	Source     string       `json:"source"`
}

type canonEvent struct {
	Name   string     `json:"name"`
	Inputs []ABIParam `json:"inputs"`
}

// computeInitCodeHash hashes the canonical description of the class.
func computeInitCodeHash(c *Class) error {
	desc := canonical{
		Name:       c.def.Name,
		Parents:    c.def.Parents,
		StateVars:  make([][2]string, 0),
		Events:     make([]canonEvent, 0),
		ABI:        c.ABI(),
		Abstract:   c.def.IsAbstract,
		Upgradable: c.def.IsUpgradeable,
		Source:     c.def.SourceText,
	}
	for _, v := range c.stateVars {
		desc.StateVars = append(desc.StateVars, [2]string{v.Name, v.Type.String()})
	}
	for _, e := range c.def.Events {
		desc.Events = append(desc.Events, canonEvent{Name: e.Name, Inputs: exportParams(e.Params)})
	}
	data, err := json.Marshal(desc)
	if err != nil {
		return err
	}
	c.initCodeHash = crypto.Keccak256Hash(data)
	return nil
}
