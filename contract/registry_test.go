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
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/wcgcyx/rubidity/types"
	"github.com/wcgcyx/rubidity/vmerrors"
)

func noop(env Env) (interface{}, error) {
	return nil, nil
}

func newTestRegistry(t *testing.T, policy MergePolicy) *Registry {
	r, err := NewRegistry(Opts{MergePolicy: policy, CacheSize: 16})
	assert.Nil(t, err)
	return r
}

func register(t *testing.T, r *Registry, b *Builder) *Class {
	def, err := b.Build()
	assert.Nil(t, err)
	c, err := r.Register(def)
	assert.Nil(t, err)
	return c
}

func TestLinearizeDiamond(t *testing.T) {
	r := newTestRegistry(t, ClosestAncestorWins)
	register(t, r, NewBuilder("A"))
	register(t, r, NewBuilder("B").Parents("A"))
	register(t, r, NewBuilder("C").Parents("A"))
	d := register(t, r, NewBuilder("D").Parents("B", "C"))

	assert.Equal(t, []string{"A", "B", "C", "D"}, d.Linearization())
	assert.Equal(t, []string{"A", "B", "C"}, d.Ancestors())
	assert.NotContains(t, d.Ancestors(), "D")

	res, err := r.Linearize("D")
	assert.Nil(t, err)
	assert.Equal(t, d.Linearization(), res)
}

func TestLinearizeErrors(t *testing.T) {
	r := newTestRegistry(t, ClosestAncestorWins)
	def, err := NewBuilder("X").Parents("Missing").Build()
	assert.Nil(t, err)
	_, err = r.Register(def)
	assert.True(t, vmerrors.IsDefinitionKind(err, vmerrors.UnknownParent))

	def, err = NewBuilder("Self").Parents("Self").Build()
	assert.Nil(t, err)
	_, err = r.Register(def)
	assert.True(t, vmerrors.IsDefinitionKind(err, vmerrors.InheritanceCycle))

	_, err = Linearize("P", func(name string) ([]string, error) {
		if name == "P" {
			return []string{"Q"}, nil
		}
		return []string{"P"}, nil
	})
	assert.True(t, vmerrors.IsDefinitionKind(err, vmerrors.InheritanceCycle))
}

func TestFunctionAlreadyDefined(t *testing.T) {
	_, err := NewBuilder("A").
		Function("f", nil, noop).
		Function("f", nil, noop).
		Build()
	assert.True(t, vmerrors.IsDefinitionKind(err, vmerrors.FunctionAlreadyDefined))

	_, err = NewBuilder("A").
		StateVar("owner", types.Address, PublicVar).
		Function("owner", nil, noop).
		Build()
	assert.True(t, vmerrors.IsDefinitionKind(err, vmerrors.FunctionAlreadyDefined))
}

func TestOverrideRules(t *testing.T) {
	r := newTestRegistry(t, ClosestAncestorWins)
	register(t, r, NewBuilder("Base").
		Function("v", nil, noop, Virtual).
		Function("nv", nil, noop))

	// Override of a virtual function.
	c := register(t, r, NewBuilder("Good").Parents("Base").Function("v", nil, noop, Override))
	f, ok := c.Function("v")
	assert.True(t, ok)
	assert.Equal(t, "Good", f.Origin)
	assert.False(t, f.FromParent)
	super, ok := c.Super("Base", "v")
	assert.True(t, ok)
	assert.Equal(t, "Base", super.Origin)

	// Override of a non virtual function.
	def, _ := NewBuilder("Bad1").Parents("Base").Function("nv", nil, noop, Override).Build()
	_, err := r.Register(def)
	assert.True(t, vmerrors.IsDefinitionKind(err, vmerrors.InvalidOverride))

	// Override of nothing.
	def, _ = NewBuilder("Bad2").Parents("Base").Function("none", nil, noop, Override).Build()
	_, err = r.Register(def)
	assert.True(t, vmerrors.IsDefinitionKind(err, vmerrors.InvalidOverride))

	// Redeclaration without override.
	def, _ = NewBuilder("Bad3").Parents("Base").Function("v", nil, noop).Build()
	_, err = r.Register(def)
	assert.True(t, vmerrors.IsDefinitionKind(err, vmerrors.InvalidOverride))

	// Failed registration does not poison the name.
	def, _ = NewBuilder("Bad1").Parents("Base").Build()
	_, err = r.Register(def)
	assert.Nil(t, err)
}

func TestConstructorsAndMultipleInheritance(t *testing.T) {
	r := newTestRegistry(t, ClosestAncestorWins)
	register(t, r, NewBuilder("A").Constructor(nil, noop).Function("f", nil, noop, Virtual))
	register(t, r, NewBuilder("B").Parents("A").Constructor(nil, noop).Function("f", nil, noop, Virtual, Override))
	register(t, r, NewBuilder("C").Parents("A").Constructor(nil, noop))
	d := register(t, r, NewBuilder("D").Parents("B", "C").Constructor(nil, noop))

	ctor, ok := d.Constructor()
	assert.True(t, ok)
	assert.Equal(t, "D", ctor.Origin)
	f, _ := d.Function("f")
	assert.Equal(t, "B", f.Origin)
	_, ok = d.Super("C", ConstructorName)
	assert.True(t, ok)
}

func TestStateVarShadowingAndMergePolicy(t *testing.T) {
	for _, policy := range []MergePolicy{ClosestAncestorWins, BaseAncestorWins} {
		r := newTestRegistry(t, policy)
		register(t, r, NewBuilder("A").StateVar("x", types.Uint256).Event("E", P("a", types.Uint256)))
		register(t, r, NewBuilder("B").StateVar("x", types.Address).Event("E", P("b", types.Address)))
		c := register(t, r, NewBuilder("C").Parents("A", "B").Event("E", P("c", types.String)))

		v, ok := c.StateVar("x")
		assert.True(t, ok)
		e, _ := c.Event("E")
		assert.Equal(t, "c", e.Params[0].Name)
		if policy == ClosestAncestorWins {
			assert.Equal(t, "B", v.Origin)
		} else {
			assert.Equal(t, "A", v.Origin)
		}

		def, _ := NewBuilder("D").Parents("A").StateVar("x", types.Uint256).Build()
		_, err := r.Register(def)
		assert.True(t, vmerrors.IsDefinitionKind(err, vmerrors.NoShadowing))
	}

	_, err := NewBuilder("E").StateVar("y", types.Bool).StateVar("y", types.Bool).Build()
	assert.True(t, vmerrors.IsDefinitionKind(err, vmerrors.NoShadowing))
}

func TestMissingBody(t *testing.T) {
	r := newTestRegistry(t, ClosestAncestorWins)
	register(t, r, NewBuilder("IFace").Abstract().Function("f", []Param{P("a", types.Uint256)}, nil, Virtual))

	def, _ := NewBuilder("Impl").Parents("IFace").Build()
	_, err := r.Register(def)
	assert.True(t, vmerrors.IsDefinitionKind(err, vmerrors.MissingBody))

	impl := register(t, r, NewBuilder("Impl2").Parents("IFace").Function("f", []Param{P("a", types.Uint256)}, noop, Override))
	iface, _ := r.ClassByName("IFace")
	assert.True(t, impl.Implements(iface))

	other := register(t, r, NewBuilder("Other").Function("f", []Param{P("a", types.Address)}, noop))
	assert.False(t, other.Implements(iface))
}

func TestInitCodeHashAndLookup(t *testing.T) {
	r := newTestRegistry(t, ClosestAncestorWins)
	a := register(t, r, NewBuilder("A").Source("contract A {}"))
	b := register(t, r, NewBuilder("B").Source("contract B {}"))
	assert.NotEqual(t, a.InitCodeHash(), b.InitCodeHash())

	found, err := r.FindContractArtifact(a.InitCodeHash())
	assert.Nil(t, err)
	assert.Equal(t, "A", found.Name())

	_, err = r.FindContractArtifact(common.Hash{})
	assert.ErrorIs(t, err, ErrArtifactNotFound)
}

func TestABIExport(t *testing.T) {
	r := newTestRegistry(t, ClosestAncestorWins)
	point, err := types.StructOf("Point", []types.Field{{Name: "x", Type: types.Uint256}, {Name: "y", Type: types.Uint256}})
	assert.Nil(t, err)
	arr, _ := types.ArrayOf(types.Address, 3)
	balances, _ := types.MappingOf(types.Address, types.Uint256)

	c := register(t, r, NewBuilder("Shapes").
		Struct(point).
		StateVar("balanceOf", balances, PublicVar).
		Constructor([]Param{P("owners", arr)}, noop).
		Function("move", []Param{P("p", point)}, noop, ReturnsNamed(P("ok", types.Bool)), Virtual))

	data, err := c.ABIJSON()
	assert.Nil(t, err)
	var entries []map[string]interface{}
	assert.Nil(t, json.Unmarshal(data, &entries))
	assert.Equal(t, 3, len(entries))

	getter := entries[0]
	assert.Equal(t, "balanceOf", getter["name"])
	assert.Equal(t, "view", getter["stateMutability"])
	assert.Equal(t, "address", getter["inputs"].([]interface{})[0].(map[string]interface{})["type"])

	ctor := entries[1]
	assert.Equal(t, "constructor", ctor["type"])
	assert.Equal(t, "address[3]", ctor["inputs"].([]interface{})[0].(map[string]interface{})["type"])

	move := entries[2]
	input := move["inputs"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "tuple", input["type"])
	assert.Equal(t, 2, len(input["components"].([]interface{})))
	assert.Equal(t, []interface{}{"virtual"}, move["overrideModifiers"])
	assert.Equal(t, "public", move["visibility"])
	assert.Equal(t, false, move["fromParent"])
	assert.Equal(t, "ok", move["outputs"].([]interface{})[0].(map[string]interface{})["name"])
}

func TestBindArgs(t *testing.T) {
	f := &Function{Name: "transfer", Params: []Param{P("to", types.Address), P("amount", types.Uint256)}}

	args, err := f.BindArgs([]interface{}{"0x976ea74026e726554db657fa54763abd0c3a0aa9", "100"})
	assert.Nil(t, err)
	n, _ := args["amount"].Int64()
	assert.Equal(t, int64(100), n)

	_, err = f.BindArgs([]interface{}{map[string]interface{}{"to": "0x976ea74026e726554db657fa54763abd0c3a0aa9", "value": 1}})
	var ae *vmerrors.ArgumentError
	assert.ErrorAs(t, err, &ae)
	assert.Equal(t, []string{"amount"}, ae.Missing)
	assert.Equal(t, []string{"value"}, ae.Unexpected)

	_, err = f.BindArgs([]interface{}{"0x976ea74026e726554db657fa54763abd0c3a0aa9"})
	assert.ErrorAs(t, err, &ae)
	assert.True(t, vmerrors.IsRevert(err))
}
