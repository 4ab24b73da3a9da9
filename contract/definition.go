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
	"fmt"

	"github.com/wcgcyx/rubidity/types"
	"github.com/wcgcyx/rubidity/vmerrors"
)

// StateVar is a declared state variable.
type StateVar struct {
	Name   string
	Type   *types.Type
	Public bool
	Origin string
}

// Event is a declared event.
type Event struct {
	Name   string
	Params []Param
	Origin string
}

// Definition is the declaration of a contract class before linking.
type Definition struct {
	Name          string
	Parents       []string
	StateVars     []StateVar
	Events        []Event
	Functions     []*Function
	Structs       []*types.Type
	Available     []string
	IsAbstract    bool
	IsUpgradeable bool
	SourceText    string
}

// VarOpt configures a state variable on declaration.
type VarOpt func(v *StateVar)

// PublicVar makes a state variable public, generating a getter.
var PublicVar VarOpt = func(v *StateVar) { v.Public = true }

// Builder builds a definition. The first error is kept and returned by Build.
type Builder struct {
	def *Definition
	err error
}

// NewBuilder creates a builder for the named class.
func NewBuilder(name string) *Builder {
	return &Builder{
		def: &Definition{
			Name:      name,
			Parents:   make([]string, 0),
			StateVars: make([]StateVar, 0),
			Events:    make([]Event, 0),
			Functions: make([]*Function, 0),
			Structs:   make([]*types.Type, 0),
			Available: make([]string, 0),
		},
	}
}

// Parents declares the parent classes in order.
func (b *Builder) Parents(names ...string) *Builder {
	b.def.Parents = append(b.def.Parents, names...)
	return b
}

// Abstract marks the class abstract, functions may have no body.
func (b *Builder) Abstract() *Builder {
	b.def.IsAbstract = true
	return b
}

// Upgradeable marks the class upgradeable.
func (b *Builder) Upgradeable() *Builder {
	b.def.IsUpgradeable = true
	return b
}

// Source sets the source text used for diagnostics and the init code hash.
func (b *Builder) Source(src string) *Builder {
	b.def.SourceText = src
	return b
}

// Struct declares a struct type.
func (b *Builder) Struct(typ *types.Type) *Builder {
	if b.err != nil {
		return b
	}
	if typ == nil || typ.Kind() != types.KindStruct {
		b.err = vmerrors.NewDefinitionError(vmerrors.InvalidType, b.def.Name, "", "invalid struct type %v", typ)
		return b
	}
	b.def.Structs = append(b.def.Structs, typ)
	return b
}

// AvailableContracts declares the contract types the class may reference or create.
func (b *Builder) AvailableContracts(names ...string) *Builder {
	b.def.Available = append(b.def.Available, names...)
	return b
}

// StateVar declares a state variable.
func (b *Builder) StateVar(name string, typ *types.Type, opts ...VarOpt) *Builder {
	if b.err != nil {
		return b
	}
	if typ == nil {
		b.err = vmerrors.NewDefinitionError(vmerrors.InvalidType, b.def.Name, name, "state variable %v has no type", name)
		return b
	}
	for _, v := range b.def.StateVars {
		if v.Name == name {
			b.err = vmerrors.NewDefinitionError(vmerrors.NoShadowing, b.def.Name, name, "no shadowing: %v already declared", name)
			return b
		}
	}
	v := StateVar{Name: name, Type: typ, Origin: b.def.Name}
	for _, opt := range opts {
		opt(&v)
	}
	b.def.StateVars = append(b.def.StateVars, v)
	if v.Public {
		b.addFunction(getter(b.def.Name, v))
	}
	return b
}

// Event declares an event.
func (b *Builder) Event(name string, params ...Param) *Builder {
	if b.err != nil {
		return b
	}
	for _, e := range b.def.Events {
		if e.Name == name {
			b.err = vmerrors.NewDefinitionError(vmerrors.NoShadowing, b.def.Name, name, "no shadowing: event %v already declared", name)
			return b
		}
	}
	for _, p := range params {
		if p.Type == nil {
			b.err = vmerrors.NewDefinitionError(vmerrors.InvalidType, b.def.Name, name, "event %v argument %v has no type", name, p.Name)
			return b
		}
	}
	b.def.Events = append(b.def.Events, Event{Name: name, Params: params, Origin: b.def.Name})
	return b
}

// Function declares a function. A nil body is only allowed on abstract classes.
func (b *Builder) Function(name string, params []Param, body Body, opts ...FnOpt) *Builder {
	if b.err != nil {
		return b
	}
	f := &Function{
		Name:   name,
		Params: params,
		Body:   body,
		Origin: b.def.Name,
	}
	for _, opt := range opts {
		opt(f)
	}
	b.addFunction(f)
	return b
}

// Constructor declares the constructor.
func (b *Builder) Constructor(params []Param, body Body, opts ...FnOpt) *Builder {
	if b.err != nil {
		return b
	}
	f := &Function{
		Name:        ConstructorName,
		Params:      params,
		Body:        body,
		Constructor: true,
		Origin:      b.def.Name,
	}
	for _, opt := range opts {
		opt(f)
	}
	b.addFunction(f)
	return b
}

// Build gets the definition or the first declaration error.
func (b *Builder) Build() (*Definition, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.def.Name == "" {
		return nil, vmerrors.NewDefinitionError(vmerrors.InvalidDefinition, "", "", "class requires a name")
	}
	return b.def, nil
}

func (b *Builder) addFunction(f *Function) {
	if b.err != nil {
		return
	}
	for _, p := range append(append([]Param{}, f.Params...), f.Returns...) {
		if p.Type == nil {
			b.err = vmerrors.NewDefinitionError(vmerrors.InvalidType, b.def.Name, f.Name, "function %v has an untyped parameter %v", f.Name, p.Name)
			return
		}
	}
	for _, existing := range b.def.Functions {
		if existing.Name == f.Name {
			b.err = vmerrors.NewDefinitionError(vmerrors.FunctionAlreadyDefined, b.def.Name, f.Name, "function %v already defined", f.Name)
			return
		}
	}
	b.def.Functions = append(b.def.Functions, f)
}

// getter generates the view function of a public state variable.
// Mapping and array variables take one key parameter per level.
func getter(class string, v StateVar) *Function {
	params := make([]Param, 0)
	typ := v.Type
	for level := 0; ; level++ {
		name := fmt.Sprintf("arg%v", level)
		if typ.Kind() == types.KindMapping {
			params = append(params, Param{Name: name, Type: typ.Key()})
			typ = typ.Value()
			continue
		}
		if typ.Kind() == types.KindArray {
			params = append(params, Param{Name: name, Type: types.Uint256})
			typ = typ.Elem()
			continue
		}
		break
	}
	variable := v.Name
	return &Function{
		Name:       v.Name,
		Params:     params,
		Returns:    []Param{{Type: typ}},
		Mutability: StateView,
		Visibility: VisPublic,
		Origin:     class,
		Body: func(env Env) (interface{}, error) {
			keys := make([]interface{}, len(params))
			for i, p := range params {
				arg, err := env.Arg(p.Name)
				if err != nil {
					return nil, err
				}
				keys[i] = arg
			}
			return env.Load(variable, keys...)
		},
	}
}
