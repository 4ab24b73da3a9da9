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
	"github.com/ethereum/go-ethereum/common"
	"github.com/wcgcyx/rubidity/types"
	"github.com/wcgcyx/rubidity/vmerrors"
)

// Class is a linked contract class. It is immutable once built.
type Class struct {
	def          *Definition
	linearized   []string
	functions    map[string]*Function
	order        []string
	supers       map[string]*Function
	stateVars    []StateVar
	stateIndex   map[string]int
	events       map[string]Event
	structs      map[string]*types.Type
	available    []string
	initCodeHash common.Hash
}

// Name gets the class name.
func (c *Class) Name() string {
	return c.def.Name
}

// Definition gets the declaration the class was linked from.
func (c *Class) Definition() *Definition {
	return c.def
}

// IsAbstract checks if the class is abstract.
func (c *Class) IsAbstract() bool {
	return c.def.IsAbstract
}

// InitCodeHash gets the content hash identifying the class.
func (c *Class) InitCodeHash() common.Hash {
	return c.initCodeHash
}

// Linearization gets the ancestors followed by the class itself.
func (c *Class) Linearization() []string {
	res := make([]string, len(c.linearized))
	copy(res, c.linearized)
	return res
}

// Ancestors gets the linearization without the class itself.
func (c *Class) Ancestors() []string {
	return c.Linearization()[:len(c.linearized)-1]
}

// IsAncestor checks if the name is an ancestor of the class.
func (c *Class) IsAncestor(name string) bool {
	for _, a := range c.linearized[:len(c.linearized)-1] {
		if a == name {
			return true
		}
	}
	return false
}

// Function gets a function of the merged ABI.
func (c *Class) Function(name string) (*Function, bool) {
	f, ok := c.functions[name]
	return f, ok
}

// Constructor gets the constructor, if any.
func (c *Class) Constructor() (*Function, bool) {
	return c.Function(ConstructorName)
}

// Super gets the implementation of a function as seen by an ancestor.
func (c *Class) Super(ancestor string, name string) (*Function, bool) {
	f, ok := c.supers[ancestor+"."+name]
	return f, ok
}

// Functions gets the merged ABI in registration order.
func (c *Class) Functions() []*Function {
	res := make([]*Function, 0, len(c.order))
	for _, name := range c.order {
		res = append(res, c.functions[name])
	}
	return res
}

// SuperNames gets the ancestor synonyms in the form "Parent.fn".
func (c *Class) SuperNames() []string {
	res := make([]string, 0, len(c.supers))
	for name := range c.supers {
		res = append(res, name)
	}
	return res
}

// StateVars gets the merged state layout.
func (c *Class) StateVars() []StateVar {
	res := make([]StateVar, len(c.stateVars))
	copy(res, c.stateVars)
	return res
}

// StateVar gets a state variable of the merged layout.
func (c *Class) StateVar(name string) (StateVar, bool) {
	i, ok := c.stateIndex[name]
	if !ok {
		return StateVar{}, false
	}
	return c.stateVars[i], true
}

// Event gets an event of the merged event map.
func (c *Class) Event(name string) (Event, bool) {
	e, ok := c.events[name]
	return e, ok
}

// Struct gets a struct type declared by the class or an ancestor.
func (c *Class) Struct(name string) (*types.Type, bool) {
	t, ok := c.structs[name]
	return t, ok
}

// StructNames gets the struct type names.
func (c *Class) StructNames() []string {
	res := make([]string, 0, len(c.structs))
	for name := range c.structs {
		res = append(res, name)
	}
	return res
}

// AvailableContracts gets the contract type names reachable from the class.
func (c *Class) AvailableContracts() []string {
	res := make([]string, len(c.available))
	copy(res, c.available)
	return res
}

// Implements checks if the class has every publicly callable function of iface
// with an identical parameter type list. Constructors only need to exist by name.
func (c *Class) Implements(iface *Class) bool {
	for _, f := range iface.Functions() {
		if f.Visibility != VisPublic && f.Visibility != VisExternal {
			continue
		}
		own, ok := c.functions[f.Name]
		if !ok {
			return false
		}
		if f.Constructor {
			continue
		}
		if !own.SameParams(f) {
			return false
		}
	}
	return true
}

// Linearize orders a class and its ancestors by depth first traversal.
// A class is appended once all of its parents, visited in declaration order, are appended.
// The class itself comes last.
func Linearize(name string, parentsOf func(name string) ([]string, error)) ([]string, error) {
	res := make([]string, 0)
	done := make(map[string]bool)
	visiting := make(map[string]bool)
	var visit func(n string) error
	visit = func(n string) error {
		if done[n] {
			return nil
		}
		if visiting[n] {
			return vmerrors.NewDefinitionError(vmerrors.InheritanceCycle, name, n, "inheritance cycle through %v", n)
		}
		visiting[n] = true
		parents, err := parentsOf(n)
		if err != nil {
			return err
		}
		for _, p := range parents {
			if err = visit(p); err != nil {
				return err
			}
		}
		visiting[n] = false
		done[n] = true
		res = append(res, n)
		return nil
	}
	if err := visit(name); err != nil {
		return nil, err
	}
	return res, nil
}

// link merges the ancestors into a new class.
// ancestors must be given in linearization order without the class itself.
func link(def *Definition, linearized []string, ancestors []*Class, policy MergePolicy) (*Class, error) {
	c := &Class{
		def:        def,
		linearized: linearized,
		functions:  make(map[string]*Function),
		order:      make([]string, 0),
		supers:     make(map[string]*Function),
		stateVars:  make([]StateVar, 0),
		stateIndex: make(map[string]int),
		events:     make(map[string]Event),
		structs:    make(map[string]*types.Type),
		available:  make([]string, 0),
	}
	// Inherited functions.
	for _, a := range ancestors {
		for _, f := range a.Functions() {
			c.supers[a.Name()+"."+f.Name] = f
		}
		for _, f := range a.def.Functions {
			if err := c.register(f.inherited()); err != nil {
				return nil, err
			}
		}
	}
	// Own functions.
	for _, f := range def.Functions {
		own := *f
		own.FromParent = false
		own.Origin = def.Name
		if err := c.register(&own); err != nil {
			return nil, err
		}
	}
	if !def.IsAbstract {
		for _, f := range c.Functions() {
			if f.Body == nil {
				return nil, vmerrors.NewDefinitionError(vmerrors.MissingBody, def.Name, f.Name, "function %v has no body in non abstract class", f.Name)
			}
		}
	}
	// State variables and events.
	c.mergeLayout(ancestors, policy)
	for _, v := range def.StateVars {
		if _, ok := c.stateIndex[v.Name]; ok {
			return nil, vmerrors.NewDefinitionError(vmerrors.NoShadowing, def.Name, v.Name, "no shadowing: %v is inherited", v.Name)
		}
		c.stateIndex[v.Name] = len(c.stateVars)
		c.stateVars = append(c.stateVars, v)
	}
	for _, e := range def.Events {
		c.events[e.Name] = e
	}
	// Struct and contract types.
	seen := make(map[string]bool)
	for _, a := range ancestors {
		for _, s := range a.def.Structs {
			c.structs[s.Name()] = s
		}
		for _, name := range a.def.Available {
			if !seen[name] {
				seen[name] = true
				c.available = append(c.available, name)
			}
		}
	}
	for _, s := range def.Structs {
		c.structs[s.Name()] = s
	}
	for _, name := range def.Available {
		if !seen[name] {
			seen[name] = true
			c.available = append(c.available, name)
		}
	}
	return c, nil
}

// register adds a function to the merged ABI following the override rules.
func (c *Class) register(f *Function) error {
	existing, ok := c.functions[f.Name]
	if !ok {
		if f.Override && !f.FromParent {
			return vmerrors.NewDefinitionError(vmerrors.InvalidOverride, c.def.Name, f.Name, "function %v overrides nothing", f.Name)
		}
		c.functions[f.Name] = f
		c.order = append(c.order, f.Name)
		return nil
	}
	if !existing.FromParent {
		return vmerrors.NewDefinitionError(vmerrors.FunctionAlreadyDefined, c.def.Name, f.Name, "function %v already defined", f.Name)
	}
	switch {
	case existing.Virtual && f.Override:
	case existing.Constructor && f.Constructor:
	case f.FromParent:
	default:
		if f.Override {
			return vmerrors.NewDefinitionError(vmerrors.InvalidOverride, c.def.Name, f.Name, "function %v overrides non virtual function of %v", f.Name, existing.Origin)
		}
		return vmerrors.NewDefinitionError(vmerrors.InvalidOverride, c.def.Name, f.Name, "function %v of %v is redeclared without override", f.Name, existing.Origin)
	}
	c.functions[f.Name] = f
	return nil
}

// mergeLayout merges the state variables and events of the ancestors.
func (c *Class) mergeLayout(ancestors []*Class, policy MergePolicy) {
	ordered := ancestors
	if policy == BaseAncestorWins {
		// Fold from the closest ancestor so the most base declaration is written last.
		ordered = make([]*Class, len(ancestors))
		for i, a := range ancestors {
			ordered[len(ancestors)-1-i] = a
		}
	}
	for _, a := range ordered {
		for _, v := range a.def.StateVars {
			if i, ok := c.stateIndex[v.Name]; ok {
				c.stateVars[i] = v
				continue
			}
			c.stateIndex[v.Name] = len(c.stateVars)
			c.stateVars = append(c.stateVars, v)
		}
		for _, e := range a.def.Events {
			c.events[e.Name] = e
		}
	}
}
