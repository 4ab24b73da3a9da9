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
	"sort"

	"github.com/wcgcyx/rubidity/types"
	"github.com/wcgcyx/rubidity/vmerrors"
)

// ConstructorName is the ABI name of a constructor.
const ConstructorName = "constructor"

// Mutability is the state mutability of a function.
type Mutability int

const (
	StateNonPayable Mutability = iota
	StatePayable
	StateView
	StatePure
)

func (m Mutability) String() string {
	switch m {
	case StatePayable:
		return "payable"
	case StateView:
		return "view"
	case StatePure:
		return "pure"
	default:
		return "non_payable"
	}
}

// Visibility is the visibility of a function.
type Visibility int

const (
	VisPublic Visibility = iota
	VisExternal
	VisInternal
	VisPrivate
)

func (v Visibility) String() string {
	switch v {
	case VisExternal:
		return "external"
	case VisInternal:
		return "internal"
	case VisPrivate:
		return "private"
	default:
		return "public"
	}
}

// Param is a named typed parameter.
type Param struct {
	Name string
	Type *types.Type
}

// P is a shorthand to create a param.
func P(name string, typ *types.Type) Param {
	return Param{Name: name, Type: typ}
}

// Body is the implementation of a function. It runs against the sandbox environment only.
type Body func(env Env) (interface{}, error)

// Function is a function signature with its implementation.
type Function struct {
	Name        string
	Params      []Param
	Returns     []Param
	Mutability  Mutability
	Visibility  Visibility
	Virtual     bool
	Override    bool
	Constructor bool
	Body        Body

	// FromParent is true if the function is inherited and copied from an ancestor.
	FromParent bool

	// Origin is the name of the declaring class.
	Origin string
}

// FnOpt configures a function on declaration.
type FnOpt func(f *Function)

// Function options.
var (
	View     FnOpt = func(f *Function) { f.Mutability = StateView }
	Pure     FnOpt = func(f *Function) { f.Mutability = StatePure }
	Payable  FnOpt = func(f *Function) { f.Mutability = StatePayable }
	External FnOpt = func(f *Function) { f.Visibility = VisExternal }
	Internal FnOpt = func(f *Function) { f.Visibility = VisInternal }
	Private  FnOpt = func(f *Function) { f.Visibility = VisPrivate }
	Virtual  FnOpt = func(f *Function) { f.Virtual = true }
	Override FnOpt = func(f *Function) { f.Override = true }
)

// Returns sets a single unnamed return type.
func Returns(typ *types.Type) FnOpt {
	return func(f *Function) {
		f.Returns = []Param{{Type: typ}}
	}
}

// ReturnsNamed sets a named tuple of return types.
func ReturnsNamed(params ...Param) FnOpt {
	return func(f *Function) {
		f.Returns = params
	}
}

// ReadOnly checks if the function must not mutate state.
func (f *Function) ReadOnly() bool {
	return f.Mutability == StateView || f.Mutability == StatePure
}

// Callable checks if the function can be the target of a transaction or an external call.
func (f *Function) Callable() bool {
	return f.Visibility == VisPublic || f.Visibility == VisExternal || f.Constructor
}

// inherited creates an inherited copy of the function.
func (f *Function) inherited() *Function {
	res := *f
	res.FromParent = true
	return &res
}

// SameParams checks if two functions have identical parameter type lists.
func (f *Function) SameParams(o *Function) bool {
	if len(f.Params) != len(o.Params) {
		return false
	}
	for i := range f.Params {
		if !f.Params[i].Type.Equal(o.Params[i].Type) {
			return false
		}
	}
	return true
}

// BindArgs validates call arguments against the parameter list.
// Args are either positional values or a single map of named values.
func (f *Function) BindArgs(args []interface{}) (map[string]*types.TypedValue, error) {
	named := false
	var values map[string]interface{}
	if len(args) == 1 {
		values, named = args[0].(map[string]interface{})
		if named && len(f.Params) == 1 {
			// A single struct parameter may take a map positionally.
			if _, ok := values[f.Params[0].Name]; !ok && f.Params[0].Type.Kind() == types.KindStruct {
				named = false
			}
		}
	}
	res := make(map[string]*types.TypedValue)
	if named {
		missing := make([]string, 0)
		for _, p := range f.Params {
			v, ok := values[p.Name]
			if !ok {
				missing = append(missing, p.Name)
				continue
			}
			tv, err := types.Parse(p.Type, v)
			if err != nil {
				return nil, err
			}
			res[p.Name] = tv
		}
		unexpected := make([]string, 0)
		for name := range values {
			if _, ok := res[name]; !ok && !contains(missing, name) {
				unexpected = append(unexpected, name)
			}
		}
		sort.Strings(unexpected)
		if len(missing) > 0 || len(unexpected) > 0 {
			return nil, &vmerrors.ArgumentError{Function: f.Name, Missing: missing, Unexpected: unexpected}
		}
		return res, nil
	}
	if len(args) != len(f.Params) {
		missing := make([]string, 0)
		for i := len(args); i < len(f.Params); i++ {
			missing = append(missing, f.Params[i].Name)
		}
		return nil, &vmerrors.ArgumentError{
			Function: f.Name,
			Missing:  missing,
			Msg:      wrongArity(len(f.Params), len(args)),
		}
	}
	for i, p := range f.Params {
		tv, err := types.Parse(p.Type, args[i])
		if err != nil {
			return nil, err
		}
		res[p.Name] = tv
	}
	return res, nil
}

// CheckReturn validates the value returned by the body against the return spec.
func (f *Function) CheckReturn(v interface{}) (*types.TypedValue, error) {
	switch len(f.Returns) {
	case 0:
		return nil, nil
	case 1:
		if f.Returns[0].Name == "" {
			return types.Validate(f.Returns[0].Type, v)
		}
	}
	typ, err := f.ReturnType()
	if err != nil {
		return nil, err
	}
	return types.Validate(typ, v)
}

// ReturnType gets the type of the returned value, named tuples are represented as a struct.
func (f *Function) ReturnType() (*types.Type, error) {
	switch len(f.Returns) {
	case 0:
		return nil, nil
	case 1:
		if f.Returns[0].Name == "" {
			return f.Returns[0].Type, nil
		}
	}
	fields := make([]types.Field, len(f.Returns))
	for i, r := range f.Returns {
		fields[i] = types.Field{Name: r.Name, Type: r.Type}
	}
	return types.StructOf(f.Name+"Result", fields)
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func wrongArity(expected int, got int) string {
	return fmt.Sprintf("wrong number of arguments (given %v, expected %v)", got, expected)
}
