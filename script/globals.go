package script

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
	"errors"
	"strings"

	"github.com/dop251/goja"
	"github.com/wcgcyx/rubidity/contract"
	"github.com/wcgcyx/rubidity/types"
	"github.com/wcgcyx/rubidity/vmerrors"
)

// Builtins read as properties of a context object, e.g. msg.sender.
var properties = map[string][]string{
	contract.BuiltinMsg:   {"sender"},
	contract.BuiltinTx:    {"origin", "hash"},
	contract.BuiltinBlock: {"number", "timestamp", "hash"},
}

// Builtins called as methods of a namespace object, e.g. abi.encodePacked(...).
var methods = map[string][]string{
	contract.BuiltinABI:  {"encodePacked"},
	contract.BuiltinJSON: {"stringify"},
}

// Builtins whose names are reserved words in scripts.
var aliases = map[string]string{
	contract.BuiltinThis: "self",
	contract.BuiltinNew:  "create",
}

// lockdown strips the runtime down to bare syntax. Every global binding is deleted and
// every prototype reachable from a literal loses its members, so only the installed
// sandbox names resolve.
var lockdown = goja.MustCompile("lockdown", `
(function(global) {
  var getProto = Object.getPrototypeOf;
  var names = Object.getOwnPropertyNames;
  var symbols = Object.getOwnPropertySymbols;
  var keep = Object.create(null);
  keep.toString = true;
  keep.valueOf = true;
  keep.name = true;
  keep.message = true;
  keep.undefined = true;
  keep.NaN = true;
  keep.Infinity = true;
  var protos = [Object.prototype, getProto(function() {}), getProto([][Symbol.iterator]()), getProto(""[Symbol.iterator]())];
  protos.push(getProto(protos[2]));
  var kinds = ["function*() {}", "async function() {}", "async function*() {}"];
  for (var i = 0; i < kinds.length; i++) {
    try {
      protos.push(getProto(Function("return " + kinds[i])()));
    } catch (e) {}
  }
  var globals = names(global);
  for (var i = 0; i < globals.length; i++) {
    var v = global[globals[i]];
    if (v !== null && (typeof v === "function" || typeof v === "object") && v.prototype !== null && typeof v.prototype === "object") {
      protos.push(v.prototype);
    }
  }
  for (var i = 0; i < protos.length; i++) {
    var p = protos[i];
    var own = names(p);
    for (var j = 0; j < own.length; j++) {
      if (keep[own[j]] !== true) {
        try { delete p[own[j]]; } catch (e) {}
      }
    }
    var syms = symbols(p);
    for (var j = 0; j < syms.length; j++) {
      try { delete p[syms[j]]; } catch (e) {}
    }
  }
  for (var i = 0; i < globals.length; i++) {
    if (keep[globals[i]] !== true) {
      try { delete global[globals[i]]; } catch (e) {}
    }
  }
})(this);
`, true)

// install exposes the sandbox as the global scope of the runtime.
func (r *runner) install() error {
	if _, err := r.vm.RunProgram(lockdown); err != nil {
		return vmerrors.NewInfraError(err, "fail to lock down runtime")
	}
	for _, name := range r.env.Names() {
		var err error
		switch {
		case properties[name] != nil:
			err = r.installProperties(name, properties[name])
		case methods[name] != nil:
			err = r.installMethods(name, methods[name])
		case aliases[name] != "":
			err = r.vm.Set(aliases[name], r.invoker(name))
		case name == contract.BuiltinForLoop:
			err = r.vm.Set(name, r.forLoop)
		case strings.Contains(name, "."):
			err = r.installSuper(name)
		default:
			err = r.vm.Set(name, r.invoker(name))
		}
		if err != nil {
			return vmerrors.NewInfraError(err, "fail to install %v", name)
		}
	}
	helpers := map[string]func(call goja.FunctionCall) goja.Value{
		"arg":        r.arg,
		"load":       r.load,
		"store":      r.store,
		"call":       r.call,
		"staticCall": r.staticCall,
		"salt":       r.salt,
	}
	for name, fn := range helpers {
		if err := r.vm.Set(name, fn); err != nil {
			return vmerrors.NewInfraError(err, "fail to install %v", name)
		}
	}
	return nil
}

// invoker gets a script function dispatching to the named sandbox operation.
func (r *runner) invoker(name string, prefix ...interface{}) func(call goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		args := append(append([]interface{}{}, prefix...), r.exportAll(call.Arguments)...)
		res, err := r.env.Invoke(name, args...)
		if err != nil {
			r.throw(err)
		}
		return r.toValue(res)
	}
}

func (r *runner) installProperties(name string, fields []string) error {
	obj := r.vm.NewObject()
	for _, field := range fields {
		getter := r.vm.ToValue(r.invoker(name, field))
		if err := obj.DefineAccessorProperty(field, getter, nil, goja.FLAG_FALSE, goja.FLAG_TRUE); err != nil {
			return err
		}
	}
	return r.vm.Set(name, obj)
}

func (r *runner) installMethods(name string, fields []string) error {
	obj := r.vm.NewObject()
	for _, field := range fields {
		if err := obj.Set(field, r.invoker(name, field)); err != nil {
			return err
		}
	}
	return r.vm.Set(name, obj)
}

// installSuper exposes "Parent.fn" as a method of the global Parent.
func (r *runner) installSuper(name string) error {
	parts := strings.SplitN(name, ".", 2)
	var obj *goja.Object
	if existing := r.vm.Get(parts[0]); existing != nil && !goja.IsUndefined(existing) {
		obj = existing.ToObject(r.vm)
	} else {
		obj = r.vm.NewObject()
		if err := r.vm.Set(parts[0], obj); err != nil {
			return err
		}
	}
	return obj.Set(parts[1], r.invoker(name))
}

func (r *runner) arg(call goja.FunctionCall) goja.Value {
	v, err := r.env.Arg(call.Argument(0).String())
	if err != nil {
		r.throw(err)
	}
	return r.toValue(v)
}

func (r *runner) load(call goja.FunctionCall) goja.Value {
	args := r.exportAll(call.Arguments)
	if len(args) == 0 {
		r.throw(&vmerrors.ArgumentError{Function: "load", Msg: "missing variable name"})
	}
	v, err := r.env.Load(call.Argument(0).String(), args[1:]...)
	if err != nil {
		r.throw(err)
	}
	return r.toValue(v)
}

func (r *runner) store(call goja.FunctionCall) goja.Value {
	args := r.exportAll(call.Arguments)
	if len(args) < 2 {
		r.throw(&vmerrors.ArgumentError{Function: "store", Msg: "missing variable name or value"})
	}
	if err := r.env.Store(call.Argument(0).String(), args[1], args[2:]...); err != nil {
		r.throw(err)
	}
	return goja.Undefined()
}

func (r *runner) call(call goja.FunctionCall) goja.Value {
	args := r.exportAll(call.Arguments)
	if len(args) < 2 {
		r.throw(&vmerrors.ArgumentError{Function: "call", Msg: "missing target or function"})
	}
	v, err := r.env.Call(args[0], call.Argument(1).String(), args[2:]...)
	if err != nil {
		r.throw(err)
	}
	return r.toValue(v)
}

// staticCall returns null on failure so scripts can probe other contracts.
func (r *runner) staticCall(call goja.FunctionCall) goja.Value {
	args := r.exportAll(call.Arguments)
	if len(args) < 2 {
		r.throw(&vmerrors.ArgumentError{Function: "staticCall", Msg: "missing target or function"})
	}
	v, err := r.env.StaticCall(args[0], call.Argument(1).String(), args[2:]...)
	if err != nil {
		var sce *vmerrors.StaticCallError
		if errors.As(err, &sce) {
			return goja.Null()
		}
		r.throw(err)
	}
	return r.toValue(v)
}

func (r *runner) salt(call goja.FunctionCall) goja.Value {
	return r.vm.ToValue(contract.Salt{Value: r.export(call.Argument(0))})
}

// forLoop adapts a script loop spec {start, condition, step, max, body} to the forLoop builtin.
func (r *runner) forLoop(call goja.FunctionCall) goja.Value {
	spec := call.Argument(0)
	if goja.IsUndefined(spec) || goja.IsNull(spec) {
		r.throw(vmerrors.NewTypeError("forLoop expects a loop spec"))
	}
	obj := spec.ToObject(r.vm)
	loop := contract.Loop{}
	if v := obj.Get("start"); v != nil && !goja.IsUndefined(v) {
		loop.Start = r.integer(v)
	}
	if v := obj.Get("step"); v != nil && !goja.IsUndefined(v) {
		loop.Step = r.integer(v)
	}
	if v := obj.Get("max"); v != nil && !goja.IsUndefined(v) {
		loop.MaxIterations = int(v.ToInteger())
	}
	if cond, ok := goja.AssertFunction(obj.Get("condition")); ok {
		loop.Condition = func(i *types.TypedValue) (bool, error) {
			res, err := cond(goja.Undefined(), r.toValue(i))
			if err != nil {
				return false, r.unwrap(err)
			}
			return res.ToBoolean(), nil
		}
	}
	if body, ok := goja.AssertFunction(obj.Get("body")); ok {
		loop.Body = func(i *types.TypedValue) error {
			if _, err := body(goja.Undefined(), r.toValue(i)); err != nil {
				return r.unwrap(err)
			}
			return nil
		}
	}
	if _, err := r.env.Invoke(contract.BuiltinForLoop, loop); err != nil {
		r.throw(err)
	}
	return goja.Undefined()
}

// integer boxes a script number or typed value as a loop counter.
func (r *runner) integer(v goja.Value) *types.TypedValue {
	tv, err := types.Box(r.export(v))
	if err != nil {
		r.throw(err)
	}
	if !tv.Type().IsInteger() {
		r.throw(vmerrors.NewTypeError("loop counter must be an integer got %v", tv.Type()))
	}
	return tv
}
