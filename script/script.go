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
	"regexp"
	"strings"
	"time"

	"github.com/dop251/goja"
	logging "github.com/ipfs/go-log"
	"github.com/wcgcyx/rubidity/contract"
	"github.com/wcgcyx/rubidity/types"
	"github.com/wcgcyx/rubidity/vmerrors"
)

// Logger
var log = logging.Logger("script")

var (
	loopPattern      = regexp.MustCompile(`\b(for|while|do)\b`)
	referencePattern = regexp.MustCompile(`ReferenceError: ([^ ]+) is not defined`)
	memberPattern    = regexp.MustCompile(`TypeError: Object has no member '([^']+)'`)
)

// Program is a compiled contract script. It is safe for concurrent use.
type Program struct {
	name string
	src  string
	prog *goja.Program
	opts Opts
}

// Compile compiles a contract script.
// Native loops are rejected, iteration must go through forLoop.
func Compile(name string, src string, opts Opts) (*Program, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxCallStackSize <= 0 {
		opts.MaxCallStackSize = defaultMaxCallStackSize
	}
	if loc := loopPattern.FindStringIndex(stripLiterals(src)); loc != nil {
		return nil, vmerrors.NewDefinitionError(vmerrors.InvalidDefinition, name, "", "native loop %q at offset %v, use forLoop", src[loc[0]:loc[1]], loc[0])
	}
	prog, err := goja.Compile(name, src, true)
	if err != nil {
		return nil, vmerrors.NewDefinitionError(vmerrors.InvalidDefinition, name, "", "fail to compile: %v", err.Error())
	}
	return &Program{name: name, src: src, prog: prog, opts: opts}, nil
}

// Source gets the script source.
func (p *Program) Source() string {
	return p.src
}

// Body gets the body of a script function.
// Bound arguments are passed positionally in the order of params.
func (p *Program) Body(function string, params ...string) contract.Body {
	return func(env contract.Env) (interface{}, error) {
		r := newRunner(env, p.opts)
		return r.run(p, function, params)
	}
}

// stripLiterals blanks out string literals and comments.
func stripLiterals(src string) string {
	out := []byte(src)
	for i := 0; i < len(out); i++ {
		switch c := out[i]; {
		case c == '"' || c == '\'' || c == '`':
			j := i + 1
			for ; j < len(out) && out[j] != c; j++ {
				if out[j] == '\\' {
					out[j] = ' '
					j++
					if j >= len(out) {
						break
					}
				}
				out[j] = ' '
			}
			i = j
		case c == '/' && i+1 < len(out) && out[i+1] == '/':
			for ; i < len(out) && out[i] != '\n'; i++ {
				out[i] = ' '
			}
		case c == '/' && i+1 < len(out) && out[i+1] == '*':
			end := strings.Index(string(out[i+2:]), "*/")
			stop := len(out)
			if end >= 0 {
				stop = i + 2 + end + 2
			}
			for ; i < stop; i++ {
				if out[i] != '\n' {
					out[i] = ' '
				}
			}
			i--
		}
	}
	return string(out)
}

// runner runs one function body in a fresh runtime.
type runner struct {
	vm     *goja.Runtime
	env    contract.Env
	opts   Opts
	thrown error
}

func newRunner(env contract.Env, opts Opts) *runner {
	vm := goja.New()
	vm.SetFieldNameMapper(goja.UncapFieldNameMapper())
	vm.SetMaxCallStackSize(opts.MaxCallStackSize)
	return &runner{vm: vm, env: env, opts: opts}
}

func (r *runner) run(p *Program, function string, params []string) (interface{}, error) {
	if err := r.install(); err != nil {
		return nil, err
	}
	timer := time.AfterFunc(r.opts.Timeout, func() {
		r.vm.Interrupt("timeout")
	})
	defer timer.Stop()
	if _, err := r.vm.RunProgram(p.prog); err != nil {
		return nil, r.unwrap(err)
	}
	fn, ok := goja.AssertFunction(r.vm.Get(function))
	if !ok {
		return nil, vmerrors.NewDefinitionError(vmerrors.MissingBody, p.name, function, "script does not define function %v", function)
	}
	args := make([]goja.Value, len(params))
	for i, name := range params {
		arg, err := r.env.Arg(name)
		if err != nil {
			return nil, err
		}
		args[i] = r.toValue(arg)
	}
	res, err := fn(goja.Undefined(), args...)
	if err != nil {
		return nil, r.unwrap(err)
	}
	return r.export(res), nil
}

// throw raises err as a script exception.
func (r *runner) throw(err error) {
	r.thrown = err
	panic(r.vm.NewGoError(err))
}

// unwrap converts a script failure back into a runtime error.
func (r *runner) unwrap(err error) error {
	var ie *goja.InterruptedError
	if errors.As(err, &ie) {
		return vmerrors.NewContractError("script interrupted: %v", ie.Value())
	}
	var fatal vmerrors.Fatal
	if errors.As(err, &fatal) {
		return fatal
	}
	var revert vmerrors.Revert
	if errors.As(err, &revert) {
		return revert
	}
	if r.thrown != nil && strings.Contains(err.Error(), r.thrown.Error()) {
		return r.thrown
	}
	if m := referencePattern.FindStringSubmatch(err.Error()); m != nil {
		return &vmerrors.MethodResolutionError{Name: m[1]}
	}
	if m := memberPattern.FindStringSubmatch(err.Error()); m != nil {
		return &vmerrors.MethodResolutionError{Name: m[1]}
	}
	log.Debugf("Script failed: %v", err.Error())
	return vmerrors.NewContractError(err.Error())
}

// toValue converts a typed value into a script value.
func (r *runner) toValue(tv *types.TypedValue) goja.Value {
	if tv == nil {
		return goja.Undefined()
	}
	return r.vm.ToValue(tv)
}

// export converts a script value into a host value.
func (r *runner) export(v goja.Value) interface{} {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	return v.Export()
}

func (r *runner) exportAll(values []goja.Value) []interface{} {
	res := make([]interface{}, len(values))
	for i, v := range values {
		res[i] = r.export(v)
	}
	return res
}
