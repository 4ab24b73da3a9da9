package vmerrors

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
	"fmt"
	"strings"
)

const (
	MsgGasLimitExceeded            = "Gas limit exceeded"
	MsgTooManyInternalTransactions = "Too many internal transactions"
	MsgMaxIterationsExceeded       = "MaxIterationsExceeded"
)

// Revert is an error that unwinds the current transaction only.
// Other transactions of the block are unaffected.
type Revert interface {
	error
	IsRevert()
}

// Fatal is an error that aborts the whole block processing run.
type Fatal interface {
	error
	IsFatal()
}

// IsRevert checks if the given error reverts a transaction.
func IsRevert(err error) bool {
	var r Revert
	return errors.As(err, &r)
}

// IsFatal checks if the given error aborts block processing.
func IsFatal(err error) bool {
	var f Fatal
	return errors.As(err, &f)
}

// DefinitionKind classifies a malformed contract class.
type DefinitionKind int

const (
	FunctionAlreadyDefined DefinitionKind = iota + 1
	InvalidOverride
	NoShadowing
	InvalidType
	InheritanceCycle
	UnknownParent
	MissingBody
	InvalidDefinition
)

// String gets the name of the definition kind.
func (k DefinitionKind) String() string {
	switch k {
	case FunctionAlreadyDefined:
		return "FunctionAlreadyDefinedError"
	case InvalidOverride:
		return "InvalidOverrideError"
	case NoShadowing:
		return "NoShadowingError"
	case InvalidType:
		return "InvalidTypeError"
	case InheritanceCycle:
		return "InheritanceCycleError"
	case UnknownParent:
		return "UnknownParentError"
	case MissingBody:
		return "MissingBodyError"
	default:
		return "DefinitionError"
	}
}

// DefinitionError is raised while building a contract class, never during execution.
type DefinitionError struct {
	Kind  DefinitionKind
	Class string
	Name  string
	Msg   string
}

func (e *DefinitionError) Error() string {
	if e.Class == "" {
		return fmt.Sprintf("%v: %v", e.Kind, e.Msg)
	}
	return fmt.Sprintf("%v in %v: %v", e.Kind, e.Class, e.Msg)
}

// NewDefinitionError creates a new definition error.
func NewDefinitionError(kind DefinitionKind, class string, name string, format string, args ...interface{}) *DefinitionError {
	return &DefinitionError{
		Kind:  kind,
		Class: class,
		Name:  name,
		Msg:   fmt.Sprintf(format, args...),
	}
}

// IsDefinitionKind checks if err is a definition error of given kind.
func IsDefinitionKind(err error, kind DefinitionKind) bool {
	var d *DefinitionError
	return errors.As(err, &d) && d.Kind == kind
}

// ArgumentError is raised when a function is called with wrong arity or names.
type ArgumentError struct {
	Function   string
	Missing    []string
	Unexpected []string
	Msg        string
}

func (e *ArgumentError) IsRevert() {}

func (e *ArgumentError) Error() string {
	parts := make([]string, 0)
	if e.Msg != "" {
		parts = append(parts, e.Msg)
	}
	if len(e.Missing) > 0 {
		parts = append(parts, "missing: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Unexpected) > 0 {
		parts = append(parts, "unexpected: "+strings.Join(e.Unexpected, ", "))
	}
	return fmt.Sprintf("ArgumentError in %v: %v", e.Function, strings.Join(parts, "; "))
}

// TypeError is raised when a type cannot be constructed or a cast is undefined.
type TypeError struct {
	Msg string
}

func (e *TypeError) IsRevert() {}

func (e *TypeError) Error() string {
	return "TypeError: " + e.Msg
}

// NewTypeError creates a new type error.
func NewTypeError(format string, args ...interface{}) *TypeError {
	return &TypeError{Msg: fmt.Sprintf(format, args...)}
}

// VariableTypeError is raised when a value fails the validation predicate of a type.
type VariableTypeError struct {
	Type  string
	Value interface{}
	Msg   string
}

func (e *VariableTypeError) IsRevert() {}

func (e *VariableTypeError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("VariableTypeError: invalid %v: %v (%v)", e.Type, e.Value, e.Msg)
	}
	return fmt.Sprintf("VariableTypeError: invalid %v: %v", e.Type, e.Value)
}

// ContractError is a business rule failure. It reverts the transaction.
type ContractError struct {
	Msg          string
	Contract     string
	ContractName string
	Excerpt      string
}

func (e *ContractError) IsRevert() {}

func (e *ContractError) Error() string {
	return e.Msg
}

// NewContractError creates a new contract error.
func NewContractError(format string, args ...interface{}) *ContractError {
	return &ContractError{Msg: fmt.Sprintf(format, args...)}
}

// Describe gets a diagnostic line including the contract identity and excerpt.
func (e *ContractError) Describe() string {
	var sb strings.Builder
	sb.WriteString(e.Msg)
	if e.Contract != "" {
		sb.WriteString(fmt.Sprintf(" (contract %v %v)", e.ContractName, e.Contract))
	}
	if e.Excerpt != "" {
		sb.WriteString("\n")
		sb.WriteString(e.Excerpt)
	}
	return sb.String()
}

// Annotate attaches the originating contract to err if it is a contract error without one.
// The excerpt is computed best-effort and a panic while building it is discarded.
func Annotate(err error, contract string, name string, excerpt func() string) {
	var ce *ContractError
	if !errors.As(err, &ce) || ce.Contract != "" {
		return
	}
	ce.Contract = contract
	ce.ContractName = name
	if excerpt == nil {
		return
	}
	func() {
		defer func() {
			if r := recover(); r != nil {
				ce.Excerpt = ""
			}
		}()
		ce.Excerpt = excerpt()
	}()
}

// MethodResolutionError is raised when sandboxed code reaches for a name outside the allow-list.
type MethodResolutionError struct {
	Name string
}

func (e *MethodResolutionError) IsRevert() {}

func (e *MethodResolutionError) Error() string {
	return fmt.Sprintf("undefined method `%v' for sandbox", e.Name)
}

// StaticCallError wraps a failure of a read-only probe. Callers may inspect it and continue.
type StaticCallError struct {
	Err error
}

func (e *StaticCallError) IsRevert() {}

func (e *StaticCallError) Error() string {
	return "static call failed: " + e.Err.Error()
}

func (e *StaticCallError) Unwrap() error {
	return e.Err
}

// InfraError is a failure of the runtime's collaborators, e.g. an unresolvable artifact.
type InfraError struct {
	Msg string
	Err error
}

func (e *InfraError) IsFatal() {}

func (e *InfraError) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return fmt.Sprintf("%v: %v", e.Msg, e.Err.Error())
}

func (e *InfraError) Unwrap() error {
	return e.Err
}

// NewInfraError creates a new infra error.
func NewInfraError(err error, format string, args ...interface{}) *InfraError {
	return &InfraError{Msg: fmt.Sprintf(format, args...), Err: err}
}
