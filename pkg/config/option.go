package config

import (
	"regexp"
	"strings"
)

// identifierRegex is the rule every option and sub-manager name follows.
var identifierRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// Option is a named, typed, optionally-defaulted configuration leaf. It
// is created by AddOption and lives as long as its manager.
type Option struct {
	identifier  string
	description string
	value       Value
	defaultData any // nil when the option has no default

	wasSetAtRuntime bool

	// The write-through binding to the caller-owned variable, captured
	// as typed closures at registration. The variable's lifetime must
	// exceed the manager's.
	store func(any)
	load  func() any

	path []string // full path from the root manager
}

// Identifier returns the option's name.
func (o *Option) Identifier() string { return o.identifier }

// Description returns the free-text description.
func (o *Option) Description() string { return o.description }

// Kind returns the declared value kind.
func (o *Option) Kind() Kind { return o.value.Kind() }

// Path returns the option's slash-joined path from the root manager.
func (o *Option) Path() string { return "/" + strings.Join(o.path, "/") }

// HasDefault reports whether the option carries a default value.
func (o *Option) HasDefault() bool { return o.defaultData != nil }

// HasValue reports whether either a default or a runtime value exists.
func (o *Option) HasValue() bool { return !o.value.IsUnset() }

// WasSetAtRuntime reports whether the current value came from a
// configuration tree rather than the default.
func (o *Option) WasSetAtRuntime() bool { return o.wasSetAtRuntime }

// Render returns the current value in rendered form ("[unset]" if none).
func (o *Option) Render() string { return o.value.Render() }

// RenderDefault returns the default value in rendered form.
func (o *Option) RenderDefault() string {
	if o.defaultData == nil {
		return "[none]"
	}
	return renderData(o.defaultData)
}

// setFromTree coerces the tree node to the declared kind, stores it,
// writes the bound variable and marks the option as runtime-set. A shape
// mismatch yields a WrongTypeError naming the option and both kinds.
func (o *Option) setFromTree(node any) (lossy bool, err error) {
	data, lossy, err := coerce(node, o.value.Kind())
	if err != nil {
		mismatch := err.(*typeMismatch)
		return false, &WrongTypeError{Path: o.Path(), Expected: mismatch.expected, Actual: mismatch.actual}
	}
	o.value.assign(data)
	o.store(data)
	o.wasSetAtRuntime = true
	return lossy, nil
}

// Get reads the option's current value as type T. It fails with an
// UnsetError when the option was never set and has no default, and with
// a WrongTypeError when T mismatches the declared kind.
func Get[T ValueType](o *Option) (T, error) {
	var zero T
	if kindOf(zero) != o.value.Kind() {
		return zero, &WrongTypeError{Path: o.Path(), Expected: kindOf(zero), Actual: o.value.Kind().String()}
	}
	if o.value.IsUnset() {
		return zero, &UnsetError{Path: o.Path()}
	}
	return o.value.Get().(T), nil
}

// optionState is the part of an option that ApplyTree may mutate; it is
// snapshotted up front so a failed apply can restore every option and
// bound variable to its pre-call state.
type optionState struct {
	value           Value
	wasSetAtRuntime bool
	variable        any
}

func (o *Option) snapshot() optionState {
	return optionState{
		value:           o.value,
		wasSetAtRuntime: o.wasSetAtRuntime,
		variable:        o.load(),
	}
}

func (o *Option) restore(state optionState) {
	o.value = state.value
	o.wasSetAtRuntime = state.wasSetAtRuntime
	o.store(state.variable)
}

// Handle refers to an option together with its compile-time value type.
// It is returned by AddOption and used to register validators and read
// defaults.
type Handle[T ValueType] struct {
	option *Option
}

// Option returns the underlying option.
func (h Handle[T]) Option() *Option { return h.option }

// Get reads the current value.
func (h Handle[T]) Get() (T, error) { return Get[T](h.option) }

// Default returns the declared default value, if any.
func (h Handle[T]) Default() (T, bool) {
	if h.option.defaultData == nil {
		var zero T
		return zero, false
	}
	return h.option.defaultData.(T), true
}
