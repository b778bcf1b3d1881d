package config

import (
	"fmt"
	"strings"
)

// NotObjectError reports a configuration tree whose root is not an
// object.
type NotObjectError struct {
	Actual string
}

func (e *NotObjectError) Error() string {
	return fmt.Sprintf("the configuration root must be an object, got %s", e.Actual)
}

// UnknownOptionError reports a tree path that no registered option
// matches.
type UnknownOptionError struct {
	Path       string
	KnownPaths []string
}

func (e *UnknownOptionError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "no configuration option registered at %q; registered options are:", e.Path)
	for _, path := range e.KnownPaths {
		sb.WriteString("\n  ")
		sb.WriteString(path)
	}
	return sb.String()
}

// MissingRequiredError reports an option without a default that the
// configuration did not set.
type MissingRequiredError struct {
	Path string
}

func (e *MissingRequiredError) Error() string {
	return fmt.Sprintf("required configuration option %q was not set and has no default", e.Path)
}

// WrongTypeError reports a tree leaf whose shape mismatches the option's
// declared kind, or a typed read with the wrong kind.
type WrongTypeError struct {
	Path     string
	Expected Kind
	Actual   string
}

func (e *WrongTypeError) Error() string {
	return fmt.Sprintf("configuration option %q holds a %s, but was given a %s", e.Path, e.Expected, e.Actual)
}

// UnsetError reports a read of an option that was never set and has no
// default.
type UnsetError struct {
	Path string
}

func (e *UnsetError) Error() string {
	return fmt.Sprintf("configuration option %q was never set and has no default", e.Path)
}

// InvolvedOption pairs an option identifier with its rendered current
// value for validator failure messages.
type InvolvedOption struct {
	Identifier string
	Value      string
}

// ValidatorFailedError reports a cross-option invariant violation. The
// causing error of the check is preserved for errors.As.
type ValidatorFailedError struct {
	Description string
	Cause       error
	Involved    []InvolvedOption
}

func (e *ValidatorFailedError) Error() string {
	parts := make([]string, len(e.Involved))
	for i, o := range e.Involved {
		parts[i] = fmt.Sprintf("'%s' = %s", o.Identifier, o.Value)
	}
	return fmt.Sprintf("validation %q failed for %s: %s",
		e.Description, strings.Join(parts, ", "), e.Cause)
}

func (e *ValidatorFailedError) Unwrap() error { return e.Cause }

// LossyWarning reports a numeric coercion that lost information. It is a
// warning, not an error; callers may elevate it.
type LossyWarning struct {
	Path     string
	Rendered string
}

func (w LossyWarning) String() string {
	return fmt.Sprintf("value for configuration option %q was coerced to float with a loss of precision, stored as %s", w.Path, w.Rendered)
}
