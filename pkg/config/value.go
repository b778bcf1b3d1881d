// Package config implements a typed, hierarchical configuration system.
//
// A Manager owns a tree of named, typed options. Each option writes
// through to a caller-owned variable on every successful set, so that
// configuration stays observable without reading back through the
// manager. Configuration arrives either as a JSON-like object tree or as
// the compact shorthand language of the shorthand subpackage; after
// binding, registered cross-option validators run against a consistent
// snapshot.
package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies one of the closed set of value kinds an option can
// hold: five scalar kinds and a homogeneous list of each.
type Kind int

const (
	KindBool Kind = iota
	KindString
	KindInt
	KindUint
	KindFloat
	KindBoolList
	KindStringList
	KindIntList
	KindUintList
	KindFloatList
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "boolean"
	case KindString:
		return "string"
	case KindInt:
		return "integer"
	case KindUint:
		return "unsigned integer"
	case KindFloat:
		return "float"
	case KindBoolList:
		return "list of booleans"
	case KindStringList:
		return "list of strings"
	case KindIntList:
		return "list of integers"
	case KindUintList:
		return "list of unsigned integers"
	case KindFloatList:
		return "list of floats"
	default:
		return "unknown"
	}
}

// IsList reports whether the kind is one of the list kinds.
func (k Kind) IsList() bool { return k >= KindBoolList }

// Element returns the scalar kind of a list kind's elements.
func (k Kind) Element() Kind {
	if !k.IsList() {
		return k
	}
	return k - KindBoolList
}

// ValueType constrains the Go types an option can be bound to.
type ValueType interface {
	bool | string | int64 | uint64 | float64 |
		[]bool | []string | []int64 | []uint64 | []float64
}

// kindOf maps a bound Go value to its Kind.
func kindOf(v any) Kind {
	switch v.(type) {
	case bool:
		return KindBool
	case string:
		return KindString
	case int64:
		return KindInt
	case uint64:
		return KindUint
	case float64:
		return KindFloat
	case []bool:
		return KindBoolList
	case []string:
		return KindStringList
	case []int64:
		return KindIntList
	case []uint64:
		return KindUintList
	case []float64:
		return KindFloatList
	default:
		panic(fmt.Sprintf("config: unsupported value type %T", v))
	}
}

// Value is the tagged union inside an option. The kind is fixed at
// construction; the data moves between the unset state and a value of
// exactly that kind.
type Value struct {
	kind Kind
	set  bool
	data any
}

func newValue(kind Kind) Value {
	return Value{kind: kind}
}

// Kind returns the declared kind.
func (v *Value) Kind() Kind { return v.kind }

// IsUnset reports whether the value holds no data. The unset state is
// distinct from every value state, including zero values.
func (v *Value) IsUnset() bool { return !v.set }

// Get returns the held data. It is nil while unset.
func (v *Value) Get() any { return v.data }

func (v *Value) assign(data any) {
	if kindOf(data) != v.kind {
		panic(fmt.Sprintf("config: assigning %s data to %s value", kindOf(data), v.kind))
	}
	v.data = data
	v.set = true
}

// Render returns a deterministic textual form of the held value:
// strings quoted, floats with six fractional digits, lists as
// "[a, b, c]". The unset state renders as "[unset]".
func (v *Value) Render() string {
	if !v.set {
		return "[unset]"
	}
	return renderData(v.data)
}

func renderData(data any) string {
	switch d := data.(type) {
	case bool:
		return strconv.FormatBool(d)
	case string:
		return strconv.Quote(d)
	case int64:
		return strconv.FormatInt(d, 10)
	case uint64:
		return strconv.FormatUint(d, 10)
	case float64:
		return strconv.FormatFloat(d, 'f', 6, 64)
	case []bool:
		return renderList(d, func(e bool) string { return strconv.FormatBool(e) })
	case []string:
		return renderList(d, strconv.Quote)
	case []int64:
		return renderList(d, func(e int64) string { return strconv.FormatInt(e, 10) })
	case []uint64:
		return renderList(d, func(e uint64) string { return strconv.FormatUint(e, 10) })
	case []float64:
		return renderList(d, func(e float64) string { return strconv.FormatFloat(e, 'f', 6, 64) })
	default:
		panic(fmt.Sprintf("config: rendering unsupported type %T", data))
	}
}

func renderList[T any](list []T, render func(T) string) string {
	parts := make([]string, len(list))
	for i, e := range list {
		parts[i] = render(e)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// describeNode names the structural kind of a tree node for messages.
func describeNode(node any) string {
	switch node.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean literal"
	case string:
		return "string literal"
	case int64:
		return "integer literal"
	case float64:
		return "float literal"
	case json.Number:
		return "number literal"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", node)
	}
}

// typeMismatch is the internal shape error of coerce; the owning option
// wraps it into a WrongTypeError carrying the option path.
type typeMismatch struct {
	expected Kind
	actual   string
}

func (e *typeMismatch) Error() string {
	return fmt.Sprintf("expected a %s, got %s", e.expected, e.actual)
}

// coerce converts a tree node into data of the wanted kind.
//
// The only permitted coercions are integer literal to unsigned (when
// non-negative) and integer literal to float (lossy above 2^53, which is
// reported). Strings are never coerced, in either direction.
func coerce(node any, kind Kind) (data any, lossy bool, err error) {
	mismatch := func() (any, bool, error) {
		return nil, false, &typeMismatch{expected: kind, actual: describeNode(node)}
	}

	if kind.IsList() {
		array, ok := node.([]any)
		if !ok {
			return mismatch()
		}
		return coerceList(array, kind)
	}

	switch kind {
	case KindBool:
		if b, ok := node.(bool); ok {
			return b, false, nil
		}
	case KindString:
		if s, ok := node.(string); ok {
			return s, false, nil
		}
	case KindInt:
		if i, ok := intFromNode(node); ok {
			return i, false, nil
		}
	case KindUint:
		if i, ok := intFromNode(node); ok {
			if i < 0 {
				return nil, false, &typeMismatch{expected: kind, actual: fmt.Sprintf("negative integer literal %d", i)}
			}
			return uint64(i), false, nil
		}
		// Integer literals above MaxInt64 only arrive as json.Number.
		if n, ok := node.(json.Number); ok {
			if u, err := strconv.ParseUint(n.String(), 10, 64); err == nil {
				return u, false, nil
			}
		}
	case KindFloat:
		if f, ok := floatFromNode(node); ok {
			return f, false, nil
		}
		if i, ok := intFromNode(node); ok {
			f := float64(i)
			return f, int64(f) != i, nil
		}
	}
	return mismatch()
}

func coerceList(array []any, kind Kind) (any, bool, error) {
	element := kind.Element()
	anyLossy := false

	coerceAll := func(store func(i int, data any)) error {
		for i, node := range array {
			data, lossy, err := coerce(node, element)
			if err != nil {
				return &typeMismatch{
					expected: kind,
					actual:   fmt.Sprintf("array whose element %d is %s", i, describeNode(node)),
				}
			}
			anyLossy = anyLossy || lossy
			store(i, data)
		}
		return nil
	}

	var (
		result any
		err    error
	)
	switch element {
	case KindBool:
		list := make([]bool, len(array))
		err = coerceAll(func(i int, data any) { list[i] = data.(bool) })
		result = list
	case KindString:
		list := make([]string, len(array))
		err = coerceAll(func(i int, data any) { list[i] = data.(string) })
		result = list
	case KindInt:
		list := make([]int64, len(array))
		err = coerceAll(func(i int, data any) { list[i] = data.(int64) })
		result = list
	case KindUint:
		list := make([]uint64, len(array))
		err = coerceAll(func(i int, data any) { list[i] = data.(uint64) })
		result = list
	case KindFloat:
		list := make([]float64, len(array))
		err = coerceAll(func(i int, data any) { list[i] = data.(float64) })
		result = list
	}
	if err != nil {
		return nil, false, err
	}
	return result, anyLossy, nil
}

// intFromNode extracts an integer literal. Float literals do not count,
// even when integral.
func intFromNode(node any) (int64, bool) {
	switch n := node.(type) {
	case int64:
		return n, true
	case json.Number:
		if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
			return i, true
		}
	}
	return 0, false
}

// floatFromNode extracts a float literal. Integer literals are handled
// separately so that the lossy check can run.
func floatFromNode(node any) (float64, bool) {
	switch n := node.(type) {
	case float64:
		return n, true
	case json.Number:
		s := n.String()
		if !strings.ContainsAny(s, ".eE") {
			return 0, false
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}
