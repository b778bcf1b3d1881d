package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jihwankim/joinbench/pkg/config/shorthand"
)

// Manager is a registry of typed options arranged in a tree. Interior
// nodes are sub-managers; leaves are options. Configuration is applied
// atomically: when ApplyTree or ApplyShorthand fails, no option and no
// bound variable differs from its pre-call state.
type Manager struct {
	path       []string
	entries    []managerEntry
	byName     map[string]int
	validators []validatorSpec
}

// managerEntry is one named child: exactly one of option and sub is set.
type managerEntry struct {
	name   string
	option *Option
	sub    *Manager
}

type validatorSpec struct {
	description string
	check       func() error
	involved    []*Option
}

// New returns an empty root manager.
func New() *Manager {
	return &Manager{byName: map[string]int{}}
}

func (m *Manager) register(name string, option *Option, sub *Manager) {
	if !identifierRegex.MatchString(name) {
		panic(fmt.Sprintf("config: invalid identifier %q", name))
	}
	if _, exists := m.byName[name]; exists {
		panic(fmt.Sprintf("config: duplicate registration of %q under %q", name, "/"+strings.Join(m.path, "/")))
	}
	m.byName[name] = len(m.entries)
	m.entries = append(m.entries, managerEntry{name: name, option: option, sub: sub})
}

// AddSubManager registers and returns an interior node under the given
// name. Options and validators registered on the sub-manager live at
// paths below it. It panics on an invalid or duplicate name, like
// AddOption.
func (m *Manager) AddSubManager(name string) *Manager {
	sub := &Manager{
		path:   append(append([]string{}, m.path...), name),
		byName: map[string]int{},
	}
	m.register(name, nil, sub)
	return sub
}

// AddOption registers a required option (no default) of the kind derived
// from T, bound to the given variable. The variable is overwritten on
// every successful set and must outlive the manager. Registration
// mistakes (invalid identifier, duplicate name) are programmer errors
// and panic, like the flag package.
func AddOption[T ValueType](m *Manager, name, description string, variable *T) Handle[T] {
	return addOption(m, name, description, variable, nil)
}

// AddOptionWithDefault is AddOption with a default value. The default is
// applied (and written through) immediately, so the option is never in
// the unset state.
func AddOptionWithDefault[T ValueType](m *Manager, name, description string, variable *T, defaultValue T) Handle[T] {
	return addOption(m, name, description, variable, &defaultValue)
}

func addOption[T ValueType](m *Manager, name, description string, variable *T, defaultValue *T) Handle[T] {
	var zero T
	option := &Option{
		identifier:  name,
		description: description,
		value:       newValue(kindOf(zero)),
		store:       func(v any) { *variable = v.(T) },
		load:        func() any { return *variable },
		path:        append(append([]string{}, m.path...), name),
	}
	if defaultValue != nil {
		option.defaultData = *defaultValue
		option.value.assign(*defaultValue)
		option.store(*defaultValue)
	}
	m.register(name, option, nil)
	return Handle[T]{option: option}
}

// AddValidator registers an invariant over one option. The check runs
// after every binding with the option's projected value; a non-nil error
// fails the apply with a ValidatorFailedError.
func AddValidator[T ValueType](m *Manager, description string, check func(T) error, handle Handle[T]) {
	m.validators = append(m.validators, validatorSpec{
		description: description,
		check: func() error {
			value, err := handle.Get()
			if err != nil {
				return err
			}
			return check(value)
		},
		involved: []*Option{handle.option},
	})
}

// AddValidator2 registers an invariant across two options.
func AddValidator2[T, U ValueType](m *Manager, description string, check func(T, U) error, first Handle[T], second Handle[U]) {
	m.validators = append(m.validators, validatorSpec{
		description: description,
		check: func() error {
			a, err := first.Get()
			if err != nil {
				return err
			}
			b, err := second.Get()
			if err != nil {
				return err
			}
			return check(a, b)
		},
		involved: []*Option{first.option, second.option},
	})
}

// AddValidator3 registers an invariant across three options.
func AddValidator3[T, U, V ValueType](m *Manager, description string, check func(T, U, V) error, first Handle[T], second Handle[U], third Handle[V]) {
	m.validators = append(m.validators, validatorSpec{
		description: description,
		check: func() error {
			a, err := first.Get()
			if err != nil {
				return err
			}
			b, err := second.Get()
			if err != nil {
				return err
			}
			c, err := third.Get()
			if err != nil {
				return err
			}
			return check(a, b, c)
		},
		involved: []*Option{first.option, second.option, third.option},
	})
}

// Options returns every registered option, depth first in registration
// order: a manager's own options come before its sub-managers'.
func (m *Manager) Options() []*Option {
	var options []*Option
	for _, entry := range m.entries {
		if entry.option != nil {
			options = append(options, entry.option)
		}
	}
	for _, entry := range m.entries {
		if entry.sub != nil {
			options = append(options, entry.sub.Options()...)
		}
	}
	return options
}

// OptionPaths returns the slash-joined paths of every registered option,
// in the same order as Options.
func (m *Manager) OptionPaths() []string {
	options := m.Options()
	paths := make([]string, len(options))
	for i, option := range options {
		paths[i] = option.Path()
	}
	return paths
}

// validatorsFor returns the descriptions of validators involving the
// given option, across the whole manager tree.
func (m *Manager) validatorsFor(option *Option) []string {
	var descriptions []string
	for _, spec := range m.validators {
		for _, involved := range spec.involved {
			if involved == option {
				descriptions = append(descriptions, spec.description)
				break
			}
		}
	}
	for _, entry := range m.entries {
		if entry.sub != nil {
			descriptions = append(descriptions, entry.sub.validatorsFor(option)...)
		}
	}
	return descriptions
}

// ApplyTree binds a configuration tree to the registered options, then
// runs every validator in registration order. Lossy numeric coercions
// are reported as warnings. On error nothing is applied: every option
// and every bound variable keeps its pre-call state.
//
// Accepted node types are map[string]any, []any, bool, string, int64,
// uint64, float64 and json.Number.
func (m *Manager) ApplyTree(root any) ([]LossyWarning, error) {
	if len(m.path) != 0 {
		panic("config: ApplyTree must be called on the root manager")
	}

	object, ok := root.(map[string]any)
	if !ok {
		return nil, &NotObjectError{Actual: describeNode(root)}
	}

	options := m.Options()
	snapshots := make([]optionState, len(options))
	for i, option := range options {
		snapshots[i] = option.snapshot()
	}
	rollback := func() {
		for i, option := range options {
			option.restore(snapshots[i])
		}
	}

	warnings, err := m.bind(object, m.OptionPaths())
	if err != nil {
		rollback()
		return nil, err
	}

	for _, option := range options {
		if !option.HasValue() {
			rollback()
			return nil, &MissingRequiredError{Path: option.Path()}
		}
	}

	if err := m.runValidators(); err != nil {
		rollback()
		return nil, err
	}
	return warnings, nil
}

// bind walks the object's keys against this manager's children. The
// known paths of the whole tree ride along for UnknownOptionError dumps.
func (m *Manager) bind(object map[string]any, knownPaths []string) ([]LossyWarning, error) {
	var warnings []LossyWarning

	// Iterate the registered entries rather than the map, so binding
	// order is deterministic; afterwards reject keys no entry matched.
	seen := map[string]bool{}
	for _, entry := range m.entries {
		node, present := object[entry.name]
		if !present {
			continue
		}
		seen[entry.name] = true

		switch {
		case entry.option != nil:
			lossy, err := entry.option.setFromTree(node)
			if err != nil {
				return nil, err
			}
			if lossy {
				warnings = append(warnings, LossyWarning{
					Path:     entry.option.Path(),
					Rendered: entry.option.Render(),
				})
			}
		case entry.sub != nil:
			subObject, ok := node.(map[string]any)
			if !ok {
				return nil, &UnknownOptionError{
					Path:       "/" + strings.Join(append(append([]string{}, m.path...), entry.name), "/"),
					KnownPaths: knownPaths,
				}
			}
			subWarnings, err := entry.sub.bind(subObject, knownPaths)
			if err != nil {
				return nil, err
			}
			warnings = append(warnings, subWarnings...)
		}
	}

	for key := range object {
		if !seen[key] {
			return nil, &UnknownOptionError{
				Path:       "/" + strings.Join(append(append([]string{}, m.path...), key), "/"),
				KnownPaths: knownPaths,
			}
		}
	}
	return warnings, nil
}

// runValidators fires this manager's validators in registration order,
// then the sub-managers' recursively.
func (m *Manager) runValidators() error {
	for _, spec := range m.validators {
		if err := spec.check(); err != nil {
			involved := make([]InvolvedOption, len(spec.involved))
			for i, option := range spec.involved {
				involved[i] = InvolvedOption{Identifier: option.Identifier(), Value: option.Render()}
			}
			return &ValidatorFailedError{
				Description: spec.description,
				Cause:       err,
				Involved:    involved,
			}
		}
	}
	for _, entry := range m.entries {
		if entry.sub != nil {
			if err := entry.sub.runValidators(); err != nil {
				return err
			}
		}
	}
	return nil
}

// ApplyShorthand parses the shorthand string and applies the resulting
// tree. Parse errors (Syntax, DuplicateKey) are returned unwrapped.
func (m *Manager) ApplyShorthand(input string) ([]LossyWarning, error) {
	tree, err := shorthand.Parse(input)
	if err != nil {
		return nil, err
	}
	return m.ApplyTree(tree)
}

// ApplyJSON decodes a JSON document and applies it as a tree. Numbers
// are decoded as json.Number so integer literals keep full precision.
func (m *Manager) ApplyJSON(data []byte) ([]LossyWarning, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var root any
	if err := decoder.Decode(&root); err != nil {
		return nil, fmt.Errorf("decoding configuration JSON: %w", err)
	}
	if decoder.More() {
		return nil, fmt.Errorf("decoding configuration JSON: trailing content after the root value")
	}
	return m.ApplyTree(root)
}

// MergeTrees deep-merges two configuration trees, the overlay winning on
// key conflicts. Objects merge recursively; every other node kind is
// replaced wholesale. Neither input is mutated.
func MergeTrees(base, overlay map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(overlay))
	for key, node := range base {
		merged[key] = node
	}
	for key, node := range overlay {
		baseObject, baseOk := merged[key].(map[string]any)
		overlayObject, overlayOk := node.(map[string]any)
		if baseOk && overlayOk {
			merged[key] = MergeTrees(baseObject, overlayObject)
		} else {
			merged[key] = node
		}
	}
	return merged
}
