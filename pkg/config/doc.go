package config

import (
	"fmt"
	"strings"
)

// DocMode selects the documentation rendering depth.
type DocMode int

const (
	// DocBrief renders a JSON-shaped object with the current value at
	// every option leaf, or the sentinel "[must be specified]".
	DocBrief DocMode = iota
	// DocDetailed additionally lists every option with its kind,
	// current value, default, description and validator descriptions.
	DocDetailed
)

// mustBeSpecified marks options without a value in the brief rendering.
const mustBeSpecified = `"[must be specified]"`

// Documentation renders the manager's option tree. Output is
// deterministic: options appear in registration order, sub-managers
// after their parent's own options.
func (m *Manager) Documentation(mode DocMode) string {
	var sb strings.Builder
	m.writeBrief(&sb, 0)
	if mode == DocBrief {
		return sb.String()
	}

	sb.WriteString("\n\nOptions:\n")
	for _, option := range m.Options() {
		sb.WriteString("\n")
		m.writeOptionDetail(&sb, option)
	}
	return sb.String()
}

func (m *Manager) writeBrief(sb *strings.Builder, depth int) {
	indent := strings.Repeat("  ", depth)
	inner := strings.Repeat("  ", depth+1)

	// Own options first, then sub-managers, each in registration order.
	ordered := make([]managerEntry, 0, len(m.entries))
	for _, entry := range m.entries {
		if entry.option != nil {
			ordered = append(ordered, entry)
		}
	}
	for _, entry := range m.entries {
		if entry.sub != nil {
			ordered = append(ordered, entry)
		}
	}

	sb.WriteString("{")
	for i, entry := range ordered {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
		fmt.Fprintf(sb, "%s%q: ", inner, entry.name)
		switch {
		case entry.option != nil:
			if entry.option.HasValue() {
				sb.WriteString(entry.option.Render())
			} else {
				sb.WriteString(mustBeSpecified)
			}
		case entry.sub != nil:
			entry.sub.writeBrief(sb, depth+1)
		}
	}
	if len(m.entries) > 0 {
		sb.WriteString("\n")
		sb.WriteString(indent)
	}
	sb.WriteString("}")
}

func (m *Manager) writeOptionDetail(sb *strings.Builder, option *Option) {
	fmt.Fprintf(sb, "%s\n", option.Path())
	fmt.Fprintf(sb, "  Type: %s\n", option.Kind())
	if option.HasValue() {
		fmt.Fprintf(sb, "  Value: %s\n", option.Render())
	} else {
		fmt.Fprintf(sb, "  Value: [must be specified]\n")
	}
	if option.HasDefault() && option.RenderDefault() != option.Render() {
		fmt.Fprintf(sb, "  Default: %s\n", option.RenderDefault())
	}
	if option.Description() != "" {
		fmt.Fprintf(sb, "  %s\n", option.Description())
	}
	if validators := m.validatorsFor(option); len(validators) > 0 {
		sb.WriteString("  Validators:\n")
		for _, description := range validators {
			fmt.Fprintf(sb, "    - %s\n", description)
		}
	}
}
