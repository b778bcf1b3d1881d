package bench

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
)

// FormatText renders the run's tables as a plain text report.
func (r *Results) FormatText() string {
	var buf bytes.Buffer

	// Header
	buf.WriteString(strings.Repeat("=", 80) + "\n")
	buf.WriteString("   JOIN BENCHMARK RESULTS\n")
	buf.WriteString(strings.Repeat("=", 80) + "\n\n")

	buf.WriteString(fmt.Sprintf("Benchmark:    %s\n", r.Name))
	writeMetadata(&buf, r.Metadata, "")
	buf.WriteString("\n")

	for _, table := range r.Tables {
		buf.WriteString(strings.Repeat("-", 80) + "\n")
		buf.WriteString(table.Name + "\n")
		writeMetadata(&buf, table.Metadata, "  ")
		buf.WriteString("\n")
		writeCells(&buf, table)
		buf.WriteString("\n")
	}

	return buf.String()
}

// writeMetadata prints a metadata map with deterministic key order.
func writeMetadata(buf *bytes.Buffer, metadata map[string]any, indent string) {
	keys := make([]string, 0, len(metadata))
	for key := range metadata {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		buf.WriteString(fmt.Sprintf("%s%s: %v\n", indent, key, metadata[key]))
	}
}

// writeCells prints the table grid with right-aligned columns.
func writeCells(buf *bytes.Buffer, table *ResultTable) {
	widths := make([]int, table.NumColumns())
	for column, name := range table.ColumnNames {
		widths[column] = len(name)
	}

	rendered := make([][]string, table.NumRows())
	for row := range rendered {
		rendered[row] = make([]string, table.NumColumns())
		for column := range rendered[row] {
			text := formatCell(table.Cell(row, column))
			rendered[row][column] = text
			if len(text) > widths[column] {
				widths[column] = len(text)
			}
		}
	}

	for column, name := range table.ColumnNames {
		if column > 0 {
			buf.WriteString("  ")
		}
		buf.WriteString(fmt.Sprintf("%*s", widths[column], name))
	}
	buf.WriteString("\n")

	for _, row := range rendered {
		for column, text := range row {
			if column > 0 {
				buf.WriteString("  ")
			}
			buf.WriteString(fmt.Sprintf("%*s", widths[column], text))
		}
		buf.WriteString("\n")
	}
}

func formatCell(cell Cell) string {
	switch cell.Kind() {
	case CellFloat:
		value, _ := cell.Float()
		return fmt.Sprintf("%.6f", value)
	case CellCount:
		value, _ := cell.Count()
		return fmt.Sprintf("%d", value)
	case CellText:
		value, _ := cell.Text()
		return value
	default:
		return "-"
	}
}
