// Package bench implements the growing-table join benchmark: a typed
// table of measurements, the iterative driver that fills it, and the
// packaged benchmark scenarios.
package bench

import (
	"encoding/json"
	"fmt"
	"time"
)

// CellKind identifies what a result table cell holds.
type CellKind int

const (
	// CellEmpty is a cell that was never written.
	CellEmpty CellKind = iota
	// CellFloat holds a floating-point number, e.g. seconds or a ratio.
	CellFloat
	// CellCount holds a non-negative integer.
	CellCount
	// CellText holds a textual label.
	CellText
)

func (k CellKind) String() string {
	switch k {
	case CellEmpty:
		return "empty"
	case CellFloat:
		return "number"
	case CellCount:
		return "integer"
	case CellText:
		return "string"
	default:
		return "unknown"
	}
}

// Cell is one (row, column) position of a ResultTable.
type Cell struct {
	kind  CellKind
	num   float64
	count uint64
	text  string
}

// FloatCell returns a cell holding a floating-point number.
func FloatCell(value float64) Cell { return Cell{kind: CellFloat, num: value} }

// CountCell returns a cell holding a non-negative integer.
func CountCell(value uint64) Cell { return Cell{kind: CellCount, count: value} }

// TextCell returns a cell holding a label.
func TextCell(value string) Cell { return Cell{kind: CellText, text: value} }

// Kind returns the cell's kind.
func (c Cell) Kind() CellKind { return c.kind }

// Float returns the held number.
func (c Cell) Float() (float64, error) {
	if c.kind != CellFloat {
		return 0, fmt.Errorf("cell holds a %s, not a number", c.kind)
	}
	return c.num, nil
}

// Count returns the held integer.
func (c Cell) Count() (uint64, error) {
	if c.kind != CellCount {
		return 0, fmt.Errorf("cell holds a %s, not an integer", c.kind)
	}
	return c.count, nil
}

// Text returns the held label.
func (c Cell) Text() (string, error) {
	if c.kind != CellText {
		return "", fmt.Errorf("cell holds a %s, not a string", c.kind)
	}
	return c.text, nil
}

// MarshalJSON writes the cell as a bare number, integer or string.
// Empty cells become null.
func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.kind {
	case CellFloat:
		return json.Marshal(c.num)
	case CellCount:
		return json.Marshal(c.count)
	case CellText:
		return json.Marshal(c.text)
	default:
		return []byte("null"), nil
	}
}

// ShapeMismatchError reports a row-level table operation on rows whose
// cells do not line up.
type ShapeMismatchError struct {
	Table  string
	Row    int
	Column int
	Reason string
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("table %q row %d column %d: %s", e.Table, e.Row, e.Column, e.Reason)
}

// ResultTable is a rectangular grid of measurement cells. Column headers
// are fixed at construction; row headers are optional. Rows are appended
// one at a time and cell writes are idempotent.
type ResultTable struct {
	Name        string
	ColumnNames []string
	RowNames    []string
	Metadata    map[string]any

	cells [][]Cell
}

// NewResultTable returns an empty table with the given headers. Row
// names may be nil when rows are unnamed.
func NewResultTable(name string, rowNames, columnNames []string) *ResultTable {
	return &ResultTable{
		Name:        name,
		ColumnNames: columnNames,
		RowNames:    rowNames,
		Metadata:    map[string]any{},
	}
}

// NumRows returns the number of appended rows.
func (t *ResultTable) NumRows() int { return len(t.cells) }

// NumColumns returns the number of columns.
func (t *ResultTable) NumColumns() int { return len(t.ColumnNames) }

// AddRow appends an empty row and returns its index.
func (t *ResultTable) AddRow() int {
	t.cells = append(t.cells, make([]Cell, len(t.ColumnNames)))
	return len(t.cells) - 1
}

// SetCell writes a cell, overwriting any previous value.
func (t *ResultTable) SetCell(row, column int, cell Cell) {
	t.cells[row][column] = cell
}

// Cell reads a cell.
func (t *ResultTable) Cell(row, column int) Cell {
	return t.cells[row][column]
}

// AddMeasurement invokes the thunk and stores the elapsed wall-clock
// time in seconds. The elapsed time is also returned. A single
// start/stop pair surrounds the call; the clock is monotonic.
func (t *ResultTable) AddMeasurement(row, column int, thunk func()) float64 {
	start := time.Now()
	thunk()
	elapsed := time.Since(start).Seconds()
	t.SetCell(row, column, FloatCell(elapsed))
	return elapsed
}

// SumColumns writes a + b into dst for every row, cell-wise. Rows where
// either source cell is not a number fail with a ShapeMismatchError.
func (t *ResultTable) SumColumns(dst, a, b int) error {
	for row := range t.cells {
		left, err := t.cells[row][a].Float()
		if err != nil {
			return &ShapeMismatchError{Table: t.Name, Row: row, Column: a, Reason: err.Error()}
		}
		right, err := t.cells[row][b].Float()
		if err != nil {
			return &ShapeMismatchError{Table: t.Name, Row: row, Column: b, Reason: err.Error()}
		}
		t.SetCell(row, dst, FloatCell(left+right))
	}
	return nil
}

// RatioColumn writes num / den into dst for every row. A non-positive
// denominator floors the ratio to 0; that is the documented policy, not
// an error, because timings of 0 occur for degenerate inputs.
func (t *ResultTable) RatioColumn(dst, num, den int) error {
	for row := range t.cells {
		numerator, err := t.cells[row][num].Float()
		if err != nil {
			return &ShapeMismatchError{Table: t.Name, Row: row, Column: num, Reason: err.Error()}
		}
		denominator, err := t.cells[row][den].Float()
		if err != nil {
			return &ShapeMismatchError{Table: t.Name, Row: row, Column: den, Reason: err.Error()}
		}
		ratio := 0.0
		if denominator > 0 {
			ratio = numerator / denominator
		}
		t.SetCell(row, dst, FloatCell(ratio))
	}
	return nil
}

// MarshalJSON writes the table record shape: name, columnNames,
// rowNames (when present), metadata and cells as an array of rows.
func (t *ResultTable) MarshalJSON() ([]byte, error) {
	record := struct {
		Name        string         `json:"name"`
		ColumnNames []string       `json:"columnNames"`
		RowNames    []string       `json:"rowNames,omitempty"`
		Metadata    map[string]any `json:"metadata"`
		Cells       [][]Cell       `json:"cells"`
	}{
		Name:        t.Name,
		ColumnNames: t.ColumnNames,
		RowNames:    t.RowNames,
		Metadata:    t.Metadata,
		Cells:       t.cells,
	}
	if record.Cells == nil {
		record.Cells = [][]Cell{}
	}
	return json.Marshal(record)
}

// Results collects the tables of one benchmark run together with the
// run-level metadata. A Results is not mutated after the run completes.
type Results struct {
	Name     string         `json:"name"`
	Metadata map[string]any `json:"metadata"`
	Tables   []*ResultTable `json:"tables"`
}

// NewResults returns an empty run record.
func NewResults(name string) *Results {
	return &Results{Name: name, Metadata: map[string]any{}}
}

// AddTable creates a table owned by this run.
func (r *Results) AddTable(name string, rowNames, columnNames []string) *ResultTable {
	table := NewResultTable(name, rowNames, columnNames)
	r.Tables = append(r.Tables, table)
	return table
}
