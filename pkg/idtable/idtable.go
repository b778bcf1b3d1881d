// Package idtable provides a growable two-dimensional matrix of 64-bit
// integers with in-place sorting by a column.
package idtable

import (
	"fmt"
	"sort"
)

// Table is a row-major matrix of int64 values. The number of columns is
// fixed at construction; rows are appended one at a time.
type Table struct {
	numColumns int
	data       []int64
}

// New returns an empty table with the given number of columns (at least 1).
func New(numColumns int) *Table {
	if numColumns < 1 {
		panic(fmt.Sprintf("idtable: table needs at least 1 column, got %d", numColumns))
	}
	return &Table{numColumns: numColumns}
}

// NewWithCapacity preallocates room for the given number of rows.
func NewWithCapacity(numColumns, numRows int) *Table {
	table := New(numColumns)
	table.data = make([]int64, 0, numColumns*numRows)
	return table
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int { return len(t.data) / t.numColumns }

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int { return t.numColumns }

// At returns the element at the given row and column.
func (t *Table) At(row, column int) int64 {
	return t.data[row*t.numColumns+column]
}

// Set overwrites the element at the given row and column.
func (t *Table) Set(row, column int, value int64) {
	t.data[row*t.numColumns+column] = value
}

// AppendRow appends a row. The value count must equal the column count.
func (t *Table) AppendRow(values ...int64) {
	if len(values) != t.numColumns {
		panic(fmt.Sprintf("idtable: appending %d values to a table with %d columns", len(values), t.numColumns))
	}
	t.data = append(t.data, values...)
}

// AppendEmptyRow appends a zero row and returns its index.
func (t *Table) AppendEmptyRow() int {
	row := t.NumRows()
	t.data = append(t.data, make([]int64, t.numColumns)...)
	return row
}

// Row returns the row as a slice aliasing the table's storage.
func (t *Table) Row(row int) []int64 {
	return t.data[row*t.numColumns : (row+1)*t.numColumns]
}

// SortByColumn reorders the rows in place so the given column is
// ascending. The ordering of rows with equal keys is unspecified.
func (t *Table) SortByColumn(column int) {
	sort.Sort(&byColumn{table: t, column: column})
}

type byColumn struct {
	table  *Table
	column int
}

func (s *byColumn) Len() int { return s.table.NumRows() }

func (s *byColumn) Less(i, j int) bool {
	return s.table.At(i, s.column) < s.table.At(j, s.column)
}

func (s *byColumn) Swap(i, j int) {
	left, right := s.table.Row(i), s.table.Row(j)
	for k := range left {
		left[k], right[k] = right[k], left[k]
	}
}

// IsSortedByColumn reports whether the rows are ascending by the column.
func (t *Table) IsSortedByColumn(column int) bool {
	for row := 1; row < t.NumRows(); row++ {
		if t.At(row-1, column) > t.At(row, column) {
			return false
		}
	}
	return true
}
