// Package join implements equi-joins over idtable matrices: a hash join
// and a merge join with galloping over long non-matching runs.
//
// Both joins produce the same row multiset. The result keeps every
// column of the left table followed by every column of the right table
// except its join column, so the join key appears exactly once.
package join

import (
	"github.com/jihwankim/joinbench/pkg/idtable"
)

// Func is the signature both join algorithms share. The driver consumes
// joins purely through this type.
type Func func(left *idtable.Table, leftColumn int, right *idtable.Table, rightColumn int) *idtable.Table

func resultTable(left, right *idtable.Table) *idtable.Table {
	return idtable.New(left.NumColumns() + right.NumColumns() - 1)
}

func appendMatch(result *idtable.Table, left *idtable.Table, leftRow int, right *idtable.Table, rightRow, rightColumn int) {
	row := result.Row(result.AppendEmptyRow())
	n := copy(row, left.Row(leftRow))
	for column, value := range right.Row(rightRow) {
		if column == rightColumn {
			continue
		}
		row[n] = value
		n++
	}
}

// Hash joins the two tables on equality of the given columns by probing
// a multimap built over the left table.
func Hash(left *idtable.Table, leftColumn int, right *idtable.Table, rightColumn int) *idtable.Table {
	result := resultTable(left, right)

	rowsByKey := make(map[int64][]int, left.NumRows())
	for row := 0; row < left.NumRows(); row++ {
		key := left.At(row, leftColumn)
		rowsByKey[key] = append(rowsByKey[key], row)
	}

	for rightRow := 0; rightRow < right.NumRows(); rightRow++ {
		for _, leftRow := range rowsByKey[right.At(rightRow, rightColumn)] {
			appendMatch(result, left, leftRow, right, rightRow, rightColumn)
		}
	}
	return result
}

// SortedMerge joins two tables that are already sorted ascending by
// their join columns. Long runs of non-matching keys in either input
// are skipped with exponential (galloping) search.
func SortedMerge(left *idtable.Table, leftColumn int, right *idtable.Table, rightColumn int) *idtable.Table {
	result := resultTable(left, right)

	leftRow, rightRow := 0, 0
	for leftRow < left.NumRows() && rightRow < right.NumRows() {
		leftKey := left.At(leftRow, leftColumn)
		rightKey := right.At(rightRow, rightColumn)

		switch {
		case leftKey < rightKey:
			leftRow = gallop(left, leftColumn, leftRow+1, rightKey)
		case rightKey < leftKey:
			rightRow = gallop(right, rightColumn, rightRow+1, leftKey)
		default:
			// Emit the cross product of the two equal runs.
			leftEnd := runEnd(left, leftColumn, leftRow)
			rightEnd := runEnd(right, rightColumn, rightRow)
			for l := leftRow; l < leftEnd; l++ {
				for r := rightRow; r < rightEnd; r++ {
					appendMatch(result, left, l, right, r, rightColumn)
				}
			}
			leftRow, rightRow = leftEnd, rightEnd
		}
	}
	return result
}

// gallop returns the smallest row index >= from whose key is >= target,
// using doubling steps followed by a binary search within the last step.
func gallop(table *idtable.Table, column, from int, target int64) int {
	numRows := table.NumRows()
	step := 1
	low := from
	high := from
	for high < numRows && table.At(high, column) < target {
		low = high + 1
		high += step
		step *= 2
	}
	if high > numRows {
		high = numRows
	}
	// Binary search in (low-1, high].
	for low < high {
		mid := low + (high-low)/2
		if table.At(mid, column) < target {
			low = mid + 1
		} else {
			high = mid
		}
	}
	return low
}

// runEnd returns the index one past the run of rows equal to the key at
// the given row.
func runEnd(table *idtable.Table, column, row int) int {
	key := table.At(row, column)
	end := row + 1
	for end < table.NumRows() && table.At(end, column) == key {
		end++
	}
	return end
}
