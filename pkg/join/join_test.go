package join

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jihwankim/joinbench/pkg/idtable"
)

func tableOf(numColumns int, rows ...[]int64) *idtable.Table {
	table := idtable.New(numColumns)
	for _, row := range rows {
		table.AppendRow(row...)
	}
	return table
}

// sortedRows returns the rows of a table in a canonical order, so that
// results of different join algorithms can be compared as multisets.
func sortedRows(table *idtable.Table) [][]int64 {
	rows := make([][]int64, table.NumRows())
	for i := range rows {
		rows[i] = append([]int64(nil), table.Row(i)...)
	}
	sort.Slice(rows, func(i, j int) bool {
		for k := range rows[i] {
			if rows[i][k] != rows[j][k] {
				return rows[i][k] < rows[j][k]
			}
		}
		return false
	})
	return rows
}

func TestHashJoinSmallExample(t *testing.T) {
	left := tableOf(2,
		[]int64{1, 10},
		[]int64{2, 20},
		[]int64{2, 21},
		[]int64{4, 40},
	)
	right := tableOf(2,
		[]int64{2, 200},
		[]int64{3, 300},
		[]int64{4, 400},
	)

	result := Hash(left, 0, right, 0)
	if result.NumColumns() != 3 {
		t.Fatalf("result has %d columns, want 3", result.NumColumns())
	}

	want := [][]int64{
		{2, 20, 200},
		{2, 21, 200},
		{4, 40, 400},
	}
	if diff := cmp.Diff(want, sortedRows(result)); diff != "" {
		t.Errorf("hash join rows mismatch (-want +got):\n%s", diff)
	}
}

func TestSortedMergeJoinSmallExample(t *testing.T) {
	left := tableOf(2,
		[]int64{1, 10},
		[]int64{2, 20},
		[]int64{2, 21},
		[]int64{4, 40},
	)
	right := tableOf(2,
		[]int64{2, 200},
		[]int64{3, 300},
		[]int64{4, 400},
	)

	result := SortedMerge(left, 0, right, 0)
	want := [][]int64{
		{2, 20, 200},
		{2, 21, 200},
		{4, 40, 400},
	}
	if diff := cmp.Diff(want, sortedRows(result)); diff != "" {
		t.Errorf("merge join rows mismatch (-want +got):\n%s", diff)
	}
}

func TestJoinsOnDisjointInputsAreEmpty(t *testing.T) {
	left := tableOf(1, []int64{1}, []int64{2}, []int64{3})
	right := tableOf(1, []int64{4}, []int64{5}, []int64{6})

	if n := Hash(left, 0, right, 0).NumRows(); n != 0 {
		t.Errorf("hash join of disjoint inputs has %d rows", n)
	}
	if n := SortedMerge(left, 0, right, 0).NumRows(); n != 0 {
		t.Errorf("merge join of disjoint inputs has %d rows", n)
	}
}

func TestJoinsOnDuplicateHeavyInputs(t *testing.T) {
	// 3 x 2 matches for key 7.
	left := tableOf(2, []int64{7, 1}, []int64{7, 2}, []int64{7, 3})
	right := tableOf(2, []int64{7, 10}, []int64{7, 20})

	hash := Hash(left, 0, right, 0)
	merge := SortedMerge(left, 0, right, 0)
	if hash.NumRows() != 6 || merge.NumRows() != 6 {
		t.Errorf("rows = (%d, %d), want (6, 6)", hash.NumRows(), merge.NumRows())
	}
}

func TestHashAndMergeAgreeOnRandomInputs(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 10; round++ {
		round := round
		t.Run(fmt.Sprintf("round%d", round), func(t *testing.T) {
			left := idtable.New(3)
			for i := 0; i < 200; i++ {
				left.AppendRow(rng.Int63n(50), rng.Int63(), rng.Int63())
			}
			right := idtable.New(2)
			for i := 0; i < 400; i++ {
				right.AppendRow(rng.Int63n(50), rng.Int63())
			}
			left.SortByColumn(0)
			right.SortByColumn(0)

			hash := Hash(left, 0, right, 0)
			merge := SortedMerge(left, 0, right, 0)

			if hash.NumRows() != merge.NumRows() {
				t.Fatalf("row counts differ: hash %d, merge %d", hash.NumRows(), merge.NumRows())
			}
			if diff := cmp.Diff(sortedRows(hash), sortedRows(merge)); diff != "" {
				t.Errorf("row multisets differ (-hash +merge):\n%s", diff)
			}
		})
	}
}

func TestMergeJoinGallopsOverLongRuns(t *testing.T) {
	// A single matching key at the far end of a long non-matching run.
	left := idtable.New(1)
	for i := int64(0); i < 1000; i++ {
		left.AppendRow(i)
	}
	right := tableOf(1, []int64{999})

	result := SortedMerge(left, 0, right, 0)
	if result.NumRows() != 1 || result.At(0, 0) != 999 {
		t.Errorf("result rows = %d, want exactly the row for key 999", result.NumRows())
	}
}

func TestJoinOnNonZeroColumns(t *testing.T) {
	left := tableOf(2, []int64{10, 1}, []int64{20, 2})
	right := tableOf(2, []int64{2, 200}, []int64{3, 300})

	// Join left column 1 against right column 0.
	result := Hash(left, 1, right, 0)
	if result.NumRows() != 1 {
		t.Fatalf("result rows = %d, want 1", result.NumRows())
	}
	if diff := cmp.Diff([]int64{20, 2, 200}, result.Row(0)); diff != "" {
		t.Errorf("joined row mismatch (-want +got):\n%s", diff)
	}
}
