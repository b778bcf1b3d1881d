package bench

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestResultTableCells(t *testing.T) {
	table := NewResultTable("t", nil, []string{"a", "b", "c"})
	row := table.AddRow()

	table.SetCell(row, 0, FloatCell(1.5))
	table.SetCell(row, 1, CountCell(42))
	table.SetCell(row, 2, TextCell("label"))

	if v, err := table.Cell(row, 0).Float(); err != nil || v != 1.5 {
		t.Errorf("Float() = (%v, %v)", v, err)
	}
	if v, err := table.Cell(row, 1).Count(); err != nil || v != 42 {
		t.Errorf("Count() = (%v, %v)", v, err)
	}
	if v, err := table.Cell(row, 2).Text(); err != nil || v != "label" {
		t.Errorf("Text() = (%v, %v)", v, err)
	}

	// Reading with the wrong kind fails.
	if _, err := table.Cell(row, 0).Count(); err == nil {
		t.Error("Count() on a number cell succeeded")
	}

	// Cell writes are idempotent.
	table.SetCell(row, 0, FloatCell(2.5))
	if v, _ := table.Cell(row, 0).Float(); v != 2.5 {
		t.Errorf("overwritten cell = %v, want 2.5", v)
	}
}

func TestAddMeasurementStoresElapsedSeconds(t *testing.T) {
	table := NewResultTable("t", nil, []string{"time"})
	row := table.AddRow()

	invoked := false
	elapsed := table.AddMeasurement(row, 0, func() { invoked = true })
	if !invoked {
		t.Fatal("thunk was not invoked")
	}
	stored, err := table.Cell(row, 0).Float()
	if err != nil {
		t.Fatalf("measurement cell: %v", err)
	}
	if stored != elapsed || stored < 0 {
		t.Errorf("stored = %v, returned = %v", stored, elapsed)
	}
}

func TestSumColumns(t *testing.T) {
	table := NewResultTable("t", nil, []string{"a", "b", "sum"})
	for i := 0; i < 3; i++ {
		row := table.AddRow()
		table.SetCell(row, 0, FloatCell(float64(i)))
		table.SetCell(row, 1, FloatCell(10))
	}

	if err := table.SumColumns(2, 0, 1); err != nil {
		t.Fatalf("SumColumns returned error: %v", err)
	}
	for i := 0; i < 3; i++ {
		if v, _ := table.Cell(i, 2).Float(); v != float64(i)+10 {
			t.Errorf("row %d sum = %v, want %v", i, v, float64(i)+10)
		}
	}
}

func TestSumColumnsShapeMismatch(t *testing.T) {
	table := NewResultTable("t", nil, []string{"a", "b", "sum"})
	row := table.AddRow()
	table.SetCell(row, 0, FloatCell(1))
	// Column b stays empty.

	err := table.SumColumns(2, 0, 1)
	var mismatch *ShapeMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("SumColumns = %v, want ShapeMismatchError", err)
	}
	if mismatch.Row != 0 || mismatch.Column != 1 {
		t.Errorf("mismatch at (%d, %d), want (0, 1)", mismatch.Row, mismatch.Column)
	}
}

func TestRatioColumnFloorsNonPositiveDenominators(t *testing.T) {
	table := NewResultTable("t", nil, []string{"num", "den", "ratio"})

	row := table.AddRow()
	table.SetCell(row, 0, FloatCell(10))
	table.SetCell(row, 1, FloatCell(4))

	row = table.AddRow()
	table.SetCell(row, 0, FloatCell(10))
	table.SetCell(row, 1, FloatCell(0))

	if err := table.RatioColumn(2, 0, 1); err != nil {
		t.Fatalf("RatioColumn returned error: %v", err)
	}
	if v, _ := table.Cell(0, 2).Float(); v != 2.5 {
		t.Errorf("row 0 ratio = %v, want 2.5", v)
	}
	if v, _ := table.Cell(1, 2).Float(); v != 0 {
		t.Errorf("row 1 ratio = %v, want 0 for a zero denominator", v)
	}
}

func TestResultsJSONShape(t *testing.T) {
	results := NewResults("run")
	results.Metadata["randomSeed"] = uint64(42)
	table := results.AddTable("t", []string{"first"}, []string{"a", "b", "c"})
	row := table.AddRow()
	table.SetCell(row, 0, FloatCell(1.5))
	table.SetCell(row, 1, CountCell(7))
	table.SetCell(row, 2, TextCell("x"))

	data, err := json.Marshal([]*Results{results})
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}

	var decoded []struct {
		Name     string         `json:"name"`
		Metadata map[string]any `json:"metadata"`
		Tables   []struct {
			Name        string   `json:"name"`
			ColumnNames []string `json:"columnNames"`
			RowNames    []string `json:"rowNames"`
			Cells       [][]any  `json:"cells"`
		} `json:"tables"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}

	if len(decoded) != 1 || decoded[0].Name != "run" {
		t.Fatalf("unexpected run records: %s", data)
	}
	record := decoded[0].Tables[0]
	if record.Name != "t" || len(record.ColumnNames) != 3 || record.RowNames[0] != "first" {
		t.Errorf("unexpected table record: %+v", record)
	}
	cells := record.Cells[0]
	if cells[0] != 1.5 || cells[1] != 7.0 || cells[2] != "x" {
		t.Errorf("unexpected cells: %v", cells)
	}
}

func TestApproximateTableMemory(t *testing.T) {
	if got := ApproximateTableMemory(100, 2); got.Bytes() != 1600 {
		t.Errorf("ApproximateTableMemory(100, 2) = %d bytes, want 1600", got.Bytes())
	}
	if got := ApproximateTableMemory(0, 20); got.Bytes() != 0 {
		t.Errorf("ApproximateTableMemory(0, 20) = %d bytes, want 0", got.Bytes())
	}
	// Saturates instead of wrapping.
	if got := ApproximateTableMemory(math.MaxUint64/2, math.MaxUint64/2); got.Bytes() != uint64(math.MaxInt64) {
		t.Errorf("huge table memory = %d, want saturation", got.Bytes())
	}
}

func TestExponentHelpers(t *testing.T) {
	if got := NextWholeExponent(10, 100); got != 2 {
		t.Errorf("NextWholeExponent(10, 100) = %d, want 2", got)
	}
	if got := NextWholeExponent(10, 101); got != 3 {
		t.Errorf("NextWholeExponent(10, 101) = %d, want 3", got)
	}
	if got := NextWholeExponent(10, 1); got != 0 {
		t.Errorf("NextWholeExponent(10, 1) = %d, want 0", got)
	}

	growth := GrowthFunction(10, 100)
	for row, want := range []uint64{100, 1000, 10000} {
		if got := growth(row); got != want {
			t.Errorf("growth(%d) = %d, want %d", row, got, want)
		}
	}

	ladder := ExponentRange(10, 10, 1000)
	want := []uint64{10, 100, 1000}
	if len(ladder) != len(want) {
		t.Fatalf("ExponentRange(10, 10, 1000) = %v, want %v", ladder, want)
	}
	for i := range want {
		if ladder[i] != want[i] {
			t.Errorf("ladder[%d] = %d, want %d", i, ladder[i], want[i])
		}
	}

	if got := ExponentRange(10, 2000, 1000); got != nil {
		t.Errorf("empty range = %v, want nil", got)
	}
}
