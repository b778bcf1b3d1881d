package bench

import (
	"fmt"
	"math"

	"github.com/jihwankim/joinbench/pkg/idtable"
	"github.com/jihwankim/joinbench/pkg/join"
	"github.com/jihwankim/joinbench/pkg/memsize"
	"github.com/jihwankim/joinbench/pkg/random"
	"github.com/jihwankim/joinbench/pkg/reporting"
)

// The columns of a benchmark table, in order: the parameter that changes
// with every row, the sorting time, the merge join time, the combined
// sort+merge timing, the hash join time, the join result cardinality, and
// the speedup of the hash join.
const (
	ColVaryingParameter = 0
	ColSortTime         = 1
	ColMergeJoinTime    = 2
	ColSortPlusMerge    = 3
	ColHashJoinTime     = 4
	ColResultRows       = 5
	ColSpeedup          = 6
)

func benchmarkColumns(parameterName string) []string {
	return []string{
		parameterName,
		"Time for sorting",
		"Merge/galloping join",
		"Sorting + merge/galloping join",
		"Hash join",
		"Number of rows in the join result",
		"Speedup of the hash join",
	}
}

// State is the lifecycle state of one benchmark table.
type State int

const (
	StateReady State = iota
	StateRunning
	StateStoppedOK
	StateStoppedBudget
	StateStoppedError
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateStoppedOK:
		return "stopped-ok"
	case StateStoppedBudget:
		return "stopped-budget"
	case StateStoppedError:
		return "stopped-error"
	default:
		return "unknown"
	}
}

// bytesPerCell is the memory footprint of one table element.
const bytesPerCell = 8

// ApproximateTableMemory estimates the memory an idtable of the given
// dimensions needs, ignoring the constant overhead. Saturates instead of
// overflowing.
func ApproximateTableMemory(rows, columns uint64) memsize.Size {
	if rows != 0 && columns > memsize.MaxBytes/rows {
		return memsize.Size(memsize.MaxBytes)
	}
	cells := rows * columns
	if cells > memsize.MaxBytes/bytesPerCell {
		return memsize.Size(memsize.MaxBytes)
	}
	return memsize.Size(cells * bytesPerCell)
}

// RowParams are the fully resolved table parameters for one benchmark
// row. Exactly one of them varies between rows; the scenario's Params
// function resolves which.
type RowParams struct {
	Overlap            float64
	RatioRows          uint64
	SmallerRows        uint64
	SmallerColumns     uint64
	BiggerColumns      uint64
	SmallerSampleRatio float64
	BiggerSampleRatio  float64
}

// StopPolicy reports whether the table should grow by another row.
type StopPolicy func(t *ResultTable) bool

// Budgets are the per-measurement time cap and the per-table memory
// caps. A zero value means unlimited.
type Budgets struct {
	MaxTime          float64
	MaxMemorySmaller memsize.Size
	MaxMemoryBigger  memsize.Size
	MaxMemoryJoin    memsize.Size
}

// DefaultStopPolicy builds the standard stop predicate: grow while the
// last row's timings are under the time cap and the projected next
// tables fit their memory caps.
//
// The smaller and bigger table sizes are projected for the NEXT row,
// before anything is allocated. The join result's size can only be known
// after running the join, so its cap is checked against the row already
// produced; predicting it from the join-column overlap instead is a
// possible future refinement. For an empty table only the memory
// projection of the first row is checked.
func DefaultStopPolicy(budgets Budgets, smallerMemory, biggerMemory func(row int) memsize.Size, resultColumns uint64) StopPolicy {
	return func(t *ResultTable) bool {
		next := t.NumRows()
		row := next - 1

		if budgets.MaxTime > 0 && next > 0 {
			for _, column := range []int{ColSortTime, ColMergeJoinTime, ColHashJoinTime} {
				if elapsed, err := t.Cell(row, column).Float(); err == nil && elapsed > budgets.MaxTime {
					return false
				}
			}
		}

		if budgets.MaxMemorySmaller > 0 && smallerMemory(next) > budgets.MaxMemorySmaller {
			return false
		}
		if budgets.MaxMemoryBigger > 0 && biggerMemory(next) > budgets.MaxMemoryBigger {
			return false
		}
		if budgets.MaxMemoryJoin > 0 && next > 0 {
			if resultRows, err := t.Cell(row, ColResultRows).Count(); err == nil {
				if ApproximateTableMemory(resultRows, resultColumns) > budgets.MaxMemoryJoin {
					return false
				}
			}
		}
		return true
	}
}

// RunSpec describes one growing benchmark table.
type RunSpec struct {
	TableName     string
	ParameterName string

	// Varying returns the value of the changing parameter for column 0.
	Varying func(row int) float64
	// Params resolves all table parameters for a row.
	Params func(row int) RowParams

	Seed          random.Seed
	SmallerSorted bool
	BiggerSorted  bool
	Stop          StopPolicy

	// MaxRows, when positive, completes the table (stopped-ok) after
	// that many rows even while the budgets still allow growth.
	MaxRows int
}

// Driver runs growing benchmark tables. It consumes the two join
// algorithms purely as function values and owns its input tables for
// exactly one row at a time.
type Driver struct {
	log       *reporting.Logger
	progress  *reporting.ProgressReporter
	hashJoin  join.Func
	mergeJoin join.Func
}

// NewDriver returns a driver using the given join functions. The
// progress reporter may be nil.
func NewDriver(log *reporting.Logger, progress *reporting.ProgressReporter, hashJoin, mergeJoin join.Func) *Driver {
	return &Driver{log: log, progress: progress, hashJoin: hashJoin, mergeJoin: mergeJoin}
}

// Grow adds a benchmark table to the results and fills it row by row
// until the stop policy or the row limit ends it. The returned state is
// one of StateStoppedOK, StateStoppedBudget and StateStoppedError; on
// StateStoppedError the partial table is preserved and the causing
// error returned.
func (d *Driver) Grow(results *Results, spec RunSpec) (*ResultTable, State, error) {
	table := results.AddTable(spec.TableName, nil, benchmarkColumns(spec.ParameterName))
	seedFactory := random.NewSeedFactory(spec.Seed)
	if d.progress != nil {
		d.progress.TableStarted(spec.TableName)
	}

	state := StateReady
	for {
		if spec.MaxRows > 0 && table.NumRows() >= spec.MaxRows {
			state = StateStoppedOK
			break
		}
		if !spec.Stop(table) {
			state = StateStoppedBudget
			break
		}
		state = StateRunning

		row := table.AddRow()
		table.SetCell(row, ColVaryingParameter, FloatCell(spec.Varying(row)))

		params := spec.Params(row)
		if err := d.measureRow(table, row, params, seedFactory.Next(), spec.SmallerSorted, spec.BiggerSorted); err != nil {
			d.log.Error("benchmark row failed", "table", spec.TableName, "row", row, "error", err)
			return table, StateStoppedError, err
		}
		if d.progress != nil {
			d.progress.RowCompleted(spec.TableName, row)
		}
	}

	if table.NumRows() > 0 {
		if err := table.SumColumns(ColSortPlusMerge, ColSortTime, ColMergeJoinTime); err != nil {
			return table, StateStoppedError, err
		}
		if err := table.RatioColumn(ColSpeedup, ColSortPlusMerge, ColHashJoinTime); err != nil {
			return table, StateStoppedError, err
		}
	}

	d.log.Info("benchmark table finished",
		"table", spec.TableName, "rows", table.NumRows(), "state", state.String())
	if d.progress != nil {
		d.progress.TableCompleted(spec.TableName, table.NumRows(), state.String())
	}
	return table, state, nil
}

// measureRow synthesises both input tables, injects overlap, pre-sorts
// declared-sorted tables, and times the two join algorithms. A panic out
// of a consumer-supplied join function is surfaced as the row's error
// rather than swallowed, and so is a row whose two joins disagree on the
// number of result rows.
func (d *Driver) measureRow(table *ResultTable, row int, params RowParams, seed random.Seed, smallerSorted, biggerSorted bool) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("join function panicked: %v", r)
		}
	}()

	if params.SmallerSampleRatio <= 0 || params.BiggerSampleRatio <= 0 {
		return fmt.Errorf("join column sample size ratios must be positive, got %v and %v",
			params.SmallerSampleRatio, params.BiggerSampleRatio)
	}
	if params.SmallerRows < 1 || params.SmallerColumns < 1 || params.BiggerColumns < 1 || params.RatioRows < 1 {
		return fmt.Errorf("table dimensions must be at least 1")
	}

	// Value ranges for the join columns. The smaller table draws from
	// [0, floor(rows*ratio)-1]; the bigger table from the adjacent
	// range, so without overlap injection the join result is empty.
	smallerSampleSize := uint64(math.Floor(float64(params.SmallerRows) * params.SmallerSampleRatio))
	biggerSampleSize := uint64(math.Floor(float64(params.SmallerRows) * float64(params.RatioRows) * params.BiggerSampleRatio))
	if smallerSampleSize < 1 || biggerSampleSize < 1 {
		return fmt.Errorf("join column sample sizes must be at least 1, got %d and %d",
			smallerSampleSize, biggerSampleSize)
	}
	smallerHigh := smallerSampleSize - 1
	biggerLow := smallerHigh + 1
	biggerHigh := biggerLow + biggerSampleSize - 1

	// One child seed per concern, so the tables stay decorrelated.
	seeds := random.NewSeedFactory(seed).NextN(5)

	smaller, err := randomTable(params.SmallerRows, params.SmallerColumns, 0, smallerHigh, seeds[0], seeds[1])
	if err != nil {
		return err
	}
	bigger, err := randomTable(params.SmallerRows*params.RatioRows, params.BiggerColumns, biggerLow, biggerHigh, seeds[2], seeds[3])
	if err != nil {
		return err
	}

	if params.Overlap > 0 {
		if err := InjectOverlap(smaller, 0, bigger, 0, params.Overlap, seeds[4]); err != nil {
			return err
		}
	}

	if smallerSorted {
		smaller.SortByColumn(0)
	}
	if biggerSorted {
		bigger.SortByColumn(0)
	}

	// Hash join first: the merge join needs sorted inputs, and sorting
	// them is itself one of the measurements.
	var hashRows, mergeRows int
	table.AddMeasurement(row, ColHashJoinTime, func() {
		hashRows = d.hashJoin(smaller, 0, bigger, 0).NumRows()
	})
	table.AddMeasurement(row, ColSortTime, func() {
		if !smallerSorted {
			smaller.SortByColumn(0)
		}
		if !biggerSorted {
			bigger.SortByColumn(0)
		}
	})
	table.AddMeasurement(row, ColMergeJoinTime, func() {
		mergeRows = d.mergeJoin(smaller, 0, bigger, 0).NumRows()
	})
	if hashRows != mergeRows {
		return fmt.Errorf("join result sizes differ: hash join %d rows, merge join %d rows", hashRows, mergeRows)
	}
	table.SetCell(row, ColResultRows, CountCell(uint64(mergeRows)))

	d.log.Debug("benchmark row measured",
		"table", table.Name, "row", row,
		"smallerRows", params.SmallerRows, "biggerRows", params.SmallerRows*params.RatioRows,
		"resultRows", mergeRows)
	return nil
}

// randomTable builds a table whose join column (column 0) is uniform
// over [low, high] and whose remaining cells are unconstrained random
// values.
func randomTable(rows, columns uint64, low, high uint64, joinSeed, restSeed random.Seed) (*idtable.Table, error) {
	joinValues, err := random.NewUniformInt(int64(low), int64(high), joinSeed)
	if err != nil {
		return nil, err
	}
	rest := random.NewFastInt(restSeed)

	table := idtable.NewWithCapacity(int(columns), int(rows))
	rowValues := make([]int64, columns)
	for i := uint64(0); i < rows; i++ {
		rowValues[0] = joinValues.Next()
		for c := uint64(1); c < columns; c++ {
			rowValues[c] = rest.Next()
		}
		table.AppendRow(rowValues...)
	}
	return table, nil
}

// InjectOverlap overwrites join-column entries of the smaller table with
// uniformly chosen join-column entries of the bigger table, each row
// independently with probability chance/100. The chance must be in
// (0, 100] and the bigger table must not be smaller than the smaller
// one.
func InjectOverlap(smaller *idtable.Table, smallerColumn int, bigger *idtable.Table, biggerColumn int, chance float64, seed random.Seed) error {
	if chance <= 0 || chance > 100 {
		return fmt.Errorf("overlap chance must be in (0, 100], got %v", chance)
	}
	if smaller.NumRows() > bigger.NumRows() {
		return fmt.Errorf("overlap injection needs the bigger table to have at least as many rows (%d > %d)",
			smaller.NumRows(), bigger.NumRows())
	}

	seeds := random.NewSeedFactory(seed).NextN(2)
	biggerRow, err := random.NewUniformInt(0, int64(bigger.NumRows())-1, seeds[0])
	if err != nil {
		return err
	}
	coin := random.NewUniformDouble(0, 100, seeds[1])

	for row := 0; row < smaller.NumRows(); row++ {
		if coin.Next() <= chance {
			smaller.Set(row, smallerColumn, bigger.At(int(biggerRow.Next()), biggerColumn))
		}
	}
	return nil
}

// NextWholeExponent returns the smallest n with base^n >= start.
func NextWholeExponent(base, start uint64) uint64 {
	if start <= 1 {
		return 0
	}
	exponent := uint64(0)
	value := uint64(1)
	for value < start {
		value = saturatingMul(value, base)
		exponent++
	}
	return exponent
}

// GrowthFunction returns base^(n+row) with n the smallest whole exponent
// reaching start. It is the default growth of the packaged scenarios.
func GrowthFunction(base, start uint64) func(row int) uint64 {
	startExponent := NextWholeExponent(base, start)
	return func(row int) uint64 {
		return pow(base, startExponent+uint64(row))
	}
}

// ExponentRange returns {base^i, base^(i+1), ...} for all powers within
// [start, stop].
func ExponentRange(base, start, stop uint64) []uint64 {
	var values []uint64
	value := pow(base, NextWholeExponent(base, start))
	for value <= stop {
		values = append(values, value)
		next := saturatingMul(value, base)
		if next == value {
			break
		}
		value = next
	}
	return values
}

func pow(base, exponent uint64) uint64 {
	value := uint64(1)
	for i := uint64(0); i < exponent; i++ {
		value = saturatingMul(value, base)
	}
	return value
}

func saturatingMul(a, b uint64) uint64 {
	if a != 0 && b > math.MaxUint64/a {
		return math.MaxUint64
	}
	return a * b
}
