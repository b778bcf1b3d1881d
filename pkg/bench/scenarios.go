package bench

import (
	"fmt"

	"github.com/jihwankim/joinbench/pkg/memsize"
)

// BudgetExhaustedError reports a benchmark table whose budgets forbade
// even the first row.
type BudgetExhaustedError struct {
	Table string
}

func (e *BudgetExhaustedError) Error() string {
	return fmt.Sprintf("the memory budget was exhausted before table %q could produce a single row", e.Table)
}

// Scenario is one packaged benchmark reusing the growing-table engine.
type Scenario struct {
	Key  string
	Name string
	run  func(d *Driver, s *Settings) (*Results, error)
}

// Scenarios returns the packaged benchmarks in their canonical order.
func Scenarios() []Scenario {
	return []Scenario{
		{
			Key:  "same-size-growth",
			Name: "Benchmark tables where the tables are the same size and both keep getting more rows.",
			run:  runSameSizeGrowth,
		},
		{
			Key:  "smaller-table-grows",
			Name: "Benchmark tables where the smaller table grows and the ratio between the tables stays the same.",
			run:  runSmallerTableGrows,
		},
		{
			Key:  "bigger-table-grows",
			Name: "Benchmark tables where the smaller table stays at the same amount of rows and the bigger table keeps growing.",
			run:  runBiggerTableGrows,
		},
	}
}

// ScenarioByKey looks a packaged scenario up.
func ScenarioByKey(key string) (Scenario, bool) {
	for _, scenario := range Scenarios() {
		if scenario.Key == key {
			return scenario, true
		}
	}
	return Scenario{}, false
}

// Run executes the scenario with the given driver and settings. The
// returned results hold every table that was produced, even when an
// error ended the run early.
func (sc Scenario) Run(d *Driver, s *Settings) (*Results, error) {
	return sc.run(d, s)
}

// sortedCombinations are the four (smallerSorted, biggerSorted) pairs
// every scenario sweeps.
var sortedCombinations = []struct {
	smallerSorted bool
	biggerSorted  bool
}{
	{false, false},
	{false, true},
	{true, false},
	{true, true},
}

func (s *Settings) budgets() (Budgets, error) {
	capBigger, err := s.MaxMemoryBiggerTable()
	if err != nil {
		return Budgets{}, err
	}
	capJoin, err := s.MaxMemory()
	if err != nil {
		return Budgets{}, err
	}
	return Budgets{
		MaxTime:          s.MaxTimeSingleMeasurement,
		MaxMemorySmaller: capBigger,
		MaxMemoryBigger:  capBigger,
		MaxMemoryJoin:    capJoin,
	}, nil
}

func newScenarioResults(name, varyingParameter string, s *Settings) (*Results, error) {
	results := NewResults(name)
	external, err := s.externalConfiguration()
	if err != nil {
		return nil, err
	}
	for key, value := range external {
		results.Metadata[key] = value
	}
	results.Metadata["Value changing with every row"] = varyingParameter
	results.Metadata["overlapChance"] = s.OverlapChance
	results.Metadata["randomSeed"] = s.RandomSeed
	results.Metadata["smallerTableAmountColumns"] = s.SmallerTableColumns
	results.Metadata["biggerTableAmountColumns"] = s.BiggerTableColumns
	return results, nil
}

// checkGrown converts a budget stop before the first row into a
// BudgetExhaustedError.
func checkGrown(table *ResultTable, state State, err error) error {
	if err != nil {
		return err
	}
	if state == StateStoppedBudget && table.NumRows() == 0 {
		return &BudgetExhaustedError{Table: table.Name}
	}
	return nil
}

// runBiggerTableGrows keeps the smaller table at a fixed row count while
// the row ratio grows exponentially with base 10.
func runBiggerTableGrows(d *Driver, s *Settings) (*Results, error) {
	results, err := newScenarioResults(
		"Benchmark tables where the smaller table stays at the same amount of rows and the bigger table keeps growing.",
		"ratioRows", s)
	if err != nil {
		return nil, err
	}
	results.Metadata["smallerTableAmountRows"] = s.SmallerTableRows

	budgets, err := s.budgets()
	if err != nil {
		return nil, err
	}

	for _, combo := range sortedCombinations {
		growth := GrowthFunction(10, s.MinBiggerTableRows/s.SmallerTableRows)

		spec := RunSpec{
			TableName: fmt.Sprintf("Smaller table stays at %d rows, ratio to rows of bigger table grows.",
				s.SmallerTableRows),
			ParameterName: "Row ratio",
			Varying:       func(row int) float64 { return float64(growth(row)) },
			Params: func(row int) RowParams {
				return RowParams{
					Overlap:            s.OverlapChance,
					RatioRows:          growth(row),
					SmallerRows:        s.SmallerTableRows,
					SmallerColumns:     s.SmallerTableColumns,
					BiggerColumns:      s.BiggerTableColumns,
					SmallerSampleRatio: s.SmallerSampleRatio,
					BiggerSampleRatio:  s.BiggerSampleRatio,
				}
			},
			Seed:          s.Seed(),
			SmallerSorted: combo.smallerSorted,
			BiggerSorted:  combo.biggerSorted,
			Stop: DefaultStopPolicy(budgets,
				func(row int) memsize.Size {
					return ApproximateTableMemory(s.SmallerTableRows, s.SmallerTableColumns)
				},
				func(row int) memsize.Size {
					return ApproximateTableMemory(s.SmallerTableRows*growth(row), s.BiggerTableColumns)
				},
				s.SmallerTableColumns+s.BiggerTableColumns-1),
		}

		table, state, err := d.Grow(results, spec)
		if table != nil {
			table.Metadata["smallerTableSorted"] = combo.smallerSorted
			table.Metadata["biggerTableSorted"] = combo.biggerSorted
		}
		if err := checkGrown(table, state, err); err != nil {
			return results, err
		}
	}
	return results, nil
}

// runSmallerTableGrows grows the smaller table exponentially, one table
// per row ratio from the configured ratio ladder.
func runSmallerTableGrows(d *Driver, s *Settings) (*Results, error) {
	results, err := newScenarioResults(
		"Benchmark tables where the smaller table grows and the ratio between the tables stays the same.",
		"smallerTableAmountRows", s)
	if err != nil {
		return nil, err
	}

	budgets, err := s.budgets()
	if err != nil {
		return nil, err
	}

	for _, combo := range sortedCombinations {
		for _, ratio := range ExponentRange(10, s.MinRatioRows, s.MaxRatioRows) {
			ratio := ratio
			growth := GrowthFunction(10, s.MinBiggerTableRows/ratio)

			spec := RunSpec{
				TableName: fmt.Sprintf("The amount of rows in the smaller table grows, the row ratio stays at %d.",
					ratio),
				ParameterName: "Amount of rows in the smaller table",
				Varying:       func(row int) float64 { return float64(growth(row)) },
				Params: func(row int) RowParams {
					return RowParams{
						Overlap:            s.OverlapChance,
						RatioRows:          ratio,
						SmallerRows:        growth(row),
						SmallerColumns:     s.SmallerTableColumns,
						BiggerColumns:      s.BiggerTableColumns,
						SmallerSampleRatio: s.SmallerSampleRatio,
						BiggerSampleRatio:  s.BiggerSampleRatio,
					}
				},
				Seed:          s.Seed(),
				SmallerSorted: combo.smallerSorted,
				BiggerSorted:  combo.biggerSorted,
				Stop: DefaultStopPolicy(budgets,
					func(row int) memsize.Size {
						return ApproximateTableMemory(growth(row), s.SmallerTableColumns)
					},
					func(row int) memsize.Size {
						return ApproximateTableMemory(growth(row)*ratio, s.BiggerTableColumns)
					},
					s.SmallerTableColumns+s.BiggerTableColumns-1),
			}

			table, state, err := d.Grow(results, spec)
			if table != nil {
				table.Metadata["smallerTableSorted"] = combo.smallerSorted
				table.Metadata["biggerTableSorted"] = combo.biggerSorted
				table.Metadata["ratioRows"] = ratio
			}
			if err := checkGrown(table, state, err); err != nil {
				return results, err
			}
		}
	}
	return results, nil
}

// runSameSizeGrowth grows both tables together at a row ratio of 1.
func runSameSizeGrowth(d *Driver, s *Settings) (*Results, error) {
	results, err := newScenarioResults(
		"Benchmark tables where the tables are the same size and both keep getting more rows.",
		"smallerTableAmountRows", s)
	if err != nil {
		return nil, err
	}
	results.Metadata["ratioRows"] = 1

	budgets, err := s.budgets()
	if err != nil {
		return nil, err
	}

	for _, combo := range sortedCombinations {
		growth := GrowthFunction(10, s.MinBiggerTableRows)

		spec := RunSpec{
			TableName:     "Both tables always have the same amount of rows and that amount grows.",
			ParameterName: "Amount of rows",
			Varying:       func(row int) float64 { return float64(growth(row)) },
			Params: func(row int) RowParams {
				return RowParams{
					Overlap:            s.OverlapChance,
					RatioRows:          1,
					SmallerRows:        growth(row),
					SmallerColumns:     s.SmallerTableColumns,
					BiggerColumns:      s.BiggerTableColumns,
					SmallerSampleRatio: s.SmallerSampleRatio,
					BiggerSampleRatio:  s.BiggerSampleRatio,
				}
			},
			Seed:          s.Seed(),
			SmallerSorted: combo.smallerSorted,
			BiggerSorted:  combo.biggerSorted,
			Stop: DefaultStopPolicy(budgets,
				func(row int) memsize.Size {
					return ApproximateTableMemory(growth(row), s.SmallerTableColumns)
				},
				func(row int) memsize.Size {
					return ApproximateTableMemory(growth(row), s.BiggerTableColumns)
				},
				s.SmallerTableColumns+s.BiggerTableColumns-1),
		}

		table, state, err := d.Grow(results, spec)
		if table != nil {
			table.Metadata["smallerTableSorted"] = combo.smallerSorted
			table.Metadata["biggerTableSorted"] = combo.biggerSorted
		}
		if err := checkGrown(table, state, err); err != nil {
			return results, err
		}
	}
	return results, nil
}
