package bench

import (
	"fmt"

	"github.com/jihwankim/joinbench/pkg/config"
	"github.com/jihwankim/joinbench/pkg/memsize"
	"github.com/jihwankim/joinbench/pkg/random"
)

// defaultMinBiggerTableRows is where measurements start to show the
// interesting differences between the join algorithms.
const defaultMinBiggerTableRows = 100000

// Settings are the benchmark parameters, bound to a configuration
// manager by Register. The zero value is not usable before Register has
// applied the defaults.
type Settings struct {
	SmallerTableRows    uint64
	MinBiggerTableRows  uint64
	MaxBiggerTableRows  uint64
	SmallerTableColumns uint64
	BiggerTableColumns  uint64
	OverlapChance       float64
	RandomSeed          uint64
	RatioRows           uint64
	MinRatioRows        uint64
	MaxRatioRows        uint64

	// MaxMemoryLiteral is kept in literal form ("4 MB", "0 B" for
	// unlimited) and parsed on demand, so error messages can echo what
	// the user wrote.
	MaxMemoryLiteral string

	// MaxTimeSingleMeasurement is in seconds; 0 means unlimited.
	MaxTimeSingleMeasurement float64

	SmallerSampleRatio float64
	BiggerSampleRatio  float64
}

// Register adds every benchmark option and validator to the manager,
// binding them to this Settings value.
func (s *Settings) Register(manager *config.Manager) {
	smallerRows := config.AddOptionWithDefault(manager, "smallerTableAmountRows",
		"Amount of rows for the smaller table, if we always use the same amount.",
		&s.SmallerTableRows, uint64(1000))

	minBiggerRows := config.AddOptionWithDefault(manager, "minBiggerTableRows",
		"The minimum amount of rows for the bigger table.",
		&s.MinBiggerTableRows, uint64(defaultMinBiggerTableRows))
	maxBiggerRows := config.AddOptionWithDefault(manager, "maxBiggerTableRows",
		"The maximum amount of rows for the bigger table.",
		&s.MaxBiggerTableRows, uint64(10000000))

	smallerColumns := config.AddOptionWithDefault(manager, "smallerTableAmountColumns",
		"The amount of columns in the smaller table.",
		&s.SmallerTableColumns, uint64(20))
	biggerColumns := config.AddOptionWithDefault(manager, "biggerTableAmountColumns",
		"The amount of columns in the bigger table.",
		&s.BiggerTableColumns, uint64(20))

	overlapChance := config.AddOptionWithDefault(manager, "overlapChance",
		"Chance for an entry in the join column of the smaller table to be the same "+
			"value as an entry in the join column of the bigger table. Must be in the "+
			"range (0, 100].",
		&s.OverlapChance, 42.0)

	randomSeed := config.AddOptionWithDefault(manager, "randomSeed",
		"The seed used for random generators. Note: the default value is a "+
			"non-deterministic random value, which changes with every execution.",
		&s.RandomSeed, random.NonDeterministicSeed().Value())

	ratioRows := config.AddOptionWithDefault(manager, "ratioRows",
		"The row ratio between the smaller and the bigger table. That is the amount "+
			"of rows in the bigger table divided by the amount of rows in the smaller table.",
		&s.RatioRows, uint64(10))
	minRatioRows := config.AddOptionWithDefault(manager, "minRatioRows",
		"The minimum row ratio between the smaller and the bigger table.",
		&s.MinRatioRows, uint64(10))
	maxRatioRows := config.AddOptionWithDefault(manager, "maxRatioRows",
		"The maximum row ratio between the smaller and the bigger table.",
		&s.MaxRatioRows, uint64(1000))

	maxMemory := config.AddOptionWithDefault(manager, "maxMemory",
		"Max amount of memory that a table is allowed to take up. '0 B' for "+
			"unlimited memory. Example: 4kB, 8MB, 24 B.",
		&s.MaxMemoryLiteral, "0 B")

	maxTime := config.AddOptionWithDefault(manager, "maxTimeSingleMeasurement",
		"The maximal amount of time, in seconds, any function measurement is allowed "+
			"to take. 0 for unlimited time. Note: this can only be checked after a "+
			"measurement was taken.",
		&s.MaxTimeSingleMeasurement, 0.0)

	smallerSampleRatio := config.AddOptionWithDefault(manager, "smallerTableJoinColumnSampleSizeRatio",
		"Adjusts the number of distinct values the smaller table's join column draws "+
			"from to 'amount of rows * ratio', which affects the chance of duplicates.",
		&s.SmallerSampleRatio, 1.0)
	biggerSampleRatio := config.AddOptionWithDefault(manager, "biggerTableJoinColumnSampleSizeRatio",
		"Adjusts the number of distinct values the bigger table's join column draws "+
			"from to 'amount of rows * ratio', which affects the chance of duplicates.",
		&s.BiggerSampleRatio, 1.0)

	// Is maxMemory big enough for at least one row of each table and of
	// the join result? These also reject unparseable memory literals.
	memoryFitsOneRow := func(literal, tableName string, columns uint64) error {
		maximum, err := memsize.Parse(literal)
		if err != nil {
			return err
		}
		needed := ApproximateTableMemory(1, columns)
		if maximum == 0 || needed <= maximum {
			return nil
		}
		return fmt.Errorf("'maxMemory' (%s) must be big enough for at least one row in the %s, which requires at least %s",
			maximum, tableName, needed)
	}
	config.AddValidator2(manager,
		"'maxMemory' must be big enough for at least one row in the smaller table.",
		func(literal string, columns uint64) error {
			return memoryFitsOneRow(literal, "smaller table", columns)
		}, maxMemory, smallerColumns)
	config.AddValidator2(manager,
		"'maxMemory' must be big enough for at least one row in the bigger table.",
		func(literal string, columns uint64) error {
			return memoryFitsOneRow(literal, "bigger table", columns)
		}, maxMemory, biggerColumns)
	config.AddValidator3(manager,
		"'maxMemory' must be big enough for at least one row in the result of joining the smaller and bigger table.",
		func(literal string, smaller, bigger uint64) error {
			return memoryFitsOneRow(literal, "result of joining the smaller and bigger table", smaller+bigger-1)
		}, maxMemory, smallerColumns, biggerColumns)

	atLeast := func(name string, minimum uint64) func(uint64) error {
		return func(value uint64) error {
			if value < minimum {
				return fmt.Errorf("'%s' must be at least %d, got %d", name, minimum, value)
			}
			return nil
		}
	}
	lessEqual := func(smallName, bigName string) func(uint64, uint64) error {
		return func(small, big uint64) error {
			if small > big {
				return fmt.Errorf("'%s' (%d) must be smaller than, or equal to, '%s' (%d)",
					smallName, small, bigName, big)
			}
			return nil
		}
	}

	config.AddValidator(manager, "'smallerTableAmountRows' must be at least 1.",
		atLeast("smallerTableAmountRows", 1), smallerRows)
	config.AddValidator2(manager,
		"'smallerTableAmountRows' must be smaller than, or equal to, 'minBiggerTableRows'.",
		lessEqual("smallerTableAmountRows", "minBiggerTableRows"), smallerRows, minBiggerRows)
	config.AddValidator(manager,
		fmt.Sprintf("Interesting measurement values only show up at %d rows, or more, for 'minBiggerTableRows'.",
			defaultMinBiggerTableRows),
		atLeast("minBiggerTableRows", defaultMinBiggerTableRows), minBiggerRows)
	config.AddValidator2(manager,
		"'minBiggerTableRows' must be smaller than, or equal to, 'maxBiggerTableRows'.",
		lessEqual("minBiggerTableRows", "maxBiggerTableRows"), minBiggerRows, maxBiggerRows)

	config.AddValidator(manager, "'smallerTableAmountColumns' must be at least 1.",
		atLeast("smallerTableAmountColumns", 1), smallerColumns)
	config.AddValidator(manager, "'biggerTableAmountColumns' must be at least 1.",
		atLeast("biggerTableAmountColumns", 1), biggerColumns)

	config.AddValidator(manager, "'overlapChance' must be bigger than 0.",
		func(chance float64) error {
			if chance <= 0 {
				return fmt.Errorf("%v is not bigger than 0", chance)
			}
			return nil
		}, overlapChance)

	config.AddValidator(manager,
		fmt.Sprintf("'randomSeed' must be smaller than, or equal to, %d.", random.MaxSeed),
		func(seed uint64) error {
			if seed > random.MaxSeed {
				return fmt.Errorf("%d is bigger than the maximal seed %d", seed, random.MaxSeed)
			}
			return nil
		}, randomSeed)

	config.AddValidator(manager, "'maxTimeSingleMeasurement' must be bigger than, or equal to, 0.",
		func(seconds float64) error {
			if seconds < 0 {
				return fmt.Errorf("%v is negative", seconds)
			}
			return nil
		}, maxTime)

	config.AddValidator(manager, "'ratioRows' must be at least 10.",
		atLeast("ratioRows", 10), ratioRows)
	config.AddValidator(manager, "'minRatioRows' must be at least 10.",
		atLeast("minRatioRows", 10), minRatioRows)
	config.AddValidator2(manager,
		"'minRatioRows' must be smaller than, or equal to, 'maxRatioRows'.",
		lessEqual("minRatioRows", "maxRatioRows"), minRatioRows, maxRatioRows)

	positiveRatio := func(name string) func(float64) error {
		return func(ratio float64) error {
			if ratio <= 0 {
				return fmt.Errorf("'%s' must be bigger than 0, got %v", name, ratio)
			}
			return nil
		}
	}
	config.AddValidator(manager, "'smallerTableJoinColumnSampleSizeRatio' must be bigger than 0.",
		positiveRatio("smallerTableJoinColumnSampleSizeRatio"), smallerSampleRatio)
	config.AddValidator(manager, "'biggerTableJoinColumnSampleSizeRatio' must be bigger than 0.",
		positiveRatio("biggerTableJoinColumnSampleSizeRatio"), biggerSampleRatio)
}

// Seed returns the configured random seed.
func (s *Settings) Seed() random.Seed {
	return random.MustSeed(s.RandomSeed)
}

// MaxMemory returns the configured memory cap; 0 means unlimited.
func (s *Settings) MaxMemory() (memsize.Size, error) {
	return memsize.Parse(s.MaxMemoryLiteral)
}

// MaxMemoryBiggerTable returns the memory cap for the bigger table (and
// by simple logic also the smaller one): the configured cap if one is
// set, otherwise the memory the bigger table needs at its configured
// maximum row count.
func (s *Settings) MaxMemoryBiggerTable() (memsize.Size, error) {
	maximum, err := s.MaxMemory()
	if err != nil {
		return 0, err
	}
	if maximum != 0 {
		return maximum, nil
	}
	return ApproximateTableMemory(s.MaxBiggerTableRows, s.BiggerTableColumns), nil
}

// externalConfiguration describes the externally set budgets for the
// run metadata, writing "infinite" for the 0 sentinels.
func (s *Settings) externalConfiguration() (map[string]any, error) {
	maximum, err := s.MaxMemory()
	if err != nil {
		return nil, err
	}

	meta := map[string]any{}
	if s.MaxTimeSingleMeasurement != 0 {
		meta["maxTimeSingleMeasurement"] = s.MaxTimeSingleMeasurement
	} else {
		meta["maxTimeSingleMeasurement"] = "infinite"
	}
	if maximum != 0 {
		meta["maxMemory"] = maximum.Bytes()
	} else {
		meta["maxMemory"] = "infinite"
	}
	return meta, nil
}
