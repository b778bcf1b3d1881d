package bench

import (
	"errors"
	"strings"
	"testing"

	"github.com/jihwankim/joinbench/pkg/config"
	"github.com/jihwankim/joinbench/pkg/memsize"
)

func registeredSettings(t *testing.T) (*config.Manager, *Settings) {
	t.Helper()
	manager := config.New()
	settings := &Settings{}
	settings.Register(manager)
	return manager, settings
}

func TestRegisterDefaults(t *testing.T) {
	manager, settings := registeredSettings(t)

	if _, err := manager.ApplyTree(map[string]any{}); err != nil {
		t.Fatalf("ApplyTree({}) returned error: %v", err)
	}

	if settings.SmallerTableRows != 1000 {
		t.Errorf("smallerTableAmountRows default = %d, want 1000", settings.SmallerTableRows)
	}
	if settings.MinBiggerTableRows != 100000 || settings.MaxBiggerTableRows != 10000000 {
		t.Errorf("bigger table row bounds = (%d, %d)", settings.MinBiggerTableRows, settings.MaxBiggerTableRows)
	}
	if settings.SmallerTableColumns != 20 || settings.BiggerTableColumns != 20 {
		t.Errorf("column defaults = (%d, %d), want (20, 20)", settings.SmallerTableColumns, settings.BiggerTableColumns)
	}
	if settings.OverlapChance != 42.0 {
		t.Errorf("overlapChance default = %v, want 42.0", settings.OverlapChance)
	}
	if settings.RatioRows != 10 || settings.MinRatioRows != 10 || settings.MaxRatioRows != 1000 {
		t.Errorf("ratio defaults = (%d, %d, %d)", settings.RatioRows, settings.MinRatioRows, settings.MaxRatioRows)
	}
	if settings.MaxMemoryLiteral != "0 B" || settings.MaxTimeSingleMeasurement != 0 {
		t.Errorf("budget defaults = (%q, %v)", settings.MaxMemoryLiteral, settings.MaxTimeSingleMeasurement)
	}
	if settings.SmallerSampleRatio != 1.0 || settings.BiggerSampleRatio != 1.0 {
		t.Errorf("sample ratio defaults = (%v, %v)", settings.SmallerSampleRatio, settings.BiggerSampleRatio)
	}
}

func TestRegisterAppliesShorthand(t *testing.T) {
	manager, settings := registeredSettings(t)

	_, err := manager.ApplyShorthand(
		`smallerTableAmountRows=500; ratioRows=100; overlapChance=25.5; maxMemory="8 MB"; randomSeed=42;`)
	if err != nil {
		t.Fatalf("ApplyShorthand returned error: %v", err)
	}

	if settings.SmallerTableRows != 500 || settings.RatioRows != 100 {
		t.Errorf("rows/ratio = (%d, %d)", settings.SmallerTableRows, settings.RatioRows)
	}
	if settings.OverlapChance != 25.5 || settings.RandomSeed != 42 {
		t.Errorf("overlap/seed = (%v, %d)", settings.OverlapChance, settings.RandomSeed)
	}

	maximum, err := settings.MaxMemory()
	if err != nil {
		t.Fatalf("MaxMemory returned error: %v", err)
	}
	if maximum != memsize.MustParse("8 MB") {
		t.Errorf("maxMemory = %v, want 8 MB", maximum)
	}
}

func TestRegisterValidators(t *testing.T) {
	cases := []struct {
		name      string
		shorthand string
	}{
		{"ratio below 10", "ratioRows=5;"},
		{"zero smaller rows", "smallerTableAmountRows=0;"},
		{"smaller above minBigger", "smallerTableAmountRows=200000;"},
		{"minBigger below threshold", "minBiggerTableRows=50;"},
		{"minBigger above maxBigger", "maxBiggerTableRows=100000; minBiggerTableRows=2000000;"},
		{"zero columns", "smallerTableAmountColumns=0;"},
		{"zero overlap", "overlapChance=0.0;"},
		{"seed too large", "randomSeed=4294967296;"},
		{"negative max time", "maxTimeSingleMeasurement=-1.0;"},
		{"min ratio above max ratio", "minRatioRows=2000;"},
		{"memory too small for one row", `maxMemory="10 B";`},
		{"zero sample ratio", "smallerTableJoinColumnSampleSizeRatio=0.0;"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			manager, _ := registeredSettings(t)
			_, err := manager.ApplyShorthand(tc.shorthand)
			var failed *config.ValidatorFailedError
			if !errors.As(err, &failed) {
				t.Errorf("ApplyShorthand(%q) = %v, want ValidatorFailedError", tc.shorthand, err)
			}
		})
	}
}

func TestRegisterRejectsMalformedMemoryLiteral(t *testing.T) {
	manager, _ := registeredSettings(t)
	_, err := manager.ApplyShorthand(`maxMemory="lots";`)

	var badFormat *memsize.BadFormatError
	if !errors.As(err, &badFormat) {
		t.Errorf("malformed maxMemory = %v, want a wrapped BadFormatError", err)
	}
}

func TestRegisterDocumentationListsAllOptions(t *testing.T) {
	manager, _ := registeredSettings(t)

	detailed := manager.Documentation(config.DocDetailed)
	for _, option := range []string{
		"smallerTableAmountRows", "minBiggerTableRows", "maxBiggerTableRows",
		"smallerTableAmountColumns", "biggerTableAmountColumns", "overlapChance",
		"randomSeed", "ratioRows", "minRatioRows", "maxRatioRows",
		"maxMemory", "maxTimeSingleMeasurement",
		"smallerTableJoinColumnSampleSizeRatio", "biggerTableJoinColumnSampleSizeRatio",
	} {
		if !strings.Contains(detailed, option) {
			t.Errorf("detailed documentation missing option %q", option)
		}
	}
}

func TestMaxMemoryBiggerTableFallsBackToRowBound(t *testing.T) {
	settings := &Settings{
		MaxBiggerTableRows: 1000,
		BiggerTableColumns: 2,
		MaxMemoryLiteral:   "0 B",
	}
	maximum, err := settings.MaxMemoryBiggerTable()
	if err != nil {
		t.Fatalf("MaxMemoryBiggerTable returned error: %v", err)
	}
	if maximum != ApproximateTableMemory(1000, 2) {
		t.Errorf("fallback cap = %v, want %v", maximum, ApproximateTableMemory(1000, 2))
	}

	settings.MaxMemoryLiteral = "4 KB"
	maximum, err = settings.MaxMemoryBiggerTable()
	if err != nil {
		t.Fatalf("MaxMemoryBiggerTable returned error: %v", err)
	}
	if maximum != memsize.MustParse("4 KB") {
		t.Errorf("explicit cap = %v, want 4 KB", maximum)
	}
}
