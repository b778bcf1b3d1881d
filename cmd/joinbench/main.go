package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/jihwankim/joinbench/pkg/bench"
	"github.com/jihwankim/joinbench/pkg/config"
	"github.com/jihwankim/joinbench/pkg/config/shorthand"
	"github.com/jihwankim/joinbench/pkg/memsize"
)

var (
	// Global flags
	cfgFile string
	verbose bool
	version = "dev" // Will be set by build flags
)

var rootCmd = &cobra.Command{
	Use:   "joinbench",
	Short: "Controlled benchmarks of hash join against sort+merge/galloping join",
	Long: `Joinbench drives controlled performance experiments on relational join
algorithms. It synthesises randomised input tables of growing size, runs a
hash join and a merge/galloping join under identical conditions, and records
per-row timings, cardinalities and speedups until the configured time or
memory budgets are exhausted.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "tool config file (default is ./joinbench.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	rootCmd.AddCommand(runCmd)
}

// Commands are defined in separate files:
// - runCmd in run.go

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

// exitCode maps an error to the documented exit codes: 0 for no error,
// 2 for invalid configuration, 3 for a failed validator, 4 for budgets
// exhausted before any row, 1 for everything unexpected.
func exitCode(err error) int {
	if err == nil {
		return 0
	}

	var budgetExhausted *bench.BudgetExhaustedError
	if errors.As(err, &budgetExhausted) {
		return 4
	}

	var (
		syntaxErr       *shorthand.SyntaxError
		duplicateKey    *shorthand.DuplicateKeyError
		notObject       *config.NotObjectError
		unknownOption   *config.UnknownOptionError
		missingRequired *config.MissingRequiredError
		wrongType       *config.WrongTypeError
		badFormat       *memsize.BadFormatError
	)
	switch {
	case errors.As(err, &syntaxErr),
		errors.As(err, &duplicateKey),
		errors.As(err, &notObject),
		errors.As(err, &unknownOption),
		errors.As(err, &missingRequired),
		errors.As(err, &wrongType),
		errors.As(err, &badFormat):
		return 2
	}

	var validatorFailed *config.ValidatorFailedError
	if errors.As(err, &validatorFailed) {
		return 3
	}
	return 1
}
