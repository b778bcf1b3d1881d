package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jihwankim/joinbench/pkg/bench"
	"github.com/jihwankim/joinbench/pkg/config"
	"github.com/jihwankim/joinbench/pkg/config/shorthand"
	"github.com/jihwankim/joinbench/pkg/join"
	"github.com/jihwankim/joinbench/pkg/reporting"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Args:  cobra.NoArgs,
	Short: "Execute the join benchmarks",
	Long: `Configures the benchmark from a JSON tree and/or the assignment shorthand,
runs the selected scenarios, and writes the results as JSON.`,
	RunE: runBenchmarks,
}

func init() {
	runCmd.Flags().String("config-json", "", "path to a benchmark configuration JSON file")
	runCmd.Flags().String("config-shorthand", "", "benchmark configuration in assignment shorthand (wins over --config-json on conflicts)")
	runCmd.Flags().String("print-config", "", "print the configuration documentation (brief or detailed) and exit")
	runCmd.Flags().Lookup("print-config").NoOptDefVal = "brief"
	runCmd.Flags().String("out", "", "where to write the results JSON (default stdout)")
	runCmd.Flags().StringArray("scenario", []string{}, "packaged scenario to run (repeatable; default all)")
	runCmd.Flags().String("progress", "none", "per-row progress output (text, json, none)")
	runCmd.Flags().String("format", "json", "results output format (json, text)")
}

func runBenchmarks(cmd *cobra.Command, args []string) error {
	jsonPath, _ := cmd.Flags().GetString("config-json")
	shorthandInput, _ := cmd.Flags().GetString("config-shorthand")
	printConfig, _ := cmd.Flags().GetString("print-config")
	outPath, _ := cmd.Flags().GetString("out")
	scenarioKeys, _ := cmd.Flags().GetStringArray("scenario")
	progressFormat, _ := cmd.Flags().GetString("progress")
	outputFormat, _ := cmd.Flags().GetString("format")

	// Load tool configuration
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load tool configuration: %w", err)
	}

	// Initialize logger
	logLevel := reporting.LogLevel(cfg.Framework.LogLevel)
	if verbose {
		logLevel = reporting.LogLevelDebug
	}
	logger := reporting.NewLogger(reporting.LoggerConfig{
		Level:  logLevel,
		Format: reporting.LogFormat(cfg.Framework.LogFormat),
	})

	logger.Info("Joinbench starting", "version", version)

	// Register the benchmark options and validators
	manager := config.New()
	settings := &bench.Settings{}
	settings.Register(manager)

	// Assemble the configuration tree. The shorthand overlays the JSON
	// file, so it wins on key conflicts.
	tree, err := assembleConfigTree(jsonPath, shorthandInput)
	if err != nil {
		return err
	}

	warnings, err := manager.ApplyTree(tree)
	if err != nil {
		// Documentation can still be printed against the defaults when
		// only required options are missing.
		var missing *config.MissingRequiredError
		if printConfig != "" && errors.As(err, &missing) {
			fmt.Println(documentation(manager, printConfig))
			return nil
		}
		return err
	}
	for _, warning := range warnings {
		logger.Warn(warning.String())
	}

	if printConfig != "" {
		switch printConfig {
		case "brief", "detailed":
			fmt.Println(documentation(manager, printConfig))
			return nil
		default:
			return fmt.Errorf("--print-config accepts 'brief' or 'detailed', got %q", printConfig)
		}
	}

	logger.Info("Benchmark configured", "randomSeed", settings.RandomSeed)

	// Resolve which scenarios run: flags win over the tool config file;
	// the default is all of them.
	if len(scenarioKeys) == 0 {
		scenarioKeys = cfg.Benchmark.Scenarios
	}
	scenarios, err := resolveScenarios(scenarioKeys)
	if err != nil {
		return err
	}

	// Progress lines share stdout with the results; keep them apart.
	var progress *reporting.ProgressReporter
	if progressFormat != "none" && outPath == "" {
		logger.Warn("Progress output disabled because results go to stdout")
	} else if progressFormat != "none" {
		progress = reporting.NewProgressReporter(reporting.OutputFormat(progressFormat), logger)
	}

	driver := bench.NewDriver(logger, progress, join.Hash, join.SortedMerge)
	startTime := runTimestamp()

	var runs []*bench.Results
	var runErr error
	for _, scenario := range scenarios {
		logger.Info("Running benchmark", "scenario", scenario.Key)
		results, err := scenario.Run(driver, settings)
		if results != nil {
			results.Metadata["date"] = startTime.Format("2006-01-02 15:04:05")
			runs = append(runs, results)
		}
		if err != nil {
			runErr = err
			break
		}
	}

	// Write whatever was produced, even after an error: partial tables
	// of a stopped run are still valid measurements.
	if len(runs) > 0 {
		if err := writeResults(runs, outPath, outputFormat); err != nil {
			if runErr == nil {
				runErr = err
			} else {
				logger.Error("Failed to write results", "error", err)
			}
		}

		if cfg.Reporting.OutputDir != "" {
			storage, err := reporting.NewStorage(cfg.Reporting.OutputDir, cfg.Reporting.KeepLastN, logger)
			if err != nil {
				logger.Warn("Failed to create results archive", "error", err)
			} else if _, err := storage.SaveResults(runs, startTime); err != nil {
				logger.Warn("Failed to archive results", "error", err)
			}
		}
	}

	if runErr != nil {
		return runErr
	}
	logger.Info("All benchmarks completed", "runs", len(runs))
	return nil
}

// assembleConfigTree merges the JSON file and the shorthand string into
// one configuration tree, the shorthand winning on conflicts.
func assembleConfigTree(jsonPath, shorthandInput string) (map[string]any, error) {
	tree := map[string]any{}

	if jsonPath != "" {
		data, err := os.ReadFile(jsonPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file: %w", err)
		}
		root, err := decodeJSONTree(data)
		if err != nil {
			return nil, err
		}
		object, ok := root.(map[string]any)
		if !ok {
			return nil, &config.NotObjectError{Actual: fmt.Sprintf("%T", root)}
		}
		tree = object
	}

	if shorthandInput != "" {
		overlay, err := shorthand.Parse(shorthandInput)
		if err != nil {
			return nil, err
		}
		tree = config.MergeTrees(tree, overlay)
	}

	return tree, nil
}

func decodeJSONTree(data []byte) (any, error) {
	decoder := json.NewDecoder(bytesReader(data))
	decoder.UseNumber()
	var root any
	if err := decoder.Decode(&root); err != nil {
		return nil, fmt.Errorf("decoding configuration JSON: %w", err)
	}
	if decoder.More() {
		return nil, fmt.Errorf("decoding configuration JSON: trailing content after the root value")
	}
	return root, nil
}

func documentation(manager *config.Manager, mode string) string {
	if mode == "detailed" {
		return manager.Documentation(config.DocDetailed)
	}
	return manager.Documentation(config.DocBrief)
}

// resolveScenarios maps scenario keys to scenarios; no keys means all.
func resolveScenarios(keys []string) ([]bench.Scenario, error) {
	if len(keys) == 0 {
		return bench.Scenarios(), nil
	}
	scenarios := make([]bench.Scenario, 0, len(keys))
	for _, key := range keys {
		scenario, ok := bench.ScenarioByKey(key)
		if !ok {
			return nil, fmt.Errorf("unknown scenario %q (known: %s)", key, knownScenarioKeys())
		}
		scenarios = append(scenarios, scenario)
	}
	return scenarios, nil
}

// writeResults renders the run records to the output path or stdout.
func writeResults(runs []*bench.Results, outPath, format string) error {
	var output []byte
	switch format {
	case "json":
		data, err := json.MarshalIndent(runs, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		output = data
	case "text":
		var sb []byte
		for _, run := range runs {
			sb = append(sb, run.FormatText()...)
		}
		output = sb
	default:
		return fmt.Errorf("unsupported results format: %s", format)
	}

	if outPath == "" {
		fmt.Println(string(output))
		return nil
	}
	if err := os.WriteFile(outPath, output, 0644); err != nil {
		return fmt.Errorf("failed to write results file: %w", err)
	}
	return nil
}
