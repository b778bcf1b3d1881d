package reporting

import (
	"encoding/json"
	"fmt"
	"time"
)

// OutputFormat represents the progress output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// ProgressReporter reports benchmark execution progress
type ProgressReporter struct {
	format OutputFormat
	logger *Logger
}

// NewProgressReporter creates a new progress reporter
func NewProgressReporter(format OutputFormat, logger *Logger) *ProgressReporter {
	return &ProgressReporter{
		format: format,
		logger: logger,
	}
}

// TableStarted reports that a benchmark table began growing.
func (pr *ProgressReporter) TableStarted(table string) {
	switch pr.format {
	case FormatJSON:
		data, _ := json.Marshal(map[string]interface{}{
			"event":     "table_started",
			"table":     table,
			"timestamp": time.Now(),
		})
		fmt.Println(string(data))
	default:
		fmt.Printf("[TABLE] %s\n", table)
	}
}

// RowCompleted reports a finished benchmark row.
func (pr *ProgressReporter) RowCompleted(table string, row int) {
	switch pr.format {
	case FormatJSON:
		data, _ := json.Marshal(map[string]interface{}{
			"event":     "row_completed",
			"table":     table,
			"row":       row,
			"timestamp": time.Now(),
		})
		fmt.Println(string(data))
	default:
		fmt.Printf("[ROW] %s: row %d done\n", table, row)
	}
}

// TableCompleted reports a finished benchmark table and its final state.
func (pr *ProgressReporter) TableCompleted(table string, rows int, state string) {
	switch pr.format {
	case FormatJSON:
		data, _ := json.Marshal(map[string]interface{}{
			"event":     "table_completed",
			"table":     table,
			"rows":      rows,
			"state":     state,
			"timestamp": time.Now(),
		})
		fmt.Println(string(data))
	default:
		fmt.Printf("[TABLE] %s: %d rows (%s)\n", table, rows, state)
	}
}
