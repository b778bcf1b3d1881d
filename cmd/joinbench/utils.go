package main

import (
	"bytes"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jihwankim/joinbench/pkg/bench"
	"github.com/jihwankim/joinbench/pkg/toolcfg"
)

// loadConfig loads the tool configuration from the --config flag or the
// default location.
func loadConfig() (*toolcfg.Config, error) {
	cfg, err := toolcfg.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runTimestamp returns the wall-clock start of the run, honouring
// SOURCE_DATE_EPOCH so tests and reproducible builds get stable
// timestamps.
func runTimestamp() time.Time {
	if epoch := os.Getenv("SOURCE_DATE_EPOCH"); epoch != "" {
		if seconds, err := strconv.ParseInt(epoch, 10, 64); err == nil {
			return time.Unix(seconds, 0).UTC()
		}
	}
	return time.Now()
}

// knownScenarioKeys renders the packaged scenario keys for messages.
func knownScenarioKeys() string {
	keys := make([]string, 0)
	for _, scenario := range bench.Scenarios() {
		keys = append(keys, scenario.Key)
	}
	return strings.Join(keys, ", ")
}

// bytesReader adapts a byte slice for json.NewDecoder.
func bytesReader(data []byte) io.Reader {
	return bytes.NewReader(data)
}
